// Package keeper defines the report types produced by batch renewal runs.
// The scheduler itself lives in the root recur package; failure isolation
// is expressed as a per-subscriber result collected into a Report, never as
// suppressed errors.
package keeper

import (
	"time"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/types"
)

// Status is the outcome of one candidate in a batch run.
type Status string

const (
	StatusRenewed Status = "renewed"
	StatusSkipped Status = "skipped"
	StatusPruned  Status = "pruned"
	StatusFailed  Status = "failed"
)

// SkipReason names why a candidate was passed over without a renewal
// attempt.
type SkipReason string

const (
	SkipAutoRenewOff  SkipReason = "auto_renew_disabled"
	SkipOutsideWindow SkipReason = "outside_renew_window"
	SkipNativePayment SkipReason = "native_denomination"
	SkipNotFound      SkipReason = "no_subscription"
)

// Outcome records what happened to a single candidate. Failed outcomes
// carry a notification id identifying the failure alert raised for the
// subscriber.
type Outcome struct {
	Address types.Address     `json:"address"`
	Status  Status            `json:"status"`
	Skip    SkipReason        `json:"skip_reason,omitempty"`
	Err     error             `json:"-"`
	Reason  string            `json:"reason,omitempty"` // Err.Error() for serialization
	NoteID  id.NotificationID `json:"note_id,omitempty"`
}

// Report is the result of one batch renewal run. The run as a whole only
// fails when Renewed is zero; everything else is visible here.
type Report struct {
	ID         id.BatchRunID `json:"id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	Candidates int           `json:"candidates"`
	Renewed    int           `json:"renewed"`
	Skipped    int           `json:"skipped"`
	Pruned     int           `json:"pruned"`
	Failed     int           `json:"failed"`
	Outcomes   []Outcome     `json:"outcomes"`
}

// Record appends an outcome and bumps the matching counter.
func (r *Report) Record(o Outcome) {
	if o.Err != nil && o.Reason == "" {
		o.Reason = o.Err.Error()
	}
	r.Outcomes = append(r.Outcomes, o)
	switch o.Status {
	case StatusRenewed:
		r.Renewed++
	case StatusSkipped:
		r.Skipped++
	case StatusPruned:
		r.Pruned++
	case StatusFailed:
		r.Failed++
	}
}

// Failures returns the failed outcomes only.
func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == StatusFailed {
			out = append(out, o)
		}
	}
	return out
}

// Duration returns the wall-clock duration of the run.
func (r *Report) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
