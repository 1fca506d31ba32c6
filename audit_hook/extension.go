// Package audithook bridges Recur lifecycle events to an audit trail backend.
//
// It defines a local Recorder interface so the package does not depend on
// any particular audit system. Callers inject a RecorderFunc adapter that
// bridges to their backend at wiring time.
package audithook

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xraph/recur/keeper"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/plugin"
	"github.com/xraph/recur/subscription"
)

// Compile-time interface checks.
var (
	_ plugin.Plugin                = (*Extension)(nil)
	_ plugin.OnSubscribed          = (*Extension)(nil)
	_ plugin.OnRenewed             = (*Extension)(nil)
	_ plugin.OnTierUpgraded        = (*Extension)(nil)
	_ plugin.OnAutoRenewChanged    = (*Extension)(nil)
	_ plugin.OnSubscriberPruned    = (*Extension)(nil)
	_ plugin.OnSettled             = (*Extension)(nil)
	_ plugin.OnPriceChanged        = (*Extension)(nil)
	_ plugin.OnDenominationRemoved = (*Extension)(nil)
	_ plugin.OnTreasuryChanged     = (*Extension)(nil)
	_ plugin.OnConfigChanged       = (*Extension)(nil)
	_ plugin.OnRenewalFailed       = (*Extension)(nil)
	_ plugin.OnBatchCompleted      = (*Extension)(nil)
)

// Recorder is the interface that audit backends must implement.
// It is defined locally so this package does not import a concrete audit
// module — callers inject the backend at wiring time.
type Recorder interface {
	Record(ctx context.Context, event *AuditEvent) error
}

// AuditEvent is a local representation of an audit event.
type AuditEvent struct {
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	Category   string         `json:"category"`
	ResourceID string         `json:"resource_id,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	Outcome    string         `json:"outcome"`
	Severity   string         `json:"severity"`
	Reason     string         `json:"reason,omitempty"`
}

// RecorderFunc is an adapter to use a plain function as a Recorder.
type RecorderFunc func(ctx context.Context, event *AuditEvent) error

// Record implements Recorder.
func (f RecorderFunc) Record(ctx context.Context, event *AuditEvent) error {
	return f(ctx, event)
}

// Extension bridges Recur lifecycle events to an audit trail backend.
type Extension struct {
	recorder Recorder
	enabled  map[string]bool // nil = all enabled
	logger   *slog.Logger
}

// New creates an Extension that emits audit events through the provided Recorder.
func New(r Recorder, opts ...Option) *Extension {
	e := &Extension{
		recorder: r,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name implements plugin.Plugin.
func (e *Extension) Name() string { return "audit-hook" }

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed implements plugin.OnSubscribed.
func (e *Extension) OnSubscribed(ctx context.Context, sub interface{}) error {
	addr, tier := subscriptionDetails(sub)
	return e.record(ctx, ActionSubscribed, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, addr, CategorySubscription, nil,
		"subscriber", addr,
		"tier", tier,
	)
}

// OnRenewed implements plugin.OnRenewed.
func (e *Extension) OnRenewed(ctx context.Context, sub interface{}) error {
	addr, tier := subscriptionDetails(sub)
	return e.record(ctx, ActionRenewed, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, addr, CategorySubscription, nil,
		"subscriber", addr,
		"tier", tier,
	)
}

// OnTierUpgraded implements plugin.OnTierUpgraded.
func (e *Extension) OnTierUpgraded(ctx context.Context, sub interface{}, oldTier, newTier uint8, _ interface{}) error {
	addr, _ := subscriptionDetails(sub)
	return e.record(ctx, ActionTierUpgraded, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, addr, CategorySubscription, nil,
		"subscriber", addr,
		"old_tier", oldTier,
		"new_tier", newTier,
	)
}

// OnAutoRenewChanged implements plugin.OnAutoRenewChanged.
func (e *Extension) OnAutoRenewChanged(ctx context.Context, sub interface{}, enabled bool) error {
	addr, _ := subscriptionDetails(sub)
	return e.record(ctx, ActionAutoRenewChanged, SeverityInfo, OutcomeSuccess,
		ResourceSubscription, addr, CategorySubscription, nil,
		"subscriber", addr,
		"enabled", enabled,
	)
}

// OnSubscriberPruned implements plugin.OnSubscriberPruned.
func (e *Extension) OnSubscriberPruned(ctx context.Context, address string) error {
	return e.record(ctx, ActionPruned, SeverityWarning, OutcomeSuccess,
		ResourceSubscription, address, CategorySubscription, nil,
		"subscriber", address,
	)
}

// ──────────────────────────────────────────────────
// Payment hooks
// ──────────────────────────────────────────────────

// OnSettled implements plugin.OnSettled.
func (e *Extension) OnSettled(ctx context.Context, receipt interface{}) error {
	var resourceID string
	kv := []any{}
	if r, ok := receipt.(*payment.Receipt); ok {
		resourceID = r.ID.String()
		kv = append(kv,
			"payer", r.Payer.String(),
			"kind", string(r.Kind),
			"amount", r.Amount.String(),
		)
	}
	return e.record(ctx, ActionSettled, SeverityInfo, OutcomeSuccess,
		ResourcePayment, resourceID, CategoryPayment, nil, kv...)
}

// ──────────────────────────────────────────────────
// Catalog and config hooks
// ──────────────────────────────────────────────────

// OnPriceChanged implements plugin.OnPriceChanged.
func (e *Extension) OnPriceChanged(ctx context.Context, denomination string, tier uint8, _ interface{}) error {
	return e.record(ctx, ActionPriceChanged, SeverityInfo, OutcomeSuccess,
		ResourceCatalog, denomination, CategoryCatalog, nil,
		"denomination", denomination,
		"tier", tier,
	)
}

// OnDenominationRemoved implements plugin.OnDenominationRemoved.
func (e *Extension) OnDenominationRemoved(ctx context.Context, denomination string) error {
	return e.record(ctx, ActionDenominationRemoved, SeverityWarning, OutcomeSuccess,
		ResourceCatalog, denomination, CategoryCatalog, nil,
		"denomination", denomination,
	)
}

// OnTreasuryChanged implements plugin.OnTreasuryChanged.
func (e *Extension) OnTreasuryChanged(ctx context.Context, previous, current string) error {
	return e.record(ctx, ActionTreasuryChanged, SeverityWarning, OutcomeSuccess,
		ResourceConfig, current, CategoryConfig, nil,
		"previous", previous,
		"current", current,
	)
}

// OnConfigChanged implements plugin.OnConfigChanged.
func (e *Extension) OnConfigChanged(ctx context.Context, field string) error {
	return e.record(ctx, ActionConfigChanged, SeverityInfo, OutcomeSuccess,
		ResourceConfig, field, CategoryConfig, nil,
		"field", field,
	)
}

// ──────────────────────────────────────────────────
// Keeper hooks
// ──────────────────────────────────────────────────

// OnRenewalFailed implements plugin.OnRenewalFailed.
func (e *Extension) OnRenewalFailed(ctx context.Context, address string, reason error) error {
	return e.record(ctx, ActionRenewalFailed, SeverityError, OutcomeFailure,
		ResourceSubscription, address, CategoryKeeper, reason,
		"subscriber", address,
	)
}

// OnBatchCompleted implements plugin.OnBatchCompleted.
func (e *Extension) OnBatchCompleted(ctx context.Context, report interface{}, elapsed time.Duration) error {
	outcome := OutcomeSuccess
	var resourceID string
	kv := []any{"elapsed_ms", elapsed.Milliseconds()}
	if r, ok := report.(*keeper.Report); ok {
		resourceID = r.ID.String()
		kv = append(kv,
			"candidates", r.Candidates,
			"renewed", r.Renewed,
			"skipped", r.Skipped,
			"pruned", r.Pruned,
			"failed", r.Failed,
		)
		if r.Failed > 0 {
			outcome = OutcomePartial
		}
		if r.Renewed == 0 && r.Candidates > 0 {
			outcome = OutcomeFailure
		}
	}
	return e.record(ctx, ActionBatchCompleted, SeverityInfo, outcome,
		ResourceBatch, resourceID, CategoryKeeper, nil, kv...)
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

// subscriptionDetails extracts the address and tier from a hook payload.
func subscriptionDetails(sub interface{}) (addr string, tier string) {
	if s, ok := sub.(*subscription.Subscription); ok {
		return s.Address.String(), s.Tier.String()
	}
	return "", ""
}

// record builds and sends an audit event if the action is enabled.
func (e *Extension) record(
	ctx context.Context,
	action, severity, outcome string,
	resource, resourceID, category string,
	err error,
	kvPairs ...any,
) error {
	if e.enabled != nil && !e.enabled[action] {
		return nil
	}

	meta := make(map[string]any, len(kvPairs)/2+1)
	for i := 0; i+1 < len(kvPairs); i += 2 {
		key, ok := kvPairs[i].(string)
		if !ok {
			key = fmt.Sprintf("%v", kvPairs[i])
		}
		meta[key] = kvPairs[i+1]
	}

	var reason string
	if err != nil {
		reason = err.Error()
		meta["error"] = err.Error()
	}

	evt := &AuditEvent{
		Action:     action,
		Resource:   resource,
		Category:   category,
		ResourceID: resourceID,
		Metadata:   meta,
		Outcome:    outcome,
		Severity:   severity,
		Reason:     reason,
	}

	if recErr := e.recorder.Record(ctx, evt); recErr != nil {
		e.logger.Warn("audit_hook: failed to record audit event",
			"action", action,
			"resource_id", resourceID,
			"error", recErr,
		)
	}
	return nil
}
