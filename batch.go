package recur

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/recur/id"
	"github.com/xraph/recur/keeper"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// RenewFor renews a single subscriber on their behalf from a pre-approved
// token allowance. Unlike RenewBatch it fails loudly: any ineligibility
// (no record, auto-renew off, outside the renew window, native
// denomination) comes back as an error instead of a skipped outcome.
// Requires RoleService.
func (e *Engine) RenewFor(ctx context.Context, caller, subscriber types.Address) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return err
	}
	if err := e.requireRole(ctx, caller, RoleService); err != nil {
		return err
	}

	sub, err := e.store.GetSubscription(ctx, subscriber)
	if err != nil {
		if IsNotFound(err) {
			return fmt.Errorf("%w: %s", ErrNoSubscription, subscriber.Short())
		}
		return err
	}

	price, err := e.eligibleForPull(ctx, sub)
	if err != nil {
		return err
	}

	if err := e.settler.Precheck(ctx, sub.Denomination, sub.Address, price); err != nil {
		return err
	}
	if err := e.settler.SettleToken(ctx, sub.Denomination, sub.Address, e.cfg.Treasury, price, nil, e.nowFn()); err != nil {
		return err
	}

	// No batch report exists for a targeted renewal, so the receipt
	// carries no run id.
	return e.writeRenewed(ctx, sub, sub.Denomination, price, id.Nil)
}

// RenewBatch renews every eligible candidate from their pre-approved token
// allowances. A nil candidates slice means the whole ledger in insertion
// order. Each candidate is processed in isolation: one failure never
// reverts or halts the others, and what happened to whom is returned in
// the Report. The run as a whole errors when not a single renewal
// succeeded, an empty candidate list included. Requires RoleService.
func (e *Engine) RenewBatch(ctx context.Context, caller types.Address, candidates []types.Address) (*keeper.Report, error) {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return nil, err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return nil, err
	}
	if err := e.requireRole(ctx, caller, RoleService); err != nil {
		return nil, err
	}

	if candidates == nil {
		candidates, err = e.store.ListSubscribers(ctx)
		if err != nil {
			return nil, err
		}
	}

	started := e.nowFn()
	report := &keeper.Report{
		ID:         id.NewBatchRunID(),
		StartedAt:  started,
		Candidates: len(candidates),
	}

	e.logger.Info("batch renewal started",
		"run", report.ID.String(),
		"candidates", len(candidates),
	)

	for _, addr := range candidates {
		report.Record(e.renewOne(ctx, addr, report.ID))
	}

	report.FinishedAt = e.nowFn()

	e.logger.Info("batch renewal finished",
		"run", report.ID.String(),
		"renewed", report.Renewed,
		"skipped", report.Skipped,
		"pruned", report.Pruned,
		"failed", report.Failed,
		"elapsed", report.Duration(),
	)
	e.plugins.EmitBatchCompleted(ctx, report, report.Duration())

	if report.Renewed == 0 {
		return report, ErrNoRenewalsProcessed
	}
	return report, nil
}

// renewOne runs the eligibility pipeline and, when it passes, the pull and
// ledger write for a single batch candidate. All failure modes fold into
// the returned Outcome.
func (e *Engine) renewOne(ctx context.Context, addr types.Address, run id.BatchRunID) keeper.Outcome {
	sub, err := e.store.GetSubscription(ctx, addr)
	if err != nil {
		if IsNotFound(err) {
			return keeper.Outcome{Address: addr, Status: keeper.StatusSkipped, Skip: keeper.SkipNotFound}
		}
		return e.failOutcome(ctx, addr, err)
	}

	if !sub.AutoRenew {
		return keeper.Outcome{Address: addr, Status: keeper.StatusSkipped, Skip: keeper.SkipAutoRenewOff}
	}

	now := e.nowFn().Unix()
	window := int64(e.cfg.RenewWindow / time.Second)
	switch {
	case sub.ExpiresAt < now:
		// Lapsed past expiry with auto-renew still on: the record is
		// stale and will never become eligible again, so drop it.
		if err := e.store.DeleteSubscription(ctx, addr); err != nil {
			return e.failOutcome(ctx, addr, err)
		}
		e.logger.Info("pruned lapsed subscriber", "subscriber", addr.Short())
		e.plugins.EmitSubscriberPruned(ctx, addr.String())
		return keeper.Outcome{Address: addr, Status: keeper.StatusPruned}
	case sub.ExpiresAt > now+window:
		return keeper.Outcome{Address: addr, Status: keeper.StatusSkipped, Skip: keeper.SkipOutsideWindow}
	}

	if sub.Denomination.IsNative() {
		return keeper.Outcome{Address: addr, Status: keeper.StatusSkipped, Skip: keeper.SkipNativePayment}
	}

	price, err := e.priceFor(ctx, sub.Denomination, sub.Tier)
	if err != nil {
		return e.failOutcome(ctx, addr, err)
	}
	if err := e.settler.Precheck(ctx, sub.Denomination, sub.Address, price); err != nil {
		return e.failOutcome(ctx, addr, err)
	}
	if err := e.settler.SettleToken(ctx, sub.Denomination, sub.Address, e.cfg.Treasury, price, nil, e.nowFn()); err != nil {
		return e.failOutcome(ctx, addr, err)
	}
	if err := e.writeRenewed(ctx, sub, sub.Denomination, price, run); err != nil {
		return e.failOutcome(ctx, addr, err)
	}

	return keeper.Outcome{Address: addr, Status: keeper.StatusRenewed}
}

// failOutcome wraps an error into a failed Outcome, stamps it with a
// notification id, and notifies plugins.
func (e *Engine) failOutcome(ctx context.Context, addr types.Address, err error) keeper.Outcome {
	note := id.NewNotificationID()
	e.logger.Warn("batch renewal failed for subscriber",
		"subscriber", addr.Short(),
		"note", note.String(),
		"error", err,
	)
	e.plugins.EmitRenewalFailed(ctx, addr.String(), err)
	return keeper.Outcome{Address: addr, Status: keeper.StatusFailed, Err: err, NoteID: note}
}

// eligibleForPull checks the keeper eligibility rules for sub and resolves
// the renewal price. Used by the loud single-target path; the batch path
// inlines the same rules so it can distinguish skip from prune.
func (e *Engine) eligibleForPull(ctx context.Context, sub *subscription.Subscription) (types.Amount, error) {
	if !sub.AutoRenew {
		return types.Amount{}, fmt.Errorf("%w: %s", ErrAutoRenewDisabled, sub.Address.Short())
	}

	now := e.nowFn().Unix()
	window := int64(e.cfg.RenewWindow / time.Second)
	if sub.ExpiresAt < now || sub.ExpiresAt > now+window {
		return types.Amount{}, fmt.Errorf("%w: expires %d, window [%d, %d]",
			ErrOutsideRenewWindow, sub.ExpiresAt, now, now+window)
	}

	if sub.Denomination.IsNative() {
		return types.Amount{}, ErrNativeDenomination
	}

	return e.priceFor(ctx, sub.Denomination, sub.Tier)
}
