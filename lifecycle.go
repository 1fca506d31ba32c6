package recur

import (
	"context"
	"fmt"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// Subscribe purchases tier for caller, paying the full catalog price in
// token denomination denom by allowance pull. A non-nil auth folds a signed
// permit into the same operation. The new expiry is one period from now,
// even when an unexpired record exists: subscribing while active wastes the
// remaining paid time. Use Renew to accrue instead.
func (e *Engine) Subscribe(ctx context.Context, caller types.Address, denom catalog.Denomination, tier catalog.Tier, auth *payment.Permit) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return err
	}
	if denom.IsNative() {
		return fmt.Errorf("%w: use SubscribeNative for the native currency", ErrInvalidInput)
	}

	price, err := e.priceFor(ctx, denom, tier)
	if err != nil {
		return err
	}

	now := e.nowFn()
	if err := e.settler.SettleToken(ctx, denom, caller, e.cfg.Treasury, price, auth, now); err != nil {
		return err
	}

	return e.writeSubscribed(ctx, caller, denom, tier, price, types.ZeroAmount(price.Denom()))
}

// SubscribeNative purchases tier for caller in the native currency. The
// attached value must equal the catalog price exactly; the whole value is
// forwarded to the treasury.
func (e *Engine) SubscribeNative(ctx context.Context, caller types.Address, tier catalog.Tier, value types.Amount) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return err
	}

	price, err := e.priceFor(ctx, catalog.Native, tier)
	if err != nil {
		return err
	}

	if err := e.settler.SettleNative(ctx, e.cfg.Treasury, value, price); err != nil {
		return err
	}

	return e.writeSubscribed(ctx, caller, catalog.Native, tier, price, types.ZeroAmount(price.Denom()))
}

// writeSubscribed records a settled subscribe: new or replaced record,
// expiry one period from now, ledger insertion, receipt, notifications.
func (e *Engine) writeSubscribed(ctx context.Context, caller types.Address, denom catalog.Denomination, tier catalog.Tier, price, refunded types.Amount) error {
	now := e.nowFn()

	sub, err := e.store.GetSubscription(ctx, caller)
	if err != nil && !IsNotFound(err) {
		return err
	}
	if sub == nil {
		sub = &subscription.Subscription{Entity: types.NewEntity(), Address: caller}
	} else {
		sub.Touch()
	}
	sub.ExpiresAt = e.nextExpiry(now.Unix())
	sub.Denomination = denom
	sub.Tier = tier

	if err := e.store.PutSubscription(ctx, sub); err != nil {
		return err
	}

	e.recordReceipt(ctx, &payment.Receipt{
		Entity:       types.NewEntity(),
		ID:           id.NewReceiptID(),
		Payer:        caller,
		Treasury:     e.cfg.Treasury,
		Denomination: denom,
		Tier:         tier,
		Kind:         payment.KindSubscribe,
		Amount:       price,
		Refunded:     refunded,
	})

	e.logger.Info("subscribed",
		"subscriber", caller.Short(),
		"tier", tier.String(),
		"denomination", denom.String(),
		"expires_at", sub.ExpiresAt,
	)
	e.plugins.EmitSubscribed(ctx, sub.Clone())
	return nil
}

// Renew extends caller's subscription by one period at the record's current
// tier, paying in token denomination denom (which becomes the record's
// denomination). Renewal before expiry accrues on top of the current
// expiry; renewal after expiry restarts from now, never backdating.
func (e *Engine) Renew(ctx context.Context, caller types.Address, denom catalog.Denomination, auth *payment.Permit) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return err
	}
	if denom.IsNative() {
		return fmt.Errorf("%w: use RenewNative for the native currency", ErrInvalidInput)
	}

	sub, err := e.store.GetSubscription(ctx, caller)
	if err != nil {
		return err
	}

	price, err := e.priceFor(ctx, denom, sub.Tier)
	if err != nil {
		return err
	}

	now := e.nowFn()
	if err := e.settler.SettleToken(ctx, denom, caller, e.cfg.Treasury, price, auth, now); err != nil {
		return err
	}

	return e.writeRenewed(ctx, sub, denom, price, id.Nil)
}

// RenewNative extends caller's subscription by one period at the record's
// current tier, paid in the native currency with exact value.
func (e *Engine) RenewNative(ctx context.Context, caller types.Address, value types.Amount) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return err
	}

	sub, err := e.store.GetSubscription(ctx, caller)
	if err != nil {
		return err
	}

	price, err := e.priceFor(ctx, catalog.Native, sub.Tier)
	if err != nil {
		return err
	}

	if err := e.settler.SettleNative(ctx, e.cfg.Treasury, value, price); err != nil {
		return err
	}

	return e.writeRenewed(ctx, sub, catalog.Native, price, id.Nil)
}

// writeRenewed records a settled renewal. Early renewal extends from the
// current expiry; late renewal extends from now.
func (e *Engine) writeRenewed(ctx context.Context, sub *subscription.Subscription, denom catalog.Denomination, price types.Amount, batchRun id.BatchRunID) error {
	now := e.nowFn()

	base := now.Unix()
	if sub.ExpiresAt > base {
		base = sub.ExpiresAt
	}
	sub.ExpiresAt = e.nextExpiry(base)
	sub.Denomination = denom
	sub.Touch()

	if err := e.store.PutSubscription(ctx, sub); err != nil {
		return err
	}

	e.recordReceipt(ctx, &payment.Receipt{
		Entity:       types.NewEntity(),
		ID:           id.NewReceiptID(),
		Payer:        sub.Address,
		Treasury:     e.cfg.Treasury,
		Denomination: denom,
		Tier:         sub.Tier,
		Kind:         payment.KindRenew,
		Amount:       price,
		Refunded:     types.ZeroAmount(price.Denom()),
		BatchRunID:   batchRun,
	})

	e.logger.Info("renewed",
		"subscriber", sub.Address.Short(),
		"tier", sub.Tier.String(),
		"expires_at", sub.ExpiresAt,
		"batch_run", batchRun.String(),
	)
	e.plugins.EmitRenewed(ctx, sub.Clone())
	return nil
}

// UpgradeTier moves caller to a strictly higher tier in the record's token
// denomination, crediting the prorated remaining value of the current
// period against the new tier's price. The period clock restarts: the new
// expiry is one period from now, not an extension of the old one.
func (e *Engine) UpgradeTier(ctx context.Context, caller types.Address, newTier catalog.Tier, auth *payment.Permit) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return err
	}

	sub, err := e.store.GetSubscription(ctx, caller)
	if err != nil {
		return err
	}
	if sub.Denomination.IsNative() {
		return fmt.Errorf("%w: record pays in native currency, use UpgradeTierNative", ErrInvalidInput)
	}

	cost, err := e.upgradeCost(ctx, sub, newTier)
	if err != nil {
		return err
	}

	now := e.nowFn()
	if cost.IsPositive() {
		if err := e.settler.SettleToken(ctx, sub.Denomination, caller, e.cfg.Treasury, cost, auth, now); err != nil {
			return err
		}
	}

	return e.writeUpgraded(ctx, sub, newTier, cost, types.ZeroAmount(cost.Denom()))
}

// UpgradeTierNative is the native-currency upgrade path. The attached value
// must cover the prorated cost; any excess is refunded to caller, and a
// failed refund aborts the whole operation.
func (e *Engine) UpgradeTierNative(ctx context.Context, caller types.Address, newTier catalog.Tier, value types.Amount) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return err
	}

	sub, err := e.store.GetSubscription(ctx, caller)
	if err != nil {
		return err
	}
	if !sub.Denomination.IsNative() {
		return fmt.Errorf("%w: record pays in %s, use UpgradeTier", ErrInvalidInput, sub.Denomination)
	}

	cost, err := e.upgradeCost(ctx, sub, newTier)
	if err != nil {
		return err
	}

	refunded, err := e.settler.SettleNativeWithRefund(ctx, caller, e.cfg.Treasury, value, cost)
	if err != nil {
		return err
	}

	return e.writeUpgraded(ctx, sub, newTier, cost, refunded)
}

// upgradeCost computes the prorated price of moving sub to newTier in the
// record's denomination: max(newPrice − oldPrice × remaining/total, 0).
// The total period length is derived by walking one period back from the
// stored expiry, so proration divides by the *current* period
// configuration even if the period changed after purchase.
func (e *Engine) upgradeCost(ctx context.Context, sub *subscription.Subscription, newTier catalog.Tier) (types.Amount, error) {
	if newTier <= sub.Tier {
		return types.Amount{}, fmt.Errorf("%w: %s -> %s", ErrNotAnUpgrade, sub.Tier, newTier)
	}

	newPrice, err := e.priceFor(ctx, sub.Denomination, newTier)
	if err != nil {
		return types.Amount{}, err
	}

	now := e.nowFn()
	remaining := sub.RemainingSeconds(now)
	credit := types.ZeroAmount(newPrice.Denom())
	if remaining > 0 {
		// The old price may have been zeroed since purchase (denomination
		// removed); the credit is then zero and the upgrade costs full price.
		oldPrice, err := e.store.GetPrice(ctx, sub.Denomination, sub.Tier)
		if err != nil {
			return types.Amount{}, err
		}
		if oldPrice.IsPositive() {
			total := sub.ExpiresAt - e.periodStart(sub.ExpiresAt)
			if total > 0 {
				credit = oldPrice.Prorate(remaining, total)
			}
		}
	}

	return newPrice.Subtract(credit).Max(types.ZeroAmount(newPrice.Denom())), nil
}

// writeUpgraded records a settled upgrade: tier replaced, clock restarted.
func (e *Engine) writeUpgraded(ctx context.Context, sub *subscription.Subscription, newTier catalog.Tier, cost, refunded types.Amount) error {
	now := e.nowFn()
	oldTier := sub.Tier

	sub.ExpiresAt = e.nextExpiry(now.Unix())
	sub.Tier = newTier
	sub.Touch()

	if err := e.store.PutSubscription(ctx, sub); err != nil {
		return err
	}

	e.recordReceipt(ctx, &payment.Receipt{
		Entity:       types.NewEntity(),
		ID:           id.NewReceiptID(),
		Payer:        sub.Address,
		Treasury:     e.cfg.Treasury,
		Denomination: sub.Denomination,
		Tier:         newTier,
		Kind:         payment.KindUpgrade,
		Amount:       cost,
		Refunded:     refunded,
	})

	e.logger.Info("tier upgraded",
		"subscriber", sub.Address.Short(),
		"from", oldTier.String(),
		"to", newTier.String(),
		"cost", cost.String(),
		"expires_at", sub.ExpiresAt,
	)
	e.plugins.EmitTierUpgraded(ctx, sub.Clone(), uint8(oldTier), uint8(newTier), cost)
	return nil
}

// SetAutoRenew flips the caller's service-initiated renewal preference.
// No payment; works at any tier or expiry state; never touches the expiry.
func (e *Engine) SetAutoRenew(ctx context.Context, caller types.Address, enabled bool) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.checkPaused(ctx); err != nil {
		return err
	}

	sub, err := e.store.GetSubscription(ctx, caller)
	if err != nil {
		return err
	}

	sub.AutoRenew = enabled
	sub.Touch()
	if err := e.store.PutSubscription(ctx, sub); err != nil {
		return err
	}

	e.logger.Info("auto-renew changed", "subscriber", caller.Short(), "enabled", enabled)
	e.plugins.EmitAutoRenewChanged(ctx, sub.Clone(), enabled)
	return nil
}

// CancelAutoRenew disables service-initiated renewal for caller.
func (e *Engine) CancelAutoRenew(ctx context.Context, caller types.Address) error {
	return e.SetAutoRenew(ctx, caller, false)
}

// recordReceipt persists the settlement trail. The payment has already
// moved when this runs, so a write failure is logged, not propagated.
func (e *Engine) recordReceipt(ctx context.Context, r *payment.Receipt) {
	if err := e.store.CreateReceipt(ctx, r); err != nil {
		e.logger.Warn("receipt write failed", "receipt", r.ID.String(), "error", err)
		return
	}
	e.plugins.EmitSettled(ctx, r)
}
