package recur

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/types"
)

// SetPrice sets the per-period price for one (denomination, tier) pair.
// A zero amount marks the pair as not accepted. Requires RoleAdmin.
func (e *Engine) SetPrice(ctx context.Context, caller types.Address, denom catalog.Denomination, tier catalog.Tier, price types.Amount) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.requireRole(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	if err := e.setPrice(ctx, denom, tier, price); err != nil {
		return err
	}

	e.logger.Info("price set",
		"denomination", string(denom),
		"tier", tier.String(),
		"price", price.String(),
	)
	return nil
}

// SetPrices sets one tier's price across several denominations in a single
// call. denoms and prices must be the same length. Requires RoleAdmin.
func (e *Engine) SetPrices(ctx context.Context, caller types.Address, denoms []catalog.Denomination, tier catalog.Tier, prices []types.Amount) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.requireRole(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	if len(denoms) != len(prices) {
		return fmt.Errorf("%w: %d denominations, %d prices", ErrLengthMismatch, len(denoms), len(prices))
	}

	for i, denom := range denoms {
		if err := e.setPrice(ctx, denom, tier, prices[i]); err != nil {
			return fmt.Errorf("denomination %s: %w", denom, err)
		}
	}

	e.logger.Info("prices set",
		"tier", tier.String(),
		"denominations", len(denoms),
	)
	return nil
}

// setPrice validates and persists one catalog entry. Caller holds mu.
func (e *Engine) setPrice(ctx context.Context, denom catalog.Denomination, tier catalog.Tier, price types.Amount) error {
	if !tier.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidTier, tier)
	}
	if !tier.Purchasable() {
		return fmt.Errorf("%w: cannot price the free tier", ErrInvalidTier)
	}
	if price.IsNegative() {
		return fmt.Errorf("%w: negative price", ErrInvalidInput)
	}
	entry := &catalog.Price{
		Entity:       types.NewEntity(),
		Denomination: denom,
		Tier:         tier,
		Amount:       price,
	}
	if err := e.store.SetPrice(ctx, entry); err != nil {
		return err
	}
	e.plugins.EmitPriceChanged(ctx, string(denom), uint8(tier), price)
	return nil
}

// RemoveDenomination zeroes every tier price of denom, so it is no longer
// accepted for any new payment. Existing subscriptions keep their recorded
// denomination but can only renew or upgrade once prices are restored.
// Requires RoleAdmin.
func (e *Engine) RemoveDenomination(ctx context.Context, caller types.Address, denom catalog.Denomination) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.requireRole(ctx, caller, RoleAdmin); err != nil {
		return err
	}

	cleared, err := e.store.RemoveDenomination(ctx, denom)
	if err != nil {
		return err
	}

	e.logger.Info("denomination removed",
		"denomination", string(denom),
		"tiers_cleared", len(cleared),
	)
	e.plugins.EmitDenominationRemoved(ctx, string(denom))
	return nil
}

// SetTreasury changes the settlement destination for all future payments.
// Requires RoleAdmin.
func (e *Engine) SetTreasury(ctx context.Context, caller, treasury types.Address) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.requireRole(ctx, caller, RoleAdmin); err != nil {
		return err
	}
	if treasury.IsZero() {
		return ErrZeroTreasury
	}

	previous := e.cfg.Treasury
	next := e.cfg
	next.Treasury = treasury
	if err := e.saveConfig(ctx, next); err != nil {
		return err
	}

	e.logger.Info("treasury changed",
		"previous", previous.Short(),
		"current", treasury.Short(),
	)
	e.plugins.EmitTreasuryChanged(ctx, previous.String(), treasury.String())
	return nil
}

// SetPeriodMonths switches the billing period to calendar months.
// Requires RoleAdmin.
func (e *Engine) SetPeriodMonths(ctx context.Context, caller types.Address, months int) error {
	return e.setPeriod(ctx, caller, func(c *Config) {
		c.Policy = PeriodCalendarMonths
		c.PeriodMonths = months
		c.PeriodFixed = 0
	}, "period_months")
}

// SetPeriodFixed switches the billing period to a fixed duration.
// Requires RoleAdmin.
func (e *Engine) SetPeriodFixed(ctx context.Context, caller types.Address, period time.Duration) error {
	return e.setPeriod(ctx, caller, func(c *Config) {
		c.Policy = PeriodFixedSeconds
		c.PeriodMonths = 0
		c.PeriodFixed = period
	}, "period_fixed")
}

// SetRenewWindow changes how far before expiry the keeper may pull a
// renewal. Requires RoleAdmin.
func (e *Engine) SetRenewWindow(ctx context.Context, caller types.Address, window time.Duration) error {
	return e.setPeriod(ctx, caller, func(c *Config) {
		c.RenewWindow = window
	}, "renew_window")
}

// setPeriod applies mutate to a copy of the live config, validates the
// whole result, and persists it. Active subscriptions are not rewritten;
// the new period takes effect at each record's next renewal or upgrade.
func (e *Engine) setPeriod(ctx context.Context, caller types.Address, mutate func(*Config), field string) error {
	ctx, end, err := e.begin(ctx)
	if err != nil {
		return err
	}
	defer end()

	if err := e.requireRole(ctx, caller, RoleAdmin); err != nil {
		return err
	}

	next := e.cfg
	mutate(&next)
	if err := e.saveConfig(ctx, next); err != nil {
		return err
	}

	e.logger.Info("config changed", "field", field)
	e.plugins.EmitConfigChanged(ctx, field)
	return nil
}

// saveConfig validates next, persists it, and installs it as the live
// config. Caller holds mu.
func (e *Engine) saveConfig(ctx context.Context, next Config) error {
	if err := next.Validate(); err != nil {
		return err
	}
	if err := e.store.SaveSettings(ctx, settingsFromConfig(next, e.nowFn())); err != nil {
		return err
	}
	e.cfg = next
	return nil
}
