package recur_test

import (
	"context"
	"errors"
	"testing"

	"github.com/xraph/recur"
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/types"
)

func TestSetPrice(t *testing.T) {
	f := newFixture(t, fixedCfg())
	ctx := context.Background()

	if err := f.engine.SetPrice(ctx, admin, tokenDenom, catalog.TierPlus, tok(1000)); err != nil {
		t.Fatalf("SetPrice failed: %v", err)
	}
	got, err := f.engine.GetPrice(ctx, tokenDenom, catalog.TierPlus)
	if err != nil {
		t.Fatal(err)
	}
	if !got.Equal(tok(1000)) {
		t.Errorf("got %s, want 1000", got)
	}

	// Zero price marks the pair as not accepted.
	if err := f.engine.SetPrice(ctx, admin, tokenDenom, catalog.TierPlus, tok(0)); err != nil {
		t.Fatalf("SetPrice(0) failed: %v", err)
	}
	err = f.engine.Subscribe(ctx, alice, tokenDenom, catalog.TierPlus, nil)
	if !errors.Is(err, recur.ErrTokenNotAccepted) {
		t.Errorf("got err %v, want ErrTokenNotAccepted", err)
	}
}

func TestSetPriceRejections(t *testing.T) {
	f := newFixture(t, fixedCfg())
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func() error
		wantErr error
	}{
		{
			"unauthorized caller",
			func() error { return f.engine.SetPrice(ctx, alice, tokenDenom, catalog.TierPlus, tok(1)) },
			recur.ErrUnauthorized,
		},
		{
			"free tier",
			func() error { return f.engine.SetPrice(ctx, admin, tokenDenom, catalog.TierFree, tok(1)) },
			recur.ErrInvalidTier,
		},
		{
			"tier out of range",
			func() error { return f.engine.SetPrice(ctx, admin, tokenDenom, catalog.Tier(99), tok(1)) },
			recur.ErrInvalidTier,
		},
		{
			"negative price",
			func() error { return f.engine.SetPrice(ctx, admin, tokenDenom, catalog.TierPlus, tok(-5)) },
			recur.ErrInvalidInput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.wantErr) {
				t.Errorf("got err %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestSetPrices(t *testing.T) {
	f := newFixture(t, fixedCfg())
	ctx := context.Background()

	// One call prices the pro tier in the token and the native currency.
	denoms := []catalog.Denomination{tokenDenom, catalog.Native}
	prices := []types.Amount{tok(200), native(250)}
	if err := f.engine.SetPrices(ctx, admin, denoms, catalog.TierPro, prices); err != nil {
		t.Fatalf("SetPrices failed: %v", err)
	}
	for i, denom := range denoms {
		got, err := f.engine.GetPrice(ctx, denom, catalog.TierPro)
		if err != nil {
			t.Fatal(err)
		}
		if !got.Equal(prices[i]) {
			t.Errorf("denomination %s: got %s, want %s", denom, got, prices[i])
		}
	}

	t.Run("length mismatch", func(t *testing.T) {
		err := f.engine.SetPrices(ctx, admin, denoms, catalog.TierPro, prices[:1])
		if !errors.Is(err, recur.ErrLengthMismatch) {
			t.Errorf("got err %v, want ErrLengthMismatch", err)
		}
	})

	t.Run("free tier", func(t *testing.T) {
		err := f.engine.SetPrices(ctx, admin, denoms, catalog.TierFree, prices)
		if !errors.Is(err, recur.ErrInvalidTier) {
			t.Errorf("got err %v, want ErrInvalidTier", err)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		err := f.engine.SetPrices(ctx, alice, denoms, catalog.TierPro, prices)
		if !errors.Is(err, recur.ErrUnauthorized) {
			t.Errorf("got err %v, want ErrUnauthorized", err)
		}
	})
}

func TestRemoveDenomination(t *testing.T) {
	f := newFixture(t, fixedCfg())
	f.setTokenPrices(t)
	ctx := context.Background()

	if err := f.engine.Subscribe(ctx, alice, tokenDenom, catalog.TierPlus, nil); err != nil {
		t.Fatal(err)
	}

	if err := f.engine.RemoveDenomination(ctx, admin, tokenDenom); err != nil {
		t.Fatalf("RemoveDenomination failed: %v", err)
	}

	// No tier of the denomination is accepted afterwards.
	for _, tier := range catalog.Tiers() {
		got, err := f.engine.GetPrice(ctx, tokenDenom, tier)
		if err != nil {
			t.Fatal(err)
		}
		if !got.IsZero() {
			t.Errorf("tier %s still priced at %s", tier, got)
		}
	}
	err := f.engine.Renew(ctx, alice, tokenDenom, nil)
	if !errors.Is(err, recur.ErrTokenNotAccepted) {
		t.Errorf("got err %v, want ErrTokenNotAccepted", err)
	}

	// The existing record itself survives.
	active, err := f.engine.IsActive(ctx, alice)
	if err != nil {
		t.Fatal(err)
	}
	if !active {
		t.Error("removal should not touch existing subscriptions")
	}

	t.Run("unauthorized", func(t *testing.T) {
		err := f.engine.RemoveDenomination(ctx, alice, tokenDenom)
		if !errors.Is(err, recur.ErrUnauthorized) {
			t.Errorf("got err %v, want ErrUnauthorized", err)
		}
	})
}

func TestSetTreasury(t *testing.T) {
	f := newFixture(t, fixedCfg())
	f.setTokenPrices(t)
	ctx := context.Background()

	next := types.MustParseAddress("0x9999999999999999999999999999999999999999")
	if err := f.engine.SetTreasury(ctx, admin, next); err != nil {
		t.Fatalf("SetTreasury failed: %v", err)
	}
	if f.engine.Treasury() != next {
		t.Errorf("Treasury() = %s, want %s", f.engine.Treasury(), next)
	}

	// Future settlements pay the new address.
	if err := f.engine.Subscribe(ctx, alice, tokenDenom, catalog.TierPlus, nil); err != nil {
		t.Fatal(err)
	}
	last := f.token.pulls[len(f.token.pulls)-1]
	if last.to != next {
		t.Errorf("settlement went to %s, want new treasury %s", last.to, next)
	}

	t.Run("zero address", func(t *testing.T) {
		err := f.engine.SetTreasury(ctx, admin, types.ZeroAddress)
		if !errors.Is(err, recur.ErrZeroTreasury) {
			t.Errorf("got err %v, want ErrZeroTreasury", err)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		err := f.engine.SetTreasury(ctx, alice, treasury)
		if !errors.Is(err, recur.ErrUnauthorized) {
			t.Errorf("got err %v, want ErrUnauthorized", err)
		}
	})
}

func TestSetPeriod(t *testing.T) {
	f := newFixture(t, fixedCfg())
	ctx := context.Background()

	t.Run("switch to calendar months", func(t *testing.T) {
		if err := f.engine.SetPeriodMonths(ctx, admin, 3); err != nil {
			t.Fatalf("SetPeriodMonths failed: %v", err)
		}
		policy, months, _ := f.engine.PeriodConfig()
		if policy != recur.PeriodCalendarMonths || months != 3 {
			t.Errorf("PeriodConfig = %s/%d, want months/3", policy, months)
		}
	})

	t.Run("switch to fixed duration", func(t *testing.T) {
		if err := f.engine.SetPeriodFixed(ctx, admin, 14*day); err != nil {
			t.Fatalf("SetPeriodFixed failed: %v", err)
		}
		policy, _, fixed := f.engine.PeriodConfig()
		if policy != recur.PeriodFixedSeconds || fixed != 14*day {
			t.Errorf("PeriodConfig = %s/%s, want fixed/14d", policy, fixed)
		}
	})

	t.Run("rejects invalid values", func(t *testing.T) {
		if err := f.engine.SetPeriodMonths(ctx, admin, 0); !errors.Is(err, recur.ErrInvalidPeriod) {
			t.Errorf("months=0: got %v, want ErrInvalidPeriod", err)
		}
		if err := f.engine.SetPeriodMonths(ctx, admin, 121); !errors.Is(err, recur.ErrInvalidPeriod) {
			t.Errorf("months=121: got %v, want ErrInvalidPeriod", err)
		}
		if err := f.engine.SetPeriodFixed(ctx, admin, 0); !errors.Is(err, recur.ErrInvalidPeriod) {
			t.Errorf("fixed=0: got %v, want ErrInvalidPeriod", err)
		}

		// Failed validation must not install a partial config.
		policy, _, fixed := f.engine.PeriodConfig()
		if policy != recur.PeriodFixedSeconds || fixed != 14*day {
			t.Errorf("rejected change leaked into live config: %s/%s", policy, fixed)
		}
	})

	t.Run("unauthorized", func(t *testing.T) {
		if err := f.engine.SetPeriodMonths(ctx, alice, 1); !errors.Is(err, recur.ErrUnauthorized) {
			t.Errorf("got err %v, want ErrUnauthorized", err)
		}
	})
}

func TestSetRenewWindow(t *testing.T) {
	f := newFixture(t, fixedCfg())
	ctx := context.Background()

	if err := f.engine.SetRenewWindow(ctx, admin, 3*day); err != nil {
		t.Fatalf("SetRenewWindow failed: %v", err)
	}
	if f.engine.RenewWindow() != 3*day {
		t.Errorf("RenewWindow = %s, want 3d", f.engine.RenewWindow())
	}

	t.Run("must stay shorter than the period", func(t *testing.T) {
		// The period is 30 fixed days; a 30-day window is invalid.
		err := f.engine.SetRenewWindow(ctx, admin, 30*day)
		if !errors.Is(err, recur.ErrInvalidRenewWindow) {
			t.Errorf("got err %v, want ErrInvalidRenewWindow", err)
		}
		if err := f.engine.SetRenewWindow(ctx, admin, 0); !errors.Is(err, recur.ErrInvalidRenewWindow) {
			t.Errorf("window=0: got %v, want ErrInvalidRenewWindow", err)
		}
		if f.engine.RenewWindow() != 3*day {
			t.Error("rejected window leaked into live config")
		}
	})

	t.Run("persisted across restart", func(t *testing.T) {
		eng := recur.New(f.store,
			recur.WithConfig(fixedCfg()),
			recur.WithClock(f.clock.Now),
		)
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		if eng.RenewWindow() != 3*day {
			t.Errorf("restarted RenewWindow = %s, want 3d", eng.RenewWindow())
		}
	})
}

func TestConfigValidate(t *testing.T) {
	base := fixedCfg()

	tests := []struct {
		name    string
		mutate  func(*recur.Config)
		wantErr error
	}{
		{"valid fixed", func(*recur.Config) {}, nil},
		{"valid months", func(c *recur.Config) {
			c.Policy = recur.PeriodCalendarMonths
			c.PeriodMonths = 1
		}, nil},
		{"zero treasury", func(c *recur.Config) { c.Treasury = types.Address{} }, recur.ErrZeroTreasury},
		{"unknown policy", func(c *recur.Config) { c.Policy = "weekly" }, recur.ErrInvalidPeriod},
		{"window equals period", func(c *recur.Config) { c.RenewWindow = 30 * day }, recur.ErrInvalidRenewWindow},
		{"window longer than shortest month", func(c *recur.Config) {
			c.Policy = recur.PeriodCalendarMonths
			c.PeriodMonths = 1
			c.RenewWindow = 28 * day
		}, recur.ErrInvalidRenewWindow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			if err := cfg.Validate(); !errors.Is(err, tt.wantErr) {
				t.Errorf("got err %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidationError(t *testing.T) {
	err := recur.ValidationError{Field: "period", Message: "out of range"}
	want := "recur: validation failed for period: out of range"
	if err.Error() != want {
		t.Errorf("got %q, want %q", err.Error(), want)
	}
}
