package recur_test

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/xraph/recur"
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/store/memory"
	"github.com/xraph/recur/types"
)

// TestDocumentationExamples verifies that all examples in the documentation compile
func TestDocumentationExamples(t *testing.T) {
	// Test Quick Start example from the package docs
	t.Run("QuickStartExample", func(t *testing.T) {
		// Create store (memory for demo, use PostgreSQL in production)
		st := memory.New()

		// Wire the engine to payment rails (fakes here; real transfer
		// adapters in production)
		nat := &fakeNative{}
		tok := newFakeToken()

		eng := recur.New(st,
			recur.WithConfig(recur.Config{
				Treasury:     treasury,
				Policy:       recur.PeriodCalendarMonths,
				PeriodMonths: 1,
				RenewWindow:  7 * 24 * time.Hour,
			}),
			recur.WithTransfers(nat, tok),
		)

		// Start the engine
		ctx := context.Background()
		if err := eng.Start(ctx); err != nil {
			t.Fatal(err)
		}
		defer eng.Stop()

		// Price the catalog: 30 units of the token per period at Pro
		if err := eng.SetPrice(ctx, admin, tokenDenom, recur.TierPro, recur.Units(string(tokenDenom), 30_000000)); err != nil {
			t.Fatal(err)
		}

		// Subscribe settles one period up front
		if err := eng.Subscribe(ctx, alice, tokenDenom, recur.TierPro, nil); err != nil {
			t.Fatal(err)
		}

		// Activity is computed lazily from the stored expiry
		active, err := eng.IsActive(ctx, alice)
		if err != nil {
			t.Fatal(err)
		}
		tier, err := eng.EffectiveTier(ctx, alice)
		if err != nil {
			t.Fatal(err)
		}
		if active {
			log.Printf("subscriber active at tier %s\n", tier)
		}

		// Opt in to service-initiated renewal, then run the keeper
		if err := eng.SetAutoRenew(ctx, alice, true); err != nil {
			t.Fatal(err)
		}
		report, err := eng.RenewBatch(ctx, service, nil)
		if err != nil && report == nil {
			t.Fatal(err)
		}
		log.Printf("batch run %s: renewed=%d skipped=%d\n", report.ID, report.Renewed, report.Skipped)
	})

	// Test Amount type examples
	t.Run("AmountExamples", func(t *testing.T) {
		// Constructors
		_ = types.Units("usdc", 49_000000) // 49 USDC at 6 decimals
		_ = types.ZeroAmount("usdc")
		_ = recur.MustParseAmount(types.NativeDenom, "1000000000000000000") // 1e18

		// Arithmetic
		a := types.Units("usdc", 100)
		b := types.Units("usdc", 200)
		_ = a.Add(b)
		_ = a.MulInt64(3)
		_ = a.Prorate(15, 30) // half

		// Comparison
		if a.LessThan(b) {
			// a is less than b
		}

		// Formatting
		_ = a.String() // "100 usdc"
	})

	// Test Tier examples
	t.Run("TierExamples", func(t *testing.T) {
		if !(recur.TierPlus < recur.TierPro && recur.TierPro < recur.TierEnterprise) {
			t.Fatal("tier ordering broken")
		}
		for _, tier := range catalog.Tiers() {
			_ = tier.String()
		}
	})
}
