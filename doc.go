// Package recur provides a recurring, tiered, pre-paid subscription engine
// for Go applications.
//
// Recur is designed as a library, not a service. Import it directly into
// your Go application and wire it to your own payment rails. It provides:
//
//   - Calendar-correct billing periods (Jan 31 + 1 month = Feb 28/29) or
//     fixed-duration periods
//   - A tiered price catalog per payment denomination, native or token
//   - Prorated in-place tier upgrades with a period-clock restart
//   - Batch auto-renewal with per-subscriber failure isolation
//   - A typed plugin-hook registry for lifecycle notifications
//   - Pluggable storage (memory, Postgres, SQLite, MongoDB)
//
// # Quick Start
//
// Create an engine with your preferred store:
//
//	import (
//	    "github.com/xraph/recur"
//	    "github.com/xraph/recur/store/memory"
//	)
//
//	eng := recur.New(memory.New(),
//	    recur.WithConfig(recur.Config{
//	        Treasury:     treasury,
//	        Policy:       recur.PeriodCalendarMonths,
//	        PeriodMonths: 1,
//	        RenewWindow:  7 * 24 * time.Hour,
//	    }),
//	    recur.WithTransfers(native, token),
//	)
//
//	if err := eng.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer eng.Stop()
//
// # Core Concepts
//
// The catalog maps (denomination, tier) to a per-period price. A zero
// price means the pair is not accepted:
//
//	eng.SetPrice(ctx, admin, "usdc", recur.TierPro, recur.Units("usdc", 30_000000))
//
// Subscribing settles one period up front and stamps the expiry:
//
//	err := eng.Subscribe(ctx, alice, "usdc", recur.TierPro, nil)
//
// Activity is computed lazily from the stored expiry, never by a
// background sweep:
//
//	active, err := eng.IsActive(ctx, alice)
//	tier, err := eng.EffectiveTier(ctx, alice)
//
// Renewals extend from the current expiry when early and from now when
// late. Upgrades credit the unused remainder of the current period
// against the higher tier's price and restart the period clock:
//
//	err = eng.UpgradeTier(ctx, alice, recur.TierEnterprise, nil)
//
// A keeper with the service role renews everyone who opted in, from their
// pre-approved allowances, without one failure reverting the rest:
//
//	report, err := eng.RenewBatch(ctx, keeperAddr, nil)
//
// # Storage
//
// The engine talks to storage through the store.Store interface. Drivers
// for Postgres, SQLite, and MongoDB live under store/; the memory driver
// is suitable for tests and single-process embedding.
package recur
