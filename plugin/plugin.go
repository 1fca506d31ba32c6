// Package plugin provides an extensible plugin system for Recur.
// Plugins hook into subscription lifecycle events (payments, renewals,
// catalog changes, keeper runs) to extend functionality without touching
// the engine. Hook parameters are interface{} to avoid import cycles with
// the domain packages; implementations type-assert to the concrete types
// documented on each hook.
package plugin

import (
	"context"
	"time"
)

// Plugin is the base interface that all plugins must implement.
type Plugin interface {
	Name() string
}

// ──────────────────────────────────────────────────
// Lifecycle hooks
// ──────────────────────────────────────────────────

// OnInit is called when the plugin is initialized.
type OnInit interface {
	Plugin
	OnInit(ctx context.Context, engine interface{}) error
}

// OnShutdown is called when the plugin is shutting down.
type OnShutdown interface {
	Plugin
	OnShutdown(ctx context.Context) error
}

// ──────────────────────────────────────────────────
// Subscription lifecycle hooks
// ──────────────────────────────────────────────────

// OnSubscribed is called after a first-time or repeat subscribe settles.
// sub is *subscription.Subscription.
type OnSubscribed interface {
	Plugin
	OnSubscribed(ctx context.Context, sub interface{}) error
}

// OnRenewed is called after a renewal settles, user- or keeper-initiated.
// sub is *subscription.Subscription.
type OnRenewed interface {
	Plugin
	OnRenewed(ctx context.Context, sub interface{}) error
}

// OnTierUpgraded is called after a prorated upgrade settles.
// sub is *subscription.Subscription; cost is types.Amount.
type OnTierUpgraded interface {
	Plugin
	OnTierUpgraded(ctx context.Context, sub interface{}, oldTier, newTier uint8, cost interface{}) error
}

// OnAutoRenewChanged is called when a subscriber flips the auto-renew
// preference. sub is *subscription.Subscription.
type OnAutoRenewChanged interface {
	Plugin
	OnAutoRenewChanged(ctx context.Context, sub interface{}, enabled bool) error
}

// OnSubscriberPruned is called when the keeper removes a permanently
// expired auto-renew entry from the ledger.
type OnSubscriberPruned interface {
	Plugin
	OnSubscriberPruned(ctx context.Context, address string) error
}

// ──────────────────────────────────────────────────
// Settlement hooks
// ──────────────────────────────────────────────────

// OnSettled is called after every successful payment settlement.
// receipt is *payment.Receipt.
type OnSettled interface {
	Plugin
	OnSettled(ctx context.Context, receipt interface{}) error
}

// ──────────────────────────────────────────────────
// Catalog hooks
// ──────────────────────────────────────────────────

// OnPriceChanged is called once per (denomination, tier) pair an admin
// updates. price is types.Amount; a zero price means "no longer accepted".
type OnPriceChanged interface {
	Plugin
	OnPriceChanged(ctx context.Context, denomination string, tier uint8, price interface{}) error
}

// OnDenominationRemoved is called when an admin removes a denomination
// across all tiers.
type OnDenominationRemoved interface {
	Plugin
	OnDenominationRemoved(ctx context.Context, denomination string) error
}

// ──────────────────────────────────────────────────
// Configuration hooks
// ──────────────────────────────────────────────────

// OnTreasuryChanged is called when the treasury address is rotated.
type OnTreasuryChanged interface {
	Plugin
	OnTreasuryChanged(ctx context.Context, previous, current string) error
}

// OnConfigChanged is called when the period or renew window changes.
type OnConfigChanged interface {
	Plugin
	OnConfigChanged(ctx context.Context, field string) error
}

// ──────────────────────────────────────────────────
// Keeper hooks
// ──────────────────────────────────────────────────

// OnRenewalFailed is called for each isolated per-subscriber failure inside
// a batch run. These are the keeper's failure notifications: recorded and
// continued past, never propagated.
type OnRenewalFailed interface {
	Plugin
	OnRenewalFailed(ctx context.Context, address string, reason error) error
}

// OnBatchCompleted is called when a batch renewal run finishes.
// report is *keeper.Report.
type OnBatchCompleted interface {
	Plugin
	OnBatchCompleted(ctx context.Context, report interface{}, elapsed time.Duration) error
}
