package audithook

// Action constants for audit events.
const (
	// Subscription actions
	ActionSubscribed       = "subscription.subscribed"
	ActionRenewed          = "subscription.renewed"
	ActionTierUpgraded     = "subscription.tier_upgraded"
	ActionAutoRenewChanged = "subscription.auto_renew_changed"
	ActionPruned           = "subscription.pruned"

	// Payment actions
	ActionSettled = "payment.settled"

	// Catalog actions
	ActionPriceChanged        = "catalog.price_changed"
	ActionDenominationRemoved = "catalog.denomination_removed"

	// Config actions
	ActionTreasuryChanged = "config.treasury_changed"
	ActionConfigChanged   = "config.changed"

	// Keeper actions
	ActionRenewalFailed  = "keeper.renewal_failed"
	ActionBatchCompleted = "keeper.batch_completed"
)

// Resource constants for audit events.
const (
	ResourceSubscription = "subscription"
	ResourcePayment      = "payment"
	ResourceCatalog      = "catalog"
	ResourceConfig       = "config"
	ResourceBatch        = "batch"
)

// Category constants for audit events.
const (
	CategorySubscription = "subscription"
	CategoryPayment      = "payment"
	CategoryCatalog      = "catalog"
	CategoryConfig       = "config"
	CategoryKeeper       = "keeper"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
