// Package observability provides a metrics extension for Recur that records
// lifecycle event counts via a MetricFactory.
package observability

import (
	"context"
	"time"

	"github.com/xraph/recur/keeper"
	"github.com/xraph/recur/plugin"
)

// Ensure MetricsExtension implements required interfaces.
var (
	_ plugin.Plugin                = (*MetricsExtension)(nil)
	_ plugin.OnInit                = (*MetricsExtension)(nil)
	_ plugin.OnSubscribed          = (*MetricsExtension)(nil)
	_ plugin.OnRenewed             = (*MetricsExtension)(nil)
	_ plugin.OnTierUpgraded        = (*MetricsExtension)(nil)
	_ plugin.OnAutoRenewChanged    = (*MetricsExtension)(nil)
	_ plugin.OnSubscriberPruned    = (*MetricsExtension)(nil)
	_ plugin.OnSettled             = (*MetricsExtension)(nil)
	_ plugin.OnPriceChanged        = (*MetricsExtension)(nil)
	_ plugin.OnDenominationRemoved = (*MetricsExtension)(nil)
	_ plugin.OnTreasuryChanged     = (*MetricsExtension)(nil)
	_ plugin.OnConfigChanged       = (*MetricsExtension)(nil)
	_ plugin.OnRenewalFailed       = (*MetricsExtension)(nil)
	_ plugin.OnBatchCompleted      = (*MetricsExtension)(nil)
)

// Counter interface for metric counters.
type Counter interface {
	Inc()
	Add(float64)
}

// Histogram interface for metric histograms.
type Histogram interface {
	Observe(float64)
}

// MetricFactory creates metrics.
type MetricFactory interface {
	Counter(name string) Counter
	Histogram(name string) Histogram
}

// MetricsExtension records system-wide lifecycle metrics.
// Register it as a Recur plugin to automatically track subscription metrics.
type MetricsExtension struct {
	factory MetricFactory

	// Subscription metrics
	Subscribed        Counter
	Renewed           Counter
	Upgraded          Counter
	AutoRenewEnabled  Counter
	AutoRenewDisabled Counter
	Pruned            Counter

	// Payment metrics
	Settled Counter

	// Catalog and config metrics
	PriceChanged        Counter
	DenominationRemoved Counter
	TreasuryChanged     Counter
	ConfigChanged       Counter

	// Keeper metrics
	RenewalFailures Counter
	BatchRuns       Counter
	BatchRenewed    Histogram
	BatchLatency    Histogram
}

// NewMetricsExtension creates a MetricsExtension with the provided MetricFactory.
// Use app.Metrics() in forge extensions.
func NewMetricsExtension(factory MetricFactory) *MetricsExtension {
	return &MetricsExtension{
		factory: factory,

		// Subscription metrics
		Subscribed:        factory.Counter("recur.subscription.subscribed"),
		Renewed:           factory.Counter("recur.subscription.renewed"),
		Upgraded:          factory.Counter("recur.subscription.upgraded"),
		AutoRenewEnabled:  factory.Counter("recur.subscription.auto_renew.enabled"),
		AutoRenewDisabled: factory.Counter("recur.subscription.auto_renew.disabled"),
		Pruned:            factory.Counter("recur.subscription.pruned"),

		// Payment metrics
		Settled: factory.Counter("recur.payment.settled"),

		// Catalog and config metrics
		PriceChanged:        factory.Counter("recur.catalog.price.changed"),
		DenominationRemoved: factory.Counter("recur.catalog.denomination.removed"),
		TreasuryChanged:     factory.Counter("recur.config.treasury.changed"),
		ConfigChanged:       factory.Counter("recur.config.changed"),

		// Keeper metrics
		RenewalFailures: factory.Counter("recur.keeper.renewal.failures"),
		BatchRuns:       factory.Counter("recur.keeper.batch.runs"),
		BatchRenewed:    factory.Histogram("recur.keeper.batch.renewed"),
		BatchLatency:    factory.Histogram("recur.keeper.batch.latency_ms"),
	}
}

// Name implements plugin.Plugin.
func (m *MetricsExtension) Name() string { return "observability-metrics" }

// OnInit implements plugin.OnInit.
func (m *MetricsExtension) OnInit(_ context.Context, _ interface{}) error {
	// No initialization needed
	return nil
}

// OnSubscribed implements plugin.OnSubscribed.
func (m *MetricsExtension) OnSubscribed(_ context.Context, _ interface{}) error {
	m.Subscribed.Inc()
	return nil
}

// OnRenewed implements plugin.OnRenewed.
func (m *MetricsExtension) OnRenewed(_ context.Context, _ interface{}) error {
	m.Renewed.Inc()
	return nil
}

// OnTierUpgraded implements plugin.OnTierUpgraded.
func (m *MetricsExtension) OnTierUpgraded(_ context.Context, _ interface{}, _, _ uint8, _ interface{}) error {
	m.Upgraded.Inc()
	return nil
}

// OnAutoRenewChanged implements plugin.OnAutoRenewChanged.
func (m *MetricsExtension) OnAutoRenewChanged(_ context.Context, _ interface{}, enabled bool) error {
	if enabled {
		m.AutoRenewEnabled.Inc()
	} else {
		m.AutoRenewDisabled.Inc()
	}
	return nil
}

// OnSubscriberPruned implements plugin.OnSubscriberPruned.
func (m *MetricsExtension) OnSubscriberPruned(_ context.Context, _ string) error {
	m.Pruned.Inc()
	return nil
}

// OnSettled implements plugin.OnSettled.
func (m *MetricsExtension) OnSettled(_ context.Context, _ interface{}) error {
	m.Settled.Inc()
	return nil
}

// OnPriceChanged implements plugin.OnPriceChanged.
func (m *MetricsExtension) OnPriceChanged(_ context.Context, _ string, _ uint8, _ interface{}) error {
	m.PriceChanged.Inc()
	return nil
}

// OnDenominationRemoved implements plugin.OnDenominationRemoved.
func (m *MetricsExtension) OnDenominationRemoved(_ context.Context, _ string) error {
	m.DenominationRemoved.Inc()
	return nil
}

// OnTreasuryChanged implements plugin.OnTreasuryChanged.
func (m *MetricsExtension) OnTreasuryChanged(_ context.Context, _, _ string) error {
	m.TreasuryChanged.Inc()
	return nil
}

// OnConfigChanged implements plugin.OnConfigChanged.
func (m *MetricsExtension) OnConfigChanged(_ context.Context, _ string) error {
	m.ConfigChanged.Inc()
	return nil
}

// OnRenewalFailed implements plugin.OnRenewalFailed.
func (m *MetricsExtension) OnRenewalFailed(_ context.Context, _ string, _ error) error {
	m.RenewalFailures.Inc()
	return nil
}

// OnBatchCompleted implements plugin.OnBatchCompleted.
func (m *MetricsExtension) OnBatchCompleted(_ context.Context, report interface{}, elapsed time.Duration) error {
	m.BatchRuns.Inc()
	if r, ok := report.(*keeper.Report); ok {
		m.BatchRenewed.Observe(float64(r.Renewed))
	}
	m.BatchLatency.Observe(float64(elapsed.Milliseconds()))
	return nil
}
