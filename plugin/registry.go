package plugin

import (
	"context"
	"fmt"
	"log/slog"
	"reflect"
	"sync"
	"time"
)

// Registry manages all registered plugins and provides efficient dispatch.
// It uses type-cached discovery for O(1) dispatch performance.
type Registry struct {
	mu      sync.RWMutex
	plugins []Plugin
	logger  *slog.Logger

	// Type-cached plugin lists for efficient dispatch
	onInit                []OnInit
	onShutdown            []OnShutdown
	onSubscribed          []OnSubscribed
	onRenewed             []OnRenewed
	onTierUpgraded        []OnTierUpgraded
	onAutoRenewChanged    []OnAutoRenewChanged
	onSubscriberPruned    []OnSubscriberPruned
	onSettled             []OnSettled
	onPriceChanged        []OnPriceChanged
	onDenominationRemoved []OnDenominationRemoved
	onTreasuryChanged     []OnTreasuryChanged
	onConfigChanged       []OnConfigChanged
	onRenewalFailed       []OnRenewalFailed
	onBatchCompleted      []OnBatchCompleted
}

// NewRegistry creates a new plugin registry.
func NewRegistry() *Registry {
	return &Registry{logger: slog.Default()}
}

// WithLogger sets the logger for the registry.
func (r *Registry) WithLogger(logger *slog.Logger) *Registry {
	r.logger = logger
	return r
}

// Register adds a plugin to the registry and caches its interfaces.
func (r *Registry) Register(p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Check for duplicate
	for _, existing := range r.plugins {
		if existing.Name() == p.Name() {
			return fmt.Errorf("plugin: duplicate registration: %s", p.Name())
		}
	}

	r.plugins = append(r.plugins, p)

	// Type-switch to cache interfaces
	if v, ok := p.(OnInit); ok {
		r.onInit = append(r.onInit, v)
	}
	if v, ok := p.(OnShutdown); ok {
		r.onShutdown = append(r.onShutdown, v)
	}
	if v, ok := p.(OnSubscribed); ok {
		r.onSubscribed = append(r.onSubscribed, v)
	}
	if v, ok := p.(OnRenewed); ok {
		r.onRenewed = append(r.onRenewed, v)
	}
	if v, ok := p.(OnTierUpgraded); ok {
		r.onTierUpgraded = append(r.onTierUpgraded, v)
	}
	if v, ok := p.(OnAutoRenewChanged); ok {
		r.onAutoRenewChanged = append(r.onAutoRenewChanged, v)
	}
	if v, ok := p.(OnSubscriberPruned); ok {
		r.onSubscriberPruned = append(r.onSubscriberPruned, v)
	}
	if v, ok := p.(OnSettled); ok {
		r.onSettled = append(r.onSettled, v)
	}
	if v, ok := p.(OnPriceChanged); ok {
		r.onPriceChanged = append(r.onPriceChanged, v)
	}
	if v, ok := p.(OnDenominationRemoved); ok {
		r.onDenominationRemoved = append(r.onDenominationRemoved, v)
	}
	if v, ok := p.(OnTreasuryChanged); ok {
		r.onTreasuryChanged = append(r.onTreasuryChanged, v)
	}
	if v, ok := p.(OnConfigChanged); ok {
		r.onConfigChanged = append(r.onConfigChanged, v)
	}
	if v, ok := p.(OnRenewalFailed); ok {
		r.onRenewalFailed = append(r.onRenewalFailed, v)
	}
	if v, ok := p.(OnBatchCompleted); ok {
		r.onBatchCompleted = append(r.onBatchCompleted, v)
	}

	r.logger.Info("plugin registered",
		"name", p.Name(),
		"interfaces", r.getImplementedInterfaces(p),
	)

	return nil
}

// getImplementedInterfaces returns a list of interfaces implemented by the plugin.
func (r *Registry) getImplementedInterfaces(p Plugin) []string {
	var interfaces []string
	v := reflect.TypeOf(p)

	checkInterface := func(iface reflect.Type, name string) {
		if v.Implements(iface) {
			interfaces = append(interfaces, name)
		}
	}

	checkInterface(reflect.TypeOf((*OnInit)(nil)).Elem(), "OnInit")
	checkInterface(reflect.TypeOf((*OnShutdown)(nil)).Elem(), "OnShutdown")
	checkInterface(reflect.TypeOf((*OnSubscribed)(nil)).Elem(), "OnSubscribed")
	checkInterface(reflect.TypeOf((*OnRenewed)(nil)).Elem(), "OnRenewed")
	checkInterface(reflect.TypeOf((*OnTierUpgraded)(nil)).Elem(), "OnTierUpgraded")
	checkInterface(reflect.TypeOf((*OnSettled)(nil)).Elem(), "OnSettled")
	checkInterface(reflect.TypeOf((*OnPriceChanged)(nil)).Elem(), "OnPriceChanged")
	checkInterface(reflect.TypeOf((*OnRenewalFailed)(nil)).Elem(), "OnRenewalFailed")
	checkInterface(reflect.TypeOf((*OnBatchCompleted)(nil)).Elem(), "OnBatchCompleted")

	return interfaces
}

// Get returns a plugin by name.
func (r *Registry) Get(name string) Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.plugins {
		if p.Name() == name {
			return p
		}
	}
	return nil
}

// List returns all registered plugins.
func (r *Registry) List() []Plugin {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Plugin, len(r.plugins))
	copy(result, r.plugins)
	return result
}

// Count returns the number of registered plugins.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.plugins)
}

// ──────────────────────────────────────────────────
// Event emission methods
// ──────────────────────────────────────────────────

// EmitInit calls OnInit for all plugins that implement it.
func (r *Registry) EmitInit(ctx context.Context, engine interface{}) {
	r.mu.RLock()
	plugins := r.onInit
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnInit(ctx, engine)
		}); err != nil {
			r.logger.Warn("plugin OnInit failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitShutdown calls OnShutdown for all plugins that implement it.
func (r *Registry) EmitShutdown(ctx context.Context) {
	r.mu.RLock()
	plugins := r.onShutdown
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnShutdown(ctx)
		}); err != nil {
			r.logger.Warn("plugin OnShutdown failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitSubscribed calls OnSubscribed for all plugins that implement it.
func (r *Registry) EmitSubscribed(ctx context.Context, sub interface{}) {
	r.mu.RLock()
	plugins := r.onSubscribed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscribed(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnSubscribed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitRenewed calls OnRenewed for all plugins that implement it.
func (r *Registry) EmitRenewed(ctx context.Context, sub interface{}) {
	r.mu.RLock()
	plugins := r.onRenewed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRenewed(ctx, sub)
		}); err != nil {
			r.logger.Warn("plugin OnRenewed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitTierUpgraded calls OnTierUpgraded for all plugins that implement it.
func (r *Registry) EmitTierUpgraded(ctx context.Context, sub interface{}, oldTier, newTier uint8, cost interface{}) {
	r.mu.RLock()
	plugins := r.onTierUpgraded
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTierUpgraded(ctx, sub, oldTier, newTier, cost)
		}); err != nil {
			r.logger.Warn("plugin OnTierUpgraded failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitAutoRenewChanged calls OnAutoRenewChanged for all plugins that implement it.
func (r *Registry) EmitAutoRenewChanged(ctx context.Context, sub interface{}, enabled bool) {
	r.mu.RLock()
	plugins := r.onAutoRenewChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnAutoRenewChanged(ctx, sub, enabled)
		}); err != nil {
			r.logger.Warn("plugin OnAutoRenewChanged failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitSubscriberPruned calls OnSubscriberPruned for all plugins that implement it.
func (r *Registry) EmitSubscriberPruned(ctx context.Context, address string) {
	r.mu.RLock()
	plugins := r.onSubscriberPruned
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSubscriberPruned(ctx, address)
		}); err != nil {
			r.logger.Warn("plugin OnSubscriberPruned failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitSettled calls OnSettled for all plugins that implement it.
func (r *Registry) EmitSettled(ctx context.Context, receipt interface{}) {
	r.mu.RLock()
	plugins := r.onSettled
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnSettled(ctx, receipt)
		}); err != nil {
			r.logger.Warn("plugin OnSettled failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitPriceChanged calls OnPriceChanged for all plugins that implement it.
func (r *Registry) EmitPriceChanged(ctx context.Context, denomination string, tier uint8, price interface{}) {
	r.mu.RLock()
	plugins := r.onPriceChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnPriceChanged(ctx, denomination, tier, price)
		}); err != nil {
			r.logger.Warn("plugin OnPriceChanged failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitDenominationRemoved calls OnDenominationRemoved for all plugins that implement it.
func (r *Registry) EmitDenominationRemoved(ctx context.Context, denomination string) {
	r.mu.RLock()
	plugins := r.onDenominationRemoved
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnDenominationRemoved(ctx, denomination)
		}); err != nil {
			r.logger.Warn("plugin OnDenominationRemoved failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitTreasuryChanged calls OnTreasuryChanged for all plugins that implement it.
func (r *Registry) EmitTreasuryChanged(ctx context.Context, previous, current string) {
	r.mu.RLock()
	plugins := r.onTreasuryChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnTreasuryChanged(ctx, previous, current)
		}); err != nil {
			r.logger.Warn("plugin OnTreasuryChanged failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitConfigChanged calls OnConfigChanged for all plugins that implement it.
func (r *Registry) EmitConfigChanged(ctx context.Context, field string) {
	r.mu.RLock()
	plugins := r.onConfigChanged
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnConfigChanged(ctx, field)
		}); err != nil {
			r.logger.Warn("plugin OnConfigChanged failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitRenewalFailed calls OnRenewalFailed for all plugins that implement it.
func (r *Registry) EmitRenewalFailed(ctx context.Context, address string, reason error) {
	r.mu.RLock()
	plugins := r.onRenewalFailed
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnRenewalFailed(ctx, address, reason)
		}); err != nil {
			r.logger.Warn("plugin OnRenewalFailed failed", "plugin", p.Name(), "error", err)
		}
	}
}

// EmitBatchCompleted calls OnBatchCompleted for all plugins that implement it.
func (r *Registry) EmitBatchCompleted(ctx context.Context, report interface{}, elapsed time.Duration) {
	r.mu.RLock()
	plugins := r.onBatchCompleted
	r.mu.RUnlock()

	for _, p := range plugins {
		if err := r.callWithTimeout(ctx, p.Name(), func() error {
			return p.OnBatchCompleted(ctx, report, elapsed)
		}); err != nil {
			r.logger.Warn("plugin OnBatchCompleted failed", "plugin", p.Name(), "error", err)
		}
	}
}

// callWithTimeout calls a plugin function with a timeout.
// Plugins should never block the subscription pipeline.
func (r *Registry) callWithTimeout(ctx context.Context, pluginName string, fn func() error) error {
	done := make(chan error, 1)

	go func() {
		done <- fn()
	}()

	select {
	case err := <-done:
		return err
	case <-time.After(5 * time.Second):
		return fmt.Errorf("plugin timeout: %s", pluginName)
	case <-ctx.Done():
		return ctx.Err()
	}
}
