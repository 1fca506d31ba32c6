package recur

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/xraph/recur/calendar"
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/guard"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/plugin"
	"github.com/xraph/recur/store"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// PeriodPolicy selects how one billing period is measured. Calendar months
// and fixed seconds are not numerically interchangeable (month periods vary
// 28-31 days), so the active policy is part of the persisted configuration.
type PeriodPolicy string

const (
	// PeriodCalendarMonths measures periods in whole calendar months with
	// day clamping (Jan 31 + 1 month = Feb 28/29).
	PeriodCalendarMonths PeriodPolicy = "months"
	// PeriodFixedSeconds measures periods as a fixed duration.
	PeriodFixedSeconds PeriodPolicy = "fixed"
)

// maxPeriodMonths bounds admin-configured calendar periods.
const maxPeriodMonths = 120

// minDaysPerMonth is the shortest possible calendar month, used to bound
// the renew window against the worst-case period length.
const minDaysPerMonth = 28

// Config is the engine's global configuration.
type Config struct {
	// Treasury receives all settled payments. Never the zero address.
	Treasury types.Address
	// Policy selects calendar-month or fixed-duration periods.
	Policy PeriodPolicy
	// PeriodMonths is the period length under PeriodCalendarMonths.
	PeriodMonths int
	// PeriodFixed is the period length under PeriodFixedSeconds.
	PeriodFixed time.Duration
	// RenewWindow is how long before expiry service-initiated renewal is
	// permitted. Must be strictly shorter than the minimum period length.
	RenewWindow time.Duration
}

// DefaultConfig returns a Config with a one-calendar-month period and a
// seven-day renew window. The treasury must still be set before Start.
func DefaultConfig() Config {
	return Config{
		Policy:       PeriodCalendarMonths,
		PeriodMonths: 1,
		RenewWindow:  7 * 24 * time.Hour,
	}
}

// Validate checks the configuration invariants.
func (c Config) Validate() error {
	if c.Treasury.IsZero() {
		return ErrZeroTreasury
	}
	switch c.Policy {
	case PeriodCalendarMonths:
		if c.PeriodMonths <= 0 || c.PeriodMonths > maxPeriodMonths {
			return fmt.Errorf("%w: %d months", ErrInvalidPeriod, c.PeriodMonths)
		}
	case PeriodFixedSeconds:
		if c.PeriodFixed <= 0 {
			return fmt.Errorf("%w: %s", ErrInvalidPeriod, c.PeriodFixed)
		}
	default:
		return fmt.Errorf("%w: unknown policy %q", ErrInvalidPeriod, c.Policy)
	}
	if c.RenewWindow <= 0 || int64(c.RenewWindow/time.Second) >= c.minPeriodSeconds() {
		return fmt.Errorf("%w: window %s", ErrInvalidRenewWindow, c.RenewWindow)
	}
	return nil
}

// minPeriodSeconds returns the shortest length one period can have under
// the active policy, in seconds.
func (c Config) minPeriodSeconds() int64 {
	if c.Policy == PeriodFixedSeconds {
		return int64(c.PeriodFixed / time.Second)
	}
	return int64(c.PeriodMonths) * minDaysPerMonth * 86400
}

// Engine is the subscription lifecycle engine. All state-mutating
// operations execute as single atomic units: validation and settlement
// precede every ledger write, so no partial mutation is observable on
// failure.
type Engine struct {
	store   store.Store
	settler *payment.Settler
	auth    guard.Authorizer
	pauser  guard.Pauser
	plugins *plugin.Registry
	logger  *slog.Logger
	nowFn   func() time.Time

	// mu serializes mutating operations; cfg is only written under mu.
	mu  sync.Mutex
	cfg Config
}

// New creates a new Engine instance. Without WithAuthorizer the engine
// grants every capability (single-tenant embedding); inject a real
// authorizer in multi-principal deployments.
func New(s store.Store, opts ...Option) *Engine {
	e := &Engine{
		store:   s,
		settler: payment.NewSettler(nil, nil),
		auth:    guard.AllowAll(),
		pauser:  guard.NeverPaused(),
		plugins: plugin.NewRegistry(),
		logger:  slog.Default(),
		nowFn:   time.Now,
		cfg:     DefaultConfig(),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option configures an Engine instance.
type Option func(*Engine)

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
		e.plugins.WithLogger(logger)
	}
}

// WithConfig sets the initial configuration. Persisted settings loaded at
// Start take precedence.
func WithConfig(cfg Config) Option {
	return func(e *Engine) {
		e.cfg = cfg
	}
}

// WithTransfers sets the value-transfer collaborators. Either may be nil if
// the embedding never uses that payment path.
func WithTransfers(native payment.NativeTransfer, token payment.TokenTransfer) Option {
	return func(e *Engine) {
		e.settler = payment.NewSettler(native, token)
	}
}

// WithAuthorizer sets the access-control collaborator.
func WithAuthorizer(a guard.Authorizer) Option {
	return func(e *Engine) {
		e.auth = a
	}
}

// WithPauser sets the pause collaborator.
func WithPauser(p guard.Pauser) Option {
	return func(e *Engine) {
		e.pauser = p
	}
}

// WithPlugin registers a plugin.
func WithPlugin(p plugin.Plugin) Option {
	return func(e *Engine) {
		_ = e.plugins.Register(p) //nolint:errcheck // best-effort plugin registration during init
	}
}

// WithClock overrides the time source. Test use.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.nowFn = now
	}
}

// Start migrates the store, loads persisted settings, validates the
// configuration, and initializes plugins.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.store.Migrate(ctx); err != nil {
		return err
	}

	// Persisted settings win over programmatic config: the last admin
	// change survives restarts.
	saved, err := e.store.LoadSettings(ctx)
	if err != nil {
		return fmt.Errorf("recur: load settings: %w", err)
	}
	if saved != nil {
		e.cfg = configFromSettings(saved)
	}

	if err := e.cfg.Validate(); err != nil {
		return err
	}

	e.plugins.EmitInit(ctx, e)

	e.logger.Info("recur engine started",
		"treasury", e.cfg.Treasury.Short(),
		"policy", string(e.cfg.Policy),
		"period_months", e.cfg.PeriodMonths,
		"period_fixed", e.cfg.PeriodFixed,
		"renew_window", e.cfg.RenewWindow,
	)

	return nil
}

// Stop shuts down the Engine.
func (e *Engine) Stop() error {
	e.plugins.EmitShutdown(context.Background())
	return e.store.Close()
}

// ──────────────────────────────────────────────────
// Read surface
// ──────────────────────────────────────────────────

// GetSubscription returns the stored record for addr, expired or not.
func (e *Engine) GetSubscription(ctx context.Context, addr types.Address) (*subscription.Subscription, error) {
	return e.store.GetSubscription(ctx, addr)
}

// IsActive reports whether addr has an unexpired subscription. An address
// that never transacted reads as inactive, not as an error.
func (e *Engine) IsActive(ctx context.Context, addr types.Address) (bool, error) {
	sub, err := e.store.GetSubscription(ctx, addr)
	if err != nil {
		if IsNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return sub.Active(e.nowFn()), nil
}

// EffectiveTier returns the tier visible to read paths: the paid tier while
// active, Free once expired or absent. Expiry is lazy; staleness is
// computed here, never swept by a background process.
func (e *Engine) EffectiveTier(ctx context.Context, addr types.Address) (catalog.Tier, error) {
	sub, err := e.store.GetSubscription(ctx, addr)
	if err != nil {
		if IsNotFound(err) {
			return catalog.TierFree, nil
		}
		return catalog.TierFree, err
	}
	return sub.EffectiveTier(e.nowFn()), nil
}

// GetPrice returns the catalog price for (denom, tier). A zero amount means
// the pair is not accepted.
func (e *Engine) GetPrice(ctx context.Context, denom catalog.Denomination, tier catalog.Tier) (types.Amount, error) {
	return e.store.GetPrice(ctx, denom, tier)
}

// Subscribers returns every enumerated subscriber address in insertion
// order.
func (e *Engine) Subscribers(ctx context.Context) ([]types.Address, error) {
	return e.store.ListSubscribers(ctx)
}

// Receipts lists settlement receipts for payer.
func (e *Engine) Receipts(ctx context.Context, payer types.Address, opts payment.ListOpts) ([]*payment.Receipt, error) {
	return e.store.ListReceipts(ctx, payer, opts)
}

// Treasury returns the configured payout address.
func (e *Engine) Treasury() types.Address {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Treasury
}

// RenewWindow returns the configured keeper eligibility window.
func (e *Engine) RenewWindow() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.RenewWindow
}

// PeriodConfig returns the active period policy and its length.
func (e *Engine) PeriodConfig() (PeriodPolicy, int, time.Duration) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.cfg.Policy, e.cfg.PeriodMonths, e.cfg.PeriodFixed
}

// ──────────────────────────────────────────────────
// Internal helpers
// ──────────────────────────────────────────────────

type ctxKey int

// inOperationKey marks a context as belonging to an in-flight mutation.
// Value-transfer collaborators receive the marked context; any re-entrant
// call into a public mutator through it is rejected rather than deadlocked.
const inOperationKey ctxKey = iota

// begin acquires the single-entry guard for a mutating operation. The
// returned context carries the in-operation marker and the returned func
// releases the guard.
func (e *Engine) begin(ctx context.Context) (context.Context, func(), error) {
	if ctx.Value(inOperationKey) != nil {
		return nil, nil, ErrReentrantCall
	}
	e.mu.Lock()
	return context.WithValue(ctx, inOperationKey, struct{}{}), e.mu.Unlock, nil
}

// checkPaused fails user-facing mutations while the emergency stop is set.
func (e *Engine) checkPaused(ctx context.Context) error {
	paused, err := e.pauser.IsPaused(ctx)
	if err != nil {
		return fmt.Errorf("recur: pause query: %w", err)
	}
	if paused {
		return ErrPaused
	}
	return nil
}

// requireRole fails with ErrUnauthorized unless caller holds role.
func (e *Engine) requireRole(ctx context.Context, caller types.Address, role guard.Role) error {
	ok, err := e.auth.HasCapability(ctx, caller, role)
	if err != nil {
		return fmt.Errorf("recur: capability query: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: %s needs %q", ErrUnauthorized, caller.Short(), role)
	}
	return nil
}

// nextExpiry computes from + one period under the active policy. Caller
// holds mu.
func (e *Engine) nextExpiry(from int64) int64 {
	if e.cfg.Policy == PeriodFixedSeconds {
		return from + int64(e.cfg.PeriodFixed/time.Second)
	}
	return calendar.AddMonths(from, e.cfg.PeriodMonths)
}

// periodStart computes the start of the period ending at expiresAt, the
// symmetric inverse of nextExpiry. Caller holds mu.
func (e *Engine) periodStart(expiresAt int64) int64 {
	if e.cfg.Policy == PeriodFixedSeconds {
		return expiresAt - int64(e.cfg.PeriodFixed/time.Second)
	}
	return calendar.SubMonths(expiresAt, e.cfg.PeriodMonths)
}

// priceFor resolves the acceptable catalog price for (denom, tier).
func (e *Engine) priceFor(ctx context.Context, denom catalog.Denomination, tier catalog.Tier) (types.Amount, error) {
	if !tier.Valid() {
		return types.Amount{}, fmt.Errorf("%w: %d", ErrInvalidTier, tier)
	}
	if !tier.Purchasable() {
		return types.Amount{}, ErrFreeTierNotPurchasable
	}
	price, err := e.store.GetPrice(ctx, denom, tier)
	if err != nil {
		return types.Amount{}, err
	}
	if !price.IsPositive() {
		return types.Amount{}, fmt.Errorf("%w: %s/%s", ErrTokenNotAccepted, denom, tier)
	}
	return price, nil
}

func configFromSettings(s *store.Settings) Config {
	return Config{
		Treasury:     s.Treasury,
		Policy:       PeriodPolicy(s.PeriodPolicy),
		PeriodMonths: s.PeriodMonths,
		PeriodFixed:  time.Duration(s.PeriodSeconds) * time.Second,
		RenewWindow:  time.Duration(s.RenewWindow) * time.Second,
	}
}

func settingsFromConfig(c Config, now time.Time) *store.Settings {
	return &store.Settings{
		Treasury:      c.Treasury,
		PeriodPolicy:  string(c.Policy),
		PeriodMonths:  c.PeriodMonths,
		PeriodSeconds: int64(c.PeriodFixed / time.Second),
		RenewWindow:   int64(c.RenewWindow / time.Second),
		UpdatedAt:     now.UTC(),
	}
}
