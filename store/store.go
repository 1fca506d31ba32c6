package store

import (
	"context"
	"time"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// Settings is the persisted global configuration: treasury payout address,
// period policy, and keeper renew window. The engine owns validation; the
// store just round-trips the last saved value.
type Settings struct {
	Treasury      types.Address `json:"treasury"`
	PeriodPolicy  string        `json:"period_policy"` // "months" or "fixed"
	PeriodMonths  int           `json:"period_months"`
	PeriodSeconds int64         `json:"period_seconds"`
	RenewWindow   int64         `json:"renew_window"` // seconds before expiry
	UpdatedAt     time.Time     `json:"updated_at"`
}

// Store is the unified storage interface for all Recur entities.
// Instead of embedding sub-interfaces, all methods are declared explicitly
// to avoid naming conflicts.
type Store interface {
	// Catalog methods. GetPrice returns a zero Amount (in denom) when no
	// price is stored: absence and "not accepted" are the same sentinel.
	SetPrice(ctx context.Context, p *catalog.Price) error
	GetPrice(ctx context.Context, denom catalog.Denomination, tier catalog.Tier) (types.Amount, error)
	ListPrices(ctx context.Context, denom catalog.Denomination) ([]*catalog.Price, error)
	RemoveDenomination(ctx context.Context, denom catalog.Denomination) ([]catalog.Tier, error)

	// Subscription methods. Enumeration order is insertion order.
	PutSubscription(ctx context.Context, s *subscription.Subscription) error
	GetSubscription(ctx context.Context, addr types.Address) (*subscription.Subscription, error)
	DeleteSubscription(ctx context.Context, addr types.Address) error
	ListSubscribers(ctx context.Context) ([]types.Address, error)
	HasSubscriber(ctx context.Context, addr types.Address) (bool, error)
	CountSubscribers(ctx context.Context) (int, error)

	// Receipt methods
	CreateReceipt(ctx context.Context, r *payment.Receipt) error
	ListReceipts(ctx context.Context, payer types.Address, opts payment.ListOpts) ([]*payment.Receipt, error)

	// Settings methods. LoadSettings returns nil, nil when nothing has been
	// saved yet.
	SaveSettings(ctx context.Context, s *Settings) error
	LoadSettings(ctx context.Context) (*Settings, error)

	// Core methods
	Migrate(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
}
