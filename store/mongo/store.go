package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/mongodriver"

	recur "github.com/xraph/recur"
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/payment"
	recurstore "github.com/xraph/recur/store"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// Collection name constants.
const (
	colPrices        = "recur_prices"
	colSubscriptions = "recur_subscriptions"
	colReceipts      = "recur_receipts"
	colSettings      = "recur_settings"
)

// compile-time interface check
var _ recurstore.Store = (*Store)(nil)

// Store implements store.Store using MongoDB via Grove ORM.
type Store struct {
	db  *grove.DB
	mdb *mongodriver.MongoDB
}

// New creates a new MongoDB store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db:  db,
		mdb: mongodriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates indexes for all recur collections.
func (s *Store) Migrate(ctx context.Context) error {
	indexes := migrationIndexes()

	for col, models := range indexes {
		if len(models) == 0 {
			continue
		}
		_, err := s.mdb.Collection(col).Indexes().CreateMany(ctx, models)
		if err != nil {
			return fmt.Errorf("recur/mongo: migrate %s indexes: %w", col, err)
		}
	}
	return nil
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.Ping(ctx)
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// ==================== Catalog Store ====================

func (s *Store) SetPrice(ctx context.Context, p *catalog.Price) error {
	m := toPriceModel(p)
	t := now()
	_, err := s.mdb.NewUpdate((*priceModel)(nil)).
		Filter(bson.M{"_id": m.ID}).
		Set("denomination", m.Denomination).
		Set("tier", m.Tier).
		Set("amount", m.Amount).
		Set("created_at", m.CreatedAt).
		Set("updated_at", t).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("recur/mongo: set price: %w", err)
	}
	return nil
}

func (s *Store) GetPrice(ctx context.Context, denom catalog.Denomination, tier catalog.Tier) (types.Amount, error) {
	var m priceModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": priceDocID(denom, tier)}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			// Absence and "not accepted" share the zero sentinel.
			return types.ZeroAmount(string(denom)), nil
		}
		return types.Amount{}, fmt.Errorf("recur/mongo: get price: %w", err)
	}
	p, err := fromPriceModel(&m)
	if err != nil {
		return types.Amount{}, err
	}
	return p.Amount, nil
}

func (s *Store) ListPrices(ctx context.Context, denom catalog.Denomination) ([]*catalog.Price, error) {
	var models []priceModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"denomination": string(denom)}).
		Sort(bson.D{{Key: "tier", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("recur/mongo: list prices: %w", err)
	}

	result := make([]*catalog.Price, len(models))
	for i := range models {
		p, err := fromPriceModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = p
	}
	return result, nil
}

func (s *Store) RemoveDenomination(ctx context.Context, denom catalog.Denomination) ([]catalog.Tier, error) {
	var models []priceModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{"denomination": string(denom)}).
		Sort(bson.D{{Key: "tier", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("recur/mongo: remove denomination: %w", err)
	}

	cleared := make([]catalog.Tier, len(models))
	for i := range models {
		cleared[i] = catalog.Tier(models[i].Tier)
	}

	_, err = s.mdb.NewDelete((*priceModel)(nil)).
		Filter(bson.M{"denomination": string(denom)}).
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("recur/mongo: remove denomination: %w", err)
	}
	return cleared, nil
}

// ==================== Subscription Store ====================

func (s *Store) PutSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)

	// created_at is preserved by the engine across updates, so sorting on
	// it yields insertion order.
	_, err := s.mdb.NewUpdate((*subscriptionModel)(nil)).
		Filter(bson.M{"_id": m.Address}).
		Set("expires_at", m.ExpiresAt).
		Set("denomination", m.Denomination).
		Set("auto_renew", m.AutoRenew).
		Set("tier", m.Tier).
		Set("created_at", m.CreatedAt).
		Set("updated_at", now()).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("recur/mongo: put subscription: %w", err)
	}
	return nil
}

func (s *Store) GetSubscription(ctx context.Context, addr types.Address) (*subscription.Subscription, error) {
	var m subscriptionModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": addr.String()}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, recur.ErrNoSubscription
		}
		return nil, fmt.Errorf("recur/mongo: get subscription: %w", err)
	}
	return fromSubscriptionModel(&m)
}

func (s *Store) DeleteSubscription(ctx context.Context, addr types.Address) error {
	_, err := s.mdb.NewDelete((*subscriptionModel)(nil)).
		Filter(bson.M{"_id": addr.String()}).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("recur/mongo: delete subscription: %w", err)
	}
	return nil
}

func (s *Store) ListSubscribers(ctx context.Context) ([]types.Address, error) {
	var models []subscriptionModel
	err := s.mdb.NewFind(&models).
		Filter(bson.M{}).
		Sort(bson.D{{Key: "created_at", Value: 1}}).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("recur/mongo: list subscribers: %w", err)
	}

	result := make([]types.Address, len(models))
	for i := range models {
		addr, err := types.ParseAddress(models[i].Address)
		if err != nil {
			return nil, err
		}
		result[i] = addr
	}
	return result, nil
}

func (s *Store) HasSubscriber(ctx context.Context, addr types.Address) (bool, error) {
	count, err := s.mdb.Collection(colSubscriptions).
		CountDocuments(ctx, bson.M{"_id": addr.String()})
	if err != nil {
		return false, fmt.Errorf("recur/mongo: has subscriber: %w", err)
	}
	return count > 0, nil
}

func (s *Store) CountSubscribers(ctx context.Context) (int, error) {
	count, err := s.mdb.Collection(colSubscriptions).
		CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("recur/mongo: count subscribers: %w", err)
	}
	return int(count), nil
}

// ==================== Receipt Store ====================

func (s *Store) CreateReceipt(ctx context.Context, r *payment.Receipt) error {
	m := toReceiptModel(r)
	_, err := s.mdb.NewInsert(m).Exec(ctx)
	if err != nil {
		return fmt.Errorf("recur/mongo: create receipt: %w", err)
	}
	return nil
}

func (s *Store) ListReceipts(ctx context.Context, payer types.Address, opts payment.ListOpts) ([]*payment.Receipt, error) {
	var models []receiptModel

	filter := bson.M{"payer": payer.String()}
	if opts.Kind != "" {
		filter["kind"] = string(opts.Kind)
	}

	q := s.mdb.NewFind(&models).
		Filter(filter).
		Sort(bson.D{{Key: "created_at", Value: 1}})
	if opts.Limit > 0 {
		q = q.Limit(int64(opts.Limit))
	}
	if opts.Offset > 0 {
		q = q.Skip(int64(opts.Offset))
	}

	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("recur/mongo: list receipts: %w", err)
	}

	result := make([]*payment.Receipt, len(models))
	for i := range models {
		r, err := fromReceiptModel(&models[i])
		if err != nil {
			return nil, err
		}
		result[i] = r
	}
	return result, nil
}

// ==================== Settings Store ====================

func (s *Store) SaveSettings(ctx context.Context, set *recurstore.Settings) error {
	m := toSettingsModel(set)
	_, err := s.mdb.NewUpdate((*settingsModel)(nil)).
		Filter(bson.M{"_id": settingsDocID}).
		Set("treasury", m.Treasury).
		Set("period_policy", m.PeriodPolicy).
		Set("period_months", m.PeriodMonths).
		Set("period_seconds", m.PeriodSeconds).
		Set("renew_window", m.RenewWindow).
		Set("updated_at", m.UpdatedAt).
		Upsert().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("recur/mongo: save settings: %w", err)
	}
	return nil
}

func (s *Store) LoadSettings(ctx context.Context) (*recurstore.Settings, error) {
	var m settingsModel
	err := s.mdb.NewFind(&m).
		Filter(bson.M{"_id": settingsDocID}).
		Scan(ctx)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("recur/mongo: load settings: %w", err)
	}
	return fromSettingsModel(&m)
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoDocuments checks for the mongo no-documents sentinel.
func isNoDocuments(err error) bool {
	return errors.Is(err, mongo.ErrNoDocuments)
}

// migrationIndexes returns the index definitions for all recur collections.
func migrationIndexes() map[string][]mongo.IndexModel {
	return map[string][]mongo.IndexModel{
		colPrices: {
			{
				Keys:    bson.D{{Key: "denomination", Value: 1}, {Key: "tier", Value: 1}},
				Options: options.Index().SetUnique(true),
			},
		},
		colSubscriptions: {
			{Keys: bson.D{{Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "auto_renew", Value: 1}, {Key: "expires_at", Value: 1}}},
		},
		colReceipts: {
			{Keys: bson.D{{Key: "payer", Value: 1}, {Key: "created_at", Value: 1}}},
			{Keys: bson.D{{Key: "batch_run_id", Value: 1}}},
		},
		colSettings: {},
	}
}
