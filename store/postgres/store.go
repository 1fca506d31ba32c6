package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/xraph/grove"
	"github.com/xraph/grove/drivers/pgdriver"
	"github.com/xraph/grove/migrate"

	recur "github.com/xraph/recur"
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/payment"
	recurstore "github.com/xraph/recur/store"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// compile-time interface check
var _ recurstore.Store = (*Store)(nil)

// Store implements store.Store using PostgreSQL via Grove ORM.
type Store struct {
	db *grove.DB
	pg *pgdriver.PgDB
}

// New creates a new PostgreSQL store backed by Grove ORM.
func New(db *grove.DB) *Store {
	return &Store{
		db: db,
		pg: pgdriver.Unwrap(db),
	}
}

// DB returns the underlying grove database for direct access.
func (s *Store) DB() *grove.DB { return s.db }

// Migrate creates the required tables and indexes using the grove orchestrator.
func (s *Store) Migrate(ctx context.Context) error {
	executor, err := migrate.NewExecutorFor(s.pg)
	if err != nil {
		return fmt.Errorf("recur/postgres: create migration executor: %w", err)
	}
	orch := migrate.NewOrchestrator(executor, Migrations)
	if _, err := orch.Migrate(ctx); err != nil {
		return fmt.Errorf("recur/postgres: migration failed: %w", err)
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
	m.UpdatedAt = now()
	_, err := s.pg.NewInsert(m).
		OnConflict("(denomination, tier) DO UPDATE").
		Set("amount = EXCLUDED.amount").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetPrice(ctx context.Context, denom catalog.Denomination, tier catalog.Tier) (types.Amount, error) {
	m := new(priceModel)
	err := s.pg.NewSelect(m).
		Where("denomination = $1", string(denom)).
		Where("tier = $2", uint8(tier)).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			// Absence and "not accepted" share the zero sentinel.
			return types.ZeroAmount(string(denom)), nil
		}
		return types.Amount{}, err
	}
	p, err := fromPriceModel(m)
	if err != nil {
		return types.Amount{}, err
	}
	return p.Amount, nil
}

func (s *Store) ListPrices(ctx context.Context, denom catalog.Denomination) ([]*catalog.Price, error) {
	var models []priceModel
	err := s.pg.NewSelect(&models).
		Where("denomination = $1", string(denom)).
		OrderExpr("tier ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	err := s.pg.NewSelect(&models).
		Where("denomination = $1", string(denom)).
		OrderExpr("tier ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}

	cleared := make([]catalog.Tier, len(models))
	for i := range models {
		cleared[i] = catalog.Tier(models[i].Tier)
	}

	_, err = s.pg.NewDelete((*priceModel)(nil)).
		Where("denomination = $1", string(denom)).
		Exec(ctx)
	if err != nil {
		return nil, err
	}
	return cleared, nil
}

// ==================== Subscription Store ====================

func (s *Store) PutSubscription(ctx context.Context, sub *subscription.Subscription) error {
	m := toSubscriptionModel(sub)
	m.UpdatedAt = now()
	_, err := s.pg.NewInsert(m).
		OnConflict("(address) DO UPDATE").
		Set("expires_at = EXCLUDED.expires_at").
		Set("denomination = EXCLUDED.denomination").
		Set("auto_renew = EXCLUDED.auto_renew").
		Set("tier = EXCLUDED.tier").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) GetSubscription(ctx context.Context, addr types.Address) (*subscription.Subscription, error) {
	m := new(subscriptionModel)
	err := s.pg.NewSelect(m).
		Where("address = $1", addr.String()).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, recur.ErrNoSubscription
		}
		return nil, err
	}
	return fromSubscriptionModel(m)
}

func (s *Store) DeleteSubscription(ctx context.Context, addr types.Address) error {
	_, err := s.pg.NewDelete((*subscriptionModel)(nil)).
		Where("address = $1", addr.String()).
		Exec(ctx)
	return err
}

func (s *Store) ListSubscribers(ctx context.Context) ([]types.Address, error) {
	var models []subscriptionModel
	err := s.pg.NewSelect(&models).
		OrderExpr("seq ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
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
	var count int64
	err := s.pg.NewRaw(`
		SELECT COUNT(1) FROM recur_subscriptions WHERE address = $1
	`, addr.String()).Scan(ctx, &count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *Store) CountSubscribers(ctx context.Context) (int, error) {
	var count int64
	err := s.pg.NewRaw(`SELECT COUNT(1) FROM recur_subscriptions`).Scan(ctx, &count)
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

// ==================== Receipt Store ====================

func (s *Store) CreateReceipt(ctx context.Context, r *payment.Receipt) error {
	m := toReceiptModel(r)
	_, err := s.pg.NewInsert(m).Exec(ctx)
	return err
}

func (s *Store) ListReceipts(ctx context.Context, payer types.Address, opts payment.ListOpts) ([]*payment.Receipt, error) {
	var models []receiptModel
	q := s.pg.NewSelect(&models).Where("payer = $1", payer.String())

	argIdx := 1
	if opts.Kind != "" {
		argIdx++
		q = q.Where(fmt.Sprintf("kind = $%d", argIdx), string(opts.Kind))
	}
	if opts.Limit > 0 {
		q = q.Limit(opts.Limit)
	}
	if opts.Offset > 0 {
		q = q.Offset(opts.Offset)
	}
	q = q.OrderExpr("created_at ASC")

	if err := q.Scan(ctx); err != nil {
		return nil, err
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
	_, err := s.pg.NewInsert(m).
		OnConflict("(id) DO UPDATE").
		Set("treasury = EXCLUDED.treasury").
		Set("period_policy = EXCLUDED.period_policy").
		Set("period_months = EXCLUDED.period_months").
		Set("period_seconds = EXCLUDED.period_seconds").
		Set("renew_window = EXCLUDED.renew_window").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	return err
}

func (s *Store) LoadSettings(ctx context.Context) (*recurstore.Settings, error) {
	m := new(settingsModel)
	err := s.pg.NewSelect(m).
		Where("id = $1", settingsRowID).
		Scan(ctx)
	if err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, err
	}
	return fromSettingsModel(m)
}

// ==================== Helpers ====================

// now returns the current UTC time.
func now() time.Time {
	return time.Now().UTC()
}

// isNoRows checks for the standard sql.ErrNoRows sentinel.
func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
