package postgres

import (
	"time"

	"github.com/xraph/grove"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/store"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// ==================== Price models ====================

type priceModel struct {
	grove.BaseModel `grove:"table:recur_prices"`

	Denomination string    `grove:"denomination,pk"`
	Tier         uint8     `grove:"tier,pk"`
	Amount       string    `grove:"amount"` // base-10 integer text
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toPriceModel(p *catalog.Price) *priceModel {
	return &priceModel{
		Denomination: string(p.Denomination),
		Tier:         uint8(p.Tier),
		Amount:       p.Amount.BigInt().String(),
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

func fromPriceModel(m *priceModel) (*catalog.Price, error) {
	amount, err := types.ParseAmount(m.Denomination, m.Amount)
	if err != nil {
		return nil, err
	}
	return &catalog.Price{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Denomination: catalog.Denomination(m.Denomination),
		Tier:         catalog.Tier(m.Tier),
		Amount:       amount,
	}, nil
}

// ==================== Subscription models ====================

// Seq is assigned by the database and carries insertion order for
// ListSubscribers.
type subscriptionModel struct {
	grove.BaseModel `grove:"table:recur_subscriptions"`

	Address      string    `grove:"address,pk"`
	Seq          int64     `grove:"seq,default"`
	ExpiresAt    int64     `grove:"expires_at"`
	Denomination string    `grove:"denomination"`
	AutoRenew    bool      `grove:"auto_renew"`
	Tier         uint8     `grove:"tier"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toSubscriptionModel(s *subscription.Subscription) *subscriptionModel {
	return &subscriptionModel{
		Address:      s.Address.String(),
		ExpiresAt:    s.ExpiresAt,
		Denomination: string(s.Denomination),
		AutoRenew:    s.AutoRenew,
		Tier:         uint8(s.Tier),
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
}

func fromSubscriptionModel(m *subscriptionModel) (*subscription.Subscription, error) {
	addr, err := types.ParseAddress(m.Address)
	if err != nil {
		return nil, err
	}
	return &subscription.Subscription{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		Address:      addr,
		ExpiresAt:    m.ExpiresAt,
		Denomination: catalog.Denomination(m.Denomination),
		AutoRenew:    m.AutoRenew,
		Tier:         catalog.Tier(m.Tier),
	}, nil
}

// ==================== Receipt models ====================

type receiptModel struct {
	grove.BaseModel `grove:"table:recur_receipts"`

	ID           string    `grove:"id,pk"`
	Payer        string    `grove:"payer"`
	Treasury     string    `grove:"treasury"`
	Denomination string    `grove:"denomination"`
	Tier         uint8     `grove:"tier"`
	Kind         string    `grove:"kind"`
	Amount       string    `grove:"amount"`
	Refunded     string    `grove:"refunded"`
	BatchRunID   string    `grove:"batch_run_id"`
	CreatedAt    time.Time `grove:"created_at"`
	UpdatedAt    time.Time `grove:"updated_at"`
}

func toReceiptModel(r *payment.Receipt) *receiptModel {
	batchRun := ""
	if !r.BatchRunID.IsNil() {
		batchRun = r.BatchRunID.String()
	}
	return &receiptModel{
		ID:           r.ID.String(),
		Payer:        r.Payer.String(),
		Treasury:     r.Treasury.String(),
		Denomination: string(r.Denomination),
		Tier:         uint8(r.Tier),
		Kind:         string(r.Kind),
		Amount:       r.Amount.BigInt().String(),
		Refunded:     r.Refunded.BigInt().String(),
		BatchRunID:   batchRun,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
}

func fromReceiptModel(m *receiptModel) (*payment.Receipt, error) {
	receiptID, err := id.ParseReceiptID(m.ID)
	if err != nil {
		return nil, err
	}
	payer, err := types.ParseAddress(m.Payer)
	if err != nil {
		return nil, err
	}
	treasury, err := types.ParseAddress(m.Treasury)
	if err != nil {
		return nil, err
	}
	amount, err := types.ParseAmount(m.Denomination, m.Amount)
	if err != nil {
		return nil, err
	}
	refunded, err := types.ParseAmount(m.Denomination, m.Refunded)
	if err != nil {
		return nil, err
	}

	batchRun := id.Nil
	if m.BatchRunID != "" {
		batchRun, err = id.ParseBatchRunID(m.BatchRunID)
		if err != nil {
			return nil, err
		}
	}

	return &payment.Receipt{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           receiptID,
		Payer:        payer,
		Treasury:     treasury,
		Denomination: catalog.Denomination(m.Denomination),
		Tier:         catalog.Tier(m.Tier),
		Kind:         payment.Kind(m.Kind),
		Amount:       amount,
		Refunded:     refunded,
		BatchRunID:   batchRun,
	}, nil
}

// ==================== Settings models ====================

// Settings is a single row keyed by a constant id.
type settingsModel struct {
	grove.BaseModel `grove:"table:recur_settings"`

	ID            int16     `grove:"id,pk"`
	Treasury      string    `grove:"treasury"`
	PeriodPolicy  string    `grove:"period_policy"`
	PeriodMonths  int       `grove:"period_months"`
	PeriodSeconds int64     `grove:"period_seconds"`
	RenewWindow   int64     `grove:"renew_window"`
	UpdatedAt     time.Time `grove:"updated_at"`
}

const settingsRowID int16 = 1

func toSettingsModel(s *store.Settings) *settingsModel {
	return &settingsModel{
		ID:            settingsRowID,
		Treasury:      s.Treasury.String(),
		PeriodPolicy:  s.PeriodPolicy,
		PeriodMonths:  s.PeriodMonths,
		PeriodSeconds: s.PeriodSeconds,
		RenewWindow:   s.RenewWindow,
		UpdatedAt:     s.UpdatedAt,
	}
}

func fromSettingsModel(m *settingsModel) (*store.Settings, error) {
	treasury, err := types.ParseAddress(m.Treasury)
	if err != nil {
		return nil, err
	}
	return &store.Settings{
		Treasury:      treasury,
		PeriodPolicy:  m.PeriodPolicy,
		PeriodMonths:  m.PeriodMonths,
		PeriodSeconds: m.PeriodSeconds,
		RenewWindow:   m.RenewWindow,
		UpdatedAt:     m.UpdatedAt,
	}, nil
}
