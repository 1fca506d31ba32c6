package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xraph/recur"
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/payment"
	"github.com/xraph/recur/store"
	"github.com/xraph/recur/subscription"
	"github.com/xraph/recur/types"
)

// Store is an in-memory store suitable for tests and single-process
// embedding. Subscriber enumeration preserves insertion order.
type Store struct {
	mu sync.RWMutex

	// Price catalog, keyed by denomination then tier
	prices map[catalog.Denomination]map[catalog.Tier]*catalog.Price

	// Subscription ledger, insertion-ordered
	ledger *subscription.Ledger

	// Receipts in creation order
	receipts []*payment.Receipt

	// Last saved settings, nil until saved
	settings *store.Settings

	closed bool
}

func New() *Store {
	return &Store{
		prices:   make(map[catalog.Denomination]map[catalog.Tier]*catalog.Price),
		ledger:   subscription.NewLedger(),
		receipts: make([]*payment.Receipt, 0),
	}
}

// Catalog Store implementation
func (s *Store) SetPrice(_ context.Context, p *catalog.Price) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	byTier, ok := s.prices[p.Denomination]
	if !ok {
		byTier = make(map[catalog.Tier]*catalog.Price)
		s.prices[p.Denomination] = byTier
	}
	byTier[p.Tier] = p
	return nil
}

func (s *Store) GetPrice(_ context.Context, denom catalog.Denomination, tier catalog.Tier) (types.Amount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.open(); err != nil {
		return types.Amount{}, err
	}
	if p, ok := s.prices[denom][tier]; ok {
		return p.Amount, nil
	}
	return types.ZeroAmount(string(denom)), nil
}

func (s *Store) ListPrices(_ context.Context, denom catalog.Denomination) ([]*catalog.Price, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.open(); err != nil {
		return nil, err
	}
	result := make([]*catalog.Price, 0, len(s.prices[denom]))
	for _, p := range s.prices[denom] {
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Tier < result[j].Tier })
	return result, nil
}

func (s *Store) RemoveDenomination(_ context.Context, denom catalog.Denomination) ([]catalog.Tier, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return nil, err
	}
	cleared := make([]catalog.Tier, 0, len(s.prices[denom]))
	for tier := range s.prices[denom] {
		cleared = append(cleared, tier)
	}
	sort.Slice(cleared, func(i, j int) bool { return cleared[i] < cleared[j] })
	delete(s.prices, denom)
	return cleared, nil
}

// Subscription Store implementation
func (s *Store) PutSubscription(_ context.Context, sub *subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	s.ledger.Put(sub.Clone())
	return nil
}

func (s *Store) GetSubscription(_ context.Context, addr types.Address) (*subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.open(); err != nil {
		return nil, err
	}
	if sub := s.ledger.Get(addr); sub != nil {
		return sub.Clone(), nil
	}
	return nil, recur.ErrNoSubscription
}

func (s *Store) DeleteSubscription(_ context.Context, addr types.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	s.ledger.Delete(addr)
	return nil
}

func (s *Store) ListSubscribers(_ context.Context) ([]types.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.open(); err != nil {
		return nil, err
	}
	return s.ledger.Keys(), nil
}

func (s *Store) HasSubscriber(_ context.Context, addr types.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.open(); err != nil {
		return false, err
	}
	return s.ledger.Has(addr), nil
}

func (s *Store) CountSubscribers(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.open(); err != nil {
		return 0, err
	}
	return s.ledger.Len(), nil
}

// Receipt Store implementation
func (s *Store) CreateReceipt(_ context.Context, r *payment.Receipt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	s.receipts = append(s.receipts, r)
	return nil
}

func (s *Store) ListReceipts(_ context.Context, payer types.Address, opts payment.ListOpts) ([]*payment.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.open(); err != nil {
		return nil, err
	}
	result := make([]*payment.Receipt, 0)
	for _, r := range s.receipts {
		if r.Payer != payer {
			continue
		}
		if opts.Kind != "" && r.Kind != opts.Kind {
			continue
		}
		result = append(result, r)
	}

	start := opts.Offset
	if start > len(result) {
		start = len(result)
	}
	end := start + opts.Limit
	if opts.Limit == 0 || end > len(result) {
		end = len(result)
	}
	return result[start:end], nil
}

// Settings Store implementation
func (s *Store) SaveSettings(_ context.Context, set *store.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.open(); err != nil {
		return err
	}
	cp := *set
	s.settings = &cp
	return nil
}

func (s *Store) LoadSettings(_ context.Context) (*store.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if err := s.open(); err != nil {
		return nil, err
	}
	if s.settings == nil {
		return nil, nil
	}
	cp := *s.settings
	return &cp, nil
}

// Store management
func (s *Store) Migrate(_ context.Context) error {
	return nil // No migration needed for memory store
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.open()
}

func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

// open must be called with mu held.
func (s *Store) open() error {
	if s.closed {
		return recur.ErrStoreClosed
	}
	return nil
}
