package subscription

import "github.com/xraph/recur/types"

// Ledger is an insertion-ordered associative container of subscription
// records: an ordered key slice paired with a record map, giving O(1)
// membership tests and full-key iteration in first-seen order. It is the
// enumeration surface for batch renewal.
//
// Ledger is not safe for concurrent use; the owning store provides locking.
type Ledger struct {
	order   []types.Address
	index   map[types.Address]int
	records map[types.Address]*Subscription
}

// NewLedger creates an empty Ledger.
func NewLedger() *Ledger {
	return &Ledger{
		index:   make(map[types.Address]int),
		records: make(map[types.Address]*Subscription),
	}
}

// Put inserts or replaces the record for s.Address. First insertion appends
// the address to the enumeration order; replacement keeps the original
// position.
func (l *Ledger) Put(s *Subscription) {
	if _, ok := l.index[s.Address]; !ok {
		l.index[s.Address] = len(l.order)
		l.order = append(l.order, s.Address)
	}
	l.records[s.Address] = s
}

// Get returns the record for addr, or nil if absent.
func (l *Ledger) Get(addr types.Address) *Subscription {
	return l.records[addr]
}

// Has reports whether addr has ever transacted (is enumerated).
func (l *Ledger) Has(addr types.Address) bool {
	_, ok := l.index[addr]
	return ok
}

// Delete removes addr from both the record map and the enumeration order.
// Reports whether the address was present. Deletion compacts the order
// slice; later addresses shift down one position.
func (l *Ledger) Delete(addr types.Address) bool {
	pos, ok := l.index[addr]
	if !ok {
		return false
	}
	l.order = append(l.order[:pos], l.order[pos+1:]...)
	for i := pos; i < len(l.order); i++ {
		l.index[l.order[i]] = i
	}
	delete(l.index, addr)
	delete(l.records, addr)
	return true
}

// Len returns the number of enumerated subscribers.
func (l *Ledger) Len() int { return len(l.order) }

// Keys returns the enumerated addresses in insertion order. The returned
// slice is a copy.
func (l *Ledger) Keys() []types.Address {
	out := make([]types.Address, len(l.order))
	copy(out, l.order)
	return out
}
