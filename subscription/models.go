// Package subscription defines the per-subscriber record and the ordered
// ledger container backing the in-memory store.
package subscription

import (
	"time"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/types"
)

// Subscription is the per-subscriber record. Expiry is lazy: a record whose
// ExpiresAt is in the past reads as Free tier on every read path, but the
// stored Tier is never zeroed.
type Subscription struct {
	types.Entity
	Address      types.Address        `json:"address"`
	ExpiresAt    int64                `json:"expires_at"` // unix seconds
	Denomination catalog.Denomination `json:"denomination"`
	AutoRenew    bool                 `json:"auto_renew"`
	Tier         catalog.Tier         `json:"tier"`
}

// Active reports whether the subscription is unexpired at the given time.
func (s *Subscription) Active(now time.Time) bool {
	return s != nil && s.ExpiresAt > now.Unix()
}

// EffectiveTier returns the tier visible to read paths: the stored tier
// while active, Free once expired.
func (s *Subscription) EffectiveTier(now time.Time) catalog.Tier {
	if s.Active(now) {
		return s.Tier
	}
	return catalog.TierFree
}

// RemainingSeconds returns the unexpired seconds left at now, clamped to
// zero.
func (s *Subscription) RemainingSeconds(now time.Time) int64 {
	if s == nil {
		return 0
	}
	rem := s.ExpiresAt - now.Unix()
	if rem < 0 {
		return 0
	}
	return rem
}

// Clone returns a deep copy. Stores hand out clones so callers can't mutate
// ledger state through a read.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
