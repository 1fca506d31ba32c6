// Package catalog defines the tier and pricing model for Recur.
package catalog

import (
	"fmt"

	"github.com/xraph/recur/types"
)

// Tier is an ordered subscription level. Free is the implicit state of "no
// active paid subscription" and is never purchasable. The ordering is load
// bearing: an upgrade is only valid to a strictly higher tier.
type Tier uint8

const (
	TierFree Tier = iota
	TierPlus
	TierPro
	TierEnterprise

	// Reserved slots for future tiers. Stored values above TierEnterprise
	// must round-trip even if this package predates them.
	tierReservedMax Tier = 15
)

// Valid reports whether t is within the representable tier range.
func (t Tier) Valid() bool { return t <= tierReservedMax }

// Purchasable reports whether t can be bought. Free never is.
func (t Tier) Purchasable() bool { return t != TierFree && t.Valid() }

// String returns the canonical tier name, or "tier(N)" for reserved slots.
func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPlus:
		return "plus"
	case TierPro:
		return "pro"
	case TierEnterprise:
		return "enterprise"
	default:
		return fmt.Sprintf("tier(%d)", uint8(t))
	}
}

// Tiers lists every purchasable named tier, in ascending order.
func Tiers() []Tier {
	return []Tier{TierPlus, TierPro, TierEnterprise}
}

// Denomination identifies the currency a price is quoted in: either the
// Native sentinel or a token identifier (conventionally the token's
// contract address string).
type Denomination string

// Native is the sentinel denomination for the native currency.
const Native Denomination = types.NativeDenom

// IsNative reports whether d is the native-currency sentinel.
func (d Denomination) IsNative() bool { return d == Native }

func (d Denomination) String() string { return string(d) }

// Price is one (denomination, tier) catalog entry. A zero Amount means the
// pair is not accepted for payment; the catalog never stores a price for
// the Free tier.
type Price struct {
	types.Entity
	Denomination Denomination `json:"denomination"`
	Tier         Tier         `json:"tier"`
	Amount       types.Amount `json:"amount"`
}

// Accepted reports whether this entry can actually be paid: a nonzero,
// positive price on a purchasable tier.
func (p Price) Accepted() bool {
	return p.Tier.Purchasable() && p.Amount.IsPositive()
}
