package recur

import (
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/guard"
	"github.com/xraph/recur/types"
)

// Re-export common types for convenience so users don't have to import
// the leaf packages for everyday use.

// Amount is re-exported from types package.
type Amount = types.Amount

// Address is re-exported from types package.
type Address = types.Address

// Entity is re-exported from types package.
type Entity = types.Entity

// Tier and Denomination are re-exported from catalog package.
type (
	Tier         = catalog.Tier
	Denomination = catalog.Denomination
)

// Re-export Amount and Address constructors
var (
	NewAmount       = types.NewAmount
	Units           = types.Units
	Wei             = types.Wei
	ZeroAmount      = types.ZeroAmount
	ParseAmount     = types.ParseAmount
	MustParseAmount = types.MustParseAmount
	ParseAddress    = types.ParseAddress
	BytesToAddress  = types.BytesToAddress
)

// Re-export Entity constructor
var NewEntity = types.NewEntity

// Re-export catalog constants
const (
	TierFree       = catalog.TierFree
	TierPlus       = catalog.TierPlus
	TierPro        = catalog.TierPro
	TierEnterprise = catalog.TierEnterprise

	Native = catalog.Native
)

// Re-export guard roles
const (
	RoleAdmin   = guard.RoleAdmin
	RoleService = guard.RoleService
)
