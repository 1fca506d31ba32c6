package payment

import (
	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/id"
	"github.com/xraph/recur/types"
)

// Kind classifies what a settlement paid for.
type Kind string

const (
	KindSubscribe Kind = "subscribe"
	KindRenew     Kind = "renew"
	KindUpgrade   Kind = "upgrade"
)

// Receipt is the persisted record of one successful settlement. The
// original system only emitted events; keeping a queryable trail is the
// service-side equivalent.
type Receipt struct {
	types.Entity
	ID           id.ReceiptID         `json:"id"`
	Payer        types.Address        `json:"payer"`
	Treasury     types.Address        `json:"treasury"`
	Denomination catalog.Denomination `json:"denomination"`
	Tier         catalog.Tier         `json:"tier"`
	Kind         Kind                 `json:"kind"`
	Amount       types.Amount         `json:"amount"`
	Refunded     types.Amount         `json:"refunded"`
	BatchRunID   id.BatchRunID        `json:"batch_run_id,omitempty"` // set for keeper-initiated renewals
}

// ListOpts filters receipt listings.
type ListOpts struct {
	Kind   Kind
	Limit  int
	Offset int
}
