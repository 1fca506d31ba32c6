// Package payment executes value settlement for subscription operations:
// moving exactly the priced amount from payer to treasury in the chosen
// denomination, with exact-value enforcement on the native path and
// allowance pulls (optionally folded behind a signed permit) on the token
// path.
package payment

import (
	"context"
	"errors"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/types"
)

// Sentinel errors surfaced by settlement. The root recur package re-exports
// these so callers can match on a single error surface.
var (
	ErrWrongValueSent        = errors.New("recur: wrong value sent")
	ErrTransferFailed        = errors.New("recur: treasury transfer failed")
	ErrRefundFailed          = errors.New("recur: refund transfer failed")
	ErrPermitExpired         = errors.New("recur: permit deadline passed")
	ErrPermitInvalid         = errors.New("recur: permit rejected")
	ErrInsufficientAllowance = errors.New("recur: insufficient allowance")
	ErrInsufficientBalance   = errors.New("recur: insufficient balance")
)

// NativeTransfer moves native currency. Used for treasury forwarding and
// upgrade refunds. A returned error means no value moved.
type NativeTransfer interface {
	Transfer(ctx context.Context, to types.Address, amount types.Amount) error
}

// TokenTransfer is the token-side collaborator: an allowance-based
// transfer-from primitive plus the read methods the keeper pre-checks with,
// and an optional signed-authorization primitive that sets allowance in one
// call. Signature validation is the token's own concern (domain-separated);
// this package only enforces the deadline locally.
type TokenTransfer interface {
	TransferFrom(ctx context.Context, token catalog.Denomination, from, to types.Address, amount types.Amount) error
	Allowance(ctx context.Context, token catalog.Denomination, owner types.Address) (types.Amount, error)
	BalanceOf(ctx context.Context, token catalog.Denomination, owner types.Address) (types.Amount, error)
	Permit(ctx context.Context, token catalog.Denomination, auth Permit) error
}

// Permit is a payer-signed authorization message that sets the allowance in
// the same operation as the payment (the gasless-approval protocol).
type Permit struct {
	Owner     types.Address `json:"owner"`
	Spender   types.Address `json:"spender"`
	Value     types.Amount  `json:"value"`
	Deadline  int64         `json:"deadline"` // unix seconds
	Nonce     uint64        `json:"nonce"`    // replay protection, validated by the token
	Signature []byte        `json:"signature"`
}

// NativeTransferFunc adapts a function to NativeTransfer.
type NativeTransferFunc func(ctx context.Context, to types.Address, amount types.Amount) error

// Transfer implements NativeTransfer.
func (f NativeTransferFunc) Transfer(ctx context.Context, to types.Address, amount types.Amount) error {
	return f(ctx, to, amount)
}
