package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/xraph/recur/catalog"
	"github.com/xraph/recur/types"
)

// Settler executes value transfers against the injected collaborators.
// Funds are never held: native value is forwarded to the treasury in the
// same operation, and token pulls go straight from payer to treasury.
type Settler struct {
	native NativeTransfer
	token  TokenTransfer
}

// NewSettler creates a Settler. Either collaborator may be nil if the
// embedding never uses that payment path; the corresponding settlements
// then fail with ErrTransferFailed.
func NewSettler(native NativeTransfer, token TokenTransfer) *Settler {
	return &Settler{native: native, token: token}
}

// SettleNative settles an exact-price native payment: value must equal
// price, and the whole received value is forwarded to treasury. A failed
// forward aborts the operation so funds never sit in custody.
func (s *Settler) SettleNative(ctx context.Context, treasury types.Address, value, price types.Amount) error {
	if !value.Equal(price) {
		return fmt.Errorf("%w: sent %s, price %s", ErrWrongValueSent, value, price)
	}
	return s.forward(ctx, treasury, price)
}

// SettleNativeWithRefund settles a native payment of at least cost,
// refunding the excess to payer. Underpayment is ErrWrongValueSent; a
// failed refund is fatal to the whole operation.
func (s *Settler) SettleNativeWithRefund(ctx context.Context, payer, treasury types.Address, value, cost types.Amount) (refunded types.Amount, err error) {
	refunded = types.ZeroAmount(value.Denom())
	if value.LessThan(cost) {
		return refunded, fmt.Errorf("%w: sent %s, cost %s", ErrWrongValueSent, value, cost)
	}
	if err := s.forward(ctx, treasury, cost); err != nil {
		return refunded, err
	}
	excess := value.Subtract(cost)
	if excess.IsPositive() {
		if err := s.native.Transfer(ctx, payer, excess); err != nil {
			return refunded, fmt.Errorf("%w: %v", ErrRefundFailed, err)
		}
		refunded = excess
	}
	return refunded, nil
}

// SettleToken pulls price units of token from payer's pre-approved
// allowance directly into treasury. When auth is non-nil the permit is
// applied first; an expired or rejected permit aborts before any pull.
func (s *Settler) SettleToken(ctx context.Context, token catalog.Denomination, payer, treasury types.Address, price types.Amount, auth *Permit, now time.Time) error {
	if s.token == nil {
		return fmt.Errorf("%w: no token transfer collaborator", ErrTransferFailed)
	}
	if auth != nil {
		if auth.Deadline < now.Unix() {
			return fmt.Errorf("%w: deadline %d, now %d", ErrPermitExpired, auth.Deadline, now.Unix())
		}
		if err := s.token.Permit(ctx, token, *auth); err != nil {
			return fmt.Errorf("%w: %v", ErrPermitInvalid, err)
		}
	}
	if err := s.token.TransferFrom(ctx, token, payer, treasury, price); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}

// Precheck verifies, without moving value, that payer has both allowance
// and balance covering price. The keeper runs this before attempting a pull
// so predictable failures become notifications instead of failed transfers.
func (s *Settler) Precheck(ctx context.Context, token catalog.Denomination, payer types.Address, price types.Amount) error {
	if s.token == nil {
		return fmt.Errorf("%w: no token transfer collaborator", ErrTransferFailed)
	}
	allowance, err := s.token.Allowance(ctx, token, payer)
	if err != nil {
		return fmt.Errorf("recur: allowance query: %w", err)
	}
	if allowance.LessThan(price) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientAllowance, allowance, price)
	}
	balance, err := s.token.BalanceOf(ctx, token, payer)
	if err != nil {
		return fmt.Errorf("recur: balance query: %w", err)
	}
	if balance.LessThan(price) {
		return fmt.Errorf("%w: have %s, need %s", ErrInsufficientBalance, balance, price)
	}
	return nil
}

func (s *Settler) forward(ctx context.Context, treasury types.Address, amount types.Amount) error {
	if s.native == nil {
		return fmt.Errorf("%w: no native transfer collaborator", ErrTransferFailed)
	}
	if err := s.native.Transfer(ctx, treasury, amount); err != nil {
		return fmt.Errorf("%w: %v", ErrTransferFailed, err)
	}
	return nil
}
