package recur

import (
	"errors"
	"fmt"

	"github.com/xraph/recur/payment"
)

// Sentinel errors for common failure scenarios. Every abort surfaces a
// specific, named condition so calling software can tell "not enough funds
// approved" from "wrong tier" from "paused".
var (
	// General errors
	ErrNotFound      = errors.New("recur: not found")
	ErrInvalidInput  = errors.New("recur: invalid input")
	ErrUnauthorized  = errors.New("recur: caller lacks required role")
	ErrPaused        = errors.New("recur: paused")
	ErrReentrantCall = errors.New("recur: re-entrant call")

	// Configuration errors
	ErrZeroTreasury       = errors.New("recur: treasury is the zero address")
	ErrInvalidPeriod      = errors.New("recur: invalid period duration")
	ErrInvalidRenewWindow = errors.New("recur: renew window must be shorter than the period")

	// Catalog errors
	ErrTokenNotAccepted       = errors.New("recur: token not accepted")
	ErrFreeTierNotPurchasable = errors.New("recur: free tier is not purchasable")
	ErrInvalidTier            = errors.New("recur: tier out of range")
	ErrLengthMismatch         = errors.New("recur: array length mismatch")

	// Payment errors (re-exported from the payment package so callers match
	// on a single error surface)
	ErrWrongValueSent        = payment.ErrWrongValueSent
	ErrTransferFailed        = payment.ErrTransferFailed
	ErrRefundFailed          = payment.ErrRefundFailed
	ErrPermitExpired         = payment.ErrPermitExpired
	ErrPermitInvalid         = payment.ErrPermitInvalid
	ErrInsufficientAllowance = payment.ErrInsufficientAllowance
	ErrInsufficientBalance   = payment.ErrInsufficientBalance

	// State errors
	ErrNoSubscription = errors.New("recur: no subscription for address")
	ErrNotAnUpgrade   = errors.New("recur: target tier is not strictly higher")

	// Eligibility errors
	ErrAutoRenewDisabled   = errors.New("recur: auto-renew disabled")
	ErrOutsideRenewWindow  = errors.New("recur: outside renew window")
	ErrNativeDenomination  = errors.New("recur: native payments cannot be pulled")
	ErrNoRenewalsProcessed = errors.New("recur: batch renewed zero subscribers")

	// Store errors
	ErrStoreClosed = errors.New("recur: store is closed")
)

// ValidationError represents an invalid admin input with details.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("recur: validation failed for %s: %s", e.Field, e.Message)
}

// IsNotFound returns true if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrNoSubscription)
}

// IsPaymentError returns true if the error came from settlement rather than
// validation or state.
func IsPaymentError(err error) bool {
	return errors.Is(err, ErrWrongValueSent) ||
		errors.Is(err, ErrTransferFailed) ||
		errors.Is(err, ErrRefundFailed) ||
		errors.Is(err, ErrPermitExpired) ||
		errors.Is(err, ErrPermitInvalid) ||
		errors.Is(err, ErrInsufficientAllowance) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsEligibilityError returns true for the conditions the keeper recovers
// from locally instead of propagating.
func IsEligibilityError(err error) bool {
	return errors.Is(err, ErrAutoRenewDisabled) ||
		errors.Is(err, ErrOutsideRenewWindow) ||
		errors.Is(err, ErrNativeDenomination)
}
