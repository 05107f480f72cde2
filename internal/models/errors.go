package models

import "github.com/go-faster/errors"

// Kind groups errors by how the API surfaces them.
type Kind string

const (
	KindNotFound     Kind = "not_found"
	KindValidation   Kind = "validation"
	KindConflict     Kind = "conflict"
	KindUnauthorized Kind = "unauthorized"
	KindPersistence  Kind = "persistence"
)

// Error is a classified business error. Code is stable and machine readable,
// Message is shown to the user.
type Error struct {
	Kind    Kind
	Code    string
	Message string
}

func (e *Error) Error() string { return e.Message }

func newError(kind Kind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

var (
	ErrCouponNotFound    = newError(KindNotFound, "coupon_not_found", "coupon not found")
	ErrCouponInactive    = newError(KindValidation, "coupon_inactive", "coupon is not active")
	ErrUsageLimitReached = newError(KindValidation, "usage_limit_reached", "coupon usage limit reached")
	ErrCouponExpired     = newError(KindValidation, "coupon_expired", "coupon has expired")
	ErrMinPurchaseNotMet = newError(KindValidation, "min_purchase_not_met", "order total is below the coupon minimum purchase")
	ErrDuplicateCoupon   = newError(KindConflict, "duplicate_coupon", "coupon code already exists")

	ErrOrderNotFound     = newError(KindNotFound, "order_not_found", "order not found")
	ErrInvalidStatus     = newError(KindValidation, "invalid_status", "unknown order status")
	ErrInvalidTransition = newError(KindValidation, "invalid_transition", "order status transition not allowed")

	ErrInvalidInput = newError(KindValidation, "invalid_input", "invalid input")
	ErrUnauthorized = newError(KindUnauthorized, "unauthorized", "missing or invalid admin token")
)

// ErrRedeemConflict is returned by stores when the conditional usage increment
// matched no row. It never leaves the service layer.
var ErrRedeemConflict = errors.New("coupon changed before redemption")

// InvalidInput returns an ErrInvalidInput carrying a specific message.
// errors.Is(err, ErrInvalidInput) still holds.
func InvalidInput(msg string) error {
	return &inputError{msg: msg}
}

type inputError struct{ msg string }

func (e *inputError) Error() string        { return e.msg }
func (e *inputError) Is(target error) bool { return target == ErrInvalidInput }

// KindOf classifies err. Unclassified errors are persistence failures.
func KindOf(err error) Kind {
	if errors.Is(err, ErrInvalidInput) {
		return KindValidation
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindPersistence
}

// CodeOf returns the machine readable code for err.
func CodeOf(err error) string {
	if errors.Is(err, ErrInvalidInput) {
		return ErrInvalidInput.Code
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "internal_error"
}

// MessageOf returns the user facing message for err without wrap prefixes.
func MessageOf(err error) string {
	var ie *inputError
	if errors.As(err, &ie) {
		return ie.msg
	}
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
