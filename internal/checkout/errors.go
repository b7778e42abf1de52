package checkout

import (
	"errors"
	"fmt"
)

// Kind groups checkout failures the way callers need to react to them.
type Kind int

const (
	KindValidation Kind = iota + 1
	KindLookup
	KindState
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindLookup:
		return "lookup"
	case KindState:
		return "state"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

const (
	MsgInvalidShipping   = "invalid shipping information"
	MsgCartEmpty         = "cart is empty"
	MsgCartTotalNotPos   = "cart total must be greater than zero"
	MsgCouponInvalid     = "invalid or inactive coupon"
	MsgCouponNotUsable   = "coupon is no longer usable"
	MsgInsufficientStock = "insufficient stock"
	MsgProductMissing    = "product in cart no longer exists"
	MsgStockBusy         = "items in your cart are being purchased right now, please retry"
	MsgCheckoutFailed    = "checkout failed"
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}

// KindOf reports the kind of a checkout error, or 0 if err did not come
// from this package.
func KindOf(err error) Kind {
	var ce *Error
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return 0
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}
