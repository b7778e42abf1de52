package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/safar/go-shop-checkout/internal/cart"
	"github.com/safar/go-shop-checkout/internal/checkout"
	"github.com/safar/go-shop-checkout/internal/coupon"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/referral"
)

const (
	CodeCheckoutValidation = "CHECKOUT_VALIDATION_ERROR"
	CodeCheckout           = "CHECKOUT_ERROR"
	CodeCheckoutDuplicate  = "CHECKOUT_DUPLICATE"
	CodeValidation         = "VALIDATION_ERROR"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeForbidden          = "FORBIDDEN"
	CodeRateLimited        = "RATE_LIMITED"
	CodePayloadTooLarge    = "PAYLOAD_TOO_LARGE"
	CodeNotFound           = "NOT_FOUND"
	CodeUserNotFound       = "USER_NOT_FOUND"
	CodeEmailTaken         = "EMAIL_TAKEN"
	CodeProductNotFound    = "PRODUCT_NOT_FOUND"
	CodeCartItemNotFound   = "CART_ITEM_NOT_FOUND"
	CodeCartValidation     = "CART_VALIDATION_ERROR"
	CodeCouponNotFound     = "COUPON_NOT_FOUND"
	CodeCouponValidation   = "COUPON_VALIDATION_ERROR"
	CodeCouponCodeTaken    = "COUPON_CODE_TAKEN"
	CodeOrderNotFound      = "ORDER_NOT_FOUND"
	CodeOrderStatus        = "ORDER_STATUS_CONFLICT"
	CodeVersionConflict    = "VERSION_CONFLICT"
	CodeInternal           = "INTERNAL_ERROR"
)

// classify turns a service error into status, envelope code and a message
// that is safe to show the caller.
func classify(err error) (int, string, string) {
	var ce *checkout.Error
	if errors.As(err, &ce) {
		switch ce.Kind {
		case checkout.KindValidation:
			return http.StatusBadRequest, CodeCheckoutValidation, ce.Message
		case checkout.KindLookup, checkout.KindState:
			return http.StatusBadRequest, CodeCheckout, ce.Message
		default:
			return http.StatusInternalServerError, CodeCheckout, checkout.MsgCheckoutFailed
		}
	}

	switch {
	case errors.Is(err, cart.ErrInvalidQuantity):
		return http.StatusBadRequest, CodeCartValidation, detail(err)
	case errors.Is(err, coupon.ErrInvalidCoupon):
		return http.StatusBadRequest, CodeCouponValidation, detail(err)
	case errors.Is(err, referral.ErrInvalidRegistration):
		return http.StatusBadRequest, CodeValidation, detail(err)
	case errors.Is(err, database.ErrReferralCodeUnknown):
		return http.StatusBadRequest, CodeValidation, err.Error()

	case errors.Is(err, database.ErrUserNotFound):
		return http.StatusNotFound, CodeUserNotFound, "user not found"
	case errors.Is(err, database.ErrProductNotFound):
		return http.StatusNotFound, CodeProductNotFound, "product not found"
	case errors.Is(err, database.ErrCartItemNotFound):
		return http.StatusNotFound, CodeCartItemNotFound, "cart item not found"
	case errors.Is(err, database.ErrCouponNotFound):
		return http.StatusNotFound, CodeCouponNotFound, "coupon not found"
	case errors.Is(err, database.ErrOrderNotFound):
		return http.StatusNotFound, CodeOrderNotFound, "order not found"

	case errors.Is(err, database.ErrEmailTaken):
		return http.StatusConflict, CodeEmailTaken, "email already registered"
	case errors.Is(err, database.ErrCouponCodeTaken):
		return http.StatusConflict, CodeCouponCodeTaken, "coupon code already exists"
	case errors.Is(err, database.ErrInvalidStatusChange):
		return http.StatusConflict, CodeOrderStatus, err.Error()
	case errors.Is(err, database.ErrOptimisticLockFailed):
		return http.StatusConflict, CodeVersionConflict, "resource was modified, reload and retry"
	}

	return http.StatusInternalServerError, CodeInternal, "internal server error"
}

// detail drops the sentinel prefix from "invalid x: reason".
func detail(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
