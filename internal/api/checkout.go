package api

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/safar/go-shop-checkout/internal/checkout"
	"github.com/safar/go-shop-checkout/internal/idempotency"
	"github.com/safar/go-shop-checkout/internal/models"
	"go.uber.org/zap"
)

const (
	idempotencyHeader = "Idempotency-Key"
	releaseTimeout    = 2 * time.Second
)

type checkoutRequest struct {
	Shipping   models.ShippingInfo `json:"shipping"`
	CouponCode *string             `json:"couponCode"`
}

func (h *Handler) handleCheckout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		p := principal(r)

		body, ok := h.readBody(w, r, CodeCheckoutValidation)
		if !ok {
			return
		}
		if !json.Valid(body) {
			h.respondError(w, http.StatusBadRequest, CodeCheckoutValidation, "request body must be valid JSON", nil)
			return
		}

		fields, err := validateSchema(checkoutSchema, body)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		if len(fields) > 0 {
			h.respondError(w, http.StatusBadRequest, CodeCheckoutValidation, checkout.MsgInvalidShipping, fields)
			return
		}

		var req checkoutRequest
		if err := json.Unmarshal(body, &req); err != nil {
			h.respondError(w, http.StatusBadRequest, CodeCheckoutValidation, "invalid request body", nil)
			return
		}

		key := strings.TrimSpace(r.Header.Get(idempotencyHeader))
		claimed := false
		if h.idem != nil && key != "" {
			key = idempotency.Key("checkout", p.UserID, key)
			first, err := h.idem.Claim(ctx, key)
			switch {
			case err != nil:
				// The cart lock still prevents a double order; carry on.
				h.log.Warn("idempotency store unavailable", zap.Error(err))
			case !first:
				h.respondError(w, http.StatusConflict, CodeCheckoutDuplicate, "checkout already submitted with this idempotency key", nil)
				return
			default:
				claimed = true
			}
		}

		in := checkout.Request{UserID: p.UserID, Shipping: req.Shipping}
		if req.CouponCode != nil {
			in.CouponCode = *req.CouponCode
		}

		order, err := h.checkout.Checkout(ctx, in)
		if err != nil {
			if claimed {
				h.releaseKey(ctx, key)
			}
			h.respondErr(w, r, err)
			return
		}

		h.respondSuccess(w, http.StatusCreated, "Order placed successfully", order, nil)
	}
}

// releaseKey frees a claimed key after a failed checkout. The request
// context may already be canceled by then, so the release gets its own
// deadline.
func (h *Handler) releaseKey(ctx context.Context, key string) {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := h.idem.Release(relCtx, key); err != nil {
		h.log.Warn("release idempotency key", zap.String("key", key), zap.Error(err))
	}
}
