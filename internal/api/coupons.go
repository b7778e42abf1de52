package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-shop-checkout/internal/coupon"
)

func (h *Handler) handleMyCoupons() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		coupons, err := h.coupons.ListMine(r.Context(), principal(r).UserID)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}

		h.respondSuccess(w, http.StatusOK, "Coupons retrieved", coupons, map[string]int{"count": len(coupons)})
	}
}

func (h *Handler) handleValidateCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := h.coupons.Validate(r.Context(), principal(r).UserID, chi.URLParam(r, "code"))
		if err != nil {
			h.respondErr(w, r, err)
			return
		}

		msg := "Coupon is valid"
		if !v.IsUsable {
			msg = "Coupon is no longer usable"
		}
		h.respondSuccess(w, http.StatusOK, msg, v, nil)
	}
}

func (h *Handler) handleCreateCoupon() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req coupon.CreateRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		c, err := h.coupons.Create(r.Context(), req)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}

		h.respondSuccess(w, http.StatusCreated, "Coupon created", c, nil)
	}
}
