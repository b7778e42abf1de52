package api

import (
	"net/http"

	"github.com/safar/go-shop-checkout/internal/cart"
)

type cartItemsRequest struct {
	Items []cart.Line `json:"items"`
}

func (h *Handler) handleGetCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.carts.Get(r.Context(), principal(r).UserID)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Cart retrieved", c, nil)
	}
}

func (h *Handler) handleReplaceCartItems() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartItemsRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		c, err := h.carts.ReplaceItems(r.Context(), principal(r).UserID, req.Items)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Cart updated", c, nil)
	}
}

func (h *Handler) handleMergeCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req cartItemsRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		c, err := h.carts.Merge(r.Context(), principal(r).UserID, req.Items)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Cart merged", c, nil)
	}
}

func (h *Handler) handleRemoveCartItem() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID, ok := h.pathID(w, r, "itemId")
		if !ok {
			return
		}

		c, err := h.carts.RemoveItem(r.Context(), principal(r).UserID, itemID)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Item removed", c, nil)
	}
}

func (h *Handler) handleClearCart() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := h.carts.Clear(r.Context(), principal(r).UserID)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Cart cleared", c, nil)
	}
}
