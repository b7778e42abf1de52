package api

import (
	"net/http"
	"strconv"

	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/store"
)

func (h *Handler) handleListOrders() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 || limit > 100 {
			limit = 20
		}

		cursor := r.URL.Query().Get("cursor")
		if _, err := store.DecodeCursor(cursor); err != nil {
			h.respondError(w, http.StatusBadRequest, CodeValidation, "invalid cursor", nil)
			return
		}

		result, err := store.ListOrdersCursor(r.Context(), h.db, principal(r).UserID, cursor, limit)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}

		h.respondSuccess(w, http.StatusOK, "Orders retrieved", result.Items, map[string]any{
			"nextCursor": result.NextCursor,
			"hasMore":    result.HasMore,
		})
	}
}

func (h *Handler) handleGetOrder() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r, "id")
		if !ok {
			return
		}

		order, err := store.GetOrder(r.Context(), h.db, id)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}

		p := principal(r)
		if order.UserID != p.UserID && !p.HasRole(models.RoleAdmin) {
			h.respondErr(w, r, database.ErrOrderNotFound)
			return
		}

		h.respondSuccess(w, http.StatusOK, "Order retrieved", order, nil)
	}
}

type updateOrderStatusRequest struct {
	Status  models.OrderStatus `json:"status"`
	Version int                `json:"version"`
}

func (h *Handler) handleUpdateOrderStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r, "id")
		if !ok {
			return
		}

		var req updateOrderStatusRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}
		if !req.Status.Valid() {
			h.respondError(w, http.StatusBadRequest, CodeValidation, "unknown order status", nil)
			return
		}

		order, err := store.UpdateOrderStatus(r.Context(), h.db, id, req.Status, req.Version)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Order status updated", order, nil)
	}
}
