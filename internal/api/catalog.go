package api

import (
	"net/http"
	"strings"

	"github.com/safar/go-shop-checkout/internal/referral"
	"github.com/safar/go-shop-checkout/internal/store"
	"github.com/shopspring/decimal"
)

func (h *Handler) handleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req referral.RegisterRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}

		reg, err := h.accounts.Register(r.Context(), req)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}

		token, err := h.tokens.Issue(reg.User.ID, reg.User.Role)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}

		h.respondSuccess(w, http.StatusCreated, "User registered", map[string]any{
			"user":  reg.User,
			"token": token,
		}, nil)
	}
}

func (h *Handler) handleMe() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := store.GetUser(r.Context(), h.db, principal(r).UserID)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "User retrieved", user, nil)
	}
}

func (h *Handler) handleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize := pageParams(r)

		result, err := store.ListUsers(r.Context(), h.db, page, pageSize)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Users retrieved", result.Items, pageMeta(result))
	}
}

func (h *Handler) handleListProducts() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		page, pageSize := pageParams(r)

		result, err := store.ListProducts(r.Context(), h.db, page, pageSize)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Products retrieved", result.Items, pageMeta(result))
	}
}

func (h *Handler) handleGetProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r, "id")
		if !ok {
			return
		}

		product, err := store.GetProduct(r.Context(), h.db, id)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Product retrieved", product, nil)
	}
}

type createProductRequest struct {
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
}

func (req createProductRequest) validate() string {
	switch {
	case strings.TrimSpace(req.SKU) == "":
		return "sku is required"
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	case !req.Price.IsPositive():
		return "price must be greater than zero"
	case req.Stock < 0:
		return "stock must not be negative"
	}
	return ""
}

func (h *Handler) handleCreateProduct() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createProductRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}
		if msg := req.validate(); msg != "" {
			h.respondError(w, http.StatusBadRequest, CodeValidation, msg, nil)
			return
		}

		product, err := store.CreateProduct(r.Context(), h.db, store.CreateProductParams{
			SKU:         strings.TrimSpace(req.SKU),
			Name:        strings.TrimSpace(req.Name),
			Description: req.Description,
			Price:       req.Price.Round(2),
			Stock:       req.Stock,
		})
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusCreated, "Product created", product, nil)
	}
}

type updateStockRequest struct {
	Stock   int `json:"stock"`
	Version int `json:"version"`
}

func (h *Handler) handleUpdateStock() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.pathID(w, r, "id")
		if !ok {
			return
		}

		var req updateStockRequest
		if !h.decodeJSON(w, r, &req) {
			return
		}
		if req.Stock < 0 {
			h.respondError(w, http.StatusBadRequest, CodeValidation, "stock must not be negative", nil)
			return
		}

		product, err := store.UpdateStockOptimistic(r.Context(), h.db, id, req.Stock, req.Version)
		if err != nil {
			h.respondErr(w, r, err)
			return
		}
		h.respondSuccess(w, http.StatusOK, "Stock updated", product, nil)
	}
}

func pageMeta(p *store.OffsetPage) map[string]any {
	return map[string]any{
		"total":      p.Total,
		"page":       p.Page,
		"pageSize":   p.PageSize,
		"totalPages": p.TotalPages,
	}
}

