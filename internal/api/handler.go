package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/safar/go-shop-checkout/internal/auth"
	"github.com/safar/go-shop-checkout/internal/cart"
	"github.com/safar/go-shop-checkout/internal/checkout"
	"github.com/safar/go-shop-checkout/internal/coupon"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/referral"
	"go.uber.org/zap"
)

type CheckoutService interface {
	Checkout(ctx context.Context, req checkout.Request) (*models.Order, error)
}

type CouponService interface {
	Validate(ctx context.Context, userID int64, code string) (*coupon.Validation, error)
	ListMine(ctx context.Context, userID int64) ([]models.Coupon, error)
	Create(ctx context.Context, req coupon.CreateRequest) (*models.Coupon, error)
}

type CartService interface {
	Get(ctx context.Context, userID int64) (*models.Cart, error)
	ReplaceItems(ctx context.Context, userID int64, lines []cart.Line) (*models.Cart, error)
	Merge(ctx context.Context, userID int64, guest []cart.Line) (*models.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error)
	Clear(ctx context.Context, userID int64) (*models.Cart, error)
}

type Registrar interface {
	Register(ctx context.Context, req referral.RegisterRequest) (*referral.Registration, error)
}

type TokenParser interface {
	Parse(raw string) (auth.Principal, error)
}

type TokenService interface {
	TokenParser
	Issue(userID int64, role models.Role) (string, error)
}

// IdempotencyStore is optional; a nil store disables Idempotency-Key
// handling.
type IdempotencyStore interface {
	Claim(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type Deps struct {
	DB          *sql.DB
	Log         *zap.Logger
	Checkout    CheckoutService
	Coupons     CouponService
	Carts       CartService
	Accounts    Registrar
	Tokens      TokenService
	Idempotency IdempotencyStore
	RateRPS     float64
	RateBurst   int
}

type Handler struct {
	db       *sql.DB
	log      *zap.Logger
	checkout CheckoutService
	coupons  CouponService
	carts    CartService
	accounts Registrar
	tokens   TokenService
	idem     IdempotencyStore
}

func newHandler(d Deps) *Handler {
	return &Handler{
		db:       d.DB,
		log:      d.Log,
		checkout: d.Checkout,
		coupons:  d.Coupons,
		carts:    d.Carts,
		accounts: d.Accounts,
		tokens:   d.Tokens,
		idem:     d.Idempotency,
	}
}

func principal(r *http.Request) auth.Principal {
	p, _ := auth.FromContext(r.Context())
	return p
}

// decodeJSON reads the body into dst and answers the request itself on
// failure.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large", nil)
			return false
		}
		h.respondError(w, http.StatusBadRequest, CodeValidation, "invalid request body", nil)
		return false
	}
	return true
}

func (h *Handler) readBody(w http.ResponseWriter, r *http.Request, code string) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.respondError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large", nil)
			return nil, false
		}
		h.respondError(w, http.StatusBadRequest, code, "cannot read body", nil)
		return nil, false
	}
	return body, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id < 1 {
		h.respondError(w, http.StatusBadRequest, CodeValidation, "invalid "+name, nil)
		return 0, false
	}
	return id, true
}

func pageParams(r *http.Request) (int, int) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("page_size"))
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}
	return page, pageSize
}
