package coupon

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/store"
	"go.uber.org/zap"
)

var ErrInvalidCoupon = errors.New("invalid coupon")

// Validation is the read-only view of a coupon for its owner.
type Validation struct {
	Code            string              `json:"code"`
	DiscountPercent int                 `json:"discountPercent"`
	ExpiresAt       time.Time           `json:"expiresAt"`
	MaxUses         int                 `json:"maxUses"`
	UsedCount       int                 `json:"usedCount"`
	IssuedReason    models.IssuedReason `json:"issuedReason"`
	IsUsable        bool                `json:"isUsable"`
}

type CreateRequest struct {
	Code            string              `json:"code"`
	DiscountPercent int                 `json:"discountPercent"`
	MaxUses         int                 `json:"maxUses"`
	ExpiresAt       time.Time           `json:"expiresAt"`
	IssuedTo        *int64              `json:"issuedTo,omitempty"`
	IssuedReason    models.IssuedReason `json:"issuedReason,omitempty"`
}

type Service struct {
	db  *sql.DB
	log *zap.Logger
	now func() time.Time
}

func NewService(db *sql.DB, log *zap.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{db: db, log: log, now: now}
}

// Validate reports whether the caller could redeem code right now. It never
// changes the coupon.
func (s *Service) Validate(ctx context.Context, userID int64, code string) (*Validation, error) {
	c, err := store.GetCouponForUser(ctx, s.db, code, userID)
	if err != nil {
		return nil, err
	}

	return &Validation{
		Code:            c.Code,
		DiscountPercent: c.DiscountPercent,
		ExpiresAt:       c.ExpiresAt,
		MaxUses:         c.MaxUses,
		UsedCount:       c.UsedCount,
		IssuedReason:    c.IssuedReason,
		IsUsable:        c.IsUsable(s.now()),
	}, nil
}

func (s *Service) ListMine(ctx context.Context, userID int64) ([]models.Coupon, error) {
	return store.ListUsableCoupons(ctx, s.db, userID, s.now())
}

func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.Coupon, error) {
	if err := s.validateCreate(&req); err != nil {
		return nil, err
	}

	c, err := store.CreateCoupon(ctx, s.db, store.CreateCouponParams{
		Code:            req.Code,
		DiscountPercent: req.DiscountPercent,
		MaxUses:         req.MaxUses,
		ExpiresAt:       req.ExpiresAt,
		IssuedTo:        req.IssuedTo,
		IssuedReason:    req.IssuedReason,
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("coupon created",
		zap.String("code", c.Code),
		zap.Int("discount_percent", c.DiscountPercent),
		zap.String("reason", string(c.IssuedReason)))
	return c, nil
}

func (s *Service) validateCreate(req *CreateRequest) error {
	req.Code = models.NormalizeCouponCode(req.Code)
	if req.IssuedReason == "" {
		req.IssuedReason = models.IssuedByAdmin
	}

	switch {
	case req.Code == "":
		return fmt.Errorf("%w: code is required", ErrInvalidCoupon)
	case len(req.Code) > 64:
		return fmt.Errorf("%w: code must be at most 64 characters", ErrInvalidCoupon)
	case req.DiscountPercent < 1 || req.DiscountPercent > 100:
		return fmt.Errorf("%w: discountPercent must be between 1 and 100", ErrInvalidCoupon)
	case req.MaxUses < 1:
		return fmt.Errorf("%w: maxUses must be at least 1", ErrInvalidCoupon)
	case !req.ExpiresAt.After(s.now()):
		return fmt.Errorf("%w: expiresAt must be in the future", ErrInvalidCoupon)
	case !req.IssuedReason.Valid():
		return fmt.Errorf("%w: issuedReason must be referral, admin or promotion", ErrInvalidCoupon)
	}
	return nil
}
