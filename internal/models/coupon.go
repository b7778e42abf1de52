package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type IssuedReason string

const (
	IssuedForReferral  IssuedReason = "referral"
	IssuedByAdmin      IssuedReason = "admin"
	IssuedForPromotion IssuedReason = "promotion"
)

func (r IssuedReason) Valid() bool {
	switch r {
	case IssuedForReferral, IssuedByAdmin, IssuedForPromotion:
		return true
	}
	return false
}

type Coupon struct {
	ID              int64        `json:"id"`
	Code            string       `json:"code"`
	DiscountPercent int          `json:"discountPercent"`
	MaxUses         int          `json:"maxUses"`
	UsedCount       int          `json:"usedCount"`
	ExpiresAt       time.Time    `json:"expiresAt"`
	IsActive        bool         `json:"isActive"`
	IssuedTo        *int64       `json:"issuedTo,omitempty"`
	IssuedReason    IssuedReason `json:"issuedReason"`
	CreatedAt       time.Time    `json:"createdAt"`
	UpdatedAt       time.Time    `json:"updatedAt"`
}

func NormalizeCouponCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsUsable is the redemption predicate: active, under its usage limit and
// not yet expired at now.
func (c *Coupon) IsUsable(now time.Time) bool {
	return c.IsActive && c.UsedCount < c.MaxUses && c.ExpiresAt.After(now)
}

func (c *Coupon) IsBoundTo(userID int64) bool {
	return c.IssuedTo != nil && *c.IssuedTo == userID
}

// Discount is subtotal * percent / 100 rounded half away from zero to cents,
// never negative. Money columns are NUMERIC(12,2), so the exact product only
// holds to two decimal places: 15% of 0.05 is 0.01, not 0.0075.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	d := subtotal.Mul(decimal.NewFromInt(int64(c.DiscountPercent))).Div(decimal.NewFromInt(100)).Round(2)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}
