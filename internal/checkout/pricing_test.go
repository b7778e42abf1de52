package checkout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/safar/go-shop-checkout/internal/config"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestShippingFee(t *testing.T) {
	policy := DefaultShippingPolicy()

	assert.True(t, policy.Fee(models.ShippingPickup).IsZero())
	assert.True(t, policy.Fee(models.ShippingStandard).IsZero())
	assert.True(t, policy.Fee(models.ShippingExpress).Equal(dec("10")))
}

func TestShippingPolicyFromConfig(t *testing.T) {
	policy := NewShippingPolicy(config.ShippingConfig{StandardFee: dec("4.50"), ExpressFee: dec("12")})

	assert.True(t, policy.Fee(models.ShippingStandard).Equal(dec("4.50")))
	assert.True(t, policy.Fee(models.ShippingExpress).Equal(dec("12")))
	assert.True(t, policy.Fee(models.ShippingPickup).IsZero())
}

func TestPrice(t *testing.T) {
	tests := []struct {
		name     string
		subtotal string
		percent  int
		method   models.ShippingMethod
		discount string
		fee      string
		total    string
	}{
		{"express without coupon", "100.00", 0, models.ShippingExpress, "0", "10", "110.00"},
		{"pickup with 30 percent", "200.00", 30, models.ShippingPickup, "60.00", "0", "140.00"},
		{"standard with 15 percent", "59.99", 15, models.ShippingStandard, "9.00", "0", "50.99"},
		{"full discount plus express", "25.00", 100, models.ShippingExpress, "25.00", "10", "10.00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var coupon *models.Coupon
			if tt.percent > 0 {
				coupon = &models.Coupon{DiscountPercent: tt.percent}
			}

			q := Price(dec(tt.subtotal), coupon, tt.method, DefaultShippingPolicy())

			assert.True(t, q.Subtotal.Equal(dec(tt.subtotal)), "subtotal %s", q.Subtotal)
			assert.True(t, q.Discount.Equal(dec(tt.discount)), "discount %s", q.Discount)
			assert.True(t, q.ShippingFee.Equal(dec(tt.fee)), "fee %s", q.ShippingFee)
			assert.True(t, q.Total.Equal(dec(tt.total)), "total %s", q.Total)
		})
	}
}

func TestPriceWithoutCouponKeepsTotalEqualToSubtotalPlusFee(t *testing.T) {
	for _, sub := range []string{"0.01", "1", "17.35", "999.99"} {
		for _, m := range []models.ShippingMethod{models.ShippingStandard, models.ShippingExpress, models.ShippingPickup} {
			q := Price(dec(sub), nil, m, DefaultShippingPolicy())
			assert.True(t, q.Discount.IsZero())
			assert.True(t, q.Total.Equal(dec(sub).Add(DefaultShippingPolicy().Fee(m))), "%s/%s", sub, m)
		}
	}
}

func TestValidateShipping(t *testing.T) {
	valid := models.ShippingInfo{AddressLine: "1 Main St", City: "Springfield", Country: "US", Method: models.ShippingStandard}
	require.NoError(t, ValidateShipping(valid))

	missingCountry := valid
	missingCountry.Country = ""
	err := ValidateShipping(missingCountry)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, []FieldError{{Field: "shipping.country", Message: "country is required"}}, ce.Fields)

	err = ValidateShipping(models.ShippingInfo{Method: "teleport"})
	require.True(t, errors.As(err, &ce))
	assert.Len(t, ce.Fields, 4)
	assert.Equal(t, "shipping.method", ce.Fields[3].Field)
}

func TestNormalizeShipping(t *testing.T) {
	s := NormalizeShipping(models.ShippingInfo{
		AddressLine: "  1 Main St ",
		City:        " Springfield",
		Country:     "US ",
		Method:      " Express ",
	})

	assert.Equal(t, "1 Main St", s.AddressLine)
	assert.Equal(t, "Springfield", s.City)
	assert.Equal(t, "US", s.Country)
	assert.Equal(t, models.ShippingExpress, s.Method)
	require.NoError(t, ValidateShipping(s))
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", newError(KindState, MsgCouponNotUsable, database.ErrCouponNotUsable))

	assert.Equal(t, KindState, KindOf(err))
	assert.False(t, IsValidation(err))
	assert.True(t, errors.Is(err, database.ErrCouponNotUsable))
	assert.Equal(t, "coupon is no longer usable: coupon is no longer usable", errors.Unwrap(err).Error())
	assert.Equal(t, Kind(0), KindOf(errors.New("boom")))
	assert.Equal(t, "lookup", KindLookup.String())
}
