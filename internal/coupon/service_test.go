package coupon

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestValidateCreate(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(nil, zap.NewNop(), func() time.Time { return now })

	base := CreateRequest{Code: " spring25 ", DiscountPercent: 25, MaxUses: 10, ExpiresAt: now.Add(24 * time.Hour)}

	req := base
	assert.NoError(t, svc.validateCreate(&req))
	assert.Equal(t, "SPRING25", req.Code)
	assert.Equal(t, models.IssuedByAdmin, req.IssuedReason)

	tests := []struct {
		name   string
		mutate func(r *CreateRequest)
		want   string
	}{
		{"empty code", func(r *CreateRequest) { r.Code = "   " }, "code is required"},
		{"long code", func(r *CreateRequest) { r.Code = strings.Repeat("A", 65) }, "at most 64"},
		{"zero percent", func(r *CreateRequest) { r.DiscountPercent = 0 }, "discountPercent"},
		{"over 100 percent", func(r *CreateRequest) { r.DiscountPercent = 101 }, "discountPercent"},
		{"no uses", func(r *CreateRequest) { r.MaxUses = 0 }, "maxUses"},
		{"past expiry", func(r *CreateRequest) { r.ExpiresAt = now.Add(-time.Minute) }, "expiresAt"},
		{"bad reason", func(r *CreateRequest) { r.IssuedReason = "gift" }, "issuedReason"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			err := svc.validateCreate(&req)
			assert.True(t, errors.Is(err, ErrInvalidCoupon))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
