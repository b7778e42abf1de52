package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/safar/go-shop-checkout/internal/coupon"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCouponServiceAgainstDatabase(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	user := newUser(t, db, "holder@example.com")
	other := newUser(t, db, "other@example.com")
	svc := coupon.NewService(db, zap.NewNop(), nil)

	created, err := svc.Create(ctx, coupon.CreateRequest{
		Code:            "welcome15",
		DiscountPercent: 15,
		MaxUses:         2,
		ExpiresAt:       time.Now().Add(48 * time.Hour),
		IssuedTo:        &user.ID,
	})
	require.NoError(t, err)
	assert.Equal(t, "WELCOME15", created.Code)
	assert.Equal(t, models.IssuedByAdmin, created.IssuedReason)

	_, err = svc.Create(ctx, coupon.CreateRequest{
		Code: "WELCOME15", DiscountPercent: 5, MaxUses: 1, ExpiresAt: time.Now().Add(time.Hour),
	})
	assert.True(t, errors.Is(err, database.ErrCouponCodeTaken))

	newCoupon(t, db, "STALE", 10, 1, time.Now().Add(-time.Minute), user.ID)

	mine, err := svc.ListMine(ctx, user.ID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "WELCOME15", mine[0].Code)

	v, err := svc.Validate(ctx, user.ID, " welcome15")
	require.NoError(t, err)
	assert.True(t, v.IsUsable)
	assert.Equal(t, 15, v.DiscountPercent)

	v, err = svc.Validate(ctx, user.ID, "stale")
	require.NoError(t, err)
	assert.False(t, v.IsUsable)

	_, err = svc.Validate(ctx, other.ID, "WELCOME15")
	assert.True(t, errors.Is(err, database.ErrCouponNotFound))
}
