package integration

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/safar/go-shop-checkout/internal/config"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/referral"
	"github.com/safar/go-shop-checkout/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestReferralMilestoneIssuesCoupon(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc := referral.NewService(db, zap.NewNop(), config.ReferralConfig{
		Milestone:     3,
		RewardPercent: 10,
		RewardTTL:     720 * time.Hour,
	})

	referrer, err := svc.Register(ctx, referral.RegisterRequest{Email: "host@example.com", Name: "Host"})
	require.NoError(t, err)
	code := strings.ToLower(referrer.User.ReferralCode)

	var rewards []*models.Coupon
	for _, email := range []string{"r1@example.com", "r2@example.com", "r3@example.com", "r4@example.com"} {
		reg, err := svc.Register(ctx, referral.RegisterRequest{Email: email, Name: email, ReferralCode: code})
		require.NoError(t, err)
		require.NotNil(t, reg.User.ReferredBy)
		assert.Equal(t, referrer.User.ID, *reg.User.ReferredBy)
		if reg.Reward != nil {
			rewards = append(rewards, reg.Reward)
		}
	}

	require.Len(t, rewards, 1)
	reward := rewards[0]
	assert.Regexp(t, `^REF-[0-9A-F]{8}$`, reward.Code)
	assert.Equal(t, 10, reward.DiscountPercent)
	assert.Equal(t, 1, reward.MaxUses)
	assert.Equal(t, models.IssuedForReferral, reward.IssuedReason)
	assert.True(t, reward.IsBoundTo(referrer.User.ID))

	mine, err := store.ListUsableCoupons(ctx, db, referrer.User.ID, time.Now())
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, reward.Code, mine[0].Code)
}

func TestRegisterWithUnknownReferralCode(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()
	ctx := context.Background()

	svc := referral.NewService(db, zap.NewNop(), config.ReferralConfig{Milestone: 3, RewardPercent: 10, RewardTTL: time.Hour})

	_, err := svc.Register(ctx, referral.RegisterRequest{Email: "lost@example.com", Name: "Lost", ReferralCode: "NOPE"})
	assert.True(t, errors.Is(err, database.ErrReferralCodeUnknown))

	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM users`).Scan(&n))
	assert.Equal(t, 0, n)

	_, err = svc.Register(ctx, referral.RegisterRequest{Email: "dup@example.com", Name: "Dup"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, referral.RegisterRequest{Email: "DUP@example.com", Name: "Dup"})
	assert.True(t, errors.Is(err, database.ErrEmailTaken))
}
