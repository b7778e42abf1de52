package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SHIPPING_FEE_EXPRESS", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Port)
	assert.True(t, cfg.Shipping.StandardFee.IsZero())
	assert.True(t, cfg.Shipping.ExpressFee.Equal(decimal.NewFromInt(10)))
	assert.Equal(t, 3, cfg.Referral.Milestone)
	assert.Equal(t, 30*24*time.Hour, cfg.Referral.RewardTTL)
	assert.Empty(t, cfg.Kafka.Brokers)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SHIPPING_FEE_STANDARD", "4.99")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092, kafka-2:9092,")
	t.Setenv("REFERRAL_MILESTONE", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, cfg.Shipping.StandardFee.Equal(decimal.RequireFromString("4.99")))
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, 5, cfg.Referral.Milestone)
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "JWT_SECRET")
}

func TestValidateRejectsNegativeFee(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("SHIPPING_FEE_EXPRESS", "-1")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "shipping fees")
}
