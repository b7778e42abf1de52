package integration

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/safar/go-shop-checkout/internal/cart"
	"github.com/safar/go-shop-checkout/internal/checkout"
	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/store"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newUser(t *testing.T, db *sql.DB, email string) *models.User {
	t.Helper()
	user, err := store.CreateUser(context.Background(), db, store.CreateUserParams{Email: email, Name: email})
	require.NoError(t, err)
	return user
}

func newProduct(t *testing.T, db *sql.DB, sku, price string, stock int) *models.Product {
	t.Helper()
	product, err := store.CreateProduct(context.Background(), db, store.CreateProductParams{
		SKU:   sku,
		Name:  "Product " + sku,
		Price: decimal.RequireFromString(price),
		Stock: stock,
	})
	require.NoError(t, err)
	return product
}

func fillCart(t *testing.T, db *sql.DB, userID int64, lines ...cart.Line) *models.Cart {
	t.Helper()
	c, err := cart.NewService(db, zap.NewNop()).ReplaceItems(context.Background(), userID, lines)
	require.NoError(t, err)
	return c
}

func newCoupon(t *testing.T, db *sql.DB, code string, percent, maxUses int, expiresAt time.Time, owner int64) *models.Coupon {
	t.Helper()
	c, err := store.CreateCoupon(context.Background(), db, store.CreateCouponParams{
		Code:            code,
		DiscountPercent: percent,
		MaxUses:         maxUses,
		ExpiresAt:       expiresAt,
		IssuedTo:        &owner,
		IssuedReason:    models.IssuedByAdmin,
	})
	require.NoError(t, err)
	return c
}

func newCheckout(db *sql.DB, opts ...checkout.Option) *checkout.Service {
	tx := database.DefaultTxOptions()
	tx.MaxRetries = 10
	opts = append([]checkout.Option{checkout.WithTxOptions(tx)}, opts...)
	return checkout.NewService(db, zap.NewNop(), checkout.DefaultShippingPolicy(), opts...)
}

func shippingTo(method models.ShippingMethod) models.ShippingInfo {
	return models.ShippingInfo{
		AddressLine: "742 Evergreen Terrace",
		City:        "Springfield",
		Country:     "US",
		Method:      method,
	}
}

func countOrders(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM orders`).Scan(&n))
	return n
}

func stockOf(t *testing.T, db *sql.DB, productID int64) int {
	t.Helper()
	p, err := store.GetProduct(context.Background(), db, productID)
	require.NoError(t, err)
	return p.StockQuantity
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}
