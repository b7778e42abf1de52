package integration

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/store"
)

func insertOrder(t *testing.T, db *sql.DB, userID int64, product *models.Product) *models.Order {
	t.Helper()

	order := &models.Order{
		UserID:      userID,
		Subtotal:    product.Price,
		ShippingFee: dec("0"),
		Discount:    dec("0"),
		TotalAmount: product.Price,
		Shipping:    shippingTo(models.ShippingStandard),
		Items: []models.OrderItem{{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    1,
			UnitPrice:   product.Price,
			Subtotal:    product.Price,
		}},
	}

	err := database.WithTransaction(context.Background(), db, database.DefaultTxOptions(), func(tx *sql.Tx) error {
		return store.InsertOrder(context.Background(), tx, order)
	})
	if err != nil {
		t.Fatalf("Insert order: %v", err)
	}
	return order
}

func TestInsertOrder(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := newUser(t, db, "test@example.com")
	product := newProduct(t, db, "TEST-ORD-001", "100", 50)

	order := insertOrder(t, db, user.ID, product)

	if order.ID == 0 {
		t.Error("Order ID should not be 0")
	}
	if len(order.OrderNumber) != len("ORD-")+16 {
		t.Errorf("Unexpected order number %q", order.OrderNumber)
	}
	if order.Status != models.OrderStatusPending || order.Version != 1 {
		t.Errorf("Unexpected status %s version %d", order.Status, order.Version)
	}

	saved, err := store.GetOrder(ctx, db, order.ID)
	if err != nil {
		t.Fatalf("Get order: %v", err)
	}
	if len(saved.Items) != 1 || saved.Items[0].ID != order.Items[0].ID {
		t.Errorf("Expected the inserted item, got %+v", saved.Items)
	}
	if saved.Shipping.City != "Springfield" || saved.Shipping.Method != models.ShippingStandard {
		t.Errorf("Shipping not persisted: %+v", saved.Shipping)
	}

	if count, err := store.CountOrders(ctx, db, user.ID); err != nil || count != 1 {
		t.Errorf("Expected 1 order, got %d (%v)", count, err)
	}
}

func TestUpdateOrderStatus(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := newUser(t, db, "status@example.com")
	product := newProduct(t, db, "TEST-ORD-002", "20", 5)
	order := insertOrder(t, db, user.ID, product)

	_, err := store.UpdateOrderStatus(ctx, db, order.ID, models.OrderStatusShipped, order.Version)
	if !errors.Is(err, database.ErrInvalidStatusChange) {
		t.Errorf("Expected invalid transition, got: %v", err)
	}

	updated, err := store.UpdateOrderStatus(ctx, db, order.ID, models.OrderStatusPaymentPending, order.Version)
	if err != nil {
		t.Fatalf("Move to payment_pending: %v", err)
	}
	if updated.Status != models.OrderStatusPaymentPending || updated.Version != order.Version+1 {
		t.Errorf("Unexpected order after update: %s v%d", updated.Status, updated.Version)
	}
	if len(updated.Items) != 1 {
		t.Errorf("Expected items to be returned")
	}

	_, err = store.UpdateOrderStatus(ctx, db, order.ID, models.OrderStatusPaid, order.Version)
	if !errors.Is(err, database.ErrOptimisticLockFailed) {
		t.Errorf("Expected stale version to fail, got: %v", err)
	}

	_, err = store.UpdateOrderStatus(ctx, db, order.ID+999, models.OrderStatusPaid, 1)
	if !errors.Is(err, database.ErrOrderNotFound) {
		t.Errorf("Expected order not found, got: %v", err)
	}
}

func TestListOrdersCursor(t *testing.T) {
	db, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()

	user := newUser(t, db, "test4@example.com")
	other := newUser(t, db, "other@example.com")
	product := newProduct(t, db, "TEST-ORD-005", "100", 100)

	for i := 0; i < 15; i++ {
		insertOrder(t, db, user.ID, product)
	}
	insertOrder(t, db, other.ID, product)

	page1, err := store.ListOrdersCursor(ctx, db, user.ID, "", 10)
	if err != nil {
		t.Fatalf("List orders page 1: %v", err)
	}

	if !page1.HasMore {
		t.Error("Page 1 should have more results")
	}

	if page1.NextCursor == "" {
		t.Error("Page 1 should have a next cursor")
	}

	page2, err := store.ListOrdersCursor(ctx, db, user.ID, page1.NextCursor, 10)
	if err != nil {
		t.Fatalf("List orders page 2: %v", err)
	}

	if page2.HasMore {
		t.Error("Page 2 should not have more results")
	}

	first := page1.Items.([]models.Order)
	second := page2.Items.([]models.Order)
	if len(first) != 10 || len(second) != 5 {
		t.Errorf("Expected 10 + 5 orders, got %d + %d", len(first), len(second))
	}
	if first[len(first)-1].ID <= second[0].ID {
		t.Error("Pages should be ordered newest first without overlap")
	}
}
