package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/outbox"
	"github.com/safar/go-shop-checkout/internal/store"
	"github.com/safar/go-shop-checkout/internal/tracing"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Request struct {
	UserID     int64
	Shipping   models.ShippingInfo
	CouponCode string
}

// Service turns a user's cart into an order. Every write of one checkout
// (order, stock, coupon, cart, outbox) commits or rolls back together.
type Service struct {
	db       *sql.DB
	log      *zap.Logger
	shipping ShippingPolicy
	now      func() time.Time
	txOpts   database.TxOptions
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithTxOptions(opts database.TxOptions) Option {
	return func(s *Service) { s.txOpts = opts }
}

func NewService(db *sql.DB, log *zap.Logger, shipping ShippingPolicy, opts ...Option) *Service {
	s := &Service{
		db:       db,
		log:      log,
		shipping: shipping,
		now:      time.Now,
		txOpts:   database.DefaultTxOptions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type orderPlaced struct {
	OrderID     int64           `json:"orderId"`
	OrderNumber string          `json:"orderNumber"`
	UserID      int64           `json:"userId"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Discount    decimal.Decimal `json:"discount"`
	ShippingFee decimal.Decimal `json:"shippingFee"`
	Total       decimal.Decimal `json:"total"`
	CouponID    *int64          `json:"couponId,omitempty"`
	Method      string          `json:"shippingMethod"`
	ItemCount   int             `json:"itemCount"`
	PlacedAt    time.Time       `json:"placedAt"`
}

func (s *Service) Checkout(ctx context.Context, req Request) (*models.Order, error) {
	shipping := NormalizeShipping(req.Shipping)
	if err := ValidateShipping(shipping); err != nil {
		return nil, err
	}
	code := models.NormalizeCouponCode(req.CouponCode)

	var order *models.Order
	err := database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		placed, err := s.placeOrder(ctx, tx, req.UserID, shipping, code)
		if err != nil {
			return err
		}
		order = placed
		return nil
	})
	if err != nil {
		if database.IsLockNotAvailable(err) {
			err = newError(KindState, MsgStockBusy, fmt.Errorf("%w: %v", database.ErrLockTimeout, err))
		}
		if KindOf(err) == 0 {
			s.log.Error("checkout failed", zap.Int64("user_id", req.UserID), zap.Error(err))
			return nil, newError(KindPersistence, MsgCheckoutFailed, err)
		}
		s.log.Info("checkout rejected",
			zap.Int64("user_id", req.UserID),
			zap.Stringer("kind", KindOf(err)),
			zap.Error(err))
		return nil, err
	}

	s.log.Info("order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("user_id", order.UserID),
		zap.String("total", order.TotalAmount.StringFixed(2)),
		zap.Bool("coupon_applied", order.CouponID != nil))

	return order, nil
}

func (s *Service) placeOrder(ctx context.Context, tx *sql.Tx, userID int64, shipping models.ShippingInfo, code string) (*models.Order, error) {
	now := s.now()

	cart, err := store.LockCart(ctx, tx, userID)
	if err != nil {
		if errors.Is(err, database.ErrCartNotFound) {
			return nil, newError(KindValidation, MsgCartEmpty, err)
		}
		return nil, err
	}
	if cart.IsEmpty() {
		return nil, newError(KindValidation, MsgCartEmpty, nil)
	}
	if !cart.Total.IsPositive() {
		return nil, newError(KindValidation, MsgCartTotalNotPos, nil)
	}

	var coupon *models.Coupon
	if code != "" {
		coupon, err = store.FindActiveCouponForUser(ctx, tx, code, userID)
		if err != nil {
			if errors.Is(err, database.ErrCouponNotFound) {
				return nil, newError(KindLookup, MsgCouponInvalid, err)
			}
			return nil, err
		}
		if !coupon.IsUsable(now) {
			return nil, newError(KindState, MsgCouponNotUsable, database.ErrCouponNotUsable)
		}
	}

	quote := Price(cart.Total, coupon, shipping.Method, s.shipping)

	if err := reserveStock(ctx, tx, cart.Items); err != nil {
		return nil, err
	}

	order := &models.Order{
		UserID:      userID,
		Status:      models.OrderStatusPending,
		Subtotal:    quote.Subtotal,
		Discount:    quote.Discount,
		ShippingFee: quote.ShippingFee,
		TotalAmount: quote.Total,
		Shipping:    shipping,
		Items:       snapshotItems(cart.Items),
	}
	if coupon != nil {
		order.CouponID = &coupon.ID
	}

	if err := store.InsertOrder(ctx, tx, order); err != nil {
		return nil, err
	}

	if coupon != nil {
		if _, err := store.RedeemCoupon(ctx, tx, coupon.ID, userID, now); err != nil {
			if errors.Is(err, database.ErrCouponNotUsable) {
				return nil, newError(KindState, MsgCouponNotUsable, err)
			}
			return nil, err
		}
	}

	if err := store.ClearCart(ctx, tx, cart); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(orderPlaced{
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Subtotal:    order.Subtotal,
		Discount:    order.Discount,
		ShippingFee: order.ShippingFee,
		Total:       order.TotalAmount,
		CouponID:    order.CouponID,
		Method:      string(order.Shipping.Method),
		ItemCount:   len(order.Items),
		PlacedAt:    order.CreatedAt,
	})
	if err != nil {
		return nil, err
	}
	event := &outbox.Event{
		AggregateType: outbox.AggregateOrder,
		AggregateID:   order.OrderNumber,
		Type:          outbox.TypeOrderPlaced,
		Payload:       payload,
		TraceContext:  tracing.Carrier(ctx),
	}
	if err := store.InsertOutboxEvent(ctx, tx, event); err != nil {
		return nil, err
	}

	return order, nil
}

// reserveStock locks and decrements stock for every line, in product id
// order so concurrent checkouts take row locks in the same sequence.
func reserveStock(ctx context.Context, tx *sql.Tx, items []models.CartItem) error {
	lines := make([]models.CartItem, len(items))
	copy(lines, items)
	sort.Slice(lines, func(i, j int) bool { return lines[i].ProductID < lines[j].ProductID })

	for _, line := range lines {
		if _, err := store.LockProductStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return stockError(err)
		}
		if err := store.DecrementStock(ctx, tx, line.ProductID, line.Quantity); err != nil {
			return stockError(err)
		}
	}
	return nil
}

func stockError(err error) error {
	switch {
	case errors.Is(err, database.ErrInsufficientStock):
		return newError(KindState, MsgInsufficientStock, err)
	case errors.Is(err, database.ErrProductNotFound):
		return newError(KindLookup, MsgProductMissing, err)
	default:
		return err
	}
}

func snapshotItems(items []models.CartItem) []models.OrderItem {
	out := make([]models.OrderItem, 0, len(items))
	for _, item := range items {
		out = append(out, models.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.Price,
			Subtotal:    item.Price.Mul(decimal.NewFromInt(int64(item.Quantity))),
		})
	}
	return out
}
