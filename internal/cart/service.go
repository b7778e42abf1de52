package cart

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
	"github.com/safar/go-shop-checkout/internal/store"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrInvalidQuantity = errors.New("quantity must be between 1 and 10000")

// MaxQuantity caps one product's line after duplicates are summed.
const MaxQuantity = 10_000

// maxCartTotal is the largest value a NUMERIC(12,2) column holds.
var maxCartTotal = decimal.RequireFromString("9999999999.99")

// Line is a requested cart line. Prices always come from the catalog.
type Line struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

type Service struct {
	db     *sql.DB
	log    *zap.Logger
	txOpts database.TxOptions
}

func NewService(db *sql.DB, log *zap.Logger) *Service {
	return &Service{db: db, log: log, txOpts: database.DefaultTxOptions()}
}

// Get returns the user's cart. A user who never added anything gets an empty
// cart rather than an error.
func (s *Service) Get(ctx context.Context, userID int64) (*models.Cart, error) {
	cart, err := store.GetCart(ctx, s.db, userID)
	if errors.Is(err, database.ErrCartNotFound) {
		return emptyCart(userID), nil
	}
	return cart, err
}

// ReplaceItems sets the cart to exactly lines, re-priced from the catalog.
func (s *Service) ReplaceItems(ctx context.Context, userID int64, lines []Line) (*models.Cart, error) {
	merged, err := coalesce(lines)
	if err != nil {
		return nil, err
	}

	var cart *models.Cart
	err = database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		c, err := store.UpsertCart(ctx, tx, userID)
		if err != nil {
			return err
		}
		if err := s.reprice(ctx, tx, c, merged); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("cart replaced",
		zap.Int64("user_id", userID),
		zap.Int("lines", len(cart.Items)),
		zap.String("total", cart.Total.StringFixed(2)))
	return cart, nil
}

// Merge folds a guest cart into the user's cart. Quantities for the same
// product are summed and every line is re-priced.
func (s *Service) Merge(ctx context.Context, userID int64, guest []Line) (*models.Cart, error) {
	if _, err := coalesce(guest); err != nil {
		return nil, err
	}

	var cart *models.Cart
	err := database.WithRetry(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		c, err := store.UpsertCart(ctx, tx, userID)
		if err != nil {
			return err
		}

		combined := make([]Line, 0, len(c.Items)+len(guest))
		for _, item := range c.Items {
			combined = append(combined, Line{ProductID: item.ProductID, Quantity: item.Quantity})
		}
		combined = append(combined, guest...)

		merged, err := coalesce(combined)
		if err != nil {
			return err
		}
		if err := s.reprice(ctx, tx, c, merged); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("guest cart merged",
		zap.Int64("user_id", userID),
		zap.Int("guest_lines", len(guest)),
		zap.Int("lines", len(cart.Items)))
	return cart, nil
}

// RemoveItem drops one line and recomputes the total from what is left.
func (s *Service) RemoveItem(ctx context.Context, userID, itemID int64) (*models.Cart, error) {
	var cart *models.Cart
	err := database.WithTransaction(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		c, err := store.LockCart(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, database.ErrCartNotFound) {
				return database.ErrCartItemNotFound
			}
			return err
		}
		if err := store.DeleteCartItem(ctx, tx, c.ID, itemID); err != nil {
			return err
		}

		remaining := c.Items[:0]
		for _, item := range c.Items {
			if item.ID != itemID {
				remaining = append(remaining, item)
			}
		}
		c.Items = remaining
		c.Recalculate()

		if err := store.SaveCartTotal(ctx, tx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *Service) Clear(ctx context.Context, userID int64) (*models.Cart, error) {
	var cart *models.Cart
	err := database.WithTransaction(ctx, s.db, s.txOpts, func(tx *sql.Tx) error {
		c, err := store.LockCart(ctx, tx, userID)
		if err != nil {
			if errors.Is(err, database.ErrCartNotFound) {
				cart = emptyCart(userID)
				return nil
			}
			return err
		}
		if err := store.ClearCart(ctx, tx, c); err != nil {
			return err
		}
		cart = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	return cart, nil
}

func (s *Service) reprice(ctx context.Context, tx *sql.Tx, cart *models.Cart, lines []Line) error {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := store.GetProductsByIDs(ctx, tx, ids)
	if err != nil {
		return err
	}

	cart.Items = buildItems(lines, products)
	cart.Recalculate()
	if cart.Total.GreaterThan(maxCartTotal) {
		return fmt.Errorf("cart total %s: %w", cart.Total, ErrInvalidQuantity)
	}

	return store.ReplaceCartItems(ctx, tx, cart)
}

// coalesce validates lines and sums quantities of repeated products, keeping
// the position of each product's first appearance.
func coalesce(lines []Line) ([]Line, error) {
	out := make([]Line, 0, len(lines))
	index := make(map[int64]int, len(lines))

	for _, line := range lines {
		if line.Quantity < 1 {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrInvalidQuantity)
		}
		if line.Quantity > MaxQuantity {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrInvalidQuantity)
		}
		if i, ok := index[line.ProductID]; ok {
			out[i].Quantity += line.Quantity
			if out[i].Quantity > MaxQuantity {
				return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrInvalidQuantity)
			}
			continue
		}
		index[line.ProductID] = len(out)
		out = append(out, line)
	}

	return out, nil
}

func buildItems(lines []Line, products map[int64]models.Product) []models.CartItem {
	items := make([]models.CartItem, 0, len(lines))
	for _, line := range lines {
		p := products[line.ProductID]
		items = append(items, models.CartItem{
			ProductID:   line.ProductID,
			ProductName: p.Name,
			Quantity:    line.Quantity,
			Price:       p.Price,
		})
	}
	return items
}

func emptyCart(userID int64) *models.Cart {
	c := &models.Cart{UserID: userID}
	c.Clear()
	return c
}
