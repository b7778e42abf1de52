package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
)

const cartColumns = `id, user_id, total, created_at, updated_at, version`

func scanCart(row rowScanner, cart *models.Cart) error {
	return row.Scan(
		&cart.ID,
		&cart.UserID,
		&cart.Total,
		&cart.CreatedAt,
		&cart.UpdatedAt,
		&cart.Version,
	)
}

// GetCart loads the user's cart with items in insertion order and product
// names populated.
func GetCart(ctx context.Context, q DBTX, userID int64) (*models.Cart, error) {
	return loadCart(ctx, q, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1`, userID)
}

// LockCart is GetCart with a row lock on the cart, held until tx ends. Two
// checkouts of the same cart serialize here.
func LockCart(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	return loadCart(ctx, tx, `SELECT `+cartColumns+` FROM carts WHERE user_id = $1 FOR UPDATE`, userID)
}

func loadCart(ctx context.Context, q DBTX, query string, userID int64) (*models.Cart, error) {
	cart := &models.Cart{}

	if err := scanCart(q.QueryRowContext(ctx, query, userID), cart); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCartNotFound
		}
		return nil, fmt.Errorf("get cart: %w", err)
	}

	items, err := listCartItems(ctx, q, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

func listCartItems(ctx context.Context, q DBTX, cartID int64) ([]models.CartItem, error) {
	query := `
		SELECT ci.id, ci.product_id, p.name, ci.quantity, ci.price, ci.subtotal
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.position, ci.id`

	rows, err := q.QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("get cart items: %w", err)
	}
	defer rows.Close()

	items := []models.CartItem{}
	for rows.Next() {
		var item models.CartItem
		err := rows.Scan(
			&item.ID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.Price,
			&item.Subtotal,
		)
		if err != nil {
			return nil, fmt.Errorf("scan cart item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return items, nil
}

// UpsertCart returns the user's cart, creating an empty one on first use.
// The conflicting update also row-locks an existing cart for the rest of tx.
func UpsertCart(ctx context.Context, tx *sql.Tx, userID int64) (*models.Cart, error) {
	query := `
		INSERT INTO carts (user_id, total, created_at, updated_at, version)
		VALUES ($1, 0, NOW(), NOW(), 1)
		ON CONFLICT (user_id) DO UPDATE SET updated_at = carts.updated_at
		RETURNING ` + cartColumns

	cart := &models.Cart{}
	if err := scanCart(tx.QueryRowContext(ctx, query, userID), cart); err != nil {
		return nil, fmt.Errorf("upsert cart: %w", err)
	}

	items, err := listCartItems(ctx, tx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Items = items

	return cart, nil
}

// ReplaceCartItems rewrites every line of cart and its total. Callers must
// have run cart.Recalculate.
func ReplaceCartItems(ctx context.Context, tx *sql.Tx, cart *models.Cart) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("delete cart items: %w", err)
	}

	for i := range cart.Items {
		item := &cart.Items[i]
		err := tx.QueryRowContext(ctx,
			`INSERT INTO cart_items (cart_id, product_id, quantity, price, subtotal, position)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING id`,
			cart.ID, item.ProductID, item.Quantity, item.Price, item.Subtotal, i).Scan(&item.ID)
		if err != nil {
			return fmt.Errorf("insert cart item: %w", err)
		}
	}

	return SaveCartTotal(ctx, tx, cart)
}

func DeleteCartItem(ctx context.Context, tx *sql.Tx, cartID, itemID int64) error {
	result, err := tx.ExecContext(ctx,
		`DELETE FROM cart_items WHERE id = $1 AND cart_id = $2`, itemID, cartID)
	if err != nil {
		return fmt.Errorf("delete cart item: %w", err)
	}

	return requireOneRow(result, database.ErrCartItemNotFound)
}

// ClearCart empties the cart but keeps the cart row.
func ClearCart(ctx context.Context, tx *sql.Tx, cart *models.Cart) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cart.ID); err != nil {
		return fmt.Errorf("clear cart items: %w", err)
	}

	cart.Clear()
	return SaveCartTotal(ctx, tx, cart)
}

// SaveCartTotal persists cart.Total and bumps the cart version.
func SaveCartTotal(ctx context.Context, tx *sql.Tx, cart *models.Cart) error {
	err := tx.QueryRowContext(ctx,
		`UPDATE carts
		 SET total = $1, updated_at = NOW(), version = version + 1
		 WHERE id = $2
		 RETURNING updated_at, version`,
		cart.Total, cart.ID).Scan(&cart.UpdatedAt, &cart.Version)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return database.ErrCartNotFound
		}
		return fmt.Errorf("update cart total: %w", err)
	}

	return nil
}
