package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/safar/go-shop-checkout/internal/database"
	"github.com/safar/go-shop-checkout/internal/models"
)

const couponColumns = `id, code, discount_percent, max_uses, used_count, expires_at, is_active,
	issued_to, issued_reason, created_at, updated_at`

type CreateCouponParams struct {
	Code            string
	DiscountPercent int
	MaxUses         int
	ExpiresAt       time.Time
	IssuedTo        *int64
	IssuedReason    models.IssuedReason
}

func scanCoupon(row rowScanner, coupon *models.Coupon) error {
	return row.Scan(
		&coupon.ID,
		&coupon.Code,
		&coupon.DiscountPercent,
		&coupon.MaxUses,
		&coupon.UsedCount,
		&coupon.ExpiresAt,
		&coupon.IsActive,
		&coupon.IssuedTo,
		&coupon.IssuedReason,
		&coupon.CreatedAt,
		&coupon.UpdatedAt,
	)
}

func CreateCoupon(ctx context.Context, q DBTX, params CreateCouponParams) (*models.Coupon, error) {
	coupon := &models.Coupon{}

	query := `
		INSERT INTO coupons (code, discount_percent, max_uses, used_count, expires_at, is_active,
		                     issued_to, issued_reason, created_at, updated_at)
		VALUES ($1, $2, $3, 0, $4, TRUE, $5, $6, NOW(), NOW())
		RETURNING ` + couponColumns

	err := scanCoupon(q.QueryRowContext(ctx, query,
		models.NormalizeCouponCode(params.Code),
		params.DiscountPercent,
		params.MaxUses,
		params.ExpiresAt,
		params.IssuedTo,
		params.IssuedReason,
	), coupon)
	if err != nil {
		if database.IsUniqueViolation(err, "coupons_code_key") {
			return nil, database.ErrCouponCodeTaken
		}
		if database.IsForeignKeyViolation(err) {
			return nil, database.ErrUserNotFound
		}
		return nil, fmt.Errorf("create coupon: %w", err)
	}

	return coupon, nil
}

// FindActiveCouponForUser resolves a code the user may redeem: it must be
// issued to userID and still flagged active.
func FindActiveCouponForUser(ctx context.Context, q DBTX, code string, userID int64) (*models.Coupon, error) {
	return findCoupon(ctx, q, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1 AND issued_to = $2 AND is_active`,
		models.NormalizeCouponCode(code), userID)
}

// GetCouponForUser resolves a code owned by userID regardless of its state.
func GetCouponForUser(ctx context.Context, q DBTX, code string, userID int64) (*models.Coupon, error) {
	return findCoupon(ctx, q, `
		SELECT `+couponColumns+`
		FROM coupons
		WHERE code = $1 AND issued_to = $2`,
		models.NormalizeCouponCode(code), userID)
}

func findCoupon(ctx context.Context, q DBTX, query string, args ...any) (*models.Coupon, error) {
	coupon := &models.Coupon{}

	if err := scanCoupon(q.QueryRowContext(ctx, query, args...), coupon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon: %w", err)
	}

	return coupon, nil
}

// ListUsableCoupons returns the user's coupons that are active, have uses
// left and expire after now, newest first.
func ListUsableCoupons(ctx context.Context, q DBTX, userID int64, now time.Time) ([]models.Coupon, error) {
	query := `
		SELECT ` + couponColumns + `
		FROM coupons
		WHERE issued_to = $1
		  AND is_active
		  AND used_count < max_uses
		  AND expires_at > $2
		ORDER BY created_at DESC, id DESC`

	rows, err := q.QueryContext(ctx, query, userID, now)
	if err != nil {
		return nil, fmt.Errorf("list coupons: %w", err)
	}
	defer rows.Close()

	coupons := []models.Coupon{}
	for rows.Next() {
		var coupon models.Coupon
		if err := scanCoupon(rows, &coupon); err != nil {
			return nil, fmt.Errorf("scan coupon: %w", err)
		}
		coupons = append(coupons, coupon)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return coupons, nil
}

// RedeemCoupon consumes one use of the coupon in a single conditional
// update and deactivates it when the last use is taken. If another redemption
// won the race, or the coupon expired meanwhile, no row matches and
// ErrCouponNotUsable is returned.
func RedeemCoupon(ctx context.Context, tx *sql.Tx, couponID, userID int64, now time.Time) (*models.Coupon, error) {
	coupon := &models.Coupon{}

	query := `
		UPDATE coupons
		SET used_count = used_count + 1,
		    is_active  = (used_count + 1 < max_uses),
		    updated_at = NOW()
		WHERE id = $1
		  AND issued_to = $2
		  AND is_active
		  AND used_count < max_uses
		  AND expires_at > $3
		RETURNING ` + couponColumns

	if err := scanCoupon(tx.QueryRowContext(ctx, query, couponID, userID, now), coupon); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrCouponNotUsable
		}
		return nil, fmt.Errorf("redeem coupon: %w", err)
	}

	return coupon, nil
}
