package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/safar/go-shop-checkout/internal/database"
)

// InsertReferral records that referredID signed up with referrerID's code and
// returns the referrer's total referral count including this one. The
// referrer row is locked first so concurrent sign-ups count one at a time.
func InsertReferral(ctx context.Context, tx *sql.Tx, referrerID, referredID int64) (int, error) {
	var locked int64
	err := tx.QueryRowContext(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, referrerID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, database.ErrUserNotFound
		}
		return 0, fmt.Errorf("lock referrer: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO referrals (referrer_id, referred_id, created_at) VALUES ($1, $2, NOW())`,
		referrerID, referredID)
	if err != nil {
		return 0, fmt.Errorf("insert referral: %w", err)
	}

	var count int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM referrals WHERE referrer_id = $1`, referrerID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count referrals: %w", err)
	}

	return count, nil
}
