package store

import (
	"context"
	"database/sql"
	"fmt"

	"parkovka/internal/models"
)

func insertCouponTx(ctx context.Context, tx *sql.Tx, c *models.Coupon) error {
	query := `INSERT INTO coupons (id, username, booking_id, discount_percent, created_at, expiry_date, used)
              VALUES (?, ?, ?, ?, ?, ?, 0)`
	if _, err := tx.ExecContext(ctx, query, c.ID, c.Username, c.BookingID,
		c.DiscountPercent, c.CreatedAt, c.ExpiryDate); err != nil {
		return fmt.Errorf("failed to insert coupon in tx: %w", err)
	}
	return nil
}

func (s *Store) GetCoupon(ctx context.Context, id string) (*models.Coupon, error) {
	query := `SELECT id, username, booking_id, discount_percent, created_at, expiry_date, used
              FROM coupons WHERE id = ?`
	c := &models.Coupon{}
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&c.ID, &c.Username, &c.BookingID, &c.DiscountPercent, &c.CreatedAt, &c.ExpiryDate, &c.Used)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get coupon: %w", err)
	}
	return c, nil
}

func (s *Store) GetUserCoupons(ctx context.Context, username string) ([]*models.Coupon, error) {
	query := `SELECT id, username, booking_id, discount_percent, created_at, expiry_date, used
              FROM coupons WHERE username = ? ORDER BY created_at DESC`
	rows, err := s.db.QueryContext(ctx, query, username)
	if err != nil {
		return nil, fmt.Errorf("failed to get user coupons: %w", err)
	}
	defer rows.Close()

	var coupons []*models.Coupon
	for rows.Next() {
		c := &models.Coupon{}
		if err := rows.Scan(&c.ID, &c.Username, &c.BookingID, &c.DiscountPercent,
			&c.CreatedAt, &c.ExpiryDate, &c.Used); err != nil {
			return nil, fmt.Errorf("failed to scan coupon: %w", err)
		}
		coupons = append(coupons, c)
	}
	return coupons, rows.Err()
}

// CountActiveCoupons derives the badge count from the ledger on demand.
func (s *Store) CountActiveCoupons(ctx context.Context, username string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM coupons WHERE username = ? AND used = 0 AND expiry_date > CURRENT_TIMESTAMP`
	if err := s.db.QueryRowContext(ctx, query, username).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count coupons: %w", err)
	}
	return count, nil
}
