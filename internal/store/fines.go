package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkovka/internal/models"
)

// SaveFineRecord persists an acknowledged fine. Until payment the
// escalator recomputes the fine on every query; this is the only write.
func (s *Store) SaveFineRecord(ctx context.Context, rec *models.FineRecord) error {
	query := `INSERT INTO pay_fine (booking_id, overdue_minutes, rounds, fine_amount, original_price, paid, paid_at)
              VALUES (?, ?, ?, ?, ?, ?, ?)
              ON CONFLICT(booking_id) DO UPDATE SET
                overdue_minutes = excluded.overdue_minutes,
                rounds = excluded.rounds,
                fine_amount = excluded.fine_amount,
                paid = excluded.paid,
                paid_at = excluded.paid_at`
	var paidAt interface{}
	if !rec.PaidAt.IsZero() {
		paidAt = rec.PaidAt
	}
	_, err := s.db.ExecContext(ctx, query, rec.BookingID, rec.OverdueMinutes,
		rec.Rounds, rec.FineAmount, rec.OriginalPrice, rec.Paid, paidAt)
	if err != nil {
		return fmt.Errorf("failed to save fine record: %w", err)
	}
	return nil
}

func (s *Store) GetFineRecord(ctx context.Context, bookingID string) (*models.FineRecord, error) {
	query := `SELECT booking_id, overdue_minutes, rounds, fine_amount, original_price, paid, paid_at
              FROM pay_fine WHERE booking_id = ?`
	rec := &models.FineRecord{}
	var paidAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, bookingID).Scan(
		&rec.BookingID, &rec.OverdueMinutes, &rec.Rounds, &rec.FineAmount,
		&rec.OriginalPrice, &rec.Paid, &paidAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get fine record: %w", err)
	}
	rec.PaidAt = paidAt.Time
	return rec, nil
}

// GetPaidFines lists acknowledged fines in a date range for export.
func (s *Store) GetPaidFines(ctx context.Context, start, end time.Time) ([]*models.FineRecord, error) {
	query := `SELECT booking_id, overdue_minutes, rounds, fine_amount, original_price, paid, paid_at
              FROM pay_fine WHERE paid = 1 AND paid_at >= ? AND paid_at <= ?
              ORDER BY paid_at ASC`
	rows, err := s.db.QueryContext(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get paid fines: %w", err)
	}
	defer rows.Close()

	var fines []*models.FineRecord
	for rows.Next() {
		rec := &models.FineRecord{}
		var paidAt sql.NullTime
		if err := rows.Scan(&rec.BookingID, &rec.OverdueMinutes, &rec.Rounds,
			&rec.FineAmount, &rec.OriginalPrice, &rec.Paid, &paidAt); err != nil {
			return nil, fmt.Errorf("failed to scan fine record: %w", err)
		}
		rec.PaidAt = paidAt.Time
		fines = append(fines, rec)
	}
	return fines, rows.Err()
}
