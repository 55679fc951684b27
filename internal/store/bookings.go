package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"parkovka/internal/models"
	"parkovka/internal/schedule"
)

const bookingColumns = `id, username, booking_kind, rate_type, floor, slot_id,
	entry_date, entry_time, exit_date, exit_time, price, status,
	cancel_reason, created_at, updated_at, version`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanBooking(row rowScanner) (*models.Booking, error) {
	b := &models.Booking{}
	var entryDate, exitDate string
	var entryTime, exitTime, cancelReason sql.NullString
	err := row.Scan(
		&b.ID, &b.Username, &b.BookingKind, &b.RateType, &b.Floor, &b.SlotID,
		&entryDate, &entryTime, &exitDate, &exitTime, &b.Price, &b.Status,
		&cancelReason, &b.CreatedAt, &b.UpdatedAt, &b.Version,
	)
	if err != nil {
		return nil, err
	}
	b.EntryTime = entryTime.String
	b.ExitTime = exitTime.String
	b.CancelReason = cancelReason.String

	if b.EntryDate, err = time.Parse(dateLayout, entryDate); err != nil {
		return nil, fmt.Errorf("failed to parse entry date %s: %w", entryDate, err)
	}
	if b.ExitDate, err = time.Parse(dateLayout, exitDate); err != nil {
		return nil, fmt.Errorf("failed to parse exit date %s: %w", exitDate, err)
	}
	return b, nil
}

func (s *Store) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(s.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return b, nil
}

// GetActiveBookings returns every confirmed booking. The availability
// index is derived from this set, never from the occupancy cache.
func (s *Store) GetActiveBookings(ctx context.Context) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE status = ? ORDER BY entry_date ASC`
	return s.queryBookings(ctx, query, models.StatusConfirmed)
}

func (s *Store) GetUserBookings(ctx context.Context, username string) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE username = ? ORDER BY entry_date DESC`
	return s.queryBookings(ctx, query, username)
}

// GetOverdueHourlyBookings returns confirmed hourly bookings whose exit
// moment is before now. Drives the overstay detector.
func (s *Store) GetOverdueHourlyBookings(ctx context.Context, now time.Time) ([]*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE status = ? AND rate_type = ? AND exit_date <= ?`
	candidates, err := s.queryBookings(ctx, query, models.StatusConfirmed, models.RateHourly, now.Format(dateLayout))
	if err != nil {
		return nil, err
	}

	var overdue []*models.Booking
	for _, b := range candidates {
		w, err := schedule.WindowOf(b)
		if err != nil {
			continue
		}
		if w.End.Before(now) {
			overdue = append(overdue, b)
		}
	}
	return overdue, nil
}

func (s *Store) queryBookings(ctx context.Context, query string, args ...interface{}) ([]*models.Booking, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query bookings: %w", err)
	}
	defer rows.Close()

	var bookings []*models.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan booking: %w", err)
		}
		bookings = append(bookings, b)
	}
	return bookings, rows.Err()
}

// CommitBooking finalizes a new booking: the slot is re-validated against
// the live ledger and per-user caps are counted inside the same
// transaction that inserts the booking and rebuilds the occupancy cache.
// Nothing is applied on any failure.
func (s *Store) CommitBooking(ctx context.Context, b *models.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin commit tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	// 1. Re-check-then-write: the slot must still be free now.
	free, err := s.slotFreeTx(ctx, tx, b)
	if err != nil {
		return err
	}
	if !free {
		return ErrSlotConflict
	}

	// 2. Caps against the live booking set.
	if err := s.checkCapsTx(ctx, tx, b); err != nil {
		return err
	}

	// 3. Write booking and occupancy together.
	if err := insertBookingTx(ctx, tx, b); err != nil {
		return err
	}
	if err := s.rebuildOccupancyTx(ctx, tx, b.Slot()); err != nil {
		return err
	}

	return tx.Commit()
}

func (s *Store) slotFreeTx(ctx context.Context, tx *sql.Tx, b *models.Booking) (bool, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
              WHERE floor = ? AND slot_id = ? AND status = ?`
	rows, err := tx.QueryContext(ctx, query, b.Floor, b.SlotID, models.StatusConfirmed)
	if err != nil {
		return false, fmt.Errorf("failed to check slot in tx: %w", err)
	}
	defer rows.Close()

	candidate, err := schedule.WindowOf(b)
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	for rows.Next() {
		existing, err := scanBooking(rows)
		if err != nil {
			return false, fmt.Errorf("failed to scan booking in tx: %w", err)
		}
		w, err := schedule.WindowOf(existing)
		if err != nil {
			return false, nil // unparseable row counts as occupied
		}
		if schedule.Overlaps(candidate, w, b.RateType) {
			return false, nil
		}
	}
	return true, rows.Err()
}

func (s *Store) checkCapsTx(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
	// sqlite normalizes the bound created_at to UTC, and date('now') is
	// UTC as well, so the comparison never mixes calendar frames.
	var createdToday int
	queryToday := `SELECT COUNT(*) FROM bookings
                   WHERE username = ? AND status != ? AND date(created_at) = date('now')`
	err := tx.QueryRowContext(ctx, queryToday, b.Username, models.StatusCancelled).Scan(&createdToday)
	if err != nil {
		return fmt.Errorf("failed to count daily bookings: %w", err)
	}
	if createdToday >= models.MaxBookingsPerDay {
		return ErrDailyCapExceeded
	}

	if b.RateType == models.RateHourly {
		var hourly int
		queryHourly := `SELECT COUNT(*) FROM bookings
                        WHERE username = ? AND rate_type = ? AND entry_date = ? AND status != ?`
		err := tx.QueryRowContext(ctx, queryHourly, b.Username, models.RateHourly,
			b.EntryDate.Format(dateLayout), models.StatusCancelled).Scan(&hourly)
		if err != nil {
			return fmt.Errorf("failed to count hourly bookings: %w", err)
		}
		if hourly >= models.MaxHourlyPerEntryDate {
			return ErrHourlyCapExceeded
		}
	}
	return nil
}

func insertBookingTx(ctx context.Context, tx *sql.Tx, b *models.Booking) error {
	query := `INSERT INTO bookings (
               id, username, booking_kind, rate_type, floor, slot_id,
               entry_date, entry_time, exit_date, exit_time, price, status,
               cancel_reason, created_at, updated_at, version
             ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := tx.ExecContext(ctx, query,
		b.ID, b.Username, b.BookingKind, b.RateType, b.Floor, b.SlotID,
		b.EntryDate.Format(dateLayout), nullable(b.EntryTime),
		b.ExitDate.Format(dateLayout), nullable(b.ExitTime),
		b.Price, b.Status, nullable(b.CancelReason), now, now, 1,
	)
	if err != nil {
		return fmt.Errorf("failed to insert booking in tx: %w", err)
	}
	b.CreatedAt = now
	b.UpdatedAt = now
	b.Version = 1
	return nil
}

// CancelBooking cancels with optimistic versioning. Cancel is convergent:
// cancelling an already cancelled booking is not an error.
func (s *Store) CancelBooking(ctx context.Context, id string, version int64, reason string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin cancel tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	b, err := s.getBookingTx(ctx, tx, id)
	if err != nil {
		return err
	}
	if b.Status == models.StatusCancelled {
		return tx.Commit()
	}

	if err := cancelBookingTx(ctx, tx, id, version, reason); err != nil {
		return err
	}
	if err := s.rebuildOccupancyTx(ctx, tx, b.Slot()); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) getBookingTx(ctx context.Context, tx *sql.Tx, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(tx.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get booking in tx: %w", err)
	}
	return b, nil
}

func cancelBookingTx(ctx context.Context, tx *sql.Tx, id string, version int64, reason string) error {
	query := `UPDATE bookings
              SET status = ?, cancel_reason = ?, version = version + 1, updated_at = ?
              WHERE id = ? AND version = ? AND status != ?`
	result, err := tx.ExecContext(ctx, query, models.StatusCancelled, reason, time.Now(),
		id, version, models.StatusCancelled)
	if err != nil {
		return fmt.Errorf("failed to cancel booking in tx: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrConcurrentModification
	}
	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
