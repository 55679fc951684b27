package store

import (
	"context"
	"database/sql"
	"fmt"

	"parkovka/internal/models"
)

// GetSlotOccupancy reads the denormalized cache. Display only; the
// availability index over active bookings is the source of truth.
func (s *Store) GetSlotOccupancy(ctx context.Context, floor, slotID string) ([]models.SlotOccupancy, error) {
	query := `SELECT floor, slot_id, date, time_range, username, status
              FROM parking_slots WHERE floor = ? AND slot_id = ? ORDER BY date ASC`
	rows, err := s.db.QueryContext(ctx, query, floor, slotID)
	if err != nil {
		return nil, fmt.Errorf("failed to get slot occupancy: %w", err)
	}
	defer rows.Close()

	var occ []models.SlotOccupancy
	for rows.Next() {
		var o models.SlotOccupancy
		var timeRange sql.NullString
		if err := rows.Scan(&o.Floor, &o.SlotID, &o.Date, &timeRange, &o.Username, &o.Status); err != nil {
			return nil, fmt.Errorf("failed to scan slot occupancy: %w", err)
		}
		o.TimeRange = timeRange.String
		occ = append(occ, o)
	}
	return occ, rows.Err()
}

// rebuildOccupancyTx rewrites the cache rows for the given slots from the
// active bookings visible inside the transaction.
func (s *Store) rebuildOccupancyTx(ctx context.Context, tx *sql.Tx, refs ...models.SlotRef) error {
	for _, ref := range refs {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM parking_slots WHERE floor = ? AND slot_id = ?`,
			ref.Floor, ref.SlotID); err != nil {
			return fmt.Errorf("failed to clear occupancy cache: %w", err)
		}

		query := `SELECT ` + bookingColumns + ` FROM bookings
                  WHERE floor = ? AND slot_id = ? AND status = ?`
		rows, err := tx.QueryContext(ctx, query, ref.Floor, ref.SlotID, models.StatusConfirmed)
		if err != nil {
			return fmt.Errorf("failed to read bookings for occupancy cache: %w", err)
		}

		var bookings []*models.Booking
		for rows.Next() {
			b, err := scanBooking(rows)
			if err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan booking for occupancy cache: %w", err)
			}
			bookings = append(bookings, b)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return err
		}
		rows.Close()

		for _, b := range bookings {
			timeRange := ""
			if b.EntryTime != "" && b.ExitTime != "" {
				timeRange = b.EntryTime + "-" + b.ExitTime
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO parking_slots (floor, slot_id, date, time_range, username, status)
                 VALUES (?, ?, ?, ?, ?, ?)`,
				ref.Floor, ref.SlotID, b.EntryDate.Format(dateLayout),
				nullable(timeRange), b.Username, "occupied"); err != nil {
				return fmt.Errorf("failed to write occupancy cache: %w", err)
			}
		}
	}
	return nil
}
