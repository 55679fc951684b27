package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"parkovka/internal/models"
)

func (s *Store) CreateNotification(ctx context.Context, n *models.Notification) error {
	query := `INSERT INTO notifications (id, recipient, message, floor, slot_id, booking_kind, timestamp, read)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query, n.ID, n.Recipient, n.Message,
		nullable(n.Floor), nullable(n.SlotID), nullable(n.BookingKind), n.Timestamp, n.Read)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

// GetRecentNotifications returns the recipient's notifications newer than
// the cutoff, newest first. The dedup check reads this full set at call
// time; the check is advisory under concurrency.
func (s *Store) GetRecentNotifications(ctx context.Context, recipient string, since time.Time) ([]*models.Notification, error) {
	query := `SELECT id, recipient, message, floor, slot_id, booking_kind, timestamp, read
              FROM notifications WHERE recipient = ? AND timestamp >= ?
              ORDER BY timestamp DESC`
	rows, err := s.db.QueryContext(ctx, query, recipient, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("failed to get recent notifications: %w", err)
	}
	defer rows.Close()

	var notifs []*models.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifs = append(notifs, n)
	}
	return notifs, rows.Err()
}

func scanNotification(rows rowScanner) (*models.Notification, error) {
	n := &models.Notification{}
	var floor, slotID, kind sql.NullString
	if err := rows.Scan(&n.ID, &n.Recipient, &n.Message, &floor, &slotID, &kind, &n.Timestamp, &n.Read); err != nil {
		return nil, fmt.Errorf("failed to scan notification: %w", err)
	}
	n.Floor = floor.String
	n.SlotID = slotID.String
	n.BookingKind = kind.String
	return n, nil
}

func (s *Store) MarkNotificationRead(ctx context.Context, id string) error {
	query := `UPDATE notifications SET read = 1 WHERE id = ?`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

// CountUnread re-queries the ledger instead of keeping a counter that can
// drift from the store.
func (s *Store) CountUnread(ctx context.Context, recipient string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM notifications WHERE recipient = ? AND read = 0`
	if err := s.db.QueryRowContext(ctx, query, recipient).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}
