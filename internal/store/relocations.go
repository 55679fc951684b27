package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"parkovka/internal/models"
)

func (s *Store) GetRelocation(ctx context.Context, bookingID string) (*models.Relocation, error) {
	query := `SELECT booking_id, state, offer_floor, offer_slot_id, new_booking_id,
                     coupon_id, created_at, updated_at
              FROM relocations WHERE booking_id = ?`
	rel := &models.Relocation{}
	var offerFloor, offerSlot, newID, couponID sql.NullString
	err := s.db.QueryRowContext(ctx, query, bookingID).Scan(
		&rel.BookingID, &rel.State, &offerFloor, &offerSlot, &newID,
		&couponID, &rel.CreatedAt, &rel.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get relocation: %w", err)
	}
	rel.OfferFloor = offerFloor.String
	rel.OfferSlotID = offerSlot.String
	rel.NewBookingID = newID.String
	rel.CouponID = couponID.String
	return rel, nil
}

// CreateRelocation records a new incident. The primary key on booking_id is
// the re-entrancy guard: a second insert for the same booking returns
// ErrIncidentExists no matter which process detected it first.
func (s *Store) CreateRelocation(ctx context.Context, rel *models.Relocation) error {
	query := `INSERT INTO relocations (booking_id, state, offer_floor, offer_slot_id, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?)`
	now := time.Now()
	_, err := s.db.ExecContext(ctx, query, rel.BookingID, rel.State,
		nullable(rel.OfferFloor), nullable(rel.OfferSlotID), now, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrIncidentExists
		}
		return fmt.Errorf("failed to create relocation: %w", err)
	}
	rel.CreatedAt = now
	rel.UpdatedAt = now
	return nil
}

// AcceptRelocation applies the accept branch in one transaction: the old
// booking is cancelled, the replacement is created under a fresh id, the
// occupancy cache for both slots is rebuilt and the incident reaches its
// terminal state. All or nothing.
func (s *Store) AcceptRelocation(ctx context.Context, old *models.Booking, replacement *models.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin relocate tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	// The offered slot may have been taken while the holder decided.
	free, err := s.slotFreeTx(ctx, tx, replacement)
	if err != nil {
		return err
	}
	if !free {
		return ErrSlotConflict
	}

	if err := cancelBookingTx(ctx, tx, old.ID, old.Version, models.CancelReasonRelocated); err != nil {
		return err
	}
	if err := insertBookingTx(ctx, tx, replacement); err != nil {
		return err
	}
	if err := updateRelocationTx(ctx, tx, old.ID, models.RelocationRelocated, replacement.ID, ""); err != nil {
		return err
	}
	if err := s.rebuildOccupancyTx(ctx, tx, old.Slot(), replacement.Slot()); err != nil {
		return err
	}
	return tx.Commit()
}

// DeclineRelocation applies the decline branch in one transaction: the
// booking is cancelled with the compensation reason and exactly one coupon
// is issued against it.
func (s *Store) DeclineRelocation(ctx context.Context, b *models.Booking, coupon *models.Coupon) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%w: begin decline tx: %v", ErrStoreUnavailable, err)
	}
	defer tx.Rollback()

	if err := cancelBookingTx(ctx, tx, b.ID, b.Version, models.CancelReasonCompensated); err != nil {
		return err
	}
	if err := insertCouponTx(ctx, tx, coupon); err != nil {
		return err
	}
	if err := updateRelocationTx(ctx, tx, b.ID, models.RelocationCompensated, "", coupon.ID); err != nil {
		return err
	}
	if err := s.rebuildOccupancyTx(ctx, tx, b.Slot()); err != nil {
		return err
	}
	return tx.Commit()
}

func updateRelocationTx(ctx context.Context, tx *sql.Tx, bookingID, state, newBookingID, couponID string) error {
	query := `UPDATE relocations
              SET state = ?, new_booking_id = ?, coupon_id = ?, updated_at = ?
              WHERE booking_id = ?`
	result, err := tx.ExecContext(ctx, query, state, nullable(newBookingID), nullable(couponID),
		time.Now(), bookingID)
	if err != nil {
		return fmt.Errorf("failed to update relocation in tx: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}
