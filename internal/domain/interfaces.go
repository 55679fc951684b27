// Package domain holds the interfaces shared across services so packages
// depend on behavior, not on concrete store or transport types.
package domain

import (
	"context"
	"time"

	"parkovka/internal/models"
)

// BookingStore is the booking/slot side of the ledger.
type BookingStore interface {
	GetBooking(ctx context.Context, id string) (*models.Booking, error)
	GetActiveBookings(ctx context.Context) ([]*models.Booking, error)
	GetUserBookings(ctx context.Context, username string) ([]*models.Booking, error)
	GetOverdueHourlyBookings(ctx context.Context, now time.Time) ([]*models.Booking, error)
	CommitBooking(ctx context.Context, b *models.Booking) error
	CancelBooking(ctx context.Context, id string, version int64, reason string) error
	GetSlotOccupancy(ctx context.Context, floor, slotID string) ([]models.SlotOccupancy, error)
}

// RelocationStore persists relocation incidents and the two atomic
// terminal branches.
type RelocationStore interface {
	GetRelocation(ctx context.Context, bookingID string) (*models.Relocation, error)
	CreateRelocation(ctx context.Context, rel *models.Relocation) error
	AcceptRelocation(ctx context.Context, old, replacement *models.Booking) error
	DeclineRelocation(ctx context.Context, b *models.Booking, coupon *models.Coupon) error
	GetCoupon(ctx context.Context, id string) (*models.Coupon, error)
}

// NotificationStore persists alerts and serves the dedup read.
type NotificationStore interface {
	CreateNotification(ctx context.Context, n *models.Notification) error
	GetRecentNotifications(ctx context.Context, recipient string, since time.Time) ([]*models.Notification, error)
	MarkNotificationRead(ctx context.Context, id string) error
	CountUnread(ctx context.Context, recipient string) (int, error)
}

// FineStore persists acknowledged fines.
type FineStore interface {
	GetFineRecord(ctx context.Context, bookingID string) (*models.FineRecord, error)
	SaveFineRecord(ctx context.Context, rec *models.FineRecord) error
}

// VisitorStore persists guest registrations.
type VisitorStore interface {
	CreateVisitor(ctx context.Context, v *models.Visitor) error
	GetVisitors(ctx context.Context, resident string) ([]*models.Visitor, error)
}

// HoldRepository is the short-TTL slot hold between selection and commit.
// Best effort: it narrows the check-then-act window, the commit
// transaction still re-validates.
type HoldRepository interface {
	AcquireHold(ctx context.Context, ref models.SlotRef, username string, ttl time.Duration) (bool, error)
	ReleaseHold(ctx context.Context, ref models.SlotRef, username string) error
	MarkIncident(ctx context.Context, bookingID string, ttl time.Duration) (bool, error)
	ClearIncident(ctx context.Context, bookingID string) error
}

// EventPublisher fans domain events out to in-process subscribers.
type EventPublisher interface {
	PublishJSON(eventType string, payload interface{}) error
}

// Notifier emits alerts. Emit skips deduplication (one-shot system
// alerts); EmitDeduped suppresses repeats inside the cooldown window.
type Notifier interface {
	Emit(ctx context.Context, n *models.Notification) error
	EmitDeduped(ctx context.Context, n *models.Notification) (bool, error)
}
