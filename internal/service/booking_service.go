package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parkovka/internal/domain"
	"parkovka/internal/events"
	"parkovka/internal/fines"
	"parkovka/internal/metrics"
	"parkovka/internal/models"
	"parkovka/internal/schedule"
	"parkovka/internal/store"
)

// BookingService owns the reservation commit protocol: availability reads,
// the selection hold, and the atomic commit with its in-transaction
// re-check and cap counting.
type BookingService struct {
	bookings domain.BookingStore
	fineRecs domain.FineStore
	holds    domain.HoldRepository
	eventBus domain.EventPublisher
	layout   []models.Floor
	holdTTL  time.Duration
	logger   *zerolog.Logger
}

func NewBookingService(
	bookings domain.BookingStore,
	fineRecs domain.FineStore,
	holds domain.HoldRepository,
	eventBus domain.EventPublisher,
	layout []models.Floor,
	holdTTL time.Duration,
	logger *zerolog.Logger,
) *BookingService {
	if holdTTL <= 0 {
		holdTTL = 2 * time.Minute
	}
	return &BookingService{
		bookings: bookings,
		fineRecs: fineRecs,
		holds:    holds,
		eventBus: eventBus,
		layout:   layout,
		holdTTL:  holdTTL,
		logger:   logger,
	}
}

// ValidateBooking checks caller input before any store work.
func (s *BookingService) ValidateBooking(b *models.Booking) error {
	switch b.RateType {
	case models.RateHourly, models.RateDaily, models.RateMonthly:
	default:
		return fmt.Errorf("%w: unknown rate type %q", store.ErrInvalidInput, b.RateType)
	}
	switch b.BookingKind {
	case models.KindResident, models.KindVisitor:
	default:
		return fmt.Errorf("%w: unknown booking kind %q", store.ErrInvalidInput, b.BookingKind)
	}
	if b.Username == "" {
		return fmt.Errorf("%w: username is required", store.ErrInvalidInput)
	}
	if b.Price < 0 {
		return fmt.Errorf("%w: negative price", store.ErrInvalidInput)
	}
	if b.RateType == models.RateHourly && (b.EntryTime == "" || b.ExitTime == "") {
		return fmt.Errorf("%w: hourly booking requires entry and exit times", store.ErrInvalidInput)
	}
	if !s.slotInLayout(b.Floor, b.SlotID) {
		return fmt.Errorf("%w: unknown slot %s-%s", store.ErrInvalidInput, b.Floor, b.SlotID)
	}
	if _, err := schedule.WindowOf(b); err != nil {
		return fmt.Errorf("%w: %v", store.ErrInvalidInput, err)
	}
	return nil
}

// AvailableSlots derives the free-slot set for a candidate window from
// active bookings. The persisted occupancy cache is never consulted.
func (s *BookingService) AvailableSlots(ctx context.Context, window schedule.Window, rateType string) ([]models.SlotRef, error) {
	active, err := s.bookings.GetActiveBookings(ctx)
	if err != nil {
		return nil, err
	}
	return schedule.AvailableSlots(window, rateType, s.layout, active, nil), nil
}

// SelectSlot places a short hold on the chosen slot for the user. Best
// effort: a hold narrows, not closes, the selection-to-commit window.
func (s *BookingService) SelectSlot(ctx context.Context, ref models.SlotRef, username string) (bool, error) {
	if s.holds == nil {
		return true, nil
	}
	return s.holds.AcquireHold(ctx, ref, username, s.holdTTL)
}

// Commit finalizes the booking. The store transaction re-validates the
// slot and counts caps against the live ledger; on any failure nothing is
// applied and a typed error comes back.
func (s *BookingService) Commit(ctx context.Context, b *models.Booking) (string, error) {
	if err := s.ValidateBooking(b); err != nil {
		metrics.IncCommit("invalid")
		return "", err
	}

	b.ID = uuid.NewString()
	b.Status = models.StatusConfirmed

	err := s.bookings.CommitBooking(ctx, b)
	switch {
	case err == nil:
	case errors.Is(err, store.ErrSlotConflict):
		metrics.IncCommit("conflict")
		return "", err
	case errors.Is(err, store.ErrDailyCapExceeded), errors.Is(err, store.ErrHourlyCapExceeded):
		metrics.IncCommit("capacity")
		return "", err
	default:
		metrics.IncCommit("error")
		return "", err
	}

	if s.holds != nil {
		if err := s.holds.ReleaseHold(ctx, b.Slot(), b.Username); err != nil {
			s.logger.Warn().Err(err).Str("booking_id", b.ID).Msg("hold release failed")
		}
	}

	metrics.IncCommit("committed")
	s.publishEvent(events.EventBookingCreated, b, "")
	s.logger.Info().
		Str("booking_id", b.ID).
		Str("username", b.Username).
		Str("slot", b.Floor+"-"+b.SlotID).
		Str("rate_type", b.RateType).
		Msg("booking committed")
	return b.ID, nil
}

// Cancel is an explicit user cancellation with optimistic versioning.
func (s *BookingService) Cancel(ctx context.Context, bookingID string, version int64) error {
	if err := s.bookings.CancelBooking(ctx, bookingID, version, models.CancelReasonUser); err != nil {
		return err
	}

	if b, err := s.bookings.GetBooking(ctx, bookingID); err == nil {
		s.publishEvent(events.EventBookingCancelled, b, models.CancelReasonUser)
	}
	return nil
}

func (s *BookingService) GetBooking(ctx context.Context, id string) (*models.Booking, error) {
	return s.bookings.GetBooking(ctx, id)
}

func (s *BookingService) GetUserBookings(ctx context.Context, username string) ([]*models.Booking, error) {
	return s.bookings.GetUserBookings(ctx, username)
}

func (s *BookingService) GetSlotOccupancy(ctx context.Context, floor, slotID string) ([]models.SlotOccupancy, error) {
	return s.bookings.GetSlotOccupancy(ctx, floor, slotID)
}

// QueryFine recomputes the overstay fine at query time. Once payment has
// been acknowledged the persisted record wins.
func (s *BookingService) QueryFine(ctx context.Context, bookingID string, now time.Time) (*models.FineRecord, error) {
	if rec, err := s.fineRecs.GetFineRecord(ctx, bookingID); err == nil && rec.Paid {
		return rec, nil
	} else if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	b, err := s.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !b.IsActive() {
		return nil, fmt.Errorf("%w: booking %s is cancelled", store.ErrInvalidInput, bookingID)
	}

	rec, err := fines.ComputeFor(b, now)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// AcknowledgeFinePayment persists the fine exactly once, at payment time.
func (s *BookingService) AcknowledgeFinePayment(ctx context.Context, bookingID string, now time.Time) (*models.FineRecord, error) {
	rec, err := s.QueryFine(ctx, bookingID, now)
	if err != nil {
		return nil, err
	}
	if rec.Paid {
		return rec, nil
	}
	if rec.FineAmount == 0 {
		return nil, fmt.Errorf("%w: booking %s has no outstanding fine", store.ErrInvalidInput, bookingID)
	}

	rec.Paid = true
	rec.PaidAt = now
	if err := s.fineRecs.SaveFineRecord(ctx, rec); err != nil {
		return nil, err
	}

	metrics.IncFineCollected()
	if s.eventBus != nil {
		if err := s.eventBus.PublishJSON(events.EventFinePaid, rec); err != nil {
			s.logger.Error().Err(err).Str("booking_id", bookingID).Msg("publish event error")
		}
	}
	return rec, nil
}

func (s *BookingService) slotInLayout(floor, slotID string) bool {
	for _, f := range s.layout {
		if f.Name != floor {
			continue
		}
		for _, id := range f.Slots {
			if id == slotID {
				return true
			}
		}
	}
	return false
}

func (s *BookingService) publishEvent(eventType string, b *models.Booking, reason string) {
	if s.eventBus == nil {
		return
	}
	payload := events.BookingEventPayload{
		BookingID: b.ID,
		Username:  b.Username,
		RateType:  b.RateType,
		Floor:     b.Floor,
		SlotID:    b.SlotID,
		Status:    b.Status,
		EntryDate: b.EntryDate,
		ExitDate:  b.ExitDate,
		Reason:    reason,
	}
	if err := s.eventBus.PublishJSON(eventType, payload); err != nil {
		s.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", b.ID).Msg("publish event error")
	}
}
