// Package relocation coordinates moving a booking off an unusable slot:
// offer a replacement, then atomically relocate on accept or cancel and
// compensate on decline.
package relocation

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"parkovka/internal/domain"
	"parkovka/internal/events"
	"parkovka/internal/metrics"
	"parkovka/internal/models"
	"parkovka/internal/schedule"
	"parkovka/internal/store"
)

var (
	// ErrNoIncident means no relocation was ever opened for the booking.
	ErrNoIncident = errors.New("no relocation incident for booking")

	// ErrIncidentClosed means the incident already reached a different
	// terminal state and the requested transition is impossible.
	ErrIncidentClosed = errors.New("relocation incident already closed")
)

const incidentMarkerTTL = models.DefaultRedisTTL * time.Second

type Workflow struct {
	bookings    domain.BookingStore
	relocations domain.RelocationStore
	holds       domain.HoldRepository
	notifier    domain.Notifier
	eventBus    domain.EventPublisher
	layout      []models.Floor
	operators   []string
	logger      *zerolog.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

func NewWorkflow(
	bookings domain.BookingStore,
	relocations domain.RelocationStore,
	holds domain.HoldRepository,
	notifier domain.Notifier,
	eventBus domain.EventPublisher,
	layout []models.Floor,
	operators []string,
	rng *rand.Rand,
	logger *zerolog.Logger,
) *Workflow {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Workflow{
		bookings:    bookings,
		relocations: relocations,
		holds:       holds,
		notifier:    notifier,
		eventBus:    eventBus,
		layout:      layout,
		operators:   operators,
		rng:         rng,
		logger:      logger,
	}
}

// Detect opens an incident for a booking whose slot became unusable.
// Idempotent per booking id: once an incident exists, in any state,
// repeated detection is a no-op. The guard is keyed by booking, not slot,
// so a later incident on the same slot for another booking still fires.
func (w *Workflow) Detect(ctx context.Context, bookingID string) error {
	// Authoritative guard: the relocations ledger survives restarts.
	if _, err := w.relocations.GetRelocation(ctx, bookingID); err == nil {
		return nil
	} else if !isNotFound(err) {
		return err
	}

	// Fast-path marker keeps a rapidly refiring detector off the store.
	marked := false
	if w.holds != nil {
		fresh, err := w.holds.MarkIncident(ctx, bookingID, incidentMarkerTTL)
		switch {
		case err != nil:
			w.logger.Warn().Err(err).Str("booking_id", bookingID).Msg("incident marker unavailable")
		case !fresh:
			return nil
		default:
			marked = true
		}
	}

	if err := w.open(ctx, bookingID); err != nil {
		// The marker must not outlive a failed attempt, or the booking
		// stays invisible to the detector until the TTL expires.
		if marked {
			if cerr := w.holds.ClearIncident(ctx, bookingID); cerr != nil {
				w.logger.Warn().Err(cerr).Str("booking_id", bookingID).Msg("incident marker not cleared")
			}
		}
		return err
	}
	return nil
}

func (w *Workflow) open(ctx context.Context, bookingID string) error {
	booking, err := w.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return err
	}
	if !booking.IsActive() {
		return nil
	}

	window, err := schedule.WindowOf(booking)
	if err != nil {
		return fmt.Errorf("booking %s has unusable window: %w", bookingID, err)
	}

	active, err := w.bookings.GetActiveBookings(ctx)
	if err != nil {
		return err
	}

	exclude := booking.Slot()
	available := schedule.AvailableSlots(window, booking.RateType, w.layout, active, &exclude)

	w.mu.Lock()
	replacement, err := schedule.ChooseReplacement(available, booking.Floor, w.rng)
	w.mu.Unlock()

	if errors.Is(err, schedule.ErrNoSlotAvailable) {
		return w.block(ctx, booking)
	}
	if err != nil {
		return err
	}

	rel := &models.Relocation{
		BookingID:   bookingID,
		State:       models.RelocationAwaitingDecision,
		OfferFloor:  replacement.Floor,
		OfferSlotID: replacement.SlotID,
	}
	if err := w.relocations.CreateRelocation(ctx, rel); err != nil {
		if isIncidentExists(err) {
			return nil // another detector won the race
		}
		return err
	}

	// Relocation offers always reach the holder: no dedup on this path.
	offer := &models.Notification{
		Recipient:   booking.Username,
		Message:     offerMessage(booking, replacement),
		Floor:       replacement.Floor,
		SlotID:      replacement.SlotID,
		BookingKind: booking.BookingKind,
	}
	if err := w.notifier.Emit(ctx, offer); err != nil {
		w.logger.Error().Err(err).Str("booking_id", bookingID).Msg("relocation offer notification failed")
	}

	metrics.IncRelocation("offered")
	w.publish(events.EventRelocationOffered, booking, "")
	return nil
}

// Accept atomically moves the booking to the offered slot. Calling it
// again after success returns the same replacement booking id.
func (w *Workflow) Accept(ctx context.Context, bookingID string) (string, error) {
	rel, err := w.relocations.GetRelocation(ctx, bookingID)
	if err != nil {
		if isNotFound(err) {
			return "", ErrNoIncident
		}
		return "", err
	}

	switch rel.State {
	case models.RelocationRelocated:
		return rel.NewBookingID, nil
	case models.RelocationAwaitingDecision:
	default:
		return "", fmt.Errorf("%w: state %s", ErrIncidentClosed, rel.State)
	}

	old, err := w.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return "", err
	}

	replacement := &models.Booking{
		ID:          uuid.NewString(),
		Username:    old.Username,
		BookingKind: old.BookingKind,
		RateType:    old.RateType,
		Floor:       rel.OfferFloor,
		SlotID:      rel.OfferSlotID,
		EntryDate:   old.EntryDate,
		EntryTime:   old.EntryTime,
		ExitDate:    old.ExitDate,
		ExitTime:    old.ExitTime,
		Price:       old.Price,
		Status:      models.StatusConfirmed,
	}

	if err := w.relocations.AcceptRelocation(ctx, old, replacement); err != nil {
		return "", err
	}

	metrics.IncRelocation("relocated")
	w.publish(events.EventBookingRelocated, replacement, "")
	w.logger.Info().
		Str("booking_id", bookingID).
		Str("new_booking_id", replacement.ID).
		Str("slot", rel.OfferFloor+"-"+rel.OfferSlotID).
		Msg("booking relocated")
	return replacement.ID, nil
}

// Decline atomically cancels the booking and issues exactly one
// compensation coupon. Idempotent after success.
func (w *Workflow) Decline(ctx context.Context, bookingID string) (*models.Coupon, error) {
	rel, err := w.relocations.GetRelocation(ctx, bookingID)
	if err != nil {
		if isNotFound(err) {
			return nil, ErrNoIncident
		}
		return nil, err
	}

	switch rel.State {
	case models.RelocationCompensated:
		// Retry after success hands back the coupon issued the first time.
		if rel.CouponID == "" {
			return nil, nil
		}
		return w.relocations.GetCoupon(ctx, rel.CouponID)
	case models.RelocationAwaitingDecision:
	default:
		return nil, fmt.Errorf("%w: state %s", ErrIncidentClosed, rel.State)
	}

	booking, err := w.bookings.GetBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	coupon := &models.Coupon{
		ID:              uuid.NewString(),
		Username:        booking.Username,
		BookingID:       booking.ID,
		DiscountPercent: models.DiscountForRate(booking.RateType),
		CreatedAt:       now,
		ExpiryDate:      now.AddDate(0, models.CouponValidityMonths, 0),
	}

	if err := w.relocations.DeclineRelocation(ctx, booking, coupon); err != nil {
		return nil, err
	}

	metrics.IncRelocation("compensated")
	w.publish(events.EventCouponIssued, booking, models.CancelReasonCompensated)
	w.logger.Info().
		Str("booking_id", bookingID).
		Str("coupon_id", coupon.ID).
		Int("discount", coupon.DiscountPercent).
		Msg("booking compensated")
	return coupon, nil
}

func (w *Workflow) block(ctx context.Context, booking *models.Booking) error {
	rel := &models.Relocation{
		BookingID: booking.ID,
		State:     models.RelocationBlocked,
	}
	if err := w.relocations.CreateRelocation(ctx, rel); err != nil {
		if isIncidentExists(err) {
			return nil
		}
		return err
	}

	// Operator alert, not auto-retried: a retry without new capacity
	// would only hammer the store.
	for _, operator := range w.operators {
		alert := &models.Notification{
			Recipient: operator,
			Message:   fmt.Sprintf("no replacement slot for booking %s (%s-%s)", booking.ID, booking.Floor, booking.SlotID),
			Floor:     booking.Floor,
			SlotID:    booking.SlotID,
		}
		if err := w.notifier.Emit(ctx, alert); err != nil {
			w.logger.Error().Err(err).Str("operator", operator).Msg("blocked alert failed")
		}
	}

	metrics.IncRelocation("blocked")
	w.publish(events.EventRelocationBlocked, booking, "no capacity")
	return nil
}

func (w *Workflow) publish(eventType string, b *models.Booking, reason string) {
	if w.eventBus == nil {
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
	if err := w.eventBus.PublishJSON(eventType, payload); err != nil {
		w.logger.Error().Err(err).Str("event_type", eventType).Str("booking_id", b.ID).Msg("publish event error")
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

func isIncidentExists(err error) bool {
	return errors.Is(err, store.ErrIncidentExists)
}

func offerMessage(b *models.Booking, replacement models.SlotRef) string {
	return fmt.Sprintf("slot %s-%s is unavailable for your booking; proposed replacement: %s-%s",
		b.Floor, b.SlotID, replacement.Floor, replacement.SlotID)
}
