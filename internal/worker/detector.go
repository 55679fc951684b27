// Package worker runs the background overstay detector: it scans the
// ledger for hourly bookings past their exit, opens relocation incidents
// for the holders they block, and sends deduplicated entry reminders.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"parkovka/internal/domain"
	"parkovka/internal/models"
	"parkovka/internal/schedule"
	"parkovka/internal/store"
)

// RelocationTrigger is the slice of the workflow the detector needs.
type RelocationTrigger interface {
	Detect(ctx context.Context, bookingID string) error
}

type Detector struct {
	bookings    domain.BookingStore
	workflow    RelocationTrigger
	notifier    domain.Notifier
	interval    time.Duration
	retryPolicy RetryPolicy
	logger      *zerolog.Logger
}

func NewDetector(bookings domain.BookingStore, workflow RelocationTrigger, notifier domain.Notifier, interval time.Duration, retry RetryPolicy, logger *zerolog.Logger) *Detector {
	if interval <= 0 {
		interval = time.Minute
	}
	if retry.MaxRetries == 0 {
		retry.MaxRetries = 5
	}
	if retry.InitialDelay == 0 {
		retry.InitialDelay = 2 * time.Second
	}
	if retry.MaxDelay == 0 {
		retry.MaxDelay = time.Minute
	}
	if retry.Jitter == 0 {
		retry.Jitter = 0.1
	}
	return &Detector{
		bookings:    bookings,
		workflow:    workflow,
		notifier:    notifier,
		interval:    interval,
		retryPolicy: retry,
		logger:      logger,
	}
}

// Start runs the scan loop until the context is cancelled.
func (d *Detector) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(d.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := d.runScan(ctx); err != nil {
					d.logger.Error().Err(err).Msg("detector scan failed")
				}
			}
		}
	}()
}

// runScan is one pass: transient store failures retry with backoff since
// the whole check-then-act sequence is safe to re-run from scratch.
func (d *Detector) runScan(ctx context.Context) error {
	var lastErr error
	for attempt := 1; attempt <= d.retryPolicy.MaxRetries; attempt++ {
		lastErr = d.scanOnce(ctx, time.Now())
		if lastErr == nil {
			return nil
		}
		if !errors.Is(lastErr, store.ErrStoreUnavailable) {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d.retryPolicy.NextDelay(attempt)):
		}
	}
	return lastErr
}

func (d *Detector) scanOnce(ctx context.Context, now time.Time) error {
	overdue, err := d.bookings.GetOverdueHourlyBookings(ctx, now)
	if err != nil {
		return err
	}
	if len(overdue) == 0 {
		return d.sendEntryReminders(ctx, now)
	}

	active, err := d.bookings.GetActiveBookings(ctx)
	if err != nil {
		return err
	}

	// An overstayer makes its slot unusable for whoever holds it next:
	// those bookings are the ones to relocate.
	for _, stale := range overdue {
		for _, blocked := range d.blockedBy(stale, active, now) {
			if err := d.workflow.Detect(ctx, blocked.ID); err != nil {
				d.logger.Error().Err(err).
					Str("booking_id", blocked.ID).
					Str("slot", stale.Floor+"-"+stale.SlotID).
					Msg("relocation detect failed")
			}
		}
	}

	return d.sendEntryReminders(ctx, now)
}

func (d *Detector) blockedBy(stale *models.Booking, active []*models.Booking, now time.Time) []*models.Booking {
	var blocked []*models.Booking
	for _, b := range active {
		if b.ID == stale.ID || b.Floor != stale.Floor || b.SlotID != stale.SlotID {
			continue
		}
		w, err := schedule.WindowOf(b)
		if err != nil {
			continue
		}
		// Only bookings whose window has started or is imminent are
		// actually obstructed by the overstayer.
		if w.Start.Before(now.Add(d.interval)) && w.End.After(now) {
			blocked = append(blocked, b)
		}
	}
	return blocked
}

// sendEntryReminders nudges holders whose booking starts tomorrow. This
// path is deduplicated: the detector may scan many times per day, the
// holder should not hear about it every minute.
func (d *Detector) sendEntryReminders(ctx context.Context, now time.Time) error {
	active, err := d.bookings.GetActiveBookings(ctx)
	if err != nil {
		return err
	}

	tomorrow := now.AddDate(0, 0, 1).Format("2006-01-02")
	for _, b := range active {
		if b.EntryDate.Format("2006-01-02") != tomorrow {
			continue
		}
		reminder := &models.Notification{
			Recipient:   b.Username,
			Message:     fmt.Sprintf("reminder: booking %s-%s starts %s", b.Floor, b.SlotID, tomorrow),
			Floor:       b.Floor,
			SlotID:      b.SlotID,
			BookingKind: b.BookingKind,
		}
		if _, err := d.notifier.EmitDeduped(ctx, reminder); err != nil {
			d.logger.Error().Err(err).Str("booking_id", b.ID).Msg("reminder failed")
		}
	}
	return nil
}

// ReportUnusable is the external-fault entry point: every active booking
// on the slot gets a relocation incident.
func (d *Detector) ReportUnusable(ctx context.Context, ref models.SlotRef) error {
	active, err := d.bookings.GetActiveBookings(ctx)
	if err != nil {
		return err
	}

	for _, b := range active {
		if b.Floor != ref.Floor || b.SlotID != ref.SlotID {
			continue
		}
		if err := d.workflow.Detect(ctx, b.ID); err != nil {
			return err
		}
	}
	return nil
}
