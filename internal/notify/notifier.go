package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"parkovka/internal/domain"
	"parkovka/internal/events"
	"parkovka/internal/metrics"
	"parkovka/internal/models"
)

// Notifier writes alerts to the notification ledger. Two paths exist on
// purpose: relocation offers bypass dedup (the holder must always see
// them), periodic reminders go through it.
type Notifier struct {
	store    domain.NotificationStore
	eventBus domain.EventPublisher
	limiter  *rate.Limiter
	cooldown time.Duration
	logger   *zerolog.Logger
}

func New(store domain.NotificationStore, eventBus domain.EventPublisher, limiter *rate.Limiter, logger *zerolog.Logger) *Notifier {
	return &Notifier{
		store:    store,
		eventBus: eventBus,
		limiter:  limiter,
		cooldown: models.DedupCooldown,
		logger:   logger,
	}
}

// Emit stores the notification without any duplicate check.
func (n *Notifier) Emit(ctx context.Context, notif *models.Notification) error {
	if notif.Recipient == "" || notif.Message == "" {
		return fmt.Errorf("notification recipient and message are required")
	}
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("notification rate limiter: %w", err)
		}
	}

	if notif.ID == "" {
		notif.ID = uuid.NewString()
	}
	if notif.Timestamp == 0 {
		notif.Timestamp = time.Now().UnixMilli()
	}

	if err := n.store.CreateNotification(ctx, notif); err != nil {
		return err
	}
	metrics.IncNotification("emitted")
	n.publish(notif)
	return nil
}

// EmitDeduped stores the notification unless a duplicate exists inside the
// cooldown window. Returns false when suppressed.
func (n *Notifier) EmitDeduped(ctx context.Context, notif *models.Notification) (bool, error) {
	if notif.Timestamp == 0 {
		notif.Timestamp = time.Now().UnixMilli()
	}

	since := time.UnixMilli(notif.Timestamp).Add(-n.cooldown)
	recent, err := n.store.GetRecentNotifications(ctx, notif.Recipient, since)
	if err != nil {
		return false, err
	}

	if !ShouldEmit(notif, recent, n.cooldown.Milliseconds()) {
		metrics.IncNotification("suppressed")
		n.logger.Debug().
			Str("recipient", notif.Recipient).
			Str("slot_id", notif.SlotID).
			Msg("duplicate notification suppressed")
		return false, nil
	}

	if err := n.Emit(ctx, notif); err != nil {
		return false, err
	}
	return true, nil
}

func (n *Notifier) publish(notif *models.Notification) {
	if n.eventBus == nil {
		return
	}
	if err := n.eventBus.PublishJSON(events.EventNotificationSent, notif); err != nil {
		n.logger.Error().Err(err).Str("notification_id", notif.ID).Msg("publish event error")
	}
}
