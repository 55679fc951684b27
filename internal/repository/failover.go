package repository

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"parkovka/internal/domain"
	"parkovka/internal/models"
)

// FailoverHoldRepository prefers the primary (Redis) and degrades to the
// in-memory fallback when it errors, re-probing after a minute. Holds are
// advisory, so losing them on failover only widens the race window the
// commit transaction already closes.
type FailoverHoldRepository struct {
	primary   domain.HoldRepository
	fallback  domain.HoldRepository
	logger    *zerolog.Logger
	isDown    atomic.Bool
	lastCheck atomic.Int64
}

func NewFailoverHoldRepository(primary, fallback domain.HoldRepository, logger *zerolog.Logger) *FailoverHoldRepository {
	return &FailoverHoldRepository{
		primary:  primary,
		fallback: fallback,
		logger:   logger,
	}
}

func (r *FailoverHoldRepository) AcquireHold(ctx context.Context, ref models.SlotRef, username string, ttl time.Duration) (bool, error) {
	if r.tryPrimary() {
		ok, err := r.primary.AcquireHold(ctx, ref, username, ttl)
		if err == nil {
			r.markUp()
			return ok, nil
		}
		r.markDown(err)
	}
	return r.fallback.AcquireHold(ctx, ref, username, ttl)
}

func (r *FailoverHoldRepository) ReleaseHold(ctx context.Context, ref models.SlotRef, username string) error {
	if r.tryPrimary() {
		err := r.primary.ReleaseHold(ctx, ref, username)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.ReleaseHold(ctx, ref, username)
}

func (r *FailoverHoldRepository) MarkIncident(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	if r.tryPrimary() {
		ok, err := r.primary.MarkIncident(ctx, bookingID, ttl)
		if err == nil {
			r.markUp()
			return ok, nil
		}
		r.markDown(err)
	}
	return r.fallback.MarkIncident(ctx, bookingID, ttl)
}

func (r *FailoverHoldRepository) ClearIncident(ctx context.Context, bookingID string) error {
	if r.tryPrimary() {
		err := r.primary.ClearIncident(ctx, bookingID)
		if err == nil {
			r.markUp()
			return nil
		}
		r.markDown(err)
	}
	return r.fallback.ClearIncident(ctx, bookingID)
}

func (r *FailoverHoldRepository) tryPrimary() bool {
	if !r.isDown.Load() {
		return true
	}
	// Re-probe the primary after a minute of downtime.
	return time.Since(time.Unix(r.lastCheck.Load(), 0)) > time.Minute
}

func (r *FailoverHoldRepository) markUp() {
	r.isDown.Store(false)
}

func (r *FailoverHoldRepository) markDown(err error) {
	r.logger.Error().Err(err).Msg("primary hold repository failed, falling back to memory")
	r.isDown.Store(true)
	r.lastCheck.Store(time.Now().Unix())
}
