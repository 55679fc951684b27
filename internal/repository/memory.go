package repository

import (
	"context"
	"sync"
	"time"

	"parkovka/internal/models"
)

// MemoryHoldRepository is the in-process fallback for slot holds and
// incident markers. Holds expire lazily on access.
type MemoryHoldRepository struct {
	mu        sync.Mutex
	holds     map[models.SlotRef]holdEntry
	incidents map[string]time.Time
}

type holdEntry struct {
	username  string
	expiresAt time.Time
}

func NewMemoryHoldRepository() *MemoryHoldRepository {
	return &MemoryHoldRepository{
		holds:     make(map[models.SlotRef]holdEntry),
		incidents: make(map[string]time.Time),
	}
}

func (r *MemoryHoldRepository) AcquireHold(ctx context.Context, ref models.SlotRef, username string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	entry, ok := r.holds[ref]
	if ok && now.Before(entry.expiresAt) && entry.username != username {
		return false, nil
	}

	r.holds[ref] = holdEntry{username: username, expiresAt: now.Add(ttl)}
	return true, nil
}

func (r *MemoryHoldRepository) ReleaseHold(ctx context.Context, ref models.SlotRef, username string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if entry, ok := r.holds[ref]; ok && entry.username == username {
		delete(r.holds, ref)
	}
	return nil
}

func (r *MemoryHoldRepository) MarkIncident(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	if expiresAt, ok := r.incidents[bookingID]; ok && now.Before(expiresAt) {
		return false, nil
	}
	r.incidents[bookingID] = now.Add(ttl)
	return true, nil
}

func (r *MemoryHoldRepository) ClearIncident(ctx context.Context, bookingID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.incidents, bookingID)
	return nil
}
