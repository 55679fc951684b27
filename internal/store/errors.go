package store

import "errors"

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrSlotConflict means the slot was taken between selection and
	// commit. The caller should re-fetch availability, never retry blind.
	ErrSlotConflict = errors.New("slot no longer available")

	// ErrDailyCapExceeded means the user already holds the maximum number
	// of active bookings created today.
	ErrDailyCapExceeded = errors.New("daily booking cap exceeded")

	// ErrHourlyCapExceeded means the user already holds the maximum number
	// of hourly bookings for that entry date.
	ErrHourlyCapExceeded = errors.New("hourly booking cap exceeded")

	// ErrVisitorCapExceeded means the resident already has the maximum
	// number of visitor registrations.
	ErrVisitorCapExceeded = errors.New("visitor cap exceeded")

	// ErrConcurrentModification signals an optimistic version mismatch.
	ErrConcurrentModification = errors.New("booking modified concurrently")

	// ErrIncidentExists guards relocation re-entrancy per booking id.
	ErrIncidentExists = errors.New("relocation incident already recorded")

	// ErrInvalidInput covers malformed caller input. Not retryable.
	ErrInvalidInput = errors.New("invalid input")

	// ErrStoreUnavailable marks transient store failures. The whole
	// check-then-act sequence is safe to retry from scratch.
	ErrStoreUnavailable = errors.New("store unavailable")
)
