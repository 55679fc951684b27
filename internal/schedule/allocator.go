package schedule

import (
	"errors"
	"math/rand"

	"parkovka/internal/models"
)

// ErrNoSlotAvailable means the allocator exhausted every candidate slot.
// Callers surface this as a blocked incident; retrying without new
// information only hammers the store.
var ErrNoSlotAvailable = errors.New("no replacement slot available")

// ChooseReplacement picks a replacement slot, preferring the same floor as
// the vacated booking. Selection within a partition is uniformly random;
// rng is injected so tests stay deterministic.
func ChooseReplacement(available []models.SlotRef, preferredFloor string, rng *rand.Rand) (models.SlotRef, error) {
	var sameFloor, otherFloor []models.SlotRef
	for _, ref := range available {
		if ref.Floor == preferredFloor {
			sameFloor = append(sameFloor, ref)
		} else {
			otherFloor = append(otherFloor, ref)
		}
	}

	switch {
	case len(sameFloor) > 0:
		return sameFloor[rng.Intn(len(sameFloor))], nil
	case len(otherFloor) > 0:
		return otherFloor[rng.Intn(len(otherFloor))], nil
	default:
		return models.SlotRef{}, ErrNoSlotAvailable
	}
}
