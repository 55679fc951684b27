package schedule

import "parkovka/internal/models"

// AvailableSlots returns every slot in the static layout with no active
// booking overlapping the candidate window. Runs in O(slots * bookings).
//
// The layout is configuration, never persisted state: a slot's stored
// status is at best a cache and is not consulted here.
//
// exclude names the slot being vacated during relocation; pass nil
// otherwise.
func AvailableSlots(candidate Window, rateType string, layout []models.Floor, active []*models.Booking, exclude *models.SlotRef) []models.SlotRef {
	// Bucket active bookings per slot so each slot only scans its own.
	bySlot := make(map[models.SlotRef][]*models.Booking, len(active))
	for _, b := range active {
		if !b.IsActive() {
			continue
		}
		bySlot[b.Slot()] = append(bySlot[b.Slot()], b)
	}

	var free []models.SlotRef
	for _, floor := range layout {
		for _, slotID := range floor.Slots {
			ref := models.SlotRef{Floor: floor.Name, SlotID: slotID}
			if exclude != nil && ref == *exclude {
				continue
			}
			if slotFree(candidate, rateType, bySlot[ref]) {
				free = append(free, ref)
			}
		}
	}
	return free
}

func slotFree(candidate Window, rateType string, bookings []*models.Booking) bool {
	for _, b := range bookings {
		w, err := WindowOf(b)
		if err != nil {
			// Unparseable ledger rows are treated as occupied rather
			// than silently handing out a possibly taken slot.
			return false
		}
		if Overlaps(candidate, w, rateType) {
			return false
		}
	}
	return true
}
