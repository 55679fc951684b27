package models

// SlotOccupancy is one row of the advisory per-slot occupancy cache.
// Rebuilt from active bookings after every commit; display only.
type SlotOccupancy struct {
	Floor     string `json:"floor"`
	SlotID    string `json:"slot_id"`
	Date      string `json:"date"`
	TimeRange string `json:"time_range,omitempty"`
	Username  string `json:"username"`
	Status    string `json:"status"`
}
