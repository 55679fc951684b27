package models

// Notification is a recipient-scoped alert record. Timestamp is
// milliseconds since epoch, which dedup comparisons rely on.
type Notification struct {
	ID          string `json:"id"`
	Recipient   string `json:"recipient"`
	Message     string `json:"message"`
	Floor       string `json:"floor"`
	SlotID      string `json:"slot_id"`
	BookingKind string `json:"booking_kind"`
	Timestamp   int64  `json:"timestamp"`
	Read        bool   `json:"read"`
}
