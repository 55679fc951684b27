package models

import "time"

const (
	RelocationAwaitingDecision = "awaiting_decision"
	RelocationBlocked          = "blocked"
	RelocationRelocated        = "relocated"
	RelocationCompensated      = "compensated"
)

// Relocation tracks one incident of a booking's slot becoming unusable.
// Keyed by booking id so the guard scopes to the incident, not the slot:
// a later incident on the same slot for a different booking is still handled.
type Relocation struct {
	BookingID    string    `json:"booking_id"`
	State        string    `json:"state"`
	OfferFloor   string    `json:"offer_floor,omitempty"`
	OfferSlotID  string    `json:"offer_slot_id,omitempty"`
	NewBookingID string    `json:"new_booking_id,omitempty"`
	CouponID     string    `json:"coupon_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Terminal reports whether the incident has reached a final state.
func (r *Relocation) Terminal() bool {
	return r.State == RelocationRelocated || r.State == RelocationCompensated || r.State == RelocationBlocked
}
