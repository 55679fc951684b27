package models

import "time"

type Booking struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	BookingKind  string    `json:"booking_kind"` // resident, visitor
	RateType     string    `json:"rate_type"`    // hourly, daily, monthly
	Floor        string    `json:"floor"`
	SlotID       string    `json:"slot_id"`
	EntryDate    time.Time `json:"entry_date"`
	EntryTime    string    `json:"entry_time,omitempty"` // "HH:MM", empty for daily/monthly
	ExitDate     time.Time `json:"exit_date"`
	ExitTime     string    `json:"exit_time,omitempty"`
	Price        float64   `json:"price"`
	Status       string    `json:"status"` // confirmed, cancelled
	CancelReason string    `json:"cancel_reason,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
	Version      int64     `json:"version"`
}

// IsActive reports whether the booking participates in conflict checks
// and fine calculation.
func (b *Booking) IsActive() bool {
	return b.Status == StatusConfirmed
}

// Slot returns the booking's slot reference.
func (b *Booking) Slot() SlotRef {
	return SlotRef{Floor: b.Floor, SlotID: b.SlotID}
}

// SlotRef identifies a parking slot by floor and slot id.
type SlotRef struct {
	Floor  string `json:"floor" yaml:"floor"`
	SlotID string `json:"slot_id" yaml:"slot_id"`
}

// Floor describes one level of the static floor layout.
type Floor struct {
	Name  string   `yaml:"name"`
	Slots []string `yaml:"slots"`
}
