package models

import "time"

// FineRecord is persisted once payment is acknowledged. Until then the
// escalator recomputes it on every query.
type FineRecord struct {
	BookingID      string    `json:"booking_id"`
	OverdueMinutes int       `json:"overdue_minutes"`
	Rounds         int       `json:"rounds"`
	FineAmount     float64   `json:"fine_amount"`
	OriginalPrice  float64   `json:"original_price"`
	Paid           bool      `json:"paid"`
	PaidAt         time.Time `json:"paid_at,omitempty"`
}
