package models

import "time"

// Coupon is the compensation artifact issued when a holder declines
// relocation. Used is flipped only by a future redemption flow.
type Coupon struct {
	ID              string    `json:"id"`
	Username        string    `json:"username"`
	BookingID       string    `json:"booking_id"`
	DiscountPercent int       `json:"discount_percent"`
	CreatedAt       time.Time `json:"created_at"`
	ExpiryDate      time.Time `json:"expiry_date"`
	Used            bool      `json:"used"`
}
