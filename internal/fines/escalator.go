// Package fines computes overstay penalties. The calculation is pure:
// persisting a FineRecord is a separate step taken only when payment is
// acknowledged.
package fines

import (
	"math"
	"time"

	"parkovka/internal/models"
	"parkovka/internal/schedule"
)

// Compute derives the escalating penalty for a booking overdue since exit.
//
// Each started 15-minute round doubles the multiplier on the original
// price. Growth is uncapped. The amount is rounded to 2 decimal places
// only when it is non-integral; integral results stay exact.
func Compute(exit, now time.Time, originalPrice float64) models.FineRecord {
	rec := models.FineRecord{OriginalPrice: originalPrice}

	overdue := now.Sub(exit)
	if overdue <= 0 {
		return rec
	}
	rec.OverdueMinutes = int(overdue.Minutes())
	if rec.OverdueMinutes == 0 {
		return rec
	}

	// Round-to-nearest, not ceil: a 16 minute overstay is one round,
	// 40 minutes is three. Preserved exactly for compatibility.
	rec.Rounds = int(math.Round(float64(rec.OverdueMinutes) / models.FineRoundMinutes))
	if rec.Rounds == 0 {
		return rec
	}

	amount := originalPrice * math.Pow(2, float64(rec.Rounds))
	if amount != math.Trunc(amount) {
		amount = math.Round(amount*100) / 100
	}
	rec.FineAmount = amount
	return rec
}

// ComputeFor resolves the booking's exit moment and delegates to Compute.
func ComputeFor(b *models.Booking, now time.Time) (models.FineRecord, error) {
	w, err := schedule.WindowOf(b)
	if err != nil {
		return models.FineRecord{}, err
	}
	rec := Compute(w.End, now, b.Price)
	rec.BookingID = b.ID
	return rec, nil
}
