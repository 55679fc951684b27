package fines

import (
	"testing"
	"time"

	"parkovka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEscalation(t *testing.T) {
	exit := time.Date(2024, 6, 10, 12, 0, 0, 0, time.UTC)

	t.Run("NotOverdue", func(t *testing.T) {
		rec := Compute(exit, exit, 250)
		assert.Equal(t, 0, rec.OverdueMinutes)
		assert.Equal(t, 0, rec.Rounds)
		assert.Equal(t, float64(0), rec.FineAmount)
	})

	t.Run("SixteenMinutesIsOneRound", func(t *testing.T) {
		rec := Compute(exit, exit.Add(16*time.Minute), 250)
		assert.Equal(t, 16, rec.OverdueMinutes)
		assert.Equal(t, 1, rec.Rounds)
		assert.Equal(t, float64(500), rec.FineAmount)
	})

	t.Run("FortyMinutesIsThreeRounds", func(t *testing.T) {
		rec := Compute(exit, exit.Add(40*time.Minute), 250)
		assert.Equal(t, 40, rec.OverdueMinutes)
		assert.Equal(t, 3, rec.Rounds)
		assert.Equal(t, float64(2000), rec.FineAmount)
	})

	t.Run("SubMinuteOverstayIsFree", func(t *testing.T) {
		rec := Compute(exit, exit.Add(30*time.Second), 250)
		assert.Equal(t, 0, rec.OverdueMinutes)
		assert.Equal(t, float64(0), rec.FineAmount)
	})

	t.Run("FractionalAmountRoundedToTwoPlaces", func(t *testing.T) {
		rec := Compute(exit, exit.Add(16*time.Minute), 10.333)
		assert.Equal(t, 1, rec.Rounds)
		assert.Equal(t, 20.67, rec.FineAmount)
	})

	t.Run("IntegralAmountStaysExact", func(t *testing.T) {
		// No forced 2-decimal formatting when the doubling lands on an
		// integer. The asymmetry is part of the contract.
		rec := Compute(exit, exit.Add(16*time.Minute), 125)
		assert.Equal(t, float64(250), rec.FineAmount)
	})

	t.Run("UncappedGrowth", func(t *testing.T) {
		rec := Compute(exit, exit.Add(10*15*time.Minute), 1)
		assert.Equal(t, 10, rec.Rounds)
		assert.Equal(t, float64(1024), rec.FineAmount)
	})

	t.Run("Idempotent", func(t *testing.T) {
		now := exit.Add(37 * time.Minute)
		assert.Equal(t, Compute(exit, now, 250), Compute(exit, now, 250))
	})
}

func TestComputeFor(t *testing.T) {
	exitDay := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	b := &models.Booking{
		ID:        "bk-1",
		RateType:  models.RateHourly,
		EntryDate: exitDay,
		EntryTime: "10:00",
		ExitDate:  exitDay,
		ExitTime:  "12:00",
		Price:     250,
		Status:    models.StatusConfirmed,
	}

	now := time.Date(2024, 6, 10, 12, 16, 0, 0, time.UTC)
	rec, err := ComputeFor(b, now)
	require.NoError(t, err)
	assert.Equal(t, "bk-1", rec.BookingID)
	assert.Equal(t, 16, rec.OverdueMinutes)
	assert.Equal(t, float64(500), rec.FineAmount)
}
