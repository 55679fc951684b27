package schedule

import (
	"testing"
	"time"

	"parkovka/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustWindow(t *testing.T, entryDate time.Time, entryTime string, exitDate time.Time, exitTime string) Window {
	t.Helper()
	w, err := NewWindow(entryDate, entryTime, exitDate, exitTime)
	require.NoError(t, err)
	return w
}

func TestOverlapsHourly(t *testing.T) {
	day := date(2024, 6, 10)

	a := mustWindow(t, day, "10:00", day, "12:00")
	b := mustWindow(t, day, "11:00", day, "13:00")
	c := mustWindow(t, day, "12:00", day, "14:00")

	t.Run("PartialOverlapConflicts", func(t *testing.T) {
		assert.True(t, Overlaps(a, b, models.RateHourly))
	})

	t.Run("Symmetric", func(t *testing.T) {
		assert.Equal(t, Overlaps(a, b, models.RateHourly), Overlaps(b, a, models.RateHourly))
		assert.Equal(t, Overlaps(a, c, models.RateHourly), Overlaps(c, a, models.RateHourly))
	})

	t.Run("SelfOverlap", func(t *testing.T) {
		assert.True(t, Overlaps(a, a, models.RateHourly))
	})

	t.Run("BackToBackDoesNotConflict", func(t *testing.T) {
		// Half-open intervals: 10:00-12:00 then 12:00-14:00 is fine.
		assert.False(t, Overlaps(a, c, models.RateHourly))
		assert.False(t, Overlaps(c, a, models.RateHourly))
	})

	t.Run("DisjointDays", func(t *testing.T) {
		other := mustWindow(t, date(2024, 6, 11), "10:00", date(2024, 6, 11), "12:00")
		assert.False(t, Overlaps(a, other, models.RateHourly))
	})
}

func TestOverlapsDaily(t *testing.T) {
	t.Run("SameDayTurnoverConflicts", func(t *testing.T) {
		// A exits 2024-06-10, B enters 2024-06-10: inclusive bounds,
		// deliberately conservative for date-granular rates.
		a := mustWindow(t, date(2024, 6, 8), "", date(2024, 6, 10), "")
		b := mustWindow(t, date(2024, 6, 10), "", date(2024, 6, 12), "")
		assert.True(t, Overlaps(a, b, models.RateDaily))
		assert.True(t, Overlaps(b, a, models.RateDaily))
	})

	t.Run("TimeOfDayIgnored", func(t *testing.T) {
		a := mustWindow(t, date(2024, 6, 8), "08:00", date(2024, 6, 10), "09:00")
		b := mustWindow(t, date(2024, 6, 10), "18:00", date(2024, 6, 12), "19:00")
		assert.True(t, Overlaps(a, b, models.RateMonthly))
	})

	t.Run("DisjointDatesDoNotConflict", func(t *testing.T) {
		a := mustWindow(t, date(2024, 6, 8), "", date(2024, 6, 10), "")
		b := mustWindow(t, date(2024, 6, 11), "", date(2024, 6, 12), "")
		assert.False(t, Overlaps(a, b, models.RateDaily))
	})
}

func TestNewWindowRejectsInvertedRange(t *testing.T) {
	_, err := NewWindow(date(2024, 6, 10), "12:00", date(2024, 6, 10), "10:00")
	assert.Error(t, err)

	_, err = NewWindow(date(2024, 6, 12), "", date(2024, 6, 10), "")
	assert.Error(t, err)
}

func TestNewWindowRejectsBadTime(t *testing.T) {
	_, err := NewWindow(date(2024, 6, 10), "25:99", date(2024, 6, 10), "10:00")
	assert.Error(t, err)
}
