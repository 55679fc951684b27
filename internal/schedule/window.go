package schedule

import (
	"fmt"
	"time"

	"parkovka/internal/models"
)

// Window is one booking interval. Start and End carry full date+time
// precision; date-granular rate types ignore the time-of-day part.
type Window struct {
	Start time.Time
	End   time.Time
}

// NewWindow builds a window from calendar dates and optional "HH:MM" times.
// Empty times resolve to midnight, which is what date-granular comparison
// expects.
func NewWindow(entryDate time.Time, entryTime string, exitDate time.Time, exitTime string) (Window, error) {
	start, err := at(entryDate, entryTime)
	if err != nil {
		return Window{}, fmt.Errorf("invalid entry time: %w", err)
	}
	end, err := at(exitDate, exitTime)
	if err != nil {
		return Window{}, fmt.Errorf("invalid exit time: %w", err)
	}
	if end.Before(start) {
		return Window{}, fmt.Errorf("exit %s before entry %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}
	return Window{Start: start, End: end}, nil
}

// WindowOf resolves a booking's interval.
func WindowOf(b *models.Booking) (Window, error) {
	return NewWindow(b.EntryDate, b.EntryTime, b.ExitDate, b.ExitTime)
}

func at(date time.Time, hhmm string) (time.Time, error) {
	y, m, d := date.Date()
	if hhmm == "" {
		return time.Date(y, m, d, 0, 0, 0, 0, date.Location()), nil
	}
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(y, m, d, t.Hour(), t.Minute(), 0, 0, date.Location()), nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
