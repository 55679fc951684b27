package schedule

import "parkovka/internal/models"

// Overlaps reports whether two windows conflict under the given rate type.
//
// Hourly bookings compare at full date+time precision with half-open
// intervals, so back-to-back bookings on the same slot do not conflict.
// Daily and monthly bookings compare at date granularity with inclusive
// bounds: same-day turnover conflicts. That asymmetry is deliberate.
//
// Callers must filter cancelled bookings before calling.
func Overlaps(a, b Window, rateType string) bool {
	if rateType == models.RateHourly {
		return a.Start.Before(b.End) && a.End.After(b.Start)
	}

	aEntry, aExit := dateOnly(a.Start), dateOnly(a.End)
	bEntry, bExit := dateOnly(b.Start), dateOnly(b.End)
	return !aEntry.After(bExit) && !aExit.Before(bEntry)
}
