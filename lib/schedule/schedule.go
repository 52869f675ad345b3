package schedule

import (
	"fmt"
	"time"

	"github.com/fiffu/tickerdigest/lib/models"
)

// NextRunUTC finds the first instant strictly after `from` that lands on
// (hour, minute, 0) wall-clock time in the given timezone. Used when a
// subscription is created or resumed.
func NextRunUTC(freq models.Frequency, tz string, hour, minute int, from time.Time) (time.Time, error) {
	if !freq.Valid() {
		return time.Time{}, fmt.Errorf("unknown frequency %q", freq)
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timezone %q: %w", tz, err)
	}

	local := from.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !candidate.After(local) {
		candidate, err = addPeriod(candidate, freq, hour, minute)
		if err != nil {
			return time.Time{}, err
		}
	}
	return candidate.UTC(), nil
}

// AdvanceFrom computes the occurrence one period after `prev`, pinning the
// time-of-day to (hour, minute, 0) regardless of what time-of-day prev
// encoded. Advancing from the previous scheduled slot (instead of the actual,
// possibly late, execution time) keeps the cadence stable; re-pinning the
// time-of-day self-heals any drift in the stored instant.
func AdvanceFrom(prev time.Time, freq models.Frequency, tz string, hour, minute int) (time.Time, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.Time{}, fmt.Errorf("bad timezone %q: %w", tz, err)
	}

	next, err := addPeriod(prev.In(loc), freq, hour, minute)
	if err != nil {
		return time.Time{}, err
	}
	return next.UTC(), nil
}

// addPeriod does all arithmetic on the local calendar date, so a schedule
// fixed at local 08:00 stays at 08:00 across DST transitions; the UTC offset
// shift falls out of the location conversion.
func addPeriod(t time.Time, freq models.Frequency, hour, minute int) (time.Time, error) {
	loc := t.Location()
	year, month, day := t.Date()

	switch freq {
	case models.FrequencyDaily:
		return time.Date(year, month, day+1, hour, minute, 0, 0, loc), nil

	case models.FrequencyWeekly:
		return time.Date(year, month, day+7, hour, minute, 0, 0, loc), nil

	case models.FrequencyMonthly:
		// Clamp day 29-31 to the target month's length instead of letting
		// time.Date roll the overflow into the month after.
		if last := lastDayOfMonth(year, month+1, loc); day > last {
			day = last
		}
		return time.Date(year, month+1, day, hour, minute, 0, 0, loc), nil

	default:
		return time.Time{}, fmt.Errorf("unknown frequency %q", freq)
	}
}

func lastDayOfMonth(year int, month time.Month, loc *time.Location) int {
	// Day 0 of the following month; time.Date normalizes month overflow.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}
