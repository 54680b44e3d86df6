package engine

import (
	"time"

	"bilancio/internal/core"
)

// ProjectNextOccurrence forecasts the next date a schedule should fire on
// or after asOf. It returns false for an inactive schedule, for one whose
// end date has already passed, and for one whose projection would land
// past its end date.
//
// Monthly and yearly steps use a drifting last-valid-day clamp: each step
// adds one calendar unit with the day clamped to the target month's
// length, and later steps start from the clamped date. A monthly series
// anchored on Jan 31 therefore runs Jan 31 -> Feb 29 -> Mar 29 in a leap
// year. The rule is applied consistently everywhere a date is advanced,
// including the recurring worker, so the forecast always agrees with what
// the worker will materialize.
//
// This is a read-only forecast. Persisting an advanced next occurrence is
// the recurring worker's job alone; doing it here too would double-process.
func ProjectNextOccurrence(s core.RecurringSchedule, asOf core.Date) (core.Date, bool) {
	if !s.Active {
		return core.Date{}, false
	}
	if !s.EndDate.IsZero() && asOf.After(s.EndDate.Time) {
		return core.Date{}, false
	}

	next := s.NextOccurrence
	if next.IsZero() {
		next = s.StartDate
	}

	for next.Before(asOf.Time) {
		stepped, ok := NextAfter(next, s.Frequency)
		if !ok {
			return core.Date{}, false
		}
		next = stepped
	}

	if !s.EndDate.IsZero() && next.After(s.EndDate.Time) {
		return core.Date{}, false
	}
	return next, true
}

// NextAfter advances a date by one period. Returns false for an unknown
// frequency rather than looping forever.
func NextAfter(d core.Date, f core.Frequency) (core.Date, bool) {
	switch f {
	case core.Daily:
		return core.DateOf(d.AddDate(0, 0, 1)), true
	case core.Weekly:
		return core.DateOf(d.AddDate(0, 0, 7)), true
	case core.Monthly:
		return addMonthsClamped(d, 1), true
	case core.Yearly:
		return addYearsClamped(d, 1), true
	default:
		return core.Date{}, false
	}
}

// ComputeEndDate derives an end date from a duration in the schedule entry
// form (for example a 30-year mortgage): start plus years, then months,
// each addition clamped like the recurrence steps.
func ComputeEndDate(start core.Date, years, months int) core.Date {
	d := addYearsClamped(start, years)
	return addMonthsClamped(d, months)
}

// addMonthsClamped adds months keeping the day of month, clamped to the
// last valid day of the target month (Jan 31 +1 -> Feb 29 in a leap year).
// time.AddDate would normalize the overflow into the following month
// instead, which is never what a billing cadence wants.
func addMonthsClamped(d core.Date, months int) core.Date {
	year, month := d.Year(), d.Month()+months
	for month > 12 {
		month -= 12
		year++
	}
	for month < 1 {
		month += 12
		year--
	}
	day := d.Day()
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

func addYearsClamped(d core.Date, years int) core.Date {
	year := d.Year() + years
	day := d.Day()
	if last := lastDayOfMonth(year, d.Month()); day > last {
		day = last
	}
	return core.NewDate(year, d.Month(), day)
}

func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
