// Package recurring implements next-occurrence date arithmetic for cadences.
//
// All arithmetic is done on civil dates: adding a month to Jan 31 lands on
// the last day of February, never on March 2. The calculator is pure and
// holds no state.
package recurring

import (
	"time"

	"cloud.google.com/go/civil"

	"github.com/rezkam/stayops/internal/domain"
)

// NextOccurrence returns the next occurrence strictly after from for the
// given cadence.
//
// Preconditions (caller-enforced, see CadenceSpec.Validate): the cadence has
// a known unit and Interval >= 1. One-off obligations have no cadence and
// must branch before calling. Given valid input the result is always
// strictly later than from.
//
// Month and year units clamp the day-of-month to the last valid day of the
// target month: Jan 31 + 1 month is Feb 28 (Feb 29 in leap years), and
// Feb 29 + 1 year is Feb 28.
func NextOccurrence(cadence domain.CadenceSpec, from civil.Date) civil.Date {
	switch cadence.Unit {
	case domain.CadenceDay:
		return from.AddDays(cadence.Interval)
	case domain.CadenceWeek:
		return from.AddDays(7 * cadence.Interval)
	case domain.CadenceMonth:
		return addMonthsClamped(from, cadence.Interval)
	case domain.CadenceYear:
		return addMonthsClamped(from, 12*cadence.Interval)
	}
	// Unknown unit is a precondition violation; advancing by one day keeps
	// the strict-monotonic guarantee rather than looping forever upstream.
	return from.AddDays(1)
}

// maxOccurrences bounds window expansion so a pathological window can never
// produce an unbounded walk.
const maxOccurrences = 1000

// OccurrencesBetween returns the cadence's occurrence dates within
// [start, end], walking forward from the anchor date. The anchor itself is
// included when it falls inside the window.
//
// The walk stops at maxOccurrences dates; truncated reports whether the
// window held more occurrences than the bound allowed, so callers can tell
// a clipped expansion from a complete one.
func OccurrencesBetween(cadence domain.CadenceSpec, anchor, start, end civil.Date) (occurrences []civil.Date, truncated bool) {
	current := anchor
	for !current.After(end) {
		if len(occurrences) == maxOccurrences {
			return occurrences, true
		}
		if !current.Before(start) {
			occurrences = append(occurrences, current)
		}
		current = NextOccurrence(cadence, current)
	}

	return occurrences, false
}

// addMonthsClamped adds n months, clamping the day-of-month to the target
// month's length. time.Time.AddDate is unsuitable here: it normalizes
// overflow (Jan 31 + 1 month = Mar 2/3) instead of clamping.
func addMonthsClamped(d civil.Date, n int) civil.Date {
	months := int(d.Month) - 1 + n
	year := d.Year + months/12
	month := time.Month(months%12 + 1)

	day := d.Day
	if last := daysIn(year, month); day > last {
		day = last
	}

	return civil.Date{Year: year, Month: month, Day: day}
}

// daysIn returns the number of days in the given month.
// Day 0 of the following month normalizes to this month's last day.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
