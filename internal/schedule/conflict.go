// Package schedule implements the pure scheduling computations: booking
// conflict detection over half-open date ranges and calendar aggregation.
// Nothing here performs I/O or holds state; callers fetch the inputs.
package schedule

import (
	"fmt"

	"cloud.google.com/go/civil"

	"github.com/rezkam/stayops/internal/domain"
)

// DateRange is a half-open date interval [Start, End): End itself is
// excluded, so ranges meeting exactly at a date do not overlap.
type DateRange struct {
	Start civil.Date
	End   civil.Date
}

// NewDateRange validates that end is strictly after start.
func NewDateRange(start, end civil.Date) (DateRange, error) {
	if !end.After(start) {
		return DateRange{}, fmt.Errorf("%w: [%s, %s)", domain.ErrInvalidDateRange, start, end)
	}
	return DateRange{Start: start, End: end}, nil
}

// Overlaps reports whether two half-open ranges intersect:
// [a, b) overlaps [c, d) iff a < d && c < b.
func (r DateRange) Overlaps(other DateRange) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// Contains reports whether the date falls inside the range.
func (r DateRange) Contains(d civil.Date) bool {
	return !d.Before(r.Start) && d.Before(r.End)
}

// String renders the range in interval notation.
func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s)", r.Start, r.End)
}

// FindConflict returns the first existing booking whose occupied range
// overlaps the candidate range, or nil if the candidate is free.
//
// Cancelled bookings never conflict. When editing, pass the booking's own ID
// as excludeID so its prior record is not tested against itself.
//
// This is a fast-path check over a snapshot: the store's exclusion
// constraint remains the final authority for concurrent writes.
func FindConflict(candidate DateRange, existing []*domain.Booking, excludeID string) *domain.Booking {
	for _, b := range existing {
		if b.ID == excludeID {
			continue
		}
		if !b.Occupies() {
			continue
		}
		if candidate.Overlaps(DateRange{Start: b.CheckIn, End: b.CheckOut}) {
			return b
		}
	}
	return nil
}

// HasConflict reports whether the candidate range overlaps any existing
// non-cancelled booking.
func HasConflict(candidate DateRange, existing []*domain.Booking, excludeID string) bool {
	return FindConflict(candidate, existing, excludeID) != nil
}
