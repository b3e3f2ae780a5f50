package schedule

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stayops/internal/domain"
)

func date(y int, m int, d int) civil.Date {
	return civil.Date{Year: y, Month: time.Month(m), Day: d}
}

func booking(id string, checkIn, checkOut civil.Date, status domain.BookingStatus) *domain.Booking {
	return &domain.Booking{
		ID:         id,
		PropertyID: "prop-1",
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     status,
	}
}

func TestNewDateRange(t *testing.T) {
	_, err := NewDateRange(date(2024, 6, 1), date(2024, 6, 5))
	require.NoError(t, err)

	_, err = NewDateRange(date(2024, 6, 5), date(2024, 6, 5))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)

	_, err = NewDateRange(date(2024, 6, 5), date(2024, 6, 1))
	assert.ErrorIs(t, err, domain.ErrInvalidDateRange)
}

func TestFindConflict(t *testing.T) {
	existingA := booking("a", date(2024, 6, 1), date(2024, 6, 5), domain.BookingStatusConfirmed)

	t.Run("overlapping candidate conflicts", func(t *testing.T) {
		candidate := DateRange{Start: date(2024, 6, 4), End: date(2024, 6, 8)}
		got := FindConflict(candidate, []*domain.Booking{existingA}, "")
		require.NotNil(t, got)
		assert.Equal(t, "a", got.ID)
	})

	t.Run("back-to-back stay does not conflict", func(t *testing.T) {
		// Check-out is exclusive: arriving on another stay's check-out day is legal.
		candidate := DateRange{Start: date(2024, 6, 5), End: date(2024, 6, 8)}
		assert.Nil(t, FindConflict(candidate, []*domain.Booking{existingA}, ""))
	})

	t.Run("candidate ending on existing check-in does not conflict", func(t *testing.T) {
		candidate := DateRange{Start: date(2024, 5, 28), End: date(2024, 6, 1)}
		assert.Nil(t, FindConflict(candidate, []*domain.Booking{existingA}, ""))
	})

	t.Run("candidate containing existing conflicts", func(t *testing.T) {
		candidate := DateRange{Start: date(2024, 5, 30), End: date(2024, 6, 10)}
		assert.NotNil(t, FindConflict(candidate, []*domain.Booking{existingA}, ""))
	})

	t.Run("cancelled bookings never conflict", func(t *testing.T) {
		cancelled := booking("c", date(2024, 6, 1), date(2024, 6, 5), domain.BookingStatusCancelled)
		candidate := DateRange{Start: date(2024, 6, 2), End: date(2024, 6, 4)}
		assert.Nil(t, FindConflict(candidate, []*domain.Booking{cancelled}, ""))
	})

	t.Run("completed bookings still occupy their range", func(t *testing.T) {
		completed := booking("d", date(2024, 6, 1), date(2024, 6, 5), domain.BookingStatusCompleted)
		candidate := DateRange{Start: date(2024, 6, 2), End: date(2024, 6, 4)}
		assert.NotNil(t, FindConflict(candidate, []*domain.Booking{completed}, ""))
	})

	t.Run("editing excludes the booking's own record", func(t *testing.T) {
		candidate := DateRange{Start: date(2024, 6, 2), End: date(2024, 6, 6)}
		assert.Nil(t, FindConflict(candidate, []*domain.Booking{existingA}, "a"))
	})

	t.Run("first conflict is returned", func(t *testing.T) {
		other := booking("b", date(2024, 6, 7), date(2024, 6, 9), domain.BookingStatusConfirmed)
		candidate := DateRange{Start: date(2024, 6, 4), End: date(2024, 6, 8)}
		got := FindConflict(candidate, []*domain.Booking{existingA, other}, "")
		require.NotNil(t, got)
		assert.Equal(t, "a", got.ID)
	})
}

// Overlap must be symmetric: A conflicts with B iff B conflicts with A.
func TestOverlapSymmetry(t *testing.T) {
	ranges := []DateRange{
		{Start: date(2024, 6, 1), End: date(2024, 6, 5)},
		{Start: date(2024, 6, 4), End: date(2024, 6, 8)},
		{Start: date(2024, 6, 5), End: date(2024, 6, 8)},
		{Start: date(2024, 5, 1), End: date(2024, 7, 1)},
		{Start: date(2024, 6, 2), End: date(2024, 6, 3)},
	}

	for _, a := range ranges {
		for _, b := range ranges {
			assert.Equal(t, a.Overlaps(b), b.Overlaps(a),
				"overlap not symmetric for %s and %s", a, b)
		}
	}
}
