package recurring

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

func TestNextOccurrence(t *testing.T) {
	tests := []struct {
		name    string
		cadence domain.CadenceSpec
		from    civil.Date
		want    civil.Date
	}{
		{
			name:    "daily",
			cadence: domain.CadenceSpec{Unit: domain.CadenceDay, Interval: 1},
			from:    date(2024, 3, 10),
			want:    date(2024, 3, 11),
		},
		{
			name:    "every 3 days crosses month boundary",
			cadence: domain.CadenceSpec{Unit: domain.CadenceDay, Interval: 3},
			from:    date(2024, 3, 30),
			want:    date(2024, 4, 2),
		},
		{
			name:    "weekly",
			cadence: domain.CadenceSpec{Unit: domain.CadenceWeek, Interval: 1},
			from:    date(2024, 3, 10),
			want:    date(2024, 3, 17),
		},
		{
			name:    "every 2 weeks",
			cadence: domain.CadenceSpec{Unit: domain.CadenceWeek, Interval: 2},
			from:    date(2024, 12, 23),
			want:    date(2025, 1, 6),
		},
		{
			name:    "monthly mid-month",
			cadence: domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 1},
			from:    date(2024, 4, 15),
			want:    date(2024, 5, 15),
		},
		{
			name:    "monthly clamps Jan 31 to Feb 29 in leap year",
			cadence: domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 1},
			from:    date(2024, 1, 31),
			want:    date(2024, 2, 29),
		},
		{
			name:    "monthly clamps Jan 31 to Feb 28 in non-leap year",
			cadence: domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 1},
			from:    date(2025, 1, 31),
			want:    date(2025, 2, 28),
		},
		{
			name:    "monthly clamps May 31 to Jun 30",
			cadence: domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 1},
			from:    date(2024, 5, 31),
			want:    date(2024, 6, 30),
		},
		{
			name:    "every 3 months from Jan 31 lands on Apr 30",
			cadence: domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 3},
			from:    date(2024, 1, 31),
			want:    date(2024, 4, 30),
		},
		{
			name:    "monthly across year boundary",
			cadence: domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 2},
			from:    date(2024, 11, 30),
			want:    date(2025, 1, 30),
		},
		{
			name:    "yearly",
			cadence: domain.CadenceSpec{Unit: domain.CadenceYear, Interval: 1},
			from:    date(2024, 6, 1),
			want:    date(2025, 6, 1),
		},
		{
			name:    "yearly clamps Feb 29 to Feb 28",
			cadence: domain.CadenceSpec{Unit: domain.CadenceYear, Interval: 1},
			from:    date(2024, 2, 29),
			want:    date(2025, 2, 28),
		},
		{
			name:    "every 4 years keeps Feb 29 on leap years",
			cadence: domain.CadenceSpec{Unit: domain.CadenceYear, Interval: 4},
			from:    date(2024, 2, 29),
			want:    date(2028, 2, 29),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextOccurrence(tt.cadence, tt.from)
			assert.Equal(t, tt.want, got)
		})
	}
}

// Every valid cadence must advance strictly past the reference date.
func TestNextOccurrenceStrictlyAdvances(t *testing.T) {
	froms := []civil.Date{
		date(2024, 1, 1),
		date(2024, 1, 31),
		date(2024, 2, 29),
		date(2024, 12, 31),
		date(2025, 2, 28),
	}
	units := []domain.CadenceUnit{
		domain.CadenceDay, domain.CadenceWeek, domain.CadenceMonth, domain.CadenceYear,
	}

	for _, from := range froms {
		for _, unit := range units {
			for _, interval := range []int{1, 2, 7, 13} {
				cadence := domain.CadenceSpec{Unit: unit, Interval: interval}
				next := NextOccurrence(cadence, from)
				require.True(t, next.After(from),
					"cadence %s from %s produced %s", cadence, from, next)
			}
		}
	}
}

func TestOccurrencesBetween(t *testing.T) {
	t.Run("weekly occurrences inside window", func(t *testing.T) {
		cadence := domain.CadenceSpec{Unit: domain.CadenceWeek, Interval: 1}
		got, truncated := OccurrencesBetween(cadence, date(2024, 3, 1), date(2024, 3, 1), date(2024, 3, 31))

		want := []civil.Date{
			date(2024, 3, 1), date(2024, 3, 8), date(2024, 3, 15),
			date(2024, 3, 22), date(2024, 3, 29),
		}
		assert.Equal(t, want, got)
		assert.False(t, truncated)
	})

	t.Run("anchor before window is skipped, walk continues", func(t *testing.T) {
		cadence := domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 1}
		got, truncated := OccurrencesBetween(cadence, date(2024, 1, 31), date(2024, 3, 1), date(2024, 4, 30))

		want := []civil.Date{date(2024, 3, 31), date(2024, 4, 30)}
		assert.Equal(t, want, got)
		assert.False(t, truncated)
	})

	t.Run("window before anchor is empty", func(t *testing.T) {
		cadence := domain.CadenceSpec{Unit: domain.CadenceDay, Interval: 1}
		got, truncated := OccurrencesBetween(cadence, date(2024, 6, 1), date(2024, 1, 1), date(2024, 1, 31))
		assert.Empty(t, got)
		assert.False(t, truncated)
	})

	t.Run("walk is bounded and reports the clip", func(t *testing.T) {
		cadence := domain.CadenceSpec{Unit: domain.CadenceDay, Interval: 1}
		got, truncated := OccurrencesBetween(cadence, date(2000, 1, 1), date(2000, 1, 1), date(2100, 1, 1))
		assert.Len(t, got, maxOccurrences)
		assert.True(t, truncated)
	})

	t.Run("walk that exactly fills the bound is complete", func(t *testing.T) {
		cadence := domain.CadenceSpec{Unit: domain.CadenceDay, Interval: 1}
		got, truncated := OccurrencesBetween(cadence, date(2000, 1, 1), date(2000, 1, 1), date(2000, 1, 1).AddDays(maxOccurrences-1))
		assert.Len(t, got, maxOccurrences)
		assert.False(t, truncated)
	})
}
