package postgres

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rezkam/stayops/internal/domain"
)

// === pgtype Conversion Helpers ===

// civilDateToPgtype converts a civil.Date to pgtype.Date. Dates are stored
// as plain DATE columns; no timezone is involved.
func civilDateToPgtype(d civil.Date) pgtype.Date {
	return pgtype.Date{
		Time:  time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC),
		Valid: true,
	}
}

// civilDatePtrToPgtype converts *civil.Date to pgtype.Date (NULL for nil).
func civilDatePtrToPgtype(d *civil.Date) pgtype.Date {
	if d == nil {
		return pgtype.Date{Valid: false}
	}
	return civilDateToPgtype(*d)
}

// pgtypeToCivilDate converts pgtype.Date to civil.Date (zero if invalid).
func pgtypeToCivilDate(d pgtype.Date) civil.Date {
	if !d.Valid {
		return civil.Date{}
	}
	return civil.DateOf(d.Time)
}

// pgtypeToCivilDatePtr converts pgtype.Date to *civil.Date (nil if invalid).
func pgtypeToCivilDatePtr(d pgtype.Date) *civil.Date {
	if !d.Valid {
		return nil
	}
	date := civil.DateOf(d.Time)
	return &date
}

// timeToPgtype converts time.Time to pgtype.Timestamptz.
func timeToPgtype(t time.Time) pgtype.Timestamptz {
	return pgtype.Timestamptz{Time: t, Valid: true}
}

// pgtypeToTime converts pgtype.Timestamptz to time.Time (zero if invalid).
// Always returns time in UTC for consistent timezone handling.
func pgtypeToTime(t pgtype.Timestamptz) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time.UTC()
}

// === Cadence Conversions ===

// cadenceToDB splits an optional cadence into nullable unit/interval columns.
func cadenceToDB(c *domain.CadenceSpec) (unit *string, interval *int) {
	if c == nil {
		return nil, nil
	}
	u := string(c.Unit)
	i := c.Interval
	return &u, &i
}

// dbToCadence rebuilds an optional cadence from nullable columns. Both
// columns are NULL together per the schema check constraint.
func dbToCadence(unit *string, interval *int) *domain.CadenceSpec {
	if unit == nil || interval == nil {
		return nil
	}
	return &domain.CadenceSpec{
		Unit:     domain.CadenceUnit(*unit),
		Interval: *interval,
	}
}
