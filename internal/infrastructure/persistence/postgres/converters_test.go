package postgres

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezkam/stayops/internal/domain"
)

func TestCivilDateConversion(t *testing.T) {
	d := civil.Date{Year: 2024, Month: time.February, Day: 29}

	pg := civilDateToPgtype(d)
	require.True(t, pg.Valid)
	assert.Equal(t, d, pgtypeToCivilDate(pg))

	assert.Equal(t, civil.Date{}, pgtypeToCivilDate(pgtype.Date{Valid: false}))
	assert.Nil(t, pgtypeToCivilDatePtr(pgtype.Date{Valid: false}))

	got := pgtypeToCivilDatePtr(pg)
	require.NotNil(t, got)
	assert.Equal(t, d, *got)

	assert.False(t, civilDatePtrToPgtype(nil).Valid)
}

func TestCadenceConversion(t *testing.T) {
	unit, interval := cadenceToDB(nil)
	assert.Nil(t, unit)
	assert.Nil(t, interval)
	assert.Nil(t, dbToCadence(nil, nil))

	spec := &domain.CadenceSpec{Unit: domain.CadenceMonth, Interval: 3}
	unit, interval = cadenceToDB(spec)
	require.NotNil(t, unit)
	require.NotNil(t, interval)
	assert.Equal(t, "month", *unit)
	assert.Equal(t, 3, *interval)

	back := dbToCadence(unit, interval)
	require.NotNil(t, back)
	assert.Equal(t, *spec, *back)

	// A half-null pair means no cadence; the schema forbids it anyway.
	assert.Nil(t, dbToCadence(unit, nil))
}

func TestParseEtag(t *testing.T) {
	v, err := parseEtag(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	etag := "4"
	v, err = parseEtag(&etag)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 4, *v)

	for _, bad := range []string{"", "abc", "0", "-1"} {
		s := bad
		_, err := parseEtag(&s)
		assert.ErrorIs(t, err, domain.ErrInvalidEtagFormat, "etag %q", bad)
	}
}
