package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/date"
)

func TestDates_BackwardWithFrontStub(t *testing.T) {
	t.Parallel()

	r := Rule{Frequency: SemiAnnual}
	got, err := r.Dates(date.MustNew(1, 3, 2020), date.MustNew(15, 7, 2021))
	require.NoError(t, err)
	assert.Equal(t, []date.Date{
		date.MustNew(1, 3, 2020),
		date.MustNew(15, 7, 2020),
		date.MustNew(15, 1, 2021),
		date.MustNew(15, 7, 2021),
	}, got)
}

func TestDates_NoDriftAcrossShortMonths(t *testing.T) {
	t.Parallel()

	r := Rule{Frequency: Quarterly}
	got, err := r.Dates(date.MustNew(31, 8, 2023), date.MustNew(31, 8, 2024))
	require.NoError(t, err)
	assert.Equal(t, []date.Date{
		date.MustNew(31, 8, 2023),
		date.MustNew(30, 11, 2023),
		date.MustNew(29, 2, 2024),
		date.MustNew(31, 5, 2024),
		date.MustNew(31, 8, 2024),
	}, got)

	eom := Rule{Frequency: SemiAnnual, EndOfMonth: true}
	got, err = eom.Dates(date.MustNew(28, 2, 2023), date.MustNew(29, 2, 2024))
	require.NoError(t, err)
	assert.Equal(t, []date.Date{
		date.MustNew(28, 2, 2023),
		date.MustNew(31, 8, 2023),
		date.MustNew(29, 2, 2024),
	}, got)
}

func TestGenerate(t *testing.T) {
	t.Parallel()

	r := Rule{Frequency: SemiAnnual, Calendar: calendar.WEEKEND, Convention: calendar.Following}
	periods, err := r.Generate(date.MustNew(1, 3, 2020), date.MustNew(15, 7, 2021))
	require.NoError(t, err)
	require.Len(t, periods, 3)

	first := periods[0]
	assert.True(t, first.IsStub())
	assert.Equal(t, date.MustNew(15, 1, 2020), first.RefStart)
	assert.Equal(t, date.MustNew(15, 7, 2020), first.RefEnd)
	assert.Equal(t, date.MustNew(1, 3, 2020), first.Start)

	// 2021-01-15 is a Friday, 2020-07-15 a Wednesday.
	assert.Equal(t, date.MustNew(15, 1, 2021), periods[1].End)
	assert.False(t, periods[1].IsStub())
	for i := 1; i < len(periods); i++ {
		assert.Equal(t, periods[i-1].End, periods[i].Start)
	}

	// 2022-05-15 is a Sunday.
	p, err := Rule{Frequency: Annual, Calendar: calendar.WEEKEND, Convention: calendar.Following}.
		Generate(date.MustNew(15, 5, 2021), date.MustNew(15, 5, 2022))
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.Equal(t, date.MustNew(16, 5, 2022), p[0].Pay)
	assert.Equal(t, date.MustNew(15, 5, 2022), p[0].RefEnd)
}

func TestGenerate_ZeroFrequency(t *testing.T) {
	t.Parallel()
	p, err := Rule{Frequency: Zero}.Generate(date.MustNew(1, 1, 2020), date.MustNew(1, 1, 2025))
	require.NoError(t, err)
	require.Len(t, p, 1)
	assert.False(t, p[0].IsStub())
}

func TestGenerate_Errors(t *testing.T) {
	t.Parallel()
	d := date.MustNew(1, 1, 2020)
	_, err := Rule{Frequency: Annual}.Generate(d, d)
	assert.ErrorIs(t, err, ErrEmptySchedule)
	_, err = Rule{Frequency: 5}.Generate(d, d.AddYears(1))
	assert.Error(t, err)
}

func TestFrequency(t *testing.T) {
	t.Parallel()
	assert.Equal(t, 2, SemiAnnual.PerYear())
	assert.Equal(t, 0, Zero.PerYear())
	f, err := FromPerYear(4)
	require.NoError(t, err)
	assert.Equal(t, Quarterly, f)
	_, err = FromPerYear(3)
	assert.Error(t, err)
	f, err = ParseFrequency("semi_annual")
	require.NoError(t, err)
	assert.Equal(t, SemiAnnual, f)
}
