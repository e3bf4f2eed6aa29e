package credit

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/schedule"
)

var semiISDA = curve.SwapConvention{
	Frequency:  schedule.SemiAnnual,
	DayCount:   daycount.ThirtyE360ISDA,
	Calendar:   calendar.WEEKEND,
	Convention: calendar.ModifiedFollowing,
}

// swapCurve is a single curve from 1Y-5Y par swaps.
func swapCurve(t *testing.T, valuation date.Date) *curve.Curve {
	t.Helper()
	var swaps []curve.Swap
	for i, r := range []float64{0.0502, 0.0502, 0.0501, 0.0502, 0.0501} {
		s, err := curve.ParSwap(valuation, []string{"1Y", "2Y", "3Y", "4Y", "5Y"}[i], r, semiISDA)
		require.NoError(t, err)
		swaps = append(swaps, s)
	}
	c, err := curve.Bootstrap(valuation, nil, swaps)
	require.NoError(t, err)
	return c
}

func TestBootstrap_SingleContractRepricesParSpread(t *testing.T) {
	t.Parallel()

	valuation := date.MustNew(20, 7, 2007)
	discount := swapCurve(t, valuation)
	cds := Standard(valuation, date.MustNew(29, 6, 2010), 0.0048375)

	cv, err := Bootstrap(valuation, []CDS{cds}, discount, 0.40, WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)

	spread, err := cds.ParSpread(cv)
	require.NoError(t, err)
	assert.InDelta(t, 0.0048375, spread, 1e-6)

	v, err := cds.Value(cv, 1e7)
	require.NoError(t, err)
	assert.InDelta(t, 0, v, 1e-4)

	assert.Equal(t, 1.0, cv.SurvivalProbability(0))
	assert.Less(t, cv.SurvivalProbability(2), 1.0)
	assert.Greater(t, cv.HazardRate(1), 0.0)
	assert.Equal(t, 0.40, cv.RecoveryRate())
	assert.Same(t, discount, cv.DiscountCurve())

	// Credit triangle.
	assert.InDelta(t, 0.0048375/0.6, cv.HazardRate(1), 2e-4)
}

func fullIssuerContracts(valuation date.Date) []CDS {
	months := []int{6, 12, 24, 36, 48, 60, 84, 120}
	coupons := []float64{0.005743, 0.007497, 0.011132, 0.013932, 0.015764, 0.017366, 0.020928, 0.022835}
	out := make([]CDS, len(months))
	for i := range months {
		out[i] = Standard(valuation, valuation.NextCDSDate(months[i]), coupons[i])
	}
	// Deliberately unsorted.
	out[0], out[5] = out[5], out[0]
	return out
}

func TestBootstrap_TermStructure(t *testing.T) {
	t.Parallel()

	valuation := date.MustNew(20, 6, 2008)
	discount := swapCurve(t, valuation)
	contracts := fullIssuerContracts(valuation)

	cv, err := Bootstrap(valuation, contracts, discount, 0.40)
	require.NoError(t, err)

	for _, c := range contracts {
		spread, err := c.ParSpread(cv)
		require.NoError(t, err)
		assert.InDelta(t, c.Coupon, spread, 1e-6, "maturity %s", c.Maturity)
	}

	times := cv.Times()
	qs := cv.Survivals()
	require.Len(t, qs, len(contracts))
	prev := 1.0
	for i, q := range qs {
		assert.LessOrEqual(t, q, prev)
		assert.GreaterOrEqual(t, q, 0.0)
		assert.GreaterOrEqual(t, cv.HazardRate(times[i]), 0.0)
		prev = q
	}
	for x := 0.0; x < 12; x += 0.1 {
		assert.LessOrEqual(t, cv.SurvivalProbability(x+0.1), cv.SurvivalProbability(x))
	}
	assert.InDelta(t, 1-cv.SurvivalProbability(5), cv.DefaultProbability(5), 1e-15)

	var wg sync.WaitGroup
	want := cv.SurvivalProbability(3.3)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, cv.SurvivalProbability(3.3))
		}()
	}
	wg.Wait()
}

func TestBootstrap_NegativeHazard(t *testing.T) {
	t.Parallel()

	valuation := date.MustNew(20, 6, 2008)
	discount := swapCurve(t, valuation)
	contracts := []CDS{
		Standard(valuation, valuation.NextCDSDate(12), 0.0200),
		Standard(valuation, valuation.NextCDSDate(24), 0.0050),
	}
	_, err := Bootstrap(valuation, contracts, discount, 0.40)
	var calErr *CalibrationError
	require.True(t, errors.As(err, &calErr), "got %v", err)
	assert.Equal(t, contracts[1].Maturity, calErr.Maturity)
}

func TestBootstrap_InvalidInputs(t *testing.T) {
	t.Parallel()

	valuation := date.MustNew(20, 6, 2008)
	discount := swapCurve(t, valuation)
	cds := []CDS{Standard(valuation, valuation.NextCDSDate(60), 0.01)}

	var calErr *CalibrationError
	for _, r := range []float64{1, -0.1, math.NaN()} {
		_, err := Bootstrap(valuation, cds, discount, r)
		assert.True(t, errors.As(err, &calErr), "recovery %g", r)
	}

	_, err := Bootstrap(valuation, cds, nil, 0.4)
	assert.ErrorIs(t, err, ErrNoDiscountCurve)

	_, err = Bootstrap(valuation, nil, discount, 0.4)
	assert.True(t, errors.As(err, &calErr))

	early := Standard(valuation.AddDays(-5), valuation.NextCDSDate(60), 0.01)
	_, err = Bootstrap(valuation, []CDS{early}, discount, 0.4)
	assert.True(t, errors.As(err, &calErr))
}

func TestFlatCurve(t *testing.T) {
	t.Parallel()

	valuation := date.MustNew(20, 6, 2008)
	cv, err := FlatCurve(valuation, 0.02, curve.Flat(valuation, 0.03), 0.4)
	require.NoError(t, err)

	for _, x := range []float64{0.5, 1, 4, 10} {
		assert.InDelta(t, math.Exp(-0.02*x), cv.SurvivalProbability(x), 1e-14)
		assert.InDelta(t, 0.02, cv.HazardRate(x), 1e-14)
	}

	cds := Standard(valuation, valuation.NextCDSDate(60), 0.0150)
	par, err := cds.ParSpread(cv)
	require.NoError(t, err)
	assert.InDelta(t, 0.012, par, 3e-4)

	v, err := cds.Value(cv, 1e7)
	require.NoError(t, err)
	assert.Less(t, v, 0.0)

	prem, err := cds.PremiumLegPV(cv)
	require.NoError(t, err)
	prot, err := cds.ProtectionLegPV(cv)
	require.NoError(t, err)
	rpv01, err := cds.RiskyPV01(cv)
	require.NoError(t, err)
	assert.InDelta(t, 0.0150*rpv01, prem, 1e-15)
	assert.InDelta(t, 1e7*(prot-prem), v, 1e-6)

	_, err = FlatCurve(valuation, -0.01, curve.Flat(valuation, 0.03), 0.4)
	assert.Error(t, err)
}

func TestSchedule_FrontStub(t *testing.T) {
	t.Parallel()

	cds := Standard(date.MustNew(2, 8, 2007), date.MustNew(20, 9, 2008), 0.01)
	prem, err := cds.Schedule()
	require.NoError(t, err)
	require.Len(t, prem, 5)
	assert.Equal(t, date.MustNew(2, 8, 2007), prem[0].Start)
	assert.True(t, prem[0].IsStub())
	// 2007-09-20 is a Thursday.
	assert.Equal(t, date.MustNew(20, 9, 2007), prem[0].End)
	assert.InDelta(t, 49.0/360.0, prem[0].Accrual, 1e-15)
	// 2008-09-20 is a Saturday.
	assert.Equal(t, date.MustNew(22, 9, 2008), prem[len(prem)-1].Pay)
}
