package bond_test

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/schedule"
)

const million = 1_000_000.0

func bondTutor(t *testing.T) *bond.Bond {
	t.Helper()
	b, err := bond.New(date.MustNew(15, 7, 1990), date.MustNew(15, 7, 1997), 0.085,
		schedule.SemiAnnual, daycount.ActActICMA, million)
	require.NoError(t, err)
	return b
}

func usTreasury(t *testing.T) *bond.Bond {
	t.Helper()
	b, err := bond.New(date.MustNew(15, 5, 2010), date.MustNew(15, 5, 2027), 0.02375,
		schedule.SemiAnnual, daycount.ActActICMA, 100)
	require.NoError(t, err)
	return b
}

func appleCorp(t *testing.T) *bond.Bond {
	t.Helper()
	b, err := bond.New(date.MustNew(13, 5, 2012), date.MustNew(13, 5, 2022), 0.027,
		schedule.SemiAnnual, daycount.ThirtyE360ISDA, 100)
	require.NoError(t, err)
	return b
}

var bloombergSettle = date.MustNew(21, 7, 2017)

func TestBondTutorExample(t *testing.T) {
	t.Parallel()
	b := bondTutor(t)
	settle := date.MustNew(19, 4, 1994)
	y := 0.062267

	full, err := b.FullPriceFromYTM(settle, y, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 108.7696, full, 1e-4)

	clean, err := b.CleanPriceFromYTM(settle, y, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 106.5625, clean, 1e-4)

	ai, err := b.CalcAccruedInterest(settle)
	require.NoError(t, err)
	assert.InDelta(t, 22071.8232, ai.Amount, 1e-4)
	assert.Equal(t, 94, ai.Days)
	assert.Equal(t, date.MustNew(15, 1, 1994), ai.PreviousCoupon)
	assert.Equal(t, date.MustNew(15, 7, 1994), ai.NextCoupon)

	ytm, err := b.YieldToMaturity(settle, clean, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, y, ytm, 1e-9)

	up, err := b.FullPriceFromYTM(settle, y+0.0001, bond.UKDMO)
	require.NoError(t, err)
	dn, err := b.FullPriceFromYTM(settle, y-0.0001, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 108.7395, up, 1e-4)
	assert.InDelta(t, 108.7998, dn, 1e-4)

	dd, err := b.DollarDuration(settle, y, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 301.2458, dd, 1e-4)
	// central difference agrees with the analytic derivative
	assert.InDelta(t, dd, (dn-up)/0.0002, 0.2)

	md, err := b.ModifiedDuration(settle, y, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 2.7696, md, 1e-4)

	mac, err := b.MacauleyDuration(settle, y, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 2.8558, mac, 1e-4)

	cx, err := b.ConvexityFromYTM(settle, y, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 0.0967, cx, 1e-4)
}

func TestBloombergUSTreasury(t *testing.T) {
	t.Parallel()
	b := usTreasury(t)
	clean := 99.7808417

	assert.InDelta(t, 0.0238, b.CurrentYield(clean), 5e-5)

	var ytm float64
	for _, conv := range []bond.YTMCalcType{bond.UKDMO, bond.USStreet, bond.USTreasury} {
		y, err := b.YieldToMaturity(bloombergSettle, clean, conv)
		require.NoError(t, err, conv.String())
		assert.InDelta(t, 0.0240, y, 5e-5, conv.String())
		ytm = y
	}

	full, err := b.FullPriceFromYTM(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 100.2149, full, 1e-4)

	cp, err := b.CleanPriceFromYTM(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 99.7825, cp, 1e-4)

	ai, err := b.CalcAccruedInterest(bloombergSettle)
	require.NoError(t, err)
	assert.InDelta(t, 0.4324, ai.Amount, 1e-4)
	assert.Equal(t, 67, ai.Days)

	dd, err := b.DollarDuration(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 869.0934, dd, 1e-3)

	md, err := b.ModifiedDuration(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 8.6723, md, 1e-4)

	mac, err := b.MacauleyDuration(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 8.7764, mac, 1e-4)

	cx, err := b.ConvexityFromYTM(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 0.8517, cx, 1e-4)
}

func TestBloombergAppleCorp(t *testing.T) {
	t.Parallel()
	b := appleCorp(t)
	clean := 101.581564

	assert.InDelta(t, 0.0266, b.CurrentYield(clean), 5e-5)

	var ytm float64
	for _, conv := range []bond.YTMCalcType{bond.UKDMO, bond.USStreet, bond.USTreasury} {
		y, err := b.YieldToMaturity(bloombergSettle, clean, conv)
		require.NoError(t, err, conv.String())
		assert.InDelta(t, 0.0235, y, 5e-5, conv.String())
		ytm = y
	}

	full, err := b.FullPriceFromYTM(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 102.0932, full, 1e-4)

	cp, err := b.CleanPriceFromYTM(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 101.5832, cp, 1e-4)

	ai, err := b.CalcAccruedInterest(bloombergSettle)
	require.NoError(t, err)
	assert.Equal(t, 68, ai.Days)
	assert.InDelta(t, 0.51, ai.Amount, 1e-4)

	dd, err := b.DollarDuration(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 456.5778, dd, 1e-3)

	md, err := b.ModifiedDuration(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 4.4722, md, 1e-4)

	mac, err := b.MacauleyDuration(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 4.5247, mac, 1e-4)

	cx, err := b.ConvexityFromYTM(bloombergSettle, ytm, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 0.2302, cx, 1e-4)
}

func TestYieldRoundTrip(t *testing.T) {
	t.Parallel()
	b := appleCorp(t)
	settles := map[string]date.Date{
		"mid-life":     bloombergSettle,
		"final period": date.MustNew(1, 3, 2022),
	}
	convs := []bond.YTMCalcType{bond.UKDMO, bond.USStreet, bond.USTreasury, bond.CFETS}

	for name, settle := range settles {
		for _, conv := range convs {
			for y := -0.05; y <= 0.30; y += 0.05 {
				clean, err := b.CleanPriceFromYTM(settle, y, conv)
				require.NoError(t, err)
				got, err := b.YieldToMaturity(settle, clean, conv)
				require.NoError(t, err, "%s %s y=%g", name, conv, y)
				assert.InDelta(t, y, got, 1e-8, "%s %s y=%g", name, conv, y)
			}
		}
	}

	z := &bond.ZeroBond{IssueDate: date.MustNew(23, 2, 2022), MaturityDate: date.MustNew(23, 8, 2024), IssuePrice: 92}
	for name, settle := range map[string]date.Date{"issue": z.IssueDate, "last month": date.MustNew(25, 7, 2024)} {
		for y := -0.05; y <= 0.30; y += 0.05 {
			clean, err := z.CleanPriceFromYTM(settle, y, bond.Zero)
			require.NoError(t, err)
			got, err := z.YieldToMaturity(settle, clean, bond.Zero)
			require.NoError(t, err, "zero %s y=%g", name, y)
			assert.InDelta(t, y, got, 1e-8, "zero %s y=%g", name, y)
		}
	}
}

func TestFinalPeriodConventions(t *testing.T) {
	t.Parallel()
	b := appleCorp(t)
	settle := date.MustNew(1, 3, 2022)
	y := 0.03

	street, err := b.FullPriceFromYTM(settle, y, bond.USStreet)
	require.NoError(t, err)
	treasury, err := b.FullPriceFromYTM(settle, y, bond.USTreasury)
	require.NoError(t, err)
	dmo, err := b.FullPriceFromYTM(settle, y, bond.UKDMO)
	require.NoError(t, err)
	cfets, err := b.FullPriceFromYTM(settle, y, bond.CFETS)
	require.NoError(t, err)

	assert.InDelta(t, treasury, street, 1e-12)
	assert.NotEqual(t, dmo, street)

	// CFETS discounts over actual days on the year ending at maturity.
	final := 100 * (1 + 0.027/2)
	assert.InDelta(t, final/(1+y*73.0/365.0), cfets, 1e-10)
}

func TestNotSupportedAndSettlementErrors(t *testing.T) {
	t.Parallel()
	b := usTreasury(t)

	_, err := b.FullPriceFromYTM(bloombergSettle, 0.02, bond.Zero)
	assert.True(t, errors.Is(err, bond.ErrUnsupportedYT))

	_, err = b.CalcAccruedInterest(date.MustNew(1, 1, 2010))
	assert.True(t, errors.Is(err, bond.ErrBeforeIssue))

	_, err = b.Cashflows(date.MustNew(15, 5, 2027))
	assert.True(t, errors.Is(err, bond.ErrNoCashflows))

	_, err = bond.New(date.MustNew(1, 1, 2020), date.MustNew(1, 1, 2030), 0.02, schedule.Zero, daycount.Act365F, 100)
	assert.Error(t, err)

	_, err = bond.New(date.MustNew(1, 1, 2030), date.MustNew(1, 1, 2020), 0.02, schedule.Annual, daycount.Act365F, 100)
	assert.True(t, errors.Is(err, schedule.ErrEmptySchedule))
}

func TestCouponDatesAndStub(t *testing.T) {
	t.Parallel()
	b, err := bond.New(date.MustNew(1, 2, 2020), date.MustNew(15, 6, 2022), 0.04,
		schedule.SemiAnnual, daycount.ActActICMA, 100)
	require.NoError(t, err)

	dates, err := b.CouponDates()
	require.NoError(t, err)
	require.Len(t, dates, 5)
	assert.Equal(t, date.MustNew(15, 6, 2020), dates[0])
	assert.Equal(t, date.MustNew(15, 6, 2022), dates[4])

	cfs, err := b.Cashflows(date.MustNew(1, 3, 2020))
	require.NoError(t, err)
	require.Len(t, cfs, 5)
	// short first coupon: 135 of 183 days
	assert.InDelta(t, 2*135.0/183.0, cfs[0].Coupon, 1e-12)
	assert.InDelta(t, 2.0, cfs[1].Coupon, 1e-12)
	assert.InDelta(t, 102.0, cfs[4].Amount(), 1e-12)
}

func TestExDividend(t *testing.T) {
	t.Parallel()
	b := usTreasury(t)
	b.ExDivDays = 7
	settle := date.MustNew(10, 11, 2017)

	ai, err := b.CalcAccruedInterest(settle)
	require.NoError(t, err)
	assert.InDelta(t, -0.02375/2*100*5.0/184.0, ai.Amount, 1e-12)

	cfs, err := b.Cashflows(settle)
	require.NoError(t, err)
	assert.Zero(t, cfs[0].Coupon)

	clean, err := b.CleanPriceFromYTM(settle, 0.024, bond.UKDMO)
	require.NoError(t, err)
	y, err := b.YieldToMaturity(settle, clean, bond.UKDMO)
	require.NoError(t, err)
	assert.InDelta(t, 0.024, y, 1e-9)
}

func TestConcurrentSchedule(t *testing.T) {
	t.Parallel()
	b := &bond.Bond{
		IssueDate:    date.MustNew(15, 5, 2010),
		MaturityDate: date.MustNew(15, 5, 2027),
		Coupon:       0.02375,
		Frequency:    schedule.SemiAnnual,
		DayCount:     daycount.ActActICMA,
	}

	var wg sync.WaitGroup
	prices := make([]float64, 16)
	for i := range prices {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			p, err := b.FullPriceFromYTM(bloombergSettle, 0.024, bond.UKDMO)
			assert.NoError(t, err)
			prices[i] = p
		}(i)
	}
	wg.Wait()
	for _, p := range prices {
		assert.Equal(t, prices[0], p)
	}
}

func TestZeroBill(t *testing.T) {
	t.Parallel()
	bill := &bond.ZeroBond{
		IssueDate:    date.MustNew(25, 7, 2022),
		MaturityDate: date.MustNew(24, 10, 2022),
		IssuePrice:   99.6410,
		Face:         million,
	}
	settle := date.MustNew(8, 8, 2022)

	ytm, err := bill.YieldToMaturity(settle, 99.6504, bond.Zero)
	require.NoError(t, err)
	assert.InDelta(t, 1.3997, ytm*100, 0.0002)

	ai, err := bill.CalcAccruedInterest(settle)
	require.NoError(t, err)
	assert.InDelta(t, million*0.055231/100, ai.Amount, 0.01)

	clean, err := bill.CleanPriceFromYTM(settle, ytm, bond.Zero)
	require.NoError(t, err)
	assert.InDelta(t, 99.6504, clean, 1e-9)

	md, err := bill.ModifiedDuration(settle, ytm, bond.Zero)
	require.NoError(t, err)
	assert.InDelta(t, 77.0/365.0, md, 1e-3)

	_, err = bill.FullPriceFromYTM(settle, ytm, bond.UKDMO)
	assert.True(t, errors.Is(err, bond.ErrUnsupportedYT))
}

func TestZeroBondAnalytics(t *testing.T) {
	t.Parallel()
	z := &bond.ZeroBond{IssueDate: date.MustNew(23, 2, 2022), MaturityDate: date.MustNew(23, 8, 2024), IssuePrice: 92}
	settle := date.MustNew(23, 5, 2022)
	y := 0.03
	yrs, err := daycount.Between(daycount.ActActISDA, settle, z.MaturityDate)
	require.NoError(t, err)
	f := 1 / (1 + y*yrs)

	dd, err := z.DollarDuration(settle, y, bond.Zero)
	require.NoError(t, err)
	assert.InDelta(t, 100*yrs*f*f, dd, 1e-9)

	md, err := z.ModifiedDuration(settle, y, bond.Zero)
	require.NoError(t, err)
	assert.InDelta(t, yrs*f, md, 1e-12)

	mac, err := z.MacauleyDuration(settle, y, bond.Zero)
	require.NoError(t, err)
	assert.InDelta(t, yrs, mac, 1e-12)

	cx, err := z.ConvexityFromYTM(settle, y, bond.Zero)
	require.NoError(t, err)
	assert.InDelta(t, 2*yrs*yrs*f*f/100, cx, 1e-12)

	_, err = z.DollarDuration(settle, y, bond.USStreet)
	assert.ErrorIs(t, err, bond.ErrUnsupportedYT)

	dates, err := z.CouponDates()
	require.NoError(t, err)
	assert.Equal(t, []date.Date{z.MaturityDate}, dates)
}

func TestZeroBondKeyRateDurations(t *testing.T) {
	t.Parallel()
	z := &bond.ZeroBond{IssueDate: date.MustNew(23, 2, 2022), MaturityDate: date.MustNew(23, 8, 2024), IssuePrice: 92}
	settle := date.MustNew(23, 5, 2022)
	y := 0.03

	krd, err := z.KeyRateDurations(settle, y, bond.KeyRateOptions{})
	require.NoError(t, err)
	require.Len(t, krd.Durations, len(bond.DefaultKeyRateTenors))

	// the redemption sits between the 2Y and 3Y nodes
	tau := float64(z.MaturityDate.Sub(settle)) / 365
	t2 := float64(settle.AddMonths(24).Sub(settle)) / 365
	t3 := float64(settle.AddMonths(36).Sub(settle)) / 365
	w := (tau - t2) / (t3 - t2)

	p0, err := z.FullPriceFromYTM(settle, y, bond.Zero)
	require.NoError(t, err)
	total := tau / (1 + y) * 100 * math.Pow(1+y, -tau) / p0

	for i, tenor := range krd.Tenors {
		switch tenor {
		case 2:
			assert.InDelta(t, (1-w)*total, krd.Durations[i], 1e-6)
		case 3:
			assert.InDelta(t, w*total, krd.Durations[i], 1e-6)
		default:
			assert.Zero(t, krd.Durations[i], "tenor %g", tenor)
		}
	}

	_, err = z.KeyRateDurations(settle, y, bond.KeyRateOptions{Conv: bond.UKDMO})
	assert.ErrorIs(t, err, bond.ErrUnsupportedYT)
}

func TestParseYTMCalcType(t *testing.T) {
	t.Parallel()
	for _, conv := range []bond.YTMCalcType{bond.UKDMO, bond.USStreet, bond.USTreasury, bond.CFETS, bond.Zero} {
		got, err := bond.ParseYTMCalcType(conv.String())
		require.NoError(t, err)
		assert.Equal(t, conv, got)
	}
	got, err := bond.ParseYTMCalcType("")
	require.NoError(t, err)
	assert.Equal(t, bond.UKDMO, got)

	_, err = bond.ParseYTMCalcType("BOGUS")
	assert.Error(t, err)
}
