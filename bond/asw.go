package bond

import (
	"fmt"
	"math"

	"github.com/meenmo/fixedincome/credit"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/schedule"
	"github.com/meenmo/fixedincome/solver"
)

// FullPriceFromDiscountCurve discounts the remaining cashflows on c to
// settle, per 100 par.
func (b *Bond) FullPriceFromDiscountCurve(settle date.Date, c *curve.Curve) (float64, error) {
	return b.priceOnCurve(settle, c, 0)
}

// CleanPriceFromDiscountCurve is the curve full price less accrued interest.
func (b *Bond) CleanPriceFromDiscountCurve(settle date.Date, c *curve.Curve) (float64, error) {
	full, err := b.FullPriceFromDiscountCurve(settle, c)
	if err != nil {
		return 0, err
	}
	ai, err := b.accruedPer100(settle)
	if err != nil {
		return 0, err
	}
	return full - ai, nil
}

// priceOnCurve discounts with every zero rate moved by a continuously
// compounded spread.
func (b *Bond) priceOnCurve(settle date.Date, c *curve.Curve, spread float64) (float64, error) {
	if c == nil {
		return 0, fmt.Errorf("bond %s: discount curve is required", b.MaturityDate)
	}
	cfs, err := b.Cashflows(settle)
	if err != nil {
		return 0, err
	}
	ts := c.TimeOf(settle)
	dfs := c.DF(ts)
	pv := 0.0
	for _, cf := range cfs {
		t := c.TimeOf(cf.Date)
		pv += cf.Amount() * c.DF(t) / dfs * math.Exp(-spread*(t-ts))
	}
	return pv, nil
}

// ZSpread is the continuously compounded spread over c that reprices the
// clean price.
func (b *Bond) ZSpread(settle date.Date, clean float64, c *curve.Curve) (float64, error) {
	ai, err := b.accruedPer100(settle)
	if err != nil {
		return 0, err
	}
	target := clean + ai
	if _, err := b.priceOnCurve(settle, c, 0); err != nil {
		return 0, err
	}
	f := func(s float64) float64 {
		p, _ := b.priceOnCurve(settle, c, s)
		return p - target
	}
	res, err := solver.Solve(f, 0, solver.Unbounded, solver.DefaultConfig)
	if err != nil {
		return 0, fmt.Errorf("ZSpread %s: %w", b, err)
	}
	return res.X, nil
}

// FullPriceFromSurvivalCurve values the bond as a risky claim: each cashflow
// is paid on survival and the recovery rate of par is paid at the end of the
// coupon period in which default occurs.
func (b *Bond) FullPriceFromSurvivalCurve(settle date.Date, cv *credit.Curve) (float64, error) {
	if cv == nil {
		return 0, fmt.Errorf("bond %s: survival curve is required", b.MaturityDate)
	}
	cfs, err := b.Cashflows(settle)
	if err != nil {
		return 0, err
	}
	dc := cv.DiscountCurve()
	df0 := dc.DFAt(settle)
	q0 := cv.SurvivalAt(settle)
	r := cv.RecoveryRate()

	pv := 0.0
	qPrev := q0
	for _, cf := range cfs {
		df := dc.DFAt(cf.Date) / df0
		q := cv.SurvivalAt(cf.Date)
		pv += cf.Amount() * df * q / q0
		pv += r * par * df * (qPrev - q) / q0
		qPrev = q
	}
	return pv, nil
}

// ASWResult holds a par-par asset swap spread.
type ASWResult struct {
	SpreadBP float64
	PVBondRF float64
	PV01     float64
}

// AssetSwapSpread computes the asset swap spread (in bp) using the approximation:
//
//	ASW ≈ (PV_bond^{rf} - P_dirty) / PV01
//
// where PV01 is the value of receiving 1bp on a floating leg with the given
// conventions from settle to maturity, per 100 notional.
func (b *Bond) AssetSwapSpread(settle date.Date, clean float64, c *curve.Curve, floatLeg curve.SwapConvention) (ASWResult, error) {
	pvRF, err := b.FullPriceFromDiscountCurve(settle, c)
	if err != nil {
		return ASWResult{}, fmt.Errorf("AssetSwapSpread: %w", err)
	}
	ai, err := b.accruedPer100(settle)
	if err != nil {
		return ASWResult{}, fmt.Errorf("AssetSwapSpread: %w", err)
	}

	rule := schedule.Rule{Frequency: floatLeg.Frequency, Calendar: floatLeg.Calendar, Convention: floatLeg.Convention}
	periods, err := rule.Generate(settle, b.MaturityDate)
	if err != nil {
		return ASWResult{}, fmt.Errorf("AssetSwapSpread: float leg schedule: %w", err)
	}
	dfs := c.DFAt(settle)
	pv01 := 0.0
	for _, p := range periods {
		tau, err := daycount.YearFraction(floatLeg.DayCount, p.Start, p.End, p.RefStart, p.RefEnd, floatLeg.Frequency.PerYear())
		if err != nil {
			return ASWResult{}, fmt.Errorf("AssetSwapSpread: %w", err)
		}
		pv01 += par * tau * 1e-4 * c.DFAt(p.Pay) / dfs
	}
	if pv01 == 0 {
		return ASWResult{}, fmt.Errorf("AssetSwapSpread: PV01 is zero")
	}

	return ASWResult{
		SpreadBP: (pvRF - (clean + ai)) / pv01,
		PVBondRF: pvRF,
		PV01:     pv01,
	}, nil
}
