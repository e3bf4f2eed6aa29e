package bond

import (
	"fmt"
	"math"

	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/solver"
)

// ZeroBond pays par at maturity. Interest accrues straight-line from the
// issue price to par; IssuePrice is per 100.
type ZeroBond struct {
	IssueDate    date.Date
	MaturityDate date.Date
	IssuePrice   float64
	Face         float64
}

func (z *ZeroBond) face() float64 {
	if z.Face == 0 {
		return par
	}
	return z.Face
}

func (z *ZeroBond) check(settle date.Date) error {
	if !z.MaturityDate.After(z.IssueDate) {
		return fmt.Errorf("zero bond %s: maturity must follow issue", z.MaturityDate)
	}
	if settle.Before(z.IssueDate) {
		return fmt.Errorf("zero bond %s settle %s: %w", z.MaturityDate, settle, ErrBeforeIssue)
	}
	if !settle.Before(z.MaturityDate) {
		return fmt.Errorf("zero bond %s settle %s: %w", z.MaturityDate, settle, ErrNoCashflows)
	}
	return nil
}

// CalcAccruedInterest returns the accretion from the issue price at settle.
func (z *ZeroBond) CalcAccruedInterest(settle date.Date) (Accrued, error) {
	if err := z.check(settle); err != nil {
		return Accrued{}, err
	}
	frac, days, err := daycount.Accrual(daycount.Zero, z.IssueDate, settle, z.IssueDate, z.MaturityDate, 0)
	if err != nil {
		return Accrued{}, err
	}
	return Accrued{
		Amount:         (par - z.IssuePrice) / par * z.face() * frac,
		Days:           days,
		Fraction:       frac,
		Alpha:          1 - frac,
		PreviousCoupon: z.IssueDate,
		NextCoupon:     z.MaturityDate,
	}, nil
}

func (z *ZeroBond) accruedPer100(settle date.Date) (float64, error) {
	ai, err := z.CalcAccruedInterest(settle)
	if err != nil {
		return 0, err
	}
	return ai.Amount * par / z.face(), nil
}

// years is the ACT/ACT-ISDA time from settle to maturity.
func (z *ZeroBond) years(settle date.Date) (float64, error) {
	return daycount.Between(daycount.ActActISDA, settle, z.MaturityDate)
}

func (z *ZeroBond) priceDerivs(settle date.Date, y float64, conv YTMCalcType) (p, d1, d2 float64, err error) {
	if err := z.check(settle); err != nil {
		return 0, 0, 0, err
	}
	if conv != Zero {
		return 0, 0, 0, fmt.Errorf("zero bond %s: %w: %s", z.MaturityDate, ErrUnsupportedYT, conv)
	}
	t, err := z.years(settle)
	if err != nil {
		return 0, 0, 0, err
	}
	d := simple(y, t)
	return par * d.f, par * d.d1, par * d.d2, nil
}

// FullPriceFromYTM returns the dirty price per 100 par. Only the Zero
// convention applies.
func (z *ZeroBond) FullPriceFromYTM(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	p, _, _, err := z.priceDerivs(settle, ytm, conv)
	return p, err
}

// CleanPriceFromYTM returns the full price less accretion, per 100 par.
func (z *ZeroBond) CleanPriceFromYTM(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	full, err := z.FullPriceFromYTM(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	ai, err := z.accruedPer100(settle)
	if err != nil {
		return 0, err
	}
	return full - ai, nil
}

// YieldToMaturity solves for the yield that reproduces a clean price per 100.
func (z *ZeroBond) YieldToMaturity(settle date.Date, clean float64, conv YTMCalcType) (float64, error) {
	ai, err := z.accruedPer100(settle)
	if err != nil {
		return 0, err
	}
	return z.yieldFromFull(settle, clean+ai, conv, solver.DefaultConfig)
}

func (z *ZeroBond) yieldFromFull(settle date.Date, full float64, conv YTMCalcType, cfg solver.Config) (float64, error) {
	if _, _, _, err := z.priceDerivs(settle, 0, conv); err != nil {
		return 0, err
	}
	t, err := z.years(settle)
	if err != nil {
		return 0, err
	}
	f := func(y float64) float64 {
		p, _, _, _ := z.priceDerivs(settle, y, conv)
		return p - full
	}
	lo := -1/t + 1e-9
	res, err := solver.Solve(f, 0, solver.Bounds{Lo: lo, Hi: math.Inf(1)}, cfg)
	if err != nil {
		return 0, fmt.Errorf("YieldToMaturity zero %s: %w", z.MaturityDate, err)
	}
	return res.X, nil
}

// DollarDuration is -dP/dy of the full price per 100 par.
func (z *ZeroBond) DollarDuration(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	_, d1, _, err := z.priceDerivs(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	return -d1, nil
}

// ModifiedDuration is -dP/dy over the full price.
func (z *ZeroBond) ModifiedDuration(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	p, d1, _, err := z.priceDerivs(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	return -d1 / p, nil
}

// MacauleyDuration is the time to maturity in ACT/ACT-ISDA years: the
// modified duration scaled by 1 + y*t for a simply discounted payment.
func (z *ZeroBond) MacauleyDuration(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	md, err := z.ModifiedDuration(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	t, err := z.years(settle)
	if err != nil {
		return 0, err
	}
	return md * (1 + ytm*t), nil
}

// ConvexityFromYTM is d2P/dy2 over the full price, quoted per 100 of price.
func (z *ZeroBond) ConvexityFromYTM(settle date.Date, ytm float64, conv YTMCalcType) (float64, error) {
	p, _, d2, err := z.priceDerivs(settle, ytm, conv)
	if err != nil {
		return 0, err
	}
	return d2 / p / par, nil
}

// CouponDates returns the maturity date, the only payment.
func (z *ZeroBond) CouponDates() ([]date.Date, error) {
	if !z.MaturityDate.After(z.IssueDate) {
		return nil, fmt.Errorf("zero bond %s: maturity must follow issue", z.MaturityDate)
	}
	return []date.Date{z.MaturityDate}, nil
}

// FullPriceFromDiscountCurve discounts the redemption on c to settle, per 100 par.
func (z *ZeroBond) FullPriceFromDiscountCurve(settle date.Date, c *curve.Curve) (float64, error) {
	if c == nil {
		return 0, fmt.Errorf("zero bond %s: discount curve is required", z.MaturityDate)
	}
	if err := z.check(settle); err != nil {
		return 0, err
	}
	return par * c.DFAt(z.MaturityDate) / c.DFAt(settle), nil
}

// Cashflows returns the single redemption payment.
func (z *ZeroBond) Cashflows(settle date.Date) ([]Cashflow, error) {
	if err := z.check(settle); err != nil {
		return nil, err
	}
	return []Cashflow{{Date: z.MaturityDate, Principal: par}}, nil
}
