package credit

import (
	"fmt"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/schedule"
)

// CDS is a single-name credit default swap quoted by its running coupon.
// Premium periods roll backward from Maturity with a front stub from StepIn.
type CDS struct {
	StepIn     date.Date
	Maturity   date.Date
	Coupon     float64
	Frequency  schedule.Frequency
	DayCount   daycount.Convention
	Calendar   calendar.CalendarID
	Convention calendar.BusinessDayConvention
}

// Standard returns a quarterly ACT/360 contract with Following adjustment on
// a weekend calendar.
func Standard(stepIn, maturity date.Date, coupon float64) CDS {
	return CDS{
		StepIn:     stepIn,
		Maturity:   maturity,
		Coupon:     coupon,
		Frequency:  schedule.Quarterly,
		DayCount:   daycount.Act360,
		Calendar:   calendar.WEEKEND,
		Convention: calendar.Following,
	}
}

func (c CDS) frequency() schedule.Frequency {
	if c.Frequency == schedule.Zero {
		return schedule.Quarterly
	}
	return c.Frequency
}

func (c CDS) dayCount() daycount.Convention {
	if c.DayCount == 0 {
		return daycount.Act360
	}
	return c.DayCount
}

// Premium is one premium accrual period with its accrual fraction.
type Premium struct {
	schedule.Period
	Accrual float64
}

// Schedule returns the premium periods.
func (c CDS) Schedule() ([]Premium, error) {
	rule := schedule.Rule{Frequency: c.frequency(), Calendar: c.Calendar, Convention: c.Convention}
	periods, err := rule.Generate(c.StepIn, c.Maturity)
	if err != nil {
		return nil, fmt.Errorf("CDS %s: %w", c.Maturity, err)
	}
	out := make([]Premium, len(periods))
	for i, p := range periods {
		tau, err := daycount.YearFraction(c.dayCount(), p.Start, p.End, p.RefStart, p.RefEnd, c.frequency().PerYear())
		if err != nil {
			return nil, fmt.Errorf("CDS %s: %w", c.Maturity, err)
		}
		out[i] = Premium{Period: p, Accrual: tau}
	}
	return out, nil
}

// legs returns the risky annuity and the protection leg per unit notional.
// Survival is observed at accrual ends; discounting uses payment dates.
func legs(prem []Premium, cv *Curve) (annuity, protection float64) {
	lgd := 1 - cv.recovery
	qPrev := cv.SurvivalAt(prem[0].Start)
	for _, p := range prem {
		df := cv.discount.DFAt(p.Pay)
		q := cv.SurvivalAt(p.End)
		annuity += p.Accrual * df * q
		protection += lgd * df * (qPrev - q)
		qPrev = q
	}
	return annuity, protection
}

// RiskyPV01 is the survival-weighted annuity of the premium leg per unit
// notional and unit spread.
func (c CDS) RiskyPV01(cv *Curve) (float64, error) {
	prem, err := c.Schedule()
	if err != nil {
		return 0, err
	}
	a, _ := legs(prem, cv)
	return a, nil
}

// PremiumLegPV is the value of the coupon stream per unit notional.
func (c CDS) PremiumLegPV(cv *Curve) (float64, error) {
	a, err := c.RiskyPV01(cv)
	if err != nil {
		return 0, err
	}
	return c.Coupon * a, nil
}

// ProtectionLegPV is the value of the default payment per unit notional.
func (c CDS) ProtectionLegPV(cv *Curve) (float64, error) {
	prem, err := c.Schedule()
	if err != nil {
		return 0, err
	}
	_, p := legs(prem, cv)
	return p, nil
}

// ParSpread is the coupon that gives the contract zero value on cv.
func (c CDS) ParSpread(cv *Curve) (float64, error) {
	prem, err := c.Schedule()
	if err != nil {
		return 0, err
	}
	a, p := legs(prem, cv)
	return p / a, nil
}

// Value is the mark-to-market to the protection buyer.
func (c CDS) Value(cv *Curve, notional float64) (float64, error) {
	prem, err := c.Schedule()
	if err != nil {
		return 0, err
	}
	a, p := legs(prem, cv)
	return notional * (p - c.Coupon*a), nil
}
