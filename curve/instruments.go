package curve

import (
	"fmt"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/schedule"
)

// Deposit is a single-period money market quote.
type Deposit struct {
	Start    date.Date
	Maturity date.Date
	Rate     float64
	DayCount daycount.Convention
}

func (d Deposit) accrual() (float64, error) {
	tau, err := daycount.Between(d.DayCount, d.Start, d.Maturity)
	if err != nil {
		return 0, fmt.Errorf("deposit %s: %w", d.Maturity, err)
	}
	return tau, nil
}

// ParRate is the deposit rate implied by c.
func (d Deposit) ParRate(c *Curve) (float64, error) {
	tau, err := d.accrual()
	if err != nil {
		return 0, err
	}
	return (c.DFAt(d.Start)/c.DFAt(d.Maturity) - 1) / tau, nil
}

// Direction is the fixed leg side of a swap.
type Direction int

const (
	// Pay fixed, receive floating.
	Pay Direction = 1
	// Receive fixed, pay floating.
	Receive Direction = -1
)

// Swap is a fixed-for-floating interest rate swap quoted by its fixed rate.
// The floating leg is valued at par on a single curve.
type Swap struct {
	Start          date.Date
	Maturity       date.Date
	FixedRate      float64
	FixedFrequency schedule.Frequency
	FixedDayCount  daycount.Convention
	Direction      Direction
	Calendar       calendar.CalendarID
	Convention     calendar.BusinessDayConvention
	Notional       float64
}

// FixedLeg returns the fixed leg periods and their accrual fractions.
func (s Swap) FixedLeg() ([]schedule.Period, []float64, error) {
	if s.FixedFrequency == schedule.Zero {
		return nil, nil, fmt.Errorf("swap %s: fixed frequency required", s.Maturity)
	}
	rule := schedule.Rule{Frequency: s.FixedFrequency, Calendar: s.Calendar, Convention: s.Convention}
	periods, err := rule.Generate(s.Start, s.Maturity)
	if err != nil {
		return nil, nil, fmt.Errorf("swap %s: %w", s.Maturity, err)
	}
	taus := make([]float64, len(periods))
	for i, p := range periods {
		yearFraction := daycount.YearFraction
		if i == len(periods)-1 {
			yearFraction = daycount.TerminalYearFraction
		}
		tau, err := yearFraction(s.FixedDayCount, p.Start, p.End, p.RefStart, p.RefEnd, s.FixedFrequency.PerYear())
		if err != nil {
			return nil, nil, fmt.Errorf("swap %s: %w", s.Maturity, err)
		}
		taus[i] = tau
	}
	return periods, taus, nil
}

// End is the last fixed payment date, the swap's curve node.
func (s Swap) End() (date.Date, error) {
	periods, _, err := s.FixedLeg()
	if err != nil {
		return date.Date{}, err
	}
	return periods[len(periods)-1].Pay, nil
}

// Annuity is the sum of accrual-weighted discount factors of the fixed leg.
func (s Swap) Annuity(c *Curve) (float64, error) {
	periods, taus, err := s.FixedLeg()
	if err != nil {
		return 0, err
	}
	return annuity(c, periods, taus), nil
}

func annuity(c *Curve, periods []schedule.Period, taus []float64) float64 {
	sum := 0.0
	for i, p := range periods {
		sum += taus[i] * c.DFAt(p.Pay)
	}
	return sum
}

// ParRate is the fixed rate that makes the swap worth zero on c.
func (s Swap) ParRate(c *Curve) (float64, error) {
	periods, taus, err := s.FixedLeg()
	if err != nil {
		return 0, err
	}
	end := periods[len(periods)-1].Pay
	return (c.DFAt(s.Start) - c.DFAt(end)) / annuity(c, periods, taus), nil
}

// Value is the present value of the swap to the holder. A zero Notional is
// valued per unit.
func (s Swap) Value(c *Curve) (float64, error) {
	periods, taus, err := s.FixedLeg()
	if err != nil {
		return 0, err
	}
	end := periods[len(periods)-1].Pay
	floating := c.DFAt(s.Start) - c.DFAt(end)
	fixed := s.FixedRate * annuity(c, periods, taus)
	return s.notional() * s.direction() * (floating - fixed), nil
}

// PV01 is the value change of the fixed leg for a 1bp move in the fixed rate.
func (s Swap) PV01(c *Curve) (float64, error) {
	a, err := s.Annuity(c)
	if err != nil {
		return 0, err
	}
	return s.notional() * a * 1e-4, nil
}

func (s Swap) notional() float64 {
	if s.Notional == 0 {
		return 1
	}
	return s.Notional
}

func (s Swap) direction() float64 {
	if s.Direction == Receive {
		return -1
	}
	return 1
}
