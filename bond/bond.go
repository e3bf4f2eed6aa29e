// Package bond prices fixed-coupon and zero-coupon bonds from yields and
// curves and computes their rate sensitivities.
package bond

import (
	"errors"
	"fmt"
	"sync"

	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/schedule"
)

// par is the redemption amount prices are quoted against.
const par = 100.0

var (
	ErrNoCashflows   = errors.New("bond: no cashflows after settlement")
	ErrBeforeIssue   = errors.New("bond: settlement before issue date")
	ErrUnsupportedYT = errors.New("bond: yield convention not supported for this bond")
)

// Bond is a fixed-coupon bullet bond.
//
// The coupon schedule is rolled backward from MaturityDate at Frequency; the
// first period is a front stub when IssueDate is not a roll date. Coupon is a
// decimal rate (0.05 for 5%). Face defaults to 100. A positive ExDivDays
// strips the next coupon from settlements within that many calendar days of it.
type Bond struct {
	IssueDate    date.Date
	MaturityDate date.Date
	Coupon       float64
	Frequency    schedule.Frequency
	DayCount     daycount.Convention
	Face         float64
	ExDivDays    int

	once    sync.Once
	periods []schedule.Period
	err     error
}

// New validates and returns a bond.
func New(issue, maturity date.Date, coupon float64, freq schedule.Frequency, dc daycount.Convention, face float64) (*Bond, error) {
	b := &Bond{
		IssueDate:    issue,
		MaturityDate: maturity,
		Coupon:       coupon,
		Frequency:    freq,
		DayCount:     dc,
		Face:         face,
	}
	if _, err := b.schedule(); err != nil {
		return nil, err
	}
	return b, nil
}

func (b *Bond) String() string {
	return fmt.Sprintf("%.4f%% %s %s %s", b.Coupon*100, b.MaturityDate, b.Frequency, b.DayCount)
}

func (b *Bond) face() float64 {
	if b.Face == 0 {
		return par
	}
	return b.Face
}

func (b *Bond) schedule() ([]schedule.Period, error) {
	b.once.Do(func() {
		if b.Frequency == schedule.Zero {
			b.err = fmt.Errorf("bond %s: coupon frequency required, use ZeroBond for zero coupons", b.MaturityDate)
			return
		}
		rule := schedule.Rule{Frequency: b.Frequency}
		b.periods, b.err = rule.Generate(b.IssueDate, b.MaturityDate)
	})
	return b.periods, b.err
}

// CouponDates returns the coupon payment dates, maturity included.
func (b *Bond) CouponDates() ([]date.Date, error) {
	periods, err := b.schedule()
	if err != nil {
		return nil, err
	}
	out := make([]date.Date, len(periods))
	for i, p := range periods {
		out[i] = p.End
	}
	return out, nil
}

// periodFraction is the share of a regular coupon paid for p.
func (b *Bond) periodFraction(p schedule.Period) (float64, error) {
	if !p.IsStub() {
		return 1, nil
	}
	yearFraction := daycount.YearFraction
	if p.End.Equal(b.MaturityDate) {
		yearFraction = daycount.TerminalYearFraction
	}
	f, err := yearFraction(b.DayCount, p.Start, p.End, p.RefStart, p.RefEnd, b.Frequency.PerYear())
	if err != nil {
		return 0, err
	}
	return f * float64(b.Frequency.PerYear()), nil
}

// position describes where a settlement date sits in the schedule.
type position struct {
	settle    date.Date
	idx       int // index of the current period
	pcd, ncd  date.Date
	days      int
	factor    float64 // accrued year fraction
	alpha     float64 // fraction of a regular period left to ncd
	firstFrac float64 // share of a regular coupon paid at ncd
	remaining int     // coupons after ncd
	exDiv     bool
}

func (b *Bond) locate(settle date.Date) (position, error) {
	periods, err := b.schedule()
	if err != nil {
		return position{}, err
	}
	if settle.Before(b.IssueDate) {
		return position{}, fmt.Errorf("bond %s settle %s: %w", b.MaturityDate, settle, ErrBeforeIssue)
	}
	if !settle.Before(b.MaturityDate) {
		return position{}, fmt.Errorf("bond %s settle %s: %w", b.MaturityDate, settle, ErrNoCashflows)
	}

	idx := 0
	for idx < len(periods)-1 && !periods[idx].End.After(settle) {
		idx++
	}
	p := periods[idx]
	freq := b.Frequency.PerYear()

	factor, days, err := daycount.Accrual(b.DayCount, p.Start, settle, p.RefStart, p.RefEnd, freq)
	if err != nil {
		return position{}, fmt.Errorf("bond %s accrual: %w", b.MaturityDate, err)
	}
	frac, err := b.periodFraction(p)
	if err != nil {
		return position{}, fmt.Errorf("bond %s accrual: %w", b.MaturityDate, err)
	}

	pos := position{
		settle:    settle,
		idx:       idx,
		pcd:       p.Start,
		ncd:       p.End,
		days:      days,
		factor:    factor,
		alpha:     frac - factor*float64(freq),
		firstFrac: frac,
		remaining: len(periods) - 1 - idx,
	}
	if b.ExDivDays > 0 && p.End.Sub(settle) <= b.ExDivDays {
		pos.exDiv = true
	}
	return pos, nil
}

// Accrued is the interest accrued at a settlement date.
type Accrued struct {
	// Amount is the accrued interest on Face.
	Amount float64
	// Days is the day count numerator from the previous coupon date.
	Days int
	// Fraction is the accrued year fraction.
	Fraction float64
	// Alpha is the fraction of a regular coupon period left to the next coupon.
	Alpha float64
	PreviousCoupon date.Date
	NextCoupon     date.Date
}

// CalcAccruedInterest returns the interest accrued at settle. Inside the
// ex-dividend window the amount is negative: the buyer is owed the rebate
// of the coupon they will not receive.
func (b *Bond) CalcAccruedInterest(settle date.Date) (Accrued, error) {
	pos, err := b.locate(settle)
	if err != nil {
		return Accrued{}, err
	}
	fraction := pos.factor
	if pos.exDiv {
		fraction -= pos.firstFrac / float64(b.Frequency.PerYear())
	}
	return Accrued{
		Amount:         fraction * b.Coupon * b.face(),
		Days:           pos.days,
		Fraction:       fraction,
		Alpha:          pos.alpha,
		PreviousCoupon: pos.pcd,
		NextCoupon:     pos.ncd,
	}, nil
}

// accruedPer100 is the accrued interest quoted on a 100 par price.
func (b *Bond) accruedPer100(settle date.Date) (float64, error) {
	ai, err := b.CalcAccruedInterest(settle)
	if err != nil {
		return 0, err
	}
	return ai.Amount * par / b.face(), nil
}

// CurrentYield is the annual coupon over the clean price.
func (b *Bond) CurrentYield(clean float64) float64 {
	return b.Coupon * par / clean
}

// Cashflow is a single dated cash payment for a bond, per 100 of face.
type Cashflow struct {
	Date      date.Date
	Coupon    float64
	Principal float64
}

func (c Cashflow) Amount() float64 {
	return c.Coupon + c.Principal
}

// Cashflows returns the payments a buyer settling on settle receives, per
// 100 of face.
func (b *Bond) Cashflows(settle date.Date) ([]Cashflow, error) {
	pos, err := b.locate(settle)
	if err != nil {
		return nil, err
	}
	periods, _ := b.schedule()
	cpn := b.Coupon / float64(b.Frequency.PerYear()) * par

	out := make([]Cashflow, 0, pos.remaining+1)
	for i := pos.idx; i < len(periods); i++ {
		cf := Cashflow{Date: periods[i].End, Coupon: cpn}
		if i == pos.idx {
			cf.Coupon = cpn * pos.firstFrac
			if pos.exDiv {
				cf.Coupon = 0
			}
		}
		if i == len(periods)-1 {
			cf.Principal = par
		}
		out = append(out, cf)
	}
	return out, nil
}
