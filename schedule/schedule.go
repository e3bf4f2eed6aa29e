// Package schedule generates accrual periods rolled backward from an end
// date, the way bond coupons and swap/CDS fixed legs are laid out.
package schedule

import (
	"errors"
	"fmt"
	"strings"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/date"
)

// Frequency enumerates payment frequencies in months.
type Frequency int

const (
	Annual     Frequency = 12
	SemiAnnual Frequency = 6
	Quarterly  Frequency = 3
	Monthly    Frequency = 1
	// Zero pays once at the end.
	Zero Frequency = 0
)

// PerYear returns the number of payments per year, 0 for Zero.
func (f Frequency) PerYear() int {
	if f <= 0 {
		return 0
	}
	return 12 / int(f)
}

func (f Frequency) String() string {
	switch f {
	case Annual:
		return "ANNUAL"
	case SemiAnnual:
		return "SEMI_ANNUAL"
	case Quarterly:
		return "QUARTERLY"
	case Monthly:
		return "MONTHLY"
	case Zero:
		return "ZERO"
	}
	return fmt.Sprintf("Frequency(%dM)", int(f))
}

// FromPerYear maps a payments-per-year count (0, 1, 2, 4, 12) to a Frequency.
func FromPerYear(n int) (Frequency, error) {
	switch n {
	case 0:
		return Zero, nil
	case 1, 2, 4, 12:
		return Frequency(12 / n), nil
	}
	return 0, fmt.Errorf("FromPerYear: unsupported frequency %d", n)
}

// ParseFrequency accepts names ("SEMI_ANNUAL") or per-year counts ("2").
func ParseFrequency(s string) (Frequency, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ANNUAL", "1":
		return Annual, nil
	case "SEMI_ANNUAL", "SEMIANNUAL", "2":
		return SemiAnnual, nil
	case "QUARTERLY", "4":
		return Quarterly, nil
	case "MONTHLY", "12":
		return Monthly, nil
	case "ZERO", "0":
		return Zero, nil
	}
	return 0, fmt.Errorf("ParseFrequency: unknown frequency %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Frequency) UnmarshalText(b []byte) error {
	parsed, err := ParseFrequency(string(b))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (f Frequency) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

// Period is one accrual period. Start and End are business-day adjusted;
// RefStart and RefEnd are the unadjusted regular period that contains it,
// which differs from [Start, End] only for a front stub.
type Period struct {
	Start    date.Date
	End      date.Date
	Pay      date.Date
	RefStart date.Date
	RefEnd   date.Date
}

// IsStub reports whether the period is shorter than its reference period.
func (p Period) IsStub() bool {
	return p.RefStart.Before(p.Start) || p.RefEnd.After(p.End)
}

// Rule describes how periods are rolled and adjusted.
type Rule struct {
	Frequency  Frequency
	Calendar   calendar.CalendarID
	Convention calendar.BusinessDayConvention
	// EndOfMonth keeps every roll date on the month end when the end date is one.
	EndOfMonth bool
}

var ErrEmptySchedule = errors.New("schedule: end date must be after start date")

// Dates returns the unadjusted roll dates start, d_1, ..., end, where
// d_k = end - k periods. The first period is a front stub when start does
// not fall on a roll date.
func (r Rule) Dates(start, end date.Date) ([]date.Date, error) {
	if !end.After(start) {
		return nil, fmt.Errorf("Dates: %w (%s, %s)", ErrEmptySchedule, start, end)
	}
	if r.Frequency < 0 || (r.Frequency > 0 && 12%int(r.Frequency) != 0) {
		return nil, fmt.Errorf("Dates: unsupported frequency %d months", int(r.Frequency))
	}
	if r.Frequency == Zero {
		return []date.Date{start, end}, nil
	}

	rev := []date.Date{end}
	for k := 1; ; k++ {
		d := r.roll(end, -k*int(r.Frequency))
		if !d.After(start) {
			break
		}
		rev = append(rev, d)
	}
	rev = append(rev, start)

	out := make([]date.Date, len(rev))
	for i, d := range rev {
		out[len(rev)-1-i] = d
	}
	return out, nil
}

func (r Rule) roll(end date.Date, months int) date.Date {
	d := end.AddMonths(months)
	if r.EndOfMonth && end.IsEndOfMonth() {
		return d.EndOfMonth()
	}
	return d
}

// Generate builds the accrual periods between start and end.
func (r Rule) Generate(start, end date.Date) ([]Period, error) {
	dates, err := r.Dates(start, end)
	if err != nil {
		return nil, err
	}

	periods := make([]Period, 0, len(dates)-1)
	for i := 0; i+1 < len(dates); i++ {
		s, e := dates[i], dates[i+1]
		refStart, refEnd := s, e
		if i == 0 && r.Frequency != Zero {
			refStart = r.roll(end, -(len(dates)-1)*int(r.Frequency))
		}
		adjStart := s
		if i > 0 {
			adjStart = calendar.Adjust(r.Calendar, s, r.Convention)
		}
		adjEnd := calendar.Adjust(r.Calendar, e, r.Convention)
		periods = append(periods, Period{
			Start:    adjStart,
			End:      adjEnd,
			Pay:      adjEnd,
			RefStart: refStart,
			RefEnd:   refEnd,
		})
	}
	return periods, nil
}
