// Package daycount computes accrual year fractions under the market day count
// conventions.
package daycount

import (
	"fmt"
	"strings"
	"time"

	"github.com/meenmo/fixedincome/date"
)

// Convention enumerates the supported day count conventions.
type Convention int

const (
	Act360 Convention = iota + 1
	Act365F
	ActActISDA
	ActActICMA
	Thirty360Bond
	ThirtyE360
	ThirtyE360ISDA
	// Zero accrues straight-line over the reference period; used by zero coupon bonds.
	Zero
)

var names = map[Convention]string{
	Act360:         "ACT/360",
	Act365F:        "ACT/365F",
	ActActISDA:     "ACT/ACT-ISDA",
	ActActICMA:     "ACT/ACT-ICMA",
	Thirty360Bond:  "30/360-BOND",
	ThirtyE360:     "30E/360",
	ThirtyE360ISDA: "30E/360-ISDA",
	Zero:           "ZERO",
}

var aliases = map[string]Convention{
	"ACT/360":      Act360,
	"A360":         Act360,
	"ACT/365F":     Act365F,
	"ACT/365":      Act365F,
	"A365F":        Act365F,
	"ACT/ACT":      ActActISDA,
	"ACT/ACT-ISDA": ActActISDA,
	"ACT/ACT-ICMA": ActActICMA,
	"ACT/ACT ICMA": ActActICMA,
	"30/360":       Thirty360Bond,
	"30/360-BOND":  Thirty360Bond,
	"30U/360":      Thirty360Bond,
	"30E/360":      ThirtyE360,
	"30E/360-ISDA": ThirtyE360ISDA,
	"30E/360 ISDA": ThirtyE360ISDA,
	"ZERO":         Zero,
}

func (c Convention) String() string {
	if s, ok := names[c]; ok {
		return s
	}
	return fmt.Sprintf("Convention(%d)", int(c))
}

// Parse maps a market name such as "ACT/ACT-ICMA" to its Convention.
func Parse(s string) (Convention, error) {
	if c, ok := aliases[strings.ToUpper(strings.TrimSpace(s))]; ok {
		return c, nil
	}
	return 0, &InvalidConventionError{Reason: fmt.Sprintf("unknown day count %q", s)}
}

// MarshalText implements encoding.TextMarshaler.
func (c Convention) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Convention) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// NeedsReference reports whether the convention depends on the enclosing
// coupon period.
func (c Convention) NeedsReference() bool {
	return c == ActActICMA || c == Zero
}

// InvalidConventionError reports malformed accrual period bounds or an
// unsupported convention.
type InvalidConventionError struct {
	Convention Convention
	Start      date.Date
	End        date.Date
	Reason     string
}

func (e *InvalidConventionError) Error() string {
	if e.Convention == 0 {
		return "invalid day count: " + e.Reason
	}
	return fmt.Sprintf("invalid day count %s [%s, %s]: %s", e.Convention, e.Start, e.End, e.Reason)
}

// YearFraction returns the accrual fraction from start to end. refStart and
// refEnd bound the coupon period containing [start, end]; freq is the number
// of coupons per year. Both are only consulted by ACT/ACT-ICMA and ZERO but,
// when supplied, must satisfy refEnd > refStart.
func YearFraction(c Convention, start, end, refStart, refEnd date.Date, freq int) (float64, error) {
	f, _, err := Accrual(c, start, end, refStart, refEnd, freq)
	return f, err
}

// TerminalYearFraction is YearFraction for a period ending on the
// termination date. Only 30E/360 ISDA differs: a last-of-February end keeps
// its actual day.
func TerminalYearFraction(c Convention, start, end, refStart, refEnd date.Date, freq int) (float64, error) {
	f, _, err := accrual(c, start, end, refStart, refEnd, freq, true)
	return f, err
}

// Between is YearFraction for conventions that need no reference period.
func Between(c Convention, start, end date.Date) (float64, error) {
	if c.NeedsReference() {
		return 0, &InvalidConventionError{Convention: c, Start: start, End: end, Reason: "reference period required"}
	}
	f, _, err := Accrual(c, start, end, date.Date{}, date.Date{}, 0)
	return f, err
}

// Accrual returns the year fraction together with the day count numerator
// (actual or 30/360 days) for [start, end].
func Accrual(c Convention, start, end, refStart, refEnd date.Date, freq int) (float64, int, error) {
	return accrual(c, start, end, refStart, refEnd, freq, false)
}

func accrual(c Convention, start, end, refStart, refEnd date.Date, freq int, terminal bool) (float64, int, error) {
	if end.Before(start) {
		return 0, 0, &InvalidConventionError{Convention: c, Start: start, End: end, Reason: "end before start"}
	}
	hasRef := !refStart.IsZero() || !refEnd.IsZero()
	if (hasRef || c.NeedsReference()) && !refEnd.After(refStart) {
		return 0, 0, &InvalidConventionError{Convention: c, Start: refStart, End: refEnd, Reason: "reference period end must be after start"}
	}

	days := end.Sub(start)
	switch c {
	case Act360:
		return float64(days) / 360.0, days, nil
	case Act365F:
		return float64(days) / 365.0, days, nil
	case ActActISDA:
		return actActISDA(start, end), days, nil
	case ActActICMA:
		if freq <= 0 {
			return 0, 0, &InvalidConventionError{Convention: c, Start: start, End: end, Reason: "coupon frequency required"}
		}
		return float64(days) / float64(refEnd.Sub(refStart)*freq), days, nil
	case Thirty360Bond, ThirtyE360, ThirtyE360ISDA:
		n := thirty360Days(c, start, end, terminal)
		return float64(n) / 360.0, n, nil
	case Zero:
		return float64(days) / float64(refEnd.Sub(refStart)), days, nil
	default:
		return 0, 0, &InvalidConventionError{Convention: c, Start: start, End: end, Reason: "unsupported convention"}
	}
}

func actActISDA(start, end date.Date) float64 {
	if start.Year() == end.Year() {
		return float64(end.Sub(start)) / yearDays(start.Year())
	}
	startNext := date.MustNew(1, 1, start.Year()+1)
	endYear := date.MustNew(1, 1, end.Year())
	frac := float64(startNext.Sub(start))/yearDays(start.Year()) + float64(end.Sub(endYear))/yearDays(end.Year())
	return frac + float64(end.Year()-start.Year()-1)
}

func yearDays(y int) float64 {
	if date.IsLeapYear(y) {
		return 366
	}
	return 365
}

func thirty360Days(c Convention, start, end date.Date, terminal bool) int {
	d1, d2 := start.Day(), end.Day()
	switch c {
	case Thirty360Bond:
		if d1 == 31 {
			d1 = 30
		}
		if d2 == 31 && d1 >= 30 {
			d2 = 30
		}
	case ThirtyE360:
		if d1 > 30 {
			d1 = 30
		}
		if d2 > 30 {
			d2 = 30
		}
	case ThirtyE360ISDA:
		if start.IsEndOfMonth() {
			d1 = 30
		}
		if end.IsEndOfMonth() && !(terminal && end.Month() == time.February) {
			d2 = 30
		}
	}
	y1, m1 := start.Year(), int(start.Month())
	y2, m2 := end.Year(), int(end.Month())
	return 360*(y2-y1) + 30*(m2-m1) + (d2 - d1)
}
