// Package date provides a calendar date value type with the month/year
// arithmetic used by accrual schedules and CDS roll dates.
package date

import (
	"fmt"
	"strings"
	"time"
)

const layout = "2006-01-02"

// Date is a Gregorian calendar date without time of day or location.
//
// The zero value is not a valid date; construct with New, MustNew, Parse or FromTime.
type Date struct {
	year  int
	month time.Month
	day   int
}

// InvalidDateError reports a (day, month, year) triple that is not a calendar date.
type InvalidDateError struct {
	Day   int
	Month int
	Year  int
}

func (e *InvalidDateError) Error() string {
	return fmt.Sprintf("invalid date: day=%d month=%d year=%d", e.Day, e.Month, e.Year)
}

// New validates and returns the date day/month/year.
func New(day, month, year int) (Date, error) {
	if month < 1 || month > 12 || day < 1 || day > DaysInMonth(year, time.Month(month)) {
		return Date{}, &InvalidDateError{Day: day, Month: month, Year: year}
	}
	return Date{year: year, month: time.Month(month), day: day}, nil
}

// MustNew is New for literals known to be valid. It panics otherwise.
func MustNew(day, month, year int) Date {
	d, err := New(day, month, year)
	if err != nil {
		panic(err)
	}
	return d
}

// Parse reads a YYYY-MM-DD date.
func Parse(s string) (Date, error) {
	s = strings.TrimSpace(s)
	var y, m, d int
	if _, err := fmt.Sscanf(s, "%4d-%2d-%2d", &y, &m, &d); err != nil || len(s) != len(layout) {
		return Date{}, fmt.Errorf("parse date %q: expected YYYY-MM-DD", s)
	}
	return New(d, m, y)
}

// FromTime drops the time of day and location of t.
func FromTime(t time.Time) Date {
	y, m, d := t.Date()
	return Date{year: y, month: m, day: d}
}

// FromOrdinal is the inverse of Ordinal.
func FromOrdinal(n int) Date {
	return FromTime(time.Unix(int64(n)*86400, 0).UTC())
}

func (d Date) Year() int { return d.year }

func (d Date) Month() time.Month { return d.month }

func (d Date) Day() int { return d.day }

// IsZero reports whether d is the zero value.
func (d Date) IsZero() bool { return d == Date{} }

func (d Date) Weekday() time.Weekday { return d.Time().Weekday() }

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.year, d.month, d.day, 0, 0, 0, 0, time.UTC)
}

// Ordinal is the number of days since 1970-01-01.
func (d Date) Ordinal() int {
	return int(d.Time().Unix() / 86400)
}

// Sub returns the signed number of days from other to d.
func (d Date) Sub(other Date) int {
	return d.Ordinal() - other.Ordinal()
}

func (d Date) Before(other Date) bool { return d.Ordinal() < other.Ordinal() }

func (d Date) After(other Date) bool { return d.Ordinal() > other.Ordinal() }

func (d Date) Equal(other Date) bool { return d == other }

// Compare returns -1, 0 or +1.
func (d Date) Compare(other Date) int {
	switch a, b := d.Ordinal(), other.Ordinal(); {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.year, int(d.month), d.day)
}

// MarshalText implements encoding.TextMarshaler.
func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AddDays shifts d by n calendar days.
func (d Date) AddDays(n int) Date {
	return FromOrdinal(d.Ordinal() + n)
}

// AddMonths behaves like Excel's EDATE: the day is clamped to the end of the
// target month when it does not exist there.
func (d Date) AddMonths(n int) Date {
	idx := d.year*12 + int(d.month) - 1 + n
	y := idx / 12
	m := time.Month(idx%12 + 1)
	day := d.day
	if last := DaysInMonth(y, m); day > last {
		day = last
	}
	return Date{year: y, month: m, day: day}
}

// AddYears shifts d by 12n months.
func (d Date) AddYears(n int) Date {
	return d.AddMonths(12 * n)
}

// AddTenor shifts d by a tenor such as "1D", "2W", "6M" or "10Y". A leading
// '-' moves backwards.
func (d Date) AddTenor(tenor string) (Date, error) {
	t := strings.ToUpper(strings.TrimSpace(tenor))
	sign := 1
	if strings.HasPrefix(t, "-") {
		sign = -1
		t = t[1:]
	}
	if len(t) < 2 {
		return Date{}, fmt.Errorf("AddTenor: invalid tenor %q", tenor)
	}
	var n int
	if _, err := fmt.Sscanf(t[:len(t)-1], "%d", &n); err != nil {
		return Date{}, fmt.Errorf("AddTenor: invalid tenor %q", tenor)
	}
	n *= sign
	switch t[len(t)-1] {
	case 'D':
		return d.AddDays(n), nil
	case 'W':
		return d.AddDays(7 * n), nil
	case 'M':
		return d.AddMonths(n), nil
	case 'Y':
		return d.AddYears(n), nil
	default:
		return Date{}, fmt.Errorf("AddTenor: invalid tenor %q", tenor)
	}
}

// NextCDSDate returns the IMM CDS roll date (20th of Mar, Jun, Sep or Dec)
// following d shifted by monthsAhead months. A shifted date on or after the
// 20th of a roll month rolls to the next quarter.
func (d Date) NextCDSDate(monthsAhead int) Date {
	next := d.AddMonths(monthsAhead)
	y, m := next.year, int(next.month)
	if m%3 == 0 && next.day >= 20 {
		m += 3
	} else {
		m += (3 - m%3) % 3
	}
	if m > 12 {
		m -= 12
		y++
	}
	return Date{year: y, month: time.Month(m), day: 20}
}

// IsEndOfMonth reports whether d is the last calendar day of its month.
func (d Date) IsEndOfMonth() bool {
	return d.day == DaysInMonth(d.year, d.month)
}

// EndOfMonth returns the last calendar day of d's month.
func (d Date) EndOfMonth() Date {
	return Date{year: d.year, month: d.month, day: DaysInMonth(d.year, d.month)}
}

// IsLeapYear reports whether y is a Gregorian leap year.
func IsLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}

// DaysInMonth returns the number of days in month m of year y.
func DaysInMonth(y int, m time.Month) int {
	switch m {
	case time.February:
		if IsLeapYear(y) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// Max returns the later of a and b.
func Max(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// Min returns the earlier of a and b.
func Min(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}
