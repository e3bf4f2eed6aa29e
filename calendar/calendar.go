// Package calendar implements business-day rules: weekends plus optional
// registered holiday sets.
package calendar

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/meenmo/fixedincome/date"
)

// CalendarID identifies a holiday calendar.
type CalendarID string

const (
	// NONE treats every day as a business day.
	NONE    CalendarID = "NONE"
	WEEKEND CalendarID = "WEEKEND"
	TARGET  CalendarID = "TARGET"
	USD     CalendarID = "USD"
	GBP     CalendarID = "GBP"
)

var (
	mu       sync.RWMutex
	holidays = map[CalendarID]map[date.Date]struct{}{}
)

// AddHolidays registers extra closed days for cal. Weekends are always
// closed for every calendar except NONE.
func AddHolidays(cal CalendarID, days ...date.Date) {
	mu.Lock()
	defer mu.Unlock()
	set, ok := holidays[cal]
	if !ok {
		set = make(map[date.Date]struct{}, len(days))
		holidays[cal] = set
	}
	for _, d := range days {
		set[d] = struct{}{}
	}
}

func isHoliday(cal CalendarID, d date.Date) bool {
	mu.RLock()
	defer mu.RUnlock()
	_, ok := holidays[cal][d]
	return ok
}

// IsBusinessDay checks weekends and holiday sets.
func IsBusinessDay(cal CalendarID, d date.Date) bool {
	if cal == NONE || cal == "" {
		return true
	}
	if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !isHoliday(cal, d)
}

// BusinessDayConvention says how a date falling on a closed day is moved.
type BusinessDayConvention int

const (
	Unadjusted BusinessDayConvention = iota
	Following
	ModifiedFollowing
	Preceding
	ModifiedPreceding
)

var conventionNames = map[BusinessDayConvention]string{
	Unadjusted:        "UNADJUSTED",
	Following:         "FOLLOWING",
	ModifiedFollowing: "MODIFIED_FOLLOWING",
	Preceding:         "PRECEDING",
	ModifiedPreceding: "MODIFIED_PRECEDING",
}

func (c BusinessDayConvention) String() string {
	if s, ok := conventionNames[c]; ok {
		return s
	}
	return fmt.Sprintf("BusinessDayConvention(%d)", int(c))
}

// ParseConvention accepts names such as "MODIFIED_FOLLOWING" or "MF".
func ParseConvention(s string) (BusinessDayConvention, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "NONE", "UNADJUSTED":
		return Unadjusted, nil
	case "F", "FOLLOWING":
		return Following, nil
	case "MF", "MODIFIED_FOLLOWING", "MODIFIEDFOLLOWING":
		return ModifiedFollowing, nil
	case "P", "PRECEDING":
		return Preceding, nil
	case "MP", "MODIFIED_PRECEDING", "MODIFIEDPRECEDING":
		return ModifiedPreceding, nil
	}
	return 0, fmt.Errorf("ParseConvention: unknown business day convention %q", s)
}

// Adjust moves d onto a business day of cal under conv.
func Adjust(cal CalendarID, d date.Date, conv BusinessDayConvention) date.Date {
	switch conv {
	case Following:
		return roll(cal, d, 1)
	case ModifiedFollowing:
		if t := roll(cal, d, 1); t.Month() == d.Month() {
			return t
		}
		return roll(cal, d, -1)
	case Preceding:
		return roll(cal, d, -1)
	case ModifiedPreceding:
		if t := roll(cal, d, -1); t.Month() == d.Month() {
			return t
		}
		return roll(cal, d, 1)
	default:
		return d
	}
}

func roll(cal CalendarID, d date.Date, step int) date.Date {
	for !IsBusinessDay(cal, d) {
		d = d.AddDays(step)
	}
	return d
}

// AddBusinessDays advances n business days (n can be negative).
func AddBusinessDays(cal CalendarID, d date.Date, n int) date.Date {
	step := 1
	if n < 0 {
		step = -1
	}
	for n != 0 {
		d = d.AddDays(step)
		if IsBusinessDay(cal, d) {
			n -= step
		}
	}
	return d
}

// LastBusinessDayOfMonth returns the last business day of the month containing d.
func LastBusinessDayOfMonth(cal CalendarID, d date.Date) date.Date {
	return roll(cal, d.EndOfMonth(), -1)
}
