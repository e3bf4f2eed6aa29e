package curve

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/schedule"
)

// TenorToYears converts tenor strings like "1W", "3M", "10Y" to year fractions.
// A bare number is read as years.
func TenorToYears(tenor string) (float64, error) {
	t := strings.TrimSpace(strings.ToUpper(tenor))
	if t == "" {
		return 0, fmt.Errorf("TenorToYears: empty tenor")
	}
	unit := t[len(t)-1]
	num := t[:len(t)-1]
	var scale float64
	switch unit {
	case 'D':
		scale = 1.0 / 365.0
	case 'W':
		scale = 7.0 / 365.0
	case 'M':
		scale = 1.0 / 12.0
	case 'Y':
		scale = 1
	default:
		v, err := strconv.ParseFloat(t, 64)
		if err != nil {
			return 0, fmt.Errorf("TenorToYears: invalid tenor %q", tenor)
		}
		return v, nil
	}
	v, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("TenorToYears: invalid tenor %q", tenor)
	}
	return float64(v) * scale, nil
}

// SwapConvention carries the fixed leg conventions shared by a strip of par swaps.
type SwapConvention struct {
	Frequency  schedule.Frequency
	DayCount   daycount.Convention
	Calendar   calendar.CalendarID
	Convention calendar.BusinessDayConvention
}

// ParSwap builds a payer par swap starting at start and maturing after tenor.
func ParSwap(start date.Date, tenor string, rate float64, conv SwapConvention) (Swap, error) {
	maturity, err := start.AddTenor(tenor)
	if err != nil {
		return Swap{}, fmt.Errorf("ParSwap: %w", err)
	}
	return Swap{
		Start:          start,
		Maturity:       maturity,
		FixedRate:      rate,
		FixedFrequency: conv.Frequency,
		FixedDayCount:  conv.DayCount,
		Direction:      Pay,
		Calendar:       conv.Calendar,
		Convention:     conv.Convention,
		Notional:       1,
	}, nil
}
