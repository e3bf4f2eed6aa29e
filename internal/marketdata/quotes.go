// Package marketdata decodes the quote sets the tools build curves from.
package marketdata

import (
	"fmt"

	"github.com/meenmo/fixedincome/calendar"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
	"github.com/meenmo/fixedincome/schedule"
)

// DepositQuote is a money market rate (decimal) to Tenor or Maturity.
type DepositQuote struct {
	Tenor    string              `json:"tenor,omitempty"`
	Maturity date.Date           `json:"maturity,omitempty"`
	Rate     float64             `json:"rate"`
	DayCount daycount.Convention `json:"day_count"`
}

// SwapQuote is a par swap rate (decimal).
type SwapQuote struct {
	Tenor string  `json:"tenor"`
	Rate  float64 `json:"rate"`
}

// FixedLeg is the convention shared by all swap quotes.
type FixedLeg struct {
	Frequency  schedule.Frequency  `json:"frequency"`
	DayCount   daycount.Convention `json:"day_count"`
	Calendar   calendar.CalendarID `json:"calendar"`
	Convention string              `json:"convention"`
}

// CurveQuotes is a single-curve quote set anchored at Anchor.
type CurveQuotes struct {
	Anchor   date.Date      `json:"anchor"`
	Deposits []DepositQuote `json:"deposits"`
	Swaps    []SwapQuote    `json:"swaps"`
	FixedLeg FixedLeg       `json:"fixed_leg"`
	// Holidays are registered on FixedLeg.Calendar before building.
	Holidays []date.Date `json:"holidays,omitempty"`
	// Scheme overrides the configured interpolation when set.
	Scheme string `json:"scheme,omitempty"`
}

// SwapConvention resolves the fixed leg.
func (q CurveQuotes) SwapConvention() (curve.SwapConvention, error) {
	bdc, err := calendar.ParseConvention(q.FixedLeg.Convention)
	if err != nil {
		return curve.SwapConvention{}, err
	}
	cal := q.FixedLeg.Calendar
	if cal == "" {
		cal = calendar.WEEKEND
	}
	freq := q.FixedLeg.Frequency
	if freq == schedule.Zero {
		freq = schedule.Annual
	}
	return curve.SwapConvention{
		Frequency:  freq,
		DayCount:   q.FixedLeg.DayCount,
		Calendar:   cal,
		Convention: bdc,
	}, nil
}

// Instruments converts the quotes into curve instruments.
func (q CurveQuotes) Instruments() ([]curve.Deposit, []curve.Swap, error) {
	if q.Anchor.IsZero() {
		return nil, nil, fmt.Errorf("anchor date is required")
	}
	deposits := make([]curve.Deposit, 0, len(q.Deposits))
	for _, d := range q.Deposits {
		maturity := d.Maturity
		if maturity.IsZero() {
			m, err := q.Anchor.AddTenor(d.Tenor)
			if err != nil {
				return nil, nil, fmt.Errorf("deposit: %w", err)
			}
			maturity = m
		}
		deposits = append(deposits, curve.Deposit{Start: q.Anchor, Maturity: maturity, Rate: d.Rate, DayCount: d.DayCount})
	}

	conv, err := q.SwapConvention()
	if err != nil {
		return nil, nil, err
	}
	swaps := make([]curve.Swap, 0, len(q.Swaps))
	for _, s := range q.Swaps {
		sw, err := curve.ParSwap(q.Anchor, s.Tenor, s.Rate, conv)
		if err != nil {
			return nil, nil, err
		}
		swaps = append(swaps, sw)
	}
	return deposits, swaps, nil
}

// Build bootstraps the discount curve. opts come from configuration;
// a non-empty Scheme is applied last.
func (q CurveQuotes) Build(opts ...curve.Option) (*curve.Curve, error) {
	if len(q.Holidays) > 0 {
		calendar.AddHolidays(q.FixedLeg.Calendar, q.Holidays...)
	}
	deposits, swaps, err := q.Instruments()
	if err != nil {
		return nil, err
	}
	if q.Scheme != "" {
		s, err := curve.ParseScheme(q.Scheme)
		if err != nil {
			return nil, err
		}
		opts = append(opts, curve.WithScheme(s))
	}
	return curve.Bootstrap(q.Anchor, deposits, swaps, opts...)
}
