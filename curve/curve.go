// Package curve builds discount curves from deposit and par swap quotes and
// answers discount factor, zero rate and forward rate queries.
package curve

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/interp"

	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/daycount"
)

// Curve is a discount curve anchored at a valuation date. Node times are
// ACT/365F year fractions from the anchor; the anchor itself is node 0 with
// discount factor 1. A Curve is read-only once built.
type Curve struct {
	anchor date.Date
	times  []float64
	dfs    []float64
	scheme Scheme
	zero   interp.Predictor
}

// CalibrationError reports that no valid curve node could be produced.
type CalibrationError struct {
	Instrument string
	Maturity   date.Date
	Reason     string
	Err        error
}

func (e *CalibrationError) Error() string {
	msg := "curve calibration failed"
	if e.Instrument != "" {
		msg += fmt.Sprintf(" for %s maturing %s", e.Instrument, e.Maturity)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CalibrationError) Unwrap() error { return e.Err }

var ErrBadQuery = errors.New("curve: end must be after start")

// FromDiscountFactors builds a curve from node times (years from anchor,
// strictly increasing and positive) and their discount factors.
func FromDiscountFactors(anchor date.Date, times, dfs []float64, scheme Scheme) (*Curve, error) {
	if len(times) != len(dfs) {
		return nil, &CalibrationError{Reason: fmt.Sprintf("%d times but %d discount factors", len(times), len(dfs))}
	}
	if len(times) > 0 && (times[0] <= 0 || !strictlyIncreasing(times)) {
		return nil, &CalibrationError{Reason: "node times must be positive and strictly increasing"}
	}
	if floats.HasNaN(dfs) || (len(dfs) > 0 && floats.Min(dfs) <= 0) {
		return nil, &CalibrationError{Reason: "discount factors must be positive"}
	}
	c := &Curve{
		anchor: anchor,
		times:  append([]float64{0}, times...),
		dfs:    append([]float64{1}, dfs...),
		scheme: scheme,
	}
	if err := c.fit(); err != nil {
		return nil, &CalibrationError{Reason: "interpolation", Err: err}
	}
	return c, nil
}

// FromZeroRates builds a curve from continuously compounded zero rates.
func FromZeroRates(anchor date.Date, times, zeros []float64, scheme Scheme) (*Curve, error) {
	if len(times) != len(zeros) {
		return nil, &CalibrationError{Reason: fmt.Sprintf("%d times but %d zero rates", len(times), len(zeros))}
	}
	dfs := make([]float64, len(zeros))
	for i, z := range zeros {
		dfs[i] = math.Exp(-z * times[i])
	}
	return FromDiscountFactors(anchor, times, dfs, scheme)
}

// Flat returns a curve with a constant continuously compounded zero rate.
func Flat(anchor date.Date, rate float64) *Curve {
	c, _ := FromZeroRates(anchor, []float64{1}, []float64{rate}, LogLinearDF)
	return c
}

// Anchor returns the valuation date of time 0.
func (c *Curve) Anchor() date.Date { return c.anchor }

// Scheme returns the interpolation scheme.
func (c *Curve) Scheme() Scheme { return c.scheme }

// Times returns a copy of the node times, anchor excluded.
func (c *Curve) Times() []float64 {
	return append([]float64(nil), c.times[1:]...)
}

// DFs returns a copy of the node discount factors, anchor excluded.
func (c *Curve) DFs() []float64 {
	return append([]float64(nil), c.dfs[1:]...)
}

// TimeOf converts d into curve time (ACT/365F from the anchor). Dates before
// the anchor map to negative times.
func (c *Curve) TimeOf(d date.Date) float64 {
	return float64(d.Sub(c.anchor)) / 365.0
}

// DF returns the discount factor at time t. Times at or before the anchor
// discount at 1.
func (c *Curve) DF(t float64) float64 {
	if t <= 0 {
		return 1
	}
	if c.zero == nil {
		return c.logLinearDF(t)
	}
	return math.Exp(-c.zero.Predict(t) * t)
}

// DFAt returns the discount factor at date d.
func (c *Curve) DFAt(d date.Date) float64 {
	return c.DF(c.TimeOf(d))
}

// ZeroRate returns the continuously compounded zero rate to time t. At or
// before the anchor it is the rate to the first node.
func (c *Curve) ZeroRate(t float64) float64 {
	if t <= 0 {
		if len(c.times) < 2 {
			return 0
		}
		t = c.times[1]
	}
	return -math.Log(c.DF(t)) / t
}

// ForwardRate returns the continuously compounded forward rate between t1 and t2.
func (c *Curve) ForwardRate(t1, t2 float64) (float64, error) {
	if !(t2 > t1) {
		return 0, fmt.Errorf("ForwardRate: %w (%g, %g)", ErrBadQuery, t1, t2)
	}
	return math.Log(c.DF(t1)/c.DF(t2)) / (t2 - t1), nil
}

// SimpleForward returns the simply compounded forward rate between d1 and d2
// accrued under dc.
func (c *Curve) SimpleForward(d1, d2 date.Date, dc daycount.Convention) (float64, error) {
	if !d2.After(d1) {
		return 0, fmt.Errorf("SimpleForward: %w (%s, %s)", ErrBadQuery, d1, d2)
	}
	tau, err := daycount.Between(dc, d1, d2)
	if err != nil {
		return 0, fmt.Errorf("SimpleForward: %w", err)
	}
	return (c.DFAt(d1)/c.DFAt(d2) - 1) / tau, nil
}

// Shifted returns a new curve with every zero rate moved by bp basis points.
func (c *Curve) Shifted(bp float64) (*Curve, error) {
	shift := bp * 1e-4
	out := &Curve{
		anchor: c.anchor,
		times:  append([]float64(nil), c.times...),
		dfs:    make([]float64, len(c.dfs)),
		scheme: c.scheme,
	}
	for i, t := range c.times {
		out.dfs[i] = c.dfs[i] * math.Exp(-shift*t)
	}
	if err := out.fit(); err != nil {
		return nil, &CalibrationError{Reason: "interpolation", Err: err}
	}
	return out, nil
}
