// Package credit builds survival curves from par CDS quotes and values CDS
// contracts against them.
package credit

import (
	"fmt"
	"math"

	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
)

// Curve is a survival probability curve with flat hazard rates between
// nodes. Node times are ACT/365F years from the valuation date; node 0 is
// the valuation date with survival 1.
type Curve struct {
	valuation date.Date
	times     []float64
	qs        []float64
	discount  *curve.Curve
	recovery  float64
}

// CalibrationError reports a CDS quote that no valid survival node can reprice.
type CalibrationError struct {
	Maturity date.Date
	Reason   string
	Err      error
}

func (e *CalibrationError) Error() string {
	msg := "credit curve calibration failed"
	if !e.Maturity.IsZero() {
		msg += " at " + e.Maturity.String()
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CalibrationError) Unwrap() error { return e.Err }

func checkRecovery(r float64) error {
	if !(r >= 0 && r < 1) {
		return &CalibrationError{Reason: fmt.Sprintf("recovery rate %g outside [0, 1)", r)}
	}
	return nil
}

// FlatCurve returns a curve with a constant hazard rate.
func FlatCurve(valuation date.Date, hazard float64, discount *curve.Curve, recovery float64) (*Curve, error) {
	if err := checkRecovery(recovery); err != nil {
		return nil, err
	}
	if !(hazard >= 0) {
		return nil, &CalibrationError{Reason: fmt.Sprintf("negative hazard rate %g", hazard)}
	}
	return &Curve{
		valuation: valuation,
		times:     []float64{0, 1},
		qs:        []float64{1, math.Exp(-hazard)},
		discount:  discount,
		recovery:  recovery,
	}, nil
}

// Valuation returns the date of time 0.
func (c *Curve) Valuation() date.Date { return c.valuation }

// RecoveryRate returns the recovery rate used at calibration.
func (c *Curve) RecoveryRate() float64 { return c.recovery }

// DiscountCurve returns the rate curve used at calibration.
func (c *Curve) DiscountCurve() *curve.Curve { return c.discount }

// Times returns a copy of the node times, valuation excluded.
func (c *Curve) Times() []float64 {
	return append([]float64(nil), c.times[1:]...)
}

// Survivals returns a copy of the node survival probabilities, valuation excluded.
func (c *Curve) Survivals() []float64 {
	return append([]float64(nil), c.qs[1:]...)
}

// TimeOf converts d into curve time.
func (c *Curve) TimeOf(d date.Date) float64 {
	return float64(d.Sub(c.valuation)) / 365.0
}

// interval returns the node index i such that t lies in (times[i-1], times[i]],
// clamped to the last interval beyond the final node.
func (c *Curve) interval(t float64) int {
	i := 1
	for i < len(c.times)-1 && t > c.times[i] {
		i++
	}
	return i
}

// HazardRate returns the flat hazard rate of the interval containing t.
func (c *Curve) HazardRate(t float64) float64 {
	if len(c.times) < 2 {
		return 0
	}
	i := c.interval(t)
	return math.Log(c.qs[i-1]/c.qs[i]) / (c.times[i] - c.times[i-1])
}

// SurvivalProbability returns Q(t). The last hazard rate is extrapolated.
func (c *Curve) SurvivalProbability(t float64) float64 {
	if t <= 0 || len(c.times) < 2 {
		return 1
	}
	i := c.interval(t)
	if t == c.times[i] {
		return c.qs[i]
	}
	h := math.Log(c.qs[i-1]/c.qs[i]) / (c.times[i] - c.times[i-1])
	return c.qs[i-1] * math.Exp(-h*(t-c.times[i-1]))
}

// SurvivalAt returns the survival probability to date d.
func (c *Curve) SurvivalAt(d date.Date) float64 {
	return c.SurvivalProbability(c.TimeOf(d))
}

// DefaultProbability returns 1 - Q(t).
func (c *Curve) DefaultProbability(t float64) float64 {
	return 1 - c.SurvivalProbability(t)
}
