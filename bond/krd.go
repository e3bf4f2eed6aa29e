package bond

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/solver"
)

// DefaultKeyRateTenors is the key-rate grid in years.
var DefaultKeyRateTenors = []float64{0.25, 0.5, 1, 2, 3, 4, 5, 7, 8, 9, 10, 20, 30}

// KeyRateOptions configures KeyRateDurations. Zero fields take defaults.
type KeyRateOptions struct {
	Tenors []float64
	// Shift is the zero rate bump, 1bp by default.
	Shift  float64
	Conv   YTMCalcType
	Solver solver.Config
}

func (o KeyRateOptions) withDefaults(conv YTMCalcType) KeyRateOptions {
	if len(o.Tenors) == 0 {
		o.Tenors = DefaultKeyRateTenors
	}
	if o.Shift == 0 {
		o.Shift = 1e-4
	}
	if o.Conv == 0 {
		o.Conv = conv
	}
	if o.Solver == (solver.Config{}) {
		o.Solver = solver.DefaultConfig.WithTolerance(1e-12)
	}
	return o
}

// KeyRates holds one duration per tenor.
type KeyRates struct {
	Tenors    []float64
	Durations []float64
}

// Total is the sum of the key-rate durations, close to the modified duration.
func (k KeyRates) Total() float64 {
	return floats.Sum(k.Durations)
}

type curvePricer interface {
	FullPriceFromYTM(settle date.Date, ytm float64, conv YTMCalcType) (float64, error)
	FullPriceFromDiscountCurve(settle date.Date, c *curve.Curve) (float64, error)
	yieldFromFull(settle date.Date, full float64, conv YTMCalcType, cfg solver.Config) (float64, error)
	compounding() float64
	maturity() date.Date
}

func (b *Bond) compounding() float64 { return float64(b.Frequency.PerYear()) }

func (z *ZeroBond) compounding() float64 { return 1 }

// KeyRateDurations bumps one node of a zero curve flat at ytm, compounded at
// the coupon frequency, and measures the relative price change. The curve is
// linear in zero rates, so a bump moves only the two segments around its
// node. Each bumped curve price is turned into a yield and repriced from that
// yield under opts.Conv. Tenors whose previous node lies past maturity are 0.
func (b *Bond) KeyRateDurations(settle date.Date, ytm float64, opts KeyRateOptions) (KeyRates, error) {
	return keyRateDurations(b, settle, ytm, opts.withDefaults(UKDMO))
}

// KeyRateDurations is the zero bond form of Bond.KeyRateDurations. Zero
// rates compound annually and opts.Conv defaults to Zero.
func (z *ZeroBond) KeyRateDurations(settle date.Date, ytm float64, opts KeyRateOptions) (KeyRates, error) {
	return keyRateDurations(z, settle, ytm, opts.withDefaults(Zero))
}

func keyRateDurations(p curvePricer, settle date.Date, ytm float64, opts KeyRateOptions) (KeyRates, error) {
	for i := 1; i < len(opts.Tenors); i++ {
		if opts.Tenors[i] <= opts.Tenors[i-1] {
			return KeyRates{}, fmt.Errorf("KeyRateDurations: tenors must increase, got %v", opts.Tenors)
		}
	}
	p0, err := p.FullPriceFromYTM(settle, ytm, opts.Conv)
	if err != nil {
		return KeyRates{}, err
	}

	axis := curve.Flat(settle, 0)
	times := make([]float64, len(opts.Tenors))
	for i, tau := range opts.Tenors {
		times[i] = axis.TimeOf(settle.AddMonths(int(math.Round(tau * 12))))
	}
	freq := p.compounding()
	continuous := func(r float64) float64 { return freq * math.Log1p(r/freq) }

	reprice := func(i int, bump float64) (float64, error) {
		zeros := make([]float64, len(times))
		for j := range zeros {
			zeros[j] = continuous(ytm)
		}
		zeros[i] = continuous(ytm + bump)
		c, err := curve.FromZeroRates(settle, times, zeros, curve.LinearZero)
		if err != nil {
			return 0, fmt.Errorf("KeyRateDurations %gY: %w", opts.Tenors[i], err)
		}
		full, err := p.FullPriceFromDiscountCurve(settle, c)
		if err != nil {
			return 0, err
		}
		y, err := p.yieldFromFull(settle, full, opts.Conv, opts.Solver)
		if err != nil {
			return 0, err
		}
		return p.FullPriceFromYTM(settle, y, opts.Conv)
	}

	years := axis.TimeOf(p.maturity())
	out := KeyRates{Tenors: opts.Tenors, Durations: make([]float64, len(opts.Tenors))}
	for i := range opts.Tenors {
		if i > 0 && times[i-1] >= years {
			continue
		}
		up, err := reprice(i, opts.Shift)
		if err != nil {
			return KeyRates{}, err
		}
		down, err := reprice(i, -opts.Shift)
		if err != nil {
			return KeyRates{}, err
		}
		out.Durations[i] = -(up - down) / (2 * opts.Shift * p0)
	}
	return out, nil
}
