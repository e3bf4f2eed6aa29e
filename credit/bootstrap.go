package credit

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/solver"
)

var ErrNoDiscountCurve = errors.New("credit: discount curve required")

type options struct {
	solver solver.Config
	logger *zap.Logger
}

// Option configures Bootstrap.
type Option func(*options)

// WithSolverConfig overrides the root finder settings.
func WithSolverConfig(cfg solver.Config) Option {
	return func(o *options) { o.solver = cfg }
}

// WithLogger logs each calibrated node at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// Bootstrap calibrates a survival curve at valuation so that every CDS
// prices at par against discount. Contracts are processed by maturity; a
// later contract with the same maturity replaces an earlier one.
func Bootstrap(valuation date.Date, contracts []CDS, discount *curve.Curve, recovery float64, opts ...Option) (*Curve, error) {
	o := options{
		solver: solver.DefaultConfig.WithTolerance(1e-12),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	if discount == nil {
		return nil, ErrNoDiscountCurve
	}
	if err := checkRecovery(recovery); err != nil {
		return nil, err
	}
	if len(contracts) == 0 {
		return nil, &CalibrationError{Reason: "no contracts"}
	}

	sorted := append([]CDS(nil), contracts...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Maturity.Before(sorted[j].Maturity) })
	unique := sorted[:0]
	for _, c := range sorted {
		if c.StepIn.IsZero() {
			c.StepIn = valuation
		}
		if c.StepIn.Before(valuation) {
			return nil, &CalibrationError{Maturity: c.Maturity, Reason: "step-in before valuation date"}
		}
		if !c.Maturity.After(c.StepIn) {
			return nil, &CalibrationError{Maturity: c.Maturity, Reason: "maturity must follow step-in"}
		}
		if n := len(unique); n > 0 && unique[n-1].Maturity.Equal(c.Maturity) {
			unique[n-1] = c
			continue
		}
		unique = append(unique, c)
	}

	cv := &Curve{
		valuation: valuation,
		times:     []float64{0},
		qs:        []float64{1},
		discount:  discount,
		recovery:  recovery,
	}
	for _, c := range unique {
		prem, err := c.Schedule()
		if err != nil {
			return nil, &CalibrationError{Maturity: c.Maturity, Reason: "premium schedule", Err: err}
		}
		k := len(cv.times)
		qPrev := cv.qs[k-1]
		t := cv.TimeOf(prem[len(prem)-1].End)
		if t <= cv.times[k-1] {
			return nil, &CalibrationError{Maturity: c.Maturity, Reason: "adjusted maturity does not follow the previous node"}
		}
		cv.times = append(cv.times, t)
		cv.qs = append(cv.qs, qPrev)

		q, iters, err := solveSurvival(cv, k, c, prem, o.solver)
		if err != nil {
			return nil, err
		}
		cv.qs[k] = q
		o.logger.Debug("credit node calibrated",
			zap.Stringer("maturity", c.Maturity),
			zap.Float64("coupon", c.Coupon),
			zap.Float64("time", t),
			zap.Float64("survival", q),
			zap.Float64("hazard", cv.HazardRate(t)),
			zap.Int("iterations", iters),
		)
	}
	return cv, nil
}

// solveSurvival finds Q at node k in (0, Q_prev] that zeroes the contract
// value. The value rises with Q, so its sign at Q_prev decides feasibility.
func solveSurvival(cv *Curve, k int, c CDS, prem []Premium, cfg solver.Config) (float64, int, error) {
	qPrev := cv.qs[k-1]
	f := func(q float64) float64 {
		cv.qs[k] = q
		a, p := legs(prem, cv)
		return c.Coupon*a - p
	}

	atPrev := f(qPrev)
	if math.Abs(atPrev) < cfg.Tolerance {
		return qPrev, 0, nil
	}
	if atPrev < 0 {
		return 0, 0, &CalibrationError{Maturity: c.Maturity, Reason: fmt.Sprintf("coupon %g implies a negative hazard rate", c.Coupon)}
	}
	if f(solver.MinPositive) > 0 {
		return 0, 0, &CalibrationError{Maturity: c.Maturity, Reason: fmt.Sprintf("coupon %g cannot be matched by any survival probability", c.Coupon)}
	}

	dt := cv.times[k] - cv.times[k-1]
	guess := qPrev * math.Exp(-c.Coupon/(1-cv.recovery)*dt)
	if !(guess > solver.MinPositive && guess < qPrev) {
		guess = qPrev / 2
	}
	res, err := solver.Solve(f, guess, solver.Bounds{Lo: solver.MinPositive, Hi: qPrev}, cfg)
	if err != nil {
		return 0, 0, fmt.Errorf("Bootstrap: CDS maturing %s: %w", c.Maturity, err)
	}
	return res.X, res.Iterations, nil
}
