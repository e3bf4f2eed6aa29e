package curve

import (
	"fmt"
	"math"
	"sort"

	"go.uber.org/zap"

	"github.com/meenmo/fixedincome/date"
	"github.com/meenmo/fixedincome/schedule"
	"github.com/meenmo/fixedincome/solver"
)

// bootstrapTolerance is the default residual tolerance per unit notional.
const bootstrapTolerance = 1e-12

// maxPasses bounds the sweeps over all nodes for non-local schemes, where a
// new node moves the curve on earlier intervals.
const maxPasses = 50

type options struct {
	scheme Scheme
	solver solver.Config
	logger *zap.Logger
}

// Option configures Bootstrap.
type Option func(*options)

// WithScheme selects the interpolation scheme (default LogLinearDF).
func WithScheme(s Scheme) Option {
	return func(o *options) { o.scheme = s }
}

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

type quote struct {
	kind    string
	node    date.Date
	rate    float64
	start   date.Date
	tau     float64
	periods []schedule.Period
	taus    []float64
}

// Bootstrap calibrates a curve at anchor that reprices every deposit and
// swap at par. Instruments are ordered by maturity; when two share a
// maturity the one listed later wins, swaps counting as later than deposits.
func Bootstrap(anchor date.Date, deposits []Deposit, swaps []Swap, opts ...Option) (*Curve, error) {
	o := options{
		scheme: LogLinearDF,
		solver: solver.DefaultConfig.WithTolerance(bootstrapTolerance),
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	quotes, err := collectQuotes(anchor, deposits, swaps, o.logger)
	if err != nil {
		return nil, err
	}

	c := &Curve{
		anchor: anchor,
		times:  []float64{0},
		dfs:    []float64{1},
		scheme: o.scheme,
	}

	for pass := 0; pass < maxPasses; pass++ {
		move := 0.0
		for i, q := range quotes {
			k := i + 1
			if pass == 0 {
				t := c.TimeOf(q.node)
				c.times = append(c.times, t)
				c.dfs = append(c.dfs, c.dfs[k-1]*math.Exp(-q.rate*(t-c.times[k-1])))
			}
			prev := c.dfs[k]
			x, iters, err := solveNode(c, k, q, o.solver)
			if err != nil {
				return nil, err
			}
			c.dfs[k] = x
			if err := c.fit(); err != nil {
				return nil, &CalibrationError{Instrument: q.kind, Maturity: q.node, Reason: "interpolation", Err: err}
			}
			if pass > 0 {
				move = math.Max(move, math.Abs(x-prev))
			}
			o.logger.Debug("curve node calibrated",
				zap.Int("pass", pass),
				zap.String("instrument", q.kind),
				zap.Stringer("maturity", q.node),
				zap.Float64("time", c.times[k]),
				zap.Float64("df", x),
				zap.Int("iterations", iters),
			)
		}
		if o.scheme.local() || (pass > 0 && move < 1e-15) {
			return c, nil
		}
	}
	return nil, &CalibrationError{Reason: fmt.Sprintf("%s nodes did not settle after %d passes", o.scheme, maxPasses)}
}

func collectQuotes(anchor date.Date, deposits []Deposit, swaps []Swap, log *zap.Logger) ([]quote, error) {
	quotes := make([]quote, 0, len(deposits)+len(swaps))
	for _, d := range deposits {
		if d.Start.Before(anchor) {
			return nil, &CalibrationError{Instrument: "deposit", Maturity: d.Maturity, Reason: "starts before curve anchor"}
		}
		tau, err := d.accrual()
		if err != nil {
			return nil, &CalibrationError{Instrument: "deposit", Maturity: d.Maturity, Reason: "accrual", Err: err}
		}
		if tau <= 0 {
			return nil, &CalibrationError{Instrument: "deposit", Maturity: d.Maturity, Reason: "maturity must follow start"}
		}
		quotes = append(quotes, quote{kind: "deposit", node: d.Maturity, rate: d.Rate, start: d.Start, tau: tau})
	}
	for _, s := range swaps {
		if s.Start.Before(anchor) {
			return nil, &CalibrationError{Instrument: "swap", Maturity: s.Maturity, Reason: "starts before curve anchor"}
		}
		periods, taus, err := s.FixedLeg()
		if err != nil {
			return nil, &CalibrationError{Instrument: "swap", Maturity: s.Maturity, Reason: "fixed leg", Err: err}
		}
		quotes = append(quotes, quote{
			kind:    "swap",
			node:    periods[len(periods)-1].Pay,
			rate:    s.FixedRate,
			start:   s.Start,
			periods: periods,
			taus:    taus,
		})
	}
	if len(quotes) == 0 {
		return nil, &CalibrationError{Reason: "no instruments"}
	}

	sort.SliceStable(quotes, func(i, j int) bool { return quotes[i].node.Before(quotes[j].node) })

	out := quotes[:0]
	for _, q := range quotes {
		if !q.node.After(anchor) {
			return nil, &CalibrationError{Instrument: q.kind, Maturity: q.node, Reason: "matures on or before curve anchor"}
		}
		if n := len(out); n > 0 && out[n-1].node.Equal(q.node) {
			log.Debug("duplicate curve maturity, keeping later quote",
				zap.Stringer("maturity", q.node),
				zap.String("dropped", out[n-1].kind),
				zap.String("kept", q.kind),
			)
			out[n-1] = q
			continue
		}
		out = append(out, q)
	}
	return out, nil
}

// solveNode finds the discount factor of node k that prices q at par,
// all other nodes held fixed.
func solveNode(c *Curve, k int, q quote, cfg solver.Config) (float64, int, error) {
	if q.kind == "deposit" {
		growth := 1 + q.rate*q.tau
		if growth <= 0 {
			return 0, 0, &CalibrationError{Instrument: q.kind, Maturity: q.node, Reason: "non-positive discount factor"}
		}
		if c.scheme.local() && c.TimeOf(q.start) <= c.times[k-1] {
			return c.DFAt(q.start) / growth, 0, nil
		}
	}

	f := func(x float64) float64 {
		c.dfs[k] = x
		if err := c.fit(); err != nil {
			return math.NaN()
		}
		return q.residual(c)
	}

	if f(solver.MinPositive) >= 0 {
		return 0, 0, &CalibrationError{Instrument: q.kind, Maturity: q.node, Reason: "non-positive discount factor"}
	}
	guess := c.dfs[k]
	if !(guess > 0) || math.IsInf(guess, 0) {
		guess = c.dfs[k-1]
	}
	res, err := solver.Solve(f, guess, solver.Positive, cfg)
	if err != nil {
		return 0, 0, fmt.Errorf("Bootstrap: %s maturing %s: %w", q.kind, q.node, err)
	}
	if !(res.X > 0) || math.IsInf(res.X, 0) {
		return 0, 0, &CalibrationError{Instrument: q.kind, Maturity: q.node, Reason: fmt.Sprintf("solved discount factor %g", res.X)}
	}
	return res.X, res.Iterations, nil
}

// residual is zero when c prices the quote at par and grows with the node
// discount factor.
func (q quote) residual(c *Curve) float64 {
	if q.kind == "deposit" {
		return c.DFAt(q.node)*(1+q.rate*q.tau) - c.DFAt(q.start)
	}
	return q.rate*annuity(c, q.periods, q.taus) - c.DFAt(q.start) + c.DFAt(q.node)
}
