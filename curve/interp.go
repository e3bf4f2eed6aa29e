package curve

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/interp"
)

// Scheme selects how the curve is interpolated between nodes.
type Scheme int

const (
	// LogLinearDF interpolates log discount factors linearly (piecewise flat
	// forwards) and extrapolates the last forward.
	LogLinearDF Scheme = iota
	// LinearZero interpolates continuously compounded zero rates linearly.
	LinearZero
	// MonotoneCubicZero is a Fritsch-Butland monotone cubic on zero rates.
	MonotoneCubicZero
	// AkimaZero is an Akima spline on zero rates.
	AkimaZero
)

var schemeNames = map[Scheme]string{
	LogLinearDF:       "LOG_LINEAR_DF",
	LinearZero:        "LINEAR_ZERO",
	MonotoneCubicZero: "MONOTONE_CUBIC_ZERO",
	AkimaZero:         "AKIMA_ZERO",
}

func (s Scheme) String() string {
	if n, ok := schemeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Scheme(%d)", int(s))
}

// ParseScheme accepts the names returned by String, case-insensitively.
func ParseScheme(s string) (Scheme, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "" {
		return LogLinearDF, nil
	}
	for k, v := range schemeNames {
		if v == name {
			return k, nil
		}
	}
	return 0, fmt.Errorf("ParseScheme: unknown interpolation scheme %q", s)
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Scheme) UnmarshalText(b []byte) error {
	parsed, err := ParseScheme(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (s Scheme) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// local reports whether moving one node only changes the curve on the two
// intervals adjacent to it.
func (s Scheme) local() bool {
	return s == LogLinearDF || s == LinearZero
}

func (s Scheme) predictor(points int) interp.FittablePredictor {
	switch {
	case s == MonotoneCubicZero && points >= 3:
		return &interp.FritschButland{}
	case s == AkimaZero && points >= 3:
		return &interp.AkimaSpline{}
	default:
		return &interp.PiecewiseLinear{}
	}
}

// fit rebuilds the zero-rate interpolant. The anchor carries the first
// node's zero rate so the short end is flat.
func (c *Curve) fit() error {
	c.zero = nil
	if c.scheme == LogLinearDF || len(c.times) < 2 {
		return nil
	}
	n := len(c.times)
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 1; i < n; i++ {
		xs[i] = c.times[i]
		ys[i] = -math.Log(c.dfs[i]) / c.times[i]
	}
	ys[0] = ys[1]

	p := c.scheme.predictor(n)
	if err := p.Fit(xs, ys); err != nil {
		return fmt.Errorf("fit %s: %w", c.scheme, err)
	}
	c.zero = p
	return nil
}

func (c *Curve) logLinearDF(t float64) float64 {
	i := segment(c.times, t)
	if i < len(c.times) && c.times[i] == t {
		return c.dfs[i]
	}
	if i >= len(c.times) {
		n := len(c.times) - 1
		if n == 0 {
			return 1
		}
		fwd := math.Log(c.dfs[n-1]/c.dfs[n]) / (c.times[n] - c.times[n-1])
		return c.dfs[n] * math.Exp(-fwd*(t-c.times[n]))
	}
	t0, t1 := c.times[i-1], c.times[i]
	w := (t - t0) / (t1 - t0)
	return math.Exp((1-w)*math.Log(c.dfs[i-1]) + w*math.Log(c.dfs[i]))
}
