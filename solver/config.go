package solver

// Config holds the root finder tolerances.
type Config struct {
	// Tolerance is the absolute residual |f(x)| accepted as a root.
	Tolerance float64

	// MaxIterations caps the Newton iterations.
	MaxIterations int

	// DerivativeStep is the relative step of the central-difference derivative:
	// h = DerivativeStep * max(1, |x|).
	DerivativeStep float64

	// StallIterations is the number of consecutive Newton steps without a
	// smaller residual after which the solver switches to bisection.
	StallIterations int

	// MaxBisections caps the bisection iterations, bracket search excluded.
	MaxBisections int
}

// DefaultConfig provides the default solver settings.
var DefaultConfig = Config{
	Tolerance:       1e-10,
	MaxIterations:   50,
	DerivativeStep:  1e-6,
	StallIterations: 3,
	MaxBisections:   100,
}

// WithTolerance returns a copy of c with Tolerance set to tol.
func (c Config) WithTolerance(tol float64) Config {
	c.Tolerance = tol
	return c
}

// normalized fills unset fields from DefaultConfig.
func (c Config) normalized() Config {
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultConfig.Tolerance
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultConfig.MaxIterations
	}
	if c.DerivativeStep <= 0 {
		c.DerivativeStep = DefaultConfig.DerivativeStep
	}
	if c.StallIterations <= 0 {
		c.StallIterations = DefaultConfig.StallIterations
	}
	if c.MaxBisections <= 0 {
		c.MaxBisections = DefaultConfig.MaxBisections
	}
	return c
}
