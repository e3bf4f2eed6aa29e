// Package solver finds roots of scalar functions with Newton's method,
// falling back to bisection when Newton stalls.
package solver

import (
	"errors"
	"fmt"
	"math"
)

// Func is a scalar function whose root is sought.
type Func func(x float64) float64

// Method names the algorithm that produced a Result.
type Method int

const (
	Newton Method = iota
	Bisection
)

func (m Method) String() string {
	if m == Bisection {
		return "bisection"
	}
	return "newton"
}

// Bounds is the closed interval the root must lie in.
type Bounds struct {
	Lo float64
	Hi float64
}

// Unbounded places no restriction on x.
var Unbounded = Bounds{Lo: math.Inf(-1), Hi: math.Inf(1)}

// MinPositive is the lower bound used for strictly positive unknowns.
const MinPositive = 1e-14

// Positive restricts x to (0, +inf).
var Positive = Bounds{Lo: MinPositive, Hi: math.Inf(1)}

// Contains reports whether x lies in b.
func (b Bounds) Contains(x float64) bool {
	return x >= b.Lo && x <= b.Hi
}

// Result is a converged root.
type Result struct {
	X          float64
	Residual   float64
	Iterations int
	Method     Method
}

// ConvergenceError reports that the iteration cap was exhausted without
// meeting the tolerance. X and Residual are the last iterate.
type ConvergenceError struct {
	Iterations int
	X          float64
	Residual   float64
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("solver did not converge after %d iterations: x=%.12g residual=%.3g", e.Iterations, e.X, e.Residual)
}

var (
	ErrGuessOutOfBounds = errors.New("solver: initial guess outside bounds")
	ErrNoBracket        = errors.New("solver: no sign change in bracket")
)

// Solve finds x in b with |f(x)| < cfg.Tolerance starting from guess.
//
// Newton steps that leave b are halved until they land inside. After
// cfg.StallIterations consecutive steps without a smaller residual the search
// switches to bisection inside a bracket grown around the best iterate.
func Solve(f Func, guess float64, b Bounds, cfg Config) (Result, error) {
	cfg = cfg.normalized()
	if !b.Contains(guess) {
		return Result{}, fmt.Errorf("Solve: %w: guess=%g bounds=[%g, %g]", ErrGuessOutOfBounds, guess, b.Lo, b.Hi)
	}

	x := guess
	fx := f(x)
	bestX, bestF := x, math.Abs(fx)
	stall := 0

	for iter := 0; iter < cfg.MaxIterations; iter++ {
		if math.Abs(fx) < cfg.Tolerance {
			return Result{X: x, Residual: fx, Iterations: iter, Method: Newton}, nil
		}
		if math.IsNaN(fx) || math.IsInf(fx, 0) {
			return Result{}, &ConvergenceError{Iterations: iter, X: x, Residual: fx}
		}

		dfx := derivative(f, x, fx, b, cfg.DerivativeStep)
		if dfx == 0 || math.IsNaN(dfx) || math.IsInf(dfx, 0) {
			return fallback(f, bestX, b, cfg, iter)
		}

		next := x - fx/dfx
		fnext := math.NaN()
		for halvings := 0; halvings < 64; halvings++ {
			if b.Contains(next) {
				if fnext = f(next); !math.IsNaN(fnext) && !math.IsInf(fnext, 0) {
					break
				}
			}
			next = x + (next-x)/2
		}
		if math.IsNaN(fnext) || math.IsInf(fnext, 0) {
			return fallback(f, bestX, b, cfg, iter+1)
		}

		x, fx = next, fnext
		if math.Abs(fx) < bestF {
			bestX, bestF = x, math.Abs(fx)
			stall = 0
		} else {
			stall++
		}
		if stall >= cfg.StallIterations {
			return fallback(f, bestX, b, cfg, iter+1)
		}
	}

	if math.Abs(fx) < cfg.Tolerance {
		return Result{X: x, Residual: fx, Iterations: cfg.MaxIterations, Method: Newton}, nil
	}
	return Result{}, &ConvergenceError{Iterations: cfg.MaxIterations, X: x, Residual: fx}
}

// derivative is a central difference, one-sided at the bounds.
func derivative(f Func, x, fx float64, b Bounds, rel float64) float64 {
	h := rel * math.Max(1, math.Abs(x))
	up, down := x+h, x-h
	switch {
	case b.Contains(up) && b.Contains(down):
		return (f(up) - f(down)) / (2 * h)
	case b.Contains(up):
		return (f(up) - fx) / h
	case b.Contains(down):
		return (fx - f(down)) / h
	default:
		return 0
	}
}

// fallback grows a bracket around x until f changes sign, then bisects it.
func fallback(f Func, x float64, b Bounds, cfg Config, spent int) (Result, error) {
	fx := f(x)
	width := 0.1 * math.Max(1, math.Abs(x))
	for k := 0; k < 60; k++ {
		lo := math.Max(b.Lo, x-width)
		hi := math.Min(b.Hi, x+width)
		flo, fhi := f(lo), f(hi)
		if !math.IsNaN(flo) && !math.IsNaN(fhi) && flo*fhi <= 0 {
			res, err := Bisect(f, lo, hi, cfg)
			res.Iterations += spent
			var ce *ConvergenceError
			if errors.As(err, &ce) {
				ce.Iterations += spent
			}
			return res, err
		}
		width *= 2
	}
	return Result{}, &ConvergenceError{Iterations: spent, X: x, Residual: fx}
}

// Bisect finds a root of f in [lo, hi], which must bracket a sign change.
func Bisect(f Func, lo, hi float64, cfg Config) (Result, error) {
	cfg = cfg.normalized()
	if lo > hi {
		lo, hi = hi, lo
	}
	flo, fhi := f(lo), f(hi)
	if math.Abs(flo) < cfg.Tolerance {
		return Result{X: lo, Residual: flo, Method: Bisection}, nil
	}
	if math.Abs(fhi) < cfg.Tolerance {
		return Result{X: hi, Residual: fhi, Method: Bisection}, nil
	}
	if flo*fhi > 0 || math.IsNaN(flo*fhi) {
		return Result{}, fmt.Errorf("Bisect: %w: f(%g)=%g f(%g)=%g", ErrNoBracket, lo, flo, hi, fhi)
	}

	mid, fmid := lo, flo
	iter := 0
	for iter < cfg.MaxBisections {
		iter++
		mid = lo + (hi-lo)/2
		fmid = f(mid)
		if math.Abs(fmid) < cfg.Tolerance {
			return Result{X: mid, Residual: fmid, Iterations: iter, Method: Bisection}, nil
		}
		if (fmid < 0) == (flo < 0) {
			lo, flo = mid, fmid
		} else {
			hi = mid
		}
		if mid == lo+(hi-lo)/2 {
			break
		}
	}
	return Result{}, &ConvergenceError{Iterations: iter, X: mid, Residual: fmid}
}
