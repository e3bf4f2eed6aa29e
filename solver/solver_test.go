package solver

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolve_Newton(t *testing.T) {
	t.Parallel()

	res, err := Solve(func(x float64) float64 { return x*x - 2 }, 1, Unbounded, DefaultConfig)
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt2, res.X, 1e-10)
	assert.Less(t, math.Abs(res.Residual), DefaultConfig.Tolerance)
	assert.Equal(t, Newton, res.Method)
	assert.Less(t, res.Iterations, 10)
}

func TestSolve_StepHalvingKeepsIterateInBounds(t *testing.T) {
	t.Parallel()

	// Newton from 3 overshoots below zero where log is undefined.
	f := func(x float64) float64 {
		if x <= 0 {
			return math.NaN()
		}
		return math.Log(x) - 1
	}
	res, err := Solve(f, 30, Positive, DefaultConfig)
	require.NoError(t, err)
	assert.InDelta(t, math.E, res.X, 1e-9)
}

func TestSolve_FallsBackToBisection(t *testing.T) {
	t.Parallel()

	// Newton cycles on the cube root from any starting point.
	f := func(x float64) float64 { return math.Cbrt(x - 0.5) }
	res, err := Solve(f, 1, Unbounded, DefaultConfig.WithTolerance(1e-4))
	require.NoError(t, err)
	assert.Equal(t, Bisection, res.Method)
	assert.InDelta(t, 0.5, res.X, 1e-11)
}

func TestSolve_ConvergenceError(t *testing.T) {
	t.Parallel()

	_, err := Solve(func(x float64) float64 { return x*x + 1 }, 0.3, Unbounded, Config{MaxIterations: 5})
	var ce *ConvergenceError
	require.True(t, errors.As(err, &ce), "got %v", err)
	assert.Greater(t, math.Abs(ce.Residual), DefaultConfig.Tolerance)
}

func TestSolve_GuessOutOfBounds(t *testing.T) {
	t.Parallel()
	_, err := Solve(func(x float64) float64 { return x }, -1, Positive, DefaultConfig)
	assert.ErrorIs(t, err, ErrGuessOutOfBounds)
}

func TestBisect(t *testing.T) {
	t.Parallel()

	res, err := Bisect(math.Cos, 0, 3, DefaultConfig)
	require.NoError(t, err)
	assert.InDelta(t, math.Pi/2, res.X, 1e-9)

	_, err = Bisect(math.Cos, 0, 1, DefaultConfig)
	assert.ErrorIs(t, err, ErrNoBracket)
}

func TestConfigDefaults(t *testing.T) {
	t.Parallel()
	assert.Equal(t, DefaultConfig, Config{}.normalized())
	assert.Equal(t, 1e-12, DefaultConfig.WithTolerance(1e-12).normalized().Tolerance)
}
