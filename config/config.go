// Package config loads the YAML settings shared by the command line tools.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/meenmo/fixedincome/bond"
	"github.com/meenmo/fixedincome/curve"
	"github.com/meenmo/fixedincome/solver"
)

type Config struct {
	Solver  Solver  `yaml:"solver"`
	Curve   Curve   `yaml:"curve"`
	KeyRate KeyRate `yaml:"key_rate"`
	Log     Log     `yaml:"log"`
	Batch   Batch   `yaml:"batch"`
}

type Solver struct {
	Tolerance       float64 `yaml:"tolerance" default:"1e-10" validate:"gt=0"`
	MaxIterations   int     `yaml:"max_iterations" default:"50" validate:"gte=1"`
	DerivativeStep  float64 `yaml:"derivative_step" default:"1e-6" validate:"gt=0,lt=1"`
	StallIterations int     `yaml:"stall_iterations" default:"3" validate:"gte=1"`
	MaxBisections   int     `yaml:"max_bisections" default:"100" validate:"gte=1"`
}

type Curve struct {
	Scheme string `yaml:"scheme" default:"LOG_LINEAR_DF"`
	// Tolerance is the bootstrap repricing tolerance per unit notional.
	Tolerance float64 `yaml:"tolerance" default:"1e-12" validate:"gt=0"`
}

type KeyRate struct {
	Tenors []float64 `yaml:"tenors" default:"[0.25,0.5,1,2,3,4,5,7,8,9,10,20,30]" validate:"min=1,dive,gt=0"`
	Shift  float64   `yaml:"shift" default:"0.0001" validate:"gt=0"`
	Conv   string    `yaml:"convention" default:"UK_DMO"`
}

type Log struct {
	Env   string `yaml:"env" default:"development" validate:"oneof=development production"`
	Level string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
}

type Batch struct {
	// Workers bounds how many curves are built concurrently.
	Workers int `yaml:"workers" default:"4" validate:"gte=1,lte=64"`
}

var validate = validator.New()

// Default returns the configuration used when no file is given.
func Default() (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	return &c, nil
}

// Load reads and parses a YAML configuration file. Missing keys take their
// defaults; an empty path returns the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return Default()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes, applies defaults and validates the result.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("set defaults: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// Validate checks field constraints and that named conventions resolve.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			msgs := make([]string, 0, len(verrs))
			for _, e := range verrs {
				msgs = append(msgs, fmt.Sprintf("%s failed %s", e.Namespace(), e.Tag()))
			}
			return errors.New(strings.Join(msgs, "; "))
		}
		return err
	}
	if _, err := c.Scheme(); err != nil {
		return err
	}
	if _, err := bond.ParseYTMCalcType(c.KeyRate.Conv); err != nil {
		return err
	}
	for i := 1; i < len(c.KeyRate.Tenors); i++ {
		if c.KeyRate.Tenors[i] <= c.KeyRate.Tenors[i-1] {
			return fmt.Errorf("key_rate.tenors must increase, got %v", c.KeyRate.Tenors)
		}
	}
	return nil
}

// SolverConfig converts the solver section.
func (c *Config) SolverConfig() solver.Config {
	return solver.Config{
		Tolerance:       c.Solver.Tolerance,
		MaxIterations:   c.Solver.MaxIterations,
		DerivativeStep:  c.Solver.DerivativeStep,
		StallIterations: c.Solver.StallIterations,
		MaxBisections:   c.Solver.MaxBisections,
	}
}

// Scheme is the configured curve interpolation.
func (c *Config) Scheme() (curve.Scheme, error) {
	return curve.ParseScheme(c.Curve.Scheme)
}

// CurveOptions returns the bootstrap options for the curve section.
func (c *Config) CurveOptions() ([]curve.Option, error) {
	scheme, err := c.Scheme()
	if err != nil {
		return nil, err
	}
	return []curve.Option{
		curve.WithScheme(scheme),
		curve.WithSolverConfig(c.SolverConfig().WithTolerance(c.Curve.Tolerance)),
	}, nil
}

// KeyRateOptions converts the key-rate section.
func (c *Config) KeyRateOptions() (bond.KeyRateOptions, error) {
	conv, err := bond.ParseYTMCalcType(c.KeyRate.Conv)
	if err != nil {
		return bond.KeyRateOptions{}, err
	}
	return bond.KeyRateOptions{
		Tenors: append([]float64(nil), c.KeyRate.Tenors...),
		Shift:  c.KeyRate.Shift,
		Conv:   conv,
		Solver: c.SolverConfig().WithTolerance(c.Curve.Tolerance),
	}, nil
}
