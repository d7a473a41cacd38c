// Package config loads a run's tolerances, step bounds, solver choice and
// problem selection from a YAML file, the same way san-kum-dynsim's
// internal/config package loads its simulator runs.
package config

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rollingthunder/differential/multirate"
)

const (
	DefaultKMax      = 1.0
	DefaultKMin      = 1e-8
	DefaultThreshold = 0.9
	DefaultTolerance = 1e-3
	DefaultOrder     = 2
	DefaultSafety    = 0.9
	DefaultMethodQ   = 1
)

// Config is the on-disk shape of a run. Problem selects one of the
// named instances in multirate/problems; ProblemParams carries the
// parameters that problem needs (end time, stiffness, body count, ...).
type Config struct {
	Problem       string            `yaml:"problem"`
	ProblemParams ProblemParams     `yaml:"problem_params"`
	Method        string            `yaml:"method"`
	MethodOrder   uint              `yaml:"method_order"`
	Solver        string            `yaml:"solver"`
	FixedTimeStep bool              `yaml:"fixed_time_step"`
	Adaptivity    AdaptivityParams  `yaml:"adaptivity"`
	TracePath     string            `yaml:"trace_path"`
}

type ProblemParams struct {
	EndTime    float64 `yaml:"end_time"`
	Stiffness  float64 `yaml:"stiffness"`
	BodyCount  uint    `yaml:"body_count"`
}

type AdaptivityParams struct {
	KMax      float64 `yaml:"k_max"`
	KMin      float64 `yaml:"k_min"`
	Threshold float64 `yaml:"threshold"`
	Tolerance float64 `yaml:"tolerance"`
	Order     uint    `yaml:"order"`
	Safety    float64 `yaml:"safety"`
}

func Default() *Config {
	return &Config{
		Problem:     "decay",
		Method:      "cg",
		MethodOrder: DefaultMethodQ,
		Solver:      "default",
		ProblemParams: ProblemParams{
			EndTime:   1.0,
			Stiffness: 100.0,
			BodyCount: 4,
		},
		Adaptivity: AdaptivityParams{
			KMax:      DefaultKMax,
			KMin:      DefaultKMin,
			Threshold: DefaultThreshold,
			Tolerance: DefaultTolerance,
			Order:     DefaultOrder,
			Safety:    DefaultSafety,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CoreConfig translates the on-disk method/solver names into
// multirate.Config.
func (c *Config) CoreConfig() multirate.Config {
	cfg := multirate.DefaultConfig()
	cfg.MethodOrder = c.MethodOrder
	cfg.FixedTimeStep = c.FixedTimeStep
	if c.Method == "dg" {
		cfg.Method = multirate.DG
	}
	switch c.Solver {
	case "fixed-point":
		cfg.NonlinearSolver = multirate.FixedPointSolver
	case "newton":
		cfg.NonlinearSolver = multirate.NewtonSolver
	default:
		cfg.NonlinearSolver = multirate.DefaultSolver
	}
	cfg.Adaptivity = c.CoreAdaptivityConfig()
	return cfg
}

// CoreAdaptivityConfig translates the on-disk adaptivity knobs.
func (c *Config) CoreAdaptivityConfig() multirate.AdaptivityConfig {
	a := c.Adaptivity
	return multirate.AdaptivityConfig{
		KMax:      a.KMax,
		KMin:      a.KMin,
		Threshold: a.Threshold,
		Tolerance: a.Tolerance,
		Order:     a.Order,
		Safety:    a.Safety,
	}
}
