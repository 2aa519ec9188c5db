package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects how shell positions are updated each step.
type Mode string

const (
	// ModeSCF relaxes shells self-consistently every timestep.
	ModeSCF Mode = "scf"
	// ModeEnergyMin relaxes shells inside an energy minimization.
	ModeEnergyMin Mode = "em"
	// ModeLagrangian integrates shells with an extended Lagrangian; the
	// relaxation solver rejects it.
	ModeLagrangian Mode = "lagrangian"
)

const (
	DefaultTolerance     = 10.0 // kJ/mol/nm
	DefaultMaxIterations = 20
	DefaultDt            = 0.001 // ps
	DefaultWallRadius    = 0.02  // nm
	DefaultWallTemp      = 1.0   // K
	DefaultSteps         = 100
)

type Config struct {
	// Relaxation
	Tolerance     float64 `yaml:"tolerance"`
	MaxIterations int     `yaml:"max_iterations"`
	Mode          Mode    `yaml:"mode"`
	Predict       bool    `yaml:"predict"`
	RequireInit   bool    `yaml:"require_init"`
	FlexStep      float64 `yaml:"flex_step"` // step scale along constraint directions

	// Integration
	Dt            float64 `yaml:"dt"`
	Steps         int     `yaml:"steps"`
	NstCalcEnergy int     `yaml:"nstcalcenergy"`

	HardWall HardWallConfig `yaml:"hard_wall"`

	Verbose bool `yaml:"verbose"`
}

// HardWallConfig bounds the Drude excursion from its heavy atom.
type HardWallConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Radius      float64 `yaml:"radius"`
	Temperature float64 `yaml:"temperature"`
}

func Default() *Config {
	return &Config{
		Tolerance:     DefaultTolerance,
		MaxIterations: DefaultMaxIterations,
		Mode:          ModeSCF,
		Predict:       true,
		Dt:            DefaultDt,
		Steps:         DefaultSteps,
		NstCalcEnergy: 1,
		HardWall: HardWallConfig{
			Enabled:     true,
			Radius:      DefaultWallRadius,
			Temperature: DefaultWallTemp,
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
	if err := cfg.Validate(); err != nil {
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

// Validate checks the scalar configuration. Violations are fatal: they are
// detected once before any simulation step runs.
func (c *Config) Validate() error {
	if c.Dt <= 0 {
		return fmt.Errorf("config: dt must be positive, got %g", c.Dt)
	}
	if c.Tolerance <= 0 {
		return fmt.Errorf("config: tolerance must be positive, got %g", c.Tolerance)
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("config: max_iterations must be positive, got %d", c.MaxIterations)
	}
	switch c.Mode {
	case ModeSCF, ModeEnergyMin, ModeLagrangian:
	default:
		return fmt.Errorf("config: unknown mode %q", c.Mode)
	}
	if c.HardWall.Enabled {
		if c.HardWall.Radius <= 0 {
			return fmt.Errorf("config: hard_wall.radius must be positive, got %g", c.HardWall.Radius)
		}
		if c.HardWall.Temperature <= 0 {
			return fmt.Errorf("config: hard_wall.temperature must be positive, got %g", c.HardWall.Temperature)
		}
	}
	return nil
}
