package config

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"

	"github.com/OpenTraceLab/OpenTraceIGES/pkg/iges"
)

// Prefix is prepended to every variable name, as in OTIGES_LOG_LEVEL.
const Prefix = "OTIGES"

type Config struct {
	MinResolution  float64 `envconfig:"MIN_RESOLUTION" default:"1e-6"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
	LogDevelopment bool    `envconfig:"LOG_DEVELOPMENT" default:"false"`
	Author         string  `envconfig:"AUTHOR"`
	Organization   string  `envconfig:"ORGANIZATION"`
	Units          string  `envconfig:"UNITS" default:"MM"`
	MinDrill       float64 `envconfig:"MIN_DRILL" default:"0.1"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.MinResolution <= 0 {
		return fmt.Errorf("config: %s_MIN_RESOLUTION must be positive, got %g", Prefix, c.MinResolution)
	}
	if c.MinDrill < 0 {
		return fmt.Errorf("config: %s_MIN_DRILL must not be negative, got %g", Prefix, c.MinDrill)
	}
	if _, err := iges.ParseUnits(c.Units); err != nil {
		return fmt.Errorf("config: %s_UNITS: %w", Prefix, err)
	}
	return nil
}

// Global returns the global section for new models built with this
// configuration. units overrides c.Units when non-zero.
func (c *Config) Global(units iges.Units) iges.Global {
	g := iges.DefaultGlobal()
	g.Author = c.Author
	g.Organization = c.Organization
	g.MinResolution = c.MinResolution
	if units == 0 {
		units, _ = iges.ParseUnits(c.Units)
	}
	g.Units = units
	g.UnitsName = units.String()
	return g
}
