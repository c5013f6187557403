package app

import (
	"flag"
	"fmt"
)

// Config represents the command-line parameters for the viewer.
type Config struct {
	Sim      string
	Scenario string
	Scale    int
	// Rate is the target number of Monte Carlo steps per second.
	Rate     int
	Seed     int64
	HUDWidth int
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{Sim: "tissue", Scale: 4, Rate: 30, Seed: 1337, HUDWidth: 240}
}

// Bind attaches the configuration to the provided FlagSet.
func (c *Config) Bind(fs *flag.FlagSet) {
	fs.StringVar(&c.Sim, "sim", c.Sim, "simulation to run")
	fs.StringVar(&c.Scenario, "scenario", c.Scenario, "scenario file (yaml, toml or json)")
	fs.IntVar(&c.Scale, "scale", c.Scale, "pixel scale multiplier")
	fs.IntVar(&c.Rate, "rate", c.Rate, "Monte Carlo steps per second")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "seed for simulation reset")
	fs.IntVar(&c.HUDWidth, "hud", c.HUDWidth, "width of the parameter panel, 0 hides it")
}

// Validate rejects values the viewer cannot work with.
func (c *Config) Validate() error {
	if c.Scale < 1 {
		return fmt.Errorf("scale must be at least 1, got %d", c.Scale)
	}
	if c.Rate < 1 {
		return fmt.Errorf("rate must be at least 1, got %d", c.Rate)
	}
	if c.HUDWidth < 0 {
		return fmt.Errorf("hud width must not be negative, got %d", c.HUDWidth)
	}
	return nil
}

// SimParams returns the factory parameters derived from the flags.
func (c *Config) SimParams() map[string]string {
	params := map[string]string{"seed": fmt.Sprint(c.Seed)}
	if c.Scenario != "" {
		params["scenario"] = c.Scenario
	}
	return params
}
