package tissue

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/log"

	"mad-cpm/internal/scenario"
)

// Config controls the tissue viewer adapter.
type Config struct {
	Scenario scenario.Scenario

	// Slice selects the displayed z plane of a 3D lattice.
	Slice int
	// Membranes darkens sites on a cell boundary.
	Membranes bool

	Logger *log.Logger
}

// DefaultConfig returns the default sorting scenario with membranes drawn.
func DefaultConfig() Config {
	return Config{
		Scenario:  scenario.Default(),
		Membranes: true,
	}
}

// FromMap populates the config from flag-style key/value pairs. A "scenario"
// key loads a scenario file first; the remaining keys override it.
func FromMap(cfg map[string]string) (Config, error) {
	c := DefaultConfig()
	if cfg == nil {
		return c, nil
	}
	if path, ok := cfg["scenario"]; ok && path != "" {
		s, err := scenario.Load(path)
		if err != nil {
			return c, err
		}
		c.Scenario = s
	}
	ext := append([]int(nil), c.Scenario.Lattice.Extent...)
	if len(ext) < 2 {
		return c, fmt.Errorf("tissue: scenario lattice needs at least 2 axes, got %v", ext)
	}
	if v, ok := cfg["w"]; ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 3 {
			return c, fmt.Errorf("tissue: bad width %q", v)
		}
		ext[0] = parsed
	}
	if v, ok := cfg["h"]; ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 3 {
			return c, fmt.Errorf("tissue: bad height %q", v)
		}
		ext[1] = parsed
	}
	c.Scenario.Lattice.Extent = ext
	if v, ok := cfg["seed"]; ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c, fmt.Errorf("tissue: bad seed %q", v)
		}
		c.Scenario.Seed = parsed
	}
	if v, ok := cfg["temperature"]; ok {
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil || parsed < 0 {
			return c, fmt.Errorf("tissue: bad temperature %q", v)
		}
		c.Scenario.Temperature = parsed
	}
	if v, ok := cfg["slice"]; ok {
		parsed, err := strconv.Atoi(v)
		if err != nil || parsed < 0 {
			return c, fmt.Errorf("tissue: bad slice %q", v)
		}
		c.Slice = parsed
	}
	if v, ok := cfg["membranes"]; ok {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return c, fmt.Errorf("tissue: bad membranes flag %q", v)
		}
		c.Membranes = parsed
	}
	return c, nil
}
