// Package scenario describes a complete simulation setup (lattice, constraint
// table, initial cells and outputs) and loads it from YAML, TOML or JSON files
// with environment overrides.
package scenario

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/viper"

	"mad-cpm/pkg/core"
	"mad-cpm/pkg/cpm"
	"mad-cpm/pkg/lattice"
)

// EnvPrefix is prepended to environment overrides, e.g. CPM_TEMPERATURE or
// CPM_LATTICE_NEIGHBORHOOD.
const EnvPrefix = "CPM"

// Lattice holds the grid shape.
type Lattice struct {
	Extent       []int  `mapstructure:"extent"`
	Neighborhood string `mapstructure:"neighborhood"`
	Boundary     string `mapstructure:"boundary"`
	Step         string `mapstructure:"step"`
}

// TypeConstraints lists constraint values for one cell type using the keys
// accepted by cpm.Simulation.SetConstraintValues.
type TypeConstraints struct {
	Type   int                `mapstructure:"type"`
	Values map[string]float64 `mapstructure:"values"`
}

// Adhesion is one symmetric contact energy.
type Adhesion struct {
	A int     `mapstructure:"a"`
	B int     `mapstructure:"b"`
	J float64 `mapstructure:"j"`
}

// Seed places cells of one type. With At set a single cell is placed there;
// otherwise Count cells go to random free sites. Radius grows each seed into
// a block of side 2*Radius+1 over free sites.
type Seed struct {
	Type   int   `mapstructure:"type"`
	At     []int `mapstructure:"at"`
	Count  int   `mapstructure:"count"`
	Radius int   `mapstructure:"radius"`
}

// Output selects what a headless run records.
type Output struct {
	Every int    `mapstructure:"every"`
	Movie string `mapstructure:"movie"`
	FPS   int    `mapstructure:"fps"`
	Scale int    `mapstructure:"scale"`
	Chart string `mapstructure:"chart"`
	DB    string `mapstructure:"db"`
}

// Scenario is a full simulation description.
type Scenario struct {
	Name        string            `mapstructure:"name"`
	Seed        int64             `mapstructure:"seed"`
	Temperature float64           `mapstructure:"temperature"`
	Types       int               `mapstructure:"types"`
	Ticks       int               `mapstructure:"ticks"`
	Lattice     Lattice           `mapstructure:"lattice"`
	Constraints []TypeConstraints `mapstructure:"constraints"`
	Adhesion    []Adhesion        `mapstructure:"adhesion"`
	Cells       []Seed            `mapstructure:"cells"`
	Output      Output            `mapstructure:"output"`
}

// Default returns a two-type cell sorting setup.
func Default() Scenario {
	return Scenario{
		Name:        "sorting",
		Seed:        1337,
		Temperature: 20,
		Types:       3,
		Ticks:       500,
		Lattice: Lattice{
			Extent:       []int{120, 120},
			Neighborhood: "moore",
			Boundary:     "periodic",
			Step:         "border",
		},
		Constraints: []TypeConstraints{
			{Type: 1, Values: map[string]float64{
				cpm.KeyLambdaArea: 5, cpm.KeyTargetArea: 60,
				cpm.KeyLambdaPerimeter: 0.5, cpm.KeyTargetPerimeter: 40,
			}},
			{Type: 2, Values: map[string]float64{
				cpm.KeyLambdaArea: 5, cpm.KeyTargetArea: 60,
				cpm.KeyMaxAct: 20, cpm.KeyLambdaAct: 80,
			}},
		},
		Adhesion: []Adhesion{
			{A: 0, B: 1, J: 16},
			{A: 0, B: 2, J: 16},
			{A: 1, B: 1, J: 2},
			{A: 2, B: 2, J: 14},
			{A: 1, B: 2, J: 11},
		},
		Cells: []Seed{
			{Type: 1, Count: 30, Radius: 3},
			{Type: 2, Count: 30, Radius: 3},
		},
		Output: Output{Every: 10, FPS: 25, Scale: 4},
	}
}

// NewViper returns a viper instance with defaults and environment overrides
// registered for every scalar key.
func NewViper() *viper.Viper {
	v := viper.New()
	d := Default()
	v.SetDefault("name", d.Name)
	v.SetDefault("seed", d.Seed)
	v.SetDefault("temperature", d.Temperature)
	v.SetDefault("types", d.Types)
	v.SetDefault("ticks", d.Ticks)
	v.SetDefault("lattice.extent", d.Lattice.Extent)
	v.SetDefault("lattice.neighborhood", d.Lattice.Neighborhood)
	v.SetDefault("lattice.boundary", d.Lattice.Boundary)
	v.SetDefault("lattice.step", d.Lattice.Step)
	v.SetDefault("output.every", d.Output.Every)
	v.SetDefault("output.movie", "")
	v.SetDefault("output.fps", d.Output.FPS)
	v.SetDefault("output.scale", d.Output.Scale)
	v.SetDefault("output.chart", "")
	v.SetDefault("output.db", "")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads a scenario file. Sections missing from the file fall back to
// Default.
func Load(path string) (Scenario, error) {
	v := NewViper()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return Scenario{}, fmt.Errorf("read scenario %s: %w", path, err)
	}
	return FromViper(v)
}

// FromViper decodes a scenario from an already populated viper instance.
func FromViper(v *viper.Viper) (Scenario, error) {
	var s Scenario
	if err := v.Unmarshal(&s); err != nil {
		return Scenario{}, fmt.Errorf("decode scenario: %w", err)
	}
	d := Default()
	if !v.IsSet("constraints") {
		s.Constraints = d.Constraints
	}
	if !v.IsSet("adhesion") {
		s.Adhesion = d.Adhesion
	}
	if !v.IsSet("cells") {
		s.Cells = d.Cells
	}
	return s, nil
}

// Options converts the scenario into engine options.
func (s Scenario) Options(logger *log.Logger) (cpm.Options, error) {
	nb, ok := lattice.ParseNeighborhood(strings.ToLower(s.Lattice.Neighborhood))
	if !ok {
		return cpm.Options{}, fmt.Errorf("%w: unknown neighborhood %q", cpm.ErrConfiguration, s.Lattice.Neighborhood)
	}
	bd, ok := lattice.ParseBoundary(strings.ToLower(s.Lattice.Boundary))
	if !ok {
		return cpm.Options{}, fmt.Errorf("%w: unknown boundary %q", cpm.ErrConfiguration, s.Lattice.Boundary)
	}
	mode, ok := cpm.ParseStepMode(strings.ToLower(s.Lattice.Step))
	if !ok {
		return cpm.Options{}, fmt.Errorf("%w: unknown step mode %q", cpm.ErrConfiguration, s.Lattice.Step)
	}
	return cpm.Options{
		Extent:       s.Lattice.Extent,
		Neighborhood: nb,
		Boundary:     bd,
		Types:        s.Types,
		Temperature:  s.Temperature,
		Seed:         s.Seed,
		Step:         mode,
		Logger:       logger,
	}, nil
}

// Build creates the simulation, applies the constraint table and places the
// initial cells.
func (s Scenario) Build(logger *log.Logger) (*cpm.Simulation, error) {
	opts, err := s.Options(logger)
	if err != nil {
		return nil, err
	}
	sim, err := cpm.New(opts)
	if err != nil {
		return nil, err
	}
	for _, c := range s.Constraints {
		if err := sim.SetConstraintValues(c.Type, cpm.NoType, c.Values); err != nil {
			return nil, fmt.Errorf("constraints for type %d: %w", c.Type, err)
		}
	}
	for _, a := range s.Adhesion {
		if err := sim.SetAdhesion(a.A, a.B, a.J); err != nil {
			return nil, fmt.Errorf("adhesion %d-%d: %w", a.A, a.B, err)
		}
	}
	placer := newPlacer(sim, core.NewRNG(s.Seed^0x5eed))
	for _, seed := range s.Cells {
		if err := placer.place(seed); err != nil {
			return nil, err
		}
	}
	return sim, nil
}
