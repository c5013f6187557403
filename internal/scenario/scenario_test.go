package scenario

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mad-cpm/pkg/cpm"
)

const sampleYAML = `
name: pair
seed: 7
temperature: 12
types: 3
ticks: 40
lattice:
  extent: [40, 30]
  neighborhood: vonneumann
  boundary: bounded
  step: lattice
constraints:
  - type: 1
    values:
      lambda_area: 10
      target_area: 25
  - type: 2
    values:
      lambda_area: 5
      target_area: 9
      fixed: 1
adhesion:
  - {a: 1, b: 2, j: 30}
cells:
  - {type: 1, at: [10, 10], radius: 2}
  - {type: 2, count: 3}
output:
  every: 5
  chart: out.png
`

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	s, err := Load(writeFile(t, "pair.yaml", sampleYAML))
	require.NoError(t, err)

	assert.Equal(t, "pair", s.Name)
	assert.Equal(t, int64(7), s.Seed)
	assert.Equal(t, 12.0, s.Temperature)
	assert.Equal(t, []int{40, 30}, s.Lattice.Extent)
	assert.Equal(t, "lattice", s.Lattice.Step)
	require.Len(t, s.Constraints, 2)
	assert.Equal(t, 25.0, s.Constraints[0].Values["target_area"])
	assert.Equal(t, []Adhesion{{A: 1, B: 2, J: 30}}, s.Adhesion)
	require.Len(t, s.Cells, 2)
	assert.Equal(t, []int{10, 10}, s.Cells[0].At)
	assert.Equal(t, 5, s.Output.Every)
	assert.Equal(t, "out.png", s.Output.Chart)
	// Unset keys keep defaults.
	assert.Equal(t, Default().Output.FPS, s.Output.FPS)
}

func TestLoadMissingSectionsFallBack(t *testing.T) {
	s, err := Load(writeFile(t, "tiny.toml", "temperature = 3.5\n[lattice]\nextent = [50, 50]\n"))
	require.NoError(t, err)
	d := Default()
	assert.Equal(t, 3.5, s.Temperature)
	assert.Equal(t, d.Constraints, s.Constraints)
	assert.Equal(t, d.Cells, s.Cells)
	assert.Equal(t, d.Lattice.Neighborhood, s.Lattice.Neighborhood)
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CPM_TEMPERATURE", "7.25")
	t.Setenv("CPM_LATTICE_NEIGHBORHOOD", "moore")
	s, err := Load(writeFile(t, "pair.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, 7.25, s.Temperature)
	assert.Equal(t, "moore", s.Lattice.Neighborhood)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestBuildPlacesCells(t *testing.T) {
	s, err := Load(writeFile(t, "pair.yaml", sampleYAML))
	require.NoError(t, err)
	sim, err := s.Build(nil)
	require.NoError(t, err)

	assert.Equal(t, [3]int{40, 30, 1}, sim.Extent())
	assert.False(t, sim.Lattice().Periodic())
	require.Len(t, sim.CellIDs(1), 1)
	assert.Len(t, sim.CellIDs(2), 3)
	c, err := sim.Cell(sim.CellIDs(1)[0])
	require.NoError(t, err)
	assert.Equal(t, 25, c.Area)
	assert.InDelta(t, 10, c.Centroid[0], 1e-9)

	p, err := sim.Params(2)
	require.NoError(t, err)
	assert.True(t, p.Fixed)
	j, err := sim.Adhesion(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 30.0, j)
}

func TestBuildIsDeterministic(t *testing.T) {
	s := Default()
	s.Lattice.Extent = []int{60, 60}
	a, err := s.Build(nil)
	require.NoError(t, err)
	b, err := s.Build(nil)
	require.NoError(t, err)
	assert.Equal(t, a.State(), b.State())
	assert.Len(t, a.CellIDs(1), 30)
	assert.Len(t, a.CellIDs(2), 30)
}

func TestBuildRejectsBadInput(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Scenario)
	}{
		{"neighborhood", func(s *Scenario) { s.Lattice.Neighborhood = "hex" }},
		{"boundary", func(s *Scenario) { s.Lattice.Boundary = "mirror" }},
		{"step", func(s *Scenario) { s.Lattice.Step = "sweep" }},
		{"constraint key", func(s *Scenario) {
			s.Constraints = []TypeConstraints{{Type: 1, Values: map[string]float64{"stiffness": 1}}}
		}},
		{"adhesion type", func(s *Scenario) { s.Adhesion = []Adhesion{{A: 1, B: 9, J: 1}} }},
		{"radius", func(s *Scenario) { s.Cells = []Seed{{Type: 1, Radius: -1}} }},
		{"medium seed", func(s *Scenario) { s.Cells = []Seed{{Type: 0, At: []int{1, 1}}} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := Default()
			s.Lattice.Extent = []int{30, 30}
			tt.mutate(&s)
			_, err := s.Build(nil)
			assert.ErrorIs(t, err, cpm.ErrConfiguration)
		})
	}
}

func TestBuildOccupiedSeed(t *testing.T) {
	s := Default()
	s.Lattice.Extent = []int{20, 20}
	s.Cells = []Seed{
		{Type: 1, At: []int{5, 5}, Radius: 1},
		{Type: 2, At: []int{5, 6}},
	}
	_, err := s.Build(nil)
	assert.ErrorIs(t, err, cpm.ErrOccupiedSite)
}
