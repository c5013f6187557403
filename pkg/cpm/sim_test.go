package cpm

import (
	"errors"
	"math"
	"runtime"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mad-cpm/pkg/lattice"
)

func newSim(t *testing.T, opts Options) *Simulation {
	t.Helper()
	if opts.Types == 0 {
		opts.Types = 2
	}
	s, err := New(opts)
	require.NoError(t, err)
	return s
}

func square(x0, y0, side int) [][]int {
	var pts [][]int
	for y := y0; y < y0+side; y++ {
		for x := x0; x < x0+side; x++ {
			pts = append(pts, []int{x, y})
		}
	}
	return pts
}

// checkInvariants compares the incremental bookkeeping against a full
// recount of the lattice.
func checkInvariants(t *testing.T, s *Simulation) {
	t.Helper()
	counts := make([]int, s.cells.nextID())
	occupied := 0
	for i := 0; i < s.lat.Len(); i++ {
		if s.lat.IsBorder(i) != s.lat.Border().Contains(i) {
			t.Fatalf("site %v border=%v listed=%v", s.lat.Coords(i), s.lat.IsBorder(i), s.lat.Border().Contains(i))
		}
		id := s.lat.ID(i)
		if id == 0 {
			continue
		}
		require.Less(t, int(id), len(counts), "site %d carries unknown id %d", i, id)
		counts[id]++
		occupied++
	}
	total := 0
	for id := uint32(1); id < s.cells.nextID(); id++ {
		c := s.cells.cells[id]
		if c.area != counts[id] {
			t.Fatalf("cell %d area=%d lattice=%d", id, c.area, counts[id])
		}
		if c.alive != (counts[id] > 0) {
			t.Fatalf("cell %d alive=%v with %d sites", id, c.alive, counts[id])
		}
		if got := s.RecalcPerimeter(id); c.perimeter != got {
			t.Fatalf("cell %d perimeter=%d recount=%d", id, c.perimeter, got)
		}
		if c.alive {
			total += c.area
		}
	}
	if total != occupied {
		t.Fatalf("sum of areas %d != occupied sites %d", total, occupied)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no types", Options{Extent: []int{10, 10}, Types: 0}},
		{"too many types", Options{Extent: []int{10, 10}, Types: 257}},
		{"one axis", Options{Extent: []int{10}, Types: 2}},
		{"nan temperature", Options{Extent: []int{10, 10}, Types: 2, Temperature: math.NaN()}},
		{"negative temperature", Options{Extent: []int{10, 10}, Types: 2, Temperature: -1}},
		{"bad step mode", Options{Extent: []int{10, 10}, Types: 2, Step: 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			assert.ErrorIs(t, err, ErrConfiguration)
		})
	}
}

func TestSetTemperatureRejectsInvalid(t *testing.T) {
	s := newSim(t, Options{Extent: []int{10, 10}, Temperature: 2})
	for _, v := range []float64{-1, math.Inf(1), math.NaN()} {
		if err := s.SetTemperature(v); !errors.Is(err, ErrConfiguration) {
			t.Fatalf("SetTemperature(%v) = %v, want ErrConfiguration", v, err)
		}
		if s.Temperature() != 2 {
			t.Fatalf("temperature changed to %v after rejected %v", s.Temperature(), v)
		}
	}
	require.NoError(t, s.SetTemperature(0))
	assert.Zero(t, s.Temperature())
}

func TestScenarioAreaTargetReached(t *testing.T) {
	s := newSim(t, Options{Extent: []int{10, 10}, Neighborhood: lattice.Moore, Types: 2, Seed: 1})
	require.NoError(t, s.SetConstraints(1, Constraints{LambdaArea: Ptr(10.0), TargetArea: Ptr(20.0)}))
	id, err := s.AddCell(1, 5, 5)
	require.NoError(t, err)

	for tick := 0; tick < 50; tick++ {
		require.NoError(t, s.Run(1))
		c, err := s.Cell(id)
		require.NoError(t, err)
		require.LessOrEqual(t, c.Area, 100)
		checkInvariants(t, s)
	}
	c, err := s.Cell(id)
	require.NoError(t, err)
	assert.InDelta(t, 20, c.Area, 1)
}

func TestDeterministicForSeed(t *testing.T) {
	build := func(seed int64) *Simulation {
		s := newSim(t, Options{Extent: []int{24, 24}, Neighborhood: lattice.Moore, Types: 3, Temperature: 10, Seed: seed})
		require.NoError(t, s.SetConstraints(1, Constraints{LambdaArea: Ptr(5.0), TargetArea: Ptr(30.0), MaxAct: Ptr(20.0), LambdaAct: Ptr(50.0)}))
		require.NoError(t, s.SetConstraints(2, Constraints{LambdaArea: Ptr(5.0), TargetArea: Ptr(30.0), LambdaPersistence: Ptr(20.0), PersistenceDiffusion: Ptr(0.8), PersistenceTime: Ptr(5)}))
		require.NoError(t, s.SetAdhesion(1, 2, 15))
		require.NoError(t, s.SetAdhesion(0, 1, 5))
		for k := 0; k < 6; k++ {
			_, err := s.AddCell(1+k%2, 3+k*3, 4+k*2)
			require.NoError(t, err)
		}
		require.NoError(t, s.Run(40))
		return s
	}

	a, b := build(11), build(11)
	if !slices.Equal(a.State(), b.State()) {
		t.Fatal("same seed produced different lattices")
	}
	if !slices.Equal(a.ActState(), b.ActState()) {
		t.Fatal("same seed produced different activity")
	}
	assert.Equal(t, a.Stats(), b.Stats())
	assert.Equal(t, a.Centroids(), b.Centroids())

	c := build(12)
	assert.False(t, slices.Equal(a.State(), c.State()), "different seeds should diverge")
}

func TestBookkeepingMatchesLattice(t *testing.T) {
	for _, tt := range []struct {
		name string
		opts Options
	}{
		{"periodic moore", Options{Extent: []int{20, 20}, Neighborhood: lattice.Moore}},
		{"bounded vonneumann", Options{Extent: []int{20, 20}, Neighborhood: lattice.VonNeumann, Boundary: lattice.Bounded}},
		{"periodic 3d", Options{Extent: []int{8, 8, 8}, Neighborhood: lattice.Moore}},
	} {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			opts.Types = 3
			opts.Temperature = 15
			opts.Seed = 3
			s := newSim(t, opts)
			require.NoError(t, s.SetConstraints(1, Constraints{LambdaArea: Ptr(2.0), TargetArea: Ptr(12.0), LambdaPerimeter: Ptr(0.5), TargetPerimeter: Ptr(20.0)}))
			require.NoError(t, s.SetConstraints(2, Constraints{LambdaArea: Ptr(1.0), TargetArea: Ptr(4.0)}))
			require.NoError(t, s.SetAdhesion(1, 2, 8))
			coords := [][]int{{1, 1}, {5, 5}, {0, 7}, {7, 0}, {3, 6}}
			for k, c := range coords {
				if s.Dims() == 3 {
					c = append(c, k)
				}
				_, err := s.AddCell(1+k%2, c...)
				require.NoError(t, err)
			}
			for tick := 0; tick < 25; tick++ {
				require.NoError(t, s.Run(1))
				checkInvariants(t, s)
			}
		})
	}
}

func TestZeroTemperatureNeverRaisesEnergy(t *testing.T) {
	s := newSim(t, Options{Extent: []int{16, 16}, Neighborhood: lattice.Moore, Types: 3, Seed: 9})
	require.NoError(t, s.SetConstraints(1, Constraints{LambdaArea: Ptr(2.0), TargetArea: Ptr(12.0), LambdaPerimeter: Ptr(0.5), TargetPerimeter: Ptr(14.0)}))
	require.NoError(t, s.SetConstraints(2, Constraints{LambdaArea: Ptr(1.0), TargetArea: Ptr(6.0)}))
	require.NoError(t, s.SetAdhesion(1, 2, 10))
	require.NoError(t, s.SetAdhesion(0, 1, 4))
	require.NoError(t, s.SetAdhesion(0, 2, 4))
	require.NoError(t, s.SetAdhesion(1, 1, 2))
	_, err := s.OverwriteCell(1, square(2, 2, 4))
	require.NoError(t, err)
	_, err = s.OverwriteCell(2, square(6, 2, 3))
	require.NoError(t, err)
	_, err = s.AddCell(1, 10, 10)
	require.NoError(t, err)

	prev := s.Energy()
	for tick := 0; tick < 30; tick++ {
		require.NoError(t, s.Run(1))
		e := s.Energy()
		if e > prev+1e-6 {
			t.Fatalf("tick %d: energy rose from %v to %v", tick, prev, e)
		}
		prev = e
	}
	checkInvariants(t, s)
}

func TestFixedCellNeverChanges(t *testing.T) {
	s := newSim(t, Options{Extent: []int{12, 12}, Neighborhood: lattice.Moore, Types: 3, Temperature: 5, Seed: 4})
	require.NoError(t, s.SetConstraints(1, Constraints{LambdaArea: Ptr(5.0), TargetArea: Ptr(40.0)}))
	require.NoError(t, s.SetConstraints(2, Constraints{Fixed: Ptr(true), LambdaArea: Ptr(1.0), TargetArea: Ptr(1.0)}))
	wall, err := s.OverwriteCell(2, square(4, 4, 3))
	require.NoError(t, err)
	_, err = s.AddCell(1, 3, 5)
	require.NoError(t, err)

	var before []int
	for i, v := range s.State() {
		if lattice.IDOf(v) == wall {
			before = append(before, i)
		}
	}
	require.NoError(t, s.Run(30))

	var after []int
	for i, v := range s.State() {
		if lattice.IDOf(v) == wall {
			after = append(after, i)
		}
	}
	assert.Equal(t, before, after)
	c, err := s.Cell(wall)
	require.NoError(t, err)
	assert.True(t, c.Fixed)
	assert.Equal(t, 9, c.Area)
}

func TestScenarioRepulsiveCellsSeparate(t *testing.T) {
	contact := func(s *Simulation, a, b uint32) int {
		n := 0
		var buf []int
		for i := 0; i < s.lat.Len(); i++ {
			if s.lat.ID(i) != a {
				continue
			}
			buf = s.lat.Neighbors(i, buf)
			for _, nb := range buf {
				if s.lat.ID(nb) == b {
					n++
				}
			}
		}
		return n
	}

	var initial, final int
	for seed := int64(1); seed <= 5; seed++ {
		s := newSim(t, Options{Extent: []int{20, 20}, Neighborhood: lattice.Moore, Types: 3, Temperature: 20, Seed: seed})
		for typ := 1; typ <= 2; typ++ {
			require.NoError(t, s.SetConstraints(typ, Constraints{LambdaArea: Ptr(5.0), TargetArea: Ptr(9.0)}))
		}
		require.NoError(t, s.SetAdhesion(1, 2, 100))
		require.NoError(t, s.SetAdhesion(1, 1, 0))
		a, err := s.OverwriteCell(1, square(5, 8, 3))
		require.NoError(t, err)
		b, err := s.OverwriteCell(2, square(8, 8, 3))
		require.NoError(t, err)

		initial += contact(s, a, b)
		require.NoError(t, s.Run(100))
		final += contact(s, a, b)
		checkInvariants(t, s)
	}
	require.Equal(t, 35, initial)
	assert.LessOrEqual(t, final, initial/2)
}

func TestScenarioAddCellOnOccupiedSite(t *testing.T) {
	s := newSim(t, Options{Extent: []int{10, 10}, Neighborhood: lattice.Moore})
	_, err := s.AddCell(1, 3, 3)
	require.NoError(t, err)
	before := s.State()
	stats := s.Stats()

	_, err = s.AddCell(1, 3, 3)
	require.ErrorIs(t, err, ErrOccupiedSite)
	assert.Equal(t, before, s.State())
	assert.Equal(t, stats, s.Stats())
	assert.Equal(t, []uint32{1}, s.CellIDs(1))

	_, err = s.AddCell(1, 10, 3)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = s.AddCell(1, 3)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = s.AddCell(5, 4, 4)
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = s.AddCell(0, 4, 4)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestScenarioLoadRejectsOversizedID(t *testing.T) {
	s := newSim(t, Options{Extent: []int{4, 4}, Types: 2})
	_, err := s.AddCell(1, 1, 1)
	require.NoError(t, err)
	before := s.State()

	ids := make([]uint64, 16)
	types := make([]int, 16)
	ids[5], types[5] = 1<<24, 1
	err = s.InitializeFromLayers(ids, types, 0)
	require.ErrorIs(t, err, ErrConfiguration)

	// Packed, an id of 2^24 spills into the type field.
	grid := make([]int64, 16)
	grid[5] = 1<<24 + 1<<24
	err = s.InitializeFromArray(grid, 0)
	require.ErrorIs(t, err, ErrConfiguration)

	grid[5] = -1
	require.ErrorIs(t, s.InitializeFromArray(grid, 0), ErrConfiguration)
	require.ErrorIs(t, s.InitializeFromArray(grid[:4], 0), ErrConfiguration)

	assert.Equal(t, before, s.State())
	checkInvariants(t, s)
}

func TestInitializeFromArray(t *testing.T) {
	s := newSim(t, Options{Extent: []int{6, 6}, Neighborhood: lattice.VonNeumann, Types: 4})
	grid := make([]int64, 36)
	pack := func(id, typ int64) int64 { return typ<<24 | id }
	for _, i := range []int{0, 1, 6, 7} {
		grid[i] = pack(2, 1)
	}
	for _, i := range []int{20, 21, 22} {
		grid[i] = pack(4, 3)
	}
	grid[35] = pack(0, 1)

	require.NoError(t, s.InitializeFromArray(grid, 2))
	checkInvariants(t, s)

	assert.Equal(t, []uint32{2}, s.CellIDs(1))
	assert.Equal(t, []uint32{4}, s.CellIDs(3))
	assert.Empty(t, s.CellIDs(2))
	_, err := s.Cell(3)
	assert.ErrorIs(t, err, ErrOutOfRange)

	c, err := s.Cell(2)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Area)
	assert.Equal(t, 8, c.Perimeter)

	// Untyped medium takes the background type; typed medium keeps its own.
	assert.Equal(t, 36-4-3-1, s.CountType(2))
	assert.Equal(t, 4+1, s.CountType(1))

	id, err := s.AddCell(1, 3, 5)
	require.NoError(t, err)
	assert.Equal(t, uint32(5), id)

	mixed := make([]int64, 36)
	mixed[0], mixed[1] = pack(1, 1), pack(1, 2)
	assert.ErrorIs(t, s.InitializeFromArray(mixed, 0), ErrConfiguration)
	assert.ErrorIs(t, s.InitializeFromArray(grid, 9), ErrConfiguration)
}

func TestBulkLoadRejectsTypelessCell(t *testing.T) {
	s := newSim(t, Options{Extent: []int{4, 4}, Types: 3})
	_, err := s.AddCell(2, 1, 1)
	require.NoError(t, err)
	before := s.State()

	grid := make([]int64, 16)
	grid[3] = 1
	err = s.InitializeFromArray(grid, 0)
	require.ErrorIs(t, err, ErrConfiguration)

	ids := make([]uint64, 16)
	types := make([]int, 16)
	ids[3], types[3] = 7, 0
	err = s.InitializeFromLayers(ids, types, 0)
	require.ErrorIs(t, err, ErrConfiguration)

	assert.Equal(t, before, s.State())
	checkInvariants(t, s)
}

func TestPackedIDOverflowReadsAsType(t *testing.T) {
	s := newSim(t, Options{Extent: []int{4, 4}, Types: 2})
	grid := make([]int64, 16)
	grid[6] = 1 << 24
	require.NoError(t, s.InitializeFromArray(grid, 0))
	assert.Equal(t, 1, s.CountType(1), "id 2^24 decodes as typed medium")
	assert.Zero(t, s.Stats().LiveCells)
	checkInvariants(t, s)

	ids := make([]uint64, 16)
	types := make([]int, 16)
	ids[6], types[6] = 1<<24, 1
	require.ErrorIs(t, s.InitializeFromLayers(ids, types, 0), ErrConfiguration)
	assert.Equal(t, 1, s.CountType(1))
}

func TestInitializeFromArrayMemory(t *testing.T) {
	const side = 512
	s := newSim(t, Options{Extent: []int{side, side}, Types: 3})
	grid := make([]int64, side*side)
	for i := range grid {
		x, y := i%side, i/side
		id := int64(y/32*(side/32) + x/32 + 1)
		grid[i] = int64(1+id%2)<<24 | id
	}
	orig := slices.Clone(grid)

	var before, after runtime.MemStats
	runtime.GC()
	runtime.ReadMemStats(&before)
	require.NoError(t, s.InitializeFromArray(grid, 0))
	runtime.ReadMemStats(&after)

	if perSite := float64(after.TotalAlloc-before.TotalAlloc) / float64(len(grid)); perSite > 8 {
		t.Fatalf("load allocated %.1f bytes per site", perSite)
	}
	assert.Equal(t, orig, grid, "input grid must not be modified")
	assert.Equal(t, (side/32)*(side/32), s.Stats().LiveCells)
	c, err := s.Cell(1)
	require.NoError(t, err)
	assert.Equal(t, 1024, c.Area)
}

func TestRunRejectsNegativeTicks(t *testing.T) {
	s := newSim(t, Options{Extent: []int{5, 5}})
	assert.ErrorIs(t, s.Run(-1), ErrConfiguration)
	require.NoError(t, s.Run(3))
	assert.Equal(t, 3, s.Time())
	assert.Zero(t, s.Stats().Attempts, "an empty lattice has no active sites")
}

func TestStepLatticeAttemptsPerSite(t *testing.T) {
	s := newSim(t, Options{Extent: []int{10, 10}, Neighborhood: lattice.Moore, Step: StepLattice, Seed: 2})
	require.NoError(t, s.SetConstraints(1, Constraints{LambdaArea: Ptr(10.0), TargetArea: Ptr(20.0)}))
	_, err := s.AddCell(1, 5, 5)
	require.NoError(t, err)
	require.NoError(t, s.Run(3))
	st := s.Stats()
	assert.Equal(t, uint64(300), st.Attempts)
	assert.LessOrEqual(t, st.Accepted, st.Proposals)
	assert.LessOrEqual(t, st.Proposals, st.Attempts)
	assert.Equal(t, 1, st.LiveCells)
}

func TestActState(t *testing.T) {
	s := newSim(t, Options{Extent: []int{10, 10}, Neighborhood: lattice.Moore, Seed: 8, Temperature: 5})
	require.NoError(t, s.SetConstraints(1, Constraints{MaxAct: Ptr(20.0), LambdaAct: Ptr(100.0), LambdaArea: Ptr(5.0), TargetArea: Ptr(15.0)}))
	_, err := s.AddCell(1, 4, 4)
	require.NoError(t, err)

	act := s.ActState()
	site, _ := s.lat.Index([3]int{4, 4, 0})
	assert.Equal(t, 20.0, act[site])

	require.NoError(t, s.Run(10))
	for i, v := range s.ActState() {
		if s.lat.ID(i) == 0 {
			require.Zero(t, v)
			continue
		}
		require.GreaterOrEqual(t, v, 0.0)
		require.LessOrEqual(t, v, 20.0)
	}
	checkInvariants(t, s)
}

func TestUpdateType(t *testing.T) {
	s := newSim(t, Options{Extent: []int{8, 8}, Types: 3})
	id, err := s.OverwriteCell(1, square(1, 1, 2))
	require.NoError(t, err)
	require.NoError(t, s.UpdateType(id, 2))
	assert.Equal(t, 4, s.CountType(2))
	assert.Zero(t, s.CountType(1))
	assert.Equal(t, []uint32{id}, s.CellIDs(2))

	assert.ErrorIs(t, s.UpdateType(99, 1), ErrOutOfRange)
	assert.ErrorIs(t, s.UpdateType(id, 3), ErrConfiguration)
}

func TestOverwriteCellTakesSites(t *testing.T) {
	s := newSim(t, Options{Extent: []int{8, 8}, Neighborhood: lattice.Moore, Types: 3})
	first, err := s.OverwriteCell(1, square(0, 0, 3))
	require.NoError(t, err)
	second, err := s.OverwriteCell(2, square(2, 2, 2))
	require.NoError(t, err)
	checkInvariants(t, s)

	c, err := s.Cell(first)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Area)
	c, err = s.Cell(second)
	require.NoError(t, err)
	assert.Equal(t, 4, c.Area)

	_, err = s.OverwriteCell(1, [][]int{{1, 1}, {8, 0}})
	assert.ErrorIs(t, err, ErrOutOfRange)
	checkInvariants(t, s)
}

func TestCellRetiresAndIDIsNotReused(t *testing.T) {
	s := newSim(t, Options{Extent: []int{6, 6}, Neighborhood: lattice.Moore})
	id, err := s.AddCell(1, 2, 2)
	require.NoError(t, err)
	_, err = s.OverwriteCell(1, [][]int{{2, 2}})
	require.NoError(t, err)

	_, err = s.Cell(id)
	assert.ErrorIs(t, err, ErrOutOfRange)
	next, err := s.AddCell(1, 4, 4)
	require.NoError(t, err)
	assert.Equal(t, uint32(3), next)
	checkInvariants(t, s)
}

func TestSetFieldValidatesLength(t *testing.T) {
	s := newSim(t, Options{Extent: []int{5, 5}})
	assert.ErrorIs(t, s.SetField(make([]float64, 10)), ErrConfiguration)
	assert.NoError(t, s.SetField(make([]float64, 50)))
	bad := make([]float64, 50)
	bad[3] = math.Inf(1)
	assert.True(t, errors.Is(s.SetField(bad), ErrConfiguration))
	assert.NoError(t, s.SetField(nil))
}
