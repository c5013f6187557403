// Package cpm implements a Cellular Potts Model engine: a labeled 2D or 3D
// lattice evolved by Metropolis copy attempts on a multi-term Hamiltonian.
//
// A Simulation is owned by one goroutine. Independent simulations share
// nothing and may run in parallel.
package cpm

import (
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"mad-cpm/pkg/core"
	"mad-cpm/pkg/lattice"
)

// StepMode selects how many copy attempts make up one Monte Carlo step.
type StepMode uint8

const (
	// StepBorder draws border sites until the sum of 1/|border| reaches one,
	// about one attempt per active site.
	StepBorder StepMode = iota
	// StepLattice performs one attempt per lattice site.
	StepLattice
)

// String returns the mode name.
func (m StepMode) String() string {
	switch m {
	case StepBorder:
		return "border"
	case StepLattice:
		return "lattice"
	default:
		return "unknown"
	}
}

// ParseStepMode maps a config name onto a StepMode.
func ParseStepMode(s string) (StepMode, bool) {
	switch s {
	case "border", "":
		return StepBorder, true
	case "lattice":
		return StepLattice, true
	}
	return 0, false
}

// Options fixes the shape and global parameters of a Simulation.
type Options struct {
	Extent       []int
	Neighborhood lattice.Neighborhood
	Boundary     lattice.Boundary
	// Types is the number of cell types including the medium type 0.
	Types       int
	Temperature float64
	Seed        int64
	Step        StepMode
	Logger      *log.Logger
}

// Stats counts the work done since construction.
type Stats struct {
	Time        int
	Attempts    uint64
	Proposals   uint64
	Accepted    uint64
	ActiveSites int
	LiveCells   int
}

// Cell is a read-only view of one cell.
type Cell struct {
	ID          uint32
	Type        int
	Area        int
	Perimeter   int
	Fixed       bool
	Centroid    [3]float64
	Persistence [3]float64
}

// Simulation is a Cellular Potts Model instance.
type Simulation struct {
	opts  Options
	log   *log.Logger
	rng   *core.RNG
	lat   *lattice.Lattice
	cons  *constraintTable
	cells *cellTable
	ham   *hamiltonian

	temperature float64
	time        int32
	stats       Stats

	nbrs []int
}

// New builds an empty simulation: every site is medium of type 0.
func New(opts Options) (*Simulation, error) {
	if opts.Types < 1 || opts.Types > lattice.MaxTypes {
		return nil, fmt.Errorf("%w: number of types %d not in [1, %d]", ErrConfiguration, opts.Types, lattice.MaxTypes)
	}
	if err := checkNonNegative("temperature", &opts.Temperature); err != nil {
		return nil, err
	}
	if opts.Step != StepBorder && opts.Step != StepLattice {
		return nil, fmt.Errorf("%w: unknown step mode %d", ErrConfiguration, opts.Step)
	}
	lat, err := lattice.New(lattice.Options{
		Extent:       opts.Extent,
		Neighborhood: opts.Neighborhood,
		Boundary:     opts.Boundary,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConfiguration, err)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	opts.Extent = append([]int(nil), opts.Extent...)

	cons := newConstraintTable(opts.Types, lat.Dims())
	cells := newCellTable(lat)
	s := &Simulation{
		opts:        opts,
		log:         logger,
		rng:         core.NewRNG(opts.Seed),
		lat:         lat,
		cons:        cons,
		cells:       cells,
		ham:         &hamiltonian{cons: cons, lat: lat, cells: cells},
		temperature: opts.Temperature,
	}
	logger.Debug("simulation created", "extent", opts.Extent, "types", opts.Types,
		"neighborhood", opts.Neighborhood, "boundary", opts.Boundary, "seed", opts.Seed)
	return s, nil
}

// Lattice exposes the site grid for read access. Callers must not write to it.
func (s *Simulation) Lattice() *lattice.Lattice { return s.lat }

// Dims returns the number of lattice axes.
func (s *Simulation) Dims() int { return s.lat.Dims() }

// Extent returns the lattice size per axis; unused axes report 1.
func (s *Simulation) Extent() [3]int { return s.lat.Extent() }

// Types returns the number of cell types.
func (s *Simulation) Types() int { return s.cons.types }

// Time returns the number of completed Monte Carlo steps.
func (s *Simulation) Time() int { return int(s.time) }

// Temperature returns the Metropolis temperature.
func (s *Simulation) Temperature() float64 { return s.temperature }

// SetTemperature changes the Metropolis temperature. A negative or
// non-finite t is rejected and the current temperature kept.
func (s *Simulation) SetTemperature(t float64) error {
	if err := checkNonNegative("temperature", &t); err != nil {
		return err
	}
	s.temperature = t
	return nil
}

// SetConstraints applies a partial parameter update to one cell type. The
// update is validated in full before anything changes.
func (s *Simulation) SetConstraints(typ int, u Constraints) error {
	if err := s.cons.checkType(typ); err != nil {
		return err
	}
	if err := s.cons.validate(u); err != nil {
		return err
	}
	s.cons.apply(typ, u)
	return nil
}

// SetAdhesion sets the symmetric contact energy between two types.
func (s *Simulation) SetAdhesion(a, b int, j float64) error {
	if err := s.cons.checkType(a); err != nil {
		return err
	}
	if err := s.cons.checkType(b); err != nil {
		return err
	}
	if err := checkFinite(KeyAdhesion, j); err != nil {
		return err
	}
	s.cons.setAdhesion(a, b, j)
	return nil
}

// SetConstraintValues applies named parameters to typ. The adhesion key needs
// other set to a type; other must be NoType otherwise. Unknown keys are
// rejected and nothing is applied on error.
func (s *Simulation) SetConstraintValues(typ, other int, values map[string]float64) error {
	if err := s.cons.checkType(typ); err != nil {
		return err
	}
	u, adhesion, err := constraintsFromValues(values)
	if err != nil {
		return err
	}
	if adhesion != nil && other == NoType {
		return fmt.Errorf("%w: %s needs a second cell type", ErrConfiguration, KeyAdhesion)
	}
	if other != NoType {
		if adhesion == nil {
			return fmt.Errorf("%w: a second cell type is only valid with %s", ErrConfiguration, KeyAdhesion)
		}
		if err := s.cons.checkType(other); err != nil {
			return err
		}
	}
	if err := s.cons.validate(u); err != nil {
		return err
	}
	s.cons.apply(typ, u)
	if adhesion != nil {
		s.cons.setAdhesion(typ, other, *adhesion)
	}
	return nil
}

// Params returns the current parameters of a type.
func (s *Simulation) Params(typ int) (TypeParams, error) {
	if err := s.cons.checkType(typ); err != nil {
		return TypeParams{}, err
	}
	return s.cons.params[typ], nil
}

// Adhesion returns the contact energy between two types.
func (s *Simulation) Adhesion(a, b int) (float64, error) {
	if err := s.cons.checkType(a); err != nil {
		return 0, err
	}
	if err := s.cons.checkType(b); err != nil {
		return 0, err
	}
	return s.cons.J(uint8(a), uint8(b)), nil
}

func (s *Simulation) site(coords []int) (int, error) {
	if len(coords) != s.lat.Dims() {
		return -1, fmt.Errorf("%w: got %d coordinates for a %dD lattice", ErrConfiguration, len(coords), s.lat.Dims())
	}
	var c [3]int
	copy(c[:], coords)
	i, ok := s.lat.Index(c)
	if !ok {
		return -1, fmt.Errorf("%w: coordinates %v outside %v", ErrOutOfRange, coords, s.opts.Extent)
	}
	return i, nil
}

func (s *Simulation) newCell(typ uint8) (uint32, error) {
	if s.cells.nextID() > lattice.MaxID {
		return 0, fmt.Errorf("%w: cell id space exhausted", ErrConfiguration)
	}
	return s.cells.add(typ, s.rng.UnitVector(s.lat.Dims())), nil
}

// AddCell seeds a new single-site cell of typ at coords and returns its id.
func (s *Simulation) AddCell(typ int, coords ...int) (uint32, error) {
	if err := s.cons.checkType(typ); err != nil {
		return 0, err
	}
	if typ == 0 {
		return 0, fmt.Errorf("%w: type 0 is reserved for medium", ErrConfiguration)
	}
	i, err := s.site(coords)
	if err != nil {
		return 0, err
	}
	if s.lat.ID(i) != 0 {
		return 0, fmt.Errorf("%w: %v belongs to cell %d", ErrOccupiedSite, coords, s.lat.ID(i))
	}
	id, err := s.newCell(uint8(typ))
	if err != nil {
		return 0, err
	}
	s.relabel(i, lattice.Pack(id, uint8(typ)))
	s.log.Debug("cell added", "id", id, "type", typ, "at", coords)
	return id, nil
}

// OverwriteCell creates a new cell of typ covering points, taking the sites
// from whatever owned them before. Each point holds one coordinate per axis.
func (s *Simulation) OverwriteCell(typ int, points [][]int) (uint32, error) {
	if err := s.cons.checkType(typ); err != nil {
		return 0, err
	}
	if typ == 0 {
		return 0, fmt.Errorf("%w: type 0 is reserved for medium", ErrConfiguration)
	}
	if len(points) == 0 {
		return 0, fmt.Errorf("%w: no points given", ErrConfiguration)
	}
	sites := make([]int, len(points))
	for k, p := range points {
		i, err := s.site(p)
		if err != nil {
			return 0, err
		}
		sites[k] = i
	}
	id, err := s.newCell(uint8(typ))
	if err != nil {
		return 0, err
	}
	v := lattice.Pack(id, uint8(typ))
	for _, i := range sites {
		s.relabel(i, v)
	}
	return id, nil
}

// UpdateType changes the type of a live cell, rewriting every site it owns.
func (s *Simulation) UpdateType(id uint32, typ int) error {
	if err := s.cons.checkType(typ); err != nil {
		return err
	}
	if typ == 0 {
		return fmt.Errorf("%w: type 0 is reserved for medium", ErrConfiguration)
	}
	if !s.cells.live(id) {
		return fmt.Errorf("%w: no live cell %d", ErrOutOfRange, id)
	}
	v := lattice.Pack(id, uint8(typ))
	for i := 0; i < s.lat.Len(); i++ {
		if s.lat.ID(i) == id {
			s.lat.Set(i, v, s.lat.Stamp(i))
		}
	}
	s.cells.cells[id].typ = uint8(typ)
	return nil
}

// SetField installs a vector field for chemotaxis, laid out component-major:
// field[axis*sites + site]. A nil field disables chemotaxis.
func (s *Simulation) SetField(field []float64) error {
	if field == nil {
		s.ham.field = nil
		return nil
	}
	want := s.lat.Dims() * s.lat.Len()
	if len(field) != want {
		return fmt.Errorf("%w: field has %d values, want %d", ErrConfiguration, len(field), want)
	}
	for _, v := range field {
		if err := checkFinite("field", v); err != nil {
			return err
		}
	}
	s.ham.field = append(s.ham.field[:0], field...)
	return nil
}

// InitializeFromArray replaces the lattice contents with a packed grid
// (type<<24 | id) in x-fastest order. Sites with id 0 and type 0 become
// medium of backgroundType. The grid is validated in full before anything
// changes. The packed form cannot tell an id above 2^24-1 from a type bit;
// use InitializeFromLayers to have such ids rejected.
func (s *Simulation) InitializeFromArray(grid []int64, backgroundType int) error {
	if err := s.checkGrid(len(grid), backgroundType); err != nil {
		return err
	}
	values := make([]uint32, len(grid))
	for i, v := range grid {
		if v < 0 {
			return fmt.Errorf("%w: negative value %d at site %d", ErrConfiguration, v, i)
		}
		if typ := v >> lattice.TypeShift; typ >= int64(s.cons.types) {
			return fmt.Errorf("%w: type %d at site %d not in [0, %d)", ErrConfiguration, typ, i, s.cons.types)
		}
		values[i] = uint32(v)
	}
	return s.load(values, backgroundType)
}

// InitializeFromLayers is InitializeFromArray with ids and types given as
// separate grids.
func (s *Simulation) InitializeFromLayers(ids []uint64, types []int, backgroundType int) error {
	if len(ids) != len(types) {
		return fmt.Errorf("%w: %d ids but %d types", ErrConfiguration, len(ids), len(types))
	}
	if err := s.checkGrid(len(ids), backgroundType); err != nil {
		return err
	}
	values := make([]uint32, len(ids))
	for i, id := range ids {
		if id > uint64(lattice.MaxID) {
			return fmt.Errorf("%w: id %d at site %d exceeds %d", ErrConfiguration, id, i, lattice.MaxID)
		}
		typ := types[i]
		if typ < 0 || typ >= s.cons.types {
			return fmt.Errorf("%w: type %d at site %d not in [0, %d)", ErrConfiguration, typ, i, s.cons.types)
		}
		values[i] = lattice.Pack(uint32(id), uint8(typ))
	}
	return s.load(values, backgroundType)
}

func (s *Simulation) checkGrid(n, background int) error {
	if n != s.lat.Len() {
		return fmt.Errorf("%w: grid has %d sites, lattice has %d", ErrConfiguration, n, s.lat.Len())
	}
	return s.cons.checkType(background)
}

// load installs packed values whose types are already in range. It owns
// values and rewrites untyped medium in place.
func (s *Simulation) load(values []uint32, background int) error {
	// typeOf[id] is the type of cell id, or 0 while id is unseen.
	var typeOf []uint8
	cells := 0
	for i, v := range values {
		id, typ := lattice.Unpack(v)
		if id == 0 {
			if typ == 0 {
				values[i] = lattice.Pack(0, uint8(background))
			}
			continue
		}
		if typ == 0 {
			return fmt.Errorf("%w: cell %d at site %d has medium type 0", ErrConfiguration, id, i)
		}
		if int(id) >= len(typeOf) {
			typeOf = append(typeOf, make([]uint8, int(id)+1-len(typeOf))...)
		}
		switch prev := typeOf[id]; {
		case prev == 0:
			typeOf[id] = typ
			cells++
		case prev != typ:
			return fmt.Errorf("%w: cell %d has types %d and %d", ErrConfiguration, id, prev, typ)
		}
	}

	if err := s.lat.Load(values, s.time); err != nil {
		panic(err)
	}

	s.cells.reset()
	for id := 1; id < len(typeOf); id++ {
		c := s.cells.add(typeOf[id], s.rng.UnitVector(s.lat.Dims()))
		if typeOf[id] == 0 {
			s.cells.cells[c].alive = false
		}
	}
	for i := range values {
		id := lattice.IDOf(values[i])
		if id == 0 {
			continue
		}
		s.cells.addSite(id, s.lat.Coords(i))
		s.nbrs = s.lat.Neighbors(i, s.nbrs)
		for _, nb := range s.nbrs {
			if s.lat.ID(nb) != id {
				s.cells.cells[id].perimeter++
			}
		}
	}
	for id := uint32(1); id < s.cells.nextID(); id++ {
		s.cells.rebase(id)
	}
	s.log.Info("lattice loaded", "cells", cells, "max_id", s.cells.nextID()-1, "active", s.lat.Border().Len())
	return nil
}

// relabel writes v to site i and updates the bookkeeping of the old and new
// owners.
func (s *Simulation) relabel(i int, v uint32) {
	oldID := s.lat.ID(i)
	newID := lattice.IDOf(v)
	if oldID == newID {
		s.lat.Set(i, v, s.time)
		return
	}
	s.nbrs = s.lat.Neighbors(i, s.nbrs)
	p := proposal{site: i, s: newID, t: oldID, nbrs: s.nbrs}
	ds, dt := s.ham.perimeterChange(&p)
	at := s.lat.Coords(i)
	if c := s.cells.get(newID); c != nil {
		s.cells.addSite(newID, at)
		c.perimeter += ds
	}
	if c := s.cells.get(oldID); c != nil {
		c.perimeter += dt
		s.cells.removeSite(oldID, at)
	}
	s.lat.Set(i, v, s.time)
}

// State returns a copy of the packed lattice values.
func (s *Simulation) State() []uint32 { return s.lat.Values() }

// ActState returns the remaining activity clock of every site; medium sites
// and types without max_act report 0.
func (s *Simulation) ActState() []float64 {
	out := make([]float64, s.lat.Len())
	for i := range out {
		if s.lat.ID(i) == 0 {
			continue
		}
		out[i] = remaining(s.cons.params[s.lat.Type(i)].MaxAct, s.lat.Stamp(i), s.time)
	}
	return out
}

// Cell returns a view of a live cell.
func (s *Simulation) Cell(id uint32) (Cell, error) {
	if !s.cells.live(id) {
		return Cell{}, fmt.Errorf("%w: no live cell %d", ErrOutOfRange, id)
	}
	c := s.cells.cells[id]
	return Cell{
		ID:          id,
		Type:        int(c.typ),
		Area:        c.area,
		Perimeter:   c.perimeter,
		Fixed:       s.cons.params[c.typ].Fixed,
		Centroid:    s.cells.centroid(id),
		Persistence: c.pref,
	}, nil
}

// CellIDs returns the ids of live cells of typ in ascending order.
func (s *Simulation) CellIDs(typ int) []uint32 {
	var out []uint32
	for id := uint32(1); id < s.cells.nextID(); id++ {
		c := &s.cells.cells[id]
		if c.alive && int(c.typ) == typ {
			out = append(out, id)
		}
	}
	return out
}

// CountType returns the number of sites of typ, medium included.
func (s *Simulation) CountType(typ int) int {
	n := 0
	for i := 0; i < s.lat.Len(); i++ {
		if int(s.lat.Type(i)) == typ {
			n++
		}
	}
	return n
}

// Stats returns counters since construction.
func (s *Simulation) Stats() Stats {
	st := s.stats
	st.Time = int(s.time)
	st.ActiveSites = s.lat.Border().Len()
	for id := uint32(1); id < s.cells.nextID(); id++ {
		if s.cells.cells[id].alive {
			st.LiveCells++
		}
	}
	return st
}

// Energy returns the adhesion, area and perimeter terms of the Hamiltonian
// for the current lattice. Retired cells count with zero area and perimeter,
// which keeps Energy differences equal to the per-move deltas.
func (s *Simulation) Energy() float64 {
	var h float64
	for i := 0; i < s.lat.Len(); i++ {
		id, typ := s.lat.ID(i), s.lat.Type(i)
		s.nbrs = s.lat.Neighbors(i, s.nbrs)
		for _, nb := range s.nbrs {
			if s.lat.ID(nb) != id {
				h += s.cons.J(typ, s.lat.Type(nb)) / 2
			}
		}
	}
	for id := uint32(1); id < s.cells.nextID(); id++ {
		c := &s.cells.cells[id]
		tp := s.cons.params[c.typ]
		a := float64(c.area) - tp.TargetArea
		h += tp.LambdaArea * a * a
		p := float64(c.perimeter) - tp.TargetPerimeter
		h += tp.LambdaPerimeter * p * p
	}
	return h
}

// RecalcPerimeter recounts the perimeter of a cell from the lattice.
func (s *Simulation) RecalcPerimeter(id uint32) int {
	n := 0
	for i := 0; i < s.lat.Len(); i++ {
		if s.lat.ID(i) != id {
			continue
		}
		s.nbrs = s.lat.Neighbors(i, s.nbrs)
		for _, nb := range s.nbrs {
			if s.lat.ID(nb) != id {
				n++
			}
		}
	}
	return n
}
