package cpm

import (
	"math"

	"mad-cpm/pkg/lattice"
)

// cellState is the bookkeeping kept for one cell id. Index 0 of the table is
// the medium placeholder and is never alive.
type cellState struct {
	typ       uint8
	alive     bool
	area      int
	perimeter int

	// Running centroid: a reference site plus the sum of minimum-image
	// offsets of every owned site from it.
	ref [3]int
	sum [3]int64

	pref    [3]float64
	history [][3]float64
}

type cellTable struct {
	lat   *lattice.Lattice
	cells []cellState
}

func newCellTable(lat *lattice.Lattice) *cellTable {
	return &cellTable{lat: lat, cells: make([]cellState, 1)}
}

func (t *cellTable) reset() {
	t.cells = t.cells[:1]
	t.cells[0] = cellState{}
}

func (t *cellTable) nextID() uint32 { return uint32(len(t.cells)) }

func (t *cellTable) add(typ uint8, pref [3]float64) uint32 {
	id := t.nextID()
	t.cells = append(t.cells, cellState{typ: typ, alive: true, pref: pref})
	return id
}

func (t *cellTable) get(id uint32) *cellState {
	if id == 0 || int(id) >= len(t.cells) {
		return nil
	}
	return &t.cells[id]
}

func (t *cellTable) live(id uint32) bool {
	c := t.get(id)
	return c != nil && c.alive
}

func (t *cellTable) addSite(id uint32, at [3]int) {
	c := t.get(id)
	if c == nil {
		return
	}
	if c.area == 0 {
		c.ref = at
		c.sum = [3]int64{}
		c.alive = true
	}
	for ax := 0; ax < t.lat.Dims(); ax++ {
		c.sum[ax] += int64(t.lat.MinImage(ax, at[ax]-c.ref[ax]))
	}
	c.area++
}

func (t *cellTable) removeSite(id uint32, at [3]int) {
	c := t.get(id)
	if c == nil {
		return
	}
	if c.area <= 0 {
		panic("cpm: removing a site from a cell with no area")
	}
	for ax := 0; ax < t.lat.Dims(); ax++ {
		c.sum[ax] -= int64(t.lat.MinImage(ax, at[ax]-c.ref[ax]))
	}
	c.area--
	if c.area == 0 {
		c.alive = false
		c.perimeter = 0
		c.sum = [3]int64{}
		c.history = c.history[:0]
	}
}

// centroid returns the running centroid of a live cell, wrapped into the
// lattice on periodic axes.
func (t *cellTable) centroid(id uint32) [3]float64 {
	c := t.get(id)
	var out [3]float64
	if c == nil || c.area == 0 {
		return out
	}
	ext := t.lat.Extent()
	for ax := 0; ax < t.lat.Dims(); ax++ {
		v := float64(c.ref[ax]) + float64(c.sum[ax])/float64(c.area)
		if t.lat.Periodic() {
			e := float64(ext[ax])
			v = math.Mod(v, e)
			if v < 0 {
				v += e
			}
		}
		out[ax] = v
	}
	return out
}

// rebase moves the reference site of a cell onto its rounded centroid so
// minimum-image offsets stay well inside half the lattice.
func (t *cellTable) rebase(id uint32) {
	c := t.get(id)
	if c == nil || c.area == 0 || !t.lat.Periodic() {
		return
	}
	ext := t.lat.Extent()
	for ax := 0; ax < t.lat.Dims(); ax++ {
		shift := int64(math.Round(float64(c.sum[ax]) / float64(c.area)))
		if shift == 0 {
			continue
		}
		e := int64(ext[ax])
		c.ref[ax] = int(((int64(c.ref[ax])+shift)%e + e) % e)
		c.sum[ax] -= shift * int64(c.area)
	}
}
