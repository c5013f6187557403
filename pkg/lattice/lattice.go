// Package lattice stores the dense site grid of a cellular Potts model and
// keeps the set of boundary sites current as sites are rewritten.
package lattice

import (
	"errors"
	"fmt"
	"math"
)

// ErrShape reports an unusable lattice shape.
var ErrShape = errors.New("lattice: invalid shape")

// Options configures a Lattice at construction time.
type Options struct {
	// Extent holds the size along each axis; 2 or 3 entries.
	Extent       []int
	Neighborhood Neighborhood
	Boundary     Boundary
}

// Lattice is a 2D or 3D grid of packed site values in x-fastest order.
type Lattice struct {
	dims     int
	ext      [3]int
	n        int
	periodic bool

	offsets [][3]int
	deltas  []int

	values []uint32
	stamps []int32
	border *DiceSet
}

// New allocates an empty (all medium) lattice.
func New(opts Options) (*Lattice, error) {
	dims := len(opts.Extent)
	if dims != 2 && dims != 3 {
		return nil, fmt.Errorf("%w: want 2 or 3 axes, got %d", ErrShape, dims)
	}
	periodic := opts.Boundary == Periodic
	ext := [3]int{1, 1, 1}
	n := 1
	for i, e := range opts.Extent {
		if e < 1 || (periodic && e < 3) {
			return nil, fmt.Errorf("%w: axis %d has extent %d", ErrShape, i, e)
		}
		if n > math.MaxInt32/e {
			return nil, fmt.Errorf("%w: more than %d sites", ErrShape, math.MaxInt32)
		}
		ext[i] = e
		n *= e
	}
	if opts.Neighborhood != VonNeumann && opts.Neighborhood != Moore {
		return nil, fmt.Errorf("%w: unknown neighborhood %d", ErrShape, opts.Neighborhood)
	}
	if opts.Boundary != Periodic && opts.Boundary != Bounded {
		return nil, fmt.Errorf("%w: unknown boundary %d", ErrShape, opts.Boundary)
	}

	offsets := offsetsFor(dims, opts.Neighborhood)
	deltas := make([]int, len(offsets))
	for k, o := range offsets {
		deltas[k] = (o[2]*ext[1]+o[1])*ext[0] + o[0]
	}
	return &Lattice{
		dims:     dims,
		ext:      ext,
		n:        n,
		periodic: periodic,
		offsets:  offsets,
		deltas:   deltas,
		values:   make([]uint32, n),
		stamps:   make([]int32, n),
		border:   NewDiceSet(n),
	}, nil
}

// Dims returns the number of axes.
func (l *Lattice) Dims() int { return l.dims }

// Extent returns the size along each axis; unused axes report 1.
func (l *Lattice) Extent() [3]int { return l.ext }

// Len returns the number of sites.
func (l *Lattice) Len() int { return l.n }

// Periodic reports whether neighbor enumeration wraps.
func (l *Lattice) Periodic() bool { return l.periodic }

// NeighborCount returns the number of neighbor slots per site.
func (l *Lattice) NeighborCount() int { return len(l.offsets) }

// Offset returns the coordinate offset of neighbor slot k.
func (l *Lattice) Offset(k int) [3]int { return l.offsets[k] }

// Border exposes the set of sites with at least one differently owned neighbor.
func (l *Lattice) Border() *DiceSet { return l.border }

// Index returns the linear index of coordinates c, or false if c is off-lattice.
func (l *Lattice) Index(c [3]int) (int, bool) {
	for a := 0; a < 3; a++ {
		if c[a] < 0 || c[a] >= l.ext[a] {
			return -1, false
		}
	}
	return (c[2]*l.ext[1]+c[1])*l.ext[0] + c[0], true
}

// Coords returns the coordinates of site i.
func (l *Lattice) Coords(i int) [3]int {
	x := i % l.ext[0]
	r := i / l.ext[0]
	return [3]int{x, r % l.ext[1], r / l.ext[1]}
}

// Value returns the packed value of site i.
func (l *Lattice) Value(i int) uint32 { return l.values[i] }

// ID returns the owning cell id of site i.
func (l *Lattice) ID(i int) uint32 { return l.values[i] & IDMask }

// Type returns the cell type of site i.
func (l *Lattice) Type(i int) uint8 { return uint8(l.values[i] >> TypeShift) }

// Stamp returns the time site i was last written.
func (l *Lattice) Stamp(i int) int32 { return l.stamps[i] }

// Neighbor returns the site in neighbor slot k of site i. The second result is
// false when the slot falls off a bounded lattice.
func (l *Lattice) Neighbor(i, k int) (int, bool) {
	c := l.Coords(i)
	o := l.offsets[k]
	for a := 0; a < l.dims; a++ {
		v := c[a] + o[a]
		if v < 0 || v >= l.ext[a] {
			if !l.periodic {
				return -1, false
			}
			v = (v + l.ext[a]) % l.ext[a]
		}
		c[a] = v
	}
	return (c[2]*l.ext[1]+c[1])*l.ext[0] + c[0], true
}

// Neighbors appends the existing neighbors of site i to buf in slot order.
func (l *Lattice) Neighbors(i int, buf []int) []int {
	buf = buf[:0]
	c := l.Coords(i)
	interior := true
	for a := 0; a < l.dims; a++ {
		if c[a] == 0 || c[a] == l.ext[a]-1 {
			interior = false
			break
		}
	}
	if interior {
		for _, d := range l.deltas {
			buf = append(buf, i+d)
		}
		return buf
	}
	for k := range l.offsets {
		if nb, ok := l.Neighbor(i, k); ok {
			buf = append(buf, nb)
		}
	}
	return buf
}

// IsBorder reports whether any neighbor of site i has a different owner.
func (l *Lattice) IsBorder(i int) bool {
	id := l.ID(i)
	for k := range l.offsets {
		nb, ok := l.Neighbor(i, k)
		if ok && l.ID(nb) != id {
			return true
		}
	}
	return false
}

func (l *Lattice) refresh(i int) {
	if l.IsBorder(i) {
		l.border.Add(i)
	} else {
		l.border.Remove(i)
	}
}

// Set writes a packed value and stamp to site i, updating border membership
// for the site and its neighbors when the owner changes.
func (l *Lattice) Set(i int, v uint32, stamp int32) {
	prev := l.values[i]
	l.values[i] = v
	l.stamps[i] = stamp
	if prev&IDMask == v&IDMask {
		return
	}
	l.refresh(i)
	for k := range l.offsets {
		if nb, ok := l.Neighbor(i, k); ok {
			l.refresh(nb)
		}
	}
}

// Load replaces every site value, stamps all sites with stamp and rebuilds
// the border set.
func (l *Lattice) Load(values []uint32, stamp int32) error {
	if len(values) != l.n {
		return fmt.Errorf("%w: got %d values for %d sites", ErrShape, len(values), l.n)
	}
	copy(l.values, values)
	for i := range l.stamps {
		l.stamps[i] = stamp
	}
	l.border.Clear()
	for i := 0; i < l.n; i++ {
		if l.IsBorder(i) {
			l.border.Add(i)
		}
	}
	return nil
}

// Values returns a copy of all packed site values.
func (l *Lattice) Values() []uint32 {
	out := make([]uint32, l.n)
	copy(out, l.values)
	return out
}

// Displacement returns to - from in lattice units, using the minimum image
// on periodic axes.
func (l *Lattice) Displacement(from, to int) [3]float64 {
	a := l.Coords(from)
	b := l.Coords(to)
	var d [3]float64
	for ax := 0; ax < l.dims; ax++ {
		d[ax] = float64(l.MinImage(ax, b[ax]-a[ax]))
	}
	return d
}

// MinImage folds an integer offset along axis ax into (-ext/2, ext/2] when the
// lattice is periodic.
func (l *Lattice) MinImage(ax, d int) int {
	if !l.periodic {
		return d
	}
	e := l.ext[ax]
	if d > e/2 {
		d -= e
	} else if d <= -(e+1)/2 {
		d += e
	}
	return d
}
