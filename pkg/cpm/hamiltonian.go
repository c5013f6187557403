package cpm

import (
	"math"

	"mad-cpm/pkg/lattice"
)

// proposal describes one copy attempt: the id of source overwrites site.
type proposal struct {
	site, source int
	s, t         uint32
	sType, tType uint8
	nbrs         []int
}

// hamiltonian evaluates energy changes for proposals against the constraint
// table. It holds scratch buffers only; all state lives in the lattice and the
// cell table.
type hamiltonian struct {
	cons  *constraintTable
	lat   *lattice.Lattice
	cells *cellTable
	field []float64

	scratch []int
}

func (h *hamiltonian) delta(p *proposal, now int32) float64 {
	dH := h.adhesion(p) + h.area(p)
	if h.cons.perimeterOn {
		dH += h.perimeter(p)
	}
	if h.cons.actOn {
		dH += h.act(p, now)
	}
	if h.cons.persistenceOn {
		dH += h.persistence(p)
	}
	if h.cons.connectedOn && h.lat.Dims() == 2 {
		dH += h.connectedness(p)
	}
	if h.cons.chemotaxisOn && h.field != nil {
		dH += h.chemotaxis(p)
	}
	return dH
}

func (h *hamiltonian) adhesion(p *proposal) float64 {
	var before, after float64
	for _, nb := range p.nbrs {
		id, typ := h.lat.ID(nb), h.lat.Type(nb)
		if id != p.t {
			before += h.cons.J(p.tType, typ)
		}
		if id != p.s {
			after += h.cons.J(p.sType, typ)
		}
	}
	return after - before
}

func quadDelta(lambda, target float64, from, to int) float64 {
	if lambda == 0 {
		return 0
	}
	a := float64(from) - target
	b := float64(to) - target
	return lambda * (b*b - a*a)
}

func (h *hamiltonian) area(p *proposal) float64 {
	var dH float64
	if p.s != 0 {
		c := &h.cells.cells[p.s]
		tp := h.cons.params[p.sType]
		dH += quadDelta(tp.LambdaArea, tp.TargetArea, c.area, c.area+1)
	}
	if p.t != 0 {
		c := &h.cells.cells[p.t]
		tp := h.cons.params[p.tType]
		dH += quadDelta(tp.LambdaArea, tp.TargetArea, c.area, c.area-1)
	}
	return dH
}

// perimeterChange returns how the perimeters of the gaining and losing cells
// change when site switches owner.
func (h *hamiltonian) perimeterChange(p *proposal) (ds, dt int) {
	for _, nb := range p.nbrs {
		id := h.lat.ID(nb)
		if id == p.s {
			ds--
		} else {
			ds++
		}
		if id == p.t {
			dt++
		} else {
			dt--
		}
	}
	return ds, dt
}

func (h *hamiltonian) perimeter(p *proposal) float64 {
	ds, dt := h.perimeterChange(p)
	var dH float64
	if p.s != 0 {
		c := &h.cells.cells[p.s]
		tp := h.cons.params[p.sType]
		dH += quadDelta(tp.LambdaPerimeter, tp.TargetPerimeter, c.perimeter, c.perimeter+ds)
	}
	if p.t != 0 {
		c := &h.cells.cells[p.t]
		tp := h.cons.params[p.tType]
		dH += quadDelta(tp.LambdaPerimeter, tp.TargetPerimeter, c.perimeter, c.perimeter+dt)
	}
	return dH
}

func remaining(maxAct float64, stamp, now int32) float64 {
	r := maxAct + float64(stamp) - float64(now)
	if r < 0 {
		return 0
	}
	return r
}

// actMean is the geometric mean of the remaining activity at site and at the
// neighbors of site owned by id.
func (h *hamiltonian) actMean(site int, id uint32, maxAct float64, now int32) float64 {
	prod := remaining(maxAct, h.lat.Stamp(site), now)
	n := 1
	h.scratch = h.lat.Neighbors(site, h.scratch)
	for _, nb := range h.scratch {
		if h.lat.ID(nb) == id {
			prod *= remaining(maxAct, h.lat.Stamp(nb), now)
			n++
		}
	}
	if prod == 0 {
		return 0
	}
	return math.Pow(prod, 1/float64(n))
}

func (h *hamiltonian) act(p *proposal, now int32) float64 {
	typ := p.sType
	if p.s == 0 {
		typ = p.tType
	}
	tp := h.cons.params[typ]
	if tp.LambdaAct == 0 || tp.MaxAct == 0 {
		return 0
	}
	var gmS, gmT float64
	if p.s != 0 {
		gmS = h.actMean(p.source, p.s, h.cons.params[p.sType].MaxAct, now)
	}
	if p.t != 0 {
		gmT = h.actMean(p.site, p.t, h.cons.params[p.tType].MaxAct, now)
	}
	return -tp.LambdaAct / tp.MaxAct * (gmS - gmT)
}

func unit(v [3]float64) ([3]float64, bool) {
	l := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	if l == 0 {
		return v, false
	}
	return [3]float64{v[0] / l, v[1] / l, v[2] / l}, true
}

func dot(a, b [3]float64) float64 {
	return a[0]*b[0] + a[1]*b[1] + a[2]*b[2]
}

func (h *hamiltonian) persistence(p *proposal) float64 {
	if p.s == 0 {
		return 0
	}
	lambda := h.cons.params[p.sType].LambdaPersistence
	if lambda == 0 {
		return 0
	}
	dir, ok := unit(h.lat.Displacement(p.source, p.site))
	if !ok {
		return 0
	}
	return -lambda * dot(dir, h.cells.cells[p.s].pref)
}

// connectedness penalizes removing a site whose same-owner neighbors form
// more than one run around the site's neighbor ring.
func (h *hamiltonian) connectedness(p *proposal) float64 {
	if p.t == 0 {
		return 0
	}
	lambda := h.cons.params[p.tType].LambdaConnectedness
	if lambda == 0 {
		return 0
	}
	k := h.lat.NeighborCount()
	owned := func(slot int) bool {
		nb, ok := h.lat.Neighbor(p.site, slot)
		return ok && h.lat.ID(nb) == p.t
	}
	prev := owned(k - 1)
	transitions := 0
	for slot := 0; slot < k; slot++ {
		cur := owned(slot)
		if cur != prev {
			transitions++
		}
		prev = cur
	}
	if transitions < 3 {
		return 0
	}
	return lambda
}

func (h *hamiltonian) chemotaxis(p *proposal) float64 {
	typ := p.sType
	if p.s == 0 {
		typ = p.tType
	}
	lambda := h.cons.params[typ].LambdaChemotaxis
	if lambda == 0 {
		return 0
	}
	dir, ok := unit(h.lat.Displacement(p.source, p.site))
	if !ok {
		return 0
	}
	n := h.lat.Len()
	var grad [3]float64
	for ax := 0; ax < h.lat.Dims(); ax++ {
		grad[ax] = h.field[ax*n+p.source]
	}
	return -lambda * dot(dir, grad)
}

// accept applies the Metropolis rule. At zero temperature only non-increasing
// moves are accepted.
func accept(dH, temperature float64, u func() float64) bool {
	if dH <= 0 {
		return true
	}
	if temperature == 0 {
		return false
	}
	return u() < math.Exp(-dH/temperature)
}
