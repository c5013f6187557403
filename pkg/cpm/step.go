package cpm

import (
	"fmt"
	"time"

	"mad-cpm/pkg/lattice"
)

// Run advances the simulation by ticks Monte Carlo steps.
func (s *Simulation) Run(ticks int) error {
	if ticks < 0 {
		return fmt.Errorf("%w: negative tick count %d", ErrConfiguration, ticks)
	}
	start := time.Now()
	before := s.stats
	for k := 0; k < ticks; k++ {
		s.step()
	}
	s.log.Debug("run finished",
		"ticks", ticks,
		"time", s.time,
		"attempts", s.stats.Attempts-before.Attempts,
		"accepted", s.stats.Accepted-before.Accepted,
		"active", s.lat.Border().Len(),
		"elapsed", time.Since(start))
	return nil
}

// Step advances the simulation by one Monte Carlo step.
func (s *Simulation) Step() { s.step() }

func (s *Simulation) step() {
	s.time++
	border := s.lat.Border()
	switch s.opts.Step {
	case StepLattice:
		for k := 0; k < s.lat.Len() && border.Len() > 0; k++ {
			s.attempt()
		}
	default:
		var progress float64
		for progress < 1 {
			n := border.Len()
			if n == 0 {
				break
			}
			progress += 1 / float64(n)
			s.attempt()
		}
	}
	s.updatePersistence()
}

// attempt draws a border site and a random neighbor slot, and tries to copy
// the neighbor's label onto the site.
func (s *Simulation) attempt() {
	s.stats.Attempts++
	site := s.lat.Border().Random(s.rng)
	source, ok := s.lat.Neighbor(site, s.rng.IntN(s.lat.NeighborCount()))
	if !ok {
		return
	}
	sv, tv := s.lat.Value(source), s.lat.Value(site)
	sid, tid := lattice.IDOf(sv), lattice.IDOf(tv)
	if sid == tid || s.fixed(sid) || s.fixed(tid) {
		return
	}
	s.stats.Proposals++

	s.nbrs = s.lat.Neighbors(site, s.nbrs)
	p := proposal{
		site:   site,
		source: source,
		s:      sid,
		t:      tid,
		sType:  lattice.TypeOf(sv),
		tType:  lattice.TypeOf(tv),
		nbrs:   s.nbrs,
	}
	dH := s.ham.delta(&p, s.time)
	if !accept(dH, s.temperature, s.rng.Float64) {
		return
	}
	s.stats.Accepted++

	ds, dt := s.ham.perimeterChange(&p)
	at := s.lat.Coords(site)
	if sid != 0 {
		s.cells.addSite(sid, at)
		s.cells.cells[sid].perimeter += ds
	}
	if tid != 0 {
		s.cells.cells[tid].perimeter += dt
		s.cells.removeSite(tid, at)
		if !s.cells.cells[tid].alive {
			s.log.Debug("cell retired", "id", tid, "time", s.time)
		}
	}
	s.lat.Set(site, sv, s.time)
}

func (s *Simulation) fixed(id uint32) bool {
	if id == 0 {
		return false
	}
	return s.cons.params[s.cells.cells[id].typ].Fixed
}
