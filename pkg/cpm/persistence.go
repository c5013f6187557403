package cpm

import "math"

// updatePersistence runs once per Monte Carlo step. Each live cell with a
// persistence lambda records its centroid and steers its preferred direction
// toward the displacement over the last persistence_time steps.
func (s *Simulation) updatePersistence() {
	for id := uint32(1); id < s.cells.nextID(); id++ {
		c := &s.cells.cells[id]
		if !c.alive {
			continue
		}
		s.cells.rebase(id)
		if !s.cons.persistenceOn {
			continue
		}
		tp := s.cons.params[c.typ]
		if tp.LambdaPersistence == 0 {
			c.history = c.history[:0]
			continue
		}

		now := s.cells.centroid(id)
		window := tp.PersistenceTime + 1
		if len(c.history) >= window {
			n := copy(c.history, c.history[len(c.history)-window+1:])
			c.history = c.history[:n]
		}
		c.history = append(c.history, now)
		dir := s.wrapDisplacement(c.history[0], now)

		d := tp.PersistenceDiffusion
		if v, ok := unit(dir); ok {
			for ax := 0; ax < s.lat.Dims(); ax++ {
				c.pref[ax] = (1-d)*v[ax] + d*c.pref[ax]
			}
		} else if d < 1 {
			for ax := 0; ax < s.lat.Dims(); ax++ {
				c.pref[ax] += (1 - d) * s.rng.NormFloat64()
			}
		}
		if v, ok := unit(c.pref); ok {
			c.pref = v
		} else {
			c.pref = s.rng.UnitVector(s.lat.Dims())
		}
	}
}

// wrapDisplacement returns to - from with periodic axes folded into half
// the extent.
func (s *Simulation) wrapDisplacement(from, to [3]float64) [3]float64 {
	var d [3]float64
	ext := s.lat.Extent()
	for ax := 0; ax < s.lat.Dims(); ax++ {
		v := to[ax] - from[ax]
		if s.lat.Periodic() {
			e := float64(ext[ax])
			v -= e * math.Round(v/e)
		}
		d[ax] = v
	}
	return d
}
