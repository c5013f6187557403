package cpm

import "math"

// Centroid is the position of one live cell.
type Centroid struct {
	ID  uint32
	Pos [3]float64
}

// Centroids scans the lattice and returns the centroid of every live cell in
// id order. On periodic axes a cell spanning more than half the extent is
// unwrapped by shifting its low coordinates up by one extent before
// averaging.
func (s *Simulation) Centroids() []Centroid {
	n := int(s.cells.nextID())
	dims := s.lat.Dims()
	ext := s.lat.Extent()
	lo := make([][3]int, n)
	hi := make([][3]int, n)
	count := make([]int, n)
	for id := range lo {
		lo[id] = [3]int{math.MaxInt, math.MaxInt, math.MaxInt}
		hi[id] = [3]int{math.MinInt, math.MinInt, math.MinInt}
	}
	for i := 0; i < s.lat.Len(); i++ {
		id := s.lat.ID(i)
		if id == 0 {
			continue
		}
		c := s.lat.Coords(i)
		for ax := 0; ax < dims; ax++ {
			lo[id][ax] = min(lo[id][ax], c[ax])
			hi[id][ax] = max(hi[id][ax], c[ax])
		}
		count[id]++
	}

	fold := make([][3]bool, n)
	if s.lat.Periodic() {
		for id := range fold {
			for ax := 0; ax < dims; ax++ {
				fold[id][ax] = count[id] > 0 && 2*(hi[id][ax]-lo[id][ax]) > ext[ax]
			}
		}
	}

	sum := make([][3]float64, n)
	for i := 0; i < s.lat.Len(); i++ {
		id := s.lat.ID(i)
		if id == 0 {
			continue
		}
		c := s.lat.Coords(i)
		for ax := 0; ax < dims; ax++ {
			v := c[ax]
			if fold[id][ax] && 2*v < ext[ax] {
				v += ext[ax]
			}
			sum[id][ax] += float64(v)
		}
	}

	var out []Centroid
	for id := 1; id < n; id++ {
		if count[id] == 0 {
			continue
		}
		var pos [3]float64
		for ax := 0; ax < dims; ax++ {
			pos[ax] = sum[id][ax] / float64(count[id])
			if fold[id][ax] {
				pos[ax] = math.Mod(pos[ax], float64(ext[ax]))
			}
		}
		out = append(out, Centroid{ID: uint32(id), Pos: pos})
	}
	return out
}
