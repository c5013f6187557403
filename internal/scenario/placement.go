package scenario

import (
	"fmt"

	"mad-cpm/pkg/core"
	"mad-cpm/pkg/cpm"
)

const placementTries = 200

type placer struct {
	sim *cpm.Simulation
	rng *core.RNG
}

func newPlacer(sim *cpm.Simulation, rng *core.RNG) *placer {
	return &placer{sim: sim, rng: rng}
}

func (p *placer) place(seed Seed) error {
	if seed.Radius < 0 {
		return fmt.Errorf("%w: negative seed radius %d", cpm.ErrConfiguration, seed.Radius)
	}
	if len(seed.At) > 0 {
		return p.block(seed.Type, seed.At, seed.Radius)
	}
	count := seed.Count
	if count <= 0 {
		count = 1
	}
	dims := p.sim.Dims()
	ext := p.sim.Extent()
	lat := p.sim.Lattice()
	for k := 0; k < count; k++ {
		placed := false
		for try := 0; try < placementTries && !placed; try++ {
			var c [3]int
			at := make([]int, dims)
			for ax := 0; ax < dims; ax++ {
				c[ax] = p.rng.IntN(ext[ax])
				at[ax] = c[ax]
			}
			i, _ := lat.Index(c)
			if lat.ID(i) != 0 {
				continue
			}
			if err := p.block(seed.Type, at, seed.Radius); err != nil {
				return err
			}
			placed = true
		}
		if !placed {
			return fmt.Errorf("%w: no free site for cell %d of type %d", cpm.ErrConfiguration, k, seed.Type)
		}
	}
	return nil
}

// block seeds one cell at center covering the free sites within radius.
func (p *placer) block(typ int, center []int, radius int) error {
	if radius == 0 {
		_, err := p.sim.AddCell(typ, center...)
		return err
	}
	dims := p.sim.Dims()
	if len(center) != dims {
		return fmt.Errorf("%w: seed has %d coordinates for a %dD lattice", cpm.ErrConfiguration, len(center), dims)
	}
	lat := p.sim.Lattice()
	ext := lat.Extent()
	var c [3]int
	copy(c[:], center)
	i, ok := lat.Index(c)
	if !ok {
		return fmt.Errorf("%w: seed %v outside lattice", cpm.ErrOutOfRange, center)
	}
	if lat.ID(i) != 0 {
		return fmt.Errorf("%w: seed %v", cpm.ErrOccupiedSite, center)
	}

	lo := [3]int{}
	hi := [3]int{}
	for ax := 0; ax < dims; ax++ {
		lo[ax], hi[ax] = -radius, radius
	}
	var pts [][]int
	for dz := lo[2]; dz <= hi[2]; dz++ {
		for dy := lo[1]; dy <= hi[1]; dy++ {
			for dx := lo[0]; dx <= hi[0]; dx++ {
				q := [3]int{c[0] + dx, c[1] + dy, c[2] + dz}
				inside := true
				for ax := 0; ax < dims; ax++ {
					if q[ax] >= 0 && q[ax] < ext[ax] {
						continue
					}
					if !lat.Periodic() {
						inside = false
						break
					}
					q[ax] = (q[ax]%ext[ax] + ext[ax]) % ext[ax]
				}
				if !inside {
					continue
				}
				j, _ := lat.Index(q)
				if lat.ID(j) != 0 {
					continue
				}
				pts = append(pts, append([]int(nil), q[:dims]...))
			}
		}
	}
	_, err := p.sim.OverwriteCell(typ, pts)
	return err
}
