// Package tissue adapts a Cellular Potts simulation to the viewer's core.Sim
// contract.
package tissue

import (
	"fmt"

	"mad-cpm/internal/core"
	"mad-cpm/pkg/cpm"
)

func init() {
	core.Register("tissue", func(cfg map[string]string) (core.Sim, error) {
		c, err := FromMap(cfg)
		if err != nil {
			return nil, err
		}
		return New(c)
	})
}

// World wraps one simulation and its display plane.
type World struct {
	cfg Config
	sim *cpm.Simulation

	w, h    int
	slice   int
	display []uint8
}

// New builds the scenario described by cfg.
func New(cfg Config) (*World, error) {
	w := &World{cfg: cfg}
	if err := w.Reset(0); err != nil {
		return nil, err
	}
	return w, nil
}

// Name returns the simulation identifier.
func (w *World) Name() string { return "tissue" }

// Size reports the displayed plane.
func (w *World) Size() core.Size { return core.Size{W: w.w, H: w.h} }

// Cells exposes the display buffer.
func (w *World) Cells() []uint8 { return w.display }

// Time returns the number of completed Monte Carlo steps.
func (w *World) Time() int { return w.sim.Time() }

// Simulation exposes the wrapped engine.
func (w *World) Simulation() *cpm.Simulation { return w.sim }

// Reset rebuilds the scenario. A zero seed reuses the configured one. On
// error the previous simulation is kept.
func (w *World) Reset(seed int64) error {
	sc := w.cfg.Scenario
	if seed != 0 {
		sc.Seed = seed
	}
	sim, err := sc.Build(w.cfg.Logger)
	if err != nil {
		return fmt.Errorf("tissue: %w", err)
	}
	ext := sim.Extent()
	slice := w.cfg.Slice
	if slice >= ext[2] {
		slice = ext[2] - 1
	}
	w.sim = sim
	w.w, w.h, w.slice = ext[0], ext[1], slice
	if len(w.display) != w.w*w.h {
		w.display = make([]uint8, w.w*w.h)
	}
	w.rebuildDisplay()
	return nil
}

// Step advances one Monte Carlo step.
func (w *World) Step() {
	w.sim.Step()
	w.rebuildDisplay()
}

// Advance runs n Monte Carlo steps and refreshes the display once.
func (w *World) Advance(n int) error {
	if err := w.sim.Run(n); err != nil {
		return err
	}
	w.rebuildDisplay()
	return nil
}

// planeSite maps a display index onto the lattice site of the shown slice.
func (w *World) planeSite(i int) int {
	return w.slice*w.w*w.h + i
}

// ActField returns the remaining activity of the shown plane scaled to [0, 1]
// by the largest max_act of any type.
func (w *World) ActField() []float64 {
	var top float64
	for typ := 0; typ < w.sim.Types(); typ++ {
		p, _ := w.sim.Params(typ)
		top = max(top, p.MaxAct)
	}
	out := make([]float64, w.w*w.h)
	if top == 0 {
		return out
	}
	act := w.sim.ActState()
	for i := range out {
		out[i] = act[w.planeSite(i)] / top
	}
	return out
}

// Centroids returns the x/y position of every live cell.
func (w *World) Centroids() [][2]float64 {
	cs := w.sim.Centroids()
	out := make([][2]float64, len(cs))
	for k, c := range cs {
		out[k] = [2]float64{c.Pos[0], c.Pos[1]}
	}
	return out
}
