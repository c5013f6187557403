package core

import (
	"fmt"
	"sort"
)

// Size describes the dimensions of the displayed plane.
type Size struct {
	W int
	H int
}

// Sim is the contract the viewer drives. Cells returns one display byte per
// site of the displayed plane, indexed into the sim's palette.
type Sim interface {
	Name() string
	Size() Size
	Reset(seed int64) error
	Step()
	Time() int
	Cells() []uint8
}

// Factory constructs a Sim from flag-style key/value pairs.
type Factory func(cfg map[string]string) (Sim, error)

var sims = map[string]Factory{}

// Register adds a simulation factory under the provided name.
func Register(name string, f Factory) {
	if name == "" || f == nil {
		return
	}
	sims[name] = f
}

// Sims exposes the registry of available simulation factories.
func Sims() map[string]Factory {
	return sims
}

// Names lists the registered factories in sorted order.
func Names() []string {
	names := make([]string, 0, len(sims))
	for name := range sims {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open looks up a factory by name and builds the sim.
func Open(name string, cfg map[string]string) (Sim, error) {
	f, ok := sims[name]
	if !ok {
		return nil, fmt.Errorf("unknown sim %q (have %v)", name, Names())
	}
	return f(cfg)
}
