package core

import (
	"math"
	"math/rand/v2"
)

// RNG is a thin convenience wrapper around math/rand/v2 for deterministic seeding.
// It is not safe for concurrent use; every simulation owns its own instance.
type RNG struct {
	r *rand.Rand
}

// NewRNG creates a deterministic RNG using the provided seed.
func NewRNG(seed int64) *RNG {
	return &RNG{r: rand.New(rand.NewPCG(uint64(seed), 0x9e3779b97f4a7c15))}
}

// IntN returns a uniform integer in [0, n). It returns 0 when n <= 0.
func (r *RNG) IntN(n int) int {
	if n <= 0 {
		return 0
	}
	return r.r.IntN(n)
}

// Float64 returns a uniform float in [0, 1).
func (r *RNG) Float64() float64 {
	return r.r.Float64()
}

// NormFloat64 returns a standard normally distributed value.
func (r *RNG) NormFloat64() float64 {
	return r.r.NormFloat64()
}

// Bool returns a random boolean value.
func (r *RNG) Bool() bool {
	return r.r.IntN(2) == 1
}

// UnitVector returns a random direction in the first dims components of a
// 3-vector. Unused components are zero.
func (r *RNG) UnitVector(dims int) [3]float64 {
	var v [3]float64
	if dims <= 0 || dims > 3 {
		return v
	}
	for {
		var l float64
		for i := 0; i < dims; i++ {
			v[i] = r.r.NormFloat64()
			l += v[i] * v[i]
		}
		if l > 0 {
			l = math.Sqrt(l)
			for i := 0; i < dims; i++ {
				v[i] /= l
			}
			return v
		}
	}
}

// Source exposes the underlying rand.Rand for advanced use.
func (r *RNG) Source() *rand.Rand { return r.r }
