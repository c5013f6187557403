package cpm

import (
	"math"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetConstraintValuesApplies(t *testing.T) {
	s := newSim(t, Options{Extent: []int{10, 10}, Types: 3})
	require.NoError(t, s.SetConstraintValues(1, NoType, map[string]float64{
		KeyLambdaArea:           50,
		KeyTargetArea:           200,
		KeyMaxAct:               20,
		KeyLambdaAct:            300,
		KeyPersistenceTime:      15,
		KeyPersistenceDiffusion: 0.9,
		KeyFixed:                1,
	}))
	p, err := s.Params(1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, p.LambdaArea)
	assert.Equal(t, 200.0, p.TargetArea)
	assert.Equal(t, 15, p.PersistenceTime)
	assert.True(t, p.Fixed)

	// Unspecified parameters keep their value.
	require.NoError(t, s.SetConstraintValues(1, NoType, map[string]float64{KeyTargetArea: 100}))
	p, err = s.Params(1)
	require.NoError(t, err)
	assert.Equal(t, 50.0, p.LambdaArea)
	assert.Equal(t, 100.0, p.TargetArea)

	require.NoError(t, s.SetConstraintValues(1, 2, map[string]float64{KeyAdhesion: 12}))
	j, err := s.Adhesion(2, 1)
	require.NoError(t, err)
	assert.Equal(t, 12.0, j)
}

func TestSetConstraintValuesRejects(t *testing.T) {
	tests := []struct {
		name   string
		typ    int
		other  int
		values map[string]float64
	}{
		{"unknown key", 1, NoType, map[string]float64{KeyLambdaArea: 3, "lambda_volume": 1}},
		{"adhesion without pair", 1, NoType, map[string]float64{KeyAdhesion: 3}},
		{"pair without adhesion", 1, 2, map[string]float64{KeyLambdaArea: 3}},
		{"pair type out of range", 1, 7, map[string]float64{KeyAdhesion: 3}},
		{"type out of range", 3, NoType, map[string]float64{KeyLambdaArea: 3}},
		{"negative lambda", 1, NoType, map[string]float64{KeyLambdaArea: -1}},
		{"nan target", 1, NoType, map[string]float64{KeyTargetArea: math.NaN()}},
		{"diffusion above one", 1, NoType, map[string]float64{KeyPersistenceDiffusion: 1.5}},
		{"fractional persistence time", 1, NoType, map[string]float64{KeyPersistenceTime: 2.5}},
		{"zero persistence time", 1, NoType, map[string]float64{KeyPersistenceTime: 0}},
		{"fixed not boolean", 1, NoType, map[string]float64{KeyFixed: 2}},
		{"infinite adhesion", 1, 2, map[string]float64{KeyAdhesion: math.Inf(-1)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSim(t, Options{Extent: []int{10, 10}, Types: 3})
			before, err := s.Params(1)
			require.NoError(t, err)
			err = s.SetConstraintValues(tt.typ, tt.other, tt.values)
			require.ErrorIs(t, err, ErrConfiguration)
			after, err := s.Params(1)
			require.NoError(t, err)
			assert.Equal(t, before, after)
		})
	}
}

func TestConnectednessNeeds2D(t *testing.T) {
	flat := newSim(t, Options{Extent: []int{6, 6}})
	assert.NoError(t, flat.SetConstraints(1, Constraints{LambdaConnectedness: Ptr(10.0)}))

	cube := newSim(t, Options{Extent: []int{6, 6, 6}})
	assert.ErrorIs(t, cube.SetConstraints(1, Constraints{LambdaConnectedness: Ptr(10.0)}), ErrConfiguration)
	assert.NoError(t, cube.SetConstraints(1, Constraints{LambdaConnectedness: Ptr(0.0)}))
}

func TestSetAdhesionIsSymmetric(t *testing.T) {
	s := newSim(t, Options{Extent: []int{6, 6}, Types: 4})
	require.NoError(t, s.SetAdhesion(3, 1, -2.5))
	a, err := s.Adhesion(1, 3)
	require.NoError(t, err)
	assert.Equal(t, -2.5, a)
	assert.ErrorIs(t, s.SetAdhesion(0, 4, 1), ErrConfiguration)
	assert.ErrorIs(t, s.SetAdhesion(0, 1, math.NaN()), ErrConfiguration)
}

func TestKeysSorted(t *testing.T) {
	keys := Keys()
	assert.Len(t, keys, 13)
	assert.True(t, sort.StringsAreSorted(keys))
	for _, k := range keys {
		_, _, err := constraintsFromValues(map[string]float64{k: 1})
		assert.NoError(t, err, k)
	}
}
