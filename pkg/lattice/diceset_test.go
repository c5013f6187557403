package lattice

import (
	"testing"

	"mad-cpm/pkg/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiceSetAddRemove(t *testing.T) {
	d := NewDiceSet(10)
	d.Add(3)
	d.Add(7)
	d.Add(3)
	d.Add(9)
	require.Equal(t, 3, d.Len())

	d.Remove(3)
	assert.Equal(t, 2, d.Len())
	assert.False(t, d.Contains(3))
	assert.True(t, d.Contains(7))
	assert.True(t, d.Contains(9))

	// The last member was swapped into the freed slot.
	assert.Equal(t, 9, d.At(0))

	d.Remove(3)
	assert.Equal(t, 2, d.Len())

	d.Remove(9)
	d.Remove(7)
	assert.Equal(t, 0, d.Len())
	assert.Equal(t, -1, d.Random(core.NewRNG(1)))
}

func TestDiceSetRandomDrawsMembers(t *testing.T) {
	d := NewDiceSet(100)
	members := map[int]bool{4: true, 50: true, 99: true}
	for m := range members {
		d.Add(m)
	}
	rng := core.NewRNG(5)
	seen := map[int]int{}
	for i := 0; i < 300; i++ {
		s := d.Random(rng)
		require.True(t, members[s], "drew non-member %d", s)
		seen[s]++
	}
	assert.Len(t, seen, 3)
}

func TestDiceSetClear(t *testing.T) {
	d := NewDiceSet(5)
	for i := 0; i < 5; i++ {
		d.Add(i)
	}
	d.Clear()
	assert.Equal(t, 0, d.Len())
	for i := 0; i < 5; i++ {
		assert.False(t, d.Contains(i))
	}
	d.Add(2)
	assert.Equal(t, 2, d.At(0))
}
