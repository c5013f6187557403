package lattice

// Dice is the random source a DiceSet draws from.
type Dice interface {
	IntN(n int) int
}

// DiceSet is a set of site indices supporting O(1) insert, delete and uniform
// draw. Members live densely in items; index maps a site back to its slot, or
// -1 when the site is absent.
type DiceSet struct {
	items []int32
	index []int32
}

// NewDiceSet allocates a set over sites [0, size).
func NewDiceSet(size int) *DiceSet {
	index := make([]int32, size)
	for i := range index {
		index[i] = -1
	}
	return &DiceSet{index: index}
}

// Add inserts site if it is not already present.
func (d *DiceSet) Add(site int) {
	if d.index[site] >= 0 {
		return
	}
	d.index[site] = int32(len(d.items))
	d.items = append(d.items, int32(site))
}

// Remove deletes site by swapping the last member into its slot.
func (d *DiceSet) Remove(site int) {
	slot := d.index[site]
	if slot < 0 {
		return
	}
	last := len(d.items) - 1
	moved := d.items[last]
	d.items[slot] = moved
	d.index[moved] = slot
	d.items = d.items[:last]
	d.index[site] = -1
}

// Contains reports whether site is a member.
func (d *DiceSet) Contains(site int) bool { return d.index[site] >= 0 }

// Len returns the number of members.
func (d *DiceSet) Len() int { return len(d.items) }

// At returns the member stored in slot i.
func (d *DiceSet) At(i int) int { return int(d.items[i]) }

// Random draws a member uniformly. It returns -1 on an empty set.
func (d *DiceSet) Random(dice Dice) int {
	if len(d.items) == 0 {
		return -1
	}
	return int(d.items[dice.IntN(len(d.items))])
}

// Clear removes every member.
func (d *DiceSet) Clear() {
	for _, site := range d.items {
		d.index[site] = -1
	}
	d.items = d.items[:0]
}
