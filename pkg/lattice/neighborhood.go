package lattice

// Neighborhood selects which sites count as adjacent.
type Neighborhood uint8

const (
	// VonNeumann uses face neighbors: 4 in 2D, 6 in 3D.
	VonNeumann Neighborhood = iota
	// Moore adds diagonals: 8 in 2D, 26 in 3D.
	Moore
)

// String returns the neighborhood name.
func (n Neighborhood) String() string {
	switch n {
	case VonNeumann:
		return "vonneumann"
	case Moore:
		return "moore"
	default:
		return "unknown"
	}
}

// ParseNeighborhood maps a config name onto a Neighborhood.
func ParseNeighborhood(s string) (Neighborhood, bool) {
	switch s {
	case "vonneumann", "von-neumann", "4", "6":
		return VonNeumann, true
	case "moore", "", "8", "26":
		return Moore, true
	}
	return 0, false
}

// Boundary selects how neighbor enumeration treats the lattice edge.
type Boundary uint8

const (
	// Periodic wraps every axis toroidally.
	Periodic Boundary = iota
	// Bounded treats sites past the edge as absent.
	Bounded
)

// String returns the boundary name.
func (b Boundary) String() string {
	switch b {
	case Periodic:
		return "periodic"
	case Bounded:
		return "bounded"
	default:
		return "unknown"
	}
}

// ParseBoundary maps a config name onto a Boundary.
func ParseBoundary(s string) (Boundary, bool) {
	switch s {
	case "periodic", "", "wrap", "torus":
		return Periodic, true
	case "bounded", "fixed", "free":
		return Bounded, true
	}
	return 0, false
}

// Offsets are ring-ordered in 2D so that consecutive entries are adjacent
// around the center site.
var (
	vonNeumann2D = [][3]int{{0, 1, 0}, {1, 0, 0}, {0, -1, 0}, {-1, 0, 0}}
	moore2D      = [][3]int{
		{-1, 1, 0}, {0, 1, 0}, {1, 1, 0}, {1, 0, 0},
		{1, -1, 0}, {0, -1, 0}, {-1, -1, 0}, {-1, 0, 0},
	}
	vonNeumann3D = [][3]int{
		{-1, 0, 0}, {1, 0, 0}, {0, -1, 0}, {0, 1, 0}, {0, 0, -1}, {0, 0, 1},
	}
	moore3D = buildMoore3D()
)

func buildMoore3D() [][3]int {
	offsets := make([][3]int, 0, 26)
	for dz := -1; dz <= 1; dz++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 && dz == 0 {
					continue
				}
				offsets = append(offsets, [3]int{dx, dy, dz})
			}
		}
	}
	return offsets
}

func offsetsFor(dims int, n Neighborhood) [][3]int {
	switch {
	case dims == 2 && n == VonNeumann:
		return vonNeumann2D
	case dims == 2:
		return moore2D
	case n == VonNeumann:
		return vonNeumann3D
	default:
		return moore3D
	}
}
