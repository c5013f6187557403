package lattice

// Site values pack the owning cell id into the low 24 bits and the cell type
// into the high 8 bits. Id 0 is the medium.
const (
	TypeShift        = 24
	IDMask    uint32 = 1<<TypeShift - 1

	// MaxID is the largest cell id representable in a packed value.
	MaxID = IDMask
	// MaxTypes bounds the number of distinct cell types.
	MaxTypes = 256
)

// Pack combines a cell id and type into a site value.
func Pack(id uint32, typ uint8) uint32 {
	return uint32(typ)<<TypeShift | id&IDMask
}

// Unpack splits a site value into its cell id and type.
func Unpack(v uint32) (uint32, uint8) {
	return v & IDMask, uint8(v >> TypeShift)
}

// IDOf returns the cell id stored in a packed value.
func IDOf(v uint32) uint32 { return v & IDMask }

// TypeOf returns the cell type stored in a packed value.
func TypeOf(v uint32) uint8 { return uint8(v >> TypeShift) }
