package cpm

import "errors"

// Sentinel errors. Every error returned by this package wraps one of them.
var (
	// ErrConfiguration reports an invalid constraint, type index, option or
	// bulk-load grid.
	ErrConfiguration = errors.New("cpm: configuration error")
	// ErrOccupiedSite reports a seeding attempt on a site that is not medium.
	ErrOccupiedSite = errors.New("cpm: site is occupied")
	// ErrOutOfRange reports a lookup of a nonexistent cell or an off-lattice
	// coordinate.
	ErrOutOfRange = errors.New("cpm: out of range")
)
