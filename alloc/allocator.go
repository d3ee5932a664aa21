package alloc

import (
	"github.com/wippyai/sharedptr/errors"
)

// Allocator reserves and releases byte ranges.
type Allocator interface {
	// Alloc reserves size bytes aligned to align and returns a non-zero address.
	Alloc(size, align uint32) (uint32, error)

	// Free releases a reservation. size and align must match the Alloc call.
	Free(ptr, size, align uint32)
}

// Allocation describes one reservation.
type Allocation struct {
	Ptr   uint32
	Size  uint32
	Align uint32
}

// checkRequest validates size and alignment and returns the effective alignment.
func checkRequest(size, align uint32) (uint32, error) {
	if size == 0 {
		return 0, errors.InvalidInput(errors.PhaseAlloc, "zero-sized allocation")
	}
	if align == 0 {
		align = 1
	}
	if align&(align-1) != 0 {
		return 0, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Value(align).
			Detail("alignment %d is not a power of two", align).
			Build()
	}
	return align, nil
}

func alignUp(v, align uint32) uint64 {
	a := uint64(align)
	return (uint64(v) + a - 1) &^ (a - 1)
}
