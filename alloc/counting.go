package alloc

import (
	"cmp"
	"math"
	"slices"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/sharedptr/errors"
)

// Counting wraps an Allocator and records every reservation passing through it.
type Counting struct {
	inner       Allocator
	live        map[uint32]Allocation
	allocs      int
	frees       int
	doubleFrees int
	failAfter   int
	mu          sync.Mutex
}

// NewCounting wraps inner. A nil inner uses a fresh Heap.
func NewCounting(inner Allocator) *Counting {
	if inner == nil {
		inner = NewHeap()
	}
	return &Counting{
		inner:     inner,
		live:      make(map[uint32]Allocation),
		failAfter: -1,
	}
}

// FailAfter makes the allocator succeed n more times and fail every request
// after that. A negative n disables fault injection.
func (c *Counting) FailAfter(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failAfter = n
}

// Alloc forwards to the wrapped allocator and records the reservation.
func (c *Counting) Alloc(size, align uint32) (uint32, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.failAfter == 0 {
		return 0, errors.Exhausted(size, align, math.MaxUint32)
	}

	ptr, err := c.inner.Alloc(size, align)
	if err != nil {
		return 0, err
	}
	if c.failAfter > 0 {
		c.failAfter--
	}

	c.allocs++
	c.live[ptr] = Allocation{Ptr: ptr, Size: size, Align: align}
	return ptr, nil
}

// Free forwards to the wrapped allocator. Frees of addresses that are not
// live are counted and not forwarded.
func (c *Counting) Free(ptr, size, align uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()

	a, ok := c.live[ptr]
	if !ok {
		c.doubleFrees++
		Logger().Warn("counting: free of address that is not live",
			zap.Uint32("ptr", ptr), zap.Uint32("size", size))
		return
	}
	if a.Size != size || a.Align != align {
		Logger().Warn("counting: free does not match reservation",
			zap.Uint32("ptr", ptr),
			zap.Uint32("size", size), zap.Uint32("reserved_size", a.Size),
			zap.Uint32("align", align), zap.Uint32("reserved_align", a.Align))
	}

	delete(c.live, ptr)
	c.frees++
	c.inner.Free(ptr, size, align)
}

// Allocs returns the number of successful allocations.
func (c *Counting) Allocs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allocs
}

// Frees returns the number of accepted frees.
func (c *Counting) Frees() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frees
}

// DoubleFrees returns the number of frees of addresses that were not live.
func (c *Counting) DoubleFrees() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.doubleFrees
}

// Live returns the number of outstanding reservations.
func (c *Counting) Live() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.live)
}

// LiveBytes returns the total size of outstanding reservations.
func (c *Counting) LiveBytes() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n uint64
	for _, a := range c.live {
		n += uint64(a.Size)
	}
	return n
}

// Outstanding returns the live reservations ordered by address.
func (c *Counting) Outstanding() []Allocation {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]Allocation, 0, len(c.live))
	for _, a := range c.live {
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b Allocation) int {
		return cmp.Compare(a.Ptr, b.Ptr)
	})
	return out
}
