// Package alloc provides storage allocators for co-allocated shared handles.
//
// An Allocator hands out reservations: byte ranges identified by a non-zero
// uint32 address, released again with the same size and alignment. Address 0
// is reserved and never returned.
//
//	a := alloc.NewHeap()
//	ptr, err := a.Alloc(64, 8)
//	if err != nil {
//	    return err
//	}
//	defer a.Free(ptr, 64, 8)
//
// # Implementations
//
//	Heap     - Go heap backed, unbounded
//	Pool     - fixed number of equal slots with a free list
//	Linear   - first-fit arena inside a WebAssembly linear memory (wazero)
//	Counting - wrapper that records every reservation, for leak checks
//
// # Instrumentation
//
// Counting wraps any Allocator and tracks outstanding reservations, double
// frees and foreign frees. It can also be told to fail after a number of
// successful allocations to exercise error paths:
//
//	c := alloc.NewCounting(alloc.NewHeap())
//	c.FailAfter(0)
//	_, err := c.Alloc(16, 8) // errors.Is(err, errors.ErrExhausted)
//
// # Thread Safety
//
// All allocators in this package are safe for concurrent use.
package alloc
