package sharedptr

import (
	"fmt"

	"github.com/wippyai/sharedptr/errors"
)

// MakeOwned creates an object and its control block in a single allocation
// and returns its first owner. init constructs the object in place; nil
// leaves it zeroed. If init fails nothing is left allocated and the error
// wraps init's error.
func MakeOwned[T any](init func(*T) error) (Shared[T], error) {
	return constructInplace(nil, init)
}

// AllocateOwned is MakeOwned with the combined block also reserved from a.
// The reservation is freed through a once the block is released. A nil a
// behaves like MakeOwned.
func AllocateOwned[T any](a Allocator, init func(*T) error) (Shared[T], error) {
	return constructInplace(a, init)
}

// New returns the first owner of a co-allocated copy of v.
func New[T any](v T) Shared[T] {
	b := &inplaceBlock[T]{value: v}
	return b.own()
}

func constructInplace[T any](a Allocator, init func(*T) error) (Shared[T], error) {
	b := &inplaceBlock[T]{}

	if a != nil {
		size, align := inplaceLayout[T]()
		addr, err := a.Alloc(size, align)
		if err != nil {
			e := errors.AllocationFailed(errors.PhaseAlloc, size, align)
			e.GoType = fmt.Sprintf("%T", (*T)(nil))
			e.Cause = err
			return Shared[T]{}, e
		}
		b.alloc, b.addr = a, addr
	}

	if init != nil {
		constructed := false
		// unwinds on init error and on panic
		defer func() {
			if !constructed {
				b.freeReservation()
			}
		}()
		if err := init(&b.value); err != nil {
			return Shared[T]{}, errors.ConstructionFailed(fmt.Sprintf("%T", (*T)(nil)), err)
		}
		constructed = true
	}

	return b.own(), nil
}

// own publishes a constructed block with its first strong reference.
func (b *inplaceBlock[T]) own() Shared[T] {
	b.header = header{
		object:   &b.value,
		strong:   1,
		strategy: StrategyInplace,
	}
	s := Shared[T]{ctrl: b, ptr: &b.value}
	b.emit(EventCreated)
	bindSelf(s)
	return s
}
