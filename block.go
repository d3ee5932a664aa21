package sharedptr

import (
	"fmt"
	"unsafe"

	"github.com/wippyai/sharedptr/alloc"
)

// Allocator reserves storage for co-allocated blocks. See package alloc.
type Allocator = alloc.Allocator

// Strategy identifies how an object and its control block were allocated.
type Strategy uint8

const (
	// StrategySeparate: the object was allocated by the caller and adopted.
	StrategySeparate Strategy = iota
	// StrategyInplace: object and control block share one allocation.
	StrategyInplace
)

func (s Strategy) String() string {
	switch s {
	case StrategySeparate:
		return "separate"
	case StrategyInplace:
		return "inplace"
	}
	return fmt.Sprintf("Strategy(%d)", uint8(s))
}

// Dropper is optionally implemented by managed objects that need cleanup.
// Drop runs exactly once, when the last strong handle is released.
type Dropper interface {
	Drop()
}

// selfReleaser is implemented by objects embedding EnableSharedFromSelf.
type selfReleaser interface {
	releaseSelf()
}

// controlBlock is the closed set of block variants. Counting lives in the
// shared header; only storage release differs.
type controlBlock interface {
	counts() *header
	releaseStorage()
}

type header struct {
	// object is the *T the block was created for, never a converted view.
	object   any
	strong   int
	weak     int
	strategy Strategy
}

func (h *header) counts() *header {
	return h
}

func (h *header) destroyObject() {
	if d, ok := h.object.(Dropper); ok {
		d.Drop()
	}
	if s, ok := h.object.(selfReleaser); ok {
		s.releaseSelf()
	}
}

// separateBlock manages an object the caller allocated.
type separateBlock struct {
	header
}

func newSeparateBlock(object any) *separateBlock {
	return &separateBlock{header: header{
		object:   object,
		strong:   1,
		strategy: StrategySeparate,
	}}
}

func (b *separateBlock) releaseStorage() {
	b.object = nil
}

// inplaceBlock holds the object next to its counts. When alloc is set the
// block also owns a reservation of inplaceLayout[T]() bytes at addr.
type inplaceBlock[T any] struct {
	header
	alloc Allocator
	addr  uint32
	value T
}

func inplaceLayout[T any]() (size, align uint32) {
	var b inplaceBlock[T]
	return uint32(unsafe.Sizeof(b)), uint32(unsafe.Alignof(b))
}

func (b *inplaceBlock[T]) releaseStorage() {
	var zero T
	b.value = zero
	b.object = nil
	b.freeReservation()
}

func (b *inplaceBlock[T]) freeReservation() {
	if b.alloc == nil {
		return
	}
	size, align := inplaceLayout[T]()
	b.alloc.Free(b.addr, size, align)
	b.alloc = nil
	b.addr = 0
}

// releaseStrong drops one strong reference. On the last one the object is
// destroyed with strong already at 0 and a temporary weak pin held, so that
// Lock fails and weak releases cannot free the block from inside Drop.
func releaseStrong(c controlBlock) {
	h := c.counts()
	if h.strong > 1 {
		h.strong--
		return
	}

	h.strong = 0
	h.weak++
	h.destroyObject()
	h.weak--
	h.emit(EventDestroyed)

	if h.weak == 0 {
		release(c)
	}
}

func releaseWeak(c controlBlock) {
	h := c.counts()
	h.weak--
	if h.weak == 0 && h.strong == 0 {
		release(c)
	}
}

func release(c controlBlock) {
	c.counts().emit(EventReleased)
	c.releaseStorage()
}
