package alloc

import (
	"sync"

	"go.uber.org/zap"
)

// Heap is an allocator backed by the Go heap. Each reservation is its own
// byte slice; addresses are handed out first-fit from a 32-bit address space
// and reused once freed, so only the bytes live at once are limited.
type Heap struct {
	space
	blocks map[uint32][]byte
	mu     sync.Mutex
}

// NewHeap creates an empty heap allocator.
func NewHeap() *Heap {
	return &Heap{
		space:  space{top: 1},
		blocks: make(map[uint32][]byte),
	}
}

// Alloc reserves size bytes.
func (h *Heap) Alloc(size, align uint32) (uint32, error) {
	align, err := checkRequest(size, align)
	if err != nil {
		return 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	ptr, ok := h.takeFree(size, align)
	if !ok {
		ptr, err = h.bump(size, align, nil)
		if err != nil {
			return 0, err
		}
	}

	h.blocks[ptr] = make([]byte, size)
	return ptr, nil
}

// Free releases a reservation made by Alloc.
func (h *Heap) Free(ptr, size, align uint32) {
	h.mu.Lock()
	defer h.mu.Unlock()

	b, ok := h.blocks[ptr]
	if !ok {
		Logger().Warn("heap: free of unknown address",
			zap.Uint32("ptr", ptr), zap.Uint32("size", size))
		return
	}
	if uint32(len(b)) != size {
		Logger().Warn("heap: free size mismatch",
			zap.Uint32("ptr", ptr), zap.Uint32("size", size), zap.Int("reserved", len(b)))
	}
	delete(h.blocks, ptr)
	h.release(span{off: ptr, size: uint32(len(b))})
}

// Bytes returns the storage of a live reservation.
func (h *Heap) Bytes(ptr uint32) ([]byte, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	b, ok := h.blocks[ptr]
	return b, ok
}

// Len returns the number of live reservations.
func (h *Heap) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.blocks)
}
