package alloc

import (
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/sharedptr/errors"
)

// PoolConfig sizes a Pool.
type PoolConfig struct {
	// SlotSize is the largest reservation a slot can hold.
	SlotSize uint32

	// Slots is the number of slots. The pool never grows.
	Slots uint32

	// Align is the strongest alignment a request may ask for.
	// 0 means 8.
	Align uint32
}

// Pool is a fixed-capacity allocator of equal-sized slots. Freed slots are
// reused last-in first-out.
type Pool struct {
	storage  []byte
	slots    []slot
	freeList []uint32
	stride   uint32
	cfg      PoolConfig
	mu       sync.Mutex
}

type slot struct {
	size  uint32
	align uint32
	used  bool
}

// NewPool creates a pool from cfg.
func NewPool(cfg PoolConfig) (*Pool, error) {
	if cfg.Align == 0 {
		cfg.Align = 8
	}
	if _, err := checkRequest(cfg.SlotSize, cfg.Align); err != nil {
		return nil, err
	}
	if cfg.Slots == 0 {
		return nil, errors.InvalidInput(errors.PhaseAlloc, "pool needs at least one slot")
	}

	stride := alignUp(cfg.SlotSize, cfg.Align)
	// slot i lives at (i+1)*stride so address 0 stays unused
	if (uint64(cfg.Slots)+1)*stride > 1<<32-1 {
		return nil, errors.OutOfBounds(errors.PhaseAlloc, stride, uint64(cfg.Slots)*stride, 1<<32-1)
	}

	p := &Pool{
		storage:  make([]byte, uint64(cfg.Slots)*stride),
		slots:    make([]slot, cfg.Slots),
		freeList: make([]uint32, 0, cfg.Slots),
		stride:   uint32(stride),
		cfg:      cfg,
	}
	for i := cfg.Slots; i > 0; i-- {
		p.freeList = append(p.freeList, i-1)
	}
	return p, nil
}

// Alloc takes a free slot.
func (p *Pool) Alloc(size, align uint32) (uint32, error) {
	align, err := checkRequest(size, align)
	if err != nil {
		return 0, err
	}
	if size > p.cfg.SlotSize || align > p.cfg.Align {
		return 0, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Value(size).
			Detail("request of %d bytes (align %d) does not fit slot of %d bytes (align %d)",
				size, align, p.cfg.SlotSize, p.cfg.Align).
			Build()
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.freeList) == 0 {
		return 0, errors.Exhausted(size, align, uint64(p.cfg.Slots))
	}

	idx := p.freeList[len(p.freeList)-1]
	p.freeList = p.freeList[:len(p.freeList)-1]
	p.slots[idx] = slot{size: size, align: align, used: true}

	off := idx * p.stride
	clear(p.storage[off : off+p.stride])
	return (idx + 1) * p.stride, nil
}

// Free returns a slot to the pool. Unknown or already free addresses are
// logged and ignored.
func (p *Pool) Free(ptr, size, align uint32) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.index(ptr)
	if !ok || !p.slots[idx].used {
		Logger().Warn("pool: free of address that is not live",
			zap.Uint32("ptr", ptr), zap.Uint32("size", size))
		return
	}

	p.slots[idx] = slot{}
	p.freeList = append(p.freeList, idx)
}

// Bytes returns the storage of a live slot, trimmed to the reserved size.
func (p *Pool) Bytes(ptr uint32) ([]byte, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	idx, ok := p.index(ptr)
	if !ok || !p.slots[idx].used {
		return nil, false
	}
	off := idx * p.stride
	return p.storage[off : off+p.slots[idx].size], true
}

// Len returns the number of slots in use.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.slots) - len(p.freeList)
}

// Cap returns the number of slots.
func (p *Pool) Cap() int {
	return len(p.slots)
}

func (p *Pool) index(ptr uint32) (uint32, bool) {
	if ptr == 0 || ptr%p.stride != 0 {
		return 0, false
	}
	idx := ptr/p.stride - 1
	if int(idx) >= len(p.slots) {
		return 0, false
	}
	return idx, true
}
