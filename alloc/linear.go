package alloc

import (
	"context"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/sharedptr/errors"
)

const pageSize = 65536

// LinearConfig configures NewLinearRuntime.
type LinearConfig struct {
	// InitialPages is the memory size at instantiation, in 64KiB pages.
	// 0 means 1.
	InitialPages uint32

	// MemoryLimitPages caps growth, in 64KiB pages.
	// 0 means the wazero default (65536 pages = 4GB).
	MemoryLimitPages uint32
}

// Linear is a first-fit allocator over a WebAssembly linear memory. Free
// ranges are kept sorted and coalesced; the memory grows a page at a time
// when no free range fits.
type Linear struct {
	space
	mem     api.Memory
	runtime wazero.Runtime
	used    map[uint32]uint32
	mu      sync.Mutex
}

// NewLinear manages mem starting at offset 8. The allocator assumes nothing
// else writes to mem.
func NewLinear(mem api.Memory) *Linear {
	return &Linear{
		space: space{top: 8},
		mem:   mem,
		used:  make(map[uint32]uint32),
	}
}

// NewLinearRuntime creates a wazero runtime with a module that exports a
// single memory, and an allocator over that memory. Close releases the runtime.
func NewLinearRuntime(ctx context.Context, cfg LinearConfig) (*Linear, error) {
	if cfg.InitialPages == 0 {
		cfg.InitialPages = 1
	}
	if cfg.MemoryLimitPages > 0 && cfg.InitialPages > cfg.MemoryLimitPages {
		return nil, errors.New(errors.PhaseAlloc, errors.KindInvalidInput).
			Detail("initial pages %d exceed limit %d", cfg.InitialPages, cfg.MemoryLimitPages).
			Build()
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}
	rt := wazero.NewRuntimeWithConfig(ctx, runtimeCfg)

	mod, err := rt.InstantiateWithConfig(ctx, memoryModule(cfg.InitialPages),
		wazero.NewModuleConfig().WithName("sharedptr-arena"))
	if err != nil {
		_ = rt.Close(ctx)
		return nil, errors.Wrap(errors.PhaseAlloc, errors.KindAllocation, err, "instantiate memory module")
	}

	mem := mod.Memory()
	if mem == nil {
		_ = rt.Close(ctx)
		return nil, errors.InvalidInput(errors.PhaseAlloc, "memory module exports no memory")
	}

	l := NewLinear(mem)
	l.runtime = rt
	return l, nil
}

// Close releases the wazero runtime if the allocator created it.
func (l *Linear) Close(ctx context.Context) error {
	l.mu.Lock()
	rt := l.runtime
	l.runtime = nil
	l.mu.Unlock()

	if rt == nil {
		return nil
	}
	return rt.Close(ctx)
}

// Memory returns the managed memory.
func (l *Linear) Memory() api.Memory {
	return l.mem
}

// Alloc reserves size bytes and zeroes them.
func (l *Linear) Alloc(size, align uint32) (uint32, error) {
	align, err := checkRequest(size, align)
	if err != nil {
		return 0, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	ptr, ok := l.takeFree(size, align)
	if !ok {
		ptr, err = l.bump(size, align, func(end uint64) error {
			return l.grow(size, align, end)
		})
		if err != nil {
			return 0, err
		}
	}

	if !l.mem.Write(ptr, make([]byte, size)) {
		// bump guarantees the range is in bounds
		return 0, errors.OutOfBounds(errors.PhaseAlloc, uint64(ptr), uint64(size), uint64(l.mem.Size()))
	}
	l.used[ptr] = size
	return ptr, nil
}

// Free releases a reservation. Unknown addresses are logged and ignored.
func (l *Linear) Free(ptr, size, align uint32) {
	l.mu.Lock()
	defer l.mu.Unlock()

	reserved, ok := l.used[ptr]
	if !ok {
		Logger().Warn("linear: free of address that is not live",
			zap.Uint32("ptr", ptr), zap.Uint32("size", size))
		return
	}
	delete(l.used, ptr)
	l.release(span{off: ptr, size: reserved})
}

// Len returns the number of live reservations.
func (l *Linear) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.used)
}

// Top returns the high-water mark: the first offset never handed out.
func (l *Linear) Top() uint32 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.top
}

// grow makes the memory at least end bytes long for a size/align request.
func (l *Linear) grow(size, align uint32, end uint64) error {
	have := uint64(l.mem.Size())
	if end <= have {
		return nil
	}
	pages := uint32((end - have + pageSize - 1) / pageSize)
	if _, ok := l.mem.Grow(pages); !ok {
		return errors.Exhausted(size, align, have)
	}
	Logger().Debug("linear: memory grown",
		zap.Uint32("pages", pages), zap.Uint32("size", l.mem.Size()))
	return nil
}

// memoryModule encodes a core module that exports one memory named "memory".
func memoryModule(initialPages uint32) []byte {
	memSection := append([]byte{0x01, 0x00}, uleb128(initialPages)...)
	exportSection := []byte{0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}
	out = append(out, 0x05, byte(len(memSection)))
	out = append(out, memSection...)
	out = append(out, 0x07, byte(len(exportSection)))
	out = append(out, exportSection...)
	return out
}

func uleb128(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		out = append(out, b)
		if v == 0 {
			return out
		}
	}
}
