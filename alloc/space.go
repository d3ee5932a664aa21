package alloc

import (
	"sort"

	"github.com/wippyai/sharedptr/errors"
)

// space hands out offsets below a 32-bit address limit. Free ranges are kept
// sorted and coalesced; top is the first offset never handed out.
type space struct {
	free []span
	top  uint32
}

type span struct {
	off  uint32
	size uint32
}

// takeFree carves a reservation out of the first free span that fits,
// keeping any alignment padding and tail as free spans.
func (sp *space) takeFree(size, align uint32) (uint32, bool) {
	for i, s := range sp.free {
		start := alignUp(s.off, align)
		end := start + uint64(size)
		if end > uint64(s.off)+uint64(s.size) {
			continue
		}

		var rest []span
		if pad := uint32(start) - s.off; pad > 0 {
			rest = append(rest, span{off: s.off, size: pad})
		}
		if tail := s.off + s.size - uint32(end); tail > 0 {
			rest = append(rest, span{off: uint32(end), size: tail})
		}
		sp.free = append(sp.free[:i], append(rest, sp.free[i+1:]...)...)
		return uint32(start), true
	}
	return 0, false
}

// bump reserves at top. ensure, when set, is asked to make [0, end) usable
// before top moves.
func (sp *space) bump(size, align uint32, ensure func(end uint64) error) (uint32, error) {
	start := alignUp(sp.top, align)
	end := start + uint64(size)
	if end > 1<<32 {
		return 0, errors.Exhausted(size, align, 1<<32)
	}
	if ensure != nil {
		if err := ensure(end); err != nil {
			return 0, err
		}
	}

	if pad := uint32(start) - sp.top; pad > 0 {
		sp.release(span{off: sp.top, size: pad})
	}
	sp.top = uint32(end)
	return uint32(start), nil
}

// release inserts s into the free list, merging neighbours. A span that ends
// at top lowers it instead.
func (sp *space) release(s span) {
	i := sort.Search(len(sp.free), func(i int) bool { return sp.free[i].off > s.off })

	if i > 0 && sp.free[i-1].off+sp.free[i-1].size == s.off {
		i--
		s = span{off: sp.free[i].off, size: sp.free[i].size + s.size}
		sp.free = append(sp.free[:i], sp.free[i+1:]...)
	}
	if i < len(sp.free) && s.off+s.size == sp.free[i].off {
		s.size += sp.free[i].size
		sp.free = append(sp.free[:i], sp.free[i+1:]...)
	}

	if s.off+s.size == sp.top {
		sp.top = s.off
		return
	}
	sp.free = append(sp.free, span{})
	copy(sp.free[i+1:], sp.free[i:])
	sp.free[i] = s
}
