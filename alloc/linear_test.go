package alloc

import (
	"context"
	"errors"
	"testing"

	perrors "github.com/wippyai/sharedptr/errors"
)

func newTestLinear(t *testing.T, cfg LinearConfig) *Linear {
	t.Helper()
	ctx := context.Background()
	l, err := NewLinearRuntime(ctx, cfg)
	if err != nil {
		t.Fatalf("NewLinearRuntime failed: %v", err)
	}
	t.Cleanup(func() {
		if err := l.Close(ctx); err != nil {
			t.Errorf("Close failed: %v", err)
		}
	})
	return l
}

func TestMemoryModule_Encoding(t *testing.T) {
	mod := memoryModule(1)
	want := []byte{
		0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00,
		0x05, 0x03, 0x01, 0x00, 0x01,
		0x07, 0x0a, 0x01, 0x06, 'm', 'e', 'm', 'o', 'r', 'y', 0x02, 0x00,
	}
	if string(mod) != string(want) {
		t.Fatalf("unexpected module bytes:\n got %x\nwant %x", mod, want)
	}

	if got := uleb128(300); len(got) != 2 || got[0] != 0xac || got[1] != 0x02 {
		t.Fatalf("uleb128(300) = %x", got)
	}
}

func TestLinear_AllocWritesMemory(t *testing.T) {
	l := newTestLinear(t, LinearConfig{})

	ptr, err := l.Alloc(16, 8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if ptr == 0 || ptr%8 != 0 {
		t.Fatalf("expected non-zero aligned address, got %d", ptr)
	}

	if !l.Memory().Write(ptr, []byte{1, 2, 3, 4}) {
		t.Fatal("write into reservation failed")
	}
	l.Free(ptr, 16, 8)

	again, err := l.Alloc(16, 8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if again != ptr {
		t.Fatalf("expected freed range %d to be reused, got %d", ptr, again)
	}
	data, ok := l.Memory().Read(again, 4)
	if !ok {
		t.Fatal("read failed")
	}
	for i, b := range data {
		if b != 0 {
			t.Fatalf("byte %d not zeroed: %d", i, b)
		}
	}
}

func TestLinear_CoalesceAndLowerTop(t *testing.T) {
	l := newTestLinear(t, LinearConfig{})
	base := l.Top()

	a, _ := l.Alloc(32, 8)
	b, _ := l.Alloc(32, 8)
	c, _ := l.Alloc(32, 8)

	l.Free(a, 32, 8)
	l.Free(b, 32, 8)

	// a and b merged: a 64 byte request fits where they were
	d, err := l.Alloc(64, 8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if d != a {
		t.Fatalf("expected merged range at %d, got %d", a, d)
	}

	l.Free(c, 32, 8)
	l.Free(d, 64, 8)
	if l.Top() != base {
		t.Fatalf("expected top back at %d, got %d", base, l.Top())
	}
	if l.Len() != 0 {
		t.Fatalf("expected no live reservations, got %d", l.Len())
	}
}

func TestLinear_AlignmentPaddingReused(t *testing.T) {
	l := newTestLinear(t, LinearConfig{})

	small, _ := l.Alloc(1, 1)
	big, err := l.Alloc(8, 64)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if big%64 != 0 {
		t.Fatalf("expected 64-aligned address, got %d", big)
	}

	// the gap left by alignment is free space
	pad, err := l.Alloc(4, 4)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if pad <= small || pad >= big {
		t.Fatalf("expected padding reuse between %d and %d, got %d", small, big, pad)
	}
}

func TestLinear_Grows(t *testing.T) {
	l := newTestLinear(t, LinearConfig{InitialPages: 1, MemoryLimitPages: 4})

	if l.Memory().Size() != pageSize {
		t.Fatalf("expected one page, got %d bytes", l.Memory().Size())
	}

	ptr, err := l.Alloc(2*pageSize, 8)
	if err != nil {
		t.Fatalf("Alloc failed: %v", err)
	}
	if uint64(ptr)+2*pageSize > uint64(l.Memory().Size()) {
		t.Fatalf("memory did not grow to cover reservation: size %d", l.Memory().Size())
	}

	if _, err := l.Alloc(4*pageSize, 8); !errors.Is(err, perrors.ErrExhausted) {
		t.Fatalf("expected ErrExhausted past memory limit, got %v", err)
	}
}

func TestLinear_BadFreeIgnored(t *testing.T) {
	l := newTestLinear(t, LinearConfig{})

	ptr, _ := l.Alloc(8, 8)
	l.Free(ptr+8, 8, 8)
	l.Free(ptr, 8, 8)
	l.Free(ptr, 8, 8)
	if l.Len() != 0 {
		t.Fatalf("expected no live reservations, got %d", l.Len())
	}
}

func TestNewLinearRuntime_InvalidConfig(t *testing.T) {
	_, err := NewLinearRuntime(context.Background(), LinearConfig{InitialPages: 8, MemoryLimitPages: 2})
	var e *perrors.Error
	if !errors.As(err, &e) || e.Kind != perrors.KindInvalidInput {
		t.Fatalf("expected invalid input error, got %v", err)
	}
}
