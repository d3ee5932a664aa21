package sharedptr

import (
	"testing"
)

func TestWeak_ExpiresWithLastOwner(t *testing.T) {
	rec := watch(t)
	drops := 0
	obj := newWidget(1, &drops)

	a := Adopt(obj)
	w := NewWeak(a)
	if w.Expired() {
		t.Fatal("weak handle expired while owner alive")
	}
	if w.UseCount() != 1 {
		t.Fatalf("expected UseCount 1, got %d", w.UseCount())
	}

	a.Release()
	if drops != 1 {
		t.Fatalf("expected object destroyed, drops=%d", drops)
	}
	if !w.Expired() {
		t.Fatal("weak handle should be expired")
	}
	if w.UseCount() != 0 {
		t.Fatalf("expected UseCount 0, got %d", w.UseCount())
	}
	if rec.count(any(obj), EventReleased) != 0 {
		t.Fatal("block released while weak handle alive")
	}

	locked := w.Lock()
	if !locked.IsEmpty() {
		t.Fatal("Lock on expired handle should return empty")
	}
	if w.UseCount() != 0 {
		t.Fatalf("Lock on expired handle changed count to %d", w.UseCount())
	}

	w.Release()
	w.Release()
	if n := rec.count(any(obj), EventReleased); n != 1 {
		t.Fatalf("expected one release after last weak handle, got %d", n)
	}
	if drops != 1 {
		t.Fatalf("Drop ran %d times", drops)
	}
}

func TestWeak_ReleasedBeforeOwner(t *testing.T) {
	rec := watch(t)
	drops := 0
	obj := newWidget(1, &drops)

	a := Adopt(obj)
	w := NewWeak(a)
	w.Release()
	if rec.count(any(obj), EventReleased) != 0 || drops != 0 {
		t.Fatal("releasing a weak handle of a live object must not free anything")
	}

	a.Release()
	if drops != 1 || rec.count(any(obj), EventReleased) != 1 {
		t.Fatalf("expected one destroy and one release, drops=%d", drops)
	}
}

func TestWeak_LockIncrementsOnce(t *testing.T) {
	drops := 0
	a := Adopt(newWidget(1, &drops))
	w := NewWeak(a)

	s := w.Lock()
	if s.IsEmpty() {
		t.Fatal("Lock on live object returned empty handle")
	}
	if s.Get() != a.Get() {
		t.Fatal("Lock returned a different object")
	}
	if a.UseCount() != 2 {
		t.Fatalf("expected UseCount 2 after Lock, got %d", a.UseCount())
	}

	a.Release()
	if drops != 0 {
		t.Fatal("locked handle should keep object alive")
	}
	s.Release()
	if drops != 1 {
		t.Fatalf("expected one Drop, got %d", drops)
	}
	w.Release()
}

func TestWeak_Empty(t *testing.T) {
	var w Weak[widget]
	if !w.Expired() {
		t.Fatal("empty weak handle should be expired")
	}
	if w.UseCount() != 0 {
		t.Fatalf("empty weak UseCount should be 0, got %d", w.UseCount())
	}
	if s := w.Lock(); !s.IsEmpty() {
		t.Fatal("Lock on empty weak should be empty")
	}
	if c := w.Clone(); c.ctrl != nil {
		t.Fatal("clone of empty weak should be empty")
	}
	w.Release()

	var s Shared[widget]
	if nw := NewWeak(s); nw.ctrl != nil {
		t.Fatal("weak of empty shared should be empty")
	}
}

func TestWeak_CopyMoveAssign(t *testing.T) {
	drops := 0
	a := Adopt(newWidget(1, &drops))

	w1 := NewWeak(a)
	w2 := w1.Clone()
	if weakCount(a) != 2 {
		t.Fatalf("expected weak count 2, got %d", weakCount(a))
	}

	w3 := w2.Move()
	if w2.ctrl != nil {
		t.Fatal("moved-from weak handle should be empty")
	}
	if weakCount(a) != 2 {
		t.Fatalf("Move changed weak count to %d", weakCount(a))
	}

	var w4 Weak[widget]
	w4.Assign(w3)
	if weakCount(a) != 3 {
		t.Fatalf("expected weak count 3 after Assign, got %d", weakCount(a))
	}
	w4.Assign(w4)
	if weakCount(a) != 3 {
		t.Fatalf("self assignment changed weak count to %d", weakCount(a))
	}

	var w5 Weak[widget]
	w5.MoveAssign(&w4)
	if w4.ctrl != nil || weakCount(a) != 3 {
		t.Fatal("MoveAssign should transfer without counting")
	}

	other := Adopt(newWidget(2, &drops))
	w5.AssignShared(other)
	if weakCount(a) != 2 || weakCount(other) != 1 {
		t.Fatalf("AssignShared should move observation, got %d/%d", weakCount(a), weakCount(other))
	}

	w1.Swap(&w5)
	locked := w1.Lock()
	if locked.Get().id != 2 {
		t.Fatal("Swap did not exchange observed objects")
	}
	locked.Release()

	for _, w := range []*Weak[widget]{&w1, &w3, &w5} {
		w.Reset()
	}
	if weakCount(a) != 0 || weakCount(other) != 0 {
		t.Fatalf("expected no weak handles left, got %d/%d", weakCount(a), weakCount(other))
	}

	a.Release()
	other.Release()
	if drops != 2 {
		t.Fatalf("expected both objects destroyed once, drops=%d", drops)
	}
}

func TestConvertWeak(t *testing.T) {
	drops := 0
	d := &derived{base: base{name: "x"}, drops: &drops}
	ds := Adopt(d)

	dw := NewWeak(ds)
	bw := ConvertWeak(dw, toBase)
	if weakCount(ds) != 2 {
		t.Fatalf("expected weak count 2, got %d", weakCount(ds))
	}

	bs := bw.Lock()
	if bs.Get() != &d.base {
		t.Fatal("converted weak should lock to the base view")
	}
	bs.Release()

	moved := ConvertWeakMove(&dw, toBase)
	if dw.ctrl != nil || weakCount(ds) != 2 {
		t.Fatal("ConvertWeakMove should transfer without counting")
	}

	var empty Weak[derived]
	if e := ConvertWeak(empty, toBase); e.ctrl != nil {
		t.Fatal("ConvertWeak of empty should be empty")
	}
	if e := ConvertWeakMove(&empty, toBase); e.ctrl != nil {
		t.Fatal("ConvertWeakMove of empty should be empty")
	}

	ds.Release()
	if !bw.Expired() || !moved.Expired() {
		t.Fatal("converted weak handles should expire with the object")
	}
	bw.Release()
	moved.Release()
	if drops != 1 {
		t.Fatalf("expected one Drop, got %d", drops)
	}
}

// observerWidget keeps a weak handle to a sibling and inspects it from Drop.
type observerWidget struct {
	peer      Weak[observerWidget]
	lockEmpty bool
	expired   bool
}

func (o *observerWidget) Drop() {
	s := o.peer.Lock()
	o.lockEmpty = s.IsEmpty()
	o.expired = o.peer.Expired()
	s.Release()
	o.peer.Release()
}

func TestDrop_SeesExpiredBlock(t *testing.T) {
	rec := watch(t)

	obj := &observerWidget{}
	s := Adopt(obj)
	obj.peer = NewWeak(s)

	s.Release()
	if !obj.lockEmpty || !obj.expired {
		t.Fatal("object must count as expired while its destructor runs")
	}
	// the weak handle released from Drop was the last one, but the block
	// must be freed exactly once, after Drop returned
	if n := rec.count(any(obj), EventReleased); n != 1 {
		t.Fatalf("expected one release, got %d", n)
	}
	if n := rec.count(any(obj), EventDestroyed); n != 1 {
		t.Fatalf("expected one destroy, got %d", n)
	}
}
