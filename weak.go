package sharedptr

// Weak observes a managed object without keeping it alive. The zero value is
// empty. Like Shared, Weak values are cloned and moved explicitly and must be
// Released.
type Weak[T any] struct {
	ctrl controlBlock
	ptr  *T
}

// NewWeak returns a weak handle observing s's object. An empty s gives an
// empty handle.
func NewWeak[T any](s Shared[T]) Weak[T] {
	if s.ctrl == nil {
		return Weak[T]{}
	}
	s.ctrl.counts().weak++
	return Weak[T]{ctrl: s.ctrl, ptr: s.ptr}
}

// ConvertWeak returns a new weak handle viewing the object through view.
// view only projects the pointer and must not read the object, which may
// already be destroyed.
func ConvertWeak[B, D any](w Weak[D], view func(*D) *B) Weak[B] {
	if w.ctrl == nil {
		return Weak[B]{}
	}
	w.ctrl.counts().weak++
	return Weak[B]{ctrl: w.ctrl, ptr: view(w.ptr)}
}

// ConvertWeakMove is ConvertWeak that takes over w's reference. w becomes empty.
func ConvertWeakMove[B, D any](w *Weak[D], view func(*D) *B) Weak[B] {
	c, p := w.ctrl, w.ptr
	w.ctrl, w.ptr = nil, nil
	if c == nil {
		return Weak[B]{}
	}
	return Weak[B]{ctrl: c, ptr: view(p)}
}

// Clone returns another weak handle to the same object.
func (w Weak[T]) Clone() Weak[T] {
	if w.ctrl != nil {
		w.ctrl.counts().weak++
	}
	return w
}

// Move transfers w's reference to the returned handle and empties w.
func (w *Weak[T]) Move() Weak[T] {
	out := *w
	w.ctrl, w.ptr = nil, nil
	return out
}

// Assign makes w observe other's object and releases what w held before.
func (w *Weak[T]) Assign(other Weak[T]) {
	tmp := other.Clone()
	w.Swap(&tmp)
	tmp.Release()
}

// AssignShared makes w observe s's object and releases what w held before.
func (w *Weak[T]) AssignShared(s Shared[T]) {
	tmp := NewWeak(s)
	w.Swap(&tmp)
	tmp.Release()
}

// MoveAssign moves other into w and releases what w held before.
func (w *Weak[T]) MoveAssign(other *Weak[T]) {
	tmp := other.Move()
	w.Swap(&tmp)
	tmp.Release()
}

// Release drops w's reference and empties w. When it was the last weak
// reference to an expired object, the block's storage is released.
func (w *Weak[T]) Release() {
	c := w.ctrl
	if c == nil {
		return
	}
	w.ctrl, w.ptr = nil, nil
	releaseWeak(c)
}

// Reset is Release.
func (w *Weak[T]) Reset() {
	w.Release()
}

// Swap exchanges the references held by w and other.
func (w *Weak[T]) Swap(other *Weak[T]) {
	*w, *other = *other, *w
}

// Expired reports whether the object has no strong handle left. An empty
// handle is expired.
func (w Weak[T]) Expired() bool {
	return w.UseCount() == 0
}

// UseCount returns the number of strong handles to the object, 0 when empty.
func (w Weak[T]) UseCount() int {
	if w.ctrl == nil {
		return 0
	}
	return w.ctrl.counts().strong
}

// Lock returns a new strong handle to the object, or an empty handle if the
// object is already gone.
func (w Weak[T]) Lock() Shared[T] {
	if w.Expired() {
		return Shared[T]{}
	}
	w.ctrl.counts().strong++
	return Shared[T]{ctrl: w.ctrl, ptr: w.ptr}
}
