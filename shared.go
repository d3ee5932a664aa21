package sharedptr

// Shared is a strong handle to a managed object. The zero value is empty.
//
// Shared values must not be copied by assignment: use Clone to add an owner
// and Move to transfer one. Every non-empty handle must eventually be
// Released exactly once.
type Shared[T any] struct {
	ctrl controlBlock
	ptr  *T
}

// Adopt takes ownership of p, which must come from new(T) or &T{...} and
// must not be owned by another block. Adopt(nil) returns an empty handle.
func Adopt[T any](p *T) Shared[T] {
	if p == nil {
		return Shared[T]{}
	}
	b := newSeparateBlock(p)
	s := Shared[T]{ctrl: b, ptr: p}
	b.emit(EventCreated)
	bindSelf(s)
	return s
}

// Convert returns a new owner viewing the object through view, typically a
// projection to an embedded field such as func(d *Derived) *Base { return &d.Base }.
// The block is shared; its destructor still runs against the original object.
func Convert[B, D any](s Shared[D], view func(*D) *B) Shared[B] {
	if s.ctrl == nil {
		return Shared[B]{}
	}
	s.ctrl.counts().strong++
	return Shared[B]{ctrl: s.ctrl, ptr: view(s.ptr)}
}

// ConvertMove is Convert that takes over s's reference. s becomes empty.
func ConvertMove[B, D any](s *Shared[D], view func(*D) *B) Shared[B] {
	c, p := s.ctrl, s.ptr
	s.ctrl, s.ptr = nil, nil
	if c == nil {
		return Shared[B]{}
	}
	return Shared[B]{ctrl: c, ptr: view(p)}
}

// Clone returns a new owner of the same object.
func (s Shared[T]) Clone() Shared[T] {
	if s.ctrl != nil {
		s.ctrl.counts().strong++
	}
	return s
}

// Move transfers s's reference to the returned handle and empties s.
func (s *Shared[T]) Move() Shared[T] {
	out := *s
	s.ctrl, s.ptr = nil, nil
	return out
}

// Assign makes s an owner of other's object and releases what s held before.
func (s *Shared[T]) Assign(other Shared[T]) {
	tmp := other.Clone()
	s.Swap(&tmp)
	tmp.Release()
}

// MoveAssign moves other into s and releases what s held before.
func (s *Shared[T]) MoveAssign(other *Shared[T]) {
	tmp := other.Move()
	s.Swap(&tmp)
	tmp.Release()
}

// Release drops s's reference and empties s. Releasing the last strong
// reference destroys the object. Releasing an empty handle does nothing.
func (s *Shared[T]) Release() {
	c := s.ctrl
	if c == nil {
		return
	}
	s.ctrl, s.ptr = nil, nil
	releaseStrong(c)
}

// Reset is Release.
func (s *Shared[T]) Reset() {
	s.Release()
}

// ResetTo releases s's reference and adopts p.
func (s *Shared[T]) ResetTo(p *T) {
	tmp := Adopt(p)
	s.Swap(&tmp)
	tmp.Release()
}

// Swap exchanges the references held by s and other.
func (s *Shared[T]) Swap(other *Shared[T]) {
	*s, *other = *other, *s
}

// UseCount returns the number of strong handles sharing the object.
// s must not be empty.
func (s Shared[T]) UseCount() int {
	return s.ctrl.counts().strong
}

// Get returns the object, or nil for an empty handle.
func (s Shared[T]) Get() *T {
	return s.ptr
}

// IsEmpty reports whether s holds no reference.
func (s Shared[T]) IsEmpty() bool {
	return s.ctrl == nil
}

// Strategy returns how the object was allocated. s must not be empty.
func (s Shared[T]) Strategy() Strategy {
	return s.ctrl.counts().strategy
}
