package sharedptr

import (
	"fmt"

	"github.com/wippyai/sharedptr/errors"
)

// EnableSharedFromSelf lets an object obtain strong handles to itself.
// Embed it by value in T, parameterized with T itself:
//
//	type Session struct {
//		sharedptr.EnableSharedFromSelf[Session]
//		id string
//	}
//
// The first Shared[T] that takes ownership of the object (Adopt, MakeOwned,
// AllocateOwned, New) installs a weak self reference. A copy of an owned
// value gets its own reference once it is owned. Embedding it under another
// type parameter is not detected.
type EnableSharedFromSelf[T any] struct {
	self Weak[T]
}

// selfBinder is the construction-time capability check.
type selfBinder[T any] interface {
	bindSelf(Shared[T])
}

// SharedFromSelf returns a new strong handle to the enclosing object. It
// fails with errors.ErrNoOwner if the object was never owned by a Shared or
// its last owner is gone.
func (e *EnableSharedFromSelf[T]) SharedFromSelf() (Shared[T], error) {
	if e.self.UseCount() == 0 {
		return Shared[T]{}, errors.NoOwner(fmt.Sprintf("%T", (*T)(nil)))
	}
	return e.self.Lock(), nil
}

// WeakFromSelf returns a weak handle to the enclosing object, empty if the
// object was never owned.
func (e *EnableSharedFromSelf[T]) WeakFromSelf() Weak[T] {
	return e.self.Clone()
}

// bindSelf installs the self reference unless one already observes this
// object. A reference observing another object was copied along with the
// value; it holds no count of its own and is overwritten, not released.
func (e *EnableSharedFromSelf[T]) bindSelf(s Shared[T]) {
	if e.self.ctrl != nil && e.self.ptr == s.ptr {
		return
	}
	e.self = NewWeak(s)
}

func (e *EnableSharedFromSelf[T]) releaseSelf() {
	e.self.Release()
}

func bindSelf[T any](s Shared[T]) {
	if b, ok := any(s.ptr).(selfBinder[T]); ok {
		b.bindSelf(s)
	}
}
