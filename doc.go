// Package sharedptr provides reference-counted shared ownership of Go values.
//
// A Shared[T] is a strong handle: the managed object stays alive while at
// least one strong handle exists, and its destructor runs exactly once when
// the last one is released. A Weak[T] observes the object without keeping it
// alive and can be upgraded with Lock while the object still has an owner.
//
// Ownership here is explicit, not garbage collected. Handles are plain values
// that are cloned, moved and released by hand:
//
//	s, err := sharedptr.MakeOwned(func(c *Conn) error {
//	    return c.dial(addr)
//	})
//	if err != nil {
//	    return err
//	}
//	defer s.Release()
//
//	other := s.Clone() // UseCount() == 2
//	w := sharedptr.NewWeak(s)
//	other.Release()    // UseCount() == 1
//
//	if p := w.Lock(); !p.IsEmpty() {
//	    defer p.Release()
//	    p.Get().Send(msg)
//	}
//	w.Release()
//
// Copying a handle by assignment aliases it without counting and leads to
// double releases. Use Clone, Move, Assign and MoveAssign instead.
//
// # Destructors
//
// If *T implements Dropper, Drop runs when the strong count goes from 1 to 0.
// While Drop runs the object already counts as expired: Lock and
// SharedFromSelf fail, and the control block cannot be freed from inside Drop.
//
// # Control Blocks
//
// Every managed object has exactly one control block holding the strong and
// weak counts. It is released once both counts are zero, from whichever side
// reaches zero last. Two allocation strategies exist:
//
//	StrategySeparate  Adopt(p): p was allocated by the caller, the block separately
//	StrategyInplace   MakeOwned/AllocateOwned/New: object and block in one allocation
//
// AllocateOwned additionally reserves the combined block's size from an
// alloc.Allocator (pool, arena, WebAssembly linear memory) and frees the
// reservation through the same allocator when the block is released. If the
// initializer fails or panics, the reservation is returned before the error
// reaches the caller.
//
// # Conversions
//
// Go has no implicit derived-to-base conversion, so covariant handles take an
// explicit projection that is checked at compile time:
//
//	base := sharedptr.Convert(derived, func(d *Derived) *Base { return &d.Base })
//
// Both handles share one control block; Drop still runs on the *Derived.
//
// # Self References
//
// Types embedding EnableSharedFromSelf[T] can call SharedFromSelf to obtain a
// new strong handle to themselves. It returns an error matching
// errors.ErrNoOwner when no Shared owns the object.
//
// # Observability
//
// Lifecycle events (created, destroyed, released) are logged at debug level
// through the zap logger set with SetLogger and delivered to observers added
// with Subscribe.
//
// # Thread Safety
//
// Counts are plain integers. Handles sharing a control block must only be
// used from one goroutine at a time; synchronizing access is the caller's job.
// The observer registry and the allocators in package alloc are safe for
// concurrent use.
package sharedptr
