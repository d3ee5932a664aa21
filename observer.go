package sharedptr

import (
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// EventType identifies a control block lifecycle step.
type EventType uint8

const (
	// EventCreated is sent once a block takes ownership of a new object.
	EventCreated EventType = iota
	// EventDestroyed is sent after the object's destructor ran.
	EventDestroyed
	// EventReleased is sent right before the block's storage is released.
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventDestroyed:
		return "destroyed"
	case EventReleased:
		return "released"
	}
	return fmt.Sprintf("EventType(%d)", uint8(t))
}

// Event describes one lifecycle step of a managed object.
type Event struct {
	// Object is the managed *T as it was created, not a converted view.
	Object   any
	Type     EventType
	Strategy Strategy
	Strong   int
	Weak     int
}

// Observer receives lifecycle events. Observers run synchronously on the
// goroutine that triggered the event and must not block.
type Observer interface {
	OnLifecycleEvent(Event)
}

var registry struct {
	observers []Observer
	mu        sync.RWMutex
}

// Subscribe adds an observer for lifecycle events of every control block.
func Subscribe(o Observer) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.observers = append(registry.observers, o)
}

// Unsubscribe removes an observer added with Subscribe.
func Unsubscribe(o Observer) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	for i, obs := range registry.observers {
		if obs == o {
			// emit iterates snapshots, so never shift in place
			registry.observers = slices.Delete(slices.Clone(registry.observers), i, i+1)
			return
		}
	}
}

func (h *header) emit(t EventType) {
	if ce := Logger().Check(zap.DebugLevel, "control block "+t.String()); ce != nil {
		ce.Write(
			zap.String("type", fmt.Sprintf("%T", h.object)),
			zap.Stringer("strategy", h.strategy),
			zap.Int("strong", h.strong),
			zap.Int("weak", h.weak),
		)
	}

	registry.mu.RLock()
	observers := registry.observers
	registry.mu.RUnlock()
	if len(observers) == 0 {
		return
	}

	e := Event{
		Object:   h.object,
		Type:     t,
		Strategy: h.strategy,
		Strong:   h.strong,
		Weak:     h.weak,
	}
	for _, o := range observers {
		o.OnLifecycleEvent(e)
	}
}
