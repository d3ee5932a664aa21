package sharedptr

import (
	"testing"
)

type widget struct {
	drops *int
	id    int
}

func (w *widget) Drop() {
	*w.drops++
}

func newWidget(id int, drops *int) *widget {
	return &widget{id: id, drops: drops}
}

type recorder struct {
	events []Event
}

func (r *recorder) OnLifecycleEvent(e Event) {
	r.events = append(r.events, e)
}

// count returns how many events of type t were seen for object.
func (r *recorder) count(object any, t EventType) int {
	n := 0
	for _, e := range r.events {
		if e.Object == object && e.Type == t {
			n++
		}
	}
	return n
}

func watch(t *testing.T) *recorder {
	t.Helper()
	r := &recorder{}
	Subscribe(r)
	t.Cleanup(func() { Unsubscribe(r) })
	return r
}

func weakCount[T any](s Shared[T]) int {
	return s.ctrl.counts().weak
}
