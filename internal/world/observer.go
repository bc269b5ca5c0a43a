package world

import "slices"

// Observer receives entity lifecycle notifications. All notifications are
// delivered synchronously on the tick goroutine.
type Observer interface {
	EnteredWorld(e *Entity)
	LeftWorld(e *Entity)
	Replaced(e *Entity, from Vec2)
}

// PresentationObserver is optionally implemented by observers that render or
// mirror an entity.
type PresentationObserver interface {
	MovingTowards(e *Entity, target *Vec2) // nil when movement stops
	Faced(e *Entity, from Direction)
	AnimationChanged(e *Entity, anim Animation)
}

// TaskFailureObserver is optionally implemented by observers that want to
// hear about tasks whose Cycle failed.
type TaskFailureObserver interface {
	TaskFailed(e *Entity, t Task, err error)
}

// NopObserver implements Observer with no-ops, for embedding.
type NopObserver struct{}

func (NopObserver) EnteredWorld(*Entity)    {}
func (NopObserver) LeftWorld(*Entity)       {}
func (NopObserver) Replaced(*Entity, Vec2) {}

// observerSet is copy-on-write: add and remove build a new slice, so a
// notification keeps iterating the slice it started with even if an observer
// registers or unregisters observers from inside the callback.
type observerSet struct {
	list []Observer
}

func (s *observerSet) add(o Observer) {
	if slices.Contains(s.list, o) {
		return
	}
	next := make([]Observer, len(s.list), len(s.list)+1)
	copy(next, s.list)
	s.list = append(next, o)
}

func (s *observerSet) remove(o Observer) {
	i := slices.Index(s.list, o)
	if i < 0 {
		return
	}
	next := make([]Observer, 0, len(s.list)-1)
	next = append(next, s.list[:i]...)
	s.list = append(next, s.list[i+1:]...)
}

func (s *observerSet) each(fn func(Observer)) {
	for _, o := range s.list {
		fn(o)
	}
}

func (s *observerSet) presentation(fn func(PresentationObserver)) {
	for _, o := range s.list {
		if p, ok := o.(PresentationObserver); ok {
			fn(p)
		}
	}
}
