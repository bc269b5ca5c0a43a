package task

import (
	"time"

	"github.com/l1jgo/worldsim/internal/world"
)

// OneShot runs fn on its first cycle and completes.
type OneShot struct {
	world.TaskBase
	kind string
	fn   func(e *world.Entity) error
}

func NewOneShot(kind string, fn func(e *world.Entity) error) *OneShot {
	return &OneShot{TaskBase: world.NewTaskBase(false, false), kind: kind, fn: fn}
}

func (t *OneShot) Kind() string { return t.kind }

func (t *OneShot) Begin(*world.Entity) {}

func (t *OneShot) Cycle(e *world.Entity, _ time.Duration) (bool, error) {
	return true, t.fn(e)
}

func (t *OneShot) End(*world.Entity) {}

// Leave removes its entity from the world once the work queued before it
// has finished. The removal takes effect in the world's cleanup phase.
func Leave() *OneShot {
	return NewOneShot("leave", func(e *world.Entity) error {
		return e.World().Remove(e)
	})
}
