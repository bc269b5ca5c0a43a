package task

import (
	"time"

	"github.com/l1jgo/worldsim/internal/world"
)

// Idle occupies the entity for a fixed amount of simulated time. Paused
// ticks do not count.
type Idle struct {
	world.TaskBase
	remaining time.Duration
}

func NewIdle(d time.Duration) *Idle {
	return &Idle{TaskBase: world.NewTaskBase(false, false), remaining: d}
}

func (t *Idle) Kind() string { return "idle" }

func (t *Idle) Remaining() time.Duration { return t.remaining }

func (t *Idle) Begin(*world.Entity) {}

func (t *Idle) Cycle(_ *world.Entity, dt time.Duration) (bool, error) {
	t.remaining -= dt
	return t.remaining <= 0, nil
}

func (t *Idle) End(*world.Entity) {}
