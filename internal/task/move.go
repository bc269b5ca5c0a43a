// Package task holds the concrete task variants entities run: movement along
// a route, idling, audio playback, deferred invocations and one-shot actions.
package task

import (
	"time"

	"github.com/l1jgo/worldsim/internal/world"
)

// Move walks its entity along a route at the entity's speed. Distance left
// over after reaching a waypoint carries into the next one within the same
// cycle. Move is exclusive and stops while the entity is paused; the route
// position is kept, so resuming continues where it stopped.
type Move struct {
	world.TaskBase
	route *Route
}

// NewMove takes ownership of route.
func NewMove(route *Route) *Move {
	return &Move{TaskBase: world.NewTaskBase(false, false), route: route}
}

// MoveTo is a single-waypoint Move.
func MoveTo(dest world.Vec2) *Move { return NewMove(NewRoute(dest)) }

func (m *Move) Kind() string { return "move" }

// Route exposes the remaining route.
func (m *Move) Route() *Route { return m.route }

func (m *Move) Begin(e *world.Entity) {
	if target, ok := m.route.CurrentTarget(); ok {
		e.NotifyMovingTowards(&target)
	}
}

func (m *Move) Cycle(e *world.Entity, dt time.Duration) (bool, error) {
	budget := e.Speed() * float32(dt.Seconds())
	for {
		target, ok := m.route.CurrentTarget()
		if !ok {
			return true, nil
		}
		delta := target.Sub(e.Location())
		dist := delta.Len()
		if dist > 0 {
			e.SetDirection(world.DirectionOf(delta))
		}
		if dist > budget {
			if budget > 0 {
				e.Move(delta.Normalize().Scale(budget))
			}
			return false, nil
		}
		e.SetLocation(target)
		budget -= dist
		if !m.route.NextTarget() {
			return true, nil
		}
		next, _ := m.route.CurrentTarget()
		e.NotifyMovingTowards(&next)
	}
}

func (m *Move) End(e *world.Entity) {
	e.NotifyMovingTowards(nil)
}
