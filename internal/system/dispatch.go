package system

import (
	"time"

	"github.com/l1jgo/worldsim/internal/core/event"
	coresys "github.com/l1jgo/worldsim/internal/core/system"
)

// EventDispatchSystem delivers the events emitted during the previous tick.
// Phase 0 (PreUpdate).
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// Drain delivers events still waiting from the last tick. Called on shutdown
// before the final journal flush.
func (s *EventDispatchSystem) Drain() int {
	s.bus.SwapBuffers()
	return s.bus.DispatchAll()
}
