package system

import (
	"time"

	coresys "github.com/l1jgo/worldsim/internal/core/system"
	"github.com/l1jgo/worldsim/internal/world"
	"go.uber.org/zap"
)

// WorldTickSystem advances every entity by one step. Phase 1 (Update).
type WorldTickSystem struct {
	world    *world.State
	log      *zap.Logger
	failures int
}

func NewWorldTickSystem(ws *world.State, log *zap.Logger) *WorldTickSystem {
	return &WorldTickSystem{world: ws, log: log}
}

func (s *WorldTickSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *WorldTickSystem) Update(dt time.Duration) {
	// Per-entity failures are already logged by the world.
	if err := s.world.Tick(dt); err != nil {
		s.failures++
		s.log.Debug("tick had failures", zap.Uint64("tick", s.world.TickCount()), zap.Error(err))
	}
}

// Failures returns how many ticks reported at least one entity failure.
func (s *WorldTickSystem) Failures() int { return s.failures }
