package system

import (
	"time"

	coresys "github.com/l1jgo/worldsim/internal/core/system"
	"github.com/l1jgo/worldsim/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem applies removals deferred during the tick. Phase 4 (Cleanup).
type CleanupSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewCleanupSystem(ws *world.State, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: ws, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if n := s.world.FlushRemovals(); n > 0 {
		s.log.Debug("entities removed", zap.Int("count", n), zap.Uint64("tick", s.world.TickCount()))
	}
}
