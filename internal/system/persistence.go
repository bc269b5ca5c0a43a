package system

import (
	"context"
	"time"

	coresys "github.com/l1jgo/worldsim/internal/core/system"
	"github.com/l1jgo/worldsim/internal/persist"
	"github.com/l1jgo/worldsim/internal/world"
	"go.uber.org/zap"
)

// SnapshotStore is the write side of persist.SnapshotRepo.
type SnapshotStore interface {
	Save(ctx context.Context, s *persist.Snapshot) (int64, error)
}

// PersistenceSystem periodically snapshots every entity's observable state.
// Phase 3 (Persist).
type PersistenceSystem struct {
	world     *world.State
	store     SnapshotStore
	runID     string
	log       *zap.Logger
	now       func() time.Time
	tickCount int
	interval  int // snapshot every N ticks
}

func NewPersistenceSystem(ws *world.State, store SnapshotStore, runID string, log *zap.Logger, intervalTicks int) *PersistenceSystem {
	return &PersistenceSystem{
		world:    ws,
		store:    store,
		runID:    runID,
		log:      log,
		now:      time.Now,
		interval: intervalTicks,
	}
}

func (s *PersistenceSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *PersistenceSystem) Update(_ time.Duration) {
	if s.interval <= 0 {
		return
	}
	s.tickCount++
	if s.tickCount < s.interval {
		return
	}
	s.tickCount = 0
	s.SaveNow()
}

// SaveNow writes a snapshot immediately. Called for graceful shutdown so the
// last state is never lost.
func (s *PersistenceSystem) SaveNow() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	snap := &persist.Snapshot{
		RunID:    s.runID,
		Tick:     s.world.TickCount(),
		TakenAt:  s.now(),
		Entities: SnapshotRows(s.world),
	}
	if _, err := s.store.Save(ctx, snap); err != nil {
		s.log.Error("snapshot failed", zap.Uint64("tick", snap.Tick), zap.Error(err))
		return
	}
	s.log.Debug("snapshot saved",
		zap.Int64("id", snap.ID),
		zap.Uint64("tick", snap.Tick),
		zap.Int("entities", len(snap.Entities)),
	)
}

// SnapshotRows captures ws in tick order.
func SnapshotRows(ws *world.State) []persist.EntityRow {
	rows := make([]persist.EntityRow, 0, ws.Count())
	ws.Each(func(e *world.Entity) bool {
		loc := e.Location()
		rows = append(rows, persist.EntityRow{
			Seq:       len(rows),
			Name:      e.Name(),
			Kind:      e.Kind().String(),
			X:         loc.X,
			Y:         loc.Y,
			Direction: e.Direction().String(),
			Paused:    e.IsPaused(),
			Animation: e.Animation().Name,
			Pending:   len(e.Pending()),
			Running:   len(e.Running()),
		})
		return true
	})
	return rows
}
