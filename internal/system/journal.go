package system

import (
	"context"
	"time"

	"github.com/l1jgo/worldsim/internal/core/event"
	coresys "github.com/l1jgo/worldsim/internal/core/system"
	"github.com/l1jgo/worldsim/internal/persist"
	"go.uber.org/zap"
)

// JournalStore is the append side of persist.JournalRepo.
type JournalStore interface {
	AppendOutcomes(ctx context.Context, outcomes []persist.OutcomeRow) error
	AppendDigest(ctx context.Context, runID string, d persist.DigestRow) error
}

// JournalSystem records task outcomes and periodic state digests for one run.
// Outcomes arrive through the bus and are written in batches; a digest is
// appended every digestInterval ticks. Phase 3 (Persist).
type JournalSystem struct {
	store          JournalStore
	digest         *DigestSystem
	runID          string
	log            *zap.Logger
	buf            []persist.OutcomeRow
	batch          int
	digestInterval int
	tickCount      int
}

func NewJournalSystem(bus *event.Bus, store JournalStore, digest *DigestSystem, runID string, log *zap.Logger, batch, digestInterval int) *JournalSystem {
	if batch < 1 {
		batch = 1
	}
	s := &JournalSystem{
		store:          store,
		digest:         digest,
		runID:          runID,
		log:            log,
		buf:            make([]persist.OutcomeRow, 0, batch),
		batch:          batch,
		digestInterval: digestInterval,
	}
	event.Subscribe(bus, s.onTaskFinished)
	return s
}

func (s *JournalSystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *JournalSystem) onTaskFinished(ev event.TaskFinished) {
	s.buf = append(s.buf, persist.OutcomeRow{
		RunID:      s.runID,
		Tick:       ev.Tick,
		Entity:     ev.Entity,
		Task:       ev.Task,
		Outcome:    string(ev.Outcome),
		Err:        ev.Err,
		FinishedAt: ev.At,
	})
}

func (s *JournalSystem) Update(_ time.Duration) {
	if len(s.buf) >= s.batch {
		s.flushOutcomes()
	}
	if s.digestInterval <= 0 || s.digest == nil {
		return
	}
	s.tickCount++
	if s.tickCount < s.digestInterval {
		return
	}
	s.tickCount = 0
	s.flushOutcomes()
	s.appendDigest()
}

// Flush writes every buffered outcome. Called on shutdown.
func (s *JournalSystem) Flush() {
	s.flushOutcomes()
}

// Buffered returns the number of outcomes not yet written.
func (s *JournalSystem) Buffered() int { return len(s.buf) }

func (s *JournalSystem) flushOutcomes() {
	if len(s.buf) == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.store.AppendOutcomes(ctx, s.buf); err != nil {
		// Keep the batch; the next flush retries it.
		s.log.Error("journal outcomes", zap.Int("count", len(s.buf)), zap.Error(err))
		return
	}
	s.buf = s.buf[:0]
}

func (s *JournalSystem) appendDigest() {
	sum, tick, entities := s.digest.Last()
	if sum == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	row := persist.DigestRow{Tick: tick, Digest: append([]byte(nil), sum...), Entities: entities}
	if err := s.store.AppendDigest(ctx, s.runID, row); err != nil {
		s.log.Error("journal digest", zap.Uint64("tick", tick), zap.Error(err))
	}
}
