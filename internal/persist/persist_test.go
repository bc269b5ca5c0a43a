package persist_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/l1jgo/worldsim/internal/config"
	"github.com/l1jgo/worldsim/internal/persist"
)

func openTestDB(t *testing.T) *persist.DB {
	t.Helper()
	ctx := context.Background()
	db, err := persist.NewDB(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		DSN:    filepath.Join(t.TempDir(), "worldsim.db"),
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, persist.RunMigrations(ctx, db))
	return db
}

func startRun(t *testing.T, db *persist.DB) string {
	t.Helper()
	id := uuid.NewString()
	require.NoError(t, persist.NewJournalRepo(db).StartRun(context.Background(), persist.RunInfo{
		ID:        id,
		Server:    "test",
		TickRate:  100 * time.Millisecond,
		StartedAt: time.Now(),
	}))
	return id
}

func TestSnapshotRoundTrip(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	assert.Equal(t, persist.DialectSQLite, db.Dialect())
	run := startRun(t, db)
	repo := persist.NewSnapshotRepo(db)

	_, err := repo.LoadLatest(ctx, run)
	assert.ErrorIs(t, err, persist.ErrNoSnapshot)

	taken := time.UnixMilli(1_700_000_000_123).UTC()
	first := &persist.Snapshot{RunID: run, Tick: 10, TakenAt: taken, Entities: []persist.EntityRow{
		{Seq: 0, Name: "guard", Kind: "character", X: 1.5, Y: -2, Direction: "south", Pending: 1, Running: 1},
		{Seq: 1, Name: "bell", Kind: "scenery", Paused: true, Animation: "swing"},
	}}
	id, err := repo.Save(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, id, first.ID)

	_, err = repo.Save(ctx, &persist.Snapshot{RunID: run, Tick: 20, TakenAt: taken})
	require.NoError(t, err)

	latest, err := repo.LoadLatest(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, uint64(20), latest.Tick)
	assert.Empty(t, latest.Entities)

	cp := *first
	_, err = repo.Save(ctx, &cp)
	require.NoError(t, err)
	got, err := repo.LoadLatest(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, uint64(10), got.Tick)
	assert.Equal(t, first.Entities, got.Entities)
	assert.Equal(t, taken, got.TakenAt)
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	run := startRun(t, db)
	other := startRun(t, db)
	repo := persist.NewJournalRepo(db)

	at := time.UnixMilli(1_700_000_000_000).UTC()
	require.NoError(t, repo.AppendOutcomes(ctx, []persist.OutcomeRow{
		{RunID: run, Tick: 1, Entity: "guard", Task: "move", Outcome: "completed", FinishedAt: at},
		{RunID: run, Tick: 2, Entity: "bell", Task: "play_audio", Outcome: "failed", Err: "unknown clip", FinishedAt: at},
		{RunID: other, Tick: 1, Entity: "x", Task: "idle", Outcome: "cancelled", FinishedAt: at},
	}))
	require.NoError(t, repo.AppendOutcomes(ctx, nil))

	outcomes, err := repo.Outcomes(ctx, run)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)
	assert.Equal(t, "unknown clip", outcomes[1].Err)
	assert.Equal(t, at, outcomes[0].FinishedAt)

	sum := []byte{0xde, 0xad, 0xbe, 0xef}
	require.NoError(t, repo.AppendDigest(ctx, run, persist.DigestRow{Tick: 10, Digest: sum, Entities: 3}))
	assert.Error(t, repo.AppendDigest(ctx, run, persist.DigestRow{Tick: 10, Digest: sum}), "one digest per tick")

	digests, err := repo.Digests(ctx, run)
	require.NoError(t, err)
	assert.Equal(t, []persist.DigestRow{{Tick: 10, Digest: sum, Entities: 3}}, digests)
}

func TestJournalRejectsUnknownRun(t *testing.T) {
	db := openTestDB(t)
	err := persist.NewJournalRepo(db).AppendDigest(context.Background(), uuid.NewString(), persist.DigestRow{Tick: 1})
	assert.Error(t, err, "foreign key on runs")
}

func TestUnsupportedDriver(t *testing.T) {
	_, err := persist.NewDB(context.Background(), config.DatabaseConfig{Driver: "mysql"}, zap.NewNop())
	assert.Error(t, err)
}
