package persist

import (
	"context"
	"encoding/hex"
	"fmt"
	"time"
)

// RunInfo identifies one process run; every journal row refers to it.
type RunInfo struct {
	ID        string
	Server    string
	TickRate  time.Duration
	StartedAt time.Time
}

// OutcomeRow records how one task ended.
type OutcomeRow struct {
	RunID      string
	Tick       uint64
	Entity     string
	Task       string
	Outcome    string
	Err        string
	FinishedAt time.Time
}

// DigestRow is a state digest taken at the end of a tick.
type DigestRow struct {
	Tick     uint64
	Digest   []byte
	Entities int
}

// JournalRepo is the append-only record of a run.
type JournalRepo struct {
	db *DB
}

func NewJournalRepo(db *DB) *JournalRepo {
	return &JournalRepo{db: db}
}

func (r *JournalRepo) StartRun(ctx context.Context, run RunInfo) error {
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`INSERT INTO runs (run_id, server_name, tick_rate_ms, started_at) VALUES ($1, $2, $3, $4)`),
		run.ID, run.Server, run.TickRate.Milliseconds(), run.StartedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("start run: %w", err)
	}
	return nil
}

// AppendOutcomes writes a batch of outcomes in a single transaction.
func (r *JournalRepo) AppendOutcomes(ctx context.Context, outcomes []OutcomeRow) error {
	if len(outcomes) == 0 {
		return nil
	}
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("journal begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, r.db.rebind(
		`INSERT INTO task_outcomes (run_id, tick, entity, task, outcome, error, finished_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`))
	if err != nil {
		return fmt.Errorf("journal prepare: %w", err)
	}
	defer stmt.Close()

	for _, o := range outcomes {
		if _, err := stmt.ExecContext(ctx,
			o.RunID, int64(o.Tick), o.Entity, o.Task, o.Outcome, o.Err, o.FinishedAt.UnixMilli(),
		); err != nil {
			return fmt.Errorf("journal insert: %w", err)
		}
	}
	return tx.Commit()
}

func (r *JournalRepo) AppendDigest(ctx context.Context, runID string, d DigestRow) error {
	_, err := r.db.SQL.ExecContext(ctx, r.db.rebind(
		`INSERT INTO tick_digests (run_id, tick, digest, entities) VALUES ($1, $2, $3, $4)`),
		runID, int64(d.Tick), hex.EncodeToString(d.Digest), d.Entities,
	)
	if err != nil {
		return fmt.Errorf("append digest: %w", err)
	}
	return nil
}

// Outcomes returns a run's outcomes in the order they were journaled.
func (r *JournalRepo) Outcomes(ctx context.Context, runID string) ([]OutcomeRow, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(
		`SELECT tick, entity, task, outcome, error, finished_at
		 FROM task_outcomes WHERE run_id = $1 ORDER BY id`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []OutcomeRow
	for rows.Next() {
		o := OutcomeRow{RunID: runID}
		var tick, finished int64
		if err := rows.Scan(&tick, &o.Entity, &o.Task, &o.Outcome, &o.Err, &finished); err != nil {
			return nil, err
		}
		o.Tick = uint64(tick)
		o.FinishedAt = time.UnixMilli(finished).UTC()
		out = append(out, o)
	}
	return out, rows.Err()
}

// Digests returns a run's digests by tick, for comparing two runs.
func (r *JournalRepo) Digests(ctx context.Context, runID string) ([]DigestRow, error) {
	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(
		`SELECT tick, digest, entities FROM tick_digests WHERE run_id = $1 ORDER BY tick`), runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DigestRow
	for rows.Next() {
		var (
			d    DigestRow
			tick int64
			sum  string
		)
		if err := rows.Scan(&tick, &sum, &d.Entities); err != nil {
			return nil, err
		}
		if d.Digest, err = hex.DecodeString(sum); err != nil {
			return nil, fmt.Errorf("digest at tick %d: %w", tick, err)
		}
		d.Tick = uint64(tick)
		out = append(out, d)
	}
	return out, rows.Err()
}
