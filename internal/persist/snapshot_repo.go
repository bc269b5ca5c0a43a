package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNoSnapshot = errors.New("no snapshot")

// EntityRow is one entity as captured in a snapshot.
type EntityRow struct {
	Seq       int
	Name      string
	Kind      string
	X         float32
	Y         float32
	Direction string
	Paused    bool
	Animation string
	Pending   int
	Running   int
}

// Snapshot is the world's observable state at the end of one tick.
type Snapshot struct {
	ID       int64
	RunID    string
	Tick     uint64
	TakenAt  time.Time
	Entities []EntityRow
}

// SnapshotRepo stores periodic world snapshots.
type SnapshotRepo struct {
	db *DB
}

func NewSnapshotRepo(db *DB) *SnapshotRepo {
	return &SnapshotRepo{db: db}
}

// Save writes s and its entity rows in one transaction and returns the new
// snapshot id.
func (r *SnapshotRepo) Save(ctx context.Context, s *Snapshot) (int64, error) {
	tx, err := r.db.SQL.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("snapshot begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	if err := tx.QueryRowContext(ctx, r.db.rebind(
		`INSERT INTO snapshots (run_id, tick, taken_at) VALUES ($1, $2, $3) RETURNING id`),
		s.RunID, int64(s.Tick), s.TakenAt.UnixMilli(),
	).Scan(&id); err != nil {
		return 0, fmt.Errorf("snapshot insert: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, r.db.rebind(
		`INSERT INTO snapshot_entities
		   (snapshot_id, seq, name, kind, x, y, direction, paused, animation, pending, running)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`))
	if err != nil {
		return 0, fmt.Errorf("snapshot prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range s.Entities {
		if _, err := stmt.ExecContext(ctx,
			id, e.Seq, e.Name, e.Kind, e.X, e.Y, e.Direction, e.Paused, e.Animation, e.Pending, e.Running,
		); err != nil {
			return 0, fmt.Errorf("snapshot entity %s: %w", e.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("snapshot commit: %w", err)
	}
	s.ID = id
	return id, nil
}

// LoadLatest returns the newest snapshot of runID, or of any run when runID
// is empty.
func (r *SnapshotRepo) LoadLatest(ctx context.Context, runID string) (*Snapshot, error) {
	query := `SELECT id, run_id, tick, taken_at FROM snapshots`
	args := []any{}
	if runID != "" {
		query += ` WHERE run_id = $1`
		args = append(args, runID)
	}
	query += ` ORDER BY id DESC LIMIT 1`

	var (
		s       Snapshot
		tick    int64
		takenAt int64
	)
	err := r.db.SQL.QueryRowContext(ctx, r.db.rebind(query), args...).Scan(&s.ID, &s.RunID, &tick, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	s.Tick = uint64(tick)
	s.TakenAt = time.UnixMilli(takenAt).UTC()

	rows, err := r.db.SQL.QueryContext(ctx, r.db.rebind(
		`SELECT seq, name, kind, x, y, direction, paused, animation, pending, running
		 FROM snapshot_entities WHERE snapshot_id = $1 ORDER BY seq`), s.ID)
	if err != nil {
		return nil, fmt.Errorf("load snapshot entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var e EntityRow
		if err := rows.Scan(
			&e.Seq, &e.Name, &e.Kind, &e.X, &e.Y, &e.Direction, &e.Paused, &e.Animation, &e.Pending, &e.Running,
		); err != nil {
			return nil, err
		}
		s.Entities = append(s.Entities, e)
	}
	return &s, rows.Err()
}
