package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lthms/regroup/internal/regroup"
	"github.com/lthms/regroup/internal/scene"
)

// Pass is a recorded reconciliation pass.
type Pass struct {
	ID        string
	Scene     string
	StartedAt string
	Duration  time.Duration
	Bricks    int
	Result    regroup.Result
	Skipped   int // bricks left in place; Result.Skipped is not stored
}

// RecordPass stores the outcome of a pass over the named scene, along with
// its journal when one was kept. It returns the new pass ID. The scene must
// have been saved first.
func (s *Store) RecordPass(ctx context.Context, name string, started time.Time, bricks int, res regroup.Result, journal []scene.Entry) (string, error) {
	id := uuid.NewString()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO passes (id, scene, started_at, duration_ms, bricks, guarded, clusters,
		   merged, split, adopted, confirmed, synthesized,
		   reparented, groups_created, models_created, lifted, destroyed, skipped)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, name, started.UTC().Format(timeFormat), time.Since(started).Milliseconds(), bricks,
		boolInt(res.Guarded), res.Clusters,
		res.Merged, res.Split, res.Adopted, res.Confirmed, res.Synthesized,
		res.Reparented, res.GroupsCreated, res.ModelsCreated, res.Lifted, res.Destroyed, len(res.Skipped),
	)
	if err != nil {
		return "", fmt.Errorf("record pass on %q: %w", name, err)
	}

	for i, e := range journal {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO pass_entries (pass_id, seq, op, node, detail) VALUES (?, ?, ?, ?, ?)`,
			id, i, e.Op.String(), e.Key, e.String(),
		)
		if err != nil {
			return "", fmt.Errorf("record journal entry %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// ListPasses returns the passes recorded for a scene, most recent first.
// A limit of zero or less returns them all.
func (s *Store) ListPasses(ctx context.Context, name string, limit int) ([]Pass, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, scene, started_at, duration_ms, bricks, guarded, clusters,
		   merged, split, adopted, confirmed, synthesized,
		   reparented, groups_created, models_created, lifted, destroyed, skipped
		 FROM passes WHERE scene = ?
		 ORDER BY started_at DESC, rowid DESC
		 LIMIT ?`, name, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Pass
	for rows.Next() {
		var p Pass
		var ms int64
		var guarded int
		r := &p.Result
		if err := rows.Scan(&p.ID, &p.Scene, &p.StartedAt, &ms, &p.Bricks, &guarded, &r.Clusters,
			&r.Merged, &r.Split, &r.Adopted, &r.Confirmed, &r.Synthesized,
			&r.Reparented, &r.GroupsCreated, &r.ModelsCreated, &r.Lifted, &r.Destroyed, &p.Skipped); err != nil {
			return nil, err
		}
		p.Duration = time.Duration(ms) * time.Millisecond
		r.Guarded = guarded != 0
		out = append(out, p)
	}
	return out, rows.Err()
}

// PassEntries returns the journal recorded for a pass.
func (s *Store) PassEntries(ctx context.Context, id string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT detail FROM pass_entries WHERE pass_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

