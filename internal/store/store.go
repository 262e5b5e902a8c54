// Package store persists scenes and the history of reconciliation passes
// in a SQLite database.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/lthms/regroup/internal/scene"
)

// ErrSceneNotFound is returned when no scene is saved under a name.
var ErrSceneNotFound = errors.New("scene not found")

const timeFormat = "2006-01-02T15:04:05Z"

// Config holds the settings for opening a Store.
type Config struct {
	DBPath string
}

// Store is a SQLite-backed scene store.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at cfg.DBPath and migrates it.
func Open(cfg Config) (*Store, error) {
	if cfg.DBPath == "" {
		return nil, fmt.Errorf("store: empty database path")
	}
	dsn := cfg.DBPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// SceneInfo describes a saved scene.
type SceneInfo struct {
	Name      string
	Nodes     int
	Bricks    int
	UpdatedAt string
}

// SaveScene stores sc under name, replacing any previous version.
func (s *Store) SaveScene(ctx context.Context, name string, sc *scene.Scene) error {
	if name == "" {
		return fmt.Errorf("store: empty scene name")
	}
	doc, err := sc.Marshal()
	if err != nil {
		return fmt.Errorf("encode scene %q: %w", name, err)
	}
	now := time.Now().UTC().Format(timeFormat)
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO scenes (name, document, nodes, bricks, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   document = excluded.document,
		   nodes = excluded.nodes,
		   bricks = excluded.bricks,
		   updated_at = excluded.updated_at`,
		name, string(doc), sc.Len(), len(sc.Nodes(scene.KindBrick)), now, now,
	)
	if err != nil {
		return fmt.Errorf("save scene %q: %w", name, err)
	}
	return nil
}

// LoadScene returns the scene saved under name.
func (s *Store) LoadScene(ctx context.Context, name string) (*scene.Scene, error) {
	var doc string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM scenes WHERE name = ?`, name).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %q", ErrSceneNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("load scene %q: %w", name, err)
	}
	sc, err := scene.Parse([]byte(doc))
	if err != nil {
		return nil, fmt.Errorf("decode scene %q: %w", name, err)
	}
	return sc, nil
}

// ListScenes returns every saved scene, by name.
func (s *Store) ListScenes(ctx context.Context) ([]SceneInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, nodes, bricks, updated_at FROM scenes ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SceneInfo
	for rows.Next() {
		var si SceneInfo
		if err := rows.Scan(&si.Name, &si.Nodes, &si.Bricks, &si.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, si)
	}
	return out, rows.Err()
}

// DeleteScene removes a scene and its pass history.
func (s *Store) DeleteScene(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scenes WHERE name = ?`, name)
	if err != nil {
		return fmt.Errorf("delete scene %q: %w", name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %q", ErrSceneNotFound, name)
	}
	return nil
}

// truncate shortens s to at most n bytes for log and error messages.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
