package store

import (
	"database/sql"
	"fmt"
)

func migrate(db *sql.DB) error {
	stmts := []string{
		// Latest version of each scene, as a YAML document
		`CREATE TABLE IF NOT EXISTS scenes (
			name       TEXT PRIMARY KEY,
			document   TEXT NOT NULL,
			nodes      INTEGER NOT NULL DEFAULT 0,
			bricks     INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL,
			updated_at TEXT NOT NULL
		)`,

		// One row per reconciliation pass
		`CREATE TABLE IF NOT EXISTS passes (
			id             TEXT PRIMARY KEY,
			scene          TEXT NOT NULL REFERENCES scenes(name) ON DELETE CASCADE,
			started_at     TEXT NOT NULL,
			duration_ms    INTEGER NOT NULL DEFAULT 0,
			bricks         INTEGER NOT NULL DEFAULT 0,
			guarded        INTEGER NOT NULL DEFAULT 0,
			clusters       INTEGER NOT NULL DEFAULT 0,
			merged         INTEGER NOT NULL DEFAULT 0,
			split          INTEGER NOT NULL DEFAULT 0,
			adopted        INTEGER NOT NULL DEFAULT 0,
			confirmed      INTEGER NOT NULL DEFAULT 0,
			synthesized    INTEGER NOT NULL DEFAULT 0,
			reparented     INTEGER NOT NULL DEFAULT 0,
			groups_created INTEGER NOT NULL DEFAULT 0,
			models_created INTEGER NOT NULL DEFAULT 0,
			lifted         INTEGER NOT NULL DEFAULT 0,
			destroyed      INTEGER NOT NULL DEFAULT 0,
			skipped        INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passes_scene ON passes(scene, started_at)`,

		// Undo journal of a pass, in recording order
		`CREATE TABLE IF NOT EXISTS pass_entries (
			pass_id TEXT NOT NULL REFERENCES passes(id) ON DELETE CASCADE,
			seq     INTEGER NOT NULL,
			op      TEXT NOT NULL,
			node    TEXT NOT NULL,
			detail  TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (pass_id, seq)
		)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", truncate(s, 60), err)
		}
	}
	return nil
}
