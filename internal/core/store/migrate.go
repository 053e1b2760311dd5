package store

import (
	"context"
	"errors"
	"fmt"
)

// migrations apply in order exactly once; applied names are recorded in
// the migrations table. Never edit an entry after release, append a new
// one instead.
var migrations = []struct {
	name string
	stmt string
}{
	{"001_runs", `CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		character_name TEXT NOT NULL,
		account_name TEXT NOT NULL,
		class TEXT NOT NULL,
		ascendancy TEXT,
		league TEXT NOT NULL,
		category TEXT NOT NULL,
		started_at TEXT NOT NULL,
		ended_at TEXT,
		total_time_ms INTEGER,
		is_completed INTEGER NOT NULL DEFAULT 0,
		is_personal_best INTEGER NOT NULL DEFAULT 0,
		breakpoint_preset TEXT,
		enabled_breakpoints TEXT,
		is_reference INTEGER NOT NULL DEFAULT 0,
		source_name TEXT
	);`},
	{"002_splits", `CREATE TABLE IF NOT EXISTS splits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		breakpoint_type TEXT NOT NULL,
		breakpoint_name TEXT NOT NULL,
		split_time_ms INTEGER NOT NULL,
		delta_ms INTEGER,
		segment_time_ms INTEGER NOT NULL,
		town_time_ms INTEGER NOT NULL DEFAULT 0,
		hideout_time_ms INTEGER NOT NULL DEFAULT 0
	);`},
	{"003_snapshots", `CREATE TABLE IF NOT EXISTS snapshots (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id),
		split_id INTEGER NOT NULL,
		timestamp TEXT NOT NULL,
		elapsed_time_ms INTEGER NOT NULL,
		character_level INTEGER NOT NULL,
		items_json TEXT NOT NULL,
		skills_json TEXT NOT NULL,
		passive_tree_json TEXT NOT NULL,
		stats_json TEXT NOT NULL,
		pob_code TEXT
	);`},
	{"004_personal_bests", `CREATE TABLE IF NOT EXISTS personal_bests (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		class TEXT NOT NULL,
		run_id INTEGER NOT NULL,
		total_time_ms INTEGER NOT NULL,
		UNIQUE(category, class)
	);`},
	{"005_gold_splits", `CREATE TABLE IF NOT EXISTS gold_splits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		category TEXT NOT NULL,
		breakpoint_name TEXT NOT NULL,
		best_segment_ms INTEGER NOT NULL,
		UNIQUE(category, breakpoint_name)
	);`},
	{"006_settings", `CREATE TABLE IF NOT EXISTS settings (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		poe_log_path TEXT NOT NULL DEFAULT '',
		account_name TEXT NOT NULL DEFAULT '',
		sound_enabled INTEGER NOT NULL DEFAULT 1,
		overlay_enabled INTEGER NOT NULL DEFAULT 0,
		overlay_opacity REAL NOT NULL DEFAULT 0.8
	);`},
	{"007_split_indexes", `CREATE INDEX IF NOT EXISTS idx_splits_run ON splits(run_id);`},
	{"008_snapshot_indexes", `CREATE INDEX IF NOT EXISTS idx_snapshots_run ON snapshots(run_id);`},
}

// Migrate brings the database schema up to date.
func (s *Store) Migrate(ctx context.Context) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS migrations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL UNIQUE,
		applied_at TEXT NOT NULL DEFAULT (datetime('now'))
	);`); err != nil {
		return fmt.Errorf("create migrations table: %w", err)
	}

	applied := make(map[string]bool)
	rows, err := s.DB.QueryContext(ctx, "SELECT name FROM migrations")
	if err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return fmt.Errorf("list applied migrations: %w", err)
		}
		applied[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list applied migrations: %w", err)
	}

	for _, m := range migrations {
		if applied[m.name] {
			continue
		}
		if _, err := s.DB.ExecContext(ctx, m.stmt); err != nil {
			return fmt.Errorf("apply migration %s: %w", m.name, err)
		}
		if _, err := s.DB.ExecContext(ctx, "INSERT INTO migrations (name) VALUES (?)", m.name); err != nil {
			return fmt.Errorf("record migration %s: %w", m.name, err)
		}
	}

	return nil
}
