package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kburke8/poe-watcher/internal/core"
)

const snapshotColumns = `id, run_id, split_id, timestamp, elapsed_time_ms, character_level,
	items_json, skills_json, passive_tree_json, stats_json, pob_code`

// InsertSnapshot stores a character snapshot and returns its id.
func (s *Store) InsertSnapshot(ctx context.Context, snapshot core.NewSnapshot) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO snapshots (run_id, split_id, timestamp, elapsed_time_ms, character_level,
			items_json, skills_json, passive_tree_json, stats_json, pob_code)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, snapshot.RunID, snapshot.SplitID, snapshot.Timestamp, snapshot.ElapsedTimeMS,
		snapshot.CharacterLevel, snapshot.ItemsJSON, snapshot.SkillsJSON,
		snapshot.PassiveTreeJSON, snapshot.StatsJSON, nullString(snapshot.PobCode))
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert snapshot: %w", err)
	}
	return id, nil
}

// SnapshotsByRun returns a run's snapshots ordered by elapsed time.
func (s *Store) SnapshotsByRun(ctx context.Context, runID int64) ([]core.Snapshot, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE run_id = ? ORDER BY elapsed_time_ms", runID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var snapshots []core.Snapshot
	for rows.Next() {
		snapshot, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("list snapshots: %w", err)
		}
		snapshots = append(snapshots, *snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}

	return snapshots, nil
}

// GetSnapshot returns a snapshot by id, or nil when it does not exist.
func (s *Store) GetSnapshot(ctx context.Context, id int64) (*core.Snapshot, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE id = ?", id)

	snapshot, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	return snapshot, nil
}

// SnapshotBySplit returns the snapshot captured at a split, or nil.
func (s *Store) SnapshotBySplit(ctx context.Context, splitID int64) (*core.Snapshot, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx,
		"SELECT "+snapshotColumns+" FROM snapshots WHERE split_id = ?", splitID)

	snapshot, err := scanSnapshot(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	return snapshot, nil
}

func scanSnapshot(row scanner) (*core.Snapshot, error) {
	var (
		snapshot core.Snapshot
		pobCode  sql.NullString
	)

	if err := row.Scan(&snapshot.ID, &snapshot.RunID, &snapshot.SplitID,
		&snapshot.Timestamp, &snapshot.ElapsedTimeMS, &snapshot.CharacterLevel,
		&snapshot.ItemsJSON, &snapshot.SkillsJSON, &snapshot.PassiveTreeJSON,
		&snapshot.StatsJSON, &pobCode); err != nil {
		return nil, err
	}

	snapshot.PobCode = stringPtr(pobCode)
	return &snapshot, nil
}
