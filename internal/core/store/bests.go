package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/kburke8/poe-watcher/internal/core"
)

// RecordPersonalBest stores the run as the personal best for its
// category and class if it beats (or first sets) the existing record.
// It reports whether a new best was recorded and marks the run when so.
func (s *Store) RecordPersonalBest(ctx context.Context, category, class string, runID, totalTimeMS int64) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var existing int64
	err := s.DB.QueryRowContext(ctx,
		"SELECT total_time_ms FROM personal_bests WHERE category = ? AND class = ?",
		category, class).Scan(&existing)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.DB.ExecContext(ctx,
			"INSERT INTO personal_bests (category, class, run_id, total_time_ms) VALUES (?, ?, ?, ?)",
			category, class, runID, totalTimeMS); err != nil {
			return false, fmt.Errorf("record personal best: %w", err)
		}
	case err != nil:
		return false, fmt.Errorf("check personal best: %w", err)
	case totalTimeMS < existing:
		if _, err := s.DB.ExecContext(ctx,
			"UPDATE personal_bests SET run_id = ?, total_time_ms = ? WHERE category = ? AND class = ?",
			runID, totalTimeMS, category, class); err != nil {
			return false, fmt.Errorf("record personal best: %w", err)
		}
	default:
		return false, nil
	}

	if _, err := s.DB.ExecContext(ctx,
		"UPDATE runs SET is_personal_best = 1 WHERE id = ?", runID); err != nil {
		return false, fmt.Errorf("mark personal best run: %w", err)
	}

	return true, nil
}

// ListPersonalBests returns all recorded personal bests.
func (s *Store) ListPersonalBests(ctx context.Context) ([]core.PersonalBest, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, category, class, run_id, total_time_ms FROM personal_bests ORDER BY category, class")
	if err != nil {
		return nil, fmt.Errorf("list personal bests: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var bests []core.PersonalBest
	for rows.Next() {
		var best core.PersonalBest
		if err := rows.Scan(&best.ID, &best.Category, &best.Class, &best.RunID, &best.TotalTimeMS); err != nil {
			return nil, fmt.Errorf("list personal bests: %w", err)
		}
		bests = append(bests, best)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list personal bests: %w", err)
	}

	return bests, nil
}

// UpdateGoldSplit records the segment time as the best ever for its
// breakpoint within the category if it beats the existing gold. It
// reports whether a new gold was set.
func (s *Store) UpdateGoldSplit(ctx context.Context, category, breakpointName string, segmentMS int64) (bool, error) {
	if s == nil || s.DB == nil {
		return false, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var existing int64
	err := s.DB.QueryRowContext(ctx,
		"SELECT best_segment_ms FROM gold_splits WHERE category = ? AND breakpoint_name = ?",
		category, breakpointName).Scan(&existing)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		if _, err := s.DB.ExecContext(ctx,
			"INSERT INTO gold_splits (category, breakpoint_name, best_segment_ms) VALUES (?, ?, ?)",
			category, breakpointName, segmentMS); err != nil {
			return false, fmt.Errorf("record gold split: %w", err)
		}
		return true, nil
	case err != nil:
		return false, fmt.Errorf("check gold split: %w", err)
	case segmentMS < existing:
		if _, err := s.DB.ExecContext(ctx,
			"UPDATE gold_splits SET best_segment_ms = ? WHERE category = ? AND breakpoint_name = ?",
			segmentMS, category, breakpointName); err != nil {
			return false, fmt.Errorf("record gold split: %w", err)
		}
		return true, nil
	default:
		return false, nil
	}
}

// ListGoldSplits returns all recorded gold splits.
func (s *Store) ListGoldSplits(ctx context.Context) ([]core.GoldSplit, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx,
		"SELECT id, category, breakpoint_name, best_segment_ms FROM gold_splits ORDER BY category, breakpoint_name")
	if err != nil {
		return nil, fmt.Errorf("list gold splits: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var golds []core.GoldSplit
	for rows.Next() {
		var gold core.GoldSplit
		if err := rows.Scan(&gold.ID, &gold.Category, &gold.BreakpointName, &gold.BestSegmentMS); err != nil {
			return nil, fmt.Errorf("list gold splits: %w", err)
		}
		golds = append(golds, gold)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list gold splits: %w", err)
	}

	return golds, nil
}
