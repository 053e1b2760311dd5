package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/kburke8/poe-watcher/internal/core"
)

// InsertSplit records a breakpoint split and returns its id.
func (s *Store) InsertSplit(ctx context.Context, split core.NewSplit) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO splits (run_id, breakpoint_type, breakpoint_name, split_time_ms,
			delta_ms, segment_time_ms, town_time_ms, hideout_time_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, split.RunID, split.BreakpointType, split.BreakpointName, split.SplitTimeMS,
		nullInt64(split.DeltaMS), split.SegmentTimeMS, split.TownTimeMS, split.HideoutTimeMS)
	if err != nil {
		return 0, fmt.Errorf("insert split: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert split: %w", err)
	}
	return id, nil
}

// SplitsByRun returns a run's splits ordered by elapsed time.
func (s *Store) SplitsByRun(ctx context.Context, runID int64) ([]core.Split, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	rows, err := s.DB.QueryContext(ctx, `
		SELECT id, run_id, breakpoint_type, breakpoint_name, split_time_ms,
			delta_ms, segment_time_ms, town_time_ms, hideout_time_ms
		FROM splits WHERE run_id = ? ORDER BY split_time_ms
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var splits []core.Split
	for rows.Next() {
		var (
			split core.Split
			delta sql.NullInt64
		)
		if err := rows.Scan(&split.ID, &split.RunID, &split.BreakpointType,
			&split.BreakpointName, &split.SplitTimeMS, &delta,
			&split.SegmentTimeMS, &split.TownTimeMS, &split.HideoutTimeMS); err != nil {
			return nil, fmt.Errorf("list splits: %w", err)
		}
		split.DeltaMS = int64Ptr(delta)
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list splits: %w", err)
	}

	return splits, nil
}

// SplitStats summarizes each breakpoint across the runs matching the
// filters, ordered by average elapsed time.
func (s *Store) SplitStats(ctx context.Context, filters core.RunFilters) ([]core.SplitStat, error) {
	runs, err := s.ListRuns(ctx, filters)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, nil
	}

	byBreakpoint := make(map[string][]core.Split)
	for _, run := range runs {
		splits, err := s.SplitsByRun(ctx, run.ID)
		if err != nil {
			return nil, err
		}
		for _, split := range splits {
			byBreakpoint[split.BreakpointName] = append(byBreakpoint[split.BreakpointName], split)
		}
	}

	stats := make([]core.SplitStat, 0, len(byBreakpoint))
	for name, splits := range byBreakpoint {
		count := int64(len(splits))
		var totalTime, totalTown int64
		best := splits[0].SplitTimeMS
		for _, split := range splits {
			totalTime += split.SplitTimeMS
			totalTown += split.TownTimeMS
			if split.SplitTimeMS < best {
				best = split.SplitTimeMS
			}
		}
		stats = append(stats, core.SplitStat{
			BreakpointName:    name,
			AverageTimeMS:     totalTime / count,
			BestTimeMS:        best,
			AverageTownTimeMS: totalTown / count,
			RunCount:          count,
		})
	}

	sort.Slice(stats, func(i, j int) bool {
		return stats[i].AverageTimeMS < stats[j].AverageTimeMS
	})

	return stats, nil
}
