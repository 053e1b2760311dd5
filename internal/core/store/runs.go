package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/kburke8/poe-watcher/internal/core"
)

const runColumns = `id, character_name, account_name, class, ascendancy, league, category,
	started_at, ended_at, total_time_ms, is_completed, is_personal_best,
	breakpoint_preset, enabled_breakpoints, is_reference, source_name`

// InsertRun creates a run record and returns its id.
func (s *Store) InsertRun(ctx context.Context, run core.NewRun) (int64, error) {
	if s == nil || s.DB == nil {
		return 0, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	res, err := s.DB.ExecContext(ctx, `
		INSERT INTO runs (character_name, account_name, class, ascendancy, league, category,
			started_at, breakpoint_preset, enabled_breakpoints)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, run.CharacterName, run.AccountName, run.Class, nullString(run.Ascendancy),
		run.League, run.Category, run.StartedAt,
		nullString(run.BreakpointPreset), nullString(run.EnabledBreakpoints))
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run finished with its final time.
func (s *Store) CompleteRun(ctx context.Context, id int64, totalTimeMS int64) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx, `
		UPDATE runs SET is_completed = 1, ended_at = datetime('now'), total_time_ms = ?
		WHERE id = ?
	`, totalTimeMS, id)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	return nil
}

// UpdateRunCharacter sets the character name and class once they are
// known; a run started on a zone event may predate the first level-up
// line that names the character.
func (s *Store) UpdateRunCharacter(ctx context.Context, id int64, characterName, class string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	_, err := s.DB.ExecContext(ctx,
		"UPDATE runs SET character_name = ?, class = ? WHERE id = ?",
		characterName, class, id)
	if err != nil {
		return fmt.Errorf("update run character: %w", err)
	}
	return nil
}

// UpdateRunClassInfo backfills class, ascendancy and league from API
// data without clobbering values already recorded from the log.
func (s *Store) UpdateRunClassInfo(ctx context.Context, id int64, class string, ascendancy, league *string) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	if _, err := s.DB.ExecContext(ctx,
		"UPDATE runs SET class = ? WHERE id = ? AND class = 'Unknown'",
		class, id); err != nil {
		return fmt.Errorf("update run class: %w", err)
	}

	if ascendancy != nil {
		if _, err := s.DB.ExecContext(ctx,
			"UPDATE runs SET ascendancy = ? WHERE id = ? AND ascendancy IS NULL",
			*ascendancy, id); err != nil {
			return fmt.Errorf("update run ascendancy: %w", err)
		}
	}

	if league != nil {
		if _, err := s.DB.ExecContext(ctx,
			"UPDATE runs SET league = ? WHERE id = ? AND (league IS NULL OR league = '')",
			*league, id); err != nil {
			return fmt.Errorf("update run league: %w", err)
		}
	}

	return nil
}

// GetRun returns a run by id, or nil when it does not exist.
func (s *Store) GetRun(ctx context.Context, id int64) (*core.Run, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	row := s.DB.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ?", id)

	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch run: %w", err)
	}
	return run, nil
}

// ListRuns returns runs matching the filters, newest first. Reference
// runs are excluded unless the filters ask for them.
func (s *Store) ListRuns(ctx context.Context, filters core.RunFilters) ([]core.Run, error) {
	if s == nil || s.DB == nil {
		return nil, errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var (
		conds []string
		args  []any
	)
	if filters.Class != nil {
		conds = append(conds, "class = ?")
		args = append(args, *filters.Class)
	}
	if filters.Ascendancy != nil {
		conds = append(conds, "ascendancy = ?")
		args = append(args, *filters.Ascendancy)
	}
	if filters.Category != nil {
		conds = append(conds, "category = ?")
		args = append(args, *filters.Category)
	}
	if filters.League != nil {
		conds = append(conds, "league = ?")
		args = append(args, *filters.League)
	}
	if filters.BreakpointPreset != nil {
		conds = append(conds, "breakpoint_preset = ?")
		args = append(args, *filters.BreakpointPreset)
	}
	if filters.IsCompleted != nil {
		conds = append(conds, "is_completed = ?")
		args = append(args, boolInt(*filters.IsCompleted))
	}
	if filters.IncludeReference == nil || !*filters.IncludeReference {
		conds = append(conds, "is_reference = 0")
	}

	query := "SELECT " + runColumns + " FROM runs"
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY started_at DESC"

	rows, err := s.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close() // nolint:errcheck // best-effort cleanup on SQL rows

	var runs []core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}

	return runs, nil
}

// DeleteRun removes a run along with its splits and snapshots.
func (s *Store) DeleteRun(ctx context.Context, id int64) error {
	if s == nil || s.DB == nil {
		return errors.New("store is not initialized")
	}

	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	defer tx.Rollback() // nolint:errcheck // no-op after commit

	for _, stmt := range []string{
		"DELETE FROM snapshots WHERE run_id = ?",
		"DELETE FROM splits WHERE run_id = ?",
		"DELETE FROM runs WHERE id = ?",
	} {
		if _, err := tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("delete run: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete run: %w", err)
	}
	return nil
}

// RunStats aggregates completion counts and timings over the runs
// matching the filters.
func (s *Store) RunStats(ctx context.Context, filters core.RunFilters) (core.RunStats, error) {
	runs, err := s.ListRuns(ctx, filters)
	if err != nil {
		return core.RunStats{}, err
	}

	stats := core.RunStats{TotalRuns: int64(len(runs))}

	var completedTimes []int64
	for _, run := range runs {
		if !run.IsCompleted {
			continue
		}
		stats.CompletedRuns++
		if run.TotalTimeMS != nil {
			completedTimes = append(completedTimes, *run.TotalTimeMS)
		}
	}

	if len(completedTimes) > 0 {
		var sum, best int64
		best = completedTimes[0]
		for _, t := range completedTimes {
			sum += t
			if t < best {
				best = t
			}
		}
		avg := sum / int64(len(completedTimes))
		stats.AverageTimeMS = &avg
		stats.BestTimeMS = &best
	}

	return stats, nil
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*core.Run, error) {
	var (
		run            core.Run
		ascendancy     sql.NullString
		endedAt        sql.NullString
		totalTimeMS    sql.NullInt64
		isCompleted    int
		isPersonalBest int
		preset         sql.NullString
		enabled        sql.NullString
		isReference    int
		sourceName     sql.NullString
	)

	if err := row.Scan(&run.ID, &run.CharacterName, &run.AccountName, &run.Class,
		&ascendancy, &run.League, &run.Category, &run.StartedAt, &endedAt,
		&totalTimeMS, &isCompleted, &isPersonalBest, &preset, &enabled,
		&isReference, &sourceName); err != nil {
		return nil, err
	}

	run.Ascendancy = stringPtr(ascendancy)
	run.EndedAt = stringPtr(endedAt)
	run.TotalTimeMS = int64Ptr(totalTimeMS)
	run.IsCompleted = isCompleted == 1
	run.IsPersonalBest = isPersonalBest == 1
	run.BreakpointPreset = stringPtr(preset)
	run.EnabledBreakpoints = stringPtr(enabled)
	run.IsReference = isReference == 1
	run.SourceName = stringPtr(sourceName)

	return &run, nil
}

func nullString(v *string) any {
	if v == nil {
		return nil
	}
	return *v
}

func nullInt64(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}

func stringPtr(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func int64Ptr(v sql.NullInt64) *int64 {
	if !v.Valid {
		return nil
	}
	n := v.Int64
	return &n
}

func boolInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
