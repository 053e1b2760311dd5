// Package output renders domain objects as tables for the CLI and as
// JSON documents for export.
package output

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/poeapi"
)

// WriteJSON pretty-prints v to w.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// FormatDuration renders a millisecond duration as h:mm:ss.
func FormatDuration(ms int64) string {
	if ms < 0 {
		return "-" + FormatDuration(-ms)
	}
	d := time.Duration(ms) * time.Millisecond
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d:%02d", h, m, s)
}

func formatOptionalDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	return FormatDuration(*ms)
}

// FormatDelta renders a signed split delta, "-" when absent.
func FormatDelta(ms *int64) string {
	if ms == nil {
		return "-"
	}
	if *ms <= 0 {
		return "-" + FormatDuration(-*ms)
	}
	return "+" + FormatDuration(*ms)
}

// CharactersTable renders the account character list.
func CharactersTable(w io.Writer, characters []poeapi.Character) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Name", "Class", "Level", "League"})
	for _, c := range characters {
		t.AppendRow(table.Row{c.Name, c.Class, c.Level, c.League})
	}
	t.Render()
}

// RunsTable renders a run listing.
func RunsTable(w io.Writer, runs []core.Run) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"ID", "Character", "Class", "League", "Category", "Started", "Time", "Done", "PB"})
	for _, run := range runs {
		t.AppendRow(table.Row{
			run.ID,
			run.CharacterName,
			run.Class,
			run.League,
			run.Category,
			run.StartedAt,
			formatOptionalDuration(run.TotalTimeMS),
			mark(run.IsCompleted),
			mark(run.IsPersonalBest),
		})
	}
	t.Render()
}

// SplitsTable renders the splits of one run.
func SplitsTable(w io.Writer, splits []core.Split) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Breakpoint", "Split", "Segment", "Delta", "Town", "Hideout"})
	for _, split := range splits {
		t.AppendRow(table.Row{
			split.BreakpointName,
			FormatDuration(split.SplitTimeMS),
			FormatDuration(split.SegmentTimeMS),
			FormatDelta(split.DeltaMS),
			FormatDuration(split.TownTimeMS),
			FormatDuration(split.HideoutTimeMS),
		})
	}
	t.Render()
}

// BestsTable renders personal bests.
func BestsTable(w io.Writer, bests []core.PersonalBest) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Category", "Class", "Run", "Time"})
	for _, best := range bests {
		t.AppendRow(table.Row{best.Category, best.Class, best.RunID, FormatDuration(best.TotalTimeMS)})
	}
	t.Render()
}

// GoldSplitsTable renders the best segment per breakpoint.
func GoldSplitsTable(w io.Writer, golds []core.GoldSplit) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Category", "Breakpoint", "Best Segment"})
	for _, gold := range golds {
		t.AppendRow(table.Row{gold.Category, gold.BreakpointName, FormatDuration(gold.BestSegmentMS)})
	}
	t.Render()
}

func mark(v bool) string {
	if v {
		return "yes"
	}
	return ""
}
