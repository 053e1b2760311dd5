package output

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/poeapi"
)

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		name string
		ms   int64
		want string
	}{
		{"Zero", 0, "0:00:00"},
		{"UnderAMinute", 42_000, "0:00:42"},
		{"MinutesAndSeconds", 83_000, "0:01:23"},
		{"Hours", 3_723_000, "1:02:03"},
		{"SubSecondTruncates", 999, "0:00:00"},
		{"Negative", -61_000, "-0:01:01"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FormatDuration(tc.ms))
		})
	}
}

func TestFormatDelta(t *testing.T) {
	ahead := int64(-5_000)
	behind := int64(12_000)
	even := int64(0)

	require.Equal(t, "-", FormatDelta(nil))
	require.Equal(t, "-0:00:05", FormatDelta(&ahead))
	require.Equal(t, "+0:00:12", FormatDelta(&behind))
	require.Equal(t, "-0:00:00", FormatDelta(&even))
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, map[string]int{"level": 90}))
	require.Equal(t, "{\n  \"level\": 90\n}\n", buf.String())
}

func TestTablesRenderRows(t *testing.T) {
	t.Run("Characters", func(t *testing.T) {
		var buf bytes.Buffer
		CharactersTable(&buf, []poeapi.Character{
			{Name: "Zizaran", Class: "Juggernaut", Level: 93, League: "Settlers"},
		})
		out := buf.String()
		require.Contains(t, out, "Zizaran")
		require.Contains(t, out, "Juggernaut")
		require.Contains(t, out, "Settlers")
	})

	t.Run("Runs", func(t *testing.T) {
		total := int64(5_400_000)
		var buf bytes.Buffer
		RunsTable(&buf, []core.Run{
			{
				ID:             7,
				CharacterName:  "StormWeaver",
				Class:          "Witch",
				League:         "Settlers",
				Category:       "acts/campaign",
				StartedAt:      "2026-08-01T10:00:00Z",
				TotalTimeMS:    &total,
				IsCompleted:    true,
				IsPersonalBest: true,
			},
		})
		out := buf.String()
		require.Contains(t, out, "StormWeaver")
		require.Contains(t, out, "1:30:00")
		require.Contains(t, out, "yes")
	})

	t.Run("Splits", func(t *testing.T) {
		delta := int64(-3_000)
		var buf bytes.Buffer
		SplitsTable(&buf, []core.Split{
			{
				BreakpointName: "The Coast",
				SplitTimeMS:    315_000,
				SegmentTimeMS:  315_000,
				DeltaMS:        &delta,
				TownTimeMS:     30_000,
			},
		})
		out := buf.String()
		require.Contains(t, out, "The Coast")
		require.Contains(t, out, "0:05:15")
		require.Contains(t, out, "-0:00:03")
	})

	t.Run("Bests", func(t *testing.T) {
		var buf bytes.Buffer
		BestsTable(&buf, []core.PersonalBest{
			{Category: "acts/campaign", Class: "Ranger", RunID: 3, TotalTimeMS: 9_000_000},
		})
		require.Contains(t, buf.String(), "2:30:00")
	})

	t.Run("GoldSplits", func(t *testing.T) {
		var buf bytes.Buffer
		GoldSplitsTable(&buf, []core.GoldSplit{
			{Category: "acts/campaign", BreakpointName: "Lioneye's Watch", BestSegmentMS: 240_000},
		})
		require.Contains(t, buf.String(), "Lioneye's Watch")
		require.Contains(t, buf.String(), "0:04:00")
	})
}

func TestExportRun(t *testing.T) {
	asc := "Occultist"
	ended := "2026-08-01T12:00:00Z"
	total := int64(7_200_000)
	preset := "acts"
	delta := int64(-1_500)
	pob := "eJxLTC0CAAKcAVM="

	run := core.Run{
		ID:               11,
		CharacterName:    "StormWeaver",
		Class:            "Witch",
		Ascendancy:       &asc,
		League:           "Settlers",
		Category:         "acts/campaign",
		StartedAt:        "2026-08-01T10:00:00Z",
		EndedAt:          &ended,
		TotalTimeMS:      &total,
		IsCompleted:      true,
		IsPersonalBest:   true,
		BreakpointPreset: &preset,
	}
	splits := []core.Split{
		{
			ID:             21,
			RunID:          11,
			BreakpointType: "zone",
			BreakpointName: "Lioneye's Watch",
			SplitTimeMS:    300_000,
			SegmentTimeMS:  300_000,
			DeltaMS:        &delta,
			TownTimeMS:     20_000,
			HideoutTimeMS:  5_000,
		},
		{
			ID:             22,
			RunID:          11,
			BreakpointType: "level",
			BreakpointName: "Level 10",
			SplitTimeMS:    900_000,
			SegmentTimeMS:  600_000,
		},
	}
	snapshots := []core.Snapshot{
		{
			ID:              31,
			RunID:           11,
			SplitID:         22,
			ElapsedTimeMS:   900_000,
			CharacterLevel:  10,
			ItemsJSON:       `[{"name":"Wanderlust"}]`,
			PassiveTreeJSON: `{"hashes":[123]}`,
			PobCode:         &pob,
		},
		{
			ID:             32,
			RunID:          11,
			SplitID:        99, // split no longer present
			ElapsedTimeMS:  1_000_000,
			CharacterLevel: 12,
		},
	}

	now := time.Date(2026, 8, 29, 15, 4, 5, 0, time.UTC)
	doc := ExportRun(run, splits, snapshots, now)

	require.Equal(t, "0.2.0", doc.Version)
	require.Equal(t, "2026-08-29T15:04:05Z", doc.ExportedAt)
	require.Equal(t, "StormWeaver", doc.Run.Character)
	require.Equal(t, &asc, doc.Run.Ascendancy)
	require.True(t, doc.Run.IsPersonalBest)

	require.Len(t, doc.Splits, 2)
	require.Equal(t, "Lioneye's Watch", doc.Splits[0].BreakpointName)
	require.Equal(t, &delta, doc.Splits[0].DeltaMS)
	require.Nil(t, doc.Splits[1].DeltaMS)

	require.Len(t, doc.Snapshots, 2)
	require.Equal(t, "Level 10", doc.Snapshots[0].SplitName)
	require.Equal(t, json.RawMessage(`[{"name":"Wanderlust"}]`), doc.Snapshots[0].Items)
	require.Equal(t, "Unknown", doc.Snapshots[1].SplitName)
	// empty stored payloads fall back to valid JSON zero values
	require.Equal(t, json.RawMessage("[]"), doc.Snapshots[1].Items)
	require.Equal(t, json.RawMessage("{}"), doc.Snapshots[1].PassiveTree)

	encoded, err := json.Marshal(doc)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(string(encoded), `{"version":"0.2.0"`))
	require.Contains(t, string(encoded), `"pobCode":"eJxLTC0CAAKcAVM="`)
}
