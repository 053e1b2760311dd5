package output

import (
	"encoding/json"
	"time"

	"github.com/kburke8/poe-watcher/internal/core"
)

// exportVersion identifies the export document format.
const exportVersion = "0.2.0"

// RunExport is the portable JSON document for one run: the run header,
// its splits, and any captured snapshots with their raw API payloads
// decoded back into JSON values.
type RunExport struct {
	Version    string           `json:"version"`
	ExportedAt string           `json:"exportedAt"`
	Run        RunExportHeader  `json:"run"`
	Splits     []SplitExport    `json:"splits"`
	Snapshots  []SnapshotExport `json:"snapshots"`
}

type RunExportHeader struct {
	Character        string  `json:"character"`
	Class            string  `json:"class"`
	Ascendancy       *string `json:"ascendancy"`
	League           string  `json:"league"`
	Category         string  `json:"category"`
	StartedAt        string  `json:"startedAt"`
	EndedAt          *string `json:"endedAt"`
	TotalTimeMS      *int64  `json:"totalTimeMs"`
	IsCompleted      bool    `json:"isCompleted"`
	IsPersonalBest   bool    `json:"isPersonalBest"`
	BreakpointPreset *string `json:"breakpointPreset"`
}

type SplitExport struct {
	BreakpointName string `json:"breakpointName"`
	BreakpointType string `json:"breakpointType"`
	SplitTimeMS    int64  `json:"splitTimeMs"`
	SegmentTimeMS  int64  `json:"segmentTimeMs"`
	DeltaMS        *int64 `json:"deltaMs"`
	TownTimeMS     int64  `json:"townTimeMs"`
	HideoutTimeMS  int64  `json:"hideoutTimeMs"`
}

type SnapshotExport struct {
	SplitName      string          `json:"splitName"`
	ElapsedTimeMS  int64           `json:"elapsedTimeMs"`
	CharacterLevel int             `json:"characterLevel"`
	Items          json.RawMessage `json:"items"`
	PassiveTree    json.RawMessage `json:"passiveTree"`
	PobCode        *string         `json:"pobCode"`
}

// ExportRun assembles the export document.
func ExportRun(run core.Run, splits []core.Split, snapshots []core.Snapshot, now time.Time) RunExport {
	export := RunExport{
		Version:    exportVersion,
		ExportedAt: now.UTC().Format(time.RFC3339),
		Run: RunExportHeader{
			Character:        run.CharacterName,
			Class:            run.Class,
			Ascendancy:       run.Ascendancy,
			League:           run.League,
			Category:         run.Category,
			StartedAt:        run.StartedAt,
			EndedAt:          run.EndedAt,
			TotalTimeMS:      run.TotalTimeMS,
			IsCompleted:      run.IsCompleted,
			IsPersonalBest:   run.IsPersonalBest,
			BreakpointPreset: run.BreakpointPreset,
		},
		Splits:    make([]SplitExport, 0, len(splits)),
		Snapshots: make([]SnapshotExport, 0, len(snapshots)),
	}

	splitNames := make(map[int64]string, len(splits))
	for _, split := range splits {
		splitNames[split.ID] = split.BreakpointName
		export.Splits = append(export.Splits, SplitExport{
			BreakpointName: split.BreakpointName,
			BreakpointType: split.BreakpointType,
			SplitTimeMS:    split.SplitTimeMS,
			SegmentTimeMS:  split.SegmentTimeMS,
			DeltaMS:        split.DeltaMS,
			TownTimeMS:     split.TownTimeMS,
			HideoutTimeMS:  split.HideoutTimeMS,
		})
	}

	for _, snapshot := range snapshots {
		name, ok := splitNames[snapshot.SplitID]
		if !ok {
			name = "Unknown"
		}
		export.Snapshots = append(export.Snapshots, SnapshotExport{
			SplitName:      name,
			ElapsedTimeMS:  snapshot.ElapsedTimeMS,
			CharacterLevel: snapshot.CharacterLevel,
			Items:          rawOr(snapshot.ItemsJSON, "[]"),
			PassiveTree:    rawOr(snapshot.PassiveTreeJSON, "{}"),
			PobCode:        snapshot.PobCode,
		})
	}

	return export
}

// rawOr returns the stored payload when it is valid JSON, otherwise
// the fallback.
func rawOr(payload, fallback string) json.RawMessage {
	if json.Valid([]byte(payload)) {
		return json.RawMessage(payload)
	}
	return json.RawMessage(fallback)
}
