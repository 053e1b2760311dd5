// Package core defines the domain types shared across poe-watcher:
// parsed log events, runs, splits, snapshots and settings.
package core

// EventType identifies the kind of log event parsed from Client.txt.
type EventType string

const (
	EventZoneEnter       EventType = "zone_enter"
	EventLevelUp         EventType = "level_up"
	EventDeath           EventType = "death"
	EventInstanceDetails EventType = "instance_details"
	EventLogin           EventType = "login"
)

// LogEvent is a single event parsed from the game log. Type selects the
// variant; only the fields belonging to that variant are populated.
// Events are immutable once created by the parser.
type LogEvent struct {
	Type      EventType `json:"event_type"`
	Timestamp string    `json:"timestamp"`

	// ZoneEnter
	ZoneName string `json:"zone_name,omitempty"`

	// LevelUp and Death
	CharacterName string `json:"character_name,omitempty"`

	// LevelUp only
	CharacterClass string `json:"character_class,omitempty"`
	Level          int    `json:"level,omitempty"`
}

// Run is a recorded leveling attempt.
type Run struct {
	ID             int64   `json:"id"`
	CharacterName  string  `json:"characterName"`
	AccountName    string  `json:"accountName"`
	Class          string  `json:"class"`
	Ascendancy     *string `json:"ascendancy"`
	League         string  `json:"league"`
	Category       string  `json:"category"`
	StartedAt      string  `json:"startedAt"`
	EndedAt        *string `json:"endedAt"`
	TotalTimeMS    *int64  `json:"totalTimeMs"`
	IsCompleted    bool    `json:"isCompleted"`
	IsPersonalBest bool    `json:"isPersonalBest"`

	BreakpointPreset   *string `json:"breakpointPreset"`
	EnabledBreakpoints *string `json:"enabledBreakpoints"`

	// Reference runs hold externally sourced times for comparison.
	IsReference bool    `json:"isReference"`
	SourceName  *string `json:"sourceName"`
}

// NewRun carries the fields needed to insert a run.
type NewRun struct {
	CharacterName      string  `json:"characterName"`
	AccountName        string  `json:"accountName"`
	Class              string  `json:"class"`
	Ascendancy         *string `json:"ascendancy"`
	League             string  `json:"league"`
	Category           string  `json:"category"`
	StartedAt          string  `json:"startedAt"`
	BreakpointPreset   *string `json:"breakpointPreset"`
	EnabledBreakpoints *string `json:"enabledBreakpoints"`
}

// RunFilters narrows run queries. Nil fields match everything.
type RunFilters struct {
	Class            *string `json:"class"`
	Ascendancy       *string `json:"ascendancy"`
	Category         *string `json:"category"`
	League           *string `json:"league"`
	BreakpointPreset *string `json:"breakpointPreset"`
	IsCompleted      *bool   `json:"isCompleted"`
	IncludeReference *bool   `json:"includeReference"`
}

// RunStats aggregates completed-run timings for a filter set.
type RunStats struct {
	TotalRuns     int64  `json:"totalRuns"`
	CompletedRuns int64  `json:"completedRuns"`
	AverageTimeMS *int64 `json:"averageTimeMs"`
	BestTimeMS    *int64 `json:"bestTimeMs"`
}

// Split is a recorded elapsed time at a breakpoint within a run.
type Split struct {
	ID             int64  `json:"id"`
	RunID          int64  `json:"runId"`
	BreakpointType string `json:"breakpointType"`
	BreakpointName string `json:"breakpointName"`
	SplitTimeMS    int64  `json:"splitTimeMs"`
	DeltaMS        *int64 `json:"deltaMs"`
	SegmentTimeMS  int64  `json:"segmentTimeMs"`
	TownTimeMS     int64  `json:"townTimeMs"`
	HideoutTimeMS  int64  `json:"hideoutTimeMs"`
}

// NewSplit carries the fields needed to insert a split.
type NewSplit struct {
	RunID          int64  `json:"runId"`
	BreakpointType string `json:"breakpointType"`
	BreakpointName string `json:"breakpointName"`
	SplitTimeMS    int64  `json:"splitTimeMs"`
	DeltaMS        *int64 `json:"deltaMs"`
	SegmentTimeMS  int64  `json:"segmentTimeMs"`
	TownTimeMS     int64  `json:"townTimeMs"`
	HideoutTimeMS  int64  `json:"hideoutTimeMs"`
}

// SplitStat summarizes one breakpoint across many runs.
type SplitStat struct {
	BreakpointName    string `json:"breakpointName"`
	AverageTimeMS     int64  `json:"averageTimeMs"`
	BestTimeMS        int64  `json:"bestTimeMs"`
	AverageTownTimeMS int64  `json:"averageTownTimeMs"`
	RunCount          int64  `json:"runCount"`
}

// Snapshot captures character state (items, passives) at a split.
// The JSON columns store raw API payloads as fetched.
type Snapshot struct {
	ID              int64   `json:"id"`
	RunID           int64   `json:"runId"`
	SplitID         int64   `json:"splitId"`
	Timestamp       string  `json:"timestamp"`
	ElapsedTimeMS   int64   `json:"elapsedTimeMs"`
	CharacterLevel  int     `json:"characterLevel"`
	ItemsJSON       string  `json:"itemsJson"`
	SkillsJSON      string  `json:"skillsJson"`
	PassiveTreeJSON string  `json:"passiveTreeJson"`
	StatsJSON       string  `json:"statsJson"`
	PobCode         *string `json:"pobCode"`
}

// NewSnapshot carries the fields needed to insert a snapshot.
type NewSnapshot struct {
	RunID           int64   `json:"runId"`
	SplitID         int64   `json:"splitId"`
	Timestamp       string  `json:"timestamp"`
	ElapsedTimeMS   int64   `json:"elapsedTimeMs"`
	CharacterLevel  int     `json:"characterLevel"`
	ItemsJSON       string  `json:"itemsJson"`
	SkillsJSON      string  `json:"skillsJson"`
	PassiveTreeJSON string  `json:"passiveTreeJson"`
	StatsJSON       string  `json:"statsJson"`
	PobCode         *string `json:"pobCode"`
}

// PersonalBest is the fastest completed run per category and class.
type PersonalBest struct {
	ID          int64  `json:"id"`
	Category    string `json:"category"`
	Class       string `json:"class"`
	RunID       int64  `json:"runId"`
	TotalTimeMS int64  `json:"totalTimeMs"`
}

// GoldSplit is the best segment time ever recorded for a breakpoint
// within a category, across all runs.
type GoldSplit struct {
	ID             int64  `json:"id"`
	Category       string `json:"category"`
	BreakpointName string `json:"breakpointName"`
	BestSegmentMS  int64  `json:"bestSegmentMs"`
}

// Settings is the persisted single-row application configuration.
type Settings struct {
	LogPath        string  `json:"logPath"`
	AccountName    string  `json:"accountName"`
	SoundEnabled   bool    `json:"soundEnabled"`
	OverlayEnabled bool    `json:"overlayEnabled"`
	OverlayOpacity float64 `json:"overlayOpacity"`
}
