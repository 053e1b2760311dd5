// Package engine turns parsed log events into recorded runs: it starts
// a run on the first zone after login, records splits at breakpoints,
// tracks town and hideout time, and finishes the run with personal-best
// and gold-split bookkeeping.
package engine

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/pob"
	"github.com/kburke8/poe-watcher/internal/poeapi"
)

// RunStore is the persistence surface the tracker needs.
type RunStore interface {
	InsertRun(ctx context.Context, run core.NewRun) (int64, error)
	CompleteRun(ctx context.Context, id int64, totalTimeMS int64) error
	UpdateRunCharacter(ctx context.Context, id int64, characterName, class string) error
	UpdateRunClassInfo(ctx context.Context, id int64, class string, ascendancy, league *string) error
	InsertSplit(ctx context.Context, split core.NewSplit) (int64, error)
	InsertSnapshot(ctx context.Context, snapshot core.NewSnapshot) (int64, error)
	RecordPersonalBest(ctx context.Context, category, class string, runID, totalTimeMS int64) (bool, error)
	UpdateGoldSplit(ctx context.Context, category, breakpointName string, segmentMS int64) (bool, error)
	ListGoldSplits(ctx context.Context) ([]core.GoldSplit, error)
}

// SnapshotClient fetches character state for split snapshots.
type SnapshotClient interface {
	Items(ctx context.Context, accountName, characterName string) (*poeapi.CharacterItems, error)
	PassiveSkills(ctx context.Context, accountName, characterName string) (*poeapi.PassiveSkills, error)
}

// Event is a tracker notification, fanned out to subscribers (SSE,
// overlay, logs).
type Event struct {
	Kind    string `json:"kind"`
	Payload any    `json:"payload,omitempty"`
}

// Event kinds emitted by the tracker.
const (
	EventRunStarted     = "run_started"
	EventRunCompleted   = "run_completed"
	EventSplitRecorded  = "split"
	EventGoldSplit      = "gold_split"
	EventSnapshotFailed = "snapshot_failed"
	EventZoneEntered    = "zone_entered"
	EventLevelUp        = "level_up"
	EventDeath          = "death"
)

// Options configures a Tracker.
type Options struct {
	AccountName     string
	League          string
	Category        string
	Preset          Preset
	SnapshotOnSplit bool
}

// Tracker consumes log events and maintains the active run. Methods
// are not safe for concurrent use; feed events from a single goroutine.
type Tracker struct {
	store  RunStore
	api    SnapshotClient
	log    *zap.Logger
	opts   Options
	notify func(Event)

	// Clock returns the current time; injectable for tests.
	Clock func() time.Time

	active        bool
	runID         int64
	startedAt     time.Time
	lastSplitMS   int64
	fired         map[string]bool
	townMS        int64
	hideoutMS     int64
	currentZone   string
	zoneEnteredAt time.Time

	characterName  string
	characterClass string
	level          int
}

// New builds a tracker. The snapshot client may be nil when
// SnapshotOnSplit is off.
func New(store RunStore, api SnapshotClient, opts Options, log *zap.Logger) *Tracker {
	if log == nil {
		log = zap.NewNop()
	}
	return &Tracker{
		store: store,
		api:   api,
		log:   log,
		opts:  opts,
		Clock: time.Now,
		fired: make(map[string]bool),
	}
}

// SetNotify installs the event callback. Call before feeding events.
func (t *Tracker) SetNotify(fn func(Event)) {
	t.notify = fn
}

// Active reports whether a run is in progress.
func (t *Tracker) Active() bool {
	return t.active
}

// RunID returns the active run's id, or 0.
func (t *Tracker) RunID() int64 {
	if !t.active {
		return 0
	}
	return t.runID
}

// HandleEvent advances the tracker state with one log event.
func (t *Tracker) HandleEvent(ctx context.Context, ev core.LogEvent) error {
	switch ev.Type {
	case core.EventZoneEnter:
		return t.handleZoneEnter(ctx, ev)
	case core.EventLevelUp:
		return t.handleLevelUp(ctx, ev)
	case core.EventDeath:
		t.emit(Event{Kind: EventDeath, Payload: ev})
		t.log.Info("character died", zap.String("character", ev.CharacterName))
		return nil
	case core.EventLogin, core.EventInstanceDetails:
		// Lifecycle markers carry no state of their own.
		return nil
	default:
		return nil
	}
}

func (t *Tracker) handleZoneEnter(ctx context.Context, ev core.LogEvent) error {
	now := t.Clock()
	t.accumulateZoneTime(now)
	t.currentZone = ev.ZoneName
	t.zoneEnteredAt = now

	t.emit(Event{Kind: EventZoneEntered, Payload: ev})

	if !t.active {
		return t.startRun(ctx, now)
	}

	for i, bp := range t.opts.Preset.Breakpoints {
		if bp.Type == BreakpointZone && bp.Name == ev.ZoneName && !t.fired[bp.Name] {
			if err := t.split(ctx, bp, i == len(t.opts.Preset.Breakpoints)-1, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tracker) handleLevelUp(ctx context.Context, ev core.LogEvent) error {
	nameChanged := ev.CharacterName != t.characterName || ev.CharacterClass != t.characterClass
	t.characterName = ev.CharacterName
	t.characterClass = ev.CharacterClass
	t.level = ev.Level

	t.emit(Event{Kind: EventLevelUp, Payload: ev})

	if !t.active {
		return nil
	}

	if nameChanged {
		if err := t.store.UpdateRunCharacter(ctx, t.runID, ev.CharacterName, ev.CharacterClass); err != nil {
			t.log.Warn("update run character", zap.Error(err))
		}
	}

	now := t.Clock()
	for i, bp := range t.opts.Preset.Breakpoints {
		if bp.Type == BreakpointLevel && ev.Level >= bp.Level && !t.fired[bp.Name] {
			if err := t.split(ctx, bp, i == len(t.opts.Preset.Breakpoints)-1, now); err != nil {
				return err
			}
		}
	}
	return nil
}

func (t *Tracker) startRun(ctx context.Context, now time.Time) error {
	class := t.characterClass
	if class == "" {
		class = "Unknown"
	}

	preset := t.opts.Preset.Name
	run := core.NewRun{
		CharacterName:    t.characterName,
		AccountName:      t.opts.AccountName,
		Class:            class,
		League:           t.opts.League,
		Category:         t.opts.Category,
		StartedAt:        now.UTC().Format(time.RFC3339),
		BreakpointPreset: &preset,
	}

	id, err := t.store.InsertRun(ctx, run)
	if err != nil {
		return err
	}

	t.active = true
	t.runID = id
	t.startedAt = now
	t.lastSplitMS = 0
	t.townMS = 0
	t.hideoutMS = 0
	t.fired = make(map[string]bool)

	t.log.Info("run started",
		zap.Int64("run_id", id),
		zap.String("zone", t.currentZone),
		zap.String("preset", preset))
	t.emit(Event{Kind: EventRunStarted, Payload: map[string]any{"runId": id, "zone": t.currentZone}})

	return nil
}

func (t *Tracker) split(ctx context.Context, bp Breakpoint, final bool, now time.Time) error {
	elapsed := now.Sub(t.startedAt).Milliseconds()
	segment := elapsed - t.lastSplitMS

	split := core.NewSplit{
		RunID:          t.runID,
		BreakpointType: bp.Type,
		BreakpointName: bp.Name,
		SplitTimeMS:    elapsed,
		DeltaMS:        t.deltaVsGold(ctx, bp.Name, segment),
		SegmentTimeMS:  segment,
		TownTimeMS:     t.townMS,
		HideoutTimeMS:  t.hideoutMS,
	}

	splitID, err := t.store.InsertSplit(ctx, split)
	if err != nil {
		return err
	}
	t.fired[bp.Name] = true
	t.lastSplitMS = elapsed

	isGold, err := t.store.UpdateGoldSplit(ctx, t.opts.Category, bp.Name, segment)
	if err != nil {
		t.log.Warn("update gold split", zap.Error(err))
	} else if isGold {
		t.emit(Event{Kind: EventGoldSplit, Payload: map[string]any{
			"breakpointName": bp.Name, "segmentTimeMs": segment,
		}})
	}

	t.log.Info("split recorded",
		zap.Int64("run_id", t.runID),
		zap.String("breakpoint", bp.Name),
		zap.Int64("elapsed_ms", elapsed),
		zap.Int64("segment_ms", segment))
	t.emit(Event{Kind: EventSplitRecorded, Payload: map[string]any{
		"splitId": splitID, "breakpointName": bp.Name,
		"splitTimeMs": elapsed, "segmentTimeMs": segment,
	}})

	if t.opts.SnapshotOnSplit && t.api != nil && t.characterName != "" {
		t.captureSnapshot(ctx, splitID, elapsed)
	}

	if final {
		return t.completeRun(ctx, elapsed)
	}
	return nil
}

// deltaVsGold compares a segment against the best recorded segment for
// the breakpoint, when one exists.
func (t *Tracker) deltaVsGold(ctx context.Context, breakpointName string, segment int64) *int64 {
	golds, err := t.store.ListGoldSplits(ctx)
	if err != nil {
		t.log.Warn("list gold splits", zap.Error(err))
		return nil
	}
	for _, gold := range golds {
		if gold.Category == t.opts.Category && gold.BreakpointName == breakpointName {
			delta := segment - gold.BestSegmentMS
			return &delta
		}
	}
	return nil
}

func (t *Tracker) completeRun(ctx context.Context, totalTimeMS int64) error {
	if err := t.store.CompleteRun(ctx, t.runID, totalTimeMS); err != nil {
		return err
	}

	class := t.characterClass
	if class == "" {
		class = "Unknown"
	}
	isBest, err := t.store.RecordPersonalBest(ctx, t.opts.Category, class, t.runID, totalTimeMS)
	if err != nil {
		t.log.Warn("record personal best", zap.Error(err))
	}

	t.log.Info("run completed",
		zap.Int64("run_id", t.runID),
		zap.Int64("total_ms", totalTimeMS),
		zap.Bool("personal_best", isBest))
	t.emit(Event{Kind: EventRunCompleted, Payload: map[string]any{
		"runId": t.runID, "totalTimeMs": totalTimeMS, "isPersonalBest": isBest,
	}})

	t.active = false
	return nil
}

// captureSnapshot fetches character state from the API and stores it
// with a Path of Building code. Failures never abort the split.
func (t *Tracker) captureSnapshot(ctx context.Context, splitID, elapsedMS int64) {
	items, err := t.api.Items(ctx, t.opts.AccountName, t.characterName)
	if err != nil {
		t.snapshotFailed(splitID, err)
		return
	}

	if items.Character.Class != "" && items.Character.Class != "Unknown" {
		var ascendancy, league *string
		if name := AscendancyName(items.Character.Class, items.Character.AscendancyClass); name != "" {
			ascendancy = &name
		}
		if items.Character.League != "" {
			l := items.Character.League
			league = &l
		}
		if err := t.store.UpdateRunClassInfo(ctx, t.runID, items.Character.Class, ascendancy, league); err != nil {
			t.log.Warn("update run class info", zap.Error(err))
		}
	}

	passives, err := t.api.PassiveSkills(ctx, t.opts.AccountName, t.characterName)
	if err != nil {
		t.snapshotFailed(splitID, err)
		return
	}

	itemsJSON, err := json.Marshal(items.Items)
	if err != nil {
		itemsJSON = []byte("[]")
	}
	passivesJSON, err := json.Marshal(passives)
	if err != nil {
		passivesJSON = []byte("{}")
	}

	var pobCode *string
	ascendancy := AscendancyName(items.Character.Class, items.Character.AscendancyClass)
	if code, err := pob.Encode(pob.FromSnapshot(items, passives, ascendancy)); err == nil {
		pobCode = &code
	} else {
		t.log.Warn("encode pob code", zap.Error(err))
	}

	snapshot := core.NewSnapshot{
		RunID:           t.runID,
		SplitID:         splitID,
		Timestamp:       t.Clock().UTC().Format(time.RFC3339),
		ElapsedTimeMS:   elapsedMS,
		CharacterLevel:  items.Character.Level,
		ItemsJSON:       string(itemsJSON),
		SkillsJSON:      "[]",
		PassiveTreeJSON: string(passivesJSON),
		StatsJSON:       "{}",
		PobCode:         pobCode,
	}

	if _, err := t.store.InsertSnapshot(ctx, snapshot); err != nil {
		t.snapshotFailed(splitID, err)
	}
}

func (t *Tracker) snapshotFailed(splitID int64, err error) {
	t.log.Warn("snapshot capture failed", zap.Int64("split_id", splitID), zap.Error(err))
	t.emit(Event{Kind: EventSnapshotFailed, Payload: map[string]any{
		"splitId": splitID, "error": err.Error(),
	}})
}

// accumulateZoneTime folds the time spent in the zone being left into
// the town or hideout counters.
func (t *Tracker) accumulateZoneTime(now time.Time) {
	if t.currentZone == "" || t.zoneEnteredAt.IsZero() {
		return
	}
	spent := now.Sub(t.zoneEnteredAt).Milliseconds()
	switch {
	case isHideout(t.currentZone):
		t.hideoutMS += spent
	case isTown(t.currentZone):
		t.townMS += spent
	}
}

// townZones are the campaign act towns.
var townZones = map[string]bool{
	"Lioneye's Watch":       true,
	"The Forest Encampment": true,
	"The Sarn Encampment":   true,
	"Highgate":              true,
	"Overseer's Tower":      true,
	"The Bridge Encampment": true,
	"Oriath Docks":          true,
	"Oriath":                true,
	"Karui Shores":          true,
}

func isTown(zone string) bool {
	return townZones[zone]
}

func isHideout(zone string) bool {
	return strings.HasSuffix(zone, "Hideout")
}

func (t *Tracker) emit(ev Event) {
	if t.notify != nil {
		t.notify(ev)
	}
}
