package logwatch

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kburke8/poe-watcher/internal/core"
)

const linePrefix = "2024/01/15 12:34:56 12345678 abc [INFO Client 1234] "

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(content)
	require.NoError(t, err)
	require.NoError(t, f.Close())
}

type eventCollector struct {
	mu     sync.Mutex
	events []core.LogEvent
}

func (c *eventCollector) collect(ev core.LogEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, ev)
}

func (c *eventCollector) snapshot() []core.LogEvent {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]core.LogEvent(nil), c.events...)
}

func waitForEvents(t *testing.T, c *eventCollector, n int) []core.LogEvent {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if events := c.snapshot(); len(events) >= n {
			return events
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events, got %d", n, len(c.snapshot()))
	return nil
}

func TestWatcherEmitsAppendedEventsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Client.txt")

	// History already in the file must not be replayed.
	writeLog(t, path, linePrefix+"You have entered Old History Zone.\n")

	w := New(path, zap.NewNop())
	var c eventCollector
	require.NoError(t, w.Start(c.collect))
	defer w.Stop()

	writeLog(t, path,
		linePrefix+"You have entered The Coast.\n"+
			linePrefix+"Foo (Witch) is now level 10\n"+
			linePrefix+"Foo has been slain.\n")

	events := waitForEvents(t, &c, 3)
	require.Len(t, events, 3)

	require.Equal(t, core.EventZoneEnter, events[0].Type)
	require.Equal(t, "The Coast", events[0].ZoneName)

	require.Equal(t, core.EventLevelUp, events[1].Type)
	require.Equal(t, "Foo", events[1].CharacterName)
	require.Equal(t, "Witch", events[1].CharacterClass)
	require.Equal(t, 10, events[1].Level)

	require.Equal(t, core.EventDeath, events[2].Type)
	require.Equal(t, "Foo", events[2].CharacterName)
}

func TestWatcherStartMissingFile(t *testing.T) {
	w := New(filepath.Join(t.TempDir(), "does-not-exist.txt"), zap.NewNop())
	require.Error(t, w.Start(func(core.LogEvent) {}))
}

func TestWatcherStopIdempotent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Client.txt")
	writeLog(t, path, "")

	w := New(path, zap.NewNop())
	require.NoError(t, w.Start(func(core.LogEvent) {}))

	w.Stop()
	w.Stop() // no-op

	// A never-started watcher tolerates Stop too.
	New(path, zap.NewNop()).Stop()
}

func TestReadPassIdempotentWithoutNewBytes(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Client.txt")
	writeLog(t, path, linePrefix+"You have entered The Coast.\n")

	w := New(path, zap.NewNop())

	events := w.readNewLines()
	require.Len(t, events, 1)
	cursor := w.cursor

	// No new bytes: empty pass, cursor untouched.
	require.Empty(t, w.readNewLines())
	require.Equal(t, cursor, w.cursor)
}

func TestReadPassLeavesPartialLineUnconsumed(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Client.txt")
	writeLog(t, path, linePrefix+"You have entered The Co")

	w := New(path, zap.NewNop())

	require.Empty(t, w.readNewLines())
	require.Equal(t, int64(0), w.cursor)

	// Once the remainder lands, the line parses as a whole.
	writeLog(t, path, "ast.\n")
	events := w.readNewLines()
	require.Len(t, events, 1)
	require.Equal(t, "The Coast", events[0].ZoneName)
}

func TestReadPassResetsCursorOnTruncation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "Client.txt")
	writeLog(t, path, linePrefix+"You have entered The Coast.\n"+
		linePrefix+"You have entered The Tidal Island.\n")

	w := New(path, zap.NewNop())
	require.Len(t, w.readNewLines(), 2)
	require.Greater(t, w.cursor, int64(0))

	// Rotate: the replacement file is strictly shorter than the cursor,
	// so the pass must start over from offset 0.
	rotated := []byte(linePrefix + "You have entered The Mud Flats.\n")
	require.Less(t, int64(len(rotated)), w.cursor)
	require.NoError(t, os.WriteFile(path, rotated, 0o644))

	events := w.readNewLines()
	require.Len(t, events, 1)
	require.Equal(t, "The Mud Flats", events[0].ZoneName)
	require.Equal(t, int64(len(rotated)), w.cursor)
}

func TestSetFastPollingAdjustsInterval(t *testing.T) {
	w := New("unused", zap.NewNop())
	require.Equal(t, defaultPollInterval, w.pollInterval())
	w.SetFastPolling(true)
	require.Equal(t, fastPollInterval, w.pollInterval())
	w.SetFastPolling(false)
	require.Equal(t, defaultPollInterval, w.pollInterval())
}
