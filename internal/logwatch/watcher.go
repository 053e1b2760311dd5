// Package logwatch tails the game's Client.txt and emits typed events
// for every recognized line appended to it.
//
// The watcher subscribes to filesystem notifications on the log file's
// parent directory rather than the file itself, so an external
// delete-and-recreate of the file does not silently kill the
// subscription. All file I/O happens on a single dedicated goroutine
// that owns the byte cursor; readers never race on it.
package logwatch

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/kburke8/poe-watcher/internal/core"
	"github.com/kburke8/poe-watcher/internal/core/logparse"
)

const (
	// defaultPollInterval bounds how long the loop blocks before
	// re-checking the stop signal and re-scanning the file. Notification
	// gaps (missed fsnotify events) are covered by the read pass that
	// runs on every tick.
	defaultPollInterval = 100 * time.Millisecond

	// fastPollInterval is used while a run is actively being timed,
	// trading CPU for lower write-to-event latency.
	fastPollInterval = 25 * time.Millisecond
)

// EventFunc receives parsed events in file order.
type EventFunc func(core.LogEvent)

// Watcher tails a single log file. At most one Watcher should be active
// per file. The zero value is not usable; call New.
type Watcher struct {
	logPath string
	log     *zap.Logger

	mu       sync.Mutex
	started  bool
	stopped  bool
	fastPoll bool
	stopCh   chan struct{}
	doneCh   chan struct{}
	fsw      *fsnotify.Watcher

	// cursor is the byte offset of the next unread position. Written by
	// Start during initialization and by the loop goroutine afterwards.
	cursor int64
}

// New creates a watcher for the given log file path.
func New(logPath string, log *zap.Logger) *Watcher {
	if log == nil {
		log = zap.NewNop()
	}
	return &Watcher{
		logPath: filepath.Clean(logPath),
		log:     log,
	}
}

// Start records the current file length as the initial cursor (history
// already in the file is not replayed), installs the directory watch
// and spawns the tail loop. It fails if the file does not exist or the
// parent directory cannot be watched. A Watcher can be started once.
func (w *Watcher) Start(onEvent EventFunc) error {
	if onEvent == nil {
		return errors.New("logwatch: event callback is required")
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.started {
		return errors.New("logwatch: watcher already started")
	}

	info, err := os.Stat(w.logPath)
	if err != nil {
		return fmt.Errorf("stat log file: %w", err)
	}
	w.cursor = info.Size()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fs watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(w.logPath)); err != nil {
		_ = fsw.Close()
		return fmt.Errorf("watch log directory: %w", err)
	}

	w.fsw = fsw
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	w.started = true

	go w.loop(onEvent)

	w.log.Info("log watcher started",
		zap.String("path", w.logPath),
		zap.Int64("cursor", w.cursor))
	return nil
}

// Stop signals the loop to exit and releases the filesystem
// subscription. It blocks until the loop goroutine has returned.
// Calling Stop on an already-stopped or never-started watcher is a no-op.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.started || w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopCh)
	doneCh := w.doneCh
	w.mu.Unlock()

	<-doneCh
	_ = w.fsw.Close()
	w.log.Info("log watcher stopped", zap.String("path", w.logPath))
}

// SetFastPolling switches between the default and the short polling
// interval. It affects only the latency between a file write and event
// emission, never correctness.
func (w *Watcher) SetFastPolling(enabled bool) {
	w.mu.Lock()
	w.fastPoll = enabled
	w.mu.Unlock()
}

func (w *Watcher) pollInterval() time.Duration {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.fastPoll {
		return fastPollInterval
	}
	return defaultPollInterval
}

// loop blocks on directory notifications with a bounded timeout so the
// stop signal is observed promptly even when the log is idle. Every
// wakeup ends in a read pass: notifications for the watched file
// trigger one directly, and the timeout tick scans regardless, which
// covers dropped or coalesced notifications.
func (w *Watcher) loop(onEvent EventFunc) {
	defer close(w.doneCh)

	timer := time.NewTimer(w.pollInterval())
	defer timer.Stop()

	for {
		select {
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) == w.logPath && ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				w.emit(onEvent, w.readNewLines())
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Warn("fs watcher error", zap.Error(err))

		case <-timer.C:
			w.emit(onEvent, w.readNewLines())
		}

		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
		timer.Reset(w.pollInterval())
	}
}

func (w *Watcher) emit(onEvent EventFunc, events []core.LogEvent) {
	for _, ev := range events {
		onEvent(ev)
	}
}

// readNewLines opens the file fresh, seeks to the cursor and parses
// every complete line up to EOF, advancing the cursor only past lines
// that ended in a newline. A trailing partial line stays unconsumed
// until the rest of it is written. I/O errors abort the pass and are
// retried on the next wakeup; they never terminate the watcher.
func (w *Watcher) readNewLines() []core.LogEvent {
	f, err := os.Open(w.logPath)
	if err != nil {
		w.log.Debug("log file unavailable, will retry", zap.Error(err))
		return nil
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		w.log.Debug("stat failed during read pass", zap.Error(err))
		return nil
	}
	if info.Size() < w.cursor {
		// The file was truncated or rotated out from under us. Start
		// over from the beginning rather than seeking past EOF.
		w.log.Info("log file truncated, resetting cursor",
			zap.Int64("cursor", w.cursor),
			zap.Int64("size", info.Size()))
		w.cursor = 0
	}

	if _, err := f.Seek(w.cursor, io.SeekStart); err != nil {
		w.log.Debug("seek failed during read pass", zap.Error(err))
		return nil
	}

	var events []core.LogEvent
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			// A partial trailing line (EOF before the newline) is left
			// for the next pass; the cursor does not move past it.
			if !errors.Is(err, io.EOF) {
				w.log.Debug("read failed during read pass", zap.Error(err))
			}
			break
		}

		w.cursor += int64(len(line))
		if ev := logparse.ParseLine(strings.TrimRight(line, "\r\n")); ev != nil {
			events = append(events, *ev)
		}
	}
	return events
}

// DetectLogPath probes well-known Client.txt install locations and
// returns the first that exists, or "" if none do.
func DetectLogPath() string {
	candidates := []string{
		`C:\Program Files (x86)\Steam\steamapps\common\Path of Exile\logs\Client.txt`,
		`C:\Program Files (x86)\Grinding Gear Games\Path of Exile\logs\Client.txt`,
		`C:\Program Files\Epic Games\PathOfExile\logs\Client.txt`,
		`D:\Steam\steamapps\common\Path of Exile\logs\Client.txt`,
		`D:\SteamLibrary\steamapps\common\Path of Exile\logs\Client.txt`,
		`E:\Steam\steamapps\common\Path of Exile\logs\Client.txt`,
		`E:\SteamLibrary\steamapps\common\Path of Exile\logs\Client.txt`,
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}
