// Package logparse classifies raw Client.txt lines into typed log events.
package logparse

import (
	"regexp"
	"strconv"

	"github.com/kburke8/poe-watcher/internal/core"
)

// Every recognized line starts with a timestamp followed by
// engine-internal fields and a closing bracket before the payload,
// e.g. "2024/01/15 12:34:56 12345678 abc [INFO Client 1234] You have entered The Coast."
const timestampPattern = `(\d{4}/\d{2}/\d{2} \d{2}:\d{2}:\d{2})`

var (
	zoneEnterRe       = regexp.MustCompile(timestampPattern + `.*\] You have entered (.+)\.`)
	levelUpRe         = regexp.MustCompile(timestampPattern + `.*\] (.+?) \((.+?)\) is now level (\d+)`)
	deathRe           = regexp.MustCompile(timestampPattern + `.*\] (.+?) has been slain\.`)
	instanceDetailsRe = regexp.MustCompile(timestampPattern + `.*\] Got Instance Details`)
	loginRe           = regexp.MustCompile(timestampPattern + `.*\] Connecting to instance server`)
)

// ParseLine parses a single log line into a LogEvent.
//
// Patterns are tried in fixed priority order; the first match wins, so a
// line never produces more than one event. Lines matching no pattern
// return nil, which is the common case: the log is dominated by lines
// the watcher does not care about.
//
// ParseLine is pure and safe to call from multiple goroutines.
func ParseLine(line string) *core.LogEvent {
	if m := zoneEnterRe.FindStringSubmatch(line); m != nil {
		return &core.LogEvent{
			Type:      core.EventZoneEnter,
			Timestamp: m[1],
			ZoneName:  m[2],
		}
	}

	if m := levelUpRe.FindStringSubmatch(line); m != nil {
		level, err := strconv.Atoi(m[4])
		if err != nil {
			// A malformed level never fails the whole parse.
			level = 1
		}
		return &core.LogEvent{
			Type:           core.EventLevelUp,
			Timestamp:      m[1],
			CharacterName:  m[2],
			CharacterClass: m[3],
			Level:          level,
		}
	}

	if m := deathRe.FindStringSubmatch(line); m != nil {
		return &core.LogEvent{
			Type:          core.EventDeath,
			Timestamp:     m[1],
			CharacterName: m[2],
		}
	}

	if m := instanceDetailsRe.FindStringSubmatch(line); m != nil {
		return &core.LogEvent{
			Type:      core.EventInstanceDetails,
			Timestamp: m[1],
		}
	}

	if m := loginRe.FindStringSubmatch(line); m != nil {
		return &core.LogEvent{
			Type:      core.EventLogin,
			Timestamp: m[1],
		}
	}

	return nil
}
