package logparse

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kburke8/poe-watcher/internal/core"
)

const prefix = "2024/01/15 12:34:56 12345678 abc [INFO Client 1234] "

func TestParseLineZoneEnter(t *testing.T) {
	ev := ParseLine(prefix + "You have entered The Coast.")
	require.NotNil(t, ev)
	require.Equal(t, core.EventZoneEnter, ev.Type)
	require.Equal(t, "2024/01/15 12:34:56", ev.Timestamp)
	require.Equal(t, "The Coast", ev.ZoneName)
}

func TestParseLineZoneEnterKeepsInnerPunctuation(t *testing.T) {
	ev := ParseLine(prefix + "You have entered Lioneye's Watch.")
	require.NotNil(t, ev)
	require.Equal(t, "Lioneye's Watch", ev.ZoneName)
}

func TestParseLineLevelUp(t *testing.T) {
	ev := ParseLine(prefix + "TestChar (Witch) is now level 10")
	require.NotNil(t, ev)
	require.Equal(t, core.EventLevelUp, ev.Type)
	require.Equal(t, "TestChar", ev.CharacterName)
	require.Equal(t, "Witch", ev.CharacterClass)
	require.Equal(t, 10, ev.Level)
}

func TestParseLineLevelUpUnparsableLevelDefaultsToOne(t *testing.T) {
	// A digit run too large for int fails strconv and must default, not error.
	ev := ParseLine(prefix + "TestChar (Witch) is now level 99999999999999999999999")
	require.NotNil(t, ev)
	require.Equal(t, core.EventLevelUp, ev.Type)
	require.Equal(t, 1, ev.Level)
}

func TestParseLineDeath(t *testing.T) {
	ev := ParseLine(prefix + "TestChar has been slain.")
	require.NotNil(t, ev)
	require.Equal(t, core.EventDeath, ev.Type)
	require.Equal(t, "TestChar", ev.CharacterName)
}

func TestParseLineLifecycleMarkers(t *testing.T) {
	tests := []struct {
		name string
		line string
		want core.EventType
	}{
		{"instance details", prefix + "Got Instance Details from login server", core.EventInstanceDetails},
		{"login", prefix + "Connecting to instance server at 1.2.3.4:6112", core.EventLogin},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev := ParseLine(tt.line)
			require.NotNil(t, ev)
			require.Equal(t, tt.want, ev.Type)
			require.Equal(t, "2024/01/15 12:34:56", ev.Timestamp)
			require.Empty(t, ev.ZoneName)
			require.Empty(t, ev.CharacterName)
		})
	}
}

func TestParseLineUnrecognized(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"empty", ""},
		{"chatter", prefix + "Async connecting to us.login.pathofexile.com:20481"},
		{"no timestamp", "You have entered The Coast."},
		{"trade message", prefix + "@From Buyer: Hi, I would like to buy your item"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Nil(t, ParseLine(tt.line))
		})
	}
}

func TestParseLinePriorityFirstMatchWins(t *testing.T) {
	// A pathological line matching several payload shapes must yield
	// exactly one event, from the highest-priority pattern.
	ev := ParseLine(prefix + "You have entered TestChar has been slain.")
	require.NotNil(t, ev)
	require.Equal(t, core.EventZoneEnter, ev.Type)
	require.Equal(t, "TestChar has been slain", ev.ZoneName)
}
