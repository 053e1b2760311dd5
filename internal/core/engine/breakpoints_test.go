package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuiltinPresets(t *testing.T) {
	presets := BuiltinPresets()
	require.Len(t, presets, 2)

	acts := presets[0]
	require.Equal(t, "acts", acts.Name)
	require.Len(t, acts.Breakpoints, 9)
	require.Equal(t, "The Southern Forest", acts.Breakpoints[0].Name)
	require.Equal(t, "The Cathedral Rooftop", acts.Breakpoints[8].Name)
	for _, bp := range acts.Breakpoints {
		require.Equal(t, BreakpointZone, bp.Type)
	}

	levels := presets[1]
	require.Equal(t, "levels", levels.Name)
	require.Len(t, levels.Breakpoints, 9)
	require.Equal(t, 10, levels.Breakpoints[0].Level)
	require.Equal(t, 90, levels.Breakpoints[8].Level)
}

func TestLoadPresetFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - name: ssf-sprint
    breakpoints:
      - type: zone
        name: The Mud Flats
      - type: level
        name: Level 12
        level: 12
`), 0o644))

	presets, err := LoadPresetFile(path)
	require.NoError(t, err)
	require.Len(t, presets, 1)
	require.Equal(t, "ssf-sprint", presets[0].Name)
	require.Len(t, presets[0].Breakpoints, 2)
	require.Equal(t, BreakpointZone, presets[0].Breakpoints[0].Type)
	require.Equal(t, 12, presets[0].Breakpoints[1].Level)
}

func TestLoadPresetFileValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "missing preset name",
			yaml: "presets:\n  - breakpoints:\n      - type: zone\n        name: X\n",
		},
		{
			name: "zone without name",
			yaml: "presets:\n  - name: p\n    breakpoints:\n      - type: zone\n",
		},
		{
			name: "level without level",
			yaml: "presets:\n  - name: p\n    breakpoints:\n      - type: level\n        name: X\n",
		},
		{
			name: "unknown type",
			yaml: "presets:\n  - name: p\n    breakpoints:\n      - type: boss\n        name: X\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "presets.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0o644))

			_, err := LoadPresetFile(path)
			require.Error(t, err)
		})
	}
}

func TestResolvePreset(t *testing.T) {
	preset, err := ResolvePreset("acts", "")
	require.NoError(t, err)
	require.Equal(t, "acts", preset.Name)

	_, err = ResolvePreset("nope", "")
	require.Error(t, err)

	// Custom files take precedence over built-ins.
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
presets:
  - name: acts
    breakpoints:
      - type: zone
        name: The Coast
`), 0o644))

	preset, err = ResolvePreset("acts", path)
	require.NoError(t, err)
	require.Len(t, preset.Breakpoints, 1)
}

func TestAscendancyName(t *testing.T) {
	require.Equal(t, "Occultist", AscendancyName("Witch", 3))
	require.Equal(t, "Ascendant", AscendancyName("Scion", 1))
	require.Equal(t, "Juggernaut", AscendancyName("Marauder", 1))
	require.Equal(t, "", AscendancyName("Witch", 0), "zero means not ascended")
	require.Equal(t, "", AscendancyName("Witch", 4), "out of range")
	require.Equal(t, "", AscendancyName("Golem", 1), "unknown class")
}
