package engine

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Breakpoint types.
const (
	BreakpointZone  = "zone"
	BreakpointLevel = "level"
)

// Breakpoint is a trigger that records a split: entering a named zone
// or reaching a character level.
type Breakpoint struct {
	Type  string `yaml:"type"`
	Name  string `yaml:"name"`
	Level int    `yaml:"level,omitempty"`
}

// Preset is a named ordered list of breakpoints. The last breakpoint
// completes the run.
type Preset struct {
	Name        string       `yaml:"name"`
	Breakpoints []Breakpoint `yaml:"breakpoints"`
}

// actZones are the first zones of acts 2 through 10; entering one marks
// the previous act finished.
var actZones = []string{
	"The Southern Forest",
	"The City of Sarn",
	"The Aqueduct",
	"The Slave Pens",
	"The Twilight Strand",
	"The Broken Bridge",
	"The Sarn Ramparts",
	"The Blood Aqueduct",
	"The Cathedral Rooftop",
}

func actsPreset() Preset {
	p := Preset{Name: "acts"}
	for _, zone := range actZones {
		p.Breakpoints = append(p.Breakpoints, Breakpoint{
			Type: BreakpointZone,
			Name: zone,
		})
	}
	return p
}

func levelsPreset() Preset {
	p := Preset{Name: "levels"}
	for level := 10; level <= 90; level += 10 {
		p.Breakpoints = append(p.Breakpoints, Breakpoint{
			Type:  BreakpointLevel,
			Name:  fmt.Sprintf("Level %d", level),
			Level: level,
		})
	}
	return p
}

// BuiltinPresets returns the presets shipped with the application.
func BuiltinPresets() []Preset {
	return []Preset{actsPreset(), levelsPreset()}
}

// LoadPresetFile reads custom presets from a YAML file.
func LoadPresetFile(path string) ([]Preset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read preset file: %w", err)
	}

	var doc struct {
		Presets []Preset `yaml:"presets"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse preset file %s: %w", path, err)
	}

	for _, p := range doc.Presets {
		if p.Name == "" {
			return nil, fmt.Errorf("preset file %s: preset without a name", path)
		}
		for _, bp := range p.Breakpoints {
			switch bp.Type {
			case BreakpointZone:
				if bp.Name == "" {
					return nil, fmt.Errorf("preset %s: zone breakpoint without a name", p.Name)
				}
			case BreakpointLevel:
				if bp.Level <= 0 {
					return nil, fmt.Errorf("preset %s: level breakpoint without a level", p.Name)
				}
			default:
				return nil, fmt.Errorf("preset %s: unknown breakpoint type %q", p.Name, bp.Type)
			}
		}
	}

	return doc.Presets, nil
}

// ResolvePreset finds a preset by name, checking the optional custom
// file first and falling back to the built-ins.
func ResolvePreset(name, file string) (Preset, error) {
	if file != "" {
		presets, err := LoadPresetFile(file)
		if err != nil {
			return Preset{}, err
		}
		for _, p := range presets {
			if p.Name == name {
				return p, nil
			}
		}
	}

	for _, p := range BuiltinPresets() {
		if p.Name == name {
			return p, nil
		}
	}

	return Preset{}, fmt.Errorf("unknown breakpoint preset: %s", name)
}
