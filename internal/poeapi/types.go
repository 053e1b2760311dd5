package poeapi

import (
	"encoding/json"
	"strconv"
)

// The character-window endpoints return service-defined JSON with many
// optional fields. Only the fields the application consumes are
// modeled; anything the service omits decodes to its zero value rather
// than failing.

// Character is one entry from the get-characters endpoint.
type Character struct {
	Name            string `json:"name"`
	League          string `json:"league"`
	ClassID         int    `json:"classId"`
	AscendancyClass int    `json:"ascendancyClass"`
	Class           string `json:"class"`
	Level           int    `json:"level"`
	Experience      uint64 `json:"experience"`
}

// CharacterItems is the get-items response: the equipped items plus a
// summary of the character they belong to.
type CharacterItems struct {
	Items     []Item        `json:"items"`
	Character CharacterInfo `json:"character"`
}

// CharacterInfo mirrors Character inside the get-items response.
type CharacterInfo struct {
	Name            string `json:"name"`
	League          string `json:"league"`
	ClassID         int    `json:"classId"`
	AscendancyClass int    `json:"ascendancyClass"`
	Class           string `json:"class"`
	Level           int    `json:"level"`
	Experience      uint64 `json:"experience"`
}

// Item is a single equipped or socketed item.
type Item struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	TypeLine      string         `json:"typeLine"`
	Icon          string         `json:"icon"`
	InventoryID   string         `json:"inventoryId"`
	SocketedItems []Item         `json:"socketedItems"`
	Sockets       []Socket       `json:"sockets"`
	ExplicitMods  []string       `json:"explicitMods"`
	ImplicitMods  []string       `json:"implicitMods"`
	FrameType     int            `json:"frameType"`
	X             *int           `json:"x"`
	Y             *int           `json:"y"`
	W             int            `json:"w"`
	H             int            `json:"h"`
	ItemLevel     int            `json:"ilvl"`
	Properties    []ItemProperty `json:"properties"`
}

// ItemProperty is a display property such as "Quality" or "Level".
type ItemProperty struct {
	Name   string          `json:"name"`
	Values []PropertyValue `json:"values"`
}

// PropertyValue decodes the service's [value, displayMode] pairs, where
// value may arrive as a string or a bare number.
type PropertyValue struct {
	Text        string
	DisplayMode int
}

func (v *PropertyValue) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	if len(raw) > 0 {
		var text string
		if err := json.Unmarshal(raw[0], &text); err == nil {
			v.Text = text
		} else {
			var num float64
			if err := json.Unmarshal(raw[0], &num); err != nil {
				return err
			}
			v.Text = strconv.FormatFloat(num, 'f', -1, 64)
		}
	}
	if len(raw) > 1 {
		if err := json.Unmarshal(raw[1], &v.DisplayMode); err != nil {
			return err
		}
	}
	return nil
}

func (v PropertyValue) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{v.Text, v.DisplayMode})
}

// Socket describes one socket on an item.
type Socket struct {
	Group int    `json:"group"`
	Attr  string `json:"attr"`
}

// PassiveSkills is the get-passive-skills response.
type PassiveSkills struct {
	Hashes         []uint32          `json:"hashes"`
	HashesEx       []uint32          `json:"hashes_ex"`
	MasteryEffects map[string]uint32 `json:"mastery_effects"`
}
