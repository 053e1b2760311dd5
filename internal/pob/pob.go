// Package pob builds Path of Building import codes from character
// snapshots. A code is a PathOfBuilding XML document, zlib-compressed
// at best compression, then base64url-encoded.
package pob

import (
	"bytes"
	"compress/zlib"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/kburke8/poe-watcher/internal/poeapi"
)

// treeVersion is the passive-tree schema version stamped into the
// exported spec. PoB tolerates older versions and migrates on import.
const treeVersion = "3_24"

// Build is the material for one import code.
type Build struct {
	Level         int
	Class         string
	Ascendancy    string
	Items         []poeapi.Item
	PassiveHashes []uint32
	Gems          []Gem
}

// Gem is one skill gem in the exported skill set.
type Gem struct {
	Name    string
	Level   int
	Quality int
}

// FromSnapshot assembles a Build from the character-window responses.
// Gems are collected from items socketed into equipment; passives may
// be nil when the profile hid them.
func FromSnapshot(items *poeapi.CharacterItems, passives *poeapi.PassiveSkills, ascendancy string) Build {
	b := Build{
		Level:      items.Character.Level,
		Class:      items.Character.Class,
		Ascendancy: ascendancy,
	}
	if b.Class == "" {
		b.Class = "Scion"
	}
	if b.Ascendancy == "" {
		b.Ascendancy = "None"
	}

	for _, item := range items.Items {
		b.Items = append(b.Items, item)
		for _, socketed := range item.SocketedItems {
			name := socketed.TypeLine
			if name == "" {
				name = socketed.Name
			}
			gem := Gem{Name: name, Level: 1}
			for _, prop := range socketed.Properties {
				if len(prop.Values) == 0 {
					continue
				}
				switch prop.Name {
				case "Level":
					gem.Level = parseLeadingInt(prop.Values[0].Text, 1)
				case "Quality":
					gem.Quality = parseLeadingInt(prop.Values[0].Text, 0)
				}
			}
			b.Gems = append(b.Gems, gem)
		}
	}

	if passives != nil {
		b.PassiveHashes = append(b.PassiveHashes, passives.Hashes...)
	}
	return b
}

// Encode produces the shareable import code.
func Encode(b Build) (string, error) {
	doc, err := xml.MarshalIndent(buildDocument(b), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal build xml: %w", err)
	}
	content := append([]byte(xml.Header), doc...)

	var buf bytes.Buffer
	zw, err := zlib.NewWriterLevel(&buf, zlib.BestCompression)
	if err != nil {
		return "", fmt.Errorf("init compressor: %w", err)
	}
	if _, err := zw.Write(content); err != nil {
		return "", fmt.Errorf("compress build xml: %w", err)
	}
	if err := zw.Close(); err != nil {
		return "", fmt.Errorf("compress build xml: %w", err)
	}

	return base64.URLEncoding.EncodeToString(buf.Bytes()), nil
}

// Decode reverses Encode, returning the embedded XML document. It
// accepts codes produced by PoB itself, which may omit base64 padding.
func Decode(code string) (string, error) {
	code = strings.TrimSpace(code)

	raw, err := base64.URLEncoding.DecodeString(code)
	if err != nil {
		raw, err = base64.RawURLEncoding.DecodeString(code)
		if err != nil {
			return "", fmt.Errorf("decode import code: %w", err)
		}
	}

	zr, err := zlib.NewReader(bytes.NewReader(raw))
	if err != nil {
		return "", fmt.Errorf("decompress import code: %w", err)
	}
	defer zr.Close()

	content, err := io.ReadAll(zr)
	if err != nil {
		return "", fmt.Errorf("decompress import code: %w", err)
	}
	return string(content), nil
}

type pobDocument struct {
	XMLName xml.Name   `xml:"PathOfBuilding"`
	Build   buildNode  `xml:"Build"`
	Items   itemsNode  `xml:"Items"`
	Skills  skillsNode `xml:"Skills"`
	Tree    treeNode   `xml:"Tree"`
}

type buildNode struct {
	Level           int    `xml:"level,attr"`
	ClassName       string `xml:"className,attr"`
	AscendClassName string `xml:"ascendClassName,attr"`
}

type itemsNode struct {
	Items []itemNode `xml:"Item"`
}

type itemNode struct {
	ID   int    `xml:"id,attr"`
	Text string `xml:",chardata"`
}

type skillsNode struct {
	SkillSet skillSetNode `xml:"SkillSet"`
}

type skillSetNode struct {
	Gems []gemNode `xml:"Gem"`
}

type gemNode struct {
	NameSpec string `xml:"nameSpec,attr"`
	Level    int    `xml:"level,attr"`
	Quality  int    `xml:"quality,attr"`
}

type treeNode struct {
	ActiveSpec int      `xml:"activeSpec,attr"`
	Spec       specNode `xml:"Spec"`
}

type specNode struct {
	TreeVersion string `xml:"treeVersion,attr"`
	Nodes       string `xml:"nodes,attr"`
}

func buildDocument(b Build) pobDocument {
	doc := pobDocument{
		Build: buildNode{
			Level:           b.Level,
			ClassName:       b.Class,
			AscendClassName: b.Ascendancy,
		},
		Tree: treeNode{
			ActiveSpec: 1,
			Spec:       specNode{TreeVersion: treeVersion, Nodes: joinHashes(b.PassiveHashes)},
		},
	}
	if doc.Build.Level == 0 {
		doc.Build.Level = 1
	}
	if doc.Build.ClassName == "" {
		doc.Build.ClassName = "Scion"
	}
	if doc.Build.AscendClassName == "" {
		doc.Build.AscendClassName = "None"
	}

	for i, item := range b.Items {
		doc.Items.Items = append(doc.Items.Items, itemNode{
			ID:   i + 1,
			Text: "\n" + formatItem(item) + "\n",
		})
	}
	for _, gem := range b.Gems {
		doc.Skills.SkillSet.Gems = append(doc.Skills.SkillSet.Gems, gemNode{
			NameSpec: gem.Name,
			Level:    gem.Level,
			Quality:  gem.Quality,
		})
	}
	return doc
}

// rarities indexes frameType; anything past Gem clamps to the last entry.
var rarities = []string{"Normal", "Magic", "Rare", "Unique", "Gem"}

// formatItem renders one item in PoB's plain-text import format.
func formatItem(item poeapi.Item) string {
	var lines []string

	rarity := item.FrameType
	if rarity >= len(rarities) {
		rarity = len(rarities) - 1
	}
	if rarity < 0 {
		rarity = 0
	}
	lines = append(lines, "Rarity: "+rarities[rarity])

	if item.Name != "" {
		lines = append(lines, item.Name)
	}
	typeLine := item.TypeLine
	if typeLine == "" {
		typeLine = "Unknown Item"
	}
	lines = append(lines, typeLine)

	if item.ItemLevel > 0 {
		lines = append(lines, fmt.Sprintf("Item Level: %d", item.ItemLevel))
	}
	if len(item.Sockets) > 0 {
		lines = append(lines, "Sockets: "+formatSockets(item.Sockets))
	}

	lines = append(lines, item.ImplicitMods...)
	if len(item.ImplicitMods) > 0 && len(item.ExplicitMods) > 0 {
		lines = append(lines, "--------")
	}
	lines = append(lines, item.ExplicitMods...)

	return strings.Join(lines, "\n")
}

// socketColors maps the API's attribute codes to PoB socket colors.
var socketColors = map[string]string{
	"S":  "R",
	"D":  "G",
	"I":  "B",
	"G":  "W",
	"A":  "A",
	"DV": "W",
}

// formatSockets renders socket groups PoB-style: links joined with "-",
// separate groups joined with spaces, in group order.
func formatSockets(sockets []poeapi.Socket) string {
	groups := make(map[int][]string)
	for _, s := range sockets {
		color, ok := socketColors[s.Attr]
		if !ok {
			color = "W"
		}
		groups[s.Group] = append(groups[s.Group], color)
	}

	ids := make([]int, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, strings.Join(groups[id], "-"))
	}
	return strings.Join(parts, " ")
}

// parseLeadingInt reads the integer prefix of a property value such as
// "20" or "+20% (augmented)".
func parseLeadingInt(s string, fallback int) int {
	s = strings.TrimLeft(s, "+")
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return fallback
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return fallback
	}
	return n
}

func joinHashes(hashes []uint32) string {
	parts := make([]string, len(hashes))
	for i, h := range hashes {
		parts[i] = strconv.FormatUint(uint64(h), 10)
	}
	return strings.Join(parts, ",")
}
