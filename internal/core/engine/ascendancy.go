package engine

// ascendancies lists each base class's ascendancies in the order the
// API's ascendancyClass field indexes them (1-based).
var ascendancies = map[string][]string{
	"Scion":    {"Ascendant"},
	"Marauder": {"Juggernaut", "Berserker", "Chieftain"},
	"Ranger":   {"Warden", "Deadeye", "Pathfinder"},
	"Witch":    {"Necromancer", "Elementalist", "Occultist"},
	"Duelist":  {"Slayer", "Gladiator", "Champion"},
	"Templar":  {"Inquisitor", "Hierophant", "Guardian"},
	"Shadow":   {"Assassin", "Saboteur", "Trickster"},
}

// AscendancyName resolves the ascendancy for a class and the API's
// ascendancyClass id. Zero means not ascended; unknown combinations
// return "".
func AscendancyName(class string, ascendancyClass int) string {
	if ascendancyClass <= 0 {
		return ""
	}
	names, ok := ascendancies[class]
	if !ok || ascendancyClass > len(names) {
		return ""
	}
	return names[ascendancyClass-1]
}
