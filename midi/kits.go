package midi

import "go-pulse/sequencer"

// Kit maps the four voices to MIDI drum notes
type Kit struct {
	Name  string
	Notes [sequencer.NumVoices]uint8
}

// Voice order: 0 kick, 1 snare, 2 closed hat, 3 open hat

// Kits contains all available drum kit mappings
var Kits = map[string]Kit{
	"gm": {
		Name:  "General MIDI",
		Notes: [sequencer.NumVoices]uint8{36, 38, 42, 46},
	},
	"rd8": {
		Name:  "Behringer RD-8",
		Notes: [sequencer.NumVoices]uint8{36, 40, 42, 46}, // RD-8 snare is 40, not 38
	},
	"tr8s": {
		Name:  "Roland TR-8S",
		Notes: [sequencer.NumVoices]uint8{36, 38, 42, 46},
	},
	"er1": {
		Name:  "Korg ER-1",
		Notes: [sequencer.NumVoices]uint8{36, 38, 42, 46},
	},
}

// DefaultKit is the default kit name
const DefaultKit = "gm"

// KitNames returns the list of available kit names
func KitNames() []string {
	return []string{"gm", "rd8", "tr8s", "er1"}
}

// GetKit returns a kit by name, defaulting to GM if not found
func GetKit(name string) Kit {
	if kit, ok := Kits[name]; ok {
		return kit
	}
	return Kits[DefaultKit]
}
