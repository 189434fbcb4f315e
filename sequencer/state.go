package sequencer

// State is a read-only snapshot for the UI. The scheduler goroutine
// publishes a fresh one after every change; gains and sample presence are
// read live from the voices.
type State struct {
	Tempo         int                   `json:"tempo"`
	Beat          int                   `json:"beat"`
	Playing       bool                  `json:"playing"`
	NextEventTime float64               `json:"nextEventTime"`
	EngineReady   bool                  `json:"engineReady"`
	Voices        [NumVoices]VoiceState `json:"voices"`
}

// VoiceState holds per-voice display data
type VoiceState struct {
	Gain   float64 `json:"gain"`
	Loaded bool    `json:"loaded"`
	LastAt float64 `json:"lastAt"` // time of the last scheduled beat, -1 for none
}

// Sounding returns the voice whose most recent beat started at or before
// now, or -1 when nothing has played yet.
func (s State) Sounding(now float64) int {
	best, at := -1, -1.0
	for i, v := range s.Voices {
		if v.LastAt >= 0 && v.LastAt <= now && v.LastAt > at {
			best, at = i, v.LastAt
		}
	}
	return best
}
