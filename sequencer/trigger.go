package sequencer

import "go-pulse/audio"

// Trigger turns a due event into one playback request on the engine
type Trigger struct {
	voices [NumVoices]*Voice
	engine Engine
}

// NewTrigger binds voices to engine
func NewTrigger(voices [NumVoices]*Voice, engine Engine) *Trigger {
	return &Trigger{voices: voices, engine: engine}
}

// SetEngine replaces the engine
func (t *Trigger) SetEngine(e Engine) {
	t.engine = e
}

// Fire submits ev's voice sample at ev.At with the gain the voice has right
// now. A voice without a sample is skipped silently. It reports whether a
// note was submitted.
func (t *Trigger) Fire(ev Event) bool {
	if ev.Voice < 0 || ev.Voice >= NumVoices || t.engine == nil {
		return false
	}
	v := t.voices[ev.Voice]
	buf := v.Buffer()
	if buf == nil {
		return false
	}
	t.engine.Schedule(audio.Note{
		Voice:  ev.Voice,
		Buffer: buf,
		Gain:   v.Gain(),
		At:     ev.At,
	})
	return true
}
