package sequencer

import (
	"math"
	"sync/atomic"

	"go-pulse/audio"
)

// NumVoices is the fixed number of playback lanes
const NumVoices = 4

// Voice is one playback lane. Its buffer slot and gain are written from
// other goroutines (decoder, UI) and read by the scheduler, so both are
// atomics: a reader sees either the old or the new value, never a mix.
type Voice struct {
	index  int
	buffer atomic.Pointer[audio.Buffer]
	gain   atomic.Uint64 // float64 bits
}

func newVoice(index int) *Voice {
	v := &Voice{index: index}
	v.SetGain(1)
	return v
}

// NewVoices returns a full set of silent voices at unity gain
func NewVoices() [NumVoices]*Voice {
	var vs [NumVoices]*Voice
	for i := range vs {
		vs[i] = newVoice(i)
	}
	return vs
}

// Index returns the voice lane number
func (v *Voice) Index() int {
	return v.index
}

// Buffer returns the currently published sample, nil when silent
func (v *Voice) Buffer() *audio.Buffer {
	return v.buffer.Load()
}

// Assign publishes a new sample; nil makes the voice silent
func (v *Voice) Assign(b *audio.Buffer) {
	v.buffer.Store(b)
}

// Gain returns the current gain
func (v *Voice) Gain() float64 {
	return math.Float64frombits(v.gain.Load())
}

// SetGain stores gain as given; callers clamp if they need to
func (v *Voice) SetGain(g float64) {
	v.gain.Store(math.Float64bits(g))
}
