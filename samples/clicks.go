package samples

import (
	"fmt"
	"math"

	"go-pulse/audio"
	"go-pulse/sequencer"
)

// click pitches, accent on the downbeat
var clickPitches = [sequencer.NumVoices]float64{1760, 1320, 1320, 1320}

const (
	clickLength = 0.03 // seconds
	clickDecay  = 150.0
)

// Clicks synthesizes the default metronome sounds, one per voice
func Clicks(rate int) [sequencer.NumVoices]*audio.Buffer {
	var out [sequencer.NumVoices]*audio.Buffer
	n := int(clickLength * float64(rate))
	for v, hz := range clickPitches {
		frames := make([][2]float32, n)
		for i := range frames {
			t := float64(i) / float64(rate)
			s := float32(0.8 * math.Sin(2*math.Pi*hz*t) * math.Exp(-clickDecay*t))
			frames[i] = [2]float32{s, s}
		}
		out[v] = &audio.Buffer{Frames: frames, SampleRate: rate}
	}
	return out
}

// ClickLabel names the default sound of voice v
func ClickLabel(v int) string {
	return fmt.Sprintf("click%d", v+1)
}
