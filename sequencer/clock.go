package sequencer

import "go-pulse/audio"

// Clock is the audio timeline, in seconds since the playback engine started.
// It must be the same time domain the engine uses to start notes.
type Clock interface {
	Now() float64
}

// ClockFunc adapts a function to Clock
type ClockFunc func() float64

func (f ClockFunc) Now() float64 { return f() }

// Engine is the playback engine: the clock plus one-shot submission
type Engine interface {
	Clock
	Schedule(n audio.Note)
}
