package sequencer

import (
	"sync"
	"testing"
	"time"

	"go-pulse/audio"
)

// testEngine is a settable clock that records submitted notes
type testEngine struct {
	mu    sync.Mutex
	now   float64
	notes []audio.Note
}

func (e *testEngine) Now() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEngine) set(t float64) {
	e.mu.Lock()
	e.now = t
	e.mu.Unlock()
}

func (e *testEngine) Schedule(n audio.Note) {
	e.mu.Lock()
	e.notes = append(e.notes, n)
	e.mu.Unlock()
}

func (e *testEngine) submitted() []audio.Note {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]audio.Note(nil), e.notes...)
}

func click() *audio.Buffer {
	return &audio.Buffer{Frames: make([][2]float32, 8), SampleRate: 1000}
}

// waitFor polls cond until it holds or the deadline passes
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}
