package audio

import (
	"encoding/binary"
	"math"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultSampleRate is used when no rate is configured
const DefaultSampleRate = 44100

// DefaultChunk is the most audio one Read renders. The clock moves in steps
// of at most this much, so it has to stay well below the lookahead.
const DefaultChunk = 10 * time.Millisecond

// bytesPerFrame is two float32 channels
const bytesPerFrame = 8

type playing struct {
	start  int64 // absolute frame on the mixer timeline
	frames [][2]float32
	gain   float32
}

// Mixer sums scheduled one-shot notes into a stereo stream. Its frame
// counter is the audio clock: Now reports how much audio has been handed to
// the backend, which is the same timeline Schedule places notes on.
type Mixer struct {
	rate int
	pos  atomic.Int64

	mu    sync.Mutex
	notes []*playing

	maxFrames int          // per Read
	scratch   [][2]float32 // Read only, single backend goroutine
}

// NewMixer creates a mixer running at rate frames per second
func NewMixer(rate int) *Mixer {
	if rate <= 0 {
		rate = DefaultSampleRate
	}
	m := &Mixer{rate: rate}
	m.SetChunk(DefaultChunk)
	return m
}

// SetChunk bounds how much audio a single Read renders. Backends ask for
// their whole buffer at once; without a bound the clock would jump past
// beats the scheduler has not queued yet.
func (m *Mixer) SetChunk(d time.Duration) {
	if d <= 0 {
		d = DefaultChunk
	}
	m.maxFrames = max(1, int(d.Seconds()*float64(m.rate)))
}

// ChunkBytes returns the Read bound in bytes
func (m *Mixer) ChunkBytes() int {
	return m.maxFrames * bytesPerFrame
}

// SampleRate returns the mixer rate
func (m *Mixer) SampleRate() int {
	return m.rate
}

// Now returns seconds of audio rendered since the mixer was created
func (m *Mixer) Now() float64 {
	return float64(m.pos.Load()) / float64(m.rate)
}

// Frame returns the current position in frames
func (m *Mixer) Frame() int64 {
	return m.pos.Load()
}

// Schedule queues a note. A note whose start time already passed is started
// at the current frame rather than truncated.
func (m *Mixer) Schedule(n Note) {
	if n.Buffer.Len() == 0 {
		return
	}
	start := int64(math.Round(n.At * float64(m.rate)))

	m.mu.Lock()
	defer m.mu.Unlock()
	if pos := m.pos.Load(); start < pos {
		start = pos
	}
	m.notes = append(m.notes, &playing{
		start:  start,
		frames: n.Buffer.Frames,
		gain:   float32(n.Gain),
	})
}

// Active returns the number of notes queued or sounding
func (m *Mixer) Active() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.notes)
}

// Render mixes the next len(dst) frames into dst and advances the clock
func (m *Mixer) Render(dst [][2]float32) {
	for i := range dst {
		dst[i] = [2]float32{}
	}

	m.mu.Lock()
	pos := m.pos.Load()
	end := pos + int64(len(dst))
	kept := m.notes[:0]
	for _, n := range m.notes {
		if n.start >= end {
			kept = append(kept, n)
			continue
		}
		first := max(n.start-pos, 0)
		for i := first; i < int64(len(dst)); i++ {
			f := pos + i - n.start
			if f >= int64(len(n.frames)) {
				break
			}
			dst[i][0] += n.frames[f][0] * n.gain
			dst[i][1] += n.frames[f][1] * n.gain
		}
		if n.start+int64(len(n.frames)) > end {
			kept = append(kept, n)
		}
	}
	for i := len(kept); i < len(m.notes); i++ {
		m.notes[i] = nil
	}
	m.notes = kept
	m.pos.Store(end)
	m.mu.Unlock()

	for i := range dst {
		dst[i][0] = clip(dst[i][0])
		dst[i][1] = clip(dst[i][1])
	}
}

// Read implements io.Reader for the audio backend: interleaved stereo
// float32 little-endian. It fills at most one chunk per call.
func (m *Mixer) Read(p []byte) (int, error) {
	frames := min(len(p)/bytesPerFrame, m.maxFrames)
	if cap(m.scratch) < frames {
		m.scratch = make([][2]float32, frames)
	}
	buf := m.scratch[:frames]
	m.Render(buf)
	for i, fr := range buf {
		o := i * bytesPerFrame
		binary.LittleEndian.PutUint32(p[o:], math.Float32bits(fr[0]))
		binary.LittleEndian.PutUint32(p[o+4:], math.Float32bits(fr[1]))
	}
	return frames * bytesPerFrame, nil
}

func clip(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}
