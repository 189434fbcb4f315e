package midi

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"go-pulse/audio"
	"go-pulse/debug"
	"go-pulse/sequencer"
)

const (
	noteGate     = 0.05 // seconds between NoteOn and NoteOff
	dispatchRate = 2 * time.Millisecond
)

type timedMessage struct {
	at  float64
	msg gomidi.Message
}

// Mirror is an engine that forwards every note to the wrapped engine and
// also plays it on a MIDI output, timed against the same audio clock.
type Mirror struct {
	engine  sequencer.Engine
	send    func(msg gomidi.Message) error
	channel uint8
	kit     Kit
	closer  func() error

	mu    sync.Mutex
	queue []timedMessage // sorted by at
}

// NewMirror wraps engine. channel is 0-based.
func NewMirror(engine sequencer.Engine, send func(msg gomidi.Message) error, channel uint8, kit Kit) *Mirror {
	return &Mirror{
		engine:  engine,
		send:    send,
		channel: channel & 0x0F,
		kit:     kit,
	}
}

// OpenMirror wraps engine with the out port whose name matches port
func OpenMirror(engine sequencer.Engine, port string, channel uint8, kit Kit) (*Mirror, error) {
	out, err := findOut(port)
	if err != nil {
		return nil, err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return nil, fmt.Errorf("open output: %w", err)
	}
	m := NewMirror(engine, send, channel, kit)
	m.closer = out.Close
	debug.Log("midi", "mirroring to %s ch=%d kit=%s", out.String(), channel+1, kit.Name)
	return m, nil
}

// Now returns the wrapped engine's clock
func (m *Mirror) Now() float64 {
	return m.engine.Now()
}

// Schedule submits n to the wrapped engine and queues its MIDI note
func (m *Mirror) Schedule(n audio.Note) {
	m.engine.Schedule(n)
	if n.Voice < 0 || n.Voice >= sequencer.NumVoices {
		return
	}
	vel := velocity(n.Gain)
	if vel == 0 {
		return
	}
	key := m.kit.Notes[n.Voice]

	m.mu.Lock()
	m.insert(timedMessage{at: n.At, msg: gomidi.NoteOn(m.channel, key, vel)})
	m.insert(timedMessage{at: n.At + noteGate, msg: gomidi.NoteOff(m.channel, key)})
	m.mu.Unlock()
}

// velocity maps gain [0,1] onto MIDI velocity
func velocity(gain float64) uint8 {
	if math.IsNaN(gain) || gain <= 0 {
		return 0
	}
	return uint8(math.Round(min(gain, 1) * 127))
}

// insert keeps the queue sorted; equal times keep submission order
func (m *Mirror) insert(tm timedMessage) {
	i := sort.Search(len(m.queue), func(i int) bool { return m.queue[i].at > tm.at })
	m.queue = append(m.queue, timedMessage{})
	copy(m.queue[i+1:], m.queue[i:])
	m.queue[i] = tm
}

// Pending returns the number of queued MIDI messages
func (m *Mirror) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// Run sends queued messages as the clock reaches them. On exit, queued
// NoteOffs are sent at once so nothing hangs.
func (m *Mirror) Run(ctx context.Context) {
	ticker := time.NewTicker(dispatchRate)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.flushOff()
			return
		case <-ticker.C:
			m.dispatch(m.engine.Now())
		}
	}
}

// dispatch sends every message due at now and returns how many were sent
func (m *Mirror) dispatch(now float64) int {
	m.mu.Lock()
	n := sort.Search(len(m.queue), func(i int) bool { return m.queue[i].at > now })
	due := make([]timedMessage, n)
	copy(due, m.queue[:n])
	m.queue = m.queue[n:]
	m.mu.Unlock()

	for _, tm := range due {
		if err := m.send(tm.msg); err != nil {
			debug.L().Warn("midi send failed", zap.String("msg", tm.msg.String()), zap.Error(err))
		}
	}
	return n
}

func (m *Mirror) flushOff() {
	m.mu.Lock()
	queue := m.queue
	m.queue = nil
	m.mu.Unlock()

	var ch, key, vel uint8
	for _, tm := range queue {
		if tm.msg.GetNoteOff(&ch, &key, &vel) {
			_ = m.send(tm.msg)
		}
	}
}

// Close releases the output port
func (m *Mirror) Close() error {
	m.flushOff()
	if m.closer != nil {
		return m.closer()
	}
	return nil
}
