package sequencer

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"go-pulse/audio"
	"go-pulse/debug"
)

// Manager owns the transport and scheduler on a single goroutine (Run).
// Transport commands are posted to that goroutine and answered
// synchronously, so transport state needs no locks. Voice gain and sample
// writes go straight to the voices' atomics.
type Manager struct {
	voices    [NumVoices]*Voice
	transport *Transport
	scheduler *Scheduler
	trigger   *Trigger
	window    Window

	// loop-owned
	engine Engine
	token  uint64 // bumped on every start/stop; wake-ups carrying an old token are ignored
	timer  *time.Timer
	lastAt [NumVoices]float64

	cmds  chan func()
	wake  chan uint64
	done  chan struct{}
	state atomic.Pointer[State]
	clock atomic.Pointer[engineRef]

	// Notify UI of updates
	UpdateChan chan struct{}
}

type engineRef struct{ Engine }

// Option configures a Manager
type Option func(*Manager)

// WithWindow sets the lookahead window
func WithWindow(w Window) Option {
	return func(m *Manager) {
		m.window = w
	}
}

// WithTempo sets the starting tempo
func WithTempo(bpm int) Option {
	return func(m *Manager) {
		m.transport = NewTransport(bpm)
	}
}

// WithEngine sets the playback engine up front
func WithEngine(e Engine) Option {
	return func(m *Manager) {
		m.engine = e
	}
}

// NewManager creates a stopped sequencer. Call Run before issuing transport
// commands.
func NewManager(opts ...Option) (*Manager, error) {
	m := &Manager{
		voices:     NewVoices(),
		transport:  NewTransport(DefaultTempo),
		window:     DefaultWindow,
		cmds:       make(chan func()),
		wake:       make(chan uint64),
		done:       make(chan struct{}),
		UpdateChan: make(chan struct{}, 1),
	}
	for i := range m.lastAt {
		m.lastAt[i] = -1
	}
	for _, opt := range opts {
		opt(m)
	}
	if err := m.window.Validate(); err != nil {
		return nil, fmt.Errorf("schedule window: %w", err)
	}

	m.trigger = NewTrigger(m.voices, m.engine)
	m.scheduler = NewScheduler(m.transport, m.engine, m.window, m.emit)
	if m.engine != nil {
		m.clock.Store(&engineRef{m.engine})
	}
	m.publish()
	return m, nil
}

// Run processes commands and wake-ups until ctx is done. It must be called
// exactly once.
func (m *Manager) Run(ctx context.Context) {
	defer close(m.done)
	defer m.disarm()

	for {
		select {
		case <-ctx.Done():
			if m.transport.Playing() {
				m.transport.Stop()
				m.publish()
			}
			return
		case cmd := <-m.cmds:
			cmd()
		case tok := <-m.wake:
			if tok != m.token {
				continue // cancelled
			}
			m.activate()
		}
	}
}

// do runs fn on the scheduler goroutine and waits for its result
func (m *Manager) do(fn func() error) error {
	reply := make(chan error, 1)
	select {
	case m.cmds <- func() { reply <- fn() }:
	case <-m.done:
		return ErrStopped
	}
	return <-reply
}

// activate runs one scheduler pass and re-arms the wake-up
func (m *Manager) activate() {
	if n := m.scheduler.Activate(); n > 0 {
		debug.LogEvery(64, "sched", "emitted %d beat(s), next=%.3f", n, m.transport.NextEventTime())
		m.publish()
		m.notifyUpdate()
	}
	if m.transport.Playing() {
		m.arm()
	}
}

func (m *Manager) emit(ev Event) {
	m.lastAt[ev.Voice] = ev.At
	m.trigger.Fire(ev)
}

func (m *Manager) arm() {
	tok := m.token
	m.timer = time.AfterFunc(m.window.PollInterval, func() {
		select {
		case m.wake <- tok:
		case <-m.done:
		}
	})
}

func (m *Manager) disarm() {
	m.token++
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
}

// SetEngine installs the playback engine. Playback stops first, because
// times from the old clock mean nothing on the new one.
func (m *Manager) SetEngine(e Engine) error {
	return m.do(func() error {
		if m.transport.Playing() {
			m.stop()
		}
		m.engine = e
		m.scheduler.SetClock(e)
		m.trigger.SetEngine(e)
		if e != nil {
			m.clock.Store(&engineRef{e})
		} else {
			m.clock.Store(nil)
		}
		m.publish()
		m.notifyUpdate()
		return nil
	})
}

// Play starts from beat 0 slightly ahead of the engine clock
func (m *Manager) Play() error {
	return m.do(func() error {
		if m.engine == nil {
			return ErrEngineNotReady
		}
		if m.transport.Playing() {
			return nil
		}
		m.start()
		return nil
	})
}

// Pause stops scheduling. Notes already submitted still sound.
func (m *Manager) Pause() error {
	return m.do(func() error {
		if m.transport.Playing() {
			m.stop()
		}
		return nil
	})
}

// Toggle plays when stopped and pauses when playing, returning the new state
func (m *Manager) Toggle() (playing bool, err error) {
	err = m.do(func() error {
		if m.transport.Playing() {
			m.stop()
			return nil
		}
		if m.engine == nil {
			return ErrEngineNotReady
		}
		m.start()
		return nil
	})
	if err != nil {
		return false, err
	}
	return m.State().Playing, nil
}

func (m *Manager) start() {
	m.disarm()
	m.transport.Start(m.engine.Now(), m.window.StartOffset)
	for i := range m.lastAt {
		m.lastAt[i] = -1
	}
	debug.Log("transport", "play bpm=%d first=%.3f", m.transport.Tempo(), m.transport.NextEventTime())
	m.activate()
	m.publish()
	m.notifyUpdate()
}

func (m *Manager) stop() {
	m.disarm()
	m.transport.Stop()
	debug.Log("transport", "pause next=%.3f", m.transport.NextEventTime())
	m.publish()
	m.notifyUpdate()
}

// SetTempo changes the tempo for beats not yet computed
func (m *Manager) SetTempo(bpm int) error {
	return m.do(func() error {
		if err := m.transport.SetTempo(bpm); err != nil {
			return fmt.Errorf("set tempo %d: %w", bpm, err)
		}
		debug.Log("transport", "tempo %d", bpm)
		m.publish()
		m.notifyUpdate()
		return nil
	})
}

// SetVoiceGain sets the gain the next trigger on voice will use
func (m *Manager) SetVoiceGain(voice int, gain float64) error {
	v, err := m.Voice(voice)
	if err != nil {
		return err
	}
	v.SetGain(gain)
	m.notifyUpdate()
	return nil
}

// AssignBuffer replaces a voice's sample; nil silences it
func (m *Manager) AssignBuffer(voice int, b *audio.Buffer) error {
	v, err := m.Voice(voice)
	if err != nil {
		return err
	}
	v.Assign(b)
	m.notifyUpdate()
	return nil
}

// Voice returns a voice by index
func (m *Manager) Voice(idx int) (*Voice, error) {
	if idx < 0 || idx >= NumVoices {
		return nil, fmt.Errorf("voice %d: %w", idx, ErrInvalidVoice)
	}
	return m.voices[idx], nil
}

// Now returns the engine clock, or 0 before an engine is set
func (m *Manager) Now() float64 {
	if ref := m.clock.Load(); ref != nil {
		return ref.Now()
	}
	return 0
}

// State returns the latest snapshot
func (m *Manager) State() State {
	s := *m.state.Load()
	for i, v := range m.voices {
		s.Voices[i].Gain = v.Gain()
		s.Voices[i].Loaded = v.Buffer() != nil
	}
	return s
}

func (m *Manager) publish() {
	s := &State{
		Tempo:         m.transport.Tempo(),
		Beat:          m.transport.Beat(),
		Playing:       m.transport.Playing(),
		NextEventTime: m.transport.NextEventTime(),
		EngineReady:   m.engine != nil,
	}
	for i := range s.Voices {
		s.Voices[i].LastAt = m.lastAt[i]
	}
	m.state.Store(s)
}

// notifyUpdate wakes the UI without blocking
func (m *Manager) notifyUpdate() {
	select {
	case m.UpdateChan <- struct{}{}:
	default:
	}
}
