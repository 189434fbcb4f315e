package sequencer

// Event is a beat due for playback: voice and audio-clock time
type Event struct {
	Voice int
	At    float64
}

// Scheduler runs one lookahead pass per activation. It never counts wake-ups;
// every decision comes from the clock, so a late wake-up only batches beats.
type Scheduler struct {
	transport *Transport
	clock     Clock
	window    Window
	emit      func(Event)
}

// NewScheduler creates a scheduler over transport, sending due events to emit
func NewScheduler(t *Transport, clock Clock, w Window, emit func(Event)) *Scheduler {
	return &Scheduler{transport: t, clock: clock, window: w, emit: emit}
}

// SetClock swaps the clock, used when the engine comes up after construction
func (s *Scheduler) SetClock(c Clock) {
	s.clock = c
}

// Activate emits every beat that falls before now+ScheduleAhead, in order,
// and returns how many it emitted. It does nothing while stopped.
func (s *Scheduler) Activate() int {
	if !s.transport.playing || s.clock == nil {
		return 0
	}
	horizon := s.clock.Now() + s.window.ScheduleAhead
	n := 0
	for s.transport.next < horizon {
		ev := s.transport.advance()
		if s.emit != nil {
			s.emit(ev)
		}
		n++
	}
	return n
}
