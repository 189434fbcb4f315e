package sequencer

// DefaultTempo is the tempo of a new transport
const DefaultTempo = 120

// Tempo range offered by the controls. The transport itself accepts any
// positive tempo.
const (
	MinTempo = 30
	MaxTempo = 300
)

// ClampTempo limits bpm to [MinTempo, MaxTempo]
func ClampTempo(bpm int) int {
	return max(MinTempo, min(MaxTempo, bpm))
}

// Transport is the play/pause state machine. It has no locks: it is owned
// by the single goroutine that runs the scheduler.
type Transport struct {
	playing bool
	bpm     int
	beat    int     // next beat to emit, in [0, NumVoices)
	next    float64 // audio-clock time of that beat
}

// NewTransport creates a stopped transport at bpm (DefaultTempo when bpm <= 0)
func NewTransport(bpm int) *Transport {
	if bpm <= 0 {
		bpm = DefaultTempo
	}
	return &Transport{bpm: bpm}
}

// Playing reports the transport state
func (t *Transport) Playing() bool { return t.playing }

// Tempo returns the tempo in BPM
func (t *Transport) Tempo() int { return t.bpm }

// Beat returns the next beat to be emitted
func (t *Transport) Beat() int { return t.beat }

// NextEventTime returns the audio-clock time of the next beat
func (t *Transport) NextEventTime() float64 { return t.next }

// Interval returns the beat length in seconds at the current tempo
func (t *Transport) Interval() float64 {
	return 60.0 / float64(t.bpm)
}

// Start enters Playing from the top of the pattern, with the first beat at
// now+offset. It always re-seeds, never resuming mid-pattern.
func (t *Transport) Start(now, offset float64) {
	t.playing = true
	t.beat = 0
	t.next = now + offset
}

// Stop enters Stopped. Position is left as is and discarded by the next Start.
func (t *Transport) Stop() {
	t.playing = false
}

// SetTempo changes bpm for intervals computed from now on. The time of the
// pending beat is not touched.
func (t *Transport) SetTempo(bpm int) error {
	if bpm <= 0 {
		return ErrInvalidTempo
	}
	t.bpm = bpm
	return nil
}

// advance returns the pending beat and moves to the following one
func (t *Transport) advance() Event {
	ev := Event{Voice: t.beat, At: t.next}
	t.next += t.Interval()
	t.beat = (t.beat + 1) % NumVoices
	return ev
}
