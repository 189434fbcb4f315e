package midi

import (
	"errors"
	"testing"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-pulse/sequencer"
)

type fakeControl struct {
	toggles int
	tempo   int
	voice   int
	gain    float64
	err     error
}

func (c *fakeControl) Toggle() (bool, error) {
	c.toggles++
	return c.toggles%2 == 1, c.err
}

func (c *fakeControl) SetTempo(bpm int) error {
	c.tempo = bpm
	return c.err
}

func (c *fakeControl) SetVoiceGain(voice int, gain float64) error {
	c.voice, c.gain = voice, gain
	return c.err
}

func TestInputTransportNote(t *testing.T) {
	ctl := &fakeControl{}
	in := NewInput(ctl, DefaultMapping)

	for _, msg := range []gomidi.Message{
		gomidi.NoteOn(0, 60, 100),
		gomidi.NoteOn(0, 61, 100), // other note
		gomidi.NoteOff(0, 60),
	} {
		if err := in.HandleMessage(msg); err != nil {
			t.Fatal(err)
		}
	}
	if ctl.toggles != 1 {
		t.Errorf("toggles = %d, want 1", ctl.toggles)
	}
}

func TestInputGainAndTempo(t *testing.T) {
	ctl := &fakeControl{voice: -1}
	in := NewInput(ctl, DefaultMapping)

	if err := in.HandleMessage(gomidi.ControlChange(0, 72, 127)); err != nil {
		t.Fatal(err)
	}
	if ctl.voice != 2 || ctl.gain != 1 {
		t.Errorf("voice %d gain %v, want voice 2 gain 1", ctl.voice, ctl.gain)
	}

	tests := []struct {
		value uint8
		want  int
	}{
		{0, sequencer.MinTempo},
		{127, sequencer.MaxTempo},
		{64, 166},
	}
	for _, tt := range tests {
		if err := in.HandleMessage(gomidi.ControlChange(0, 74, tt.value)); err != nil {
			t.Fatal(err)
		}
		if ctl.tempo != tt.want {
			t.Errorf("cc %d: tempo %d, want %d", tt.value, ctl.tempo, tt.want)
		}
	}
}

func TestInputChannelFilter(t *testing.T) {
	ctl := &fakeControl{}
	m := DefaultMapping
	m.Channel = 10
	in := NewInput(ctl, m)

	_ = in.HandleMessage(gomidi.NoteOn(0, 60, 100))
	if ctl.toggles != 0 {
		t.Error("message on channel 1 should be ignored")
	}
	_ = in.HandleMessage(gomidi.NoteOn(9, 60, 100))
	if ctl.toggles != 1 {
		t.Error("message on channel 10 should toggle")
	}
}

func TestInputReturnsControlError(t *testing.T) {
	ctl := &fakeControl{err: sequencer.ErrEngineNotReady}
	in := NewInput(ctl, DefaultMapping)
	err := in.HandleMessage(gomidi.NoteOn(0, 60, 100))
	if !errors.Is(err, sequencer.ErrEngineNotReady) {
		t.Errorf("err = %v", err)
	}
}

func TestMatchPort(t *testing.T) {
	names := []string{"Midi Through Port-0", "RD-8 MIDI 1", "rd-8"}
	tests := []struct {
		want string
		idx  int
	}{
		{"rd-8", 2},
		{"RD-8 midi", 1},
		{"through", 0},
		{"launchpad", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := matchPort(names, tt.want); got != tt.idx {
			t.Errorf("matchPort(%q) = %d, want %d", tt.want, got, tt.idx)
		}
	}
}
