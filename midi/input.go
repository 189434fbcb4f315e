package midi

import (
	"fmt"
	"math"

	gomidi "gitlab.com/gomidi/midi/v2"
	"go.uber.org/zap"

	"go-pulse/debug"
	"go-pulse/sequencer"
)

// Control is the part of the sequencer a MIDI controller drives
type Control interface {
	Toggle() (bool, error)
	SetTempo(bpm int) error
	SetVoiceGain(voice int, gain float64) error
}

// Mapping assigns controller messages to sequencer controls. A zero CC
// number disables that control.
type Mapping struct {
	Channel       int   // 1-16, 0 listens on all
	TransportNote uint8 // note that toggles play/pause
	GainCC        [sequencer.NumVoices]uint8
	TempoCC       uint8
}

// DefaultMapping matches the first knobs on most small controllers
var DefaultMapping = Mapping{
	TransportNote: 60,
	GainCC:        [sequencer.NumVoices]uint8{70, 71, 72, 73},
	TempoCC:       74,
}

// Input translates incoming MIDI into sequencer calls
type Input struct {
	ctl      Control
	mapping  Mapping
	stopFunc func()
}

// NewInput creates an input adapter with no port attached
func NewInput(ctl Control, mapping Mapping) *Input {
	return &Input{ctl: ctl, mapping: mapping}
}

// ListenInput opens the in port whose name matches port
func ListenInput(port string, ctl Control, mapping Mapping) (*Input, error) {
	in, err := findIn(port)
	if err != nil {
		return nil, err
	}
	inp := NewInput(ctl, mapping)
	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		if err := inp.HandleMessage(msg); err != nil {
			debug.L().Warn("midi input", zap.String("msg", msg.String()), zap.Error(err))
		}
	})
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	inp.stopFunc = stop
	debug.Log("midi", "listening on %s", in.String())
	return inp, nil
}

// HandleMessage applies one MIDI message. Unmapped messages are ignored.
func (in *Input) HandleMessage(msg gomidi.Message) error {
	var channel, note, velocity uint8
	var cc, value uint8

	switch {
	case msg.GetNoteOn(&channel, &note, &velocity):
		if velocity == 0 || !in.onChannel(channel) || note != in.mapping.TransportNote {
			return nil
		}
		_, err := in.ctl.Toggle()
		return err

	case msg.GetControlChange(&channel, &cc, &value):
		if !in.onChannel(channel) || cc == 0 {
			return nil
		}
		if cc == in.mapping.TempoCC {
			return in.ctl.SetTempo(ccTempo(value))
		}
		for v, gainCC := range in.mapping.GainCC {
			if cc == gainCC {
				return in.ctl.SetVoiceGain(v, float64(value)/127)
			}
		}
	}
	return nil
}

func (in *Input) onChannel(channel uint8) bool {
	return in.mapping.Channel == 0 || int(channel)+1 == in.mapping.Channel
}

// ccTempo spreads a 0-127 controller value over the tempo range
func ccTempo(value uint8) int {
	span := float64(sequencer.MaxTempo - sequencer.MinTempo)
	return sequencer.MinTempo + int(math.Round(float64(value)*span/127))
}

// Close stops listening
func (in *Input) Close() error {
	if in.stopFunc != nil {
		in.stopFunc()
	}
	return nil
}
