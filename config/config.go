package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"go-pulse/sequencer"
)

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid config")

// WindowConfig is the lookahead window
type WindowConfig struct {
	ScheduleAhead float64 `json:"scheduleAhead" yaml:"scheduleAhead"` // seconds
	PollMS        int     `json:"pollMs" yaml:"pollMs"`
	StartOffset   float64 `json:"startOffset" yaml:"startOffset"` // seconds
}

// AudioConfig configures the output device
type AudioConfig struct {
	SampleRate int  `json:"sampleRate" yaml:"sampleRate"`
	BufferMS   int  `json:"bufferMs" yaml:"bufferMs"`
	Headless   bool `json:"headless,omitempty" yaml:"headless,omitempty"` // advance the clock without a device
}

// VoiceConfig is one voice's sample and starting gain
type VoiceConfig struct {
	Sample string   `json:"sample,omitempty" yaml:"sample,omitempty"` // empty uses the built-in click
	Gain   *float64 `json:"gain,omitempty" yaml:"gain,omitempty"`
}

// Level returns the configured gain, 1 when unset
func (v VoiceConfig) Level() float64 {
	if v.Gain == nil {
		return 1
	}
	return *v.Gain
}

// MIDIConfig stores the optional MIDI mirror and controller input
type MIDIConfig struct {
	OutPort       string                   `json:"outPort,omitempty" yaml:"outPort,omitempty"`
	InPort        string                   `json:"inPort,omitempty" yaml:"inPort,omitempty"`
	Channel       int                      `json:"channel" yaml:"channel"` // 1-16
	Kit           string                   `json:"kit" yaml:"kit"`
	TransportNote int                      `json:"transportNote" yaml:"transportNote"`
	GainCC        [sequencer.NumVoices]int `json:"gainCC" yaml:"gainCC"`
	TempoCC       int                      `json:"tempoCC" yaml:"tempoCC"`
}

// Config is the main configuration structure
type Config struct {
	Tempo  int                              `json:"tempo" yaml:"tempo"`
	Window WindowConfig                     `json:"window" yaml:"window"`
	Audio  AudioConfig                      `json:"audio" yaml:"audio"`
	Voices [sequencer.NumVoices]VoiceConfig `json:"voices" yaml:"voices"`
	MIDI   MIDIConfig                       `json:"midi" yaml:"midi"`
	Theme  string                           `json:"theme,omitempty" yaml:"theme,omitempty"` // GPL palette path
	Debug  bool                             `json:"debug,omitempty" yaml:"debug,omitempty"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	w := sequencer.DefaultWindow
	return &Config{
		Tempo: sequencer.DefaultTempo,
		Window: WindowConfig{
			ScheduleAhead: w.ScheduleAhead,
			PollMS:        int(w.PollInterval / time.Millisecond),
			StartOffset:   w.StartOffset,
		},
		Audio: AudioConfig{
			SampleRate: 44100,
			BufferMS:   20,
		},
		MIDI: MIDIConfig{
			Channel:       10,
			Kit:           "gm",
			TransportNote: 60,
			GainCC:        [sequencer.NumVoices]int{70, 71, 72, 73},
			TempoCC:       74,
		},
	}
}

// ConfigDir returns the config directory path
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "go-pulse"), nil
}

// ConfigPath returns the full path to config.json
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config at path (ConfigPath when empty), or returns defaults
// if not found. Fields missing from the file keep their defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return DefaultConfig(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	cfg, err := parse(path, data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func parse(path string, data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if isYAML(path) {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
		return cfg, nil
	}

	if errJSON := json.Unmarshal(data, cfg); errJSON != nil {
		cfg = DefaultConfig()
		if errYaml := yaml.Unmarshal(data, cfg); errYaml != nil {
			return nil, fmt.Errorf("could not be parsed as .json (%v) or .yml (%v)", errJSON, errYaml)
		}
	}
	return cfg, nil
}

func isYAML(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		return true
	}
	return false
}

// Save writes the config to path (ConfigPath when empty), as YAML for .yml
// and .yaml paths and indented JSON otherwise
func (c *Config) Save(path string) error {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Create directory if it doesn't exist
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	var data []byte
	var err error
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// ScheduleWindow converts the window settings
func (c *Config) ScheduleWindow() sequencer.Window {
	return sequencer.Window{
		ScheduleAhead: c.Window.ScheduleAhead,
		PollInterval:  time.Duration(c.Window.PollMS) * time.Millisecond,
		StartOffset:   c.Window.StartOffset,
	}
}

// BufferSize returns the audio device buffer length
func (c *Config) BufferSize() time.Duration {
	return time.Duration(c.Audio.BufferMS) * time.Millisecond
}

// SamplePaths returns the configured sample per voice
func (c *Config) SamplePaths() [sequencer.NumVoices]string {
	var paths [sequencer.NumVoices]string
	for i, v := range c.Voices {
		paths[i] = v.Sample
	}
	return paths
}

// Validate checks the settings the sequencer cannot run without
func (c *Config) Validate() error {
	if c.Tempo <= 0 {
		return fmt.Errorf("%w: tempo %d", ErrInvalid, c.Tempo)
	}
	if err := c.ScheduleWindow().Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if c.Audio.SampleRate <= 0 {
		return fmt.Errorf("%w: sample rate %d", ErrInvalid, c.Audio.SampleRate)
	}
	if c.Audio.BufferMS <= 0 {
		return fmt.Errorf("%w: buffer %dms", ErrInvalid, c.Audio.BufferMS)
	}
	// the clock moves a buffer at a time and the scheduler wakes a poll
	// interval late at worst; both must fit inside the lookahead
	if w := c.ScheduleWindow(); (c.BufferSize() + w.PollInterval).Seconds() >= w.ScheduleAhead {
		return fmt.Errorf("%w: buffer %dms + poll %dms must stay under the %.0fms lookahead",
			ErrInvalid, c.Audio.BufferMS, c.Window.PollMS, w.ScheduleAhead*1000)
	}
	for i, v := range c.Voices {
		if g := v.Level(); math.IsNaN(g) || math.IsInf(g, 0) {
			return fmt.Errorf("%w: voice %d gain %v", ErrInvalid, i+1, g)
		}
	}
	if c.MIDI.Channel < 1 || c.MIDI.Channel > 16 {
		return fmt.Errorf("%w: midi channel %d", ErrInvalid, c.MIDI.Channel)
	}
	if !validMIDIByte(c.MIDI.TransportNote) || !validMIDIByte(c.MIDI.TempoCC) {
		return fmt.Errorf("%w: midi note/cc out of range", ErrInvalid)
	}
	for _, cc := range c.MIDI.GainCC {
		if !validMIDIByte(cc) {
			return fmt.Errorf("%w: gain cc %d", ErrInvalid, cc)
		}
	}
	return nil
}

func validMIDIByte(v int) bool {
	return v >= 0 && v <= 127
}
