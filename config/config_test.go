package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatal(err)
	}
	if cfg.ScheduleWindow().PollInterval != 25*time.Millisecond {
		t.Errorf("poll = %v", cfg.ScheduleWindow().PollInterval)
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tempo != 120 {
		t.Errorf("tempo = %d", cfg.Tempo)
	}
}

func TestLoadJSONKeepsDefaultsForMissingFields(t *testing.T) {
	path := writeFile(t, "config.json", `{"tempo": 90, "voices": [{"sample": "kick.wav", "gain": 0.5}]}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Tempo != 90 {
		t.Errorf("tempo = %d, want 90", cfg.Tempo)
	}
	if cfg.Voices[0].Sample != "kick.wav" || cfg.Voices[0].Level() != 0.5 {
		t.Errorf("voice 0 = %+v", cfg.Voices[0])
	}
	if cfg.Voices[2].Level() != 1 {
		t.Errorf("unset gain = %v, want 1", cfg.Voices[2].Level())
	}
	if cfg.Audio.SampleRate != 44100 || cfg.MIDI.Kit != "gm" {
		t.Errorf("defaults lost: %+v %+v", cfg.Audio, cfg.MIDI)
	}
}

func TestLoadYAML(t *testing.T) {
	yml := `
tempo: 140
window:
  scheduleAhead: 0.2
  pollMs: 50
  startOffset: 0.05
midi:
  outPort: RD-8
  channel: 10
  kit: rd8
`
	for _, name := range []string{"pulse.yml", "pulse.conf"} {
		cfg, err := Load(writeFile(t, name, yml))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if cfg.Tempo != 140 || cfg.MIDI.OutPort != "RD-8" || cfg.MIDI.Kit != "rd8" {
			t.Errorf("%s: got %+v", name, cfg)
		}
		w := cfg.ScheduleWindow()
		if w.ScheduleAhead != 0.2 || w.PollInterval != 50*time.Millisecond || w.StartOffset != 0.05 {
			t.Errorf("%s: window = %+v", name, w)
		}
	}
}

func TestLoadRejectsGarbage(t *testing.T) {
	if _, err := Load(writeFile(t, "bad.json", "{tempo: [")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	cfg := DefaultConfig()
	cfg.Tempo = 77
	cfg.Voices[3].Sample = "/tmp/hat.wav"
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tempo != 77 || got.SamplePaths()[3] != "/tmp/hat.wav" {
		t.Errorf("got %+v", got)
	}
}

func TestSaveKeepsYAMLFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pulse.yaml")
	cfg := DefaultConfig()
	cfg.Tempo = 91
	g := 0.4
	cfg.Voices[1].Gain = &g
	if err := cfg.Save(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(strings.TrimSpace(string(data)), "{") || !strings.Contains(string(data), "tempo: 91") {
		t.Fatalf("expected YAML, got:\n%s", data)
	}
	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Tempo != 91 || got.Voices[1].Level() != 0.4 || got.Voices[0].Level() != 1 {
		t.Errorf("got %+v", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero tempo", func(c *Config) { c.Tempo = 0 }},
		{"poll too slow", func(c *Config) { c.Window.PollMS = 80 }},
		{"negative offset", func(c *Config) { c.Window.StartOffset = -1 }},
		{"sample rate", func(c *Config) { c.Audio.SampleRate = 0 }},
		{"zero buffer", func(c *Config) { c.Audio.BufferMS = 0 }},
		{"buffer beyond lookahead", func(c *Config) { c.Audio.BufferMS = 80 }},
		{"buffer plus poll at lookahead", func(c *Config) { c.Audio.BufferMS = 75 }},
		{"nan gain", func(c *Config) { g := math.NaN(); c.Voices[1].Gain = &g }},
		{"midi channel", func(c *Config) { c.MIDI.Channel = 17 }},
		{"gain cc", func(c *Config) { c.MIDI.GainCC[2] = 128 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}
}
