package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"go-pulse/audio"
	"go-pulse/config"
	"go-pulse/debug"
	"go-pulse/midi"
	"go-pulse/samples"
	"go-pulse/sequencer"
	"go-pulse/theme"
	"go-pulse/tui"
)

func main() {
	configPath := flag.String("config", "", "config file (default ~/.config/go-pulse/config.json)")
	headless := flag.Bool("headless", false, "drive the audio clock without opening a device")
	debugLog := flag.Bool("debug", false, "write a debug log to ~/.config/go-pulse/debug.log")
	flag.Parse()

	if err := run(*configPath, *headless, *debugLog); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string, headless, debugLog bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	headless = headless || cfg.Audio.Headless

	if debugLog || cfg.Debug {
		if err := debug.Enable(""); err != nil {
			return err
		}
		defer debug.Disable()
	}

	palette, err := theme.LoadOrDefault(cfg.Theme)
	if err != nil {
		return err
	}
	th := theme.New(palette)

	manager, err := sequencer.NewManager(
		sequencer.WithTempo(cfg.Tempo),
		sequencer.WithWindow(cfg.ScheduleWindow()),
	)
	if err != nil {
		return err
	}
	for i, v := range cfg.Voices {
		if err := manager.SetVoiceGain(i, v.Level()); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go manager.Run(ctx)

	mixer := audio.NewMixer(cfg.Audio.SampleRate)
	store := samples.NewStore(manager, mixer.SampleRate())
	go func() {
		if err := store.LoadAll(ctx, cfg.SamplePaths()); err != nil {
			debug.L().Warn("some samples failed to load", zap.Error(err))
		}
	}()

	if cfg.MIDI.InPort != "" {
		input, err := midi.ListenInput(cfg.MIDI.InPort, manager, midiMapping(cfg.MIDI))
		if err != nil {
			debug.L().Warn("midi input unavailable", zap.String("port", cfg.MIDI.InPort), zap.Error(err))
		} else {
			defer input.Close()
		}
	}

	eng := newEngine(ctx, cfg, mixer, manager, headless)
	defer eng.close()

	startAudio := eng.start
	if headless {
		// no device to wait for
		if err := eng.start(); err != nil {
			return err
		}
		startAudio = nil
	}

	m := tui.NewModel(manager, store, th, startAudio)
	m.SaveSettings = func(st sequencer.State) error {
		cfg.Tempo = st.Tempo
		for i, v := range st.Voices {
			g := v.Gain
			cfg.Voices[i].Gain = &g
		}
		return cfg.Save(configPath)
	}
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err = p.Run()
	return err
}

// midiMapping listens on every channel; the configured channel is for output
func midiMapping(c config.MIDIConfig) midi.Mapping {
	m := midi.Mapping{
		TransportNote: uint8(c.TransportNote),
		TempoCC:       uint8(c.TempoCC),
	}
	for i, cc := range c.GainCC {
		m.GainCC[i] = uint8(cc)
	}
	return m
}
