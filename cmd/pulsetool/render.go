package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"

	"go-pulse/audio"
	"go-pulse/config"
	"go-pulse/samples"
	"go-pulse/sequencer"
)

// renderOptions drives one offline run
type renderOptions struct {
	Seconds float64
	BPM     int
	Rate    int
	Window  sequencer.Window
	Seed    uint64
}

// voiceSlots lets the sample store publish into a bare voice set
type voiceSlots [sequencer.NumVoices]*sequencer.Voice

func (vs *voiceSlots) AssignBuffer(voice int, b *audio.Buffer) error {
	if voice < 0 || voice >= len(vs) {
		return fmt.Errorf("voice %d: %w", voice, sequencer.ErrInvalidVoice)
	}
	vs[voice].Assign(b)
	return nil
}

func render(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	out := fs.String("o", "pulse.wav", "output WAV file")
	seconds := fs.Float64("seconds", 8, "length in seconds")
	bpm := fs.Int("bpm", 0, "tempo (default from config)")
	seed := fs.Uint64("seed", 1, "seed for simulated wake-up jitter")
	configPath := fs.String("config", "", "config file")
	fs.Parse(args)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *bpm > 0 {
		cfg.Tempo = *bpm
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	voices := voiceSlots(sequencer.NewVoices())
	for i, v := range cfg.Voices {
		voices[i].SetGain(v.Level())
	}
	store := samples.NewStore(&voices, cfg.Audio.SampleRate)
	if err := store.LoadAll(context.Background(), cfg.SamplePaths()); err != nil {
		return err
	}

	frames, notes := renderOffline(voices, renderOptions{
		Seconds: *seconds,
		BPM:     cfg.Tempo,
		Rate:    cfg.Audio.SampleRate,
		Window:  cfg.ScheduleWindow(),
		Seed:    *seed,
	})

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer f.Close()

	format := beep.Format{SampleRate: beep.SampleRate(cfg.Audio.SampleRate), NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, frameStreamer(frames), format); err != nil {
		return fmt.Errorf("encode %s: %w", *out, err)
	}
	fmt.Printf("Wrote %s: %.1fs, %d notes at %d bpm\n", *out, *seconds, notes, cfg.Tempo)
	return nil
}

// renderOffline runs the scheduler against a mixer advanced by hand. Wake-ups
// come every PollInterval plus a random delay of up to MaxJitter, the worst a
// real timer is allowed to be late.
func renderOffline(voices [sequencer.NumVoices]*sequencer.Voice, opt renderOptions) ([][2]float32, int) {
	mixer := audio.NewMixer(opt.Rate)
	transport := sequencer.NewTransport(opt.BPM)
	trigger := sequencer.NewTrigger(voices, mixer)

	notes := 0
	sched := sequencer.NewScheduler(transport, mixer, opt.Window, func(ev sequencer.Event) {
		if trigger.Fire(ev) {
			notes++
		}
	})

	rng := rand.New(rand.NewPCG(opt.Seed, opt.Seed))
	total := int(opt.Seconds * float64(opt.Rate))
	out := make([][2]float32, total)

	transport.Start(mixer.Now(), opt.Window.StartOffset)
	for pos := 0; pos < total; {
		sched.Activate()
		gap := opt.Window.PollInterval.Seconds() + rng.Float64()*opt.Window.MaxJitter()
		n := max(1, int(gap*float64(opt.Rate)))
		n = min(n, total-pos)
		mixer.Render(out[pos : pos+n])
		pos += n
	}
	return out, notes
}

func frameStreamer(frames [][2]float32) beep.Streamer {
	pos := 0
	return beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if pos >= len(frames) {
			return 0, false
		}
		n := copy64(samples, frames[pos:])
		pos += n
		return n, true
	})
}

func copy64(dst [][2]float64, src [][2]float32) int {
	n := min(len(dst), len(src))
	for i := range n {
		dst[i] = [2]float64{float64(src[i][0]), float64(src[i][1])}
	}
	return n
}
