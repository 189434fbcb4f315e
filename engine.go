package main

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"go-pulse/audio"
	"go-pulse/config"
	"go-pulse/debug"
	"go-pulse/midi"
	"go-pulse/sequencer"
)

// mirrorPort is the MIDI side of the engine; *midi.Mirror implements it
type mirrorPort interface {
	sequencer.Engine
	Run(ctx context.Context)
	Close() error
}

// engine brings up audio output and the optional MIDI mirror on demand
type engine struct {
	cfg      *config.Config
	mixer    *audio.Mixer
	manager  *sequencer.Manager
	headless bool

	// ctx stops the engine's own goroutines, wg tracks them
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu     sync.Mutex
	output *audio.Output
	mirror mirrorPort
	ticker bool // headless clock running
}

func newEngine(parent context.Context, cfg *config.Config, mixer *audio.Mixer, manager *sequencer.Manager, headless bool) *engine {
	ctx, cancel := context.WithCancel(parent)
	return &engine{
		cfg:      cfg,
		mixer:    mixer,
		manager:  manager,
		headless: headless,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (e *engine) start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.headless {
		if !e.ticker {
			e.ticker = true
			e.spawn(func(ctx context.Context) {
				audio.RunHeadless(ctx, e.mixer, 10*time.Millisecond)
			})
		}
	} else if e.output == nil {
		out, err := audio.Open(e.mixer, e.cfg.BufferSize())
		if err != nil {
			return err
		}
		e.output = out
	}

	if port := e.cfg.MIDI.OutPort; port != "" && e.mirror == nil {
		mirror, err := midi.OpenMirror(e.mixer, port, uint8(e.cfg.MIDI.Channel-1), midi.GetKit(e.cfg.MIDI.Kit))
		if err != nil {
			debug.L().Warn("midi mirror unavailable", zap.String("port", port), zap.Error(err))
		} else {
			e.attach(mirror)
		}
	}

	var eng sequencer.Engine = e.mixer
	if e.mirror != nil {
		eng = e.mirror
	}
	return e.manager.SetEngine(eng)
}

// attach starts dispatching through mirror; e.mu must be held
func (e *engine) attach(mirror mirrorPort) {
	e.mirror = mirror
	e.spawn(mirror.Run)
}

func (e *engine) spawn(fn func(ctx context.Context)) {
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		fn(e.ctx)
	}()
}

// close stops playback, waits for the dispatch and clock goroutines to
// return, and only then releases the ports they write to
func (e *engine) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	_ = e.manager.Pause()
	e.cancel()
	e.wg.Wait()
	if e.mirror != nil {
		if err := e.mirror.Close(); err != nil {
			debug.L().Warn("closing midi mirror", zap.Error(err))
		}
	}
	if e.output != nil {
		if err := e.output.Close(); err != nil {
			debug.L().Warn("closing audio output", zap.Error(err))
		}
	}
}
