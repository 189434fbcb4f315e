package samples

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"go-pulse/audio"
	"go-pulse/debug"
	"go-pulse/sequencer"
)

// labels longer than this are shortened for display
const maxLabel = 15

// ErrSuperseded is returned by a load that finished after a newer load or
// default was chosen for the same voice
var ErrSuperseded = errors.New("superseded by a newer load")

// Assigner receives decoded buffers; *sequencer.Manager implements it
type Assigner interface {
	AssignBuffer(voice int, b *audio.Buffer) error
}

// Store decodes samples off the scheduler goroutine and publishes each one
// into its voice slot in a single atomic swap.
type Store struct {
	target Assigner
	rate   int

	mu     sync.Mutex
	labels [sequencer.NumVoices]string
	failed [sequencer.NumVoices]bool
	gen    [sequencer.NumVoices]uint64 // latest choice per voice
}

// NewStore creates a store decoding at rate and publishing to target
func NewStore(target Assigner, rate int) *Store {
	return &Store{target: target, rate: rate}
}

// Pending is a decode in flight. Completion has already published the buffer
// (or left the voice untouched on failure).
type Pending struct {
	done chan struct{}
	buf  *audio.Buffer
	err  error
}

// Done is closed when the decode finishes
func (p *Pending) Done() <-chan struct{} {
	return p.done
}

// Wait blocks until the decode finishes or ctx is done
func (p *Pending) Wait(ctx context.Context) (*audio.Buffer, error) {
	select {
	case <-p.done:
		return p.buf, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Load decodes the file at path for voice in the background
func (s *Store) Load(ctx context.Context, voice int, path string) *Pending {
	return s.start(ctx, voice, filepath.Base(path), func() (io.ReadCloser, error) {
		return os.Open(path)
	})
}

// LoadReader decodes r for voice in the background; name picks the format.
// r is closed when decoding ends.
func (s *Store) LoadReader(ctx context.Context, voice int, name string, r io.ReadCloser) *Pending {
	return s.start(ctx, voice, name, func() (io.ReadCloser, error) {
		return r, nil
	})
}

func (s *Store) start(ctx context.Context, voice int, name string, open func() (io.ReadCloser, error)) *Pending {
	p := &Pending{done: make(chan struct{})}
	gen := s.claim(voice)
	go func() {
		defer close(p.done)
		p.buf, p.err = s.decode(ctx, voice, gen, name, open)
		if errors.Is(p.err, ErrSuperseded) {
			p.buf = nil
			debug.L().Info("sample load superseded",
				zap.Int("voice", voice),
				zap.String("file", name))
			return
		}
		if p.err != nil {
			p.buf = nil
			s.setLabel(voice, gen, name, true)
			debug.L().Warn("sample not loaded",
				zap.Int("voice", voice),
				zap.String("file", name),
				zap.Error(p.err))
			return
		}
		debug.L().Info("sample loaded",
			zap.Int("voice", voice),
			zap.String("file", name),
			zap.Int("frames", p.buf.Len()),
			zap.Float64("seconds", p.buf.Duration()))
	}()
	return p
}

func (s *Store) decode(ctx context.Context, voice int, gen uint64, name string, open func() (io.ReadCloser, error)) (*audio.Buffer, error) {
	rc, err := open()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	defer rc.Close()

	if voice < 0 || voice >= sequencer.NumVoices {
		return nil, fmt.Errorf("voice %d: %w", voice, sequencer.ErrInvalidVoice)
	}

	buf, err := Decode(rc, name, s.rate)
	if err != nil {
		return nil, err
	}
	// a cancelled load must not replace a newer choice
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := s.publish(voice, gen, name, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// claim starts a new choice for voice, retiring every load still in flight
func (s *Store) claim(voice int) uint64 {
	if voice < 0 || voice >= sequencer.NumVoices {
		return 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gen[voice]++
	return s.gen[voice]
}

// publish assigns buf only while gen is still the voice's latest choice
func (s *Store) publish(voice int, gen uint64, name string, buf *audio.Buffer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[voice] != gen {
		return ErrSuperseded
	}
	if err := s.target.AssignBuffer(voice, buf); err != nil {
		return err
	}
	s.labels[voice] = shorten(name)
	s.failed[voice] = false
	return nil
}

// LoadDefaults publishes the synthesized clicks to every voice
func (s *Store) LoadDefaults() error {
	for v, buf := range Clicks(s.rate) {
		if err := s.publish(v, s.claim(v), ClickLabel(v), buf); err != nil {
			return err
		}
	}
	return nil
}

// LoadAll loads one file per voice concurrently. Voices with an empty path
// get the default click. Every load runs to completion; the first error is
// returned and the failed voices keep whatever they had.
func (s *Store) LoadAll(ctx context.Context, paths [sequencer.NumVoices]string) error {
	clicks := Clicks(s.rate)
	var g errgroup.Group
	for v, path := range paths {
		if path == "" {
			if err := s.publish(v, s.claim(v), ClickLabel(v), clicks[v]); err != nil {
				return err
			}
			continue
		}
		g.Go(func() error {
			_, err := s.Load(ctx, v, path).Wait(ctx)
			return err
		})
	}
	return g.Wait()
}

// Label returns the display name of voice's sample
func (s *Store) Label(voice int) string {
	if voice < 0 || voice >= sequencer.NumVoices {
		return ""
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.labels[voice]
}

// Failed reports whether the last load for voice failed
func (s *Store) Failed(voice int) bool {
	if voice < 0 || voice >= sequencer.NumVoices {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed[voice]
}

// setLabel records a result for voice unless a newer choice replaced gen
func (s *Store) setLabel(voice int, gen uint64, name string, failed bool) {
	if voice < 0 || voice >= sequencer.NumVoices {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.gen[voice] != gen {
		return
	}
	s.labels[voice] = shorten(name)
	s.failed[voice] = failed
}

func shorten(name string) string {
	if len(name) > maxLabel {
		return name[:maxLabel] + "..."
	}
	return name
}
