package audio

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"go-pulse/debug"
)

// Output plays a mixer through the system audio device
type Output struct {
	ctx    *oto.Context
	player *oto.Player

	mu     sync.Mutex
	closed bool
}

// Open creates the oto context and starts pulling audio from mixer.
// bufferSize bounds the backend latency and the size of each mixer read; the
// mixer clock runs ahead of the speaker by about that much.
func Open(mixer *Mixer, bufferSize time.Duration) (*Output, error) {
	if bufferSize <= 0 {
		bufferSize = DefaultChunk
	}
	mixer.SetChunk(bufferSize)

	op := &oto.NewContextOptions{
		SampleRate:   mixer.SampleRate(),
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   bufferSize,
	}

	ctx, ready, err := oto.NewContext(op)
	if err != nil {
		return nil, fmt.Errorf("cannot create oto context: %w", err)
	}
	<-ready

	player := ctx.NewPlayer(mixer)
	// the default player buffer is half a second, far beyond the lookahead
	player.SetBufferSize(mixer.ChunkBytes())
	player.Play()

	debug.Log("audio", "output open rate=%d buffer=%s", mixer.SampleRate(), bufferSize)
	return &Output{ctx: ctx, player: player}, nil
}

// Close stops playback. The oto context itself lives for the process.
func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true
	o.player.Close()
	if err := o.ctx.Suspend(); err != nil {
		return fmt.Errorf("cannot suspend oto context: %w", err)
	}
	debug.Log("audio", "output closed")
	return nil
}

// RunHeadless advances mixer in real time without an audio device, in
// chunks of the given duration. It blocks until ctx is done.
func RunHeadless(ctx context.Context, mixer *Mixer, chunk time.Duration) {
	if chunk <= 0 {
		chunk = 10 * time.Millisecond
	}
	ticker := time.NewTicker(chunk)
	defer ticker.Stop()

	buf := make([][2]float32, 0)
	started := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			// catch up to wall time so the clock does not drift behind
			want := int64(now.Sub(started).Seconds() * float64(mixer.SampleRate()))
			n := int(want - mixer.Frame())
			if n <= 0 {
				continue
			}
			if cap(buf) < n {
				buf = make([][2]float32, n)
			}
			mixer.Render(buf[:n])
		}
	}
}
