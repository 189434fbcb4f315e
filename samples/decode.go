package samples

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/mp3"
	"github.com/gopxl/beep/wav"

	"go-pulse/audio"
)

// ErrDecode wraps every failure to turn bytes into a buffer
var ErrDecode = errors.New("decode failed")

const resampleQuality = 4

// Decode reads a .wav or .mp3 stream into a stereo buffer at rate,
// resampling when the file rate differs. The caller closes r.
func Decode(r io.Reader, name string, rate int) (*audio.Buffer, error) {
	var (
		s      beep.StreamSeekCloser
		format beep.Format
		err    error
	)
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".wav", ".wave":
		s, format, err = wav.Decode(r)
	case ".mp3":
		s, format, err = mp3.Decode(io.NopCloser(r))
	default:
		return nil, fmt.Errorf("%w: %s: unsupported format %q", ErrDecode, name, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	defer s.Close()

	var src beep.Streamer = s
	if int(format.SampleRate) != rate {
		src = beep.Resample(resampleQuality, format.SampleRate, beep.SampleRate(rate), s)
	}

	frames := make([][2]float32, 0, s.Len())
	chunk := make([][2]float64, 1024)
	for {
		n, ok := src.Stream(chunk)
		for _, fr := range chunk[:n] {
			frames = append(frames, [2]float32{float32(fr[0]), float32(fr[1])})
		}
		if !ok {
			break
		}
	}
	if err := s.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, name, err)
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("%w: %s: no audio frames", ErrDecode, name)
	}
	return &audio.Buffer{Frames: frames, SampleRate: rate}, nil
}
