package samples

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/wav"
)

// writeWav encodes n stereo frames of v at rate
func writeWav(t *testing.T, path string, rate, n int, v float64) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	left := n
	tone := beep.StreamerFunc(func(samples [][2]float64) (int, bool) {
		if left == 0 {
			return 0, false
		}
		k := min(len(samples), left)
		for i := range samples[:k] {
			samples[i] = [2]float64{v, v}
		}
		left -= k
		return k, true
	})
	format := beep.Format{SampleRate: beep.SampleRate(rate), NumChannels: 2, Precision: 2}
	if err := wav.Encode(f, tone, format); err != nil {
		t.Fatal(err)
	}
}

func TestDecodeWav(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kick.wav")
	writeWav(t, path, 44100, 441, 0.5)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf, err := Decode(f, path, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if buf.Len() != 441 {
		t.Errorf("frames = %d, want 441", buf.Len())
	}
	if buf.SampleRate != 44100 {
		t.Errorf("rate = %d", buf.SampleRate)
	}
	if got := buf.Frames[100][0]; math.Abs(float64(got)-0.5) > 0.001 {
		t.Errorf("sample = %v, want ~0.5", got)
	}
}

func TestDecodeResamples(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snare.WAV")
	writeWav(t, path, 22050, 2205, 0.25)

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	buf, err := Decode(f, path, 44100)
	if err != nil {
		t.Fatal(err)
	}
	if buf.SampleRate != 44100 {
		t.Errorf("rate = %d, want 44100", buf.SampleRate)
	}
	if d := buf.Len() - 4410; d < -16 || d > 16 {
		t.Errorf("frames = %d, want about 4410", buf.Len())
	}
}

func TestDecodeRejectsUnknownFormat(t *testing.T) {
	_, err := Decode(strings.NewReader("fLaC"), "kick.flac", 44100)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	_, err := Decode(strings.NewReader("definitely not a riff header"), "kick.wav", 44100)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestClicks(t *testing.T) {
	clicks := Clicks(1000)
	for v, c := range clicks {
		if c.Len() != 30 {
			t.Errorf("voice %d: %d frames, want 30", v, c.Len())
		}
		if c.Frames[0][0] != 0 {
			t.Errorf("voice %d should start at zero crossing", v)
		}
	}
	if ClickLabel(0) != "click1" {
		t.Errorf("label = %q", ClickLabel(0))
	}
}
