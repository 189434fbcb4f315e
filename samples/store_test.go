package samples

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go-pulse/audio"
	"go-pulse/sequencer"
)

func newTestStore(t *testing.T) (*Store, *sequencer.Manager) {
	t.Helper()
	m, err := sequencer.NewManager()
	if err != nil {
		t.Fatal(err)
	}
	return NewStore(m, 44100), m
}

func buffer(t *testing.T, m *sequencer.Manager, voice int) *audio.Buffer {
	t.Helper()
	v, err := m.Voice(voice)
	if err != nil {
		t.Fatal(err)
	}
	return v.Buffer()
}

func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestStoreLoadPublishesBuffer(t *testing.T) {
	s, m := newTestStore(t)
	path := filepath.Join(t.TempDir(), "hat.wav")
	writeWav(t, path, 44100, 100, 0.5)

	p := s.Load(testContext(t), 2, path)
	buf, err := p.Wait(testContext(t))
	if err != nil {
		t.Fatal(err)
	}
	if buffer(t, m, 2) != buf {
		t.Error("voice 2 should hold the decoded buffer")
	}
	if s.Label(2) != "hat.wav" || s.Failed(2) {
		t.Errorf("label = %q failed = %v", s.Label(2), s.Failed(2))
	}
	select {
	case <-p.Done():
	default:
		t.Error("Done should be closed after Wait returns")
	}
}

func TestStoreFailedLoadKeepsPreviousBuffer(t *testing.T) {
	s, m := newTestStore(t)
	if err := s.LoadDefaults(); err != nil {
		t.Fatal(err)
	}
	before := buffer(t, m, 1)

	r := io.NopCloser(strings.NewReader("garbage"))
	_, err := s.LoadReader(testContext(t), 1, "broken.wav", r).Wait(testContext(t))
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
	if buffer(t, m, 1) != before {
		t.Error("failed load replaced the voice's buffer")
	}
	if !s.Failed(1) || s.Label(1) != "broken.wav" {
		t.Errorf("label = %q failed = %v", s.Label(1), s.Failed(1))
	}
}

func TestStoreMissingFileLeavesVoiceSilent(t *testing.T) {
	s, m := newTestStore(t)
	_, err := s.Load(testContext(t), 0, filepath.Join(t.TempDir(), "nope.wav")).Wait(testContext(t))
	if err == nil {
		t.Fatal("expected error")
	}
	if buffer(t, m, 0) != nil {
		t.Error("voice 0 should stay silent")
	}
}

func TestStoreInvalidVoice(t *testing.T) {
	s, _ := newTestStore(t)
	r := io.NopCloser(strings.NewReader(""))
	_, err := s.LoadReader(testContext(t), sequencer.NumVoices, "x.wav", r).Wait(testContext(t))
	if !errors.Is(err, sequencer.ErrInvalidVoice) {
		t.Fatalf("err = %v, want ErrInvalidVoice", err)
	}
}

func TestStoreLoadAll(t *testing.T) {
	s, m := newTestStore(t)
	dir := t.TempDir()
	kick := filepath.Join(dir, "a-very-long-kick-sample-name.wav")
	writeWav(t, kick, 44100, 50, 0.5)

	err := s.LoadAll(testContext(t), [sequencer.NumVoices]string{kick, "", filepath.Join(dir, "missing.wav"), ""})
	if err == nil {
		t.Fatal("expected the missing file to be reported")
	}
	if b := buffer(t, m, 0); b == nil || b.Len() != 50 {
		t.Errorf("voice 0 not loaded: %v", b)
	}
	if buffer(t, m, 1) == nil || buffer(t, m, 3) == nil {
		t.Error("empty paths should get the default click")
	}
	if buffer(t, m, 2) != nil {
		t.Error("voice 2 should stay silent")
	}
	if got := s.Label(0); got != "a-very-long-kic..." {
		t.Errorf("label = %q", got)
	}
	if got := s.Label(3); got != "click4" {
		t.Errorf("label = %q", got)
	}
}

func TestPendingWaitHonoursContext(t *testing.T) {
	p := &Pending{done: make(chan struct{})}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Wait(ctx); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v", err)
	}
}

func TestStoreLoadReaderClosesReader(t *testing.T) {
	s, _ := newTestStore(t)
	path := filepath.Join(t.TempDir(), "tom.wav")
	writeWav(t, path, 44100, 10, 0.1)
	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.LoadReader(testContext(t), 3, "tom.wav", f).Wait(testContext(t)); err != nil {
		t.Fatal(err)
	}
	if _, err := f.Read(make([]byte, 1)); err == nil {
		t.Error("reader should be closed")
	}
}

func TestStoreStaleLoadDoesNotOverwriteNewer(t *testing.T) {
	s, m := newTestStore(t)
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.wav")
	newPath := filepath.Join(dir, "new.wav")
	writeWav(t, oldPath, 44100, 30, 0.2)
	writeWav(t, newPath, 44100, 20, 0.4)
	oldBytes, err := os.ReadFile(oldPath)
	if err != nil {
		t.Fatal(err)
	}

	// the first load stalls on its reader until the second has published
	pr, pw := io.Pipe()
	older := s.LoadReader(testContext(t), 1, "old.wav", pr)
	newer, err := s.Load(testContext(t), 1, newPath).Wait(testContext(t))
	if err != nil {
		t.Fatal(err)
	}

	go func() {
		pw.Write(oldBytes)
		pw.Close()
	}()
	if _, err := older.Wait(testContext(t)); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("err = %v, want ErrSuperseded", err)
	}
	if buffer(t, m, 1) != newer {
		t.Error("stale load replaced the newer buffer")
	}
	if s.Label(1) != "new.wav" || s.Failed(1) {
		t.Errorf("label = %q failed = %v", s.Label(1), s.Failed(1))
	}
}

func TestStoreDefaultsSupersedeLoadInFlight(t *testing.T) {
	s, m := newTestStore(t)
	path := filepath.Join(t.TempDir(), "snare.wav")
	writeWav(t, path, 44100, 40, 0.3)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	pr, pw := io.Pipe()
	p := s.LoadReader(testContext(t), 2, "snare.wav", pr)
	if err := s.LoadDefaults(); err != nil {
		t.Fatal(err)
	}
	click := buffer(t, m, 2)

	go func() {
		pw.Write(data)
		pw.Close()
	}()
	if _, err := p.Wait(testContext(t)); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("err = %v, want ErrSuperseded", err)
	}
	if buffer(t, m, 2) != click || s.Label(2) != "click3" {
		t.Errorf("voice 2 = %q, want the default click", s.Label(2))
	}
}
