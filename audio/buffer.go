package audio

// Buffer is decoded stereo PCM at a fixed sample rate. Buffers are
// immutable once published to a voice; replace, never modify.
type Buffer struct {
	Frames     [][2]float32
	SampleRate int
}

// Len returns the number of frames
func (b *Buffer) Len() int {
	if b == nil {
		return 0
	}
	return len(b.Frames)
}

// Duration returns the buffer length in seconds
func (b *Buffer) Duration() float64 {
	if b == nil || b.SampleRate <= 0 {
		return 0
	}
	return float64(len(b.Frames)) / float64(b.SampleRate)
}

// Note is a one-shot playback request: play Buffer at audio-clock time At
// (seconds) through the gain stage of Voice.
type Note struct {
	Voice  int
	Buffer *Buffer
	Gain   float64
	At     float64
}
