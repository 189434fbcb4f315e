package sequencer

import "errors"

var (
	// ErrEngineNotReady is returned by Play before a playback engine is set
	ErrEngineNotReady = errors.New("playback engine not ready")
	// ErrInvalidTempo is returned for a non-positive tempo; the prior tempo is kept
	ErrInvalidTempo = errors.New("tempo must be positive")
	// ErrInvalidVoice is returned for a voice index outside [0, NumVoices)
	ErrInvalidVoice = errors.New("invalid voice index")
	// ErrStopped is returned when a command is posted after Run has exited
	ErrStopped = errors.New("sequencer stopped")
)
