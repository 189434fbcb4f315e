package sequencer

import (
	"fmt"
	"time"
)

// Window configures how far ahead the scheduler queues notes and how often
// it wakes up to do so.
type Window struct {
	ScheduleAhead float64       // seconds past Clock.Now that must stay queued
	PollInterval  time.Duration // wake-up cadence
	StartOffset   float64       // pad between Play and the first beat, seconds
}

// DefaultWindow is 100ms of lookahead refreshed every 25ms
var DefaultWindow = Window{
	ScheduleAhead: 0.1,
	PollInterval:  25 * time.Millisecond,
	StartOffset:   0.1,
}

// wake-ups that must fit inside one lookahead window
const minWakeupsPerWindow = 2

// Validate checks the window invariant: the poll interval has to be well
// inside the lookahead window or a late wake-up leaves a gap.
func (w Window) Validate() error {
	if w.ScheduleAhead <= 0 {
		return fmt.Errorf("schedule ahead %.3fs: must be positive", w.ScheduleAhead)
	}
	if w.PollInterval <= 0 {
		return fmt.Errorf("poll interval %s: must be positive", w.PollInterval)
	}
	if w.StartOffset < 0 {
		return fmt.Errorf("start offset %.3fs: must not be negative", w.StartOffset)
	}
	if w.PollInterval.Seconds()*minWakeupsPerWindow > w.ScheduleAhead {
		return fmt.Errorf("poll interval %s too long for %.3fs lookahead (need at least %d wake-ups per window)",
			w.PollInterval, w.ScheduleAhead, minWakeupsPerWindow)
	}
	return nil
}

// MaxJitter is the longest extra wake-up delay the window absorbs without
// a note arriving late.
func (w Window) MaxJitter() float64 {
	return w.ScheduleAhead - w.PollInterval.Seconds()
}
