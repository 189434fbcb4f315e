package midi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	_ "gitlab.com/gomidi/midi/v2/drivers/rtmididrv" // Register MIDI driver
)

// ErrPortsTimeout is returned when the MIDI driver does not answer in time
var ErrPortsTimeout = errors.New("midi driver did not respond")

// ErrPortNotFound is returned when no port matches a name
var ErrPortNotFound = errors.New("midi port not found")

// PortList holds the names of the available ports
type PortList struct {
	In  []string
	Out []string
}

// Ports lists MIDI ports. Some drivers (CoreMIDI) can hang, so the scan
// gives up after timeout.
func Ports(timeout time.Duration) (PortList, error) {
	ch := make(chan PortList, 1)
	go func() {
		var pl PortList
		for _, p := range gomidi.GetInPorts() {
			pl.In = append(pl.In, p.String())
		}
		for _, p := range gomidi.GetOutPorts() {
			pl.Out = append(pl.Out, p.String())
		}
		ch <- pl
	}()

	select {
	case pl := <-ch:
		return pl, nil
	case <-time.After(timeout):
		// on macOS: sudo killall coreaudiod midiserver
		return PortList{}, ErrPortsTimeout
	}
}

// matchPort picks the first name equal to want, else the first containing it
// (case-insensitive). Returns -1 when nothing matches.
func matchPort(names []string, want string) int {
	want = strings.ToLower(strings.TrimSpace(want))
	if want == "" {
		return -1
	}
	for i, n := range names {
		if strings.ToLower(n) == want {
			return i
		}
	}
	for i, n := range names {
		if strings.Contains(strings.ToLower(n), want) {
			return i
		}
	}
	return -1
}

func findOut(name string) (drivers.Out, error) {
	outs := gomidi.GetOutPorts()
	names := make([]string, len(outs))
	for i, p := range outs {
		names[i] = p.String()
	}
	i := matchPort(names, name)
	if i < 0 {
		return nil, fmt.Errorf("out %q: %w", name, ErrPortNotFound)
	}
	return outs[i], nil
}

func findIn(name string) (drivers.In, error) {
	ins := gomidi.GetInPorts()
	names := make([]string, len(ins))
	for i, p := range ins {
		names[i] = p.String()
	}
	i := matchPort(names, name)
	if i < 0 {
		return nil, fmt.Errorf("in %q: %w", name, ErrPortNotFound)
	}
	return ins[i], nil
}
