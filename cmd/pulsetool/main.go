package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"

	"go-pulse/midi"
)

const portTimeout = 3 * time.Second

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	var err error
	switch os.Args[1] {
	case "ports":
		err = listPorts()
	case "poll":
		err = pollPorts()
	case "kit":
		err = playKit(os.Args[2:])
	case "render":
		err = render(os.Args[2:])
	default:
		usage()
	}
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("go-pulse tools")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  ports                  - List all MIDI ports")
	fmt.Println("  poll                   - Poll for port changes")
	fmt.Println("  kit <port> [kit] [ch]  - Play the four voice notes on a MIDI port")
	fmt.Println("  render -o out.wav      - Render the pattern offline to a WAV file")
}

func listPorts() error {
	fmt.Printf("(waiting up to %s...)\n", portTimeout)
	pl, err := midi.Ports(portTimeout)
	if err != nil {
		fmt.Println("Fix on macOS: sudo killall coreaudiod midiserver")
		return err
	}

	fmt.Println("=== MIDI Input Ports ===")
	for i, name := range pl.In {
		fmt.Printf("  %d: %s\n", i, name)
	}
	fmt.Println("\n=== MIDI Output Ports ===")
	for i, name := range pl.Out {
		fmt.Printf("  %d: %s\n", i, name)
	}
	return nil
}

func pollPorts() error {
	fmt.Println("Polling for port changes every 2 seconds. Ctrl+C to exit.")

	last := ""
	for {
		pl, err := midi.Ports(portTimeout)
		if err != nil {
			return err
		}
		current := strings.Join(pl.In, ",") + "|" + strings.Join(pl.Out, ",")
		if current != last {
			fmt.Printf("\n[%s] Port change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", pl.In)
			fmt.Printf("  Outputs: %v\n", pl.Out)
			last = current
		}
		time.Sleep(2 * time.Second)
	}
}

// playKit sends each voice's note once, half a second apart
func playKit(args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: pulsetool kit <port> [kit] [channel]")
	}
	kit := midi.GetKit(midi.DefaultKit)
	if len(args) > 1 {
		kit = midi.GetKit(args[1])
	}
	channel := 10
	if len(args) > 2 {
		if _, err := fmt.Sscanf(args[2], "%d", &channel); err != nil || channel < 1 || channel > 16 {
			return fmt.Errorf("bad channel %q", args[2])
		}
	}

	out, err := gomidi.FindOutPort(args[0])
	if err != nil {
		return err
	}
	send, err := gomidi.SendTo(out)
	if err != nil {
		return fmt.Errorf("open output: %w", err)
	}
	defer out.Close()

	fmt.Printf("Using output: %s (%s, channel %d)\n", out.String(), kit.Name, channel)
	ch := uint8(channel - 1)
	for v, key := range kit.Notes {
		fmt.Printf("  voice %d -> note %d\n", v+1, key)
		if err := send(gomidi.NoteOn(ch, key, 100)); err != nil {
			return err
		}
		time.Sleep(100 * time.Millisecond)
		if err := send(gomidi.NoteOff(ch, key)); err != nil {
			return err
		}
		time.Sleep(400 * time.Millisecond)
	}
	fmt.Println("Done!")
	return nil
}
