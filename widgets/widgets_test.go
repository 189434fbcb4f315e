package widgets

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
)

const (
	on  = lipgloss.Color("#ffffff")
	dim = lipgloss.Color("#333333")
)

func TestMeterCells(t *testing.T) {
	tests := []struct {
		level float64
		width int
		want  int
	}{
		{0, 10, 0},
		{-0.5, 10, 0},
		{0.5, 10, 5},
		{0.04, 10, 0},
		{0.96, 10, 10},
		{3, 10, 10},
		{0.5, 0, 0},
	}
	for _, tt := range tests {
		if got := MeterCells(tt.level, tt.width); got != tt.want {
			t.Errorf("MeterCells(%v, %d) = %d, want %d", tt.level, tt.width, got, tt.want)
		}
	}
}

func TestRenderMeter(t *testing.T) {
	out := RenderMeter(0.25, 8, '#', '-', on, dim)
	if strings.Count(out, "#") != 2 || strings.Count(out, "-") != 6 {
		t.Errorf("meter = %q", out)
	}
	if !strings.HasSuffix(out, "0.25") {
		t.Errorf("meter should end with the level: %q", out)
	}
}

func TestRenderBeatLights(t *testing.T) {
	out := RenderBeatLights(4, 2, 'O', '.', on, dim)
	if strings.Count(out, "O") != 1 || strings.Count(out, ".") != 3 {
		t.Errorf("lights = %q", out)
	}
	if strings.Contains(RenderBeatLights(4, -1, 'O', '.', on, dim), "O") {
		t.Error("no light should be lit for -1")
	}
}

func TestRenderKeyHelp(t *testing.T) {
	out := RenderKeyHelp([]KeySection{{
		Title: "Transport",
		Keys:  []KeyBinding{{"space", "play/pause"}},
	}})
	if out != "Transport\n  space        play/pause" {
		t.Errorf("got %q", out)
	}
	if got := RenderKeyLine([]KeyBinding{{"q", "quit"}, {"s", "start"}}); got != "q:quit  s:start" {
		t.Errorf("got %q", got)
	}
}
