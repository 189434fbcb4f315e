package widgets

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// RenderLight renders one beat light; lit lights take color, unlit ones dim
func RenderLight(lit bool, on, off rune, color, dim lipgloss.Color) string {
	if lit {
		return lipgloss.NewStyle().Foreground(color).Render(string(on))
	}
	return lipgloss.NewStyle().Foreground(dim).Render(string(off))
}

// RenderBeatLights renders a row of n lights with the current one lit.
// current < 0 lights nothing.
func RenderBeatLights(n, current int, on, off rune, color, dim lipgloss.Color) string {
	var out strings.Builder
	for i := 0; i < n; i++ {
		if i > 0 {
			out.WriteString(" ")
		}
		out.WriteString(RenderLight(i == current, on, off, color, dim))
	}
	return out.String()
}

// MeterCells returns how many of width cells a level in [0,1] fills
func MeterCells(level float64, width int) int {
	if math.IsNaN(level) || level <= 0 || width <= 0 {
		return 0
	}
	if level >= 1 {
		return width
	}
	return int(math.Round(level * float64(width)))
}

// RenderMeter renders a horizontal bar followed by the level as a number
func RenderMeter(level float64, width int, full, empty rune, color, dim lipgloss.Color) string {
	n := MeterCells(level, width)
	bar := lipgloss.NewStyle().Foreground(color).Render(strings.Repeat(string(full), n)) +
		lipgloss.NewStyle().Foreground(dim).Render(strings.Repeat(string(empty), width-n))
	return fmt.Sprintf("%s %4.2f", bar, level)
}

// RenderKeyHelp formats key bindings in a friendly way
func RenderKeyHelp(sections []KeySection) string {
	var lines []string
	for _, sec := range sections {
		if sec.Title != "" {
			lines = append(lines, sec.Title)
		}
		for _, k := range sec.Keys {
			lines = append(lines, fmt.Sprintf("  %-12s %s", k.Key, k.Desc))
		}
	}
	return strings.Join(lines, "\n")
}

// RenderKeyLine formats key bindings on a single line
func RenderKeyLine(keys []KeyBinding) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k.Key + ":" + k.Desc
	}
	return strings.Join(parts, "  ")
}

// KeySection groups related key bindings
type KeySection struct {
	Title string
	Keys  []KeyBinding
}

// KeyBinding is a single key and its description
type KeyBinding struct {
	Key  string
	Desc string
}
