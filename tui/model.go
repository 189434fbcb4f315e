package tui

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"go-pulse/sequencer"
	"go-pulse/theme"
	"go-pulse/widgets"
)

const (
	tempoStep  = 5
	gainStep   = 0.05
	meterWidth = 20
	labelWidth = 28
	frameRate  = 30
)

// Labels names the sample loaded into each voice
type Labels interface {
	Label(voice int) string
	Failed(voice int) bool
}

type Model struct {
	Manager *sequencer.Manager
	Samples Labels // may be nil
	Theme   *theme.Theme

	// StartAudio opens the engine and loads samples. Nil once started or
	// when the engine was ready from the beginning.
	StartAudio func() error

	// SaveSettings persists tempo and gains; nil disables the key
	SaveSettings func(sequencer.State) error

	selected int
	alert    string
	starting bool
	quitting bool
	showHelp bool
}

type UpdateMsg struct{}

type TickMsg time.Time

type startedMsg struct{ err error }

func NewModel(manager *sequencer.Manager, samples Labels, th *theme.Theme, startAudio func() error) Model {
	if th == nil {
		th = theme.New(nil)
	}
	return Model{
		Manager:    manager,
		Samples:    samples,
		Theme:      th,
		StartAudio: startAudio,
	}
}

func ListenForUpdates(manager *sequencer.Manager) tea.Cmd {
	return func() tea.Msg {
		<-manager.UpdateChan
		return UpdateMsg{}
	}
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		ListenForUpdates(m.Manager),
		tick(),
	)
}

// Selected returns the voice the gain keys act on
func (m Model) Selected() int {
	return m.selected
}

// Alert returns the message on the alert line
func (m Model) Alert() string {
	return m.alert
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case startedMsg:
		m.starting = false
		if msg.err != nil {
			m.alert = fmt.Sprintf("audio: %v", msg.err)
			return m, nil
		}
		m.StartAudio = nil
		m.alert = ""
		return m, nil

	case UpdateMsg:
		return m, ListenForUpdates(m.Manager)

	case TickMsg:
		return m, tick()
	}

	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	st := m.Manager.State()
	m.alert = ""

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		// stopping is best effort on the way out
		_ = m.Manager.Pause()
		return m, tea.Quit

	case "?":
		m.showHelp = !m.showHelp

	case "s":
		if m.StartAudio == nil || m.starting || st.EngineReady {
			return m, nil
		}
		m.starting = true
		m.alert = "starting audio..."
		start := m.StartAudio
		return m, func() tea.Msg {
			return startedMsg{err: start()}
		}

	case " ", "p":
		if _, err := m.Manager.Toggle(); err != nil {
			m.alert = m.describe(err)
		}

	case "+", "=":
		m.setTempo(st.Tempo + tempoStep)

	case "-", "_":
		m.setTempo(st.Tempo - tempoStep)

	case "w":
		if m.SaveSettings == nil {
			return m, nil
		}
		if err := m.SaveSettings(st); err != nil {
			m.alert = fmt.Sprintf("save: %v", err)
		} else {
			m.alert = "settings saved"
		}

	case "1", "2", "3", "4":
		m.selected = int(key[0] - '1')

	case "up", "k":
		m.nudgeGain(st.Voices[m.selected].Gain + gainStep)

	case "down", "j":
		m.nudgeGain(st.Voices[m.selected].Gain - gainStep)
	}
	return m, nil
}

func (m *Model) setTempo(bpm int) {
	if err := m.Manager.SetTempo(sequencer.ClampTempo(bpm)); err != nil {
		m.alert = m.describe(err)
	}
}

func (m *Model) nudgeGain(gain float64) {
	// keep steps on a 0.01 grid so repeated nudges do not drift
	gain = math.Round(max(0, min(1, gain))*100) / 100
	if err := m.Manager.SetVoiceGain(m.selected, gain); err != nil {
		m.alert = m.describe(err)
	}
}

func (m Model) describe(err error) string {
	switch {
	case errors.Is(err, sequencer.ErrEngineNotReady):
		if m.StartAudio != nil {
			return "audio not started: press s first"
		}
		return "audio engine not ready"
	case errors.Is(err, sequencer.ErrStopped):
		return "sequencer stopped"
	}
	return err.Error()
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.Manager.State()
	th := m.Theme

	headerStyle := lipgloss.NewStyle().Foreground(th.Accent())
	dimStyle := lipgloss.NewStyle().Foreground(th.Muted())
	fgStyle := lipgloss.NewStyle().Foreground(th.FG())
	alertStyle := lipgloss.NewStyle().Foreground(th.Warning())

	playState := "STOP"
	if st.Playing {
		playState = "PLAY"
	}
	engine := "audio off"
	if st.EngineReady {
		engine = fmt.Sprintf("t=%.2fs", m.Manager.Now())
	}

	sounding := -1
	if st.Playing {
		sounding = st.Sounding(m.Manager.Now())
	}

	header := headerStyle.Render(fmt.Sprintf("go-pulse  %s  %3dbpm  beat:%d  %s", playState, st.Tempo, st.Beat+1, engine))
	lights := widgets.RenderBeatLights(sequencer.NumVoices, sounding, th.Symbols.BeatOn, th.Symbols.BeatOff, th.Success(), th.Muted())

	var rows []string
	for v, vs := range st.Voices {
		cursor := " "
		if v == m.selected {
			cursor = string(th.Symbols.Selected)
		}
		label := m.label(v, vs.Loaded)
		meter := widgets.RenderMeter(vs.Gain, meterWidth, th.Symbols.MeterFull, th.Symbols.MeterEmpty, th.VoiceColor(v, sequencer.NumVoices), th.Muted())
		light := widgets.RenderLight(v == sounding, th.Symbols.BeatOn, th.Symbols.BeatOff, th.VoiceColor(v, sequencer.NumVoices), th.Muted())
		rows = append(rows, fmt.Sprintf("%s %d %s %s  %s", cursor, v+1, fgStyle.Render(padLabel(label)), meter, light))
	}

	var out strings.Builder
	out.WriteString("\n")
	out.WriteString(header)
	out.WriteString("\n\n  ")
	out.WriteString(lights)
	out.WriteString("\n\n")
	out.WriteString(strings.Join(rows, "\n"))
	out.WriteString("\n\n")
	if m.showHelp {
		out.WriteString(dimStyle.Render(widgets.RenderKeyHelp(m.keySections(st.EngineReady))))
	} else {
		out.WriteString(dimStyle.Render(widgets.RenderKeyLine(m.keyLine(st.EngineReady))))
	}
	if m.alert != "" {
		out.WriteString("\n")
		out.WriteString(alertStyle.Render(m.alert))
	}
	return out.String()
}

func (m Model) keyLine(engineReady bool) []widgets.KeyBinding {
	keys := []widgets.KeyBinding{
		{Key: "space/p", Desc: "play"},
		{Key: "+/-", Desc: "tempo"},
		{Key: "1-4", Desc: "voice"},
		{Key: "↑/↓", Desc: "gain"},
		{Key: "q", Desc: "quit"},
	}
	if m.SaveSettings != nil {
		keys = append(keys, widgets.KeyBinding{Key: "w", Desc: "save"})
	}
	if m.StartAudio != nil && !engineReady {
		keys = append([]widgets.KeyBinding{{Key: "s", Desc: "start audio"}}, keys...)
	}
	return append(keys, widgets.KeyBinding{Key: "?", Desc: "help"})
}

func (m Model) keySections(engineReady bool) []widgets.KeySection {
	transport := widgets.KeySection{
		Title: "Transport",
		Keys: []widgets.KeyBinding{
			{Key: "space, p", Desc: "start or stop"},
			{Key: "+, =", Desc: fmt.Sprintf("tempo up %d bpm", tempoStep)},
			{Key: "-, _", Desc: fmt.Sprintf("tempo down %d bpm", tempoStep)},
		},
	}
	if m.StartAudio != nil && !engineReady {
		transport.Keys = append([]widgets.KeyBinding{{Key: "s", Desc: "start audio"}}, transport.Keys...)
	}
	voices := widgets.KeySection{
		Title: "Voices",
		Keys: []widgets.KeyBinding{
			{Key: "1-4", Desc: "select voice"},
			{Key: "up, k", Desc: "raise gain"},
			{Key: "down, j", Desc: "lower gain"},
		},
	}
	app := widgets.KeySection{Title: "App"}
	if m.SaveSettings != nil {
		app.Keys = append(app.Keys, widgets.KeyBinding{Key: "w", Desc: "save tempo and gains"})
	}
	app.Keys = append(app.Keys,
		widgets.KeyBinding{Key: "?", Desc: "close help"},
		widgets.KeyBinding{Key: "q, ctrl+c", Desc: "quit"},
	)
	return []widgets.KeySection{transport, voices, app}
}

func (m Model) label(v int, loaded bool) string {
	name := ""
	if m.Samples != nil {
		name = m.Samples.Label(v)
		if name != "" && m.Samples.Failed(v) {
			name += " (failed)"
		}
	}
	if !loaded && name == "" {
		name = string(m.Theme.Symbols.Missing) + " none"
	}
	return name
}

func padLabel(s string) string {
	r := []rune(s)
	if len(r) > labelWidth {
		return string(r[:labelWidth])
	}
	return s + strings.Repeat(" ", labelWidth-len(r))
}
