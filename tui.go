package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/alantsov/voice-input/app"
)

var (
	titleStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("231"))
	readyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	recordingStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	busyStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	transcriptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	dimStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// tuiSink forwards machine updates into the bubbletea program.
type tuiSink struct {
	prog *tea.Program
}

func (s *tuiSink) Consume(u app.Update) {
	s.prog.Send(u)
}

type tuiModel struct {
	dst submitter

	state     app.State
	model     string
	dlModel   string
	dlPercent int
	lastText  string
	noSpeech  bool
	errLine   string
	width     int
}

func newTUIProgram(dst submitter, activeModel string) *tea.Program {
	m := tuiModel{
		dst:   dst,
		state: app.State{Phase: app.PhaseLoadingModel},
		model: activeModel,
	}
	return tea.NewProgram(m)
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.dst.Submit(app.Quit{})
			return m, tea.Quit
		}

	case app.StateChanged:
		m.state = msg.State
		if msg.State.Phase == app.PhaseShutdown {
			return m, tea.Quit
		}
		if msg.State.Phase == app.PhaseRecording {
			m.errLine = ""
		}

	case app.Transcript:
		m.lastText = msg.Text
		m.noSpeech = msg.NoSpeech

	case app.Err:
		m.errLine = msg.Message

	case app.Progress:
		m.dlModel = msg.Model
		m.dlPercent = msg.Percent

	case app.ActiveModel:
		m.model = msg.Model
		m.dlModel = ""
	}
	return m, nil
}

func (m tuiModel) phaseLine() string {
	switch m.state.Phase {
	case app.PhaseLoadingModel:
		return busyStyle.Render("⏳ loading model " + m.model)
	case app.PhaseReady:
		return readyStyle.Render("● ready") + dimStyle.Render("  hold the hotkey to dictate")
	case app.PhaseRecording:
		return recordingStyle.Render("⏺ recording...")
	case app.PhaseTranscribing:
		return busyStyle.Render("⋯ transcribing...")
	case app.PhaseFailed:
		return errStyle.Render("✗ " + m.state.String())
	case app.PhaseShutdown:
		return dimStyle.Render("shutting down")
	}
	return ""
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("voice-input"))
	b.WriteString(dimStyle.Render("  [" + m.model + "]"))
	b.WriteString("\n\n")
	b.WriteString(m.phaseLine())
	b.WriteString("\n")

	if m.dlModel != "" && m.dlPercent < 100 {
		b.WriteString(progressBar(m.dlPercent, 30))
		b.WriteString(dimStyle.Render(fmt.Sprintf(" %s %d%%", m.dlModel, m.dlPercent)))
		b.WriteString("\n")
	}

	if m.lastText != "" {
		b.WriteString("\n")
		b.WriteString(transcriptStyle.Render("> " + m.lastText))
		b.WriteString("\n")
	} else if m.noSpeech {
		b.WriteString("\n")
		b.WriteString(dimStyle.Render("(no speech detected)"))
		b.WriteString("\n")
	}

	if m.errLine != "" {
		b.WriteString("\n")
		b.WriteString(errStyle.Render("! " + m.errLine))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(dimStyle.Render("q to quit"))
	b.WriteString("\n")
	return b.String()
}

func progressBar(pct, width int) string {
	filled := pct * width / 100
	if filled > width {
		filled = width
	}
	return busyStyle.Render(strings.Repeat("█", filled)) +
		dimStyle.Render(strings.Repeat("░", width-filled))
}
