package models

import (
	"fmt"
	"strings"

	"github.com/PizzaHomicide/hlsplay/internal/config"
	"github.com/PizzaHomicide/hlsplay/internal/log"
	"github.com/PizzaHomicide/hlsplay/internal/player"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui/components"
	kb "github.com/PizzaHomicide/hlsplay/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui/styles"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui/util"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/lithammer/fuzzysearch/fuzzy"
)

const msgStopped = "Stopped"

// SessionController is the part of player.Controller the UI drives
type SessionController interface {
	LoadStream(raw string)
	Destroy()
	SwitchLevel(delta int)
	HandleEvent(generation uint64, ev player.Event)
	Snapshot() player.Snapshot
}

// PlayerModel is the main view: URL input, session status and the sample stream picker
type PlayerModel struct {
	width, height int
	controller    SessionController
	status        *StatusPanel
	input         textinput.Model
	spinner       spinner.Model
	spinning      bool
	samples       []config.StreamConfig
	filtered      []config.StreamConfig
	cursor        int
}

// NewPlayerModel creates the player view.  status must be the sink the controller reports to.
func NewPlayerModel(controller SessionController, status *StatusPanel, samples []config.StreamConfig) *PlayerModel {
	input := textinput.New()
	input.Placeholder = "https://example.com/stream.m3u8"
	input.Prompt = "URL: "
	input.CharLimit = 2048
	input.Focus()

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(styles.ColorHighlight).Bold(true)

	return &PlayerModel{
		controller: controller,
		status:     status,
		input:      input,
		spinner:    s,
		samples:    samples,
		filtered:   samples,
	}
}

func (m *PlayerModel) ViewType() View {
	return ViewPlayer
}

// Init initializes the model
func (m *PlayerModel) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles messages
func (m *PlayerModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case EngineEventMsg:
		m.controller.HandleEvent(msg.Generation, msg.Event)
		return m, m.syncSpinner()

	case spinner.TickMsg:
		if !m.status.Loading() {
			m.spinning = false
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if cmd := m.handleKeyMsg(msg); cmd != nil {
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	m.applyFilter()
	return m, cmd
}

func (m *PlayerModel) handleKeyMsg(msg tea.KeyMsg) tea.Cmd {
	switch kb.GetActionByKey(msg, kb.ContextPlayer) {
	case kb.ActionLoadStream:
		m.controller.LoadStream(m.input.Value())
		return tea.Batch(Handled("stream:load"), m.syncSpinner())
	case kb.ActionPlaySample:
		sample := m.SelectedSample()
		if sample == nil {
			return Handled("sample:none")
		}
		log.Info("Sample stream selected", "name", sample.Name, "url", sample.URL)
		m.input.SetValue(sample.URL)
		m.input.CursorEnd()
		m.controller.LoadStream(sample.URL)
		return tea.Batch(Handled("sample:play"), m.syncSpinner())
	case kb.ActionStopStream:
		m.controller.Destroy()
		m.status.SetLoadingVisible(false)
		m.status.SetStatus(msgStopped, player.StyleNone)
		return Handled("stream:stop")
	case kb.ActionQualityUp:
		m.controller.SwitchLevel(1)
		return Handled("quality:up")
	case kb.ActionQualityDown:
		m.controller.SwitchLevel(-1)
		return Handled("quality:down")
	case kb.ActionClearInput:
		m.input.SetValue("")
		m.applyFilter()
		return Handled("input:clear")
	case kb.ActionPreviousSample:
		if m.cursor > 0 {
			m.cursor--
		}
		return Handled("cursor_move:up")
	case kb.ActionNextSample:
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
		}
		return Handled("cursor_move:down")
	}
	return nil
}

// syncSpinner starts the spinner when the controller asked for the loading indicator
func (m *PlayerModel) syncSpinner() tea.Cmd {
	if !m.status.Loading() || m.spinning {
		return nil
	}
	m.spinning = true
	return m.spinner.Tick
}

// applyFilter narrows the sample streams to those fuzzily matching the typed text
func (m *PlayerModel) applyFilter() {
	query := strings.TrimSpace(m.input.Value())
	if query == "" {
		m.filtered = m.samples
	} else {
		var filtered []config.StreamConfig
		for _, s := range m.samples {
			if fuzzy.MatchFold(query, s.Name) || fuzzy.MatchFold(query, s.URL) {
				filtered = append(filtered, s)
			}
		}
		m.filtered = filtered
	}

	if m.cursor >= len(m.filtered) {
		m.cursor = max(len(m.filtered)-1, 0)
	}
}

// SelectedSample returns the highlighted sample stream, nil when none match
func (m *PlayerModel) SelectedSample() *config.StreamConfig {
	if m.cursor < 0 || m.cursor >= len(m.filtered) {
		return nil
	}
	return &m.filtered[m.cursor]
}

// Resize updates the dimensions
func (m *PlayerModel) Resize(width, height int) {
	m.width = width
	m.height = height
	m.input.Width = max(width-12, 10)
}

// View renders the player screen
func (m *PlayerModel) View() string {
	contentWidth := max(m.width-2, 20)

	header := styles.Header(m.width, "hlsplay")
	input := styles.ContentBox(contentWidth, m.input.View(), 0)
	status := m.status.Render(contentWidth, m.spinner.View())

	footer := components.KeyBindingsBar(m.width, components.BarFor(kb.ContextPlayer, map[kb.Action]string{
		kb.ActionLoadStream:  "Load",
		kb.ActionPlaySample:  "Play sample",
		kb.ActionStopStream:  "Stop",
		kb.ActionQualityUp:   "Next tier",
		kb.ActionQualityDown: "Previous tier",
	}, []kb.Action{kb.ActionLoadStream, kb.ActionPlaySample, kb.ActionStopStream, kb.ActionQualityUp, kb.ActionQualityDown}))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		input,
		status,
		m.renderSession(contentWidth),
		m.renderSamples(contentWidth),
		"",
		footer,
	)
}

// renderSession shows the session state and tier position beneath the status panel
func (m *PlayerModel) renderSession(width int) string {
	snap := m.controller.Snapshot()
	text := fmt.Sprintf("Session: %s", snap.State)
	if snap.State != player.StateIdle && snap.State != player.StateTerminated {
		text += fmt.Sprintf(" • %s", snap.Strategy)
	}
	if len(snap.Levels) > 0 && snap.CurrentLevel >= 0 {
		text += fmt.Sprintf(" • Tier %d/%d", snap.CurrentLevel+1, len(snap.Levels))
	}
	return styles.Muted.Render(util.TruncateString(" "+text, width))
}

// renderSamples renders the sample stream picker
func (m *PlayerModel) renderSamples(width int) string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render("Sample streams"))
	b.WriteString("\n")

	if len(m.filtered) == 0 {
		if len(m.samples) == 0 {
			b.WriteString(styles.Muted.Render("No sample streams configured"))
		} else {
			b.WriteString(styles.Muted.Render("No sample streams match the input"))
		}
		return styles.ContentBox(width, b.String(), 0)
	}

	itemWidth := max(width-6, 10)
	nameWidth := min(30, itemWidth/3)
	for i, s := range m.filtered {
		line := util.PadRight(s.Name, nameWidth) + " " + util.TruncateString(s.URL, itemWidth-nameWidth-1)
		if i == m.cursor {
			b.WriteString(styles.Selected.Render(line))
		} else {
			b.WriteString(styles.Normal.Render(line))
		}
		if i < len(m.filtered)-1 {
			b.WriteString("\n")
		}
	}
	return styles.ContentBox(width, b.String(), 0)
}
