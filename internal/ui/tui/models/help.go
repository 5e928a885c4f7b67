package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PizzaHomicide/hlsplay/internal/config"
	kb "github.com/PizzaHomicide/hlsplay/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui/styles"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// HelpModel displays keybindings and configuration help with scrolling
type HelpModel struct {
	width, height int
	viewport      viewport.Model
}

// NewHelpModel creates a new help model
func NewHelpModel() *HelpModel {
	return &HelpModel{
		viewport: viewport.New(0, 0),
	}
}

func (m *HelpModel) ViewType() View {
	return ViewHelp
}

// Init initializes the model
func (m *HelpModel) Init() tea.Cmd {
	if m.width > 0 && m.height > 0 {
		m.updateContent()
	}
	return nil
}

// Update handles messages
func (m *HelpModel) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextHelp) {
		case kb.ActionMoveUp, kb.ActionMoveDown, kb.ActionPageUp, kb.ActionPageDown:
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case kb.ActionMoveTop:
			m.viewport.GotoTop()
			return m, cmd
		case kb.ActionMoveBottom:
			m.viewport.GotoBottom()
			return m, cmd
		}
	}
	return m, cmd
}

// Resize updates the dimensions
func (m *HelpModel) Resize(width, height int) {
	m.width = width
	m.height = height

	// Account for borders, header, footer and spacing
	m.viewport.Width = max(width-4, 1)
	m.viewport.Height = max(height-10, 1)

	m.updateContent()
}

// updateContent generates help content and updates the viewport
func (m *HelpModel) updateContent() {
	m.viewport.SetContent(m.generateHelpContent())
	m.viewport.GotoTop()
}

// View renders the help screen
func (m *HelpModel) View() string {
	header := styles.Header(m.width, "Help")

	scrollText := "↑/↓: Scroll • PgUp/PgDn: Page scroll • Home/End: Goto top/bottom • ESC: Return"
	footer := styles.CenteredText(m.width, styles.Info.Render(scrollText))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		header,
		"",
		styles.ContentBox(m.width-2, m.viewport.View(), 1),
		"",
		footer,
	)
}

// formatKeybindingSection formats a section of keybindings with aligned colons
func formatKeybindingSection(title string, bindings []kb.Binding) string {
	if len(bindings) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Render(title))
	b.WriteString("\n\n")

	keyText := func(binding kb.Binding) string {
		if binding.KeyMap.Secondary != "" {
			return binding.KeyMap.Primary + " or " + binding.KeyMap.Secondary
		}
		return binding.KeyMap.Primary
	}

	maxKeyWidth := 0
	for _, binding := range bindings {
		maxKeyWidth = max(maxKeyWidth, utf8.RuneCountInString(keyText(binding)))
	}

	for _, binding := range bindings {
		key := keyText(binding)
		padding := strings.Repeat(" ", maxKeyWidth-utf8.RuneCountInString(key))
		b.WriteString(fmt.Sprintf("• %s%s : %s\n",
			lipgloss.NewStyle().Bold(true).Render(key),
			padding,
			binding.KeyMap.Help))
	}

	return b.String()
}

// generateHelpContent builds the complete help content
func (m *HelpModel) generateHelpContent() string {
	var b strings.Builder

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(styles.ColorAccent)

	b.WriteString(titleStyle.Render("Player"))
	b.WriteString("\n\n")
	b.WriteString("Enter an HLS URL (anything containing .m3u8) and press enter to play it in mpv, " +
		"or highlight one of the sample streams and press tab.  Typing filters the sample streams.\n\n" +
		"The status panel shows whether the stream is live, the active quality tier and, for live streams, " +
		"the estimated distance to the live edge.  Network errors retry and media errors recover automatically.")
	b.WriteString("\n\n")

	b.WriteString(titleStyle.Render("Keybindings"))
	b.WriteString("\n\n")
	b.WriteString(formatKeybindingSection("Global commands:", kb.ContextBindings[kb.ContextGlobal]))
	b.WriteString("\n")
	b.WriteString(formatKeybindingSection("Player commands:", kb.ContextBindings[kb.ContextPlayer]))
	b.WriteString("\n")

	b.WriteString(titleStyle.Render("Environment variables"))
	b.WriteString("\n\n")
	for _, env := range config.EnvVarHelp() {
		b.WriteString(fmt.Sprintf("• %s\n  %s\n", lipgloss.NewStyle().Bold(true).Render(env[0]), env[1]))
	}

	return b.String()
}
