package styles

import (
	"github.com/charmbracelet/lipgloss"
)

const (
	ColorAccent    = lipgloss.Color("#7D56F4")
	ColorHighlight = lipgloss.Color("#9D86FF")
	ColorOK        = lipgloss.Color("#43BF6D")
	ColorError     = lipgloss.Color("#F25D5D")
	ColorMuted     = lipgloss.Color("#AAAAAA")
	ColorBorder    = lipgloss.Color("#555555")
)

var (
	// Text styles
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FAFAFA")).
		Background(ColorAccent).
		Padding(0, 1)

	Info = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#DEDEDE"))

	Muted = lipgloss.NewStyle().
		Foreground(ColorMuted)

	Url = lipgloss.NewStyle().
		Foreground(ColorOK).
		Underline(true)

	Label = lipgloss.NewStyle().
		Foreground(ColorMuted).
		Width(10)

	// Status message styles
	StatusNone = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF"))

	StatusError = lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true)

	StatusConnected = lipgloss.NewStyle().
			Foreground(ColorOK).
			Bold(true)

	LiveBadge = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorError).
			Padding(0, 1)

	Selected = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(ColorAccent).
			Padding(0, 1)

	Normal = lipgloss.NewStyle().
		Padding(0, 1)
)

// Layout helpers
func Header(width int, title string) string {
	return Title.
		Width(width).
		Align(lipgloss.Center).
		Render(title)
}

func ContentBox(width int, content string, padding int) string {
	return lipgloss.NewStyle().
		Width(width).
		Padding(padding).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorBorder).
		Render(content)
}

func CenteredView(width int, height int, content string) string {
	return lipgloss.NewStyle().
		Width(width).
		Height(height).
		Align(lipgloss.Center, lipgloss.Center).
		Render(content)
}

func CenteredText(width int, text string) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Render(text)
}
