package models

import (
	"strings"

	"github.com/PizzaHomicide/hlsplay/internal/player"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// StatusPanel is the controller's status sink.  It only stores what it is told and renders it on demand, so it must
// be used from the UI's event loop like the controller itself.
type StatusPanel struct {
	status  string
	style   player.StatusStyle
	quality string
	latency string
	live    bool
	loading bool
}

var _ player.StatusSink = (*StatusPanel)(nil)

// NewStatusPanel returns a panel with nothing loaded
func NewStatusPanel() *StatusPanel {
	return &StatusPanel{
		status:  "Idle",
		style:   player.StyleNone,
		quality: player.NoValue,
		latency: player.NoValue,
	}
}

func (p *StatusPanel) SetStatus(text string, style player.StatusStyle) {
	p.status = text
	p.style = style
}

func (p *StatusPanel) SetQualityLabel(text string) {
	p.quality = text
}

func (p *StatusPanel) SetLatencyLabel(text string) {
	p.latency = text
}

func (p *StatusPanel) SetLiveBadgeVisible(visible bool) {
	p.live = visible
}

func (p *StatusPanel) SetLoadingVisible(visible bool) {
	p.loading = visible
}

// Status returns the current status text and style
func (p *StatusPanel) Status() (string, player.StatusStyle) {
	return p.status, p.style
}

// Quality returns the rendered quality label
func (p *StatusPanel) Quality() string {
	return p.quality
}

// Latency returns the rendered latency label
func (p *StatusPanel) Latency() string {
	return p.latency
}

// Live reports whether the live badge is shown
func (p *StatusPanel) Live() bool {
	return p.live
}

// Loading reports whether the loading indicator is shown
func (p *StatusPanel) Loading() bool {
	return p.loading
}

// Render draws the panel.  spinner is shown in front of the status while loading.
func (p *StatusPanel) Render(width int, spinner string) string {
	statusText := statusStyle(p.style).Render(p.status)
	if p.loading {
		statusText = spinner + " " + statusText
	}
	if p.live {
		statusText += "  " + styles.LiveBadge.Render("LIVE")
	}

	rows := []string{
		styles.Label.Render("Status") + statusText,
		styles.Label.Render("Quality") + styles.Info.Render(p.quality),
		styles.Label.Render("Latency") + styles.Info.Render(p.latency),
	}
	return styles.ContentBox(width, strings.Join(rows, "\n"), 1)
}

func statusStyle(style player.StatusStyle) lipgloss.Style {
	switch style {
	case player.StyleError:
		return styles.StatusError
	case player.StyleConnected:
		return styles.StatusConnected
	default:
		return styles.StatusNone
	}
}
