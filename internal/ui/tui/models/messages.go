package models

import (
	"github.com/PizzaHomicide/hlsplay/internal/player"
	tea "github.com/charmbracelet/bubbletea"
)

// EngineEventMsg carries an engine or media surface event into the UI's event loop
type EngineEventMsg struct {
	Generation uint64
	Event      player.Event
}

// HandledMsg reports that a key press was consumed by a view
type HandledMsg struct {
	Action string
}

// Handled returns a command marking a key press as consumed
func Handled(action string) tea.Cmd {
	return func() tea.Msg {
		return HandledMsg{Action: action}
	}
}
