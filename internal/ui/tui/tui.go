package tui

import (
	"github.com/PizzaHomicide/hlsplay/internal/config"
	"github.com/PizzaHomicide/hlsplay/internal/log"
	"github.com/PizzaHomicide/hlsplay/internal/player"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui/models"
	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the terminal UI and blocks until the user quits.  observer may be nil.
func Run(cfg *config.Config, observer player.Observer) error {
	backend := player.NewBackend(cfg)
	defer func() {
		if err := backend.Close(); err != nil {
			log.Warn("Failed to close playback backend", "error", err)
		}
	}()

	queue := newEventQueue()
	status := models.NewStatusPanel()
	controller := backend.NewController(status, queue, player.WithObserver(observer))

	p := tea.NewProgram(models.NewAppModel(cfg, controller, status), tea.WithAltScreen())

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		queue.pump(p.Send)
	}()

	_, err := p.Run()

	// The event loop is gone, so the session is torn down from here
	controller.Destroy()
	queue.Close()
	<-pumpDone
	return err
}
