package models

import (
	"github.com/PizzaHomicide/hlsplay/internal/config"
	"github.com/PizzaHomicide/hlsplay/internal/log"
	kb "github.com/PizzaHomicide/hlsplay/internal/ui/tui/keybindings"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel is the main application model that coordinates all child models.  It is the high level wrapper.
type AppModel struct {
	config        *config.Config
	activeModal   Modal // Track the current active 'modal overlay' if any
	width, height int

	playerModel *PlayerModel
	helpModel   *HelpModel
}

// NewAppModel creates a new instance of the main application model.  status must be the sink controller reports to.
func NewAppModel(cfg *config.Config, controller SessionController, status *StatusPanel) AppModel {
	return AppModel{
		config:      cfg,
		activeModal: ModalNone,
		playerModel: NewPlayerModel(controller, status, cfg.Streams),
		helpModel:   NewHelpModel(),
	}
}

func (m AppModel) Init() tea.Cmd {
	log.Info("Initialising hlsplay TUI", "sample_streams", len(m.config.Streams))
	return m.playerModel.Init()
}

// Update handles messages and updates the models as appropriate
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch kb.GetActionByKey(msg, kb.ContextGlobal) {
		case kb.ActionQuit:
			log.Info("Quit command received.  Shutting down...")
			return m, tea.Quit
		case kb.ActionToggleHelp:
			log.Debug("Help requested")
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
			} else {
				m.activeModal = ModalHelp
				m.helpModel.Init()
			}
			return m, nil
		case kb.ActionBack:
			if m.activeModal != ModalNone {
				m.activeModal = ModalNone
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		log.Debug("Window size changed", "old_width", m.width, "new_width", msg.Width, "old_height", m.height, "new_height", msg.Height)
		m.width = msg.Width
		m.height = msg.Height

		m.playerModel.Resize(msg.Width, msg.Height)
		m.helpModel.Resize(msg.Width, msg.Height)
		return m, nil

	case HandledMsg:
		log.Trace("Key handled", "action", msg.Action)
		return m, nil

	case EngineEventMsg:
		// Session events are processed regardless of any modal
		return m.updatePlayerView(msg)
	}

	if m.activeModal == ModalHelp {
		switch msg.(type) {
		case tea.KeyMsg, tea.MouseMsg:
			model, cmd := m.helpModel.Update(msg)
			m.helpModel = model.(*HelpModel)
			return m, cmd
		}
	}

	return m.updatePlayerView(msg)
}

func (m AppModel) View() string {
	if m.activeModal == ModalHelp {
		return m.helpModel.View()
	}
	return m.playerModel.View()
}

// updatePlayerView delegates message processing to the player model
func (m AppModel) updatePlayerView(msg tea.Msg) (tea.Model, tea.Cmd) {
	model, cmd := m.playerModel.Update(msg)
	m.playerModel = model.(*PlayerModel)
	return m, cmd
}
