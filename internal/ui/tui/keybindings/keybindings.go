package keybindings

import tea "github.com/charmbracelet/bubbletea"

// Action represents a specific action that can be triggered by a key
type Action string

// Define all possible actions
const (
	// Global actions
	ActionQuit       Action = "quit"
	ActionToggleHelp Action = "toggle_help"
	ActionBack       Action = "back" // General purpose "go back" or "cancel"

	// Navigation actions
	ActionMoveUp     Action = "move_up"
	ActionMoveDown   Action = "move_down"
	ActionPageUp     Action = "page_up"
	ActionPageDown   Action = "page_down"
	ActionMoveTop    Action = "move_top"
	ActionMoveBottom Action = "move_bottom"

	// Player actions
	ActionLoadStream     Action = "load_stream"
	ActionPlaySample     Action = "play_sample"
	ActionStopStream     Action = "stop_stream"
	ActionQualityUp      Action = "quality_up"
	ActionQualityDown    Action = "quality_down"
	ActionClearInput     Action = "clear_input"
	ActionPreviousSample Action = "previous_sample"
	ActionNextSample     Action = "next_sample"
)

// ContextName represents a specific UI context in the application that has its own keybinds
type ContextName string

const (
	ContextGlobal ContextName = "global"
	ContextPlayer ContextName = "player"
	ContextHelp   ContextName = "help"
)

var ContextBindings = map[ContextName][]Binding{
	ContextGlobal: globalBindings,
	ContextPlayer: playerBindings,
	ContextHelp:   helpBindings,
}

// KeyMap stores the mappings from actions to key sequences for each context
type KeyMap struct {
	Primary   string
	Secondary string // Optional alternative key
	Help      string // Description for help screen
}

// Binding maps an action to its keys and help text
type Binding struct {
	Action Action
	KeyMap KeyMap
}

// navigationBindings contains general navigation bindings for scrollable views
var navigationBindings = []Binding{
	{
		Action: ActionMoveUp,
		KeyMap: KeyMap{
			Primary:   "up",
			Secondary: "k",
			Help:      "Move cursor up",
		},
	},
	{
		Action: ActionMoveDown,
		KeyMap: KeyMap{
			Primary:   "down",
			Secondary: "j",
			Help:      "Move cursor down",
		},
	},
	{
		Action: ActionPageUp,
		KeyMap: KeyMap{
			Primary: "pgup",
			Help:    "Move up one page",
		},
	},
	{
		Action: ActionPageDown,
		KeyMap: KeyMap{
			Primary: "pgdown",
			Help:    "Move down one page",
		},
	},
	{
		Action: ActionMoveTop,
		KeyMap: KeyMap{
			Primary: "home",
			Help:    "Move top of view",
		},
	},
	{
		Action: ActionMoveBottom,
		KeyMap: KeyMap{
			Primary: "end",
			Help:    "Move bottom of view",
		},
	},
}

// globalBindings contains key bindings that work across all views
var globalBindings = []Binding{
	{
		Action: ActionQuit,
		KeyMap: KeyMap{
			Primary: "ctrl+c",
			Help:    "Quit application",
		},
	},
	{
		Action: ActionToggleHelp,
		KeyMap: KeyMap{
			Primary: "ctrl+h",
			Help:    "Toggle help screen",
		},
	},
	{
		Action: ActionBack,
		KeyMap: KeyMap{
			Primary: "esc",
			Help:    "Close help",
		},
	},
}

// playerBindings contains key bindings for the player view.  Printable keys are left to the URL input, so there is
// no vim style navigation here.
var playerBindings = []Binding{
	{
		Action: ActionLoadStream,
		KeyMap: KeyMap{
			Primary: "enter",
			Help:    "Load the entered URL",
		},
	},
	{
		Action: ActionPlaySample,
		KeyMap: KeyMap{
			Primary: "tab",
			Help:    "Play the highlighted sample stream",
		},
	},
	{
		Action: ActionPreviousSample,
		KeyMap: KeyMap{
			Primary: "up",
			Help:    "Highlight previous sample stream",
		},
	},
	{
		Action: ActionNextSample,
		KeyMap: KeyMap{
			Primary: "down",
			Help:    "Highlight next sample stream",
		},
	},
	{
		Action: ActionStopStream,
		KeyMap: KeyMap{
			Primary: "ctrl+d",
			Help:    "Stop playback",
		},
	},
	{
		Action: ActionQualityUp,
		KeyMap: KeyMap{
			Primary: "pgup",
			Help:    "Switch to the next quality tier",
		},
	},
	{
		Action: ActionQualityDown,
		KeyMap: KeyMap{
			Primary: "pgdown",
			Help:    "Switch to the previous quality tier",
		},
	},
	{
		Action: ActionClearInput,
		KeyMap: KeyMap{
			Primary: "ctrl+u",
			Help:    "Clear the URL input",
		},
	},
}

// helpBindings contains key bindings specific to the help view
var helpBindings = withNavigation([]Binding{})

// GetActionKey returns the primary key for an action
func GetActionKey(action Action, bindings []Binding) string {
	for _, binding := range bindings {
		if binding.Action == action {
			return binding.KeyMap.Primary
		}
	}
	return ""
}

// GetBindingByKey returns the action and help text for a given key
func GetBindingByKey(key string, bindings []Binding) (Action, string) {
	for _, binding := range bindings {
		if binding.KeyMap.Primary == key || binding.KeyMap.Secondary == key {
			return binding.Action, binding.KeyMap.Help
		}
	}
	return "", ""
}

// GetActionByKey returns just the action for a given key, or an empty Action if not found
func GetActionByKey(keyMsg tea.KeyMsg, name ContextName) Action {
	if bindings, exists := ContextBindings[name]; exists {
		action, _ := GetBindingByKey(keyMsg.String(), bindings)
		return action
	}
	return ""
}

// FormatKeyHelp formats a key binding for display in help text
func FormatKeyHelp(binding Binding) string {
	if binding.KeyMap.Secondary != "" {
		return binding.KeyMap.Primary + "/" + binding.KeyMap.Secondary + ": " + binding.KeyMap.Help
	}
	return binding.KeyMap.Primary + ": " + binding.KeyMap.Help
}

// withNavigation is a helper function to include navigation bindings in other binding sets
func withNavigation(bindings []Binding) []Binding {
	return append(append([]Binding{}, navigationBindings...), bindings...)
}
