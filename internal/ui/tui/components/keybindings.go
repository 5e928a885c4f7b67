package components

import (
	"fmt"
	"strings"

	kb "github.com/PizzaHomicide/hlsplay/internal/ui/tui/keybindings"
	"github.com/PizzaHomicide/hlsplay/internal/ui/tui/styles"
	"github.com/charmbracelet/lipgloss"
)

// KeyBinding represents a single key and its description for the keybinding bar
type KeyBinding struct {
	Key  string
	Desc string
}

// keyStyle is used to highlight keyboard shortcuts in UI
var keyStyle = lipgloss.NewStyle().
	Foreground(styles.ColorAccent).
	Bold(true)

// KeyBindingsBar creates a styled footer showing a set of keybindings
// width: The width of the screen to center the bar
// bindings: The list of keybindings to display
func KeyBindingsBar(width int, bindings []KeyBinding) string {
	var parts []string
	for _, b := range bindings {
		parts = append(parts, fmt.Sprintf("%s: %s",
			keyStyle.Render(b.Key),
			b.Desc))
	}

	keyBar := styles.Info.Render(strings.Join(parts, " • "))
	return styles.CenteredText(width, keyBar)
}

// BarFor builds a keybinding bar entry for each action from the bindings of a context
func BarFor(context kb.ContextName, actions map[kb.Action]string, order []kb.Action) []KeyBinding {
	bindings := kb.ContextBindings[context]
	var bar []KeyBinding
	for _, action := range order {
		key := kb.GetActionKey(action, bindings)
		if key == "" {
			continue
		}
		bar = append(bar, KeyBinding{Key: key, Desc: actions[action]})
	}
	return bar
}
