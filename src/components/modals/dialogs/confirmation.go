// confirmation.go - Confirmation dialog shown before destructive actions.
// Left/right moves between options, enter selects, esc cancels.

package dialogs

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("245")).
			Padding(1, 4).
			Align(lipgloss.Center)
	messageStyle  = lipgloss.NewStyle().Bold(true)
	optionStyle   = lipgloss.NewStyle().Padding(0, 2)
	selectedStyle = optionStyle.Bold(true).Foreground(lipgloss.Color("33")).Background(lipgloss.Color("236"))
)

// Option is one selectable answer in a confirmation dialog.
type Option struct {
	Label    string
	OnSelect func()
}

// ConfirmationModal is a small modal with 1-3 options. The first option
// is treated as the affirmative one and selected by default is the last,
// so a reflexive enter never destroys anything.
type ConfirmationModal struct {
	Message  string
	Options  []Option
	Selected int
}

// NewConfirmation creates a modal for the given message and options.
func NewConfirmation(message string, options ...Option) *ConfirmationModal {
	if len(options) < 1 || len(options) > 3 {
		panic("ConfirmationModal must have 1-3 options")
	}
	return &ConfirmationModal{
		Message:  message,
		Options:  options,
		Selected: len(options) - 1,
	}
}

// Update handles one key press. It reports true when the modal is done
// and should be closed.
func (m *ConfirmationModal) Update(msg tea.KeyMsg) bool {
	switch msg.String() {
	case "left":
		if m.Selected > 0 {
			m.Selected--
		} else {
			m.Selected = len(m.Options) - 1
		}
	case "right", "tab":
		if m.Selected < len(m.Options)-1 {
			m.Selected++
		} else {
			m.Selected = 0
		}
	case "enter":
		if m.Options[m.Selected].OnSelect != nil {
			m.Options[m.Selected].OnSelect()
		}
		return true
	case "esc":
		return true
	}
	return false
}

// View renders the modal box.
func (m *ConfirmationModal) View() string {
	var opts string
	for i, opt := range m.Options {
		style := optionStyle
		if i == m.Selected {
			style = selectedStyle
		}
		opts += style.Render(opt.Label)
	}
	content := messageStyle.Render(m.Message) + "\n\n" + opts
	return boxStyle.Render(content)
}
