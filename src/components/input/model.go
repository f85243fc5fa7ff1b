// components/input/model.go - Single-line prompt field at the bottom of the chat.

package input

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var frameStyle = lipgloss.NewStyle().
	Border(lipgloss.RoundedBorder()).
	BorderForeground(lipgloss.Color("240")).
	Padding(0, 1)

// Model wraps a textinput so the rest of the app never touches bubbles
// directly. The field stays editable during cooldowns; only submission
// is gated, and the controller does that gating.
type Model struct {
	field textinput.Model
	width int
}

// New creates a focused, empty input field.
func New() *Model {
	field := textinput.New()
	field.Placeholder = "Type a message..."
	field.CharLimit = 4000
	field.Prompt = "> "
	field.Focus()
	return &Model{field: field}
}

// SetWidth resizes the field to fit the given outer width.
func (m *Model) SetWidth(width int) {
	m.width = width
	m.field.Width = width - 8 // frame, padding, prompt
}

// Update forwards key events to the underlying field.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.field, cmd = m.field.Update(msg)
	return cmd
}

// Value returns the field's current text.
func (m *Model) Value() string { return m.field.Value() }

// SetValue overwrites the field, used when the controller restores a
// failed submission so the user can retry without retyping.
func (m *Model) SetValue(value string) {
	m.field.SetValue(value)
	m.field.CursorEnd()
}

// Focus gives the field the keyboard.
func (m *Model) Focus() { m.field.Focus() }

// Blur takes the keyboard away.
func (m *Model) Blur() { m.field.Blur() }

// View renders the framed field.
func (m *Model) View() string {
	return frameStyle.Width(m.width - 2).Render(m.field.View())
}
