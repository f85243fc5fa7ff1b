// components/chat/view.go - Scrollable transcript of the active conversation.
// The newest model message is rendered through the reveal prefix while a
// response is still animating; everything else shows in full.

package chat

import (
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"termchat/src/models"
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
	userLabelStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("33"))
	modelLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203"))
	userTextStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	modelTextStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	emptyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Italic(true)
)

// Model wraps a viewport over the rendered transcript and keeps it
// pinned to the bottom as new text arrives.
type Model struct {
	vp     viewport.Model
	width  int
	height int
}

// New creates an empty transcript view.
func New() *Model {
	return &Model{vp: viewport.New(0, 0)}
}

// Resize adjusts the view to the given outer dimensions.
func (m *Model) Resize(width, height int) {
	m.width = width
	m.height = height
	m.vp.Width = width - 2
	m.vp.Height = height - 2
}

// SetConversation re-renders the transcript. While revealing is set, the
// final model message displays revealPrefix instead of its full text;
// the message data itself always holds the complete response.
func (m *Model) SetConversation(messages []models.Message, revealPrefix string, revealing bool) {
	m.vp.SetContent(m.render(messages, revealPrefix, revealing))
	m.vp.GotoBottom()
}

// Update forwards scroll keys to the viewport.
func (m *Model) Update(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	m.vp, cmd = m.vp.Update(msg)
	return cmd
}

// View renders the framed transcript.
func (m *Model) View() string {
	return frameStyle.Render(m.vp.View())
}

func (m *Model) render(messages []models.Message, revealPrefix string, revealing bool) string {
	if len(messages) == 0 {
		return emptyStyle.Render("Say something to start the conversation.")
	}

	textWidth := m.vp.Width - 2
	if textWidth < 10 {
		textWidth = 10
	}

	var b strings.Builder
	for i, msg := range messages {
		text := msg.Text()
		label, labelStyle, textStyle := "You", userLabelStyle, userTextStyle
		if msg.Role == models.RoleModel {
			label, labelStyle, textStyle = "AI", modelLabelStyle, modelTextStyle
			if revealing && i == len(messages)-1 {
				text = revealPrefix
			}
		}
		b.WriteString(labelStyle.Render(label))
		b.WriteString("\n")
		b.WriteString(textStyle.Width(textWidth).Render(text))
		if i < len(messages)-1 {
			b.WriteString("\n\n")
		}
	}
	return b.String()
}
