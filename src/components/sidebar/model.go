// components/sidebar/model.go - Session list panel rendered beside the chat window.
// Holds the stored sessions plus a synthetic "new chat" entry pinned on top.

package sidebar

import (
	"github.com/charmbracelet/lipgloss"

	"termchat/src/models"
)

var (
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("15"))
	entryStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("203")).Background(lipgloss.Color("236"))
	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

// Model manages the sidebar's selection state. Cursor 0 is the "new
// chat" entry; cursor i+1 points at Sessions[i]. The session order is
// whatever the backend sent; it is never re-sorted here.
type Model struct {
	Sessions []models.SessionSummary
	Cursor   int
	Focused  bool
	Width    int
	Height   int
}

// New creates a sidebar with the default width.
func New() *Model {
	return &Model{Width: 30}
}

// SetSessions replaces the listed sessions, clamping the cursor.
func (m *Model) SetSessions(sessions []models.SessionSummary) {
	m.Sessions = sessions
	if m.Cursor > len(sessions) {
		m.Cursor = len(sessions)
	}
}

// MoveUp moves the cursor, wrapping like the other menus in the app.
func (m *Model) MoveUp() {
	if m.Cursor == 0 {
		m.Cursor = len(m.Sessions)
	} else {
		m.Cursor--
	}
}

// MoveDown moves the cursor, wrapping at the end of the list.
func (m *Model) MoveDown() {
	if m.Cursor == len(m.Sessions) {
		m.Cursor = 0
	} else {
		m.Cursor++
	}
}

// Selected returns the session under the cursor, or nil when the cursor
// sits on the "new chat" entry.
func (m *Model) Selected() *models.SessionSummary {
	if m.Cursor == 0 || m.Cursor > len(m.Sessions) {
		return nil
	}
	s := m.Sessions[m.Cursor-1]
	return &s
}

// View renders the panel; the active session gets a marker so the user
// can tell where a loaded conversation lives in the list.
func (m *Model) View(activeSessionID string) string {
	innerWidth := m.Width - 4 // border + padding
	lines := []string{titleStyle.Render("Chats"), ""}

	lines = append(lines, m.renderEntry("+ New chat", m.Cursor == 0, false, innerWidth))
	for i, session := range m.Sessions {
		label := session.Title
		if label == "" {
			label = session.SessionID
		}
		lines = append(lines, m.renderEntry(label, m.Cursor == i+1, session.SessionID == activeSessionID, innerWidth))
	}
	if len(m.Sessions) == 0 {
		lines = append(lines, dimStyle.Render("no saved chats yet"))
	}

	content := lipgloss.JoinVertical(lipgloss.Left, lines...)
	return panelStyle.Width(m.Width - 2).Height(m.Height - 2).Render(content)
}

func (m *Model) renderEntry(label string, selected, active bool, width int) string {
	label = truncate(label, width-2)
	if active {
		label = activeStyle.Render("●") + " " + label
	} else {
		label = "  " + label
	}
	if selected && m.Focused {
		return selectedStyle.Render(label)
	}
	return entryStyle.Render(label)
}

// truncate cuts the label at max runes, leaving an ellipsis.
func truncate(s string, max int) string {
	if max <= 1 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}
