package dialogs

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func key(t tea.KeyType) tea.KeyMsg { return tea.KeyMsg{Type: t} }

func TestConfirmationDefaultsToLastOption(t *testing.T) {
	deleted := false
	m := NewConfirmation("Delete?",
		Option{Label: "Delete", OnSelect: func() { deleted = true }},
		Option{Label: "Keep"},
	)

	// A reflexive enter lands on "Keep", not on the destructive option.
	closed := m.Update(key(tea.KeyEnter))
	assert.True(t, closed)
	assert.False(t, deleted)
}

func TestConfirmationSelectsAndRuns(t *testing.T) {
	deleted := false
	m := NewConfirmation("Delete?",
		Option{Label: "Delete", OnSelect: func() { deleted = true }},
		Option{Label: "Keep"},
	)

	m.Update(key(tea.KeyLeft))
	closed := m.Update(key(tea.KeyEnter))

	assert.True(t, closed)
	assert.True(t, deleted)
}

func TestConfirmationEscCancels(t *testing.T) {
	deleted := false
	m := NewConfirmation("Delete?",
		Option{Label: "Delete", OnSelect: func() { deleted = true }},
		Option{Label: "Keep"},
	)

	closed := m.Update(key(tea.KeyEsc))
	assert.True(t, closed)
	assert.False(t, deleted)
}
