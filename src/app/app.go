// Package app wires the session controller, reveal engine, and UI
// components into the root Bubble Tea model. Controller and reveal
// callbacks run on background goroutines; they reach the update loop
// through program.Send so all UI state changes stay on one thread.
package app

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"termchat/src/components/chat"
	"termchat/src/components/input"
	"termchat/src/components/modals/dialogs"
	"termchat/src/components/sidebar"
	"termchat/src/config"
	"termchat/src/controller"
	"termchat/src/models"
	"termchat/src/reveal"
)

const sidebarWidth = 30

var (
	noticeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Padding(0, 1)
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Padding(0, 1)
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
)

type controllerEventMsg controller.Event

type revealFrameMsg struct {
	prefix string
	done   bool
}

type clearNoticeMsg struct{ id int }

type focusArea int

const (
	focusInput focusArea = iota
	focusSidebar
)

// App is the root Bubble Tea model.
type App struct {
	ctrl   *controller.Controller
	reveal *reveal.Engine

	sidebar *sidebar.Model
	chat    *chat.Model
	input   *input.Model
	spin    spinner.Model
	confirm *dialogs.ConfirmationModal

	state        controller.State
	revealPrefix string
	revealing    bool
	notice       string
	noticeSeq    int
	focus        focusArea
	width        int
	height       int

	program *tea.Program
	logger  *slog.Logger
}

// New builds the application around a gateway and an identity manager.
func New(gateway controller.Gateway, ident controller.Identity, cfg *config.Config, logger *slog.Logger) *App {
	a := &App{
		sidebar: sidebar.New(),
		chat:    chat.New(),
		input:   input.New(),
		spin:    spinner.New(spinner.WithSpinner(spinner.MiniDot)),
		logger:  logger,
	}
	a.ctrl = controller.New(gateway, ident, logger, a.sendControllerEvent, controller.Options{
		CooldownSeconds: cfg.CooldownSeconds,
		RequestTimeout:  cfg.RequestTimeout,
	})
	a.reveal = reveal.New(cfg.RevealInterval, a.sendRevealFrame)
	return a
}

// SetProgram hands the app its running program so background events can
// be injected into the update loop. Must be called before Run.
func (a *App) SetProgram(p *tea.Program) { a.program = p }

// Close stops the controller's countdown and any running reveal.
func (a *App) Close() {
	a.ctrl.Close()
	a.reveal.Cancel()
}

func (a *App) sendControllerEvent(e controller.Event) {
	if a.program != nil {
		a.program.Send(controllerEventMsg(e))
	}
}

func (a *App) sendRevealFrame(prefix string, done bool) {
	if a.program != nil {
		a.program.Send(revealFrameMsg{prefix: prefix, done: done})
	}
}

// Init starts the spinner and kicks the controller off.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.spin.Tick,
		func() tea.Msg {
			a.ctrl.Start()
			return nil
		},
	)
}

// Update handles messages and updates the application.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width, a.height = msg.Width, msg.Height
		a.layout()
		return a, nil

	case controllerEventMsg:
		return a.handleControllerEvent(controller.Event(msg))

	case revealFrameMsg:
		a.revealPrefix = msg.prefix
		if msg.done {
			a.revealing = false
		}
		a.chat.SetConversation(a.state.Messages, a.revealPrefix, a.revealing)
		return a, nil

	case clearNoticeMsg:
		if msg.id == a.noticeSeq {
			a.notice = ""
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spin, cmd = a.spin.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}
	return a, nil
}

func (a *App) handleControllerEvent(e controller.Event) (tea.Model, tea.Cmd) {
	switch e.Kind {
	case controller.EventStateChanged:
		a.state = a.ctrl.Snapshot()
		if a.revealing && a.state.LastResponse == "" {
			// The response being animated is gone from this state: the
			// user switched sessions or started a new turn. Loaded and
			// reset transcripts always render in full.
			a.reveal.Cancel()
			a.revealing = false
			a.revealPrefix = ""
		}
		a.sidebar.SetSessions(a.state.Sessions)
		if a.state.PendingInput != a.input.Value() {
			// The controller cleared the input on submit, or restored
			// it after a failed send.
			a.input.SetValue(a.state.PendingInput)
		}
		a.chat.SetConversation(a.state.Messages, a.revealPrefix, a.revealing)

	case controller.EventResponse:
		a.revealing = true
		a.revealPrefix = ""
		a.reveal.Start(e.Text)
		a.chat.SetConversation(a.state.Messages, "", true)

	case controller.EventNotice:
		a.notice = e.Text
		a.noticeSeq++
		id := a.noticeSeq
		return a, tea.Tick(5*time.Second, func(time.Time) tea.Msg {
			return clearNoticeMsg{id: id}
		})
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.confirm != nil {
		if a.confirm.Update(msg) {
			a.confirm = nil
		}
		return a, nil
	}

	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "ctrl+n":
		a.ctrl.NewSession()
		a.focusInput()
		return a, nil
	case "tab":
		a.toggleFocus()
		return a, nil
	}

	if a.focus == focusSidebar {
		return a, a.handleSidebarKey(msg)
	}
	return a, a.handleInputKey(msg)
}

func (a *App) handleSidebarKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "up":
		a.sidebar.MoveUp()
	case "down":
		a.sidebar.MoveDown()
	case "enter":
		if selected := a.sidebar.Selected(); selected != nil {
			a.ctrl.LoadSession(selected.SessionID)
		} else {
			a.ctrl.NewSession()
		}
		a.focusInput()
	case "ctrl+d", "delete":
		if selected := a.sidebar.Selected(); selected != nil {
			a.openDeleteConfirm(*selected)
		}
	case "esc":
		a.focusInput()
	}
	return nil
}

func (a *App) handleInputKey(msg tea.KeyMsg) tea.Cmd {
	switch msg.String() {
	case "enter":
		a.ctrl.SetInput(a.input.Value())
		a.ctrl.Submit()
		return nil
	case "pgup", "pgdown":
		return a.chat.Update(msg)
	}
	cmd := a.input.Update(msg)
	a.ctrl.SetInput(a.input.Value())
	return cmd
}

func (a *App) openDeleteConfirm(session models.SessionSummary) {
	title := session.Title
	if title == "" {
		title = session.SessionID
	}
	a.confirm = dialogs.NewConfirmation(
		fmt.Sprintf("Delete %q for good?", title),
		dialogs.Option{Label: "Delete", OnSelect: func() { a.ctrl.DeleteSession(session.SessionID) }},
		dialogs.Option{Label: "Keep"},
	)
}

func (a *App) focusInput() {
	a.focus = focusInput
	a.sidebar.Focused = false
	a.input.Focus()
}

func (a *App) toggleFocus() {
	if a.focus == focusInput {
		a.focus = focusSidebar
		a.sidebar.Focused = true
		a.input.Blur()
	} else {
		a.focusInput()
	}
}

func (a *App) layout() {
	mainWidth := a.width - sidebarWidth
	if mainWidth < 20 {
		mainWidth = 20
	}
	a.sidebar.Width = sidebarWidth
	a.sidebar.Height = a.height
	// Notice and status each take one row, the input frame takes three.
	a.chat.Resize(mainWidth, a.height-5)
	a.input.SetWidth(mainWidth)
	a.chat.SetConversation(a.state.Messages, a.revealPrefix, a.revealing)
}

// View renders the full frame.
func (a *App) View() string {
	if a.width == 0 {
		return "starting..."
	}
	if a.confirm != nil {
		return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, a.confirm.View())
	}

	main := lipgloss.JoinVertical(lipgloss.Left,
		a.chat.View(),
		noticeStyle.Render(a.notice),
		a.statusLine(),
		a.input.View(),
	)
	return lipgloss.JoinHorizontal(lipgloss.Top, a.sidebar.View(a.state.ActiveSessionID), main)
}

func (a *App) statusLine() string {
	switch {
	case a.state.InFlight:
		return statusStyle.Render(a.spin.View() + " thinking...")
	case a.state.CooldownRemaining > 0:
		return statusStyle.Render(fmt.Sprintf("cooldown: %ds", a.state.CooldownRemaining))
	default:
		return hintStyle.Render(" enter send · tab chats · ctrl+n new · ctrl+c quit")
	}
}
