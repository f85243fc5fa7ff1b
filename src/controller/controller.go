// Package controller owns the conversation state machine: session
// identity, message history, in-flight request tracking, and the
// post-response cooldown. It knows nothing about terminals; the UI
// renders snapshots of its state and feeds user intents back in.
package controller

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"termchat/src/models"
)

// Gateway is the backend surface the controller depends on.
// services/api.Client satisfies it; tests substitute a fake.
type Gateway interface {
	ListSessions(ctx context.Context) ([]models.SessionSummary, error)
	FetchHistory(ctx context.Context, sessionID string) ([]models.HistoryRecord, error)
	Generate(ctx context.Context, prompt, sessionID string, history []models.Message) (string, error)
	DeleteSession(ctx context.Context, sessionID string) error
}

// Identity is the durable device identity the controller switches and
// rotates as the user moves between conversations.
type Identity interface {
	Current() string
	Rotate() string
	Adopt(id string)
}

// EventKind distinguishes the controller's outbound notifications.
type EventKind int

const (
	// EventStateChanged signals that Snapshot would now return something new.
	EventStateChanged EventKind = iota
	// EventResponse carries a freshly generated response. The UI starts
	// the reveal animation off this event and never off a history load.
	EventResponse
	// EventNotice carries a display-ready failure message. Notices are a
	// side channel; they are never part of State.
	EventNotice
)

// Event is a notification pushed to the presentation layer.
type Event struct {
	Kind EventKind
	Text string
}

// State is the view the presentation layer renders from. Snapshot hands
// out copies, so the UI can hold one across a frame without locking.
type State struct {
	ActiveSessionID   string
	Messages          []models.Message
	PendingInput      string
	InFlight          bool
	CooldownRemaining int
	LastResponse      string
	Sessions          []models.SessionSummary
}

// Options tune the controller. Zero values fall back to production
// defaults; tests shrink the tick to keep the countdown fast.
type Options struct {
	CooldownSeconds int           // seconds of cooldown after each response (default 10)
	CooldownTick    time.Duration // countdown granularity (default 1s)
	RequestTimeout  time.Duration // budget per gateway call (default 60s)
}

// Controller is the conversational session controller. All mutation goes
// through its methods; gateway calls run in goroutines and report back
// through the notify callback.
type Controller struct {
	mu           sync.Mutex
	state        State
	cooldownStop chan struct{}

	gateway  Gateway
	identity Identity
	logger   *slog.Logger
	notify   func(Event)
	opts     Options
}

// New wires a controller. notify may be nil when nobody listens (some
// tests drive the controller purely through Snapshot polling).
func New(gateway Gateway, identity Identity, logger *slog.Logger, notify func(Event), opts Options) *Controller {
	if opts.CooldownSeconds == 0 {
		opts.CooldownSeconds = 10
	}
	if opts.CooldownTick <= 0 {
		opts.CooldownTick = time.Second
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 60 * time.Second
	}
	if notify == nil {
		notify = func(Event) {}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Controller{
		gateway:  gateway,
		identity: identity,
		logger:   logger,
		notify:   notify,
		opts:     opts,
	}
}

// Start resolves the device's session id and kicks off the initial
// summary load. Call once, after the UI is ready to receive events.
func (c *Controller) Start() {
	id := c.identity.Current()
	c.mu.Lock()
	c.state.ActiveSessionID = id
	c.mu.Unlock()
	c.notify(Event{Kind: EventStateChanged})
	c.RefreshSessions()
}

// Close stops the cooldown countdown, if one is running.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopCooldownLocked()
}

// Snapshot returns a copy of the current state, safe to render from.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Messages = append([]models.Message(nil), c.state.Messages...)
	s.Sessions = append([]models.SessionSummary(nil), c.state.Sessions...)
	return s
}

// SetInput mirrors the input field's current text into the state. No
// event fires; the field already shows the text it owns.
func (c *Controller) SetInput(text string) {
	c.mu.Lock()
	c.state.PendingInput = text
	c.mu.Unlock()
}

// Submit starts a generation turn. It is a silent no-op while a request
// is in flight, while the cooldown is counting down, or when the input
// is blank. On acceptance the user message is appended immediately,
// before the backend answers.
func (c *Controller) Submit() {
	c.mu.Lock()
	if c.state.InFlight || c.state.CooldownRemaining > 0 || strings.TrimSpace(c.state.PendingInput) == "" {
		c.mu.Unlock()
		return
	}
	prompt := c.state.PendingInput
	sessionID := c.state.ActiveSessionID
	history := append([]models.Message(nil), c.state.Messages...)
	c.state.PendingInput = ""
	c.state.Messages = append(c.state.Messages, models.UserMessage(prompt))
	c.state.InFlight = true
	c.state.LastResponse = ""
	c.mu.Unlock()
	c.notify(Event{Kind: EventStateChanged})

	go c.finishSubmit(sessionID, prompt, history)
}

// finishSubmit awaits the generation and commits it, or rolls back
// everything except the optimistic user message. A failed send restores
// the input text so the user can resubmit without retyping.
func (c *Controller) finishSubmit(sessionID, prompt string, history []models.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), c.opts.RequestTimeout)
	defer cancel()
	response, err := c.gateway.Generate(ctx, prompt, sessionID, history)

	c.mu.Lock()
	c.state.InFlight = false
	if c.state.ActiveSessionID != sessionID {
		// The user switched sessions mid-flight; the answer has no home.
		c.mu.Unlock()
		c.notify(Event{Kind: EventStateChanged})
		return
	}
	if err != nil {
		c.state.PendingInput = prompt
		c.mu.Unlock()
		c.logger.Warn("generation failed", "session", sessionID, "error", err)
		c.notify(Event{Kind: EventStateChanged})
		c.notify(Event{Kind: EventNotice, Text: displayMessage(err)})
		return
	}
	c.state.LastResponse = response
	c.state.Messages = append(c.state.Messages, models.ModelMessage(response))
	known := c.hasSummaryLocked(sessionID)
	// Committed and armed atomically: a NewSession or LoadSession can
	// only land before the session check above or after the countdown
	// exists, so its stopCooldownLocked always wins.
	c.startCooldownLocked()
	c.mu.Unlock()

	c.notify(Event{Kind: EventStateChanged})
	c.notify(Event{Kind: EventResponse, Text: response})
	if !known {
		// First turn of a brand-new session: the backend just created
		// its summary row, pick it up for the sidebar.
		c.RefreshSessions()
	}
}

// NewSession rotates the device identity and clears the conversation.
// The summary list is left alone; no backend call is involved.
func (c *Controller) NewSession() {
	id := c.identity.Rotate()
	c.mu.Lock()
	c.stopCooldownLocked()
	c.state.ActiveSessionID = id
	c.state.Messages = nil
	c.state.PendingInput = ""
	c.state.LastResponse = ""
	c.mu.Unlock()
	c.notify(Event{Kind: EventStateChanged})
}

// LoadSession switches to a stored session and rebuilds the transcript
// from its history. Historical turns render in full, so LastResponse is
// cleared and no reveal will play. History that does not come back as
// clean prompt/response pairs is refused, leaving the transcript as it
// was.
func (c *Controller) LoadSession(sessionID string) {
	c.identity.Adopt(sessionID)
	c.mu.Lock()
	c.state.ActiveSessionID = sessionID
	c.mu.Unlock()
	c.notify(Event{Kind: EventStateChanged})

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.RequestTimeout)
		defer cancel()
		records, err := c.gateway.FetchHistory(ctx, sessionID)
		if err != nil {
			c.logger.Warn("history load failed", "session", sessionID, "error", err)
			c.notify(Event{Kind: EventNotice, Text: displayMessage(err)})
			return
		}
		messages, err := models.MessagesFromHistory(records)
		if err != nil {
			c.logger.Warn("history rejected", "session", sessionID, "error", err)
			c.notify(Event{Kind: EventNotice, Text: "this conversation's history is damaged and cannot be shown"})
			return
		}
		c.mu.Lock()
		if c.state.ActiveSessionID != sessionID {
			c.mu.Unlock()
			return
		}
		c.state.Messages = messages
		c.state.LastResponse = ""
		c.mu.Unlock()
		c.notify(Event{Kind: EventStateChanged})
	}()
}

// DeleteSession removes a stored session. Confirmation is the UI's job;
// by the time this runs the user has already said yes. Local state only
// changes after the backend confirms, and deleting the active session
// behaves like starting a new chat.
func (c *Controller) DeleteSession(sessionID string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.RequestTimeout)
		defer cancel()
		if err := c.gateway.DeleteSession(ctx, sessionID); err != nil {
			c.logger.Warn("delete failed", "session", sessionID, "error", err)
			c.notify(Event{Kind: EventNotice, Text: displayMessage(err)})
			return
		}
		c.mu.Lock()
		kept := make([]models.SessionSummary, 0, len(c.state.Sessions))
		for _, s := range c.state.Sessions {
			if s.SessionID != sessionID {
				kept = append(kept, s)
			}
		}
		c.state.Sessions = kept
		wasActive := c.state.ActiveSessionID == sessionID
		c.mu.Unlock()
		c.notify(Event{Kind: EventStateChanged})
		if wasActive {
			c.NewSession()
		}
	}()
}

// RefreshSessions reloads the summary list from the backend. Failures
// are logged but not surfaced; the stale list keeps rendering, exactly
// like the rest of the app when the sidebar cannot refresh.
func (c *Controller) RefreshSessions() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), c.opts.RequestTimeout)
		defer cancel()
		sessions, err := c.gateway.ListSessions(ctx)
		if err != nil {
			c.logger.Warn("session list load failed", "error", err)
			return
		}
		c.mu.Lock()
		c.state.Sessions = sessions
		c.mu.Unlock()
		c.notify(Event{Kind: EventStateChanged})
	}()
}

func (c *Controller) hasSummaryLocked(sessionID string) bool {
	for _, s := range c.state.Sessions {
		if s.SessionID == sessionID {
			return true
		}
	}
	return false
}

// startCooldownLocked begins (or restarts) the post-response countdown.
// Any countdown already ticking is stopped first, so only one ever runs.
// Callers must hold c.mu.
func (c *Controller) startCooldownLocked() {
	c.stopCooldownLocked()
	if c.opts.CooldownSeconds <= 0 {
		return
	}
	stop := make(chan struct{})
	c.cooldownStop = stop
	c.state.CooldownRemaining = c.opts.CooldownSeconds

	go func() {
		ticker := time.NewTicker(c.opts.CooldownTick)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				c.mu.Lock()
				if c.cooldownStop != stop {
					c.mu.Unlock()
					return
				}
				c.state.CooldownRemaining--
				done := c.state.CooldownRemaining <= 0
				if done {
					c.state.CooldownRemaining = 0
					c.cooldownStop = nil
				}
				c.mu.Unlock()
				c.notify(Event{Kind: EventStateChanged})
				if done {
					return
				}
			}
		}
	}()
}

// stopCooldownLocked cancels a running countdown and zeroes the counter.
// Callers must hold c.mu.
func (c *Controller) stopCooldownLocked() {
	if c.cooldownStop != nil {
		close(c.cooldownStop)
		c.cooldownStop = nil
	}
	c.state.CooldownRemaining = 0
}

// displayMessage turns an error into something worth showing the user.
// Gateway errors already carry a display-ready message; anything else
// gets a generic line rather than a raw Go error.
func displayMessage(err error) string {
	var gerr *models.GatewayError
	if errors.As(err, &gerr) {
		return gerr.Message
	}
	return "something went wrong, please try again"
}
