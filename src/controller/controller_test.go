package controller

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"termchat/src/models"
	"termchat/src/services/identity"
	"termchat/src/services/storage"
)

// fakeGateway scripts backend answers and records what was asked of it.
type fakeGateway struct {
	mu sync.Mutex

	generateResult string
	generateErr    error
	generateDelay  time.Duration
	generateCalls  int

	sessions  []models.SessionSummary
	listErr   error
	listCalls int

	history    []models.HistoryRecord
	historyErr error

	deleteErr error
	deleted   []string
}

func (g *fakeGateway) ListSessions(ctx context.Context) ([]models.SessionSummary, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.listCalls++
	if g.listErr != nil {
		return nil, g.listErr
	}
	return append([]models.SessionSummary(nil), g.sessions...), nil
}

func (g *fakeGateway) FetchHistory(ctx context.Context, sessionID string) ([]models.HistoryRecord, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.historyErr != nil {
		return nil, g.historyErr
	}
	return append([]models.HistoryRecord(nil), g.history...), nil
}

func (g *fakeGateway) Generate(ctx context.Context, prompt, sessionID string, history []models.Message) (string, error) {
	g.mu.Lock()
	g.generateCalls++
	delay := g.generateDelay
	result, err := g.generateResult, g.generateErr
	g.mu.Unlock()
	if delay > 0 {
		time.Sleep(delay)
	}
	if err != nil {
		return "", err
	}
	return result, nil
}

func (g *fakeGateway) DeleteSession(ctx context.Context, sessionID string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.deleteErr != nil {
		return g.deleteErr
	}
	g.deleted = append(g.deleted, sessionID)
	return nil
}

func (g *fakeGateway) calls() (generate, list int) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.generateCalls, g.listCalls
}

func (g *fakeGateway) setSessions(sessions []models.SessionSummary) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.sessions = sessions
}

type harness struct {
	ctrl    *Controller
	gw      *fakeGateway
	events  chan Event
	notices chan string
}

func newHarness(t *testing.T, gw *fakeGateway) *harness {
	// Fast countdown so full turns (cooldown included) finish in ~10ms.
	return newHarnessOpts(t, gw, Options{
		CooldownSeconds: 2,
		CooldownTick:    5 * time.Millisecond,
		RequestTimeout:  time.Second,
	})
}

// slowCooldownHarness leaves a wide-open countdown window, for tests
// that need to act while the cooldown is reliably still running.
func slowCooldownHarness(t *testing.T, gw *fakeGateway) *harness {
	return newHarnessOpts(t, gw, Options{
		CooldownSeconds: 10,
		CooldownTick:    50 * time.Millisecond,
		RequestTimeout:  time.Second,
	})
}

func newHarnessOpts(t *testing.T, gw *fakeGateway, opts Options) *harness {
	t.Helper()
	h := &harness{
		gw:      gw,
		events:  make(chan Event, 512),
		notices: make(chan string, 32),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ident := identity.NewManager(storage.NewMemoryStore(), logger)
	h.ctrl = New(gw, ident, logger, func(e Event) {
		h.events <- e
		if e.Kind == EventNotice {
			h.notices <- e.Text
		}
	}, opts)
	t.Cleanup(h.ctrl.Close)
	return h
}

// waitFor blocks until cond holds for a fresh snapshot, re-checking on
// every controller event.
func (h *harness) waitFor(t *testing.T, cond func(State) bool) State {
	t.Helper()
	if s := h.ctrl.Snapshot(); cond(s) {
		return s
	}
	deadline := time.After(3 * time.Second)
	for {
		select {
		case <-h.events:
			if s := h.ctrl.Snapshot(); cond(s) {
				return s
			}
		case <-deadline:
			t.Fatalf("condition never held; last state: %+v", h.ctrl.Snapshot())
		}
	}
}

func (h *harness) waitNotice(t *testing.T) string {
	t.Helper()
	select {
	case text := <-h.notices:
		return text
	case <-time.After(3 * time.Second):
		t.Fatal("no notice arrived")
		return ""
	}
}

func (h *harness) submit(text string) {
	h.ctrl.SetInput(text)
	h.ctrl.Submit()
}

// runTurn submits and waits for the full cycle, cooldown included.
func (h *harness) runTurn(t *testing.T, text string, wantMessages int) State {
	t.Helper()
	h.submit(text)
	h.waitFor(t, func(s State) bool { return len(s.Messages) == wantMessages && !s.InFlight })
	return h.waitFor(t, func(s State) bool { return s.CooldownRemaining == 0 })
}

func TestSubmitAppendsUserThenModelMessage(t *testing.T) {
	gw := &fakeGateway{generateResult: "hi there"}
	h := newHarness(t, gw)
	h.ctrl.Start()

	h.submit("hello")

	// Optimistic append: the user message is there before the response.
	s := h.waitFor(t, func(s State) bool { return len(s.Messages) >= 1 })
	assert.Equal(t, models.UserMessage("hello"), s.Messages[0])
	assert.Empty(t, s.PendingInput)

	s = h.waitFor(t, func(s State) bool { return len(s.Messages) == 2 && !s.InFlight })
	assert.Equal(t, models.ModelMessage("hi there"), s.Messages[1])
	assert.Equal(t, "hi there", s.LastResponse)
}

func TestCooldownStartsFullAndCountsToZero(t *testing.T) {
	gw := &fakeGateway{generateResult: "hi there"}
	h := newHarnessOpts(t, gw, Options{
		CooldownSeconds: 2,
		CooldownTick:    40 * time.Millisecond,
		RequestTimeout:  time.Second,
	})
	h.ctrl.Start()

	h.submit("hello")

	s := h.waitFor(t, func(s State) bool { return s.CooldownRemaining > 0 })
	assert.Equal(t, 2, s.CooldownRemaining, "cooldown begins at the configured window")

	s = h.waitFor(t, func(s State) bool { return s.CooldownRemaining == 0 && len(s.Messages) == 2 })
	assert.False(t, s.InFlight)
}

func TestMessagesAlternateOverManyTurns(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := newHarness(t, gw)
	h.ctrl.Start()

	const turns = 3
	for i := 0; i < turns; i++ {
		h.runTurn(t, "question", 2*(i+1))
	}

	s := h.ctrl.Snapshot()
	require.Len(t, s.Messages, 2*turns)
	for i, msg := range s.Messages {
		if i%2 == 0 {
			assert.Equal(t, models.RoleUser, msg.Role, "message %d", i)
		} else {
			assert.Equal(t, models.RoleModel, msg.Role, "message %d", i)
		}
	}
}

func TestSubmitWhileInFlightIsNoOp(t *testing.T) {
	gw := &fakeGateway{generateResult: "slow answer", generateDelay: 80 * time.Millisecond}
	h := newHarness(t, gw)
	h.ctrl.Start()

	h.submit("first")
	h.waitFor(t, func(s State) bool { return s.InFlight })

	h.submit("second")

	s := h.waitFor(t, func(s State) bool { return !s.InFlight && len(s.Messages) == 2 })
	generate, _ := gw.calls()
	assert.Equal(t, 1, generate, "second submit must not reach the gateway")
	assert.Equal(t, "second", s.PendingInput, "rejected text stays in the input")
	assert.Equal(t, models.UserMessage("first"), s.Messages[0])
}

func TestSubmitDuringCooldownIsNoOp(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := slowCooldownHarness(t, gw)
	h.ctrl.Start()

	h.submit("first")
	h.waitFor(t, func(s State) bool { return s.CooldownRemaining > 0 })

	h.submit("too soon")
	time.Sleep(10 * time.Millisecond)

	s := h.ctrl.Snapshot()
	generate, _ := gw.calls()
	assert.Equal(t, 1, generate)
	assert.Len(t, s.Messages, 2)
	assert.Equal(t, "too soon", s.PendingInput)
}

func TestSubmitBlankIsNoOp(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := newHarness(t, gw)
	h.ctrl.Start()

	h.submit("   ")
	time.Sleep(10 * time.Millisecond)

	generate, _ := gw.calls()
	assert.Zero(t, generate)
	assert.Empty(t, h.ctrl.Snapshot().Messages)
}

func TestFailedSubmitKeepsUserMessageAndRestoresInput(t *testing.T) {
	gw := &fakeGateway{generateErr: &models.GatewayError{
		Kind:    models.GatewayRateLimited,
		Status:  429,
		Message: "Please wait before sending again.",
	}}
	h := newHarness(t, gw)
	h.ctrl.Start()

	h.submit("hello")

	notice := h.waitNotice(t)
	assert.Equal(t, "Please wait before sending again.", notice)

	s := h.waitFor(t, func(s State) bool { return !s.InFlight })
	require.Len(t, s.Messages, 1, "the optimistic user message is not rolled back")
	assert.Equal(t, models.UserMessage("hello"), s.Messages[0])
	assert.Equal(t, "hello", s.PendingInput, "failed text returns to the input")
	assert.Zero(t, s.CooldownRemaining, "no cooldown after a failure")
}

func TestFirstTurnOfNewSessionRefreshesSummaries(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := newHarness(t, gw)
	h.ctrl.Start()
	s := h.waitFor(t, func(s State) bool { return s.ActiveSessionID != "" })

	// The backend creates the summary row as a side effect of the turn.
	gw.setSessions([]models.SessionSummary{{SessionID: s.ActiveSessionID, Title: "hello"}})

	h.submit("hello")

	s = h.waitFor(t, func(s State) bool { return len(s.Sessions) == 1 })
	assert.Equal(t, s.ActiveSessionID, s.Sessions[0].SessionID)
}

func TestKnownSessionDoesNotRefreshSummaries(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := newHarness(t, gw)
	h.ctrl.Start()
	s := h.waitFor(t, func(s State) bool { return s.ActiveSessionID != "" })

	gw.setSessions([]models.SessionSummary{{SessionID: s.ActiveSessionID}})
	h.ctrl.RefreshSessions()
	h.waitFor(t, func(s State) bool { return len(s.Sessions) == 1 })
	_, listBefore := gw.calls()

	h.runTurn(t, "hello", 2)

	_, listAfter := gw.calls()
	assert.Equal(t, listBefore, listAfter, "no re-fetch when the session is already listed")
}

func TestNewSessionResetsConversation(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := slowCooldownHarness(t, gw)
	h.ctrl.Start()
	before := h.waitFor(t, func(s State) bool { return s.ActiveSessionID != "" })

	h.submit("hello")
	h.waitFor(t, func(s State) bool { return s.CooldownRemaining > 0 })

	h.ctrl.NewSession()

	s := h.waitFor(t, func(s State) bool { return len(s.Messages) == 0 })
	assert.NotEqual(t, before.ActiveSessionID, s.ActiveSessionID)
	assert.Empty(t, s.PendingInput)
	assert.Empty(t, s.LastResponse)
	assert.Zero(t, s.CooldownRemaining, "new chat cancels the countdown")
}

func TestNewSessionRightAfterResponseLeavesNoCooldown(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := slowCooldownHarness(t, gw)
	h.ctrl.Start()

	h.submit("hello")
	h.waitFor(t, func(s State) bool { return len(s.Messages) == 2 })

	// The countdown is armed in the same critical section that commits
	// the response, so a new chat issued this instant always finds it.
	h.ctrl.NewSession()

	s := h.waitFor(t, func(s State) bool { return len(s.Messages) == 0 })
	assert.Zero(t, s.CooldownRemaining)

	// And no leftover tick may resurrect it.
	time.Sleep(120 * time.Millisecond)
	assert.Zero(t, h.ctrl.Snapshot().CooldownRemaining)
}

func TestLoadSessionRebuildsMessagesFromHistory(t *testing.T) {
	gw := &fakeGateway{history: []models.HistoryRecord{
		{Prompt: "first question", Response: "first answer"},
		{Prompt: "second question", Response: "second answer"},
	}}
	h := newHarness(t, gw)
	h.ctrl.Start()

	h.ctrl.LoadSession("past-session")

	s := h.waitFor(t, func(s State) bool { return len(s.Messages) == 4 })
	assert.Equal(t, "past-session", s.ActiveSessionID)
	assert.Equal(t, models.UserMessage("first question"), s.Messages[0])
	assert.Equal(t, models.ModelMessage("first answer"), s.Messages[1])
	assert.Equal(t, models.UserMessage("second question"), s.Messages[2])
	assert.Equal(t, models.ModelMessage("second answer"), s.Messages[3])
	assert.Empty(t, s.LastResponse, "history must not trigger a reveal")
}

func TestLoadSessionWithDamagedHistoryLeavesTranscript(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := newHarness(t, gw)
	h.ctrl.Start()
	h.runTurn(t, "hello", 2)

	gw.mu.Lock()
	gw.history = []models.HistoryRecord{{Prompt: "only a prompt"}}
	gw.mu.Unlock()

	h.ctrl.LoadSession("damaged")

	notice := h.waitNotice(t)
	assert.Contains(t, notice, "history")

	s := h.ctrl.Snapshot()
	assert.Len(t, s.Messages, 2, "old transcript survives a refused history")
}

func TestDeleteInactiveSessionOnlyTrimsList(t *testing.T) {
	gw := &fakeGateway{}
	h := newHarness(t, gw)
	h.ctrl.Start()
	active := h.waitFor(t, func(s State) bool { return s.ActiveSessionID != "" }).ActiveSessionID

	gw.setSessions([]models.SessionSummary{{SessionID: active}, {SessionID: "other"}})
	h.ctrl.RefreshSessions()
	h.waitFor(t, func(s State) bool { return len(s.Sessions) == 2 })

	h.ctrl.DeleteSession("other")

	s := h.waitFor(t, func(s State) bool { return len(s.Sessions) == 1 })
	assert.Equal(t, active, s.ActiveSessionID, "active session untouched")
	assert.Equal(t, active, s.Sessions[0].SessionID)
}

func TestDeleteActiveSessionActsLikeNewChat(t *testing.T) {
	gw := &fakeGateway{generateResult: "answer"}
	h := newHarness(t, gw)
	h.ctrl.Start()
	active := h.waitFor(t, func(s State) bool { return s.ActiveSessionID != "" }).ActiveSessionID

	gw.setSessions([]models.SessionSummary{{SessionID: active}})
	h.ctrl.RefreshSessions()
	h.waitFor(t, func(s State) bool { return len(s.Sessions) == 1 })
	h.runTurn(t, "hello", 2)

	h.ctrl.DeleteSession(active)

	s := h.waitFor(t, func(s State) bool {
		return len(s.Sessions) == 0 && len(s.Messages) == 0 && s.ActiveSessionID != active
	})
	assert.Empty(t, s.PendingInput)
	assert.Zero(t, s.CooldownRemaining)
	gw.mu.Lock()
	deleted := append([]string(nil), gw.deleted...)
	gw.mu.Unlock()
	assert.Equal(t, []string{active}, deleted)
}

func TestDeleteFailureLeavesEverything(t *testing.T) {
	gw := &fakeGateway{deleteErr: &models.GatewayError{
		Kind:    models.GatewayRejected,
		Message: "Session not found",
	}}
	h := newHarness(t, gw)
	h.ctrl.Start()

	gw.setSessions([]models.SessionSummary{{SessionID: "keep-me"}})
	h.ctrl.RefreshSessions()
	h.waitFor(t, func(s State) bool { return len(s.Sessions) == 1 })

	h.ctrl.DeleteSession("keep-me")

	assert.Equal(t, "Session not found", h.waitNotice(t))
	assert.Len(t, h.ctrl.Snapshot().Sessions, 1)
}

func TestResponseAfterSwitchingSessionsIsDropped(t *testing.T) {
	gw := &fakeGateway{generateResult: "late answer", generateDelay: 60 * time.Millisecond}
	h := newHarness(t, gw)
	h.ctrl.Start()

	h.submit("hello")
	h.waitFor(t, func(s State) bool { return s.InFlight })

	h.ctrl.LoadSession("somewhere-else")

	s := h.waitFor(t, func(s State) bool { return !s.InFlight })
	for _, msg := range s.Messages {
		assert.NotEqual(t, "late answer", msg.Text(), "stale response must not land in another session")
	}
	assert.Empty(t, s.LastResponse)
}
