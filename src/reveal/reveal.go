// Package reveal fakes streaming. The backend returns complete responses
// in one piece, so the engine plays them back a few characters per tick
// to keep the chat feeling live.
package reveal

import (
	"sync"
	"time"
)

const (
	defaultInterval = 30 * time.Millisecond
	defaultChunk    = 2 // runes added per tick
)

// Engine turns a finished response into a monotonically growing display
// prefix. One reveal runs at a time: Start cancels whatever was still
// animating and begins again from the empty prefix. The underlying
// message text is never touched, only this transient prefix moves.
type Engine struct {
	mu       sync.Mutex
	interval time.Duration
	chunk    int
	target   []rune
	shown    int
	stop     chan struct{}

	notify func(prefix string, done bool)
}

// New builds an engine reporting each prefix step through notify.
func New(interval time.Duration, notify func(prefix string, done bool)) *Engine {
	if interval <= 0 {
		interval = defaultInterval
	}
	if notify == nil {
		notify = func(string, bool) {}
	}
	return &Engine{interval: interval, chunk: defaultChunk, notify: notify}
}

// Start begins revealing text, cancelling any reveal still in progress.
// The first notification is always the empty prefix, so a new response
// visibly replaces the previous one immediately.
func (e *Engine) Start(text string) {
	e.mu.Lock()
	if e.stop != nil {
		close(e.stop)
	}
	stop := make(chan struct{})
	e.stop = stop
	e.target = []rune(text)
	e.shown = 0
	e.mu.Unlock()

	e.notify("", false)
	go e.run(stop)
}

// Cancel stops the current reveal without completing it.
func (e *Engine) Cancel() {
	e.mu.Lock()
	if e.stop != nil {
		close(e.stop)
		e.stop = nil
	}
	e.mu.Unlock()
}

// Prefix returns the currently revealed prefix.
func (e *Engine) Prefix() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return string(e.target[:e.shown])
}

func (e *Engine) run(stop chan struct{}) {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			e.mu.Lock()
			if e.stop != stop {
				// A newer reveal took over between ticks.
				e.mu.Unlock()
				return
			}
			e.shown += e.chunk
			if e.shown >= len(e.target) {
				e.shown = len(e.target)
			}
			prefix := string(e.target[:e.shown])
			done := e.shown == len(e.target)
			if done {
				e.stop = nil
			}
			e.mu.Unlock()

			e.notify(prefix, done)
			if done {
				return
			}
		}
	}
}
