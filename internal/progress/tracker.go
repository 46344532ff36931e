// Package progress counts settled probes against the admitted total and reports progress.
package progress

import (
	"sync"

	"github.com/rs/zerolog"
)

// Tracker counts settled probes and signals completion exactly once
type Tracker struct {
	// notifyMu serializes listener calls so they observe counts in order; mu guards state
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    State
	listener Listener
	logger   zerolog.Logger

	once sync.Once
	done chan struct{}
}

// NewTracker creates a tracker for total probes. listener may be nil.
func NewTracker(total int, listener Listener, logger zerolog.Logger) *Tracker {
	if total < 0 {
		total = 0
	}
	return &Tracker{
		state:    State{Total: total},
		listener: listener,
		logger:   logger.With().Str("component", "ProgressTracker").Logger(),
		done:     make(chan struct{}),
	}
}

// Start announces the initial state. A tracker with nothing to count completes here.
func (t *Tracker) Start() {
	t.notifyMu.Lock()
	state := t.State()
	if t.listener != nil {
		t.listener.OnProgress(state)
	}
	t.notifyMu.Unlock()

	if state.Done() {
		t.complete(state)
	}
}

// AddSuccess records a matched probe
func (t *Tracker) AddSuccess() {
	t.add(true)
}

// AddFail records any probe that did not match
func (t *Tracker) AddFail() {
	t.add(false)
}

func (t *Tracker) add(success bool) {
	t.notifyMu.Lock()

	t.mu.Lock()
	if t.state.Done() {
		state := t.state
		t.mu.Unlock()
		t.notifyMu.Unlock()
		t.logger.Warn().
			Bool("success", success).
			Int("total", state.Total).
			Msg("Ignoring progress update after completion")
		return
	}
	if success {
		t.state.SuccessCount++
	} else {
		t.state.FailCount++
	}
	state := t.state
	t.mu.Unlock()

	if t.listener != nil {
		t.listener.OnProgress(state)
	}
	t.notifyMu.Unlock()

	if state.Done() {
		t.complete(state)
	}
}

func (t *Tracker) complete(state State) {
	t.once.Do(func() {
		if t.listener != nil {
			t.listener.OnComplete(state)
		}
		close(t.done)
	})
}

// State returns the current snapshot
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Done is closed after the completion callback has run
func (t *Tracker) Done() <-chan struct{} {
	return t.done
}
