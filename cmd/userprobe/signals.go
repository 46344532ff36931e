package main

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/aleister1102/userprobe/internal/search"
	"github.com/rs/zerolog"
)

// activeSearches tracks running searches so an interrupt can cancel them
type activeSearches struct {
	mu       sync.Mutex
	searches map[*search.Search]struct{}
	stopped  bool
}

func newActiveSearches() *activeSearches {
	return &activeSearches{searches: make(map[*search.Search]struct{})}
}

// track registers s. A search started after an interrupt is cancelled at once, since the
// interrupt may have landed between StartSearch and registration.
func (a *activeSearches) track(s *search.Search) {
	a.mu.Lock()
	a.searches[s] = struct{}{}
	stopped := a.stopped
	a.mu.Unlock()

	if stopped {
		s.CancelAll()
	}
}

func (a *activeSearches) remove(s *search.Search) {
	a.mu.Lock()
	delete(a.searches, s)
	a.mu.Unlock()
}

// interrupted reports whether cancelAll has been called
func (a *activeSearches) interrupted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopped
}

// cancelAll cancels the in-flight probes of every running search
func (a *activeSearches) cancelAll() int {
	a.mu.Lock()
	a.stopped = true
	snapshot := make([]*search.Search, 0, len(a.searches))
	for s := range a.searches {
		snapshot = append(snapshot, s)
	}
	a.mu.Unlock()

	cancelled := 0
	for _, s := range snapshot {
		cancelled += s.CancelAll()
	}
	return cancelled
}

// watchSignals cancels running probes on the first SIGINT/SIGTERM and the whole run on
// the second. The returned func stops watching.
func watchSignals(ctx context.Context, cancel context.CancelFunc, active *activeSearches, logger zerolog.Logger) func() {
	sigChan := make(chan os.Signal, 2)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		interrupted := false
		for {
			select {
			case sig := <-sigChan:
				if !interrupted {
					interrupted = true
					n := active.cancelAll()
					logger.Warn().Str("signal", sig.String()).Int("cancelled", n).
						Msg("Interrupt received, cancelling in-flight probes. Press Ctrl+C again to quit.")
					continue
				}
				logger.Warn().Str("signal", sig.String()).Msg("Second interrupt received, shutting down.")
				cancel()
				return
			case <-ctx.Done():
				return
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigChan)
		close(done)
	}
}
