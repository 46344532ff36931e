package search

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/aleister1102/userprobe/internal/models"
	"github.com/aleister1102/userprobe/internal/prober"
	"github.com/aleister1102/userprobe/internal/progress"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var errSearchStopped = common.WrapError(common.ErrCancelled, "search stopped")

// Search is one running fan-out for a single identifier
type Search struct {
	ID         uuid.UUID
	Identifier string
	StartedAt  time.Time

	pool      *prober.CancellationPool
	ctx       context.Context
	stop      context.CancelCauseFunc
	stopped   atomic.Bool
	tracker   *progress.Tracker
	sink      ResultSink
	collector *matchCollector
	logger    zerolog.Logger

	mu         sync.Mutex
	counts     map[models.OutcomeStatus]int
	finishedAt time.Time
}

// Summary is the final account of a search
type Summary struct {
	ID         uuid.UUID
	Identifier string
	State      progress.State
	// Matches is ordered by site name
	Matches  []models.Match
	Counts   map[models.OutcomeStatus]int
	Duration time.Duration
}

// CancelAll aborts every probe in flight and stops the search: probes still waiting for a
// worker settle as cancelled without sending a request. Every probe is still counted, so
// the search completes. Returns the number of in-flight probes signalled.
func (s *Search) CancelAll() int {
	// Flag first: a probe freed by the pool below must not let a queued one start.
	s.stopped.Store(true)
	n := s.pool.CancelAll()
	s.stop(errSearchStopped)
	s.logger.Info().Int("cancelled", n).Msg("Cancelled in-flight probes")
	return n
}

// InFlight returns the number of requests currently outstanding
func (s *Search) InFlight() int {
	return s.pool.Len()
}

// Progress returns the current tally
func (s *Search) Progress() progress.State {
	return s.tracker.State()
}

// Done is closed once every admitted probe has settled
func (s *Search) Done() <-chan struct{} {
	return s.tracker.Done()
}

// Wait blocks until the search completes and returns its summary
func (s *Search) Wait() Summary {
	<-s.tracker.Done()
	return s.summary()
}

func (s *Search) stopping() bool {
	return s.stopped.Load() || s.ctx.Err() != nil
}

func (s *Search) record(outcome models.ProbeOutcome, identifier string) {
	s.mu.Lock()
	s.counts[outcome.Status]++
	s.mu.Unlock()

	if outcome.Matched() {
		s.sink.Notify(models.NewMatch(outcome.Rule, identifier))
		s.tracker.AddSuccess()
		return
	}
	s.tracker.AddFail()
}

func (s *Search) finish(state progress.State) {
	s.stop(nil)

	s.mu.Lock()
	s.finishedAt = time.Now()
	s.mu.Unlock()

	s.logger.Info().
		Int("matched", state.SuccessCount).
		Int("not_matched", state.FailCount).
		Int("total", state.Total).
		Dur("duration", time.Since(s.StartedAt)).
		Msg("Search complete")
}

func (s *Search) summary() Summary {
	matches := s.collector.snapshot()
	sort.SliceStable(matches, func(i, j int) bool { return matches[i].Name < matches[j].Name })

	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[models.OutcomeStatus]int, len(s.counts))
	for k, v := range s.counts {
		counts[k] = v
	}

	return Summary{
		ID:         s.ID,
		Identifier: s.Identifier,
		State:      s.tracker.State(),
		Matches:    matches,
		Counts:     counts,
		Duration:   s.finishedAt.Sub(s.StartedAt),
	}
}
