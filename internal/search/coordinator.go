// Package search fans a single identifier out across every admitted probe rule and merges
// the outcomes into a progress tally and a result stream.
package search

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/aleister1102/userprobe/internal/models"
	"github.com/aleister1102/userprobe/internal/prober"
	"github.com/aleister1102/userprobe/internal/progress"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Request describes one search
type Request struct {
	// ID is generated when zero
	ID           uuid.UUID
	Rules        []models.ProbeRule
	Identifier   string
	Timeout      time.Duration
	IncludeAdult bool
}

// Option configures a Coordinator
type Option func(*Coordinator)

// WithMaxConcurrency caps in-flight probes per search. Zero or less means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(c *Coordinator) {
		if n < 0 {
			n = 0
		}
		c.maxConcurrency = n
	}
}

// Coordinator starts searches. It is safe to start several searches concurrently; each
// owns its own cancellation pool.
type Coordinator struct {
	prober         *prober.Prober
	logger         zerolog.Logger
	maxConcurrency int
}

// NewCoordinator creates a coordinator that probes through p
func NewCoordinator(p *prober.Prober, logger zerolog.Logger, opts ...Option) *Coordinator {
	c := &Coordinator{
		prober: p,
		logger: logger.With().Str("component", "SearchCoordinator").Logger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// StartSearch admits rules, launches one probe per admitted rule and returns immediately.
// sink receives each match as it is found; listener receives progress. Both may be nil.
func (c *Coordinator) StartSearch(ctx context.Context, req Request, sink ResultSink, listener progress.Listener) (*Search, error) {
	identifier := strings.TrimSpace(req.Identifier)
	if identifier == "" {
		return nil, common.NewValidationError("identifier", req.Identifier, "identifier must not be empty")
	}
	if req.Timeout <= 0 {
		return nil, common.NewValidationError("timeout", req.Timeout, "timeout must be positive")
	}

	admitted := admit(req.Rules, req.IncludeAdult)

	id := req.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	searchPool := prober.NewCancellationPool()
	searchCtx, stop := context.WithCancelCause(ctx)
	s := &Search{
		ID:         id,
		Identifier: identifier,
		StartedAt:  time.Now(),
		pool:       searchPool,
		ctx:        searchCtx,
		stop:       stop,
		counts:     make(map[models.OutcomeStatus]int),
		collector:  &matchCollector{},
	}
	s.logger = c.logger.With().Str("search_id", s.ID.String()).Str("identifier", identifier).Logger()
	s.tracker = progress.NewTracker(len(admitted), progress.Listeners{listener, progress.ListenerFuncs{Complete: s.finish}}, s.logger)
	s.sink = MultiSink{s.collector, sink}

	s.logger.Info().
		Int("admitted", len(admitted)).
		Int("catalog", len(req.Rules)).
		Bool("include_adult", req.IncludeAdult).
		Dur("timeout", req.Timeout).
		Msg("Starting search")

	s.tracker.Start()
	if len(admitted) == 0 {
		return s, nil
	}

	p := c.prober.WithPool(searchPool)
	run := func(rule *models.ProbeRule) {
		if s.stopping() {
			s.record(stoppedOutcome(searchCtx, rule), identifier)
			return
		}
		outcome := p.Probe(searchCtx, rule, identifier, req.Timeout)
		s.record(outcome, identifier)
	}

	if c.maxConcurrency == 0 {
		for i := range admitted {
			rule := &admitted[i]
			go run(rule)
		}
		return s, nil
	}

	workers := pool.New().WithMaxGoroutines(c.maxConcurrency)
	go func() {
		for i := range admitted {
			rule := &admitted[i]
			workers.Go(func() { run(rule) })
		}
		workers.Wait()
	}()
	return s, nil
}

// stoppedOutcome settles a probe that never started because its search ended
func stoppedOutcome(ctx context.Context, rule *models.ProbeRule) models.ProbeOutcome {
	cause := context.Cause(ctx)
	if cause == nil {
		cause = errSearchStopped
	}
	if !errors.Is(cause, common.ErrCancelled) {
		cause = fmt.Errorf("%w: %w", common.ErrCancelled, cause)
	}
	return models.ProbeOutcome{Rule: rule, Status: models.OutcomeCancelled, Err: cause}
}

// admit copies the rules a search may probe
func admit(rules []models.ProbeRule, includeAdult bool) []models.ProbeRule {
	out := make([]models.ProbeRule, 0, len(rules))
	for _, r := range rules {
		if r.IsAdultContent && !includeAdult {
			continue
		}
		out = append(out, r)
	}
	return out
}
