// Package prober issues the single HTTP request behind each catalog rule and decides
// whether the identifier exists on that site.
package prober

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/aleister1102/userprobe/internal/httpclient"
	"github.com/aleister1102/userprobe/internal/models"
	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"
)

var (
	errTimedOut        = common.WrapError(common.ErrTimeout, "probe deadline reached")
	errCancelledByUser = common.WrapError(common.ErrCancelled, "probe cancelled")
)

// Doer sends one HTTP request. *httpclient.HTTPClient satisfies it.
type Doer interface {
	Do(ctx context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error)
}

var _ Doer = (*httpclient.HTTPClient)(nil)

// Prober runs probes against a shared client and registers each in-flight request in a pool
type Prober struct {
	client  Doer
	pool    *CancellationPool
	logger  zerolog.Logger
	regexes *regexCache
}

// regexCache holds compiled identifier regexes shared by a prober and its WithPool clones
type regexCache struct {
	mu      sync.Mutex
	entries map[string]*regexp2.Regexp
}

type doResult struct {
	resp *httpclient.HTTPResponse
	err  error
}

// New creates a prober. pool may be shared with whoever needs to cancel in-flight probes.
func New(client Doer, pool *CancellationPool, logger zerolog.Logger) *Prober {
	if pool == nil {
		pool = NewCancellationPool()
	}
	return &Prober{
		client:  client,
		pool:    pool,
		logger:  logger.With().Str("component", "Prober").Logger(),
		regexes: &regexCache{entries: make(map[string]*regexp2.Regexp)},
	}
}

// Pool returns the cancellation pool probes register in
func (p *Prober) Pool() *CancellationPool {
	return p.pool
}

// WithPool returns a prober sharing client, logger and regex cache but registering in pool
func (p *Prober) WithPool(pool *CancellationPool) *Prober {
	if pool == nil {
		pool = NewCancellationPool()
	}
	return &Prober{
		client:  p.client,
		pool:    pool,
		logger:  p.logger,
		regexes: p.regexes,
	}
}

// Probe checks identifier against rule. It never returns an error: every failure is folded
// into the outcome. A rejected identifier sends no request.
func (p *Prober) Probe(ctx context.Context, rule *models.ProbeRule, identifier string, timeout time.Duration) models.ProbeOutcome {
	start := time.Now()
	outcome := p.probe(ctx, rule, identifier, timeout)
	outcome.Rule = rule
	outcome.Duration = time.Since(start)

	event := p.logger.Debug().
		Str("site", rule.Name).
		Str("status", outcome.Status.String()).
		Int("status_code", outcome.StatusCode).
		Dur("duration", outcome.Duration)
	if outcome.Err != nil {
		event = event.Err(outcome.Err)
	}
	event.Msg("Probe finished")
	return outcome
}

func (p *Prober) probe(ctx context.Context, rule *models.ProbeRule, identifier string, timeout time.Duration) models.ProbeOutcome {
	if rule.IdentifierRegex != "" {
		ok, err := p.identifierAllowed(rule.IdentifierRegex, identifier)
		if err != nil {
			return models.ProbeOutcome{Status: models.OutcomeRejected, Err: err}
		}
		if !ok {
			return models.ProbeOutcome{Status: models.OutcomeRejected}
		}
	}

	body, err := rule.RequestBody(identifier)
	if err != nil {
		return models.ProbeOutcome{Status: models.OutcomeNetworkError, Err: common.WrapError(err, "failed to render request body")}
	}

	req := &httpclient.HTTPRequest{
		URL:     rule.RequestURL(identifier),
		Method:  rule.Method(),
		Headers: requestHeaders(rule.RequestHeaders, body != nil),
		Body:    body,
	}

	reqCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	handle := p.pool.Register(cancel)

	var timer *time.Timer
	if timeout > 0 {
		timer = time.AfterFunc(timeout, func() { cancel(errTimedOut) })
	}

	// Do may ignore reqCtx; the probe settles on whichever of the two finishes first.
	results := make(chan doResult, 1)
	go func() {
		resp, err := p.client.Do(reqCtx, req)
		results <- doResult{resp: resp, err: err}
	}()

	var res doResult
	select {
	case res = <-results:
	case <-reqCtx.Done():
		res.err = context.Cause(reqCtx)
	}

	if timer != nil {
		timer.Stop()
	}
	p.pool.Remove(handle)

	if res.err != nil {
		return classifyFailure(reqCtx, res.err)
	}
	if res.resp == nil {
		return models.ProbeOutcome{Status: models.OutcomeNetworkError, Err: common.NewNetworkError(req.URL, "empty response", nil)}
	}

	if res.resp.Truncated && rule.ValidationKind == models.ValidationMessage {
		p.logger.Warn().Str("site", rule.Name).Int("bytes", len(res.resp.Body)).
			Msg("Response body truncated; error messages past the cap are not seen")
	}

	return models.ProbeOutcome{
		Status:     judge(rule, identifier, res.resp),
		StatusCode: res.resp.StatusCode,
		FinalURL:   res.resp.FinalURL,
	}
}

// classifyFailure tells a deadline, a cancellation and a plain network error apart
func classifyFailure(reqCtx context.Context, err error) models.ProbeOutcome {
	cause := context.Cause(reqCtx)
	switch {
	case errors.Is(cause, common.ErrTimeout):
		return models.ProbeOutcome{Status: models.OutcomeTimedOut, Err: cause}
	case errors.Is(cause, common.ErrCancelled):
		return models.ProbeOutcome{Status: models.OutcomeCancelled, Err: cause}
	case cause != nil:
		// the caller's context ended
		return models.ProbeOutcome{Status: models.OutcomeCancelled, Err: fmt.Errorf("%w: %w", common.ErrCancelled, cause)}
	default:
		return models.ProbeOutcome{Status: models.OutcomeNetworkError, Err: err}
	}
}

func requestHeaders(headers map[string]string, hasBody bool) map[string]string {
	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	if hasBody && !hasHeader(out, "Content-Type") {
		out["Content-Type"] = "application/json"
	}
	return out
}

func hasHeader(headers map[string]string, name string) bool {
	for k := range headers {
		if strings.EqualFold(k, name) {
			return true
		}
	}
	return false
}

func (p *Prober) identifierAllowed(expr, identifier string) (bool, error) {
	re, err := p.compile(expr)
	if err != nil {
		return false, common.WrapErrorf(err, "invalid identifier regex '%s'", expr)
	}
	return re.MatchString(identifier)
}

func (p *Prober) compile(expr string) (*regexp2.Regexp, error) {
	return p.regexes.compile(expr)
}

func (c *regexCache) compile(expr string) (*regexp2.Regexp, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if re, ok := c.entries[expr]; ok {
		return re, nil
	}
	re, err := regexp2.Compile(expr, regexp2.ECMAScript)
	if err != nil {
		return nil, err
	}
	re.MatchTimeout = time.Second
	c.entries[expr] = re
	return re, nil
}

func (c *regexCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
