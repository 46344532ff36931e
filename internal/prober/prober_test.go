package prober

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/aleister1102/userprobe/internal/httpclient"
	"github.com/aleister1102/userprobe/internal/models"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type doerFunc func(ctx context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error)

func (f doerFunc) Do(ctx context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
	return f(ctx, req)
}

// hangingDoer never answers; it only returns once its context is done
func hangingDoer(started chan<- struct{}) doerFunc {
	return func(ctx context.Context, _ *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
		if started != nil {
			started <- struct{}{}
		}
		<-ctx.Done()
		return nil, common.NewNetworkError("hang", "request failed", ctx.Err())
	}
}

func newTestClient(t *testing.T) *httpclient.HTTPClient {
	t.Helper()
	client, err := httpclient.NewHTTPClientBuilder(zerolog.Nop()).Build()
	require.NoError(t, err)
	return client
}

func TestProbeStatusCode(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		want    models.OutcomeStatus
		matched bool
	}{
		{name: "error status", status: http.StatusNotFound, want: models.OutcomeNotMatched},
		{name: "ok", status: http.StatusOK, want: models.OutcomeMatched, matched: true},
		{name: "server error", status: http.StatusInternalServerError, want: models.OutcomeHTTPStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/users/alice", r.URL.Path)
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			rule := &models.ProbeRule{
				Name:                  "Site",
				ProfileURLTemplate:    server.URL + "/users/{}",
				ValidationKind:        models.ValidationStatusCode,
				ExpectedErrorStatuses: []int{http.StatusNotFound},
			}

			p := New(newTestClient(t), nil, zerolog.Nop())
			outcome := p.Probe(context.Background(), rule, "alice", 5*time.Second)

			assert.Equal(t, tt.want, outcome.Status)
			assert.Equal(t, tt.matched, outcome.Matched())
			assert.Equal(t, tt.status, outcome.StatusCode)
			assert.Same(t, rule, outcome.Rule)
			assert.NoError(t, outcome.Err)
			assert.Zero(t, p.Pool().Len())
		})
	}
}

func TestProbeMessage(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		matched bool
	}{
		{name: "contains error message", body: "<h1>User not found</h1>", matched: false},
		{name: "profile page", body: "<h1>alice's profile</h1>", matched: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, tt.body)
			}))
			defer server.Close()

			rule := &models.ProbeRule{
				Name:               "Site",
				ProfileURLTemplate: server.URL + "/{}",
				ValidationKind:     models.ValidationMessage,
				ErrorMessages:      []string{"not found"},
			}

			outcome := New(newTestClient(t), nil, zerolog.Nop()).Probe(context.Background(), rule, "alice", 5*time.Second)
			assert.Equal(t, tt.matched, outcome.Matched())
		})
	}
}

func TestProbeMessageAnyOfSeveral(t *testing.T) {
	resp := &httpclient.HTTPResponse{StatusCode: http.StatusOK, Body: []byte("Sorry, this page is gone")}
	rule := &models.ProbeRule{ValidationKind: models.ValidationMessage, ErrorMessages: []string{"not found", "page is gone"}}
	assert.Equal(t, models.OutcomeNotMatched, judge(rule, "alice", resp))
}

func TestProbeResponseURL(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/missing/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, serverURL+"/ghost/error", http.StatusFound)
	})
	mux.HandleFunc("/present/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, serverURL+"/profile/alice", http.StatusFound)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	server := httptest.NewServer(mux)
	defer server.Close()
	serverURL = server.URL

	p := New(newTestClient(t), nil, zerolog.Nop())

	missing := &models.ProbeRule{
		Name:               "Missing",
		ProfileURLTemplate: server.URL + "/missing/{}",
		ValidationKind:     models.ValidationResponseURL,
		ErrorURLTemplate:   server.URL + "/{}/error",
	}
	outcome := p.Probe(context.Background(), missing, "ghost", 5*time.Second)
	assert.False(t, outcome.Matched())
	assert.Equal(t, server.URL+"/ghost/error", outcome.FinalURL)

	present := &models.ProbeRule{
		Name:               "Present",
		ProfileURLTemplate: server.URL + "/present/{}",
		ValidationKind:     models.ValidationResponseURL,
		ErrorURLTemplate:   server.URL + "/{}/error",
	}
	outcome = p.Probe(context.Background(), present, "alice", 5*time.Second)
	assert.True(t, outcome.Matched())
	assert.Equal(t, server.URL+"/profile/alice", outcome.FinalURL)
}

func TestProbeRejectedIdentifierSendsNothing(t *testing.T) {
	var calls atomic.Int32
	spy := doerFunc(func(ctx context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
		calls.Add(1)
		return &httpclient.HTTPResponse{StatusCode: http.StatusOK, FinalURL: req.URL}, nil
	})

	rule := &models.ProbeRule{
		Name:               "GitHub",
		ProfileURLTemplate: "https://github.test/{}",
		ValidationKind:     models.ValidationStatusCode,
		// lookahead needs an ECMAScript-style engine
		IdentifierRegex: "^[a-zA-Z0-9](?:[a-zA-Z0-9]|-(?=[a-zA-Z0-9])){0,38}$",
	}

	p := New(spy, nil, zerolog.Nop())

	outcome := p.Probe(context.Background(), rule, "bad--name-", time.Second)
	assert.Equal(t, models.OutcomeRejected, outcome.Status)
	assert.False(t, outcome.Matched())
	assert.Equal(t, int32(0), calls.Load())

	outcome = p.Probe(context.Background(), rule, "good-name", time.Second)
	assert.True(t, outcome.Matched())
	assert.Equal(t, int32(1), calls.Load())
}

func TestProbeInvalidRegexRejects(t *testing.T) {
	var calls atomic.Int32
	spy := doerFunc(func(ctx context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
		calls.Add(1)
		return &httpclient.HTTPResponse{StatusCode: http.StatusOK}, nil
	})
	rule := &models.ProbeRule{Name: "Broken", ProfileURLTemplate: "https://x.test/{}", IdentifierRegex: "(["}

	outcome := New(spy, nil, zerolog.Nop()).Probe(context.Background(), rule, "alice", time.Second)
	assert.Equal(t, models.OutcomeRejected, outcome.Status)
	assert.Error(t, outcome.Err)
	assert.Equal(t, int32(0), calls.Load())
}

func TestProbeTimeout(t *testing.T) {
	pool := NewCancellationPool()
	p := New(hangingDoer(nil), pool, zerolog.Nop())
	rule := &models.ProbeRule{Name: "Slow", ProfileURLTemplate: "https://slow.test/{}", ValidationKind: models.ValidationStatusCode}

	start := time.Now()
	outcome := p.Probe(context.Background(), rule, "alice", time.Second)
	elapsed := time.Since(start)

	assert.False(t, outcome.Matched())
	assert.Equal(t, models.OutcomeTimedOut, outcome.Status)
	assert.ErrorIs(t, outcome.Err, common.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, time.Second)
	assert.Less(t, elapsed, 3*time.Second)
	assert.Zero(t, pool.Len())
}

func TestProbeTimeoutWhenTransportIgnoresContext(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	stuck := doerFunc(func(_ context.Context, _ *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
		<-block
		return &httpclient.HTTPResponse{StatusCode: http.StatusOK}, nil
	})

	pool := NewCancellationPool()
	rule := &models.ProbeRule{Name: "Stuck", ProfileURLTemplate: "https://stuck.test/{}", ValidationKind: models.ValidationStatusCode}

	start := time.Now()
	outcome := New(stuck, pool, zerolog.Nop()).Probe(context.Background(), rule, "alice", time.Second)
	elapsed := time.Since(start)

	assert.False(t, outcome.Matched())
	assert.Equal(t, models.OutcomeTimedOut, outcome.Status)
	assert.ErrorIs(t, outcome.Err, common.ErrTimeout)
	assert.GreaterOrEqual(t, elapsed, time.Second)
	assert.Less(t, elapsed, 3*time.Second)
	assert.Zero(t, pool.Len())
}

func TestProbeCancelAllWhenTransportIgnoresContext(t *testing.T) {
	block := make(chan struct{})
	t.Cleanup(func() { close(block) })
	started := make(chan struct{}, 1)
	stuck := doerFunc(func(_ context.Context, _ *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
		started <- struct{}{}
		<-block
		return nil, errors.New("unreachable")
	})

	pool := NewCancellationPool()
	p := New(stuck, pool, zerolog.Nop())
	done := make(chan models.ProbeOutcome, 1)
	go func() {
		done <- p.Probe(context.Background(), &models.ProbeRule{Name: "Stuck", ProfileURLTemplate: "https://stuck.test/{}"}, "alice", time.Minute)
	}()

	<-started
	require.Eventually(t, func() bool { return pool.Len() == 1 }, time.Second, 5*time.Millisecond)
	pool.CancelAll()

	select {
	case outcome := <-done:
		assert.Equal(t, models.OutcomeCancelled, outcome.Status)
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not resolve after cancellation")
	}
	assert.Zero(t, pool.Len())
}

func TestProbeWarnsOnTruncatedMessageBody(t *testing.T) {
	truncated := doerFunc(func(_ context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
		return &httpclient.HTTPResponse{StatusCode: http.StatusOK, Body: []byte("partial"), Truncated: true, FinalURL: req.URL}, nil
	})

	var logs bytes.Buffer
	p := New(truncated, nil, zerolog.New(&logs).Level(zerolog.WarnLevel))
	rule := &models.ProbeRule{Name: "Big", ProfileURLTemplate: "https://big.test/{}", ValidationKind: models.ValidationMessage, ErrorMessages: []string{"Not found"}}

	outcome := p.Probe(context.Background(), rule, "alice", time.Second)
	assert.True(t, outcome.Matched())
	assert.Contains(t, logs.String(), "Response body truncated")
	assert.Contains(t, logs.String(), `"site":"Big"`)

	logs.Reset()
	rule.ValidationKind = models.ValidationStatusCode
	p.Probe(context.Background(), rule, "alice", time.Second)
	assert.Empty(t, logs.String())
}

func TestProbeCancelledThroughPool(t *testing.T) {
	pool := NewCancellationPool()
	started := make(chan struct{}, 1)
	p := New(hangingDoer(started), pool, zerolog.Nop())
	rule := &models.ProbeRule{Name: "Slow", ProfileURLTemplate: "https://slow.test/{}"}

	done := make(chan models.ProbeOutcome, 1)
	go func() { done <- p.Probe(context.Background(), rule, "alice", time.Minute) }()

	<-started
	assert.Equal(t, 1, pool.Len())
	assert.Equal(t, 1, pool.CancelAll())

	select {
	case outcome := <-done:
		assert.Equal(t, models.OutcomeCancelled, outcome.Status)
		assert.ErrorIs(t, outcome.Err, common.ErrCancelled)
		assert.False(t, outcome.Matched())
	case <-time.After(2 * time.Second):
		t.Fatal("probe did not resolve after cancellation")
	}
	assert.Zero(t, pool.Len())
}

func TestProbeParentContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	p := New(hangingDoer(nil), nil, zerolog.Nop())
	outcome := p.Probe(ctx, &models.ProbeRule{Name: "X", ProfileURLTemplate: "https://x.test/{}"}, "alice", time.Minute)
	assert.Equal(t, models.OutcomeCancelled, outcome.Status)
	assert.ErrorIs(t, outcome.Err, common.ErrCancelled)
	assert.ErrorIs(t, outcome.Err, context.Canceled)
}

func TestProbeNetworkError(t *testing.T) {
	failing := doerFunc(func(ctx context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
		return nil, common.NewNetworkError(req.URL, "request failed", errors.New("connection refused"))
	})
	outcome := New(failing, nil, zerolog.Nop()).Probe(context.Background(), &models.ProbeRule{Name: "X", ProfileURLTemplate: "https://x.test/{}"}, "alice", time.Second)
	assert.Equal(t, models.OutcomeNetworkError, outcome.Status)
	var netErr *common.NetworkError
	assert.ErrorAs(t, outcome.Err, &netErr)
	assert.True(t, outcome.Failed())
}

func TestProbeUnknownKindMatchesOnAnyResponse(t *testing.T) {
	ok := doerFunc(func(ctx context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
		return &httpclient.HTTPResponse{StatusCode: http.StatusNotFound, FinalURL: req.URL}, nil
	})
	rule := &models.ProbeRule{Name: "Odd", ProfileURLTemplate: "https://odd.test/{}", ValidationKind: models.ValidationUnknown}
	assert.True(t, New(ok, nil, zerolog.Nop()).Probe(context.Background(), rule, "alice", time.Second).Matched())
}

func TestProbeSendsRenderedRequest(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/graphql", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "yes", r.Header.Get("X-Probe"))
		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		assert.JSONEq(t, `{"variables":{"name":"alice"},"tags":["alice","x"]}`, string(body))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	rule := &models.ProbeRule{
		Name:               "Graph",
		ProfileURLTemplate: "https://graph.test/u/{}",
		ProbeURLTemplate:   server.URL + "/graphql",
		ValidationKind:     models.ValidationStatusCode,
		HTTPMethod:         "post",
		RequestHeaders:     map[string]string{"X-Probe": "yes"},
		RequestBodyTemplate: map[string]any{
			"variables": map[string]any{"name": "{}"},
			"tags":      []any{"{}", "x"},
		},
	}

	outcome := New(newTestClient(t), nil, zerolog.Nop()).Probe(context.Background(), rule, "alice", 5*time.Second)
	assert.True(t, outcome.Matched())

	// rendering must not touch the template
	assert.Equal(t, "{}", rule.RequestBodyTemplate["variables"].(map[string]any)["name"])
}

func TestRequestHeadersKeepExplicitContentType(t *testing.T) {
	h := requestHeaders(map[string]string{"content-type": "text/plain"}, true)
	assert.Equal(t, map[string]string{"content-type": "text/plain"}, h)

	h = requestHeaders(nil, false)
	assert.Empty(t, h)
}

func TestWithPoolIsolatesRegistrations(t *testing.T) {
	base := New(hangingDoer(nil), nil, zerolog.Nop())
	other := NewCancellationPool()
	clone := base.WithPool(other)
	assert.Same(t, other, clone.Pool())
	assert.NotSame(t, base.Pool(), clone.Pool())
}

func TestWithPoolSharesRegexCache(t *testing.T) {
	base := New(hangingDoer(nil), nil, zerolog.Nop())
	clone := base.WithPool(NewCancellationPool())

	ok, err := clone.identifierAllowed(`^[a-z]+$`, "alice")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 1, base.regexes.len(), "compilations through a clone reach the parent")

	_, err = base.WithPool(nil).identifierAllowed(`^[a-z]+$`, "bob")
	require.NoError(t, err)
	assert.Equal(t, 1, base.regexes.len())
}
