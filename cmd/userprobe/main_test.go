package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/aleister1102/userprobe/internal/config"
	"github.com/aleister1102/userprobe/internal/httpclient"
	"github.com/aleister1102/userprobe/internal/models"
	"github.com/aleister1102/userprobe/internal/prober"
	"github.com/aleister1102/userprobe/internal/search"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSiteServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/found/") {
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte("profile"))
			return
		}
		http.NotFound(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func writeCatalog(t *testing.T, base string) string {
	t.Helper()
	body := fmt.Sprintf(`{
  "Alpha": {"url": "%[1]s/found/{}", "urlMain": "%[1]s/", "errorType": "status_code"},
  "Beta":  {"url": "%[1]s/missing/{}", "urlMain": "%[1]s/", "errorType": "status_code"},
  "Gamma": {"url": "%[1]s/found/{}", "urlMain": "%[1]s/", "errorType": "status_code", "isNSFW": true}
}`, base)
	path := filepath.Join(t.TempDir(), "data.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.ConfigPathEnv, "")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommand_FindsMatches(t *testing.T) {
	srv := newSiteServer(t)
	catalogPath := writeCatalog(t, srv.URL)

	out, err := runCLI(t, "--catalog", catalogPath, "--no-progress", "--log-level", "error", "alice")
	require.NoError(t, err)

	assert.Contains(t, out, "[+] Alpha: "+srv.URL+"/found/alice")
	assert.NotContains(t, out, "[+] Beta")
	assert.NotContains(t, out, "[+] Gamma", "adult sites are excluded by default")
	assert.Contains(t, out, "Search completed with 1 results")
}

func TestRootCommand_IncludeAdultAndSiteFilter(t *testing.T) {
	srv := newSiteServer(t)
	catalogPath := writeCatalog(t, srv.URL)

	out, err := runCLI(t, "--catalog", catalogPath, "--no-progress", "--log-level", "error",
		"--nsfw", "--site", "gamma", "--site", "Beta", "bob")
	require.NoError(t, err)

	assert.Contains(t, out, "[+] Gamma: "+srv.URL+"/found/bob")
	assert.NotContains(t, out, "[+] Alpha")
	assert.Contains(t, out, "Search completed with 1 results")
}

func TestRootCommand_HTMLReport(t *testing.T) {
	srv := newSiteServer(t)
	catalogPath := writeCatalog(t, srv.URL)
	outDir := t.TempDir()

	out, err := runCLI(t, "--catalog", catalogPath, "--no-progress", "--log-level", "error",
		"--html", "--output", outDir, "carol")
	require.NoError(t, err)
	assert.Contains(t, out, "Report written to")

	entries, err := os.ReadDir(outDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.True(t, strings.HasPrefix(entries[0].Name(), "carol-"))
}

func TestRootCommand_Errors(t *testing.T) {
	_, err := runCLI(t)
	assert.Error(t, err, "a username is required")

	_, err = runCLI(t, "--catalog", filepath.Join(t.TempDir(), "absent.json"), "--no-progress", "dave")
	assert.Error(t, err)

	_, err = runCLI(t, "--timeout", "0", "erin")
	assert.Error(t, err, "non-positive timeout fails validation")
}

func TestApplyOverrides_OnlyChangedFlags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{"--timeout", "5", "--webhook", "https://discord.test/api/webhooks/1/x"}))

	cfg := config.NewDefaultGlobalConfig()
	cfg.SearchConfig.MaxConcurrency = 7
	f := &AppFlags{TimeoutSecs: 5, WebhookURL: "https://discord.test/api/webhooks/1/x"}
	applyOverrides(cfg, f, cmd.Flags())

	assert.Equal(t, 5, cfg.SearchConfig.TimeoutSecs)
	assert.Equal(t, "https://discord.test/api/webhooks/1/x", cfg.NotificationConfig.DiscordWebhookURL)
	assert.Equal(t, 7, cfg.SearchConfig.MaxConcurrency, "unset flag must not clobber config")
	assert.Equal(t, config.DefaultCatalogSource, cfg.CatalogConfig.Source)
}

type blockingDoer struct{}

func (blockingDoer) Do(ctx context.Context, _ *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestActiveSearches_TrackAfterInterruptCancels(t *testing.T) {
	active := newActiveSearches()
	active.cancelAll()

	coordinator := search.NewCoordinator(prober.New(blockingDoer{}, nil, zerolog.Nop()), zerolog.Nop())
	s, err := coordinator.StartSearch(context.Background(), search.Request{
		Rules: []models.ProbeRule{
			{Name: "Slow", ProfileURLTemplate: "https://slow.test/{}", ValidationKind: models.ValidationStatusCode},
		},
		Identifier: "alice",
		Timeout:    time.Minute,
	}, nil, nil)
	require.NoError(t, err)

	active.track(s)

	select {
	case <-s.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("search started after an interrupt kept running")
	}
	assert.Equal(t, 1, s.Wait().Counts[models.OutcomeCancelled])
}

func TestNewHTTPClientLeavesDeadlineToProbes(t *testing.T) {
	client, err := newHTTPClient(config.NewDefaultHTTPConfig(), zerolog.Nop())
	require.NoError(t, err)
	assert.Zero(t, client.Config().Timeout)
	assert.Equal(t, config.DefaultHTTPMaxContentKB*1024, client.Config().MaxContentSize)
}

func TestActiveSearches_InterruptedFlag(t *testing.T) {
	active := newActiveSearches()
	assert.False(t, active.interrupted())
	assert.Equal(t, 0, active.cancelAll())
	assert.True(t, active.interrupted())
}
