package main

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aleister1102/userprobe/internal/catalog"
	"github.com/aleister1102/userprobe/internal/config"
	"github.com/aleister1102/userprobe/internal/httpclient"
	"github.com/aleister1102/userprobe/internal/logger"
	"github.com/aleister1102/userprobe/internal/notifier"
	"github.com/aleister1102/userprobe/internal/prober"
	"github.com/aleister1102/userprobe/internal/progress"
	"github.com/aleister1102/userprobe/internal/reporter"
	"github.com/aleister1102/userprobe/internal/search"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	catalogLoadTimeout  = time.Minute
	notificationTimeout = 30 * time.Second
)

// application holds everything shared by the searches of one invocation
type application struct {
	cfg          *config.GlobalConfig
	flags        *AppFlags
	logger       zerolog.Logger
	client       *httpclient.HTTPClient
	out          io.Writer
	htmlReporter *reporter.HtmlReporter
	notifier     *notifier.NotificationHelper
}

func newApplication(cmd *cobra.Command, flags *AppFlags) (*application, error) {
	cfg, err := config.LoadGlobalConfig(flags.GlobalConfigFile, zerolog.Nop())
	if err != nil {
		return nil, fmt.Errorf("could not load config: %w", err)
	}
	applyOverrides(cfg, flags, cmd.Flags())

	if err := config.ValidateConfig(cfg); err != nil {
		return nil, err
	}

	zLogger, err := logger.New(cfg.LogConfig)
	if err != nil {
		return nil, fmt.Errorf("could not initialize logger: %w", err)
	}

	client, err := newHTTPClient(cfg.HTTPConfig, zLogger)
	if err != nil {
		return nil, fmt.Errorf("could not build HTTP client: %w", err)
	}

	app := &application{
		cfg:    cfg,
		flags:  flags,
		logger: zLogger,
		client: client,
		out:    cmd.OutOrStdout(),
	}

	if cfg.ReporterConfig.GenerateHTML {
		app.htmlReporter, err = reporter.NewHtmlReporter(&cfg.ReporterConfig, zLogger)
		if err != nil {
			return nil, fmt.Errorf("could not initialize HTML reporter: %w", err)
		}
	}

	discordNotifier, err := notifier.NewDiscordNotifier(zLogger, client)
	if err != nil {
		return nil, fmt.Errorf("could not initialize notifier: %w", err)
	}
	app.notifier = notifier.NewNotificationHelper(discordNotifier, cfg.NotificationConfig, zLogger)

	return app, nil
}

// newHTTPClient builds the shared client. It sets no overall timeout: each probe owns its
// deadline, and other callers bound their requests through ctx.
func newHTTPClient(cfg config.HTTPConfig, logger zerolog.Logger) (*httpclient.HTTPClient, error) {
	return httpclient.NewHTTPClientBuilder(logger).
		WithUserAgent(cfg.UserAgent).
		WithInsecureSkipVerify(cfg.InsecureSkipVerify).
		WithFollowRedirects(true).
		WithMaxRedirects(cfg.MaxRedirects).
		WithMaxContentSize(cfg.MaxContentKB * 1024).
		WithHTTP2(cfg.EnableHTTP2).
		WithProxy(cfg.Proxy).
		WithCustomHeaders(cfg.CustomHeaders).
		Build()
}

func (a *application) catalogOptions() []catalog.Option {
	opts := []catalog.Option{catalog.WithLogger(a.logger)}
	if a.cfg.CatalogConfig.SkipInvalid {
		opts = append(opts, catalog.WithSkipInvalid())
	}
	if a.cfg.CatalogConfig.PermissiveKinds {
		opts = append(opts, catalog.WithPermissiveKinds())
	}
	return opts
}

func (a *application) loadCatalog(ctx context.Context) (*catalog.Catalog, error) {
	source := a.cfg.CatalogConfig.Source
	a.logger.Info().Str("source", source).Msg("Loading site catalog")

	loadCtx, cancel := context.WithTimeout(ctx, catalogLoadTimeout)
	defer cancel()

	cat, err := catalog.Load(loadCtx, source, a.client, a.catalogOptions()...)
	if err != nil {
		return nil, err
	}

	if len(a.flags.Sites) > 0 {
		selected, missing := cat.Select(a.flags.Sites)
		if len(missing) > 0 {
			a.logger.Warn().Strs("sites", missing).Msg("Requested sites not found in catalog")
		}
		cat = selected
	}

	a.logger.Info().Int("sites", cat.Len()).Msg("Site catalog loaded")
	return cat, nil
}

func (a *application) run(parent context.Context, usernames []string) error {
	ctx, cancel := context.WithCancel(parent)
	defer cancel()

	active := newActiveSearches()
	stopWatching := watchSignals(ctx, cancel, active, a.logger)
	defer stopWatching()

	cat, err := a.loadCatalog(ctx)
	if err != nil {
		return fmt.Errorf("could not load catalog: %w", err)
	}

	p := prober.New(a.client, nil, a.logger)

	for _, username := range usernames {
		if ctx.Err() != nil || active.interrupted() {
			a.logger.Warn().Msg("Run interrupted, skipping remaining usernames")
			break
		}
		username = strings.TrimSpace(username)
		if username == "" {
			continue
		}
		if err := a.searchOne(ctx, p, cat, username, active); err != nil {
			a.logger.Error().Err(err).Str("username", username).Msg("Search failed")
		}
	}
	return nil
}

func (a *application) searchOne(ctx context.Context, p *prober.Prober, cat *catalog.Catalog, username string, active *activeSearches) error {
	id := uuid.New()
	searchLogger, err := logger.NewWithSearchID(a.cfg.LogConfig, id.String())
	if err != nil {
		searchLogger = a.logger
	}
	searchLogger = searchLogger.With().Str("username", username).Logger()

	coordinator := search.NewCoordinator(p, searchLogger,
		search.WithMaxConcurrency(a.cfg.SearchConfig.MaxConcurrency))

	console := reporter.NewConsoleReporter(a.out)
	fmt.Fprintf(a.out, "[*] Checking username %s on:\n\n", username)

	var listener progress.Listener
	var display *progress.DisplayManager
	if a.cfg.ProgressConfig.EnableProgress {
		display = progress.NewDisplayManager(searchLogger, username, &progress.DisplayConfig{
			DisplayInterval:   a.cfg.ProgressConfig.GetDisplayIntervalDuration(),
			EnableProgress:    true,
			ShowETAEstimation: a.cfg.ProgressConfig.ShowETAEstimation,
		})
		display.Start()
		defer display.Stop()
		listener = display
	}

	s, err := coordinator.StartSearch(ctx, search.Request{
		ID:           id,
		Rules:        cat.Rules(),
		Identifier:   username,
		Timeout:      a.cfg.SearchConfig.Timeout(),
		IncludeAdult: a.cfg.SearchConfig.IncludeAdult,
	}, console, listener)
	if err != nil {
		return err
	}

	active.track(s)
	summary := s.Wait()
	active.remove(s)

	fmt.Fprintf(a.out, "\n[*] Search completed with %d results\n", len(summary.Matches))
	if a.cfg.ReporterConfig.ShowTable {
		console.RenderSummary(summary)
	}

	reportPath := ""
	if a.htmlReporter != nil {
		reportPath, err = a.htmlReporter.GenerateReport(summary)
		if err != nil {
			searchLogger.Error().Err(err).Msg("Failed to generate HTML report")
			reportPath = ""
		} else {
			fmt.Fprintf(a.out, "[*] Report written to %s\n", reportPath)
		}
	}

	if a.notifier.Enabled() {
		notifyCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
		err := a.notifier.SendSearchCompletionNotification(notifyCtx, summary, reportPath)
		cancel()
		if err != nil {
			searchLogger.Error().Err(err).Msg("Failed to send completion notification")
		}
	}
	return nil
}
