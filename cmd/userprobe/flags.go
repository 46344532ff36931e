package main

import (
	"github.com/aleister1102/userprobe/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// AppFlags holds every command-line option. Only flags the user actually set override the
// config file.
type AppFlags struct {
	GlobalConfigFile string
	CatalogSource    string
	Sites            []string
	TimeoutSecs      int
	IncludeAdult     bool
	MaxConcurrency   int
	LogLevel         string
	SkipInvalid      bool
	PermissiveKinds  bool
	WebhookURL       string
	HTMLReport       bool
	OutputDir        string
	NoProgress       bool
}

func bindFlags(cmd *cobra.Command, f *AppFlags) {
	flags := cmd.Flags()
	flags.StringVarP(&f.GlobalConfigFile, "config", "c", "", "Path to the YAML/JSON configuration file. If not set, searches default locations.")
	flags.StringVar(&f.CatalogSource, "catalog", "", "Site catalog: local data.json path or http(s) URL")
	flags.StringSliceVarP(&f.Sites, "site", "s", nil, "Limit the search to these sites (repeatable)")
	flags.IntVarP(&f.TimeoutSecs, "timeout", "t", config.DefaultSearchTimeoutSecs, "Per-site request timeout in seconds")
	flags.BoolVar(&f.IncludeAdult, "nsfw", false, "Include sites flagged as adult content")
	flags.IntVar(&f.MaxConcurrency, "max-concurrency", 0, "Maximum in-flight requests per search (0 = unbounded)")
	flags.StringVar(&f.LogLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&f.SkipInvalid, "skip-invalid", true, "Skip malformed catalog entries instead of failing")
	flags.BoolVar(&f.PermissiveKinds, "permissive", false, "Keep catalog entries with an unknown errorType; they always match")
	flags.StringVar(&f.WebhookURL, "webhook", "", "Discord webhook URL to post results to")
	flags.BoolVar(&f.HTMLReport, "html", false, "Write an HTML report per username")
	flags.StringVarP(&f.OutputDir, "output", "o", "", "Directory for HTML reports")
	flags.BoolVar(&f.NoProgress, "no-progress", false, "Disable the periodic progress line")
}

// applyOverrides copies explicitly set flags onto cfg
func applyOverrides(cfg *config.GlobalConfig, f *AppFlags, flags *pflag.FlagSet) {
	if flags.Changed("catalog") {
		cfg.CatalogConfig.Source = f.CatalogSource
	}
	if flags.Changed("timeout") {
		cfg.SearchConfig.TimeoutSecs = f.TimeoutSecs
	}
	if flags.Changed("nsfw") {
		cfg.SearchConfig.IncludeAdult = f.IncludeAdult
	}
	if flags.Changed("max-concurrency") {
		cfg.SearchConfig.MaxConcurrency = f.MaxConcurrency
	}
	if flags.Changed("log-level") {
		cfg.LogConfig.LogLevel = f.LogLevel
	}
	if flags.Changed("skip-invalid") {
		cfg.CatalogConfig.SkipInvalid = f.SkipInvalid
	}
	if flags.Changed("permissive") {
		cfg.CatalogConfig.PermissiveKinds = f.PermissiveKinds
	}
	if flags.Changed("webhook") {
		cfg.NotificationConfig.DiscordWebhookURL = f.WebhookURL
	}
	if flags.Changed("html") {
		cfg.ReporterConfig.GenerateHTML = f.HTMLReport
	}
	if flags.Changed("output") {
		cfg.ReporterConfig.OutputDir = f.OutputDir
	}
	if flags.Changed("no-progress") {
		cfg.ProgressConfig.EnableProgress = !f.NoProgress
	}
}
