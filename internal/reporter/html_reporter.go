package reporter

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleister1102/userprobe/internal/config"
	"github.com/aleister1102/userprobe/internal/models"
	"github.com/aleister1102/userprobe/internal/search"
	"github.com/rs/zerolog"
)

//go:embed templates/search_report.html.tmpl
var defaultTemplate embed.FS

// ReportPageData is what the HTML template renders
type ReportPageData struct {
	ReportTitle string
	GeneratedAt time.Time
	SearchID    string
	Identifier  string
	Duration    string
	Total       int
	Found       int
	Matches     []models.Match
	Outcomes    []OutcomeCount
}

// OutcomeCount is one row of the outcome breakdown
type OutcomeCount struct {
	Status string
	Count  int
}

// HtmlReporter writes a self-contained HTML page per search
type HtmlReporter struct {
	cfg          *config.ReporterConfig
	logger       zerolog.Logger
	template     *template.Template
	directoryMgr *DirectoryManager
}

// NewHtmlReporter prepares the output directory and parses the template
func NewHtmlReporter(cfg *config.ReporterConfig, appLogger zerolog.Logger) (*HtmlReporter, error) {
	moduleLogger := appLogger.With().Str("module", "HtmlReporter").Logger()

	reporter := &HtmlReporter{
		cfg:          cfg,
		logger:       moduleLogger,
		directoryMgr: NewDirectoryManager(moduleLogger),
	}

	if reporter.cfg.OutputDir == "" {
		reporter.cfg.OutputDir = config.DefaultReporterOutputDir
		reporter.logger.Info().Str("default_dir", reporter.cfg.OutputDir).Msg("OutputDir not specified, using default.")
	}
	if err := reporter.directoryMgr.EnsureOutputDirectory(reporter.cfg.OutputDir); err != nil {
		return nil, err
	}

	if err := reporter.setupTemplate(); err != nil {
		return nil, err
	}
	return reporter, nil
}

func (r *HtmlReporter) setupTemplate() error {
	if r.cfg.TemplatePath != "" {
		tmpl := template.New(filepath.Base(r.cfg.TemplatePath)).Funcs(commonTemplateFunctions())
		if _, err := tmpl.ParseFiles(r.cfg.TemplatePath); err != nil {
			r.logger.Error().Err(err).Str("path", r.cfg.TemplatePath).Msg("Failed to parse custom report template.")
			return fmt.Errorf("failed to parse custom report template '%s': %w", r.cfg.TemplatePath, err)
		}
		r.template = tmpl
		return nil
	}

	content, err := defaultTemplate.ReadFile("templates/" + defaultReportTemplateName)
	if err != nil {
		return fmt.Errorf("failed to load embedded default report template: %w", err)
	}
	tmpl, err := template.New(defaultReportTemplateName).
		Funcs(commonTemplateFunctions()).
		Parse(strings.ReplaceAll(string(content), "\r\n", "\n"))
	if err != nil {
		return fmt.Errorf("failed to parse embedded report template: %w", err)
	}
	r.template = tmpl
	return nil
}

// GenerateReport renders summary and returns the written file path
func (r *HtmlReporter) GenerateReport(summary search.Summary) (string, error) {
	pageData := r.prepareReportData(summary)

	var htmlBuffer bytes.Buffer
	if err := r.template.Execute(&htmlBuffer, pageData); err != nil {
		r.logger.Error().Err(err).Msg("Failed to execute template")
		return "", fmt.Errorf("template execution failed: %w", err)
	}

	outputPath := r.buildOutputPath(summary)
	if err := os.WriteFile(outputPath, htmlBuffer.Bytes(), FilePermissions); err != nil {
		r.logger.Error().Err(err).Str("output", outputPath).Msg("Failed to write report file")
		return "", fmt.Errorf("failed to write report to %s: %w", outputPath, err)
	}

	r.logger.Info().Str("path", outputPath).Int("matches", len(summary.Matches)).Msg("HTML report generated")
	return outputPath, nil
}

func (r *HtmlReporter) prepareReportData(summary search.Summary) ReportPageData {
	title := r.cfg.ReportTitle
	if title == "" {
		title = defaultReportTitle
	}

	outcomes := make([]OutcomeCount, 0, len(summary.Counts))
	for _, status := range sortedStatuses(summary.Counts) {
		outcomes = append(outcomes, OutcomeCount{Status: status.String(), Count: summary.Counts[status]})
	}

	return ReportPageData{
		ReportTitle: title,
		GeneratedAt: time.Now(),
		SearchID:    summary.ID.String(),
		Identifier:  summary.Identifier,
		Duration:    summary.Duration.Round(time.Millisecond).String(),
		Total:       summary.State.Total,
		Found:       len(summary.Matches),
		Matches:     summary.Matches,
		Outcomes:    outcomes,
	}
}

// buildOutputPath names the file after the identifier and the first block of the search ID
func (r *HtmlReporter) buildOutputPath(summary search.Summary) string {
	id := summary.ID.String()
	if i := strings.IndexByte(id, '-'); i > 0 {
		id = id[:i]
	}
	filename := fmt.Sprintf("%s-%s.html", sanitizeFilename(summary.Identifier), id)
	return filepath.Join(r.cfg.OutputDir, filename)
}

func sanitizeFilename(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "search"
	}
	return b.String()
}
