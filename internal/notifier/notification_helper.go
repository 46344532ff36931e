package notifier

import (
	"context"

	"github.com/aleister1102/userprobe/internal/config"
	"github.com/aleister1102/userprobe/internal/search"
	"github.com/rs/zerolog"
)

// NotificationHelper decides whether a finished search is worth a message and sends it
type NotificationHelper struct {
	discordNotifier *DiscordNotifier
	cfg             config.NotificationConfig
	logger          zerolog.Logger
}

// NewNotificationHelper creates a new NotificationHelper
func NewNotificationHelper(dn *DiscordNotifier, cfg config.NotificationConfig, logger zerolog.Logger) *NotificationHelper {
	return &NotificationHelper{
		discordNotifier: dn,
		cfg:             cfg,
		logger:          logger.With().Str("module", "NotificationHelper").Logger(),
	}
}

// Enabled reports whether a webhook is configured
func (nh *NotificationHelper) Enabled() bool {
	return nh.discordNotifier != nil && nh.cfg.DiscordWebhookURL != ""
}

// SendSearchCompletionNotification posts summary, with the HTML report attached when reportPath is set
func (nh *NotificationHelper) SendSearchCompletionNotification(ctx context.Context, summary search.Summary, reportPath string) error {
	if !nh.Enabled() {
		nh.logger.Debug().Msg("Discord notifications not configured, skipping.")
		return nil
	}
	if len(summary.Matches) == 0 && !nh.cfg.NotifyOnNoMatch {
		nh.logger.Debug().Str("identifier", summary.Identifier).Msg("No matches and notify_on_no_match is off, skipping.")
		return nil
	}

	payload := FormatSearchSummary(summary, nh.cfg)
	if err := nh.discordNotifier.SendNotification(ctx, nh.cfg.DiscordWebhookURL, payload, reportPath); err != nil {
		nh.logger.Error().Err(err).Str("search_id", summary.ID.String()).Msg("Failed to send search completion notification")
		return err
	}
	nh.logger.Info().Str("search_id", summary.ID.String()).Msg("Search completion notification sent.")
	return nil
}
