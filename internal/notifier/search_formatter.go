package notifier

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aleister1102/userprobe/internal/config"
	"github.com/aleister1102/userprobe/internal/models"
	"github.com/aleister1102/userprobe/internal/notifier/discord"
	"github.com/aleister1102/userprobe/internal/search"
)

func buildMentions(roleIDs []string) string {
	if len(roleIDs) == 0 {
		return ""
	}
	mentions := make([]string, 0, len(roleIDs))
	for _, id := range roleIDs {
		mentions = append(mentions, fmt.Sprintf("<@&%s>", id))
	}
	return strings.Join(mentions, " ")
}

func truncateString(s string, maxLength int) string {
	if len(s) <= maxLength {
		return s
	}
	return s[:maxLength-3] + "..."
}

// FormatSearchSummary builds the completion message for one search
func FormatSearchSummary(summary search.Summary, cfg config.NotificationConfig) discord.DiscordMessagePayload {
	color := NoMatchEmbedColor
	title := fmt.Sprintf(":mag: No accounts found for %s", summary.Identifier)
	if len(summary.Matches) > 0 {
		color = FoundEmbedColor
		title = fmt.Sprintf(":white_check_mark: %s found on %d sites", summary.Identifier, len(summary.Matches))
	}
	if summary.Counts[models.OutcomeCancelled] > 0 {
		color = CancelEmbedColor
	}

	description := fmt.Sprintf("**Search ID**: `%s`\n**Sites checked**: %d\n**Duration**: %s",
		summary.ID, summary.State.Total, summary.Duration.Round(time.Second))

	builder := discord.NewDiscordEmbedBuilder().
		WithTitle(truncateString(title, discord.MaxTitleLength)).
		WithDescription(description).
		WithColor(color).
		WithTimestamp(time.Now()).
		WithFooter(footerText, "")

	fields := matchFields(summary.Matches)
	for i, value := range fields {
		name := "Matches"
		if i > 0 {
			name = "Matches (cont.)"
		}
		builder.AddField(name, value, false)
	}
	if outcomes := formatOutcomes(summary.Counts); outcomes != "" {
		builder.AddField("Outcomes", outcomes, false)
	}

	embed, err := builder.Build()
	if err != nil {
		// fall back to a bare embed that is always within limits
		embed = discord.DiscordEmbed{Title: truncateString(title, discord.MaxTitleLength), Description: description, Color: color}
	}

	payload := discord.DiscordMessagePayload{
		Username: DiscordUsername,
		Embeds:   []discord.DiscordEmbed{embed},
	}
	if mentions := buildMentions(cfg.MentionRoleIDs); mentions != "" {
		payload.Content = mentions
		payload.AllowedMentions = &discord.AllowedMentions{Parse: []string{}, Roles: cfg.MentionRoleIDs}
	}
	return payload
}

// matchFields packs "[Name](url)" lines into as few field values as fit
func matchFields(matches []models.Match) []string {
	if len(matches) == 0 {
		return nil
	}

	shown := matches
	if len(shown) > maxMatchesInMessage {
		shown = shown[:maxMatchesInMessage]
	}

	var fields []string
	var current strings.Builder
	for i, m := range shown {
		line := truncateString(fmt.Sprintf("[%s](%s)", m.Name, m.ProfileURL), discord.MaxFieldValueLength)
		if current.Len()+len(line)+1 > discord.MaxFieldValueLength {
			fields = append(fields, current.String())
			current.Reset()
			if len(fields) == maxMatchFields {
				shown = shown[:i]
				break
			}
		}
		if current.Len() > 0 {
			current.WriteByte('\n')
		}
		current.WriteString(line)
	}
	if current.Len() > 0 && len(fields) < maxMatchFields {
		fields = append(fields, current.String())
	}

	if hidden := len(matches) - len(shown); hidden > 0 {
		note := fmt.Sprintf("\n(and %d more)", hidden)
		last := fields[len(fields)-1]
		fields[len(fields)-1] = truncateString(last, discord.MaxFieldValueLength-len(note)) + note
	}
	return fields
}

func formatOutcomes(counts map[models.OutcomeStatus]int) string {
	if len(counts) == 0 {
		return ""
	}
	statuses := make([]models.OutcomeStatus, 0, len(counts))
	for s := range counts {
		statuses = append(statuses, s)
	}
	sort.Slice(statuses, func(i, j int) bool { return statuses[i] < statuses[j] })

	parts := make([]string, 0, len(statuses))
	for _, s := range statuses {
		parts = append(parts, fmt.Sprintf("%s: %d", s, counts[s]))
	}
	return strings.Join(parts, " · ")
}
