package discord

import (
	"fmt"
	"time"

	"github.com/aleister1102/userprobe/internal/common"
)

// Discord embed limits
const (
	MaxTitleLength       = 256
	MaxDescriptionLength = 4096
	MaxFields            = 25
	MaxFieldNameLength   = 256
	MaxFieldValueLength  = 1024
	MaxFooterTextLength  = 2048
)

// DiscordEmbedBuilder helps in constructing DiscordEmbed objects
type DiscordEmbedBuilder struct {
	embed DiscordEmbed
}

// NewDiscordEmbedBuilder creates a new Discord embed builder
func NewDiscordEmbedBuilder() *DiscordEmbedBuilder {
	return &DiscordEmbedBuilder{}
}

func (deb *DiscordEmbedBuilder) WithTitle(title string) *DiscordEmbedBuilder {
	deb.embed.Title = title
	return deb
}

func (deb *DiscordEmbedBuilder) WithDescription(description string) *DiscordEmbedBuilder {
	deb.embed.Description = description
	return deb
}

func (deb *DiscordEmbedBuilder) WithURL(url string) *DiscordEmbedBuilder {
	deb.embed.URL = url
	return deb
}

func (deb *DiscordEmbedBuilder) WithTimestamp(timestamp time.Time) *DiscordEmbedBuilder {
	deb.embed.Timestamp = timestamp.Format(time.RFC3339)
	return deb
}

func (deb *DiscordEmbedBuilder) WithColor(color int) *DiscordEmbedBuilder {
	deb.embed.Color = color
	return deb
}

func (deb *DiscordEmbedBuilder) WithFooter(text, iconURL string) *DiscordEmbedBuilder {
	deb.embed.Footer = &DiscordEmbedFooter{Text: text, IconURL: iconURL}
	return deb
}

// AddField appends a field
func (deb *DiscordEmbedBuilder) AddField(name, value string, inline bool) *DiscordEmbedBuilder {
	deb.embed.Fields = append(deb.embed.Fields, DiscordEmbedField{Name: name, Value: value, Inline: inline})
	return deb
}

// Build validates the embed against Discord's limits
func (deb *DiscordEmbedBuilder) Build() (DiscordEmbed, error) {
	if err := ValidateEmbed(deb.embed); err != nil {
		return DiscordEmbed{}, err
	}
	return deb.embed, nil
}

// ValidateEmbed checks embed against Discord's size limits
func ValidateEmbed(embed DiscordEmbed) error {
	if len(embed.Title) > MaxTitleLength {
		return common.NewValidationError("title", embed.Title, "title cannot exceed 256 characters")
	}
	if len(embed.Description) > MaxDescriptionLength {
		return common.NewValidationError("description", len(embed.Description), "description cannot exceed 4096 characters")
	}
	if len(embed.Fields) > MaxFields {
		return common.NewValidationError("fields", len(embed.Fields), "cannot have more than 25 fields")
	}

	for i, field := range embed.Fields {
		if field.Name == "" {
			return common.NewValidationError("field_name", field.Name, fmt.Sprintf("field %d name cannot be empty", i))
		}
		if field.Value == "" {
			return common.NewValidationError("field_value", field.Value, fmt.Sprintf("field %d value cannot be empty", i))
		}
		if len(field.Name) > MaxFieldNameLength {
			return common.NewValidationError("field_name", field.Name, fmt.Sprintf("field %d name cannot exceed 256 characters", i))
		}
		if len(field.Value) > MaxFieldValueLength {
			return common.NewValidationError("field_value", len(field.Value), fmt.Sprintf("field %d value cannot exceed 1024 characters", i))
		}
	}

	if embed.Footer != nil && len(embed.Footer.Text) > MaxFooterTextLength {
		return common.NewValidationError("footer_text", len(embed.Footer.Text), "footer text cannot exceed 2048 characters")
	}
	return nil
}
