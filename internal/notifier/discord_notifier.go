// Package notifier posts search results to a Discord webhook.
package notifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/aleister1102/userprobe/internal/httpclient"
	"github.com/aleister1102/userprobe/internal/notifier/discord"
	"github.com/rs/zerolog"
)

const maxDiscordFileSize = 8 * 1024 * 1024

// Sender sends one HTTP request. *httpclient.HTTPClient satisfies it.
type Sender interface {
	Do(ctx context.Context, req *httpclient.HTTPRequest) (*httpclient.HTTPResponse, error)
}

// DiscordNotifier handles sending notifications to a Discord webhook. It never retries.
type DiscordNotifier struct {
	logger     zerolog.Logger
	httpClient Sender
}

// NewDiscordNotifier creates a new DiscordNotifier. The webhook URL is provided per send call.
func NewDiscordNotifier(logger zerolog.Logger, httpClient Sender) (*DiscordNotifier, error) {
	if httpClient == nil {
		return nil, common.NewValidationError("http_client", nil, "discord notifier needs an HTTP client")
	}
	return &DiscordNotifier{
		logger:     logger.With().Str("module", "DiscordNotifier").Logger(),
		httpClient: httpClient,
	}, nil
}

// SendNotification posts payload to webhookURL, attaching the file at attachmentPath when set.
// An empty webhookURL disables sending.
func (dn *DiscordNotifier) SendNotification(ctx context.Context, webhookURL string, payload discord.DiscordMessagePayload, attachmentPath string) error {
	if webhookURL == "" {
		dn.logger.Debug().Msg("Webhook URL is empty. Skipping Discord notification.")
		return nil
	}
	if _, err := url.ParseRequestURI(webhookURL); err != nil {
		return common.NewValidationError("webhook_url", webhookURL, fmt.Sprintf("invalid Discord webhook URL: %v", err))
	}

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return common.WrapError(err, "failed to marshal discord payload")
	}

	req := &httpclient.HTTPRequest{
		URL:     webhookURL,
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    payloadJSON,
	}

	if attachmentPath != "" {
		body, contentType, err := buildMultipartBody(payloadJSON, attachmentPath)
		if err != nil {
			dn.logger.Error().Err(err).Str("file_path", attachmentPath).Msg("Failed to attach report file")
			return err
		}
		req.Body = body
		req.Headers["Content-Type"] = contentType
	}

	resp, err := dn.httpClient.Do(ctx, req)
	if err != nil {
		dn.logger.Error().Err(err).Msg("Failed to send Discord notification")
		return common.WrapError(err, "failed to send discord notification")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		dn.logger.Error().Int("status_code", resp.StatusCode).Str("response_body", string(resp.Body)).Msg("Discord notification failed")
		return common.NewHTTPErrorWithURL(resp.StatusCode, string(resp.Body), "discord webhook")
	}

	dn.logger.Info().Int("status_code", resp.StatusCode).Msg("Discord notification sent successfully.")
	return nil
}

func buildMultipartBody(payloadJSON []byte, attachmentPath string) ([]byte, string, error) {
	info, err := os.Stat(attachmentPath)
	if err != nil {
		return nil, "", common.WrapErrorf(err, "failed to read report file '%s'", attachmentPath)
	}
	if info.Size() > maxDiscordFileSize {
		return nil, "", common.NewValidationError("attachment", attachmentPath, "file exceeds Discord's 8MB limit")
	}
	fileData, err := os.ReadFile(attachmentPath)
	if err != nil {
		return nil, "", common.WrapErrorf(err, "failed to read report file '%s'", attachmentPath)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("payload_json", string(payloadJSON)); err != nil {
		return nil, "", common.WrapError(err, "failed to write payload_json to multipart")
	}
	part, err := writer.CreateFormFile("files[0]", filepath.Base(attachmentPath))
	if err != nil {
		return nil, "", common.WrapError(err, "failed to create form file")
	}
	if _, err := part.Write(fileData); err != nil {
		return nil, "", common.WrapError(err, "failed to copy file data to form")
	}
	if err := writer.Close(); err != nil {
		return nil, "", common.WrapError(err, "failed to close multipart writer")
	}
	return body.Bytes(), writer.FormDataContentType(), nil
}
