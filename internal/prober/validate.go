package prober

import (
	"net/http"
	"strings"

	"github.com/aleister1102/userprobe/internal/httpclient"
	"github.com/aleister1102/userprobe/internal/models"
)

// judge applies exactly one validation rule to a settled response
func judge(rule *models.ProbeRule, identifier string, resp *httpclient.HTTPResponse) models.OutcomeStatus {
	switch rule.ValidationKind {
	case models.ValidationStatusCode:
		if rule.IsErrorStatus(resp.StatusCode) {
			return models.OutcomeNotMatched
		}
		if resp.StatusCode != http.StatusOK {
			return models.OutcomeHTTPStatus
		}
		return models.OutcomeMatched

	case models.ValidationResponseURL:
		if resp.FinalURL == rule.ErrorURL(identifier) {
			return models.OutcomeNotMatched
		}
		return models.OutcomeMatched

	case models.ValidationMessage:
		body := string(resp.Body)
		for _, msg := range rule.ErrorMessages {
			if msg != "" && strings.Contains(body, msg) {
				return models.OutcomeNotMatched
			}
		}
		return models.OutcomeMatched

	default:
		return models.OutcomeMatched
	}
}
