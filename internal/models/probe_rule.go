package models

import (
	"encoding/json"
	"net/http"
	"slices"
	"strings"
)

// IdentifierPlaceholder marks where the username goes in every template
const IdentifierPlaceholder = "{}"

// ValidationKind selects how a probe response is judged
type ValidationKind string

const (
	ValidationStatusCode  ValidationKind = "status_code"
	ValidationResponseURL ValidationKind = "response_url"
	ValidationMessage     ValidationKind = "message"
	// ValidationUnknown is only produced by permissive catalog loading and always matches
	ValidationUnknown ValidationKind = "unknown"
)

// ParseValidationKind maps a catalog errorType onto a known kind
func ParseValidationKind(s string) (ValidationKind, bool) {
	switch ValidationKind(strings.ToLower(strings.TrimSpace(s))) {
	case ValidationStatusCode:
		return ValidationStatusCode, true
	case ValidationResponseURL:
		return ValidationResponseURL, true
	case ValidationMessage:
		return ValidationMessage, true
	default:
		return ValidationUnknown, false
	}
}

// ProbeRule describes how to build and judge the request for one cataloged site.
// Rules are built once when the catalog is parsed and must be treated as read-only.
type ProbeRule struct {
	Name                  string
	ProfileURLTemplate    string
	BaseURL               string
	ValidationKind        ValidationKind
	ExpectedErrorStatuses []int
	HTTPMethod            string
	ErrorMessages         []string
	ErrorURLTemplate      string
	IdentifierRegex       string
	ProbeURLTemplate      string
	IsAdultContent        bool
	RequestHeaders        map[string]string
	RequestBodyTemplate   map[string]any
}

// RenderTemplate substitutes every placeholder in tmpl with identifier
func RenderTemplate(tmpl, identifier string) string {
	return strings.ReplaceAll(tmpl, IdentifierPlaceholder, identifier)
}

// Method returns the upper-cased HTTP method, GET when unset
func (r *ProbeRule) Method() string {
	if r.HTTPMethod == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.HTTPMethod)
}

// HasBody reports whether the method carries a request body
func (r *ProbeRule) HasBody() bool {
	switch r.Method() {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		return true
	default:
		return false
	}
}

// RequestURL is the URL actually fetched: the probe template if set, else the profile template
func (r *ProbeRule) RequestURL(identifier string) string {
	if r.ProbeURLTemplate != "" {
		return RenderTemplate(r.ProbeURLTemplate, identifier)
	}
	return RenderTemplate(r.ProfileURLTemplate, identifier)
}

// ProfileURL is the link reported to the user
func (r *ProbeRule) ProfileURL(identifier string) string {
	return RenderTemplate(r.ProfileURLTemplate, identifier)
}

// ErrorURL renders the response_url sentinel
func (r *ProbeRule) ErrorURL(identifier string) string {
	return RenderTemplate(r.ErrorURLTemplate, identifier)
}

// IsErrorStatus reports whether code is one of the configured "not found" statuses
func (r *ProbeRule) IsErrorStatus(code int) bool {
	return slices.Contains(r.ExpectedErrorStatuses, code)
}

// RequestBody renders the JSON body for body-bearing methods; nil otherwise
func (r *ProbeRule) RequestBody(identifier string) ([]byte, error) {
	if !r.HasBody() || len(r.RequestBodyTemplate) == 0 {
		return nil, nil
	}
	return json.Marshal(renderValue(r.RequestBodyTemplate, identifier))
}

// renderValue copies v, substituting the identifier in every string leaf
func renderValue(v any, identifier string) any {
	switch t := v.(type) {
	case string:
		return RenderTemplate(t, identifier)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[k] = renderValue(val, identifier)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = renderValue(val, identifier)
		}
		return out
	default:
		return v
	}
}
