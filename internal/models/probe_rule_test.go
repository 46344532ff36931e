package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProbeRule_URLs(t *testing.T) {
	rule := &ProbeRule{
		Name:               "Example",
		ProfileURLTemplate: "https://example.test/{}",
		ErrorURLTemplate:   "https://example.test/{}/error",
	}
	assert.Equal(t, "https://example.test/alice", rule.RequestURL("alice"))
	assert.Equal(t, "https://example.test/alice", rule.ProfileURL("alice"))
	assert.Equal(t, "https://example.test/alice/error", rule.ErrorURL("alice"))

	rule.ProbeURLTemplate = "https://api.example.test/users/{}?check={}"
	assert.Equal(t, "https://api.example.test/users/alice?check=alice", rule.RequestURL("alice"))
	assert.Equal(t, "https://example.test/alice", rule.ProfileURL("alice"), "profile link never uses the probe URL")
}

func TestProbeRule_Method(t *testing.T) {
	tests := []struct {
		method  string
		want    string
		hasBody bool
	}{
		{"", "GET", false},
		{"head", "HEAD", false},
		{"post", "POST", true},
		{"PUT", "PUT", true},
		{"PATCH", "PATCH", true},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := &ProbeRule{HTTPMethod: tt.method}
			assert.Equal(t, tt.want, r.Method())
			assert.Equal(t, tt.hasBody, r.HasBody())
		})
	}
}

func TestProbeRule_RequestBody(t *testing.T) {
	rule := &ProbeRule{
		HTTPMethod: "POST",
		RequestBodyTemplate: map[string]any{
			"username": "{}",
			"limit":    float64(1),
			"filter":   map[string]any{"names": []any{"{}", "fixed"}},
		},
	}

	body, err := rule.RequestBody("bob")
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "bob", decoded["username"])
	assert.Equal(t, float64(1), decoded["limit"])
	assert.Equal(t, []any{"bob", "fixed"}, decoded["filter"].(map[string]any)["names"])

	// the template itself is untouched so a second search renders fresh
	assert.Equal(t, "{}", rule.RequestBodyTemplate["username"])
	body, err = rule.RequestBody("carol")
	require.NoError(t, err)
	assert.Contains(t, string(body), `"username":"carol"`)
}

func TestProbeRule_RequestBodyOnlyForBodyMethods(t *testing.T) {
	rule := &ProbeRule{RequestBodyTemplate: map[string]any{"u": "{}"}}
	body, err := rule.RequestBody("bob")
	require.NoError(t, err)
	assert.Nil(t, body)
}

func TestParseValidationKind(t *testing.T) {
	kind, ok := ParseValidationKind(" Status_Code ")
	assert.True(t, ok)
	assert.Equal(t, ValidationStatusCode, kind)

	kind, ok = ParseValidationKind("captcha")
	assert.False(t, ok)
	assert.Equal(t, ValidationUnknown, kind)
}

func TestProbeOutcome_Views(t *testing.T) {
	assert.True(t, ProbeOutcome{Status: OutcomeMatched}.Matched())
	for _, s := range []OutcomeStatus{OutcomeNotMatched, OutcomeHTTPStatus, OutcomeRejected, OutcomeNetworkError, OutcomeTimedOut, OutcomeCancelled} {
		assert.False(t, ProbeOutcome{Status: s}.Matched(), s.String())
	}
	assert.True(t, ProbeOutcome{Status: OutcomeTimedOut}.Failed())
	assert.False(t, ProbeOutcome{Status: OutcomeRejected}.Failed())
	assert.Equal(t, "timed_out", OutcomeTimedOut.String())
}

func TestNewMatch(t *testing.T) {
	rule := &ProbeRule{Name: "GitHub", ProfileURLTemplate: "https://github.test/{}", BaseURL: "https://github.test/"}
	assert.Equal(t, Match{Name: "GitHub", ProfileURL: "https://github.test/bob", BaseURL: "https://github.test/"}, NewMatch(rule, "bob"))
}
