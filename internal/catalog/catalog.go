// Package catalog turns a site catalog document into validated probe rules.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/aleister1102/userprobe/internal/models"
	"github.com/dlclark/regexp2"
	"github.com/rs/zerolog"
)

// Catalog is an immutable, name-ordered set of probe rules
type Catalog struct {
	rules []models.ProbeRule
}

// Option tweaks how Parse treats questionable entries
type Option func(*parseOptions)

type parseOptions struct {
	permissiveKinds bool
	skipInvalid     bool
	logger          zerolog.Logger
}

// WithPermissiveKinds keeps entries whose errorType is not recognised; they always match
func WithPermissiveKinds() Option {
	return func(o *parseOptions) { o.permissiveKinds = true }
}

// WithSkipInvalid drops invalid entries instead of failing the whole parse
func WithSkipInvalid() Option {
	return func(o *parseOptions) { o.skipInvalid = true }
}

// WithLogger reports skipped entries
func WithLogger(logger zerolog.Logger) Option {
	return func(o *parseOptions) { o.logger = logger.With().Str("component", "Catalog").Logger() }
}

// New builds a catalog from already-constructed rules. Names must be unique.
func New(rules []models.ProbeRule) (*Catalog, error) {
	seen := make(map[string]struct{}, len(rules))
	out := make([]models.ProbeRule, len(rules))
	copy(out, rules)
	for _, r := range out {
		if _, dup := seen[r.Name]; dup {
			return nil, common.NewValidationError("name", r.Name, "duplicate site name")
		}
		seen[r.Name] = struct{}{}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return &Catalog{rules: out}, nil
}

// Parse decodes a JSON object mapping site name to site record.
// Members whose value is not an object (such as "$schema") are ignored.
func Parse(data []byte, opts ...Option) (*Catalog, error) {
	o := parseOptions{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, common.WrapError(err, "catalog is not a JSON object")
	}

	collector := common.NewErrorCollector()
	rules := make([]models.ProbeRule, 0, len(raw))
	for name, msg := range raw {
		trimmed := bytes.TrimSpace(msg)
		if len(trimmed) == 0 || trimmed[0] != '{' {
			continue
		}

		var entry siteEntry
		if err := json.Unmarshal(trimmed, &entry); err != nil {
			if o.skipInvalid {
				o.logger.Warn().Err(err).Str("site", name).Msg("Skipping undecodable catalog entry")
				continue
			}
			collector.AddWithContext(err, name)
			continue
		}

		rule, err := buildRule(name, &entry, o.permissiveKinds)
		if err != nil {
			if o.skipInvalid {
				o.logger.Warn().Err(err).Str("site", name).Msg("Skipping invalid catalog entry")
				continue
			}
			collector.Add(err)
			continue
		}
		rules = append(rules, rule)
	}

	if collector.HasErrors() {
		return nil, common.WrapErrorf(collector.Error(), "catalog has %d invalid entries", len(collector.Errors()))
	}
	return New(rules)
}

func buildRule(name string, e *siteEntry, permissive bool) (models.ProbeRule, error) {
	invalid := func(field string, value any, msg string) error {
		return common.WrapError(common.NewValidationError(field, value, msg), name)
	}

	if strings.TrimSpace(name) == "" {
		return models.ProbeRule{}, invalid("name", name, "site name is empty")
	}
	if e.URL == "" {
		return models.ProbeRule{}, invalid("url", e.URL, "profile url template is required")
	}

	kind, known := models.ParseValidationKind(e.ErrorType)
	if !known && !permissive {
		return models.ProbeRule{}, invalid("errorType", e.ErrorType, "unknown validation kind")
	}

	switch kind {
	case models.ValidationMessage:
		if len(e.ErrorMsg) == 0 {
			return models.ProbeRule{}, invalid("errorMsg", nil, "message rules need an error message")
		}
	case models.ValidationResponseURL:
		if e.ErrorURL == "" {
			return models.ProbeRule{}, invalid("errorUrl", e.ErrorURL, "response_url rules need an error url")
		}
	}

	if e.RegexCheck != "" {
		if _, err := compileIdentifierRegex(e.RegexCheck); err != nil {
			return models.ProbeRule{}, invalid("regexCheck", e.RegexCheck, fmt.Sprintf("does not compile: %v", err))
		}
	}

	return models.ProbeRule{
		Name:                  name,
		ProfileURLTemplate:    e.URL,
		BaseURL:               e.URLMain,
		ValidationKind:        kind,
		ExpectedErrorStatuses: []int(e.ErrorCode),
		HTTPMethod:            e.method(),
		ErrorMessages:         []string(e.ErrorMsg),
		ErrorURLTemplate:      e.ErrorURL,
		IdentifierRegex:       e.RegexCheck,
		ProbeURLTemplate:      e.URLProbe,
		IsAdultContent:        e.IsNSFW,
		RequestHeaders:        e.Headers,
		RequestBodyTemplate:   e.RequestPayload,
	}, nil
}

// compileIdentifierRegex uses the same ECMAScript dialect the prober matches with
func compileIdentifierRegex(expr string) (*regexp2.Regexp, error) {
	return regexp2.Compile(expr, regexp2.ECMAScript)
}

// Len returns the number of rules
func (c *Catalog) Len() int {
	return len(c.rules)
}

// Rules returns a copy of every rule, ordered by name
func (c *Catalog) Rules() []models.ProbeRule {
	out := make([]models.ProbeRule, len(c.rules))
	copy(out, c.rules)
	return out
}

// Lookup finds a rule by exact name
func (c *Catalog) Lookup(name string) (models.ProbeRule, bool) {
	i := sort.Search(len(c.rules), func(i int) bool { return c.rules[i].Name >= name })
	if i < len(c.rules) && c.rules[i].Name == name {
		return c.rules[i], true
	}
	return models.ProbeRule{}, false
}

// Admitted returns the rules a search may probe given the adult-content opt-in
func (c *Catalog) Admitted(includeAdult bool) []models.ProbeRule {
	out := make([]models.ProbeRule, 0, len(c.rules))
	for _, r := range c.rules {
		if r.IsAdultContent && !includeAdult {
			continue
		}
		out = append(out, r)
	}
	return out
}

// Select keeps only the named sites; unknown names are returned separately
func (c *Catalog) Select(names []string) (*Catalog, []string) {
	if len(names) == 0 {
		return c, nil
	}
	var picked []models.ProbeRule
	var missing []string
	for _, n := range names {
		if r, ok := c.lookupFold(n); ok {
			picked = append(picked, r)
		} else {
			missing = append(missing, n)
		}
	}
	sub, err := New(dedupe(picked))
	if err != nil {
		// dedupe guarantees unique names
		return &Catalog{}, missing
	}
	return sub, missing
}

func (c *Catalog) lookupFold(name string) (models.ProbeRule, bool) {
	for _, r := range c.rules {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return models.ProbeRule{}, false
}

func dedupe(rules []models.ProbeRule) []models.ProbeRule {
	seen := make(map[string]struct{}, len(rules))
	out := rules[:0]
	for _, r := range rules {
		if _, ok := seen[r.Name]; ok {
			continue
		}
		seen[r.Name] = struct{}{}
		out = append(out, r)
	}
	return out
}
