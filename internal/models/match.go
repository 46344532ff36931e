package models

// Match is a confirmed hit handed to result sinks. Name is the stable sort key.
type Match struct {
	Name       string `json:"name"`
	ProfileURL string `json:"profile_url"`
	BaseURL    string `json:"base_url"`
}

// NewMatch builds the reported match for rule and identifier
func NewMatch(rule *ProbeRule, identifier string) Match {
	return Match{
		Name:       rule.Name,
		ProfileURL: rule.ProfileURL(identifier),
		BaseURL:    rule.BaseURL,
	}
}
