package config

import "time"

// SearchConfig controls how a username search fans out over the catalog
type SearchConfig struct {
	TimeoutSecs    int  `json:"timeout_secs,omitempty" yaml:"timeout_secs,omitempty" validate:"min=1"`
	IncludeAdult   bool `json:"include_adult" yaml:"include_adult"`
	MaxConcurrency int  `json:"max_concurrency,omitempty" yaml:"max_concurrency,omitempty" validate:"min=0"`
}

// NewDefaultSearchConfig creates default search configuration
func NewDefaultSearchConfig() SearchConfig {
	return SearchConfig{
		TimeoutSecs:    DefaultSearchTimeoutSecs,
		IncludeAdult:   DefaultSearchIncludeAdult,
		MaxConcurrency: DefaultSearchMaxConcurrency,
	}
}

// Timeout returns the per-probe timeout as time.Duration
func (sc *SearchConfig) Timeout() time.Duration {
	return time.Duration(sc.TimeoutSecs) * time.Second
}
