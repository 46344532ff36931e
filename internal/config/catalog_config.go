package config

// CatalogConfig tells the CLI where the site catalog lives and how strictly to parse it
type CatalogConfig struct {
	// Source is a local file path or an http(s) URL
	Source string `json:"source,omitempty" yaml:"source,omitempty" validate:"required,catalogsource"`
	// PermissiveKinds keeps entries with an unrecognised errorType; they always match
	PermissiveKinds bool `json:"permissive_kinds" yaml:"permissive_kinds"`
	// SkipInvalid drops malformed entries instead of failing the load
	SkipInvalid bool `json:"skip_invalid" yaml:"skip_invalid"`
}

// NewDefaultCatalogConfig creates default catalog configuration
func NewDefaultCatalogConfig() CatalogConfig {
	return CatalogConfig{
		Source:          DefaultCatalogSource,
		PermissiveKinds: false,
		SkipInvalid:     true,
	}
}
