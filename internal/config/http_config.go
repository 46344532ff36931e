package config

// HTTPConfig holds transport settings shared by every probe
type HTTPConfig struct {
	UserAgent          string            `json:"user_agent,omitempty" yaml:"user_agent,omitempty"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
	MaxRedirects       int               `json:"max_redirects,omitempty" yaml:"max_redirects,omitempty" validate:"min=0"`
	MaxContentKB       int               `json:"max_content_kb,omitempty" yaml:"max_content_kb,omitempty" validate:"min=0"`
	EnableHTTP2        bool              `json:"enable_http2" yaml:"enable_http2"`
	Proxy              string            `json:"proxy,omitempty" yaml:"proxy,omitempty" validate:"omitempty,url"`
	CustomHeaders      map[string]string `json:"custom_headers,omitempty" yaml:"custom_headers,omitempty"`
}

// NewDefaultHTTPConfig creates default HTTP configuration
func NewDefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		UserAgent:          DefaultHTTPUserAgent,
		InsecureSkipVerify: DefaultHTTPInsecureVerify,
		MaxRedirects:       DefaultHTTPMaxRedirects,
		MaxContentKB:       DefaultHTTPMaxContentKB,
		EnableHTTP2:        DefaultHTTPEnableHTTP2,
		CustomHeaders:      map[string]string{},
	}
}
