package config

const (
	// Search Defaults
	DefaultSearchTimeoutSecs    = 10
	DefaultSearchIncludeAdult   = false
	DefaultSearchMaxConcurrency = 0 // 0 launches every probe at once

	// Catalog Defaults
	DefaultCatalogSource = "https://raw.githubusercontent.com/sherlock-project/sherlock-data/master/data.json"

	// HTTP Defaults
	DefaultHTTPUserAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	DefaultHTTPMaxRedirects   = 10
	DefaultHTTPMaxContentKB   = 2048
	DefaultHTTPEnableHTTP2    = true
	DefaultHTTPInsecureVerify = false

	// Progress Defaults
	DefaultProgressDisplayIntervalSecs = 3
	DefaultProgressEnabled             = true
	DefaultProgressShowETA             = true

	// Reporter Defaults
	DefaultReporterOutputDir = "reports"
	DefaultReporterTitle     = "Username Search Report"

	// Log Defaults
	DefaultLogLevel      = "info"
	DefaultLogFormat     = "console"
	DefaultLogFile       = ""
	DefaultMaxLogSizeMB  = 100
	DefaultMaxLogBackups = 3

	// ConfigPathEnv overrides the config file location
	ConfigPathEnv = "USERPROBE_CONFIG_PATH"
)
