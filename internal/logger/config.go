package logger

import (
	"strings"

	"github.com/aleister1102/userprobe/internal/config"
	"github.com/rs/zerolog"
)

// LogFormat names an output encoding: json, console (coloured) or text (plain console)
type LogFormat string

const (
	FormatJSON    LogFormat = "json"
	FormatConsole LogFormat = "console"
	FormatText    LogFormat = "text"
)

// LoggerConfig is config.LogConfig resolved into the values the builder needs
type LoggerConfig struct {
	Level      zerolog.Level
	Format     LogFormat
	FilePath   string // empty disables file output
	MaxSizeMB  int
	MaxBackups int
	// SearchID nests the log file under searches/<id>/
	SearchID string
}

// DefaultLoggerConfig logs info and above to the console only
func DefaultLoggerConfig() LoggerConfig {
	return LoggerConfig{
		Level:      zerolog.InfoLevel,
		Format:     FormatConsole,
		MaxSizeMB:  config.DefaultMaxLogSizeMB,
		MaxBackups: config.DefaultMaxLogBackups,
	}
}

// ParseFormat maps a config value onto a LogFormat; unknown values fall back to console
func ParseFormat(formatStr string) LogFormat {
	switch f := LogFormat(strings.ToLower(formatStr)); f {
	case FormatJSON, FormatText:
		return f
	default:
		return FormatConsole
	}
}

// ConvertConfig resolves application log settings. An unparseable level becomes info.
func ConvertConfig(cfg config.LogConfig) LoggerConfig {
	lc := DefaultLoggerConfig()
	if level, err := ParseLevel(cfg.LogLevel); err == nil {
		lc.Level = level
	}
	lc.Format = ParseFormat(cfg.LogFormat)
	lc.FilePath = cfg.LogFile
	if cfg.MaxLogSizeMB > 0 {
		lc.MaxSizeMB = cfg.MaxLogSizeMB
	}
	if cfg.MaxLogBackups > 0 {
		lc.MaxBackups = cfg.MaxLogBackups
	}
	return lc
}
