package logger

import (
	"strings"

	"github.com/aleister1102/userprobe/internal/common"
	"github.com/rs/zerolog"
)

// ParseLevel parses string log level to zerolog.Level; empty means info
func ParseLevel(levelStr string) (zerolog.Level, error) {
	level, err := zerolog.ParseLevel(strings.ToLower(levelStr))
	if err != nil {
		return zerolog.InfoLevel, common.WrapError(err, "invalid log level")
	}
	if level == zerolog.NoLevel {
		return zerolog.InfoLevel, nil
	}
	return level, nil
}
