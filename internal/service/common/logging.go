//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"errors"
	"fmt"
	"os"

	"github.com/oshokin/lost-alarm/internal/config"
	"github.com/oshokin/lost-alarm/internal/logger"
)

var (
	errUnknownLogLevel  = errors.New("unknown log level")
	errUnknownLogFormat = errors.New("unknown log format")
)

// ApplyLogging switches the global logger to the configured level and format.
// It must run before any goroutine logs.
func ApplyLogging(settings *config.Config) error {
	level, ok := logger.ParseLogLevel(settings.LogLevel)
	if !ok {
		return fmt.Errorf("%w: %q", errUnknownLogLevel, settings.LogLevel)
	}

	switch logger.Format(settings.LogFormat) {
	case logger.FormatConsole:
	case logger.FormatJSON:
		logger.SetLogger(logger.NewWithWriter(os.Stdout, logger.FormatJSON, nil))
	default:
		return fmt.Errorf("%w: %q", errUnknownLogFormat, settings.LogFormat)
	}

	logger.SetLevel(level)

	return nil
}
