package obs

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// SetupLogger configures the global zerolog logger and makes it the fallback
// for contexts that carry no request logger.
func SetupLogger(level, format string) zerolog.Logger {
	var out io.Writer = os.Stderr
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stderr}
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	logger := zerolog.New(out).Level(lvl).With().Timestamp().Str("service", "inspection-route-service").Logger()
	log.Logger = logger
	zerolog.DefaultContextLogger = &log.Logger

	return logger
}
