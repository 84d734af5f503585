package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

//nolint:gochecknoinits
func init() {
	Configure(os.Stderr, os.Getenv("LOG_FORMAT"))
}

// Configure replaces the global logger
//
// format "json" writes structured lines, anything else uses the console writer
func Configure(out io.Writer, format string) {

	// default log level
	zerolog.SetGlobalLevel(zerolog.TraceLevel)

	// allow printing stack traces from pkg/errors
	// code-smell: globals are being set here
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack //nolint:reassign

	zerolog.TimeFieldFormat = time.RFC3339

	if strings.ToLower(format) != "json" {
		out = zerolog.ConsoleWriter{
			Out: out,
		}
	}

	// place line indicators - Caller
	// add stacktrace on .Err() - Stack
	// include timestamps in output - Timestamp
	log.Logger = zerolog.New(out).
		With().
		Caller().
		Stack().
		Timestamp().
		Logger()
}

// SetGlobalLevel should only be called once, and before goroutines are spawned
func SetGlobalLevel(logLevelStr string) error {
	logLevel, err := zerolog.ParseLevel(strings.ToLower(logLevelStr))
	if err != nil {
		return err
	}

	zerolog.SetGlobalLevel(logLevel)

	return nil
}

// WithService tags every line of the global logger with the running build
func WithService(name, version string) {
	log.Logger = log.Logger.With().
		Str("service", name).
		Str("version", version).
		Logger()
}

// Guild returns a child of the global logger tagged with the guild id
func Guild(guildID string) zerolog.Logger {
	return log.Logger.With().
		Str("guild_id", guildID).
		Logger()
}
