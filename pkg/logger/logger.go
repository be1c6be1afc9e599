// Package logger builds the zerolog loggers the services share.
//
// Each binary calls New once in main and passes the result down explicitly;
// subsystems derive their own child with Component.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how New builds a logger.
type Options struct {
	// Level is the minimum level: trace, debug, info, warn (or warning), error.
	// Empty means info.
	Level string
	// Pretty switches to coloured console output for local development.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service is stamped on every line when set.
	Service string
}

// New returns a logger for opts. An unknown level is an error rather than a
// silent fallback, so a typo in LOG_LEVEL fails at startup.
func New(opts Options) (zerolog.Logger, error) {
	lvl, err := ParseLevel(opts.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	return ctx.Logger(), nil
}

// Component returns a child of log tagged with the subsystem name.
func Component(log zerolog.Logger, name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}

// ParseLevel maps a LOG_LEVEL value onto a zerolog level.
func ParseLevel(s string) (zerolog.Level, error) {
	switch v := strings.ToLower(strings.TrimSpace(s)); v {
	case "":
		return zerolog.InfoLevel, nil
	case "warning":
		return zerolog.WarnLevel, nil
	case "trace", "debug", "info", "warn", "error":
		return zerolog.ParseLevel(v)
	default:
		return zerolog.NoLevel, fmt.Errorf("logger: unknown level %q", s)
	}
}
