// Package logging sets up the process-wide zerolog logger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// App is the value of the app field on every log line.
const App = "airmouse"

// Options controls Configure.
type Options struct {
	Level   string
	NoColor bool
	Out     io.Writer
}

// Configure installs a console logger as the global zerolog logger and
// returns it. An empty level means info.
func Configure(opts Options) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if s := strings.TrimSpace(opts.Level); s != "" {
		l, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil {
			return zerolog.Logger{}, fmt.Errorf("parse log level %q: %w", opts.Level, err)
		}
		level = l
	}

	out := opts.Out
	if out == nil {
		out = os.Stderr
	}

	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: time.RFC3339,
		NoColor:    opts.NoColor,
	}
	logger := zerolog.New(output).Level(level).With().Timestamp().Str("app", App).Logger()

	zerolog.SetGlobalLevel(level)
	log.Logger = logger
	return logger, nil
}

// ConfigureTests routes the global logger to w at debug level, without
// timestamps or colour, so test output stays stable.
func ConfigureTests(w io.Writer) zerolog.Logger {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: w, NoColor: true, PartsExclude: []string{zerolog.TimestampFieldName}}).
		Level(zerolog.DebugLevel)

	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = logger
	return logger
}

// Component returns the global logger tagged with a component name.
func Component(name string) zerolog.Logger {
	return log.With().Str("component", name).Logger()
}
