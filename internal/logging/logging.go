// Package logging builds the leveled logger shared by the server and CLI.
package logging

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// New returns a timestamped logger writing to w at the named level
// ("debug", "info", "warn", "error").
func New(w io.Writer, level string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}

	return log.NewWithOptions(w, log.Options{
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          "meshquote",
	}), nil
}

// Discard returns a logger that drops everything, for tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// GooseLogger adapts a logger to goose's Printf/Fatalf interface.
type GooseLogger struct {
	L *log.Logger
}

func (g GooseLogger) Printf(format string, v ...interface{}) {
	g.L.Infof(format, v...)
}

func (g GooseLogger) Fatalf(format string, v ...interface{}) {
	g.L.Fatalf(format, v...)
}
