// Package logging builds the process logger: slog on top of charmbracelet/log.
package logging

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

type Options struct {
	Quiet           bool
	Debug           bool
	ReportTimestamp bool
}

// New returns a slog.Logger writing human-readable lines to w. Quiet keeps
// warnings and errors only.
func New(w io.Writer, opts Options) *slog.Logger {
	level := log.InfoLevel
	switch {
	case opts.Quiet:
		level = log.WarnLevel
	case opts.Debug:
		level = log.DebugLevel
	}

	handler := log.NewWithOptions(w, log.Options{
		Level:           level,
		Formatter:       log.TextFormatter,
		ReportTimestamp: opts.ReportTimestamp,
		Prefix:          "kathana",
	})
	return slog.New(handler)
}

// WithRun tags every line of one invocation with a fresh run id.
func WithRun(logger *slog.Logger) (*slog.Logger, string) {
	id := uuid.NewString()
	return logger.With("run", id), id
}
