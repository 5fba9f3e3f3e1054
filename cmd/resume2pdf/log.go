package main

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a logger with timestamp formatting.
// --verbose shows debug output, --quiet only errors.
func newLogger(w io.Writer, verbose, quiet bool) *log.Logger {
	level := log.InfoLevel
	switch {
	case quiet:
		level = log.ErrorLevel
	case verbose:
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress logs completion of an operation with its elapsed time.
type progress struct {
	logger *log.Logger
	now    func() time.Time
	start  time.Time
}

func newProgress(l *log.Logger, now func() time.Time) *progress {
	return &progress{logger: l, now: now, start: now()}
}

// done logs msg with the elapsed time, e.g. "Wrote resume.pdf (2.345s)".
func (p *progress) done(msg string) {
	p.logger.Infof("%s (%s)", msg, p.now().Sub(p.start).Round(time.Millisecond))
}
