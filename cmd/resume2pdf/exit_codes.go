package main

import (
	"errors"
	"strings"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/hints"
)

// Exit codes for the resume2pdf CLI. Every failure exits 1; the diagnostic
// line tells failures apart.
const (
	ExitSuccess = 0 // Successful conversion, or help
	ExitFailure = 1 // Any failure
)

// exitCodeFor returns the appropriate exit code for an error.
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}
	return ExitFailure
}

// diagnosticFor renders the message printed for a failed run. It uses
// errors.Is on wrapped errors, so callers must use fmt.Errorf("%w", err).
// Hints already present in the error are not repeated.
func diagnosticFor(err error) string {
	msg := "error: " + err.Error()

	var hint string
	switch {
	case errors.Is(err, resume2pdf.ErrTimeout),
		errors.Is(err, resume2pdf.ErrNavigationTimeout):
		hint = hints.ForTimeout()
	case errors.Is(err, resume2pdf.ErrServerCommand),
		errors.Is(err, resume2pdf.ErrServerSpawn),
		errors.Is(err, resume2pdf.ErrServerStartTimeout),
		errors.Is(err, resume2pdf.ErrServerExitedEarly),
		errors.Is(err, resume2pdf.ErrServerUnreachable):
		hint = hints.ForServerStart()
	case errors.Is(err, resume2pdf.ErrBrowserLaunch):
		hint = hints.ForBrowserLaunch()
	case errors.Is(err, resume2pdf.ErrUnknownTemplate):
		hint = hints.ForUnknownValue(resume2pdf.Templates())
	case errors.Is(err, resume2pdf.ErrUnknownFormat):
		hint = hints.ForUnknownValue(resume2pdf.Formats())
	case errors.Is(err, ErrWritePDF):
		hint = hints.ForOutputDirectory()
	case errors.Is(err, ErrUsage), errors.Is(err, ErrNoInput), errors.Is(err, ErrInvalidTime):
		hint = hints.ForUsage("convert")
	}

	if hint != "" && !strings.Contains(msg, hint) {
		msg += hint
	}
	return msg
}
