package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	resume2pdf "github.com/alnah/go-resume2pdf"
)

// ---------------------------------------------------------------------------
// TestExitCodeFor - Every failure exits 1
// ---------------------------------------------------------------------------

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "nil", err: nil, want: ExitSuccess},
		{name: "input", err: resume2pdf.ErrInput, want: ExitFailure},
		{name: "browser", err: fmt.Errorf("acquire: %w", resume2pdf.ErrBrowserNotFound), want: ExitFailure},
		{name: "timeout", err: resume2pdf.ErrTimeout, want: ExitFailure},
		{name: "plain", err: errors.New("boom"), want: ExitFailure},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestDiagnosticFor - One message line plus hints
// ---------------------------------------------------------------------------

func TestDiagnosticFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantHint string
	}{
		{
			name:     "overall timeout",
			err:      fmt.Errorf("%w after 3m0s: %w", resume2pdf.ErrTimeout, context.DeadlineExceeded),
			wantHint: "--timeout",
		},
		{
			name:     "server start",
			err:      fmt.Errorf("%w: waited 60s", resume2pdf.ErrServerStartTimeout),
			wantHint: "server.command",
		},
		{
			name:     "unknown template",
			err:      fmt.Errorf("%w: %q", resume2pdf.ErrUnknownTemplate, "nope"),
			wantHint: "available: azurill",
		},
		{
			name:     "unknown format",
			err:      fmt.Errorf("%w: %q", resume2pdf.ErrUnknownFormat, "a3"),
			wantHint: "available: a4, free-form, letter",
		},
		{
			name:     "usage",
			err:      ErrNoInput,
			wantHint: "resume2pdf help convert",
		},
		{
			name:     "write",
			err:      fmt.Errorf("%w: rename failed", ErrWritePDF),
			wantHint: "writable",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := diagnosticFor(tt.err)
			first, _, _ := strings.Cut(got, "\n")
			if first != "error: "+tt.err.Error() {
				t.Errorf("first line = %q, want %q", first, "error: "+tt.err.Error())
			}
			if !strings.Contains(got, "hint:") || !strings.Contains(got, tt.wantHint) {
				t.Errorf("diagnosticFor() = %q, want hint containing %q", got, tt.wantHint)
			}
		})
	}
}

func TestDiagnosticFor_NoDuplicateHint(t *testing.T) {
	t.Parallel()

	// Browser-not-found errors carry their remediation list already.
	_, err := resume2pdf.ResolveTarget(resume2pdf.BrowserOptions{}, "linux",
		func(string) bool { return false },
		func() (string, bool) { return "", false })
	if !errors.Is(err, resume2pdf.ErrBrowserNotFound) {
		t.Fatalf("ResolveTarget() error = %v, want ErrBrowserNotFound", err)
	}

	got := diagnosticFor(err)
	if got != "error: "+err.Error() {
		t.Errorf("diagnosticFor() = %q, want the error unchanged", got)
	}
	if strings.Count(got, "1. ") != 1 {
		t.Errorf("remediation list repeated: %q", got)
	}
}

func TestDiagnosticFor_PlainError(t *testing.T) {
	t.Parallel()

	if got := diagnosticFor(errors.New("boom")); got != "error: boom" {
		t.Errorf("diagnosticFor() = %q, want %q", got, "error: boom")
	}
}
