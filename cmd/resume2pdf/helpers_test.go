package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	resume2pdf "github.com/alnah/go-resume2pdf"
)

// fakeConverter records the request and returns a canned result.
type fakeConverter struct {
	pdf   []byte
	err   error
	got   *resume2pdf.RenderRequest
	opts  int
	calls int
}

func (f *fakeConverter) Convert(_ context.Context, req *resume2pdf.RenderRequest) (*resume2pdf.Result, error) {
	f.calls++
	f.got = req
	if f.err != nil {
		return nil, f.err
	}
	return &resume2pdf.Result{PDF: f.pdf}, nil
}

// testEnv returns an environment with captured output, a fixed clock, an
// environment map and a fake converter.
func testEnv(t *testing.T, vars map[string]string, conv *fakeConverter) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	now := time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)
	env := &Environment{
		Context: context.Background(),
		Now:     func() time.Time { return now },
		Stdout:  stdout,
		Stderr:  stderr,
		Getenv: func(k string) string {
			return vars[k]
		},
		Executable: func() (string, error) { return "/opt/bin/resume2pdf", nil },
		NewConverter: func(opts ...resume2pdf.Option) Converter {
			conv.opts = len(opts)
			return conv
		},
	}
	return env, stdout, stderr
}

// writeResume writes a resume payload into a temp dir and returns its path.
func writeResume(t *testing.T, name, payload string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(payload), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}
