package main

import (
	"context"
	"io"
	"os"
	"time"

	resume2pdf "github.com/alnah/go-resume2pdf"
)

// Converter is the conversion entry point used by the CLI.
type Converter interface {
	Convert(ctx context.Context, req *resume2pdf.RenderRequest) (*resume2pdf.Result, error)
}

// Compile-time interface implementation check.
var _ Converter = (*resume2pdf.Converter)(nil)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Context      context.Context
	Now          func() time.Time
	Stdout       io.Writer
	Stderr       io.Writer
	Getenv       func(string) string
	Executable   func() (string, error)
	NewConverter func(opts ...resume2pdf.Option) Converter
}

// DefaultEnv returns the production environment.
func DefaultEnv() *Environment {
	return &Environment{
		Context:    context.Background(),
		Now:        time.Now,
		Stdout:     os.Stdout,
		Stderr:     os.Stderr,
		Getenv:     os.Getenv,
		Executable: os.Executable,
		NewConverter: func(opts ...resume2pdf.Option) Converter {
			return resume2pdf.NewConverter(opts...)
		},
	}
}
