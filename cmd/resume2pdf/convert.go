package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	flag "github.com/spf13/pflag"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/config"
	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/hints"
)

// Sentinel errors for CLI operations.
var (
	ErrNoInput     = errors.New("no input specified")
	ErrUsage       = errors.New("invalid usage")
	ErrReadResume  = errors.New("failed to read resume file")
	ErrWritePDF    = errors.New("failed to write PDF file")
	ErrSameOutput  = errors.New("output path is the input path")
	ErrInvalidTime = errors.New("invalid timeout")
)

// filePermissions is rw-r--r--: owner read+write, others read.
const filePermissions = 0o644

// runConvert reads the resume, renders it and writes the PDF.
func runConvert(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseConvertFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printConvertUsage(env.Stdout)
			return nil
		}
		return fmt.Errorf("%w: %v", ErrUsage, err)
	}

	inputPath, outputPath, err := resolvePaths(positional)
	if err != nil {
		return err
	}

	logger := newLogger(env.Stderr, flags.common.verbose, flags.common.quiet)
	p := newProgress(logger, env.Now)

	cfg, err := loadConfig(flags.common.config, env.Getenv)
	if err != nil {
		return err
	}

	timeouts, err := resolveTimeouts(cfg, flags.timeout)
	if err != nil {
		return err
	}

	payload, err := os.ReadFile(inputPath) // #nosec G304 -- input path is user-provided
	if err != nil {
		return fmt.Errorf("%w: %w: %v", resume2pdf.ErrInput, ErrReadResume, err)
	}

	req, err := resume2pdf.NewRenderRequest(payload, buildOverrides(flags))
	if err != nil {
		return err
	}

	server, err := serverOptions(cfg, timeouts, env)
	if err != nil {
		return err
	}

	converter := env.NewConverter(
		resume2pdf.WithLogger(logger),
		resume2pdf.WithServer(server),
		resume2pdf.WithBrowser(browserOptions(cfg)),
		resume2pdf.WithTimeouts(resume2pdf.Timeouts{
			ServerStart: timeouts.ServerStart,
			Reachable:   timeouts.Reachable,
			Navigation:  timeouts.Navigation,
			Fonts:       timeouts.Fonts,
			Overall:     timeouts.Overall,
		}),
	)

	result, err := converter.Convert(ctx, req)
	if err != nil {
		return err
	}

	if err := fileutil.WriteFileAtomic(outputPath, result.PDF, filePermissions); err != nil {
		return fmt.Errorf("%w: %v", ErrWritePDF, err)
	}

	p.done(fmt.Sprintf("Wrote %s", outputPath))
	return nil
}

// resolvePaths returns the input path and the output path, which defaults
// to the input with a .pdf extension.
func resolvePaths(positional []string) (input, output string, err error) {
	switch len(positional) {
	case 0:
		return "", "", ErrNoInput
	case 1:
		input = positional[0]
		output, err = fileutil.ReplaceExtension(input, "pdf")
		if err != nil {
			return "", "", fmt.Errorf("%w: %v", ErrUsage, err)
		}
	case 2:
		input, output = positional[0], positional[1]
	default:
		return "", "", fmt.Errorf("%w: expected <input.json> [output.pdf], got %d arguments", ErrUsage, len(positional))
	}

	if filepath.Clean(input) == filepath.Clean(output) {
		return "", "", fmt.Errorf("%w: %s", ErrSameOutput, input)
	}
	return input, output, nil
}

// loadConfig loads the named config, or the defaults when name is empty,
// then applies environment overrides.
func loadConfig(name string, getenv func(string) string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if name != "" {
		var err error
		cfg, err = config.LoadConfig(name)
		if err != nil {
			if errors.Is(err, config.ErrConfigNotFound) && !fileutil.IsFilePath(name) {
				return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(config.SearchPaths(name)))
			}
			return nil, fmt.Errorf("loading config: %w", err)
		}
	}
	cfg.ApplyEnv(getenv)
	return cfg, nil
}

// resolveTimeouts parses configured timeouts; a --timeout flag wins over
// render.timeout.
func resolveTimeouts(cfg *config.Config, flagTimeout string) (config.Timeouts, error) {
	t, err := cfg.Timeouts()
	if err != nil {
		return config.Timeouts{}, err
	}
	if flagTimeout == "" {
		return t, nil
	}
	d, err := time.ParseDuration(flagTimeout)
	if err != nil {
		return config.Timeouts{}, fmt.Errorf("%w: %q: %v", ErrInvalidTime, flagTimeout, err)
	}
	if d <= 0 {
		return config.Timeouts{}, fmt.Errorf("%w: must be positive, got %s", ErrInvalidTime, flagTimeout)
	}
	t.Overall = d
	return t, nil
}

// buildOverrides maps flags to request overrides.
func buildOverrides(f *convertFlags) resume2pdf.Overrides {
	o := resume2pdf.Overrides{
		Template: f.template,
		Format:   f.format,
	}
	if f.marginXSet {
		x := f.marginX
		o.MarginX = &x
	}
	if f.marginYSet {
		y := f.marginY
		o.MarginY = &y
	}
	return o
}

// serverOptions builds the rendering-server options. Without a configured
// command the CLI runs its own serve command on a negotiated port.
func serverOptions(cfg *config.Config, t config.Timeouts, env *Environment) (resume2pdf.ServerOptions, error) {
	command := cfg.Server.Command
	if len(command) == 0 {
		exe, err := env.Executable()
		if err != nil {
			return resume2pdf.ServerOptions{}, fmt.Errorf("%w: locating built-in server: %v", resume2pdf.ErrServerCommand, err)
		}
		command = []string{exe, "serve", "--port", resume2pdf.PortPlaceholder}
	}

	return resume2pdf.ServerOptions{
		Command:      command,
		Dir:          cfg.Server.Dir,
		Port:         cfg.Server.Port,
		Readiness:    resume2pdf.ReadinessMode(cfg.Server.Readiness),
		StartTimeout: t.ServerStart,
	}, nil
}

// browserOptions maps the browser config.
func browserOptions(cfg *config.Config) resume2pdf.BrowserOptions {
	return resume2pdf.BrowserOptions{
		Bin:       cfg.Browser.Bin,
		Endpoint:  cfg.Browser.Endpoint,
		NoSandbox: cfg.Browser.NoSandbox,
	}
}
