package main

import (
	"errors"
	"fmt"
	"net"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/alnah/go-resume2pdf/internal/preview"
)

// runServeCmd runs the built-in rendering server until SIGINT or SIGTERM.
// The converter starts it as "serve --port <port>" and stops it with
// SIGTERM, so a clean shutdown exits 0.
func runServeCmd(args []string, env *Environment) int {
	flags, err := parseServeFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printServeUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, diagnosticFor(fmt.Errorf("%w: %v", ErrUsage, err)))
		return ExitFailure
	}

	logger := newLogger(env.Stderr, flags.verbose, false)
	logger.SetPrefix("serve")

	ctx, stop := notifyContext(env.Context)
	defer stop()

	addr := net.JoinHostPort(flags.host, strconv.Itoa(flags.port))
	if err := preview.ListenAndServe(ctx, addr, logger, env.Stdout); err != nil {
		fmt.Fprintln(env.Stderr, diagnosticFor(err))
		return ExitFailure
	}
	return ExitSuccess
}
