package main

import (
	"fmt"
	"os"
	"slices"

	"go.uber.org/automaxprocs/maxprocs"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	// Error ignored: maxprocs.Set only fails if GOMAXPROCS env is invalid,
	// in which case Go runtime defaults apply and the program continues safely.
	if slices.Contains(os.Args, "--verbose") || slices.Contains(os.Args, "-v") {
		_, _ = maxprocs.Set(maxprocs.Logger(func(format string, args ...interface{}) {
			fmt.Fprintf(os.Stderr, format+"\n", args...)
		}))
	} else {
		_, _ = maxprocs.Set(maxprocs.Logger(func(string, ...interface{}) {}))
	}

	os.Exit(runMain(os.Args, DefaultEnv()))
}

// runMain dispatches to a command and returns the process exit code.
// Anything that is not a command name is a conversion.
func runMain(args []string, env *Environment) int {
	if len(args) < 2 {
		printUsage(env.Stderr)
		return ExitFailure
	}

	switch args[1] {
	case "help", "-h", "--help":
		return runHelp(args[2:], env)
	case "version", "--version":
		fmt.Fprintf(env.Stdout, "resume2pdf %s\n", Version)
		return ExitSuccess
	case "serve":
		return runServeCmd(args[2:], env)
	case "doctor":
		return runDoctorCmd(args[2:], env)
	}

	ctx, stop := notifyContext(env.Context)
	defer stop()

	if err := runConvert(ctx, args[1:], env); err != nil {
		fmt.Fprintln(env.Stderr, diagnosticFor(err))
		return exitCodeFor(err)
	}
	return ExitSuccess
}
