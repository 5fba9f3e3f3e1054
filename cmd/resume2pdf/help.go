package main

import (
	"fmt"
	"io"
	"strings"

	resume2pdf "github.com/alnah/go-resume2pdf"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resume2pdf <input.json> [output.pdf] [flags]")
	fmt.Fprintln(w, "       resume2pdf <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve      Run the built-in rendering server")
	fmt.Fprintln(w, "  doctor     Check the browser and environment")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'resume2pdf help convert' for conversion flags.")
}

// printConvertUsage prints usage for a conversion.
func printConvertUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resume2pdf <input.json> [output.pdf] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render a JSON resume to PDF.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arguments:")
	fmt.Fprintln(w, "  input     Resume JSON file")
	fmt.Fprintln(w, "  output    PDF path (default: input with .pdf extension)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -T, --template <id>       Template: "+strings.Join(resume2pdf.Templates(), ", "))
	fmt.Fprintln(w, "  -f, --format <s>          Page format: "+strings.Join(resume2pdf.Formats(), ", "))
	fmt.Fprintln(w, "      --margin-x <f>        Horizontal margin in points")
	fmt.Fprintln(w, "      --margin-y <f>        Vertical margin in points")
	fmt.Fprintln(w, "  -t, --timeout <d>         Overall timeout (default: 3m)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Configuration:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path (.yaml, .yml, .toml)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug output")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  RESUME2PDF_BROWSER_BIN    Local browser binary")
	fmt.Fprintln(w, "  RESUME2PDF_BROWSER_URL    Remote browser endpoint (ws, wss, http, https)")
	fmt.Fprintln(w, "  RESUME2PDF_SERVER_CMD     Rendering server command, {port} expands to the port")
	fmt.Fprintln(w, "  ROD_NO_SANDBOX=1          Disable the browser sandbox (Docker/CI)")
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resume2pdf serve [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run the built-in rendering server until interrupted.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "      --host <addr>         Address to listen on (default: 127.0.0.1)")
	fmt.Fprintln(w, "  -p, --port <n>            Port to listen on (0 = any free port)")
	fmt.Fprintln(w, "  -v, --verbose             Log every request")
}

// printDoctorUsage prints usage for the doctor command.
func printDoctorUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: resume2pdf doctor [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Report the browser target, sandbox, environment and configuration.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Flags:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "      --json                Output JSON")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "convert":
		printConvertUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "doctor":
		printDoctorUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: resume2pdf version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: resume2pdf help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitFailure
	}
	return ExitSuccess
}
