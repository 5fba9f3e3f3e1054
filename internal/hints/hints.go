// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strconv"
	"strings"

	"github.com/alnah/go-resume2pdf/internal/fileutil"
)

// Environment variable names surfaced in hints.
const (
	EnvBrowserBin = "RESUME2PDF_BROWSER_BIN"
	EnvBrowserURL = "RESUME2PDF_BROWSER_URL"
	EnvServerCmd  = "RESUME2PDF_SERVER_CMD"
	EnvNoSandbox  = "ROD_NO_SANDBOX"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether a well-known CI environment variable is set.
func InCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForBrowserNotFound returns the remediation list shown when no local browser
// could be discovered. Every option is always listed.
func ForBrowserNotFound() string {
	return formatList([]string{
		"install Google Chrome, Chromium or Microsoft Edge",
		"set " + EnvBrowserBin + " to the path of a Chromium-based browser",
		"set " + EnvBrowserURL + " to a remote browser endpoint (ws://, wss://, http:// or https://)",
	})
}

// ForBrowserLaunch returns hints for browser launch or connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserLaunch() string {
	var hints []string

	if (InCI() || IsInContainer()) && os.Getenv(EnvNoSandbox) != "1" {
		hints = append(hints, "set "+EnvNoSandbox+"=1 for Docker/CI")
	}

	if os.Getenv(EnvBrowserBin) == "" && os.Getenv(EnvBrowserURL) == "" {
		hints = append(hints, "set "+EnvBrowserBin+" to use a custom Chrome")
	}

	return formatHints(hints)
}

// ForServerStart returns hints for rendering server start failures.
func ForServerStart() string {
	return format("check server.command in the config file or " + EnvServerCmd + "; run it by hand to see its output")
}

// ForTimeout returns a hint about increasing timeout for slow operations.
func ForTimeout() string {
	return format("for slow machines, use the --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-resume2pdf/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, ".config/go-resume2pdf") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForOutputDirectory returns hints for output directory creation errors.
func ForOutputDirectory() string {
	return format("check parent directory exists and is writable")
}

// ForUsage points at the help for a command.
func ForUsage(command string) string {
	return format("run 'resume2pdf help " + command + "' for usage")
}

// ForUnknownValue returns hints listing the accepted values for a setting.
func ForUnknownValue(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}

// formatList renders one hint line per item, numbered from 1.
func formatList(items []string) string {
	var b strings.Builder
	for i, item := range items {
		b.WriteString(format(strconv.Itoa(i+1) + ". " + item))
	}
	return b.String()
}
