package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	flag "github.com/spf13/pflag"

	resume2pdf "github.com/alnah/go-resume2pdf"
	"github.com/alnah/go-resume2pdf/internal/config"
	"github.com/alnah/go-resume2pdf/internal/fileutil"
	"github.com/alnah/go-resume2pdf/internal/hints"
)

const browserVersionTimeout = 10 * time.Second

// doctorResult holds all diagnostic information.
type doctorResult struct {
	Status   string      `json:"status"` // "ready", "warnings", "errors"
	Browser  browserInfo `json:"browser"`
	Server   serverInfo  `json:"server"`
	Config   configInfo  `json:"config"`
	Env      envInfo     `json:"environment"`
	System   systemInfo  `json:"system"`
	Warnings []string    `json:"warnings,omitempty"`
	Errors   []string    `json:"errors,omitempty"`
}

// browserInfo holds the resolved browser target.
type browserInfo struct {
	Found    bool   `json:"found"`
	Mode     string `json:"mode,omitempty"` // "local" or "remote"
	Path     string `json:"path,omitempty"`
	Endpoint string `json:"endpoint,omitempty"`
	Version  string `json:"version,omitempty"`
	Sandbox  bool   `json:"sandbox"`
}

// serverInfo describes the rendering server a conversion would start.
type serverInfo struct {
	Builtin   bool     `json:"builtin"`
	Command   []string `json:"command,omitempty"`
	Readiness string   `json:"readiness"`
}

// configInfo reports the config file status.
type configInfo struct {
	Name   string `json:"name,omitempty"`
	Loaded bool   `json:"loaded"`
}

// envInfo holds environment detection results.
type envInfo struct {
	OS            string `json:"os"`
	Arch          string `json:"arch"`
	Container     bool   `json:"container"`
	ContainerHint string `json:"container_hint,omitempty"`
	CI            bool   `json:"ci"`
	NoSandbox     string `json:"rod_no_sandbox"`
	BrowserBin    string `json:"browser_bin"`
	BrowserURL    string `json:"browser_url"`
}

// systemInfo holds system check results.
type systemInfo struct {
	TempWritable bool `json:"temp_writable"`
}

// doctorChecks are the probes doctor runs, replaceable in tests.
type doctorChecks struct {
	getenv         func(string) string
	resolve        func(resume2pdf.BrowserOptions) (resume2pdf.Target, error)
	browserVersion func(path string) (string, error)
	tempDir        func() string
}

func defaultDoctorChecks(env *Environment) doctorChecks {
	return doctorChecks{
		getenv: env.Getenv,
		resolve: func(opts resume2pdf.BrowserOptions) (resume2pdf.Target, error) {
			return resume2pdf.NewTargetResolver(opts, nil).Resolve()
		},
		browserVersion: browserVersion,
		tempDir:        os.TempDir,
	}
}

// runDoctorCmd executes the doctor command and returns an exit code.
// Exit codes: 0 = OK (including warnings), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	flags, err := parseDoctorFlags(args)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			printDoctorUsage(env.Stdout)
			return ExitSuccess
		}
		fmt.Fprintln(env.Stderr, diagnosticFor(fmt.Errorf("%w: %v", ErrUsage, err)))
		return ExitFailure
	}

	result := runDoctor(flags.config, defaultDoctorChecks(env))

	if flags.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(result)
	} else {
		printDoctorResult(env.Stdout, result)
	}

	if result.Status == "errors" {
		return ExitFailure
	}
	return ExitSuccess
}

// runDoctor performs all diagnostic checks.
func runDoctor(configName string, checks doctorChecks) *doctorResult {
	result := &doctorResult{
		Status: "ready",
		Env: envInfo{
			OS:         runtime.GOOS,
			Arch:       runtime.GOARCH,
			NoSandbox:  checks.getenv(config.EnvNoSandbox),
			BrowserBin: checks.getenv(config.EnvBrowserBin),
			BrowserURL: checks.getenv(config.EnvBrowserURL),
		},
	}

	cfg := checkConfig(result, configName, checks.getenv)
	checkServer(result, cfg)
	checkBrowser(result, cfg, checks)
	checkEnvironment(result, checks.getenv)
	checkSystem(result, checks.tempDir)

	if len(result.Errors) > 0 {
		result.Status = "errors"
	} else if len(result.Warnings) > 0 {
		result.Status = "warnings"
	}

	return result
}

// checkConfig loads the config like a conversion would. A broken config is
// an error; the remaining checks then run against the defaults.
func checkConfig(result *doctorResult, name string, getenv func(string) string) *config.Config {
	result.Config.Name = name
	cfg, err := loadConfig(name, getenv)
	if err != nil {
		result.Errors = append(result.Errors, err.Error())
		cfg = config.DefaultConfig()
		cfg.ApplyEnv(getenv)
		return cfg
	}
	result.Config.Loaded = name != ""
	return cfg
}

// checkServer reports the rendering server command.
func checkServer(result *doctorResult, cfg *config.Config) {
	result.Server.Readiness = cfg.Server.Readiness
	if result.Server.Readiness == "" {
		result.Server.Readiness = config.ReadinessAuto
	}
	if len(cfg.Server.Command) == 0 {
		result.Server.Builtin = true
		return
	}
	result.Server.Command = cfg.Server.Command
	if _, err := exec.LookPath(cfg.Server.Command[0]); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Server command %q not found in PATH", cfg.Server.Command[0]))
	}
}

// checkBrowser resolves the browser target the way a conversion would.
func checkBrowser(result *doctorResult, cfg *config.Config, checks doctorChecks) {
	result.Browser.Sandbox = !cfg.Browser.NoSandbox

	target, err := checks.resolve(browserOptions(cfg))
	if err != nil {
		result.Errors = append(result.Errors, firstLine(err.Error()))
		return
	}

	result.Browser.Found = true
	if target.Remote {
		result.Browser.Mode = "remote"
		result.Browser.Endpoint = target.Endpoint
		return
	}

	result.Browser.Mode = "local"
	result.Browser.Path = target.Bin
	version, err := checks.browserVersion(target.Bin)
	if err != nil {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("Could not get browser version: %v", err))
		return
	}
	result.Browser.Version = version
}

// browserVersion runs "<browser> --version".
func browserVersion(path string) (string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), browserVersionTimeout)
	defer cancel()
	out, err := exec.CommandContext(ctx, path, "--version").Output() // #nosec G204 -- resolved browser path
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(out)), nil
}

// checkEnvironment detects container and CI environments.
func checkEnvironment(result *doctorResult, getenv func(string) string) {
	result.Env.Container, result.Env.ContainerHint = isContainer(getenv)

	ciVars := []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}
	for _, v := range ciVars {
		if getenv(v) != "" {
			result.Env.CI = true
			break
		}
	}

	if (result.Env.Container || result.Env.CI) && result.Browser.Sandbox && result.Browser.Mode != "remote" {
		result.Warnings = append(result.Warnings,
			"Container/CI detected but the sandbox is enabled. Set "+config.EnvNoSandbox+"=1")
	}
}

// isContainer detects if running in a container environment.
// Returns (isContainer, hint) where hint indicates which signal was detected.
func isContainer(getenv func(string) string) (bool, string) {
	if getenv("RESUME2PDF_CONTAINER") == "1" {
		return true, "RESUME2PDF_CONTAINER=1"
	}
	if hints.IsInContainer() {
		return true, "/.dockerenv"
	}
	// Podman / systemd-nspawn / general container indicator
	if v := getenv("container"); v != "" {
		return true, "container=" + v
	}
	if getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSystem verifies the temp directory is writable, which local browser
// profiles and atomic writes need.
func checkSystem(result *doctorResult, tempDir func() string) {
	dir := tempDir()
	testFile := filepath.Join(dir, "resume2pdf-doctor-test")
	if err := fileutil.WriteFileAtomic(testFile, []byte("test"), 0o600); err != nil {
		result.Errors = append(result.Errors,
			fmt.Sprintf("Temp directory not writable: %s", dir))
		return
	}
	_ = os.Remove(testFile)
	result.System.TempWritable = true
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(s, "\n")
	return line
}

// printDoctorResult outputs human-readable diagnostic results.
func printDoctorResult(w io.Writer, r *doctorResult) {
	fmt.Fprintln(w, "resume2pdf doctor")
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Browser")
	switch {
	case !r.Browser.Found:
		fmt.Fprintln(w, "  [ERROR] Not found")
	case r.Browser.Mode == "remote":
		fmt.Fprintf(w, "  [OK] Remote endpoint: %s\n", r.Browser.Endpoint)
	default:
		fmt.Fprintf(w, "  [OK] Found at %s\n", r.Browser.Path)
		if r.Browser.Version != "" {
			fmt.Fprintf(w, "  [OK] Version: %s\n", r.Browser.Version)
		}
	}
	if r.Browser.Sandbox {
		fmt.Fprintln(w, "  [OK] Sandbox: enabled")
	} else {
		fmt.Fprintln(w, "  [OK] Sandbox: disabled")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Rendering server")
	if r.Server.Builtin {
		fmt.Fprintln(w, "  [OK] Command: built-in (resume2pdf serve)")
	} else {
		fmt.Fprintf(w, "  [OK] Command: %s\n", strings.Join(r.Server.Command, " "))
	}
	fmt.Fprintf(w, "  [OK] Readiness: %s\n", r.Server.Readiness)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Config")
	switch {
	case r.Config.Loaded:
		fmt.Fprintf(w, "  [OK] Loaded: %s\n", r.Config.Name)
	case r.Config.Name == "":
		fmt.Fprintln(w, "  [OK] Defaults (no --config)")
	default:
		fmt.Fprintf(w, "  [ERROR] Not loaded: %s\n", r.Config.Name)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Environment")
	fmt.Fprintf(w, "  [OK] Platform: %s/%s\n", r.Env.OS, r.Env.Arch)
	if r.Env.Container {
		fmt.Fprintf(w, "  [OK] Container: detected (%s)\n", r.Env.ContainerHint)
	}
	if r.Env.CI {
		fmt.Fprintln(w, "  [OK] CI: detected")
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "System")
	if r.System.TempWritable {
		fmt.Fprintln(w, "  [OK] Temp directory: writable")
	} else {
		fmt.Fprintln(w, "  [ERROR] Temp directory: not writable")
	}
	fmt.Fprintln(w)

	if len(r.Warnings) > 0 {
		fmt.Fprintln(w, "Warnings:")
		for _, warn := range r.Warnings {
			fmt.Fprintf(w, "  [WARN] %s\n", warn)
		}
		fmt.Fprintln(w)
	}

	if len(r.Errors) > 0 {
		fmt.Fprintln(w, "Errors:")
		for _, err := range r.Errors {
			fmt.Fprintf(w, "  [ERROR] %s\n", firstLine(err))
		}
		fmt.Fprintln(w)
	}

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to convert")
	case "warnings":
		fmt.Fprintln(w, "Status: Ready with warnings")
	case "errors":
		fmt.Fprintln(w, "Status: Not ready (see errors above)")
	}
}
