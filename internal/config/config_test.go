package config

// Notes:
// - LoadConfig by name searches the current directory, so those tests chdir
//   into a temp dir via t.Chdir and cannot run in parallel.
// - ApplyEnv takes a getenv function, so environment handling is tested
//   without touching the process environment.

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// ---------------------------------------------------------------------------
// TestDefaultConfig
// ---------------------------------------------------------------------------

func TestDefaultConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()

	if len(cfg.Server.Command) != 0 {
		t.Errorf("Server.Command = %v, want empty (built-in server)", cfg.Server.Command)
	}
	if cfg.Server.Readiness != ReadinessAuto {
		t.Errorf("Server.Readiness = %q, want %q", cfg.Server.Readiness, ReadinessAuto)
	}
	if cfg.Browser.Endpoint != "" {
		t.Errorf("Browser.Endpoint = %q, want empty", cfg.Browser.Endpoint)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// TestTimeouts - Duration parsing and defaults
// ---------------------------------------------------------------------------

func TestTimeouts_Defaults(t *testing.T) {
	t.Parallel()

	got, err := DefaultConfig().Timeouts()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := Timeouts{
		ServerStart: 60 * time.Second,
		Reachable:   30 * time.Second,
		Navigation:  60 * time.Second,
		Fonts:       10 * time.Second,
		Overall:     3 * time.Minute,
	}
	if got != want {
		t.Errorf("Timeouts() = %+v, want %+v", got, want)
	}
}

func TestTimeouts_Overrides(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Server.StartTimeout = "5s"
	cfg.Render.FontTimeout = "250ms"

	got, err := cfg.Timeouts()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ServerStart != 5*time.Second {
		t.Errorf("ServerStart = %v, want 5s", got.ServerStart)
	}
	if got.Fonts != 250*time.Millisecond {
		t.Errorf("Fonts = %v, want 250ms", got.Fonts)
	}
	if got.Navigation != DefaultNavigationTimeout {
		t.Errorf("Navigation = %v, want default", got.Navigation)
	}
}

func TestTimeouts_Invalid(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
	}{
		{name: "not a duration", value: "soon"},
		{name: "missing unit", value: "60"},
		{name: "zero", value: "0s"},
		{name: "negative", value: "-1s"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.Render.NavigationTimeout = tt.value

			_, err := cfg.Timeouts()
			if !errors.Is(err, ErrInvalidValue) {
				t.Fatalf("expected ErrInvalidValue, got %v", err)
			}
			if !strings.Contains(err.Error(), "render.navigationTimeout") {
				t.Errorf("error should name the field, got %q", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestValidate - Enumerations and cross-field rules
// ---------------------------------------------------------------------------

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "default", mutate: func(*Config) {}},
		{name: "output readiness", mutate: func(c *Config) { c.Server.Readiness = ReadinessOutput }},
		{name: "unknown readiness", mutate: func(c *Config) { c.Server.Readiness = "magic" }, wantErr: true},
		{name: "negative port", mutate: func(c *Config) { c.Server.Port = -1 }, wantErr: true},
		{name: "port too large", mutate: func(c *Config) { c.Server.Port = 70000 }, wantErr: true},
		{
			name: "address readiness without port source",
			mutate: func(c *Config) {
				c.Server.Readiness = ReadinessAddress
				c.Server.Command = []string{"pnpm", "preview"}
			},
			wantErr: true,
		},
		{
			name: "address readiness with placeholder",
			mutate: func(c *Config) {
				c.Server.Readiness = ReadinessAddress
				c.Server.Command = []string{"pnpm", "preview", "--port", "{port}"}
			},
		},
		{
			name: "address readiness with fixed port",
			mutate: func(c *Config) {
				c.Server.Readiness = ReadinessAddress
				c.Server.Command = []string{"pnpm", "preview"}
				c.Server.Port = 4173
			},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidValue) {
				t.Errorf("expected ErrInvalidValue, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// TestApplyEnv - Environment overrides
// ---------------------------------------------------------------------------

func TestApplyEnv(t *testing.T) {
	t.Parallel()

	env := map[string]string{
		EnvBrowserBin: "/opt/chrome/chrome",
		EnvBrowserURL: "ws://browserless:3000",
		EnvServerCmd:  "pnpm  run preview --port {port}",
		EnvNoSandbox:  "1",
	}

	cfg := DefaultConfig()
	cfg.Browser.Bin = "/from/file"
	cfg.ApplyEnv(func(k string) string { return env[k] })

	if cfg.Browser.Bin != "/opt/chrome/chrome" {
		t.Errorf("Browser.Bin = %q, env should win", cfg.Browser.Bin)
	}
	if cfg.Browser.Endpoint != "ws://browserless:3000" {
		t.Errorf("Browser.Endpoint = %q", cfg.Browser.Endpoint)
	}
	wantCmd := []string{"pnpm", "run", "preview", "--port", "{port}"}
	if strings.Join(cfg.Server.Command, " ") != strings.Join(wantCmd, " ") {
		t.Errorf("Server.Command = %v, want %v", cfg.Server.Command, wantCmd)
	}
	if !cfg.Browser.NoSandbox {
		t.Error("Browser.NoSandbox = false, want true")
	}
	if !cfg.HasPortPlaceholder() {
		t.Error("expected port placeholder to be detected")
	}
}

func TestApplyEnv_EmptyKeepsFileValues(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.Browser.Bin = "/from/file"
	cfg.ApplyEnv(func(string) string { return "" })

	if cfg.Browser.Bin != "/from/file" {
		t.Errorf("Browser.Bin = %q, want file value kept", cfg.Browser.Bin)
	}
	if cfg.Browser.NoSandbox {
		t.Error("NoSandbox must stay false without ROD_NO_SANDBOX=1")
	}
}

// ---------------------------------------------------------------------------
// TestLoadConfig - YAML and TOML files
// ---------------------------------------------------------------------------

func TestLoadConfig_YAML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "render.yaml", `
server:
  command: ["pnpm", "run", "preview", "--port", "{port}"]
  startTimeout: 45s
browser:
  endpoint: ws://localhost:3000
render:
  fontTimeout: 5s
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(cfg.Server.Command) != 5 || cfg.Server.Command[4] != "{port}" {
		t.Errorf("Server.Command = %v", cfg.Server.Command)
	}
	if cfg.Browser.Endpoint != "ws://localhost:3000" {
		t.Errorf("Browser.Endpoint = %q", cfg.Browser.Endpoint)
	}
	if cfg.Server.Readiness != ReadinessAuto {
		t.Errorf("Readiness = %q, want default %q", cfg.Server.Readiness, ReadinessAuto)
	}
	timeouts, err := cfg.Timeouts()
	if err != nil {
		t.Fatal(err)
	}
	if timeouts.ServerStart != 45*time.Second || timeouts.Fonts != 5*time.Second {
		t.Errorf("Timeouts = %+v", timeouts)
	}
}

func TestLoadConfig_TOML(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "render.toml", `
[server]
command = ["node", "server.js"]
readiness = "output"

[browser]
bin = "/usr/bin/chromium"
noSandbox = true
`)

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Readiness != ReadinessOutput {
		t.Errorf("Readiness = %q", cfg.Server.Readiness)
	}
	if cfg.Browser.Bin != "/usr/bin/chromium" || !cfg.Browser.NoSandbox {
		t.Errorf("Browser = %+v", cfg.Browser)
	}
}

func TestLoadConfig_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		file     string
		content  string
		wantErr  error
		wantPart string
	}{
		{name: "unknown yaml field", file: "a.yaml", content: "server:\n  bogus: 1\n", wantErr: ErrConfigParse},
		{name: "unknown toml field", file: "a.toml", content: "[server]\nbogus = 1\n", wantErr: ErrConfigParse, wantPart: "server.bogus"},
		{name: "invalid toml", file: "a.toml", content: "[server\n", wantErr: ErrConfigParse},
		{name: "empty file", file: "a.yaml", content: "", wantErr: ErrConfigParse},
		{name: "unsupported extension", file: "a.json", content: "{}", wantErr: ErrConfigParse},
		{name: "invalid duration", file: "a.yaml", content: "render:\n  timeout: forever\n", wantErr: ErrInvalidValue},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			path := writeFile(t, tt.file, tt.content)
			_, err := LoadConfig(path)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantPart != "" && !strings.Contains(err.Error(), tt.wantPart) {
				t.Errorf("error %q should contain %q", err, tt.wantPart)
			}
		})
	}
}

func TestLoadConfig_EmptyName(t *testing.T) {
	t.Parallel()

	if _, err := LoadConfig(""); !errors.Is(err, ErrEmptyConfigName) {
		t.Errorf("expected ErrEmptyConfigName, got %v", err)
	}
}

func TestLoadConfig_MissingPath(t *testing.T) {
	t.Parallel()

	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrConfigNotFound) {
		t.Errorf("expected ErrConfigNotFound, got %v", err)
	}
}

func TestLoadConfig_ByName(t *testing.T) {
	dir := t.TempDir()
	chdir(t, dir)

	if err := os.WriteFile(filepath.Join(dir, "team.toml"), []byte("[render]\ntimeout = \"90s\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig("team")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Render.Timeout != "90s" {
		t.Errorf("Render.Timeout = %q, want 90s", cfg.Render.Timeout)
	}
}

func TestLoadConfig_ByNameNotFound(t *testing.T) {
	chdir(t, t.TempDir())

	_, err := LoadConfig("nothing-here")
	if !errors.Is(err, ErrConfigNotFound) {
		t.Fatalf("expected ErrConfigNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), "nothing-here.yaml") {
		t.Errorf("error should list tried paths, got %q", err)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// chdir changes the working directory for the duration of the test and
// restores it on cleanup (equivalent of testing.T.Chdir, added in Go 1.24).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
