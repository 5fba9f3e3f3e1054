// Package config loads and validates resume2pdf settings from YAML or TOML
// files and the process environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-resume2pdf/internal/fileutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Environment variables read by ApplyEnv.
const (
	EnvBrowserBin = "RESUME2PDF_BROWSER_BIN"
	EnvBrowserURL = "RESUME2PDF_BROWSER_URL"
	EnvServerCmd  = "RESUME2PDF_SERVER_CMD"
	EnvNoSandbox  = "ROD_NO_SANDBOX"
)

// Readiness modes for the rendering server.
const (
	ReadinessAuto    = "auto"    // address when the command has {port}, output otherwise
	ReadinessAddress = "address" // negotiated port + reachability polling
	ReadinessOutput  = "output"  // scan process output for the first URL
)

// PortPlaceholder is replaced by the negotiated port in server commands.
const PortPlaceholder = "{port}"

// Default timeouts.
const (
	DefaultServerStartTimeout = 60 * time.Second
	DefaultReachableTimeout   = 30 * time.Second
	DefaultNavigationTimeout  = 60 * time.Second
	DefaultFontTimeout        = 10 * time.Second
	DefaultTimeout            = 3 * time.Minute
)

// Config holds all configuration for a render run.
type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Browser BrowserConfig `yaml:"browser" toml:"browser"`
	Render  RenderConfig  `yaml:"render" toml:"render"`
}

// ServerConfig describes the ephemeral rendering server.
type ServerConfig struct {
	Command          []string `yaml:"command" toml:"command"`                   // argv, "{port}" expands to the port (empty = built-in server)
	Dir              string   `yaml:"dir" toml:"dir"`                           // working directory (empty = current)
	Port             int      `yaml:"port" toml:"port"`                         // 0 = pick a free port
	Readiness        string   `yaml:"readiness" toml:"readiness"`               // auto, address, output
	StartTimeout     string   `yaml:"startTimeout" toml:"startTimeout"`         // e.g. "60s"
	ReachableTimeout string   `yaml:"reachableTimeout" toml:"reachableTimeout"` // e.g. "30s"
}

// BrowserConfig selects the browser-automation target.
type BrowserConfig struct {
	Bin       string `yaml:"bin" toml:"bin"`             // explicit local browser path
	Endpoint  string `yaml:"endpoint" toml:"endpoint"`   // remote endpoint, enables remote mode
	NoSandbox bool   `yaml:"noSandbox" toml:"noSandbox"` // required for Docker/root
}

// RenderConfig holds page rendering timeouts.
type RenderConfig struct {
	NavigationTimeout string `yaml:"navigationTimeout" toml:"navigationTimeout"`
	FontTimeout       string `yaml:"fontTimeout" toml:"fontTimeout"`
	Timeout           string `yaml:"timeout" toml:"timeout"` // whole run
}

// Timeouts is the parsed form of every duration in Config.
type Timeouts struct {
	ServerStart time.Duration
	Reachable   time.Duration
	Navigation  time.Duration
	Fonts       time.Duration
	Overall     time.Duration
}

// DefaultConfig returns a configuration using the built-in rendering server
// and local browser discovery.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{Readiness: ReadinessAuto},
	}
}

// Validate checks enumerated values and duration syntax.
// Called automatically by LoadConfig, but available for consumers
// who construct Config manually.
func (c *Config) Validate() error {
	switch c.Server.Readiness {
	case "", ReadinessAuto, ReadinessAddress, ReadinessOutput:
	default:
		return fmt.Errorf("%w: server.readiness %q (must be auto, address, or output)", ErrInvalidValue, c.Server.Readiness)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: server.port %d out of range", ErrInvalidValue, c.Server.Port)
	}
	if c.Server.Readiness == ReadinessAddress && len(c.Server.Command) > 0 && !c.HasPortPlaceholder() && c.Server.Port == 0 {
		return fmt.Errorf("%w: server.readiness address needs %s in server.command or a fixed server.port", ErrInvalidValue, PortPlaceholder)
	}
	_, err := c.Timeouts()
	return err
}

// HasPortPlaceholder reports whether the server command receives the port.
func (c *Config) HasPortPlaceholder() bool {
	for _, arg := range c.Server.Command {
		if strings.Contains(arg, PortPlaceholder) {
			return true
		}
	}
	return false
}

// Timeouts parses every configured duration, falling back to defaults for
// empty values.
func (c *Config) Timeouts() (Timeouts, error) {
	var t Timeouts
	fields := []struct {
		name  string
		value string
		def   time.Duration
		dst   *time.Duration
	}{
		{"server.startTimeout", c.Server.StartTimeout, DefaultServerStartTimeout, &t.ServerStart},
		{"server.reachableTimeout", c.Server.ReachableTimeout, DefaultReachableTimeout, &t.Reachable},
		{"render.navigationTimeout", c.Render.NavigationTimeout, DefaultNavigationTimeout, &t.Navigation},
		{"render.fontTimeout", c.Render.FontTimeout, DefaultFontTimeout, &t.Fonts},
		{"render.timeout", c.Render.Timeout, DefaultTimeout, &t.Overall},
	}

	for _, f := range fields {
		d, err := parseDuration(f.name, f.value, f.def)
		if err != nil {
			return Timeouts{}, err
		}
		*f.dst = d
	}
	return t, nil
}

// ApplyEnv overrides file values with environment variables.
// Environment wins over the config file; CLI flags are applied after this.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := getenv(EnvBrowserBin); v != "" {
		c.Browser.Bin = v
	}
	if v := getenv(EnvBrowserURL); v != "" {
		c.Browser.Endpoint = v
	}
	if v := getenv(EnvServerCmd); v != "" {
		c.Server.Command = strings.Fields(v)
	}
	if getenv(EnvNoSandbox) == "1" {
		c.Browser.NoSandbox = true
	}
}

// parseDuration parses value, returning def when it is empty.
func parseDuration(name, value string, def time.Duration) (time.Duration, error) {
	if value == "" {
		return def, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q: %v", ErrInvalidValue, name, value, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %s", ErrInvalidValue, name, value)
	}
	return d, nil
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Returns error if the file is not found (no silent fallback).
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if fileutil.IsFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := decode(configPath, data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// SearchPaths lists the files tried for a config name, in order.
// Locations: current directory, then the user config dir (go-resume2pdf/).
func SearchPaths(name string) []string {
	paths := make([]string, 0, len(extensions)*2)
	for _, ext := range extensions {
		paths = append(paths, name+ext)
	}
	if userConfigDir, err := os.UserConfigDir(); err == nil {
		for _, ext := range extensions {
			paths = append(paths, filepath.Join(userConfigDir, "go-resume2pdf", name+ext))
		}
	}
	return paths
}

// resolveConfigPath searches for a config file by name in standard locations.
func resolveConfigPath(name string) (string, error) {
	tried := SearchPaths(name)
	for _, p := range tried {
		if fileutil.FileExists(p) {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(tried, ", "))
}
