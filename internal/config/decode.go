package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/goccy/go-yaml"
)

// MaxInputSize limits config input to prevent memory exhaustion (default 1MB).
var MaxInputSize = 1 << 20

// extensions are tried in order when resolving a config name.
var extensions = []string{".yaml", ".yml", ".toml"}

var (
	errEmptyInput     = errors.New("empty config file")
	errInputTooLarge  = errors.New("config input exceeds maximum size")
	errUnknownFormat  = errors.New("unsupported config extension")
	errUnknownTOMLKey = errors.New("unknown field")
)

// decode unmarshals data into cfg, choosing the format from the file
// extension. Both decoders reject unknown fields.
func decode(path string, data []byte, cfg *Config) error {
	if len(data) == 0 {
		return errEmptyInput
	}
	if len(data) > MaxInputSize {
		return fmt.Errorf("%w: %d bytes (max %d)", errInputTooLarge, len(data), MaxInputSize)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.UnmarshalWithOptions(data, cfg, yaml.Strict()); err != nil {
			return fmt.Errorf("yaml: %w", err)
		}
		return nil
	case ".toml":
		md, err := toml.Decode(string(data), cfg)
		if err != nil {
			return fmt.Errorf("toml: %w", err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			keys := make([]string, len(undecoded))
			for i, k := range undecoded {
				keys[i] = k.String()
			}
			return fmt.Errorf("toml: %w: %s", errUnknownTOMLKey, strings.Join(keys, ", "))
		}
		return nil
	default:
		return fmt.Errorf("%w: %q (use .yaml, .yml or .toml)", errUnknownFormat, filepath.Ext(path))
	}
}
