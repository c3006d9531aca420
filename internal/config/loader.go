package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	pkgconfig "github.com/goran-ethernal/SubgraphWatcher/pkg/config"
	"gopkg.in/yaml.v3"
)

type decodeFunc func(data []byte, cfg *pkgconfig.Config) error

var decoders = map[string]struct {
	format string
	decode decodeFunc
}{
	".yaml": {"YAML", decodeYAML},
	".yml":  {"YAML", decodeYAML},
	".json": {"JSON", decodeJSON},
	".toml": {"TOML", decodeTOML},
}

func decodeYAML(data []byte, cfg *pkgconfig.Config) error {
	return yaml.Unmarshal(data, cfg)
}

func decodeJSON(data []byte, cfg *pkgconfig.Config) error {
	return json.NewDecoder(bytes.NewReader(data)).Decode(cfg)
}

func decodeTOML(data []byte, cfg *pkgconfig.Config) error {
	_, err := toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	return err
}

// LoadFromFile loads the watcher configuration, picking the decoder from the
// file extension (.yaml, .yml, .json or .toml). Environment references are
// expanded first; ${VAR:-fallback} uses fallback when VAR is unset or empty.
func LoadFromFile(path string) (*pkgconfig.Config, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if _, ok := decoders[ext]; !ok {
		return nil, fmt.Errorf("unsupported config file format: %s (supported: .yaml, .yml, .json, .toml)", ext)
	}
	return load(path, ext)
}

func LoadFromYAML(path string) (*pkgconfig.Config, error) { return load(path, ".yaml") }

func LoadFromJSON(path string) (*pkgconfig.Config, error) { return load(path, ".json") }

func LoadFromTOML(path string) (*pkgconfig.Config, error) { return load(path, ".toml") }

func load(path, ext string) (*pkgconfig.Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	d := decoders[ext]
	var cfg pkgconfig.Config
	if err := d.decode([]byte(expandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s config: %w", d.format, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

func expandEnv(s string) string {
	return os.Expand(s, func(ref string) string {
		name, fallback, hasFallback := strings.Cut(ref, ":-")
		if v := os.Getenv(name); v != "" || !hasFallback {
			return v
		}
		return fallback
	})
}
