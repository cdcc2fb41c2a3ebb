package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Loader loads configuration from an optional YAML file and environment
// variables. Tests can override Lookup and ReadFile to inject fixtures.
type Loader struct {
	Path     string
	Lookup   func(string) (string, bool)
	ReadFile func(string) ([]byte, error)
}

// Load merges, in order: the YAML file (Path, else PARLEY_CONFIG), then
// PARLEY_* variables, then validates.
func (l Loader) Load() (Config, error) {
	if l.Lookup == nil {
		l.Lookup = os.LookupEnv
	}
	if l.ReadFile == nil {
		l.ReadFile = os.ReadFile
	}

	var cfg Config

	path := l.Path
	if path == "" {
		overrideString(l.Lookup, "PARLEY_CONFIG", &path)
	}
	if path != "" {
		if err := l.applyFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	overrideString(l.Lookup, "PARLEY_BASE_URL", &cfg.BaseURL)
	overrideString(l.Lookup, "PARLEY_TRANSLATE_URL", &cfg.TranslateURL)
	overrideString(l.Lookup, "PARLEY_LANGUAGE", &cfg.Language)
	overrideString(l.Lookup, "PARLEY_USER_ID", &cfg.UserID)
	overrideString(l.Lookup, "PARLEY_DEVICE", &cfg.Device)
	overrideString(l.Lookup, "PARLEY_LAYOUT", &cfg.Layout)
	overrideString(l.Lookup, "PARLEY_LOG_LEVEL", &cfg.LogLevel)
	if err := overrideBool(l.Lookup, "PARLEY_QUIET", &cfg.Quiet); err != nil {
		return Config{}, err
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (l Loader) applyFile(path string, cfg *Config) error {
	raw, err := l.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("config: decode %s: %w", path, err)
	}
	return nil
}

func overrideString(lookup func(string) (string, bool), key string, target *string) {
	if lookup == nil || target == nil {
		return
	}
	if value, ok := lookup(key); ok && strings.TrimSpace(value) != "" {
		*target = strings.TrimSpace(value)
	}
}

func overrideBool(lookup func(string) (string, bool), key string, target *bool) error {
	value, ok := lookup(key)
	if !ok || strings.TrimSpace(value) == "" {
		return nil
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("config: %s: %w", key, err)
	}
	*target = b
	return nil
}
