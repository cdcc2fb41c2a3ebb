// Package config resolves runtime settings from defaults, an optional YAML
// file and PARLEY_* environment variables.
package config

import (
	"fmt"
	"net/url"
	"strings"

	"parley/room"
	"parley/translate"
)

const (
	DefaultBaseURL      = "http://localhost:3000"
	DefaultTranslateURL = translate.DefaultEndpoint
	DefaultLanguage     = string(translate.Spanish)
	DefaultLogLevel     = "info"
	DefaultUserID       = "guest"
	DefaultLayout       = "speaker-left"
)

// Config is the merged view; zero values mean "use the default".
type Config struct {
	BaseURL      string `yaml:"base_url"`
	TranslateURL string `yaml:"translate_url"`
	Language     string `yaml:"language"`
	UserID       string `yaml:"user_id"`
	Device       string `yaml:"device"`
	Layout       string `yaml:"layout"`
	LogLevel     string `yaml:"log_level"`
	Quiet        bool   `yaml:"quiet"`
}

// Validate fills defaults and rejects values the rest of the app cannot use.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.TranslateURL == "" {
		c.TranslateURL = DefaultTranslateURL
	}
	if c.Language == "" {
		c.Language = DefaultLanguage
	}
	if c.LogLevel == "" {
		c.LogLevel = DefaultLogLevel
	}
	if c.UserID == "" {
		c.UserID = DefaultUserID
	}
	if c.Layout == "" {
		c.Layout = DefaultLayout
	}

	c.BaseURL = strings.TrimRight(c.BaseURL, "/")
	if err := requireAbsURL("base_url", c.BaseURL); err != nil {
		return err
	}
	if err := requireAbsURL("translate_url", c.TranslateURL); err != nil {
		return err
	}
	if _, ok := translate.ParseLanguage(c.Language); !ok {
		return fmt.Errorf("config: unsupported language %q", c.Language)
	}
	if _, ok := room.ParseLayout(c.Layout); !ok {
		return fmt.Errorf("config: unknown layout %q (want grid, speaker-left or speaker-right)", c.Layout)
	}
	return nil
}

// TargetLanguage is only meaningful after Validate.
func (c Config) TargetLanguage() translate.Language {
	lang, _ := translate.ParseLanguage(c.Language)
	return lang
}

// RoomLayout is only meaningful after Validate.
func (c Config) RoomLayout() room.Layout {
	l, _ := room.ParseLayout(c.Layout)
	return l
}

func requireAbsURL(field, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("config: %s: %w", field, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("config: %s must be an absolute URL, got %q", field, raw)
	}
	return nil
}
