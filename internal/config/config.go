// Package config loads the bot configuration from an HCL file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"slices"

	"github.com/caarlos0/env/v11"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete bot configuration.
type Config struct {
	LogLevel      string
	DeckDir       string
	DefaultLocale string
	Telegram      TelegramConfig
	Locales       []LocaleConfig
}

// TelegramConfig holds the Telegram transport settings.
type TelegramConfig struct {
	Token       string `hcl:"token,optional"`
	PollTimeout int    `hcl:"poll_timeout,optional"`
	Debug       bool   `hcl:"debug,optional"`
}

// LocaleConfig lists the decks offered to players of one locale.
type LocaleConfig struct {
	Name  string   `hcl:"name,label"`
	Decks []string `hcl:"decks"`
}

// fileConfig mirrors the HCL layout; the telegram block is optional.
type fileConfig struct {
	LogLevel      string          `hcl:"log_level,optional"`
	DeckDir       string          `hcl:"deck_dir,optional"`
	DefaultLocale string          `hcl:"default_locale,optional"`
	Telegram      *TelegramConfig `hcl:"telegram,block"`
	Locales       []LocaleConfig  `hcl:"locale,block"`
}

// envConfig lists the environment overrides. Empty values leave the file
// setting alone.
type envConfig struct {
	LogLevel      string `env:"PARTYDECK_LOG_LEVEL"`
	DeckDir       string `env:"PARTYDECK_DECK_DIR"`
	DefaultLocale string `env:"PARTYDECK_DEFAULT_LOCALE"`
	Token         string `env:"PARTYDECK_TELEGRAM_TOKEN"`
	PollTimeout   int    `env:"PARTYDECK_TELEGRAM_POLL_TIMEOUT"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		LogLevel:      "info",
		DeckDir:       "decks",
		DefaultLocale: "en",
		Telegram:      TelegramConfig{PollTimeout: 60},
		Locales: []LocaleConfig{
			{Name: "en", Decks: []string{"questions", "actions"}},
			{Name: "ru", Decks: []string{"вопросы", "действия"}},
		},
	}
}

// Load reads filename when it exists, fills gaps with defaults and then
// applies environment overrides. An empty filename skips the file.
func Load(filename string) (*Config, error) {
	cfg, err := LoadFile(filename)
	if err != nil {
		return nil, err
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var e envConfig
	if err := env.Parse(&e); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	if e.LogLevel != "" {
		c.LogLevel = e.LogLevel
	}
	if e.DeckDir != "" {
		c.DeckDir = e.DeckDir
	}
	if e.DefaultLocale != "" {
		c.DefaultLocale = e.DefaultLocale
	}
	if e.Token != "" {
		c.Telegram.Token = e.Token
	}
	if e.PollTimeout != 0 {
		c.Telegram.PollTimeout = e.PollTimeout
	}
	return nil
}

// LoadFile reads an HCL configuration file. A missing file yields Default().
func LoadFile(filename string) (*Config, error) {
	if filename == "" {
		return Default(), nil
	}
	if _, err := os.Stat(filename); errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file: %s", diags.Error())
	}

	var fc fileConfig
	if diags := gohcl.DecodeBody(file.Body, nil, &fc); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL: %s", diags.Error())
	}

	cfg := Config{
		LogLevel:      fc.LogLevel,
		DeckDir:       fc.DeckDir,
		DefaultLocale: fc.DefaultLocale,
		Locales:       fc.Locales,
	}
	if fc.Telegram != nil {
		cfg.Telegram = *fc.Telegram
	}

	defaults := Default()
	if cfg.LogLevel == "" {
		cfg.LogLevel = defaults.LogLevel
	}
	if cfg.DeckDir == "" {
		cfg.DeckDir = defaults.DeckDir
	}
	if cfg.DefaultLocale == "" {
		cfg.DefaultLocale = defaults.DefaultLocale
	}
	if cfg.Telegram.PollTimeout == 0 {
		cfg.Telegram.PollTimeout = defaults.Telegram.PollTimeout
	}
	if len(cfg.Locales) == 0 {
		cfg.Locales = defaults.Locales
	}

	return &cfg, nil
}

// Validate checks the configuration for internal consistency.
func (c *Config) Validate() error {
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %q", c.LogLevel)
	}
	if c.DeckDir == "" {
		return fmt.Errorf("deck_dir must be set")
	}
	if c.Telegram.PollTimeout < 0 {
		return fmt.Errorf("telegram poll_timeout must not be negative")
	}
	if len(c.Locales) == 0 {
		return fmt.Errorf("at least one locale must be configured")
	}

	seen := map[string]bool{}
	for _, l := range c.Locales {
		if seen[l.Name] {
			return fmt.Errorf("locale %s: defined twice", l.Name)
		}
		seen[l.Name] = true
		if len(l.Decks) == 0 {
			return fmt.Errorf("locale %s: at least one deck must be listed", l.Name)
		}
		if i := firstDuplicate(l.Decks); i >= 0 {
			return fmt.Errorf("locale %s: deck %s listed twice", l.Name, l.Decks[i])
		}
	}
	if !seen[c.DefaultLocale] {
		return fmt.Errorf("default locale %s is not configured", c.DefaultLocale)
	}
	return nil
}

// DeckSets returns the deck names per locale.
func (c *Config) DeckSets() map[string][]string {
	out := make(map[string][]string, len(c.Locales))
	for _, l := range c.Locales {
		out[l.Name] = slices.Clone(l.Decks)
	}
	return out
}

// LocaleNames returns configured locales in file order.
func (c *Config) LocaleNames() []string {
	names := make([]string, 0, len(c.Locales))
	for _, l := range c.Locales {
		names = append(names, l.Name)
	}
	return names
}

func firstDuplicate(items []string) int {
	seen := make(map[string]bool, len(items))
	for i, s := range items {
		if seen[s] {
			return i
		}
		seen[s] = true
	}
	return -1
}
