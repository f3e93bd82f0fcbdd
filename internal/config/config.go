/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"quotecard/internal/domain"
)

// AppConfig is the user-editable configuration persisted as YAML in the user scope.
// Environment variables are read-only overrides applied at load time.
// The API key is never written to this file; it lives in the OS keychain.
type AppConfig struct {
	ConfigVersion int               `yaml:"config_version"`
	QuoteSource   QuoteSourceConfig `yaml:"quote_source"`
	Card          CardConfig        `yaml:"card"`
	History       HistoryConfig     `yaml:"history"`
	Logging       LoggingConfig     `yaml:"logging"`
}

type QuoteSourceConfig struct {
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	TimeoutMs   int     `yaml:"timeout_ms"`
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
}

type CardConfig struct {
	TemplatesDir string   `yaml:"templates_dir"` // empty: built-in solid backgrounds
	OutputDir    string   `yaml:"output_dir"`
	FontFile     string   `yaml:"font_file"` // empty: embedded Go Regular
	FontSize     float32  `yaml:"font_size"`
	DefaultColor string   `yaml:"default_color"`
	Formats      []string `yaml:"formats"` // png is always written; "pdf" adds a PDF copy
}

type HistoryConfig struct {
	Enabled     bool   `yaml:"enabled"`
	DatabaseURL string `yaml:"database_url"` // postgres DSN for a shared history; empty uses SQLite
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		QuoteSource: QuoteSourceConfig{
			BaseURL:     "https://api.openai.com/v1",
			Model:       "gpt-3.5-turbo",
			TimeoutMs:   30000,
			MaxTokens:   50,
			Temperature: 0.7,
		},
		Card: CardConfig{
			OutputDir:    "output",
			FontSize:     50,
			DefaultColor: string(domain.DefaultColor),
			Formats:      []string{"png"},
		},
		History: HistoryConfig{Enabled: true},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// Env var names used as overrides.
const (
	EnvAPIKey       = "OPENAI_API_KEY"
	EnvAPIBaseURL   = "QC_API_BASE_URL"
	EnvModel        = "QC_MODEL"
	EnvTimeoutMs    = "QC_TIMEOUT_MS"
	EnvTemplatesDir = "QC_TEMPLATES_DIR"
	EnvOutputDir    = "QC_OUTPUT_DIR"
	EnvFontFile     = "QC_FONT_FILE"
	EnvFormats      = "QC_FORMATS"
	EnvHistory      = "QC_HISTORY"
	EnvHistoryDSN   = "QC_HISTORY_DSN"
	EnvLogLevel     = "QC_LOG_LEVEL"
	EnvLogFormat    = "QC_LOG_FORMAT"
	EnvLogSource    = "QC_LOG_SOURCE"
	EnvLogFile      = "QC_LOG_FILE"
	// EnvConfigFile points Load/Save at an explicit file instead of the per-user path.
	EnvConfigFile = "QC_CONFIG"
)

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	if p := strings.TrimSpace(os.Getenv(EnvConfigFile)); p != "" {
		return p, nil
	}
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" {
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "QuoteCard")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "QuoteCard")
	default:
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			base = filepath.Join(xdg, "quotecard")
		} else if home := os.Getenv("HOME"); home != "" {
			base = filepath.Join(home, ".config", "quotecard")
		}
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults and environment
// overrides, and resolves the API key (environment first, then keyring).
// A malformed file is reported as a ConfigError; a missing one is not an error.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", &domain.ConfigError{Key: "path", Err: err}
	}
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Defaults(), "", &domain.ConfigError{Key: path, Err: err}
		}
		normalize(&cfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, "", &domain.ConfigError{Key: path, Err: err}
	}
	applyEnvOverrides(&cfg)
	return cfg, apiKey(), nil
}

func apiKey() string {
	if v := strings.TrimSpace(os.Getenv(EnvAPIKey)); v != "" {
		return v
	}
	tok, _ := tokenStore.Get(keyringService, keyringAPIKey)
	return strings.TrimSpace(tok)
}

// Save writes the user config YAML and persists the API key into the OS keyring (if non-empty).
func Save(cfg AppConfig, key string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	if key != "" {
		if err := SetAPIKey(key); err != nil {
			return err
		}
	}
	return nil
}

// SetAPIKey stores the quote source key in the OS keyring.
func SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return &domain.ConfigError{Key: "api_key", Err: errors.New("empty key")}
	}
	if err := tokenStore.Set(keyringService, keyringAPIKey, key); err != nil {
		return fmt.Errorf("store api key in keyring: %w", err)
	}
	return nil
}

// DeleteAPIKey removes the stored key; a missing entry is not an error.
func DeleteAPIKey() error {
	if err := tokenStore.Delete(keyringService, keyringAPIKey); err != nil && !errors.Is(err, ErrKeyNotFound) {
		return err
	}
	return nil
}

// Validate reports the first invalid setting as a ConfigError.
func (c AppConfig) Validate() error {
	if _, err := domain.ParseColorKey(c.Card.DefaultColor); err != nil {
		return &domain.ConfigError{Key: "card.default_color", Err: err}
	}
	if strings.TrimSpace(c.Card.OutputDir) == "" {
		return &domain.ConfigError{Key: "card.output_dir", Err: errors.New("must not be empty")}
	}
	if c.Card.FontSize <= 0 {
		return &domain.ConfigError{Key: "card.font_size", Err: fmt.Errorf("must be positive, got %v", c.Card.FontSize)}
	}
	for _, f := range c.Card.Formats {
		switch strings.ToLower(strings.TrimSpace(f)) {
		case "png", "pdf":
		default:
			return &domain.ConfigError{Key: "card.formats", Err: fmt.Errorf("unsupported format %q", f)}
		}
	}
	if !strings.HasPrefix(c.QuoteSource.BaseURL, "http://") && !strings.HasPrefix(c.QuoteSource.BaseURL, "https://") {
		return &domain.ConfigError{Key: "quote_source.base_url", Err: fmt.Errorf("not an http(s) URL: %q", c.QuoteSource.BaseURL)}
	}
	return nil
}

// WantsPDF reports whether a PDF copy should be written next to each PNG.
func (c CardConfig) WantsPDF() bool {
	for _, f := range c.Formats {
		if strings.EqualFold(strings.TrimSpace(f), "pdf") {
			return true
		}
	}
	return false
}

// Timeout returns the quote source request timeout, falling back to the default.
func (q QuoteSourceConfig) Timeout() time.Duration {
	if q.TimeoutMs <= 0 {
		return time.Duration(Defaults().QuoteSource.TimeoutMs) * time.Millisecond
	}
	return time.Duration(q.TimeoutMs) * time.Millisecond
}

// normalize trims string fields and restores defaults for zeroed numeric fields
// after the YAML file has been decoded over Defaults().
func normalize(c *AppConfig) {
	d := Defaults()
	c.QuoteSource.BaseURL = strings.TrimRight(strings.TrimSpace(c.QuoteSource.BaseURL), "/")
	if c.QuoteSource.BaseURL == "" {
		c.QuoteSource.BaseURL = d.QuoteSource.BaseURL
	}
	if c.QuoteSource.Model = strings.TrimSpace(c.QuoteSource.Model); c.QuoteSource.Model == "" {
		c.QuoteSource.Model = d.QuoteSource.Model
	}
	if c.QuoteSource.TimeoutMs <= 0 {
		c.QuoteSource.TimeoutMs = d.QuoteSource.TimeoutMs
	}
	if c.QuoteSource.MaxTokens <= 0 {
		c.QuoteSource.MaxTokens = d.QuoteSource.MaxTokens
	}
	if c.QuoteSource.Temperature <= 0 {
		c.QuoteSource.Temperature = d.QuoteSource.Temperature
	}
	c.Card.TemplatesDir = strings.TrimSpace(c.Card.TemplatesDir)
	if c.Card.OutputDir = strings.TrimSpace(c.Card.OutputDir); c.Card.OutputDir == "" {
		c.Card.OutputDir = d.Card.OutputDir
	}
	c.Card.FontFile = strings.TrimSpace(c.Card.FontFile)
	if c.Card.FontSize <= 0 {
		c.Card.FontSize = d.Card.FontSize
	}
	if c.Card.DefaultColor = strings.ToLower(strings.TrimSpace(c.Card.DefaultColor)); c.Card.DefaultColor == "" {
		c.Card.DefaultColor = d.Card.DefaultColor
	}
	if len(c.Card.Formats) == 0 {
		c.Card.Formats = d.Card.Formats
	}
	c.History.DatabaseURL = strings.TrimSpace(c.History.DatabaseURL)
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	c.Logging.File = strings.TrimSpace(c.Logging.File)
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvAPIBaseURL)); v != "" {
		cfg.QuoteSource.BaseURL = strings.TrimRight(v, "/")
	}
	if v := strings.TrimSpace(os.Getenv(EnvModel)); v != "" {
		cfg.QuoteSource.Model = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.QuoteSource.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvTemplatesDir)); v != "" {
		cfg.Card.TemplatesDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvOutputDir)); v != "" {
		cfg.Card.OutputDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFontFile)); v != "" {
		cfg.Card.FontFile = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvFormats)); v != "" {
		var formats []string
		for _, f := range strings.Split(v, ",") {
			if f = strings.TrimSpace(f); f != "" {
				formats = append(formats, strings.ToLower(f))
			}
		}
		cfg.Card.Formats = formats
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistory)); v != "" {
		cfg.History.Enabled = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvHistoryDSN)); v != "" {
		cfg.History.DatabaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = parseBool(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func parseBool(v string) bool {
	lv := strings.ToLower(strings.TrimSpace(v))
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	names := map[string]string{
		"quote_source.base_url":   EnvAPIBaseURL,
		"quote_source.model":      EnvModel,
		"quote_source.timeout_ms": EnvTimeoutMs,
		"card.templates_dir":      EnvTemplatesDir,
		"card.output_dir":         EnvOutputDir,
		"card.font_file":          EnvFontFile,
		"card.formats":            EnvFormats,
		"history.enabled":         EnvHistory,
		"history.database_url":    EnvHistoryDSN,
		"logging.level":           EnvLogLevel,
		"logging.format":          EnvLogFormat,
		"logging.source":          EnvLogSource,
		"logging.file":            EnvLogFile,
		"api_key":                 EnvAPIKey,
	}
	env, ok := names[key]
	if !ok || os.Getenv(env) == "" {
		return "", false
	}
	return env, true
}
