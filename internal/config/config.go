// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides configuration loading for draftsmith.
//
// Configuration is TOML with built-in defaults, environment variable
// overrides for credentials, and validation.
//
// Configuration file location:
//   - ~/.draftsmith/config.toml
//   - Built-in defaults
package config

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/morganforge/draftsmith/internal/repo"
	"github.com/morganforge/draftsmith/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete draftsmith configuration.
type Config struct {
	Version string `toml:"version"`

	// Repository connection
	Repo RepoConfig `toml:"repo"`

	// Conversation persistence
	Storage StorageConfig `toml:"storage"`

	// Document metadata cache
	Cache CacheConfig `toml:"cache"`

	// Conversation list and picker behavior
	List ListConfig `toml:"list"`
}

// RepoConfig contains content repository connection settings.
type RepoConfig struct {
	// BaseURL is the repository API endpoint
	BaseURL string `toml:"base_url"`
	// Dataset is the dataset name queries and mutations run against
	Dataset string `toml:"dataset"`
	// Token is the API token. Prefer the DRAFTSMITH_TOKEN environment
	// variable over storing it here.
	Token string `toml:"token"`
	// TimeoutSecs is the per-request timeout in seconds
	TimeoutSecs int `toml:"timeout_secs"`
	// RequestsPerSecond bounds outgoing request rate
	RequestsPerSecond int `toml:"requests_per_second"`
}

// StorageConfig contains conversation persistence settings.
type StorageConfig struct {
	// Dir is the conversation directory (empty = ~/.draftsmith/conversations)
	Dir string `toml:"dir"`
	// MaxConversations bounds retention (0 = unlimited)
	MaxConversations int `toml:"max_conversations"`
	// FlagsPath is the local flag file (empty = ~/.draftsmith/flags.json)
	FlagsPath string `toml:"flags_path"`
}

// CacheConfig contains document metadata cache settings.
type CacheConfig struct {
	// Path is the sqlite database file (empty = ~/.draftsmith/doccache.db)
	Path string `toml:"path"`
	// TTLMinutes is how long cached document metadata stays fresh
	TTLMinutes int `toml:"ttl_minutes"`
}

// ListConfig contains conversation list and picker settings.
type ListConfig struct {
	// PageSize is how many conversations are shown per load-more step
	PageSize int `toml:"page_size"`
	// SearchDebounceMs is the picker input debounce in milliseconds
	SearchDebounceMs int `toml:"search_debounce_ms"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Repo: RepoConfig{
			BaseURL:           "http://127.0.0.1:3333",
			Dataset:           "production",
			TimeoutSecs:       30,
			RequestsPerSecond: 25,
		},

		Storage: StorageConfig{
			MaxConversations: 100,
		},

		Cache: CacheConfig{
			TTLMinutes: 5,
		},

		List: ListConfig{
			PageSize:         20,
			SearchDebounceMs: 300,
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the draftsmith configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".draftsmith"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files should be 0600 (owner read/write only) to protect
// the API token.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}

	mode := info.Mode().Perm()
	if mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file, falling back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	path, err := ConfigPath()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				return nil, fmt.Errorf("failed to load config: %w", err)
			}
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads TOML configuration from a file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	_, err := toml.DecodeFile(path, cfg)
	return err
}

// ApplyEnvOverrides applies environment variable overrides. Credentials in
// the environment always win over the file.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("DRAFTSMITH_TOKEN"); v != "" {
		c.Repo.Token = v
	}
	if v := os.Getenv("DRAFTSMITH_BASE_URL"); v != "" {
		c.Repo.BaseURL = v
	}
	if v := os.Getenv("DRAFTSMITH_DATASET"); v != "" {
		c.Repo.Dataset = v
	}
}

// SetDefaults backfills zero values with defaults.
func (c *Config) SetDefaults() {
	def := Default()

	if c.Repo.BaseURL == "" {
		c.Repo.BaseURL = def.Repo.BaseURL
	}
	if c.Repo.Dataset == "" {
		c.Repo.Dataset = def.Repo.Dataset
	}
	if c.Repo.TimeoutSecs <= 0 {
		c.Repo.TimeoutSecs = def.Repo.TimeoutSecs
	}
	if c.Repo.RequestsPerSecond <= 0 {
		c.Repo.RequestsPerSecond = def.Repo.RequestsPerSecond
	}
	if c.Storage.MaxConversations < 0 {
		c.Storage.MaxConversations = def.Storage.MaxConversations
	}
	if c.Cache.TTLMinutes <= 0 {
		c.Cache.TTLMinutes = def.Cache.TTLMinutes
	}
	if c.List.PageSize <= 0 {
		c.List.PageSize = def.List.PageSize
	}
	if c.List.SearchDebounceMs <= 0 {
		c.List.SearchDebounceMs = def.List.SearchDebounceMs
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	parsed, err := url.Parse(c.Repo.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return errors.New("repo.base_url must be a valid http(s) URL")
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errors.New("repo.base_url scheme must be http or https")
	}
	if c.Repo.Dataset == "" {
		return errors.New("repo.dataset must not be empty")
	}
	if c.Repo.TimeoutSecs > 300 {
		return errors.New("repo.timeout_secs must be at most 300")
	}
	return nil
}

// =============================================================================
// SAVE
// =============================================================================

// Save writes the configuration back to the config file atomically.
func Save(cfg *Config) error {
	if err := EnsureConfigDir(); err != nil {
		return err
	}
	path, err := ConfigPath()
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return err
	}
	return util.AtomicWriteFile(path, buf.Bytes(), 0600)
}

// =============================================================================
// DERIVED SETTINGS
// =============================================================================

// ClientConfig converts the repo section into a client configuration.
func (c *Config) ClientConfig() *repo.ClientConfig {
	return &repo.ClientConfig{
		BaseURL:           c.Repo.BaseURL,
		Dataset:           c.Repo.Dataset,
		Token:             c.Repo.Token,
		Timeout:           time.Duration(c.Repo.TimeoutSecs) * time.Second,
		RequestsPerSecond: float64(c.Repo.RequestsPerSecond),
	}
}

// CacheTTL returns the document cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// SearchDebounce returns the picker debounce as a duration.
func (c *Config) SearchDebounce() time.Duration {
	return time.Duration(c.List.SearchDebounceMs) * time.Millisecond
}

// StorageDir returns the conversation directory, defaulting under the
// config directory.
func (c *Config) StorageDir() (string, error) {
	if c.Storage.Dir != "" {
		return c.Storage.Dir, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "conversations"), nil
}

// FlagsPath returns the local flag file path, defaulting under the config
// directory.
func (c *Config) FlagsPath() (string, error) {
	if c.Storage.FlagsPath != "" {
		return c.Storage.FlagsPath, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "flags.json"), nil
}

// CachePath returns the sqlite cache path, defaulting under the config
// directory.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "doccache.db"), nil
}
