// Package config handles the XDG configuration directory, the optional
// config.yaml inside it and TASKSYNC_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// AppName is the application directory name.
	AppName = "tasksync"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TASKSYNC"

	// ConfigFile is the optional settings file inside the config directory.
	ConfigFile = "config.yaml"

	// OAuthClientFile is the OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// TokenFile is the stored OAuth token filename.
	TokenFile = "token.json"

	// DataFile is the default local backend database filename.
	DataFile = "tasks.db"
)

// Backend names.
const (
	BackendLocal  = "local"
	BackendREST   = "rest"
	BackendGoogle = "google"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `mapstructure:"-"`

	// Debug enables debug logging.
	Debug bool `mapstructure:"-"`

	// Quiet suppresses informational output.
	Quiet bool `mapstructure:"-"`

	// Backend selects the task service: local, rest or google.
	Backend string `mapstructure:"backend"`

	// DefaultFilter is the tab selected at startup.
	DefaultFilter string `mapstructure:"default_filter"`

	// Concurrency bounds in-flight requests of a bulk operation.
	Concurrency int `mapstructure:"concurrency"`

	// RequestTimeout bounds each backend call.
	RequestTimeout time.Duration `mapstructure:"request_timeout"`

	// LogLevel is the zerolog level used when Debug is off.
	LogLevel string `mapstructure:"log_level"`

	// ServerURL and Token configure the rest backend.
	ServerURL string `mapstructure:"server_url"`
	Token     string `mapstructure:"token"`

	// ListID selects the Google Tasks list.
	ListID string `mapstructure:"list_id"`

	// DataFile is the local backend database path.
	DataFile string `mapstructure:"data_file"`
}

// New creates a new Config with the default or specified config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/tasksync or $HOME/.config/tasksync.
// Settings keep their defaults until Load is called.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:            dir,
		Backend:        BackendLocal,
		DefaultFilter:  "all",
		Concurrency:    8,
		RequestTimeout: 5 * time.Second,
		LogLevel:       "warn",
	}, nil
}

// Load reads .env from the working directory, then config.yaml from the
// config directory, then TASKSYNC_* environment variables. Later sources
// win. Missing files are not errors.
func (c *Config) Load() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("backend", c.Backend)
	v.SetDefault("default_filter", c.DefaultFilter)
	v.SetDefault("concurrency", c.Concurrency)
	v.SetDefault("request_timeout", c.RequestTimeout)
	v.SetDefault("log_level", c.LogLevel)
	v.SetDefault("server_url", c.ServerURL)
	v.SetDefault("token", c.Token)
	v.SetDefault("list_id", c.ListID)
	v.SetDefault("data_file", c.DataFile)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(c.ConfigPath())
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return fmt.Errorf("read config: %w", err)
			}
		}
	}

	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return c.Validate()
}

// Validate checks settings that cannot be defaulted.
func (c *Config) Validate() error {
	c.Backend = strings.ToLower(strings.TrimSpace(c.Backend))
	switch c.Backend {
	case BackendLocal, BackendGoogle:
	case BackendREST:
		if c.ServerURL == "" {
			return fmt.Errorf("backend %q requires server_url", BackendREST)
		}
	default:
		return fmt.Errorf("unknown backend: %s", c.Backend)
	}
	if c.Concurrency < 1 {
		return fmt.Errorf("concurrency must be >= 1, got %d", c.Concurrency)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive")
	}
	return nil
}

// DefaultConfigDir returns the default configuration directory.
// Uses XDG_CONFIG_HOME if set, otherwise $HOME/.config.
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home can't be determined
		return AppName
	}
	return filepath.Join(home, ".config", AppName)
}

// ConfigPath returns the path to config.yaml.
func (c *Config) ConfigPath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// DataPath returns the local backend database path.
func (c *Config) DataPath() string {
	if c.DataFile != "" {
		return c.DataFile
	}
	return filepath.Join(c.Dir, DataFile)
}

// OAuthClientPath returns the path to the OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// TokenPath returns the path to the stored OAuth token file.
func (c *Config) TokenPath() string {
	return filepath.Join(c.Dir, TokenFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

// HasOAuthClient checks if the OAuth client credentials file exists.
func (c *Config) HasOAuthClient() bool {
	_, err := os.Stat(c.OAuthClientPath())
	return err == nil
}

// HasToken checks if the token file exists.
func (c *Config) HasToken() bool {
	_, err := os.Stat(c.TokenPath())
	return err == nil
}

// RemoveToken deletes the token file.
func (c *Config) RemoveToken() error {
	return os.Remove(c.TokenPath())
}
