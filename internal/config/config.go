// Package config handles the XDG configuration directory, the config file
// and the paths derived from it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	// AppName is the application directory name.
	AppName = "todo"

	// ConfigFile is the optional TOML settings file.
	ConfigFile = "config.toml"

	// CredentialsFile is the key/value store holding the bearer token.
	CredentialsFile = "credentials.db"

	// CookiesFile holds the auth cookie read by the route guard.
	CookiesFile = "cookies.json"

	// OAuthClientFile is the Google OAuth client credentials filename.
	OAuthClientFile = "oauth_client.json"

	// GoogleTokenFile is the stored Google OAuth token filename.
	GoogleTokenFile = "google_token.json"

	// DefaultAPIURL is the backend base URL when nothing else is configured.
	DefaultAPIURL = "http://localhost:8000"

	// DefaultListen is the address for `todo serve`.
	DefaultListen = "127.0.0.1:3000"

	// DefaultLogLevel keeps command output free of log lines.
	DefaultLogLevel = "warn"
)

// Environment variables that override the config file.
const (
	EnvAPIURL   = "TODO_API_URL"
	EnvLogLevel = "TODO_LOG_LEVEL"
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string `toml:"-"`

	// APIURL is the backend base URL.
	APIURL string `toml:"api_url"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `toml:"log_level"`

	// Listen is the address used by `todo serve`.
	Listen string `toml:"listen"`

	// Debug enables debug logging.
	Debug bool `toml:"-"`

	// Quiet suppresses informational output.
	Quiet bool `toml:"-"`

	// JSONLog switches log output to JSON lines.
	JSONLog bool `toml:"-"`
}

// New creates a Config for the default or specified config directory and
// layers defaults, config.toml and environment variables, in that order.
// If configDir is empty, uses XDG_CONFIG_HOME/todo or $HOME/.config/todo.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	cfg := &Config{
		Dir:      dir,
		APIURL:   DefaultAPIURL,
		LogLevel: DefaultLogLevel,
		Listen:   DefaultListen,
	}
	if err := cfg.loadFile(); err != nil {
		return nil, err
	}
	cfg.loadEnv()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
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

// loadFile decodes config.toml over the defaults. A missing file is fine.
func (c *Config) loadFile() error {
	_, err := toml.DecodeFile(c.FilePath(), c)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("invalid %s: %w", ConfigFile, err)
	}
	return nil
}

func (c *Config) loadEnv() {
	if v := strings.TrimSpace(os.Getenv(EnvAPIURL)); v != "" {
		c.APIURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	}
}

// SetAPIURL overrides the backend URL (from the --api-url flag).
func (c *Config) SetAPIURL(raw string) error {
	prev := c.APIURL
	c.APIURL = raw
	if err := c.Validate(); err != nil {
		c.APIURL = prev
		return err
	}
	return nil
}

// Validate checks the loaded settings.
func (c *Config) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("invalid api_url: %q", c.APIURL)
	}
	c.APIURL = strings.TrimRight(c.APIURL, "/")

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level: %q", c.LogLevel)
	}
	return nil
}

// EffectiveLogLevel returns debug when --debug was passed, else LogLevel.
func (c *Config) EffectiveLogLevel() string {
	if c.Debug {
		return "debug"
	}
	return c.LogLevel
}

// FilePath returns the path to config.toml.
func (c *Config) FilePath() string {
	return filepath.Join(c.Dir, ConfigFile)
}

// CredentialsPath returns the path to the credential key/value store.
func (c *Config) CredentialsPath() string {
	return filepath.Join(c.Dir, CredentialsFile)
}

// CookiesPath returns the path to the cookie file.
func (c *Config) CookiesPath() string {
	return filepath.Join(c.Dir, CookiesFile)
}

// OAuthClientPath returns the path to the Google OAuth client credentials file.
func (c *Config) OAuthClientPath() string {
	return filepath.Join(c.Dir, OAuthClientFile)
}

// GoogleTokenPath returns the path to the stored Google OAuth token file.
func (c *Config) GoogleTokenPath() string {
	return filepath.Join(c.Dir, GoogleTokenFile)
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

// HasGoogleToken checks if the Google token file exists.
func (c *Config) HasGoogleToken() bool {
	_, err := os.Stat(c.GoogleTokenPath())
	return err == nil
}
