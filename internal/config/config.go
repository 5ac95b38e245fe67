// Package config loads the client configuration from an optional config.yaml
// and CLOUDSHARE_* environment variables using Viper.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	// EnvPrefix prefixes every environment override (e.g. CLOUDSHARE_BASE_URL).
	EnvPrefix = "CLOUDSHARE"

	SessionBackendFile   = "file"
	SessionBackendSQLite = "sqlite"
	SessionBackendMemory = "memory"
)

// Config holds the client configuration.
type Config struct {
	// BaseURL is the backend origin (e.g. http://localhost:8080). Files,
	// credits and transactions live directly under it.
	BaseURL string `mapstructure:"BASE_URL"`
	// APIPrefix is joined to BaseURL for auth, payment and profile calls (default /api).
	APIPrefix string `mapstructure:"API_PREFIX"`
	// WebURL is the origin used to build public share links; defaults to BaseURL.
	WebURL string `mapstructure:"WEB_URL"`
	// ConfigDir holds config.yaml, the session jar and the log file.
	ConfigDir string `mapstructure:"CONFIG_DIR"`
	// SessionBackend selects the durable token store: file, sqlite or memory.
	SessionBackend string `mapstructure:"SESSION_BACKEND"`
	// RequestTimeout bounds ordinary requests (default 30s).
	RequestTimeout time.Duration `mapstructure:"REQUEST_TIMEOUT"`
	// UploadTimeout bounds file uploads (default 60s).
	UploadTimeout time.Duration `mapstructure:"UPLOAD_TIMEOUT"`
	// VerifyOnStart confirms a stored token against the backend before use.
	VerifyOnStart bool `mapstructure:"VERIFY_ON_START"`
	// RequestsPerSecond throttles outgoing requests; 0 disables throttling.
	RequestsPerSecond float64 `mapstructure:"REQUESTS_PER_SECOND"`
	// LogMaxSizeMB is the size at which cloudshare.log is rotated.
	LogMaxSizeMB int `mapstructure:"LOG_MAX_SIZE_MB"`
	// LogMaxBackups is the number of rotated log files kept.
	LogMaxBackups int `mapstructure:"LOG_MAX_BACKUPS"`
}

// Options selects where configuration is read from. Empty fields fall back
// to the environment and then to defaults.
type Options struct {
	// ConfigFile is an explicit config file; it must exist when set.
	ConfigFile string
	// ConfigDir overrides CLOUDSHARE_CONFIG_DIR.
	ConfigDir string
}

// Load builds and validates Config. Environment variables override the
// config file, which overrides defaults.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	dir := opts.ConfigDir
	if dir == "" {
		dir = os.Getenv(EnvPrefix + "_CONFIG_DIR")
	}
	if dir == "" {
		var err error
		if dir, err = DefaultConfigDir(); err != nil {
			return nil, err
		}
	}

	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("API_PREFIX", "/api")
	v.SetDefault("WEB_URL", "")
	v.SetDefault("CONFIG_DIR", dir)
	v.SetDefault("SESSION_BACKEND", SessionBackendFile)
	v.SetDefault("REQUEST_TIMEOUT", "30s")
	v.SetDefault("UPLOAD_TIMEOUT", "60s")
	v.SetDefault("VERIFY_ON_START", false)
	v.SetDefault("REQUESTS_PER_SECOND", 0)
	v.SetDefault("LOG_MAX_SIZE_MB", 10)
	v.SetDefault("LOG_MAX_BACKUPS", 3)

	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if opts.ConfigDir != "" {
		cfg.ConfigDir = opts.ConfigDir
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// DefaultConfigDir returns the per-user config directory for the client.
func DefaultConfigDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("config: resolve user config dir: %w", err)
	}
	return filepath.Join(base, "cloudshare"), nil
}

func (c *Config) normalize() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	parsed, err := url.Parse(c.BaseURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return fmt.Errorf("config: BASE_URL must be an absolute http(s) URL, got %q", c.BaseURL)
	}

	c.APIPrefix = strings.TrimRight(strings.TrimSpace(c.APIPrefix), "/")
	if c.APIPrefix != "" && !strings.HasPrefix(c.APIPrefix, "/") {
		c.APIPrefix = "/" + c.APIPrefix
	}

	c.WebURL = strings.TrimRight(strings.TrimSpace(c.WebURL), "/")
	if c.WebURL == "" {
		c.WebURL = c.BaseURL
	}

	if strings.TrimSpace(c.ConfigDir) == "" {
		return errors.New("config: CONFIG_DIR must be set")
	}

	c.SessionBackend = strings.ToLower(strings.TrimSpace(c.SessionBackend))
	switch c.SessionBackend {
	case SessionBackendFile, SessionBackendSQLite, SessionBackendMemory:
	default:
		return fmt.Errorf("config: SESSION_BACKEND must be one of file, sqlite, memory, got %q", c.SessionBackend)
	}

	if c.RequestTimeout <= 0 {
		return errors.New("config: REQUEST_TIMEOUT must be positive")
	}
	if c.UploadTimeout <= 0 {
		return errors.New("config: UPLOAD_TIMEOUT must be positive")
	}
	if c.RequestsPerSecond < 0 {
		return errors.New("config: REQUESTS_PER_SECOND must not be negative")
	}
	return nil
}

// APIBaseURL is the base for auth, payment and profile endpoints.
func (c *Config) APIBaseURL() string {
	return c.BaseURL + c.APIPrefix
}

// DatabasePath is where the sqlite session backend keeps its database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.ConfigDir, "cloudshare.db")
}

// LogPath is the rotating diagnostic log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.ConfigDir, "cloudshare.log")
}
