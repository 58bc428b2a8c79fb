// Package config handles the configuration directory, persisted file paths and API settings.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application directory name.
	AppName = "taskmgr"

	// SessionFile is the persisted session database filename.
	SessionFile = "session.db"

	// SettingsFile is the optional settings filename inside the config dir.
	SettingsFile = "config.yaml"

	// DefaultAPIURL is used when no API URL is configured.
	DefaultAPIURL = "http://localhost:3000/api"

	// DefaultDomainName is the value of the domain-identifying request header.
	DefaultDomainName = "taskmanager"

	// DefaultPageSize is the number of tasks per list page.
	DefaultPageSize = 10

	// DefaultTimeout bounds a single API call.
	DefaultTimeout = 30 * time.Second
)

// Config holds configuration paths and settings.
type Config struct {
	// Dir is the configuration directory path.
	Dir string

	// APIURL is the base URL of the remote task API.
	APIURL string

	// DomainName is sent in the domainName header on every request.
	DomainName string

	// PageSize is the fixed list page size.
	PageSize int

	// Timeout bounds each API call. Zero disables the deadline.
	Timeout time.Duration

	// LogFile, when set, receives a rotating copy of the logs.
	LogFile string

	// TraceFile, when set, receives a span per API call as JSON.
	TraceFile string

	// Debug enables debug logging.
	Debug bool

	// Quiet suppresses informational output.
	Quiet bool
}

// settings mirrors config.yaml.
type settings struct {
	APIURL     string `yaml:"api_url"`
	DomainName string `yaml:"domain_name"`
	PageSize   int    `yaml:"page_size"`
	Timeout    string `yaml:"timeout"`
	LogFile    string `yaml:"log_file"`
	TraceFile  string `yaml:"trace_file"`
}

// New creates a Config with defaults for the given or default config directory.
// If configDir is empty, uses XDG_CONFIG_HOME/taskmgr or $HOME/.config/taskmgr.
func New(configDir string) (*Config, error) {
	dir := configDir
	if dir == "" {
		dir = DefaultConfigDir()
	}
	return &Config{
		Dir:        dir,
		APIURL:     DefaultAPIURL,
		DomainName: DefaultDomainName,
		PageSize:   DefaultPageSize,
		Timeout:    DefaultTimeout,
	}, nil
}

// Load builds a Config and layers config.yaml, .env and environment variables on top of the defaults.
func Load(configDir string) (*Config, error) {
	cfg, err := New(configDir)
	if err != nil {
		return nil, err
	}

	// .env is optional; real environment variables win.
	_ = godotenv.Load(".env")

	if err := cfg.loadSettings(); err != nil {
		return nil, err
	}

	cfg.APIURL = getString("TASKMGR_API_URL", cfg.APIURL)
	cfg.DomainName = getString("TASKMGR_DOMAIN", cfg.DomainName)
	cfg.PageSize = getInt("TASKMGR_PAGE_SIZE", cfg.PageSize)
	cfg.Timeout = getDuration("TASKMGR_TIMEOUT", cfg.Timeout)
	cfg.LogFile = getString("TASKMGR_LOG_FILE", cfg.LogFile)
	cfg.TraceFile = getString("TASKMGR_TRACE_FILE", cfg.TraceFile)

	if cfg.PageSize < 1 {
		return nil, fmt.Errorf("invalid page size: %d", cfg.PageSize)
	}
	return cfg, nil
}

func (c *Config) loadSettings() error {
	data, err := os.ReadFile(c.SettingsPath())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", SettingsFile, err)
	}

	var s settings
	if err := yaml.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("invalid %s: %w", SettingsFile, err)
	}

	if s.APIURL != "" {
		c.APIURL = s.APIURL
	}
	if s.DomainName != "" {
		c.DomainName = s.DomainName
	}
	if s.PageSize != 0 {
		c.PageSize = s.PageSize
	}
	if s.Timeout != "" {
		d, err := time.ParseDuration(s.Timeout)
		if err != nil {
			return fmt.Errorf("invalid timeout in %s: %w", SettingsFile, err)
		}
		c.Timeout = d
	}
	if s.LogFile != "" {
		c.LogFile = s.LogFile
	}
	if s.TraceFile != "" {
		c.TraceFile = s.TraceFile
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

// SessionPath returns the path to the persisted session database.
func (c *Config) SessionPath() string {
	return filepath.Join(c.Dir, SessionFile)
}

// SettingsPath returns the path to the optional settings file.
func (c *Config) SettingsPath() string {
	return filepath.Join(c.Dir, SettingsFile)
}

// EnsureDir creates the config directory if it doesn't exist.
// Directory is created with mode 0700.
func (c *Config) EnsureDir() error {
	return os.MkdirAll(c.Dir, 0700)
}

func getString(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
		if seconds, err := strconv.Atoi(val); err == nil {
			return time.Duration(seconds) * time.Second
		}
	}
	return fallback
}
