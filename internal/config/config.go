package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete prepforge configuration
type Config struct {
	Backend  BackendConfig  `mapstructure:"backend"`
	Realtime RealtimeConfig `mapstructure:"realtime"`
	Session  SessionConfig  `mapstructure:"session"`
	Quota    QuotaConfig    `mapstructure:"quota"`
	Generate GenerateConfig `mapstructure:"generate"`
	Auth     AuthConfig     `mapstructure:"auth"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Paths    PathsConfig    `mapstructure:"paths"`
}

// BackendConfig addresses the generation backend
type BackendConfig struct {
	// BaseURL is the HTTP base URL of the generation backend
	BaseURL string `mapstructure:"base_url"`
	// ProbeTimeoutMs bounds the one-shot availability probe (default: 3000)
	ProbeTimeoutMs int `mapstructure:"probe_timeout_ms"`
}

// RealtimeConfig controls the websocket channel
type RealtimeConfig struct {
	// Enabled controls whether the realtime channel is attempted at all.
	// When false every operation takes the fallback path.
	Enabled bool `mapstructure:"enabled"`
	// Reconnect re-dials after an unexpected close. Disabled by default:
	// a dropped connection is terminal, avoiding retry storms against an
	// unreachable backend.
	Reconnect bool `mapstructure:"reconnect"`
	// HandshakeTimeoutMs bounds the websocket dial (default: 5000)
	HandshakeTimeoutMs int `mapstructure:"handshake_timeout_ms"`
}

// SessionConfig controls session store behavior
type SessionConfig struct {
	// AutosaveDebounceMs is the quiescence window after the last edit before
	// a session is persisted remotely (default: 800)
	AutosaveDebounceMs int `mapstructure:"autosave_debounce_ms"`
}

// QuotaConfig holds the anonymous usage caps. Immutable at runtime; the
// authenticated credit balance comes from the backend instead.
type QuotaConfig struct {
	// MaxQuestions is the anonymous cap on generated questions (default: 10)
	MaxQuestions int `mapstructure:"max_questions"`
	// MaxAnswers is the anonymous cap on generated answers (default: 5)
	MaxAnswers int `mapstructure:"max_answers"`
}

// GenerateConfig holds generation request defaults
type GenerateConfig struct {
	// DefaultCount is the number of questions requested when unspecified (default: 10)
	DefaultCount int `mapstructure:"default_count"`
	// IncludeAnswers pre-fills generated questions with sample answers
	IncludeAnswers bool `mapstructure:"include_answers"`
	// WaitTimeoutSec bounds how long the CLI waits for a realtime result
	// before reporting "still generating" (default: 120). This is the
	// application-level bound; the transport itself never times out.
	WaitTimeoutSec int `mapstructure:"wait_timeout_sec"`
}

// AuthConfig controls token handling
type AuthConfig struct {
	// Remember persists the token to disk after login. When false the token
	// lives only for the process lifetime.
	Remember bool `mapstructure:"remember"`
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether debug logging is enabled (default: true)
	Enabled bool `mapstructure:"enabled"`
	// Level is the log level: "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// MaxSizeMB is the maximum log file size in megabytes before rotation (default: 10)
	MaxSizeMB int `mapstructure:"max_size_mb"`
	// MaxBackups is the number of backup log files to keep (default: 3)
	MaxBackups int `mapstructure:"max_backups"`
}

// PathsConfig controls where prepforge stores local state
type PathsConfig struct {
	// DataDir holds the usage ledger, the remembered token, and logs.
	// If empty, defaults to the XDG data directory. Supports ~ expansion.
	DataDir string `mapstructure:"data_dir"`
}

// Default returns a Config with sensible default values
func Default() *Config {
	return &Config{
		Backend: BackendConfig{
			BaseURL:        "http://localhost:8000",
			ProbeTimeoutMs: 3000,
		},
		Realtime: RealtimeConfig{
			Enabled:            true,
			Reconnect:          false, // terminal-on-close by default
			HandshakeTimeoutMs: 5000,
		},
		Session: SessionConfig{
			AutosaveDebounceMs: 800,
		},
		Quota: QuotaConfig{
			MaxQuestions: 10,
			MaxAnswers:   5,
		},
		Generate: GenerateConfig{
			DefaultCount:   10,
			IncludeAnswers: false,
			WaitTimeoutSec: 120,
		},
		Auth: AuthConfig{
			Remember: false,
		},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Paths: PathsConfig{
			DataDir: "",
		},
	}
}

// ProbeTimeout returns the probe timeout as a time.Duration
func (c *BackendConfig) ProbeTimeout() time.Duration {
	return time.Duration(c.ProbeTimeoutMs) * time.Millisecond
}

// HandshakeTimeout returns the websocket handshake timeout as a time.Duration
func (c *RealtimeConfig) HandshakeTimeout() time.Duration {
	return time.Duration(c.HandshakeTimeoutMs) * time.Millisecond
}

// AutosaveDebounce returns the autosave quiescence window as a time.Duration
func (c *SessionConfig) AutosaveDebounce() time.Duration {
	return time.Duration(c.AutosaveDebounceMs) * time.Millisecond
}

// WaitTimeout returns the generation wait bound as a time.Duration
func (c *GenerateConfig) WaitTimeout() time.Duration {
	return time.Duration(c.WaitTimeoutSec) * time.Second
}

// WebSocketURL derives the realtime endpoint from the backend base URL.
func (c *BackendConfig) WebSocketURL() string {
	url := c.BaseURL
	switch {
	case strings.HasPrefix(url, "https://"):
		url = "wss://" + strings.TrimPrefix(url, "https://")
	case strings.HasPrefix(url, "http://"):
		url = "ws://" + strings.TrimPrefix(url, "http://")
	}
	return strings.TrimSuffix(url, "/") + "/api/v1/ws"
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	viper.SetDefault("backend.base_url", defaults.Backend.BaseURL)
	viper.SetDefault("backend.probe_timeout_ms", defaults.Backend.ProbeTimeoutMs)

	viper.SetDefault("realtime.enabled", defaults.Realtime.Enabled)
	viper.SetDefault("realtime.reconnect", defaults.Realtime.Reconnect)
	viper.SetDefault("realtime.handshake_timeout_ms", defaults.Realtime.HandshakeTimeoutMs)

	viper.SetDefault("session.autosave_debounce_ms", defaults.Session.AutosaveDebounceMs)

	viper.SetDefault("quota.max_questions", defaults.Quota.MaxQuestions)
	viper.SetDefault("quota.max_answers", defaults.Quota.MaxAnswers)

	viper.SetDefault("generate.default_count", defaults.Generate.DefaultCount)
	viper.SetDefault("generate.include_answers", defaults.Generate.IncludeAnswers)
	viper.SetDefault("generate.wait_timeout_sec", defaults.Generate.WaitTimeoutSec)

	viper.SetDefault("auth.remember", defaults.Auth.Remember)

	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)

	viper.SetDefault("paths.data_dir", defaults.Paths.DataDir)
}

// Load reads the configuration from viper into a Config struct and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Get returns the current configuration (convenience function)
func Get() *Config {
	cfg, err := Load()
	if err != nil {
		// Fall back to defaults if unmarshaling fails
		return Default()
	}
	return cfg
}

// ResolveDataDir returns the resolved data directory path.
// If DataDir is empty, it defaults to the XDG data directory.
// If DataDir starts with ~, it expands to the user's home directory.
func (p *PathsConfig) ResolveDataDir() string {
	path := p.DataDir
	if path == "" {
		if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
			return filepath.Join(xdg, "prepforge")
		}
		home, err := os.UserHomeDir()
		if err != nil {
			return ".prepforge"
		}
		return filepath.Join(home, ".local", "share", "prepforge")
	}

	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		home, err := os.UserHomeDir()
		if err == nil {
			path = home
		}
	}
	return path
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "prepforge")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".prepforge"
	}
	return filepath.Join(home, ".config", "prepforge")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
