package runtimeconfig

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

var (
	ErrAPIBaseURLRequired       = errors.New("admin config: api base url is required")
	ErrAPIBaseURLInvalid        = errors.New("admin config: api base url must be an absolute http(s) url")
	ErrAPITimeoutInvalid        = errors.New("admin config: api timeout must be zero or positive")
	ErrCacheSizeInvalid         = errors.New("admin config: cache size must be positive when cache is enabled")
	ErrUploadMaxSizeInvalid     = errors.New("admin config: upload max size must be positive")
	ErrPageLimitInvalid         = errors.New("admin config: default page limit must be between 1 and max page limit")
	ErrSessionSecretRequired    = errors.New("admin config: session secret is required when the dashboard is enabled")
	ErrSubmissionWorkersInvalid = errors.New("admin config: submission workers must be zero or positive")
	ErrLoggingProviderRequired  = errors.New("admin config: logging provider is required when logging feature is enabled")
	ErrLoggingProviderUnknown   = errors.New("admin config: logging provider is invalid")
	ErrLoggingLevelInvalid      = errors.New("admin config: logging level is invalid")
	ErrLoggingFormatInvalid     = errors.New("admin config: logging format is invalid")
)

// Config aggregates the settings for the admin runtime. Fields use plain
// types so they decode from YAML, TOML, JSON and environment variables.
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Uploads    UploadsConfig    `mapstructure:"uploads"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Markdown   MarkdownConfig   `mapstructure:"markdown"`
	Submission SubmissionConfig `mapstructure:"submission"`
	Logging    LoggingConfig    `mapstructure:"logging"`
	Features   Features         `mapstructure:"features"`
}

// APIConfig points the client at the REST backend.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	UserAgent string        `mapstructure:"user_agent"`
}

// CacheConfig controls the tag indexed response cache.
type CacheConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	DefaultTTL time.Duration `mapstructure:"default_ttl"`
	Size       int           `mapstructure:"size"`
}

// UploadsConfig bounds files accepted by upload slots.
type UploadsConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

// DashboardConfig configures the server rendered dashboard.
type DashboardConfig struct {
	Addr          string `mapstructure:"addr"`
	BasePath      string `mapstructure:"base_path"`
	SessionSecret string `mapstructure:"session_secret"`
	SessionName   string `mapstructure:"session_name"`
	PageLimit     int    `mapstructure:"page_limit"`
	MaxPageLimit  int    `mapstructure:"max_page_limit"`
}

// MarkdownConfig mirrors interfaces.ParseOptions for detail rendering.
type MarkdownConfig struct {
	Extensions []string `mapstructure:"extensions"`
	Sanitize   bool     `mapstructure:"sanitize"`
	HardWraps  bool     `mapstructure:"hard_wraps"`
}

// SubmissionConfig tunes the orchestrator.
type SubmissionConfig struct {
	Workers         int           `mapstructure:"workers"`
	Timeout         time.Duration `mapstructure:"timeout"`
	FallbackMessage string        `mapstructure:"fallback_message"`
}

// LoggingConfig captures provider-specific options for runtime logging.
type LoggingConfig struct {
	Provider  string   `mapstructure:"provider"`
	Level     string   `mapstructure:"level"`
	Format    string   `mapstructure:"format"`
	AddSource bool     `mapstructure:"add_source"`
	Focus     []string `mapstructure:"focus"`
}

// Features toggles optional behaviour.
type Features struct {
	Dashboard bool `mapstructure:"dashboard"`
	Logger    bool `mapstructure:"logger"`
	Markdown  bool `mapstructure:"markdown"`
}

// DefaultConfig returns the defaults used when no file or environment value
// overrides them.
func DefaultConfig() Config {
	return Config{
		API: APIConfig{
			BaseURL:   "http://localhost:5000/api/v1",
			Timeout:   15 * time.Second,
			UserAgent: "go-cms-admin",
		},
		Cache: CacheConfig{
			Enabled:    true,
			DefaultTTL: time.Minute,
			Size:       512,
		},
		Uploads: UploadsConfig{
			MaxSize:      5 << 20,
			AllowedTypes: []string{"image/jpeg", "image/png", "image/webp", "image/gif"},
		},
		Dashboard: DashboardConfig{
			Addr:         ":8080",
			BasePath:     "/dashboard",
			SessionName:  "cms_admin",
			PageLimit:    10,
			MaxPageLimit: 100,
		},
		Markdown: MarkdownConfig{
			Sanitize: true,
		},
		Submission: SubmissionConfig{
			Workers:         4,
			Timeout:         30 * time.Second,
			FallbackMessage: "Something went wrong",
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
		Features: Features{
			Markdown: true,
		},
	}
}

// Validate performs high-level consistency checks.
func (cfg Config) Validate() error {
	base := strings.TrimSpace(cfg.API.BaseURL)
	if base == "" {
		return ErrAPIBaseURLRequired
	}
	parsed, err := url.Parse(base)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("%w: %s", ErrAPIBaseURLInvalid, base)
	}
	if cfg.API.Timeout < 0 {
		return ErrAPITimeoutInvalid
	}
	if cfg.Cache.Enabled && cfg.Cache.Size <= 0 {
		return ErrCacheSizeInvalid
	}
	if cfg.Uploads.MaxSize <= 0 {
		return ErrUploadMaxSizeInvalid
	}
	if cfg.Submission.Workers < 0 {
		return ErrSubmissionWorkersInvalid
	}
	if cfg.Features.Dashboard {
		if strings.TrimSpace(cfg.Dashboard.SessionSecret) == "" {
			return ErrSessionSecretRequired
		}
		if cfg.Dashboard.PageLimit < 1 || cfg.Dashboard.PageLimit > cfg.Dashboard.MaxPageLimit {
			return fmt.Errorf("%w: %d", ErrPageLimitInvalid, cfg.Dashboard.PageLimit)
		}
	}
	if cfg.Features.Logger {
		provider := normalizeProvider(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if !isSupportedProvider(provider) {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := strings.TrimSpace(cfg.Logging.Level); level != "" && !isSupportedLevel(level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := strings.TrimSpace(cfg.Logging.Format); format != "" && !isSupportedFormat(format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

func normalizeProvider(provider string) string {
	return strings.ToLower(strings.TrimSpace(provider))
}

func isSupportedProvider(provider string) bool {
	switch provider {
	case "console", "gologger":
		return true
	default:
		return false
	}
}

func isSupportedLevel(level string) bool {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace", "debug", "info", "warn", "warning", "error", "fatal":
		return true
	default:
		return false
	}
}

func isSupportedFormat(format string) bool {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json", "console", "pretty":
		return true
	default:
		return false
	}
}
