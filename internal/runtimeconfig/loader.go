package runtimeconfig

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. CMSADMIN_API_BASE_URL.
const EnvPrefix = "CMSADMIN"

// LoadOptions controls where Load looks for configuration.
type LoadOptions struct {
	// File is an explicit config file; when empty Load searches Paths for
	// a file named Name.
	File     string
	Name     string
	Paths    []string
	EnvFiles []string
}

// Load resolves configuration from defaults, an optional config file, optional
// .env files and CMSADMIN_* environment variables, in increasing precedence.
func Load(opts LoadOptions) (Config, error) {
	if err := loadEnvFiles(opts.EnvFiles); err != nil {
		return Config{}, err
	}

	v := NewViper(opts)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || opts.File != "" {
			return Config{}, fmt.Errorf("admin config: read config: %w", err)
		}
	}

	return Decode(v)
}

// NewViper returns a viper instance primed with defaults and env bindings.
func NewViper(opts LoadOptions) *viper.Viper {
	v := viper.New()
	SetDefaults(v, DefaultConfig())

	if opts.File != "" {
		v.SetConfigFile(opts.File)
	} else {
		name := opts.Name
		if name == "" {
			name = "cmsadmin"
		}
		v.SetConfigName(name)
		paths := opts.Paths
		if len(paths) == 0 {
			paths = []string{".", "./config"}
		}
		for _, path := range paths {
			v.AddConfigPath(path)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Decode unmarshals the viper state into a Config.
func Decode(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("admin config: decode: %w", err)
	}
	return cfg, nil
}

// SetDefaults registers every key of cfg so AutomaticEnv can resolve it.
func SetDefaults(v *viper.Viper, cfg Config) {
	v.SetDefault("api.base_url", cfg.API.BaseURL)
	v.SetDefault("api.token", cfg.API.Token)
	v.SetDefault("api.timeout", cfg.API.Timeout)
	v.SetDefault("api.user_agent", cfg.API.UserAgent)

	v.SetDefault("cache.enabled", cfg.Cache.Enabled)
	v.SetDefault("cache.default_ttl", cfg.Cache.DefaultTTL)
	v.SetDefault("cache.size", cfg.Cache.Size)

	v.SetDefault("uploads.max_size", cfg.Uploads.MaxSize)
	v.SetDefault("uploads.allowed_types", cfg.Uploads.AllowedTypes)

	v.SetDefault("dashboard.addr", cfg.Dashboard.Addr)
	v.SetDefault("dashboard.base_path", cfg.Dashboard.BasePath)
	v.SetDefault("dashboard.session_secret", cfg.Dashboard.SessionSecret)
	v.SetDefault("dashboard.session_name", cfg.Dashboard.SessionName)
	v.SetDefault("dashboard.page_limit", cfg.Dashboard.PageLimit)
	v.SetDefault("dashboard.max_page_limit", cfg.Dashboard.MaxPageLimit)

	v.SetDefault("markdown.extensions", cfg.Markdown.Extensions)
	v.SetDefault("markdown.sanitize", cfg.Markdown.Sanitize)
	v.SetDefault("markdown.hard_wraps", cfg.Markdown.HardWraps)

	v.SetDefault("submission.workers", cfg.Submission.Workers)
	v.SetDefault("submission.timeout", cfg.Submission.Timeout)
	v.SetDefault("submission.fallback_message", cfg.Submission.FallbackMessage)

	v.SetDefault("logging.provider", cfg.Logging.Provider)
	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
	v.SetDefault("logging.add_source", cfg.Logging.AddSource)
	v.SetDefault("logging.focus", cfg.Logging.Focus)

	v.SetDefault("features.dashboard", cfg.Features.Dashboard)
	v.SetDefault("features.logger", cfg.Features.Logger)
	v.SetDefault("features.markdown", cfg.Features.Markdown)
}

func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("admin config: load %s: %w", file, err)
		}
	}
	return nil
}
