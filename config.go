package cmsadmin

import "github.com/goliatone/go-cms-admin/internal/runtimeconfig"

var (
	ErrAPIBaseURLRequired       = runtimeconfig.ErrAPIBaseURLRequired
	ErrAPIBaseURLInvalid        = runtimeconfig.ErrAPIBaseURLInvalid
	ErrAPITimeoutInvalid        = runtimeconfig.ErrAPITimeoutInvalid
	ErrCacheSizeInvalid         = runtimeconfig.ErrCacheSizeInvalid
	ErrUploadMaxSizeInvalid     = runtimeconfig.ErrUploadMaxSizeInvalid
	ErrPageLimitInvalid         = runtimeconfig.ErrPageLimitInvalid
	ErrSessionSecretRequired    = runtimeconfig.ErrSessionSecretRequired
	ErrSubmissionWorkersInvalid = runtimeconfig.ErrSubmissionWorkersInvalid
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
)

type (
	Config           = runtimeconfig.Config
	APIConfig        = runtimeconfig.APIConfig
	CacheConfig      = runtimeconfig.CacheConfig
	UploadsConfig    = runtimeconfig.UploadsConfig
	DashboardConfig  = runtimeconfig.DashboardConfig
	MarkdownConfig   = runtimeconfig.MarkdownConfig
	SubmissionConfig = runtimeconfig.SubmissionConfig
	LoggingConfig    = runtimeconfig.LoggingConfig
	Features         = runtimeconfig.Features
	LoadOptions      = runtimeconfig.LoadOptions
)

// DefaultConfig returns the runtime defaults.
func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig resolves configuration from files, .env files and CMSADMIN_*
// environment variables on top of the defaults.
func LoadConfig(opts LoadOptions) (Config, error) {
	return runtimeconfig.Load(opts)
}
