package drydeck

import "github.com/drydeck/drydeck/internal/runtimeconfig"

var (
	ErrStorageDriverUnknown      = runtimeconfig.ErrStorageDriverUnknown
	ErrStorageDSNRequired        = runtimeconfig.ErrStorageDSNRequired
	ErrCacheTTLInvalid           = runtimeconfig.ErrCacheTTLInvalid
	ErrHTTPAddrRequired          = runtimeconfig.ErrHTTPAddrRequired
	ErrLoggingProviderUnknown    = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid       = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid      = runtimeconfig.ErrLoggingFormatInvalid
	ErrNormalizerRequiresPostgis = runtimeconfig.ErrNormalizerRequiresPostgis
)

type (
	Config        = runtimeconfig.Config
	StorageConfig = runtimeconfig.StorageConfig
	CacheConfig   = runtimeconfig.CacheConfig
	HTTPConfig    = runtimeconfig.HTTPConfig
	LoggingConfig = runtimeconfig.LoggingConfig
	Features      = runtimeconfig.Features
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}

// LoadConfig reads a YAML file (optional when path is empty), applies
// DRYDECK_* environment overrides and validates the result.
func LoadConfig(path string) (Config, error) {
	return runtimeconfig.Load(path)
}
