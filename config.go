package capsulo

import "github.com/goliatone/go-capsulo/internal/runtimeconfig"

var (
	ErrDefaultLocaleRequired    = runtimeconfig.ErrDefaultLocaleRequired
	ErrDefaultLocaleNotListed   = runtimeconfig.ErrDefaultLocaleNotListed
	ErrDebounceDelayInvalid     = runtimeconfig.ErrDebounceDelayInvalid
	ErrPersistRetriesInvalid    = runtimeconfig.ErrPersistRetriesInvalid
	ErrDraftsProviderUnknown    = runtimeconfig.ErrDraftsProviderUnknown
	ErrDraftsDialectUnknown     = runtimeconfig.ErrDraftsDialectUnknown
	ErrDraftsDSNRequired        = runtimeconfig.ErrDraftsDSNRequired
	ErrDraftsRedisURLRequired   = runtimeconfig.ErrDraftsRedisURLRequired
	ErrSchemasDirRequired       = runtimeconfig.ErrSchemasDirRequired
	ErrGitRepoDirRequired       = runtimeconfig.ErrGitRepoDirRequired
	ErrLoggingProviderRequired  = runtimeconfig.ErrLoggingProviderRequired
	ErrLoggingProviderUnknown   = runtimeconfig.ErrLoggingProviderUnknown
	ErrLoggingLevelInvalid      = runtimeconfig.ErrLoggingLevelInvalid
	ErrLoggingFormatInvalid     = runtimeconfig.ErrLoggingFormatInvalid
	ErrCacheRequiresBunProvider = runtimeconfig.ErrCacheRequiresBunProvider
)

const (
	DraftsProviderMemory = runtimeconfig.DraftsProviderMemory
	DraftsProviderBun    = runtimeconfig.DraftsProviderBun
	DraftsProviderRedis  = runtimeconfig.DraftsProviderRedis
)

type (
	Config          = runtimeconfig.Config
	EditorConfig    = runtimeconfig.EditorConfig
	DraftsConfig    = runtimeconfig.DraftsConfig
	BunConfig       = runtimeconfig.BunConfig
	RedisConfig     = runtimeconfig.RedisConfig
	CacheConfig     = runtimeconfig.CacheConfig
	SchemasConfig   = runtimeconfig.SchemasConfig
	ManifestsConfig = runtimeconfig.ManifestsConfig
	GitConfig       = runtimeconfig.GitConfig
	Features        = runtimeconfig.Features
	LoggingConfig   = runtimeconfig.LoggingConfig
)

func DefaultConfig() Config {
	return runtimeconfig.DefaultConfig()
}
