package runtimeconfig

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"
)

var (
	ErrDefaultLocaleRequired    = errors.New("capsulo config: default locale is required")
	ErrDefaultLocaleNotListed   = errors.New("capsulo config: default locale must be listed in locales")
	ErrDebounceDelayInvalid     = errors.New("capsulo config: editor debounce delay must be positive")
	ErrPersistRetriesInvalid    = errors.New("capsulo config: editor persist retries must be zero or positive")
	ErrDraftsProviderUnknown    = errors.New("capsulo config: drafts provider is invalid")
	ErrDraftsDialectUnknown     = errors.New("capsulo config: drafts bun dialect is invalid")
	ErrDraftsDSNRequired        = errors.New("capsulo config: drafts bun dsn is required for postgres")
	ErrDraftsRedisURLRequired   = errors.New("capsulo config: drafts redis url is required when provider is redis")
	ErrSchemasDirRequired       = errors.New("capsulo config: schemas directory is required when watching")
	ErrGitRepoDirRequired       = errors.New("capsulo config: git repository directory is required when git is enabled")
	ErrLoggingProviderRequired  = errors.New("capsulo config: logging provider is required when logging feature is enabled")
	ErrLoggingProviderUnknown   = errors.New("capsulo config: logging provider is invalid")
	ErrLoggingLevelInvalid      = errors.New("capsulo config: logging level is invalid")
	ErrLoggingFormatInvalid     = errors.New("capsulo config: logging format is invalid")
	ErrCacheRequiresBunProvider = errors.New("capsulo config: draft cache is only supported by the bun provider")
)

const (
	DraftsProviderMemory = "memory"
	DraftsProviderBun    = "bun"
	DraftsProviderRedis  = "redis"

	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Config aggregates the draft engine settings.
type Config struct {
	DefaultLocale string
	Locales       []string
	Editor        EditorConfig
	Drafts        DraftsConfig
	Cache         CacheConfig
	Schemas       SchemasConfig
	Manifests     ManifestsConfig
	Git           GitConfig
	Features      Features
	Logging       LoggingConfig
}

// EditorConfig tunes editing sessions.
type EditorConfig struct {
	DebounceDelay  time.Duration
	PersistRetries int
}

// DraftsConfig selects the draft store adapter.
type DraftsConfig struct {
	Provider string
	Bun      BunConfig
	Redis    RedisConfig
}

// BunConfig configures the SQL-backed draft store.
type BunConfig struct {
	Dialect string
	DSN     string
}

// RedisConfig configures the Redis-backed draft store.
type RedisConfig struct {
	URL    string
	Prefix string
	TTL    time.Duration
}

// CacheConfig toggles the read cache in front of the bun draft store.
type CacheConfig struct {
	Enabled    bool
	DefaultTTL time.Duration
}

// SchemasConfig points at component schema definitions on disk. An empty Dir
// means schemas are registered programmatically.
type SchemasConfig struct {
	Dir   string
	Watch bool
}

// ManifestsConfig points at page sources declaring component manifests.
type ManifestsConfig struct {
	Dir string
}

// GitConfig configures the git-backed baseline and publisher.
type GitConfig struct {
	Enabled     bool
	RepoDir     string
	Branch      string
	AuthorName  string
	AuthorEmail string
}

// Features toggles optional behaviour.
type Features struct {
	Logger bool
	Audit  bool
}

// LoggingConfig captures provider specific logging options.
type LoggingConfig struct {
	Provider  string
	Level     string
	Format    string
	AddSource bool
	Focus     []string
}

// DefaultConfig returns defaults suitable for local development.
func DefaultConfig() Config {
	return Config{
		DefaultLocale: "en",
		Locales:       []string{"en"},
		Editor: EditorConfig{
			DebounceDelay:  500 * time.Millisecond,
			PersistRetries: 3,
		},
		Drafts: DraftsConfig{
			Provider: DraftsProviderMemory,
			Bun: BunConfig{
				Dialect: DialectSQLite,
				DSN:     "file::memory:?cache=shared",
			},
			Redis: RedisConfig{
				Prefix: "capsulo:draft:",
			},
		},
		Cache: CacheConfig{
			DefaultTTL: time.Minute,
		},
		Git: GitConfig{
			Branch:      "main",
			AuthorName:  "Capsulo",
			AuthorEmail: "capsulo@localhost",
		},
		Features: Features{
			Audit: true,
		},
		Logging: LoggingConfig{
			Provider: "console",
			Level:    "info",
		},
	}
}

// Validate performs consistency checks.
func (cfg Config) Validate() error {
	defaultLocale := strings.TrimSpace(cfg.DefaultLocale)
	if defaultLocale == "" {
		return ErrDefaultLocaleRequired
	}
	if len(cfg.Locales) > 0 && !slices.Contains(cfg.Locales, defaultLocale) {
		return fmt.Errorf("%w: %s", ErrDefaultLocaleNotListed, defaultLocale)
	}
	if cfg.Editor.DebounceDelay <= 0 {
		return ErrDebounceDelayInvalid
	}
	if cfg.Editor.PersistRetries < 0 {
		return ErrPersistRetriesInvalid
	}

	switch provider := normalize(cfg.Drafts.Provider); provider {
	case "", DraftsProviderMemory:
	case DraftsProviderBun:
		switch dialect := normalize(cfg.Drafts.Bun.Dialect); dialect {
		case "", DialectSQLite:
		case DialectPostgres:
			if strings.TrimSpace(cfg.Drafts.Bun.DSN) == "" {
				return ErrDraftsDSNRequired
			}
		default:
			return fmt.Errorf("%w: %s", ErrDraftsDialectUnknown, dialect)
		}
	case DraftsProviderRedis:
		if strings.TrimSpace(cfg.Drafts.Redis.URL) == "" {
			return ErrDraftsRedisURLRequired
		}
	default:
		return fmt.Errorf("%w: %s", ErrDraftsProviderUnknown, provider)
	}
	if cfg.Cache.Enabled && normalize(cfg.Drafts.Provider) != DraftsProviderBun {
		return ErrCacheRequiresBunProvider
	}

	if cfg.Schemas.Watch && strings.TrimSpace(cfg.Schemas.Dir) == "" {
		return ErrSchemasDirRequired
	}
	if cfg.Git.Enabled && strings.TrimSpace(cfg.Git.RepoDir) == "" {
		return ErrGitRepoDirRequired
	}

	if cfg.Features.Logger {
		provider := normalize(cfg.Logging.Provider)
		if provider == "" {
			return ErrLoggingProviderRequired
		}
		if provider != "console" && provider != "gologger" {
			return fmt.Errorf("%w: %s", ErrLoggingProviderUnknown, provider)
		}
		if level := normalize(cfg.Logging.Level); level != "" && !slices.Contains(supportedLevels, level) {
			return fmt.Errorf("%w: %s", ErrLoggingLevelInvalid, level)
		}
		if provider == "gologger" {
			if format := normalize(cfg.Logging.Format); format != "" && !slices.Contains(supportedFormats, format) {
				return fmt.Errorf("%w: %s", ErrLoggingFormatInvalid, format)
			}
		}
	}
	return nil
}

// LocaleList returns the configured locales with the default locale first.
func (cfg Config) LocaleList() []string {
	out := []string{cfg.DefaultLocale}
	for _, locale := range cfg.Locales {
		if locale != "" && !slices.Contains(out, locale) {
			out = append(out, locale)
		}
	}
	return out
}

var (
	supportedLevels  = []string{"trace", "debug", "info", "warn", "warning", "error", "fatal"}
	supportedFormats = []string{"json", "console", "pretty"}
)

func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
