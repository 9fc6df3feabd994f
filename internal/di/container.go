package di

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-capsulo/internal/audit"
	"github.com/goliatone/go-capsulo/internal/drafts"
	"github.com/goliatone/go-capsulo/internal/editor"
	"github.com/goliatone/go-capsulo/internal/gitstore"
	"github.com/goliatone/go-capsulo/internal/logging"
	"github.com/goliatone/go-capsulo/internal/logging/console"
	"github.com/goliatone/go-capsulo/internal/logging/gologger"
	"github.com/goliatone/go-capsulo/internal/manifest"
	"github.com/goliatone/go-capsulo/internal/runtimeconfig"
	"github.com/goliatone/go-capsulo/internal/schema"
	"github.com/goliatone/go-capsulo/internal/validation"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
	repocache "github.com/goliatone/go-repository-cache/cache"
	"github.com/uptrace/bun"
)

const auditLimit = 1000

// Container wires the draft engine collaborators from runtime configuration.
type Container struct {
	Config runtimeconfig.Config

	loggerProvider interfaces.LoggerProvider
	logger         interfaces.Logger

	registry *schema.MemoryRegistry
	schemas  []schema.Schema
	watcher  *schema.Watcher

	bunDB         *bun.DB
	ownsDB        bool
	cacheTTL      time.Duration
	cacheService  repocache.CacheService
	keySerializer repocache.KeySerializer
	redisStore    *drafts.RedisStore

	store     drafts.Store
	remote    editor.Remote
	git       *gitstore.Service
	manifests manifest.Provider
	audit     audit.Recorder
	factory   validation.Factory

	closeOnce sync.Once
}

// Option mutates the container before it is finalised.
type Option func(*Container)

// WithLoggerProvider overrides the provider derived from configuration.
func WithLoggerProvider(provider interfaces.LoggerProvider) Option {
	return func(c *Container) {
		c.loggerProvider = provider
	}
}

// WithSchemas registers schemas in addition to the configured directory.
func WithSchemas(schemas ...schema.Schema) Option {
	return func(c *Container) {
		c.schemas = append(c.schemas, schemas...)
	}
}

// WithDraftStore overrides the configured draft store.
func WithDraftStore(store drafts.Store) Option {
	return func(c *Container) {
		c.store = store
	}
}

// WithBunDB supplies the database used by the bun draft store.
func WithBunDB(db *bun.DB) Option {
	return func(c *Container) {
		c.bunDB = db
	}
}

// WithCache overrides the read cache in front of the bun draft store.
func WithCache(service repocache.CacheService, serializer repocache.KeySerializer) Option {
	return func(c *Container) {
		c.cacheService = service
		c.keySerializer = serializer
	}
}

// WithRemote overrides the baseline source and publisher.
func WithRemote(remote editor.Remote) Option {
	return func(c *Container) {
		c.remote = remote
	}
}

// WithManifestProvider overrides the configured manifest provider.
func WithManifestProvider(provider manifest.Provider) Option {
	return func(c *Container) {
		c.manifests = provider
	}
}

// WithAuditRecorder overrides the in-memory audit trail.
func WithAuditRecorder(recorder audit.Recorder) Option {
	return func(c *Container) {
		c.audit = recorder
	}
}

// WithValidatorFactory overrides the per-field validator factory.
func WithValidatorFactory(factory validation.Factory) Option {
	return func(c *Container) {
		c.factory = factory
	}
}

// NewContainer validates cfg and builds every collaborator it names.
func NewContainer(cfg runtimeconfig.Config, opts ...Option) (*Container, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Container{
		Config:   cfg,
		cacheTTL: cfg.Cache.DefaultTTL,
		factory:  validation.DefaultFactory,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	if err := c.configureLogger(); err != nil {
		return nil, err
	}
	if err := c.configureSchemas(); err != nil {
		return nil, err
	}
	c.configureCacheDefaults()
	if err := c.configureDrafts(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.configureRemote(); err != nil {
		c.Close()
		return nil, err
	}
	c.configureManifests()
	c.configureAudit()

	c.logger.Info("container.ready",
		"drafts", c.draftsProvider(),
		"git", cfg.Git.Enabled,
		"schemas", len(c.registry.Names()),
	)
	return c, nil
}

func (c *Container) configureLogger() error {
	if c.loggerProvider == nil {
		provider, err := newLoggerProvider(c.Config)
		if err != nil {
			return err
		}
		c.loggerProvider = provider
	}
	c.logger = logging.ModuleLogger(c.loggerProvider, "capsulo")
	return nil
}

func newLoggerProvider(cfg runtimeconfig.Config) (interfaces.LoggerProvider, error) {
	if !cfg.Features.Logger {
		return noopProvider{}, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Logging.Provider)) {
	case "gologger":
		return gologger.NewProvider(gologger.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			AddSource: cfg.Logging.AddSource,
			Focus:     cfg.Logging.Focus,
		})
	default:
		opts := console.Options{}
		if level, ok := console.ParseLevel(cfg.Logging.Level); ok {
			opts.MinLevel = &level
		}
		return console.NewProvider(opts), nil
	}
}

func (c *Container) configureSchemas() error {
	registry, err := schema.NewMemoryRegistry(c.schemas...)
	if err != nil {
		return fmt.Errorf("di: register schemas: %w", err)
	}
	c.registry = registry

	dir := strings.TrimSpace(c.Config.Schemas.Dir)
	if dir == "" {
		return nil
	}
	programmatic := c.schemas
	c.watcher = schema.NewWatcher(dir, registry,
		schema.WithWatcherLogger(logging.SchemaLogger(c.loggerProvider)),
		schema.WithReloadHook(func([]schema.Schema) {
			for _, s := range programmatic {
				if err := registry.Register(s); err != nil {
					c.logger.Warn("container.schema.register_failed", "schema", s.Name, "error", err)
				}
			}
		}),
	)
	if err := c.watcher.Load(); err != nil {
		return fmt.Errorf("di: load schemas from %s: %w", dir, err)
	}
	return nil
}

func (c *Container) configureCacheDefaults() {
	if !c.Config.Cache.Enabled {
		return
	}

	if c.cacheService == nil {
		cfg := repocache.DefaultConfig()
		if c.cacheTTL > 0 {
			cfg.TTL = c.cacheTTL
		}
		service, err := repocache.NewCacheService(cfg)
		if err == nil {
			c.cacheService = service
		} else {
			c.logger.Warn("container.cache.disabled", "error", err)
		}
	}

	if c.cacheService != nil && c.keySerializer == nil {
		c.keySerializer = repocache.NewDefaultKeySerializer()
	}
}

func (c *Container) configureDrafts() error {
	if c.store != nil {
		return nil
	}
	switch c.draftsProvider() {
	case runtimeconfig.DraftsProviderBun:
		if c.bunDB == nil {
			db, err := drafts.OpenDB(c.Config.Drafts.Bun.Dialect, c.Config.Drafts.Bun.DSN)
			if err != nil {
				return fmt.Errorf("di: open drafts database: %w", err)
			}
			c.bunDB = db
			c.ownsDB = true
		}
		if err := drafts.CreateSchema(context.Background(), c.bunDB); err != nil {
			return fmt.Errorf("di: create drafts table: %w", err)
		}
		if c.cacheService != nil {
			c.store = drafts.NewBunStoreWithCache(c.bunDB, c.cacheService, c.keySerializer)
		} else {
			c.store = drafts.NewBunStore(c.bunDB)
		}
	case runtimeconfig.DraftsProviderRedis:
		redisCfg := c.Config.Drafts.Redis
		store, err := drafts.NewRedisStore(context.Background(), redisCfg.URL,
			drafts.WithRedisPrefix(redisCfg.Prefix),
			drafts.WithRedisTTL(redisCfg.TTL),
		)
		if err != nil {
			return fmt.Errorf("di: connect drafts redis: %w", err)
		}
		c.redisStore = store
		c.store = store
	default:
		c.store = drafts.NewMemoryStore()
	}
	return nil
}

func (c *Container) configureRemote() error {
	if c.remote != nil {
		return nil
	}
	if !c.Config.Git.Enabled {
		c.remote = editor.NewMemoryRemote()
		return nil
	}
	gitCfg := c.Config.Git
	svc, err := gitstore.New(gitstore.Config{
		RepoDir:     gitCfg.RepoDir,
		Branch:      gitCfg.Branch,
		AuthorName:  gitCfg.AuthorName,
		AuthorEmail: gitCfg.AuthorEmail,
	}, gitstore.WithLogger(logging.GitLogger(c.loggerProvider)))
	if err != nil {
		return fmt.Errorf("di: open content repository: %w", err)
	}
	c.git = svc
	c.remote = svc
	return nil
}

func (c *Container) configureManifests() {
	if c.manifests != nil {
		return
	}
	if dir := strings.TrimSpace(c.Config.Manifests.Dir); dir != "" {
		c.manifests = manifest.DirProvider{Dir: dir}
	}
}

func (c *Container) configureAudit() {
	if c.audit != nil {
		return
	}
	if c.Config.Features.Audit {
		c.audit = audit.NewMemoryRecorder(auditLimit)
		return
	}
	c.audit = audit.Noop{}
}

func (c *Container) draftsProvider() string {
	provider := strings.ToLower(strings.TrimSpace(c.Config.Drafts.Provider))
	if provider == "" {
		return runtimeconfig.DraftsProviderMemory
	}
	return provider
}

// NewSession returns an editing session bound to the container collaborators.
// opts are applied after the configured ones.
func (c *Container) NewSession(opts ...editor.Option) *editor.Session {
	base := []editor.Option{
		editor.WithLogger(logging.EditorLogger(c.loggerProvider)),
		editor.WithLocales(c.Config.DefaultLocale, c.Config.LocaleList()...),
		editor.WithDebounceDelay(c.Config.Editor.DebounceDelay),
		editor.WithPersistRetries(c.Config.Editor.PersistRetries),
		editor.WithValidatorFactory(c.factory),
		editor.WithAuditRecorder(c.audit),
	}
	if c.manifests != nil {
		base = append(base, editor.WithManifestProvider(c.manifests))
	}
	return editor.NewSession(c.store, c.registry, c.remote, c.remote, append(base, opts...)...)
}

// WatchSchemas reloads the registry on schema file changes until ctx is done.
// It returns immediately when no schema directory is configured.
func (c *Container) WatchSchemas(ctx context.Context) error {
	if c.watcher == nil || !c.Config.Schemas.Watch {
		return nil
	}
	return c.watcher.Run(ctx)
}

// Close releases connections owned by the container.
func (c *Container) Close() error {
	var errs []error
	c.closeOnce.Do(func() {
		if c.redisStore != nil {
			errs = append(errs, c.redisStore.Close())
		}
		if c.ownsDB && c.bunDB != nil {
			errs = append(errs, c.bunDB.Close())
		}
	})
	return errors.Join(errs...)
}

func (c *Container) LoggerProvider() interfaces.LoggerProvider {
	return c.loggerProvider
}

func (c *Container) SchemaRegistry() *schema.MemoryRegistry {
	return c.registry
}

func (c *Container) DraftStore() drafts.Store {
	return c.store
}

func (c *Container) Remote() editor.Remote {
	return c.remote
}

// GitStore returns the git-backed remote, or nil when git is disabled.
func (c *Container) GitStore() *gitstore.Service {
	return c.git
}

func (c *Container) AuditRecorder() audit.Recorder {
	return c.audit
}

type noopProvider struct{}

func (noopProvider) GetLogger(string) interfaces.Logger {
	return logging.NoOp()
}
