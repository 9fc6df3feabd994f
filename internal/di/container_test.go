package di

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/goliatone/go-capsulo/internal/audit"
	"github.com/goliatone/go-capsulo/internal/drafts"
	"github.com/goliatone/go-capsulo/internal/editor"
	"github.com/goliatone/go-capsulo/internal/gitstore"
	"github.com/goliatone/go-capsulo/internal/logging/gologger"
	"github.com/goliatone/go-capsulo/internal/runtimeconfig"
	"github.com/goliatone/go-capsulo/internal/schema"
	"github.com/goliatone/go-capsulo/pkg/testsupport"
)

func heroSchema() schema.Schema {
	return schema.Schema{Name: "Hero", Fields: []schema.Field{
		{Name: "title", Type: schema.TypeInput, Translatable: true, Required: true},
	}}
}

func TestNewContainerRejectsInvalidConfig(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.DefaultLocale = ""
	if _, err := NewContainer(cfg); !errors.Is(err, runtimeconfig.ErrDefaultLocaleRequired) {
		t.Fatalf("expected ErrDefaultLocaleRequired, got %v", err)
	}
}

func TestDefaultContainerUsesMemoryCollaborators(t *testing.T) {
	container, err := NewContainer(runtimeconfig.DefaultConfig(), WithSchemas(heroSchema()))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()

	if _, ok := container.DraftStore().(*drafts.MemoryStore); !ok {
		t.Fatalf("expected memory draft store, got %T", container.DraftStore())
	}
	if _, ok := container.Remote().(*editor.MemoryRemote); !ok {
		t.Fatalf("expected memory remote, got %T", container.Remote())
	}
	if container.GitStore() != nil {
		t.Fatalf("expected git to be disabled")
	}
	if _, ok := container.AuditRecorder().(*audit.MemoryRecorder); !ok {
		t.Fatalf("expected memory audit recorder, got %T", container.AuditRecorder())
	}
	if _, ok := container.SchemaRegistry().GetByKey("hero"); !ok {
		t.Fatalf("expected programmatic schema to be registered")
	}
}

func TestConfigureLoggerProviderUsesGoLoggerAdapter(t *testing.T) {
	cfg := runtimeconfig.DefaultConfig()
	cfg.Features.Logger = true
	cfg.Logging.Provider = "gologger"
	cfg.Logging.Level = "debug"
	cfg.Logging.Format = "json"

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	provider, ok := container.LoggerProvider().(*gologger.Provider)
	if !ok {
		t.Fatalf("expected go-logger provider, got %T", container.LoggerProvider())
	}
	if provider.GetLogger("capsulo.test") == nil {
		t.Fatal("expected logger from go-logger provider, got nil")
	}
}

func TestSessionRoundTripThroughContainer(t *testing.T) {
	remote := editor.NewMemoryRemote()
	remote.Put("home", &homeDocument)

	cfg := runtimeconfig.DefaultConfig()
	cfg.Locales = []string{"en", "fr"}
	container, err := NewContainer(cfg, WithSchemas(heroSchema()), WithRemote(remote))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	ctx := context.Background()

	session := container.NewSession()
	defer session.Close()
	if err := session.LoadPage(ctx, "home"); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}
	if err := session.SetTranslation("fr", "hero-0", "title", "Bonjour"); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := session.Flush(ctx); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	draft, err := container.DraftStore().Get(ctx, "home")
	if err != nil || draft == nil {
		t.Fatalf("expected draft after flush, got %v %v", draft, err)
	}

	if _, err := session.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if draft, _ := container.DraftStore().Get(ctx, "home"); draft != nil {
		t.Fatalf("expected draft to be removed after save")
	}
	recorder := container.AuditRecorder().(*audit.MemoryRecorder)
	actions := recorder.Actions()
	if len(actions) == 0 || actions[len(actions)-1] != audit.ActionDocumentSaved {
		t.Fatalf("expected save to be audited, got %v", actions)
	}
}

func TestBunDraftStoreFromConfig(t *testing.T) {
	db, err := testsupport.NewBunMemoryDB()
	if err != nil {
		t.Fatalf("NewBunMemoryDB: %v", err)
	}
	defer db.Close()

	cfg := runtimeconfig.DefaultConfig()
	cfg.Drafts.Provider = runtimeconfig.DraftsProviderBun
	cfg.Cache.Enabled = true
	container, err := NewContainer(cfg, WithBunDB(db))
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := container.DraftStore().(*drafts.BunStore); !ok {
		t.Fatalf("expected bun draft store, got %T", container.DraftStore())
	}
	if err := container.DraftStore().Set(context.Background(), "home", &homeDocument); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if err := container.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("expected caller-owned database to stay open: %v", err)
	}
}

func TestRedisDraftStoreFromConfig(t *testing.T) {
	server := miniredis.RunT(t)

	cfg := runtimeconfig.DefaultConfig()
	cfg.Drafts.Provider = runtimeconfig.DraftsProviderRedis
	cfg.Drafts.Redis.URL = "redis://" + server.Addr()
	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	defer container.Close()
	if _, ok := container.DraftStore().(*drafts.RedisStore); !ok {
		t.Fatalf("expected redis draft store, got %T", container.DraftStore())
	}
}

func TestGitRemoteAndSchemaDirFromConfig(t *testing.T) {
	schemaDir := t.TempDir()
	hero := "name: Hero\nfields:\n  - name: title\n    type: input\n"
	if err := os.WriteFile(filepath.Join(schemaDir, "hero.yaml"), []byte(hero), 0o644); err != nil {
		t.Fatalf("write schema: %v", err)
	}

	cfg := runtimeconfig.DefaultConfig()
	cfg.Schemas.Dir = schemaDir
	cfg.Git.Enabled = true
	cfg.Git.RepoDir = filepath.Join(t.TempDir(), "content")
	cfg.Manifests.Dir = t.TempDir()

	container, err := NewContainer(cfg)
	if err != nil {
		t.Fatalf("NewContainer returned error: %v", err)
	}
	if _, ok := container.Remote().(*gitstore.Service); !ok {
		t.Fatalf("expected git remote, got %T", container.Remote())
	}
	if _, ok := container.SchemaRegistry().Get("Hero"); !ok {
		t.Fatalf("expected schema loaded from directory")
	}
	if err := container.WatchSchemas(context.Background()); err != nil {
		t.Fatalf("WatchSchemas without watch flag: %v", err)
	}
}
