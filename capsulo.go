package capsulo

import (
	"context"

	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/di"
	"github.com/goliatone/go-capsulo/internal/drafts"
	"github.com/goliatone/go-capsulo/internal/editor"
	"github.com/goliatone/go-capsulo/internal/schema"
	"github.com/goliatone/go-capsulo/internal/validation"
)

// Document exports the page and globals document shape.
type Document = content.Document

// ComponentData exports a component instance.
type ComponentData = content.ComponentData

// FieldValue exports a stored field value.
type FieldValue = content.FieldValue

// Schema exports a component schema definition.
type Schema = schema.Schema

// Field exports a schema field definition.
type Field = schema.Field

// Session exports the editing session.
type Session = editor.Session

// SessionOption exports editing session options.
type SessionOption = editor.Option

// DraftStore exports the draft store contract.
type DraftStore = drafts.Store

// Remote exports the baseline source and publisher contract.
type Remote = editor.Remote

// ValidationError exports the save validation failure.
type ValidationError = validation.Error

// Violation exports one validation failure.
type Violation = validation.Violation

// Option exports container overrides.
type Option = di.Option

var (
	WithSchemas          = di.WithSchemas
	WithDraftStore       = di.WithDraftStore
	WithRemote           = di.WithRemote
	WithLoggerProvider   = di.WithLoggerProvider
	WithManifestProvider = di.WithManifestProvider
	WithAuditRecorder    = di.WithAuditRecorder
	WithValidatorFactory = di.WithValidatorFactory
)

// GlobalsKey is the reserved document key for site-wide components.
const GlobalsKey = content.GlobalsKey

// Module represents the top level draft engine façade.
type Module struct {
	container *di.Container
}

// New constructs a module using the provided configuration and optional DI overrides.
func New(cfg Config, opts ...Option) (*Module, error) {
	container, err := di.NewContainer(cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Module{container: container}, nil
}

// Container exposes the underlying DI container for advanced integrations.
func (m *Module) Container() *di.Container {
	return m.container
}

// NewSession opens an editing session.
func (m *Module) NewSession(opts ...SessionOption) *Session {
	return m.container.NewSession(opts...)
}

// Drafts returns the configured draft store.
func (m *Module) Drafts() DraftStore {
	return m.container.DraftStore()
}

// RegisterSchema adds or replaces a schema at runtime.
func (m *Module) RegisterSchema(s Schema) error {
	return m.container.SchemaRegistry().Register(s)
}

// Schemas lists the registered schemas.
func (m *Module) Schemas() []Schema {
	return m.container.SchemaRegistry().List()
}

// WatchSchemas reloads schema files until ctx is done.
func (m *Module) WatchSchemas(ctx context.Context) error {
	return m.container.WatchSchemas(ctx)
}

// Close releases connections owned by the module.
func (m *Module) Close() error {
	return m.container.Close()
}
