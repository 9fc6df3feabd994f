package editor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/goliatone/go-capsulo/internal/audit"
	"github.com/goliatone/go-capsulo/internal/changes"
	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/drafts"
	"github.com/goliatone/go-capsulo/internal/identity"
	"github.com/goliatone/go-capsulo/internal/logging"
	"github.com/goliatone/go-capsulo/internal/manifest"
	"github.com/goliatone/go-capsulo/internal/scheduler"
	"github.com/goliatone/go-capsulo/internal/schema"
	"github.com/goliatone/go-capsulo/internal/translation"
	"github.com/goliatone/go-capsulo/internal/validation"
	"github.com/goliatone/go-capsulo/pkg/interfaces"
	"golang.org/x/sync/errgroup"
)

// Session is the editing state of one document at a time. Form values and
// translations are debounced independently; once both settle the merged
// document is written to the draft store. Loading another document
// invalidates every in-flight step of the previous one.
type Session struct {
	store     drafts.Store
	registry  schema.Registry
	baselines BaselineSource
	publisher Publisher

	logger        interfaces.Logger
	audit         audit.Recorder
	now           func() time.Time
	factory       validation.Factory
	manifests     manifest.Provider
	newItemID     identity.Generator
	revalidate    []func(key string)
	defaultLocale string
	locales       []string
	delay         time.Duration
	retries       int

	detector    *changes.Detector
	formTimer   *scheduler.Debouncer
	localeTimer *scheduler.Debouncer
	persistMu   sync.Mutex
	ctx         context.Context
	cancel      context.CancelFunc

	mu            sync.Mutex
	key           string
	gen           uint64
	revision      uint64
	loaded        bool
	closed        bool
	baseline      *content.Document
	stored        *content.Document
	form          map[string]map[string]any
	defaults      map[string]map[string]any
	buffer        *translation.Buffer
	structural    bool
	pendingReload bool
	failures      int
	warnings      []Warning
}

// NewSession builds a session over a draft store and schema registry.
// baselines may be nil, in which case every document starts empty.
func NewSession(store drafts.Store, registry schema.Registry, baselines BaselineSource, publisher Publisher, opts ...Option) *Session {
	s := &Session{
		store:         store,
		registry:      registry,
		baselines:     baselines,
		publisher:     publisher,
		logger:        logging.NoOp(),
		audit:         audit.Noop{},
		now:           time.Now,
		factory:       validation.DefaultFactory,
		newItemID:     identity.NewItemID,
		defaultLocale: defaultLocale,
		delay:         defaultDebounceDelay,
		retries:       defaultPersistRetries,
		buffer:        translation.NewBuffer(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.locales) == 0 {
		s.locales = []string{s.defaultLocale}
	} else if !slices.Contains(s.locales, s.defaultLocale) {
		s.locales = append([]string{s.defaultLocale}, s.locales...)
	}
	s.detector = changes.NewDetector(s.defaultLocale)
	s.formTimer = scheduler.New(s.delay)
	s.localeTimer = scheduler.New(s.delay)
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s
}

// DefaultLocale returns the locale form values are written to.
func (s *Session) DefaultLocale() string {
	return s.defaultLocale
}

// Key returns the loaded document key.
func (s *Session) Key() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.key
}

// LoadPage loads the draft of pageID, or its baseline when no usable draft
// exists, and synchronizes it with the page manifest.
func (s *Session) LoadPage(ctx context.Context, pageID string) error {
	return s.load(ctx, pageID)
}

// LoadGlobals loads the site-wide document.
func (s *Session) LoadGlobals(ctx context.Context) error {
	return s.load(ctx, content.GlobalsKey)
}

func (s *Session) load(ctx context.Context, key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return ErrDocumentKeyMissing
	}

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrSessionClosed
	}
	s.gen++
	gen := s.gen
	s.detector.Engage()
	scheduler.CancelAll(s.formTimer, s.localeTimer)
	s.key = key
	s.loaded = false
	s.buffer.Clear()
	s.form = nil
	s.defaults = nil
	s.structural = false
	s.pendingReload = false
	s.failures = 0
	s.warnings = nil
	s.mu.Unlock()

	logger := s.logger.WithContext(logging.WithDocumentKey(ctx, key))

	var draft, baseline *content.Document
	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		doc, err := s.store.Get(groupCtx, key)
		if errors.Is(err, drafts.ErrDraftInvalid) {
			logger.Warn("editor.load.draft_invalid", "key", key, "error", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read draft: %w", err)
		}
		draft = doc
		return nil
	})
	group.Go(func() error {
		if s.baselines == nil {
			return nil
		}
		doc, err := s.baselines.LoadBaseline(groupCtx, key)
		if err != nil {
			return fmt.Errorf("read baseline: %w", err)
		}
		baseline = doc
		return nil
	})
	if err := group.Wait(); err != nil {
		logger.Error("editor.load.failed", "key", key, "error", err)
		return fmt.Errorf("editor: load %s: %w", key, err)
	}
	if !s.current(gen) {
		return ErrStaleLoad
	}

	if baseline == nil {
		baseline = &content.Document{}
	}
	source := "draft"
	doc := draft
	if doc == nil {
		source = "baseline"
		doc = baseline.Clone()
	}

	if s.manifests != nil {
		entries, err := s.manifests.Manifest(ctx, key)
		if err != nil {
			logger.Warn("editor.load.manifest_failed", "key", key, "error", err)
		} else if len(entries) > 0 {
			result := manifest.Sync(doc.Components, entries, s.registry)
			doc.Components = result.Components
			if len(result.Added) > 0 {
				logger.Info("editor.load.manifest_synced", "key", key, "added", result.Added)
				s.record(ctx, key, audit.ActionManifestSynced, map[string]any{"added": result.Added})
			}
		}
	}
	if !s.current(gen) {
		return ErrStaleLoad
	}

	form, defaults := hydrate(doc, s.registry, s.defaultLocale)
	warnings := inspect(doc, s.registry)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return ErrStaleLoad
	}
	s.baseline = baseline
	s.stored = doc
	s.form = form
	s.defaults = defaults
	s.warnings = warnings
	s.loaded = true
	s.detector.Release()

	for _, w := range warnings {
		logger.Warn("editor.load.degraded_field", "warning", w.String())
	}
	logger.Debug("editor.load.completed", "key", key, "source", source, "components", len(doc.Components))
	return nil
}

// current reports whether gen still identifies the active load.
func (s *Session) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen && !s.closed
}

// hydrate builds the form state of doc: stored values resolved to the
// default locale, schema defaults for fields with nothing stored.
func hydrate(doc *content.Document, registry schema.Registry, defaultLocale string) (form, defaults map[string]map[string]any) {
	form = make(map[string]map[string]any, len(doc.Components))
	defaults = make(map[string]map[string]any, len(doc.Components))
	for _, component := range doc.Components {
		def, ok := schema.Lookup(registry, component.SchemaName)
		if !ok {
			continue
		}
		values := map[string]any{}
		fallbacks := map[string]any{}
		for _, field := range def.DataFields() {
			if stored, exists := component.Data[field.Name]; exists {
				values[field.Name] = content.CloneValue(stored.Resolve(defaultLocale, defaultLocale))
				continue
			}
			value := schema.DefaultValue(field)
			values[field.Name] = content.CloneValue(value)
			fallbacks[field.Name] = content.CloneValue(value)
		}
		form[component.ID] = values
		defaults[component.ID] = fallbacks
	}
	return form, defaults
}

func inspect(doc *content.Document, registry schema.Registry) []Warning {
	var out []Warning
	for _, component := range doc.Components {
		def, ok := schema.Lookup(registry, component.SchemaName)
		if !ok {
			out = append(out, Warning{Kind: WarningUnknownSchema, ComponentID: component.ID})
			continue
		}
		for _, name := range component.FieldNames() {
			field, found := def.Field(name)
			if !found {
				continue
			}
			stored := component.Data[name]
			if schema.TypeMismatch(&field, stored.Type) {
				out = append(out, Warning{
					Kind:        WarningTypeMismatch,
					ComponentID: component.ID,
					Field:       name,
					SchemaType:  field.Type,
					StoredType:  stored.Type,
				})
			}
		}
	}
	return out
}

// Warnings returns the degraded fields found by the last load.
func (s *Session) Warnings() []Warning {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.warnings)
}

// HasChanges reports whether the editing state differs from the loaded
// document. It is false while a load is hydrating.
func (s *Session) HasChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hasChangesLocked()
}

func (s *Session) hasChangesLocked() bool {
	if !s.loaded || s.stored == nil {
		return false
	}
	return s.detector.Evaluate(changes.Input{
		Components:      s.stored.Components,
		Form:            s.form,
		Defaults:        s.defaults,
		BufferHasValues: s.buffer.HasValues(),
		Structural:      s.structural,
	})
}

// IsDebouncing reports whether form or translation edits are waiting for
// their quiet period.
func (s *Session) IsDebouncing() bool {
	return scheduler.AnyPending(s.formTimer, s.localeTimer)
}

// HasUnpublishedChanges reports whether a stored draft differs from the
// published baseline.
func (s *Session) HasUnpublishedChanges(ctx context.Context) (bool, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return false, ErrNoDocument
	}
	key, gen, baseline := s.key, s.gen, s.baseline.Clone()
	s.mu.Unlock()

	draft, err := s.store.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if !s.current(gen) {
		return false, ErrStaleLoad
	}
	if draft == nil {
		return false, nil
	}
	return !changes.DocumentsEqual(draft, baseline), nil
}

// Baseline returns a copy of the published document.
func (s *Session) Baseline() *content.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline.Clone()
}

// FormValues returns a copy of the form state of a component.
func (s *Session) FormValues(componentID string) map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return content.CloneMap(s.form[componentID])
}

// Close cancels pending timers and invalidates in-flight work.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	s.gen++
	scheduler.CancelAll(s.formTimer, s.localeTimer)
	s.cancel()
	return nil
}

func (s *Session) record(ctx context.Context, key, action string, metadata map[string]any) {
	err := s.audit.Record(ctx, audit.Event{
		DocumentKey: key,
		Action:      action,
		OccurredAt:  s.now(),
		Metadata:    metadata,
	})
	if err != nil {
		s.logger.Warn("editor.audit.failed", "action", action, "error", err)
	}
}

func (s *Session) notify(key string) {
	for _, fn := range s.revalidate {
		fn(key)
	}
}
