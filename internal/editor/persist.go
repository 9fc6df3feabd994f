package editor

import (
	"context"
	"errors"

	"github.com/goliatone/go-capsulo/internal/audit"
	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/scheduler"
	"github.com/goliatone/go-capsulo/internal/translation"
)

// Flush cancels pending timers and writes the draft now.
func (s *Session) Flush(ctx context.Context) error {
	scheduler.CancelAll(s.formTimer, s.localeTimer)
	s.mu.Lock()
	if err := s.loadedLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	gen := s.gen
	s.mu.Unlock()
	return s.persist(ctx, gen)
}

// tick runs when a debounce timer fires. The write waits until both timers
// settled; the last one to fire performs it.
func (s *Session) tick(ctx context.Context, gen uint64) error {
	if scheduler.AnyPending(s.formTimer, s.localeTimer) {
		return nil
	}
	if s.detector.Guarded() {
		return nil
	}
	err := s.persist(ctx, gen)
	if err != nil && !errors.Is(err, ErrStaleLoad) && !errors.Is(err, context.Canceled) {
		s.mu.Lock()
		if gen == s.gen && !s.closed && s.failures <= s.retries {
			s.scheduleLocked(s.formTimer)
		}
		s.mu.Unlock()
	}
	return err
}

// persist writes the merged document when the editing state has changes.
func (s *Session) persist(ctx context.Context, gen uint64) error {
	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return ErrStaleLoad
	}
	if !s.hasChangesLocked() {
		s.mu.Unlock()
		return nil
	}
	key := s.key
	revision := s.revision
	doc, skipped := translation.Apply(s.stored, s.editsLocked())
	s.mu.Unlock()

	for _, skip := range skipped {
		s.logger.Debug("editor.persist.translation_skipped", "key", key, "locale", skip.Locale, "component", skip.ComponentID, "field", skip.Field, "reason", skip.Reason)
	}

	s.persistMu.Lock()
	if !s.current(gen) {
		s.persistMu.Unlock()
		return ErrStaleLoad
	}
	err := s.store.Set(ctx, key, doc)
	s.persistMu.Unlock()

	if err != nil {
		s.mu.Lock()
		s.failures++
		failures := s.failures
		s.mu.Unlock()
		s.logger.Error("editor.persist.failed", "key", key, "attempt", failures, "error", err)
		s.record(ctx, key, audit.ActionDraftPersistFailed, map[string]any{"attempt": failures, "error": err.Error()})
		return err
	}

	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return ErrStaleLoad
	}
	s.failures = 0
	reload := s.pendingReload && revision == s.revision
	s.mu.Unlock()

	s.logger.Debug("editor.persist.completed", "key", key, "components", len(doc.Components))
	s.record(ctx, key, audit.ActionDraftPersisted, map[string]any{"components": len(doc.Components)})
	s.notify(key)

	if reload && !scheduler.AnyPending(s.formTimer, s.localeTimer) {
		return s.reload(ctx, gen, revision)
	}
	return nil
}

// reload replaces the loaded document with the stored draft once the edits
// it was written from are the latest ones.
func (s *Session) reload(ctx context.Context, gen, revision uint64) error {
	s.mu.Lock()
	key := s.key
	s.mu.Unlock()

	draft, err := s.store.Get(ctx, key)
	if err != nil {
		s.logger.Warn("editor.reload.failed", "key", key, "error", err)
		return nil
	}
	if draft == nil {
		return nil
	}

	form, defaults := hydrate(draft, s.registry, s.defaultLocale)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen || s.closed {
		return ErrStaleLoad
	}
	if revision != s.revision {
		return nil
	}
	s.detector.Engage()
	s.stored = draft
	s.form = form
	s.defaults = defaults
	s.buffer.Clear()
	s.structural = false
	s.pendingReload = false
	s.warnings = inspect(draft, s.registry)
	s.detector.Release()
	s.logger.Debug("editor.reload.completed", "key", key)
	return nil
}

func (s *Session) editsLocked() translation.Edits {
	return translation.Edits{
		Form:          s.form,
		Buffer:        s.buffer,
		Registry:      s.registry,
		DefaultLocale: s.defaultLocale,
		Locales:       s.locales,
	}
}

// MergedDocument returns the document a draft write would store right now.
func (s *Session) MergedDocument() (*content.Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadedLocked(); err != nil {
		return nil, err
	}
	doc, _ := translation.Apply(s.stored, s.editsLocked())
	return doc, nil
}

// Display resolves the merged document to locale, falling back to the
// default locale for missing translations. The result maps component id to
// field values.
func (s *Session) Display(locale string) (map[string]map[string]any, error) {
	doc, err := s.MergedDocument()
	if err != nil {
		return nil, err
	}
	if locale == "" {
		locale = s.defaultLocale
	}
	out := make(map[string]map[string]any, len(doc.Components))
	for _, component := range doc.Components {
		values := make(map[string]any, len(component.Data))
		for name, field := range component.Data {
			values[name] = field.Resolve(locale, s.defaultLocale)
		}
		out[component.ID] = values
	}
	return out, nil
}
