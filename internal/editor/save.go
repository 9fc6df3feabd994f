package editor

import (
	"context"
	"fmt"

	"github.com/goliatone/go-capsulo/internal/audit"
	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/scheduler"
	"github.com/goliatone/go-capsulo/internal/validation"
)

// Validate checks every schema field of the loaded document against the
// validator factory and returns all violations.
func (s *Session) Validate() ([]validation.Violation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadedLocked(); err != nil {
		return nil, err
	}
	return s.validateLocked(), nil
}

func (s *Session) validateLocked() []validation.Violation {
	return validation.Collect(validation.Target{
		Components:    s.stored.Components,
		Form:          s.form,
		Registry:      s.registry,
		Factory:       s.factory,
		DefaultLocale: s.defaultLocale,
	})
}

// Save validates the editing state, merges it with the save rules and hands
// the result to the publisher. Any violation aborts the save before a write;
// the returned error is a *validation.Error. Publisher failures wrap
// ErrPublishFailed and leave the editing state untouched for a retry. On
// success the published document becomes the new baseline and the draft is
// removed.
func (s *Session) Save(ctx context.Context) (*content.Document, error) {
	if s.publisher == nil {
		return nil, ErrPublisherMissing
	}
	rearm := scheduler.CancelAll(s.formTimer, s.localeTimer)

	s.mu.Lock()
	if err := s.loadedLocked(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	key, gen := s.key, s.gen
	if violations := s.validateLocked(); len(violations) > 0 {
		s.rearmLocked(rearm)
		s.mu.Unlock()
		s.logger.Info("editor.save.invalid", "key", key, "violations", len(violations))
		return nil, &validation.Error{Violations: violations}
	}
	r := reconciler{registry: s.registry, defaultLocale: s.defaultLocale, locales: s.locales, newItemID: s.newItemID}
	doc := r.reconcile(s.stored, s.form, s.buffer)
	revision := s.revision
	s.mu.Unlock()

	var err error
	if key == content.GlobalsKey {
		err = s.publisher.SaveGlobals(ctx, doc)
	} else {
		err = s.publisher.SavePage(ctx, key, doc)
	}
	if err != nil {
		s.logger.Error("editor.save.failed", "key", key, "error", err)
		s.record(ctx, key, audit.ActionDocumentSaveFailed, map[string]any{"error": err.Error()})
		s.mu.Lock()
		if gen == s.gen {
			s.rearmLocked(rearm)
		}
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s: %w", ErrPublishFailed, key, err)
	}

	form, defaults := hydrate(doc, s.registry, s.defaultLocale)

	s.mu.Lock()
	if gen != s.gen || s.closed {
		s.mu.Unlock()
		return doc.Clone(), ErrStaleLoad
	}
	s.detector.Engage()
	s.baseline = doc.Clone()
	s.stored = doc.Clone()
	settled := revision == s.revision
	if settled {
		s.form = form
		s.defaults = defaults
		s.buffer.Clear()
		s.structural = false
	} else {
		s.logger.Debug("editor.save.edits_after_snapshot", "key", key)
		s.scheduleLocked(s.formTimer)
	}
	s.pendingReload = false
	s.failures = 0
	s.warnings = inspect(doc, s.registry)
	s.detector.Release()
	s.mu.Unlock()

	if settled {
		s.persistMu.Lock()
		err = s.store.Delete(ctx, key)
		s.persistMu.Unlock()
		if err != nil {
			s.logger.Warn("editor.save.draft_delete_failed", "key", key, "error", err)
		}
	}

	s.logger.Info("editor.save.completed", "key", key, "components", len(doc.Components))
	s.record(ctx, key, audit.ActionDocumentSaved, map[string]any{"components": len(doc.Components)})
	s.notify(key)
	return doc.Clone(), nil
}

// rearmLocked restores the draft write a save cancelled.
func (s *Session) rearmLocked(rearm bool) {
	if rearm && !s.closed {
		s.scheduleLocked(s.formTimer)
	}
}
