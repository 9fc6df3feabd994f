package editor

import (
	"context"
	"maps"
	"slices"
	"strings"

	"github.com/goliatone/go-capsulo/internal/audit"
	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/schema"
	"github.com/goliatone/go-capsulo/internal/scheduler"
)

// SetField records a default-locale form edit.
func (s *Session) SetField(componentID, field string, value any) error {
	field = strings.TrimSpace(field)
	if field == "" {
		return ErrFieldRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(componentID); err != nil {
		return err
	}
	s.setFormLocked(componentID, field, value)
	s.revision++
	s.scheduleLocked(s.formTimer)
	return nil
}

// SetTranslation records an edit of a non-default locale. Edits addressed to
// the default locale are form edits.
func (s *Session) SetTranslation(locale, componentID, field string, value any) error {
	locale = strings.TrimSpace(locale)
	if locale == "" {
		return ErrLocaleRequired
	}
	if locale == s.defaultLocale {
		return s.SetField(componentID, field, value)
	}
	if !slices.Contains(s.locales, locale) {
		return ErrUnknownLocale
	}
	field = strings.TrimSpace(field)
	if field == "" {
		return ErrFieldRequired
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(componentID); err != nil {
		return err
	}
	s.buffer.Set(locale, componentID, field, value)
	s.revision++
	s.scheduleLocked(s.localeTimer)
	return nil
}

// PatchComponentFields applies an out-of-band patch, such as an AI agent
// proposal. Matching form keys are overwritten and other keys are kept.
// Locale-keyed values of translatable fields are split into the default
// form value and buffered translations. The document is reloaded from the
// draft after the next successful write.
func (s *Session) PatchComponentFields(ctx context.Context, componentID string, fields map[string]any) error {
	s.mu.Lock()
	if err := s.editableLocked(componentID); err != nil {
		s.mu.Unlock()
		return err
	}
	component, _ := s.stored.Component(componentID)
	def, hasDef := schema.Lookup(s.registry, component.SchemaName)

	names := slices.Sorted(maps.Keys(fields))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		value := fields[name]
		if s.localizedPatch(def, hasDef, component, name, value) {
			for locale, localized := range value.(map[string]any) {
				if locale == s.defaultLocale {
					s.setFormLocked(componentID, name, localized)
					continue
				}
				s.buffer.Set(locale, componentID, name, localized)
			}
			continue
		}
		s.setFormLocked(componentID, name, value)
	}
	s.structural = true
	s.pendingReload = true
	s.revision++
	key := s.key
	s.scheduleLocked(s.formTimer)
	s.mu.Unlock()

	s.logger.Info("editor.patch.applied", "key", key, "component", componentID, "fields", names)
	s.record(ctx, key, audit.ActionComponentsPatched, map[string]any{"component": componentID, "fields": names})
	return nil
}

// localizedPatch reports whether value holds per-locale values for a field
// that is, or already stores, a translation map.
func (s *Session) localizedPatch(def schema.Schema, hasDef bool, component *content.ComponentData, name string, value any) bool {
	if !content.IsLocaleMapFor(value, s.locales) {
		return false
	}
	if hasDef {
		if field, ok := def.Field(name); ok && field.Translatable {
			return field.Type != schema.TypeFileUpload
		}
	}
	existing, ok := component.Data[name]
	return ok && existing.Localized(s.defaultLocale)
}

// ReorderComponents sets the component order. ids must be a permutation of
// the current ids.
func (s *Session) ReorderComponents(ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.loadedLocked(); err != nil {
		return err
	}
	current := s.stored.IDs()
	if len(ids) != len(current) {
		return ErrInvalidOrder
	}
	byID := make(map[string]content.ComponentData, len(current))
	for _, component := range s.stored.Components {
		byID[component.ID] = component
	}
	ordered := make([]content.ComponentData, 0, len(ids))
	for _, id := range ids {
		component, ok := byID[id]
		if !ok {
			return ErrInvalidOrder
		}
		delete(byID, id)
		ordered = append(ordered, component)
	}
	if slices.Equal(ids, current) {
		return nil
	}
	s.stored.Components = ordered
	s.structural = true
	s.revision++
	s.scheduleLocked(s.formTimer)
	return nil
}

// SetAlias changes the editor label of a component.
func (s *Session) SetAlias(componentID, alias string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editableLocked(componentID); err != nil {
		return err
	}
	component, _ := s.stored.Component(componentID)
	alias = strings.TrimSpace(alias)
	if component.Alias == alias {
		return nil
	}
	component.Alias = alias
	s.structural = true
	s.revision++
	s.scheduleLocked(s.formTimer)
	return nil
}

func (s *Session) loadedLocked() error {
	if s.closed {
		return ErrSessionClosed
	}
	if !s.loaded || s.stored == nil {
		return ErrNoDocument
	}
	return nil
}

func (s *Session) editableLocked(componentID string) error {
	if err := s.loadedLocked(); err != nil {
		return err
	}
	if _, ok := s.stored.Component(componentID); !ok {
		return ErrComponentNotFound
	}
	return nil
}

func (s *Session) setFormLocked(componentID, field string, value any) {
	if s.form == nil {
		s.form = map[string]map[string]any{}
	}
	values, ok := s.form[componentID]
	if !ok {
		values = map[string]any{}
		s.form[componentID] = values
	}
	values[field] = content.CloneValue(value)
}

// scheduleLocked arms timer with a tick bound to the current load.
func (s *Session) scheduleLocked(timer *scheduler.Debouncer) {
	gen := s.gen
	timer.Schedule(func() {
		_ = s.tick(s.ctx, gen)
	})
}
