package translation

import (
	"maps"
	"slices"

	"github.com/goliatone/go-capsulo/internal/content"
)

// Buffer holds per-locale translation edits keyed by component and field.
// It lives in memory only and is not safe for concurrent use; the owning
// session serializes access.
type Buffer struct {
	entries map[string]map[string]map[string]any
}

// NewBuffer returns an empty buffer.
func NewBuffer() *Buffer {
	return &Buffer{entries: map[string]map[string]map[string]any{}}
}

// Set records value for locale, component and field. Later writes win.
func (b *Buffer) Set(locale, componentID, field string, value any) {
	if b.entries == nil {
		b.entries = map[string]map[string]map[string]any{}
	}
	components, ok := b.entries[locale]
	if !ok {
		components = map[string]map[string]any{}
		b.entries[locale] = components
	}
	fields, ok := components[componentID]
	if !ok {
		fields = map[string]any{}
		components[componentID] = fields
	}
	fields[field] = content.CloneValue(value)
}

// Get returns the buffered value.
func (b *Buffer) Get(locale, componentID, field string) (any, bool) {
	value, ok := b.entries[locale][componentID][field]
	return value, ok
}

// Locales returns the locales with buffered entries, sorted.
func (b *Buffer) Locales() []string {
	return slices.Sorted(maps.Keys(b.entries))
}

// Fields returns a copy of the buffered fields of a component in locale.
func (b *Buffer) Fields(locale, componentID string) map[string]any {
	return content.CloneMap(b.entries[locale][componentID])
}

// HasValues reports whether any locale holds a defined value.
func (b *Buffer) HasValues() bool {
	for _, components := range b.entries {
		for _, fields := range components {
			for _, value := range fields {
				if value != nil {
					return true
				}
			}
		}
	}
	return false
}

// DropComponent removes every entry of componentID.
func (b *Buffer) DropComponent(componentID string) {
	for locale, components := range b.entries {
		delete(components, componentID)
		if len(components) == 0 {
			delete(b.entries, locale)
		}
	}
}

// Clear empties the buffer.
func (b *Buffer) Clear() {
	b.entries = map[string]map[string]map[string]any{}
}
