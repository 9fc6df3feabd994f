package editor

import (
	"maps"
	"slices"

	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/identity"
	"github.com/goliatone/go-capsulo/internal/schema"
	"github.com/goliatone/go-capsulo/internal/translation"
	"github.com/goliatone/go-capsulo/internal/validation"
)

const itemIDKey = "_id"

// reconciler builds the document handed to the publisher.
type reconciler struct {
	registry      schema.Registry
	defaultLocale string
	locales       []string
	newItemID     identity.Generator
}

// reconcile merges form values and buffered translations into stored with
// the type-aware rules used on save. Fields without a schema entry keep the
// draft merge result.
func (r reconciler) reconcile(stored *content.Document, form map[string]map[string]any, buffer *translation.Buffer) *content.Document {
	applied, _ := translation.Apply(stored, translation.Edits{
		Form:          form,
		Buffer:        buffer,
		Registry:      r.registry,
		DefaultLocale: r.defaultLocale,
		Locales:       r.locales,
	})
	if stored == nil {
		return applied
	}

	for i, component := range stored.Components {
		def, ok := schema.Lookup(r.registry, component.SchemaName)
		if !ok {
			continue
		}
		out := &applied.Components[i]
		values := form[component.ID]
		for _, field := range def.DataFields() {
			translations := r.translations(buffer, component.ID, field.Name)
			_, buffered := buffer.Get(r.defaultLocale, component.ID, field.Name)
			if validation.Mismatched(component, values, field, r.defaultLocale) && !buffered && len(translations) == 0 {
				out.Data[field.Name] = component.Data[field.Name].Clone()
				continue
			}
			existing, exists := component.Data[field.Name]
			var existingPtr *content.FieldValue
			if exists {
				existingPtr = &existing
			}
			out.Data[field.Name] = r.mergeField(field, existingPtr, r.effective(component, values, buffer, field.Name), translations)
		}
	}
	return applied
}

// effective is the default-locale value: a form override, a buffered
// default-locale entry, else the stored value.
func (r reconciler) effective(component content.ComponentData, form map[string]any, buffer *translation.Buffer, field string) any {
	value := validation.EffectiveValue(component, form, field, r.defaultLocale)
	if buffered, ok := buffer.Get(r.defaultLocale, component.ID, field); ok {
		value = buffered
	}
	return content.CloneValue(value)
}

func (r reconciler) translations(buffer *translation.Buffer, componentID, field string) map[string]any {
	out := map[string]any{}
	for _, locale := range buffer.Locales() {
		if locale == r.defaultLocale {
			continue
		}
		if value, ok := buffer.Get(locale, componentID, field); ok {
			out[locale] = value
		}
	}
	return out
}

func (r reconciler) mergeField(field schema.Field, existing *content.FieldValue, value any, translations map[string]any) content.FieldValue {
	switch field.Type {
	case schema.TypeFileUpload:
		return content.FieldValue{Type: field.Type, Value: fileEnvelope(value)}
	case schema.TypeRepeater:
		return r.mergeRepeater(field, existing, value, translations)
	default:
		return r.mergeLocalized(field, existing, value, translations)
	}
}

// mergeLocalized overlays the default value and translations on the stored
// locale map. A map holding only the default locale collapses to a scalar
// unless the field is declared translatable.
func (r reconciler) mergeLocalized(field schema.Field, existing *content.FieldValue, value any, translations map[string]any) content.FieldValue {
	merged := map[string]any{}
	if existing != nil && existing.Localized(r.defaultLocale) {
		merged = content.CloneMap(existing.Value.(map[string]any))
	}
	merged[r.defaultLocale] = value
	for locale, translated := range translations {
		merged[locale] = content.CloneValue(translated)
	}

	populated := content.PopulatedLocales(merged)
	keep := field.Translatable || len(populated) > 1 || (len(populated) == 1 && populated[0] != r.defaultLocale)
	if !keep {
		return content.FieldValue{Type: field.Type, Value: merged[r.defaultLocale]}
	}
	return content.FieldValue{Type: field.Type, Translatable: true, Value: merged}
}

// mergeRepeater replaces non-translatable item lists wholesale. Translatable
// ones get the form items under the default locale and index-aligned merges
// for the other locales.
func (r reconciler) mergeRepeater(field schema.Field, existing *content.FieldValue, value any, translations map[string]any) content.FieldValue {
	items := r.assignIDs(toItems(value))
	translatable := field.Translatable || localizedItems(existing, r.defaultLocale)
	if !translatable && len(translations) == 0 {
		return content.FieldValue{Type: field.Type, Value: items}
	}

	var stored map[string]any
	if existing != nil && content.IsLocaleMap(existing.Value) {
		stored, _ = existing.Value.(map[string]any)
	}
	merged := content.CloneMap(stored)
	if merged == nil {
		merged = map[string]any{}
	}
	merged[r.defaultLocale] = items

	locales := slices.Sorted(maps.Keys(translations))
	for _, locale := range locales {
		base := toItems(stored[locale])
		if len(base) == 0 {
			base = toItems(content.CloneValue(items))
		}
		merged[locale] = r.assignIDs(mergeItems(base, toItems(translations[locale])))
	}
	return content.FieldValue{Type: field.Type, Translatable: true, Value: merged}
}

// localizedItems reports a stored repeater value that is already a locale
// map holding an item array under the default locale.
func localizedItems(existing *content.FieldValue, defaultLocale string) bool {
	if existing == nil {
		return false
	}
	m, ok := existing.Value.(map[string]any)
	if !ok || !content.IsLocaleMap(m) {
		return false
	}
	_, isList := m[defaultLocale].([]any)
	return isList
}

// mergeItems shallow-merges incoming[i] into base[i]. The result grows to
// the longer of the two and never shrinks.
func mergeItems(base, incoming []any) []any {
	out := make([]any, max(len(base), len(incoming)))
	copy(out, base)
	for i, item := range incoming {
		update, isMap := item.(map[string]any)
		current, hasMap := out[i].(map[string]any)
		if !isMap || !hasMap {
			out[i] = content.CloneValue(item)
			continue
		}
		next := content.CloneMap(current)
		for key, value := range update {
			if key == itemIDKey && value == "" {
				continue
			}
			next[key] = content.CloneValue(value)
		}
		out[i] = next
	}
	return out
}

// assignIDs gives every map item lacking one a stable _id.
func (r reconciler) assignIDs(items []any) []any {
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if id, _ := m[itemIDKey].(string); id != "" {
			continue
		}
		next := content.CloneMap(m)
		next[itemIDKey] = r.newItemID()
		items[i] = next
	}
	return items
}

func toItems(value any) []any {
	switch typed := content.CloneValue(value).(type) {
	case []any:
		return typed
	default:
		return []any{}
	}
}

// fileEnvelope normalizes a fileUpload value to {files: [...]}.
func fileEnvelope(value any) map[string]any {
	files := []any{}
	switch typed := value.(type) {
	case map[string]any:
		if list, ok := content.CloneValue(typed["files"]).([]any); ok {
			files = list
		}
	case []any, []string, []map[string]any:
		files = content.CloneValue(typed).([]any)
	}
	return map[string]any{"files": files}
}
