package translation

import (
	"maps"
	"slices"

	"github.com/goliatone/go-capsulo/internal/changes"
	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/schema"
)

// MergeInput carries one translation edit.
type MergeInput struct {
	Existing      *content.FieldValue
	Def           *schema.Field
	Current       any
	Locale        string
	DefaultLocale string
	Locales       []string
	Value         any
}

// Merge folds a translation into a field. A locale-map Current is
// shallow-merged with {Locale: Value}; anything else is promoted to
// {DefaultLocale: Current, Locale: Value}. The result is always translatable
// and never loses the default-locale value.
func Merge(in MergeInput) content.FieldValue {
	fieldType := schema.ResolveType(in.Def, storedType(in.Existing))

	var merged map[string]any
	if current, ok := in.Current.(map[string]any); ok && localeMap(in, current) {
		merged = maps.Clone(current)
	} else {
		merged = map[string]any{in.DefaultLocale: content.CloneValue(in.Current)}
	}
	merged[in.Locale] = content.CloneValue(in.Value)

	return content.FieldValue{Type: fieldType, Translatable: true, Value: merged}
}

// localeMap reports whether current already holds per-locale values. Plain
// objects such as rich editor trees are not locale maps even though they
// are maps.
func localeMap(in MergeInput, current map[string]any) bool {
	if !content.IsLocaleMap(current) {
		return false
	}
	if in.Existing != nil && in.Existing.Translatable {
		return true
	}
	if _, ok := current[in.DefaultLocale]; ok {
		return true
	}
	return content.IsLocaleMapFor(current, in.Locales)
}

// ApplyOverride writes a default-locale form value into a field. Locale maps
// keep their other locales; everything else is replaced.
func ApplyOverride(existing *content.FieldValue, def *schema.Field, value any, defaultLocale string) content.FieldValue {
	fieldType := schema.ResolveType(def, storedType(existing))
	if existing != nil && existing.Localized(defaultLocale) {
		merged := maps.Clone(existing.Value.(map[string]any))
		merged[defaultLocale] = content.CloneValue(value)
		return content.FieldValue{Type: fieldType, Translatable: true, Value: merged}
	}
	return content.FieldValue{Type: fieldType, Value: content.CloneValue(value)}
}

func storedType(existing *content.FieldValue) schema.FieldType {
	if existing == nil {
		return ""
	}
	return existing.Type
}

// Edits is the in-memory editing state folded into a stored document.
type Edits struct {
	Form          map[string]map[string]any
	Buffer        *Buffer
	Registry      schema.Registry
	DefaultLocale string
	Locales       []string
}

// Skipped records a buffered entry Apply ignored.
type Skipped struct {
	Locale      string
	ComponentID string
	Field       string
	Reason      string
}

// Apply returns a copy of doc with form overrides applied first and then
// every buffered translation. Display and draft persistence both call it so
// they always agree. fileUpload translations are skipped since files are
// shared by all locales. A form value equal to a stored value whose type
// tag disagrees with the schema leaves the stored field untouched.
func Apply(doc *content.Document, edits Edits) (*content.Document, []Skipped) {
	out := doc.Clone()
	if out == nil {
		out = &content.Document{}
	}
	var skipped []Skipped

	for i := range out.Components {
		component := &out.Components[i]
		if component.Data == nil {
			component.Data = map[string]content.FieldValue{}
		}
		def, hasSchema := schema.Lookup(edits.Registry, component.SchemaName)

		if values, ok := edits.Form[component.ID]; ok {
			for _, name := range slices.Sorted(maps.Keys(values)) {
				fieldDef := lookupField(def, hasSchema, name)
				existing := existingField(component, name)
				if untouchedMismatch(existing, fieldDef, values[name], edits.DefaultLocale) {
					continue
				}
				component.Data[name] = ApplyOverride(existing, fieldDef, values[name], edits.DefaultLocale)
			}
		}

		if edits.Buffer == nil {
			continue
		}
		for _, locale := range edits.Buffer.Locales() {
			fields := edits.Buffer.Fields(locale, component.ID)
			for _, name := range slices.Sorted(maps.Keys(fields)) {
				fieldDef := lookupField(def, hasSchema, name)
				existing := existingField(component, name)
				if schema.ResolveType(fieldDef, storedType(existing)) == schema.TypeFileUpload {
					skipped = append(skipped, Skipped{Locale: locale, ComponentID: component.ID, Field: name, Reason: "fileUpload"})
					continue
				}
				if locale == edits.DefaultLocale {
					component.Data[name] = ApplyOverride(existing, fieldDef, fields[name], edits.DefaultLocale)
					continue
				}
				var current any
				if existing != nil {
					current = existing.Value
				}
				component.Data[name] = Merge(MergeInput{
					Existing:      existing,
					Def:           fieldDef,
					Current:       current,
					Locale:        locale,
					DefaultLocale: edits.DefaultLocale,
					Locales:       edits.Locales,
					Value:         fields[name],
				})
			}
		}
	}
	return out, skipped
}

func untouchedMismatch(existing *content.FieldValue, def *schema.Field, value any, defaultLocale string) bool {
	if existing == nil || !schema.TypeMismatch(def, existing.Type) {
		return false
	}
	return changes.Equal(value, existing.Resolve(defaultLocale, defaultLocale))
}

func lookupField(s schema.Schema, ok bool, name string) *schema.Field {
	if !ok {
		return nil
	}
	if field, found := s.Field(name); found {
		return &field
	}
	return nil
}

func existingField(component *content.ComponentData, name string) *content.FieldValue {
	value, ok := component.Data[name]
	if !ok {
		return nil
	}
	return &value
}
