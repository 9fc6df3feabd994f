package validation

import (
	"strconv"

	"github.com/goliatone/go-capsulo/internal/changes"
	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/schema"
)

// Target is the editing state validated before a save.
type Target struct {
	Components    []content.ComponentData
	Form          map[string]map[string]any
	Registry      schema.Registry
	Factory       Factory
	DefaultLocale string
}

// Collect validates every schema field of every component and returns all
// violations. The validated value is the form override when present,
// otherwise the stored value resolved to the default locale. Fields whose
// stored type disagrees with the schema are skipped.
func Collect(t Target) []Violation {
	factory := t.Factory
	if factory == nil {
		factory = DefaultFactory
	}
	var out []Violation
	for _, component := range t.Components {
		s, ok := schema.Lookup(t.Registry, component.SchemaName)
		if !ok {
			continue
		}
		form := t.Form[component.ID]
		effective := make(map[string]any, len(s.DataFields()))
		for _, field := range s.DataFields() {
			effective[field.Name] = EffectiveValue(component, form, field.Name, t.DefaultLocale)
		}
		for _, field := range s.DataFields() {
			if Mismatched(component, form, field, t.DefaultLocale) {
				continue
			}
			out = append(out, validateField(component.ID, field.Name, field, effective[field.Name], effective, factory, t.DefaultLocale)...)
		}
	}
	return out
}

// Mismatched reports a field whose stored type disagrees with the schema and
// whose value was not edited. Such values are preserved untouched and not
// validated.
func Mismatched(component content.ComponentData, form map[string]any, field schema.Field, defaultLocale string) bool {
	stored, exists := component.Data[field.Name]
	if !exists || !schema.TypeMismatch(&field, stored.Type) {
		return false
	}
	value, overridden := form[field.Name]
	return !overridden || changes.Equal(value, stored.Resolve(defaultLocale, defaultLocale))
}

// EffectiveValue is the value a save would validate for a field.
func EffectiveValue(component content.ComponentData, form map[string]any, field, defaultLocale string) any {
	if value, ok := form[field]; ok {
		return value
	}
	return component.Data[field].Resolve(defaultLocale, defaultLocale)
}

func validateField(componentID, path string, field schema.Field, value any, siblings map[string]any, factory Factory, defaultLocale string) []Violation {
	var out []Violation
	if v := factory(field, siblings); v != nil {
		if err := v.Validate(value); err != nil {
			out = append(out, Violation{ComponentID: componentID, FieldPath: path, Message: err.Error()})
		}
	}
	if field.Type != schema.TypeRepeater {
		return out
	}
	items, _ := value.([]any)
	children := schema.DataFields(field.Fields)
	for i, raw := range items {
		item, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		resolved := make(map[string]any, len(children))
		for _, child := range children {
			childValue := item[child.Name]
			if m, ok := childValue.(map[string]any); ok && child.Translatable && content.IsLocaleMap(m) {
				childValue = content.ResolveLocale(m, defaultLocale, defaultLocale)
			}
			resolved[child.Name] = childValue
		}
		itemPath := path + "." + strconv.Itoa(i)
		for _, child := range children {
			out = append(out, validateField(componentID, itemPath+"."+child.Name, child, resolved[child.Name], resolved, factory, defaultLocale)...)
		}
	}
	return out
}
