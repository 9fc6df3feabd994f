package schema

import (
	"fmt"
	"strings"
)

// FieldType is the closed set of component field kinds.
type FieldType string

const (
	TypeInput       FieldType = "input"
	TypeTextarea    FieldType = "textarea"
	TypeSelect      FieldType = "select"
	TypeSwitch      FieldType = "switch"
	TypeRichEditor  FieldType = "richeditor"
	TypeFileUpload  FieldType = "fileUpload"
	TypeRepeater    FieldType = "repeater"
	TypeColorPicker FieldType = "colorPicker"
	TypeDateField   FieldType = "dateField"
	TypeLink        FieldType = "link"
	TypeLayout      FieldType = "layout"
	TypeUnknown     FieldType = "unknown"
)

// MaxDepth bounds repeater and layout nesting.
const MaxDepth = 8

var knownTypes = map[FieldType]struct{}{
	TypeInput: {}, TypeTextarea: {}, TypeSelect: {}, TypeSwitch: {}, TypeRichEditor: {},
	TypeFileUpload: {}, TypeRepeater: {}, TypeColorPicker: {}, TypeDateField: {},
	TypeLink: {}, TypeLayout: {}, TypeUnknown: {},
}

// Known reports whether t belongs to the closed set.
func (t FieldType) Known() bool {
	_, ok := knownTypes[t]
	return ok
}

// Option is a select choice.
type Option struct {
	Label string `json:"label,omitempty" yaml:"label,omitempty"`
	Value string `json:"value" yaml:"value"`
}

// Field describes one schema field. Repeater children describe item fields;
// layout children are data fields of the enclosing level.
type Field struct {
	Name         string    `json:"name" yaml:"name"`
	Type         FieldType `json:"type" yaml:"type"`
	Label        string    `json:"label,omitempty" yaml:"label,omitempty"`
	Translatable bool      `json:"translatable,omitempty" yaml:"translatable,omitempty"`
	Required     bool      `json:"required,omitempty" yaml:"required,omitempty"`
	Default      any       `json:"default,omitempty" yaml:"default,omitempty"`
	MinLength    int       `json:"minLength,omitempty" yaml:"minLength,omitempty"`
	MaxLength    int       `json:"maxLength,omitempty" yaml:"maxLength,omitempty"`
	Pattern      string    `json:"pattern,omitempty" yaml:"pattern,omitempty"`
	Options      []Option  `json:"options,omitempty" yaml:"options,omitempty"`
	Multiple     bool      `json:"multiple,omitempty" yaml:"multiple,omitempty"`
	MinItems     int       `json:"minItems,omitempty" yaml:"minItems,omitempty"`
	MaxItems     int       `json:"maxItems,omitempty" yaml:"maxItems,omitempty"`
	MaxFiles     int       `json:"maxFiles,omitempty" yaml:"maxFiles,omitempty"`
	Fields       []Field   `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// IsLayout reports whether the field is a transparent container.
func (f Field) IsLayout() bool {
	return f.Type == TypeLayout
}

// OptionValues returns the declared select values in order.
func (f Field) OptionValues() []string {
	out := make([]string, 0, len(f.Options))
	for _, opt := range f.Options {
		out = append(out, opt.Value)
	}
	return out
}

// Schema is a named component definition.
type Schema struct {
	Name   string  `json:"name" yaml:"name"`
	Key    string  `json:"key,omitempty" yaml:"key,omitempty"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// DataFields returns the fields holding data at the schema's top level with
// layouts flattened away.
func (s Schema) DataFields() []Field {
	return DataFields(s.Fields)
}

// Field looks up a data field by name, descending through layouts.
func (s Schema) Field(name string) (Field, bool) {
	return Find(s.Fields, name)
}

// DataFields flattens layout containers so the result lists every field that
// owns a value at this level. Order is preserved.
func DataFields(fields []Field) []Field {
	out := make([]Field, 0, len(fields))
	for _, field := range fields {
		if field.IsLayout() {
			out = append(out, DataFields(field.Fields)...)
			continue
		}
		out = append(out, field)
	}
	return out
}

// Find returns the data field called name at this level.
func Find(fields []Field, name string) (Field, bool) {
	for _, field := range DataFields(fields) {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}

// Path pairs a field with its dot-joined location relative to the component.
type Path struct {
	Path  string
	Field Field
}

// Flatten lists every data field with its path. Repeater children are listed
// with a "[]" segment, e.g. "items.[].title".
func Flatten(fields []Field) []Path {
	var out []Path
	var walk func(prefix string, fields []Field)
	walk = func(prefix string, fields []Field) {
		for _, field := range DataFields(fields) {
			path := joinPath(prefix, field.Name)
			out = append(out, Path{Path: path, Field: field})
			if field.Type == TypeRepeater {
				walk(joinPath(path, "[]"), field.Fields)
			}
		}
	}
	walk("", fields)
	return out
}

func joinPath(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

// Check validates the field tree: names present and unique among siblings,
// types known and nesting bounded.
func Check(fields []Field) error {
	return check(fields, 0)
}

func check(fields []Field, depth int) error {
	if depth > MaxDepth {
		return ErrNestingTooDeep
	}
	seen := map[string]struct{}{}
	for _, field := range DataFields(fields) {
		name := strings.TrimSpace(field.Name)
		if name == "" {
			return ErrFieldNameRequired
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %s", ErrDuplicateField, name)
		}
		seen[name] = struct{}{}
		if !field.Type.Known() {
			return fmt.Errorf("%w: %s (%s)", ErrUnknownFieldType, field.Type, name)
		}
		if field.Type == TypeRepeater {
			if err := check(field.Fields, depth+1); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}
	}
	for _, field := range fields {
		if field.IsLayout() {
			if err := checkLayoutDepth(field.Fields, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func checkLayoutDepth(fields []Field, depth int) error {
	if depth > MaxDepth {
		return ErrNestingTooDeep
	}
	for _, field := range fields {
		if field.IsLayout() {
			if err := checkLayoutDepth(field.Fields, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}
