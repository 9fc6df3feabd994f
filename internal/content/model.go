package content

import (
	"encoding/json"
	"maps"
	"slices"

	"github.com/goliatone/go-capsulo/internal/schema"
)

// GlobalsKey is the reserved draft key for site-wide components.
const GlobalsKey = "globals"

// FieldValue is a stored field: a type tag, the translatable flag and the
// value. Translatable values hold a sparse locale map.
type FieldValue struct {
	Type         schema.FieldType `json:"type"`
	Translatable bool             `json:"translatable,omitempty"`
	Value        any              `json:"value"`
}

// ComponentData is one component instance.
type ComponentData struct {
	ID         string                `json:"id"`
	SchemaName string                `json:"schemaName"`
	Alias      string                `json:"alias,omitempty"`
	Data       map[string]FieldValue `json:"data"`
}

// Document is the ordered component list of a page or of the globals.
type Document struct {
	Components []ComponentData `json:"components"`
}

// Component returns the component with id.
func (d *Document) Component(id string) (*ComponentData, bool) {
	if d == nil {
		return nil, false
	}
	for i := range d.Components {
		if d.Components[i].ID == id {
			return &d.Components[i], true
		}
	}
	return nil, false
}

// IDs returns component ids in document order.
func (d *Document) IDs() []string {
	if d == nil {
		return nil
	}
	out := make([]string, 0, len(d.Components))
	for _, c := range d.Components {
		out = append(out, c.ID)
	}
	return out
}

// Clone returns a deep copy.
func (d *Document) Clone() *Document {
	if d == nil {
		return nil
	}
	out := &Document{Components: make([]ComponentData, 0, len(d.Components))}
	for _, c := range d.Components {
		out.Components = append(out.Components, c.Clone())
	}
	return out
}

// Clone returns a deep copy.
func (c ComponentData) Clone() ComponentData {
	out := c
	out.Data = make(map[string]FieldValue, len(c.Data))
	for name, value := range c.Data {
		out.Data[name] = value.Clone()
	}
	return out
}

// Clone returns a deep copy.
func (v FieldValue) Clone() FieldValue {
	v.Value = CloneValue(v.Value)
	return v
}

// CloneValue deep-copies JSON-like values. Other values are returned as is.
func CloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		out := make(map[string]any, len(typed))
		for k, v := range typed {
			out[k] = CloneValue(v)
		}
		return out
	case []any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = CloneValue(v)
		}
		return out
	case []map[string]any:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = CloneValue(v)
		}
		return out
	case []string:
		out := make([]any, len(typed))
		for i, v := range typed {
			out[i] = v
		}
		return out
	default:
		return value
	}
}

// CloneMap deep-copies a flat form map.
func CloneMap(values map[string]any) map[string]any {
	if values == nil {
		return nil
	}
	out := make(map[string]any, len(values))
	for k, v := range values {
		out[k] = CloneValue(v)
	}
	return out
}

// Decode parses a JSON document. An empty payload yields an empty document.
func Decode(raw []byte) (*Document, error) {
	doc := &Document{}
	if len(raw) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(raw, doc); err != nil {
		return nil, err
	}
	for i := range doc.Components {
		if doc.Components[i].Data == nil {
			doc.Components[i].Data = map[string]FieldValue{}
		}
	}
	return doc, nil
}

// Encode serializes the document as JSON.
func Encode(doc *Document) ([]byte, error) {
	if doc == nil {
		doc = &Document{}
	}
	if doc.Components == nil {
		doc = &Document{Components: []ComponentData{}}
	}
	return json.Marshal(doc)
}

// FieldNames returns the stored field names of the component, sorted.
func (c ComponentData) FieldNames() []string {
	return slices.Sorted(maps.Keys(c.Data))
}
