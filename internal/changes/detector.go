package changes

import (
	"slices"
	"sync"

	"github.com/goliatone/go-capsulo/internal/content"
)

// Detector decides whether the editing state differs from what is stored.
// It starts guarded: until Release is called Evaluate reports no changes, so
// hydrating form defaults on load is never mistaken for an edit.
type Detector struct {
	mu            sync.Mutex
	guarded       bool
	defaultLocale string
}

// NewDetector returns a guarded detector.
func NewDetector(defaultLocale string) *Detector {
	return &Detector{guarded: true, defaultLocale: defaultLocale}
}

// Engage turns the hydration guard back on, for a page load.
func (d *Detector) Engage() {
	d.mu.Lock()
	d.guarded = true
	d.mu.Unlock()
}

// Release turns the guard off once a load completed.
func (d *Detector) Release() {
	d.mu.Lock()
	d.guarded = false
	d.mu.Unlock()
}

// Guarded reports whether the hydration guard is on.
func (d *Detector) Guarded() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.guarded
}

// Input is the state inspected by Evaluate. Defaults holds the hydration
// values of fields absent from storage; a form value equal to its default is
// not an edit.
type Input struct {
	Components      []content.ComponentData
	Form            map[string]map[string]any
	Defaults        map[string]map[string]any
	BufferHasValues bool
	Structural      bool
}

// Evaluate returns true when the form differs from storage, the translation
// buffer holds values, or a structural edit (reorder, AI patch) is pending.
func (d *Detector) Evaluate(in Input) bool {
	if d.Guarded() {
		return false
	}
	if in.Structural || in.BufferHasValues {
		return true
	}
	for _, component := range in.Components {
		if len(ChangedFields(component, in.Form[component.ID], in.Defaults[component.ID], d.defaultLocale)) > 0 {
			return true
		}
	}
	return false
}

// ChangedFields lists, sorted, the form fields of a component that differ
// from storage. Fields missing from storage are compared with defaults.
func ChangedFields(component content.ComponentData, form, defaults map[string]any, defaultLocale string) []string {
	var out []string
	for field, formValue := range form {
		stored, ok := component.Data[field]
		if !ok {
			if fallback, hasDefault := defaults[field]; hasDefault && Equal(formValue, fallback) {
				continue
			}
		}
		if !Equal(formValue, stored.Resolve(defaultLocale, defaultLocale)) {
			out = append(out, field)
		}
	}
	slices.Sort(out)
	return out
}

// DocumentsEqual compares documents structurally: component order, ids,
// schema names, aliases, field type tags and normalized values.
func DocumentsEqual(a, b *content.Document) bool {
	if a == nil {
		a = &content.Document{}
	}
	if b == nil {
		b = &content.Document{}
	}
	if len(a.Components) != len(b.Components) {
		return false
	}
	for i := range a.Components {
		left, right := a.Components[i], b.Components[i]
		if left.ID != right.ID || left.SchemaName != right.SchemaName || left.Alias != right.Alias {
			return false
		}
		if !dataEqual(left.Data, right.Data) {
			return false
		}
	}
	return true
}

func dataEqual(a, b map[string]content.FieldValue) bool {
	for name, left := range a {
		right, ok := b[name]
		if !ok {
			if Normalize(left.Value) != nil {
				return false
			}
			continue
		}
		if left.Type != right.Type || !Equal(left.Value, right.Value) {
			return false
		}
	}
	for name, right := range b {
		if _, ok := a[name]; !ok && Normalize(right.Value) != nil {
			return false
		}
	}
	return true
}
