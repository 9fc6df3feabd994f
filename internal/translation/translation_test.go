package translation

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/schema"
)

func heroRegistry(t *testing.T) schema.Registry {
	t.Helper()
	registry, err := schema.NewMemoryRegistry(schema.Schema{
		Name: "Hero",
		Fields: []schema.Field{
			{Name: "title", Type: schema.TypeInput, Translatable: true},
			{Name: "subtitle", Type: schema.TypeTextarea},
			{Name: "image", Type: schema.TypeFileUpload},
		},
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return registry
}

func TestMergePromotesScalar(t *testing.T) {
	got := Merge(MergeInput{
		Existing:      &content.FieldValue{Type: schema.TypeInput, Value: "Hello"},
		Current:       "Hello",
		Locale:        "fr",
		DefaultLocale: "en",
		Value:         "Bonjour",
	})
	want := content.FieldValue{Type: schema.TypeInput, Translatable: true, Value: map[string]any{"en": "Hello", "fr": "Bonjour"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestMergeShallowMergesLocaleMap(t *testing.T) {
	current := map[string]any{"en": "Hello", "de": "Hallo"}
	got := Merge(MergeInput{Current: current, Locale: "fr", DefaultLocale: "en", Value: "Bonjour"})
	want := map[string]any{"en": "Hello", "de": "Hallo", "fr": "Bonjour"}
	if diff := cmp.Diff(want, got.Value); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}
	if len(current) != 2 {
		t.Fatalf("expected input map untouched, got %v", current)
	}
	if got.Type != schema.TypeUnknown {
		t.Fatalf("expected unknown type without schema or stored type, got %s", got.Type)
	}
}

func TestMergeIsIdempotent(t *testing.T) {
	in := MergeInput{Current: "Hello", Locale: "fr", DefaultLocale: "en", Value: "Bonjour"}
	once := Merge(in)
	in.Current = once.Value
	twice := Merge(in)
	if diff := cmp.Diff(once, twice); diff != "" {
		t.Fatalf("expected idempotent merge (-once +twice):\n%s", diff)
	}
}

func TestMergeDoesNotTreatInternalLinkAsLocaleMap(t *testing.T) {
	link := map[string]any{"internal": true, "pageId": "about"}
	got := Merge(MergeInput{Current: link, Locale: "fr", DefaultLocale: "en", Value: map[string]any{"internal": true, "pageId": "a-propos"}})
	value := got.Value.(map[string]any)
	if diff := cmp.Diff(link, value["en"]); diff != "" {
		t.Fatalf("expected link promoted under default locale (-want +got):\n%s", diff)
	}
}

func TestMergeSchemaTypeWinsOverStoredType(t *testing.T) {
	got := Merge(MergeInput{
		Existing:      &content.FieldValue{Type: schema.TypeInput, Value: "x"},
		Def:           &schema.Field{Name: "body", Type: schema.TypeRichEditor},
		Current:       "x",
		Locale:        "fr",
		DefaultLocale: "en",
		Value:         "y",
	})
	if got.Type != schema.TypeRichEditor {
		t.Fatalf("expected schema type, got %s", got.Type)
	}
}

func TestApplyOverrideKeepsOtherLocales(t *testing.T) {
	existing := &content.FieldValue{Type: schema.TypeInput, Translatable: true, Value: map[string]any{"en": "Hello", "fr": "Bonjour"}}
	got := ApplyOverride(existing, nil, "Hi", "en")
	want := map[string]any{"en": "Hi", "fr": "Bonjour"}
	if diff := cmp.Diff(want, got.Value); diff != "" {
		t.Fatalf("unexpected override (-want +got):\n%s", diff)
	}

	scalar := ApplyOverride(&content.FieldValue{Type: schema.TypeTextarea, Value: "old"}, nil, "new", "en")
	if scalar.Value != "new" || scalar.Translatable {
		t.Fatalf("expected scalar replacement, got %+v", scalar)
	}
}

func TestApplyAppliesFormBeforeTranslations(t *testing.T) {
	doc := &content.Document{Components: []content.ComponentData{{
		ID:         "hero-0",
		SchemaName: "Hero",
		Data: map[string]content.FieldValue{
			"title": {Type: schema.TypeInput, Value: "Hi"},
		},
	}}}
	buffer := NewBuffer()
	buffer.Set("fr", "hero-0", "title", "Bonjour")

	got, skipped := Apply(doc, Edits{
		Form:          map[string]map[string]any{"hero-0": {"title": "Hello"}},
		Buffer:        buffer,
		Registry:      heroRegistry(t),
		DefaultLocale: "en",
	})
	if len(skipped) != 0 {
		t.Fatalf("unexpected skipped entries %v", skipped)
	}
	want := map[string]any{"en": "Hello", "fr": "Bonjour"}
	if diff := cmp.Diff(want, got.Components[0].Data["title"].Value); diff != "" {
		t.Fatalf("expected form edit and translation to both survive (-want +got):\n%s", diff)
	}
	if doc.Components[0].Data["title"].Value != "Hi" {
		t.Fatalf("expected input document untouched")
	}
}

func TestMergePromotesPlainObject(t *testing.T) {
	body := map[string]any{"root": map[string]any{"children": []any{"Hello"}}}
	got := Merge(MergeInput{
		Existing:      &content.FieldValue{Type: schema.TypeRichEditor, Value: body},
		Def:           &schema.Field{Name: "body", Type: schema.TypeRichEditor},
		Current:       body,
		Locale:        "fr",
		DefaultLocale: "en",
		Locales:       []string{"en", "fr"},
		Value:         "Bonjour",
	})
	want := content.FieldValue{Type: schema.TypeRichEditor, Translatable: true, Value: map[string]any{"en": body, "fr": "Bonjour"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("expected object promoted under default locale (-want +got):\n%s", diff)
	}
}

func TestMergeKeepsTranslatableMapWithoutDefaultLocale(t *testing.T) {
	current := map[string]any{"de": "Hallo"}
	got := Merge(MergeInput{
		Existing:      &content.FieldValue{Type: schema.TypeInput, Translatable: true, Value: current},
		Current:       current,
		Locale:        "fr",
		DefaultLocale: "en",
		Value:         "Bonjour",
	})
	want := map[string]any{"de": "Hallo", "fr": "Bonjour"}
	if diff := cmp.Diff(want, got.Value); diff != "" {
		t.Fatalf("unexpected merge (-want +got):\n%s", diff)
	}
}

func TestApplyLeavesUntouchedMismatchedField(t *testing.T) {
	stored := content.FieldValue{Type: schema.TypeSelect, Value: 42.0}
	doc := &content.Document{Components: []content.ComponentData{{
		ID:         "hero-0",
		SchemaName: "Hero",
		Data:       map[string]content.FieldValue{"subtitle": stored},
	}}}

	got, _ := Apply(doc, Edits{
		Form:          map[string]map[string]any{"hero-0": {"subtitle": 42.0}},
		Registry:      heroRegistry(t),
		DefaultLocale: "en",
	})
	if diff := cmp.Diff(stored, got.Components[0].Data["subtitle"]); diff != "" {
		t.Fatalf("expected stored tag kept (-want +got):\n%s", diff)
	}

	got, _ = Apply(doc, Edits{
		Form:          map[string]map[string]any{"hero-0": {"subtitle": "Edited"}},
		Registry:      heroRegistry(t),
		DefaultLocale: "en",
	})
	want := content.FieldValue{Type: schema.TypeTextarea, Value: "Edited"}
	if diff := cmp.Diff(want, got.Components[0].Data["subtitle"]); diff != "" {
		t.Fatalf("expected edit to take the schema type (-want +got):\n%s", diff)
	}
}

func TestApplySkipsFileUploadTranslations(t *testing.T) {
	files := map[string]any{"files": []any{map[string]any{"url": "/a.png"}}}
	doc := &content.Document{Components: []content.ComponentData{{
		ID:         "hero-0",
		SchemaName: "Hero",
		Data:       map[string]content.FieldValue{"image": {Type: schema.TypeFileUpload, Value: files}},
	}}}
	buffer := NewBuffer()
	buffer.Set("fr", "hero-0", "image", map[string]any{"files": []any{}})

	got, skipped := Apply(doc, Edits{Buffer: buffer, Registry: heroRegistry(t), DefaultLocale: "en"})
	if len(skipped) != 1 || skipped[0].Field != "image" {
		t.Fatalf("expected image translation skipped, got %v", skipped)
	}
	if diff := cmp.Diff(files, got.Components[0].Data["image"].Value); diff != "" {
		t.Fatalf("expected files untouched (-want +got):\n%s", diff)
	}
}

func TestBuffer(t *testing.T) {
	b := NewBuffer()
	if b.HasValues() {
		t.Fatalf("expected empty buffer")
	}
	b.Set("fr", "hero-0", "title", nil)
	if b.HasValues() {
		t.Fatalf("expected nil entries to be ignored")
	}
	b.Set("fr", "hero-0", "title", "Bonjour")
	b.Set("de", "cta-0", "label", "Los")
	if !b.HasValues() {
		t.Fatalf("expected buffered value")
	}
	if diff := cmp.Diff([]string{"de", "fr"}, b.Locales()); diff != "" {
		t.Fatalf("unexpected locales (-want +got):\n%s", diff)
	}
	fields := b.Fields("de", "cta-0")
	b.DropComponent("cta-0")
	if _, ok := b.Get("de", "cta-0", "label"); ok {
		t.Fatalf("expected component entries dropped")
	}
	if fields["label"] != "Los" {
		t.Fatalf("expected returned fields to be independent")
	}
	b.Clear()
	if b.HasValues() || len(b.Locales()) != 0 {
		t.Fatalf("expected cleared buffer")
	}
}
