package content

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func sampleDocument() *Document {
	return &Document{Components: []ComponentData{
		{
			ID:         "hero-0",
			SchemaName: "Hero",
			Data: map[string]FieldValue{
				"title": {Type: "input", Translatable: true, Value: map[string]any{"en": "Hello", "fr": "Bonjour"}},
				"items": {Type: "repeater", Value: []any{map[string]any{"_id": "a", "title": "A"}}},
			},
		},
	}}
}

func TestCloneIsDeep(t *testing.T) {
	doc := sampleDocument()
	clone := doc.Clone()

	clone.Components[0].Data["title"].Value.(map[string]any)["en"] = "Changed"
	clone.Components[0].Data["items"].Value.([]any)[0].(map[string]any)["title"] = "Z"

	if doc.Components[0].Data["title"].Value.(map[string]any)["en"] != "Hello" {
		t.Fatalf("expected locale map to be copied")
	}
	if doc.Components[0].Data["items"].Value.([]any)[0].(map[string]any)["title"] != "A" {
		t.Fatalf("expected repeater items to be copied")
	}
}

func TestEncodeDecodeKeepsOrderAndShape(t *testing.T) {
	doc := sampleDocument()
	doc.Components = append(doc.Components, ComponentData{ID: "cta-0", SchemaName: "Cta"})

	raw, err := Encode(doc)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	decoded, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if diff := cmp.Diff([]string{"hero-0", "cta-0"}, decoded.IDs()); diff != "" {
		t.Fatalf("unexpected order (-want +got):\n%s", diff)
	}
	if decoded.Components[1].Data == nil {
		t.Fatalf("expected nil data to decode as empty map")
	}
}

func TestIsLocaleMap(t *testing.T) {
	cases := []struct {
		name  string
		value any
		want  bool
	}{
		{"locale map", map[string]any{"en": "Hi"}, true},
		{"scalar", "Hi", false},
		{"array", []any{"a"}, false},
		{"internal link", map[string]any{"internal": true, "pageId": "about"}, false},
		{"file envelope", map[string]any{"files": []any{}}, false},
	}
	for _, tc := range cases {
		if got := IsLocaleMap(tc.value); got != tc.want {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, got)
		}
	}
}

func TestIsLocaleMapFor(t *testing.T) {
	locales := []string{"en", "fr"}
	if !IsLocaleMapFor(map[string]any{"en": "a", "fr": "b"}, locales) {
		t.Fatalf("expected locale keyed map")
	}
	if IsLocaleMapFor(map[string]any{"en": "a", "title": "b"}, locales) {
		t.Fatalf("expected foreign key to reject")
	}
	if IsLocaleMapFor(map[string]any{}, locales) {
		t.Fatalf("expected empty map to reject")
	}
}

func TestResolveFallsBackToDefault(t *testing.T) {
	value := FieldValue{Type: "input", Translatable: true, Value: map[string]any{"en": "Hello", "fr": ""}}
	if got := value.Resolve("fr", "en"); got != "Hello" {
		t.Fatalf("expected default fallback, got %v", got)
	}
	if got := value.Resolve("de", "en"); got != "Hello" {
		t.Fatalf("expected default fallback for missing locale, got %v", got)
	}
	link := FieldValue{Type: "link", Value: map[string]any{"internal": true, "pageId": "about"}}
	if got, ok := link.Resolve("fr", "en").(map[string]any); !ok || got["pageId"] != "about" {
		t.Fatalf("expected internal link untouched, got %v", got)
	}
}

func TestPopulatedLocales(t *testing.T) {
	got := PopulatedLocales(map[string]any{"fr": "b", "en": "a", "de": "", "it": nil})
	if diff := cmp.Diff([]string{"en", "fr"}, got); diff != "" {
		t.Fatalf("unexpected locales (-want +got):\n%s", diff)
	}
}
