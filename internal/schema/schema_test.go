package schema

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func heroSchema() Schema {
	return Schema{
		Name: "Hero",
		Fields: []Field{
			{Name: "title", Type: TypeInput, Translatable: true, Required: true},
			{Type: TypeLayout, Fields: []Field{
				{Name: "subtitle", Type: TypeTextarea},
				{Type: TypeLayout, Fields: []Field{{Name: "background", Type: TypeColorPicker}}},
			}},
			{Name: "items", Type: TypeRepeater, Fields: []Field{
				{Name: "title", Type: TypeInput},
				{Name: "image", Type: TypeFileUpload},
			}},
		},
	}
}

func TestDataFieldsFlattensLayouts(t *testing.T) {
	fields := heroSchema().DataFields()
	var names []string
	for _, f := range fields {
		names = append(names, f.Name)
	}
	want := []string{"title", "subtitle", "background", "items"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestFlattenListsRepeaterChildren(t *testing.T) {
	paths := Flatten(heroSchema().Fields)
	got := map[string]FieldType{}
	for _, p := range paths {
		got[p.Path] = p.Field.Type
	}
	if got["items.[].title"] != TypeInput || got["items.[].image"] != TypeFileUpload {
		t.Fatalf("expected repeater children paths, got %v", got)
	}
	if got["background"] != TypeColorPicker {
		t.Fatalf("expected layout child at top level, got %v", got)
	}
}

func TestResolveTypePrecedence(t *testing.T) {
	def := &Field{Name: "title", Type: TypeTextarea}
	cases := []struct {
		name   string
		def    *Field
		stored FieldType
		want   FieldType
	}{
		{"schema wins over stale stored type", def, TypeInput, TypeTextarea},
		{"stored type without schema", nil, TypeSelect, TypeSelect},
		{"neither", nil, "", TypeUnknown},
		{"schema without stored", def, "", TypeTextarea},
	}
	for _, tc := range cases {
		if got := ResolveType(tc.def, tc.stored); got != tc.want {
			t.Fatalf("%s: expected %s, got %s", tc.name, tc.want, got)
		}
	}
}

func TestTypeMismatch(t *testing.T) {
	def := &Field{Name: "items", Type: TypeRepeater}
	if !TypeMismatch(def, TypeInput) {
		t.Fatalf("expected mismatch between repeater and input")
	}
	if TypeMismatch(def, TypeRepeater) || TypeMismatch(def, "") || TypeMismatch(nil, TypeInput) || TypeMismatch(def, TypeUnknown) {
		t.Fatalf("unexpected mismatch")
	}
}

func TestDefaultValue(t *testing.T) {
	if DefaultValue(Field{Type: TypeInput}) != "" {
		t.Fatalf("expected empty string default for input")
	}
	if DefaultValue(Field{Type: TypeSwitch}) != false {
		t.Fatalf("expected false default for switch")
	}
	if DefaultValue(Field{Type: TypeInput, Default: "hi"}) != "hi" {
		t.Fatalf("expected declared default to win")
	}
	files, ok := DefaultValue(Field{Type: TypeFileUpload}).(map[string]any)
	if !ok || files["files"] == nil {
		t.Fatalf("expected files envelope, got %#v", files)
	}
}

func TestRegistryRegistersAndDerivesKey(t *testing.T) {
	registry, err := NewMemoryRegistry(heroSchema())
	if err != nil {
		t.Fatalf("NewMemoryRegistry: %v", err)
	}
	byKey, ok := registry.GetByKey("hero")
	if !ok || byKey.Name != "Hero" {
		t.Fatalf("expected lookup by derived key, got %+v %v", byKey, ok)
	}
	if _, ok := Lookup(registry, "Hero"); !ok {
		t.Fatalf("expected lookup by name")
	}
	if _, ok := registry.Get("Missing"); ok {
		t.Fatalf("unexpected schema")
	}
}

func TestRegistryRejectsInvalidSchemas(t *testing.T) {
	cases := []struct {
		schema Schema
		want   error
	}{
		{Schema{}, ErrSchemaNameRequired},
		{Schema{Name: "A", Fields: []Field{{Name: "x", Type: TypeInput}, {Name: "x", Type: TypeTextarea}}}, ErrDuplicateField},
		{Schema{Name: "A", Fields: []Field{{Name: "x", Type: "slider"}}}, ErrUnknownFieldType},
		{Schema{Name: "A", Fields: []Field{{Type: TypeInput}}}, ErrFieldNameRequired},
		{Schema{Name: "A", Fields: []Field{{Name: "x", Type: TypeInput}, {Type: TypeLayout, Fields: []Field{{Name: "x", Type: TypeInput}}}}}, ErrDuplicateField},
	}
	registry := &MemoryRegistry{}
	for _, tc := range cases {
		if err := registry.Register(tc.schema); !errors.Is(err, tc.want) {
			t.Fatalf("expected %v, got %v", tc.want, err)
		}
	}
}

func TestRegistryReplaceIsAtomic(t *testing.T) {
	registry, err := NewMemoryRegistry(heroSchema())
	if err != nil {
		t.Fatalf("NewMemoryRegistry: %v", err)
	}
	err = registry.Replace([]Schema{{Name: "Cta"}, {Name: ""}})
	if !errors.Is(err, ErrSchemaNameRequired) {
		t.Fatalf("expected ErrSchemaNameRequired, got %v", err)
	}
	if _, ok := registry.Get("Hero"); !ok {
		t.Fatalf("expected failed Replace to keep previous contents")
	}
}

const heroYAML = `
name: Hero
fields:
  - name: title
    type: input
    translatable: true
    required: true
  - name: variant
    type: select
    options:
      - value: light
      - value: dark
`

func TestLoadDirReadsYAMLAndJSON(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hero.yaml"), heroYAML)
	writeFile(t, filepath.Join(dir, "cta.json"), `{"fields":[{"name":"label","type":"input"}]}`)
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	schemas, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(schemas) != 2 {
		t.Fatalf("expected 2 schemas, got %d", len(schemas))
	}
	if schemas[0].Name != "cta" || schemas[0].Key != "cta" {
		t.Fatalf("expected file name fallback for cta, got %+v", schemas[0])
	}
	variant, ok := schemas[1].Field("variant")
	if !ok || len(variant.OptionValues()) != 2 {
		t.Fatalf("expected select options, got %+v", variant)
	}
}

func TestLoadDirReportsBrokenFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "broken.yaml"), "name: [unterminated")
	if _, err := LoadDir(dir); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestWatcherReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "hero.yaml"), heroYAML)

	registry := &MemoryRegistry{}
	reloaded := make(chan []Schema, 4)
	watcher := NewWatcher(dir, registry,
		WithReloadDelay(10*time.Millisecond),
		WithReloadHook(func(s []Schema) { reloaded <- s }),
	)
	if err := watcher.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	<-reloaded

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- watcher.Run(ctx) }()
	defer func() {
		cancel()
		<-done
	}()

	// give the watcher a moment to register the directory
	time.Sleep(50 * time.Millisecond)
	writeFile(t, filepath.Join(dir, "cta.yaml"), "name: Cta\nfields: []\n")

	select {
	case schemas := <-reloaded:
		if len(schemas) != 2 {
			t.Fatalf("expected 2 schemas after reload, got %d", len(schemas))
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not reload")
	}
	if _, ok := registry.GetByKey("cta"); !ok {
		t.Fatalf("expected registry to contain cta")
	}
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}
