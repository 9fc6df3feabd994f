package capsulo_test

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-capsulo"
	"github.com/goliatone/go-capsulo/internal/editor"
	"github.com/goliatone/go-capsulo/internal/schema"
)

func TestModuleSavesThroughRemote(t *testing.T) {
	remote := editor.NewMemoryRemote()
	remote.Put("home", &capsulo.Document{Components: []capsulo.ComponentData{
		{ID: "cta-0", SchemaName: "CTA", Data: map[string]capsulo.FieldValue{
			"label": {Type: schema.TypeInput, Value: "Start"},
		}},
	}})

	cfg := capsulo.DefaultConfig()
	cfg.Locales = []string{"en", "es"}
	module, err := capsulo.New(cfg,
		capsulo.WithRemote(remote),
		capsulo.WithSchemas(capsulo.Schema{Name: "CTA", Fields: []capsulo.Field{
			{Name: "label", Type: schema.TypeInput, Required: true},
		}}),
	)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer module.Close()

	if len(module.Schemas()) != 1 {
		t.Fatalf("expected one registered schema")
	}

	ctx := context.Background()
	session := module.NewSession()
	defer session.Close()
	if err := session.LoadPage(ctx, "home"); err != nil {
		t.Fatalf("LoadPage: %v", err)
	}

	if err := session.SetField("cta-0", "label", ""); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	_, err = session.Save(ctx)
	var invalid *capsulo.ValidationError
	if !errors.As(err, &invalid) || len(invalid.Violations) != 1 {
		t.Fatalf("expected one violation, got %v", err)
	}
	if remote.Saves() != 0 {
		t.Fatalf("expected no publish on invalid save")
	}

	if err := session.SetTranslation("es", "cta-0", "label", "Empezar"); err != nil {
		t.Fatalf("SetTranslation: %v", err)
	}
	if err := session.SetField("cta-0", "label", "Begin"); err != nil {
		t.Fatalf("SetField: %v", err)
	}
	doc, err := session.Save(ctx)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	label := doc.Components[0].Data["label"]
	values, ok := label.Value.(map[string]any)
	if !ok || values["en"] != "Begin" || values["es"] != "Empezar" || !label.Translatable {
		t.Fatalf("expected translated label, got %#v", label)
	}
	if draft, _ := module.Drafts().Get(ctx, "home"); draft != nil {
		t.Fatalf("expected no draft after save")
	}
}
