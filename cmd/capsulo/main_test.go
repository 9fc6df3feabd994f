package main

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/goliatone/go-capsulo"
	"github.com/goliatone/go-capsulo/internal/drafts"
	"github.com/goliatone/go-capsulo/internal/editor"
	"github.com/goliatone/go-capsulo/internal/schema"
)

func stubModule(t *testing.T) (*drafts.MemoryStore, *editor.MemoryRemote) {
	t.Helper()
	store := drafts.NewMemoryStore()
	remote := editor.NewMemoryRemote()
	original := moduleBuilder
	t.Cleanup(func() { moduleBuilder = original })
	moduleBuilder = func(cfg capsulo.Config) (*capsulo.Module, error) {
		return capsulo.New(cfg,
			capsulo.WithDraftStore(store),
			capsulo.WithRemote(remote),
			capsulo.WithSchemas(capsulo.Schema{Name: "Hero", Fields: []capsulo.Field{
				{Name: "title", Type: schema.TypeInput},
				{Name: "layout", Type: schema.TypeLayout, Fields: []capsulo.Field{
					{Name: "subtitle", Type: schema.TypeTextarea},
				}},
			}}),
		)
	}
	return store, remote
}

func heroDoc(title string) *capsulo.Document {
	return &capsulo.Document{Components: []capsulo.ComponentData{
		{ID: "hero-0", SchemaName: "Hero", Data: map[string]capsulo.FieldValue{
			"title": {Type: schema.TypeInput, Value: title},
		}},
	}}
}

func TestDraftsStatusShowAndClear(t *testing.T) {
	store, remote := stubModule(t)
	ctx := context.Background()
	remote.Put("home", heroDoc("Hello"))

	var out bytes.Buffer
	if err := run([]string{"drafts", "status", "-key", "home"}, &out); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "home: no draft") {
		t.Fatalf("unexpected status output %q", out.String())
	}

	if err := store.Set(ctx, "home", heroDoc("Hi")); err != nil {
		t.Fatalf("Set: %v", err)
	}
	out.Reset()
	if err := run([]string{"drafts", "status", "-key", "home"}, &out); err != nil {
		t.Fatalf("status: %v", err)
	}
	if !strings.Contains(out.String(), "unpublished changes") {
		t.Fatalf("expected unpublished changes, got %q", out.String())
	}

	out.Reset()
	if err := run([]string{"drafts", "show", "-key", "home"}, &out); err != nil {
		t.Fatalf("show: %v", err)
	}
	if !strings.Contains(out.String(), `"schemaName": "Hero"`) {
		t.Fatalf("expected draft json, got %q", out.String())
	}

	out.Reset()
	if err := run([]string{"drafts", "list"}, &out); err != nil {
		t.Fatalf("list: %v", err)
	}
	if strings.TrimSpace(out.String()) != "home" {
		t.Fatalf("expected one key, got %q", out.String())
	}

	if err := run([]string{"drafts", "clear", "-key", "home"}, &out); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if doc, _ := store.Get(ctx, "home"); doc != nil {
		t.Fatalf("expected draft to be cleared")
	}
}

func TestDraftsRequireKey(t *testing.T) {
	stubModule(t)
	var out bytes.Buffer
	err := run([]string{"drafts", "show"}, &out)
	if err == nil || !strings.Contains(err.Error(), "-key is required") {
		t.Fatalf("expected missing key error, got %v", err)
	}
}

func TestSchemasList(t *testing.T) {
	stubModule(t)
	var out bytes.Buffer
	if err := run([]string{"schemas", "list"}, &out); err != nil {
		t.Fatalf("schemas list: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	if len(lines) != 2 || !strings.HasPrefix(lines[1], "Hero") || !strings.HasSuffix(lines[1], "2") {
		t.Fatalf("unexpected schemas output %q", out.String())
	}
}

func TestHistoryRequiresGitRepo(t *testing.T) {
	stubModule(t)
	var out bytes.Buffer
	err := run([]string{"history", "-key", "home"}, &out)
	if err == nil || !strings.Contains(err.Error(), "requires -git-repo") {
		t.Fatalf("expected git requirement error, got %v", err)
	}
}

func TestSplitLocales(t *testing.T) {
	got := splitLocales(" fr, en ,,de", "en")
	if strings.Join(got, ",") != "en,fr,de" {
		t.Fatalf("unexpected locales %v", got)
	}
}

func TestUnknownCommand(t *testing.T) {
	if err := run([]string{"publish"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected unknown command error")
	}
}
