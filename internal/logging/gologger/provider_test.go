package gologger

import (
	"context"
	"testing"

	glog "github.com/goliatone/go-logger/glog"
)

func TestNewProviderCreatesLogger(t *testing.T) {
	p, err := NewProvider(Config{Level: "debug", Format: "console", Focus: []string{" ", "capsulo.editor"}})
	if err != nil {
		t.Fatalf("NewProvider returned error: %v", err)
	}

	logger := p.GetLogger("capsulo.editor")
	if logger == nil {
		t.Fatal("expected logger, got nil")
	}
	logger.WithFields(map[string]any{"module": "capsulo.editor"}).Debug("adapter.initialised")
}

func TestNewProviderRejectsUnknownFormat(t *testing.T) {
	if _, err := NewProvider(Config{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestAdapterDelegatesToUnderlyingLogger(t *testing.T) {
	stub := &stubLogger{}
	adapted := adapt(stub)

	adapted.Trace("trace", "key", "value")
	adapted.Debug("debug")
	adapted.Info("info")
	adapted.Warn("warn")
	adapted.Error("error")
	adapted.Fatal("fatal")

	fields := map[string]any{"component_id": "hero-0"}
	adapted.(adapter).WithFields(fields)
	fields["component_id"] = "mutated"
	if len(stub.fields) != 1 || stub.fields[0]["component_id"] != "hero-0" {
		t.Fatalf("expected cloned fields, got %v", stub.fields)
	}

	ctx := context.WithValue(context.Background(), struct{}{}, "value")
	adapted.WithContext(ctx)
	if len(stub.contexts) != 1 || stub.contexts[0] != ctx {
		t.Fatalf("expected context propagation, got %#v", stub.contexts)
	}

	want := []string{"trace", "debug", "info", "warn", "error", "fatal"}
	if len(stub.calls) != len(want) {
		t.Fatalf("expected %d calls, got %v", len(want), stub.calls)
	}
	for i := range want {
		if stub.calls[i] != want[i] {
			t.Fatalf("call %d: expected %q, got %q", i, want[i], stub.calls[i])
		}
	}
}

func TestNilProviderReturnsNoOp(t *testing.T) {
	var p *Provider
	p.GetLogger("anything").Info("dropped")
}

type stubLogger struct {
	calls    []string
	fields   []map[string]any
	contexts []context.Context
}

var (
	_ glog.Logger       = (*stubLogger)(nil)
	_ glog.FieldsLogger = (*stubLogger)(nil)
)

func (s *stubLogger) Trace(string, ...any) { s.calls = append(s.calls, "trace") }
func (s *stubLogger) Debug(string, ...any) { s.calls = append(s.calls, "debug") }
func (s *stubLogger) Info(string, ...any)  { s.calls = append(s.calls, "info") }
func (s *stubLogger) Warn(string, ...any)  { s.calls = append(s.calls, "warn") }
func (s *stubLogger) Error(string, ...any) { s.calls = append(s.calls, "error") }
func (s *stubLogger) Fatal(string, ...any) { s.calls = append(s.calls, "fatal") }

func (s *stubLogger) WithContext(ctx context.Context) glog.Logger {
	s.contexts = append(s.contexts, ctx)
	return s
}

func (s *stubLogger) WithFields(fields map[string]any) glog.Logger {
	s.fields = append(s.fields, fields)
	return s
}
