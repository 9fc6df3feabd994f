package audit

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryRecorderBoundsAndCopies(t *testing.T) {
	recorder := NewMemoryRecorder(2)
	ctx := context.Background()
	meta := map[string]any{"components": 1}
	for _, action := range []string{ActionDraftPersisted, ActionDraftPersistFailed, ActionDocumentSaved} {
		if err := recorder.Record(ctx, Event{DocumentKey: "home", Action: action, Metadata: meta}); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}
	meta["components"] = 99

	actions := recorder.Actions()
	if len(actions) != 2 || actions[0] != ActionDraftPersistFailed || actions[1] != ActionDocumentSaved {
		t.Fatalf("expected oldest event dropped, got %v", actions)
	}
	if recorder.Events()[0].Metadata["components"] != 1 {
		t.Fatalf("expected metadata to be copied")
	}
	if err := recorder.Clear(ctx); err != nil || len(recorder.Events()) != 0 {
		t.Fatalf("expected cleared recorder, got %v", err)
	}
}

func TestMemoryRecorderFail(t *testing.T) {
	recorder := NewMemoryRecorder(0)
	boom := errors.New("boom")
	recorder.Fail(boom)
	if err := recorder.Record(context.Background(), Event{}); !errors.Is(err, boom) {
		t.Fatalf("expected configured error, got %v", err)
	}
}
