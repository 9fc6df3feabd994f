package audit

import (
	"context"
	"maps"
	"slices"
	"sync"
	"time"
)

// Actions recorded by editing sessions.
const (
	ActionDraftPersisted     = "draft.persisted"
	ActionDraftPersistFailed = "draft.persist_failed"
	ActionDocumentSaved      = "document.saved"
	ActionDocumentSaveFailed = "document.save_failed"
	ActionComponentsPatched  = "components.patched"
	ActionManifestSynced     = "manifest.synced"
)

// Event is one entry of the editing audit trail.
type Event struct {
	DocumentKey string
	Action      string
	OccurredAt  time.Time
	Metadata    map[string]any
}

// Recorder persists audit events.
type Recorder interface {
	Record(ctx context.Context, event Event) error
	List(ctx context.Context) ([]Event, error)
	Clear(ctx context.Context) error
}

// MemoryRecorder keeps events in memory, bounded to Limit entries when set.
type MemoryRecorder struct {
	mu     sync.Mutex
	events []Event
	limit  int
	err    error
}

var _ Recorder = (*MemoryRecorder)(nil)

// NewMemoryRecorder returns a recorder keeping at most limit events; zero
// keeps everything.
func NewMemoryRecorder(limit int) *MemoryRecorder {
	return &MemoryRecorder{limit: limit}
}

func (r *MemoryRecorder) Record(_ context.Context, event Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	event.Metadata = maps.Clone(event.Metadata)
	r.events = append(r.events, event)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = slices.Delete(r.events, 0, len(r.events)-r.limit)
	}
	return nil
}

func (r *MemoryRecorder) List(context.Context) ([]Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(r.events), nil
}

func (r *MemoryRecorder) Clear(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	return nil
}

// Events returns a snapshot of the recorded events.
func (r *MemoryRecorder) Events() []Event {
	events, _ := r.List(context.Background())
	return events
}

// Actions returns the recorded action names in order.
func (r *MemoryRecorder) Actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Action)
	}
	return out
}

// Fail makes subsequent Record calls return err.
func (r *MemoryRecorder) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}

// Noop discards every event.
type Noop struct{}

func (Noop) Record(context.Context, Event) error    { return nil }
func (Noop) List(context.Context) ([]Event, error) { return nil, nil }
func (Noop) Clear(context.Context) error           { return nil }
