package drafts

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/goliatone/go-capsulo/internal/content"
)

// MemoryStore keeps encoded drafts in process memory. Documents are stored
// encoded so callers never share state with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	drafts map[string][]byte
	*broadcaster
}

var (
	_ Store  = (*MemoryStore)(nil)
	_ Lister = (*MemoryStore)(nil)
)

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		drafts:      map[string][]byte{},
		broadcaster: newBroadcaster(),
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) (*content.Document, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	s.mu.RLock()
	raw, ok := s.drafts[key]
	s.mu.RUnlock()
	if !ok {
		return nil, nil
	}
	return decode(key, raw)
}

func (s *MemoryStore) Set(_ context.Context, key string, doc *content.Document) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.drafts[key] = raw
	s.mu.Unlock()
	s.publish(key, ActionSet)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	s.mu.Lock()
	_, existed := s.drafts[key]
	delete(s.drafts, key)
	s.mu.Unlock()
	if existed {
		s.publish(key, ActionDelete)
	}
	return nil
}

func (s *MemoryStore) Keys(context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.drafts)), nil
}

// PutRaw stores raw bytes without validation. It exists for tests that
// need a corrupt draft.
func (s *MemoryStore) PutRaw(key string, raw []byte) {
	s.mu.Lock()
	s.drafts[key] = slices.Clone(raw)
	s.mu.Unlock()
}
