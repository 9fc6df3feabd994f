package editor

import (
	"context"
	"sync"

	"github.com/goliatone/go-capsulo/internal/content"
)

// Publisher receives documents on explicit save. Implementations commit
// them to the content repository.
type Publisher interface {
	SavePage(ctx context.Context, pageID string, doc *content.Document) error
	SaveGlobals(ctx context.Context, doc *content.Document) error
}

// BaselineSource returns the last published document for a key, or nil
// when the key was never published.
type BaselineSource interface {
	LoadBaseline(ctx context.Context, key string) (*content.Document, error)
}

// Remote is a publisher that also serves baselines.
type Remote interface {
	Publisher
	BaselineSource
}

// MemoryRemote keeps published documents in memory.
type MemoryRemote struct {
	mu    sync.RWMutex
	docs  map[string]*content.Document
	saves int
	err   error
}

var _ Remote = (*MemoryRemote)(nil)

// NewMemoryRemote returns an empty in-memory remote.
func NewMemoryRemote() *MemoryRemote {
	return &MemoryRemote{docs: map[string]*content.Document{}}
}

func (r *MemoryRemote) SavePage(ctx context.Context, pageID string, doc *content.Document) error {
	return r.save(ctx, pageID, doc)
}

func (r *MemoryRemote) SaveGlobals(ctx context.Context, doc *content.Document) error {
	return r.save(ctx, content.GlobalsKey, doc)
}

func (r *MemoryRemote) save(_ context.Context, key string, doc *content.Document) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.docs[key] = doc.Clone()
	r.saves++
	return nil
}

func (r *MemoryRemote) LoadBaseline(_ context.Context, key string) (*content.Document, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.docs[key].Clone(), nil
}

// Put seeds a baseline without counting it as a save.
func (r *MemoryRemote) Put(key string, doc *content.Document) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[key] = doc.Clone()
}

// Saves returns the number of successful saves.
func (r *MemoryRemote) Saves() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.saves
}

// Fail makes subsequent saves return err; nil restores normal behaviour.
func (r *MemoryRemote) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.err = err
}
