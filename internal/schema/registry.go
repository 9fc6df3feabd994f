package schema

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/goliatone/go-slug"
)

// Registry resolves component schemas by display name or key.
type Registry interface {
	Get(name string) (Schema, bool)
	GetByKey(key string) (Schema, bool)
	List() []Schema
}

// MemoryRegistry is a concurrency-safe Registry. Replace swaps the full set,
// which is how the directory watcher publishes reloads.
type MemoryRegistry struct {
	mu      sync.RWMutex
	byName  map[string]Schema
	byKey   map[string]string
	ordered []string
}

var _ Registry = (*MemoryRegistry)(nil)

// NewMemoryRegistry registers the provided schemas.
func NewMemoryRegistry(schemas ...Schema) (*MemoryRegistry, error) {
	r := &MemoryRegistry{}
	if err := r.Replace(schemas); err != nil {
		return nil, err
	}
	return r, nil
}

// Register adds or replaces a single schema.
func (r *MemoryRegistry) Register(s Schema) error {
	normalized, err := Normalize(s)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ensureMaps()
	r.put(normalized)
	return nil
}

// Replace swaps the registry contents atomically. Nothing changes when any
// schema is invalid.
func (r *MemoryRegistry) Replace(schemas []Schema) error {
	normalized := make([]Schema, 0, len(schemas))
	for _, s := range schemas {
		n, err := Normalize(s)
		if err != nil {
			return err
		}
		normalized = append(normalized, n)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byName = make(map[string]Schema, len(normalized))
	r.byKey = make(map[string]string, len(normalized))
	r.ordered = r.ordered[:0]
	for _, s := range normalized {
		r.put(s)
	}
	return nil
}

func (r *MemoryRegistry) ensureMaps() {
	if r.byName == nil {
		r.byName = map[string]Schema{}
		r.byKey = map[string]string{}
	}
}

func (r *MemoryRegistry) put(s Schema) {
	if _, exists := r.byName[s.Name]; !exists {
		r.ordered = append(r.ordered, s.Name)
	}
	r.byName[s.Name] = s
	r.byKey[s.Key] = s.Name
}

func (r *MemoryRegistry) Get(name string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byName[strings.TrimSpace(name)]
	return s, ok
}

func (r *MemoryRegistry) GetByKey(key string) (Schema, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byKey[KeyFor(key)]
	if !ok {
		return Schema{}, false
	}
	s, ok := r.byName[name]
	return s, ok
}

func (r *MemoryRegistry) List() []Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Schema, 0, len(r.ordered))
	for _, name := range r.ordered {
		out = append(out, r.byName[name])
	}
	return out
}

// Names returns the registered schema names sorted alphabetically.
func (r *MemoryRegistry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := slices.Clone(r.ordered)
	slices.Sort(names)
	return names
}

// Normalize trims the schema name, derives the key and checks the field tree.
func Normalize(s Schema) (Schema, error) {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return Schema{}, ErrSchemaNameRequired
	}
	if strings.TrimSpace(s.Key) == "" {
		s.Key = KeyFor(s.Name)
	} else {
		s.Key = KeyFor(s.Key)
	}
	if err := Check(s.Fields); err != nil {
		return Schema{}, fmt.Errorf("schema %s: %w", s.Name, err)
	}
	return s, nil
}

// KeyFor derives the slug key used by manifests and component ids.
func KeyFor(value string) string {
	trimmed := strings.TrimSpace(value)
	if normalized, err := slug.Normalize(trimmed); err == nil && normalized != "" {
		return normalized
	}
	return strings.ToLower(trimmed)
}

// Lookup resolves a schema by name first and key second.
func Lookup(r Registry, nameOrKey string) (Schema, bool) {
	if r == nil {
		return Schema{}, false
	}
	if s, ok := r.Get(nameOrKey); ok {
		return s, true
	}
	return r.GetByKey(nameOrKey)
}
