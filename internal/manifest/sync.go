package manifest

import (
	"context"
	"strconv"
	"strings"

	"github.com/goliatone/go-capsulo/internal/content"
	"github.com/goliatone/go-capsulo/internal/identity"
	"github.com/goliatone/go-capsulo/internal/schema"
)

// Entry declares how many instances of a schema a page source uses.
type Entry struct {
	SchemaKey       string `json:"schemaKey" yaml:"schema"`
	SchemaName      string `json:"schemaName,omitempty" yaml:"name,omitempty"`
	OccurrenceCount int    `json:"occurrenceCount" yaml:"count"`
}

// Provider returns the manifest of a page, or nil when the page declares
// none.
type Provider interface {
	Manifest(ctx context.Context, key string) ([]Entry, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, key string) ([]Entry, error)

func (f ProviderFunc) Manifest(ctx context.Context, key string) ([]Entry, error) {
	return f(ctx, key)
}

// Result is the outcome of Sync.
type Result struct {
	Components []content.ComponentData
	Added      []string
}

// Sync appends the component instances the manifest declares but the stored
// list lacks. It never removes or reorders. New ids are "{schemaKey}-{n}"
// where n counts the instances of that schema, suffixed when taken.
func Sync(components []content.ComponentData, entries []Entry, registry schema.Registry) Result {
	out := make([]content.ComponentData, 0, len(components))
	taken := make(map[string]bool, len(components))
	for _, c := range components {
		out = append(out, c.Clone())
		taken[c.ID] = true
	}

	var added []string
	for _, entry := range entries {
		if entry.OccurrenceCount <= 0 || strings.TrimSpace(entry.SchemaKey) == "" {
			continue
		}
		key, name := resolveEntry(entry, registry)

		existing := 0
		for _, c := range out {
			if c.SchemaName == name || schema.KeyFor(c.SchemaName) == key {
				existing++
			}
		}
		for n := existing; n < entry.OccurrenceCount; n++ {
			id := identity.Unique(key+"-"+strconv.Itoa(n), func(candidate string) bool { return taken[candidate] })
			taken[id] = true
			out = append(out, content.ComponentData{
				ID:         id,
				SchemaName: name,
				Data:       map[string]content.FieldValue{},
			})
			added = append(added, id)
		}
	}
	return Result{Components: out, Added: added}
}

func resolveEntry(entry Entry, registry schema.Registry) (key, name string) {
	key = schema.KeyFor(entry.SchemaKey)
	name = strings.TrimSpace(entry.SchemaName)
	if registry != nil {
		if s, ok := registry.GetByKey(key); ok {
			if name == "" {
				name = s.Name
			}
			return s.Key, name
		}
	}
	if name == "" {
		name = key
	}
	return key, name
}
