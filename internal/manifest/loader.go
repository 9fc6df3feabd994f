package manifest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/frontmatter"
)

var ErrInvalidKey = errors.New("manifest: invalid document key")

var sourceExtensions = []string{".md", ".mdx", ".astro"}

// matter is the front matter block of a page source.
type matter struct {
	Components []Entry `yaml:"components" json:"components" toml:"components"`
}

// DirProvider reads manifests from the front matter of page sources stored
// as "<dir>/<key>.{md,mdx,astro}".
type DirProvider struct {
	Dir string
}

var _ Provider = DirProvider{}

// Manifest returns the declared entries, or nil when the page has no source
// file or no components block.
func (p DirProvider) Manifest(ctx context.Context, key string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" || key != filepath.Base(key) || strings.HasPrefix(key, ".") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	for _, ext := range sourceExtensions {
		entries, err := ParseFile(filepath.Join(p.Dir, key+ext))
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		return entries, err
	}
	return nil, nil
}

// ParseFile decodes the components block from a file's front matter.
func ParseFile(path string) ([]Entry, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var m matter
	if _, err := frontmatter.Parse(file, &m); err != nil {
		return nil, fmt.Errorf("manifest: parse %s: %w", filepath.Base(path), err)
	}
	return m.Components, nil
}
