package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

var schemaExtensions = []string{".yaml", ".yml", ".json"}

// LoadFile decodes a single schema definition. JSON files go through the
// YAML decoder since JSON is a subset of YAML.
func LoadFile(path string) (Schema, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Schema{}, err
	}
	var s Schema
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return Schema{}, fmt.Errorf("schema: decode %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(s.Name) == "" {
		s.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return Normalize(s)
}

// LoadDir reads every schema file directly under dir, sorted by file name.
// All decode errors are joined so one broken file reports alongside others.
func LoadDir(dir string) ([]Schema, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var (
		out  []Schema
		errs []error
	)
	for _, entry := range entries {
		if entry.IsDir() || !IsSchemaFile(entry.Name()) {
			continue
		}
		s, err := LoadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, s)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// IsSchemaFile reports whether name carries a schema file extension.
func IsSchemaFile(name string) bool {
	return slices.Contains(schemaExtensions, strings.ToLower(filepath.Ext(name)))
}
