package schema

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadYAML reads a schema document from a YAML file.
func LoadYAML(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema file: %w", err)
	}
	return Parse(data)
}

// Parse decodes a schema document from its canonical YAML form.
func Parse(data []byte) (*Document, error) {
	d := &Document{}
	if err := yaml.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("parsing schema document: %w", err)
	}
	return d, nil
}

// WriteYAML writes the document to a YAML file at the given path.
func (d *Document) WriteYAML(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	data, err := d.Canonical()
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0o644)
}

// Canonical returns the document in its canonical export form. Importing
// the returned bytes with Parse yields a structurally identical document.
func (d *Document) Canonical() ([]byte, error) {
	data, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("marshaling schema document: %w", err)
	}
	return data, nil
}

// Summary returns a human-readable one-line description of the document.
func (d *Document) Summary() string {
	target := fmt.Sprintf("%d fields", len(d.Fields))
	if d.Kind == DocTable {
		target = fmt.Sprintf("%d columns", len(d.Columns))
	}
	name := d.Entity
	if d.Variant != "" {
		name = d.Entity + "/" + d.Variant
	}
	return fmt.Sprintf("%s %s v%s (%s, %d actions)", name, d.Kind, d.Version, target, len(d.Actions))
}
