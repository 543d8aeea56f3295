// Package forms is the registry of built-in form definitions. Definitions
// are YAML files embedded at build time and validated once at startup.
package forms

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/formease/formease/form"
)

//go:embed defs/*.yaml
var defsFS embed.FS

// Registry holds parsed, validated form schemas keyed by form code.
type Registry struct {
	schemas map[string]*form.Schema
	titles  map[string]string
}

type definition struct {
	FormCode string         `yaml:"formCode"`
	Title    string         `yaml:"title"`
	Sections []form.Section `yaml:"sections"`
}

// NewRegistry parses every embedded definition. It fails on the first
// malformed or structurally invalid file, so a bad definition is caught
// at startup rather than mid-conversation.
func NewRegistry() (*Registry, error) {
	r := &Registry{
		schemas: make(map[string]*form.Schema),
		titles:  make(map[string]string),
	}
	err := fs.WalkDir(defsFS, "defs", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".yaml") {
			return nil
		}
		raw, err := defsFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
		var def definition
		if err := yaml.Unmarshal(raw, &def); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if def.FormCode == "" {
			return fmt.Errorf("%s: missing formCode", path)
		}
		if _, dup := r.schemas[def.FormCode]; dup {
			return fmt.Errorf("%s: duplicate form code %q", path, def.FormCode)
		}
		schema := &form.Schema{FormCode: def.FormCode, Sections: def.Sections}
		normalize(schema)
		if err := schema.Validate(); err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		r.schemas[def.FormCode] = schema
		r.titles[def.FormCode] = def.Title
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r, nil
}

// normalize stamps each field with its section's ID so definitions do not
// need to repeat it, and defaults the field type to text.
func normalize(s *form.Schema) {
	for i := range s.Sections {
		sec := &s.Sections[i]
		for j := range sec.Fields {
			f := &sec.Fields[j]
			f.SectionID = sec.ID
			if f.Type == "" {
				f.Type = form.TypeText
			}
		}
	}
}

// Load returns a deep copy of the schema for formCode, safe for a session
// to mutate. Unknown codes return an error.
func (r *Registry) Load(formCode string) (*form.Schema, error) {
	schema, ok := r.schemas[strings.ToLower(strings.TrimSpace(formCode))]
	if !ok {
		return nil, fmt.Errorf("unknown form code %q", formCode)
	}
	return schema.Clone(), nil
}

// Title returns the display title for formCode, or the empty string when
// the code is unknown.
func (r *Registry) Title(formCode string) string {
	return r.titles[strings.ToLower(strings.TrimSpace(formCode))]
}

// Codes lists the registered form codes in sorted order.
func (r *Registry) Codes() []string {
	codes := make([]string, 0, len(r.schemas))
	for code := range r.schemas {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
