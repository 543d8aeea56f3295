// Package form defines the form schema consumed by the voice assistant:
// ordered sections of ordered fields, plus the transient field updates
// produced by extraction.
package form

import (
	"fmt"
	"strings"
)

// Field types the assistant understands. Unknown types behave like text.
const (
	TypeText  = "text"
	TypeRadio = "radio"
)

// Field is one named input slot within a section. Value is the only part
// of a schema that mutates during a conversation; an empty or
// whitespace-only Value means unset.
type Field struct {
	SectionID int      `json:"sectionId" yaml:"sectionId"`
	FieldKey  string   `json:"fieldKey" yaml:"fieldKey"`
	Label     string   `json:"label" yaml:"label"`
	Required  bool     `json:"required" yaml:"required"`
	Type      string   `json:"type" yaml:"type"`
	Options   []string `json:"options,omitempty" yaml:"options,omitempty"`
	Value     string   `json:"value" yaml:"value"`
}

// Section groups fields under a display title. IDs are unique within a
// schema.
type Section struct {
	ID     int     `json:"id" yaml:"id"`
	Title  string  `json:"title" yaml:"title"`
	Fields []Field `json:"fields" yaml:"fields"`
}

// Schema is an ordered sequence of sections. It is created once per form
// session and never structurally mutated; only field values change.
type Schema struct {
	FormCode string    `json:"formCode" yaml:"formCode"`
	Sections []Section `json:"sections" yaml:"sections"`
}

// Update is a transient (section, field, value) triple produced by
// extraction and applied by the dialogue engine.
type Update struct {
	SectionID int    `json:"sectionId"`
	FieldKey  string `json:"fieldKey"`
	Value     string `json:"value"`
}

// FieldID returns the "{sectionId}-{fieldKey}" identifier used to track
// which fields have already been asked.
func FieldID(sectionID int, fieldKey string) string {
	return fmt.Sprintf("%d-%s", sectionID, fieldKey)
}

// ID returns the field's asked-set identifier.
func (f *Field) ID() string {
	return FieldID(f.SectionID, f.FieldKey)
}

// Complete reports whether the field satisfies its requirement: optional
// fields are always complete, required fields need a non-blank value.
func (f *Field) Complete() bool {
	return !f.Required || strings.TrimSpace(f.Value) != ""
}

// Empty reports whether the field has no usable value yet.
func (f *Field) Empty() bool {
	return strings.TrimSpace(f.Value) == ""
}

// MatchOption resolves value against the field's options using
// case-insensitive bidirectional containment and returns the canonical
// option casing. Fields without options accept any value as-is.
func (f *Field) MatchOption(value string) (string, bool) {
	if len(f.Options) == 0 {
		return value, true
	}
	needle := strings.ToLower(strings.TrimSpace(value))
	if needle == "" {
		return "", false
	}
	// An exact (case-insensitive) option always wins over containment, so
	// "female" resolves to "Female" rather than the "male" substring.
	for _, opt := range f.Options {
		if strings.ToLower(strings.TrimSpace(opt)) == needle {
			return opt, true
		}
	}
	for _, opt := range f.Options {
		candidate := strings.ToLower(strings.TrimSpace(opt))
		if strings.Contains(candidate, needle) || strings.Contains(needle, candidate) {
			return opt, true
		}
	}
	return "", false
}

// Find locates a field by section ID and field key. Returns nil when no
// such field exists.
func (s *Schema) Find(sectionID int, fieldKey string) *Field {
	for i := range s.Sections {
		sec := &s.Sections[i]
		if sec.ID != sectionID {
			continue
		}
		for j := range sec.Fields {
			if strings.EqualFold(sec.Fields[j].FieldKey, fieldKey) {
				return &sec.Fields[j]
			}
		}
	}
	return nil
}

// FindByKeyword locates the first field, in declaration order, whose label
// or key contains the keyword or whose label is contained in the keyword
// (case-insensitive). Used for free-text field references like
// "change my email".
func (s *Schema) FindByKeyword(keyword string) *Field {
	needle := strings.ToLower(strings.TrimSpace(keyword))
	if needle == "" {
		return nil
	}
	for i := range s.Sections {
		for j := range s.Sections[i].Fields {
			f := &s.Sections[i].Fields[j]
			label := strings.ToLower(f.Label)
			key := strings.ToLower(f.FieldKey)
			if strings.Contains(label, needle) || strings.Contains(key, needle) || strings.Contains(needle, label) {
				return f
			}
		}
	}
	return nil
}

// Apply writes the update's value into the matching field. It reports
// whether a field was found; the value itself is written verbatim.
func (s *Schema) Apply(u Update) bool {
	f := s.Find(u.SectionID, u.FieldKey)
	if f == nil {
		return false
	}
	f.Value = u.Value
	return true
}

// Submittable reports whether every required field holds a non-blank
// value.
func (s *Schema) Submittable() bool {
	for i := range s.Sections {
		for j := range s.Sections[i].Fields {
			if !s.Sections[i].Fields[j].Complete() {
				return false
			}
		}
	}
	return true
}

// MissingLabels lists the labels of required fields that are still empty,
// in declaration order.
func (s *Schema) MissingLabels() []string {
	var labels []string
	for i := range s.Sections {
		for j := range s.Sections[i].Fields {
			f := &s.Sections[i].Fields[j]
			if f.Required && f.Empty() {
				labels = append(labels, f.Label)
			}
		}
	}
	return labels
}

// Validate checks the structural invariants: unique section IDs, unique
// field keys per section, consistent back-references, and options only on
// choice-like fields.
func (s *Schema) Validate() error {
	sectionIDs := make(map[int]struct{}, len(s.Sections))
	for i := range s.Sections {
		sec := &s.Sections[i]
		if _, dup := sectionIDs[sec.ID]; dup {
			return fmt.Errorf("duplicate section id %d", sec.ID)
		}
		sectionIDs[sec.ID] = struct{}{}
		keys := make(map[string]struct{}, len(sec.Fields))
		for j := range sec.Fields {
			f := &sec.Fields[j]
			key := strings.ToLower(f.FieldKey)
			if key == "" {
				return fmt.Errorf("section %d: field %d has empty key", sec.ID, j)
			}
			if _, dup := keys[key]; dup {
				return fmt.Errorf("section %d: duplicate field key %q", sec.ID, f.FieldKey)
			}
			keys[key] = struct{}{}
			if f.SectionID != sec.ID {
				return fmt.Errorf("section %d: field %q references section %d", sec.ID, f.FieldKey, f.SectionID)
			}
			if len(f.Options) > 0 && f.Type != TypeRadio {
				return fmt.Errorf("section %d: field %q has options but type %q", sec.ID, f.FieldKey, f.Type)
			}
		}
	}
	return nil
}

// Clone returns a deep copy so a session can mutate field values without
// touching the registry's pristine definition.
func (s *Schema) Clone() *Schema {
	out := &Schema{FormCode: s.FormCode, Sections: make([]Section, len(s.Sections))}
	for i, sec := range s.Sections {
		copied := sec
		copied.Fields = make([]Field, len(sec.Fields))
		copy(copied.Fields, sec.Fields)
		out.Sections[i] = copied
	}
	return out
}
