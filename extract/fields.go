package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/formease/formease/form"
)

// fieldPatterns builds the label-parameterized templates applied to a
// lower-cased utterance, e.g. "my date of birth is january 1 1990". The
// label is escaped, so user-controlled label text can never break the
// pattern.
func fieldPatterns(label string) []*regexp.Regexp {
	l := regexp.QuoteMeta(strings.ToLower(label))
	return []*regexp.Regexp{
		regexp.MustCompile(fmt.Sprintf(`(?:my|the)\s+%s\s+(?:is|was|are|=|:|as)\s+([\w\s,.'-]+)`, l)),
		regexp.MustCompile(fmt.Sprintf(`%s\s+(?:is|:)\s+([\w\s,.'-]+)`, l)),
		regexp.MustCompile(fmt.Sprintf(`(?:i am|i'm)\s+([\w\s,.'-]+)\s+(?:and|%s)`, l)),
		regexp.MustCompile(fmt.Sprintf(`(?:put|write|fill|enter)\s+([\w\s,.'-]+)\s+(?:as|for|in)\s+(?:the|my|)\s*%s`, l)),
		regexp.MustCompile(fmt.Sprintf(`(?:put|write|fill|enter)\s+(?:the|my|)\s*%s\s+(?:as|with)\s+([\w\s,.'-]+)`, l)),
	}
}

// isNameField reports whether a field's key or label refers to a person's
// name.
func isNameField(f *form.Field) bool {
	return strings.Contains(strings.ToLower(f.FieldKey), "name") ||
		strings.Contains(strings.ToLower(f.Label), "name")
}

// FieldValues proposes zero or more field updates for an utterance. The
// name extractor runs first and claims the first name-like field across
// the schema; every other field is then matched against its own
// label-parameterized patterns, in schema declaration order, first
// satisfying pattern per field.
func FieldValues(input string, schema *form.Schema) []form.Update {
	var updates []form.Update
	inputLower := strings.ToLower(input)

	if name, ok := PersonName(input); ok {
	nameSearch:
		for i := range schema.Sections {
			sec := &schema.Sections[i]
			for j := range sec.Fields {
				if isNameField(&sec.Fields[j]) {
					updates = append(updates, form.Update{
						SectionID: sec.ID,
						FieldKey:  sec.Fields[j].FieldKey,
						Value:     name,
					})
					break nameSearch
				}
			}
		}
	}

	claimed := func(fieldKey string) bool {
		for _, u := range updates {
			if u.FieldKey == fieldKey {
				return true
			}
		}
		return false
	}

	for i := range schema.Sections {
		sec := &schema.Sections[i]
		for j := range sec.Fields {
			f := &sec.Fields[j]
			if isNameField(f) && claimed(f.FieldKey) {
				continue
			}
			for _, pattern := range fieldPatterns(f.Label) {
				m := pattern.FindStringSubmatch(inputLower)
				if m == nil {
					continue
				}
				value := strings.TrimSpace(m[1])
				if value == "" {
					continue
				}
				updates = append(updates, form.Update{
					SectionID: sec.ID,
					FieldKey:  f.FieldKey,
					Value:     value,
				})
				break
			}
		}
	}

	return updates
}
