package intent

import (
	"context"
	"regexp"
	"strings"

	"github.com/formease/formease/extract"
	"github.com/formease/formease/form"
)

var submitPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(submit|done|finish|complete|send|ready|go ahead|proceed|finalize)\b`),
	regexp.MustCompile(`(?i)\b(that'?s all|everything is complete|looks? good|i'?m done|let'?s submit)\b`),
	regexp.MustCompile(`(?i)\b(yes|yeah|correct|sure|absolutely|please|ok|okay)\b.*\b(submit|send|finish|complete)\b`),
}

var backPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\b(go\s*back|back|cancel|return|previous|start over|restart|begin again)\b`),
	regexp.MustCompile(`(?i)\b(take me back|i want to go back|let'?s go back|return to previous)\b`),
	regexp.MustCompile(`(?i)\b(exit|quit|stop|abandon|leave)\b`),
}

// Edit phrasings, with and without a captured replacement value. The
// value-less variant must come last so "change my email to x" binds the
// value.
var editPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)(?:change|edit|update|correct|fix)\s+(?:my|the)?\s*([a-z\s]+?)\s+to\s+([a-z0-9@\s,.'-]+)`),
	regexp.MustCompile(`(?i)(?:set|make)\s+(?:my|the)?\s*([a-z\s]+?)\s+(?:to|as|be)\s+([a-z0-9@\s,.'-]+)`),
	regexp.MustCompile(`(?i)(?:change|edit|update|correct|fix)\s+(?:my|the)?\s*([a-z\s]+)`),
}

// LocalClassifier is the regex fallback used when the remote understanding
// service is unavailable. Control commands (submit, go back) take
// precedence over field-edit language, and short bare replies are treated
// as direct answers to the last question.
type LocalClassifier struct{}

// NewLocalClassifier returns the regex-based classifier.
func NewLocalClassifier() *LocalClassifier {
	return &LocalClassifier{}
}

func (c *LocalClassifier) Classify(_ context.Context, input string, schema *form.Schema, current *form.Field) (Intent, error) {
	inputLower := strings.ToLower(input)

	for _, pattern := range submitPatterns {
		if pattern.MatchString(inputLower) {
			return Intent{Kind: KindSubmit}, nil
		}
	}

	for _, pattern := range backPatterns {
		if pattern.MatchString(inputLower) {
			return Intent{Kind: KindGoBack}, nil
		}
	}

	for _, pattern := range editPatterns {
		m := pattern.FindStringSubmatch(inputLower)
		if m == nil {
			continue
		}
		keyword := strings.TrimSpace(m[1])
		value := ""
		if len(m) > 2 {
			value = strings.TrimSpace(m[2])
		}
		if target := schema.FindByKeyword(keyword); target != nil {
			return Intent{
				Kind:      KindEdit,
				SectionID: target.SectionID,
				FieldKey:  target.FieldKey,
				Value:     value,
			}, nil
		}
	}

	if name, ok := extract.PersonName(input); ok {
		result := Intent{Kind: KindFillField, Value: name}
		if target := schema.FindByKeyword("name"); target != nil {
			result.SectionID = target.SectionID
			result.FieldKey = target.FieldKey
		}
		return result, nil
	}

	trimmed := strings.TrimSpace(input)
	if len(strings.Fields(trimmed)) <= 5 && !strings.Contains(trimmed, ":") {
		result := Intent{Kind: KindFillField, Value: trimmed}
		if current != nil {
			result.SectionID = current.SectionID
			result.FieldKey = current.FieldKey
		}
		return result, nil
	}

	if updates := extract.FieldValues(input, schema); len(updates) > 0 {
		first := updates[0]
		return Intent{
			Kind:      KindFillField,
			SectionID: first.SectionID,
			FieldKey:  first.FieldKey,
			Value:     first.Value,
		}, nil
	}

	return Intent{Kind: KindFillField}, nil
}
