// Package intent classifies a user utterance into one of the assistant's
// four intents and optionally binds a target field and value. The local
// classifier is pure regex; the remote gateway provides an LLM-backed
// implementation of the same interface, and Fallback chains the two.
package intent

import (
	"context"

	"github.com/formease/formease/form"
)

// Kind discriminates the intent union. Exactly one kind is active per
// utterance.
type Kind string

const (
	KindFillField Kind = "fillField"
	KindEdit      Kind = "edit"
	KindSubmit    Kind = "submit"
	KindGoBack    Kind = "goBack"
)

// Intent is the classified purpose of one utterance. SectionID zero means
// the target field is unbound; the dialogue engine resolves it against
// the next empty field. Value may be empty for bare edit references.
type Intent struct {
	Kind      Kind   `json:"intent"`
	SectionID int    `json:"sectionId,omitempty"`
	FieldKey  string `json:"fieldKey,omitempty"`
	Value     string `json:"value,omitempty"`
}

// Bound reports whether the intent carries a resolved target field.
func (i Intent) Bound() bool {
	return i.SectionID != 0 && i.FieldKey != ""
}

// Classifier turns an utterance into an intent. current is the field the
// conversation's last question targeted, or nil; classifiers may use it
// to bind short direct answers.
type Classifier interface {
	Classify(ctx context.Context, input string, schema *form.Schema, current *form.Field) (Intent, error)
}

// Fallback tries classifiers in order and returns the first successful
// result. Only when every classifier errors does it return the last
// error, alongside a safe fillField default.
type Fallback struct {
	classifiers []Classifier
}

// NewFallback builds a fallback chain. The remote classifier usually goes
// first, the local regex classifier last.
func NewFallback(classifiers ...Classifier) *Fallback {
	return &Fallback{classifiers: classifiers}
}

func (f *Fallback) Classify(ctx context.Context, input string, schema *form.Schema, current *form.Field) (Intent, error) {
	var lastErr error
	for _, c := range f.classifiers {
		result, err := c.Classify(ctx, input, schema, current)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return Intent{Kind: KindFillField}, lastErr
}
