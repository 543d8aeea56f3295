package draft

import (
	"sync"

	"github.com/formease/formease/form"
)

// Recorder accumulates accepted field values into a draft document. Its
// Field method has the dialogue engine's field-sink signature, so a
// Recorder can be passed directly as the engine's Field sink to keep a
// patch-applied draft alongside the conversation.
type Recorder struct {
	mu  sync.Mutex
	doc []byte
	err error
}

// NewRecorder starts from an empty draft document.
func NewRecorder() *Recorder {
	return &Recorder{doc: Empty()}
}

// NewRecorderFor starts from the schema's current values.
func NewRecorderFor(schema *form.Schema) (*Recorder, error) {
	doc, err := New(schema)
	if err != nil {
		return nil, err
	}
	return &Recorder{doc: doc}, nil
}

// Field records one accepted value. The first patch failure sticks and is
// surfaced by Document; later updates are still attempted.
func (r *Recorder) Field(sectionID int, fieldKey, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, err := Apply(r.doc, []form.Update{{SectionID: sectionID, FieldKey: fieldKey, Value: value}})
	if err != nil {
		if r.err == nil {
			r.err = err
		}
		return
	}
	r.doc = doc
}

// Document returns the current draft JSON and the first patch error, if
// any.
func (r *Recorder) Document() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]byte, len(r.doc))
	copy(out, r.doc)
	return out, r.err
}
