package assistant

import (
	"github.com/formease/formease/form"
)

// State is the dialogue engine's lifecycle position.
type State string

const (
	StateInitializing  State = "initializing"
	StateAwaitingInput State = "awaitingInput"
	StateProcessing    State = "processing"
	StateSubmitted     State = "submitted"
	StateAbandoned     State = "abandoned"
)

// Context is the mutable conversation state owned by one engine for the
// lifetime of one form-filling session: the last question asked, the
// field a plain answer is presumed to target, and the set of fields
// already prompted for.
type Context struct {
	LastQuestion     string
	CurrentSectionID int
	CurrentFieldKey  string

	asked map[string]struct{}
}

// Reset clears the context for a fresh conversation.
func (c *Context) Reset() {
	c.LastQuestion = ""
	c.CurrentSectionID = 0
	c.CurrentFieldKey = ""
	c.asked = make(map[string]struct{})
}

// MarkAsked records that the field's question has been asked this pass.
func (c *Context) MarkAsked(fieldID string) {
	if c.asked == nil {
		c.asked = make(map[string]struct{})
	}
	c.asked[fieldID] = struct{}{}
}

// Asked reports whether the field has already been prompted for.
func (c *Context) Asked(fieldID string) bool {
	_, ok := c.asked[fieldID]
	return ok
}

// Target points the context at the field the next plain answer should
// fill, remembering the question that was asked for it.
func (c *Context) Target(f *form.Field, question string) {
	c.LastQuestion = question
	c.CurrentSectionID = f.SectionID
	c.CurrentFieldKey = f.FieldKey
}
