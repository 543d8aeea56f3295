package assistant

import (
	"context"
	"strings"

	"github.com/formease/formease/extract"
	"github.com/formease/formease/form"
	"github.com/formease/formease/intent"
	"github.com/formease/formease/remote"
)

// questionFor phrases the prompt for a field, listing the allowed options
// for choice-like fields.
func (e *Engine) questionFor(f *form.Field) string {
	question := "What is your " + strings.ToLower(f.Label) + "?"
	if len(f.Options) > 0 {
		question += " Options: " + strings.Join(f.Options, ", ") + "."
	}
	return question
}

// nextEmptyField selects the next incomplete required field in schema
// order. The first pass skips fields already asked this conversation;
// once every novel field has been offered, the second pass re-offers
// asked-but-still-empty fields.
func (e *Engine) nextEmptyField() *form.Field {
	for pass := 0; pass < 2; pass++ {
		for i := range e.schema.Sections {
			sec := &e.schema.Sections[i]
			for j := range sec.Fields {
				f := &sec.Fields[j]
				if !f.Required || !f.Empty() {
					continue
				}
				if pass == 0 && e.cctx.Asked(f.ID()) {
					continue
				}
				return f
			}
		}
	}
	return nil
}

// askNext asks the next empty field's question, prefixed with an
// acknowledgement, or offers submission when the form is complete.
func (e *Engine) askNext(t *turn, prefix string) {
	if f := e.nextEmptyField(); f != nil {
		question := e.questionFor(f)
		e.cctx.MarkAsked(f.ID())
		e.cctx.Target(f, question)
		t.say(prefix + question)
		return
	}
	prompt := "Great! All fields are complete. Would you like to submit the form now?"
	t.say(prompt)
	e.cctx.LastQuestion = prompt
}

// rejectOption re-prompts with the exact allowed options and leaves the
// field untouched.
func (e *Engine) rejectOption(t *turn, f *form.Field) {
	t.say("Please choose one of: " + strings.Join(f.Options, ", ") + ".")
	e.cctx.Target(f, e.questionFor(f))
}

// accept writes the value into the field, honouring the radio containment
// rule, and notifies the field sink. It reports whether the value was
// accepted; on rejection the state is left unmutated.
func (e *Engine) accept(t *turn, f *form.Field, value string) bool {
	canonical := value
	if f.Type == form.TypeRadio && len(f.Options) > 0 {
		matched, ok := f.MatchOption(value)
		if !ok {
			e.rejectOption(t, f)
			return false
		}
		canonical = matched
	}
	f.Value = canonical
	e.logger.Debug("field updated", "sectionId", f.SectionID, "fieldKey", f.FieldKey)
	if e.sinks.Field != nil {
		e.sinks.Field(f.SectionID, f.FieldKey, canonical)
	}
	return true
}

// handleFill applies a fillField intent: resolve an incomplete binding to
// the next empty field, broaden the lookup across all sections, enforce
// the radio rule, then pick up any incidental updates from the rest of
// the utterance before advancing.
func (e *Engine) handleFill(ctx context.Context, t *turn, it intent.Intent, text string) {
	value := strings.TrimSpace(it.Value)

	if !it.Bound() {
		if value == "" {
			e.handleFallback(t, text)
			return
		}
		if f := e.nextEmptyField(); f != nil {
			it.SectionID = f.SectionID
			it.FieldKey = f.FieldKey
		}
	}

	field := e.schema.Find(it.SectionID, it.FieldKey)
	if field == nil && it.FieldKey != "" {
		field = e.schema.FindByKeyword(it.FieldKey)
	}
	if field == nil {
		t.say("Sorry, I couldn't find the field to process. Let's try the next one.")
		e.askNext(t, "")
		return
	}
	if value == "" {
		e.handleFallback(t, text)
		return
	}

	if !e.accept(t, field, value) {
		return
	}
	e.cctx.MarkAsked(field.ID())

	// Secondary pass: the same utterance may carry values for other
	// fields ("my name is Jane and my email is ...").
	e.secondaryExtract(ctx, text, field)

	e.askNext(t, "Thank you! ")
}

// secondaryExtract runs one more extraction over the original utterance,
// applying incidental updates to still-empty fields other than skip.
func (e *Engine) secondaryExtract(ctx context.Context, text string, skip *form.Field) {
	var updates []form.Update
	if e.gw != nil {
		res, err := e.gw.Process(ctx, text, e.schema.FormCode, e.schema, remote.Turn{
			LastQuestion:     e.cctx.LastQuestion,
			CurrentSectionID: e.cctx.CurrentSectionID,
			CurrentFieldKey:  e.cctx.CurrentFieldKey,
		})
		if err == nil {
			updates = res.Updates
		} else {
			e.logger.Debug("remote extraction fallback", "error", err)
			updates = extract.FieldValues(text, e.schema)
		}
	} else {
		updates = extract.FieldValues(text, e.schema)
	}

	for _, u := range updates {
		f := e.schema.Find(u.SectionID, u.FieldKey)
		if f == nil || f == skip || !f.Empty() {
			continue
		}
		value := u.Value
		if f.Type == form.TypeRadio && len(f.Options) > 0 {
			matched, ok := f.MatchOption(u.Value)
			if !ok {
				continue
			}
			value = matched
		}
		f.Value = value
		if e.sinks.Field != nil {
			e.sinks.Field(f.SectionID, f.FieldKey, value)
		}
	}
}

// handleEdit rewrites a bound field, or asks what the new value should be
// when the utterance only named the field.
func (e *Engine) handleEdit(t *turn, it intent.Intent) {
	if !it.Bound() {
		t.say("I'm sorry, I couldn't process your edit request. Please try again.")
		return
	}
	field := e.schema.Find(it.SectionID, it.FieldKey)
	if field == nil {
		t.say("I'm sorry, I couldn't process your edit request. Please try again.")
		return
	}

	value := strings.TrimSpace(it.Value)
	if value == "" {
		prompt := "I'll help you edit the " + field.FieldKey + " field. What would you like to change it to?"
		// Suppress the duplicate when the same edit was just requested.
		if prompt != e.cctx.LastQuestion {
			t.say(prompt)
			e.cctx.Target(field, prompt)
		}
		return
	}

	if !e.accept(t, field, value) {
		return
	}
	e.cctx.MarkAsked(field.ID())

	if f := e.nextEmptyField(); f != nil {
		question := e.questionFor(f)
		e.cctx.MarkAsked(f.ID())
		e.cctx.Target(f, question)
		t.say("Updated " + field.FieldKey + ". " + question)
		return
	}
	prompt := "Updated! All fields look complete. Would you like to submit the form now?"
	t.say(prompt)
	e.cctx.LastQuestion = prompt
}

// handleSubmit verifies completeness before invoking the submission sink;
// an incomplete form lists the missing labels and resumes asking.
func (e *Engine) handleSubmit(t *turn) {
	if e.schema.Submittable() {
		t.say("Everything looks good! Submitting your form now.")
		e.setState(StateSubmitted)
		if e.sinks.Submit != nil {
			e.sinks.Submit()
		}
		return
	}

	missing := e.schema.MissingLabels()
	t.say("There are still some required fields missing: " + strings.Join(missing, ", ") + ". Let's complete those first.")
	e.askNext(t, "")
}

// handleFallback is the last resort for an utterance nothing else could
// place: direct pattern extraction, then the context field, then a
// re-ask of the next empty field.
func (e *Engine) handleFallback(t *turn, text string) {
	updates := extract.FieldValues(text, e.schema)
	applied := false
	for _, u := range updates {
		f := e.schema.Find(u.SectionID, u.FieldKey)
		if f == nil {
			continue
		}
		value := u.Value
		if f.Type == form.TypeRadio && len(f.Options) > 0 {
			matched, ok := f.MatchOption(u.Value)
			if !ok {
				continue
			}
			value = matched
		}
		f.Value = value
		applied = true
		if e.sinks.Field != nil {
			e.sinks.Field(f.SectionID, f.FieldKey, value)
		}
	}
	if applied {
		e.askNext(t, "Got it! ")
		return
	}

	// A plain answer to the last question.
	if current := e.currentField(); current != nil && current.Empty() {
		value := strings.TrimSpace(text)
		if current.Type == form.TypeRadio && len(current.Options) > 0 {
			if matched, ok := current.MatchOption(value); ok {
				e.accept(t, current, matched)
				e.cctx.MarkAsked(current.ID())
				e.askNext(t, "Got it! ")
				return
			}
		} else {
			e.accept(t, current, value)
			e.cctx.MarkAsked(current.ID())
			e.askNext(t, "Got it! ")
			return
		}
	}

	if f := e.nextEmptyField(); f != nil {
		question := e.questionFor(f)
		e.cctx.MarkAsked(f.ID())
		e.cctx.Target(f, question)
		t.say("I'm sorry, I didn't understand that. Let's try: " + question)
		return
	}
	t.say("I'm sorry, I couldn't understand that. All fields seem complete. Would you like to submit?")
}
