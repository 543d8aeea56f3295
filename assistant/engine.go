// Package assistant drives the voice form-filling conversation: it owns
// the form state and the conversation context, classifies each utterance
// (remote gateway first, local regex rules as fallback), applies the
// resulting field updates, and decides the next question. No failure in
// here is fatal to the process; everything degrades to a conversational
// re-prompt scoped to the current turn.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/formease/formease/form"
	"github.com/formease/formease/intent"
	"github.com/formease/formease/remote"
	"github.com/formease/formease/speech"
)

// ErrBusy is returned when an utterance arrives while the previous turn
// is still being processed. Turns are strictly serialized per session.
var ErrBusy = errors.New("previous utterance still processing")

// ErrSessionEnded is returned for utterances after the form was submitted
// or abandoned.
var ErrSessionEnded = errors.New("form session has ended")

// Understanding is the slice of the remote gateway the engine consumes.
// A nil Understanding means local-only operation.
type Understanding interface {
	intent.Classifier
	Process(ctx context.Context, input, formCode string, schema *form.Schema, turn remote.Turn) (*remote.ProcessResult, error)
	WelcomeMessage(ctx context.Context, formCode string) (string, error)
}

// Sinks are the external collaborators notified of accepted updates,
// submission and navigation. Nil funcs are ignored.
type Sinks struct {
	Field  func(sectionID int, fieldKey, value string)
	Submit func()
	GoBack func()
}

// Engine is the dialogue orchestrator for one form session. It is safe
// for concurrent calls, which are serialized (rejected with ErrBusy while
// a turn is in flight).
type Engine struct {
	schema *form.Schema
	gw     Understanding
	local  intent.Classifier
	sinks  Sinks
	queue  *speech.Queue
	logger *slog.Logger

	mu    sync.Mutex
	busy  bool
	state State
	cctx  Context
}

// Option configures an Engine.
type Option func(*Engine)

// WithUnderstanding installs the remote gateway. Without it the engine
// runs purely on the local heuristics.
func WithUnderstanding(gw Understanding) Option {
	return func(e *Engine) { e.gw = gw }
}

// WithSinks installs the external collaborator callbacks.
func WithSinks(sinks Sinks) Option {
	return func(e *Engine) { e.sinks = sinks }
}

// WithSpeech installs a playback queue; every bot reply is also spoken.
func WithSpeech(queue *speech.Queue) Option {
	return func(e *Engine) { e.queue = queue }
}

// WithLogger overrides the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// NewEngine creates an engine over schema. The schema's field values are
// mutated in place as the conversation progresses.
func NewEngine(schema *form.Schema, opts ...Option) *Engine {
	e := &Engine{
		schema: schema,
		local:  intent.NewLocalClassifier(),
		state:  StateInitializing,
		logger: slog.Default(),
	}
	e.cctx.Reset()
	for _, opt := range opts {
		opt(e)
	}
	e.logger = e.logger.With("component", "assistant.engine", "form", schema.FormCode)
	return e
}

// State returns the engine's lifecycle position.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

func (e *Engine) setState(s State) {
	e.mu.Lock()
	e.state = s
	e.mu.Unlock()
}

// Schema exposes the session's form state.
func (e *Engine) Schema() *form.Schema {
	return e.schema
}

// turn accumulates the bot replies produced while handling one utterance.
type turn struct {
	replies []string
}

func (t *turn) say(text string) {
	t.replies = append(t.replies, text)
}

// Start resets the conversation, emits the welcome message and asks the
// first question. The returned messages are also enqueued for playback.
func (e *Engine) Start(ctx context.Context) []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.cctx.Reset()
	e.state = StateAwaitingInput

	t := &turn{}
	t.say(e.welcome(ctx))

	if f := e.firstField(); f != nil {
		question := e.questionFor(f)
		e.cctx.MarkAsked(f.ID())
		e.cctx.Target(f, question)
		t.say("Let's start filling out the form. " + question)
	}

	e.speak(t)
	return t.replies
}

// welcome fetches the greeting from the remote gateway, falling back to
// the static per-form template.
func (e *Engine) welcome(ctx context.Context) string {
	if e.gw != nil {
		if msg, err := e.gw.WelcomeMessage(ctx, e.schema.FormCode); err == nil {
			return msg
		} else {
			e.logger.Debug("welcome message fallback", "error", err)
		}
	}
	return remote.DefaultWelcomeMessage(e.schema.FormCode)
}

// firstField picks the opening question: required empty fields under a
// section titled "Personal" come first, schema order otherwise.
func (e *Engine) firstField() *form.Field {
	ordered := make([]*form.Section, 0, len(e.schema.Sections))
	var personal *form.Section
	for i := range e.schema.Sections {
		sec := &e.schema.Sections[i]
		if personal == nil && strings.Contains(sec.Title, "Personal") {
			personal = sec
			continue
		}
		ordered = append(ordered, sec)
	}
	if personal != nil {
		ordered = append([]*form.Section{personal}, ordered...)
	}
	for _, sec := range ordered {
		for j := range sec.Fields {
			f := &sec.Fields[j]
			if f.Required && f.Empty() {
				return f
			}
		}
	}
	return nil
}

// HandleUtterance processes one finalized transcript and returns the bot
// replies for the turn. A new utterance cancels any in-flight playback.
func (e *Engine) HandleUtterance(ctx context.Context, text string) ([]string, error) {
	e.mu.Lock()
	switch e.state {
	case StateSubmitted, StateAbandoned:
		e.mu.Unlock()
		return nil, ErrSessionEnded
	}
	if e.busy {
		e.mu.Unlock()
		return nil, ErrBusy
	}
	e.busy = true
	e.state = StateProcessing
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.busy = false
		if e.state == StateProcessing {
			e.state = StateAwaitingInput
		}
		e.mu.Unlock()
	}()

	if e.queue != nil {
		e.queue.CancelAll()
	}

	t := &turn{}
	if strings.TrimSpace(text) == "" {
		t.say("I didn't catch that. Could you please try again?")
		e.speak(t)
		return t.replies, nil
	}

	e.processTurn(ctx, t, text)
	e.speak(t)
	return t.replies, nil
}

// processTurn classifies and dispatches one utterance. A panic anywhere
// below is converted into the generic error re-prompt; the form state is
// only mutated on accepted updates, so a failed turn leaves it intact.
func (e *Engine) processTurn(ctx context.Context, t *turn, text string) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("turn processing panicked", "panic", fmt.Sprint(r))
			t.say("I'm sorry, I encountered an error processing your request. Please try again.")
		}
	}()

	it := e.classify(ctx, text)
	e.logger.Debug("classified utterance", "intent", it.Kind, "fieldKey", it.FieldKey, "sectionId", it.SectionID)

	switch it.Kind {
	case intent.KindFillField:
		e.handleFill(ctx, t, it, text)
	case intent.KindEdit:
		e.handleEdit(t, it)
	case intent.KindSubmit:
		e.handleSubmit(t)
	case intent.KindGoBack:
		t.say("Alright, let's go back to the form selection page.")
		e.setState(StateAbandoned)
		if e.sinks.GoBack != nil {
			e.sinks.GoBack()
		}
	default:
		e.handleFallback(t, text)
	}
}

// classify asks the remote classifier first and falls back to the local
// regex rules on any failure or prior unavailability.
func (e *Engine) classify(ctx context.Context, text string) intent.Intent {
	current := e.currentField()
	if e.gw != nil {
		if it, err := e.gw.Classify(ctx, text, e.schema, current); err == nil {
			return it
		} else {
			e.logger.Debug("remote classification fallback", "error", err)
		}
	}
	it, err := e.local.Classify(ctx, text, e.schema, current)
	if err != nil {
		e.logger.Warn("local classification failed", "error", err)
		return intent.Intent{Kind: intent.KindFillField}
	}
	return it
}

// currentField resolves the context's target field, or nil.
func (e *Engine) currentField() *form.Field {
	if e.cctx.CurrentFieldKey == "" {
		return nil
	}
	return e.schema.Find(e.cctx.CurrentSectionID, e.cctx.CurrentFieldKey)
}

// speak enqueues every reply of the turn for playback.
func (e *Engine) speak(t *turn) {
	if e.queue == nil {
		return
	}
	for _, reply := range t.replies {
		e.queue.Enqueue(reply)
	}
}
