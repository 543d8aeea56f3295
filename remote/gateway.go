// Package remote delegates extraction, intent classification and welcome
// message generation to an external text completion service. Every call
// is one request/response round trip guarded by a process-wide one-way
// circuit breaker: a quota or rate-limit failure disables the remote path
// permanently and the caller falls back to the local heuristics.
package remote

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/formease/formease/form"
	"github.com/formease/formease/health"
	"github.com/formease/formease/intent"
	"github.com/formease/formease/structured"
)

// Turn is the conversation context forwarded to the model so it can
// interpret short answers relative to the last question.
type Turn struct {
	LastQuestion     string
	CurrentSectionID int
	CurrentFieldKey  string
}

// ProcessResult is a validated extraction response: field updates to
// apply, the follow-up question to ask, and the model's confidence.
type ProcessResult struct {
	Updates      []form.Update
	NextQuestion string
	Confidence   float64
}

type processRequest struct {
	Input    string
	FormCode string
	Schema   *form.Schema
	Turn     Turn
}

type fieldUpdateOutput struct {
	SectionID int    `json:"section_id" jsonschema:"required,description=ID of the section containing the field"`
	FieldKey  string `json:"field_key" jsonschema:"required,description=Stable key of the field to update"`
	Value     string `json:"value" jsonschema:"required,description=The extracted value for the field"`
}

type processOutput struct {
	FieldUpdates []fieldUpdateOutput `json:"field_updates" jsonschema:"description=All field values extracted from the input"`
	NextQuestion string              `json:"next_question" jsonschema:"required,description=Natural follow-up question to ask the user"`
	Confidence   float64             `json:"confidence" jsonschema:"required,description=Extraction confidence between 0 and 1"`
}

type classifyRequest struct {
	Input  string
	Schema *form.Schema
}

type classifyOutput struct {
	Intent    string `json:"intent" jsonschema:"required,enum=fillField,enum=edit,enum=submit,enum=goBack,description=The user's intent"`
	SectionID int    `json:"section_id,omitempty" jsonschema:"description=Target section ID when a field is referenced"`
	FieldKey  string `json:"field_key,omitempty" jsonschema:"description=Target field key when a field is referenced"`
	Value     string `json:"value,omitempty" jsonschema:"description=Replacement or fill value when present"`
}

type welcomeOutput struct {
	Message string `json:"message" jsonschema:"required,description=Friendly welcome message of two to three sentences"`
}

const (
	processToolName  = "extract_form_updates"
	processToolDesc  = "Report the field updates extracted from the user's voice input, the next question to ask, and the extraction confidence."
	classifyToolName = "classify_intent"
	classifyToolDesc = "Report the user's intent while filling out a form: fillField, edit, submit, or goBack."
	welcomeToolName  = "compose_welcome_message"
	welcomeToolDesc  = "Report a friendly welcome message for a user starting a form."
)

// Gateway wraps one chat model behind the availability breaker. Safe for
// concurrent use across sessions.
type Gateway struct {
	breaker  *health.Breaker
	logger   *slog.Logger
	process  *structured.Chain[processRequest, processOutput]
	classify *structured.Chain[classifyRequest, classifyOutput]
	welcome  *structured.Chain[string, welcomeOutput]
}

// NewGateway builds the three extraction chains on top of chatModel.
func NewGateway(chatModel model.ToolCallingChatModel, breaker *health.Breaker, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}
	processChain, err := structured.NewChain[processRequest, processOutput](
		chatModel, buildProcessPrompt, processToolName, processToolDesc)
	if err != nil {
		return nil, fmt.Errorf("create process chain: %w", err)
	}
	classifyChain, err := structured.NewChain[classifyRequest, classifyOutput](
		chatModel, buildClassifyPrompt, classifyToolName, classifyToolDesc)
	if err != nil {
		return nil, fmt.Errorf("create classify chain: %w", err)
	}
	welcomeChain, err := structured.NewChain[string, welcomeOutput](
		chatModel, buildWelcomePrompt, welcomeToolName, welcomeToolDesc)
	if err != nil {
		return nil, fmt.Errorf("create welcome chain: %w", err)
	}
	return &Gateway{
		breaker:  breaker,
		logger:   logger.With("component", "remote.gateway"),
		process:  processChain,
		classify: classifyChain,
		welcome:  welcomeChain,
	}, nil
}

// guard returns ErrUnavailable when the breaker has tripped, logging the
// skipped call.
func (g *Gateway) guard(op string) error {
	if g.breaker.Available() {
		return nil
	}
	g.logger.Debug("skipping remote call, service previously unavailable", "op", op)
	return health.ErrUnavailable
}

// fail trips the breaker on quota conditions and wraps the error.
func (g *Gateway) fail(op string, err error) error {
	if g.breaker.TripIfQuota(err) {
		g.logger.Warn("remote call hit quota limit", "op", op, "error", err)
	} else {
		g.logger.Warn("remote call failed", "op", op, "error", err)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// Process extracts field updates and a follow-up question from one
// utterance.
func (g *Gateway) Process(ctx context.Context, input, formCode string, schema *form.Schema, turn Turn) (*ProcessResult, error) {
	if err := g.guard("process"); err != nil {
		return nil, err
	}
	out, err := g.process.Invoke(ctx, processRequest{
		Input:    input,
		FormCode: formCode,
		Schema:   schema,
		Turn:     turn,
	})
	if err != nil {
		return nil, g.fail("process", err)
	}
	if out.NextQuestion == "" {
		return nil, g.fail("process", fmt.Errorf("response missing next question"))
	}
	result := &ProcessResult{
		NextQuestion: out.NextQuestion,
		Confidence:   out.Confidence,
	}
	for _, u := range out.FieldUpdates {
		if schema.Find(u.SectionID, u.FieldKey) == nil {
			g.logger.Debug("dropping update for unknown field", "sectionId", u.SectionID, "fieldKey", u.FieldKey)
			continue
		}
		result.Updates = append(result.Updates, form.Update{
			SectionID: u.SectionID,
			FieldKey:  u.FieldKey,
			Value:     u.Value,
		})
	}
	return result, nil
}

// Classify determines the intent of one utterance. It implements
// intent.Classifier so it can head a fallback chain in front of the local
// regex classifier.
func (g *Gateway) Classify(ctx context.Context, input string, schema *form.Schema, _ *form.Field) (intent.Intent, error) {
	if err := g.guard("classify"); err != nil {
		return intent.Intent{}, err
	}
	out, err := g.classify.Invoke(ctx, classifyRequest{Input: input, Schema: schema})
	if err != nil {
		return intent.Intent{}, g.fail("classify", err)
	}
	kind := intent.Kind(out.Intent)
	switch kind {
	case intent.KindFillField, intent.KindEdit, intent.KindSubmit, intent.KindGoBack:
	default:
		return intent.Intent{}, g.fail("classify", fmt.Errorf("unknown intent %q", out.Intent))
	}
	return intent.Intent{
		Kind:      kind,
		SectionID: out.SectionID,
		FieldKey:  out.FieldKey,
		Value:     out.Value,
	}, nil
}

// WelcomeMessage generates a per-form welcome greeting.
func (g *Gateway) WelcomeMessage(ctx context.Context, formCode string) (string, error) {
	if err := g.guard("welcome"); err != nil {
		return "", err
	}
	out, err := g.welcome.Invoke(ctx, formCode)
	if err != nil {
		return "", g.fail("welcome", err)
	}
	if out.Message == "" {
		return "", g.fail("welcome", fmt.Errorf("response missing message"))
	}
	return out.Message, nil
}

func buildProcessPrompt(_ context.Context, req processRequest) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`You are an AI assistant helping a user fill out a %s form using voice commands.
The user is speaking to you, and their input will be analyzed to extract information for the form.

%s

%s

Your task is to:
1. Analyze the user's voice input
2. Extract relevant information to fill form fields
3. Determine which fields to update
4. Provide the next question to ask the user

Include ALL fields you can extract from the input, even if there are multiple.
Provide a natural-sounding follow-up question based on the form's flow, and a
confidence between 0 and 1 for the extraction.

Call the '%s' tool with the result.`,
		req.FormCode, formatSchema(req.Schema), formatTurn(req.Schema, req.Turn), processToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(req.Input),
	}, nil
}

func buildClassifyPrompt(_ context.Context, req classifyRequest) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`You are analyzing a user's voice input to determine their intent while filling out a form.

%s

Analyze the input and determine if the user wants to:
1. "edit" - Edit a specific field (e.g., "Change my name to John")
2. "submit" - Submit the form (e.g., "I'm done", "Submit the form")
3. "goBack" - Go back or cancel (e.g., "Go back", "Cancel")
4. "fillField" - Provide information for a specific field (e.g., "My name is John")

When a specific field is referenced, report its section ID and field key from the
form structure above; otherwise leave them empty.

Call the '%s' tool with the result.`, formatSchema(req.Schema), classifyToolName)

	return []*schema.Message{
		schema.SystemMessage(systemPrompt),
		schema.UserMessage(req.Input),
	}, nil
}

func buildWelcomePrompt(_ context.Context, formCode string) ([]*schema.Message, error) {
	systemPrompt := fmt.Sprintf(`Generate a friendly welcome message in English for a user filling out a %s form.
The message should be conversational and explain that you're an AI assistant
who will help them fill the form using voice commands. Keep it to 2-3 sentences.
Respond ONLY in English.

Call the '%s' tool with the result.`, formCode, welcomeToolName)

	return []*schema.Message{schema.SystemMessage(systemPrompt)}, nil
}
