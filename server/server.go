// Package server exposes the form registry, the NLP extraction pipeline
// and the draft patcher over HTTP. The handlers mirror the assistant's
// own processing path so a thin client can drive a conversation without
// embedding the engine.
package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"

	"github.com/formease/formease/draft"
	"github.com/formease/formease/extract"
	"github.com/formease/formease/form"
	"github.com/formease/formease/forms"
	"github.com/formease/formease/health"
	"github.com/formease/formease/intent"
	"github.com/formease/formease/remote"
)

// localConfidence is reported when extraction falls back to the regex
// pipeline; the remote model reports its own confidence.
const localConfidence = 0.7

// Server wires the HTTP surface. Gateway may be nil, in which case every
// request is served by the local pipeline.
type Server struct {
	app      *fiber.App
	registry *forms.Registry
	gateway  *remote.Gateway
	local    *intent.LocalClassifier
	breaker  *health.Breaker
	logger   *slog.Logger
}

// New builds the fiber app and registers all routes.
func New(registry *forms.Registry, gateway *remote.Gateway, breaker *health.Breaker, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		registry: registry,
		gateway:  gateway,
		local:    intent.NewLocalClassifier(),
		breaker:  breaker,
		logger:   logger.With("component", "server"),
	}
	s.app = fiber.New(fiber.Config{
		AppName:     "formease",
		JSONEncoder: sonic.Marshal,
		JSONDecoder: sonic.Unmarshal,
	})
	s.app.Use(recover.New())
	s.app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	s.routes()
	return s
}

func (s *Server) routes() {
	s.app.Get("/health", s.handleHealth)
	s.app.Get("/api/forms", s.handleListForms)
	s.app.Get("/api/forms/:formCode", s.handleGetForm)
	s.app.Get("/api/welcome-message/:formCode", s.handleWelcomeMessage)

	api := s.app.Group("/api/nlp")
	api.Post("/process", s.handleProcess)
	api.Post("/intent", s.handleIntent)

	s.app.Post("/api/drafts/apply", s.handleApplyDraft)
}

// Listen blocks serving HTTP on addr.
func (s *Server) Listen(addr string) error {
	return s.app.Listen(addr)
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	remoteAvailable := s.gateway != nil && s.breaker.Available()
	return c.JSON(fiber.Map{
		"status":          "ok",
		"remoteAvailable": remoteAvailable,
	})
}

func (s *Server) handleListForms(c *fiber.Ctx) error {
	codes := s.registry.Codes()
	out := make([]fiber.Map, 0, len(codes))
	for _, code := range codes {
		out = append(out, fiber.Map{
			"formCode": code,
			"title":    s.registry.Title(code),
		})
	}
	return c.JSON(fiber.Map{"forms": out})
}

func (s *Server) handleGetForm(c *fiber.Ctx) error {
	schema, err := s.registry.Load(c.Params("formCode"))
	if err != nil {
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return c.JSON(schema)
}

func (s *Server) handleWelcomeMessage(c *fiber.Ctx) error {
	formCode := c.Params("formCode")
	if s.gateway != nil {
		message, err := s.gateway.WelcomeMessage(c.Context(), formCode)
		if err == nil {
			return c.JSON(fiber.Map{"message": message})
		}
		s.logger.Warn("welcome message generation failed, using default", "formCode", formCode, "error", err)
	}
	return c.JSON(fiber.Map{"message": remote.DefaultWelcomeMessage(formCode)})
}

type processRequest struct {
	Input    string       `json:"input"`
	FormCode string       `json:"formCode"`
	Schema   *form.Schema `json:"schema,omitempty"`
	Context  struct {
		LastQuestion     string `json:"lastQuestion"`
		CurrentSectionID int    `json:"currentSectionId"`
		CurrentFieldKey  string `json:"currentFieldKey"`
	} `json:"context"`
}

// resolveSchema uses the inline schema when the client sent one, falling
// back to the registry definition for the form code.
func (s *Server) resolveSchema(req *processRequest) (*form.Schema, error) {
	if req.Schema != nil && len(req.Schema.Sections) > 0 {
		if err := req.Schema.Validate(); err != nil {
			return nil, fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return req.Schema, nil
	}
	schema, err := s.registry.Load(req.FormCode)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusNotFound, err.Error())
	}
	return schema, nil
}

func (s *Server) handleProcess(c *fiber.Ctx) error {
	var req processRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Input == "" {
		return fiber.NewError(fiber.StatusBadRequest, "input is required")
	}
	schema, err := s.resolveSchema(&req)
	if err != nil {
		return err
	}

	if s.gateway != nil {
		result, gerr := s.gateway.Process(c.Context(), req.Input, req.FormCode, schema, remote.Turn{
			LastQuestion:     req.Context.LastQuestion,
			CurrentSectionID: req.Context.CurrentSectionID,
			CurrentFieldKey:  req.Context.CurrentFieldKey,
		})
		if gerr == nil {
			return c.JSON(fiber.Map{
				"fieldUpdates": updatesPayload(result.Updates),
				"nextQuestion": result.NextQuestion,
				"confidence":   result.Confidence,
			})
		}
		s.logger.Warn("remote extraction failed, falling back to local pipeline", "error", gerr)
	}

	updates := extract.FieldValues(req.Input, schema)
	return c.JSON(fiber.Map{
		"fieldUpdates": updatesPayload(updates),
		"nextQuestion": nextQuestionFor(schema, updates),
		"confidence":   localConfidence,
	})
}

func updatesPayload(updates []form.Update) []form.Update {
	if updates == nil {
		return []form.Update{}
	}
	return updates
}

// nextQuestionFor asks about the first field left empty after applying
// the extracted updates.
func nextQuestionFor(schema *form.Schema, updates []form.Update) string {
	filled := make(map[string]struct{}, len(updates))
	for _, u := range updates {
		filled[form.FieldID(u.SectionID, u.FieldKey)] = struct{}{}
	}
	for i := range schema.Sections {
		for j := range schema.Sections[i].Fields {
			f := &schema.Sections[i].Fields[j]
			if !f.Empty() {
				continue
			}
			if _, ok := filled[f.ID()]; ok {
				continue
			}
			return "What is your " + f.Label + "?"
		}
	}
	return "All fields are complete. Would you like to submit the form now?"
}

type intentRequest struct {
	Input    string       `json:"input"`
	FormCode string       `json:"formCode"`
	Schema   *form.Schema `json:"schema,omitempty"`
}

func (s *Server) handleIntent(c *fiber.Ctx) error {
	var req intentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	if req.Input == "" {
		return fiber.NewError(fiber.StatusBadRequest, "input is required")
	}
	schema, err := s.resolveSchema(&processRequest{FormCode: req.FormCode, Schema: req.Schema})
	if err != nil {
		return err
	}

	classifier := intent.Classifier(s.local)
	if s.gateway != nil {
		classifier = intent.NewFallback(s.gateway, s.local)
	}
	result, err := classifier.Classify(c.Context(), req.Input, schema, nil)
	if err != nil {
		s.logger.Warn("intent classification errored, returning default", "error", err)
	}
	return c.JSON(result)
}

type applyDraftRequest struct {
	Draft   json.RawMessage `json:"draft"`
	Updates []form.Update   `json:"updates"`
}

func (s *Server) handleApplyDraft(c *fiber.Ctx) error {
	var req applyDraftRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	doc := []byte(req.Draft)
	if len(doc) == 0 {
		doc = draft.Empty()
	}
	patched, err := draft.Apply(doc, req.Updates)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return c.Send(patched)
}
