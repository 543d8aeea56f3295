package server

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bytedance/sonic"

	"github.com/formease/formease/forms"
	"github.com/formease/formease/health"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	registry, err := forms.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(registry, nil, health.NewBreaker(logger), logger)
}

func doJSON(t *testing.T, s *Server, method, path, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := s.App().Test(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	out := make(map[string]any)
	if len(raw) > 0 && strings.HasPrefix(strings.TrimSpace(string(raw)), "{") {
		if err := sonic.Unmarshal(raw, &out); err != nil {
			t.Fatalf("unmarshal %q: %v", raw, err)
		}
	}
	return resp.StatusCode, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	status, body := doJSON(t, s, http.MethodGet, "/health", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if body["status"] != "ok" {
		t.Errorf("status field = %v", body["status"])
	}
	if body["remoteAvailable"] != false {
		t.Errorf("remoteAvailable = %v, want false without a gateway", body["remoteAvailable"])
	}
}

func TestListAndGetForms(t *testing.T) {
	s := newTestServer(t)
	status, body := doJSON(t, s, http.MethodGet, "/api/forms", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	formsList, ok := body["forms"].([]any)
	if !ok || len(formsList) != 3 {
		t.Fatalf("forms = %v, want 3 entries", body["forms"])
	}

	status, schema := doJSON(t, s, http.MethodGet, "/api/forms/passport", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if schema["formCode"] != "passport" {
		t.Errorf("formCode = %v", schema["formCode"])
	}

	status, _ = doJSON(t, s, http.MethodGet, "/api/forms/pan", "")
	if status != http.StatusNotFound {
		t.Errorf("unknown form status = %d, want 404", status)
	}
}

func TestWelcomeMessageFallsBackWithoutGateway(t *testing.T) {
	s := newTestServer(t)
	status, body := doJSON(t, s, http.MethodGet, "/api/welcome-message/passport", "")
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	message, _ := body["message"].(string)
	if !strings.Contains(message, "Passport") {
		t.Errorf("message %q does not mention the form", message)
	}
}

func TestProcessLocalFallback(t *testing.T) {
	s := newTestServer(t)
	body := `{"input":"My name is Raj Kumar and my email is raj@example.com","formCode":"passport"}`
	status, out := doJSON(t, s, http.MethodPost, "/api/nlp/process", body)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	if out["confidence"] != 0.7 {
		t.Errorf("confidence = %v, want 0.7", out["confidence"])
	}
	updates, ok := out["fieldUpdates"].([]any)
	if !ok || len(updates) == 0 {
		t.Fatalf("fieldUpdates = %v, want at least one", out["fieldUpdates"])
	}
	first, _ := updates[0].(map[string]any)
	if first["value"] != "Raj Kumar" {
		t.Errorf("first update value = %v, want Raj Kumar", first["value"])
	}
	question, _ := out["nextQuestion"].(string)
	if question == "" {
		t.Error("nextQuestion is empty")
	}
}

func TestProcessRequiresInput(t *testing.T) {
	s := newTestServer(t)
	status, _ := doJSON(t, s, http.MethodPost, "/api/nlp/process", `{"formCode":"passport"}`)
	if status != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", status)
	}
}

func TestIntentLocal(t *testing.T) {
	s := newTestServer(t)
	cases := []struct {
		input string
		want  string
	}{
		{"I'm done, submit the form", "submit"},
		{"go back", "goBack"},
		{"change my email to raj@example.com", "edit"},
		{"My name is Raj Kumar", "fillField"},
	}
	for _, tc := range cases {
		body, err := sonic.MarshalString(map[string]string{"input": tc.input, "formCode": "passport"})
		if err != nil {
			t.Fatal(err)
		}
		status, out := doJSON(t, s, http.MethodPost, "/api/nlp/intent", body)
		if status != http.StatusOK {
			t.Fatalf("status = %d for %q", status, tc.input)
		}
		if out["intent"] != tc.want {
			t.Errorf("intent(%q) = %v, want %s", tc.input, out["intent"], tc.want)
		}
	}
}

func TestApplyDraft(t *testing.T) {
	s := newTestServer(t)
	body := `{"draft":{"1":{"fullName":""}},"updates":[{"sectionId":1,"fieldKey":"fullName","value":"Raj Kumar"},{"sectionId":2,"fieldKey":"email","value":"raj@example.com"}]}`
	status, out := doJSON(t, s, http.MethodPost, "/api/drafts/apply", body)
	if status != http.StatusOK {
		t.Fatalf("status = %d", status)
	}
	section1, _ := out["1"].(map[string]any)
	if section1["fullName"] != "Raj Kumar" {
		t.Errorf("fullName = %v", section1["fullName"])
	}
	section2, _ := out["2"].(map[string]any)
	if section2["email"] != "raj@example.com" {
		t.Errorf("email = %v", section2["email"])
	}
}
