package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/isa-group/harvey/internal/agent/core"
	"github.com/isa-group/harvey/internal/workflow"
)

type stubAgent struct {
	answer   core.Answer
	err      error
	question string
	urls     []string
	yamls    []string
}

func (s *stubAgent) AnswerQuestion(_ context.Context, question string, urls, yamls []string) (core.Answer, error) {
	s.question = question
	s.urls = urls
	s.yamls = yamls
	return s.answer, s.err
}

func postChat(t *testing.T, body string, agent QuestionService) (*httptest.ResponseRecorder, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return rec, NewChatHandler(agent, nil).HandleChat(c)
}

func TestHandleChatRequiresQuestion(t *testing.T) {
	_, err := postChat(t, `{"pricing_url":"https://example.com/pricing"}`, &stubAgent{})
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestHandleChatSuccess(t *testing.T) {
	agent := &stubAgent{answer: core.Answer{
		Plan:   &core.Plan{Actions: []core.ActionSpec{core.NewAction("summary")}},
		Result: map[string]interface{}{"steps": []interface{}{}},
		Answer: "Here you go.",
	}}

	rec, err := postChat(t, `{"question":"Give me a summary","pricing_url":"https://example.com/p","pricing_urls":["https://example.com/q"],"pricing_yaml":"saasName: demo"}`, agent)
	if err != nil {
		t.Fatalf("HandleChat: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if agent.question != "Give me a summary" {
		t.Fatalf("unexpected question %q", agent.question)
	}
	if len(agent.urls) != 2 || agent.urls[0] != "https://example.com/p" {
		t.Fatalf("unexpected urls %v", agent.urls)
	}
	if len(agent.yamls) != 1 {
		t.Fatalf("unexpected yamls %v", agent.yamls)
	}

	var resp core.Answer
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.Answer != "Here you go." {
		t.Fatalf("unexpected answer %q", resp.Answer)
	}
}

func TestStatusForError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"upload required", core.ErrUploadRequired, http.StatusBadRequest},
		{"no context", core.ErrNoPricingContext, http.StatusBadRequest},
		{"parse", &core.PlanParseError{Reason: "bad json"}, http.StatusBadRequest},
		{"exhausted", &core.PlanExhaustedError{LastIssue: "missing summary"}, http.StatusBadRequest},
		{"unknown ref", &core.UnknownReferenceError{Reference: "x"}, http.StatusBadRequest},
		{"ambiguous", &core.AmbiguousReferenceError{}, http.StatusBadRequest},
		{"tool", &workflow.ToolError{Tool: "optimal", Message: "boom"}, http.StatusBadGateway},
		{"transport", &core.TransportError{Err: errors.New("timeout")}, http.StatusBadGateway},
		{"other", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		if got := statusForError(tc.err); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.want, got)
		}
	}
}

func TestHandleChatMapsAgentErrors(t *testing.T) {
	_, err := postChat(t, `{"question":"anything"}`, &stubAgent{err: core.ErrUploadRequired})
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}

	_, err = postChat(t, `{"question":"anything"}`, &stubAgent{err: &workflow.ToolError{Tool: "summary", Message: "down"}})
	if !errors.As(err, &he) || he.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %v", err)
	}
}
