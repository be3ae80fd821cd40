package server

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/isa-group/harvey/internal/agent/core"
	"github.com/isa-group/harvey/internal/store"
	"github.com/isa-group/harvey/internal/workflow"
)

// QuestionService answers natural-language pricing questions.
type QuestionService interface {
	AnswerQuestion(ctx context.Context, question string, pricingURLs, yamlContents []string) (core.Answer, error)
}

// ChatHandler serves the question-answering endpoints.
type ChatHandler struct {
	agent  QuestionService
	store  *store.Store
	logger *log.Logger
}

func NewChatHandler(agent QuestionService, st *store.Store) *ChatHandler {
	return &ChatHandler{
		agent:  agent,
		store:  st,
		logger: log.New(log.Writer(), "[HTTP] ", log.LstdFlags),
	}
}

type chatRequest struct {
	Question     string   `json:"question"`
	PricingURL   string   `json:"pricing_url"`
	PricingURLs  []string `json:"pricing_urls"`
	PricingYAML  string   `json:"pricing_yaml"`
	PricingYAMLs []string `json:"pricing_yamls"`
}

// HandleChat runs the full plan/execute/answer pipeline for one question.
func (h *ChatHandler) HandleChat(c echo.Context) error {
	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if req.Question == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "question is required")
	}

	var urls []string
	if req.PricingURL != "" {
		urls = append(urls, req.PricingURL)
	}
	urls = append(urls, req.PricingURLs...)

	var yamls []string
	if req.PricingYAML != "" {
		yamls = append(yamls, req.PricingYAML)
	}
	yamls = append(yamls, req.PricingYAMLs...)

	answer, err := h.agent.AnswerQuestion(c.Request().Context(), req.Question, urls, yamls)
	if err != nil {
		return echo.NewHTTPError(statusForError(err), err.Error())
	}

	h.auditConversation(c.Request().Context(), req.Question, answer)
	return c.JSON(http.StatusOK, answer)
}

// auditConversation persists the exchange when a store is configured. A
// failed save is logged, never surfaced to the client.
func (h *ChatHandler) auditConversation(ctx context.Context, question string, answer core.Answer) {
	if h.store == nil {
		return
	}
	planJSON, err := json.Marshal(answer.Plan)
	if err != nil {
		h.logger.Printf("audit: marshaling plan: %v", err)
		return
	}
	resultJSON, err := json.Marshal(answer.Result)
	if err != nil {
		h.logger.Printf("audit: marshaling result: %v", err)
		return
	}
	conv := store.Conversation{
		ID:        uuid.NewString(),
		Question:  question,
		Plan:      planJSON,
		Result:    resultJSON,
		Answer:    answer.Answer,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.store.SaveConversation(ctx, conv); err != nil {
		h.logger.Printf("audit: %v", err)
	}
}

// HandleListConversations returns recent audited exchanges.
func (h *ChatHandler) HandleListConversations(c echo.Context) error {
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit store is not configured")
	}
	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be a positive integer")
		}
		limit = parsed
	}
	list, err := h.store.ListConversations(c.Request().Context(), limit)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if list == nil {
		list = []store.Conversation{}
	}
	return c.JSON(http.StatusOK, list)
}

// HandleGetConversation returns one audited exchange by id.
func (h *ChatHandler) HandleGetConversation(c echo.Context) error {
	if h.store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "audit store is not configured")
	}
	conv, err := h.store.GetConversation(c.Request().Context(), c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	return c.JSON(http.StatusOK, conv)
}

// statusForError maps pipeline failures onto HTTP statuses: client-fixable
// planning and context problems are 400s, upstream failures are 502s.
func statusForError(err error) int {
	var parseErr *core.PlanParseError
	var exhaustedErr *core.PlanExhaustedError
	var unknownErr *core.UnknownReferenceError
	var ambiguousErr *core.AmbiguousReferenceError
	switch {
	case errors.Is(err, core.ErrUploadRequired),
		errors.Is(err, core.ErrNoPricingContext),
		errors.Is(err, core.ErrSpecUnavailable),
		errors.As(err, &parseErr),
		errors.As(err, &exhaustedErr),
		errors.As(err, &unknownErr),
		errors.As(err, &ambiguousErr):
		return http.StatusBadRequest
	}
	var toolErr *workflow.ToolError
	var transportErr *core.TransportError
	if errors.As(err, &toolErr) || errors.As(err, &transportErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
