package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/isa-group/harvey/config"
	"github.com/isa-group/harvey/internal/agent/telemetry"
)

var specKeywords = []string{"pricing2yaml", "pricing 2 yaml", "yaml spec", "schema", "syntax", "ipricing"}

// Agent is the orchestration facade: it assembles the pricing contexts for
// a question, obtains a validated plan, executes it and narrates the answer.
type Agent struct {
	cfg       *config.Config
	workflow  WorkflowClient
	telemetry *telemetry.Telemetry
	planner   *Planner
	executor  *Executor
	composer  *Composer
	logger    *log.Logger

	specOnce sync.Once
	specText string
	specErr  error
}

func NewAgent(cfg *config.Config, llm LLMProvider, workflow WorkflowClient, cache DocumentCache, tel *telemetry.Telemetry) *Agent {
	return &Agent{
		cfg:       cfg,
		workflow:  workflow,
		telemetry: tel,
		planner:   NewPlanner(cfg, llm, tel),
		executor:  NewExecutor(workflow, cache, tel),
		composer:  NewComposer(cfg, llm, tel),
		logger:    log.New(log.Writer(), "[AGENT] ", log.LstdFlags),
	}
}

// AnswerQuestion handles one natural-language pricing question end to end.
// URLs mentioned inside the question join the explicitly provided ones.
func (a *Agent) AnswerQuestion(ctx context.Context, question string, pricingURLs, yamlContents []string) (Answer, error) {
	ctx, span := otel.Tracer("harvey/agent").Start(ctx, "agent.answer_question")
	defer span.End()
	start := time.Now()

	urls := make([]string, 0, len(pricingURLs))
	urls = append(urls, pricingURLs...)
	urls = append(urls, extractURLsFromQuestion(question)...)
	reg := NewContextRegistry(urls, yamlContents)
	a.logger.Printf("handling question with %d url(s) and %d upload(s)", len(reg.URLs()), len(reg.Aliases()))

	specExcerpt := ""
	if shouldIncludeSpec(question, nil) {
		specExcerpt = a.specificationExcerpt(ctx)
	}

	plan, err := a.planner.GeneratePlan(ctx, question, reg, specExcerpt)
	if err != nil {
		a.recordQuestion(start, 0, false)
		return Answer{}, err
	}

	steps, err := a.executor.Execute(ctx, plan, reg)
	if err != nil {
		a.recordQuestion(start, 0, false)
		return Answer{}, err
	}

	if specExcerpt == "" && shouldIncludeSpec(question, plan) {
		specExcerpt = a.specificationExcerpt(ctx)
	}

	result, answerPayload := composeResultsPayload(steps)
	answer, err := a.composer.ComposeAnswer(ctx, question, plan, answerPayload, specExcerpt)
	if err != nil {
		a.recordQuestion(start, len(steps), false)
		return Answer{}, err
	}

	// the legacy list is folded into the default reference during execution
	plan.PricingURLs = nil

	a.recordQuestion(start, len(steps), true)
	return Answer{Plan: plan, Result: result, Answer: answer}, nil
}

func (a *Agent) recordQuestion(start time.Time, steps int, success bool) {
	if a.telemetry != nil {
		a.telemetry.RecordQuestion(time.Since(start), steps, success)
	}
}

// specificationExcerpt loads the Pricing2Yaml specification resource once
// per agent instance. A missing resource degrades to an empty excerpt.
func (a *Agent) specificationExcerpt(ctx context.Context) string {
	a.specOnce.Do(func() {
		text, err := a.workflow.ReadResourceText(ctx, a.cfg.Workflow.SpecResource)
		if err != nil {
			a.specErr = fmt.Errorf("%w: %v", ErrSpecUnavailable, err)
			return
		}
		if strings.TrimSpace(text) == "" {
			a.specErr = ErrSpecUnavailable
			return
		}
		a.specText = text
	})
	if a.specErr != nil {
		a.logger.Printf("specification excerpt unavailable: %v", a.specErr)
		return ""
	}
	return a.specText
}

// shouldIncludeSpec decides whether the Pricing2Yaml specification excerpt
// belongs in the prompt, from the plan's explicit flag or question wording.
func shouldIncludeSpec(question string, plan *Plan) bool {
	if plan != nil && plan.UseSpec {
		return true
	}
	lowered := strings.ToLower(question)
	for _, kw := range specKeywords {
		if strings.Contains(lowered, kw) {
			return true
		}
	}
	return false
}
