package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/isa-group/harvey/config"
	"github.com/isa-group/harvey/internal/agent/telemetry"
)

// Planner drives the bounded plan-correction loop: it infers the actions a
// correct answer requires, asks the planning model for a structured plan and
// feeds mismatches back until the plan satisfies the requirements or the
// attempt budget runs out.
type Planner struct {
	cfg       *config.Config
	llm       LLMProvider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

func NewPlanner(cfg *config.Config, llm LLMProvider, tel *telemetry.Telemetry) *Planner {
	return &Planner{
		cfg:       cfg,
		llm:       llm,
		telemetry: tel,
		logger:    log.New(log.Writer(), "[PLANNER] ", log.LstdFlags),
	}
}

// GeneratePlan produces a plan for the question that includes every
// independently inferred required action.
func (p *Planner) GeneratePlan(ctx context.Context, question string, reg *ContextRegistry, specExcerpt string) (*Plan, error) {
	ctx, span := otel.Tracer("harvey/agent").Start(ctx, "planner.generate_plan")
	defer span.End()

	required := p.inferRequiredActions(ctx, question, reg)
	messages := buildPlanMessages(question, reg, required, specExcerpt)

	var lastIssue string
	for attempt := 1; attempt <= PlanRequestMaxAttempts; attempt++ {
		prompt := strings.Join(messages, "\n\n")
		if lastIssue != "" {
			prompt += "\n\nPrevious attempt issues: " + lastIssue +
				"\nReturn a corrected JSON plan that satisfies all requirements."
		}

		response, err := p.generate(ctx, "planning", prompt)
		if err != nil {
			return nil, fmt.Errorf("planning request failed: %w", err)
		}

		plan, err := parsePlanText(response, question, reg, false)
		if err != nil {
			lastIssue = err.Error()
			p.logger.Printf("attempt %d/%d: %s", attempt, PlanRequestMaxAttempts, lastIssue)
			continue
		}

		if plan.RequiresUploadedYAML && !reg.HasUploads() {
			return nil, ErrUploadRequired
		}

		actions := normalizeActions(plan.Actions, p.logger)
		if actionsSatisfyRequirements(actions, required) {
			span.SetAttributes(attribute.Int("plan.attempts", attempt), attribute.Int("plan.actions", len(actions)))
			return plan, nil
		}
		lastIssue = describeRequiredActionMismatch(actions, required)
		p.logger.Printf("attempt %d/%d: %s", attempt, PlanRequestMaxAttempts, lastIssue)
	}
	return nil, &PlanExhaustedError{LastIssue: lastIssue}
}

// inferRequiredActions asks the classification model which tools a correct
// answer must call, degrading to keyword inference when the model fails.
func (p *Planner) inferRequiredActions(ctx context.Context, question string, reg *ContextRegistry) []PlannedAction {
	if strings.TrimSpace(question) == "" {
		return nil
	}
	if required, ok := p.classifyRequiredActions(ctx, question, reg); ok {
		return required
	}
	return collectInferredActions(strings.ToLower(question))
}

func (p *Planner) classifyRequiredActions(ctx context.Context, question string, reg *ContextRegistry) ([]PlannedAction, bool) {
	messages := []string{
		defaultRequiredActionPrompt,
		"Question: " + question,
		describeAvailableContexts(reg),
	}
	response, err := p.generate(ctx, "classification", strings.Join(messages, "\n\n"))
	if err != nil {
		p.logger.Printf("required-action classification failed: %v", err)
		return nil, false
	}
	doc, ok := ensureJSONDocument(response)
	if !ok {
		return nil, false
	}

	var specs []ActionSpec
	if err := json.Unmarshal([]byte(doc), &specs); err == nil {
		return normalizeRequirements(specs), true
	}
	var wrapper struct {
		RequiredActions []ActionSpec `json:"required_actions"`
		Actions         []ActionSpec `json:"actions"`
	}
	if err := json.Unmarshal([]byte(doc), &wrapper); err != nil {
		return nil, false
	}
	specs = wrapper.RequiredActions
	if specs == nil {
		specs = wrapper.Actions
	}
	if specs == nil {
		return nil, false
	}
	return normalizeRequirements(specs), true
}

func (p *Planner) generate(ctx context.Context, task, prompt string) (string, error) {
	model := p.cfg.LLM.Routing.ModelFor(task)
	text, inputTokens, outputTokens, err := p.llm.GenerateWithTokens(ctx, prompt, model, nil)
	if err != nil {
		return "", err
	}
	if p.telemetry != nil {
		p.telemetry.RecordLLMUsage(task, model, inputTokens, outputTokens,
			p.llm.CalculateCost(inputTokens, outputTokens, model))
	}
	return text, nil
}

func buildPlanMessages(question string, reg *ContextRegistry, required []PlannedAction, specExcerpt string) []string {
	messages := []string{
		defaultPlanPrompt,
		planResponseFormatInstructions,
		"Question: " + question,
		describeAvailableContexts(reg),
	}
	for _, alias := range reg.Aliases() {
		content, _ := reg.Upload(alias)
		chunks := chunkText(content, payloadChunkSize)
		for i, chunk := range chunks {
			messages = append(messages, fmt.Sprintf("YAML[%s] chunk %d/%d:\n%s", alias, i+1, len(chunks), chunk))
		}
	}
	if len(required) > 0 {
		descriptors := make([]string, len(required))
		for i, r := range required {
			descriptors[i] = formatActionDescriptor(r)
		}
		encoded, _ := json.Marshal(descriptors)
		messages = append(messages,
			"Required actions (include each exactly once, in the given order): "+string(encoded))
		messages = append(messages, explainRequiredActions(required)...)
	}
	if strings.TrimSpace(specExcerpt) != "" {
		messages = append(messages, "Pricing2Yaml specification excerpt:\n"+specExcerpt)
	}
	return messages
}

func describeAvailableContexts(reg *ContextRegistry) string {
	var b strings.Builder
	if urls := reg.URLs(); len(urls) > 0 {
		b.WriteString("Pricing URLs:")
		for i, u := range urls {
			b.WriteString(fmt.Sprintf("\n%d. %s", i+1, u))
		}
	} else {
		b.WriteString("Pricing URLs: None")
	}
	if aliases := reg.Aliases(); len(aliases) > 0 {
		b.WriteString("\nUploaded YAML aliases: " + strings.Join(aliases, ", "))
	}
	return b.String()
}
