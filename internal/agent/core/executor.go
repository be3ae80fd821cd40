package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/isa-group/harvey/internal/agent/telemetry"
)

// Executor runs a validated plan step by step against the pricing tool
// server, resolving each action's pricing context before the call.
type Executor struct {
	workflow  WorkflowClient
	cache     DocumentCache
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

func NewExecutor(workflow WorkflowClient, cache DocumentCache, tel *telemetry.Telemetry) *Executor {
	return &Executor{
		workflow:  workflow,
		cache:     cache,
		telemetry: tel,
		logger:    log.New(log.Writer(), "[EXECUTOR] ", log.LstdFlags),
	}
}

// Execute runs every tool action in the plan and returns the ordered step
// records. Every action's pricing context is validated up front so that an
// unknown or ambiguous reference surfaces before any tool call is made;
// execution then stops at the first failing step.
func (e *Executor) Execute(ctx context.Context, plan *Plan, reg *ContextRegistry) ([]ExecutionStep, error) {
	ctx, span := otel.Tracer("harvey/agent").Start(ctx, "executor.execute")
	defer span.End()

	actions := normalizeActions(plan.Actions, e.logger)
	defaultRef := resolveDefaultReference(plan, reg)

	refs := make([]string, len(actions))
	for i, action := range actions {
		ref, err := e.resolveReference(action, defaultRef, reg)
		if err != nil {
			return nil, err
		}
		refs[i] = ref
	}

	steps := make([]ExecutionStep, 0, len(actions))
	transformed := make(map[string]bool)
	for i, action := range actions {
		ref := refs[i]

		var url, yamlContent string
		if content, ok := reg.Upload(ref); ok {
			yamlContent = content
		} else {
			url = ref
		}

		refresh := plan.Refresh && url != "" && !transformed[url]
		if url != "" && !refresh && e.cache != nil {
			if cached, ok := e.cache.Get(ctx, url); ok {
				e.logger.Printf("step %d: using cached document for %s", i, url)
				yamlContent = cached
			}
		}

		solver := action.Solver
		if solver == "" {
			solver = plan.Solver
		}
		if solver == "" {
			solver = SolverMiniZinc
		}
		filters := action.Filters
		if filters == nil {
			filters = plan.Filters
		}

		objective := action.EffectiveObjective(plan.Objective)

		start := time.Now()
		payload, err := e.runSingleAction(ctx, action, objective, solver, filters, url, yamlContent, refresh)
		if e.telemetry != nil {
			e.telemetry.RecordToolCall(action.Name, time.Since(start), err)
		}
		if err != nil {
			return nil, fmt.Errorf("action %q failed: %w", action.Name, err)
		}

		if url != "" {
			transformed[url] = true
			if e.cache != nil {
				if doc, ok := payload["pricing_yaml"].(string); ok && doc != "" {
					e.cache.Set(ctx, url, doc)
				}
			}
		}

		step := ExecutionStep{
			Index:          i,
			Action:         action.Name,
			PricingContext: ref,
			Payload:        payload,
		}
		switch action.Name {
		case ActionOptimal:
			step.Objective = objective
			step.Solver = solver
			step.Filters = filters
		case ActionSubscriptions:
			step.Solver = solver
			step.Filters = filters
		case ActionValidate:
			step.Solver = solver
		}
		if url != "" {
			step.URL = url
		}
		steps = append(steps, step)
	}
	span.SetAttributes(attribute.Int("executor.steps", len(steps)))
	return steps, nil
}

// resolveDefaultReference picks the plan-level pricing context: the plan's
// own pricing_url, then the legacy pricing_urls list, then the sole
// registered context when only one exists.
func resolveDefaultReference(plan *Plan, reg *ContextRegistry) string {
	if ref := strings.TrimSpace(plan.PricingURL); ref != "" {
		return ref
	}
	for _, legacy := range plan.PricingURLs {
		if ref := strings.TrimSpace(legacy); ref != "" {
			return ref
		}
	}
	if refs := reg.References(); len(refs) == 1 {
		return refs[0]
	}
	return ""
}

// resolveReference settles the pricing context for one action before its
// tool call runs. Unknown references that look like URLs are accepted ad hoc.
func (e *Executor) resolveReference(action PlannedAction, defaultRef string, reg *ContextRegistry) (string, error) {
	ref := strings.TrimSpace(action.Reference)
	if ref == "" {
		ref = defaultRef
	}
	if ref == "" {
		switch reg.Total() {
		case 0:
			return "", ErrNoPricingContext
		case 1:
			return reg.References()[0], nil
		default:
			return "", &AmbiguousReferenceError{Available: reg.References()}
		}
	}
	if !reg.IsKnown(ref) && !looksLikeURL(ref) {
		return "", &UnknownReferenceError{Reference: ref, Known: reg.References()}
	}
	return ref, nil
}

func (e *Executor) runSingleAction(ctx context.Context, action PlannedAction, objective, solver string, filters map[string]interface{}, url, yamlContent string, refresh bool) (map[string]interface{}, error) {
	switch action.Name {
	case ActionSummary:
		return e.workflow.RunSummary(ctx, url, yamlContent, refresh)
	case ActionIPricing:
		return e.workflow.RunIPricing(ctx, url, yamlContent, refresh)
	case ActionSubscriptions:
		return e.workflow.RunSubscriptions(ctx, url, filters, solver, refresh, yamlContent)
	case ActionOptimal:
		return e.workflow.RunOptimal(ctx, url, filters, solver, objective, refresh, yamlContent)
	case ActionValidate:
		return e.workflow.RunValidation(ctx, url, solver, refresh, yamlContent)
	}
	return nil, fmt.Errorf("unsupported action %q", action.Name)
}

// composeResultsPayload shapes the executed steps into the API result and
// the payload handed to the answering model.
func composeResultsPayload(steps []ExecutionStep) (interface{}, map[string]interface{}) {
	switch len(steps) {
	case 0:
		empty := map[string]interface{}{"steps": []ExecutionStep{}}
		return empty, empty
	case 1:
		return steps[0], steps[0].Payload
	}
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Action
	}
	combined := map[string]interface{}{
		"actions":     names,
		"steps":       steps,
		"lastPayload": steps[len(steps)-1].Payload,
	}
	return combined, combined
}
