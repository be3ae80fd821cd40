package core

import (
	"context"
	"encoding/json"
	"fmt"
)

// Tool names understood by the pricing workflow server.
const (
	ActionSummary       = "summary"
	ActionIPricing      = "iPricing"
	ActionSubscriptions = "subscriptions"
	ActionOptimal       = "optimal"
	ActionValidate      = "validate"
)

// Objectives accepted by the optimiser.
const (
	ObjectiveMinimize = "minimize"
	ObjectiveMaximize = "maximize"
)

// Solvers supported by the analysis backend.
const (
	SolverMiniZinc = "minizinc"
	SolverChoco    = "choco"
)

// PlanRequestMaxAttempts bounds the plan correction loop.
const PlanRequestMaxAttempts = 3

var allowedActions = map[string]bool{
	ActionSummary:       true,
	ActionIPricing:      true,
	ActionSubscriptions: true,
	ActionOptimal:       true,
	ActionValidate:      true,
}

// PlannedAction is a normalized, executable plan step. Objective, Reference,
// Solver and Filters are per-action overrides of the plan-level defaults.
type PlannedAction struct {
	Name      string
	Objective string
	Reference string
	Solver    string
	Filters   map[string]interface{}
}

// EffectiveObjective resolves the per-action objective against a plan default.
func (a PlannedAction) EffectiveObjective(planDefault string) string {
	if a.Objective != "" {
		return a.Objective
	}
	if planDefault != "" {
		return planDefault
	}
	return ObjectiveMinimize
}

// ActionSpec is a raw plan entry as emitted by the model: either a bare tool
// name ("summary") or an object ({"name":"optimal","objective":"maximize"}).
// The raw bytes are kept so a plan round-trips unchanged through the API.
type ActionSpec struct {
	raw json.RawMessage
}

// NewAction builds a bare-string action spec.
func NewAction(name string) ActionSpec {
	raw, _ := json.Marshal(name)
	return ActionSpec{raw: raw}
}

// NewObjectiveAction builds an object action spec with an objective override.
func NewObjectiveAction(name, objective string) ActionSpec {
	raw, _ := json.Marshal(map[string]string{"name": name, "objective": objective})
	return ActionSpec{raw: raw}
}

// NewReferenceAction builds an object action spec bound to a pricing context.
func NewReferenceAction(name, reference string) ActionSpec {
	raw, _ := json.Marshal(map[string]string{"name": name, "pricing_url": reference})
	return ActionSpec{raw: raw}
}

func (a *ActionSpec) UnmarshalJSON(data []byte) error {
	a.raw = append(a.raw[:0], data...)
	return nil
}

func (a ActionSpec) MarshalJSON() ([]byte, error) {
	if a.raw == nil {
		return []byte("null"), nil
	}
	return a.raw, nil
}

// Raw exposes the untouched entry bytes.
func (a ActionSpec) Raw() json.RawMessage { return a.raw }

// Plan is the structured planning response.
type Plan struct {
	Actions              []ActionSpec           `json:"actions"`
	PricingURL           string                 `json:"pricing_url,omitempty"`
	PricingURLs          []string               `json:"pricing_urls,omitempty"` // legacy, folded into the default reference
	RequiresUploadedYAML bool                   `json:"requires_uploaded_yaml"`
	IntentSummary        string                 `json:"intent_summary,omitempty"`
	Filters              map[string]interface{} `json:"filters,omitempty"`
	Objective            string                 `json:"objective,omitempty"`
	Solver               string                 `json:"solver,omitempty"`
	Refresh              bool                   `json:"refresh"`
	UseSpec              bool                   `json:"use_pricing2yaml_spec"`
}

// ExecutionStep records one executed tool call, including the effective
// objective, solver and filters the call ran with.
type ExecutionStep struct {
	Index          int                    `json:"index"`
	Action         string                 `json:"action"`
	Objective      string                 `json:"objective,omitempty"`
	Solver         string                 `json:"solver,omitempty"`
	Filters        map[string]interface{} `json:"filters,omitempty"`
	URL            string                 `json:"url,omitempty"`
	PricingContext string                 `json:"pricingContext,omitempty"`
	Payload        map[string]interface{} `json:"payload"`
}

// Answer is the full outcome of a handled question.
type Answer struct {
	Plan   *Plan       `json:"plan"`
	Result interface{} `json:"result"`
	Answer string      `json:"answer"`
}

// LLMProvider defines the interface for language model providers.
type LLMProvider interface {
	Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error)
	GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error)
	GetAvailableModels() []string
	GetModelInfo(model string) (ModelInfo, error)
	CalculateCost(inputTokens, outputTokens int64, model string) float64
}

// ModelInfo contains information about a model
type ModelInfo struct {
	Name            string   `json:"name"`
	Provider        string   `json:"provider"`
	MaxTokens       int      `json:"max_tokens"`
	CostPer1KInput  float64  `json:"cost_per_1k_input"`
	CostPer1KOutput float64  `json:"cost_per_1k_output"`
	Capabilities    []string `json:"capabilities"`
	Description     string   `json:"description"`
}

// WorkflowClient is the boundary to the pricing tool server.
type WorkflowClient interface {
	RunSummary(ctx context.Context, url, yamlContent string, refresh bool) (map[string]interface{}, error)
	RunIPricing(ctx context.Context, url, yamlContent string, refresh bool) (map[string]interface{}, error)
	RunSubscriptions(ctx context.Context, url string, filters map[string]interface{}, solver string, refresh bool, yamlContent string) (map[string]interface{}, error)
	RunOptimal(ctx context.Context, url string, filters map[string]interface{}, solver, objective string, refresh bool, yamlContent string) (map[string]interface{}, error)
	RunValidation(ctx context.Context, url, solver string, refresh bool, yamlContent string) (map[string]interface{}, error)
	ReadResourceText(ctx context.Context, uri string) (string, error)
}

// DocumentCache memoizes transformed pricing documents per source URL.
type DocumentCache interface {
	Get(ctx context.Context, url string) (string, bool)
	Set(ctx context.Context, url, yamlContent string)
}

func formatActionDescriptor(action PlannedAction) string {
	if action.Name == ActionOptimal {
		return fmt.Sprintf("optimal(%s)", action.EffectiveObjective(""))
	}
	return action.Name
}
