package core

import (
	"encoding/json"
	"strings"
)

// stripMarkdownFences removes a surrounding ``` fence when the whole
// response is wrapped in one.
func stripMarkdownFences(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	lines := strings.Split(trimmed, "\n")
	if len(lines) < 2 {
		return trimmed
	}
	lines = lines[1:]
	if strings.HasPrefix(strings.TrimSpace(lines[len(lines)-1]), "```") {
		lines = lines[:len(lines)-1]
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// extractFirstJSONBlock scans for the first decodable JSON object or array
// embedded in free text.
func extractFirstJSONBlock(text string) (string, bool) {
	for i := 0; i < len(text); i++ {
		if text[i] != '{' && text[i] != '[' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(text[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		return text[i : i+int(dec.InputOffset())], true
	}
	return "", false
}

// ensureJSONDocument normalizes an LLM response down to a bare JSON
// document, tolerating fences and surrounding prose.
func ensureJSONDocument(text string) (string, bool) {
	trimmed := stripMarkdownFences(text)
	if trimmed == "" {
		return "", false
	}
	if json.Valid([]byte(trimmed)) {
		return trimmed, true
	}
	return extractFirstJSONBlock(trimmed)
}

// parsePlanText interprets a planning response. When allowFallback is set a
// non-JSON response degrades to a keyword-inferred plan instead of an error.
func parsePlanText(text, question string, reg *ContextRegistry, allowFallback bool) (*Plan, error) {
	trimmed := stripMarkdownFences(text)
	if trimmed == "" {
		return nil, &PlanParseError{Reason: "planning response was empty"}
	}

	var plan Plan
	if err := json.Unmarshal([]byte(trimmed), &plan); err == nil {
		return &plan, nil
	}
	if block, ok := extractFirstJSONBlock(trimmed); ok {
		plan = Plan{}
		if err := json.Unmarshal([]byte(block), &plan); err == nil {
			return &plan, nil
		}
	}
	if allowFallback {
		if plan := derivePlanFromText(question, trimmed, reg); plan != nil {
			return plan, nil
		}
	}
	return nil, &PlanParseError{Reason: "planning response was not valid JSON"}
}

// derivePlanFromText builds a best-effort plan from keyword signals in the
// question and the model's prose. Returns nil when no keyword matched or no
// pricing context exists to run against.
func derivePlanFromText(question, text string, reg *ContextRegistry) *Plan {
	if reg.Total() == 0 {
		return nil
	}
	lowered := strings.ToLower(question + "\n" + text)
	inferred := collectInferredActions(lowered)
	if len(inferred) == 0 {
		return nil
	}

	specs := make([]ActionSpec, 0, len(inferred))
	for _, action := range inferred {
		if action.Name == ActionOptimal {
			specs = append(specs, NewObjectiveAction(action.Name, action.EffectiveObjective("")))
			continue
		}
		specs = append(specs, NewAction(action.Name))
	}

	plan := &Plan{
		Actions:       specs,
		IntentSummary: buildIntentSummary(question),
		Objective:     ObjectiveMinimize,
		Solver:        SolverMiniZinc,
		Refresh:       reg.HasUploads(),
	}
	if refs := reg.References(); len(refs) == 1 {
		plan.PricingURL = refs[0]
	}
	return plan
}

var inferredActionKeywords = []struct {
	name      string
	objective string
	keywords  []string
}{
	{name: ActionSummary, keywords: []string{"summary", "summarise", "summarize", "synopsis", "overview"}},
	{name: ActionIPricing, keywords: []string{
		"pricing yaml", "pricing2yaml", "yaml file", "download the yaml",
		"export the yaml", "raw yaml", "ipricing document",
	}},
	{name: ActionSubscriptions, keywords: []string{
		"number of subscriptions", "how many subscriptions", "how many plans",
		"number of plans", "configuration count", "how many configurations",
		"number of configurations", "plan variants",
	}},
	{name: ActionValidate, keywords: []string{"is the pricing valid", "validate the pricing", "well-formed", "conforms to"}},
	{name: ActionOptimal, objective: ObjectiveMinimize, keywords: []string{
		"cheapest", "best plan", "lowest cost", "least expensive", "most affordable", "best option",
	}},
	{name: ActionOptimal, objective: ObjectiveMaximize, keywords: []string{
		"most expensive", "priciest", "highest cost", "premium plan",
	}},
}

// collectInferredActions maps keyword families onto tool actions, keeping
// one entry per distinct action and objective.
func collectInferredActions(lowered string) []PlannedAction {
	var actions []PlannedAction
	seen := make(map[string]bool)
	for _, family := range inferredActionKeywords {
		for _, kw := range family.keywords {
			if !strings.Contains(lowered, kw) {
				continue
			}
			key := family.name + "|" + family.objective
			if seen[key] {
				break
			}
			seen[key] = true
			actions = append(actions, PlannedAction{Name: family.name, Objective: family.objective})
			break
		}
	}
	return actions
}

func buildIntentSummary(question string) string {
	truncated := strings.TrimSpace(question)
	if len(truncated) > 160 {
		truncated = truncated[:160]
	}
	return "Plan inferred for question: " + truncated
}
