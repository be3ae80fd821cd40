package core

import (
	"encoding/json"
	"log"
	"strings"
)

type actionObject struct {
	Name       string          `json:"name"`
	Objective  string          `json:"objective"`
	PricingURL string          `json:"pricing_url"`
	URL        string          `json:"url"`
	Solver     json.RawMessage `json:"solver"`
	Filters    json.RawMessage `json:"filters"`
}

// parseActionSolver validates a per-action solver override. Anything outside
// the allowed set is dropped while the rest of the entry stays usable.
func parseActionSolver(raw json.RawMessage, silent bool, logger *log.Logger) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var solver string
	if err := json.Unmarshal(raw, &solver); err != nil {
		if !silent && logger != nil {
			logger.Printf("ignoring malformed solver %s", string(raw))
		}
		return ""
	}
	solver = strings.ToLower(strings.TrimSpace(solver))
	if solver != SolverMiniZinc && solver != SolverChoco {
		if !silent && logger != nil && solver != "" {
			logger.Printf("ignoring unsupported solver %q", solver)
		}
		return ""
	}
	return solver
}

// parseActionFilters accepts a per-action filters override only when it is a
// JSON object.
func parseActionFilters(raw json.RawMessage, silent bool, logger *log.Logger) map[string]interface{} {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var filters map[string]interface{}
	if err := json.Unmarshal(raw, &filters); err != nil {
		if !silent && logger != nil {
			logger.Printf("ignoring malformed filters %s", string(raw))
		}
		return nil
	}
	return filters
}

// parseActionEntry turns one raw plan entry into an executable action.
// Invalid entries are dropped rather than failing the whole plan; when
// silent is false the drop is logged.
func parseActionEntry(spec ActionSpec, silent bool, logger *log.Logger) (PlannedAction, bool) {
	raw := spec.Raw()
	if len(raw) == 0 {
		return PlannedAction{}, false
	}

	var name string
	if err := json.Unmarshal(raw, &name); err == nil {
		name = strings.TrimSpace(name)
		if allowedActions[name] {
			return PlannedAction{Name: name}, true
		}
		if !silent && logger != nil {
			logger.Printf("dropping unsupported action %q", name)
		}
		return PlannedAction{}, false
	}

	var obj actionObject
	if err := json.Unmarshal(raw, &obj); err != nil {
		if !silent && logger != nil {
			logger.Printf("dropping malformed action entry: %s", string(raw))
		}
		return PlannedAction{}, false
	}
	obj.Name = strings.TrimSpace(obj.Name)
	if !allowedActions[obj.Name] {
		if !silent && logger != nil {
			logger.Printf("dropping unsupported action %q", obj.Name)
		}
		return PlannedAction{}, false
	}

	objective := strings.ToLower(strings.TrimSpace(obj.Objective))
	if objective != "" && objective != ObjectiveMinimize && objective != ObjectiveMaximize {
		if !silent && logger != nil {
			logger.Printf("ignoring invalid objective %q on action %q", obj.Objective, obj.Name)
		}
		objective = ""
	}

	ref := strings.TrimSpace(obj.PricingURL)
	if ref == "" {
		ref = strings.TrimSpace(obj.URL)
	}

	return PlannedAction{
		Name:      obj.Name,
		Objective: objective,
		Reference: ref,
		Solver:    parseActionSolver(obj.Solver, silent, logger),
		Filters:   parseActionFilters(obj.Filters, silent, logger),
	}, true
}

// normalizeActions converts a plan's raw action list into executable steps,
// dropping entries that cannot be interpreted.
func normalizeActions(specs []ActionSpec, logger *log.Logger) []PlannedAction {
	var actions []PlannedAction
	for _, spec := range specs {
		if action, ok := parseActionEntry(spec, false, logger); ok {
			actions = append(actions, action)
		}
	}
	return actions
}

// normalizeRequirements parses classifier output without logging noise.
func normalizeRequirements(specs []ActionSpec) []PlannedAction {
	var actions []PlannedAction
	for _, spec := range specs {
		if action, ok := parseActionEntry(spec, true, nil); ok {
			actions = append(actions, action)
		}
	}
	return actions
}
