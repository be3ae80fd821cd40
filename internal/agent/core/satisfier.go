package core

import (
	"fmt"
	"strings"
)

// actionsSatisfyRequirements checks that required appears inside actions as
// an ordered subsequence. For "optimal" the objectives must agree, with
// minimize assumed when a side leaves it unset.
func actionsSatisfyRequirements(actions, required []PlannedAction) bool {
	if len(required) == 0 {
		return true
	}
	idx := 0
	for _, action := range actions {
		if idx >= len(required) {
			break
		}
		if actionMatchesRequirement(action, required[idx]) {
			idx++
		}
	}
	return idx == len(required)
}

func actionMatchesRequirement(action, required PlannedAction) bool {
	if action.Name != required.Name {
		return false
	}
	// the objective constrains the match only when the requirement names one
	if required.Name != ActionOptimal || required.Objective == "" {
		return true
	}
	return action.EffectiveObjective("") == required.Objective
}

// describeRequiredActionMismatch renders the issue fed back to the planner
// on a corrective attempt.
func describeRequiredActionMismatch(actions, required []PlannedAction) string {
	requiredDesc := make([]string, len(required))
	for i, r := range required {
		requiredDesc[i] = formatActionDescriptor(r)
	}
	if len(actions) == 0 {
		return fmt.Sprintf("Plan.actions was empty but required steps were expected: %s.", strings.Join(requiredDesc, ", "))
	}
	actualDesc := make([]string, len(actions))
	for i, a := range actions {
		actualDesc[i] = formatActionDescriptor(a)
	}
	return fmt.Sprintf("Plan.actions must include the required sequence %s (in order). Actual sequence: %s.",
		strings.Join(requiredDesc, ", "), strings.Join(actualDesc, ", "))
}

// explainRequiredActions produces one rationale line per required action so
// the planner understands why each step is mandatory.
func explainRequiredActions(required []PlannedAction) []string {
	var notes []string
	for _, r := range required {
		switch r.Name {
		case ActionSummary:
			notes = append(notes, `Use "summary" to obtain authoritative catalogue counts instead of reading the YAML manually.`)
		case ActionIPricing:
			notes = append(notes, `Use "iPricing" to fetch the canonical Pricing2Yaml document the user asked for.`)
		case ActionSubscriptions:
			notes = append(notes, `Use "subscriptions" to enumerate configurations and report the exact cardinality.`)
		case ActionValidate:
			notes = append(notes, `Use "validate" to check the document against the Pricing2Yaml specification.`)
		case ActionOptimal:
			if r.EffectiveObjective("") == ObjectiveMaximize {
				notes = append(notes, `Use "optimal" with objective="maximize" to compute the most expensive configuration.`)
			} else {
				notes = append(notes, `Use "optimal" with objective="minimize" to compute the cheapest configuration.`)
			}
		}
	}
	return notes
}
