package core

import (
	"strings"
	"testing"
)

func TestActionsSatisfyRequirementsSubsequence(t *testing.T) {
	actions := []PlannedAction{
		{Name: ActionIPricing},
		{Name: ActionSubscriptions},
		{Name: ActionOptimal, Objective: ObjectiveMinimize},
	}
	required := []PlannedAction{
		{Name: ActionSubscriptions},
		{Name: ActionOptimal, Objective: ObjectiveMinimize},
	}
	if !actionsSatisfyRequirements(actions, required) {
		t.Fatal("ordered subsequence should satisfy")
	}

	outOfOrder := []PlannedAction{
		{Name: ActionOptimal, Objective: ObjectiveMinimize},
		{Name: ActionSubscriptions},
	}
	if actionsSatisfyRequirements(outOfOrder, required) {
		t.Fatal("order must be respected")
	}
}

func TestActionsSatisfyRequirementsOptimalObjectiveDefaultsToMinimize(t *testing.T) {
	actions := []PlannedAction{{Name: ActionOptimal}}
	required := []PlannedAction{{Name: ActionOptimal, Objective: ObjectiveMinimize}}
	if !actionsSatisfyRequirements(actions, required) {
		t.Fatal("unset candidate objective should count as minimize")
	}

	required = []PlannedAction{{Name: ActionOptimal, Objective: ObjectiveMaximize}}
	if actionsSatisfyRequirements(actions, required) {
		t.Fatal("minimize must not satisfy a maximize requirement")
	}
}

func TestActionsSatisfyRequirementsOptimalWithoutRequiredObjective(t *testing.T) {
	actions := []PlannedAction{{Name: ActionOptimal, Objective: ObjectiveMaximize}}
	required := []PlannedAction{{Name: ActionOptimal}}
	if !actionsSatisfyRequirements(actions, required) {
		t.Fatal("a requirement without an objective matches any optimal call")
	}
}

func TestActionsSatisfyRequirementsEmptyRequired(t *testing.T) {
	if !actionsSatisfyRequirements(nil, nil) {
		t.Fatal("no requirements are always satisfied")
	}
}

func TestDescribeRequiredActionMismatch(t *testing.T) {
	required := []PlannedAction{{Name: ActionSummary}, {Name: ActionOptimal, Objective: ObjectiveMaximize}}

	msg := describeRequiredActionMismatch(nil, required)
	if !strings.Contains(msg, "Plan.actions was empty") || !strings.Contains(msg, "optimal(maximize)") {
		t.Fatalf("unexpected message %q", msg)
	}

	actions := []PlannedAction{{Name: ActionIPricing}}
	msg = describeRequiredActionMismatch(actions, required)
	if !strings.Contains(msg, "must include the required sequence summary, optimal(maximize) (in order)") {
		t.Fatalf("unexpected message %q", msg)
	}
	if !strings.Contains(msg, "Actual sequence: iPricing.") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestExplainRequiredActions(t *testing.T) {
	notes := explainRequiredActions([]PlannedAction{
		{Name: ActionSummary},
		{Name: ActionOptimal, Objective: ObjectiveMaximize},
	})
	if len(notes) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(notes))
	}
	if !strings.Contains(notes[1], "maximize") {
		t.Fatalf("unexpected note %q", notes[1])
	}
}

func TestParseActionEntryObjectForms(t *testing.T) {
	action, ok := parseActionEntry(NewObjectiveAction(ActionOptimal, ObjectiveMaximize), true, nil)
	if !ok || action.Objective != ObjectiveMaximize {
		t.Fatalf("unexpected action %+v %t", action, ok)
	}

	action, ok = parseActionEntry(NewReferenceAction(ActionSummary, "uploaded://pricing/2"), true, nil)
	if !ok || action.Reference != "uploaded://pricing/2" {
		t.Fatalf("unexpected action %+v %t", action, ok)
	}

	if _, ok := parseActionEntry(NewAction("teleport"), true, nil); ok {
		t.Fatal("unsupported tool names must be dropped")
	}

	var bogus ActionSpec
	if err := bogus.UnmarshalJSON([]byte(`42`)); err != nil {
		t.Fatalf("raw capture failed: %v", err)
	}
	if _, ok := parseActionEntry(bogus, true, nil); ok {
		t.Fatal("numeric entries must be dropped")
	}

	var badObjective ActionSpec
	if err := badObjective.UnmarshalJSON([]byte(`{"name":"optimal","objective":"fastest"}`)); err != nil {
		t.Fatalf("raw capture failed: %v", err)
	}
	action, ok = parseActionEntry(badObjective, true, nil)
	if !ok || action.Objective != "" {
		t.Fatalf("invalid objective should be cleared, got %+v", action)
	}

	var withSolver ActionSpec
	if err := withSolver.UnmarshalJSON([]byte(`{"name":"validate","solver":"Choco"}`)); err != nil {
		t.Fatalf("raw capture failed: %v", err)
	}
	action, ok = parseActionEntry(withSolver, true, nil)
	if !ok || action.Solver != SolverChoco {
		t.Fatalf("unexpected action %+v %t", action, ok)
	}

	var badSolver ActionSpec
	if err := badSolver.UnmarshalJSON([]byte(`{"name":"validate","solver":"fastest"}`)); err != nil {
		t.Fatalf("raw capture failed: %v", err)
	}
	action, ok = parseActionEntry(badSolver, true, nil)
	if !ok || action.Solver != "" {
		t.Fatalf("invalid solver should be cleared, got %+v", action)
	}

	var withFilters ActionSpec
	if err := withFilters.UnmarshalJSON([]byte(`{"name":"subscriptions","filters":{"maxPrice":50}}`)); err != nil {
		t.Fatalf("raw capture failed: %v", err)
	}
	action, ok = parseActionEntry(withFilters, true, nil)
	if !ok || action.Filters["maxPrice"] != float64(50) {
		t.Fatalf("unexpected action %+v %t", action, ok)
	}

	var badFilters ActionSpec
	if err := badFilters.UnmarshalJSON([]byte(`{"name":"subscriptions","filters":"cheap"}`)); err != nil {
		t.Fatalf("raw capture failed: %v", err)
	}
	action, ok = parseActionEntry(badFilters, true, nil)
	if !ok || action.Filters != nil {
		t.Fatalf("non-object filters should be dropped, got %+v", action)
	}
}
