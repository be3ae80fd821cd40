package core

import (
	"context"
	"errors"
	"time"

	"github.com/isa-group/harvey/config"
)

// stubLLM replays scripted responses and records every prompt it receives.
// With errAt set the stub fails only on that call (1-based), otherwise a
// non-nil err fails every call.
type stubLLM struct {
	responses []string
	prompts   []string
	err       error
	errAt     int
}

func (s *stubLLM) Generate(ctx context.Context, prompt, model string, options map[string]interface{}) (string, error) {
	text, _, _, err := s.GenerateWithTokens(ctx, prompt, model, options)
	return text, err
}

func (s *stubLLM) GenerateWithTokens(_ context.Context, prompt, _ string, _ map[string]interface{}) (string, int64, int64, error) {
	s.prompts = append(s.prompts, prompt)
	if s.err != nil && (s.errAt == 0 || s.errAt == len(s.prompts)) {
		return "", 0, 0, s.err
	}
	if len(s.prompts) > len(s.responses) {
		return "", 0, 0, errors.New("stub llm: no scripted response left")
	}
	return s.responses[len(s.prompts)-1], 10, 5, nil
}

func (s *stubLLM) GetAvailableModels() []string { return []string{"main"} }

func (s *stubLLM) GetModelInfo(model string) (ModelInfo, error) {
	return ModelInfo{Name: model}, nil
}

func (s *stubLLM) CalculateCost(inputTokens, outputTokens int64, model string) float64 { return 0 }

type workflowCall struct {
	tool      string
	url       string
	yaml      string
	solver    string
	objective string
	refresh   bool
	filters   map[string]interface{}
}

// stubWorkflow records tool calls and answers them from a per-tool payload
// table.
type stubWorkflow struct {
	calls        []workflowCall
	payloads     map[string]map[string]interface{}
	err          error
	specText     string
	specErr      error
	resourceURIs []string
}

func (s *stubWorkflow) payloadFor(tool string) (map[string]interface{}, error) {
	if s.err != nil {
		return nil, s.err
	}
	if p, ok := s.payloads[tool]; ok {
		return p, nil
	}
	return map[string]interface{}{"ok": true}, nil
}

func (s *stubWorkflow) RunSummary(_ context.Context, url, yamlContent string, refresh bool) (map[string]interface{}, error) {
	s.calls = append(s.calls, workflowCall{tool: ActionSummary, url: url, yaml: yamlContent, refresh: refresh})
	return s.payloadFor(ActionSummary)
}

func (s *stubWorkflow) RunIPricing(_ context.Context, url, yamlContent string, refresh bool) (map[string]interface{}, error) {
	s.calls = append(s.calls, workflowCall{tool: ActionIPricing, url: url, yaml: yamlContent, refresh: refresh})
	return s.payloadFor(ActionIPricing)
}

func (s *stubWorkflow) RunSubscriptions(_ context.Context, url string, filters map[string]interface{}, solver string, refresh bool, yamlContent string) (map[string]interface{}, error) {
	s.calls = append(s.calls, workflowCall{tool: ActionSubscriptions, url: url, yaml: yamlContent, solver: solver, refresh: refresh, filters: filters})
	return s.payloadFor(ActionSubscriptions)
}

func (s *stubWorkflow) RunOptimal(_ context.Context, url string, filters map[string]interface{}, solver, objective string, refresh bool, yamlContent string) (map[string]interface{}, error) {
	s.calls = append(s.calls, workflowCall{tool: ActionOptimal, url: url, yaml: yamlContent, solver: solver, objective: objective, refresh: refresh, filters: filters})
	return s.payloadFor(ActionOptimal)
}

func (s *stubWorkflow) RunValidation(_ context.Context, url, solver string, refresh bool, yamlContent string) (map[string]interface{}, error) {
	s.calls = append(s.calls, workflowCall{tool: ActionValidate, url: url, yaml: yamlContent, solver: solver, refresh: refresh})
	return s.payloadFor(ActionValidate)
}

func (s *stubWorkflow) ReadResourceText(_ context.Context, uri string) (string, error) {
	s.resourceURIs = append(s.resourceURIs, uri)
	return s.specText, s.specErr
}

// fakeCache is an in-memory core.DocumentCache.
type fakeCache struct {
	data map[string]string
	sets map[string]string
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string]string), sets: make(map[string]string)}
}

func (c *fakeCache) Get(_ context.Context, url string) (string, bool) {
	v, ok := c.data[url]
	return v, ok
}

func (c *fakeCache) Set(_ context.Context, url, yamlContent string) {
	c.sets[url] = yamlContent
}

func testConfig() *config.Config {
	return &config.Config{
		General: config.GeneralConfig{DefaultTimeout: 30 * time.Second},
		LLM: config.LLMConfig{
			Routing: config.LLMRoutingConfig{
				Planning:       "main",
				Classification: "main",
				Answering:      "main",
			},
		},
		Workflow: config.WorkflowConfig{SpecResource: SpecResourceID},
	}
}
