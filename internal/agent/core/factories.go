package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/isa-group/harvey/config"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// NewLLMProvider builds the completion provider stack from configuration.
// Every configured provider speaks the OpenAI-compatible chat completions
// protocol; with several providers a router dispatches by model name.
func NewLLMProvider(cfg config.LLMConfig) (LLMProvider, error) {
	if len(cfg.Providers) == 0 {
		return nil, fmt.Errorf("no llm providers configured")
	}
	providers := make([]*OpenAIProvider, 0, len(cfg.Providers))
	for name, pc := range cfg.Providers {
		switch pc.Type {
		case "", "openai", "openai-compatible":
			providers = append(providers, NewOpenAIProvider(name, pc))
		default:
			return nil, fmt.Errorf("unsupported llm provider type %q", pc.Type)
		}
	}
	if len(providers) == 1 {
		return providers[0], nil
	}
	router := &routingProvider{byModel: make(map[string]*OpenAIProvider)}
	for _, p := range providers {
		for _, model := range p.GetAvailableModels() {
			if _, exists := router.byModel[model]; !exists {
				router.byModel[model] = p
			}
		}
	}
	return router, nil
}

// OpenAIProvider talks to an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	name       string
	apiKey     string
	baseURL    string
	models     map[string]config.LLMModel
	maxRetries int
	client     *http.Client
	logger     *log.Logger
}

func NewOpenAIProvider(name string, pc config.LLMProvider) *OpenAIProvider {
	baseURL := strings.TrimRight(pc.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultOpenAIBaseURL
	}
	timeout := pc.Timeout
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &OpenAIProvider{
		name:       name,
		apiKey:     pc.APIKey,
		baseURL:    baseURL,
		models:     pc.Models,
		maxRetries: pc.MaxRetries,
		client:     &http.Client{Timeout: timeout},
		logger:     log.New(log.Writer(), "[LLM] ", log.LstdFlags),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *OpenAIProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	text, _, _, err := p.GenerateWithTokens(ctx, prompt, model, options)
	return text, err
}

func (p *OpenAIProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	mcfg, ok := p.models[model]
	if !ok {
		return "", 0, 0, fmt.Errorf("model %q not configured for provider %q", model, p.name)
	}
	apiName := mcfg.APIName
	if apiName == "" {
		apiName = model
	}

	req := chatRequest{
		Model:       apiName,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: mcfg.Temperature,
		MaxTokens:   mcfg.MaxTokens,
	}
	if t, ok := options["temperature"].(float64); ok {
		req.Temperature = t
	}
	if m, ok := options["max_tokens"].(int); ok {
		req.MaxTokens = m
	}
	body, err := json.Marshal(req)
	if err != nil {
		return "", 0, 0, err
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt-1)) * time.Second
			p.logger.Printf("retrying %s after %s (attempt %d/%d): %v", model, backoff, attempt, p.maxRetries, lastErr)
			select {
			case <-ctx.Done():
				return "", 0, 0, &TransportError{Err: ctx.Err()}
			case <-time.After(backoff):
			}
		}
		text, in, out, retryable, err := p.doRequest(ctx, body)
		if err == nil {
			return text, in, out, nil
		}
		lastErr = err
		if !retryable {
			break
		}
	}
	return "", 0, 0, &TransportError{Err: lastErr}
}

func (p *OpenAIProvider) doRequest(ctx context.Context, body []byte) (string, int64, int64, bool, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", 0, 0, false, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", 0, 0, true, err
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, 0, true, err
	}
	if resp.StatusCode != http.StatusOK {
		retryable := resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500
		return "", 0, 0, retryable, fmt.Errorf("completion endpoint returned %d: %s", resp.StatusCode, truncateForLog(string(payload)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return "", 0, 0, false, fmt.Errorf("decoding completion response: %w", err)
	}
	if parsed.Error != nil {
		return "", 0, 0, false, fmt.Errorf("completion endpoint error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", 0, 0, false, fmt.Errorf("completion response had no choices")
	}
	return parsed.Choices[0].Message.Content, parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens, false, nil
}

func (p *OpenAIProvider) GetAvailableModels() []string {
	models := make([]string, 0, len(p.models))
	for name := range p.models {
		models = append(models, name)
	}
	return models
}

func (p *OpenAIProvider) GetModelInfo(model string) (ModelInfo, error) {
	mcfg, ok := p.models[model]
	if !ok {
		return ModelInfo{}, fmt.Errorf("model %q not configured for provider %q", model, p.name)
	}
	return ModelInfo{
		Name:            model,
		Provider:        p.name,
		MaxTokens:       mcfg.MaxTokens,
		CostPer1KInput:  mcfg.CostPer1K,
		CostPer1KOutput: mcfg.CostPer1KOutput,
		Capabilities:    mcfg.Capabilities,
	}, nil
}

func (p *OpenAIProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	mcfg, ok := p.models[model]
	if !ok {
		return 0
	}
	return float64(inputTokens)/1000*mcfg.CostPer1K + float64(outputTokens)/1000*mcfg.CostPer1KOutput
}

func truncateForLog(s string) string {
	if len(s) > 300 {
		return s[:300] + "..."
	}
	return s
}

// routingProvider dispatches calls to the provider that owns each model.
type routingProvider struct {
	byModel map[string]*OpenAIProvider
}

func (r *routingProvider) pick(model string) (*OpenAIProvider, error) {
	p, ok := r.byModel[model]
	if !ok {
		return nil, fmt.Errorf("model %q not configured for any provider", model)
	}
	return p, nil
}

func (r *routingProvider) Generate(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, error) {
	p, err := r.pick(model)
	if err != nil {
		return "", err
	}
	return p.Generate(ctx, prompt, model, options)
}

func (r *routingProvider) GenerateWithTokens(ctx context.Context, prompt string, model string, options map[string]interface{}) (string, int64, int64, error) {
	p, err := r.pick(model)
	if err != nil {
		return "", 0, 0, err
	}
	return p.GenerateWithTokens(ctx, prompt, model, options)
}

func (r *routingProvider) GetAvailableModels() []string {
	models := make([]string, 0, len(r.byModel))
	for name := range r.byModel {
		models = append(models, name)
	}
	return models
}

func (r *routingProvider) GetModelInfo(model string) (ModelInfo, error) {
	p, err := r.pick(model)
	if err != nil {
		return ModelInfo{}, err
	}
	return p.GetModelInfo(model)
}

func (r *routingProvider) CalculateCost(inputTokens, outputTokens int64, model string) float64 {
	p, err := r.pick(model)
	if err != nil {
		return 0
	}
	return p.CalculateCost(inputTokens, outputTokens, model)
}
