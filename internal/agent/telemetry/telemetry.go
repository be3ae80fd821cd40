// Package telemetry tracks question, tool and model usage for the agent.
package telemetry

import (
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/isa-group/harvey/config"
)

var (
	questionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvey_questions_total",
		Help: "Questions handled, by outcome.",
	}, []string{"status"})
	toolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvey_tool_calls_total",
		Help: "Pricing tool invocations, by tool and outcome.",
	}, []string{"tool", "status"})
	llmTokensTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "harvey_llm_tokens_total",
		Help: "Tokens exchanged with completion models.",
	}, []string{"model", "direction"})
)

// Metrics is a point-in-time snapshot of the collected counters.
type Metrics struct {
	Questions         int64         `json:"questions"`
	FailedQuestions   int64         `json:"failed_questions"`
	ToolCalls         int64         `json:"tool_calls"`
	FailedToolCalls   int64         `json:"failed_tool_calls"`
	ExecutedSteps     int64         `json:"executed_steps"`
	TotalQuestionTime time.Duration `json:"total_question_time"`
	InputTokens       int64         `json:"input_tokens"`
	OutputTokens      int64         `json:"output_tokens"`
	TotalCost         float64       `json:"total_cost"`
	CostByModel       map[string]float64
	CallsByTool       map[string]int64
}

// Telemetry collects in-process usage metrics and mirrors them to the
// Prometheus default registry.
type Telemetry struct {
	mu      sync.Mutex
	enabled bool
	costs   bool
	logger  *log.Logger
	metrics Metrics
}

func New(cfg config.TelemetryConfig) *Telemetry {
	return &Telemetry{
		enabled: cfg.Enabled,
		costs:   cfg.CostTracking,
		logger:  log.New(log.Writer(), "[TELEMETRY] ", log.LstdFlags),
		metrics: Metrics{
			CostByModel: make(map[string]float64),
			CallsByTool: make(map[string]int64),
		},
	}
}

// RecordQuestion registers one handled question.
func (t *Telemetry) RecordQuestion(duration time.Duration, steps int, success bool) {
	if t == nil || !t.enabled {
		return
	}
	status := "ok"
	if !success {
		status = "error"
	}
	questionsTotal.WithLabelValues(status).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.Questions++
	if !success {
		t.metrics.FailedQuestions++
	}
	t.metrics.ExecutedSteps += int64(steps)
	t.metrics.TotalQuestionTime += duration
	t.logger.Printf("question handled in %s with %d step(s), success=%t", duration.Round(time.Millisecond), steps, success)
}

// RecordToolCall registers one pricing tool invocation.
func (t *Telemetry) RecordToolCall(tool string, duration time.Duration, err error) {
	if t == nil || !t.enabled {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	toolCallsTotal.WithLabelValues(tool, status).Inc()

	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.ToolCalls++
	t.metrics.CallsByTool[tool]++
	if err != nil {
		t.metrics.FailedToolCalls++
		t.logger.Printf("tool %s failed after %s: %v", tool, duration.Round(time.Millisecond), err)
		return
	}
	t.logger.Printf("tool %s completed in %s", tool, duration.Round(time.Millisecond))
}

// RecordLLMUsage registers tokens and cost for one completion call.
func (t *Telemetry) RecordLLMUsage(task, model string, inputTokens, outputTokens int64, cost float64) {
	if t == nil || !t.enabled {
		return
	}
	llmTokensTotal.WithLabelValues(model, "input").Add(float64(inputTokens))
	llmTokensTotal.WithLabelValues(model, "output").Add(float64(outputTokens))

	t.mu.Lock()
	defer t.mu.Unlock()
	t.metrics.InputTokens += inputTokens
	t.metrics.OutputTokens += outputTokens
	if t.costs {
		t.metrics.TotalCost += cost
		t.metrics.CostByModel[model] += cost
	}
	t.logger.Printf("llm %s task=%s tokens in=%d out=%d cost=%.4f", model, task, inputTokens, outputTokens, cost)
}

// Snapshot returns a copy of the collected metrics.
func (t *Telemetry) Snapshot() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	snap := t.metrics
	snap.CostByModel = make(map[string]float64, len(t.metrics.CostByModel))
	for k, v := range t.metrics.CostByModel {
		snap.CostByModel[k] = v
	}
	snap.CallsByTool = make(map[string]int64, len(t.metrics.CallsByTool))
	for k, v := range t.metrics.CallsByTool {
		snap.CallsByTool[k] = v
	}
	return snap
}
