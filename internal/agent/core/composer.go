package core

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sort"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel"

	"github.com/isa-group/harvey/config"
	"github.com/isa-group/harvey/internal/agent/telemetry"
)

// payloadChunkSize bounds every payload or YAML fragment handed to a model
// in a single prompt section.
const payloadChunkSize = 4000

// Composer narrates the final answer from the plan and tool payloads.
type Composer struct {
	cfg       *config.Config
	llm       LLMProvider
	telemetry *telemetry.Telemetry
	logger    *log.Logger
}

func NewComposer(cfg *config.Config, llm LLMProvider, tel *telemetry.Telemetry) *Composer {
	return &Composer{
		cfg:       cfg,
		llm:       llm,
		telemetry: tel,
		logger:    log.New(log.Writer(), "[COMPOSER] ", log.LstdFlags),
	}
}

// ComposeAnswer asks the answering model for a conversational response.
// Generation failures propagate to the caller; only an empty response
// degrades to the fixed fallback message.
func (c *Composer) ComposeAnswer(ctx context.Context, question string, plan *Plan, payload map[string]interface{}, specExcerpt string) (string, error) {
	ctx, span := otel.Tracer("harvey/agent").Start(ctx, "composer.compose_answer")
	defer span.End()

	planJSON, _ := json.Marshal(plan)
	messages := []string{
		defaultAnswerPrompt,
		"Question: " + question,
		"Plan: " + string(planJSON),
	}
	if summary := summarizeToolPayload(payload); summary != nil {
		summaryJSON, _ := json.Marshal(summary)
		messages = append(messages, "Tool payload summary: "+string(summaryJSON))
	}
	chunks := serializePayloadChunks(payload)
	for i, chunk := range chunks {
		messages = append(messages, fmt.Sprintf("Tool payload chunk %d/%d:\n%s", i+1, len(chunks), chunk))
	}
	if strings.TrimSpace(specExcerpt) != "" {
		messages = append(messages, "Pricing2Yaml specification excerpt:\n"+specExcerpt)
	}

	model := c.cfg.LLM.Routing.ModelFor("answering")
	text, inputTokens, outputTokens, err := c.llm.GenerateWithTokens(ctx, strings.Join(messages, "\n\n"), model, nil)
	if err != nil {
		return "", fmt.Errorf("answer generation failed: %w", err)
	}
	if c.telemetry != nil {
		c.telemetry.RecordLLMUsage("answering", model, inputTokens, outputTokens,
			c.llm.CalculateCost(inputTokens, outputTokens, model))
	}
	if strings.TrimSpace(text) == "" {
		return fallbackAnswer, nil
	}
	return strings.TrimSpace(text), nil
}

// serializePayloadChunks renders the payload as compact JSON split into
// prompt-sized chunks.
func serializePayloadChunks(payload map[string]interface{}) []string {
	if len(payload) == 0 {
		return nil
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil
	}
	return chunkText(string(encoded), payloadChunkSize)
}

func chunkText(text string, size int) []string {
	if text == "" {
		return nil
	}
	var chunks []string
	for len(text) > size {
		chunks = append(chunks, text[:size])
		text = text[size:]
	}
	return append(chunks, text)
}

// summarizeToolPayload condenses the raw tool payload into the handful of
// figures the answer usually hinges on. Returns nil when nothing useful is
// found.
func summarizeToolPayload(payload map[string]interface{}) map[string]interface{} {
	if len(payload) == 0 {
		return nil
	}
	summary := make(map[string]interface{})

	if cardinality, ok := selectLastInt(collectFieldValues(payload, "cardinality")); ok {
		summary["cardinality"] = cardinality
	}
	if doc := lastStringValue(collectFieldValues(payload, "pricing_yaml")); doc != "" {
		summary["pricingYamlLength"] = len(doc)
	}
	if subs := extractSubscriptionsList(payload); subs != nil {
		summary["subscriptionCount"] = len(subs)
		var nonNumeric []string
		for _, entry := range subs {
			m, ok := entry.(map[string]interface{})
			if !ok {
				continue
			}
			if isNumericCost(m["cost"]) {
				continue
			}
			nonNumeric = append(nonNumeric, fmt.Sprintf("%v", m["plan"]))
		}
		if len(nonNumeric) > 0 {
			summary["nonNumericCostPlans"] = nonNumeric
		}
	}
	if best := extractOptimalEntry(payload); best != nil {
		summary["bestPlan"] = best
	}

	if len(summary) == 0 {
		return nil
	}
	return summary
}

// collectFieldValues walks maps and lists depth first and gathers every
// value stored under the given key. Map keys are visited in sorted order so
// the gathered sequence is deterministic.
func collectFieldValues(value interface{}, field string) []interface{} {
	var out []interface{}
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for key := range v {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			if key == field {
				out = append(out, v[key])
			}
		}
		for _, key := range keys {
			out = append(out, collectFieldValues(v[key], field)...)
		}
	case []interface{}:
		for _, inner := range v {
			out = append(out, collectFieldValues(inner, field)...)
		}
	}
	return out
}

// selectLastInt picks the last integral value in the list, accepting whole
// float64s (how encoding/json decodes numbers) and numeric strings.
func selectLastInt(values []interface{}) (int, bool) {
	for i := len(values) - 1; i >= 0; i-- {
		switch v := values[i].(type) {
		case float64:
			if math.Trunc(v) == v {
				return int(v), true
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
				return n, true
			}
		}
	}
	return 0, false
}

func lastStringValue(values []interface{}) string {
	for i := len(values) - 1; i >= 0; i-- {
		if s, ok := values[i].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

func extractSubscriptionsList(payload map[string]interface{}) []interface{} {
	values := collectFieldValues(payload, "subscriptions")
	for i := len(values) - 1; i >= 0; i-- {
		if list, ok := values[i].([]interface{}); ok {
			return list
		}
	}
	return nil
}

// extractOptimalEntry finds the most recent optimiser result and keeps its
// headline fields. The winning configuration and its add-ons live under the
// nested subscription object in the tool payload.
func extractOptimalEntry(payload map[string]interface{}) map[string]interface{} {
	values := collectFieldValues(payload, "optimal")
	for i := len(values) - 1; i >= 0; i-- {
		m, ok := values[i].(map[string]interface{})
		if !ok {
			continue
		}
		best := make(map[string]interface{})
		if cost, ok := m["cost"]; ok {
			best["cost"] = cost
		}
		source := m
		if sub, ok := m["subscription"].(map[string]interface{}); ok {
			source = sub
		}
		for _, key := range []string{"plan", "addOns"} {
			if v, ok := source[key]; ok {
				best[key] = v
			}
		}
		if len(best) > 0 {
			return best
		}
	}
	return nil
}

// isNumericCost accepts plain numbers and strings that parse as numbers
// once currency symbols and thousands separators are stripped.
func isNumericCost(v interface{}) bool {
	switch c := v.(type) {
	case float64:
		return true
	case string:
		cleaned := strings.NewReplacer("€", "", "$", "", ",", "", " ", "").Replace(c)
		if cleaned == "" {
			return false
		}
		_, err := strconv.ParseFloat(cleaned, 64)
		return err == nil
	}
	return false
}
