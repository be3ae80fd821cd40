package workflow

import (
	"encoding/json"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// extractPayload turns a tool result into one JSON object. Structured
// content wins when present; otherwise each text part is parsed and merged,
// and as a last resort the joined text is parsed as a whole.
func extractPayload(res *sdkmcp.CallToolResult) (map[string]interface{}, bool) {
	if res.StructuredContent != nil {
		if m, ok := roundTripToMap(res.StructuredContent); ok {
			return m, true
		}
	}

	merged := make(map[string]interface{})
	found := false
	var texts []string
	for _, content := range res.Content {
		tc, ok := content.(*sdkmcp.TextContent)
		if !ok {
			continue
		}
		texts = append(texts, tc.Text)
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(tc.Text), &m); err != nil {
			continue
		}
		mergePayload(merged, m)
		found = true
	}
	if found {
		return merged, true
	}

	joined := strings.TrimSpace(strings.Join(texts, ""))
	if joined != "" {
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(joined), &m); err == nil {
			return m, true
		}
	}
	return nil, false
}

// joinTextContent flattens the text parts of a result for error reporting.
func joinTextContent(contents []sdkmcp.Content, fallback string) string {
	var texts []string
	for _, content := range contents {
		if tc, ok := content.(*sdkmcp.TextContent); ok && strings.TrimSpace(tc.Text) != "" {
			texts = append(texts, strings.TrimSpace(tc.Text))
		}
	}
	if len(texts) == 0 {
		return fallback
	}
	return strings.Join(texts, "; ")
}

func roundTripToMap(v any) (map[string]interface{}, bool) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]interface{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, false
	}
	return m, true
}

// mergePayload folds src into dst. Objects merge recursively, lists
// concatenate, a list absorbs scalars, and on scalar conflicts the newer
// value wins.
func mergePayload(dst, src map[string]interface{}) {
	for key, newValue := range src {
		oldValue, exists := dst[key]
		if !exists {
			dst[key] = newValue
			continue
		}
		dst[key] = mergeValues(oldValue, newValue)
	}
}

func mergeValues(oldValue, newValue interface{}) interface{} {
	if oldMap, ok := oldValue.(map[string]interface{}); ok {
		if newMap, ok := newValue.(map[string]interface{}); ok {
			mergePayload(oldMap, newMap)
			return oldMap
		}
	}
	if oldList, ok := oldValue.([]interface{}); ok {
		if newList, ok := newValue.([]interface{}); ok {
			return append(oldList, newList...)
		}
		return append(oldList, newValue)
	}
	return newValue
}
