package workflow

import (
	"testing"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

func TestExtractPayloadStructuredContentWins(t *testing.T) {
	res := &sdkmcp.CallToolResult{
		StructuredContent: map[string]interface{}{"cardinality": float64(7)},
		Content: []sdkmcp.Content{
			&sdkmcp.TextContent{Text: `{"cardinality": 99}`},
		},
	}
	payload, ok := extractPayload(res)
	if !ok || payload["cardinality"] != float64(7) {
		t.Fatalf("unexpected payload %v %t", payload, ok)
	}
}

func TestExtractPayloadMergesTextParts(t *testing.T) {
	res := &sdkmcp.CallToolResult{Content: []sdkmcp.Content{
		&sdkmcp.TextContent{Text: `{"subscriptions": [{"plan": "Basic"}], "cardinality": 1}`},
		&sdkmcp.TextContent{Text: `{"subscriptions": [{"plan": "Pro"}], "cardinality": 2}`},
	}}
	payload, ok := extractPayload(res)
	if !ok {
		t.Fatal("expected a payload")
	}
	subs := payload["subscriptions"].([]interface{})
	if len(subs) != 2 {
		t.Fatalf("lists must concatenate, got %v", subs)
	}
	if payload["cardinality"] != float64(2) {
		t.Fatalf("scalar conflicts must keep the newer value, got %v", payload["cardinality"])
	}
}

func TestExtractPayloadJoinedText(t *testing.T) {
	res := &sdkmcp.CallToolResult{Content: []sdkmcp.Content{
		&sdkmcp.TextContent{Text: `{"numberOf`},
		&sdkmcp.TextContent{Text: `Features": 12}`},
	}}
	payload, ok := extractPayload(res)
	if !ok || payload["numberOfFeatures"] != float64(12) {
		t.Fatalf("unexpected payload %v %t", payload, ok)
	}
}

func TestExtractPayloadNonJSON(t *testing.T) {
	res := &sdkmcp.CallToolResult{Content: []sdkmcp.Content{
		&sdkmcp.TextContent{Text: "plain text only"},
	}}
	if _, ok := extractPayload(res); ok {
		t.Fatal("non-JSON content must be rejected")
	}
}

func TestMergeValues(t *testing.T) {
	merged := mergeValues(
		map[string]interface{}{"a": float64(1), "nested": map[string]interface{}{"x": float64(1)}},
		map[string]interface{}{"b": float64(2), "nested": map[string]interface{}{"y": float64(2)}},
	).(map[string]interface{})
	if merged["a"] != float64(1) || merged["b"] != float64(2) {
		t.Fatalf("unexpected merge %v", merged)
	}
	nested := merged["nested"].(map[string]interface{})
	if nested["x"] != float64(1) || nested["y"] != float64(2) {
		t.Fatalf("nested objects must merge, got %v", nested)
	}

	list := mergeValues([]interface{}{"a"}, "b").([]interface{})
	if len(list) != 2 || list[1] != "b" {
		t.Fatalf("lists must absorb scalars, got %v", list)
	}

	if got := mergeValues("old", "new"); got != "new" {
		t.Fatalf("scalar conflicts keep the newer value, got %v", got)
	}
}

func TestJoinTextContent(t *testing.T) {
	contents := []sdkmcp.Content{
		&sdkmcp.TextContent{Text: "solver failed"},
		&sdkmcp.TextContent{Text: "  "},
	}
	if got := joinTextContent(contents, "fallback"); got != "solver failed" {
		t.Fatalf("unexpected %q", got)
	}
	if got := joinTextContent(nil, "fallback"); got != "fallback" {
		t.Fatalf("unexpected %q", got)
	}
}
