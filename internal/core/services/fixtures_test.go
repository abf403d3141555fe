package services

import "github.com/custodia-labs/flowver/internal/core/domain"

func node(name, typ string, params map[string]any) map[string]any {
	n := map[string]any{
		"name":        name,
		"type":        typ,
		"typeVersion": 1,
		"position":    []any{100, 200},
	}
	if params != nil {
		n["parameters"] = params
	}
	return n
}

func edge(target string) map[string]any {
	return map[string]any{"node": target, "type": "main", "index": 0}
}

// startOnly is a single-node workflow.
func startOnly() domain.WorkflowDocument {
	return domain.WorkflowDocument{
		"id":          "wf1",
		"name":        "Notify",
		"nodes":       []any{node("Start", "n8n-nodes-base.start", nil)},
		"connections": map[string]any{},
		"active":      false,
		"updatedAt":   "2024-01-01T00:00:00Z",
	}
}

// startToSlack adds a Slack node connected from Start.
func startToSlack() domain.WorkflowDocument {
	doc := startOnly()
	doc["nodes"] = []any{
		node("Start", "n8n-nodes-base.start", nil),
		node("Slack", "n8n-nodes-base.slack", map[string]any{"channel": "#ops", "text": "hi"}),
	}
	doc["connections"] = map[string]any{
		"Start": map[string]any{"main": []any{[]any{edge("Slack")}}},
	}
	doc["updatedAt"] = "2024-01-02T00:00:00Z"
	return doc
}
