package anthropic_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-assistant/internal/application"
	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra/anthropic"
)

type capturedRequest struct {
	System   string `json:"system"`
	Messages []struct {
		Role    string           `json:"role"`
		Content []map[string]any `json:"content"`
	} `json:"messages"`
	Tools []map[string]any `json:"tools"`
}

func TestClaudeClient_ToolUse(t *testing.T) {
	var got capturedRequest

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/messages" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("x-api-key: got %q", r.Header.Get("x-api-key"))
		}
		json.NewDecoder(r.Body).Decode(&got)

		response := map[string]any{
			"stop_reason": "tool_use",
			"content": []map[string]any{
				{"type": "text", "text": "Let me open that."},
				{"type": "tool_use", "id": "toolu_1", "name": "create_ticket", "input": map[string]any{"title": "printer jam"}},
			},
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	registry, err := application.NewRegistry(application.VariantTickets)
	if err != nil {
		t.Fatal(err)
	}

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	out, err := client.Complete(context.Background(), application.CompletionRequest{
		Turns: []domain.Turn{domain.SystemTurn(registry.SystemPrompt()), domain.UserTurn("the printer is jammed")},
		Tools: registry.Specs(),
	})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	if out.Text != "Let me open that." {
		t.Errorf("Text: got %q", out.Text)
	}
	if len(out.ToolCalls) != 1 {
		t.Fatalf("ToolCalls: got %d, want 1", len(out.ToolCalls))
	}
	call := out.ToolCalls[0]
	if call.ID != "toolu_1" || call.Name != "create_ticket" {
		t.Errorf("ToolCall: got %+v", call)
	}
	var args map[string]string
	if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil || args["title"] != "printer jam" {
		t.Errorf("Arguments: got %s", call.Arguments)
	}

	if got.System != registry.SystemPrompt() {
		t.Errorf("system: got %q", got.System)
	}
	if len(got.Messages) != 1 || got.Messages[0].Role != "user" {
		t.Errorf("messages: got %+v", got.Messages)
	}
	if len(got.Tools) != 3 || got.Tools[0]["input_schema"] == nil {
		t.Errorf("tools: got %+v", got.Tools)
	}
}

func toolTurns() []domain.Turn {
	calls := []domain.ToolCall{
		{ID: "a", Name: "cancel_ticket", Arguments: `{"ticket_id":1}`},
		{ID: "b", Name: "cancel_ticket", Arguments: `not json`},
	}
	return []domain.Turn{
		domain.UserTurn("close 1 and 2"),
		{Role: domain.RoleAssistant, ToolCalls: calls},
		domain.ToolResultTurn(calls[0], `{"ticket_id":1,"status":"closed"}`),
		domain.ToolResultTurn(calls[1], `{"error":"malformed"}`),
	}
}

func captureServer(t *testing.T, got *capturedRequest, content []map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(got)
		json.NewEncoder(w).Encode(map[string]any{"content": content})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClaudeClient_ToolResultsGrouped(t *testing.T) {
	var got capturedRequest
	server := captureServer(t, &got, []map[string]string{{"type": "text", "text": "Let me check."}})

	registry, err := application.NewRegistry(application.VariantTickets)
	if err != nil {
		t.Fatal(err)
	}
	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	_, err = client.Complete(context.Background(), application.CompletionRequest{Turns: toolTurns(), Tools: registry.Specs()})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}

	if len(got.Messages) != 3 {
		t.Fatalf("messages: got %d, want 3", len(got.Messages))
	}
	if got.Messages[1].Content[0]["type"] != "tool_use" {
		t.Errorf("assistant block: got %+v", got.Messages[1].Content[0])
	}
	results := got.Messages[2]
	if results.Role != "user" || len(results.Content) != 2 {
		t.Fatalf("tool results: got %+v", results)
	}
	if results.Content[1]["type"] != "tool_result" || results.Content[1]["tool_use_id"] != "b" {
		t.Errorf("second result: got %+v", results.Content[1])
	}
}

func TestClaudeClient_FinalCompletionHasNoToolBlocks(t *testing.T) {
	var got capturedRequest
	server := captureServer(t, &got, []map[string]string{{"type": "text", "text": "Both tickets are closed."}})

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	out, err := client.Complete(context.Background(), application.CompletionRequest{Turns: toolTurns()})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if out.Text != "Both tickets are closed." {
		t.Errorf("Text: got %q", out.Text)
	}
	if got.Tools != nil {
		t.Errorf("tools should be omitted, got %+v", got.Tools)
	}

	if len(got.Messages) != 3 {
		t.Fatalf("messages: got %d, want 3", len(got.Messages))
	}
	for i, m := range got.Messages {
		for _, block := range m.Content {
			if block["type"] != "text" {
				t.Errorf("message %d: got %v block in a request without tools", i, block["type"])
			}
		}
	}
	results := got.Messages[2]
	if results.Role != "user" || len(results.Content) != 2 {
		t.Fatalf("tool results: got %+v", results)
	}
	if results.Content[0]["text"] != `Result of cancel_ticket: {"ticket_id":1,"status":"closed"}` {
		t.Errorf("first result: got %v", results.Content[0]["text"])
	}
}

func TestClaudeClient_EmptyContentIsEmptyReply(t *testing.T) {
	var got capturedRequest
	server := captureServer(t, &got, []map[string]string{})

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	out, err := client.Complete(context.Background(), application.CompletionRequest{Turns: toolTurns()})
	if err != nil {
		t.Fatalf("Complete error: %v", err)
	}
	if out.Text != "" || len(out.ToolCalls) != 0 {
		t.Errorf("got %+v, want empty completion", out)
	}
}

func TestClaudeClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"type":"error"}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := anthropic.NewClaudeClientWithURL("test-key", "claude-test", server.URL)

	_, err := client.Complete(context.Background(), application.CompletionRequest{
		Turns: []domain.Turn{domain.UserTurn("hello")},
	})
	if err == nil {
		t.Fatal("expected error")
	}
}
