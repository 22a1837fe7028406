package anthropic

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-assistant/internal/application"
	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra"
)

// ClaudeClient implements application.Completer on the Messages API, using
// native tool_use blocks.
type ClaudeClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	maxTokens  int
}

func NewClaudeClient(apiKey, model string) *ClaudeClient {
	return NewClaudeClientWithURL(apiKey, model, "https://api.anthropic.com/v1")
}

func NewClaudeClientWithURL(apiKey, model, baseURL string) *ClaudeClient {
	if model == "" {
		model = "claude-sonnet-4-20250514"
	}
	return &ClaudeClient{
		apiKey:     apiKey,
		httpClient: infra.NewHTTPClient(60 * time.Second),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		maxTokens:  1024,
	}
}

type contentBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
}

type message struct {
	Role    string         `json:"role"`
	Content []contentBlock `json:"content"`
}

type tool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type request struct {
	Model     string    `json:"model"`
	MaxTokens int       `json:"max_tokens"`
	System    string    `json:"system,omitempty"`
	Messages  []message `json:"messages"`
	Tools     []tool    `json:"tools,omitempty"`
}

type response struct {
	Content    []contentBlock `json:"content"`
	StopReason string         `json:"stop_reason"`
}

func (c *ClaudeClient) Complete(ctx context.Context, req application.CompletionRequest) (application.Completion, error) {
	system, messages := toMessages(req.Turns, len(req.Tools) > 0)

	reqBody := request{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    system,
		Messages:  messages,
	}
	for _, s := range req.Tools {
		reqBody.Tools = append(reqBody.Tools, tool{
			Name:        string(s.Name),
			Description: s.Description,
			InputSchema: s.Parameters,
		})
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return application.Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return application.Completion{}, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return application.Completion{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return application.Completion{}, fmt.Errorf("claude API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result response
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return application.Completion{}, fmt.Errorf("decoding response: %w", err)
	}

	var out application.Completion
	var text strings.Builder
	for _, block := range result.Content {
		switch block.Type {
		case "text":
			text.WriteString(block.Text)
		case "tool_use":
			args := string(block.Input)
			if args == "" {
				args = "{}"
			}
			out.ToolCalls = append(out.ToolCalls, domain.ToolCall{ID: block.ID, Name: block.Name, Arguments: args})
		}
	}
	out.Text = strings.TrimSpace(text.String())

	return out, nil
}

// toMessages moves system turns into the system prompt and groups
// consecutive tool results into the single user message the API expects.
// The API rejects tool_use and tool_result blocks in a request without
// tools, so without tools prior calls and results are rendered as text.
func toMessages(turns []domain.Turn, withTools bool) (string, []message) {
	var system []string
	var messages []message
	inResults := false

	for _, t := range turns {
		switch t.Role {
		case domain.RoleSystem:
			system = append(system, t.Content)

		case domain.RoleAssistant:
			var blocks []contentBlock
			if t.Content != "" {
				blocks = append(blocks, contentBlock{Type: "text", Text: t.Content})
			}
			for _, call := range t.ToolCalls {
				if !withTools {
					blocks = append(blocks, contentBlock{Type: "text", Text: fmt.Sprintf("Called %s with %s", call.Name, call.Arguments)})
					continue
				}
				input := json.RawMessage(call.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage("{}")
				}
				blocks = append(blocks, contentBlock{Type: "tool_use", ID: call.ID, Name: call.Name, Input: input})
			}
			messages = append(messages, message{Role: "assistant", Content: blocks})
			inResults = false

		case domain.RoleTool:
			block := contentBlock{Type: "tool_result", ToolUseID: t.ToolCallID, Content: t.Content}
			if !withTools {
				block = contentBlock{Type: "text", Text: fmt.Sprintf("Result of %s: %s", t.Name, t.Content)}
			}
			if inResults {
				messages[len(messages)-1].Content = append(messages[len(messages)-1].Content, block)
			} else {
				messages = append(messages, message{Role: "user", Content: []contentBlock{block}})
				inResults = true
			}

		default:
			messages = append(messages, message{Role: "user", Content: []contentBlock{{Type: "text", Text: t.Content}}})
			inResults = false
		}
	}

	return strings.Join(system, "\n\n"), messages
}
