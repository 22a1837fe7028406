package gemini

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

// Client implements application.Completer on generateContent with native
// function declarations.
type Client struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
}

func NewClient(apiKey, model string) *Client {
	return NewClientWithURL(apiKey, model, "https://generativelanguage.googleapis.com/v1beta")
}

func NewClientWithURL(apiKey, model, baseURL string) *Client {
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Client{
		apiKey:     apiKey,
		httpClient: infra.NewHTTPClient(30 * time.Second),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
	}
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type part struct {
	Text             string            `json:"text,omitempty"`
	FunctionCall     *functionCall     `json:"functionCall,omitempty"`
	FunctionResponse *functionResponse `json:"functionResponse,omitempty"`
}

type functionCall struct {
	Name string          `json:"name"`
	Args json.RawMessage `json:"args,omitempty"`
}

type functionResponse struct {
	Name     string          `json:"name"`
	Response json.RawMessage `json:"response"`
}

type functionDeclaration struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type tool struct {
	FunctionDeclarations []functionDeclaration `json:"functionDeclarations"`
}

type request struct {
	Contents         []content        `json:"contents"`
	SystemInstruct   *content         `json:"systemInstruction,omitempty"`
	Tools            []tool           `json:"tools,omitempty"`
	GenerationConfig generationConfig `json:"generationConfig"`
}

type generationConfig struct {
	MaxOutputTokens int     `json:"maxOutputTokens"`
	Temperature     float64 `json:"temperature"`
}

type response struct {
	Candidates []struct {
		Content content `json:"content"`
	} `json:"candidates"`
	Error *struct {
		Message string `json:"message"`
		Code    int    `json:"code"`
	} `json:"error,omitempty"`
}

func (c *Client) Complete(ctx context.Context, req application.CompletionRequest) (application.Completion, error) {
	system, contents := toContents(req.Turns)

	reqBody := request{
		Contents: contents,
		GenerationConfig: generationConfig{
			MaxOutputTokens: 1024,
			Temperature:     0.1,
		},
	}
	if system != "" {
		reqBody.SystemInstruct = &content{Parts: []part{{Text: system}}}
	}
	if len(req.Tools) > 0 {
		decls := make([]functionDeclaration, 0, len(req.Tools))
		for _, s := range req.Tools {
			decls = append(decls, functionDeclaration{
				Name:        string(s.Name),
				Description: s.Description,
				Parameters:  s.Parameters,
			})
		}
		reqBody.Tools = []tool{{FunctionDeclarations: decls}}
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return application.Completion{}, fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return application.Completion{}, fmt.Errorf("creating request: %w", err)
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return application.Completion{}, fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return application.Completion{}, fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return application.Completion{}, fmt.Errorf("gemini API error %d: %s", resp.StatusCode, string(respBody))
	}

	var result response
	if err = json.Unmarshal(respBody, &result); err != nil {
		return application.Completion{}, fmt.Errorf("decoding response: %w", err)
	}

	if result.Error != nil {
		return application.Completion{}, fmt.Errorf("gemini error: %s", result.Error.Message)
	}

	var out application.Completion
	if len(result.Candidates) == 0 {
		return out, nil
	}

	var text strings.Builder
	for _, p := range result.Candidates[0].Content.Parts {
		if p.FunctionCall != nil {
			args := string(p.FunctionCall.Args)
			if args == "" || args == "null" {
				args = "{}"
			}
			// generateContent has no call ids; positions are stable within a turn.
			out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
				ID:        fmt.Sprintf("call_%d", len(out.ToolCalls)),
				Name:      p.FunctionCall.Name,
				Arguments: args,
			})
			continue
		}
		text.WriteString(p.Text)
	}
	out.Text = strings.TrimSpace(text.String())

	return out, nil
}

// toContents maps turns onto user/model contents. Tool results are grouped
// into one user content and matched back to their call by name.
func toContents(turns []domain.Turn) (string, []content) {
	var system []string
	var contents []content

	for _, t := range turns {
		switch t.Role {
		case domain.RoleSystem:
			system = append(system, t.Content)

		case domain.RoleAssistant:
			var parts []part
			if t.Content != "" {
				parts = append(parts, part{Text: t.Content})
			}
			for _, call := range t.ToolCalls {
				args := json.RawMessage(call.Arguments)
				if !json.Valid(args) {
					args = json.RawMessage("{}")
				}
				parts = append(parts, part{FunctionCall: &functionCall{Name: call.Name, Args: args}})
			}
			contents = append(contents, content{Role: "model", Parts: parts})

		case domain.RoleTool:
			p := part{FunctionResponse: &functionResponse{Name: t.Name, Response: responseObject(t.Content)}}
			if n := len(contents); n > 0 && contents[n-1].Role == "user" && contents[n-1].Parts[0].FunctionResponse != nil {
				contents[n-1].Parts = append(contents[n-1].Parts, p)
			} else {
				contents = append(contents, content{Role: "user", Parts: []part{p}})
			}

		default:
			contents = append(contents, content{Role: "user", Parts: []part{{Text: t.Content}}})
		}
	}

	return strings.Join(system, "\n\n"), contents
}

// responseObject returns payload when it is a JSON object and otherwise
// wraps it as {"result": payload}, since functionResponse.response must be
// an object.
func responseObject(payload string) json.RawMessage {
	trimmed := strings.TrimSpace(payload)
	if strings.HasPrefix(trimmed, "{") && json.Valid([]byte(trimmed)) {
		return json.RawMessage(trimmed)
	}
	var wrapped []byte
	if json.Valid([]byte(trimmed)) {
		wrapped, _ = json.Marshal(map[string]json.RawMessage{"result": json.RawMessage(trimmed)})
	} else {
		wrapped, _ = json.Marshal(map[string]string{"result": payload})
	}
	return wrapped
}
