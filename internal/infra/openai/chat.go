package openai

import (
	"context"
	"errors"
	"fmt"
	"time"

	oa "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"

	"voice-assistant/internal/application"
	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra"
)

const DefaultBaseURL = "https://api.openai.com/v1"

// ChatClient implements application.Completer on the chat completions API.
// It works against any endpoint that speaks that protocol.
type ChatClient struct {
	client oa.Client
	model  string
}

func NewChatClient(apiKey, model, baseURL string, opts ...option.RequestOption) *ChatClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	all := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
		// A failed completion ends the turn; the caller decides what to do.
		option.WithMaxRetries(0),
		option.WithHTTPClient(infra.NewHTTPClient(60 * time.Second)),
	}
	all = append(all, opts...)

	return &ChatClient{
		client: oa.NewClient(all...),
		model:  model,
	}
}

func (c *ChatClient) Complete(ctx context.Context, req application.CompletionRequest) (application.Completion, error) {
	params := oa.ChatCompletionNewParams{
		Model:    shared.ChatModel(c.model),
		Messages: toMessages(req.Turns),
	}
	if len(req.Tools) > 0 {
		params.Tools = toTools(req.Tools)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return application.Completion{}, fmt.Errorf("chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return application.Completion{}, errors.New("chat completion: no choices in response")
	}

	msg := resp.Choices[0].Message
	out := application.Completion{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, domain.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}

	return out, nil
}

func toMessages(turns []domain.Turn) []oa.ChatCompletionMessageParamUnion {
	mm := make([]oa.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case domain.RoleSystem:
			mm = append(mm, oa.SystemMessage(t.Content))
		case domain.RoleAssistant:
			mm = append(mm, assistantMessage(t))
		case domain.RoleTool:
			mm = append(mm, oa.ToolMessage(t.Content, t.ToolCallID))
		default:
			mm = append(mm, oa.UserMessage(t.Content))
		}
	}
	return mm
}

func assistantMessage(t domain.Turn) oa.ChatCompletionMessageParamUnion {
	if len(t.ToolCalls) == 0 {
		return oa.AssistantMessage(t.Content)
	}

	msg := oa.ChatCompletionAssistantMessageParam{}
	if t.Content != "" {
		msg.Content.OfString = oa.String(t.Content)
	}
	for _, call := range t.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, oa.ChatCompletionMessageToolCallUnionParam{
			OfFunction: &oa.ChatCompletionMessageFunctionToolCallParam{
				ID: call.ID,
				Function: oa.ChatCompletionMessageFunctionToolCallFunctionParam{
					Name:      call.Name,
					Arguments: call.Arguments,
				},
			},
		})
	}
	return oa.ChatCompletionMessageParamUnion{OfAssistant: &msg}
}

func toTools(specs []application.ToolSpec) []oa.ChatCompletionToolUnionParam {
	tools := make([]oa.ChatCompletionToolUnionParam, 0, len(specs))
	for _, s := range specs {
		tools = append(tools, oa.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        string(s.Name),
			Description: oa.String(s.Description),
			Parameters:  shared.FunctionParameters(s.Parameters),
		}))
	}
	return tools
}
