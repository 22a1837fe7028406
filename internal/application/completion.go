package application

import (
	"context"

	"voice-assistant/internal/domain"
)

// Completer is a chat-completion service that supports function calling.
// A nil or empty Tools slice means the model must answer in text.
type Completer interface {
	Complete(ctx context.Context, req CompletionRequest) (Completion, error)
}

type CompletionRequest struct {
	Turns []domain.Turn
	Tools []ToolSpec
}

type Completion struct {
	Text      string
	ToolCalls []domain.ToolCall
}
