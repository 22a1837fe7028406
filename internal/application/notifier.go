package application

import (
	"context"
	"fmt"

	"voice-assistant/internal/domain"
)

type Notifier interface {
	Notify(ctx context.Context, message string) error
}

type NoopNotifier struct{}

func (n *NoopNotifier) Notify(_ context.Context, _ string) error {
	return nil
}

func FormatExchange(ex domain.Exchange) string {
	return fmt.Sprintf("You: %s\nAssistant: %s", ex.User, ex.Assistant)
}
