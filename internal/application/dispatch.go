package application

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"voice-assistant/internal/domain"
)

// Outcome is the terminal state of a turn.
type Outcome string

const (
	OutcomeDirectReply Outcome = "direct_reply"
	OutcomeToolReply   Outcome = "tool_reply"
)

// ToolResult records what happened to one tool call during a turn.
// Err is set when the call was answered with an error payload.
type ToolResult struct {
	Call    domain.ToolCall
	Content string
	Err     error
}

type Reply struct {
	Text    string
	Outcome Outcome
	Tools   []ToolResult
}

// Responder answers one user utterance.
type Responder interface {
	Respond(ctx context.Context, utterance string) (Reply, error)
}

// Dispatcher runs a single conversational turn: one completion with the
// registry's tools, and if the model asked for tools, their execution and
// exactly one more completion without tools. Nothing is kept between turns.
type Dispatcher struct {
	completer Completer
	registry  *Registry
	executor  *Executor
	logger    *slog.Logger
	tracer    trace.Tracer
}

func NewDispatcher(completer Completer, registry *Registry, executor *Executor, logger *slog.Logger) (*Dispatcher, error) {
	if !executor.Supports(registry.Variant()) {
		return nil, fmt.Errorf("no store configured for variant %s", registry.Variant())
	}
	return &Dispatcher{
		completer: completer,
		registry:  registry,
		executor:  executor,
		logger:    logger,
		tracer:    otel.Tracer("voice-assistant/dispatch"),
	}, nil
}

func (d *Dispatcher) Respond(ctx context.Context, utterance string) (Reply, error) {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.Respond", trace.WithAttributes(
		attribute.String("variant", string(d.registry.Variant())),
	))
	defer span.End()

	reply, err := d.respond(ctx, utterance)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Reply{}, err
	}
	span.SetAttributes(
		attribute.String("outcome", string(reply.Outcome)),
		attribute.Int("tool_calls", len(reply.Tools)),
	)
	return reply, nil
}

func (d *Dispatcher) respond(ctx context.Context, utterance string) (Reply, error) {
	turns := []domain.Turn{
		domain.SystemTurn(d.registry.SystemPrompt()),
		domain.UserTurn(utterance),
	}

	first, err := d.completer.Complete(ctx, CompletionRequest{
		Turns: turns,
		Tools: d.registry.Specs(),
	})
	if err != nil {
		return Reply{}, fmt.Errorf("%w: first completion: %w", domain.ErrService, err)
	}

	if len(first.ToolCalls) == 0 {
		return Reply{Text: first.Text, Outcome: OutcomeDirectReply}, nil
	}

	turns = append(turns, domain.Turn{
		Role:      domain.RoleAssistant,
		Content:   first.Text,
		ToolCalls: first.ToolCalls,
	})

	results := make([]ToolResult, 0, len(first.ToolCalls))
	for _, call := range first.ToolCalls {
		result, err := d.runTool(ctx, call)
		if err != nil {
			return Reply{}, err
		}
		results = append(results, result)
		turns = append(turns, domain.ToolResultTurn(call, result.Content))
	}

	second, err := d.completer.Complete(ctx, CompletionRequest{Turns: turns})
	if err != nil {
		return Reply{}, fmt.Errorf("%w: second completion: %w", domain.ErrService, err)
	}
	if len(second.ToolCalls) > 0 {
		d.logger.Warn("ignoring tool calls in final completion", "count", len(second.ToolCalls))
	}

	return Reply{Text: second.Text, Outcome: OutcomeToolReply, Tools: results}, nil
}

// runTool answers one call. Decode failures become error payloads so the
// second completion can still run; only storage failures are returned.
func (d *Dispatcher) runTool(ctx context.Context, call domain.ToolCall) (ToolResult, error) {
	ctx, span := d.tracer.Start(ctx, "Dispatcher.runTool", trace.WithAttributes(
		attribute.String("tool", call.Name),
		attribute.String("call_id", call.ID),
	))
	defer span.End()

	inv, err := d.registry.Decode(call)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownTool) {
			d.logger.Warn("model requested unknown tool", "tool", call.Name, "call_id", call.ID)
		} else {
			d.logger.Warn("rejecting tool call", "tool", call.Name, "call_id", call.ID, "error", err)
		}
		span.RecordError(err)
		return errorResult(call, err), nil
	}

	d.logger.Info("calling tool", "tool", call.Name, "call_id", call.ID, "args", call.Arguments)

	out, err := d.executor.Execute(ctx, inv)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, domain.ErrUnknownTool) {
			return errorResult(call, err), nil
		}
		return ToolResult{}, fmt.Errorf("executing %s: %w", call.Name, err)
	}

	content, err := json.Marshal(out)
	if err != nil {
		return ToolResult{}, fmt.Errorf("encoding %s result: %w", call.Name, err)
	}

	d.logger.Debug("tool result", "tool", call.Name, "call_id", call.ID, "result", string(content))

	result := ToolResult{Call: call, Content: string(content)}
	if te, ok := out.(toolError); ok {
		result.Err = fmt.Errorf("%w: %s", domain.ErrNotFound, te.Error)
	}
	return result, nil
}

func errorResult(call domain.ToolCall, err error) ToolResult {
	content, _ := json.Marshal(toolError{Error: err.Error()})
	return ToolResult{Call: call, Content: string(content), Err: err}
}
