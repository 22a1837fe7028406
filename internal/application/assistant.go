package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"voice-assistant/internal/domain"
)

const DefaultFallbackReply = "Sorry, I couldn't process that."

// Assistant is the session loop: it takes one utterance at a time from the
// audio source, answers it and plays the reply before reading the next one.
type Assistant struct {
	audio     AudioSource
	stt       SpeechToText
	responder Responder
	tts       TextToSpeech
	sink      AudioSink
	notifier  Notifier
	logger    *slog.Logger

	archive     AudioArchive
	fallback    string
	turnTimeout time.Duration
}

type Option func(*Assistant)

// WithArchive stores every captured audio payload before it is transcribed.
func WithArchive(archive AudioArchive) Option {
	return func(a *Assistant) { a.archive = archive }
}

// WithFallbackReply sets the message spoken when a turn fails.
func WithFallbackReply(text string) Option {
	return func(a *Assistant) {
		if text != "" {
			a.fallback = text
		}
	}
}

// WithTurnTimeout bounds transcription and the answer of each turn. Zero
// means no limit.
func WithTurnTimeout(d time.Duration) Option {
	return func(a *Assistant) { a.turnTimeout = d }
}

func NewAssistant(
	audio AudioSource,
	stt SpeechToText,
	responder Responder,
	tts TextToSpeech,
	sink AudioSink,
	notifier Notifier,
	logger *slog.Logger,
	opts ...Option,
) *Assistant {
	a := &Assistant{
		audio:     audio,
		stt:       stt,
		responder: responder,
		tts:       tts,
		sink:      sink,
		notifier:  notifier,
		logger:    logger,
		fallback:  DefaultFallbackReply,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assistant) Run(ctx context.Context) error {
	a.logger.Info("starting audio source", "source", a.audio.Name())
	if err := a.audio.Start(ctx); err != nil {
		return fmt.Errorf("starting audio: %w", err)
	}
	defer a.audio.Stop()

	a.logger.Info("assistant ready, listening", "sink", a.sink.Name())

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			if err := a.processOneCommand(ctx); err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				a.logger.Error("processing command", "error", err)
			}
		}
	}
}

func (a *Assistant) processOneCommand(ctx context.Context) error {
	audioData, err := a.audio.NextCommand(ctx)
	if err != nil {
		return fmt.Errorf("getting audio: %w", err)
	}

	if len(audioData) == 0 {
		return nil
	}

	// Delivery runs on ctx, outside the turn timeout.
	turnCtx := ctx
	if a.turnTimeout > 0 {
		var cancel context.CancelFunc
		turnCtx, cancel = context.WithTimeout(ctx, a.turnTimeout)
		defer cancel()
	}

	text, err := a.utterance(turnCtx, audioData)
	if err != nil {
		a.deliver(ctx, domain.Exchange{Assistant: a.fallback, Failed: true})
		return err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		a.logger.Debug("empty utterance, skipping")
		return nil
	}

	exchange := domain.Exchange{User: text}

	reply, turnErr := a.responder.Respond(turnCtx, text)
	if turnErr != nil {
		exchange.Assistant = a.fallback
		exchange.Failed = true
	} else {
		exchange.Assistant = reply.Text
		a.logger.Info("replied",
			"outcome", reply.Outcome,
			"tool_calls", len(reply.Tools),
			"text", reply.Text,
		)
	}

	a.deliver(ctx, exchange)

	if turnErr != nil {
		return fmt.Errorf("responding: %w", turnErr)
	}
	return nil
}

// utterance returns the text of a payload, transcribing audio and
// archiving it first when an archive is configured.
func (a *Assistant) utterance(ctx context.Context, audioData []byte) (string, error) {
	if directText, isText := isTextCommand(audioData); isText {
		a.logger.Info("received text command directly", "text", directText)
		return directText, nil
	}

	a.logger.Info("received audio", "bytes", len(audioData))

	if a.archive != nil {
		path, err := a.archive.Save(ctx, audioData)
		if err != nil {
			a.logger.Warn("archiving audio", "error", err)
		} else {
			a.logger.Debug("archived audio", "path", path)
		}
	}

	text, err := a.stt.Transcribe(ctx, audioData)
	if err != nil {
		return "", fmt.Errorf("transcribing: %w", err)
	}

	a.logger.Info("transcribed", "text", text)
	return text, nil
}

// deliver speaks and reports the reply. Failures here are logged only,
// since the turn itself already completed.
func (a *Assistant) deliver(ctx context.Context, ex domain.Exchange) {
	if ex.Assistant != "" {
		speech, err := a.tts.Synthesize(ctx, ex.Assistant)
		if err != nil {
			a.logger.Error("synthesizing reply", "error", err)
		} else if !speech.Empty() {
			if err := a.sink.Play(ctx, speech); err != nil {
				a.logger.Error("playing reply", "sink", a.sink.Name(), "error", err)
			}
		}
	}

	if err := a.notifier.Notify(ctx, FormatExchange(ex)); err != nil {
		a.logger.Error("notifying exchange", "error", err)
	}
}

func isTextCommand(data []byte) (string, bool) {
	if len(data) > len(domain.TextCommandPrefix) && string(data[:len(domain.TextCommandPrefix)]) == domain.TextCommandPrefix {
		return string(data[len(domain.TextCommandPrefix):]), true
	}
	return "", false
}
