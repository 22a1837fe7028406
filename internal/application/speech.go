package application

import (
	"context"
	"fmt"

	"voice-assistant/internal/domain"
)

type SpeechToText interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type TextToSpeech interface {
	Synthesize(ctx context.Context, text string) (domain.Audio, error)
}

// NoopSTT is a no-op speech-to-text client for text-only sources.
// It returns an error if called with actual audio data.
type NoopSTT struct{}

func (n *NoopSTT) Transcribe(ctx context.Context, audio []byte) (string, error) {
	return "", fmt.Errorf("speech-to-text not configured: set speech.api_key to enable audio transcription")
}

// NoopTTS produces no audio, so replies are only reported through the notifier.
type NoopTTS struct{}

func (n *NoopTTS) Synthesize(_ context.Context, _ string) (domain.Audio, error) {
	return domain.Audio{}, nil
}
