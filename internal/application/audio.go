package application

import (
	"context"

	"voice-assistant/internal/domain"
)

type AudioSource interface {
	Start(ctx context.Context) error
	Stop() error
	NextCommand(ctx context.Context) ([]byte, error)
	Name() string
}

// AudioSink plays or stores a synthesized reply.
type AudioSink interface {
	Play(ctx context.Context, audio domain.Audio) error
	Name() string
}

// AudioArchive keeps a copy of every captured utterance before transcription.
type AudioArchive interface {
	Save(ctx context.Context, audio []byte) (string, error)
}

type NoopSink struct{}

func (n *NoopSink) Play(_ context.Context, _ domain.Audio) error {
	return nil
}

func (n *NoopSink) Name() string {
	return "none"
}
