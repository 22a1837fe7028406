//go:build !portaudio
// +build !portaudio

package audio

import (
	"context"
	"fmt"

	"voice-assistant/internal/domain"
)

// SpeakerSink stub when portaudio is not available
type SpeakerSink struct{}

func NewSpeakerSink() *SpeakerSink {
	return &SpeakerSink{}
}

func (s *SpeakerSink) Name() string {
	return "speaker"
}

func (s *SpeakerSink) Play(_ context.Context, _ domain.Audio) error {
	return fmt.Errorf("speaker sink not available: rebuild with -tags portaudio")
}
