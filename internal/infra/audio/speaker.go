//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"

	"github.com/gordonklaus/portaudio"

	"voice-assistant/internal/domain"
)

// SpeakerSink plays replies on the default output device.
type SpeakerSink struct{}

func NewSpeakerSink() *SpeakerSink {
	return &SpeakerSink{}
}

func (s *SpeakerSink) Name() string {
	return "speaker"
}

func (s *SpeakerSink) Play(ctx context.Context, audio domain.Audio) error {
	if audio.Empty() {
		return nil
	}

	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}
	defer portaudio.Terminate()

	buffer := make([]int16, framesPerBuffer)
	stream, err := portaudio.OpenDefaultStream(0, 1, float64(audio.SampleRate), len(buffer), buffer)
	if err != nil {
		return fmt.Errorf("opening output stream: %w", err)
	}
	defer stream.Close()

	if err := stream.Start(); err != nil {
		return fmt.Errorf("starting output stream: %w", err)
	}
	defer stream.Stop()

	for off := 0; off < len(audio.Samples); off += len(buffer) {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := copy(buffer, audio.Samples[off:])
		clear(buffer[n:])
		if err := stream.Write(); err != nil {
			return fmt.Errorf("writing to output stream: %w", err)
		}
	}
	return nil
}
