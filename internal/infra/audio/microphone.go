//go:build portaudio
// +build portaudio

package audio

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gordonklaus/portaudio"
)

const framesPerBuffer = 1024

type MicrophoneSource struct {
	stream     *portaudio.Stream
	buffer     []int16
	sampleRate int
	segmenter  *Segmenter
	logger     *slog.Logger
}

func NewMicrophoneSource(sampleRate, speechThreshold int, minSilence time.Duration, logger *slog.Logger) *MicrophoneSource {
	return &MicrophoneSource{
		sampleRate: sampleRate,
		segmenter:  NewSegmenter(speechThreshold, minSilence, 30*time.Second, sampleRate),
		logger:     logger,
	}
}

func (m *MicrophoneSource) Name() string {
	return "microphone"
}

func (m *MicrophoneSource) Start(_ context.Context) error {
	if err := portaudio.Initialize(); err != nil {
		return fmt.Errorf("initializing portaudio: %w", err)
	}

	m.buffer = make([]int16, framesPerBuffer)

	stream, err := portaudio.OpenDefaultStream(1, 0, float64(m.sampleRate), framesPerBuffer, m.buffer)
	if err != nil {
		portaudio.Terminate()
		return fmt.Errorf("opening stream: %w", err)
	}

	if err := stream.Start(); err != nil {
		stream.Close()
		portaudio.Terminate()
		return fmt.Errorf("starting stream: %w", err)
	}
	m.stream = stream

	m.logger.Info("microphone started", "sampleRate", m.sampleRate)
	return nil
}

func (m *MicrophoneSource) Stop() error {
	if m.stream != nil {
		m.stream.Stop()
		m.stream.Close()
		m.stream = nil
	}
	return portaudio.Terminate()
}

// NextCommand blocks until an utterance has been captured and returns it as WAV.
func (m *MicrophoneSource) NextCommand(ctx context.Context) ([]byte, error) {
	m.logger.Debug("listening for speech")

	for {
		select {
		case <-ctx.Done():
			m.segmenter.Take()
			return nil, ctx.Err()
		default:
		}

		if err := m.stream.Read(); err != nil {
			return nil, fmt.Errorf("reading from stream: %w", err)
		}

		if m.segmenter.Feed(m.buffer) {
			samples := m.segmenter.Take()
			m.logger.Info("utterance captured", "samples", len(samples))
			return EncodeWAV(samples, m.sampleRate), nil
		}
	}
}
