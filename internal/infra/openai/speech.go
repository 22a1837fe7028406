package openai

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"voice-assistant/internal/domain"
	"voice-assistant/internal/infra"
)

// The speech endpoint returns raw pcm as 24kHz mono signed 16-bit little endian.
const pcmSampleRate = 24000

// SpeechClient synthesizes replies with the /audio/speech endpoint.
type SpeechClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	voice      string
}

func NewSpeechClient(apiKey, model, voice, baseURL string) *SpeechClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = "tts-1"
	}
	if voice == "" {
		voice = "alloy"
	}
	return &SpeechClient{
		apiKey:     apiKey,
		httpClient: infra.NewHTTPClient(60 * time.Second),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		voice:      voice,
	}
}

type speechRequest struct {
	Model          string `json:"model"`
	Input          string `json:"input"`
	Voice          string `json:"voice"`
	ResponseFormat string `json:"response_format"`
}

func (c *SpeechClient) Synthesize(ctx context.Context, text string) (domain.Audio, error) {
	bodyBytes, err := json.Marshal(speechRequest{
		Model:          c.model,
		Input:          text,
		Voice:          c.voice,
		ResponseFormat: "pcm",
	})
	if err != nil {
		return domain.Audio{}, fmt.Errorf("marshaling request: %w", err)
	}

	var pcm []byte
	retryErr := infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/speech", bytes.NewReader(bodyBytes))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if err := infra.CheckStatus("speech", resp); err != nil {
			return err
		}

		pcm, err = io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading audio: %w", err)
		}
		return nil
	})

	if retryErr != nil {
		return domain.Audio{}, retryErr
	}

	return decodePCM(pcm, pcmSampleRate), nil
}

func decodePCM(data []byte, sampleRate int) domain.Audio {
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(binary.LittleEndian.Uint16(data[i*2:]))
	}
	return domain.Audio{SampleRate: sampleRate, Samples: samples}
}
