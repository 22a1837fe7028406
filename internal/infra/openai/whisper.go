package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"voice-assistant/internal/infra"
)

// WhisperClient transcribes audio with the /audio/transcriptions endpoint.
type WhisperClient struct {
	apiKey     string
	httpClient *http.Client
	baseURL    string
	model      string
	language   string
}

func NewWhisperClient(apiKey, model, language, baseURL string) *WhisperClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = "whisper-1"
	}
	return &WhisperClient{
		apiKey:     apiKey,
		httpClient: infra.NewHTTPClient(30 * time.Second),
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		model:      model,
		language:   language,
	}
}

func (c *WhisperClient) Transcribe(ctx context.Context, audio []byte) (string, error) {
	body, contentType, err := c.form(audio)
	if err != nil {
		return "", err
	}

	var result struct {
		Text string `json:"text"`
	}

	err = infra.WithRetry(ctx, infra.DefaultRetryConfig(), func() error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/audio/transcriptions", bytes.NewReader(body))
		if err != nil {
			return infra.Permanent(fmt.Errorf("creating request: %w", err))
		}

		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Content-Type", contentType)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("sending request: %w", err)
		}
		defer resp.Body.Close()

		if err := infra.CheckStatus("whisper", resp); err != nil {
			return err
		}

		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return infra.Permanent(fmt.Errorf("decoding response: %w", err))
		}
		return nil
	})
	if err != nil {
		return "", err
	}

	return strings.TrimSpace(result.Text), nil
}

func (c *WhisperClient) form(audio []byte) ([]byte, string, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)

	part, err := w.CreateFormFile("file", "audio."+sniffFormat(audio))
	if err != nil {
		return nil, "", fmt.Errorf("creating form file: %w", err)
	}
	if _, err := part.Write(audio); err != nil {
		return nil, "", fmt.Errorf("writing audio: %w", err)
	}

	fields := [][2]string{{"model", c.model}}
	if c.language != "" {
		fields = append(fields, [2]string{"language", c.language})
	}
	for _, f := range fields {
		if err := w.WriteField(f[0], f[1]); err != nil {
			return nil, "", fmt.Errorf("writing %s field: %w", f[0], err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", fmt.Errorf("closing form: %w", err)
	}
	return body.Bytes(), w.FormDataContentType(), nil
}

// sniffFormat picks the file extension the endpoint uses to detect the
// container. Unknown payloads are sent as wav.
func sniffFormat(audio []byte) string {
	switch {
	case bytes.HasPrefix(audio, []byte("RIFF")):
		return "wav"
	case bytes.HasPrefix(audio, []byte("ID3")),
		len(audio) > 1 && audio[0] == 0xFF && audio[1]&0xE0 == 0xE0:
		return "mp3"
	case bytes.HasPrefix(audio, []byte{0x1A, 0x45, 0xDF, 0xA3}):
		return "webm"
	case len(audio) > 8 && string(audio[4:8]) == "ftyp":
		return "m4a"
	case bytes.HasPrefix(audio, []byte("OggS")):
		return "ogg"
	default:
		return "wav"
	}
}
