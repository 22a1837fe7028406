package openai_test

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"voice-assistant/internal/infra/openai"
)

func TestWhisperClient_Transcribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/transcriptions" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization: got %q", got)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parsing form: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("model: got %q, want whisper-1", got)
		}
		if got := r.FormValue("language"); got != "en" {
			t.Errorf("language: got %q, want en", got)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			t.Fatalf("reading file: %v", err)
		}
		data, _ := io.ReadAll(file)
		if string(data) != "RIFF fake" {
			t.Errorf("file: got %q", data)
		}

		json.NewEncoder(w).Encode(map[string]string{"text": " Open a ticket for the printer. "})
	}))
	defer server.Close()

	client := openai.NewWhisperClient("test-key", "", "en", server.URL)

	text, err := client.Transcribe(context.Background(), []byte("RIFF fake"))
	if err != nil {
		t.Fatalf("Transcribe error: %v", err)
	}
	if text != "Open a ticket for the printer." {
		t.Errorf("text: got %q", text)
	}
}

func TestWhisperClient_ClientErrorNotRetried(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "bad audio", http.StatusBadRequest)
	}))
	defer server.Close()

	client := openai.NewWhisperClient("test-key", "", "en", server.URL)

	if _, err := client.Transcribe(context.Background(), []byte("x")); err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestSpeechClient_Synthesize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/audio/speech" {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decoding request: %v", err)
		}
		if req["response_format"] != "pcm" || req["input"] != "Ticket closed." || req["voice"] != "nova" {
			t.Errorf("request: got %v", req)
		}

		pcm := make([]byte, 6)
		for i, s := range []int16{100, -100, 32767} {
			binary.LittleEndian.PutUint16(pcm[i*2:], uint16(s))
		}
		w.Write(pcm)
	}))
	defer server.Close()

	client := openai.NewSpeechClient("test-key", "", "nova", server.URL)

	audio, err := client.Synthesize(context.Background(), "Ticket closed.")
	if err != nil {
		t.Fatalf("Synthesize error: %v", err)
	}
	if audio.SampleRate != 24000 {
		t.Errorf("sample rate: got %d, want 24000", audio.SampleRate)
	}
	want := []int16{100, -100, 32767}
	if len(audio.Samples) != len(want) {
		t.Fatalf("samples: got %v, want %v", audio.Samples, want)
	}
	for i := range want {
		if audio.Samples[i] != want[i] {
			t.Errorf("sample %d: got %d, want %d", i, audio.Samples[i], want[i])
		}
	}
}
