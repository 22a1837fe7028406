package application_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"voice-assistant/internal/application"
	"voice-assistant/internal/domain"
)

type mockAudioSource struct {
	commands [][]byte
	index    int
}

func (m *mockAudioSource) Start(_ context.Context) error { return nil }
func (m *mockAudioSource) Stop() error                   { return nil }
func (m *mockAudioSource) Name() string                  { return "mock" }

func (m *mockAudioSource) NextCommand(ctx context.Context) ([]byte, error) {
	if m.index >= len(m.commands) {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	audio := m.commands[m.index]
	m.index++
	return audio, nil
}

type mockSTT struct {
	transcriptions map[string]string
	calls          int
}

func (m *mockSTT) Transcribe(_ context.Context, audio []byte) (string, error) {
	m.calls++
	if text, ok := m.transcriptions[string(audio)]; ok {
		return text, nil
	}
	return "", errors.New("unintelligible")
}

type mockResponder struct {
	replies map[string]string
	heard   []string
}

func (m *mockResponder) Respond(_ context.Context, utterance string) (application.Reply, error) {
	m.heard = append(m.heard, utterance)
	if text, ok := m.replies[utterance]; ok {
		return application.Reply{Text: text, Outcome: application.OutcomeDirectReply}, nil
	}
	return application.Reply{}, domain.ErrService
}

type mockTTS struct {
	spoken []string
}

func (m *mockTTS) Synthesize(_ context.Context, text string) (domain.Audio, error) {
	m.spoken = append(m.spoken, text)
	return domain.Audio{SampleRate: 16000, Samples: []int16{1, 2, 3}}, nil
}

type mockSink struct {
	played int
}

func (m *mockSink) Play(_ context.Context, _ domain.Audio) error {
	m.played++
	return nil
}

func (m *mockSink) Name() string { return "mock" }

type recordingNotifier struct {
	mu       sync.Mutex
	messages []string
	done     chan struct{}
	expected int
}

func (r *recordingNotifier) Notify(_ context.Context, message string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	if r.done != nil && len(r.messages) == r.expected {
		close(r.done)
	}
	return nil
}

type mockArchive struct {
	saved int
}

func (m *mockArchive) Save(_ context.Context, _ []byte) (string, error) {
	m.saved++
	return "saved.wav", nil
}

func runUntilNotified(t *testing.T, a *application.Assistant, notifier *recordingNotifier) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- a.Run(ctx)
	}()

	select {
	case <-notifier.done:
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for replies")
	}

	cancel()
	if err := <-errCh; !errors.Is(err, context.Canceled) {
		t.Errorf("Run returned %v, want context.Canceled", err)
	}
}

func TestAssistant_ProcessUtterances(t *testing.T) {
	audioSource := &mockAudioSource{
		commands: [][]byte{
			[]byte("audio-1"),
			[]byte(domain.TextCommandPrefix + "list my tickets"),
		},
	}
	stt := &mockSTT{transcriptions: map[string]string{"audio-1": "open a ticket"}}
	responder := &mockResponder{replies: map[string]string{
		"open a ticket":   "Ticket 1 created.",
		"list my tickets": "You have one open ticket.",
	}}
	tts := &mockTTS{}
	sink := &mockSink{}
	archive := &mockArchive{}
	notifier := &recordingNotifier{done: make(chan struct{}), expected: 2}

	assistant := application.NewAssistant(audioSource, stt, responder, tts, sink, notifier, discardLogger(),
		application.WithArchive(archive))

	runUntilNotified(t, assistant, notifier)

	if stt.calls != 1 {
		t.Errorf("stt calls: got %d, want 1 (text commands skip transcription)", stt.calls)
	}
	if archive.saved != 1 {
		t.Errorf("archived: got %d, want 1", archive.saved)
	}
	if len(tts.spoken) != 2 || tts.spoken[0] != "Ticket 1 created." {
		t.Errorf("spoken: got %v", tts.spoken)
	}
	if sink.played != 2 {
		t.Errorf("played: got %d, want 2", sink.played)
	}
	if notifier.messages[0] != "You: open a ticket\nAssistant: Ticket 1 created." {
		t.Errorf("first exchange: got %q", notifier.messages[0])
	}
}

func TestAssistant_FailedTurnSpeaksFallback(t *testing.T) {
	audioSource := &mockAudioSource{
		commands: [][]byte{[]byte(domain.TextCommandPrefix + "something the model chokes on")},
	}
	responder := &mockResponder{replies: map[string]string{}}
	tts := &mockTTS{}
	notifier := &recordingNotifier{done: make(chan struct{}), expected: 1}

	assistant := application.NewAssistant(audioSource, &application.NoopSTT{}, responder, tts, &mockSink{}, notifier, discardLogger(),
		application.WithFallbackReply("I couldn't process that"))

	runUntilNotified(t, assistant, notifier)

	if len(tts.spoken) != 1 || tts.spoken[0] != "I couldn't process that" {
		t.Errorf("spoken: got %v, want fallback", tts.spoken)
	}
}

func TestAssistant_SkipsEmptyTranscription(t *testing.T) {
	audioSource := &mockAudioSource{
		commands: [][]byte{
			[]byte("silence"),
			[]byte(domain.TextCommandPrefix + "hello"),
		},
	}
	stt := &mockSTT{transcriptions: map[string]string{"silence": "   "}}
	responder := &mockResponder{replies: map[string]string{"hello": "hi"}}
	notifier := &recordingNotifier{done: make(chan struct{}), expected: 1}

	assistant := application.NewAssistant(audioSource, stt, responder, &application.NoopTTS{}, &application.NoopSink{}, notifier, discardLogger())

	runUntilNotified(t, assistant, notifier)

	if len(responder.heard) != 1 || responder.heard[0] != "hello" {
		t.Errorf("responder heard %v, want only hello", responder.heard)
	}
}

type blockingResponder struct{}

func (blockingResponder) Respond(ctx context.Context, _ string) (application.Reply, error) {
	<-ctx.Done()
	return application.Reply{}, ctx.Err()
}

// liveContextTTS fails like a network client would if handed a finished context.
type liveContextTTS struct {
	mockTTS
}

func (m *liveContextTTS) Synthesize(ctx context.Context, text string) (domain.Audio, error) {
	if err := ctx.Err(); err != nil {
		return domain.Audio{}, err
	}
	return m.mockTTS.Synthesize(ctx, text)
}

func TestAssistant_TimedOutTurnStillSpeaksFallback(t *testing.T) {
	audioSource := &mockAudioSource{
		commands: [][]byte{[]byte(domain.TextCommandPrefix + "list my tickets")},
	}
	tts := &liveContextTTS{}
	sink := &mockSink{}
	notifier := &recordingNotifier{done: make(chan struct{}), expected: 1}

	assistant := application.NewAssistant(audioSource, &application.NoopSTT{}, blockingResponder{}, tts, sink, notifier, discardLogger(),
		application.WithFallbackReply("Sorry, that took too long."),
		application.WithTurnTimeout(50*time.Millisecond))

	runUntilNotified(t, assistant, notifier)

	if len(tts.spoken) != 1 || tts.spoken[0] != "Sorry, that took too long." {
		t.Errorf("spoken: got %v, want fallback", tts.spoken)
	}
	if sink.played != 1 {
		t.Errorf("played: got %d, want 1", sink.played)
	}
	if notifier.messages[0] != "You: list my tickets\nAssistant: Sorry, that took too long." {
		t.Errorf("exchange: got %q", notifier.messages[0])
	}
}

func TestAssistant_TranscriptionFailureSpeaksFallback(t *testing.T) {
	audioSource := &mockAudioSource{commands: [][]byte{[]byte("mumble")}}
	stt := &mockSTT{transcriptions: map[string]string{}}
	responder := &mockResponder{replies: map[string]string{}}
	tts := &mockTTS{}
	notifier := &recordingNotifier{done: make(chan struct{}), expected: 1}

	assistant := application.NewAssistant(audioSource, stt, responder, tts, &mockSink{}, notifier, discardLogger(),
		application.WithFallbackReply("I didn't catch that"))

	runUntilNotified(t, assistant, notifier)

	if len(responder.heard) != 0 {
		t.Errorf("responder heard %v, want nothing", responder.heard)
	}
	if len(tts.spoken) != 1 || tts.spoken[0] != "I didn't catch that" {
		t.Errorf("spoken: got %v, want fallback", tts.spoken)
	}
	if notifier.messages[0] != "You: \nAssistant: I didn't catch that" {
		t.Errorf("exchange: got %q", notifier.messages[0])
	}
}
