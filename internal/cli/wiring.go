package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"voice-assistant/config"
	"voice-assistant/internal/application"
	"voice-assistant/internal/infra/anthropic"
	"voice-assistant/internal/infra/audio"
	"voice-assistant/internal/infra/gemini"
	"voice-assistant/internal/infra/marketplace"
	"voice-assistant/internal/infra/openai"
	"voice-assistant/internal/infra/postgres"
	"voice-assistant/internal/infra/pushover"
	"voice-assistant/internal/infra/sqlite"
	"voice-assistant/internal/telemetry"
)

// session is what every command needs before doing its work.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
}

func openSession(ctx context.Context, opts *RootOptions, logOut io.Writer) (*session, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName: cfg.Trace.ServiceName,
		Enabled:     cfg.Trace.Enabled,
		Writer:      logOut,
	})
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}

	return &session{
		cfg:      cfg,
		logger:   setupLogger(cfg.Log, logOut),
		shutdown: shutdown,
	}, nil
}

func (s *session) close(ctx context.Context) {
	if err := s.shutdown(ctx); err != nil {
		s.logger.Warn("flushing traces", "error", err)
	}
}

// stores holds whichever record store the variant uses; the other is nil.
type stores struct {
	tickets  application.TicketStore
	listings application.ListingStore
	close    func() error
}

func openStores(ctx context.Context, cfg config.StoreConfig) (*stores, error) {
	marketplaceVariant := application.Variant(cfg.Variant) == application.VariantMarketplace

	switch cfg.Backend {
	case "http":
		return &stores{
			listings: marketplace.NewClient(cfg.BaseURL),
			close:    func() error { return nil },
		}, nil

	case "postgres":
		db, err := postgres.Open(ctx, cfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		return forVariant(marketplaceVariant, db.Tickets(), db.Listings(), db.Close), nil

	default:
		db, err := sqlite.Open(cfg.Path)
		if err != nil {
			return nil, fmt.Errorf("opening store: %w", err)
		}
		return forVariant(marketplaceVariant, db.Tickets(), db.Listings(), db.Close), nil
	}
}

func forVariant(listingsOnly bool, tickets application.TicketStore, listings application.ListingStore, closeFn func() error) *stores {
	if listingsOnly {
		return &stores{listings: listings, close: closeFn}
	}
	return &stores{tickets: tickets, close: closeFn}
}

func newCompleter(cfg config.LLMConfig) application.Completer {
	switch cfg.Provider {
	case "anthropic":
		if cfg.BaseURL != "" {
			return anthropic.NewClaudeClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL)
		}
		return anthropic.NewClaudeClient(cfg.APIKey, cfg.Model)
	case "gemini":
		if cfg.BaseURL != "" {
			return gemini.NewClientWithURL(cfg.APIKey, cfg.Model, cfg.BaseURL)
		}
		return gemini.NewClient(cfg.APIKey, cfg.Model)
	default:
		return openai.NewChatClient(cfg.APIKey, cfg.Model, cfg.BaseURL)
	}
}

func newDispatcher(cfg *config.Config, st *stores, logger *slog.Logger) (*application.Dispatcher, error) {
	registry, err := application.NewRegistry(application.Variant(cfg.Store.Variant))
	if err != nil {
		return nil, err
	}

	return application.NewDispatcher(
		newCompleter(cfg.LLM),
		registry,
		application.NewExecutor(st.tickets, st.listings),
		logger,
	)
}

func newAudioSource(cfg config.AudioConfig, logger *slog.Logger) application.AudioSource {
	switch cfg.Source {
	case "file":
		return audio.NewFileSource(cfg.FileDir)
	case "microphone":
		return audio.NewMicrophoneSource(cfg.SampleRate, cfg.SpeechThreshold, cfg.MinSilence(), logger)
	default:
		return audio.NewHTTPSource(cfg.HTTPAddr, cfg.AuthToken, logger)
	}
}

func newSink(cfg config.AudioConfig) application.AudioSink {
	switch cfg.Sink {
	case "file":
		return audio.NewFileSink(cfg.SinkDir)
	case "speaker":
		return audio.NewSpeakerSink()
	default:
		return &application.NoopSink{}
	}
}

func newSpeech(cfg config.SpeechConfig) (application.SpeechToText, application.TextToSpeech) {
	if cfg.APIKey == "" {
		return &application.NoopSTT{}, &application.NoopTTS{}
	}

	stt := openai.NewWhisperClient(cfg.APIKey, cfg.STTModel, cfg.Language, cfg.BaseURL)
	if !cfg.TTSEnabled {
		return stt, &application.NoopTTS{}
	}
	return stt, openai.NewSpeechClient(cfg.APIKey, cfg.TTSModel, cfg.Voice, cfg.BaseURL)
}

func newNotifier(cfg config.PushoverConfig) application.Notifier {
	if !cfg.Enabled {
		return &application.NoopNotifier{}
	}
	return pushover.NewClient(cfg.Token, cfg.UserKey, cfg.Title, "")
}

func setupLogger(cfg config.LogConfig, w io.Writer) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
