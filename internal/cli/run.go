package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/gops/agent"
	"github.com/spf13/cobra"

	"voice-assistant/internal/application"
	"voice-assistant/internal/infra/audio"
)

// NewRunCommand creates the run command, the long-lived voice loop.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Listen for utterances and answer them until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAssistant(cmd.Context(), rootOpts, cmd)
		},
	}
}

func runAssistant(ctx context.Context, opts *RootOptions, cmd *cobra.Command) error {
	s, err := openSession(ctx, opts, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer s.close(context.Background())

	cfg, logger := s.cfg, s.logger

	if cfg.Debug.Gops {
		if err := agent.Listen(agent.Options{Addr: cfg.Debug.GopsAddr}); err != nil {
			logger.Warn("starting gops agent", "error", err)
		} else {
			defer agent.Close()
		}
	}

	st, err := openStores(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer st.close()

	dispatcher, err := newDispatcher(cfg, st, logger)
	if err != nil {
		return fmt.Errorf("building dispatcher: %w", err)
	}

	stt, tts := newSpeech(cfg.Speech)

	assistantOpts := []application.Option{
		application.WithFallbackReply(cfg.Assistant.FallbackReply),
		application.WithTurnTimeout(cfg.Assistant.TurnTimeoutDuration()),
	}
	if cfg.Audio.SaveDir != "" {
		assistantOpts = append(assistantOpts, application.WithArchive(audio.NewDirArchive(cfg.Audio.SaveDir)))
	}

	assistant := application.NewAssistant(
		newAudioSource(cfg.Audio, logger),
		stt,
		dispatcher,
		tts,
		newSink(cfg.Audio),
		newNotifier(cfg.Pushover),
		logger,
		assistantOpts...,
	)

	logger.Info("starting voice assistant",
		"audio_source", cfg.Audio.Source,
		"variant", cfg.Store.Variant,
		"backend", cfg.Store.Backend,
		"llm", cfg.LLM.Provider,
	)

	if err := assistant.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("assistant error: %w", err)
	}
	logger.Info("shutting down")
	return nil
}
