// Package cli holds the assistant's cobra commands and their wiring.
package cli

import (
	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
}

// NewRootCommand creates the root command for the assistant binary.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "assistant",
		Short: "Voice assistant for support tickets and marketplace listings",
		Long: `A voice assistant that answers each utterance with one chat completion,
running the record tools the model asks for against the configured store.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "config.yaml", "path to config file")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewAskCommand(opts))
	cmd.AddCommand(NewRecordsCommand(opts))

	return cmd
}
