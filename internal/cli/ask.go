package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// NewAskCommand creates the ask command, which runs a single text turn.
func NewAskCommand(rootOpts *RootOptions) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "ask <text>...",
		Short: "Answer one typed utterance and print the reply",
		Example: `  assistant ask "open a ticket, the printer is jammed"
  assistant ask list all open tickets`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			s, err := openSession(ctx, rootOpts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer s.close(ctx)

			st, err := openStores(ctx, s.cfg.Store)
			if err != nil {
				return err
			}
			defer st.close()

			dispatcher, err := newDispatcher(s.cfg, st, s.logger)
			if err != nil {
				return fmt.Errorf("building dispatcher: %w", err)
			}

			reply, err := dispatcher.Respond(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if verbose {
				for _, r := range reply.Tools {
					fmt.Fprintf(out, "[%s] %s -> %s\n", r.Call.Name, r.Call.Arguments, r.Content)
				}
			}
			fmt.Fprintln(out, reply.Text)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print each tool call and its result")

	return cmd
}
