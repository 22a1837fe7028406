package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"voice-assistant/internal/application"
	"voice-assistant/internal/domain"
)

// RecordsOptions holds flags for the records command.
type RecordsOptions struct {
	*RootOptions
	Status string
	JSON   bool
}

// NewRecordsCommand creates the records command, which prints the store.
func NewRecordsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RecordsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "records",
		Short: "Print the tickets or listings in the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Status, "status", "", "only tickets with this status (open|closed)")
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print JSON instead of a table")

	return cmd
}

func runRecords(opts *RecordsOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()

	s, err := openSession(ctx, opts.RootOptions, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer s.close(ctx)

	variant := application.Variant(s.cfg.Store.Variant)
	status := domain.TicketStatus(opts.Status)
	if status != "" {
		if variant != application.VariantTickets {
			return fmt.Errorf("--status only applies to the tickets variant")
		}
		if !status.Valid() {
			return fmt.Errorf("invalid status %q: must be open or closed", opts.Status)
		}
	}

	st, err := openStores(ctx, s.cfg.Store)
	if err != nil {
		return err
	}
	defer st.close()

	out := cmd.OutOrStdout()

	if variant == application.VariantMarketplace {
		listings, err := st.listings.ListListings(ctx)
		if err != nil {
			return err
		}
		if opts.JSON {
			return writeJSON(out, nonNil(listings))
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tITEM\tPRICE\tSELLER\tCONTACT")
		for _, l := range listings {
			fmt.Fprintf(tw, "%s\t%s\t%.2f\t%s\t%s\n", l.ID, l.ItemName, l.Price, l.SellerName, l.SellerContact)
		}
		return tw.Flush()
	}

	tickets, err := st.tickets.ListTickets(ctx, domain.TicketFilter{Status: status})
	if err != nil {
		return err
	}
	if opts.JSON {
		return writeJSON(out, nonNil(tickets))
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tTITLE")
	for _, t := range tickets {
		fmt.Fprintf(tw, "%d\t%s\t%s\n", t.ID, t.Status, t.Title)
	}
	return tw.Flush()
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
