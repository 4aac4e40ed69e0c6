package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	disclosureHandler "sidesa/internal/disclosure/handler"
	"sidesa/internal/disclosure/models"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List disclosure requests, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			out := opts.formatter(cmd)
			requests, err := b.Disclosures.History(opts.operatorContext(cmd.Context()))
			if err != nil {
				return out.Refused("history", err)
			}
			resp := disclosureHandler.NewHistoryResponse(requests)
			return out.Success(resp, func(w io.Writer) {
				writeHistory(w, resp)
			})
		},
	}
}

// NewLogsCommand creates the logs command.
func NewLogsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "logs",
		Short: "List access log entries, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			out := opts.formatter(cmd)
			entries, err := b.Disclosures.AccessLogs(opts.operatorContext(cmd.Context()))
			if err != nil {
				return out.Refused("logs", err)
			}
			resp := disclosureHandler.NewAccessLogsResponse(entries)
			return out.Success(resp, func(w io.Writer) {
				writeLogs(w, resp)
			})
		},
	}
}

func writeHistory(w io.Writer, resp disclosureHandler.HistoryResponse) {
	if len(resp.Requests) == 0 {
		fmt.Fprintln(w, "No disclosure requests.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTICKET\tREQUESTED BY\tAUTHORIZED BY\tCANDIDATES\tCREATED")
	for _, r := range resp.Requests {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\n",
			r.ID, r.TicketCode, r.RequestedBy, r.AuthorizedBy, len(r.Candidates), r.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%s\n", models.Disclaimer)
}

func writeLogs(w io.Writer, resp disclosureHandler.AccessLogsResponse) {
	if len(resp.Entries) == 0 {
		fmt.Fprintln(w, "No access log entries.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tACTION\tPERFORMED BY\tTICKET\tDETAIL\tCREATED")
	for _, e := range resp.Entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.ID, e.Action, e.PerformedBy, e.TicketCode, e.Detail, e.CreatedAt.Format(time.RFC3339))
	}
	_ = tw.Flush()
}
