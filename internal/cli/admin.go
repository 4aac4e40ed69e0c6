package cli

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sidesa/internal/auth/token"
	"sidesa/internal/registry/importer"
	"sidesa/pkg/domain"
)

// NewDeleteRequestCommand creates the delete-request command.
func NewDeleteRequestCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-request <id>",
		Short: "Delete a disclosure request (administrative override)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseDisclosureID(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid disclosure id", err)
			}
			b, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			out := opts.formatter(cmd)
			if err := b.Disclosures.DeleteRequest(opts.operatorContext(cmd.Context()), id); err != nil {
				return out.Refused("delete-request", err)
			}
			return out.Success(map[string]string{"deleted": id.String()}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted disclosure request %s\n", id)
			})
		},
	}
}

// NewDeleteLogCommand creates the delete-log command.
func NewDeleteLogCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-log <id>",
		Short: "Delete an access log entry (record-deleted entries are permanent)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := domain.ParseLogEntryID(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid access log id", err)
			}
			b, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			out := opts.formatter(cmd)
			if err := b.Disclosures.DeleteLog(opts.operatorContext(cmd.Context()), id); err != nil {
				return out.Refused("delete-log", err)
			}
			return out.Success(map[string]string{"deleted": id.String()}, func(w io.Writer) {
				fmt.Fprintf(w, "Deleted access log entry %s\n", id)
			})
		},
	}
}

// NewImportResidentsCommand creates the import-residents command.
func NewImportResidentsCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import-residents <file>",
		Short: "Load residents and report metadata from a YAML fixture",
		Long: `Load residents and report metadata from a YAML fixture.

The file has two lists:

  residents:
    - {nik: "3201010101010001", name: "Ani", sub_region: "RT 03/RW 01"}
  reports:
    - {ticket_code: "ASP-7K2Q", sub_region: "RT 03/RW 01", submitted_at: 2026-03-12T08:00:00Z}

Existing residents are updated in place. The whole file is validated before
anything is written.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to open fixture", err)
			}
			defer f.Close()

			b, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			fx, err := importer.Import(cmd.Context(), f, b.Registry)
			if err != nil {
				return WrapExitError(ExitCommandError, "import failed", err)
			}
			result := map[string]int{"residents": len(fx.Residents), "reports": len(fx.Reports)}
			return opts.formatter(cmd).Success(result, func(w io.Writer) {
				fmt.Fprintf(w, "Imported %d residents and %d reports\n", len(fx.Residents), len(fx.Reports))
			})
		},
	}
}

// IssuedToken is the issue-token result.
type IssuedToken struct {
	Token     string    `json:"token"`
	SessionID string    `json:"session_id,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`
}

// NewIssueTokenCommand creates the issue-token command.
func NewIssueTokenCommand(opts *RootOptions) *cobra.Command {
	var (
		operatorID string
		name       string
		role       string
	)

	cmd := &cobra.Command{
		Use:   "issue-token",
		Short: "Start an operator session and print its bearer token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := domain.ParseRole(role)
			if err != nil {
				return WrapExitError(ExitCommandError, "invalid role", err)
			}
			b, err := opts.backend(cmd.Context())
			if err != nil {
				return err
			}
			defer b.Close()

			op := token.Operator{ID: operatorID, Name: name, Role: parsed}
			if b.Sessions != nil {
				session, err := b.Sessions.Start(cmd.Context(), operatorID, parsed)
				if err != nil {
					return WrapExitError(ExitCommandError, "failed to start session", err)
				}
				op.SessionID = session.ID
			}

			signed, err := b.Tokens.IssueToken(op, b.TokenTTL)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to issue token", err)
			}
			issued := IssuedToken{Token: signed, ExpiresAt: time.Now().Add(b.TokenTTL).UTC()}
			if !op.SessionID.IsNil() {
				issued.SessionID = op.SessionID.String()
			}
			return opts.formatter(cmd).Success(issued, func(w io.Writer) {
				fmt.Fprintln(w, signed)
			})
		},
	}

	cmd.Flags().StringVar(&operatorID, "operator-id", "", "operator the token is issued to (required)")
	_ = cmd.MarkFlagRequired("operator-id")
	cmd.Flags().StringVar(&name, "name", "", "display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleOperator), "operator role (super_admin|admin|operator)")

	return cmd
}
