// Package cli implements disclosurectl, the operator console for the
// emergency disclosure engine.
package cli

import (
	"context"
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"sidesa/pkg/domain"
	"sidesa/pkg/requestcontext"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Format   string
	Operator string

	open Opener
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates disclosurectl. Commands act as a super_admin named
// by --operator and are recorded in the access log like API calls.
func NewRootCommand(open Opener) *cobra.Command {
	opts := &RootOptions{open: open}

	cmd := &cobra.Command{
		Use:   "disclosurectl",
		Short: "Operate the emergency disclosure engine",
		Long: `disclosurectl reads and administers emergency disclosure requests and
the access log. Every command runs with the super_admin role under the
operator named by --operator and appends to the access log.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !slices.Contains(ValidFormats, opts.Format) {
				return WrapExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats), nil)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Operator, "operator", "disclosurectl", "operator id recorded in the access log")

	cmd.AddCommand(NewHistoryCommand(opts))
	cmd.AddCommand(NewLogsCommand(opts))
	cmd.AddCommand(NewDeleteRequestCommand(opts))
	cmd.AddCommand(NewDeleteLogCommand(opts))
	cmd.AddCommand(NewImportResidentsCommand(opts))
	cmd.AddCommand(NewIssueTokenCommand(opts))

	return cmd
}

func (o *RootOptions) formatter(cmd *cobra.Command) *Formatter {
	return &Formatter{Format: o.Format, Writer: cmd.OutOrStdout()}
}

// backend opens the backend for one command. The caller must call Close.
func (o *RootOptions) backend(ctx context.Context) (*Backend, error) {
	b, err := o.open(ctx)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	return b, nil
}

// operatorContext attaches the console identity the services audit against.
func (o *RootOptions) operatorContext(ctx context.Context) context.Context {
	ctx = requestcontext.WithOperator(ctx, requestcontext.Caller{
		ID:   o.Operator,
		Name: o.Operator,
		Role: domain.RoleSuperAdmin,
	})
	ctx = requestcontext.WithClientMetadata(ctx, "local", "disclosurectl")
	return requestcontext.WithRequestID(ctx, "cli-"+uuid.NewString())
}
