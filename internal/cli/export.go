package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	ParentID string
	Output   string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a family's data as JSON",
		Long: `Export an adult profile together with every child it actively parents.

The export is read with the adult's own permissions, so it holds exactly
what that adult could see through the API.`,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ParentID, "parent", "", "adult profile id to export")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")
	_ = cmd.MarkFlagRequired("parent")

	return cmd
}

func runExport(rootOpts *RootOptions, opts *ExportOptions, cmd *cobra.Command) error {
	ctx := cmd.Context()
	a, err := rootOpts.openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		f, err := os.Create(opts.Output)
		if err != nil {
			return fmt.Errorf("failed to create export file: %w", err)
		}
		defer f.Close()
		w = f
	}

	if err := a.Export.Export(ctx, opts.ParentID, w); err != nil {
		return err
	}
	if opts.Output != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "export written to %s\n", opts.Output)
	}
	return nil
}
