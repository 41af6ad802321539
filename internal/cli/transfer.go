package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	Output string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{}
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the encoded state record",
		Long:  "Export writes the current state as an encoded record that import accepts.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(rootOpts, opts, cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "write to file instead of stdout")
	return cmd
}

func runExport(rootOpts *RootOptions, opts *ExportOptions, cmd *cobra.Command) error {
	sess, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	blob, err := sess.store.Export(sess.ctx)
	if err != nil {
		return WrapExitError(ExitFailure, CodeImport, "export failed", err)
	}

	if opts.Output != "" {
		if err := os.WriteFile(opts.Output, []byte(blob+"\n"), 0o600); err != nil {
			return WrapExitError(ExitCommandError, CodeUsage, "failed to write export", err)
		}
		sess.out.VerboseLog("wrote %d bytes to %s", len(blob), opts.Output)
		return sess.out.Render(map[string]string{"path": opts.Output}, func(w io.Writer) error {
			fmt.Fprintf(w, "exported to %s\n", opts.Output)
			return nil
		})
	}
	return sess.out.Render(map[string]string{"record": blob}, func(w io.Writer) error {
		_, err := fmt.Fprintln(w, blob)
		return err
	})
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Replace the state with an exported record",
		Long:  "Import reads a record written by export, migrates it if needed, and replaces the current state.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImport(rootOpts, args[0], cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func runImport(rootOpts *RootOptions, src string, cmd *cobra.Command) error {
	var (
		data []byte
		err  error
	)
	if src == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(src)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, CodeUsage, "failed to read record", err)
	}

	sess, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.store.Import(sess.ctx, strings.TrimSpace(string(data))); err != nil {
		return WrapExitError(ExitFailure, CodeImport, "import rejected", err)
	}

	st := sess.store.GetState()
	h := healthView(sess.store.Health())
	return sess.out.Render(ShowOutput{State: st, Health: h}, func(w io.Writer) error {
		fmt.Fprintf(w, "imported %d jobs (version %s)\n", len(st.Jobs), st.Version)
		for _, m := range h.Migrations {
			fmt.Fprintf(w, "  migrated: %s\n", m)
		}
		return nil
	})
}
