package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/jobstate/internal/state"
)

// Version is the CLI build version, set with -ldflags at release time.
var Version = "dev"

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the CLI and state schema versions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := formatter(rootOpts, cmd)
			data := map[string]string{"cli": Version, "schema": state.SchemaVersion}
			return out.Render(data, func(w io.Writer) error {
				_, err := fmt.Fprintf(w, "jobstate %s (state schema %s)\n", Version, state.SchemaVersion)
				return err
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
