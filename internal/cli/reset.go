package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

// ResetOptions holds flags for the reset command.
type ResetOptions struct {
	Yes bool
}

// NewResetCommand creates the reset command.
func NewResetCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResetOptions{}
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the saved record and return to the default state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !opts.Yes {
				return NewExitError(ExitCommandError, CodeUsage, "reset deletes all saved jobs: pass --yes to confirm")
			}
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			if err := sess.store.Reset(sess.ctx); err != nil {
				return WrapExitError(ExitCommandError, CodeConfig, "failed to clear storage", err)
			}
			return sess.out.Render(map[string]bool{"reset": true}, func(w io.Writer) error {
				fmt.Fprintln(w, "state reset")
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm deletion")
	return cmd
}
