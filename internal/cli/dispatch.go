package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/state"
)

// DispatchOptions holds flags for the dispatch command.
type DispatchOptions struct {
	Payload     string
	PayloadFile string
}

// DispatchOutput is the JSON data for the dispatch command.
type DispatchOutput struct {
	Status string         `json:"status"`
	Type   action.Type    `json:"type"`
	Meta   map[string]any `json:"meta,omitempty"`
	State  state.State    `json:"state"`
}

// NewDispatchCommand creates the dispatch command.
func NewDispatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DispatchOptions{}
	cmd := &cobra.Command{
		Use:   "dispatch <type>",
		Short: "Dispatch a raw action through the middleware chain",
		Long: `Dispatch decodes a JSON payload for the given action type and runs it
through the store. Unknown payload fields are rejected.

Example:
  jobstate dispatch jobs/update --payload '{"id":"j1","updates":{"title":"Staff SRE"}}'`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(rootOpts, opts, args[0], cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVarP(&opts.Payload, "payload", "p", "", "JSON payload")
	cmd.Flags().StringVarP(&opts.PayloadFile, "payload-file", "f", "", "read the JSON payload from a file")
	cmd.MarkFlagsMutuallyExclusive("payload", "payload-file")
	return cmd
}

func runDispatch(rootOpts *RootOptions, opts *DispatchOptions, typ string, cmd *cobra.Command) error {
	payload := []byte(opts.Payload)
	if opts.PayloadFile != "" {
		data, err := os.ReadFile(opts.PayloadFile)
		if err != nil {
			return WrapExitError(ExitCommandError, CodeUsage, "failed to read payload file", err)
		}
		payload = data
	}

	a, err := action.Parse(action.Type(typ), payload)
	if err != nil {
		return WrapExitError(ExitCommandError, CodeUsage, "invalid action", err)
	}

	sess, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	res := sess.store.Dispatch(sess.ctx, a)
	if !res.OK() {
		return dispatchError(res)
	}

	out := DispatchOutput{
		Status: res.Status.String(),
		Type:   res.Action.Type,
		Meta:   res.Action.Meta,
		State:  sess.store.GetState(),
	}
	return sess.out.Render(out, func(w io.Writer) error {
		fmt.Fprintf(w, "%s: %s (seq %v)\n", out.Type, out.Status, out.Meta[action.MetaSeq])
		if rootOpts.Verbose {
			writeStateText(w, out.State)
		}
		return nil
	})
}
