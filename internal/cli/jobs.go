package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/state"
)

// NewJobsCommand creates the jobs command group.
func NewJobsCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "List and edit jobs",
	}
	cmd.AddCommand(newJobsListCommand(rootOpts))
	cmd.AddCommand(newJobsAddCommand(rootOpts))
	cmd.AddCommand(newJobsUpdateCommand(rootOpts))
	cmd.AddCommand(newJobsDeleteCommand(rootOpts))
	cmd.AddCommand(newJobsSelectCommand(rootOpts))
	return cmd
}

func newJobsListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			jobs := sess.store.Jobs()
			return sess.out.Render(jobs, func(w io.Writer) error {
				if len(jobs) == 0 {
					fmt.Fprintln(w, "no jobs")
				}
				for _, j := range jobs {
					writeJobLine(w, j)
				}
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

// JobsAddOptions holds flags for jobs add.
type JobsAddOptions struct {
	Description string
	Status      string
	Select      bool
}

func newJobsAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobsAddOptions{}
	cmd := &cobra.Command{
		Use:   "add <title>",
		Short: "Add a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobsAdd(rootOpts, opts, args[0], cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "job description")
	cmd.Flags().StringVar(&opts.Status, "status", "", "initial status (active|draft|archived)")
	cmd.Flags().BoolVar(&opts.Select, "select", false, "make the new job current")
	return cmd
}

func runJobsAdd(rootOpts *RootOptions, opts *JobsAddOptions, title string, cmd *cobra.Command) error {
	sess, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	job := sess.store.NewJob(title, opts.Description)
	if opts.Status != "" {
		job.Status = state.Status(opts.Status)
	}
	if res := sess.store.Dispatch(sess.ctx, action.AddJob(job)); !res.OK() {
		return dispatchError(res)
	}
	if opts.Select {
		if res := sess.store.Dispatch(sess.ctx, action.SetCurrentJob(&job)); !res.OK() {
			return dispatchError(res)
		}
	}

	added, _ := sess.store.Job(job.ID)
	return sess.out.Render(added, func(w io.Writer) error {
		fmt.Fprintf(w, "added %s\n", added.ID)
		return nil
	})
}

// JobsUpdateOptions holds flags for jobs update.
type JobsUpdateOptions struct {
	Title       string
	Description string
	Status      string
}

func newJobsUpdateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &JobsUpdateOptions{}
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Update fields of a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJobsUpdate(rootOpts, opts, args[0], cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "new title")
	cmd.Flags().StringVarP(&opts.Description, "description", "d", "", "new description")
	cmd.Flags().StringVar(&opts.Status, "status", "", "new status (active|draft|archived)")
	return cmd
}

func runJobsUpdate(rootOpts *RootOptions, opts *JobsUpdateOptions, id string, cmd *cobra.Command) error {
	var patch action.JobPatch
	flags := cmd.Flags()
	if flags.Changed("title") {
		patch.Title = action.Ptr(opts.Title)
	}
	if flags.Changed("description") {
		patch.Description = action.Ptr(opts.Description)
	}
	if flags.Changed("status") {
		patch.Status = action.Ptr(state.Status(opts.Status))
	}
	if patch == (action.JobPatch{}) {
		return NewExitError(ExitCommandError, CodeUsage, "nothing to update: pass --title, --description or --status")
	}

	sess, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	if res := sess.store.Dispatch(sess.ctx, action.UpdateJob(id, patch)); !res.OK() {
		return dispatchError(res)
	}
	updated, _ := sess.store.Job(id)
	return sess.out.Render(updated, func(w io.Writer) error {
		fmt.Fprintf(w, "updated %s\n", id)
		return nil
	})
}

func newJobsDeleteCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			id := args[0]
			if res := sess.store.Dispatch(sess.ctx, action.DeleteJob(id)); !res.OK() {
				return dispatchError(res)
			}
			return sess.out.Render(map[string]string{"deleted": id}, func(w io.Writer) error {
				fmt.Fprintf(w, "deleted %s\n", id)
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func newJobsSelectCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "select [id]",
		Short: "Make a job current, or clear the selection when no id is given",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sess, err := openSession(rootOpts, cmd)
			if err != nil {
				return err
			}
			defer sess.Close()

			var target *state.Job
			if len(args) == 1 {
				job, ok := sess.store.Job(args[0])
				if !ok {
					return NewExitError(ExitFailure, CodeNotFound, fmt.Sprintf("job %q not found", args[0]))
				}
				target = &job
			}
			if res := sess.store.Dispatch(sess.ctx, action.SetCurrentJob(target)); !res.OK() {
				return dispatchError(res)
			}

			current := sess.store.CurrentJob()
			return sess.out.Render(map[string]any{"currentJob": current}, func(w io.Writer) error {
				if current == nil {
					fmt.Fprintln(w, "current: none")
				} else {
					fmt.Fprintf(w, "current: %s\n", current.ID)
				}
				return nil
			})
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}
