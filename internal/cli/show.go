package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/jobstate/internal/state"
	"github.com/roach88/jobstate/internal/store"
)

// ShowOutput is the JSON data for the show command.
type ShowOutput struct {
	State  state.State `json:"state"`
	Health HealthView  `json:"health"`
}

// HealthView is Health with errors flattened to strings.
type HealthView struct {
	OK            bool      `json:"ok"`
	LoadErr       string    `json:"loadError,omitempty"`
	PersistErr    string    `json:"persistError,omitempty"`
	LastPersisted time.Time `json:"lastPersisted,omitzero"`
	Migrations    []string  `json:"migrations,omitempty"`
	MigrationGap  bool      `json:"migrationGap,omitempty"`
}

func healthView(h store.Health) HealthView {
	v := HealthView{
		OK:            h.OK(),
		LastPersisted: h.LastPersisted,
		Migrations:    h.Migrations,
		MigrationGap:  h.MigrationGap,
	}
	if h.LoadErr != nil {
		v.LoadErr = h.LoadErr.Error()
	}
	if h.PersistErr != nil {
		v.PersistErr = h.PersistErr.Error()
	}
	return v
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current state and store health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(rootOpts, cmd)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
}

func runShow(rootOpts *RootOptions, cmd *cobra.Command) error {
	sess, err := openSession(rootOpts, cmd)
	if err != nil {
		return err
	}
	defer sess.Close()

	out := ShowOutput{State: sess.store.GetState(), Health: healthView(sess.store.Health())}
	return sess.out.Render(out, func(w io.Writer) error {
		writeStateText(w, out.State)
		writeHealthText(w, out.Health)
		return nil
	})
}

func writeStateText(w io.Writer, s state.State) {
	fmt.Fprintf(w, "version: %s\n", s.Version)
	fmt.Fprintf(w, "loading: %t\n", s.UI.IsLoading)
	if s.CurrentJob != nil {
		fmt.Fprintf(w, "current: %s (%s)\n", s.CurrentJob.ID, s.CurrentJob.Title)
	} else {
		fmt.Fprintln(w, "current: none")
	}
	fmt.Fprintf(w, "jobs: %d\n", len(s.Jobs))
	for _, j := range s.Jobs {
		writeJobLine(w, j)
	}
}

func writeJobLine(w io.Writer, j state.Job) {
	status := j.Status
	if status == "" {
		status = "-"
	}
	fmt.Fprintf(w, "  %s  %-8s  %s  (%d materials, %d uploads)\n",
		j.ID, status, j.Title, len(j.JobMaterials), len(j.Uploads))
}

func writeHealthText(w io.Writer, h HealthView) {
	if h.OK {
		fmt.Fprintln(w, "health: ok")
	} else {
		fmt.Fprintln(w, "health: degraded")
	}
	if h.LoadErr != "" {
		fmt.Fprintf(w, "  load: %s\n", h.LoadErr)
	}
	if h.PersistErr != "" {
		fmt.Fprintf(w, "  persist: %s\n", h.PersistErr)
	}
	for _, m := range h.Migrations {
		fmt.Fprintf(w, "  migrated: %s\n", m)
	}
	if h.MigrationGap {
		fmt.Fprintln(w, "  migration gap: record relabeled without transform")
	}
}
