package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/jobstate/internal/config"
	"github.com/roach88/jobstate/internal/store"
)

// session is an opened, initialized store plus the command's formatter.
type session struct {
	store *store.Store
	out   *OutputFormatter
	ctx   context.Context
}

func (s *session) Close() error {
	return s.store.Close()
}

func formatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}
}

// openSession loads config, opens the store and runs Initialize.
func openSession(opts *RootOptions, cmd *cobra.Command) (*session, error) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	cfg, err := config.Load(config.Options{Path: opts.Config, EnvFile: opts.EnvFile, Lookup: opts.Lookup})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, CodeConfig, "failed to load config", err)
	}
	if opts.Verbose {
		cfg.Log.Level = "debug"
	} else if cfg.Log.Level == "info" {
		// Keep routine store chatter off a command's stderr.
		cfg.Log.Level = "warn"
	}

	out := formatter(opts, cmd)
	logger := cfg.NewLogger(out.GetErrWriter())

	st, err := cfg.Open(ctx, logger, opts.StoreOptions...)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, CodeConfig, "failed to open store", err)
	}
	st.Initialize(ctx)
	if h := st.Health(); h.LoadErr != nil {
		out.VerboseLog("saved state discarded: %v", h.LoadErr)
	}
	out.VerboseLog("store ready: backend=%s key=%s", cfg.Storage.Backend, cfg.Store.Key)

	return &session{store: st, out: out, ctx: ctx}, nil
}

// dispatchError converts a non-OK dispatch result into an ExitError.
func dispatchError(res store.Result) error {
	switch res.Status {
	case store.StatusVetoed:
		return WrapExitError(ExitFailure, CodeVetoed, "action vetoed", res.Err)
	case store.StatusNotFound:
		return NewExitError(ExitFailure, CodeNotFound, "referenced job, material or upload not found")
	case store.StatusInvalid:
		return NewExitError(ExitFailure, CodeInvalid, "payload does not match the action type")
	case store.StatusIgnored:
		return NewExitError(ExitFailure, CodeInvalid, fmt.Sprintf("action %q is not handled", res.Action.Type))
	}
	if res.Err != nil {
		return WrapExitError(ExitCommandError, CodeConfig, "state not persisted", res.Err)
	}
	return nil
}
