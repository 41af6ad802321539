package middleware

import (
	"fmt"
	"log/slog"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/clock"
	"github.com/roach88/jobstate/internal/state"
)

// Standard middleware names, in their default order.
const (
	NameLogger    = "logger"
	NameValidator = "validator"
	NameAsync     = "async"
	NameAnnotator = "persistence"
)

// Standard returns the default chain: logger, validator, async tagger,
// persistence annotator.
func Standard(logger *slog.Logger, v *validator.Validate, clk clock.Clock) []Middleware {
	return []Middleware{
		Logger(logger),
		Validator(v),
		AsyncTagger(logger),
		PersistenceAnnotator(clk),
	}
}

// Logger observes every action and passes it through unchanged.
func Logger(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return Middleware{
		Name: NameLogger,
		Handle: func(a action.Action, s state.State) (action.Action, error) {
			logger.Debug("dispatch",
				"type", a.Type,
				"has_payload", a.Payload != nil,
				"jobs", len(s.Jobs),
			)
			return a, nil
		},
	}
}

// AsyncTagger recognizes actions under action.AsyncPrefix. It is a hook
// point only: the action is passed through unchanged.
func AsyncTagger(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return Middleware{
		Name: NameAsync,
		Handle: func(a action.Action, _ state.State) (action.Action, error) {
			if a.IsAsync() {
				logger.Debug("async action", "type", a.Type)
			}
			return a, nil
		},
	}
}

// PersistenceAnnotator stamps the dispatch time and the persisted flag.
func PersistenceAnnotator(clk clock.Clock) Middleware {
	if clk == nil {
		clk = clock.System{}
	}
	return Middleware{
		Name: NameAnnotator,
		Handle: func(a action.Action, _ state.State) (action.Action, error) {
			return a.WithMeta(action.MetaDispatchedAt, clk.Now()).WithMeta(action.MetaPersisted, true), nil
		},
	}
}

// Validator vetoes structurally invalid payloads using the struct tags on
// the state and action payload types. Types it does not know pass through.
func Validator(v *validator.Validate) Middleware {
	if v == nil {
		v = validator.New(validator.WithRequiredStructEnabled())
	}
	return Middleware{
		Name: NameValidator,
		Handle: func(a action.Action, _ state.State) (action.Action, error) {
			if err := validatePayload(v, a); err != nil {
				return a, err
			}
			return a, nil
		},
	}
}

func validatePayload(v *validator.Validate, a action.Action) error {
	switch a.Type {
	case action.TypeSetJobs:
		jobs, ok := a.Payload.([]state.Job)
		if !ok {
			return wrongType(a)
		}
		for i, j := range jobs {
			if err := v.Struct(j); err != nil {
				return Veto(fmt.Sprintf("invalid job at index %d", i), err)
			}
		}

	case action.TypeAddJob:
		return validateStruct[state.Job](v, a)
	case action.TypeUpdateJob:
		return validateStruct[action.JobUpdate](v, a)
	case action.TypeAddJobMaterial:
		return validateStruct[action.MaterialAdd](v, a)
	case action.TypeUpdateJobMaterial:
		return validateStruct[action.MaterialUpdate](v, a)
	case action.TypeAddUploadedFiles:
		return validateStruct[action.UploadAdd](v, a)
	case action.TypeUpdateUploadedFile:
		return validateStruct[action.UploadUpdate](v, a)
	case action.TypeRemoveUploadedFile:
		return validateStruct[action.UploadRemove](v, a)

	case action.TypeDeleteJob:
		id, ok := a.Payload.(string)
		if !ok {
			return wrongType(a)
		}
		if err := v.Var(id, "required"); err != nil {
			return Veto("job id is required", err)
		}

	case action.TypeSetCurrentJob:
		if a.Payload == nil {
			return nil
		}
		job, ok := a.Payload.(*state.Job)
		if !ok {
			return wrongType(a)
		}
		if job != nil {
			if err := v.Var(job.ID, "required"); err != nil {
				return Veto("current job id is required", err)
			}
		}

	case action.TypeSetLoading:
		if _, ok := a.Payload.(bool); !ok {
			return wrongType(a)
		}
	}
	return nil
}

func validateStruct[T any](v *validator.Validate, a action.Action) error {
	p, ok := a.Payload.(T)
	if !ok {
		return wrongType(a)
	}
	if err := v.Struct(p); err != nil {
		return Veto("invalid payload", err)
	}
	return nil
}

func wrongType(a action.Action) error {
	return Veto(fmt.Sprintf("unexpected payload type %T", a.Payload), nil)
}
