package async

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/state"
	"github.com/roach88/jobstate/internal/store"
)

// Flow names used in async markers.
const (
	FlowLoadJobs = "jobs.load"
	FlowGenerate = "materials.generate"
	FlowUpload   = "uploads.upload"
)

const defaultLimit = 4

// ErrNoCollaborator is returned when a creator's collaborator is not configured.
var ErrNoCollaborator = errors.New("collaborator not configured")

// Store is the part of store.Store the creators use.
type Store interface {
	Dispatch(ctx context.Context, a action.Action) store.Result
	Job(id string) (state.Job, bool)
	NewMaterial(jobID string, typ state.MaterialType, title string) state.JobMaterial
	NewUpload(name string, size int64, mime string) state.UploadedFile
}

var _ Store = (*store.Store)(nil)

// Creators runs asynchronous flows against a store.
type Creators struct {
	store     Store
	jobs      JobSource
	generator MaterialGenerator
	uploader  Uploader
	tokens    TokenSource
	timeout   time.Duration
	limit     int
	logger    *slog.Logger
}

// Option configures Creators.
type Option func(*Creators)

// WithJobSource sets the job list provider.
func WithJobSource(src JobSource) Option { return func(c *Creators) { c.jobs = src } }

// WithGenerator sets the material generator.
func WithGenerator(g MaterialGenerator) Option { return func(c *Creators) { c.generator = g } }

// WithUploader sets the uploader.
func WithUploader(u Uploader) Option { return func(c *Creators) { c.uploader = u } }

// WithTokens makes every flow fetch a token and attach it to the context
// passed to collaborators.
func WithTokens(ts TokenSource) Option { return func(c *Creators) { c.tokens = ts } }

// WithTimeout bounds every flow. Zero means no timeout.
func WithTimeout(d time.Duration) Option { return func(c *Creators) { c.timeout = d } }

// WithConcurrency bounds parallel collaborator calls within one flow.
func WithConcurrency(n int) Option { return func(c *Creators) { c.limit = n } }

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option { return func(c *Creators) { c.logger = l } }

// New creates Creators for s.
func New(s Store, opts ...Option) *Creators {
	c := &Creators{store: s, limit: defaultLimit, logger: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	if c.limit < 1 {
		c.limit = 1
	}
	return c
}

// begin emits the pending marker and sets up the flow context.
func (c *Creators) begin(ctx context.Context, flow string) (context.Context, context.CancelFunc, error) {
	c.store.Dispatch(ctx, action.Async(flow, action.PhasePending))
	c.store.Dispatch(ctx, action.SetLoading(true))

	cancel := context.CancelFunc(func() {})
	if c.timeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
	}
	if c.tokens != nil {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			cancel()
			return nil, nil, fmt.Errorf("%s: token: %w", flow, err)
		}
		ctx = WithToken(ctx, tok)
	}
	return ctx, cancel, nil
}

// end emits the final marker and clears the loading flag. The store
// dispatches use the caller's context, not the flow's, so a timed-out flow
// still records its failure.
func (c *Creators) end(ctx context.Context, flow string, err error) error {
	if err != nil {
		c.logger.Warn("async flow failed", "flow", flow, "error", err)
		c.store.Dispatch(ctx, action.AsyncError(flow, err))
	} else {
		c.store.Dispatch(ctx, action.Async(flow, action.PhaseFulfilled))
	}
	c.store.Dispatch(ctx, action.SetLoading(false))
	return err
}

// LoadJobs replaces the job list with the provider's.
func (c *Creators) LoadJobs(ctx context.Context) error {
	if c.jobs == nil {
		return fmt.Errorf("%s: job source: %w", FlowLoadJobs, ErrNoCollaborator)
	}
	fctx, cancel, err := c.begin(ctx, FlowLoadJobs)
	if err != nil {
		return c.end(ctx, FlowLoadJobs, err)
	}
	defer cancel()

	jobs, err := c.jobs.FetchJobs(fctx)
	if err != nil {
		return c.end(ctx, FlowLoadJobs, fmt.Errorf("%s: %w", FlowLoadJobs, err))
	}
	if res := c.store.Dispatch(ctx, action.SetJobs(jobs)); res.Status == store.StatusVetoed {
		return c.end(ctx, FlowLoadJobs, fmt.Errorf("%s: %w", FlowLoadJobs, res.Err))
	}
	return c.end(ctx, FlowLoadJobs, nil)
}

// GenerateMaterials creates one material per type for jobID. Placeholders
// marked processing are added first, in request order; generation runs
// concurrently; each placeholder is then completed or marked error, again
// in request order. The returned materials are the placeholders' ids with
// their final content.
func (c *Creators) GenerateMaterials(ctx context.Context, jobID string, types ...state.MaterialType) ([]state.JobMaterial, error) {
	if c.generator == nil {
		return nil, fmt.Errorf("%s: generator: %w", FlowGenerate, ErrNoCollaborator)
	}
	job, ok := c.store.Job(jobID)
	if !ok {
		return nil, fmt.Errorf("%s: job %q not found", FlowGenerate, jobID)
	}

	fctx, cancel, err := c.begin(ctx, FlowGenerate)
	if err != nil {
		return nil, c.end(ctx, FlowGenerate, err)
	}
	defer cancel()

	placeholders := make([]state.JobMaterial, len(types))
	for i, typ := range types {
		m := c.store.NewMaterial(jobID, typ, string(typ))
		m.Status = state.MaterialProcessing
		m.AIProcessing = true
		placeholders[i] = m
		c.store.Dispatch(ctx, action.AddJobMaterial(jobID, m))
	}

	results := make([]Generated, len(types))
	g, gctx := errgroup.WithContext(fctx)
	g.SetLimit(c.limit)
	for i, typ := range types {
		g.Go(func() error {
			out, err := c.generator.Generate(gctx, job, typ)
			if err != nil {
				return fmt.Errorf("generate %s: %w", typ, err)
			}
			results[i] = out
			return nil
		})
	}
	genErr := g.Wait()

	final := make([]state.JobMaterial, len(types))
	for i, m := range placeholders {
		patch := action.MaterialPatch{AIProcessing: action.Ptr(false)}
		if genErr != nil {
			patch.Status = action.Ptr(state.MaterialError)
		} else {
			out := results[i]
			patch.Status = action.Ptr(state.MaterialCompleted)
			if out.Title != "" {
				patch.Title = action.Ptr(out.Title)
			}
			patch.Description = action.Ptr(out.Description)
			patch.Files = out.Files
		}
		c.store.Dispatch(ctx, action.UpdateJobMaterial(jobID, m.ID, patch))
		final[i] = patch.Apply(m)
	}

	if genErr != nil {
		return final, c.end(ctx, FlowGenerate, fmt.Errorf("%s: %w", FlowGenerate, genErr))
	}
	return final, c.end(ctx, FlowGenerate, nil)
}

// UploadFiles attaches files to jobID. Each file is added as uploading,
// transferred concurrently, then marked completed or error. One file's
// failure does not stop the others; all failures are joined in the result.
func (c *Creators) UploadFiles(ctx context.Context, jobID string, files ...FileSpec) ([]state.UploadedFile, error) {
	if c.uploader == nil {
		return nil, fmt.Errorf("%s: uploader: %w", FlowUpload, ErrNoCollaborator)
	}
	if _, ok := c.store.Job(jobID); !ok {
		return nil, fmt.Errorf("%s: job %q not found", FlowUpload, jobID)
	}

	fctx, cancel, err := c.begin(ctx, FlowUpload)
	if err != nil {
		return nil, c.end(ctx, FlowUpload, err)
	}
	defer cancel()

	records := make([]state.UploadedFile, len(files))
	for i, f := range files {
		records[i] = c.store.NewUpload(f.Name, f.Size, f.Type)
	}
	if len(records) > 0 {
		c.store.Dispatch(ctx, action.AddUploadedFiles(jobID, records...))
	}

	receipts := make([]Uploaded, len(files))
	errs := make([]error, len(files))
	var g errgroup.Group
	g.SetLimit(c.limit)
	for i, f := range files {
		g.Go(func() error {
			receipts[i], errs[i] = c.uploader.Upload(fctx, jobID, f)
			return nil
		})
	}
	_ = g.Wait()

	var failed []error
	for i, rec := range records {
		patch := action.UploadPatch{}
		if errs[i] != nil {
			failed = append(failed, fmt.Errorf("upload %s: %w", rec.Name, errs[i]))
			patch.Status = action.Ptr(state.UploadError)
			patch.Error = action.Ptr(errs[i].Error())
		} else {
			patch.Status = action.Ptr(state.UploadCompleted)
			patch.URL = action.Ptr(receipts[i].URL)
		}
		c.store.Dispatch(ctx, action.UpdateUploadedFile(jobID, rec.ID, patch))
		records[i] = patch.Apply(rec)
	}

	if len(failed) > 0 {
		return records, c.end(ctx, FlowUpload, fmt.Errorf("%s: %w", FlowUpload, errors.Join(failed...)))
	}
	return records, c.end(ctx, FlowUpload, nil)
}
