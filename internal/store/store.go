package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/clock"
	"github.com/roach88/jobstate/internal/kv"
	"github.com/roach88/jobstate/internal/middleware"
	"github.com/roach88/jobstate/internal/migrate"
	"github.com/roach88/jobstate/internal/persist"
	"github.com/roach88/jobstate/internal/reducer"
	"github.com/roach88/jobstate/internal/state"
)

// Defaults for Config fields left zero.
const (
	DefaultKey    = "job-search-state"
	DefaultMaxAge = 30 * 24 * time.Hour
)

// Config is fixed for the lifetime of a Store.
type Config struct {
	// Key is the storage key holding the persisted record.
	Key string
	// Version is the schema version this build expects. Loaded state is
	// always migrated or relabeled to it.
	Version string
	// MaxAge discards saved state older than this. Negative disables the
	// check; zero means DefaultMaxAge.
	MaxAge time.Duration
	// Debug lowers the default logger to debug level.
	Debug bool
}

func (c Config) withDefaults() Config {
	if c.Key == "" {
		c.Key = DefaultKey
	}
	if c.Version == "" {
		c.Version = state.SchemaVersion
	}
	switch {
	case c.MaxAge == 0:
		c.MaxAge = DefaultMaxAge
	case c.MaxAge < 0:
		c.MaxAge = 0
	}
	return c
}

// Health reports problems the store absorbed instead of returning.
type Health struct {
	// LoadErr is the failure that made Initialize fall back to the default
	// state, if any.
	LoadErr error
	// PersistErr is the most recent write failure. Cleared by the next
	// successful write.
	PersistErr error
	// LastPersisted is when the record was last written successfully.
	LastPersisted time.Time
	// Migrations lists the steps applied on the last load or import.
	Migrations []string
	// MigrationGap is set when the last accepted record had no migration
	// path and was relabeled as-is.
	MigrationGap bool
}

// OK reports whether no error is outstanding.
func (h Health) OK() bool {
	return h.LoadErr == nil && h.PersistErr == nil
}

// Store is the single writer of application state.
//
// Thread-safety: all methods are safe for concurrent use. See the package
// documentation for the re-entrancy hazard of dispatching from a listener.
type Store struct {
	cfg        Config
	storage    kv.Storage
	persister  *persist.Persister
	pipeline   *middleware.Pipeline
	reducer    *reducer.Reducer
	migrations *migrate.Registry
	clock      clock.Clock
	ids        action.IDGenerator
	logger     *slog.Logger
	seq        *clock.Sequence

	// writeMu serializes the dispatch critical section and every other
	// operation that replaces state.
	writeMu sync.Mutex
	// notifyMu is taken before writeMu is released and held through
	// notification, so listeners observe commits in commit order.
	notifyMu sync.Mutex

	mu     sync.RWMutex // guards state and health
	state  state.State
	health Health

	subs     subscribers
	queue    *actionQueue
	initOnce sync.Once
}

// New creates a store holding the default state. Call Initialize to load
// saved state.
func New(cfg Config, opts ...Option) (*Store, error) {
	cfg = cfg.withDefaults()

	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.storage == nil {
		o.storage = kv.NewMemory()
	}
	if o.clock == nil {
		o.clock = clock.System{}
	}
	if o.ids == nil {
		o.ids = action.UUIDv7Generator{}
	}
	if o.migrations == nil {
		o.migrations = migrate.Default()
	}
	if o.logger == nil {
		o.logger = defaultLogger(cfg.Debug)
	}
	if o.pipeline == nil {
		v := validator.New(validator.WithRequiredStructEnabled())
		o.pipeline = middleware.New(middleware.Standard(o.logger, v, o.clock)...)
	}
	if len(o.extra) > 0 {
		o.pipeline = o.pipeline.With(o.extra...)
	}

	p, err := persist.New(o.storage, persist.Options{
		Key:    cfg.Key,
		MaxAge: cfg.MaxAge,
		Codec:  o.codec,
		Clock:  o.clock,
		Logger: o.logger,
	})
	if err != nil {
		return nil, fmt.Errorf("new store: %w", err)
	}

	return &Store{
		cfg:        cfg,
		storage:    o.storage,
		persister:  p,
		pipeline:   o.pipeline,
		reducer:    reducer.New(o.clock),
		migrations: o.migrations,
		clock:      o.clock,
		ids:        o.ids,
		logger:     o.logger.With("component", "store", "key", cfg.Key),
		seq:        clock.NewSequence(),
		state:      state.Default(cfg.Version),
		queue:      newActionQueue(),
	}, nil
}

func defaultLogger(debug bool) *slog.Logger {
	if !debug {
		return slog.Default()
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// Config returns the effective configuration.
func (s *Store) Config() Config { return s.cfg }

// Pipeline returns the middleware chain in use.
func (s *Store) Pipeline() *middleware.Pipeline { return s.pipeline }

// Dispatch runs a through middleware, the reducer, persistence and
// notification. It never panics and never returns a bare error: the Result
// tells the caller what happened.
func (s *Store) Dispatch(ctx context.Context, a action.Action) Result {
	s.writeMu.Lock()

	cur := s.snapshot()
	a = a.WithMeta(action.MetaSeq, s.seq.Next())

	a, err := s.pipeline.Run(a, cur)
	if err != nil {
		s.writeMu.Unlock()
		s.logger.Warn("action vetoed", "type", a.Type, "error", err)
		return Result{Status: StatusVetoed, Action: a, Err: err}
	}

	next, outcome := s.reducer.Reduce(cur, a)
	res := Result{Status: statusOf(outcome), Action: a}
	switch outcome {
	case reducer.NotFound:
		s.logger.Warn("action referenced a missing entity", "type", a.Type)
	case reducer.Invalid:
		s.logger.Error("action payload has the wrong type", "type", a.Type, "payload_type", fmt.Sprintf("%T", a.Payload))
	case reducer.Ignored:
		s.logger.Debug("action type not handled by reducer", "type", a.Type)
	}

	res.Err = s.commit(ctx, "persist", next)
	s.publish(next, a)
	return res
}

// publish hands the commit over from writeMu to notifyMu and notifies.
// Caller holds writeMu; it is released on return.
func (s *Store) publish(next state.State, a action.Action) {
	s.notifyMu.Lock()
	s.writeMu.Unlock()
	defer s.notifyMu.Unlock()
	s.subs.notify(next, a)
}

// commit persists next and publishes it. The state is replaced even when
// the write fails. Caller holds writeMu.
func (s *Store) commit(ctx context.Context, op string, next state.State) error {
	err := s.persister.Persist(ctx, next)
	if err != nil {
		err = newError(op, ErrCodePersist, err)
		s.logger.Error("persisting state failed", "error", err)
	}

	s.mu.Lock()
	s.state = next
	s.health.PersistErr = err
	if err == nil {
		s.health.LastPersisted = s.clock.Now()
	}
	s.mu.Unlock()
	return err
}

func (s *Store) snapshot() state.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// GetState returns a shallow copy of the current state. Only the top level
// is fresh; nested slices are shared and must not be modified.
func (s *Store) GetState() state.State {
	return s.snapshot()
}

// Jobs returns the current job list. The slice is a copy; the jobs' own
// slices are shared.
func (s *Store) Jobs() []state.Job {
	return slices.Clone(s.snapshot().Jobs)
}

// Job returns the job with the given id.
func (s *Store) Job(id string) (state.Job, bool) {
	return s.snapshot().FindJob(id)
}

// CurrentJob returns the selected job, or nil.
func (s *Store) CurrentJob() *state.Job {
	cj := s.snapshot().CurrentJob
	if cj == nil {
		return nil
	}
	out := *cj
	return &out
}

// UI returns the transient UI fields.
func (s *Store) UI() state.UI {
	return s.snapshot().UI
}

// Health returns the problems absorbed so far.
func (s *Store) Health() Health {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h := s.health
	h.Migrations = slices.Clone(h.Migrations)
	return h
}

// NewJob builds a draft job with a fresh id and the store's clock. It does
// not dispatch.
func (s *Store) NewJob(title, description string) state.Job {
	return action.NewJob(s.ids, s.clock, title, description)
}

// NewMaterial builds a material for jobID. It does not dispatch.
func (s *Store) NewMaterial(jobID string, typ state.MaterialType, title string) state.JobMaterial {
	return action.NewMaterial(s.ids, s.clock, jobID, typ, title)
}

// NewUpload builds an upload record. It does not dispatch.
func (s *Store) NewUpload(name string, size int64, mime string) state.UploadedFile {
	return action.NewUpload(s.ids, s.clock, name, size, mime)
}

// Subscribe registers fn for every committed dispatch, reset and hydrate.
// The returned function unsubscribes; calling it more than once is a no-op.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}
	return s.subs.add(fn)
}

// Subscribers returns the number of registered listeners.
func (s *Store) Subscribers() int {
	return s.subs.len()
}

// Initialize loads saved state exactly once. Later calls are no-ops.
//
// Every failure degrades to the default state and is reported by Health.
// Subscribers receive a store/hydrate notification when it completes.
func (s *Store) Initialize(ctx context.Context) {
	s.initOnce.Do(func() { s.hydrate(ctx) })
}

func (s *Store) hydrate(ctx context.Context) {
	s.writeMu.Lock()

	next := state.Default(s.cfg.Version)
	var loadErr error
	var mig migrate.Result

	loaded, err := s.persister.Load(ctx)
	switch {
	case err != nil && errors.Is(err, persist.ErrCorrupt):
		loadErr = newError("load", ErrCodeCorrupt, err)
	case err != nil:
		loadErr = newError("load", ErrCodeStorage, err)
	case loaded != nil:
		accepted, res, accErr := s.accept("load", loaded)
		if accErr != nil {
			loadErr = accErr
			break
		}
		next, mig = accepted, res
	}

	if loadErr != nil {
		s.logger.Warn("starting from default state", "error", loadErr)
	}

	if mig.Migrated() {
		// Re-persist so the next load skips the migration.
		_ = s.commit(ctx, "persist", next)
	} else {
		s.mu.Lock()
		s.state = next
		s.mu.Unlock()
	}

	s.mu.Lock()
	s.health.LoadErr = loadErr
	s.health.Migrations = mig.Applied
	s.health.MigrationGap = mig.Gap
	s.mu.Unlock()

	s.logger.Info("store initialized",
		"jobs", len(next.Jobs),
		"version", next.Version,
		"migrations", mig.Applied,
		"restored", loaded != nil && loadErr == nil,
	)
	s.publish(next, action.Hydrate().WithMeta("source", "load"))
}

// accept moves a decoded record to the configured version and types it.
// It is the only path by which external data becomes state. Duplicate job
// and child ids collapse the way jobs/set collapses them.
func (s *Store) accept(op string, l *persist.Loaded) (state.State, migrate.Result, error) {
	res, err := s.migrations.Migrate(l.State, l.Version, s.cfg.Version)
	if err != nil {
		return state.State{}, migrate.Result{}, newError(op, ErrCodeMigration, err)
	}
	if res.Gap {
		s.logger.Warn("no migration path, accepting saved state as-is",
			"from", l.Version, "to", s.cfg.Version, "applied", res.Applied)
	} else if len(res.Applied) > 0 {
		s.logger.Info("migrated saved state", "from", l.Version, "to", s.cfg.Version, "applied", res.Applied)
	}

	if err := persist.CheckShape(res.State); err != nil {
		return state.State{}, migrate.Result{}, newError(op, ErrCodeShape, err)
	}
	st, err := persist.DecodeState(res.State)
	if err != nil {
		return state.State{}, migrate.Result{}, newError(op, ErrCodeCorrupt, err)
	}

	st = st.Unique()
	st.Version = s.cfg.Version
	st.UI.IsLoading = false
	st.CurrentJob = rederiveCurrent(st)
	return st, res, nil
}

// rederiveCurrent returns the jobs entry matching the saved currentJob id,
// or nil when that job is gone.
func rederiveCurrent(st state.State) *state.Job {
	if st.CurrentJob == nil {
		return nil
	}
	j, ok := st.FindJob(st.CurrentJob.ID)
	if !ok {
		return nil
	}
	return &j
}

// Clear wipes saved state and returns to the default state. Subscribers
// receive a store/reset notification. The in-memory reset happens even when
// the storage delete fails.
func (s *Store) Clear(ctx context.Context) error {
	s.writeMu.Lock()

	var err error
	if derr := s.persister.Clear(ctx); derr != nil {
		err = newError("clear", ErrCodeStorage, derr)
		s.logger.Error("clearing saved state failed", "error", err)
	}
	next := state.Default(s.cfg.Version)

	s.mu.Lock()
	s.state = next
	s.health = Health{}
	s.mu.Unlock()

	s.publish(next, action.Reset())
	return err
}

// Reset is Clear.
func (s *Store) Reset(ctx context.Context) error {
	return s.Clear(ctx)
}

// Export returns the current state as an encoded record, in the same format
// (and codec) used for storage.
func (s *Store) Export(_ context.Context) (string, error) {
	blob, err := persist.Seal(s.persister.Codec(), s.snapshot(), s.clock.Now())
	if err != nil {
		return "", newError("export", ErrCodeCorrupt, err)
	}
	return blob, nil
}

// Import replaces the current state with an exported record. The record is
// migrated and validated exactly as on load; it is never rejected for age.
// On failure the current state is untouched.
func (s *Store) Import(ctx context.Context, blob string) error {
	loaded, err := persist.Open(s.persister.Codec(), blob)
	if err != nil {
		return newError("import", ErrCodeCorrupt, err)
	}

	s.writeMu.Lock()
	next, mig, err := s.accept("import", loaded)
	if err != nil {
		s.writeMu.Unlock()
		s.logger.Warn("import rejected", "error", err)
		return err
	}

	perr := s.commit(ctx, "import", next)
	s.mu.Lock()
	s.health.Migrations = mig.Applied
	s.health.MigrationGap = mig.Gap
	s.mu.Unlock()

	s.logger.Info("state imported", "jobs", len(next.Jobs), "from_version", loaded.Version)
	s.publish(next, action.Hydrate().WithMeta("source", "import"))
	return perr
}

// Post queues a for dispatch by Run. It is safe to call from a listener.
// Returns false once the store has been stopped.
func (s *Store) Post(a action.Action) bool {
	return s.queue.enqueue(a)
}

// Pending returns the number of posted actions not yet dispatched.
func (s *Store) Pending() int {
	return s.queue.len()
}

// Run dispatches posted actions in FIFO order until ctx is cancelled or Stop
// is called. Stop drains what was already posted before Run returns.
//
// Must be called from exactly one goroutine.
func (s *Store) Run(ctx context.Context) error {
	s.logger.Debug("dispatch loop starting")
	for {
		if a, ok := s.queue.tryDequeue(); ok {
			if res := s.Dispatch(ctx, a); res.Err != nil {
				s.logger.Warn("posted action failed", "type", a.Type, "status", res.Status, "error", res.Err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			s.logger.Debug("dispatch loop stopping: context cancelled")
			s.queue.close()
			return ctx.Err()
		case <-s.queue.wait():
			if s.queue.isClosed() && s.queue.len() == 0 {
				s.logger.Debug("dispatch loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the posting queue. Run returns after draining it.
func (s *Store) Stop() {
	s.queue.close()
}

// Close stops the queue and closes the storage backend.
func (s *Store) Close() error {
	s.Stop()
	return s.storage.Close()
}
