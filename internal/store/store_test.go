package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/middleware"
	"github.com/roach88/jobstate/internal/migrate"
	"github.com/roach88/jobstate/internal/persist"
	"github.com/roach88/jobstate/internal/state"
)

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{}, WithLogger(discardLogger()))
	require.NoError(t, err)

	cfg := s.Config()
	assert.Equal(t, DefaultKey, cfg.Key)
	assert.Equal(t, state.SchemaVersion, cfg.Version)
	assert.Equal(t, DefaultMaxAge, cfg.MaxAge)
	assert.Equal(t, []string{"logger", "validator", "async", "persistence"}, s.Pipeline().Names())

	st := s.GetState()
	assert.Empty(t, st.Jobs)
	assert.Nil(t, st.CurrentJob)
	assert.False(t, st.UI.IsLoading)
	assert.Equal(t, state.SchemaVersion, st.Version)
}

func TestNew_NegativeMaxAgeDisablesCheck(t *testing.T) {
	s, err := New(Config{MaxAge: -1}, WithLogger(discardLogger()))
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), s.Config().MaxAge)
}

func TestDispatch_AddThenArchive(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	res := f.store.Dispatch(ctx, action.AddJob(job("j1", "CV tune-up")))
	require.True(t, res.OK(), res.Err)
	assert.Nil(t, f.store.CurrentJob())

	res = f.store.Dispatch(ctx, action.UpdateJob("j1", action.JobPatch{Status: action.Ptr(state.StatusArchived)}))
	require.True(t, res.OK(), res.Err)

	jobs := f.store.Jobs()
	require.Len(t, jobs, 1)
	assert.Equal(t, "j1", jobs[0].ID)
	assert.Equal(t, state.StatusArchived, jobs[0].Status)
	assert.Nil(t, f.store.CurrentJob())
}

func TestDispatch_DeleteCurrentClearsIt(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	a := job("a", "A")
	require.True(t, f.store.Dispatch(ctx, action.AddJob(a)).OK())
	require.True(t, f.store.Dispatch(ctx, action.SetCurrentJob(&a)).OK())
	require.NotNil(t, f.store.CurrentJob())

	require.True(t, f.store.Dispatch(ctx, action.DeleteJob("a")).OK())
	assert.Nil(t, f.store.CurrentJob())
}

func TestDispatch_CurrentJobTracksUpdates(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	a := job("a", "A")
	f.store.Dispatch(ctx, action.AddJob(a))
	f.store.Dispatch(ctx, action.SetCurrentJob(&a))
	f.store.Dispatch(ctx, action.UpdateJob("a", action.JobPatch{Title: action.Ptr("Renamed")}))

	cur := f.store.CurrentJob()
	require.NotNil(t, cur)
	assert.Equal(t, "Renamed", cur.Title)

	stored, ok := f.store.Job("a")
	require.True(t, ok)
	assert.Equal(t, stored, *cur)
}

func TestDispatch_MissingParentIsNotFound(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.store.Dispatch(ctx, action.AddJob(job("j1", "Engineer")))
	before := f.store.GetState()

	m := f.store.NewMaterial("missing-job", state.MaterialNotes, "Notes")
	res := f.store.Dispatch(ctx, action.AddJobMaterial("missing-job", m))

	assert.Equal(t, StatusNotFound, res.Status)
	assert.NoError(t, res.Err)
	after := f.store.GetState()
	assert.Equal(t, before.Jobs, after.Jobs)
	assert.True(t, after.UI.LastUpdated.After(before.UI.LastUpdated))
}

func TestDispatch_UnknownTypeIsIgnored(t *testing.T) {
	f := newFixture(t, Config{})
	res := f.store.Dispatch(context.Background(), action.Action{Type: "jobs/frobnicate"})
	assert.Equal(t, StatusIgnored, res.Status)
	assert.False(t, f.store.GetState().UI.LastUpdated.IsZero())
}

func TestDispatch_VetoIsolation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	rec := &recorder{}
	f.store.Subscribe(rec.listen)

	before := f.store.GetState()
	res := f.store.Dispatch(ctx, action.AddJob(state.Job{Title: "no id"}))

	assert.Equal(t, StatusVetoed, res.Status)
	assert.ErrorIs(t, res.Err, middleware.ErrVeto)
	assert.Equal(t, before, f.store.GetState())
	assert.Equal(t, 0, f.storage.Len(), "vetoed action is not persisted")
	assert.Empty(t, rec.types(), "vetoed action is not notified")
}

func TestDispatch_CustomMiddlewareVeto(t *testing.T) {
	readOnly := middleware.Middleware{
		Name: "read-only",
		Handle: func(a action.Action, _ state.State) (action.Action, error) {
			if a.Type == action.TypeDeleteJob {
				return a, middleware.Veto("deletes disabled", nil)
			}
			return a, nil
		},
	}
	f := newFixture(t, Config{}, WithMiddleware(readOnly))
	ctx := context.Background()
	f.store.Dispatch(ctx, action.AddJob(job("j1", "Engineer")))

	res := f.store.Dispatch(ctx, action.DeleteJob("j1"))
	require.Equal(t, StatusVetoed, res.Status)
	var ve *middleware.VetoError
	require.ErrorAs(t, res.Err, &ve)
	assert.Equal(t, "read-only", ve.Middleware)
	assert.Len(t, f.store.Jobs(), 1)
}

func TestDispatch_AnnotatesAction(t *testing.T) {
	f := newFixture(t, Config{})
	res := f.store.Dispatch(context.Background(), action.SetLoading(true))

	persisted, ok := res.Action.MetaValue(action.MetaPersisted)
	require.True(t, ok)
	assert.Equal(t, true, persisted)
	seq, ok := res.Action.MetaValue(action.MetaSeq)
	require.True(t, ok)
	assert.Equal(t, int64(1), seq)
	assert.True(t, f.store.UI().IsLoading)
}

func TestDispatch_PersistFailureKeepsChange(t *testing.T) {
	f := newFixture(t, Config{})
	f.storage.FailSet = errors.New("quota exceeded")

	res := f.store.Dispatch(context.Background(), action.AddJob(job("j1", "Engineer")))
	assert.Equal(t, StatusOK, res.Status)
	assert.False(t, res.OK())
	assert.Equal(t, ErrCodePersist, CodeOf(res.Err))
	assert.Len(t, f.store.Jobs(), 1)

	h := f.store.Health()
	assert.False(t, h.OK())
	assert.Equal(t, ErrCodePersist, CodeOf(h.PersistErr))

	f.storage.FailSet = nil
	res = f.store.Dispatch(context.Background(), action.SetLoading(false))
	require.True(t, res.OK())
	assert.True(t, f.store.Health().OK())
	assert.False(t, f.store.Health().LastPersisted.IsZero())
}

func TestDispatch_Uniqueness(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	for range 3 {
		f.store.Dispatch(ctx, action.AddJob(job("j1", "Engineer")))
		f.store.Dispatch(ctx, action.AddJob(job("j2", "Designer")))
	}
	up := state.UploadedFile{ID: "u1", Name: "cv.pdf", Size: 10, Status: state.UploadCompleted}
	f.store.Dispatch(ctx, action.AddUploadedFiles("j1", up))
	f.store.Dispatch(ctx, action.AddUploadedFiles("j1", up))

	jobs := f.store.Jobs()
	require.Len(t, jobs, 2)
	j1, _ := f.store.Job("j1")
	assert.Len(t, j1.Uploads, 1, "same upload id twice yields one entry")
}

func TestSubscribe_OrderAndUnsubscribe(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	var order []string
	unsubA := f.store.Subscribe(func(state.State, action.Action) { order = append(order, "a") })
	f.store.Subscribe(func(state.State, action.Action) { order = append(order, "b") })
	assert.Equal(t, 2, f.store.Subscribers())

	f.store.Dispatch(ctx, action.SetLoading(true))
	assert.Equal(t, []string{"a", "b"}, order)

	unsubA()
	unsubA()
	assert.Equal(t, 1, f.store.Subscribers())

	f.store.Dispatch(ctx, action.SetLoading(false))
	assert.Equal(t, []string{"a", "b", "b"}, order)
}

func TestSubscribe_ListenerSeesNewStateAndCanRead(t *testing.T) {
	f := newFixture(t, Config{})
	var seen []string
	f.store.Subscribe(func(s state.State, a action.Action) {
		// Reading inside a listener must not deadlock.
		got := f.store.GetState()
		assert.Equal(t, len(s.Jobs), len(got.Jobs))
		seen = append(seen, string(a.Type))
	})

	f.store.Dispatch(context.Background(), action.AddJob(job("j1", "Engineer")))
	assert.Equal(t, []string{string(action.TypeAddJob)}, seen)
}

func TestSubscribe_CommitOrderAcrossGoroutines(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	entered := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	var seen []bool
	f.store.Subscribe(func(s state.State, a action.Action) {
		if a.Type != action.TypeSetLoading {
			return
		}
		if s.UI.IsLoading {
			close(entered)
			<-release
		}
		mu.Lock()
		seen = append(seen, s.UI.IsLoading)
		mu.Unlock()
	})

	first := make(chan struct{})
	go func() {
		f.store.Dispatch(ctx, action.SetLoading(true))
		close(first)
	}()
	select {
	case <-entered:
	case <-time.After(5 * time.Second):
		t.Fatal("first notification not delivered")
	}

	second := make(chan struct{})
	go func() {
		f.store.Dispatch(ctx, action.SetLoading(false))
		close(second)
	}()
	// The second commit lands while the first notification is still running.
	require.Eventually(t, func() bool { return !f.store.UI().IsLoading }, 5*time.Second, time.Millisecond)

	close(release)
	for _, done := range []chan struct{}{first, second} {
		select {
		case <-done:
		case <-time.After(5 * time.Second):
			t.Fatal("dispatch did not return")
		}
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []bool{true, false}, seen)
	assert.False(t, f.store.UI().IsLoading)
}

func TestSubscribe_NilListener(t *testing.T) {
	f := newFixture(t, Config{})
	unsub := f.store.Subscribe(nil)
	unsub()
	assert.Equal(t, 0, f.store.Subscribers())
}

func TestInitialize_RoundTrip(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	a := job("a", "A")
	f.store.Dispatch(ctx, action.AddJob(a))
	f.store.Dispatch(ctx, action.AddJob(job("b", "B")))
	f.store.Dispatch(ctx, action.SetCurrentJob(&a))
	m := f.store.NewMaterial("a", state.MaterialCVRewriter, "CV")
	f.store.Dispatch(ctx, action.AddJobMaterial("a", m))
	want := f.store.GetState()

	reopened := newFixture(t, Config{}, WithStorage(f.storage))
	rec := &recorder{}
	reopened.store.Subscribe(rec.listen)
	reopened.store.Initialize(ctx)

	got := reopened.store.GetState()
	assert.Equal(t, want.Jobs, got.Jobs)
	assert.Equal(t, want.CurrentJob, got.CurrentJob)
	assert.Equal(t, want.Version, got.Version)
	assert.Equal(t, []action.Type{action.TypeHydrate}, rec.types())
	assert.True(t, reopened.store.Health().OK())
}

func TestInitialize_Idempotent(t *testing.T) {
	f := newFixture(t, Config{})
	rec := &recorder{}
	f.store.Subscribe(rec.listen)

	ctx := context.Background()
	f.store.Initialize(ctx)
	f.store.Dispatch(ctx, action.AddJob(job("j1", "Engineer")))
	f.store.Initialize(ctx)

	assert.Equal(t, []action.Type{action.TypeHydrate, action.TypeAddJob}, rec.types())
	assert.Len(t, f.store.Jobs(), 1, "second Initialize does not reload")
}

func TestInitialize_Absent(t *testing.T) {
	f := newFixture(t, Config{})
	f.store.Initialize(context.Background())

	assert.Empty(t, f.store.Jobs())
	assert.True(t, f.store.Health().OK())
	assert.Equal(t, 0, f.storage.Len(), "nothing to re-persist")
}

func TestInitialize_CorruptDegrades(t *testing.T) {
	f := newFixture(t, Config{})
	require.NoError(t, f.storage.Set(context.Background(), testKey, "definitely not a record"))

	f.store.Initialize(context.Background())
	assert.Empty(t, f.store.Jobs())
	assert.Equal(t, state.SchemaVersion, f.store.GetState().Version)

	h := f.store.Health()
	assert.False(t, h.OK())
	assert.True(t, IsCorrupt(h.LoadErr))
}

func TestInitialize_StaleDegrades(t *testing.T) {
	f := newFixture(t, Config{MaxAge: time.Hour})
	ctx := context.Background()
	f.store.Dispatch(ctx, action.AddJob(job("j1", "Engineer")))

	f.clock.Advance(2 * time.Hour)
	reopened := newFixture(t, Config{MaxAge: time.Hour}, WithStorage(f.storage), WithClock(f.clock))
	reopened.store.Initialize(ctx)

	assert.Empty(t, reopened.store.Jobs())
	assert.True(t, reopened.store.Health().OK(), "stale data is absence, not an error")
}

func TestInitialize_ShapeInvalidDegrades(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	writeRaw(t, f, `{"state":{"jobs":[{"title":"no id"}],"version":"1.0.0"},"version":"1.0.0","timestamp":`+nowMillis(f)+`}`)

	f.store.Initialize(ctx)
	assert.Empty(t, f.store.Jobs())
	assert.Equal(t, ErrCodeShape, CodeOf(f.store.Health().LoadErr))
}

func TestInitialize_MigratesLegacyRecord(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	writeRaw(t, f, `{"state":{"jobs":[{"id":"j1","title":"Legacy","materials":[{"id":"m1","type":"notes","title":"n"}]}],"ui":{"isLoading":true},"version":"0.9.0"},"version":"0.9.0","timestamp":`+nowMillis(f)+`}`)

	f.store.Initialize(ctx)

	st := f.store.GetState()
	assert.Equal(t, "1.0.0", st.Version)
	assert.False(t, st.UI.IsLoading)
	require.Len(t, st.Jobs, 1)
	assert.Len(t, st.Jobs[0].JobMaterials, 1)

	h := f.store.Health()
	assert.True(t, h.OK())
	assert.Equal(t, []string{"0.9.0->1.0.0"}, h.Migrations)

	// Re-persisted under the new version.
	loaded := reload(t, f)
	assert.Equal(t, "1.0.0", loaded.Version)
}

func TestInitialize_UnknownVersionAcceptedAsIs(t *testing.T) {
	f := newFixture(t, Config{})
	writeRaw(t, f, `{"state":{"jobs":[{"id":"j1","title":"Future"}],"version":"0.1.0"},"version":"0.1.0","timestamp":`+nowMillis(f)+`}`)

	f.store.Initialize(context.Background())

	assert.Equal(t, "1.0.0", f.store.GetState().Version)
	assert.Len(t, f.store.Jobs(), 1)
	assert.True(t, f.store.Health().MigrationGap)
	assert.Equal(t, "1.0.0", reload(t, f).Version)
}

func TestInitialize_MigrationCycleDegrades(t *testing.T) {
	reg, err := migrate.NewRegistry(
		migrate.Migration{From: "0.1", To: "0.2", Transform: passthrough},
		migrate.Migration{From: "0.2", To: "0.1", Transform: passthrough},
	)
	require.NoError(t, err)
	f := newFixture(t, Config{}, WithMigrations(reg))
	writeRaw(t, f, `{"state":{"jobs":[]},"version":"0.1","timestamp":`+nowMillis(f)+`}`)

	f.store.Initialize(context.Background())
	assert.Equal(t, ErrCodeMigration, CodeOf(f.store.Health().LoadErr))
	assert.Empty(t, f.store.Jobs())
}

func TestInitialize_DanglingCurrentJobDropped(t *testing.T) {
	f := newFixture(t, Config{})
	writeRaw(t, f, `{"state":{"jobs":[{"id":"j1","title":"Kept"}],"currentJob":{"id":"gone","title":"Gone"},"version":"1.0.0"},"version":"1.0.0","timestamp":`+nowMillis(f)+`}`)

	f.store.Initialize(context.Background())
	assert.Len(t, f.store.Jobs(), 1)
	assert.Nil(t, f.store.CurrentJob())
}

func TestClear(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.store.Dispatch(ctx, action.AddJob(job("j1", "Engineer")))
	require.Equal(t, 1, f.storage.Len())

	rec := &recorder{}
	f.store.Subscribe(rec.listen)
	require.NoError(t, f.store.Reset(ctx))

	assert.Equal(t, 0, f.storage.Len())
	assert.Empty(t, f.store.Jobs())
	assert.Equal(t, []action.Type{action.TypeReset}, rec.types())
}

func TestExportImport(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t, Config{})
	a := job("a", "A")
	src.store.Dispatch(ctx, action.AddJob(a))
	src.store.Dispatch(ctx, action.SetCurrentJob(&a))

	blob, err := src.store.Export(ctx)
	require.NoError(t, err)

	dst := newFixture(t, Config{})
	rec := &recorder{}
	dst.store.Subscribe(rec.listen)
	require.NoError(t, dst.store.Import(ctx, blob))

	assert.Equal(t, src.store.Jobs(), dst.store.Jobs())
	assert.Equal(t, src.store.CurrentJob(), dst.store.CurrentJob())
	assert.Equal(t, []action.Type{action.TypeHydrate}, rec.types())
	assert.Equal(t, 1, dst.storage.Len(), "import persists")
}

func TestImport_IgnoresAge(t *testing.T) {
	ctx := context.Background()
	src := newFixture(t, Config{MaxAge: time.Minute})
	src.store.Dispatch(ctx, action.AddJob(job("a", "A")))
	blob, err := src.store.Export(ctx)
	require.NoError(t, err)

	dst := newFixture(t, Config{MaxAge: time.Minute})
	dst.clock.Advance(24 * time.Hour)
	require.NoError(t, dst.store.Import(ctx, blob))
	assert.Len(t, dst.store.Jobs(), 1)
}

func TestImport_MigratesLegacy(t *testing.T) {
	f := newFixture(t, Config{})
	blob, err := persist.NewObfuscator(testKey).Encode([]byte(
		`{"state":{"jobs":[{"id":"j1","title":"Legacy"}],"version":"0.9.0"},"version":"0.9.0","timestamp":0}`))
	require.NoError(t, err)

	require.NoError(t, f.store.Import(context.Background(), blob))
	assert.Equal(t, "1.0.0", f.store.GetState().Version)
	assert.Equal(t, []string{"0.9.0->1.0.0"}, f.store.Health().Migrations)
}

func dupState() state.State {
	st := state.Default(state.SchemaVersion)
	first, second := job("j1", "first"), job("j1", "second")
	second.JobMaterials = []state.JobMaterial{
		{ID: "m1", Type: state.MaterialNotes, Title: "a"},
		{ID: "m1", Type: state.MaterialNotes, Title: "b"},
	}
	second.Uploads = []state.UploadedFile{{ID: "u1", Name: "a"}, {ID: "u1", Name: "b"}}
	st.Jobs = []state.Job{first, job("j2", "other"), second}
	return st
}

func assertCollapsed(t *testing.T, jobs []state.Job) {
	t.Helper()
	require.Len(t, jobs, 2)
	assert.Equal(t, "j1", jobs[0].ID)
	assert.Equal(t, "second", jobs[0].Title)
	require.Len(t, jobs[0].JobMaterials, 1)
	assert.Equal(t, "b", jobs[0].JobMaterials[0].Title)
	require.Len(t, jobs[0].Uploads, 1)
	assert.Equal(t, "b", jobs[0].Uploads[0].Name)
	assert.Equal(t, "j2", jobs[1].ID)
}

func TestImport_DuplicateIDs(t *testing.T) {
	f := newFixture(t, Config{})
	blob, err := persist.Seal(f.store.persister.Codec(), dupState(), f.clock.Peek())
	require.NoError(t, err)

	require.NoError(t, f.store.Import(context.Background(), blob))
	assertCollapsed(t, f.store.Jobs())
}

func TestInitialize_DuplicateIDs(t *testing.T) {
	f := newFixture(t, Config{})
	blob, err := persist.Seal(f.store.persister.Codec(), dupState(), f.clock.Peek())
	require.NoError(t, err)
	require.NoError(t, f.storage.Set(context.Background(), testKey, blob))

	f.store.Initialize(context.Background())
	require.NoError(t, f.store.Health().LoadErr)
	assertCollapsed(t, f.store.Jobs())
}

func TestImport_RejectsLeaveStateUntouched(t *testing.T) {
	obf := persist.NewObfuscator(testKey)
	badShape, err := obf.Encode([]byte(`{"state":{"jobs":"nope"},"version":"1.0.0","timestamp":0}`))
	require.NoError(t, err)

	tests := []struct {
		name string
		blob string
		code ErrorCode
	}{
		{"garbage", "???", ErrCodeCorrupt},
		{"bad shape", badShape, ErrCodeShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			ctx := context.Background()
			f.store.Dispatch(ctx, action.AddJob(job("j1", "Engineer")))
			before := f.store.GetState()

			err := f.store.Import(ctx, tt.blob)
			require.Error(t, err)
			assert.Equal(t, tt.code, CodeOf(err))
			assert.Equal(t, before, f.store.GetState())
		})
	}
}

func TestSealerCodec(t *testing.T) {
	sealer, err := persist.NewSealer([]byte("secret"), testKey)
	require.NoError(t, err)
	ctx := context.Background()

	f := newFixture(t, Config{}, WithCodec(sealer))
	f.store.Dispatch(ctx, action.AddJob(job("j1", "Engineer")))

	reopened := newFixture(t, Config{}, WithStorage(f.storage), WithCodec(sealer))
	reopened.store.Initialize(ctx)
	assert.Len(t, reopened.store.Jobs(), 1)

	wrongKey, err := persist.NewSealer([]byte("other"), testKey)
	require.NoError(t, err)
	locked := newFixture(t, Config{}, WithStorage(f.storage), WithCodec(wrongKey))
	locked.store.Initialize(ctx)
	assert.Empty(t, locked.store.Jobs())
	assert.True(t, IsCorrupt(locked.store.Health().LoadErr))
}

func TestPostRun_FIFO(t *testing.T) {
	f := newFixture(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var seen []action.Type
	f.store.Subscribe(func(_ state.State, a action.Action) {
		mu.Lock()
		seen = append(seen, a.Type)
		mu.Unlock()
	})

	require.True(t, f.store.Post(action.AddJob(job("j1", "Engineer"))))
	require.True(t, f.store.Post(action.SetLoading(true)))
	require.True(t, f.store.Post(action.DeleteJob("j1")))
	f.store.Stop()
	assert.False(t, f.store.Post(action.SetLoading(false)), "post after stop is refused")

	require.NoError(t, f.store.Run(ctx))
	assert.Equal(t, []action.Type{action.TypeAddJob, action.TypeSetLoading, action.TypeDeleteJob}, seen)
	assert.Empty(t, f.store.Jobs())
	assert.Equal(t, 0, f.store.Pending())
}

func TestPostRun_ListenerRedispatchesViaPost(t *testing.T) {
	f := newFixture(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// A listener that reacts to every added job by selecting it.
	f.store.Subscribe(func(s state.State, a action.Action) {
		if a.Type != action.TypeAddJob {
			return
		}
		j := a.Payload.(state.Job)
		f.store.Post(action.SetCurrentJob(&j))
	})
	f.store.Subscribe(func(_ state.State, a action.Action) {
		if a.Type == action.TypeSetCurrentJob {
			f.store.Stop()
		}
	})

	done := make(chan error, 1)
	go func() { done <- f.store.Run(ctx) }()

	require.True(t, f.store.Post(action.AddJob(job("j1", "Engineer"))))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("run loop did not stop")
	}
	cur := f.store.CurrentJob()
	require.NotNil(t, cur)
	assert.Equal(t, "j1", cur.ID)
}

func TestRun_ContextCancel(t *testing.T) {
	f := newFixture(t, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := f.store.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, f.store.Post(action.SetLoading(true)))
}

func TestDispatch_Concurrent(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j := f.store.NewJob("Job", "")
			f.store.Dispatch(ctx, action.AddJob(j))
			_ = f.store.GetState()
		}()
	}
	wg.Wait()

	assert.Len(t, f.store.Jobs(), 20)
}

func TestClose(t *testing.T) {
	f := newFixture(t, Config{})
	require.NoError(t, f.store.Close())

	res := f.store.Dispatch(context.Background(), action.SetLoading(true))
	assert.Equal(t, ErrCodePersist, CodeOf(res.Err))
	assert.False(t, f.store.Post(action.SetLoading(false)))
}
