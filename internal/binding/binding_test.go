package binding

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/state"
	"github.com/roach88/jobstate/internal/store"
	"github.com/roach88/jobstate/internal/testutil"
)

func newStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New(store.Config{},
		store.WithClock(testutil.NewDeterministicClock()),
		store.WithIDs(testutil.NewSequentialIDs("job")),
		store.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	require.NoError(t, err)
	return s
}

func TestWatch_FiresOnlyOnChange(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var seen []bool
	stop := Watch(s, Loading, nil, func(v bool) { seen = append(seen, v) })
	defer stop()

	s.Dispatch(ctx, action.SetLoading(false)) // unchanged
	s.Dispatch(ctx, action.SetLoading(true))
	s.Dispatch(ctx, action.SetLoading(true)) // unchanged
	s.Dispatch(ctx, action.AddJob(s.NewJob("Engineer", "")))
	s.Dispatch(ctx, action.SetLoading(false))

	assert.Equal(t, []bool{true, false}, seen)
}

func TestWatch_StopUnsubscribes(t *testing.T) {
	s := newStore(t)
	calls := 0
	stop := Watch(s, Loading, nil, func(bool) { calls++ })
	require.Equal(t, 1, s.Subscribers())

	stop()
	stop()
	assert.Equal(t, 0, s.Subscribers())

	s.Dispatch(context.Background(), action.SetLoading(true))
	assert.Zero(t, calls)
}

func TestWatch_JobsIdentity(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var lens []int
	stop := Watch(s, Jobs, SameSlice[state.Job], func(jobs []state.Job) { lens = append(lens, len(jobs)) })
	defer stop()

	j := s.NewJob("Engineer", "")
	s.Dispatch(ctx, action.AddJob(j))
	s.Dispatch(ctx, action.SetLoading(true)) // jobs untouched
	s.Dispatch(ctx, action.UpdateJob(j.ID, action.JobPatch{Title: action.Ptr("Staff Engineer")}))
	s.Dispatch(ctx, action.DeleteJob("missing")) // not found, jobs untouched

	assert.Equal(t, []int{1, 1}, lens)
}

func TestWatch_JobByID(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	a := s.NewJob("A", "")
	b := s.NewJob("B", "")
	s.Dispatch(ctx, action.AddJob(a))
	s.Dispatch(ctx, action.AddJob(b))

	var views []JobView
	stop := Watch(s, JobByID(a.ID), nil, func(v JobView) { views = append(views, v) })
	defer stop()

	s.Dispatch(ctx, action.UpdateJob(b.ID, action.JobPatch{Title: action.Ptr("B2")}))
	assert.Empty(t, views, "changes to other jobs are not reported")

	s.Dispatch(ctx, action.UpdateJob(a.ID, action.JobPatch{Title: action.Ptr("A2")}))
	require.Len(t, views, 1)
	assert.True(t, views[0].Found)
	assert.Equal(t, "A2", views[0].Job.Title)

	s.Dispatch(ctx, action.DeleteJob(a.ID))
	require.Len(t, views, 2)
	assert.False(t, views[1].Found)
}

func TestWatch_CurrentAndReset(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	var ids []string
	stop := Watch(s, Current, nil, func(id string) { ids = append(ids, id) })
	defer stop()

	j := s.NewJob("Engineer", "")
	s.Dispatch(ctx, action.AddJob(j))
	s.Dispatch(ctx, action.SetCurrentJob(&j))
	require.NoError(t, s.Clear(ctx))

	assert.Equal(t, []string{j.ID, ""}, ids)
}

func TestBind(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	b := Bind(s, Loading, nil)
	assert.False(t, b.Get())
	assert.Zero(t, b.Version())

	s.Dispatch(ctx, action.SetLoading(true))
	assert.True(t, b.Get())
	assert.Equal(t, uint64(1), b.Version())

	b.Close()
	s.Dispatch(ctx, action.SetLoading(false))
	assert.True(t, b.Get(), "closed binding keeps its last value")
	assert.Equal(t, 0, s.Subscribers())
}

// racySource commits a change the moment a listener registers, before the
// new listener is part of the notified set.
type racySource struct {
	st   state.State
	subs []store.Listener
}

func (r *racySource) GetState() state.State { return r.st }

func (r *racySource) Subscribe(fn store.Listener) func() {
	r.st.UI.IsLoading = true
	for _, l := range r.subs {
		l(r.st, action.SetLoading(true))
	}
	r.subs = append(r.subs, fn)
	return func() {}
}

func TestBind_CommitDuringSubscribe(t *testing.T) {
	src := &racySource{st: state.Default(state.SchemaVersion)}

	b := Bind[bool](src, Loading, nil)
	assert.True(t, b.Get(), "baseline reflects the commit that raced registration")
	assert.Zero(t, b.Version())

	var seen []bool
	Watch[bool](src, Loading, nil, func(v bool) { seen = append(seen, v) })
	src.st.UI.IsLoading = false
	for _, l := range src.subs {
		l(src.st, action.SetLoading(false))
	}
	assert.False(t, b.Get())
	assert.Equal(t, []bool{false}, seen)
}

func TestSameSlice(t *testing.T) {
	a := []int{1, 2}
	assert.True(t, SameSlice(a, a))
	assert.False(t, SameSlice(a, []int{1, 2}))
	assert.False(t, SameSlice(a, a[:1]))
	assert.True(t, SameSlice([]int{}, nil))
}
