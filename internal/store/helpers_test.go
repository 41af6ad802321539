package store

import (
	"context"
	"io"
	"log/slog"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/kv"
	"github.com/roach88/jobstate/internal/persist"
	"github.com/roach88/jobstate/internal/state"
	"github.com/roach88/jobstate/internal/testutil"
)

const testKey = "job-search-state"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fixture struct {
	store   *Store
	storage *kv.Memory
	clock   *testutil.DeterministicClock
}

func newFixture(t *testing.T, cfg Config, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{
		storage: kv.NewMemory(),
		clock:   testutil.NewDeterministicClock(),
	}
	if cfg.Key == "" {
		cfg.Key = testKey
	}
	base := []Option{
		WithStorage(f.storage),
		WithClock(f.clock),
		WithIDs(testutil.NewSequentialIDs("job")),
		WithLogger(discardLogger()),
	}
	s, err := New(cfg, append(base, opts...)...)
	require.NoError(t, err)
	f.store = s
	return f
}

// recorder captures notifications.
type recorder struct {
	mu      sync.Mutex
	actions []action.Type
	states  []state.State
}

func (r *recorder) listen(s state.State, a action.Action) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = append(r.actions, a.Type)
	r.states = append(r.states, s)
}

func (r *recorder) types() []action.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]action.Type(nil), r.actions...)
}

func job(id, title string) state.Job {
	return state.Job{
		ID:           id,
		Title:        title,
		Status:       state.StatusDraft,
		CreatedAt:    testutil.Epoch,
		UpdatedAt:    testutil.Epoch,
		JobMaterials: []state.JobMaterial{},
		Uploads:      []state.UploadedFile{},
	}
}

func passthrough(raw map[string]any) (map[string]any, error) { return raw, nil }

// writeRaw stores a hand-written record under the fixture's key.
func writeRaw(t *testing.T, f *fixture, record string) {
	t.Helper()
	blob, err := persist.NewObfuscator(testKey).Encode([]byte(record))
	require.NoError(t, err)
	require.NoError(t, f.storage.Set(context.Background(), testKey, blob))
}

func nowMillis(f *fixture) string {
	return strconv.FormatInt(f.clock.Peek().UnixMilli(), 10)
}

// reload decodes whatever the fixture's storage currently holds.
func reload(t *testing.T, f *fixture) *persist.Loaded {
	t.Helper()
	blob, ok, err := f.storage.Get(context.Background(), testKey)
	require.NoError(t, err)
	require.True(t, ok)
	loaded, err := persist.Open(persist.NewObfuscator(testKey), blob)
	require.NoError(t, err)
	return loaded
}
