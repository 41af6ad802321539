package harness

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/kv"
	"github.com/roach88/jobstate/internal/persist"
	"github.com/roach88/jobstate/internal/state"
	"github.com/roach88/jobstate/internal/store"
	"github.com/roach88/jobstate/internal/testutil"
)

// Harness executes one scenario. Every store it opens shares the same
// storage, clock and id generator, so a reload sees what earlier steps wrote.
type Harness struct {
	scenario *Scenario
	storage  *kv.Memory
	clock    *testutil.DeterministicClock
	ids      *testutil.SequentialIDs
	logger   *slog.Logger
	cfg      store.Config

	store       *store.Store
	unsubscribe func()

	mu     sync.Mutex // guards result.Trace against listener writes
	result *Result
}

// Run executes a scenario and returns the result.
//
// Execution flow:
//  1. Write the seed record, if any, to fresh in-memory storage
//  2. Open and initialize a store
//  3. Dispatch setup actions
//  4. Execute flow steps, checking expect clauses
//  5. Evaluate assertions against the trace and the final state
//
// An error is returned only when the scenario could not be executed; failed
// expectations are reported in Result.Errors.
func Run(scenario *Scenario) (*Result, error) {
	h, err := newHarness(scenario)
	if err != nil {
		return nil, err
	}
	defer h.close()

	ctx := context.Background()
	if err := h.seed(ctx); err != nil {
		return nil, fmt.Errorf("failed to write seed: %w", err)
	}
	if err := h.open(ctx); err != nil {
		return nil, err
	}
	if err := h.executeSetup(ctx); err != nil {
		return nil, fmt.Errorf("failed to execute setup: %w", err)
	}
	if err := h.executeFlow(ctx); err != nil {
		return nil, fmt.Errorf("failed to execute flow: %w", err)
	}

	final, err := stateMap(h.store.GetState())
	if err != nil {
		return nil, err
	}
	h.result.State = final

	for _, msg := range EvaluateAssertions(h.result, scenario.Assertions) {
		h.result.AddError(msg)
	}
	return h.result, nil
}

func newHarness(scenario *Scenario) (*Harness, error) {
	cfg := store.Config{Key: scenario.Key}
	if scenario.MaxAge != "" {
		d, err := time.ParseDuration(scenario.MaxAge)
		if err != nil {
			return nil, fmt.Errorf("max_age: %w", err)
		}
		cfg.MaxAge = d
	}
	return &Harness{
		scenario: scenario,
		storage:  kv.NewMemory(),
		clock:    testutil.NewDeterministicClock(),
		ids:      testutil.NewSequentialIDs("id"),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)), // Suppress logs in tests
		cfg:      cfg,
		result:   NewResult(),
	}, nil
}

// open replaces the current store with a new one over the shared storage.
func (h *Harness) open(ctx context.Context) error {
	h.close()
	st, err := store.New(h.cfg,
		store.WithStorage(nopCloser{h.storage}),
		store.WithClock(h.clock),
		store.WithIDs(h.ids),
		store.WithLogger(h.logger),
	)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	h.store = st
	h.unsubscribe = st.Subscribe(h.record)
	st.Initialize(ctx)
	return nil
}

func (h *Harness) close() {
	if h.store == nil {
		return
	}
	h.unsubscribe()
	h.store.Close()
	h.store = nil
}

// record is the store listener.
func (h *Harness) record(_ state.State, a action.Action) {
	source, _ := a.MetaValue("source")
	src, _ := source.(string)
	h.mu.Lock()
	h.result.AddNotifyTrace(string(a.Type), src, seqOf(a))
	h.mu.Unlock()
}

func seqOf(a action.Action) int64 {
	v, _ := a.MetaValue(action.MetaSeq)
	n, _ := v.(int64)
	return n
}

// seed writes the scenario's raw record under the store key.
func (h *Harness) seed(ctx context.Context) error {
	sd := h.scenario.Seed
	if sd == nil {
		return nil
	}
	body, err := json.Marshal(sd.State)
	if err != nil {
		return fmt.Errorf("marshal seed state: %w", err)
	}
	written := h.clock.Peek()
	if sd.Age != "" {
		age, _ := time.ParseDuration(sd.Age)
		written = written.Add(-age)
	}
	rec, err := json.Marshal(persist.Record{
		State:     body,
		Version:   sd.Version,
		Timestamp: written.UnixMilli(),
	})
	if err != nil {
		return fmt.Errorf("marshal seed record: %w", err)
	}
	key := h.key()
	blob, err := persist.NewObfuscator(key).Encode(rec)
	if err != nil {
		return err
	}
	return h.storage.Set(ctx, key, blob)
}

func (h *Harness) key() string {
	if h.scenario.Key != "" {
		return h.scenario.Key
	}
	return store.DefaultKey
}

// executeSetup dispatches setup actions. Each must be applied.
func (h *Harness) executeSetup(ctx context.Context) error {
	for i, step := range h.scenario.Setup {
		res, err := h.dispatch(ctx, step.Type, step.Payload)
		if err != nil {
			return fmt.Errorf("setup step %d: %w", i, err)
		}
		if !res.OK() {
			return fmt.Errorf("setup step %d: %s was %s: %v", i, step.Type, res.Status, res.Err)
		}
		h.logger.Info("setup step completed", "step", i, "action", step.Type)
	}
	return nil
}

// executeFlow runs the flow steps and checks their expect clauses.
func (h *Harness) executeFlow(ctx context.Context) error {
	for i, step := range h.scenario.Flow {
		switch {
		case step.Dispatch != "":
			res, err := h.dispatch(ctx, step.Dispatch, step.Payload)
			if err != nil {
				return fmt.Errorf("flow step %d: %w", i, err)
			}
			want := store.StatusOK.String()
			if step.Expect != nil && step.Expect.Status != "" {
				want = step.Expect.Status
			}
			if got := res.Status.String(); got != want {
				h.result.AddError(fmt.Sprintf("flow[%d] %s: expected status %s, got %s (%v)",
					i, step.Dispatch, want, got, res.Err))
			}

		case step.Op != "":
			err := h.operate(ctx, step.Op)
			want := "none"
			if step.Expect != nil && step.Expect.Error != "" {
				want = step.Expect.Error
			}
			got := "none"
			if err != nil {
				got = string(store.CodeOf(err))
				if got == "" {
					got = err.Error()
				}
			}
			if got != want {
				h.result.AddError(fmt.Sprintf("flow[%d] %s: expected error %s, got %s", i, step.Op, want, got))
			}

		case step.Advance != "":
			d, _ := time.ParseDuration(step.Advance)
			h.clock.Advance(d)
		}
	}
	return nil
}

func (h *Harness) dispatch(ctx context.Context, typ string, payload any) (store.Result, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return store.Result{}, fmt.Errorf("marshal payload: %w", err)
	}
	a, err := action.Parse(action.Type(typ), raw)
	if err != nil {
		return store.Result{}, err
	}
	res := h.store.Dispatch(ctx, a)
	h.mu.Lock()
	h.result.AddDispatchTrace(typ, res.Status.String(), seqOf(res.Action))
	h.mu.Unlock()
	return res, nil
}

// operate runs a store-level operation. Returned errors are store errors
// the step may expect; setup failures of the harness itself are not
// distinguished.
func (h *Harness) operate(ctx context.Context, op string) error {
	switch op {
	case OpReload:
		if err := h.open(ctx); err != nil {
			return err
		}
		return h.store.Health().LoadErr
	case OpClear:
		return h.store.Clear(ctx)
	case OpExportImport:
		blob, err := h.store.Export(ctx)
		if err != nil {
			return err
		}
		return h.store.Import(ctx, blob)
	}
	return fmt.Errorf("unknown op %q", op)
}

// stateMap converts s to generic JSON values so assertions and golden files
// see exactly what a persisted record holds.
func stateMap(s state.State) (map[string]any, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal final state: %w", err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal final state: %w", err)
	}
	return m, nil
}

// nopCloser keeps the shared storage open when a store is replaced.
type nopCloser struct {
	kv.Storage
}

func (nopCloser) Close() error { return nil }
