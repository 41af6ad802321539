package harness

// Trace event kinds.
const (
	// KindDispatch is recorded for every Dispatch, vetoed ones included.
	KindDispatch = "dispatch"
	// KindNotify is recorded for every listener notification.
	KindNotify = "notify"
)

// TraceEvent is one dispatch outcome or one listener notification.
type TraceEvent struct {
	Kind   string `json:"kind"`
	Action string `json:"action"`
	Status string `json:"status,omitempty"` // dispatch only
	Seq    int64  `json:"seq,omitempty"`
	Source string `json:"source,omitempty"` // store/hydrate only: load or import
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expect clause and assertion matched.
	Pass bool `json:"pass"`

	// Trace contains dispatch outcomes and notifications in order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains validation error messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the final state as generic JSON, for assertions and golden
	// comparison.
	State map[string]any `json:"state,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddDispatchTrace records a dispatch outcome.
func (r *Result) AddDispatchTrace(actionType, status string, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{Kind: KindDispatch, Action: actionType, Status: status, Seq: seq})
}

// AddNotifyTrace records a listener notification.
func (r *Result) AddNotifyTrace(actionType, source string, seq int64) {
	r.Trace = append(r.Trace, TraceEvent{Kind: KindNotify, Action: actionType, Source: source, Seq: seq})
}
