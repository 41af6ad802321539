package binding

import "github.com/roach88/jobstate/internal/state"

// Jobs selects the job list.
func Jobs(s state.State) []state.Job { return s.Jobs }

// Loading selects ui.isLoading.
func Loading(s state.State) bool { return s.UI.IsLoading }

// Current selects the id of the current job, or "".
func Current(s state.State) string {
	if s.CurrentJob == nil {
		return ""
	}
	return s.CurrentJob.ID
}

// JobView is the result of JobByID.
type JobView struct {
	Job   state.Job
	Found bool
}

// JobByID selects one job.
func JobByID(id string) Selector[JobView] {
	return func(s state.State) JobView {
		j, ok := s.FindJob(id)
		return JobView{Job: j, Found: ok}
	}
}

// SameSlice reports whether a and b share the same backing array and length.
// The reducer rebuilds every touched slice, so this detects changes without
// comparing contents.
func SameSlice[E any](a, b []E) bool {
	if len(a) != len(b) {
		return false
	}
	return len(a) == 0 || &a[0] == &b[0]
}
