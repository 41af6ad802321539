// Package action defines the only input the store accepts: a tagged value
// describing an intended state change, plus the creators that build them.
package action

import (
	"maps"
	"strings"
)

// Type is an action type tag.
type Type string

const (
	TypeSetJobs       Type = "jobs/set"
	TypeAddJob        Type = "jobs/add"
	TypeUpdateJob     Type = "jobs/update"
	TypeDeleteJob     Type = "jobs/delete"
	TypeSetCurrentJob Type = "jobs/setCurrent"

	TypeAddJobMaterial    Type = "materials/add"
	TypeUpdateJobMaterial Type = "materials/update"

	TypeAddUploadedFiles   Type = "uploads/add"
	TypeUpdateUploadedFile Type = "uploads/update"
	TypeRemoveUploadedFile Type = "uploads/remove"

	TypeSetLoading Type = "ui/setLoading"

	// Emitted by the store itself, never by consumers.
	TypeReset   Type = "store/reset"
	TypeHydrate Type = "store/hydrate"
)

// AsyncPrefix is reserved for markers emitted by asynchronous flows.
const AsyncPrefix = "async/"

// Meta keys written by the standard middleware chain and the store.
const (
	MetaAsync        = "async"
	MetaDispatchedAt = "dispatchedAt"
	MetaPersisted    = "persisted"
	MetaSeq          = "seq"
)

// Action is a tagged state-change request.
type Action struct {
	Type    Type           `json:"type"`
	Payload any            `json:"payload,omitempty"`
	Meta    map[string]any `json:"meta,omitempty"`
}

// IsAsync reports whether the action carries the reserved async prefix.
func (a Action) IsAsync() bool {
	return strings.HasPrefix(string(a.Type), AsyncPrefix)
}

// WithMeta returns a copy of a with key set in its meta. The receiver's meta
// map is never written, so middlewares can annotate without aliasing.
func (a Action) WithMeta(key string, value any) Action {
	meta := make(map[string]any, len(a.Meta)+1)
	maps.Copy(meta, a.Meta)
	meta[key] = value
	a.Meta = meta
	return a
}

// MetaValue returns the meta value for key, if present.
func (a Action) MetaValue(key string) (any, bool) {
	v, ok := a.Meta[key]
	return v, ok
}
