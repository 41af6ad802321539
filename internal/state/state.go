package state

import (
	"slices"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// State is the root aggregate held by the store.
type State struct {
	Jobs       []Job  `json:"jobs"`
	CurrentJob *Job   `json:"currentJob"`
	UI         UI     `json:"ui"`
	Version    string `json:"version"`
}

// Default returns the initial state for the given schema version.
func Default(version string) State {
	return State{
		Jobs:       []Job{},
		CurrentJob: nil,
		UI:         UI{IsLoading: false},
		Version:    version,
	}
}

// Clone returns a deep copy of s. No slice or pointer is shared with s.
func (s State) Clone() State {
	out := s
	if s.Jobs != nil {
		out.Jobs = make([]Job, len(s.Jobs))
		for i, j := range s.Jobs {
			out.Jobs[i] = j.Clone()
		}
	}
	if s.CurrentJob != nil {
		cj := s.CurrentJob.Clone()
		out.CurrentJob = &cj
	}
	return out
}

// Clone returns a deep copy of j.
func (j Job) Clone() Job {
	out := j
	if j.JobMaterials != nil {
		out.JobMaterials = make([]JobMaterial, len(j.JobMaterials))
		for i, m := range j.JobMaterials {
			out.JobMaterials[i] = m.Clone()
		}
	}
	out.Uploads = slices.Clone(j.Uploads)
	return out
}

// Clone returns a deep copy of m.
func (m JobMaterial) Clone() JobMaterial {
	out := m
	out.Files = slices.Clone(m.Files)
	return out
}

// IndexOf returns the index of the job with the given id, or -1.
func IndexOf(jobs []Job, id string) int {
	return slices.IndexFunc(jobs, func(j Job) bool { return j.ID == id })
}

// FindJob returns the job with the given id.
func (s State) FindJob(id string) (Job, bool) {
	i := IndexOf(s.Jobs, id)
	if i < 0 {
		return Job{}, false
	}
	return s.Jobs[i], true
}

// MaterialIndex returns the index of the material with the given id, or -1.
func (j Job) MaterialIndex(id string) int {
	return slices.IndexFunc(j.JobMaterials, func(m JobMaterial) bool { return m.ID == id })
}

// UploadIndex returns the index of the upload with the given id, or -1.
func (j Job) UploadIndex(id string) int {
	return slices.IndexFunc(j.Uploads, func(f UploadedFile) bool { return f.ID == id })
}

// CollapseByID returns a new slice in which duplicate ids collapse onto the
// first position with the value of the last occurrence. The input is not
// modified and never shared with the result.
func CollapseByID[T any](items []T, id func(T) string) []T {
	if items == nil {
		return nil
	}
	out := make([]T, 0, len(items))
	pos := make(map[string]int, len(items))
	for _, it := range items {
		k := id(it)
		if i, seen := pos[k]; seen {
			out[i] = it
			continue
		}
		pos[k] = len(out)
		out = append(out, it)
	}
	return out
}

// WithUniqueChildren returns j with duplicate material and upload ids
// collapsed. The result shares no child slice with j.
func (j Job) WithUniqueChildren() Job {
	j = j.Clone()
	j.JobMaterials = CollapseByID(j.JobMaterials, func(m JobMaterial) string { return m.ID })
	j.Uploads = CollapseByID(j.Uploads, func(f UploadedFile) string { return f.ID })
	return j
}

// Unique returns s with duplicate job ids collapsed and every job's
// children made unique. currentJob is left as is.
func (s State) Unique() State {
	jobs := CollapseByID(s.Jobs, func(j Job) string { return j.ID })
	for i := range jobs {
		jobs[i] = jobs[i].WithUniqueChildren()
	}
	s.Jobs = jobs
	return s
}

// NormalizeText trims s and converts it to Unicode NFC so that visually
// identical titles compare equal regardless of how they were typed.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}
