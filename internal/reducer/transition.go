package reducer

import (
	"slices"
	"time"

	"github.com/roach88/jobstate/internal/action"
	"github.com/roach88/jobstate/internal/state"
)

// transition carries one reduce step. next starts as a shallow copy of prev;
// handlers only ever assign freshly built slices into it.
type transition struct {
	prev state.State
	next state.State
	now  time.Time

	// currentTouched is set when the job behind CurrentJob may have changed.
	currentTouched bool
}

func (t *transition) apply(a action.Action) Outcome {
	switch a.Type {
	case action.TypeSetJobs:
		jobs, ok := a.Payload.([]state.Job)
		if !ok {
			return Invalid
		}
		return t.setJobs(jobs)

	case action.TypeAddJob:
		job, ok := a.Payload.(state.Job)
		if !ok {
			return Invalid
		}
		return t.addJob(job)

	case action.TypeUpdateJob:
		p, ok := a.Payload.(action.JobUpdate)
		if !ok {
			return Invalid
		}
		return t.updateJob(p.ID, func(j state.Job) (state.Job, Outcome) {
			return p.Patch.Apply(j), Applied
		})

	case action.TypeDeleteJob:
		id, ok := a.Payload.(string)
		if !ok {
			return Invalid
		}
		return t.deleteJob(id)

	case action.TypeSetCurrentJob:
		job, ok := a.Payload.(*state.Job)
		if !ok && a.Payload != nil {
			return Invalid
		}
		return t.setCurrent(job)

	case action.TypeAddJobMaterial:
		p, ok := a.Payload.(action.MaterialAdd)
		if !ok {
			return Invalid
		}
		return t.updateJob(p.JobID, func(j state.Job) (state.Job, Outcome) {
			return t.addMaterial(j, p.Material), Applied
		})

	case action.TypeUpdateJobMaterial:
		p, ok := a.Payload.(action.MaterialUpdate)
		if !ok {
			return Invalid
		}
		return t.updateJob(p.JobID, func(j state.Job) (state.Job, Outcome) {
			i := j.MaterialIndex(p.MaterialID)
			if i < 0 {
				return j, NotFound
			}
			m := p.Patch.Apply(j.JobMaterials[i])
			m.UpdatedAt = t.now
			j.JobMaterials = replaceAt(j.JobMaterials, i, m)
			return j, Applied
		})

	case action.TypeAddUploadedFiles:
		p, ok := a.Payload.(action.UploadAdd)
		if !ok {
			return Invalid
		}
		return t.updateJob(p.JobID, func(j state.Job) (state.Job, Outcome) {
			return t.addUploads(j, p.Files), Applied
		})

	case action.TypeUpdateUploadedFile:
		p, ok := a.Payload.(action.UploadUpdate)
		if !ok {
			return Invalid
		}
		return t.updateJob(p.JobID, func(j state.Job) (state.Job, Outcome) {
			i := j.UploadIndex(p.FileID)
			if i < 0 {
				return j, NotFound
			}
			j.Uploads = replaceAt(j.Uploads, i, p.Patch.Apply(j.Uploads[i]))
			return j, Applied
		})

	case action.TypeRemoveUploadedFile:
		p, ok := a.Payload.(action.UploadRemove)
		if !ok {
			return Invalid
		}
		return t.updateJob(p.JobID, func(j state.Job) (state.Job, Outcome) {
			if j.UploadIndex(p.FileID) < 0 {
				return j, NotFound
			}
			j.Uploads = slices.DeleteFunc(slices.Clone(j.Uploads), func(f state.UploadedFile) bool {
				return f.ID == p.FileID
			})
			return j, Applied
		})

	case action.TypeSetLoading:
		loading, ok := a.Payload.(bool)
		if !ok {
			return Invalid
		}
		t.next.UI.IsLoading = loading
		return Applied
	}

	return Ignored
}

// setJobs replaces the collection. Duplicate ids collapse onto the first
// position with the value of the last occurrence.
func (t *transition) setJobs(jobs []state.Job) Outcome {
	out := state.CollapseByID(jobs, func(j state.Job) string { return j.ID })
	if out == nil {
		out = []state.Job{}
	}
	for i := range out {
		out[i] = t.withDefaults(out[i])
	}
	t.next.Jobs = out
	t.currentTouched = true
	return Applied
}

// addJob inserts job, or merges it into the existing entry with the same id.
func (t *transition) addJob(job state.Job) Outcome {
	i := state.IndexOf(t.prev.Jobs, job.ID)
	if i < 0 {
		t.next.Jobs = append(slices.Clone(t.prev.Jobs), t.withDefaults(job))
		return Applied
	}
	merged := mergeJob(t.prev.Jobs[i], job)
	merged.UpdatedAt = t.now
	t.next.Jobs = replaceAt(t.prev.Jobs, i, merged)
	t.touch(job.ID)
	return Applied
}

// updateJob locates a job by id and replaces it with fn's result.
// The job's updatedAt is refreshed whenever fn reports Applied.
func (t *transition) updateJob(id string, fn func(state.Job) (state.Job, Outcome)) Outcome {
	i := state.IndexOf(t.prev.Jobs, id)
	if i < 0 {
		return NotFound
	}
	job, outcome := fn(t.prev.Jobs[i])
	if outcome != Applied {
		return outcome
	}
	job.UpdatedAt = t.now
	t.next.Jobs = replaceAt(t.prev.Jobs, i, job)
	t.touch(id)
	return Applied
}

func (t *transition) deleteJob(id string) Outcome {
	if state.IndexOf(t.prev.Jobs, id) < 0 {
		return NotFound
	}
	t.next.Jobs = slices.DeleteFunc(slices.Clone(t.prev.Jobs), func(j state.Job) bool {
		return j.ID == id
	})
	t.touch(id)
	return Applied
}

func (t *transition) setCurrent(job *state.Job) Outcome {
	if job == nil {
		t.next.CurrentJob = nil
		return Applied
	}
	i := state.IndexOf(t.prev.Jobs, job.ID)
	if i < 0 {
		return NotFound
	}
	cp := t.prev.Jobs[i]
	t.next.CurrentJob = &cp
	return Applied
}

func (t *transition) addMaterial(j state.Job, m state.JobMaterial) state.Job {
	m.JobID = j.ID
	if m.Status == "" {
		m.Status = state.MaterialActive
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = t.now
	}
	m.UpdatedAt = t.now

	if i := j.MaterialIndex(m.ID); i >= 0 {
		j.JobMaterials = replaceAt(j.JobMaterials, i, m)
	} else {
		j.JobMaterials = append(slices.Clone(j.JobMaterials), m)
	}
	j.DocumentsCount = len(j.JobMaterials)
	return j
}

// addUploads appends files whose id is not yet attached (including ids
// repeated inside files itself).
func (t *transition) addUploads(j state.Job, files []state.UploadedFile) state.Job {
	uploads := slices.Clone(j.Uploads)
	if uploads == nil {
		uploads = []state.UploadedFile{}
	}
	for _, f := range files {
		if slices.ContainsFunc(uploads, func(u state.UploadedFile) bool { return u.ID == f.ID }) {
			continue
		}
		if f.UploadedAt.IsZero() {
			f.UploadedAt = t.now
		}
		if f.Status == "" {
			f.Status = state.UploadCompleted
		}
		uploads = append(uploads, f)
	}
	j.Uploads = uploads
	return j
}

// withDefaults fills fields a freshly inserted job must carry and collapses
// duplicate child ids. The result shares no child slice with j.
func (t *transition) withDefaults(j state.Job) state.Job {
	j = j.WithUniqueChildren()
	if j.Status == "" {
		j.Status = state.StatusDraft
	}
	if j.CreatedAt.IsZero() {
		j.CreatedAt = t.now
	}
	if j.UpdatedAt.IsZero() {
		j.UpdatedAt = t.now
	}
	if j.JobMaterials == nil {
		j.JobMaterials = []state.JobMaterial{}
	}
	if j.Uploads == nil {
		j.Uploads = []state.UploadedFile{}
	}
	return j
}

func (t *transition) touch(id string) {
	if t.prev.CurrentJob != nil && t.prev.CurrentJob.ID == id {
		t.currentTouched = true
	}
}

// refreshCurrent re-derives CurrentJob from Jobs when the job behind it
// changed, clearing it when that job is gone.
func (t *transition) refreshCurrent() {
	if !t.currentTouched || t.next.CurrentJob == nil {
		return
	}
	i := state.IndexOf(t.next.Jobs, t.next.CurrentJob.ID)
	if i < 0 {
		t.next.CurrentJob = nil
		return
	}
	cp := t.next.Jobs[i]
	t.next.CurrentJob = &cp
}

// mergeJob shallow-merges the non-zero fields of in over base.
func mergeJob(base, in state.Job) state.Job {
	if in.Title != "" {
		base.Title = in.Title
	}
	if in.Description != "" {
		base.Description = in.Description
	}
	if in.Status != "" {
		base.Status = in.Status
	}
	if in.EditedDate != "" {
		base.EditedDate = in.EditedDate
	}
	in = in.WithUniqueChildren()
	if len(in.JobMaterials) > 0 {
		base.JobMaterials = in.JobMaterials
	}
	if len(in.Uploads) > 0 {
		base.Uploads = in.Uploads
	}
	if in.SessionsCount != 0 {
		base.SessionsCount = in.SessionsCount
	}
	if in.DocumentsCount != 0 {
		base.DocumentsCount = in.DocumentsCount
	}
	return base
}

// replaceAt returns a copy of s with s[i] replaced by v.
func replaceAt[T any](s []T, i int, v T) []T {
	out := slices.Clone(s)
	out[i] = v
	return out
}
