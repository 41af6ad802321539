package action

import (
	"slices"

	"github.com/roach88/jobstate/internal/state"
)

// SetJobs replaces the whole job collection.
func SetJobs(jobs []state.Job) Action {
	return Action{Type: TypeSetJobs, Payload: slices.Clone(jobs)}
}

// AddJob inserts job, or merges it into an existing job with the same id.
func AddJob(job state.Job) Action {
	job.Title = state.NormalizeText(job.Title)
	return Action{Type: TypeAddJob, Payload: job}
}

// UpdateJob shallow-merges patch into the job with the given id.
func UpdateJob(id string, patch JobPatch) Action {
	return Action{Type: TypeUpdateJob, Payload: JobUpdate{ID: id, Patch: patch}}
}

// DeleteJob removes the job with the given id.
func DeleteJob(id string) Action {
	return Action{Type: TypeDeleteJob, Payload: id}
}

// SetCurrentJob focuses job. A nil job clears the focus.
func SetCurrentJob(job *state.Job) Action {
	if job != nil {
		cp := job.Clone()
		job = &cp
	}
	return Action{Type: TypeSetCurrentJob, Payload: job}
}

// AddJobMaterial appends material to the job with the given id.
func AddJobMaterial(jobID string, material state.JobMaterial) Action {
	material.Title = state.NormalizeText(material.Title)
	return Action{Type: TypeAddJobMaterial, Payload: MaterialAdd{JobID: jobID, Material: material}}
}

// UpdateJobMaterial merges patch into one material of a job.
func UpdateJobMaterial(jobID, materialID string, patch MaterialPatch) Action {
	return Action{Type: TypeUpdateJobMaterial, Payload: MaterialUpdate{JobID: jobID, MaterialID: materialID, Patch: patch}}
}

// AddUploadedFiles attaches files to a job. Files whose id is already
// attached are skipped by the reducer.
func AddUploadedFiles(jobID string, files ...state.UploadedFile) Action {
	return Action{Type: TypeAddUploadedFiles, Payload: UploadAdd{JobID: jobID, Files: slices.Clone(files)}}
}

// UpdateUploadedFile merges patch into one upload of a job.
func UpdateUploadedFile(jobID, fileID string, patch UploadPatch) Action {
	return Action{Type: TypeUpdateUploadedFile, Payload: UploadUpdate{JobID: jobID, FileID: fileID, Patch: patch}}
}

// RemoveUploadedFile detaches one upload from a job.
func RemoveUploadedFile(jobID, fileID string) Action {
	return Action{Type: TypeRemoveUploadedFile, Payload: UploadRemove{JobID: jobID, FileID: fileID}}
}

// SetLoading sets ui.isLoading.
func SetLoading(loading bool) Action {
	return Action{Type: TypeSetLoading, Payload: loading}
}

// Phase is the stage of an asynchronous flow.
type Phase string

const (
	PhasePending   Phase = "pending"
	PhaseFulfilled Phase = "fulfilled"
	PhaseRejected  Phase = "rejected"
)

// Async builds a marker action for an asynchronous flow, e.g.
// "async/jobs.load/pending". The reducer treats markers as unknown types.
func Async(name string, phase Phase) Action {
	a := Action{Type: Type(AsyncPrefix + name + "/" + string(phase))}
	return a.WithMeta(MetaAsync, name)
}

// AsyncError builds a rejected marker carrying the failure message.
func AsyncError(name string, err error) Action {
	a := Async(name, PhaseRejected)
	if err != nil {
		a.Payload = err.Error()
	}
	return a
}

// Reset is emitted by the store when it returns to the default state.
func Reset() Action {
	return Action{Type: TypeReset}
}

// Hydrate is emitted by the store after accepting loaded or imported state.
func Hydrate() Action {
	return Action{Type: TypeHydrate}
}
