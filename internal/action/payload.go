package action

import (
	"time"

	"github.com/roach88/jobstate/internal/state"
)

// JobPatch is a partial Job update. Nil fields are left unchanged.
type JobPatch struct {
	Title          *string       `json:"title,omitempty" validate:"omitempty,min=1"`
	Description    *string       `json:"description,omitempty"`
	Status         *state.Status `json:"status,omitempty" validate:"omitempty,oneof=active draft archived"`
	EditedDate     *string       `json:"editedDate,omitempty"`
	SessionsCount  *int          `json:"sessions_count,omitempty" validate:"omitempty,gte=0"`
	DocumentsCount *int          `json:"documents_count,omitempty" validate:"omitempty,gte=0"`
}

// Apply merges p into j and returns the result.
func (p JobPatch) Apply(j state.Job) state.Job {
	if p.Title != nil {
		j.Title = state.NormalizeText(*p.Title)
	}
	if p.Description != nil {
		j.Description = *p.Description
	}
	if p.Status != nil {
		j.Status = *p.Status
	}
	if p.EditedDate != nil {
		j.EditedDate = *p.EditedDate
	}
	if p.SessionsCount != nil {
		j.SessionsCount = *p.SessionsCount
	}
	if p.DocumentsCount != nil {
		j.DocumentsCount = *p.DocumentsCount
	}
	return j
}

// MaterialPatch is a partial JobMaterial update.
type MaterialPatch struct {
	Title        *string               `json:"title,omitempty" validate:"omitempty,min=1"`
	Description  *string               `json:"description,omitempty"`
	Status       *state.MaterialStatus `json:"status,omitempty" validate:"omitempty,oneof=active processing completed error"`
	AIProcessing *bool                 `json:"aiProcessing,omitempty"`
	Files        []string              `json:"files,omitempty"`
}

// Apply merges p into m and returns the result.
func (p MaterialPatch) Apply(m state.JobMaterial) state.JobMaterial {
	if p.Title != nil {
		m.Title = state.NormalizeText(*p.Title)
	}
	if p.Description != nil {
		m.Description = *p.Description
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.AIProcessing != nil {
		m.AIProcessing = *p.AIProcessing
	}
	if p.Files != nil {
		m.Files = append([]string(nil), p.Files...)
	}
	return m
}

// UploadPatch is a partial UploadedFile update.
type UploadPatch struct {
	Status *state.UploadStatus `json:"status,omitempty" validate:"omitempty,oneof=uploading completed error"`
	URL    *string             `json:"url,omitempty"`
	Error  *string             `json:"error,omitempty"`
	Size   *int64              `json:"size,omitempty" validate:"omitempty,gte=0"`
}

// Apply merges p into f and returns the result.
func (p UploadPatch) Apply(f state.UploadedFile) state.UploadedFile {
	if p.Status != nil {
		f.Status = *p.Status
	}
	if p.URL != nil {
		f.URL = *p.URL
	}
	if p.Error != nil {
		f.Error = *p.Error
	}
	if p.Size != nil {
		f.Size = *p.Size
	}
	return f
}

// JobUpdate is the payload of jobs/update.
type JobUpdate struct {
	ID    string   `json:"id" validate:"required"`
	Patch JobPatch `json:"updates"`
}

// MaterialAdd is the payload of materials/add.
type MaterialAdd struct {
	JobID    string            `json:"jobId" validate:"required"`
	Material state.JobMaterial `json:"material"`
}

// MaterialUpdate is the payload of materials/update.
type MaterialUpdate struct {
	JobID      string        `json:"jobId" validate:"required"`
	MaterialID string        `json:"materialId" validate:"required"`
	Patch      MaterialPatch `json:"updates"`
}

// UploadAdd is the payload of uploads/add.
type UploadAdd struct {
	JobID string               `json:"jobId" validate:"required"`
	Files []state.UploadedFile `json:"files" validate:"required,min=1,dive"`
}

// UploadUpdate is the payload of uploads/update.
type UploadUpdate struct {
	JobID  string      `json:"jobId" validate:"required"`
	FileID string      `json:"fileId" validate:"required"`
	Patch  UploadPatch `json:"updates"`
}

// UploadRemove is the payload of uploads/remove.
type UploadRemove struct {
	JobID  string `json:"jobId" validate:"required"`
	FileID string `json:"fileId" validate:"required"`
}

// Ptr returns a pointer to v. Handy for building patches.
func Ptr[T any](v T) *T {
	return &v
}

// StampedAt returns the dispatchedAt meta value written by the persistence
// annotator, or the zero time.
func (a Action) StampedAt() time.Time {
	v, ok := a.Meta[MetaDispatchedAt]
	if !ok {
		return time.Time{}
	}
	t, _ := v.(time.Time)
	return t
}
