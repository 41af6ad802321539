package state

import "time"

// Status is the lifecycle status of a Job.
type Status string

const (
	StatusActive   Status = "active"
	StatusDraft    Status = "draft"
	StatusArchived Status = "archived"
)

// Valid reports whether s is a known job status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusDraft, StatusArchived:
		return true
	}
	return false
}

// MaterialType is the closed set of work products a job can hold.
type MaterialType string

const (
	MaterialATSOptimizer       MaterialType = "ats-optimizer"
	MaterialCVRewriter         MaterialType = "cv-rewriter"
	MaterialCoverLetter        MaterialType = "cover-letter-specialist"
	MaterialInterviewCopilot   MaterialType = "interview-copilot"
	MaterialInterviewPrepAgent MaterialType = "interview-prep-agent"
	MaterialNotes              MaterialType = "notes"
	MaterialResearch           MaterialType = "research"
)

// MaterialTypes lists every MaterialType in display order.
var MaterialTypes = []MaterialType{
	MaterialATSOptimizer,
	MaterialCVRewriter,
	MaterialCoverLetter,
	MaterialInterviewCopilot,
	MaterialInterviewPrepAgent,
	MaterialNotes,
	MaterialResearch,
}

// Valid reports whether t is a known material type.
func (t MaterialType) Valid() bool {
	for _, known := range MaterialTypes {
		if t == known {
			return true
		}
	}
	return false
}

// MaterialStatus is the processing status of a JobMaterial.
type MaterialStatus string

const (
	MaterialActive     MaterialStatus = "active"
	MaterialProcessing MaterialStatus = "processing"
	MaterialCompleted  MaterialStatus = "completed"
	MaterialError      MaterialStatus = "error"
)

// Valid reports whether s is a known material status.
func (s MaterialStatus) Valid() bool {
	switch s {
	case MaterialActive, MaterialProcessing, MaterialCompleted, MaterialError:
		return true
	}
	return false
}

// UploadStatus is the transfer status of an UploadedFile.
type UploadStatus string

const (
	UploadUploading UploadStatus = "uploading"
	UploadCompleted UploadStatus = "completed"
	UploadError     UploadStatus = "error"
)

// Valid reports whether s is a known upload status.
func (s UploadStatus) Valid() bool {
	switch s {
	case UploadUploading, UploadCompleted, UploadError:
		return true
	}
	return false
}

// Job is one job-search engagement.
type Job struct {
	ID             string         `json:"id" validate:"required"`
	Title          string         `json:"title" validate:"required"`
	Description    string         `json:"description"`
	Status         Status         `json:"status" validate:"omitempty,oneof=active draft archived"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	EditedDate     string         `json:"editedDate"`
	JobMaterials   []JobMaterial  `json:"jobMaterials" validate:"dive"`
	Uploads        []UploadedFile `json:"uploads" validate:"dive"`
	SessionsCount  int            `json:"sessions_count" validate:"gte=0"`
	DocumentsCount int            `json:"documents_count" validate:"gte=0"`
}

// JobMaterial is a generated work product scoped to one job.
// JobID is a back-reference only; ownership is by inclusion in Job.JobMaterials.
type JobMaterial struct {
	ID           string         `json:"id" validate:"required"`
	JobID        string         `json:"jobId"`
	Type         MaterialType   `json:"type" validate:"required,oneof=ats-optimizer cv-rewriter cover-letter-specialist interview-copilot interview-prep-agent notes research"`
	Title        string         `json:"title" validate:"required"`
	Description  string         `json:"description,omitempty"`
	Status       MaterialStatus `json:"status" validate:"omitempty,oneof=active processing completed error"`
	CreatedAt    time.Time      `json:"createdAt"`
	UpdatedAt    time.Time      `json:"updatedAt"`
	AIProcessing bool           `json:"aiProcessing,omitempty"`
	Files        []string       `json:"files"`
}

// UploadedFile is a file attached to a job.
type UploadedFile struct {
	ID         string       `json:"id" validate:"required"`
	Name       string       `json:"name" validate:"required"`
	Size       int64        `json:"size" validate:"gte=0"`
	Type       string       `json:"type"` // MIME type
	UploadedAt time.Time    `json:"uploadedAt"`
	Status     UploadStatus `json:"status" validate:"omitempty,oneof=uploading completed error"`
	URL        string       `json:"url,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// UI holds transient feedback fields. Never authoritative for business logic.
type UI struct {
	IsLoading   bool      `json:"isLoading"`
	LastUpdated time.Time `json:"lastUpdated"`
}
