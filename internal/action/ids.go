package action

import (
	"time"

	"github.com/google/uuid"

	"github.com/roach88/jobstate/internal/clock"
	"github.com/roach88/jobstate/internal/state"
)

// IDGenerator produces fresh entity ids.
// Implemented by UUIDv7Generator (production) and testutil.SequentialIDs (tests).
type IDGenerator interface {
	NewID() string
}

// UUIDv7Generator generates time-sortable UUIDv7 ids.
//
// Thread-safety: UUIDv7Generator is stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// NewID returns a new hyphenated UUIDv7.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}

// NewJob builds a draft job with a fresh id and both timestamps set to now.
func NewJob(ids IDGenerator, clk clock.Clock, title, description string) state.Job {
	now := clk.Now()
	return state.Job{
		ID:           ids.NewID(),
		Title:        state.NormalizeText(title),
		Description:  description,
		Status:       state.StatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
		EditedDate:   now.Format(time.DateOnly),
		JobMaterials: []state.JobMaterial{},
		Uploads:      []state.UploadedFile{},
	}
}

// NewMaterial builds an active material for the given job.
func NewMaterial(ids IDGenerator, clk clock.Clock, jobID string, typ state.MaterialType, title string) state.JobMaterial {
	now := clk.Now()
	return state.JobMaterial{
		ID:        ids.NewID(),
		JobID:     jobID,
		Type:      typ,
		Title:     state.NormalizeText(title),
		Status:    state.MaterialActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// NewUpload builds an in-flight upload record.
func NewUpload(ids IDGenerator, clk clock.Clock, name string, size int64, mime string) state.UploadedFile {
	return state.UploadedFile{
		ID:         ids.NewID(),
		Name:       state.NormalizeText(name),
		Size:       size,
		Type:       mime,
		UploadedAt: clk.Now(),
		Status:     state.UploadUploading,
	}
}
