package async

import (
	"context"

	"github.com/roach88/jobstate/internal/state"
)

// JobSource supplies the initial job list.
type JobSource interface {
	FetchJobs(ctx context.Context) ([]state.Job, error)
}

// Generated is the content produced for one material.
type Generated struct {
	Title       string
	Description string
	Files       []string
}

// MaterialGenerator produces AI-generated content for a job.
type MaterialGenerator interface {
	Generate(ctx context.Context, job state.Job, typ state.MaterialType) (Generated, error)
}

// FileSpec describes a file to upload.
type FileSpec struct {
	Name string
	Size int64
	Type string // MIME type
}

// Uploaded is the uploader's receipt for one file.
type Uploaded struct {
	URL string
}

// Uploader transfers one file for a job.
type Uploader interface {
	Upload(ctx context.Context, jobID string, f FileSpec) (Uploaded, error)
}

// TokenSource supplies the access token collaborators authenticate with.
// The store never holds credentials; the token only travels in the context.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

type tokenKey struct{}

// WithToken returns a context carrying an access token.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

// TokenFrom returns the access token placed by WithToken.
func TokenFrom(ctx context.Context) (string, bool) {
	tok, ok := ctx.Value(tokenKey{}).(string)
	return tok, ok && tok != ""
}
