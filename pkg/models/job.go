package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
)

// ImportJob tracks an asynchronous deck import. The API returns a job_id on
// POST /api/v1/decks/import; the client polls GET /api/v1/decks/import/{job_id}
// until status is completed or failed.
//
// Result is set only when completed; Error only when failed.
type ImportJob struct {
	ID        uuid.UUID         `json:"id"`
	UserID    uuid.UUID         `json:"user_id"`
	Status    string            `json:"status"`
	Result    *DeckImportResult `json:"result,omitempty"`
	Error     string            `json:"error,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// IsTerminal reports whether the job has reached completed or failed.
func (j *ImportJob) IsTerminal() bool {
	return j.Status == JobStatusCompleted || j.Status == JobStatusFailed
}
