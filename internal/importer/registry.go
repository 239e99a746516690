package importer

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// DefaultRetention is how long a job stays queryable after its last update.
const DefaultRetention = 30 * time.Minute

var (
	ErrJobNotFound       = errors.New("import job not found")
	ErrInvalidTransition = errors.New("invalid job status transition")
)

var validTransitions = map[string][]string{
	models.JobStatusQueued:     {models.JobStatusProcessing},
	models.JobStatusProcessing: {models.JobStatusCompleted, models.JobStatusFailed},
}

type transitionParams struct {
	result   *models.DeckImportResult
	errorMsg *string
}

type TransitionOption func(*transitionParams)

func WithResult(r models.DeckImportResult) TransitionOption {
	return func(p *transitionParams) {
		p.result = &r
	}
}

func WithErrorMessage(msg string) TransitionOption {
	return func(p *transitionParams) {
		p.errorMsg = &msg
	}
}

// Registry is the in-memory job table. It is safe for concurrent use and
// hands out copies, so callers never share a record with the orchestrator.
// Expired jobs are evicted lazily on Create and Get.
type Registry struct {
	mu        sync.Mutex
	jobs      map[uuid.UUID]*models.ImportJob
	retention time.Duration
	now       func() time.Time
}

// NewRegistry creates a Registry. A nil clock defaults to time.Now.
func NewRegistry(retention time.Duration, now func() time.Time) *Registry {
	if retention <= 0 {
		retention = DefaultRetention
	}
	if now == nil {
		now = time.Now
	}
	return &Registry{
		jobs:      make(map[uuid.UUID]*models.ImportJob),
		retention: retention,
		now:       now,
	}
}

// Create allocates a queued job owned by userID.
func (r *Registry) Create(userID uuid.UUID) models.ImportJob {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	r.evictLocked(now)

	job := &models.ImportJob{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    models.JobStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.jobs[job.ID] = job
	return copyJob(job)
}

// Get returns a snapshot of the job, or ErrJobNotFound if it is absent or expired.
func (r *Registry) Get(id uuid.UUID) (models.ImportJob, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.evictLocked(r.now().UTC())

	job, ok := r.jobs[id]
	if !ok {
		return models.ImportJob{}, ErrJobNotFound
	}
	return copyJob(job), nil
}

// Transition moves a job to status. Only queued→processing and
// processing→completed|failed are allowed.
func (r *Registry) Transition(id uuid.UUID, status string, opts ...TransitionOption) (models.ImportJob, error) {
	params := &transitionParams{}
	for _, opt := range opts {
		opt(params)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return models.ImportJob{}, ErrJobNotFound
	}

	if !canTransition(job.Status, status) {
		return models.ImportJob{}, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, job.Status, status)
	}

	job.Status = status
	job.UpdatedAt = r.now().UTC()
	if params.result != nil {
		job.Result = params.result
	}
	if params.errorMsg != nil {
		job.Error = *params.errorMsg
	}
	return copyJob(job), nil
}

// Len reports the number of records currently held, expired or not.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.jobs)
}

func (r *Registry) evictLocked(now time.Time) {
	for id, job := range r.jobs {
		if now.Sub(job.UpdatedAt) > r.retention {
			delete(r.jobs, id)
		}
	}
}

func canTransition(from, to string) bool {
	for _, allowed := range validTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func copyJob(j *models.ImportJob) models.ImportJob {
	out := *j
	if j.Result != nil {
		res := *j.Result
		res.Cards = make([]models.FlashcardDraft, len(j.Result.Cards))
		copy(res.Cards, j.Result.Cards)
		res.Warnings = make([]string, len(j.Result.Warnings))
		copy(res.Warnings, j.Result.Warnings)
		out.Result = &res
	}
	return out
}
