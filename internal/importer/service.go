package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/internal/cache"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
	"github.com/kiranshivaraju/flashdeck/pkg/prompt"
)

const (
	DefaultDeckName = "Untitled Deck"

	msgImportFailed = "Import failed."
)

var ErrJobForbidden = errors.New("import job belongs to another user")

// ValidationError is returned by StartImport when the submitted text is unusable.
// No job is created in that case.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "invalid import text: " + strings.Join(e.Errors, " ")
}

// ImportRequest is the body of an import submission. Text is untyped so that
// non-string JSON values reach the validator instead of failing decoding.
type ImportRequest struct {
	Text        any
	Name        string
	Description string
}

// Options tunes a Service. Zero values fall back to defaults.
type Options struct {
	MaxCards  int
	Timeout   time.Duration
	Retention time.Duration
}

// Service orchestrates deck imports: validate, prompt, generate, normalize.
type Service struct {
	registry  *Registry
	generator models.FlashcardGenerator
	cache     cache.Cache
	maxCards  int
	timeout   time.Duration
	retention time.Duration

	wg sync.WaitGroup
}

// NewService creates a new Service.
func NewService(reg *Registry, gen models.FlashcardGenerator, ca cache.Cache, opts Options) *Service {
	if ca == nil {
		ca = cache.NopCache{}
	}
	if opts.MaxCards <= 0 {
		opts.MaxCards = prompt.DefaultMaxCards
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	if opts.Retention <= 0 {
		opts.Retention = DefaultRetention
	}
	return &Service{
		registry:  reg,
		generator: gen,
		cache:     ca,
		maxCards:  opts.MaxCards,
		timeout:   opts.Timeout,
		retention: opts.Retention,
	}
}

// StartImport validates the request, registers a job and runs the pipeline in a
// background goroutine. The returned snapshot is always in the queued state.
func (s *Service) StartImport(ctx context.Context, userID uuid.UUID, req ImportRequest) (models.ImportJob, error) {
	v := ValidateText(req.Text)
	if !v.OK {
		return models.ImportJob{}, &ValidationError{Errors: v.Errors}
	}

	job := s.registry.Create(userID)
	s.mirrorStatus(ctx, job.ID, job.Status)

	// The job leaves queued before StartImport returns, so a poll never observes
	// it going backwards.
	if _, err := s.registry.Transition(job.ID, models.JobStatusProcessing); err != nil {
		return models.ImportJob{}, fmt.Errorf("starting import job: %w", err)
	}
	s.mirrorStatus(ctx, job.ID, models.JobStatusProcessing)

	slog.Info("import job queued", "job_id", job.ID, "user_id", userID, "provider", s.generator.Name())

	s.wg.Add(1)
	go s.runImport(job.ID, v, req.Name, req.Description)

	return job, nil
}

// GetImport returns the job if it exists and is owned by userID. Jobs live in
// this process only; when the registry misses, the cache mirror tells apart a
// job that another instance owns from one that never existed.
func (s *Service) GetImport(ctx context.Context, userID, jobID uuid.UUID) (models.ImportJob, error) {
	job, err := s.registry.Get(jobID)
	if errors.Is(err, ErrJobNotFound) {
		if status, ok, cerr := s.cache.GetJobStatus(ctx, jobID); cerr == nil && ok {
			slog.Info("import job not held by this instance", "job_id", jobID, "mirrored_status", status)
			return models.ImportJob{}, fmt.Errorf("%w: last mirrored status %s", ErrJobNotFound, status)
		}
	}
	if err != nil {
		return models.ImportJob{}, err
	}
	if job.UserID != userID {
		return models.ImportJob{}, ErrJobForbidden
	}
	return job, nil
}

// Wait blocks until every in-flight import has finished or ctx is done.
func (s *Service) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runImport performs generation for one job. It is the only writer for that job
// after StartImport returns, recovers from panics and always leaves the job
// completed or failed.
func (s *Service) runImport(jobID uuid.UUID, v TextValidation, name, description string) {
	defer s.wg.Done()
	ctx := context.Background()
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic in import job", "error", r, "job_id", jobID)
			s.fail(ctx, jobID, panicMessage(r))
		}
	}()

	genCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	gen, err := s.generator.Generate(genCtx, models.GenerationRequest{
		SourceText: v.SanitizedText,
		MaxCards:   s.maxCards,
		Prompt:     prompt.Build(v.SanitizedText, s.maxCards),
	})
	if err != nil {
		if errors.Is(err, models.ErrInferenceTimeout) || errors.Is(genCtx.Err(), context.DeadlineExceeded) {
			slog.Warn("import job timed out", "job_id", jobID, "timeout", s.timeout)
			s.fail(ctx, jobID, "Flashcard generation timed out.")
			return
		}
		slog.Error("import job generation failed", "job_id", jobID, "error", err)
		s.fail(ctx, jobID, err.Error())
		return
	}

	cards, formatWarnings := NormalizeCards(gen.Cards)

	warnings := make([]string, 0, len(v.Warnings)+len(formatWarnings)+len(gen.Warnings))
	warnings = append(warnings, v.Warnings...)
	warnings = append(warnings, formatWarnings...)
	warnings = append(warnings, gen.Warnings...)

	if name == "" {
		name = DefaultDeckName
	}

	result := models.DeckImportResult{
		Deck:     models.DeckSuggestion{Name: name, Description: description},
		Cards:    cards,
		Warnings: warnings,
	}

	if _, err := s.registry.Transition(jobID, models.JobStatusCompleted, WithResult(result)); err != nil {
		slog.Error("completing import job", "job_id", jobID, "error", err)
		return
	}
	s.mirrorStatus(ctx, jobID, models.JobStatusCompleted)

	slog.Info("import job completed",
		"job_id", jobID,
		"cards", len(cards),
		"warnings", len(warnings),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

func (s *Service) fail(ctx context.Context, jobID uuid.UUID, msg string) {
	if strings.TrimSpace(msg) == "" {
		msg = msgImportFailed
	}
	if _, err := s.registry.Transition(jobID, models.JobStatusFailed, WithErrorMessage(msg)); err != nil {
		slog.Error("failing import job", "job_id", jobID, "error", err)
		return
	}
	s.mirrorStatus(ctx, jobID, models.JobStatusFailed)
}

// mirrorStatus copies the job status to the shared cache. Failures are logged only.
func (s *Service) mirrorStatus(ctx context.Context, jobID uuid.UUID, status string) {
	if err := s.cache.SetJobStatus(ctx, jobID, status, s.retention); err != nil {
		slog.Warn("mirroring job status to cache", "job_id", jobID, "status", status, "error", err)
	}
}

func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return msgImportFailed
	}
}
