package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/internal/api/response"
	"github.com/kiranshivaraju/flashdeck/internal/importer"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// Importer defines the interface the import handlers depend on.
type Importer interface {
	StartImport(ctx context.Context, userID uuid.UUID, req importer.ImportRequest) (models.ImportJob, error)
	GetImport(ctx context.Context, userID, jobID uuid.UUID) (models.ImportJob, error)
}

type importStatus struct {
	JobID  uuid.UUID                `json:"job_id"`
	Status string                   `json:"status"`
	Result *models.DeckImportResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// NewStartImportHandler returns an http.HandlerFunc for POST /api/v1/decks/import.
func NewStartImportHandler(svc Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		// text stays untyped so that a non-string value is reported by the
		// text validator rather than as a decoding error.
		var req struct {
			Text        any    `json:"text"`
			Name        string `json:"name"        validate:"max=100"`
			Description string `json:"description" validate:"max=500"`
		}
		if !decodeJSON(w, r, &req) {
			return
		}

		job, err := svc.StartImport(r.Context(), userID, importer.ImportRequest{
			Text:        req.Text,
			Name:        req.Name,
			Description: req.Description,
		})
		if err != nil {
			var verr *importer.ValidationError
			if errors.As(err, &verr) {
				response.Error(w, http.StatusBadRequest, "INVALID_TEXT", "Text could not be imported",
					map[string][]string{"errors": verr.Errors})
				return
			}
			slog.Error("start import failed", "error", err, "user_id", userID)
			response.Internal(w)
			return
		}

		response.Accepted(w, importStatus{JobID: job.ID, Status: job.Status})
	}
}

// NewImportStatusHandler returns an http.HandlerFunc for GET /api/v1/decks/import/{jobID}.
func NewImportStatusHandler(svc Importer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := currentUser(w, r)
		if !ok {
			return
		}

		jobID, ok := pathID(r, "jobID")
		if !ok {
			response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Import job not found", nil)
			return
		}

		job, err := svc.GetImport(r.Context(), userID, jobID)
		if err != nil {
			switch {
			case errors.Is(err, importer.ErrJobNotFound):
				response.Error(w, http.StatusNotFound, "JOB_NOT_FOUND", "Import job not found", nil)
			case errors.Is(err, importer.ErrJobForbidden):
				response.Error(w, http.StatusUnauthorized, "JOB_FORBIDDEN", "Import job belongs to another user", nil)
			default:
				slog.Error("get import failed", "error", err, "job_id", jobID)
				response.Internal(w)
			}
			return
		}

		response.JSON(w, importStatus{
			JobID:  job.ID,
			Status: job.Status,
			Result: job.Result,
			Error:  job.Error,
		})
	}
}
