package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// State is the controller's position in the upload flow.
type State string

const (
	StateIdle     State = "idle"
	StateParsing  State = "parsing"
	StateUploaded State = "uploaded"
	StatePolling  State = "polling"
	StateResolved State = "resolved"
	StateError    State = "error"
)

const (
	MaxFileSize = 5 * 1024 * 1024
	MaxPages    = 3

	initialPollDelay = 3000 * time.Millisecond
	pollDelayStep    = 500 * time.Millisecond
	maxPollDelay     = 5000 * time.Millisecond
	pollCeiling      = 60 * time.Second
)

const (
	msgTruncated       = "PDF was truncated to the first 3 pages."
	msgParseFailed     = "Failed to parse PDF."
	msgEmptyResult     = "Import completed without results. Please retry."
	msgImportFailed    = "Import failed."
	msgPollTimeout     = "Import is taking too long. Please try again."
	msgPollInterrupted = "Import polling was canceled."
)

var (
	ErrNoFile         = errors.New("no file selected")
	ErrMultipleFiles  = errors.New("more than one file selected")
	ErrNotPDF         = errors.New("file is not a pdf")
	ErrFileTooLarge   = errors.New("file exceeds the size limit")
	ErrNoText         = errors.New("pdf contained no extractable text")
	ErrPollInProgress = errors.New("a poll is already running")
	ErrNoResult       = errors.New("no resolved import result")
)

var userMessages = []struct {
	err error
	msg string
}{
	{ErrNoFile, "Select a file to upload."},
	{ErrMultipleFiles, "Please upload a single file."},
	{ErrNotPDF, "Only PDF files are allowed."},
	{ErrFileTooLarge, "File exceeds the 5MB limit."},
	{ErrNoText, "PDF contained no extractable text."},
}

// UserMessage returns the message shown for a controller error.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.msg
		}
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// PollKind discriminates the outcome of Poll.
type PollKind string

const (
	PollCompleted PollKind = "completed"
	PollFailed    PollKind = "failed"
	PollTimeout   PollKind = "timeout"
	PollError     PollKind = "error"
	PollCanceled  PollKind = "canceled"
)

// PollResult is the terminal outcome of a poll loop. Result is set only for
// PollCompleted; Message carries the user-facing text otherwise.
type PollResult struct {
	Kind     PollKind
	Result   *models.DeckImportResult
	Message  string
	Attempts int
	Err      error
}

type selectedFile struct {
	name string
	data []byte
}

// Controller drives one PDF import: select, upload, poll, draft.
// It is safe for concurrent use, but only one Poll may run at a time.
type Controller struct {
	api       API
	extractor TextExtractor
	now       func() time.Time
	sleep     func(ctx context.Context, d time.Duration) error

	mu          sync.Mutex
	state       State
	file        *selectedFile
	jobID       uuid.UUID
	jobStatus   string
	name        string
	description string
	localWarns  []string
	warnings    []string
	result      *models.DeckImportResult
	errMsg      string
	polling     bool
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock overrides the clock used for the poll ceiling.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithSleep overrides how the poll loop waits between attempts.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(c *Controller) { c.sleep = sleep }
}

// WithExtractor overrides the PDF text extractor.
func WithExtractor(x TextExtractor) Option {
	return func(c *Controller) { c.extractor = x }
}

// NewController creates an idle controller backed by api.
func NewController(api API, opts ...Option) *Controller {
	c := &Controller{
		api:       api,
		extractor: PDFExtractor{},
		now:       time.Now,
		sleep:     sleepContext,
		state:     StateIdle,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Select validates and loads the file to upload. Exactly one PDF of at most
// MaxFileSize bytes is accepted.
func (c *Controller) Select(paths []string) error {
	file, err := loadFile(paths)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.errMsg = UserMessage(err)
		return err
	}
	c.file = file
	c.state = StateIdle
	c.errMsg = ""
	c.localWarns = nil
	c.warnings = nil
	c.jobID = uuid.Nil
	c.jobStatus = ""
	c.result = nil
	return nil
}

func loadFile(paths []string) (*selectedFile, error) {
	switch {
	case len(paths) == 0:
		return nil, ErrNoFile
	case len(paths) > 1:
		return nil, ErrMultipleFiles
	}
	path := paths[0]

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", ErrNotPDF, path)
	}
	if info.Size() > MaxFileSize {
		return nil, ErrFileTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	if !isPDF(path, data) {
		return nil, ErrNotPDF
	}
	return &selectedFile{name: filepath.Base(path), data: data}, nil
}

// isPDF accepts a file whose name ends in .pdf or whose content sniffs as PDF.
func isPDF(path string, data []byte) bool {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		return true
	}
	return http.DetectContentType(data) == "application/pdf"
}

// Upload extracts text from the selected file and submits it for import.
// It returns the server's job id.
func (c *Controller) Upload(ctx context.Context, name, description string) (uuid.UUID, error) {
	c.mu.Lock()
	file := c.file
	if file == nil {
		c.errMsg = UserMessage(ErrNoFile)
		c.mu.Unlock()
		return uuid.Nil, ErrNoFile
	}
	c.state = StateParsing
	c.errMsg = ""
	c.localWarns = nil
	c.warnings = nil
	c.result = nil
	c.name = strings.TrimSpace(name)
	c.description = strings.TrimSpace(description)
	c.mu.Unlock()

	text, pages, err := c.extractor.Extract(file.data, MaxPages)
	if err != nil {
		c.setError(msgParseFailed)
		return uuid.Nil, fmt.Errorf("extracting text from %s: %w", file.name, err)
	}
	if pages > MaxPages {
		c.addWarning(msgTruncated)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		c.setError(UserMessage(ErrNoText))
		return uuid.Nil, ErrNoText
	}

	accepted, err := c.api.StartImport(ctx, ImportSubmission{
		Text:        text,
		Name:        c.name,
		Description: c.description,
	})
	if err != nil {
		c.setError(UserMessage(err))
		return uuid.Nil, fmt.Errorf("submitting import: %w", err)
	}

	c.mu.Lock()
	c.state = StateUploaded
	c.jobID = accepted.JobID
	c.jobStatus = accepted.Status
	c.mu.Unlock()
	return accepted.JobID, nil
}

// Poll queries the job until it completes, fails, runs past the 60 second
// ceiling, errors, or ctx is canceled. The delay between requests starts at
// 3s and grows by 500ms per attempt up to 5s. The server-side job is never
// canceled; it expires on its own.
func (c *Controller) Poll(ctx context.Context, jobID uuid.UUID) (PollResult, error) {
	c.mu.Lock()
	if c.polling {
		c.mu.Unlock()
		return PollResult{}, ErrPollInProgress
	}
	c.polling = true
	c.state = StatePolling
	c.jobID = jobID
	c.mu.Unlock()

	res := c.pollLoop(ctx, jobID)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.polling = false
	switch res.Kind {
	case PollCompleted:
		c.state = StateResolved
		c.result = res.Result
		c.warnings = append(append([]string(nil), c.localWarns...), res.Result.Warnings...)
		c.errMsg = ""
	case PollCanceled:
		// The job is still on the server and can be polled again.
		c.state = StateUploaded
	default:
		c.state = StateError
		c.errMsg = res.Message
	}
	return res, nil
}

func (c *Controller) pollLoop(ctx context.Context, jobID uuid.UUID) PollResult {
	start := c.now()
	delay := initialPollDelay
	attempts := 0

	for {
		if ctx.Err() != nil {
			return PollResult{Kind: PollCanceled, Message: msgPollInterrupted, Attempts: attempts, Err: ctx.Err()}
		}
		if c.now().Sub(start) > pollCeiling {
			return PollResult{Kind: PollTimeout, Message: msgPollTimeout, Attempts: attempts}
		}

		st, err := c.api.ImportStatus(ctx, jobID)
		attempts++
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return PollResult{Kind: PollCanceled, Message: msgPollInterrupted, Attempts: attempts, Err: err}
			}
			return PollResult{Kind: PollError, Message: UserMessage(err), Attempts: attempts, Err: err}
		}

		// A response that arrives past the ceiling is discarded, even a terminal one.
		if c.now().Sub(start) > pollCeiling {
			return PollResult{Kind: PollTimeout, Message: msgPollTimeout, Attempts: attempts}
		}

		c.mu.Lock()
		c.jobStatus = st.Status
		c.mu.Unlock()

		switch st.Status {
		case models.JobStatusCompleted:
			if st.Result == nil {
				return PollResult{Kind: PollError, Message: msgEmptyResult, Attempts: attempts}
			}
			return PollResult{Kind: PollCompleted, Result: st.Result, Attempts: attempts}
		case models.JobStatusFailed:
			msg := st.Error
			if msg == "" {
				msg = msgImportFailed
			}
			return PollResult{Kind: PollFailed, Message: msg, Attempts: attempts}
		}

		if err := c.sleep(ctx, delay); err != nil {
			return PollResult{Kind: PollCanceled, Message: msgPollInterrupted, Attempts: attempts, Err: err}
		}
		delay = min(delay+pollDelayStep, maxPollDelay)
	}
}

// Draft merges the resolved result into a deck ready to save. A name or
// description given to Upload overrides the suggested one.
func (c *Controller) Draft() (DeckDraft, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateResolved || c.result == nil {
		return DeckDraft{}, ErrNoResult
	}

	d := DeckDraft{
		Name:        c.result.Deck.Name,
		Description: c.result.Deck.Description,
		Cards:       append([]models.FlashcardDraft(nil), c.result.Cards...),
	}
	if c.name != "" {
		d.Name = c.name
	}
	if c.description != "" {
		d.Description = c.description
	}
	return d, nil
}

// State returns the current state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// JobStatus returns the last server-reported job status.
func (c *Controller) JobStatus() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.jobStatus
}

// Warnings returns local extraction warnings followed by server warnings.
func (c *Controller) Warnings() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.warnings...)
}

// ErrorMessage returns the last user-facing error, or "".
func (c *Controller) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

func (c *Controller) setError(msg string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.state = StateError
	c.errMsg = msg
}

func (c *Controller) addWarning(w string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.localWarns = append(c.localWarns, w)
	c.warnings = append(c.warnings, w)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
