// Package client is the command-line side of deck import: it extracts text
// from a PDF, submits it to the server and polls the import job until it
// resolves.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/internal/auth"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// Sentinel errors for transport failures.
var (
	ErrUnreachable = errors.New("flashdeck server unreachable")
	ErrTimeout     = errors.New("flashdeck request timed out")
	ErrNoSession   = errors.New("login response did not include a session cookie")
)

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status  int
	Code    string
	Message string
	Details json.RawMessage
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned status %d", e.Status)
	}
	return e.Message
}

// API is the subset of the FlashDeck HTTP API the CLI uses.
type API interface {
	Login(ctx context.Context, email, password string) (string, error)
	StartImport(ctx context.Context, sub ImportSubmission) (ImportAccepted, error)
	ImportStatus(ctx context.Context, jobID uuid.UUID) (ImportStatus, error)
	CreateDeck(ctx context.Context, draft DeckDraft) (*CreatedDeck, error)
}

// ImportSubmission is the body of POST /api/v1/decks/import.
type ImportSubmission struct {
	Text        string `json:"text"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}

type ImportAccepted struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

type ImportStatus struct {
	JobID  uuid.UUID                `json:"job_id"`
	Status string                   `json:"status"`
	Result *models.DeckImportResult `json:"result,omitempty"`
	Error  string                   `json:"error,omitempty"`
}

// DeckDraft is a deck ready to be saved with its confirmed cards.
type DeckDraft struct {
	Name        string                  `json:"name"`
	Description string                  `json:"description,omitempty"`
	Cards       []models.FlashcardDraft `json:"cards"`
}

type CreatedDeck struct {
	models.Deck
	Cards []models.Card `json:"cards"`
}

// HTTPClient implements API over the server's JSON endpoints.
type HTTPClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewHTTPClient creates a new client. token may be empty for Login.
func NewHTTPClient(baseURL, token string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: timeout},
	}
}

// Login authenticates and returns the session token from the auth cookie.
// The client uses the token for subsequent requests.
func (c *HTTPClient) Login(ctx context.Context, email, password string) (string, error) {
	body := map[string]string{"email": email, "password": password}
	resp, err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return "", err
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == auth.CookieName && ck.Value != "" {
			c.token = ck.Value
			return ck.Value, nil
		}
	}
	return "", ErrNoSession
}

func (c *HTTPClient) StartImport(ctx context.Context, sub ImportSubmission) (ImportAccepted, error) {
	var out ImportAccepted
	err := c.call(ctx, http.MethodPost, "/api/v1/decks/import", sub, &out)
	return out, err
}

func (c *HTTPClient) ImportStatus(ctx context.Context, jobID uuid.UUID) (ImportStatus, error) {
	var out ImportStatus
	err := c.call(ctx, http.MethodGet, "/api/v1/decks/import/"+url.PathEscape(jobID.String()), nil, &out)
	return out, err
}

func (c *HTTPClient) CreateDeck(ctx context.Context, draft DeckDraft) (*CreatedDeck, error) {
	var out CreatedDeck
	if err := c.call(ctx, http.MethodPost, "/api/v1/decks", draft, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// call performs a request and decodes the data envelope into out.
func (c *HTTPClient) call(ctx context.Context, method, path string, body, out any) error {
	resp, err := c.do(ctx, method, path, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}

	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s data: %w", path, err)
	}
	return nil
}

func (c *HTTPClient) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setHeaders(req, body != nil)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyError(err)
	}
	return resp, nil
}

func (c *HTTPClient) setHeaders(req *http.Request, hasBody bool) {
	req.Header.Set("Accept", "application/json")
	if hasBody {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
}

// checkStatus turns a non-2xx response into an *APIError.
func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{Status: resp.StatusCode}
	var env struct {
		Error struct {
			Code    string          `json:"code"`
			Message string          `json:"message"`
			Details json.RawMessage `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env); err == nil {
		apiErr.Code = env.Error.Code
		apiErr.Message = env.Error.Message
		apiErr.Details = env.Error.Details
	}
	return apiErr
}

// classifyError maps transport-level errors to sentinel errors.
// Cancellation is passed through unchanged so callers can tell it apart.
func classifyError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnreachable, err)
}

// Compile-time check that HTTPClient implements API.
var _ API = (*HTTPClient)(nil)
