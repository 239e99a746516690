package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kiranshivaraju/flashdeck/internal/api"
	mw "github.com/kiranshivaraju/flashdeck/internal/api/middleware"
	"github.com/kiranshivaraju/flashdeck/internal/auth"
)

// --- stub verifier that accepts a single token ---

const validToken = "good-token"

type stubVerifier struct {
	userID uuid.UUID
}

func (s *stubVerifier) Verify(token string) (*auth.Claims, error) {
	if token != validToken {
		return nil, auth.ErrInvalidToken
	}
	c := &auth.Claims{Email: "user@example.com"}
	c.Subject = s.userID.String()
	return c, nil
}

// echoParam writes the named URL parameter so tests can see which route matched.
func echoParam(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Route", name)
		w.Write([]byte(chi.URLParam(r, name)))
	}
}

// --- router tests ---

func newTestRouter(deps api.Dependencies) http.Handler {
	deps.Auth = mw.NewAuth(&stubVerifier{userID: uuid.New()})
	if deps.HealthHandler == nil {
		deps.HealthHandler = func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"status":"ok"}`))
		}
	}
	return api.NewRouter(deps)
}

func TestRouter_HealthEndpoint_Public(t *testing.T) {
	router := newTestRouter(api.Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_AuthEndpoints_Public(t *testing.T) {
	ok := func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }
	router := newTestRouter(api.Dependencies{RegisterHandler: ok, LoginHandler: ok, LogoutHandler: ok})

	for _, path := range []string{"/api/v1/auth/register", "/api/v1/auth/login", "/api/v1/auth/logout"} {
		t.Run(path, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest("POST", path, nil))
			assert.Equal(t, http.StatusOK, w.Code)
		})
	}
}

func TestRouter_ProtectedEndpoints_RequireAuth(t *testing.T) {
	router := newTestRouter(api.Dependencies{})

	endpoints := []struct {
		method string
		path   string
	}{
		{"GET", "/api/v1/auth/verify"},
		{"POST", "/api/v1/decks/import"},
		{"GET", "/api/v1/decks/import/" + uuid.NewString()},
		{"GET", "/api/v1/decks"},
		{"POST", "/api/v1/decks"},
		{"GET", "/api/v1/decks/" + uuid.NewString()},
		{"PUT", "/api/v1/decks/" + uuid.NewString()},
		{"DELETE", "/api/v1/decks/" + uuid.NewString()},
		{"POST", "/api/v1/decks/" + uuid.NewString() + "/review"},
		{"GET", "/api/v1/decks/" + uuid.NewString() + "/cards"},
		{"POST", "/api/v1/decks/" + uuid.NewString() + "/cards"},
		{"GET", "/api/v1/cards/" + uuid.NewString()},
		{"PUT", "/api/v1/cards/" + uuid.NewString()},
		{"DELETE", "/api/v1/cards/" + uuid.NewString()},
	}

	for _, ep := range endpoints {
		t.Run(ep.method+" "+ep.path, func(t *testing.T) {
			req := httptest.NewRequest(ep.method, ep.path, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)

			var body map[string]any
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			errObj := body["error"].(map[string]any)
			assert.Equal(t, "INVALID_TOKEN", errObj["code"])
		})
	}
}

func TestRouter_UnwiredHandler_NotImplemented(t *testing.T) {
	router := newTestRouter(api.Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/decks", nil)
	req.Header.Set("Authorization", "Bearer "+validToken)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestRouter_ImportRouteNotShadowedByDeckID(t *testing.T) {
	router := newTestRouter(api.Dependencies{
		ImportStatusHandler: echoParam("jobID"),
		GetDeck:             echoParam("deckID"),
	})
	jobID := uuid.NewString()

	req := httptest.NewRequest("GET", "/api/v1/decks/import/"+jobID, nil)
	req.AddCookie(&http.Cookie{Name: auth.CookieName, Value: validToken})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "jobID", w.Header().Get("X-Route"))
	assert.Equal(t, jobID, w.Body.String())
}

func TestRouter_SetsRequestID(t *testing.T) {
	var seen string
	router := newTestRouter(api.Dependencies{
		HealthHandler: func(w http.ResponseWriter, r *http.Request) {
			seen = chimw.GetReqID(r.Context())
			w.WriteHeader(http.StatusOK)
		},
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, seen)
}

func TestRouter_NotFound(t *testing.T) {
	router := newTestRouter(api.Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/nonexistent", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NOT_FOUND", body["error"].(map[string]any)["code"])
}
