package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Name  string `json:"name"  validate:"required,max=5"`
	Email string `json:"email" validate:"omitempty,email"`
	Items []struct {
		Front string `json:"front" validate:"required"`
	} `json:"items" validate:"omitempty,dive"`
}

func TestDecodeJSON_Valid(t *testing.T) {
	rec := httptest.NewRecorder()
	var req sampleRequest
	ok := decodeJSON(rec, newReq(t, http.MethodPost, "/", `{"name":"abc"}`), &req)
	assert.True(t, ok)
	assert.Equal(t, "abc", req.Name)
}

func TestDecodeJSON_Malformed(t *testing.T) {
	rec := httptest.NewRecorder()
	var req sampleRequest
	ok := decodeJSON(rec, newReq(t, http.MethodPost, "/", `{"name":`), &req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_REQUEST", decodeEnvelope(t, rec).Error.Code)
}

func TestDecodeJSON_EmptyBody(t *testing.T) {
	rec := httptest.NewRecorder()
	var req sampleRequest
	ok := decodeJSON(rec, newReq(t, http.MethodPost, "/", nil), &req)
	assert.False(t, ok)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, "INVALID_REQUEST", env.Error.Code)
	assert.Equal(t, "Request body is required", env.Error.Message)
}

func TestDecodeJSON_TooLarge(t *testing.T) {
	rec := httptest.NewRecorder()
	var req sampleRequest
	body := `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`
	ok := decodeJSON(rec, newReq(t, http.MethodPost, "/", body), &req)
	assert.False(t, ok)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestDecodeJSON_ValidationDetailsUseJSONNames(t *testing.T) {
	rec := httptest.NewRecorder()
	var req sampleRequest
	ok := decodeJSON(rec, newReq(t, http.MethodPost, "/",
		`{"name":"toolong","email":"nope","items":[{"front":""}]}`), &req)
	require.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	env := decodeEnvelope(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	var details map[string]string
	require.NoError(t, json.Unmarshal(env.Error.Details, &details))
	assert.Equal(t, "must be at most 5 characters", details["name"])
	assert.Equal(t, "must be a valid email address", details["email"])
	assert.Equal(t, "is required", details["items[0].front"])
}

func TestCurrentUser_Missing(t *testing.T) {
	rec := httptest.NewRecorder()
	_, ok := currentUser(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.False(t, ok)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPathID(t *testing.T) {
	id := uuid.New()
	r := withParam(httptest.NewRequest(http.MethodGet, "/", nil), "deckID", id.String())
	got, ok := pathID(r, "deckID")
	assert.True(t, ok)
	assert.Equal(t, id, got)

	r = withParam(httptest.NewRequest(http.MethodGet, "/", nil), "deckID", "not-a-uuid")
	_, ok = pathID(r, "deckID")
	assert.False(t, ok)
}
