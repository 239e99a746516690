package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	mw "github.com/kiranshivaraju/flashdeck/internal/api/middleware"
	"github.com/kiranshivaraju/flashdeck/internal/api/response"
	"github.com/kiranshivaraju/flashdeck/internal/auth"
)

// Authenticator defines the interface the auth handlers depend on.
type Authenticator interface {
	Register(ctx context.Context, email, password string) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
}

type credentials struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type sessionResponse struct {
	UserID    uuid.UUID `json:"user_id"`
	Email     string    `json:"email"`
	ExpiresAt time.Time `json:"expires_at"`
}

// AuthHandlers serves the register, login, logout and verify endpoints.
type AuthHandlers struct {
	svc          Authenticator
	secureCookie bool
}

// NewAuthHandlers creates the auth handlers. secureCookie sets the Secure
// attribute on the session cookie.
func NewAuthHandlers(svc Authenticator, secureCookie bool) *AuthHandlers {
	return &AuthHandlers{svc: svc, secureCookie: secureCookie}
}

// Register handles POST /api/v1/auth/register.
func (h *AuthHandlers) Register(w http.ResponseWriter, r *http.Request) {
	var req credentials
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.svc.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			response.Error(w, http.StatusConflict, "USER_EXISTS", "An account with this email already exists", nil)
			return
		}
		slog.Error("register failed", "error", err)
		response.Internal(w)
		return
	}

	h.setCookie(w, sess.Token, sess.ExpiresAt)
	response.Created(w, toSessionResponse(sess))
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"    validate:"required"`
		Password string `json:"password" validate:"required"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	sess, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			response.Error(w, http.StatusUnauthorized, "INVALID_CREDENTIALS", "Invalid email or password", nil)
			return
		}
		slog.Error("login failed", "error", err)
		response.Internal(w)
		return
	}

	h.setCookie(w, sess.Token, sess.ExpiresAt)
	response.JSON(w, toSessionResponse(sess))
}

// Logout handles POST /api/v1/auth/logout. It always succeeds.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	response.JSON(w, map[string]bool{"logged_out": true})
}

// Verify handles GET /api/v1/auth/verify. The auth middleware has already
// validated the token.
func (h *AuthHandlers) Verify(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	response.JSON(w, map[string]any{
		"user_id": userID,
		"email":   mw.GetEmail(r),
	})
}

func (h *AuthHandlers) setCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
}

func toSessionResponse(s *auth.Session) sessionResponse {
	return sessionResponse{
		UserID:    s.User.ID,
		Email:     s.User.Email,
		ExpiresAt: s.ExpiresAt,
	}
}
