package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	mw "github.com/kiranshivaraju/flashdeck/internal/api/middleware"
	"github.com/kiranshivaraju/flashdeck/internal/api/response"
)

// Dependencies holds all handler and middleware dependencies for the router.
type Dependencies struct {
	Auth *mw.Auth

	HealthHandler http.HandlerFunc

	RegisterHandler http.HandlerFunc
	LoginHandler    http.HandlerFunc
	LogoutHandler   http.HandlerFunc
	VerifyHandler   http.HandlerFunc

	StartImportHandler  http.HandlerFunc
	ImportStatusHandler http.HandlerFunc

	ListDecks  http.HandlerFunc
	CreateDeck http.HandlerFunc
	GetDeck    http.HandlerFunc
	UpdateDeck http.HandlerFunc
	DeleteDeck http.HandlerFunc
	ReviewDeck http.HandlerFunc
	ListCards  http.HandlerFunc
	CreateCard http.HandlerFunc
	GetCard    http.HandlerFunc
	UpdateCard http.HandlerFunc
	DeleteCard http.HandlerFunc
}

// NewRouter builds the Chi router with middleware stack and all routes.
func NewRouter(deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusNotFound, "NOT_FOUND", "Route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Method not allowed", nil)
	})

	// Public routes
	r.Get("/api/v1/health", orNotImplemented(deps.HealthHandler))
	r.Post("/api/v1/auth/register", orNotImplemented(deps.RegisterHandler))
	r.Post("/api/v1/auth/login", orNotImplemented(deps.LoginHandler))
	r.Post("/api/v1/auth/logout", orNotImplemented(deps.LogoutHandler))

	// Protected routes
	r.Group(func(r chi.Router) {
		r.Use(deps.Auth.Authenticate)

		r.Get("/api/v1/auth/verify", orNotImplemented(deps.VerifyHandler))

		r.Post("/api/v1/decks/import", orNotImplemented(deps.StartImportHandler))
		r.Get("/api/v1/decks/import/{jobID}", orNotImplemented(deps.ImportStatusHandler))

		r.Get("/api/v1/decks", orNotImplemented(deps.ListDecks))
		r.Post("/api/v1/decks", orNotImplemented(deps.CreateDeck))
		r.Get("/api/v1/decks/{deckID}", orNotImplemented(deps.GetDeck))
		r.Put("/api/v1/decks/{deckID}", orNotImplemented(deps.UpdateDeck))
		r.Delete("/api/v1/decks/{deckID}", orNotImplemented(deps.DeleteDeck))
		r.Post("/api/v1/decks/{deckID}/review", orNotImplemented(deps.ReviewDeck))

		r.Get("/api/v1/decks/{deckID}/cards", orNotImplemented(deps.ListCards))
		r.Post("/api/v1/decks/{deckID}/cards", orNotImplemented(deps.CreateCard))
		r.Get("/api/v1/cards/{cardID}", orNotImplemented(deps.GetCard))
		r.Put("/api/v1/cards/{cardID}", orNotImplemented(deps.UpdateCard))
		r.Delete("/api/v1/cards/{cardID}", orNotImplemented(deps.DeleteCard))
	})

	return r
}

// orNotImplemented returns the handler if non-nil, or a 501 placeholder.
func orNotImplemented(h http.HandlerFunc) http.HandlerFunc {
	if h != nil {
		return h
	}
	return func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusNotImplemented, "NOT_IMPLEMENTED", "Endpoint not yet implemented", nil)
	}
}
