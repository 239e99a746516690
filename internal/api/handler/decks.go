package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/internal/api/response"
	"github.com/kiranshivaraju/flashdeck/internal/decks"
	"github.com/kiranshivaraju/flashdeck/internal/store"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// DeckManager defines the interface the deck and card handlers depend on.
type DeckManager interface {
	ListDecks(ctx context.Context, userID uuid.UUID) ([]*models.Deck, error)
	GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*models.Deck, error)
	CreateDeck(ctx context.Context, userID uuid.UUID, name, description string) (*models.Deck, error)
	CreateDeckWithCards(ctx context.Context, userID uuid.UUID, name, description string, drafts []models.FlashcardDraft) (*models.Deck, []*models.Card, error)
	UpdateDeck(ctx context.Context, userID, deckID uuid.UUID, update store.DeckUpdate) (*models.Deck, error)
	DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error
	MarkReviewed(ctx context.Context, userID, deckID uuid.UUID) (*models.Deck, error)

	ListCards(ctx context.Context, userID, deckID uuid.UUID) ([]*models.Card, error)
	CreateCard(ctx context.Context, userID, deckID uuid.UUID, front, back string) (*models.Card, error)
	GetCard(ctx context.Context, userID, cardID uuid.UUID) (*models.Card, error)
	UpdateCard(ctx context.Context, userID, cardID uuid.UUID, update store.CardUpdate) (*models.Card, error)
	DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error
}

type cardInput struct {
	Front string `json:"front" validate:"required,max=2000"`
	Back  string `json:"back"  validate:"required,max=2000"`
}

type createDeckRequest struct {
	Name        string      `json:"name"        validate:"required,min=1,max=100"`
	Description string      `json:"description" validate:"max=500"`
	Cards       []cardInput `json:"cards"       validate:"omitempty,dive"`
}

type updateDeckRequest struct {
	Name        *string `json:"name"        validate:"omitempty,min=1,max=100"`
	Description *string `json:"description" validate:"omitempty,max=500"`
}

type deckWithCards struct {
	*models.Deck
	Cards []*models.Card `json:"cards"`
}

// DeckHandlers serves the deck and card endpoints.
type DeckHandlers struct {
	svc DeckManager
}

// NewDeckHandlers creates the deck and card handlers.
func NewDeckHandlers(svc DeckManager) *DeckHandlers {
	return &DeckHandlers{svc: svc}
}

// List handles GET /api/v1/decks.
func (h *DeckHandlers) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	list, err := h.svc.ListDecks(r.Context(), userID)
	if err != nil {
		writeDeckError(w, err)
		return
	}
	if list == nil {
		list = []*models.Deck{}
	}
	response.Collection(w, list, len(list))
}

// Create handles POST /api/v1/decks. When cards are supplied the deck and its
// cards are saved together, and the deck is removed again if a card fails.
func (h *DeckHandlers) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req createDeckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if len(req.Cards) == 0 {
		deck, err := h.svc.CreateDeck(r.Context(), userID, req.Name, req.Description)
		if err != nil {
			writeDeckError(w, err)
			return
		}
		response.Created(w, deck)
		return
	}

	drafts := make([]models.FlashcardDraft, len(req.Cards))
	for i, c := range req.Cards {
		drafts[i] = models.FlashcardDraft{Front: c.Front, Back: c.Back}
	}

	deck, cards, err := h.svc.CreateDeckWithCards(r.Context(), userID, req.Name, req.Description, drafts)
	if err != nil {
		writeDeckError(w, err)
		return
	}
	response.Created(w, deckWithCards{Deck: deck, Cards: cards})
}

// Get handles GET /api/v1/decks/{deckID}.
func (h *DeckHandlers) Get(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := deckParams(w, r)
	if !ok {
		return
	}

	deck, err := h.svc.GetDeck(r.Context(), userID, deckID)
	if err != nil {
		writeDeckError(w, err)
		return
	}
	response.JSON(w, deck)
}

// Update handles PUT /api/v1/decks/{deckID}.
func (h *DeckHandlers) Update(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := deckParams(w, r)
	if !ok {
		return
	}

	var req updateDeckRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	deck, err := h.svc.UpdateDeck(r.Context(), userID, deckID, store.DeckUpdate{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		writeDeckError(w, err)
		return
	}
	response.JSON(w, deck)
}

// Delete handles DELETE /api/v1/decks/{deckID}.
func (h *DeckHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := deckParams(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteDeck(r.Context(), userID, deckID); err != nil {
		writeDeckError(w, err)
		return
	}
	response.NoContent(w)
}

// Review handles POST /api/v1/decks/{deckID}/review.
func (h *DeckHandlers) Review(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := deckParams(w, r)
	if !ok {
		return
	}

	deck, err := h.svc.MarkReviewed(r.Context(), userID, deckID)
	if err != nil {
		writeDeckError(w, err)
		return
	}
	response.JSON(w, deck)
}

func deckParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	deckID, ok := pathID(r, "deckID")
	if !ok {
		response.Error(w, http.StatusNotFound, "DECK_NOT_FOUND", "Deck not found", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, deckID, true
}

// writeDeckError maps decks service errors to HTTP responses.
func writeDeckError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, decks.ErrDeckNotFound):
		response.Error(w, http.StatusNotFound, "DECK_NOT_FOUND", "Deck not found", nil)
	case errors.Is(err, decks.ErrCardNotFound):
		response.Error(w, http.StatusNotFound, "CARD_NOT_FOUND", "Card not found", nil)
	case errors.Is(err, decks.ErrForbidden):
		response.Error(w, http.StatusForbidden, "FORBIDDEN", "You do not have access to this resource", nil)
	case errors.Is(err, decks.ErrRollbackFailed):
		slog.Error("deck rollback failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "ROLLBACK_FAILED",
			"Deck was created but its cards could not be saved; manual intervention may be needed", nil)
	case errors.Is(err, decks.ErrCreateFailed):
		slog.Error("deck creation failed", "error", err)
		response.Error(w, http.StatusInternalServerError, "DECK_CREATE_FAILED", "Deck could not be created", nil)
	default:
		slog.Error("deck request failed", "error", err)
		response.Internal(w)
	}
}
