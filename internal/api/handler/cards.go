package handler

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/internal/api/response"
	"github.com/kiranshivaraju/flashdeck/internal/store"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

type updateCardRequest struct {
	Front *string `json:"front" validate:"omitempty,min=1,max=2000"`
	Back  *string `json:"back"  validate:"omitempty,min=1,max=2000"`
}

// ListCards handles GET /api/v1/decks/{deckID}/cards.
func (h *DeckHandlers) ListCards(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := deckParams(w, r)
	if !ok {
		return
	}

	cards, err := h.svc.ListCards(r.Context(), userID, deckID)
	if err != nil {
		writeDeckError(w, err)
		return
	}
	if cards == nil {
		cards = []*models.Card{}
	}
	response.Collection(w, cards, len(cards))
}

// CreateCard handles POST /api/v1/decks/{deckID}/cards.
func (h *DeckHandlers) CreateCard(w http.ResponseWriter, r *http.Request) {
	userID, deckID, ok := deckParams(w, r)
	if !ok {
		return
	}

	var req cardInput
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.svc.CreateCard(r.Context(), userID, deckID, req.Front, req.Back)
	if err != nil {
		writeDeckError(w, err)
		return
	}
	response.Created(w, card)
}

// GetCard handles GET /api/v1/cards/{cardID}.
func (h *DeckHandlers) GetCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := cardParams(w, r)
	if !ok {
		return
	}

	card, err := h.svc.GetCard(r.Context(), userID, cardID)
	if err != nil {
		writeDeckError(w, err)
		return
	}
	response.JSON(w, card)
}

// UpdateCard handles PUT /api/v1/cards/{cardID}.
func (h *DeckHandlers) UpdateCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := cardParams(w, r)
	if !ok {
		return
	}

	var req updateCardRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	card, err := h.svc.UpdateCard(r.Context(), userID, cardID, store.CardUpdate{Front: req.Front, Back: req.Back})
	if err != nil {
		writeDeckError(w, err)
		return
	}
	response.JSON(w, card)
}

// DeleteCard handles DELETE /api/v1/cards/{cardID}.
func (h *DeckHandlers) DeleteCard(w http.ResponseWriter, r *http.Request) {
	userID, cardID, ok := cardParams(w, r)
	if !ok {
		return
	}

	if err := h.svc.DeleteCard(r.Context(), userID, cardID); err != nil {
		writeDeckError(w, err)
		return
	}
	response.NoContent(w)
}

func cardParams(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := currentUser(w, r)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}
	cardID, ok := pathID(r, "cardID")
	if !ok {
		response.Error(w, http.StatusNotFound, "CARD_NOT_FOUND", "Card not found", nil)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, cardID, true
}
