package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

var ErrNotFound = errors.New("resource not found")
var ErrDuplicateKey = errors.New("duplicate key violation")

// Store is the data access interface. All database operations go through here.
type Store interface {
	Ping(ctx context.Context) error

	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)

	CreateDeck(ctx context.Context, deck *models.Deck) error
	GetDeck(ctx context.Context, id uuid.UUID) (*models.Deck, error)
	ListDecks(ctx context.Context, userID uuid.UUID) ([]*models.Deck, error)
	UpdateDeck(ctx context.Context, id uuid.UUID, update DeckUpdate) (*models.Deck, error)
	DeleteDeck(ctx context.Context, id uuid.UUID) error
	MarkDeckReviewed(ctx context.Context, id uuid.UUID, at time.Time) error

	CreateCard(ctx context.Context, card *models.Card) error
	GetCard(ctx context.Context, id uuid.UUID) (*models.Card, error)
	ListCards(ctx context.Context, deckID uuid.UUID) ([]*models.Card, error)
	UpdateCard(ctx context.Context, id uuid.UUID, update CardUpdate) (*models.Card, error)
	DeleteCard(ctx context.Context, id uuid.UUID) error
}

// DeckUpdate is a partial update. Nil fields are left unchanged.
type DeckUpdate struct {
	Name        *string
	Description *string
}

// CardUpdate is a partial update. Nil fields are left unchanged.
type CardUpdate struct {
	Front *string
	Back  *string
}
