package models

import (
	"time"

	"github.com/google/uuid"
)

// User is an account that owns decks. Only the bcrypt hash of the password is stored.
type User struct {
	ID           uuid.UUID `db:"id"            json:"id"`
	Email        string    `db:"email"         json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at"    json:"created_at"`
}

// Deck is a named collection of cards belonging to one user.
// CardCount is derived from the cards table on read.
type Deck struct {
	ID           uuid.UUID  `db:"id"            json:"id"`
	UserID       uuid.UUID  `db:"user_id"       json:"user_id"`
	Name         string     `db:"name"          json:"name"`
	Description  string     `db:"description"   json:"description"`
	CardCount    int        `db:"card_count"    json:"card_count"`
	LastReviewed *time.Time `db:"last_reviewed" json:"last_reviewed,omitempty"`
	CreatedAt    time.Time  `db:"created_at"    json:"created_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// Card is a confirmed front/back pair stored in a deck.
type Card struct {
	ID        uuid.UUID `db:"id"         json:"id"`
	DeckID    uuid.UUID `db:"deck_id"    json:"deck_id"`
	Front     string    `db:"front"      json:"front"`
	Back      string    `db:"back"       json:"back"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
