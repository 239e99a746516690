// Package decks manages persisted decks and cards on behalf of their owner.
package decks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kiranshivaraju/flashdeck/internal/cache"
	"github.com/kiranshivaraju/flashdeck/internal/store"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

const (
	listCacheTTL    = 5 * time.Minute
	rollbackTimeout = 10 * time.Second
)

var (
	ErrDeckNotFound   = errors.New("deck not found")
	ErrCardNotFound   = errors.New("card not found")
	ErrForbidden      = errors.New("resource belongs to another user")
	ErrCreateFailed   = errors.New("deck creation failed")
	ErrRollbackFailed = errors.New("deck rollback failed")
)

// RollbackError reports a deck that could not be removed after its cards
// failed to save. The deck is left behind without its full card set.
type RollbackError struct {
	DeckID      uuid.UUID
	Cause       error
	RollbackErr error
}

func (e *RollbackError) Error() string {
	return fmt.Sprintf("creating cards for deck %s failed (%v) and removing the deck also failed (%v); manual intervention may be needed",
		e.DeckID, e.Cause, e.RollbackErr)
}

func (e *RollbackError) Is(target error) bool { return target == ErrRollbackFailed }

func (e *RollbackError) Unwrap() error { return e.Cause }

// Service enforces ownership on top of store.Store.
type Service struct {
	store store.Store
	cache cache.Cache
	now   func() time.Time
}

// NewService creates a new Service. A nil cache disables list caching.
func NewService(st store.Store, ca cache.Cache) *Service {
	if ca == nil {
		ca = cache.NopCache{}
	}
	return &Service{store: st, cache: ca, now: time.Now}
}

// --- Decks ---

// ListDecks returns the user's decks, newest first. Results are cached per user
// and invalidated on every write.
func (s *Service) ListDecks(ctx context.Context, userID uuid.UUID) ([]*models.Deck, error) {
	key := cache.DeckListKey(userID)
	if raw, found, err := s.cache.Get(ctx, key); err == nil && found {
		var decks []*models.Deck
		if err := json.Unmarshal(raw, &decks); err == nil {
			return decks, nil
		}
	} else if err != nil {
		slog.Warn("reading deck list cache", "user_id", userID, "error", err)
	}

	decks, err := s.store.ListDecks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("listing decks: %w", err)
	}

	if raw, err := json.Marshal(decks); err == nil {
		if err := s.cache.Set(ctx, key, raw, listCacheTTL); err != nil {
			slog.Warn("writing deck list cache", "user_id", userID, "error", err)
		}
	}
	return decks, nil
}

func (s *Service) GetDeck(ctx context.Context, userID, deckID uuid.UUID) (*models.Deck, error) {
	deck, err := s.store.GetDeck(ctx, deckID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting deck: %w", err)
	}
	if deck.UserID != userID {
		return nil, ErrForbidden
	}
	return deck, nil
}

func (s *Service) CreateDeck(ctx context.Context, userID uuid.UUID, name, description string) (*models.Deck, error) {
	now := s.now().UTC()
	deck := &models.Deck{
		ID:          uuid.New(),
		UserID:      userID,
		Name:        name,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateDeck(ctx, deck); err != nil {
		return nil, fmt.Errorf("creating deck: %w", err)
	}
	s.invalidate(ctx, userID)
	return deck, nil
}

// CreateDeckWithCards creates a deck and then its cards in order. If any card
// fails the deck is deleted again. If that delete fails too, the returned error
// is a *RollbackError matching ErrRollbackFailed.
func (s *Service) CreateDeckWithCards(ctx context.Context, userID uuid.UUID, name, description string, drafts []models.FlashcardDraft) (*models.Deck, []*models.Card, error) {
	deck, err := s.CreateDeck(ctx, userID, name, description)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrCreateFailed, err)
	}

	cards := make([]*models.Card, 0, len(drafts))
	for i, d := range drafts {
		card, err := s.insertCard(ctx, deck.ID, d.Front, d.Back)
		if err != nil {
			cause := fmt.Errorf("card %d: %w", i, err)
			// The rollback must run even when the request context is already canceled.
			rbCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
			delErr := s.store.DeleteDeck(rbCtx, deck.ID)
			if delErr != nil && !errors.Is(delErr, store.ErrNotFound) {
				cancel()
				slog.Error("deck rollback failed",
					"deck_id", deck.ID, "user_id", userID, "error", delErr, "cause", cause)
				return nil, nil, &RollbackError{DeckID: deck.ID, Cause: cause, RollbackErr: delErr}
			}
			s.invalidate(rbCtx, userID)
			cancel()
			slog.Warn("deck creation rolled back", "deck_id", deck.ID, "error", cause)
			return nil, nil, fmt.Errorf("%w: %v", ErrCreateFailed, cause)
		}
		cards = append(cards, card)
	}

	deck.CardCount = len(cards)
	return deck, cards, nil
}

func (s *Service) UpdateDeck(ctx context.Context, userID, deckID uuid.UUID, update store.DeckUpdate) (*models.Deck, error) {
	if _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	deck, err := s.store.UpdateDeck(ctx, deckID, update)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating deck: %w", err)
	}
	s.invalidate(ctx, userID)
	return deck, nil
}

func (s *Service) DeleteDeck(ctx context.Context, userID, deckID uuid.UUID) error {
	if _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return err
	}
	if err := s.store.DeleteDeck(ctx, deckID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrDeckNotFound
		}
		return fmt.Errorf("deleting deck: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// MarkReviewed stamps the deck's last_reviewed time with the current time.
func (s *Service) MarkReviewed(ctx context.Context, userID, deckID uuid.UUID) (*models.Deck, error) {
	if _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	if err := s.store.MarkDeckReviewed(ctx, deckID, s.now()); err != nil {
		return nil, fmt.Errorf("marking deck reviewed: %w", err)
	}
	s.invalidate(ctx, userID)
	return s.GetDeck(ctx, userID, deckID)
}

// --- Cards ---

func (s *Service) ListCards(ctx context.Context, userID, deckID uuid.UUID) ([]*models.Card, error) {
	if _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	cards, err := s.store.ListCards(ctx, deckID)
	if err != nil {
		return nil, fmt.Errorf("listing cards: %w", err)
	}
	return cards, nil
}

func (s *Service) CreateCard(ctx context.Context, userID, deckID uuid.UUID, front, back string) (*models.Card, error) {
	if _, err := s.GetDeck(ctx, userID, deckID); err != nil {
		return nil, err
	}
	card, err := s.insertCard(ctx, deckID, front, back)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrDeckNotFound
	}
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, userID)
	return card, nil
}

// GetCard returns a card if its deck belongs to userID.
func (s *Service) GetCard(ctx context.Context, userID, cardID uuid.UUID) (*models.Card, error) {
	card, err := s.store.GetCard(ctx, cardID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting card: %w", err)
	}
	if _, err := s.GetDeck(ctx, userID, card.DeckID); err != nil {
		if errors.Is(err, ErrDeckNotFound) {
			return nil, ErrCardNotFound
		}
		return nil, err
	}
	return card, nil
}

func (s *Service) UpdateCard(ctx context.Context, userID, cardID uuid.UUID, update store.CardUpdate) (*models.Card, error) {
	if _, err := s.GetCard(ctx, userID, cardID); err != nil {
		return nil, err
	}
	card, err := s.store.UpdateCard(ctx, cardID, update)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrCardNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating card: %w", err)
	}
	return card, nil
}

func (s *Service) DeleteCard(ctx context.Context, userID, cardID uuid.UUID) error {
	if _, err := s.GetCard(ctx, userID, cardID); err != nil {
		return err
	}
	if err := s.store.DeleteCard(ctx, cardID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrCardNotFound
		}
		return fmt.Errorf("deleting card: %w", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

func (s *Service) insertCard(ctx context.Context, deckID uuid.UUID, front, back string) (*models.Card, error) {
	now := s.now().UTC()
	card := &models.Card{
		ID:        uuid.New(),
		DeckID:    deckID,
		Front:     front,
		Back:      back,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.CreateCard(ctx, card); err != nil {
		return nil, fmt.Errorf("creating card: %w", err)
	}
	return card, nil
}

// invalidate drops the cached deck list. Card counts live in that list, so
// card writes invalidate it too.
func (s *Service) invalidate(ctx context.Context, userID uuid.UUID) {
	if err := s.cache.Delete(ctx, cache.DeckListKey(userID)); err != nil {
		slog.Warn("invalidating deck list cache", "user_id", userID, "error", err)
	}
}
