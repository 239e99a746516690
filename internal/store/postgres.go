package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// PostgresStore implements the Store interface using pgx/v5.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a new PostgresStore.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Ping checks database connectivity.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// --- Users ---

func (s *PostgresStore) CreateUser(ctx context.Context, user *models.User) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, created_at) VALUES ($1, $2, $3, $4)`,
		user.ID, strings.ToLower(user.Email), user.PasswordHash, user.CreatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE LOWER(email) = LOWER($1)`, email,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return &u, nil
}

func (s *PostgresStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	err := s.pool.QueryRow(ctx,
		`SELECT id, email, password_hash, created_at FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.Email, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by id: %w", err)
	}
	return &u, nil
}

// --- Decks ---

// deckColumns selects a deck with its card count derived from the cards table.
const deckColumns = `d.id, d.user_id, d.name, d.description,
	(SELECT COUNT(*) FROM cards c WHERE c.deck_id = d.id) AS card_count,
	d.last_reviewed, d.created_at, d.updated_at`

func scanDeck(row pgx.Row) (*models.Deck, error) {
	var d models.Deck
	err := row.Scan(&d.ID, &d.UserID, &d.Name, &d.Description, &d.CardCount,
		&d.LastReviewed, &d.CreatedAt, &d.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (s *PostgresStore) CreateDeck(ctx context.Context, deck *models.Deck) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO decks (id, user_id, name, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		deck.ID, deck.UserID, deck.Name, deck.Description, deck.CreatedAt, deck.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		return fmt.Errorf("create deck: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetDeck(ctx context.Context, id uuid.UUID) (*models.Deck, error) {
	d, err := scanDeck(s.pool.QueryRow(ctx,
		`SELECT `+deckColumns+` FROM decks d WHERE d.id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get deck: %w", err)
	}
	return d, nil
}

func (s *PostgresStore) ListDecks(ctx context.Context, userID uuid.UUID) ([]*models.Deck, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+deckColumns+` FROM decks d WHERE d.user_id = $1 ORDER BY d.created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	defer rows.Close()

	decks := []*models.Deck{}
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("scan deck: %w", err)
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

func (s *PostgresStore) UpdateDeck(ctx context.Context, id uuid.UUID, update DeckUpdate) (*models.Deck, error) {
	tag, err := s.pool.Exec(ctx,
		`UPDATE decks SET
			name = COALESCE($2::text, name),
			description = COALESCE($3::text, description),
			updated_at = $4
		 WHERE id = $1`,
		id, update.Name, update.Description, time.Now().UTC())
	if err != nil {
		return nil, fmt.Errorf("update deck: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, ErrNotFound
	}
	return s.GetDeck(ctx, id)
}

func (s *PostgresStore) DeleteDeck(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM decks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete deck: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) MarkDeckReviewed(ctx context.Context, id uuid.UUID, at time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE decks SET last_reviewed = $2 WHERE id = $1`, id, at.UTC())
	if err != nil {
		return fmt.Errorf("mark deck reviewed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// --- Cards ---

func (s *PostgresStore) CreateCard(ctx context.Context, card *models.Card) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO cards (id, deck_id, front, back, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		card.ID, card.DeckID, card.Front, card.Back, card.CreatedAt, card.UpdatedAt)
	if err != nil {
		if isDuplicateKeyError(err) {
			return ErrDuplicateKey
		}
		if isForeignKeyError(err) {
			return ErrNotFound
		}
		return fmt.Errorf("create card: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetCard(ctx context.Context, id uuid.UUID) (*models.Card, error) {
	var c models.Card
	err := s.pool.QueryRow(ctx,
		`SELECT id, deck_id, front, back, created_at, updated_at FROM cards WHERE id = $1`, id,
	).Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get card: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) ListCards(ctx context.Context, deckID uuid.UUID) ([]*models.Card, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, deck_id, front, back, created_at, updated_at
		 FROM cards WHERE deck_id = $1 ORDER BY created_at, id`, deckID)
	if err != nil {
		return nil, fmt.Errorf("list cards: %w", err)
	}
	defer rows.Close()

	cards := []*models.Card{}
	for rows.Next() {
		var c models.Card
		if err := rows.Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan card: %w", err)
		}
		cards = append(cards, &c)
	}
	return cards, rows.Err()
}

func (s *PostgresStore) UpdateCard(ctx context.Context, id uuid.UUID, update CardUpdate) (*models.Card, error) {
	var c models.Card
	err := s.pool.QueryRow(ctx,
		`UPDATE cards SET
			front = COALESCE($2::text, front),
			back = COALESCE($3::text, back),
			updated_at = $4
		 WHERE id = $1
		 RETURNING id, deck_id, front, back, created_at, updated_at`,
		id, update.Front, update.Back, time.Now().UTC(),
	).Scan(&c.ID, &c.DeckID, &c.Front, &c.Back, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update card: %w", err)
	}
	return &c, nil
}

func (s *PostgresStore) DeleteCard(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM cards WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete card: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// isDuplicateKeyError checks if a pgx error is a unique constraint violation.
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505" // unique_violation
	}
	return false
}

// isForeignKeyError checks if a pgx error is a foreign key violation.
func isForeignKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503" // foreign_key_violation
	}
	return false
}

var _ Store = (*PostgresStore)(nil)
