package auth_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/kiranshivaraju/flashdeck/internal/auth"
	"github.com/kiranshivaraju/flashdeck/internal/config"
	"github.com/kiranshivaraju/flashdeck/internal/store"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// memUsers is an in-memory auth.UserStore.
type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
	err   error
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*models.User)}
}

func (m *memUsers) CreateUser(_ context.Context, u *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	if _, ok := m.users[u.Email]; ok {
		return store.ErrDuplicateKey
	}
	m.users[u.Email] = u
	return nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	u, ok := m.users[email]
	if !ok {
		return nil, store.ErrNotFound
	}
	return u, nil
}

func newAuth(users auth.UserStore) *auth.Service {
	return auth.NewService(users, config.AuthConfig{JWTSecret: "test-secret", TokenTTL: time.Hour}).
		WithHashCost(bcrypt.MinCost)
}

func TestRegister_HashesPasswordAndIssuesToken(t *testing.T) {
	users := newMemUsers()
	svc := newAuth(users)

	sess, err := svc.Register(context.Background(), "  Ada@Example.com ", "hunter22")
	require.NoError(t, err)
	assert.Equal(t, "ada@example.com", sess.User.Email)
	assert.NotEqual(t, "hunter22", sess.User.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(sess.User.PasswordHash), []byte("hunter22")))

	claims, err := svc.Verify(sess.Token)
	require.NoError(t, err)
	id, err := claims.UserID()
	require.NoError(t, err)
	assert.Equal(t, sess.User.ID, id)
	assert.Equal(t, "ada@example.com", claims.Email)
}

func TestRegister_Duplicate(t *testing.T) {
	svc := newAuth(newMemUsers())
	_, err := svc.Register(context.Background(), "dup@example.com", "secret1")
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), "DUP@example.com", "secret2")
	assert.ErrorIs(t, err, auth.ErrUserExists)
}

func TestRegister_StoreError(t *testing.T) {
	users := newMemUsers()
	users.err = errors.New("db down")

	_, err := newAuth(users).Register(context.Background(), "x@example.com", "secret1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrUserExists)
}

func TestLogin(t *testing.T) {
	svc := newAuth(newMemUsers())
	_, err := svc.Register(context.Background(), "login@example.com", "correct-horse")
	require.NoError(t, err)

	sess, err := svc.Login(context.Background(), "Login@Example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, sess.Token)

	_, err = svc.Login(context.Background(), "login@example.com", "wrong")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)

	_, err = svc.Login(context.Background(), "ghost@example.com", "correct-horse")
	assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
}

func TestVerify_Expired(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := newAuth(newMemUsers()).WithClock(func() time.Time { return now })

	sess, err := svc.Register(context.Background(), "exp@example.com", "secret1")
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), sess.ExpiresAt)

	now = now.Add(2 * time.Hour)
	_, err = svc.Verify(sess.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerify_WrongSecret(t *testing.T) {
	other := auth.NewService(newMemUsers(), config.AuthConfig{JWTSecret: "another-secret"}).
		WithHashCost(bcrypt.MinCost)
	sess, err := other.Register(context.Background(), "a@example.com", "secret1")
	require.NoError(t, err)

	_, err = newAuth(newMemUsers()).Verify(sess.Token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestVerify_RejectsMalformedAndForeignTokens(t *testing.T) {
	svc := newAuth(newMemUsers())

	_, err := svc.Verify("not-a-jwt")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Signed with the right secret but a non-UUID subject.
	claims := jwt.RegisteredClaims{
		Subject:   "admin",
		Issuer:    "flashdeck",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// No expiry.
	claims = jwt.RegisteredClaims{Subject: uuid.NewString(), Issuer: "flashdeck"}
	tok, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)

	// Unexpected algorithm.
	tok, err = jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.RegisteredClaims{
		Subject:   uuid.NewString(),
		Issuer:    "flashdeck",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte("test-secret"))
	require.NoError(t, err)
	_, err = svc.Verify(tok)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}
