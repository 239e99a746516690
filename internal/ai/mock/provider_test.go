package mock_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kiranshivaraju/flashdeck/internal/ai/mock"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(text string) models.GenerationRequest {
	return models.GenerationRequest{SourceText: text, MaxCards: 20}
}

// --- NewProvider ---

func TestNewProvider_Name(t *testing.T) {
	p := mock.NewProvider()
	assert.Equal(t, "mock", p.Name())
}

func TestNewProvider_TwoCardsOneWarning(t *testing.T) {
	p := mock.NewProvider()
	res, err := p.Generate(context.Background(), request("The mitochondria is the powerhouse of the cell."))

	require.NoError(t, err)
	require.Len(t, res.Cards, 2)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, mock.WarningMockMode, res.Warnings[0])

	assert.Equal(t, "The mitochondria is the powerhouse of the cell.", res.Cards[0].Back)
	assert.Equal(t, "The", res.Cards[1].Back)
}

func TestNewProvider_PreviewCappedAtTwentyWords(t *testing.T) {
	words := make([]string, 35)
	for i := range words {
		words[i] = "w" + string(rune('a'+i%26))
	}
	p := mock.NewProvider()
	res, err := p.Generate(context.Background(), request(strings.Join(words, "\n\t ")))

	require.NoError(t, err)
	require.Len(t, res.Cards, 2)
	assert.Equal(t, strings.Join(words[:20], " "), res.Cards[0].Back)
}

func TestNewProvider_EmptyText(t *testing.T) {
	p := mock.NewProvider()

	for _, text := range []string{"", "   \n\t  "} {
		res, err := p.Generate(context.Background(), request(text))
		require.NoError(t, err)
		assert.Empty(t, res.Cards)
		require.Len(t, res.Warnings, 1)
		assert.Equal(t, mock.WarningNoText, res.Warnings[0])
	}
}

func TestNewProvider_Deterministic(t *testing.T) {
	p := mock.NewProvider()
	a, err := p.Generate(context.Background(), request("alpha beta gamma"))
	require.NoError(t, err)
	b, err := p.Generate(context.Background(), request("alpha beta gamma"))
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

// --- helpers ---

func TestNewStaticProvider(t *testing.T) {
	cards := []models.RawFlashcard{{Front: "Q", Back: "A"}}
	p := mock.NewStaticProvider(cards, "w1")

	res, err := p.Generate(context.Background(), request("ignored"))
	require.NoError(t, err)
	assert.Equal(t, cards, res.Cards)
	assert.Equal(t, []string{"w1"}, res.Warnings)
}

func TestNewFailingProvider(t *testing.T) {
	want := errors.New("boom")
	p := mock.NewFailingProvider(want)

	_, err := p.Generate(context.Background(), request("text"))
	assert.ErrorIs(t, err, want)
	assert.Equal(t, "mock-failing", p.Name())
}

func TestNewBlockingProvider(t *testing.T) {
	p := mock.NewBlockingProvider()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := p.Generate(ctx, request("text"))
	assert.ErrorIs(t, err, models.ErrInferenceTimeout)
}

func TestProvider_ZeroValue(t *testing.T) {
	p := &mock.Provider{}
	res, err := p.Generate(context.Background(), request("text"))
	require.NoError(t, err)
	assert.Empty(t, res.Cards)
}
