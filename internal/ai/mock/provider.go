// Package mock provides a deterministic, offline FlashcardGenerator. It backs
// FLASHCARD_LLM_MODE=mock and doubles as a configurable fake in tests.
package mock

import (
	"context"
	"strings"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

const (
	WarningMockMode = "Mock LLM mode enabled. Using placeholder flashcards."
	WarningNoText   = "No content provided for mock generation."

	previewWords = 20
)

// Provider satisfies models.FlashcardGenerator without any network access.
type Provider struct {
	Name_        string
	GenerateFunc func(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error)
}

func (p *Provider) Name() string { return p.Name_ }

func (p *Provider) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	if p.GenerateFunc != nil {
		return p.GenerateFunc(ctx, req)
	}
	return models.GenerationResult{}, nil
}

// NewProvider returns the placeholder generator: two cards echoing the start of
// the text plus a mock-mode warning, or no cards and a warning for empty text.
func NewProvider() *Provider {
	return &Provider{
		Name_:        "mock",
		GenerateFunc: placeholderCards,
	}
}

func placeholderCards(_ context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	words := strings.Fields(req.SourceText)
	if len(words) == 0 {
		return models.GenerationResult{
			Cards:    []models.RawFlashcard{},
			Warnings: []string{WarningNoText},
		}, nil
	}

	preview := words
	if len(preview) > previewWords {
		preview = preview[:previewWords]
	}

	return models.GenerationResult{
		Cards: []models.RawFlashcard{
			{
				Front: "What is the main topic of the uploaded text?",
				Back:  strings.Join(preview, " "),
			},
			{
				Front: "List one key term from the document.",
				Back:  words[0],
			},
		},
		Warnings: []string{WarningMockMode},
	}, nil
}

// NewStaticProvider returns a Provider that always yields the given cards and warnings.
func NewStaticProvider(cards []models.RawFlashcard, warnings ...string) *Provider {
	return &Provider{
		Name_: "mock-static",
		GenerateFunc: func(_ context.Context, _ models.GenerationRequest) (models.GenerationResult, error) {
			return models.GenerationResult{Cards: cards, Warnings: warnings}, nil
		},
	}
}

// NewFailingProvider returns a Provider that always returns the given error.
func NewFailingProvider(err error) *Provider {
	return &Provider{
		Name_: "mock-failing",
		GenerateFunc: func(_ context.Context, _ models.GenerationRequest) (models.GenerationResult, error) {
			return models.GenerationResult{}, err
		},
	}
}

// NewBlockingProvider returns a Provider that blocks until the context is cancelled.
func NewBlockingProvider() *Provider {
	return &Provider{
		Name_: "mock-blocking",
		GenerateFunc: func(ctx context.Context, _ models.GenerationRequest) (models.GenerationResult, error) {
			<-ctx.Done()
			return models.GenerationResult{}, models.ErrInferenceTimeout
		},
	}
}

// Compile-time check that Provider implements FlashcardGenerator.
var _ models.FlashcardGenerator = (*Provider)(nil)
