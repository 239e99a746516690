package ai

import (
	"fmt"

	"github.com/kiranshivaraju/flashdeck/internal/ai/mock"
	"github.com/kiranshivaraju/flashdeck/internal/ai/openai"
	"github.com/kiranshivaraju/flashdeck/internal/config"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// NewProvider constructs the inference backend selected by config.
// Called once at server startup; the choice never changes at runtime.
func NewProvider(cfg config.AIConfig) (models.FlashcardGenerator, error) {
	switch cfg.Mode {
	case config.ModeMock:
		return mock.NewProvider(), nil
	case config.ModeLive:
		return openai.NewProvider(cfg.OpenRouter), nil
	default:
		return nil, fmt.Errorf("unknown inference mode %q: must be one of mock, live", cfg.Mode)
	}
}
