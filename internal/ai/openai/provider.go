// Package openai implements the live flashcard backend against an
// OpenAI-compatible chat-completions API. OpenRouter is the default endpoint.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/sony/gobreaker"

	"github.com/kiranshivaraju/flashdeck/internal/config"
	"github.com/kiranshivaraju/flashdeck/pkg/models"
	"github.com/kiranshivaraju/flashdeck/pkg/prompt"
)

const (
	WarningMissingKey  = "OPENROUTER_API_KEY is not configured."
	WarningEmpty       = "Inference response was empty."
	WarningParse       = "Failed to parse inference response as JSON."
	WarningNotArray    = "Inference response was not an array."
	WarningUnavailable = "Inference backend is temporarily unavailable."

	temperature = 0.2

	// breakerThreshold is the number of consecutive upstream failures that opens the breaker.
	breakerThreshold = 5
	breakerCooldown  = 30 * time.Second
)

// Provider implements models.FlashcardGenerator using chat completions.
type Provider struct {
	client  openai.Client
	model   string
	hasKey  bool
	breaker *gobreaker.CircuitBreaker
}

func NewProvider(cfg config.OpenRouterConfig) *Provider {
	base := cfg.BaseURL
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(base),
		option.WithMaxRetries(0),
		option.WithHeader("X-Title", "FlashDeck"),
	)

	return &Provider{
		client: client,
		model:  cfg.Model,
		hasKey: cfg.APIKey != "",
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "openrouter",
			Timeout: breakerCooldown,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= breakerThreshold
			},
			IsSuccessful: isSuccessful,
		}),
	}
}

func (p *Provider) Name() string { return "openrouter" }

func (p *Provider) Generate(ctx context.Context, req models.GenerationRequest) (models.GenerationResult, error) {
	if !p.hasKey {
		return degraded(WarningMissingKey), nil
	}

	pr := req.Prompt
	if pr.User == "" {
		pr = prompt.Build(req.SourceText, req.MaxCards)
	}

	params := openai.ChatCompletionNewParams{
		Model: shared.ChatModel(p.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(pr.System),
			openai.UserMessage(pr.User),
		},
		Temperature: openai.Float(temperature),
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.client.Chat.Completions.New(ctx, params)
	})
	if err != nil {
		return handleError(ctx, err)
	}

	completion := out.(*openai.ChatCompletion)
	if len(completion.Choices) == 0 {
		return degraded(WarningEmpty), nil
	}
	content := strings.TrimSpace(completion.Choices[0].Message.Content)
	if content == "" {
		return degraded(WarningEmpty), nil
	}

	cards, warning := parseCards(content)
	if warning != "" {
		return degraded(warning), nil
	}
	return models.GenerationResult{Cards: cards, Warnings: []string{}}, nil
}

func handleError(ctx context.Context, err error) (models.GenerationResult, error) {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return degraded(WarningUnavailable), nil
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return degraded(fmt.Sprintf("Inference request failed with status %d.", apiErr.StatusCode)), nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return models.GenerationResult{}, fmt.Errorf("%w: %v", models.ErrInferenceTimeout, err)
	}
	return models.GenerationResult{}, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
}

// isSuccessful decides what the breaker counts as an upstream failure:
// transport errors, 429 and 5xx responses. Client-side cancellation and
// other 4xx responses do not count.
func isSuccessful(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return true
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode < http.StatusInternalServerError && apiErr.StatusCode != http.StatusTooManyRequests
	}
	return false
}

func degraded(warning string) models.GenerationResult {
	return models.GenerationResult{Cards: []models.RawFlashcard{}, Warnings: []string{warning}}
}

// parseCards decodes a JSON array of {front, back} objects. Entries that are
// not objects, or whose sides are not strings, decode as empty cards.
func parseCards(content string) ([]models.RawFlashcard, string) {
	var parsed any
	if err := json.Unmarshal([]byte(stripCodeFence(content)), &parsed); err != nil {
		return nil, WarningParse
	}
	items, ok := parsed.([]any)
	if !ok {
		return nil, WarningNotArray
	}

	cards := make([]models.RawFlashcard, 0, len(items))
	for _, item := range items {
		var card models.RawFlashcard
		if obj, ok := item.(map[string]any); ok {
			card.Front, _ = obj["front"].(string)
			card.Back, _ = obj["back"].(string)
		}
		cards = append(cards, card)
	}
	return cards, ""
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:] // drop the language tag line
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var _ models.FlashcardGenerator = (*Provider)(nil)
