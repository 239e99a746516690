package importer

import (
	"strings"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

const msgAllCardsEmpty = "All generated cards were empty after normalization."

// NormalizeCards trims raw cards, drops entries with an empty side and removes
// case-insensitive duplicates of the (front, back) pair. First-seen order is kept.
// Returns an empty slice for empty input (never nil).
func NormalizeCards(raw []models.RawFlashcard) ([]models.FlashcardDraft, []string) {
	type cardKey struct{ front, back string }

	cards := make([]models.FlashcardDraft, 0, len(raw))
	warnings := []string{}
	seen := make(map[cardKey]struct{}, len(raw))

	for _, rc := range raw {
		front := strings.TrimSpace(rc.Front)
		back := strings.TrimSpace(rc.Back)
		if front == "" || back == "" {
			continue
		}

		key := cardKey{strings.ToLower(front), strings.ToLower(back)}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		cards = append(cards, models.FlashcardDraft{Front: front, Back: back})
	}

	if len(raw) > 0 && len(cards) == 0 {
		warnings = append(warnings, msgAllCardsEmpty)
	}
	return cards, warnings
}
