// Package prompt renders flashcard generation prompts.
package prompt

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

// DefaultMaxCards caps generated cards when the caller does not override it.
const DefaultMaxCards = 20

const systemPrompt = "You generate study flashcards. Return only valid JSON. No markdown."

// schemaHint illustrates the expected output shape. It is informational only.
var schemaHint = mustJSON([]models.RawFlashcard{
	{Front: "Question about concept", Back: "Concise answer"},
})

// Build returns the prompt for generating up to maxCards flashcards from
// sourceText. It is a pure function: equal inputs give equal prompts.
// maxCards <= 0 falls back to DefaultMaxCards.
func Build(sourceText string, maxCards int) models.Prompt {
	if maxCards <= 0 {
		maxCards = DefaultMaxCards
	}

	user := strings.Join([]string{
		fmt.Sprintf("Create up to %d flashcards from the text below.", maxCards),
		"Return a JSON array where each item has 'front' and 'back' fields.",
		"Keep cards concise and factual.",
		"",
		"TEXT:",
		sourceText,
	}, "\n")

	return models.Prompt{
		System:     systemPrompt,
		User:       user,
		SchemaHint: schemaHint,
	}
}

func mustJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}
