package models

// RawFlashcard is a candidate card as produced by an inference backend,
// before normalization. Either side may be empty.
type RawFlashcard struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// FlashcardDraft is a normalized, unconfirmed card. Front and Back are
// non-empty and trimmed. Drafts are never persisted directly.
type FlashcardDraft struct {
	Front string `json:"front"`
	Back  string `json:"back"`
}

// DeckSuggestion is the suggested metadata for an imported deck.
type DeckSuggestion struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// DeckImportResult is the payload of a completed import job.
type DeckImportResult struct {
	Deck     DeckSuggestion   `json:"deck"`
	Cards    []FlashcardDraft `json:"cards"`
	Warnings []string         `json:"warnings"`
}
