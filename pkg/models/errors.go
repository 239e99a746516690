package models

import "errors"

// Inference errors shared by every FlashcardGenerator implementation.
var (
	ErrProviderUnavailable = errors.New("inference provider unavailable")
	ErrInferenceTimeout    = errors.New("inference timed out")
)
