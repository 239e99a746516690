// Package models contains shared data models used across the FlashDeck codebase.
package models

import (
	"context"
)

// FlashcardGenerator is the core interface that all inference backends must implement.
// Callers depend on this interface, never on a concrete backend.
type FlashcardGenerator interface {
	// Generate turns source text into candidate flashcards. Degraded outcomes
	// (missing credentials, unusable model output) are reported as warnings;
	// an error means the generation itself could not run.
	Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error)
	// Name returns the backend identifier (e.g., "mock", "openrouter").
	Name() string
}

// Prompt is a rendered generation request.
type Prompt struct {
	System     string
	User       string
	SchemaHint string
}

// GenerationRequest is the input to a generation call.
type GenerationRequest struct {
	SourceText string
	MaxCards   int
	Prompt     Prompt // Optional; backends that need one build it when empty
}

// GenerationResult is the raw output of a generation call.
type GenerationResult struct {
	Cards    []RawFlashcard
	Warnings []string
}
