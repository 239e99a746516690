// Package importer turns raw document text into deck drafts. It owns text
// validation, card normalization, the in-memory job registry and the
// orchestrator that runs each import in the background.
package importer

import (
	"strings"
	"unicode/utf8"
)

// MaxTextLength is the largest accepted input, in characters, after sanitization.
const MaxTextLength = 120_000

const (
	msgTextRequired  = "Text is required."
	msgTextEmpty     = "Text is empty."
	msgTextTruncated = "Text was truncated to fit size limits."
)

// TextValidation is the outcome of ValidateText. When OK is false, Errors is
// non-empty and SanitizedText must not be used.
type TextValidation struct {
	OK            bool
	SanitizedText string
	Errors        []string
	Warnings      []string
}

// ValidateText sanitizes raw request input: NUL bytes are removed, CRLF becomes
// LF and surrounding whitespace is trimmed. Text longer than MaxTextLength is
// truncated with a warning rather than rejected.
func ValidateText(raw any) TextValidation {
	text, ok := raw.(string)
	if !ok {
		return TextValidation{Errors: []string{msgTextRequired}, Warnings: []string{}}
	}

	text = strings.ReplaceAll(text, "\x00", "")
	for strings.Contains(text, "\r\n") {
		text = strings.ReplaceAll(text, "\r\n", "\n")
	}
	text = strings.TrimSpace(text)

	if text == "" {
		return TextValidation{Errors: []string{msgTextEmpty}, Warnings: []string{}}
	}

	warnings := []string{}
	if utf8.RuneCountInString(text) > MaxTextLength {
		text = truncateRunes(text, MaxTextLength)
		warnings = append(warnings, msgTextTruncated)
	}

	return TextValidation{
		OK:            true,
		SanitizedText: text,
		Errors:        []string{},
		Warnings:      warnings,
	}
}

// truncateRunes keeps the first n runes of s.
func truncateRunes(s string, n int) string {
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
