package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		maxCards int
		wantCap  string
	}{
		{
			name:     "explicit cap",
			text:     "Cells divide by mitosis.",
			maxCards: 5,
			wantCap:  "Create up to 5 flashcards from the text below.",
		},
		{
			name:     "zero cap uses default",
			text:     "Cells divide by mitosis.",
			maxCards: 0,
			wantCap:  "Create up to 20 flashcards from the text below.",
		},
		{
			name:     "negative cap uses default",
			text:     "x",
			maxCards: -3,
			wantCap:  "Create up to 20 flashcards from the text below.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Build(tt.text, tt.maxCards)
			if !strings.HasPrefix(p.User, tt.wantCap) {
				t.Errorf("user prompt should start with %q, got %q", tt.wantCap, p.User)
			}
			if !strings.HasSuffix(p.User, "TEXT:\n"+tt.text) {
				t.Errorf("user prompt should end with the verbatim source text, got %q", p.User)
			}
		})
	}
}

func TestBuild_SystemDemandsJSON(t *testing.T) {
	p := Build("anything", 10)
	if !strings.Contains(p.System, "Return only valid JSON") {
		t.Errorf("system prompt must demand JSON output, got %q", p.System)
	}
	if !strings.Contains(p.System, "No markdown") {
		t.Errorf("system prompt must forbid prose/markdown, got %q", p.System)
	}
}

func TestBuild_Deterministic(t *testing.T) {
	a := Build("The mitochondria is the powerhouse of the cell.", 7)
	b := Build("The mitochondria is the powerhouse of the cell.", 7)
	if a != b {
		t.Errorf("expected identical prompts, got %+v and %+v", a, b)
	}
}

func TestBuild_SchemaHintShape(t *testing.T) {
	p := Build("text", 1)

	var cards []models.RawFlashcard
	if err := json.Unmarshal([]byte(p.SchemaHint), &cards); err != nil {
		t.Fatalf("schema hint is not a JSON array of cards: %v", err)
	}
	if len(cards) != 1 || cards[0].Front == "" || cards[0].Back == "" {
		t.Errorf("unexpected schema hint: %s", p.SchemaHint)
	}
}

func TestBuild_SourceTextVerbatim(t *testing.T) {
	text := "line one\n\n  indented {\"json\": true}\nTEXT: nested marker"
	p := Build(text, 3)
	if !strings.Contains(p.User, text) {
		t.Errorf("source text must be embedded verbatim")
	}
}
