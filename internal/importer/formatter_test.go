package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kiranshivaraju/flashdeck/pkg/models"
)

func TestNormalizeCards_Empty(t *testing.T) {
	cards, warnings := NormalizeCards(nil)
	assert.NotNil(t, cards)
	assert.Empty(t, cards)
	assert.Empty(t, warnings)
}

func TestNormalizeCards_DedupCaseInsensitive(t *testing.T) {
	cards, warnings := NormalizeCards([]models.RawFlashcard{
		{Front: "A", Back: "b"},
		{Front: "a", Back: "B"},
	})
	assert.Equal(t, []models.FlashcardDraft{{Front: "A", Back: "b"}}, cards)
	assert.Empty(t, warnings)
}

func TestNormalizeCards_SameFrontDifferentBackKept(t *testing.T) {
	cards, _ := NormalizeCards([]models.RawFlashcard{
		{Front: "Capital of France?", Back: "Paris"},
		{Front: "capital of france?", Back: "Lyon"},
	})
	assert.Len(t, cards, 2)
}

func TestNormalizeCards_TrimsAndDropsEmpty(t *testing.T) {
	cards, warnings := NormalizeCards([]models.RawFlashcard{
		{Front: "  What is ATP?  ", Back: "\tEnergy currency\n"},
		{Front: "", Back: "x"},
		{Front: "orphan", Back: "   "},
		{},
	})
	assert.Equal(t, []models.FlashcardDraft{{Front: "What is ATP?", Back: "Energy currency"}}, cards)
	assert.Empty(t, warnings)
}

func TestNormalizeCards_AllEmptyWarns(t *testing.T) {
	cards, warnings := NormalizeCards([]models.RawFlashcard{{Front: "", Back: "x"}})
	assert.Empty(t, cards)
	assert.Equal(t, []string{msgAllCardsEmpty}, warnings)
}

func TestNormalizeCards_PreservesFirstSeenOrder(t *testing.T) {
	cards, _ := NormalizeCards([]models.RawFlashcard{
		{Front: "Q3", Back: "A3"},
		{Front: "Q1", Back: "A1"},
		{Front: "q3", Back: "a3"},
		{Front: "Q2", Back: "A2"},
	})
	fronts := make([]string, len(cards))
	for i, c := range cards {
		fronts[i] = c.Front
	}
	assert.Equal(t, []string{"Q3", "Q1", "Q2"}, fronts)
}

func TestNormalizeCards_DedupAfterTrim(t *testing.T) {
	cards, _ := NormalizeCards([]models.RawFlashcard{
		{Front: "Q", Back: "A"},
		{Front: " q ", Back: " a "},
	})
	assert.Len(t, cards, 1)
}
