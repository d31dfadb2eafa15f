package cardkey

import (
	"testing"

	"github.com/conorfennell/retain/internal/domain"
)

func TestNormalize(t *testing.T) {
	card := &domain.Card{
		Question: "  What is HTMX? \r\n",
		Answer:   "A library for AJAX.",
		Context:  "Web Development",
	}
	expected := "what is htmx?\na library for ajax.\nweb development"
	normalized := Normalize(card)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestID(t *testing.T) {
	t.Run("generates correct hash", func(t *testing.T) {
		card := &domain.Card{
			Question: "Q",
			Answer:   "A",
			Context:  "C",
		}
		// Hash for "q\na\nc"
		expectedID := "eb2456c1ee4f36305069dd0f63a30e92d5443129f5e8fd9a5ec490fbc4d4d8a2"
		id := ID(card)

		if id != expectedID {
			t.Errorf("Expected id '%s', but got '%s'", expectedID, id)
		}
	})

	t.Run("id is deterministic", func(t *testing.T) {
		card1 := &domain.Card{Question: "Test"}
		card2 := &domain.Card{Question: "Test"}
		if ID(card1) != ID(card2) {
			t.Error("Expected ids for identical cards to be the same")
		}
	})

	t.Run("normalization produces same id", func(t *testing.T) {
		card1 := &domain.Card{
			Question: "  what is go? ",
			Answer:   "A programming language.",
		}
		card2 := &domain.Card{
			Question: "What Is Go?",
			Answer:   "A programming language.",
		}
		if ID(card1) != ID(card2) {
			t.Error("Expected ids to be the same after normalization, but they were different.")
		}
	})

	t.Run("different cards have different ids", func(t *testing.T) {
		card1 := &domain.Card{Question: "Card 1"}
		card2 := &domain.Card{Question: "Card 2"}
		if ID(card1) == ID(card2) {
			t.Error("Expected ids for different cards to be different")
		}
	})

	t.Run("metadata does not change identity", func(t *testing.T) {
		card1 := &domain.Card{Question: "Q", Answer: "A", Section: "Neuroradiology", Difficulty: domain.Hard}
		card2 := &domain.Card{Question: "Q", Answer: "A", Section: "Cardiothoracic", Difficulty: domain.Easy}
		if ID(card1) != ID(card2) {
			t.Error("Expected section/difficulty changes to keep the same id")
		}
	})
}
