// Package cardkey derives stable card identifiers from card content.
// The same question/answer/context always hashes to the same id, so
// re-ingesting a note source never duplicates cards.
package cardkey

import (
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/conorfennell/retain/internal/domain"
)

// Normalize concatenates the card's content after cleaning each part.
// It trims whitespace, lowercases, and normalizes line endings for each
// field before joining them. Section and difficulty are metadata, not
// identity: editing them must not create a new card.
func Normalize(card *domain.Card) string {
	normalizePart := func(part string) string {
		p := strings.ToLower(part)
		p = strings.TrimSpace(p)
		p = strings.ReplaceAll(p, "\r\n", "\n")
		return p
	}

	q := normalizePart(card.Question)
	a := normalizePart(card.Answer)
	c := normalizePart(card.Context)

	// Joined with a newline so fields stay separated; "question" and
	// "answer" must not collapse into "questionanswer".
	return strings.Join([]string{q, a, c}, "\n")
}

// ID takes a card, normalizes it, and returns its SHA-256 hash as a hex string.
func ID(card *domain.Card) string {
	normalized := Normalize(card)
	hashBytes := sha256.Sum256([]byte(normalized))
	return fmt.Sprintf("%x", hashBytes)
}
