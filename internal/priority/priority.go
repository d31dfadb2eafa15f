package priority

import (
	"strings"

	"github.com/conorfennell/retain/internal/domain"
)

// Scores are clamped to this range before being stored on a card.
const (
	MinScore = 1.0
	MaxScore = 3.0
)

// sectionWeights biases board-exam sections that deserve more frequent
// review. Unknown sections fall back to 1.0.
var sectionWeights = map[string]float64{
	"Physics & Safety":    1.5,
	"Cardiothoracic":      1.4,
	"Neuroradiology":      1.3,
	"Abdominal & Pelvic":  1.3,
	"Nuclear Medicine":    1.2,
	"Musculoskeletal":     1.1,
	"Breast Imaging":      1.1,
	"Pediatric Radiology": 1.0,
}

var difficultyWeights = map[domain.Difficulty]float64{
	domain.Hard:         1.3,
	domain.Intermediate: 1.0,
	domain.Easy:         0.8,
}

// highYieldKeywords each add 0.1 to the score when they appear anywhere
// in the card's text, case-insensitively.
var highYieldKeywords = []string{
	"emergency",
	"critical",
	"acute",
	"radiation safety",
	"dose",
	"contrast reaction",
	"differential diagnosis",
	"first-line",
}

// Score computes a card's static priority weight from its section,
// difficulty, and content. Higher scores mean shorter review intervals.
// It is a pure function: the same card always yields the same score.
func Score(card *domain.Card) float64 {
	score := 1.0

	if w, ok := sectionWeights[card.Section]; ok {
		score *= w
	}
	if w, ok := difficultyWeights[card.Difficulty]; ok {
		score *= w
	}

	text := strings.ToLower(strings.Join([]string{
		card.Question, card.Answer, card.Context, card.Section,
	}, "\n"))
	for _, keyword := range highYieldKeywords {
		if strings.Contains(text, keyword) {
			score += 0.1
		}
	}

	if score < MinScore {
		return MinScore
	}
	if score > MaxScore {
		return MaxScore
	}
	return score
}
