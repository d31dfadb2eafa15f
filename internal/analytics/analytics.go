// Package analytics aggregates card state into a read-only learning
// report and rule-based study recommendations. It never mutates cards
// and never fails on an empty store: no data yields a zero-valued
// report.
package analytics

import (
	"fmt"
	"time"

	"github.com/conorfennell/retain/internal/domain"
)

// Thresholds for report classification and recommendations.
const (
	difficultAccuracy   = 0.6
	difficultMinReviews = 3
	overloadDueCount    = 50
	lowRetention        = 0.7
	highRetention       = 0.9
	highLearningShare   = 0.6
)

// CardSummary identifies a card in the difficult/mastered lists.
type CardSummary struct {
	CardID      string  `json:"card_id"`
	Accuracy    float64 `json:"accuracy"`
	ReviewCount int     `json:"review_count"`
	Section     string  `json:"section"`
}

// Report is the aggregated view over all cards as of one moment.
type Report struct {
	GeneratedAt         time.Time              `json:"generated_at"`
	WindowDays          int                    `json:"window_days"`
	TotalCards          int                    `json:"total_cards"`
	CardsDueToday       int                    `json:"cards_due_today"`
	MasteryDistribution map[domain.Mastery]int `json:"mastery_distribution"`
	SectionDistribution map[string]int         `json:"section_distribution"`
	AverageAccuracy     float64                `json:"average_accuracy"`
	RetentionRate       float64                `json:"retention_rate"`
	DifficultCards      []CardSummary          `json:"difficult_cards"`
	MasteredCards       []CardSummary          `json:"mastered_cards"`
}

// Source supplies the card snapshots the reporter reads.
type Source interface {
	AllCards() ([]*domain.Card, error)
	DueCards(asOf time.Time) ([]*domain.Card, error)
}

// Reporter builds learning reports from a card source.
type Reporter struct {
	source Source
	now    func() time.Time
}

// NewReporter creates a reporter over the given card source.
func NewReporter(source Source) *Reporter {
	return &Reporter{source: source, now: time.Now}
}

// SetClock replaces the time source. Intended for tests.
func (r *Reporter) SetClock(now func() time.Time) {
	r.now = now
}

// Learning aggregates every card into a report for the given window.
func (r *Reporter) Learning(windowDays int) (*Report, error) {
	now := r.now()
	cards, err := r.source.AllCards()
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}
	due, err := r.source.DueCards(now)
	if err != nil {
		return nil, fmt.Errorf("analytics: %w", err)
	}

	report := &Report{
		GeneratedAt:   now,
		WindowDays:    windowDays,
		TotalCards:    len(cards),
		CardsDueToday: len(due),
		MasteryDistribution: map[domain.Mastery]int{
			domain.Learning:  0,
			domain.Reviewing: 0,
			domain.Mastered:  0,
		},
		SectionDistribution: map[string]int{},
	}

	var totalReviews, totalCorrect int
	var retained int

	for _, card := range cards {
		report.MasteryDistribution[card.Mastery]++
		report.SectionDistribution[card.Section]++

		if card.Mastery == domain.Reviewing || card.Mastery == domain.Mastered {
			retained++
		}

		if card.ReviewCount == 0 {
			continue
		}
		totalReviews += card.ReviewCount
		totalCorrect += card.CorrectCount

		accuracy := card.Accuracy()
		if accuracy < difficultAccuracy && card.ReviewCount >= difficultMinReviews {
			report.DifficultCards = append(report.DifficultCards, CardSummary{
				CardID:      card.ID,
				Accuracy:    accuracy,
				ReviewCount: card.ReviewCount,
				Section:     card.Section,
			})
		}
		if card.Mastery == domain.Mastered {
			report.MasteredCards = append(report.MasteredCards, CardSummary{
				CardID:      card.ID,
				Accuracy:    accuracy,
				ReviewCount: card.ReviewCount,
				Section:     card.Section,
			})
		}
	}

	if totalReviews > 0 {
		report.AverageAccuracy = float64(totalCorrect) / float64(totalReviews)
	}
	if len(cards) > 0 {
		report.RetentionRate = float64(retained) / float64(len(cards))
	}
	return report, nil
}

// Recommendations derives study advice from a report. The rules are
// deterministic: the same report always yields the same strings.
func Recommendations(report *Report) []string {
	var recs []string

	switch {
	case report.CardsDueToday > overloadDueCount:
		recs = append(recs, fmt.Sprintf("%d cards due today - consider extending study time", report.CardsDueToday))
	case report.CardsDueToday > 0:
		recs = append(recs, fmt.Sprintf("%d cards due for review today", report.CardsDueToday))
	}

	if report.TotalCards > 0 {
		learningShare := float64(report.MasteryDistribution[domain.Learning]) / float64(report.TotalCards)
		if learningShare > highLearningShare {
			recs = append(recs, "Focus on consistent daily review to move cards from learning to reviewing")
		}
	}

	if n := len(report.DifficultCards); n > 0 {
		recs = append(recs, fmt.Sprintf("%d cards need extra attention - consider creating additional study materials", n))
	}

	if report.RetentionRate < lowRetention {
		recs = append(recs, "Consider reducing daily new cards and focusing on review")
	} else if report.RetentionRate > highRetention {
		recs = append(recs, "Excellent retention! You can increase daily new cards")
	}

	return recs
}
