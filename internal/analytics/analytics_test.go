package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/retain/internal/domain"
)

var testNow = time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)

type staticSource struct {
	cards []*domain.Card
}

func (s *staticSource) AllCards() ([]*domain.Card, error) {
	return s.cards, nil
}

func (s *staticSource) DueCards(asOf time.Time) ([]*domain.Card, error) {
	var due []*domain.Card
	for _, card := range s.cards {
		if !card.NextReview.After(asOf) {
			due = append(due, card)
		}
	}
	return due, nil
}

func card(id, section string, mastery domain.Mastery, reviews, correct int, due time.Time) *domain.Card {
	return &domain.Card{
		ID:           id,
		Section:      section,
		Mastery:      mastery,
		ReviewCount:  reviews,
		CorrectCount: correct,
		NextReview:   due,
	}
}

func newReporter(cards ...*domain.Card) *Reporter {
	r := NewReporter(&staticSource{cards: cards})
	r.SetClock(func() time.Time { return testNow })
	return r
}

func TestLearningReport(t *testing.T) {
	later := testNow.AddDate(0, 0, 3)
	r := newReporter(
		card("a", "Physics & Safety", domain.Mastered, 6, 6, later),
		card("b", "Physics & Safety", domain.Reviewing, 4, 3, testNow),
		card("c", "Neuroradiology", domain.Learning, 4, 1, testNow),
		card("d", "Neuroradiology", domain.Learning, 0, 0, testNow),
	)

	report, err := r.Learning(30)
	require.NoError(t, err)

	assert.Equal(t, 4, report.TotalCards)
	assert.Equal(t, 3, report.CardsDueToday)
	assert.Equal(t, 2, report.MasteryDistribution[domain.Learning])
	assert.Equal(t, 1, report.MasteryDistribution[domain.Reviewing])
	assert.Equal(t, 1, report.MasteryDistribution[domain.Mastered])
	assert.Equal(t, 2, report.SectionDistribution["Physics & Safety"])
	assert.Equal(t, 2, report.SectionDistribution["Neuroradiology"])

	// 10 correct out of 14 reviews across the reviewed cards.
	assert.InDelta(t, 10.0/14.0, report.AverageAccuracy, 1e-9)
	// 2 of 4 cards are at reviewing or mastered.
	assert.InDelta(t, 0.5, report.RetentionRate, 1e-9)

	require.Len(t, report.DifficultCards, 1)
	assert.Equal(t, "c", report.DifficultCards[0].CardID)
	require.Len(t, report.MasteredCards, 1)
	assert.Equal(t, "a", report.MasteredCards[0].CardID)
}

func TestLearningReportEmptyStore(t *testing.T) {
	report, err := newReporter().Learning(30)
	require.NoError(t, err)

	assert.Equal(t, 0, report.TotalCards)
	assert.Equal(t, 0, report.CardsDueToday)
	assert.Zero(t, report.AverageAccuracy)
	assert.Zero(t, report.RetentionRate)
	assert.Empty(t, report.DifficultCards)
	assert.Empty(t, report.MasteredCards)
}

func TestRecommendations(t *testing.T) {
	t.Run("overload warning past the due threshold", func(t *testing.T) {
		report := &Report{CardsDueToday: 60, RetentionRate: 0.8}
		recs := Recommendations(report)
		require.NotEmpty(t, recs)
		assert.Contains(t, recs[0], "60 cards due today")
	})

	t.Run("plain due notice below the threshold", func(t *testing.T) {
		report := &Report{CardsDueToday: 5, RetentionRate: 0.8}
		recs := Recommendations(report)
		require.NotEmpty(t, recs)
		assert.Contains(t, recs[0], "5 cards due for review today")
	})

	t.Run("low retention suggests focusing on review", func(t *testing.T) {
		report := &Report{RetentionRate: 0.5}
		assert.Contains(t, Recommendations(report), "Consider reducing daily new cards and focusing on review")
	})

	t.Run("high retention suggests more new cards", func(t *testing.T) {
		report := &Report{RetentionRate: 0.95}
		assert.Contains(t, Recommendations(report), "Excellent retention! You can increase daily new cards")
	})

	t.Run("learning-heavy deck suggests daily consistency", func(t *testing.T) {
		report := &Report{
			TotalCards:          10,
			RetentionRate:       0.8,
			MasteryDistribution: map[domain.Mastery]int{domain.Learning: 7},
		}
		assert.Contains(t, Recommendations(report), "Focus on consistent daily review to move cards from learning to reviewing")
	})

	t.Run("deterministic for the same report", func(t *testing.T) {
		report := &Report{CardsDueToday: 12, RetentionRate: 0.6}
		assert.Equal(t, Recommendations(report), Recommendations(report))
	})
}
