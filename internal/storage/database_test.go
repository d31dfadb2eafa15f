package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/retain/internal/domain"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "retain.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testCard(id string) *domain.Card {
	created := time.Date(2026, 8, 24, 9, 0, 0, 0, time.UTC)
	return &domain.Card{
		ID:            id,
		Question:      "What is the dose limit?",
		Answer:        "50 mSv per year.",
		Context:       "Occupational exposure.",
		Section:       "Physics & Safety",
		Difficulty:    domain.Hard,
		CreatedAt:     created,
		NextReview:    created,
		EaseFactor:    2.5,
		Mastery:       domain.Learning,
		PriorityScore: 2.05,
		ResponseTimes: []float64{},
	}
}

func TestCardRoundTrip(t *testing.T) {
	db := openTestDB(t)
	card := testCard("c1")

	require.NoError(t, db.InsertCard(card))

	loaded, err := db.LoadCard("c1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, card.Question, loaded.Question)
	assert.Equal(t, card.Section, loaded.Section)
	assert.Equal(t, domain.Hard, loaded.Difficulty)
	assert.Equal(t, domain.Learning, loaded.Mastery)
	assert.Equal(t, 2.05, loaded.PriorityScore)
	assert.Nil(t, loaded.LastReview)
	assert.True(t, loaded.NextReview.Equal(card.NextReview))
	assert.Empty(t, loaded.ResponseTimes)
}

func TestLoadCardMissing(t *testing.T) {
	db := openTestDB(t)

	loaded, err := db.LoadCard("nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveCardUpdatesState(t *testing.T) {
	db := openTestDB(t)
	card := testCard("c1")
	require.NoError(t, db.InsertCard(card))

	reviewedAt := card.CreatedAt.Add(time.Hour)
	card.LastReview = &reviewedAt
	card.NextReview = reviewedAt.Add(24 * time.Hour)
	card.ReviewCount = 1
	card.CorrectCount = 1
	card.IntervalIndex = 0
	card.EaseFactor = 2.5
	card.Mastery = domain.Learning
	card.ResponseTimes = []float64{18.5}

	require.NoError(t, db.SaveCard(card))

	loaded, err := db.LoadCard("c1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 1, loaded.ReviewCount)
	require.NotNil(t, loaded.LastReview)
	assert.True(t, loaded.LastReview.Equal(reviewedAt))
	assert.Equal(t, []float64{18.5}, loaded.ResponseTimes)
}

func TestSaveCardUnknownRow(t *testing.T) {
	db := openTestDB(t)
	err := db.SaveCard(testCard("ghost"))
	assert.Error(t, err)
}

func TestLoadAllCards(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertCard(testCard("c1")))
	require.NoError(t, db.InsertCard(testCard("c2")))

	cards, err := db.LoadAllCards()
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}

func TestReviewLogRoundTrip(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertCard(testCard("c1")))

	at := time.Date(2026, 8, 24, 10, 0, 0, 0, time.UTC)
	require.NoError(t, db.AppendReview(domain.ReviewLog{
		CardID:       "c1",
		Timestamp:    at,
		Correct:      true,
		ResponseTime: 12.5,
	}))
	require.NoError(t, db.AppendReview(domain.ReviewLog{
		CardID:       "c1",
		Timestamp:    at.Add(time.Hour),
		Correct:      false,
		ResponseTime: 40,
	}))

	logs, err := db.LoadReviews()
	require.NoError(t, err)
	require.Len(t, logs, 2)
	assert.True(t, logs[0].Correct)
	assert.False(t, logs[1].Correct)
	assert.Equal(t, 12.5, logs[0].ResponseTime)
	assert.True(t, logs[0].Timestamp.Before(logs[1].Timestamp))
}

func TestSourceLifecycle(t *testing.T) {
	db := openTestDB(t)

	id, err := db.InsertSource("/notes/physics", "local")
	require.NoError(t, err)

	found, err := db.FindSourceByPath("/notes/physics")
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, id, found.ID)
	assert.Equal(t, "local", found.Type)

	missing, err := db.FindSourceByPath("/notes/none")
	require.NoError(t, err)
	assert.Nil(t, missing)

	require.NoError(t, db.UpdateSourceLastScanned(id))
	sources, err := db.GetAllSources()
	require.NoError(t, err)
	require.Len(t, sources, 1)
	assert.True(t, sources[0].LastScanned.Valid)

	card := testCard("from-source")
	card.SourceID = id
	require.NoError(t, db.InsertCard(card))

	bySource, err := db.GetCardsBySourceID(id)
	require.NoError(t, err)
	require.Len(t, bySource, 1)
	assert.Equal(t, "from-source", bySource[0].ID)

	// Deleting a source keeps its cards but detaches them.
	require.NoError(t, db.DeleteSource(id))
	sources, err = db.GetAllSources()
	require.NoError(t, err)
	assert.Empty(t, sources)

	kept, err := db.LoadCard("from-source")
	require.NoError(t, err)
	require.NotNil(t, kept)
	assert.Zero(t, kept.SourceID)
}

func TestDeleteCardRemovesHistory(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, db.InsertCard(testCard("c1")))
	require.NoError(t, db.AppendReview(domain.ReviewLog{
		CardID:       "c1",
		Timestamp:    time.Now(),
		Correct:      true,
		ResponseTime: 10,
	}))

	require.NoError(t, db.DeleteCard("c1"))

	loaded, err := db.LoadCard("c1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	logs, err := db.LoadReviews()
	require.NoError(t, err)
	assert.Empty(t, logs)
}
