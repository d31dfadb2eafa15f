package tracker

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(offset int, hour int) time.Time {
	return time.Date(2026, 8, 24, hour, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

var today = day(0, 20)

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil, today)
	assert.Zero(t, s.TotalReviews)
	assert.Zero(t, s.CurrentStreak)
	assert.Zero(t, s.LongestStreak)
	assert.Empty(t, s.LastStudyDay)
}

func TestSummarizeTotals(t *testing.T) {
	events := []Event{
		{Timestamp: day(0, 9), Correct: true},
		{Timestamp: day(0, 10), Correct: false},
		{Timestamp: day(0, 11), Correct: true},
	}
	s := Summarize(events, today)

	assert.Equal(t, 3, s.TotalReviews)
	assert.Equal(t, 2, s.TotalCorrect)
	assert.InDelta(t, 2.0/3.0, s.OverallAccuracy, 1e-9)
	assert.Equal(t, 1, s.StudyDays)
	assert.Equal(t, 3, s.DailyReviews["2026-08-24"])
}

func TestStreaks(t *testing.T) {
	t.Run("consecutive days ending today", func(t *testing.T) {
		events := []Event{
			{Timestamp: day(-2, 9)},
			{Timestamp: day(-1, 9)},
			{Timestamp: day(0, 9)},
		}
		s := Summarize(events, today)
		assert.Equal(t, 3, s.CurrentStreak)
		assert.Equal(t, 3, s.LongestStreak)
	})

	t.Run("studying yesterday keeps the streak alive", func(t *testing.T) {
		events := []Event{
			{Timestamp: day(-2, 9)},
			{Timestamp: day(-1, 9)},
		}
		s := Summarize(events, today)
		assert.Equal(t, 2, s.CurrentStreak)
	})

	t.Run("a two-day gap ends the current streak", func(t *testing.T) {
		events := []Event{
			{Timestamp: day(-5, 9)},
			{Timestamp: day(-4, 9)},
			{Timestamp: day(-3, 9)},
		}
		s := Summarize(events, today)
		assert.Equal(t, 0, s.CurrentStreak)
		assert.Equal(t, 3, s.LongestStreak)
	})

	t.Run("gap in history splits runs", func(t *testing.T) {
		events := []Event{
			{Timestamp: day(-9, 9)},
			{Timestamp: day(-8, 9)},
			{Timestamp: day(-7, 9)},
			{Timestamp: day(-6, 9)},
			{Timestamp: day(-1, 9)},
			{Timestamp: day(0, 9)},
		}
		s := Summarize(events, today)
		assert.Equal(t, 2, s.CurrentStreak)
		assert.Equal(t, 4, s.LongestStreak)
		assert.Equal(t, "2026-08-24", s.LastStudyDay)
		assert.Equal(t, 6, s.StudyDays)
	})
}
