// Package tracker derives study-streak and activity statistics from
// the append-only review history. Everything here is a pure function
// over the log, so the stats can always be rebuilt from storage.
package tracker

import (
	"sort"
	"time"
)

// Event is the slice of a review the tracker cares about.
type Event struct {
	Timestamp time.Time
	Correct   bool
}

// Summary describes the user's study habit as of one day.
type Summary struct {
	TotalReviews    int            `json:"total_reviews"`
	TotalCorrect    int            `json:"total_correct"`
	OverallAccuracy float64        `json:"overall_accuracy"`
	StudyDays       int            `json:"study_days"`
	CurrentStreak   int            `json:"current_streak"`
	LongestStreak   int            `json:"longest_streak"`
	LastStudyDay    string         `json:"last_study_day,omitempty"`
	DailyReviews    map[string]int `json:"daily_reviews"`
}

// dayKey buckets a timestamp into its calendar day, local time.
func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// Summarize computes streaks and totals from review events. The
// current streak counts consecutive study days ending today or
// yesterday; a day without reviews breaks it.
func Summarize(events []Event, today time.Time) Summary {
	s := Summary{DailyReviews: map[string]int{}}

	for _, e := range events {
		s.TotalReviews++
		if e.Correct {
			s.TotalCorrect++
		}
		s.DailyReviews[dayKey(e.Timestamp)]++
	}
	if s.TotalReviews > 0 {
		s.OverallAccuracy = float64(s.TotalCorrect) / float64(s.TotalReviews)
	}
	s.StudyDays = len(s.DailyReviews)
	if s.StudyDays == 0 {
		return s
	}

	days := make([]string, 0, len(s.DailyReviews))
	for d := range s.DailyReviews {
		days = append(days, d)
	}
	sort.Strings(days)
	s.LastStudyDay = days[len(days)-1]

	s.LongestStreak = longestRun(days)
	s.CurrentStreak = currentRun(days, today)
	return s
}

// longestRun finds the longest stretch of consecutive calendar days.
func longestRun(sortedDays []string) int {
	longest, run := 1, 1
	for i := 1; i < len(sortedDays); i++ {
		if isNextDay(sortedDays[i-1], sortedDays[i]) {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// currentRun counts back from today. Studying yesterday but not yet
// today keeps the streak alive; a two-day gap ends it.
func currentRun(sortedDays []string, today time.Time) int {
	last := sortedDays[len(sortedDays)-1]
	if last != dayKey(today) && last != dayKey(today.AddDate(0, 0, -1)) {
		return 0
	}
	streak := 1
	for i := len(sortedDays) - 2; i >= 0; i-- {
		if !isNextDay(sortedDays[i], sortedDays[i+1]) {
			break
		}
		streak++
	}
	return streak
}

func isNextDay(a, b string) bool {
	ta, errA := time.Parse("2006-01-02", a)
	tb, errB := time.Parse("2006-01-02", b)
	if errA != nil || errB != nil {
		return false
	}
	return ta.AddDate(0, 0, 1).Equal(tb)
}
