package domain

import "time"

// Difficulty classifies how hard a card's content is. It is static
// metadata assigned at creation, not a measure of review performance.
type Difficulty string

const (
	Easy         Difficulty = "easy"
	Intermediate Difficulty = "intermediate"
	Hard         Difficulty = "hard"
)

// Mastery is the coarse retention classification derived from a card's
// accuracy and review count after every review.
type Mastery string

const (
	Learning  Mastery = "learning"
	Reviewing Mastery = "reviewing"
	Mastered  Mastery = "mastered"
)

// Rank orders mastery levels for due-card sorting: learning sorts
// before reviewing, which sorts before mastered.
func (m Mastery) Rank() int {
	switch m {
	case Reviewing:
		return 1
	case Mastered:
		return 2
	default:
		return 0
	}
}

// ResponseWindow is how many recent response times a card retains.
const ResponseWindow = 5

// Card is one schedulable unit of study content together with its
// review history and interval state. The scheduler is the only writer
// of the scheduling fields; callers never set NextReview directly.
type Card struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answer"`
	Context  string `json:"context,omitempty"`

	Section    string     `json:"section"`
	Difficulty Difficulty `json:"difficulty"`

	CreatedAt  time.Time  `json:"created_at"`
	LastReview *time.Time `json:"last_review,omitempty"`
	NextReview time.Time  `json:"next_review"`

	ReviewCount  int `json:"review_count"`
	CorrectCount int `json:"correct_count"`

	IntervalIndex int     `json:"interval_index"`
	EaseFactor    float64 `json:"ease_factor"`
	Mastery       Mastery `json:"mastery_level"`
	PriorityScore float64 `json:"priority_score"`

	// ResponseTimes holds the most recent response latencies in
	// seconds, newest last, at most ResponseWindow entries.
	ResponseTimes []float64 `json:"last_response_times"`

	// SourceID links the card to the note source it was parsed from.
	// Zero for cards created directly, e.g. from a missed question.
	SourceID int64 `json:"source_id,omitempty"`
}

// Accuracy returns CorrectCount/ReviewCount, or 0 for an unreviewed card.
func (c *Card) Accuracy() float64 {
	if c.ReviewCount == 0 {
		return 0
	}
	return float64(c.CorrectCount) / float64(c.ReviewCount)
}

// AverageResponseTime is the arithmetic mean of the retained response
// times, or 0 if the card has never been answered.
func (c *Card) AverageResponseTime() float64 {
	if len(c.ResponseTimes) == 0 {
		return 0
	}
	var sum float64
	for _, rt := range c.ResponseTimes {
		sum += rt
	}
	return sum / float64(len(c.ResponseTimes))
}

// PushResponseTime appends a response time, truncating the window to
// the most recent ResponseWindow entries.
func (c *Card) PushResponseTime(seconds float64) {
	c.ResponseTimes = append(c.ResponseTimes, seconds)
	if len(c.ResponseTimes) > ResponseWindow {
		c.ResponseTimes = c.ResponseTimes[len(c.ResponseTimes)-ResponseWindow:]
	}
}

// Clone returns a deep copy of the card. The review system applies
// updates to a clone so a failed persist leaves the original untouched.
func (c *Card) Clone() *Card {
	cp := *c
	if c.LastReview != nil {
		t := *c.LastReview
		cp.LastReview = &t
	}
	cp.ResponseTimes = append([]float64(nil), c.ResponseTimes...)
	return &cp
}

// ReviewLog records a single review event for a card.
type ReviewLog struct {
	CardID       string
	Timestamp    time.Time
	Correct      bool
	ResponseTime float64
}
