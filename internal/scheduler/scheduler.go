package scheduler

import (
	"errors"
	"math"
	"time"

	"github.com/conorfennell/retain/internal/domain"
)

// InitialEase is the ease factor assigned to every new card.
const InitialEase = 2.5

// ErrInvalidReview is returned for review input that must be rejected
// before any card state is touched.
var ErrInvalidReview = errors.New("invalid review input")

// Params holds the tuning knobs for the interval scheduler. The
// defaults follow a modified SuperMemo SM-2 ladder.
type Params struct {
	// BaseIntervals is the interval ladder in days. IntervalIndex
	// saturates at the last entry.
	BaseIntervals []float64

	MasteryThreshold  float64 // accuracy needed for the mastered level
	ReviewThreshold   float64 // accuracy needed for the reviewing level
	MasteryMinReviews int     // reviews needed before mastered is reachable
	ReviewMinReviews  int     // reviews needed before reviewing is reachable

	MinEase      float64
	MaxEase      float64
	LapsePenalty float64 // ease subtracted on an incorrect answer

	MinIntervalDays float64
	MaxIntervalDays float64

	// FastAnswerSeconds is the response-time cutoff for the largest
	// ease bonus on high-accuracy cards.
	FastAnswerSeconds float64
}

// DefaultParams returns the standard scheduling parameters.
func DefaultParams() *Params {
	return &Params{
		BaseIntervals:     []float64{1, 3, 7, 14, 30, 60, 120, 240},
		MasteryThreshold:  0.85,
		ReviewThreshold:   0.70,
		MasteryMinReviews: 5,
		ReviewMinReviews:  3,
		MinEase:           1.3,
		MaxEase:           3.0,
		LapsePenalty:      0.2,
		MinIntervalDays:   1,
		MaxIntervalDays:   365,
		FastAnswerSeconds: 30,
	}
}

// Review is a single review event for a card.
type Review struct {
	Correct      bool
	ResponseTime float64 // seconds
	At           time.Time
}

// Outcome summarizes the state a card landed in after a review.
type Outcome struct {
	Accuracy     float64
	Mastery      domain.Mastery
	IntervalDays float64
	NextReview   time.Time
}

// Validate rejects review input the scheduler must not act on.
func (r Review) Validate() error {
	if r.ResponseTime < 0 || math.IsNaN(r.ResponseTime) || math.IsInf(r.ResponseTime, 0) {
		return ErrInvalidReview
	}
	if r.At.IsZero() {
		return ErrInvalidReview
	}
	return nil
}

// Init sets the scheduling fields of a freshly created card. The card
// is due immediately so it enters the next study session.
func (p *Params) Init(card *domain.Card, now time.Time) {
	card.CreatedAt = now
	card.NextReview = now
	card.IntervalIndex = 0
	card.EaseFactor = InitialEase
	card.Mastery = domain.Learning
}

// Apply advances a card's scheduling state for one review event. It
// mutates the card in place; callers that need rollback on persistence
// failure should apply to a clone. The update is deterministic.
func (p *Params) Apply(card *domain.Card, rev Review) (Outcome, error) {
	if err := rev.Validate(); err != nil {
		return Outcome{}, err
	}

	// The ease adaptation compares against the rolling average as it
	// stood before this review's sample is appended.
	prevAvg := card.AverageResponseTime()

	card.ReviewCount++
	if rev.Correct {
		card.CorrectCount++
	}
	at := rev.At
	card.LastReview = &at
	card.PushResponseTime(rev.ResponseTime)

	accuracy := card.Accuracy()

	var interval float64
	if rev.Correct {
		switch {
		case card.ReviewCount == 1:
			interval = p.BaseIntervals[0]
			card.IntervalIndex = 0
		case card.ReviewCount == 2:
			interval = p.BaseIntervals[1]
			card.IntervalIndex = 1
		default:
			interval = p.currentInterval(card) * card.EaseFactor
			p.adjustEase(card, accuracy, rev.ResponseTime, prevAvg)
			if card.IntervalIndex < len(p.BaseIntervals)-1 {
				card.IntervalIndex++
			}
		}
	} else {
		// Lapse: back to the shortest interval, ease penalized.
		interval = p.BaseIntervals[0]
		card.IntervalIndex = 0
		card.EaseFactor = math.Max(p.MinEase, card.EaseFactor-p.LapsePenalty)
	}

	interval *= difficultyMultiplier(card.Difficulty)
	interval *= priorityAdjustment(card.PriorityScore)
	interval = math.Max(p.MinIntervalDays, math.Min(interval, p.MaxIntervalDays))

	card.NextReview = rev.At.Add(time.Duration(interval * 24 * float64(time.Hour)))
	card.Mastery = p.masteryFor(accuracy, card.ReviewCount)

	return Outcome{
		Accuracy:     accuracy,
		Mastery:      card.Mastery,
		IntervalDays: interval,
		NextReview:   card.NextReview,
	}, nil
}

// currentInterval reads the ladder at the card's index. Records written
// by older builds may carry an index past the ladder; those fall back
// to the last rung scaled by the ease factor.
func (p *Params) currentInterval(card *domain.Card) float64 {
	if card.IntervalIndex < len(p.BaseIntervals) {
		return p.BaseIntervals[card.IntervalIndex]
	}
	return p.BaseIntervals[len(p.BaseIntervals)-1] * card.EaseFactor
}

// adjustEase applies the quality-based ease delta for a successful
// review past the second: accuracy sets the base delta, and response
// time relative to the pre-review rolling average nudges it.
func (p *Params) adjustEase(card *domain.Card, accuracy, responseTime, prevAvg float64) {
	var delta float64
	switch {
	case accuracy >= 0.9 && responseTime <= p.FastAnswerSeconds:
		delta = 0.10
	case accuracy >= 0.8:
		delta = 0.05
	case accuracy >= 0.6:
		delta = 0.0
	default:
		delta = -0.20
	}

	if prevAvg > 0 {
		if responseTime > prevAvg*1.5 {
			delta -= 0.05
		} else if responseTime < prevAvg*0.5 {
			delta += 0.05
		}
	}

	card.EaseFactor = math.Max(p.MinEase, math.Min(p.MaxEase, card.EaseFactor+delta))
}

func (p *Params) masteryFor(accuracy float64, reviewCount int) domain.Mastery {
	switch {
	case accuracy >= p.MasteryThreshold && reviewCount >= p.MasteryMinReviews:
		return domain.Mastered
	case accuracy >= p.ReviewThreshold && reviewCount >= p.ReviewMinReviews:
		return domain.Reviewing
	default:
		return domain.Learning
	}
}

func difficultyMultiplier(d domain.Difficulty) float64 {
	switch d {
	case domain.Easy:
		return 0.8
	case domain.Hard:
		return 1.3
	default:
		return 1.0
	}
}

// priorityAdjustment shortens intervals for high-priority cards:
// interval is scaled by 1/sqrt(priority).
func priorityAdjustment(score float64) float64 {
	if score <= 0 {
		score = 1.0
	}
	return 1.0 / math.Sqrt(score)
}
