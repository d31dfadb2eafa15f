// Package srs ties the interval scheduler to a card store: it records
// reviews transactionally, selects due cards, and assembles study
// sessions.
package srs

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/conorfennell/retain/internal/domain"
	"github.com/conorfennell/retain/internal/priority"
	"github.com/conorfennell/retain/internal/scheduler"
)

// ErrCardNotFound is returned when an operation references a card id
// the store does not know. No state is mutated in that case.
var ErrCardNotFound = errors.New("card not found")

// Store is the persistence contract the review system needs. LoadCard
// returns (nil, nil) for an unknown id, matching the sql.ErrNoRows
// handling in the storage package.
type Store interface {
	LoadCard(id string) (*domain.Card, error)
	LoadAllCards() ([]*domain.Card, error)
	InsertCard(card *domain.Card) error
	SaveCard(card *domain.Card) error
	AppendReview(log domain.ReviewLog) error
}

// System serializes card mutations and snapshots batch reads. Reviews
// are processed one at a time: the scheduler's update sequence is not
// safe to interleave for the same card.
type System struct {
	mu     sync.Mutex
	store  Store
	params *scheduler.Params
	now    func() time.Time
}

// New creates a review system over the given store.
func New(store Store, params *scheduler.Params) *System {
	if params == nil {
		params = scheduler.DefaultParams()
	}
	return &System{
		store:  store,
		params: params,
		now:    time.Now,
	}
}

// Register adds a card to the system unless its id is already known.
// It assigns the priority score and initial scheduling state; the card
// is due immediately. Returns true when the card was inserted.
func (s *System) Register(card *domain.Card) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if card.ID == "" {
		return false, fmt.Errorf("register card: empty id")
	}
	existing, err := s.store.LoadCard(card.ID)
	if err != nil {
		return false, fmt.Errorf("register card %s: %w", card.ID, err)
	}
	if existing != nil {
		return false, nil
	}

	if card.Difficulty == "" {
		card.Difficulty = domain.Intermediate
	}
	if card.Section == "" {
		card.Section = "general"
	}
	card.PriorityScore = priority.Score(card)
	s.params.Init(card, s.now())

	if err := s.store.InsertCard(card); err != nil {
		return false, fmt.Errorf("register card %s: %w", card.ID, err)
	}
	slog.Info("card registered", "id", card.ID, "section", card.Section, "priority", card.PriorityScore)
	return true, nil
}

// RecordReview applies one review event to a card and persists the
// result. The update is applied to a clone first: if the store rejects
// the save, the caller observes the card exactly as before the call.
func (s *System) RecordReview(id string, correct bool, responseTime float64) (scheduler.Outcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	rev := scheduler.Review{Correct: correct, ResponseTime: responseTime, At: now}
	if err := rev.Validate(); err != nil {
		return scheduler.Outcome{}, err
	}

	card, err := s.store.LoadCard(id)
	if err != nil {
		return scheduler.Outcome{}, fmt.Errorf("load card %s: %w", id, err)
	}
	if card == nil {
		return scheduler.Outcome{}, fmt.Errorf("record review for %s: %w", id, ErrCardNotFound)
	}

	updated := card.Clone()
	outcome, err := s.params.Apply(updated, rev)
	if err != nil {
		return scheduler.Outcome{}, err
	}

	if err := s.store.SaveCard(updated); err != nil {
		return scheduler.Outcome{}, fmt.Errorf("persist review for %s: %w", id, err)
	}

	// The card record is the source of truth; the review log feeds
	// analytics and streaks, so a failed append is not a failed review.
	if err := s.store.AppendReview(domain.ReviewLog{
		CardID:       id,
		Timestamp:    now,
		Correct:      correct,
		ResponseTime: responseTime,
	}); err != nil {
		slog.Warn("review log append failed", "id", id, "error", err)
	}

	return outcome, nil
}

// DueCards returns every card whose next review time has passed as of
// the given moment. Overdue cards stay due until they are reviewed.
func (s *System) DueCards(asOf time.Time) ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dueCardsLocked(asOf)
}

func (s *System) dueCardsLocked(asOf time.Time) ([]*domain.Card, error) {
	cards, err := s.store.LoadAllCards()
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	due := make([]*domain.Card, 0, len(cards))
	for _, card := range cards {
		if !card.NextReview.After(asOf) {
			due = append(due, card)
		}
	}
	return due, nil
}

// SortByPriority orders due cards for study: most overdue first, then
// least mastered, then highest static priority. The sort is stable.
func SortByPriority(cards []*domain.Card, asOf time.Time) {
	sort.SliceStable(cards, func(i, j int) bool {
		a, b := cards[i], cards[j]
		oa, ob := daysOverdue(a, asOf), daysOverdue(b, asOf)
		if oa != ob {
			return oa > ob
		}
		if a.Mastery.Rank() != b.Mastery.Rank() {
			return a.Mastery.Rank() < b.Mastery.Rank()
		}
		return a.PriorityScore > b.PriorityScore
	})
}

func daysOverdue(card *domain.Card, asOf time.Time) int {
	overdue := asOf.Sub(card.NextReview)
	if overdue < 0 {
		return 0
	}
	return int(overdue.Hours() / 24)
}

// StudySession assembles up to maxCards due cards, optionally limited
// to one section, ordered by review priority. An empty result is not
// an error; it means nothing is due. Cards drawn here are a snapshot:
// a concurrent review may reschedule them before the session ends.
func (s *System) StudySession(maxCards int, focusSection string) ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	due, err := s.dueCardsLocked(now)
	if err != nil {
		return nil, err
	}

	if focusSection != "" {
		filtered := due[:0]
		for _, card := range due {
			if card.Section == focusSection {
				filtered = append(filtered, card)
			}
		}
		due = filtered
	}

	SortByPriority(due, now)
	if maxCards >= 0 && len(due) > maxCards {
		due = due[:maxCards]
	}
	return due, nil
}

// Card loads a single card, translating a missing record into
// ErrCardNotFound.
func (s *System) Card(id string) (*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.store.LoadCard(id)
	if err != nil {
		return nil, fmt.Errorf("load card %s: %w", id, err)
	}
	if card == nil {
		return nil, ErrCardNotFound
	}
	return card, nil
}

// AllCards returns a snapshot of every card in the store.
func (s *System) AllCards() ([]*domain.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cards, err := s.store.LoadAllCards()
	if err != nil {
		return nil, fmt.Errorf("load cards: %w", err)
	}
	return cards, nil
}

// Now reports the system clock. Tests swap it via SetClock.
func (s *System) Now() time.Time {
	return s.now()
}

// SetClock replaces the time source. Intended for tests.
func (s *System) SetClock(now func() time.Time) {
	s.now = now
}
