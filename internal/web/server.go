package web

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/retain/internal/analytics"
	"github.com/conorfennell/retain/internal/scheduler"
	"github.com/conorfennell/retain/internal/srs"
	"github.com/conorfennell/retain/internal/storage"
	syncer "github.com/conorfennell/retain/internal/sync"
	"github.com/conorfennell/retain/internal/tracker"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	db       *storage.DB
	system   *srs.System
	reporter *analytics.Reporter
	router   *http.ServeMux
	validate *validator.Validate

	defaultMaxCards int
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, system *srs.System, defaultMaxCards int) *Server {
	s := &Server{
		db:              db,
		system:          system,
		reporter:        analytics.NewReporter(system),
		router:          http.NewServeMux(),
		validate:        validator.New(),
		defaultMaxCards: defaultMaxCards,
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("/due", s.handleGetDue())
	s.router.HandleFunc("/session", s.handleGetSession())
	s.router.HandleFunc("/review/", s.handlePostReview())
	s.router.HandleFunc("/analytics", s.handleGetAnalytics())
	s.router.HandleFunc("/recommendations", s.handleGetRecommendations())
	s.router.HandleFunc("/streak", s.handleGetStreak())

	// Source management routes
	s.router.HandleFunc("/sources", s.handleSources())
	s.router.HandleFunc("/sources/", s.handleDeleteSource())
	s.router.HandleFunc("/sync", s.handlePostSync())
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, srs.ErrCardNotFound):
		s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "card not found"})
	case errors.Is(err, scheduler.ErrInvalidReview):
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid review input"})
	default:
		slog.Error("request failed", "error", err)
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}

// handleGetDue reports which cards are due right now, most urgent first.
func (s *Server) handleGetDue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		now := s.system.Now()
		due, err := s.system.DueCards(now)
		if err != nil {
			s.writeError(w, err)
			return
		}
		srs.SortByPriority(due, now)
		s.writeJSON(w, http.StatusOK, map[string]any{
			"due_count": len(due),
			"cards":     due,
		})
	}
}

// handleGetSession assembles a bounded study session. ?max= overrides
// the configured session size, ?section= restricts to one section.
func (s *Server) handleGetSession() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		maxCards := s.defaultMaxCards
		if raw := r.URL.Query().Get("max"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid max parameter"})
				return
			}
			maxCards = parsed
		}
		section := r.URL.Query().Get("section")

		cards, err := s.system.StudySession(maxCards, section)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"card_count": len(cards),
			"cards":      cards,
		})
	}
}

type reviewRequest struct {
	Correct      *bool   `json:"correct" validate:"required"`
	ResponseTime float64 `json:"response_time" validate:"gte=0"`
}

// handlePostReview processes one review event for a card.
func (s *Server) handlePostReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimPrefix(r.URL.Path, "/review/")
		if id == "" {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing card id"})
			return
		}

		var req reviewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
			return
		}
		if err := s.validate.Struct(&req); err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid review input"})
			return
		}

		outcome, err := s.system.RecordReview(id, *req.Correct, req.ResponseTime)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"card_id":       id,
			"accuracy":      outcome.Accuracy,
			"mastery_level": outcome.Mastery,
			"interval_days": outcome.IntervalDays,
			"next_review":   outcome.NextReview,
		})
	}
}

// handleGetAnalytics returns the learning report. ?days= sets the
// reporting window, defaulting to 30.
func (s *Server) handleGetAnalytics() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		days := 30
		if raw := r.URL.Query().Get("days"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed <= 0 {
				s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid days parameter"})
				return
			}
			days = parsed
		}
		report, err := s.reporter.Learning(days)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) handleGetRecommendations() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		report, err := s.reporter.Learning(30)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]any{
			"recommendations": analytics.Recommendations(report),
		})
	}
}

// handleGetStreak summarizes study streaks from the review history.
func (s *Server) handleGetStreak() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}
		logs, err := s.db.LoadReviews()
		if err != nil {
			s.writeError(w, err)
			return
		}
		events := make([]tracker.Event, len(logs))
		for i, l := range logs {
			events[i] = tracker.Event{Timestamp: l.Timestamp, Correct: l.Correct}
		}
		s.writeJSON(w, http.StatusOK, tracker.Summarize(events, s.system.Now()))
	}
}

// handlePostSync triggers a manual sync of all sources.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		if err := syncer.RunSync(s.db, s.system); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "sync complete"})
	}
}

// handleSources handles both GET and POST for the sources collection.
func (s *Server) handleSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s.handleGetSources(w, r)
		case http.MethodPost:
			s.handlePostSource(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
	}
}

func (s *Server) handleGetSources(w http.ResponseWriter, r *http.Request) {
	sources, err := s.db.GetAllSources()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"sources": sources})
}

type sourceRequest struct {
	Path string `json:"path" validate:"required"`
}

func (s *Server) handlePostSource(w http.ResponseWriter, r *http.Request) {
	var req sourceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "path cannot be empty"})
		return
	}

	sourceType := "local"
	if strings.HasSuffix(req.Path, ".git") || strings.HasPrefix(req.Path, "git@") || strings.HasPrefix(req.Path, "https://") {
		sourceType = "git"
	}

	id, err := s.db.InsertSource(req.Path, sourceType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]any{
		"id":   id,
		"path": req.Path,
		"type": sourceType,
	})
}

// handleDeleteSource deletes a source by id.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		idStr := strings.TrimPrefix(r.URL.Path, "/sources/")
		id, err := strconv.ParseInt(idStr, 10, 64)
		if err != nil {
			s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid source id"})
			return
		}

		if err := s.db.DeleteSource(id); err != nil {
			s.writeError(w, err)
			return
		}
		s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
	}
}
