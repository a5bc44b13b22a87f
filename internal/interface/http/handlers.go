package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/alem-hub/seminar-rating/internal/domain/rating"
	"github.com/alem-hub/seminar-rating/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH & STATUS HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleHealth handles the health check endpoint.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.deps.HealthChecker != nil {
		status := s.deps.HealthChecker.Check(r.Context())
		if !status.Healthy {
			writeJSON(w, r, http.StatusServiceUnavailable, status, nil)
			return
		}
		writeJSON(w, r, http.StatusOK, status, nil)
		return
	}

	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":  "healthy",
		"uptime":  s.Uptime().String(),
		"version": s.config.Version,
	}, nil)
}

// handleLive handles the liveness probe endpoint (for Kubernetes).
func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "alive"}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// RATING HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// handleGetOverallRating handles GET /api/v1/rating
func (s *Server) handleGetOverallRating(w http.ResponseWriter, r *http.Request) {
	entries, err := s.deps.Ratings.GetOverallRating(r.Context())
	if err != nil {
		s.writeQueryError(w, "failed to get overall rating", err)
		return
	}
	s.writeEntries(w, r, entries)
}

// handleGetGroupRating handles GET /api/v1/groups/{group}/rating
func (s *Server) handleGetGroupRating(w http.ResponseWriter, r *http.Request) {
	group, err := strconv.ParseInt(r.PathValue("group"), 10, 64)
	if err != nil || group <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_group", "Group id must be a positive integer")
		return
	}

	entries, err := s.deps.Ratings.GetCohortRating(r.Context(), rating.CohortID(group))
	if err != nil {
		s.writeQueryError(w, "failed to get group rating", err)
		return
	}
	s.writeEntries(w, r, entries)
}

// handleGetTop handles GET /api/v1/rating/top?group=&n=
func (s *Server) handleGetTop(w http.ResponseWriter, r *http.Request) {
	group, ok := getQueryParamInt64(r, "group", 0)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_group", "Group id must be an integer")
		return
	}
	n, ok := getQueryParamInt64(r, "n", int64(s.config.DefaultTopLimit))
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_limit", "n must be an integer")
		return
	}

	entries, err := s.deps.Ratings.GetTopN(r.Context(), rating.CohortID(group), int(n))
	if err != nil {
		s.writeQueryError(w, "failed to get top", err)
		return
	}
	s.writeEntries(w, r, entries)
}

// handleGetStatistics handles GET /api/v1/rating/stats?group=
func (s *Server) handleGetStatistics(w http.ResponseWriter, r *http.Request) {
	group, ok := getQueryParamInt64(r, "group", 0)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "invalid_group", "Group id must be an integer")
		return
	}

	result, err := s.deps.Statistics.Handle(r.Context(), rating.CohortID(group))
	if err != nil {
		s.writeQueryError(w, "failed to get rating statistics", err)
		return
	}
	writeJSON(w, r, http.StatusOK, result, nil)
}

// handleGetPosition handles GET /api/v1/participants/{id}/position?by_group=
func (s *Server) handleGetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSONError(w, http.StatusBadRequest, "invalid_participant", "Participant id must be a positive integer")
		return
	}

	entry, err := s.deps.Ratings.GetUserPosition(r.Context(), rating.ParticipantID(id), getQueryParamBool(r, "by_group"))
	if err != nil {
		s.writeQueryError(w, "failed to get position", err)
		return
	}
	if entry == nil {
		writeJSONError(w, http.StatusNotFound, "not_found", "Participant is not in this rating")
		return
	}
	writeJSON(w, r, http.StatusOK, entry, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// ADMIN HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

// RecalculationResponse is returned by POST /api/v1/rating/recalculate.
type RecalculationResponse struct {
	RunID      string   `json:"run_id"`
	Trigger    string   `json:"trigger"`
	Total      int      `json:"total"`
	Included   int      `json:"included"`
	Excluded   int      `json:"excluded"`
	Mu         *float64 `json:"mu,omitempty"`
	Sigma      *float64 `json:"sigma,omitempty"`
	DurationMS int64    `json:"duration_ms"`
}

// handleRecalculate handles POST /api/v1/rating/recalculate
func (s *Server) handleRecalculate(w http.ResponseWriter, r *http.Request) {
	recalc, err := s.deps.Recalculator.RecomputeAll(r.Context())
	if err != nil {
		s.writeQueryError(w, "failed to recalculate ratings", err)
		return
	}

	writeJSON(w, r, http.StatusOK, RecalculationResponse{
		RunID:      recalc.RunID,
		Trigger:    string(recalc.Trigger),
		Total:      recalc.Total,
		Included:   recalc.Included,
		Excluded:   recalc.Excluded,
		Mu:         recalc.Mu,
		Sigma:      recalc.Sigma,
		DurationMS: recalc.Duration.Milliseconds(),
	}, nil)
}

// ══════════════════════════════════════════════════════════════════════════════
// HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func (s *Server) writeEntries(w http.ResponseWriter, r *http.Request, entries []rating.RatingEntry) {
	if entries == nil {
		entries = []rating.RatingEntry{}
	}
	writeJSON(w, r, http.StatusOK, entries, &ResponseMeta{TotalCount: len(entries)})
}

func (s *Server) writeQueryError(w http.ResponseWriter, msg string, err error) {
	switch {
	case errors.Is(err, shared.ErrInvalidScope):
		writeJSONError(w, http.StatusBadRequest, "invalid_scope", err.Error())
	case shared.IsNotFound(err):
		writeJSONError(w, http.StatusNotFound, "not_found", err.Error())
	default:
		s.logger.Error(msg, "error", err)
		writeJSONError(w, http.StatusInternalServerError, "internal_error", "Internal error")
	}
}
