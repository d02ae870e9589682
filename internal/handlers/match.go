package handlers

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"studymatcher/internal/metrics"
	"studymatcher/internal/repo"
)

// ==========================
// MatchHandler
// ==========================
type MatchHandler struct {
	Courses *repo.CourseRepo
}

// ==========================
// Find Matches
// ==========================

// FindMatches lists every user holding the named course, each with their
// complete course list. A course nobody holds yields an empty match list.
func (h *MatchHandler) FindMatches(w http.ResponseWriter, r *http.Request) {
	courseName := chi.URLParam(r, "courseName")

	matches, err := h.Courses.MatchesByCourse(r.Context(), courseName)
	if err != nil {
		slog.Error("find matches", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if len(matches) > 0 {
		metrics.IncMatchQueries("hit")
	} else {
		metrics.IncMatchQueries("miss")
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"course":  courseName,
		"matches": matches,
	})
}
