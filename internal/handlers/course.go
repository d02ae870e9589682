package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"studymatcher/internal/repo"
)

// ==========================
// CourseHandler
// ==========================
type CourseHandler struct {
	Courses *repo.CourseRepo
}

// ==========================
// Add Course (self only)
// ==========================
func (h *CourseHandler) AddCourse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !isSelf(r, id) {
		JSONError(w, "You can only add courses to your own account", http.StatusForbidden)
		return
	}

	var input struct {
		CourseName string `json:"courseName" validate:"required"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, "Course name required", http.StatusBadRequest)
		return
	}

	err = h.Courses.Add(r.Context(), id, input.CourseName)
	if errors.Is(err, repo.ErrDuplicateCourse) {
		JSONError(w, "User already has this course", http.StatusBadRequest)
		return
	}
	if errors.Is(err, repo.ErrNotFound) {
		// Stale token for a deleted account.
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("add course", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	courses, err := h.Courses.ListByUser(r.Context(), id)
	if err != nil {
		slog.Error("add course: list courses", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Course added!",
		"courses": courses,
	})
}

// ==========================
// Remove Course (self only)
// ==========================
func (h *CourseHandler) RemoveCourse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !isSelf(r, id) {
		JSONError(w, "You can only remove courses from your own account", http.StatusForbidden)
		return
	}

	courseName := chi.URLParam(r, "courseName")

	err = h.Courses.Remove(r.Context(), id, courseName)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "Course not found or already removed", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("remove course", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	remaining, err := h.Courses.ListByUser(r.Context(), id)
	if err != nil {
		slog.Error("remove course: list courses", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message":          "Course removed!",
		"remainingCourses": remaining,
	})
}
