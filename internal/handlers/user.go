package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"studymatcher/internal/middleware"
	"studymatcher/internal/repo"
)

// ==========================
// UserHandler
// ==========================
type UserHandler struct {
	Users   *repo.UserRepo
	Courses *repo.CourseRepo
}

// ==========================
// List Users
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Users.List(r.Context())
	if err != nil {
		slog.Error("list users", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, users)
}

// ==========================
// Get User
// ==========================
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	user, err := h.Users.GetByID(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("get user", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, user)
}

// ==========================
// Search Users
// ==========================
func (h *UserHandler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	users, err := h.Users.Search(r.Context(), q.Get("name"), q.Get("email"), q.Get("major"))
	if err != nil {
		slog.Error("search users", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"count": len(users),
		"users": users,
	})
}

// ==========================
// Update Profile (self only)
// ==========================
func (h *UserHandler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !isSelf(r, id) {
		JSONError(w, "You can only update your own account", http.StatusForbidden)
		return
	}

	// Every field is optional but at least one must be present.
	var input struct {
		Name  string `json:"name" validate:"required_without_all=Email Major"`
		Email string `json:"email" validate:"required_without_all=Name Major"`
		Major string `json:"major" validate:"required_without_all=Name Email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, "No fields to update", http.StatusBadRequest)
		return
	}

	user, err := h.Users.Update(r.Context(), id, input.Name, input.Email, input.Major)
	if errors.Is(err, repo.ErrDuplicateEmail) {
		JSONError(w, "Email already exists", http.StatusBadRequest)
		return
	}
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("update user", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	courses, err := h.Courses.ListByUser(r.Context(), id)
	if err != nil {
		slog.Error("update user: list courses", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	user.Courses = courses

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "User updated!",
		"user":    user,
	})
}

// ==========================
// Delete Account (self only, memberships cascade)
// ==========================
func (h *UserHandler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		JSONError(w, "Invalid user id", http.StatusBadRequest)
		return
	}

	if !isSelf(r, id) {
		JSONError(w, "You can only delete your own account", http.StatusForbidden)
		return
	}

	err = h.Users.Delete(r.Context(), id)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "User not found", http.StatusNotFound)
		return
	}
	if err != nil {
		slog.Error("delete user", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]string{"message": "Account deleted successfully"})
}

// isSelf reports whether the authenticated subject matches the path's user id.
// The check runs before any store call; a mismatch is always 403.
func isSelf(r *http.Request, id int) bool {
	subject, ok := middleware.GetUserID(r.Context())
	return ok && subject == id
}
