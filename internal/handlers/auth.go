package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"studymatcher/internal/metrics"
	"studymatcher/internal/repo"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	Users       *repo.UserRepo
	Courses     *repo.CourseRepo
	Secret      []byte
	ExpireHours int
}

// ==========================
// Register
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name     string `json:"name" validate:"required"`
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required,min=6"`
		Major    string `json:"major" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		// A missing field outranks a short password.
		if tagFailed(err, "required") {
			JSONError(w, "All fields required", http.StatusBadRequest)
			return
		}
		JSONError(w, "Password must be at least 6 characters", http.StatusBadRequest)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	user, err := h.Users.Create(r.Context(), input.Name, input.Email, string(hash), input.Major)
	if errors.Is(err, repo.ErrDuplicateEmail) {
		JSONError(w, "Email already exists", http.StatusBadRequest)
		return
	}
	if err != nil {
		slog.Error("register: create user", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	token, err := h.issueToken(user.ID, user.Email)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	metrics.IncRegistrations()

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "User created!",
		"user":    user,
		"token":   token,
	})
}

// ==========================
// Login
// ==========================

// Login returns one indistinguishable failure for an unknown email and a
// wrong password so callers cannot enumerate accounts.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email" validate:"required"`
		Password string `json:"password" validate:"required"`
	}

	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "Invalid JSON", http.StatusBadRequest)
		return
	}

	// ===== Validate input =====
	validate := validator.New()
	if err := validate.Struct(input); err != nil {
		JSONError(w, "Email and password required", http.StatusBadRequest)
		return
	}

	user, err := h.Users.GetByEmail(r.Context(), input.Email)
	if errors.Is(err, repo.ErrNotFound) {
		JSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}
	if err != nil {
		slog.Error("login: get user", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		JSONError(w, "Invalid email or password", http.StatusUnauthorized)
		return
	}

	courses, err := h.Courses.ListByUser(r.Context(), user.ID)
	if err != nil {
		slog.Error("login: list courses", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	user.Courses = courses

	token, err := h.issueToken(user.ID, user.Email)
	if err != nil {
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"message": "Login successful!",
		"user":    user,
		"token":   token,
	})
}

func (h *AuthHandler) issueToken(userID int, email string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(time.Duration(h.ExpireHours) * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.Secret)
}
