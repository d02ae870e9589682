package main

import (
	"database/sql"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"studymatcher/internal/config"
	"studymatcher/internal/handlers"
	"studymatcher/internal/middleware"
	"studymatcher/internal/repo"
)

// newRouter wires repositories, handlers, and the middleware chain into the
// full API surface. Listing, search, and matching are public; profile and
// course mutation require a bearer token for the same user id.
func newRouter(database *sql.DB, cfg config.Config) http.Handler {
	users := repo.NewUserRepo(database)
	courses := repo.NewCourseRepo(database)

	authHandler := &handlers.AuthHandler{
		Users:       users,
		Courses:     courses,
		Secret:      []byte(cfg.JWTSecret),
		ExpireHours: cfg.JWTExpireHours,
	}
	userHandler := &handlers.UserHandler{Users: users, Courses: courses}
	courseHandler := &handlers.CourseHandler{Courses: courses}
	matchHandler := &handlers.MatchHandler{Courses: courses}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != "" && cfg.TLSKeyFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))
	r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintln(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	// Registration and login are throttled per IP.
	authLimiter := middleware.AuthRateLimiter()
	r.Group(func(r chi.Router) {
		r.Use(authLimiter.Middleware)
		r.Post("/users/register", authHandler.Register)
		r.Post("/users/login", authHandler.Login)
	})

	// Public reads
	r.Get("/users", userHandler.ListUsers)
	r.Get("/users/search", userHandler.SearchUsers)
	r.Get("/users/{id}", userHandler.GetUser)
	r.Get("/matches/{courseName}", matchHandler.FindMatches)

	// Authenticated mutation (self only, enforced in handlers)
	r.Group(func(r chi.Router) {
		r.Use(middleware.Auth([]byte(cfg.JWTSecret)))
		r.Put("/users/{id}", userHandler.UpdateUser)
		r.Delete("/users/{id}", userHandler.DeleteUser)
		r.Post("/users/{id}/courses", courseHandler.AddCourse)
		r.Delete("/users/{id}/courses/{courseName}", courseHandler.RemoveCourse)
	})

	return r
}
