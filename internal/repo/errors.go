package repo

import (
	"errors"

	"github.com/lib/pq"
)

// Sentinel errors returned by the repositories so handlers can map store
// failures to status codes without inspecting driver types themselves.
var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicateEmail  = errors.New("email already exists")
	ErrDuplicateCourse = errors.New("user already has this course")
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

// pqConstraint reports whether err is a Postgres error with the given code
// on the given constraint.
func pqConstraint(err error, code, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code) == code && pqErr.Constraint == constraint
	}
	return false
}
