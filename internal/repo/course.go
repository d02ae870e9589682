package repo

import (
	"context"
	"database/sql"

	"studymatcher/internal/models"
)

// ==========================
// CourseRepo
// ==========================
type CourseRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewCourseRepo(db *sql.DB) *CourseRepo {
	return &CourseRepo{DB: db}
}

// ==========================
// Add Course
// ==========================
func (r *CourseRepo) Add(ctx context.Context, userID int, courseName string) error {
	query := `
		INSERT INTO user_courses (user_id, course_name)
		VALUES ($1, $2)
	`

	_, err := r.DB.ExecContext(ctx, query, userID, courseName)

	if pqConstraint(err, uniqueViolation, "user_courses_user_id_course_name_key") {
		return ErrDuplicateCourse
	}
	// The owning user may have been deleted while a token for it is still valid.
	if pqConstraint(err, foreignKeyViolation, "user_courses_user_id_fkey") {
		return ErrNotFound
	}
	return err
}

// ==========================
// Remove Course
// ==========================
func (r *CourseRepo) Remove(ctx context.Context, userID int, courseName string) error {
	result, err := r.DB.ExecContext(ctx,
		`DELETE FROM user_courses WHERE user_id = $1 AND course_name = $2`,
		userID, courseName,
	)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotFound
	}

	return nil
}

// ==========================
// List Courses For User
// ==========================
func (r *CourseRepo) ListByUser(ctx context.Context, userID int) ([]string, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT course_name FROM user_courses WHERE user_id = $1 ORDER BY course_name`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	courses := []string{}
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		courses = append(courses, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return courses, nil
}

// ==========================
// Matches By Course
// ==========================

// MatchesByCourse returns every user holding a membership for courseName,
// deduplicated, each with their complete course list. An empty result is
// not an error.
func (r *CourseRepo) MatchesByCourse(ctx context.Context, courseName string) ([]models.User, error) {
	query := `
		SELECT u.id, u.name, u.email, u.major, u.created_at,
		       COALESCE(array_agg(all_uc.course_name ORDER BY all_uc.course_name) FILTER (WHERE all_uc.course_name IS NOT NULL), '{}') AS courses
		FROM users u
		JOIN user_courses uc ON u.id = uc.user_id AND uc.course_name = $1
		LEFT JOIN user_courses all_uc ON u.id = all_uc.user_id
		GROUP BY u.id
		ORDER BY u.id
	`

	rows, err := r.DB.QueryContext(ctx, query, courseName)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsersWithCourses(rows)
}
