package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/lib/pq"

	"studymatcher/internal/models"
)

// ==========================
// UserRepo
// ==========================
type UserRepo struct {
	DB *sql.DB
}

// ==========================
// Constructor
// ==========================
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db}
}

// userWithCoursesQuery aggregates each user with their course list in a
// single join-and-group query so listing N users costs one round trip.
const userWithCoursesQuery = `
	SELECT u.id, u.name, u.email, u.major, u.created_at,
	       COALESCE(array_agg(uc.course_name ORDER BY uc.course_name) FILTER (WHERE uc.course_name IS NOT NULL), '{}') AS courses
	FROM users u
	LEFT JOIN user_courses uc ON u.id = uc.user_id
`

// ==========================
// Create User
// ==========================
func (r *UserRepo) Create(ctx context.Context, name, email, passwordHash, major string) (*models.User, error) {
	query := `
		INSERT INTO users (name, email, password_hash, major)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, email, major, created_at
	`

	user := &models.User{Courses: []string{}}

	err := r.DB.QueryRowContext(ctx, query, name, email, passwordHash, major).
		Scan(&user.ID, &user.Name, &user.Email, &user.Major, &user.CreatedAt)

	if pqConstraint(err, uniqueViolation, "users_email_key") {
		return nil, ErrDuplicateEmail
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ==========================
// Get By Email (includes password hash, for login)
// ==========================
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, name, email, password_hash, major, created_at
		FROM users
		WHERE email = $1
	`

	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, email).
		Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.Major, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ==========================
// Get By ID (with aggregated courses)
// ==========================
func (r *UserRepo) GetByID(ctx context.Context, id int) (*models.User, error) {
	query := userWithCoursesQuery + `
		WHERE u.id = $1
		GROUP BY u.id
	`

	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&user.ID, &user.Name, &user.Email, &user.Major, &user.CreatedAt, pq.Array(&user.Courses))

	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if user.Courses == nil {
		user.Courses = []string{}
	}

	return user, nil
}

// ==========================
// List Users (each with aggregated courses)
// ==========================
func (r *UserRepo) List(ctx context.Context) ([]models.User, error) {
	query := userWithCoursesQuery + `
		GROUP BY u.id
		ORDER BY u.id
	`
	rows, err := r.DB.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsersWithCourses(rows)
}

// ==========================
// Search Users (optional case-insensitive substring filters, AND-combined)
// ==========================
func (r *UserRepo) Search(ctx context.Context, name, email, major string) ([]models.User, error) {
	var conditions []string
	var values []interface{}

	addFilter := func(column, value string) {
		if value == "" {
			return
		}
		values = append(values, "%"+value+"%")
		conditions = append(conditions, fmt.Sprintf("u.%s ILIKE $%d", column, len(values)))
	}
	addFilter("name", name)
	addFilter("email", email)
	addFilter("major", major)

	query := userWithCoursesQuery
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += `
		GROUP BY u.id
		ORDER BY u.id
	`

	rows, err := r.DB.QueryContext(ctx, query, values...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanUsersWithCourses(rows)
}

// ==========================
// Update User (partial: empty fields are left unchanged)
// ==========================
func (r *UserRepo) Update(ctx context.Context, id int, name, email, major string) (*models.User, error) {
	var sets []string
	var values []interface{}

	addSet := func(column, value string) {
		if value == "" {
			return
		}
		values = append(values, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", column, len(values)))
	}
	addSet("name", name)
	addSet("email", email)
	addSet("major", major)

	if len(sets) == 0 {
		return nil, errors.New("no fields to update")
	}

	values = append(values, id)
	query := fmt.Sprintf(`
		UPDATE users
		SET %s
		WHERE id = $%d
		RETURNING id, name, email, major, created_at
	`, strings.Join(sets, ", "), len(values))

	user := &models.User{}

	err := r.DB.QueryRowContext(ctx, query, values...).
		Scan(&user.ID, &user.Name, &user.Email, &user.Major, &user.CreatedAt)

	if pqConstraint(err, uniqueViolation, "users_email_key") {
		return nil, ErrDuplicateEmail
	}
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	return user, nil
}

// ==========================
// Delete User (memberships cascade via FK)
// ==========================
func (r *UserRepo) Delete(ctx context.Context, id int) error {
	result, err := r.DB.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
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

// scanUsersWithCourses drains rows produced by userWithCoursesQuery.
// Always returns a non-nil slice so empty results encode as [].
func scanUsersWithCourses(rows *sql.Rows) ([]models.User, error) {
	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Major, &u.CreatedAt, pq.Array(&u.Courses)); err != nil {
			return nil, err
		}
		if u.Courses == nil {
			u.Courses = []string{}
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return users, nil
}
