package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"studymatcher/internal/repo"
)

func TestMatchHandler_FindMatches(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()

	now := time.Now()
	mock.ExpectQuery(`JOIN user_courses uc ON u.id = uc.user_id AND uc.course_name = \$1`).
		WithArgs("Algorithms").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "major", "created_at", "courses"}).
			AddRow(1, "Alice", "alice@x.com", "CS", now, `{Algorithms,Calculus}`).
			AddRow(2, "Bob", "bob@x.com", "Math", now, `{Algorithms}`))

	h := &MatchHandler{Courses: repo.NewCourseRepo(conn)}

	req := requestWithChiURLParams("GET", "/matches/Algorithms", nil, map[string]string{"courseName": "Algorithms"})
	rr := httptest.NewRecorder()
	h.FindMatches(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("FindMatches status: got %d, want 200", rr.Code)
	}
	var out struct {
		Course  string `json:"course"`
		Matches []struct {
			Name    string   `json:"name"`
			Courses []string `json:"courses"`
		} `json:"matches"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Course != "Algorithms" || len(out.Matches) != 2 {
		t.Errorf("unexpected response: %+v", out)
	}
	if len(out.Matches[0].Courses) != 2 {
		t.Errorf("matches must include each user's complete course list, got %v", out.Matches[0].Courses)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestMatchHandler_FindMatches_Empty(t *testing.T) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer conn.Close()

	mock.ExpectQuery(`JOIN user_courses uc ON u.id = uc.user_id AND uc.course_name = \$1`).
		WithArgs("Nobody Takes This").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "major", "created_at", "courses"}))

	h := &MatchHandler{Courses: repo.NewCourseRepo(conn)}

	req := requestWithChiURLParams("GET", "/matches/Nobody%20Takes%20This", nil, map[string]string{"courseName": "Nobody Takes This"})
	rr := httptest.NewRecorder()
	h.FindMatches(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("FindMatches status: got %d, want 200", rr.Code)
	}
	var out struct {
		Matches []interface{} `json:"matches"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Matches == nil || len(out.Matches) != 0 {
		t.Errorf("matches must encode as [], got %v", out.Matches)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
