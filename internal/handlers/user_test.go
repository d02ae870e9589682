package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-chi/chi/v5"

	"studymatcher/internal/middleware"
	"studymatcher/internal/repo"
)

// requestWithChiURLParams returns a request with chi route context and URL params set.
func requestWithChiURLParams(method, path string, body []byte, params map[string]string) *http.Request {
	var r *http.Request
	if body != nil {
		r = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		r = httptest.NewRequest(method, path, nil)
	}
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	r = r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
	return r
}

// withSubject injects an authenticated subject id the way the auth middleware would.
func withSubject(r *http.Request, userID int) *http.Request {
	ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
	return r.WithContext(ctx)
}

func newUserHandler(t *testing.T) (*UserHandler, sqlmock.Sqlmock, func()) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	h := &UserHandler{Users: repo.NewUserRepo(conn), Courses: repo.NewCourseRepo(conn)}
	return h, mock, func() { conn.Close() }
}

func TestUserHandler_ListUsers(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`SELECT u.id, u.name, u.email, u.major, u.created_at`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "major", "created_at", "courses"}).
			AddRow(1, "Alice", "alice@x.com", "CS", now, `{Algorithms}`).
			AddRow(2, "Bob", "bob@x.com", "Math", now, "{}"))

	req := httptest.NewRequest("GET", "/users", nil)
	rr := httptest.NewRecorder()
	h.ListUsers(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("ListUsers status: got %d, want 200", rr.Code)
	}
	var list []struct {
		ID      int      `json:"id"`
		Name    string   `json:"name"`
		Courses []string `json:"courses"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&list); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(list) != 2 || list[0].Name != "Alice" || len(list[0].Courses) != 1 {
		t.Errorf("unexpected list: %+v", list)
	}
	if list[1].Courses == nil {
		t.Errorf("courses must encode as [], not null")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_GetUser_NotFound(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectQuery(`SELECT u.id, u.name, u.email, u.major, u.created_at`).
		WithArgs(999).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "major", "created_at", "courses"}))

	req := requestWithChiURLParams("GET", "/users/999", nil, map[string]string{"id": "999"})
	rr := httptest.NewRecorder()
	h.GetUser(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("GetUser status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_GetUser_InvalidID(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	req := requestWithChiURLParams("GET", "/users/abc", nil, map[string]string{"id": "abc"})
	rr := httptest.NewRecorder()
	h.GetUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("GetUser status: got %d, want 400", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_SearchUsers(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`u.major ILIKE \$1`).
		WithArgs("%cs%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "major", "created_at", "courses"}).
			AddRow(1, "Alice", "alice@x.com", "CS", now, "{}"))

	req := httptest.NewRequest("GET", "/users/search?major=cs", nil)
	rr := httptest.NewRecorder()
	h.SearchUsers(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("SearchUsers status: got %d, want 200", rr.Code)
	}
	var out struct {
		Count int `json:"count"`
		Users []struct {
			Name string `json:"name"`
		} `json:"users"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.Count != 1 || len(out.Users) != 1 || out.Users[0].Name != "Alice" {
		t.Errorf("unexpected response: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

// A valid token for a different subject id must always yield 403, never 404
// or success, and must not reach the store.
func TestUserHandler_UpdateUser_Forbidden(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	body, _ := json.Marshal(map[string]string{"name": "Mallory"})
	req := requestWithChiURLParams("PUT", "/users/1", body, map[string]string{"id": "1"})
	req = withSubject(req, 2)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("UpdateUser status: got %d, want 403", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_UpdateUser(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	now := time.Now()
	mock.ExpectQuery(`UPDATE users`).
		WithArgs("Alice B.", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "email", "major", "created_at"}).
			AddRow(1, "Alice B.", "alice@x.com", "CS", now))
	mock.ExpectQuery(`SELECT course_name FROM user_courses`).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"course_name"}))

	body, _ := json.Marshal(map[string]string{"name": "Alice B."})
	req := requestWithChiURLParams("PUT", "/users/1", body, map[string]string{"id": "1"})
	req = withSubject(req, 1)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("UpdateUser status: got %d, want 200 (body %s)", rr.Code, rr.Body.String())
	}
	var out struct {
		User struct {
			Name string `json:"name"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if out.User.Name != "Alice B." {
		t.Errorf("unexpected user: %+v", out.User)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_UpdateUser_NoFields(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	body, _ := json.Marshal(map[string]string{})
	req := requestWithChiURLParams("PUT", "/users/1", body, map[string]string{"id": "1"})
	req = withSubject(req, 1)
	rr := httptest.NewRecorder()
	h.UpdateUser(rr, req)

	if rr.Code != http.StatusBadRequest {
		t.Errorf("UpdateUser status: got %d, want 400", rr.Code)
	}
	var out map[string]string
	json.NewDecoder(rr.Body).Decode(&out)
	if out["error"] != "No fields to update" {
		t.Errorf("unexpected error: %q", out["error"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser_Forbidden(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	req := requestWithChiURLParams("DELETE", "/users/1", nil, map[string]string{"id": "1"})
	req = withSubject(req, 2)
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("DeleteUser status: got %d, want 403", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 1))

	req := requestWithChiURLParams("DELETE", "/users/1", nil, map[string]string{"id": "1"})
	req = withSubject(req, 1)
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("DeleteUser status: got %d, want 200", rr.Code)
	}
	var out map[string]string
	json.NewDecoder(rr.Body).Decode(&out)
	if out["message"] != "Account deleted successfully" {
		t.Errorf("unexpected message: %q", out["message"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_DeleteUser_StaleToken(t *testing.T) {
	h, mock, done := newUserHandler(t)
	defer done()

	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(1).
		WillReturnResult(sqlmock.NewResult(0, 0))

	req := requestWithChiURLParams("DELETE", "/users/1", nil, map[string]string{"id": "1"})
	req = withSubject(req, 1)
	rr := httptest.NewRecorder()
	h.DeleteUser(rr, req)

	if rr.Code != http.StatusNotFound {
		t.Errorf("DeleteUser status: got %d, want 404", rr.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}
