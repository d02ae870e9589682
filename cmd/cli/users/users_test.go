package users

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"studymatcher/internal/models"
)

// captureOutput helps capture stdout during command execution.
func captureOutput(t *testing.T, fn func()) string {
	t.Helper()

	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	fn()

	_ = w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	return buf.String()
}

func TestListUsers_TableOutput(t *testing.T) {
	users := []models.User{
		{ID: 1, Name: "Alice", Email: "alice@x.com", Major: "CS", Courses: []string{"Algorithms"}},
		{ID: 2, Name: "Bob", Email: "bob@x.com", Major: "Math", Courses: []string{}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(users)
	}))
	defer srv.Close()

	_ = os.Setenv("STUDY_MATCHER_API_URL", srv.URL)
	defer os.Unsetenv("STUDY_MATCHER_API_URL")

	cmd := listUsersCmd()

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, "Alice") || !strings.Contains(out, "Bob") {
		t.Fatalf("expected names in output, got: %s", out)
	}
	if !strings.Contains(out, "Algorithms") {
		t.Fatalf("expected course list in output, got: %s", out)
	}
}

func TestListUsers_JSONOutput(t *testing.T) {
	users := []models.User{
		{ID: 1, Name: "Alice", Email: "alice@x.com", Major: "CS", Courses: []string{"Algorithms"}},
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(users)
	}))
	defer srv.Close()

	_ = os.Setenv("STUDY_MATCHER_API_URL", srv.URL)
	defer os.Unsetenv("STUDY_MATCHER_API_URL")

	cmd := listUsersCmd()
	_ = cmd.Flags().Set("json", "true")

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, `"name": "Alice"`) {
		t.Fatalf("expected JSON output, got: %s", out)
	}
}

func TestSearchUsers_SendsFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users/search" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("major"); got != "CS" {
			t.Fatalf("major filter not sent, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"count": 1,
			"users": []models.User{{ID: 1, Name: "Alice", Email: "alice@x.com", Major: "CS", Courses: []string{}}},
		})
	}))
	defer srv.Close()

	_ = os.Setenv("STUDY_MATCHER_API_URL", srv.URL)
	defer os.Unsetenv("STUDY_MATCHER_API_URL")

	cmd := searchUsersCmd()
	_ = cmd.Flags().Set("major", "CS")

	out := captureOutput(t, func() {
		cmd.Run(cmd, []string{})
	})

	if !strings.Contains(out, "Alice") {
		t.Fatalf("expected match in output, got: %s", out)
	}
}
