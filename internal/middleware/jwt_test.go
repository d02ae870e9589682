package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, secret []byte, userID int, email string, exp time.Time) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": userID,
		"email":   email,
		"iat":     time.Now().Unix(),
		"exp":     exp.Unix(),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestAuth_InjectsSubject(t *testing.T) {
	secret := []byte("test-secret")
	var gotID int
	var gotEmail string

	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID, _ = GetUserID(r.Context())
		gotEmail, _ = GetEmail(r.Context())
	}))

	token := signToken(t, secret, 7, "alice@x.com", time.Now().Add(time.Hour))
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	if gotID != 7 || gotEmail != "alice@x.com" {
		t.Errorf("subject: got id=%d email=%q", gotID, gotEmail)
	}
}

func TestAuth_MissingHeader(t *testing.T) {
	handler := Auth([]byte("test-secret"))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusUnauthorized {
		t.Errorf("status: got %d, want 401", rr.Code)
	}
}

// Expired, malformed, and wrongly-signed tokens must all fail the same way.
func TestAuth_InvalidTokens(t *testing.T) {
	secret := []byte("test-secret")
	handler := Auth(secret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	tokens := map[string]string{
		"expired":   signToken(t, secret, 1, "a@x.com", time.Now().Add(-time.Hour)),
		"malformed": "not-a-token",
		"wrong key": signToken(t, []byte("other-secret"), 1, "a@x.com", time.Now().Add(time.Hour)),
	}

	var bodies []string
	for name, token := range tokens {
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)

		if rr.Code != http.StatusForbidden {
			t.Errorf("%s: status got %d, want 403", name, rr.Code)
		}
		bodies = append(bodies, rr.Body.String())
	}
	for _, b := range bodies[1:] {
		if b != bodies[0] {
			t.Errorf("failure bodies must be indistinguishable: %q vs %q", bodies[0], b)
		}
	}
}
