package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

type key string

const (
	// UserIDKey holds the authenticated subject id in the request context.
	UserIDKey key = "user_id"
	// EmailKey holds the authenticated subject email in the request context.
	EmailKey key = "email"
)

// Auth verifies the Authorization bearer token and injects the subject's
// id and email into the request context. A missing header is 401; a token
// that fails verification for any reason (malformed, bad signature,
// expired) is 403 with one indistinguishable message. The subject is not
// checked against current user existence; handlers treat a stale id as
// not found.
func Auth(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				jsonError(w, "Access token required", http.StatusUnauthorized)
				return
			}

			tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

			token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return secret, nil
			})
			if err != nil || !token.Valid {
				jsonError(w, "Invalid or expired token", http.StatusForbidden)
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				jsonError(w, "Invalid or expired token", http.StatusForbidden)
				return
			}
			userID, ok := claims["user_id"].(float64)
			if !ok {
				jsonError(w, "Invalid or expired token", http.StatusForbidden)
				return
			}
			email, _ := claims["email"].(string)

			ctx := context.WithValue(r.Context(), UserIDKey, int(userID))
			ctx = context.WithValue(ctx, EmailKey, email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserID returns the authenticated subject id from the context.
func GetUserID(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(UserIDKey).(int)
	return id, ok
}

// GetEmail returns the authenticated subject email from the context.
func GetEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(EmailKey).(string)
	return email, ok
}

func jsonError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
