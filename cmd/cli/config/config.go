package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAPIURL = "http://localhost:8080"
	tokenFileName = ".studymatcher_token"
)

// APIURL returns the base URL for the Study Matcher API.
// It can be overridden with the STUDY_MATCHER_API_URL environment variable.
func APIURL() string {
	if v := os.Getenv("STUDY_MATCHER_API_URL"); v != "" {
		return v
	}
	return defaultAPIURL
}

// ==========================
// Token Storage
// ==========================

func SaveToken(token string) error {
	return os.WriteFile(tokenPath(), []byte(token), 0600)
}

func LoadToken() (string, error) {
	data, err := os.ReadFile(tokenPath())
	if err != nil {
		return "", fmt.Errorf("not logged in, run 'study users login' first")
	}
	return string(data), nil
}

func ClearToken() error {
	path := tokenPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(path)
}

// CurrentUserID extracts the user id from the saved token without verifying
// the signature. The API does its own verification; this only tells the CLI
// which account the token belongs to.
func CurrentUserID() (int, error) {
	raw, err := LoadToken()
	if err != nil {
		return 0, err
	}

	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return 0, fmt.Errorf("saved token is malformed, run 'study users login' again")
	}

	id, ok := claims["user_id"].(float64)
	if !ok {
		return 0, fmt.Errorf("saved token has no user id, run 'study users login' again")
	}
	return int(id), nil
}

func tokenPath() string {
	dir, _ := os.UserHomeDir()
	return filepath.Join(dir, tokenFileName)
}
