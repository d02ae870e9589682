package models

import "time"

// User is a registered student. PasswordHash is never serialized.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Major        string    `json:"major"`
	CreatedAt    time.Time `json:"created_at"`
	Courses      []string  `json:"courses"`
}
