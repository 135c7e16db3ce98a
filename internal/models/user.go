package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. HashedPassword never leaves the server.
type User struct {
	ID             uuid.UUID   `json:"id" db:"id"`
	Username       string      `json:"username" db:"username"`
	Email          string      `json:"email" db:"email"`
	HashedPassword string      `json:"-" db:"hashed_password"`
	FullName       string      `json:"fullName" db:"full_name"`
	Bio            string      `json:"bio" db:"bio"`
	AvatarURL      string      `json:"avatarUrl" db:"avatar_url"`
	GitHubUsername string      `json:"githubUsername" db:"github_username"`
	Karma          int         `json:"karma" db:"karma"`
	IsConnected    bool        `json:"isConnected" db:"is_connected"`
	LastActive     time.Time   `json:"lastActive" db:"last_active"`
	CreatedAt      time.Time   `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time   `json:"updatedAt" db:"updated_at"`
	Communities    []uuid.UUID `json:"communities,omitempty" db:"-"`
}

// PasswordResetToken is a single-use token mailed to a user.
type PasswordResetToken struct {
	Token     string    `json:"token" db:"token"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	ExpiresAt time.Time `json:"expiresAt" db:"expires_at"`
	Used      bool      `json:"used" db:"used"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
