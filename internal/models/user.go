package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// User represents a registered user account.
//
// The engine itself never consults this model: operations receive the
// authenticated user id as an explicit parameter. It exists for the identity
// layer (registration, login) that supplies that id.
type User struct {
	// ID is the unique identifier for the user (UUID format).
	ID string

	// Name is the display name of the user.
	Name string

	// Email is the user's email address (unique, stored lowercased).
	Email string

	// PasswordHash is the bcrypt hash of the user's password.
	PasswordHash string

	// PreferredCurrency is the default currency for new entities.
	PreferredCurrency Currency

	IsActive bool

	// CreatedAt and UpdatedAt are Unix timestamps.
	CreatedAt int64
	UpdatedAt int64
}

// NewUser creates a user with a fresh ID and timestamps. The email is
// normalized to lower case.
func NewUser(email, name, passwordHash string) *User {
	now := time.Now().Unix()
	return &User{
		ID:                uuid.New().String(),
		Name:              name,
		Email:             strings.ToLower(strings.TrimSpace(email)),
		PasswordHash:      passwordHash,
		PreferredCurrency: HTG,
		IsActive:          true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}
