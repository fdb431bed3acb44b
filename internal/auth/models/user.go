package models

import (
	"strings"
	"time"

	id "trialreg/pkg/domain"
	dErrors "trialreg/pkg/domain-errors"
)

// MinPasswordLength is the shortest password accepted for new users.
const MinPasswordLength = 8

// User is a staff member or read-only operator of the registry.
type User struct {
	ID           id.UserID
	Username     string
	FullName     string
	PasswordHash []byte
	IsStaff      bool
	CreatedAt    time.Time
}

// NewUser validates the identity fields of a user. The password hash is set
// by the caller once the plain password has been checked.
func NewUser(userID id.UserID, username, fullName string, isStaff bool, now time.Time) (*User, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "El nombre de usuario es obligatorio")
	}
	if len(username) > 150 || strings.ContainsAny(username, " \t\n") {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "El nombre de usuario no es válido")
	}
	return &User{
		ID:        userID,
		Username:  username,
		FullName:  strings.TrimSpace(fullName),
		IsStaff:   isStaff,
		CreatedAt: now,
	}, nil
}

// NormalizeUsername folds usernames so lookups ignore case and padding.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}
