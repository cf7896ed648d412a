package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"contas/internal/core"
	"contas/internal/storage"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
)

// PasswordAuthenticator implements registration and login with bcrypt
// password hashing.
type PasswordAuthenticator struct {
	users storage.Users
	now   func() time.Time
}

func NewPasswordAuthenticator(users storage.Users) *PasswordAuthenticator {
	return &PasswordAuthenticator{users: users, now: time.Now}
}

// Register creates a user account. Emails are stored lowercased; a
// duplicate email surfaces as core.ErrConflict from the store.
func (a *PasswordAuthenticator) Register(ctx context.Context, email, displayName, password string) (*core.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, core.Invalid("email", "must be a valid email address")
	}
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := core.User{
		Email:        email,
		DisplayName:  strings.TrimSpace(displayName),
		PasswordHash: string(hash),
		CreatedAt:    a.now(),
	}
	if err := a.users.CreateUser(ctx, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Authenticate verifies email and password. Missing users and wrong
// passwords are indistinguishable to the caller.
func (a *PasswordAuthenticator) Authenticate(ctx context.Context, email, password string) (*core.User, error) {
	u, err := a.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}
