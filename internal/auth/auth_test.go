package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"contas/internal/core"
	"contas/internal/storage/memory"
)

func TestJWTRoundTrip(t *testing.T) {
	mgr := NewJWTManager("test-secret-at-least-16ch", time.Hour)
	user := &core.User{ID: "u-1", Email: "ana@example.com"}

	token, err := mgr.Generate(user)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	claims, err := mgr.Validate(token)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if claims.UserID != "u-1" || claims.Email != "ana@example.com" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestJWTRejectsTampering(t *testing.T) {
	mgr := NewJWTManager("test-secret-at-least-16ch", time.Hour)
	other := NewJWTManager("a-different-secret-entirely", time.Hour)

	token, err := other.Generate(&core.User{ID: "u-1", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	if _, err := mgr.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign signature: got %v, want ErrInvalidToken", err)
	}
	if _, err := mgr.Validate("not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("garbage: got %v, want ErrInvalidToken", err)
	}
}

func TestJWTExpiry(t *testing.T) {
	mgr := NewJWTManager("test-secret-at-least-16ch", -time.Minute)

	token, err := mgr.Generate(&core.User{ID: "u-1", Email: "ana@example.com"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := mgr.Validate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestRegisterAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	a := NewPasswordAuthenticator(store)

	user, err := a.Register(ctx, "  Ana@Example.com ", "Ana", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if user.Email != "ana@example.com" {
		t.Fatalf("email not normalized: %q", user.Email)
	}
	if user.PasswordHash == "hunter2hunter2" || user.PasswordHash == "" {
		t.Fatal("password stored unhashed")
	}

	got, err := a.Authenticate(ctx, "ana@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if got.ID != user.ID {
		t.Fatalf("authenticated id = %s, want %s", got.ID, user.ID)
	}

	if _, err := a.Authenticate(ctx, "ana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: got %v, want ErrInvalidCredentials", err)
	}
	if _, err := a.Authenticate(ctx, "nobody@example.com", "hunter2hunter2"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user: got %v, want ErrInvalidCredentials", err)
	}
}

func TestRegisterRejections(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()
	a := NewPasswordAuthenticator(store)

	if _, err := a.Register(ctx, "not-an-email", "X", "hunter2hunter2"); err == nil {
		t.Fatal("expected error for invalid email")
	}
	if _, err := a.Register(ctx, "ana@example.com", "Ana", "short"); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("short password: got %v, want ErrWeakPassword", err)
	}

	if _, err := a.Register(ctx, "ana@example.com", "Ana", "hunter2hunter2"); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := a.Register(ctx, "ANA@example.com", "Ana 2", "hunter2hunter2"); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email: got %v, want ErrConflict", err)
	}
}
