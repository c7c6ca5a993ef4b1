package identity

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailTaken         = errors.New("an account with this email already exists")
	ErrNoSession          = errors.New("no active session")
)

// Principal is the authenticated external account: opaque to the domain
// beyond its id and contact address. Metadata carries the signup hints
// (display name, intended role) the way the auth provider stores them.
type Principal struct {
	ID       uuid.UUID
	Email    string
	Metadata map[string]string
}

type Session struct {
	AccessToken string
	Principal   Principal
	ExpiresAt   time.Time
}

// Service is the consumed auth capability: credential exchange, account
// creation and session lifecycle. The holder drives it and never assumes a
// particular backing implementation.
type Service interface {
	SignInWithPassword(ctx context.Context, email, password string) (*Session, error)
	SignUp(ctx context.Context, email, password string, metadata map[string]string) (*Principal, error)
	SignOut(ctx context.Context) error
	ResetPasswordForEmail(ctx context.Context, email string) error

	// SignInWithExternalProvider returns the provider redirect URL; the
	// resulting session arrives through OnSessionChange.
	SignInWithExternalProvider(ctx context.Context, provider, redirectTo string) (string, error)

	// CurrentSession returns the persisted session, or nil when signed out.
	CurrentSession(ctx context.Context) (*Session, error)

	// OnSessionChange registers a handler invoked asynchronously whenever a
	// session is established (non-nil) or cleared (nil), for the life of the
	// process.
	OnSessionChange(fn func(*Session))
}
