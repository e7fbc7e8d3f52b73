package user

import (
	"context"

	dErrors "userhub/pkg/domain-errors"
)

var (
	// ErrNotFound keeps storage-specific 404s consistent across
	// implementations.
	ErrNotFound = dErrors.New(dErrors.CodeNotFound, "user not found")

	// ErrEmailTaken maps the unique-email constraint to a domain error.
	ErrEmailTaken = dErrors.New(dErrors.CodeConflict, "email already exists")
)

// Store persists credential records. Stores are pure I/O; password hashing
// and event publication live in the service.
type Store interface {
	Create(ctx context.Context, name, email, passwordHash string) (User, error)
	FindByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
}
