// Package service holds the user business logic: credential writes, login
// and the user-created event side channel.
package service

import (
	"context"
	"errors"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"userhub/internal/event"
	"userhub/internal/platform/metrics"
	"userhub/internal/user"
	dErrors "userhub/pkg/domain-errors"
)

// defaultPassword backfills rows created through the authenticated
// POST /users endpoint, which carries no password field.
const defaultPassword = "default-password"

// EventPublisher is the side channel notified after each committed user
// row.
type EventPublisher interface {
	Publish(ctx context.Context, e event.UserEvent) error
}

// TokenIssuer mints bearer tokens on login.
type TokenIssuer interface {
	Generate(userID int64, email string) (string, error)
}

// errInvalidCredentials is deliberately identical for unknown email and
// wrong password so login does not reveal whether an email exists.
var errInvalidCredentials = dErrors.New(dErrors.CodeUnauthorized, "invalid email or password")

// Service implements registration, login and listing over a Store. Events
// are published after the row commit; a publish failure is logged and
// observable but never rolls back the committed row.
type Service struct {
	users     user.Store
	publisher EventPublisher
	tokens    TokenIssuer
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

func New(users user.Store, publisher EventPublisher, tokens TokenIssuer, logger *slog.Logger, m *metrics.Metrics) *Service {
	return &Service{
		users:     users,
		publisher: publisher,
		tokens:    tokens,
		logger:    logger,
		metrics:   m,
	}
}

// Register hashes the password, persists the user and emits a USER_CREATED
// event. The handler validated the request; duplicate emails surface as a
// conflict.
func (s *Service) Register(ctx context.Context, req user.RegisterRequest) (user.User, error) {
	return s.create(ctx, req.Name, req.Email, req.Password)
}

// Create persists a user from the authenticated endpoint, storing a
// placeholder password.
func (s *Service) Create(ctx context.Context, req user.CreateRequest) (user.User, error) {
	return s.create(ctx, req.Name, req.Email, defaultPassword)
}

func (s *Service) create(ctx context.Context, name, email, password string) (user.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, dErrors.New(dErrors.CodeInternal, "failed to hash password")
	}

	u, err := s.users.Create(ctx, name, email, string(hash))
	if err != nil {
		return user.User{}, err
	}
	s.metrics.IncrementUsersCreated()

	// The row is durably committed at this point. Publish is best-effort:
	// a broker failure must not fail the request, only be observable.
	if err := s.publisher.Publish(ctx, event.NewUserCreated(u.ID, u.Name, u.Email)); err != nil {
		s.logger.ErrorContext(ctx, "user created but event publish failed",
			"user_id", u.ID,
			"error", err,
		)
	}
	return u, nil
}

// Login authenticates the credentials and mints a bearer token. Any
// authentication failure collapses to the same generic error.
func (s *Service) Login(ctx context.Context, req user.LoginRequest) (string, user.User, error) {
	u, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) || dErrors.Is(err, dErrors.CodeNotFound) {
			return "", user.User{}, errInvalidCredentials
		}
		return "", user.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)); err != nil {
		return "", user.User{}, errInvalidCredentials
	}

	token, err := s.tokens.Generate(u.ID, u.Email)
	if err != nil {
		return "", user.User{}, dErrors.New(dErrors.CodeInternal, "failed to generate token")
	}
	return token, u, nil
}

// List returns all users ordered by ID.
func (s *Service) List(ctx context.Context) ([]user.User, error) {
	return s.users.List(ctx)
}
