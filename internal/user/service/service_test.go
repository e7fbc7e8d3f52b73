package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"userhub/internal/event"
	"userhub/internal/platform/metrics"
	jwttoken "userhub/internal/token"
	"userhub/internal/user"
	dErrors "userhub/pkg/domain-errors"
)

// One registry per test binary; promauto panics on re-registration.
var testMetrics = metrics.New()

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

type fakePublisher struct {
	mu     sync.Mutex
	events []event.UserEvent
	err    error
}

func (p *fakePublisher) Publish(_ context.Context, e event.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *fakePublisher) published() []event.UserEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]event.UserEvent(nil), p.events...)
}

func newTestService(publisher EventPublisher) (*Service, *user.InMemoryStore) {
	store := user.NewInMemoryStore()
	tokens := jwttoken.New("test-signing-key", 24*time.Hour)
	return New(store, publisher, tokens, testLogger(), testMetrics), store
}

func TestService_Register(t *testing.T) {
	publisher := &fakePublisher{}
	svc, store := newTestService(publisher)
	ctx := context.Background()

	u, err := svc.Register(ctx, user.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)
	assert.Equal(t, "Ann", u.Name)
	assert.Equal(t, "ann@example.com", u.Email)
	assert.NotZero(t, u.ID)

	stored, err := store.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-password", stored.PasswordHash, "password must never be stored in clear")
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("secret-password")))

	events := publisher.published()
	require.Len(t, events, 1)
	assert.Equal(t, event.KindUserCreated, events[0].Kind)
	assert.Equal(t, u.ID, events[0].UserID)
	assert.Equal(t, "ann@example.com", events[0].Email)
}

func TestService_Register_DuplicateEmail(t *testing.T) {
	publisher := &fakePublisher{}
	svc, _ := newTestService(publisher)
	ctx := context.Background()

	req := user.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret-password"}
	_, err := svc.Register(ctx, req)
	require.NoError(t, err)

	_, err = svc.Register(ctx, req)
	require.Error(t, err)
	assert.True(t, dErrors.Is(err, dErrors.CodeConflict))
	assert.Len(t, publisher.published(), 1, "the rejected registration must not emit a second event")
}

func TestService_Register_PublishFailureDoesNotFailRequest(t *testing.T) {
	publisher := &fakePublisher{err: errors.New("broker down")}
	svc, store := newTestService(publisher)
	ctx := context.Background()

	u, err := svc.Register(ctx, user.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err, "a broker outage must not fail registration")

	stored, err := store.FindByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, stored.ID)
}

func TestService_Create_UsesDefaultPassword(t *testing.T) {
	publisher := &fakePublisher{}
	svc, store := newTestService(publisher)
	ctx := context.Background()

	u, err := svc.Create(ctx, user.CreateRequest{Name: "Bob", Email: "bob@example.com"})
	require.NoError(t, err)
	assert.NotZero(t, u.ID)

	stored, err := store.FindByEmail(ctx, "bob@example.com")
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte(defaultPassword)))
	assert.Len(t, publisher.published(), 1)
}

func TestService_Login(t *testing.T) {
	svc, _ := newTestService(&fakePublisher{})
	ctx := context.Background()

	_, err := svc.Register(ctx, user.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	token, u, err := svc.Login(ctx, user.LoginRequest{Email: "ann@example.com", Password: "secret-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "ann@example.com", u.Email)
}

// Login failures must not leak whether the email exists.
func TestService_Login_UniformFailure(t *testing.T) {
	svc, _ := newTestService(&fakePublisher{})
	ctx := context.Background()

	_, err := svc.Register(ctx, user.RegisterRequest{
		Name:     "Ann",
		Email:    "ann@example.com",
		Password: "secret-password",
	})
	require.NoError(t, err)

	_, _, errUnknownEmail := svc.Login(ctx, user.LoginRequest{Email: "nobody@example.com", Password: "secret-password"})
	_, _, errWrongPassword := svc.Login(ctx, user.LoginRequest{Email: "ann@example.com", Password: "wrong-password"})

	require.Error(t, errUnknownEmail)
	require.Error(t, errWrongPassword)
	assert.True(t, dErrors.Is(errUnknownEmail, dErrors.CodeUnauthorized))
	assert.True(t, dErrors.Is(errWrongPassword, dErrors.CodeUnauthorized))
	assert.Equal(t, errUnknownEmail.Error(), errWrongPassword.Error())
}

func TestService_List(t *testing.T) {
	svc, _ := newTestService(&fakePublisher{})
	ctx := context.Background()

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Register(ctx, user.RegisterRequest{Name: "u", Email: email, Password: "secret-password"})
		require.NoError(t, err)
	}

	users, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.True(t, users[0].ID < users[1].ID && users[1].ID < users[2].ID, "users are ordered by ID")
}
