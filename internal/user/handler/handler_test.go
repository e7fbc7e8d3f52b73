package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	jwttoken "userhub/internal/token"
	"userhub/internal/user"
	"userhub/internal/user/handler/mocks"
	dErrors "userhub/pkg/domain-errors"
)

//go:generate mockgen -source=handler.go -destination=mocks/service-mocks.go -package=mocks Service
type UserHandlerSuite struct {
	suite.Suite
	ctx    context.Context
	tokens *jwttoken.Service
}

func TestUserHandlerSuite(t *testing.T) {
	suite.Run(t, new(UserHandlerSuite))
}

func (s *UserHandlerSuite) SetupSuite() {
	s.ctx = context.Background()
	s.tokens = jwttoken.New("test-signing-key", 24*time.Hour)
}

func (s *UserHandlerSuite) newHandler(t *testing.T) (*mocks.MockService, *chi.Mux) {
	t.Helper()
	ctrl := gomock.NewController(t)
	mockService := mocks.NewMockService(ctrl)
	h := New(mockService, slog.New(slog.DiscardHandler), jwttoken.NewMiddlewareAdapter(s.tokens))
	router := chi.NewRouter()
	h.Register(router)
	return mockService, router
}

func (s *UserHandlerSuite) doRequest(t *testing.T, router *chi.Mux, method, path, body, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 && strings.HasPrefix(rec.Body.String(), "{") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec.Code, decoded
}

func (s *UserHandlerSuite) TestHandler_Register() {
	validBody := `{"name":"Ann","email":"ann@example.com","password":"secret-password"}`

	s.T().Run("valid registration - 201", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Register(gomock.Any(), user.RegisterRequest{Name: "Ann", Email: "ann@example.com", Password: "secret-password"}).
			Return(user.User{ID: 1, Name: "Ann", Email: "ann@example.com"}, nil)

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/register", validBody, "")

		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "User registered successfully", body["message"])
		assert.Equal(t, float64(1), body["userId"])
	})

	s.T().Run("returns 400 when body is invalid json", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any()).Times(0)

		status, _ := s.doRequest(t, router, http.MethodPost, "/auth/register", "{bad-json", "")

		assert.Equal(t, http.StatusBadRequest, status)
	})

	s.T().Run("returns 400 when fields missing", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any()).Times(0)

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/register", `{"name":"Ann"}`, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Name, email, and password are required", body["error"])
	})

	s.T().Run("returns 400 when email is invalid", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any()).Times(0)

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/register",
			`{"name":"Ann","email":"not-an-email","password":"secret-password"}`, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid email format", body["error"])
	})

	s.T().Run("returns 400 when password is too short", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Register(gomock.Any(), gomock.Any()).Times(0)

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/register",
			`{"name":"Ann","email":"ann@example.com","password":"short"}`, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Password must be at least 8 characters long", body["error"])
	})

	s.T().Run("returns 409 when email is taken", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			Return(user.User{}, dErrors.New(dErrors.CodeConflict, "User with this email already exists"))

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/register", validBody, "")

		assert.Equal(t, http.StatusConflict, status)
		assert.Equal(t, "User with this email already exists", body["error"])
	})

	s.T().Run("returns 500 on unexpected service failure", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Register(gomock.Any(), gomock.Any()).
			Return(user.User{}, dErrors.New(dErrors.CodeInternal, "db down"))

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/register", validBody, "")

		assert.Equal(t, http.StatusInternalServerError, status)
		assert.Equal(t, "Internal server error", body["error"], "internal details must not leak")
	})
}

func (s *UserHandlerSuite) TestHandler_Login() {
	validBody := `{"email":"ann@example.com","password":"secret-password"}`

	s.T().Run("valid login - 200 with token and user", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Login(gomock.Any(), user.LoginRequest{Email: "ann@example.com", Password: "secret-password"}).
			Return("signed-token", user.User{ID: 1, Name: "Ann", Email: "ann@example.com"}, nil)

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/login", validBody, "")

		assert.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Login successful", body["message"])
		assert.Equal(t, "signed-token", body["token"])
		userBody, ok := body["user"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "ann@example.com", userBody["email"])
	})

	s.T().Run("returns 400 when fields missing", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Login(gomock.Any(), gomock.Any()).Times(0)

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/login", `{"email":"ann@example.com"}`, "")

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Email and password are required", body["error"])
	})

	s.T().Run("returns 401 on bad credentials", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Login(gomock.Any(), gomock.Any()).
			Return("", user.User{}, dErrors.New(dErrors.CodeUnauthorized, "invalid email or password"))

		status, body := s.doRequest(t, router, http.MethodPost, "/auth/login", validBody, "")

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "invalid email or password", body["error"])
	})
}

func (s *UserHandlerSuite) TestHandler_ProtectedRoutes() {
	s.T().Run("list without token - 401", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().List(gomock.Any()).Times(0)

		status, body := s.doRequest(t, router, http.MethodGet, "/users", "", "")

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "unauthorized", body["error"])
	})

	s.T().Run("list with garbage token - 401", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().List(gomock.Any()).Times(0)

		status, body := s.doRequest(t, router, http.MethodGet, "/users", "", "garbage")

		assert.Equal(t, http.StatusUnauthorized, status)
		assert.Equal(t, "unauthorized", body["error"])
	})

	s.T().Run("list with valid token - 200", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().List(gomock.Any()).Return([]user.User{
			{ID: 1, Name: "Ann", Email: "ann@example.com", PasswordHash: "hash"},
		}, nil)

		token, err := s.tokens.Generate(1, "ann@example.com")
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodGet, "/users", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var users []map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
		require.Len(t, users, 1)
		assert.Equal(t, "ann@example.com", users[0]["email"])
		assert.NotContains(t, rec.Body.String(), "hash", "password hashes must never be serialized")
	})

	s.T().Run("create with valid token - 201", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().
			Create(gomock.Any(), user.CreateRequest{Name: "Bob", Email: "bob@example.com"}).
			Return(user.User{ID: 2, Name: "Bob", Email: "bob@example.com"}, nil)

		token, err := s.tokens.Generate(1, "ann@example.com")
		require.NoError(t, err)

		status, body := s.doRequest(t, router, http.MethodPost, "/users",
			`{"name":"Bob","email":"bob@example.com"}`, token)

		assert.Equal(t, http.StatusCreated, status)
		assert.Equal(t, "User created successfully", body["message"])
		assert.Equal(t, float64(2), body["userId"])
	})

	s.T().Run("create with missing fields - 400", func(t *testing.T) {
		mockService, router := s.newHandler(t)
		mockService.EXPECT().Create(gomock.Any(), gomock.Any()).Times(0)

		token, err := s.tokens.Generate(1, "ann@example.com")
		require.NoError(t, err)

		status, body := s.doRequest(t, router, http.MethodPost, "/users", `{"name":"Bob"}`, token)

		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Name and email are required", body["error"])
	})
}
