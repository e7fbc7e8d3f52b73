// Package handler is the thin HTTP layer over the user service. It owns
// request parsing and validation; business rules stay in the service.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/asaskevich/govalidator"
	"github.com/go-chi/chi/v5"

	"userhub/internal/platform/middleware"
	"userhub/internal/transport/http/shared"
	"userhub/internal/user"
	dErrors "userhub/pkg/domain-errors"
)

// Service defines the user operations the handler delegates to.
type Service interface {
	Register(ctx context.Context, req user.RegisterRequest) (user.User, error)
	Login(ctx context.Context, req user.LoginRequest) (string, user.User, error)
	Create(ctx context.Context, req user.CreateRequest) (user.User, error)
	List(ctx context.Context) ([]user.User, error)
}

// Handler serves the auth and user endpoints.
type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.TokenValidator
}

func New(service Service, logger *slog.Logger, validator middleware.TokenValidator) *Handler {
	return &Handler{
		service:   service,
		logger:    logger,
		validator: validator,
	}
}

// Register mounts the routes. /users requires a bearer token; the auth
// endpoints are public.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/register", h.handleRegister)
	r.Post("/auth/login", h.handleLogin)
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.RequireAuth(h.validator, h.logger))
		pr.Get("/users", h.handleListUsers)
		pr.Post("/users", h.handleCreateUser)
	})
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req user.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Name == "" || req.Email == "" || req.Password == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Name, email, and password are required"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Invalid email format"))
		return
	}
	if len(req.Password) < 8 {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Password must be at least 8 characters long"))
		return
	}

	u, err := h.service.Register(ctx, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConflict) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "register failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "Internal server error"))
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User registered successfully",
		"userId":  u.ID,
	})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req user.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Email == "" || req.Password == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Email and password are required"))
		return
	}

	token, u, err := h.service.Login(ctx, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeUnauthorized) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "login failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "Internal server error"))
		return
	}

	shared.WriteJSON(w, http.StatusOK, map[string]any{
		"message": "Login successful",
		"token":   token,
		"user": map[string]any{
			"id":    u.ID,
			"name":  u.Name,
			"email": u.Email,
		},
	})
}

func (h *Handler) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req user.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	if req.Name == "" || req.Email == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Name and email are required"))
		return
	}
	if !govalidator.IsEmail(req.Email) {
		shared.WriteError(w, dErrors.New(dErrors.CodeInvalidInput, "Invalid email format"))
		return
	}

	u, err := h.service.Create(ctx, req)
	if err != nil {
		if dErrors.Is(err, dErrors.CodeConflict) {
			shared.WriteError(w, err)
			return
		}
		h.logger.ErrorContext(ctx, "create user failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "Internal server error"))
		return
	}

	shared.WriteJSON(w, http.StatusCreated, map[string]any{
		"message": "User created successfully",
		"userId":  u.ID,
	})
}

func (h *Handler) handleListUsers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	users, err := h.service.List(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "list users failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err,
		)
		shared.WriteError(w, dErrors.New(dErrors.CodeInternal, "Internal server error"))
		return
	}

	infos := make([]user.Info, 0, len(users))
	for _, u := range users {
		infos = append(infos, u.ToInfo())
	}
	shared.WriteJSON(w, http.StatusOK, infos)
}
