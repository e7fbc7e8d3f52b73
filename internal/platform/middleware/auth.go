package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
)

// TokenValidator is what RequireAuth needs from the token service.
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims represents the claims RequireAuth stores on the request
// context after a successful validation.
type TokenClaims struct {
	UserID int64
	Email  string
}

// Context keys for authenticated request information.
type contextKeyUserID struct{}
type contextKeyEmail struct{}

var (
	ContextKeyUserID = contextKeyUserID{}
	ContextKeyEmail  = contextKeyEmail{}
)

// GetUserID retrieves the authenticated user ID from the context.
// Returns 0 when the request was not authenticated.
func GetUserID(ctx context.Context) int64 {
	userID, ok := ctx.Value(ContextKeyUserID).(int64)
	if !ok {
		return 0
	}
	return userID
}

// GetEmail retrieves the authenticated user's email from the context.
func GetEmail(ctx context.Context) string {
	email, ok := ctx.Value(ContextKeyEmail).(string)
	if !ok {
		return ""
	}
	return email
}

// RequireAuth rejects requests without a valid bearer token. Expired,
// forged and malformed tokens all produce the same 401 body so callers
// cannot probe verification internals.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			authHeader := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(authHeader, "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Missing or invalid Authorization header")
				return
			}

			claims, err := validator.Validate(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", GetRequestID(ctx),
				)
				writeUnauthorized(w, "Invalid or expired token")
				return
			}

			ctx = context.WithValue(ctx, ContextKeyUserID, claims.UserID)
			ctx = context.WithValue(ctx, ContextKeyEmail, claims.Email)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeUnauthorized(w http.ResponseWriter, description string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","error_description":"` + description + `"}`))
}
