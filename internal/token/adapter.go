package jwttoken

import (
	"userhub/internal/platform/middleware"
)

// MiddlewareAdapter exposes the token service through the narrower
// interface the auth middleware consumes.
type MiddlewareAdapter struct {
	service *Service
}

func NewMiddlewareAdapter(service *Service) *MiddlewareAdapter {
	return &MiddlewareAdapter{service: service}
}

func (a *MiddlewareAdapter) Validate(tokenString string) (*middleware.TokenClaims, error) {
	claims, err := a.service.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	return &middleware.TokenClaims{
		UserID: claims.UserID,
		Email:  claims.Email,
	}, nil
}
