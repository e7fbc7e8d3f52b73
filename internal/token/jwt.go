package jwttoken

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	dErrors "userhub/pkg/domain-errors"
)

// tokenVersion is carried as a claim so clients minted against a future
// claim shape can be told apart. Verification does not branch on it.
const tokenVersion = "1.0"

// Claims represents the JWT claims for our access tokens.
type Claims struct {
	UserID  int64  `json:"user_id"`
	Email   string `json:"email"`
	Version string `json:"version"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation with a process-wide HS256
// signing key. Tokens are stateless: validity is signature plus expiry,
// nothing server-side, so tokens cannot be revoked before they expire.
type Service struct {
	signingKey []byte
	ttl        time.Duration
}

func New(signingKey string, ttl time.Duration) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		ttl:        ttl,
	}
}

// Generate mints a signed bearer token for the identity.
func (s *Service) Generate(userID int64, email string) (string, error) {
	now := time.Now()
	newToken := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		UserID:  userID,
		Email:   email,
		Version: tokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	})
	return newToken.SignedString(s.signingKey)
}

// Validate checks signature and expiry. Malformed, forged and expired
// tokens all return the same unauthorized error so callers cannot
// distinguish verification internals.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil || !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token")
	}
	return claims, nil
}
