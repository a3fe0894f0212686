package auth

import (
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/stockdeck/pkg/config"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var jwtSigningMethod = jwt.SigningMethodHS256

// Role is the dashboard capability carried in access tokens.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleViewer:
		return true
	}
	return false
}

// AccessTokenClaims is the typed claim set this service verifies. Tokens are
// minted by the identity collaborator; MintAccessToken exists for tooling and
// tests.
type AccessTokenClaims struct {
	UserID uuid.UUID `json:"uid"`
	Role   Role      `json:"role"`
	jwt.RegisteredClaims
}

// MintAccessToken issues a signed JWT for the provided identity.
func MintAccessToken(cfg config.JWTConfig, now time.Time, userID uuid.UUID, role Role, ttl time.Duration) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("jwt secret is required")
	}
	if cfg.Issuer == "" {
		return "", fmt.Errorf("jwt issuer is required")
	}
	if !role.IsValid() {
		return "", fmt.Errorf("invalid role %q", role)
	}
	if ttl <= 0 {
		return "", fmt.Errorf("token ttl must be positive")
	}

	claims := AccessTokenClaims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing jwt: %w", err)
	}
	return signed, nil
}

// ParseAccessToken validates the JWT string and returns typed claims.
func ParseAccessToken(cfg config.JWTConfig, tokenString string) (*AccessTokenClaims, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("jwt secret is required")
	}
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return nil, fmt.Errorf("token is required")
	}

	claims := &AccessTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithIssuer(cfg.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return nil, fmt.Errorf("parsing jwt: %w", err)
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("invalid role claim %q", claims.Role)
	}
	return claims, nil
}
