package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token validation errors
var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrExpiredToken     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid token signature")
	ErrInvalidIssuer    = errors.New("invalid token issuer")
)

// Claims are the JWT claims this service understands
type Claims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email,omitempty"`
	Roles  []string `json:"roles,omitempty"`
	jwt.RegisteredClaims
}

// JWTConfig configures token validation
type JWTConfig struct {
	SigningMethod string
	SecretKey     string
	Issuer        string
	Audience      []string
}

// JWTValidator validates bearer tokens. This service only validates;
// token issuance belongs to the identity provider.
type JWTValidator struct {
	config JWTConfig
}

// NewJWTValidator creates a validator for the given config
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	if config.SecretKey == "" {
		return nil, errors.New("jwt secret key is required")
	}
	if config.SigningMethod == "" {
		config.SigningMethod = "HS256"
	}
	if !strings.HasPrefix(config.SigningMethod, "HS") {
		return nil, fmt.Errorf("unsupported signing method: %s", config.SigningMethod)
	}
	return &JWTValidator{config: config}, nil
}

// ValidateToken parses and validates a token string, returning its claims
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{v.config.SigningMethod}),
		jwt.WithExpirationRequired(),
	}
	if v.config.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(v.config.Issuer))
	}
	if len(v.config.Audience) > 0 {
		opts = append(opts, jwt.WithAudience(v.config.Audience[0]))
	}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(v.config.SecretKey), nil
	}, opts...)
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrExpiredToken
		case errors.Is(err, jwt.ErrTokenSignatureInvalid):
			return nil, ErrInvalidSignature
		case errors.Is(err, jwt.ErrTokenInvalidIssuer):
			return nil, ErrInvalidIssuer
		default:
			return nil, ErrInvalidToken
		}
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.UserID == "" {
		// Some issuers put the user identifier in the subject claim.
		claims.UserID = claims.Subject
	}
	if claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if len(claims.Roles) == 0 {
		claims.Roles = []string{"authenticated"}
	}

	return claims, nil
}

// TokenTTL reports the remaining lifetime of validated claims
func (c *Claims) TokenTTL() time.Duration {
	if c.ExpiresAt == nil {
		return 0
	}
	return time.Until(c.ExpiresAt.Time)
}
