package middleware

import (
	"errors"
	"net"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mindrise-backend/infrastructure/config"
	"mindrise-backend/pkg/auth"
	"mindrise-backend/pkg/common"
)

// AuthMiddleware authenticates requests and applies per-IP and per-user
// rate limits before handlers run.
type AuthMiddleware struct {
	validator   *auth.JWTValidator
	ipLimiter   *auth.IPRateLimiter
	userLimiter *auth.UserRateLimiter
	logger      *zap.Logger
}

// NewAuthMiddleware creates authentication middleware from service config
func NewAuthMiddleware(cfg *config.Config, logger *zap.Logger) (*AuthMiddleware, error) {
	validator, err := auth.NewJWTValidator(auth.JWTConfig{
		SigningMethod: "HS256",
		SecretKey:     cfg.JWTSecret,
		Issuer:        cfg.JWTIssuer,
	})
	if err != nil {
		return nil, err
	}

	return &AuthMiddleware{
		validator:   validator,
		ipLimiter:   auth.NewIPRateLimiter(100),   // 100 requests per minute per IP
		userLimiter: auth.NewUserRateLimiter(200), // 200 requests per minute per user
		logger:      logger,
	}, nil
}

// Authenticate validates the bearer token and attaches the user to the
// request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		clientIP := getClientIP(r)
		allowed, err := m.ipLimiter.Allow(r.Context(), clientIP)
		if err != nil {
			m.logger.Warn("ip rate limiter degraded", zap.Error(err))
		}
		if !allowed {
			m.logger.Warn("ip rate limit exceeded", zap.String("ip", clientIP))
			common.RespondError(w, http.StatusTooManyRequests,
				common.StandardErrorCodes.TooManyRequests, "too many requests")
			return
		}

		token := extractToken(r)
		if token == "" {
			common.RespondError(w, http.StatusUnauthorized,
				common.StandardErrorCodes.Unauthorized, "missing authentication token")
			return
		}

		claims, err := m.validator.ValidateToken(token)
		if err != nil {
			m.logger.Debug("token rejected",
				zap.String("path", r.URL.Path),
				zap.Error(err),
			)
			common.RespondError(w, http.StatusUnauthorized,
				common.StandardErrorCodes.Unauthorized, authErrorMessage(err))
			return
		}

		allowed, err = m.userLimiter.Allow(r.Context(), claims.UserID)
		if err != nil {
			m.logger.Warn("user rate limiter degraded", zap.Error(err))
		}
		if !allowed {
			m.logger.Warn("user rate limit exceeded", zap.String("userID", claims.UserID))
			common.RespondError(w, http.StatusTooManyRequests,
				common.StandardErrorCodes.TooManyRequests, "too many requests")
			return
		}

		ctx := auth.SetUserInContext(r.Context(), &auth.UserContext{
			UserID: claims.UserID,
			Email:  claims.Email,
			Roles:  claims.Roles,
		})
		ctx = common.WithUserID(ctx, claims.UserID)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole ensures the authenticated user carries the given role
func (m *AuthMiddleware) RequireRole(role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := auth.GetUserFromContext(r.Context())
			if err != nil {
				common.RespondError(w, http.StatusUnauthorized,
					common.StandardErrorCodes.Unauthorized, "authentication required")
				return
			}
			if !user.HasRole(role) {
				common.RespondError(w, http.StatusForbidden,
					common.StandardErrorCodes.Forbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// extractToken pulls the bearer token from the Authorization header.
// API Gateway WebSocket connect requests cannot set headers, so the
// token query parameter is accepted as a fallback.
func extractToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
			return parts[1]
		}
	}
	return r.URL.Query().Get("token")
}

// getClientIP determines the client address, preferring proxy headers
// set by API Gateway and the load balancer.
func getClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	if real := r.Header.Get("X-Real-IP"); real != "" {
		return real
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func authErrorMessage(err error) string {
	switch {
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	case errors.Is(err, auth.ErrInvalidSignature):
		return "invalid token signature"
	case errors.Is(err, auth.ErrInvalidIssuer):
		return "invalid token issuer"
	default:
		return "invalid authentication token"
	}
}
