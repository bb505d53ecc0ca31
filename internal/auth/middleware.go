package auth

import (
	"crypto/subtle"
	"net/http"
	"strings"
	"time"

	"github.com/buildflow/subcontractor-api/internal/config"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RoleAPIService is assigned to requests authenticated with the service API key.
const RoleAPIService = "api.service"

// Middleware handles authentication for HTTP requests
type Middleware struct {
	jwtValidator *JWTValidator
	apiKey       string
	logger       *zap.Logger
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(cfg *config.Config, logger *zap.Logger) *Middleware {
	return &Middleware{
		jwtValidator: NewJWTValidator(&cfg.AzureAd),
		apiKey:       cfg.ApiKey.Value,
		logger:       logger,
	}
}

// Authenticate is the main authentication middleware
func (m *Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		authHeader := r.Header.Get("Authorization")

		// Try API key first
		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if m.validateAPIKey(apiKey) {
				userCtx := systemUserContext()
				ctx := WithUserContext(r.Context(), userCtx)

				m.logger.Info("request authenticated",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.String("auth_type", "api_key"),
					zap.String("user_id", userCtx.UserID.String()),
					zap.Duration("auth_duration", time.Since(start)),
				)

				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			m.logger.Warn("invalid API key attempt",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
			)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}

		// Try JWT Bearer token
		if authHeader == "" {
			http.Error(w, "Unauthorized: missing authorization header", http.StatusUnauthorized)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			http.Error(w, "Unauthorized: invalid authorization header format", http.StatusUnauthorized)
			return
		}

		userCtx, err := m.jwtValidator.ValidateToken(parts[1])
		if err != nil {
			m.logger.Warn("token validation failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.Error(err),
			)
			http.Error(w, "Unauthorized: "+err.Error(), http.StatusUnauthorized)
			return
		}

		m.logger.Info("request authenticated",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("auth_type", "jwt"),
			zap.String("user_id", userCtx.UserID.String()),
			zap.String("user_email", userCtx.Email),
			zap.Strings("roles", userCtx.Roles),
			zap.Duration("auth_duration", time.Since(start)),
		)

		ctx := WithUserContext(r.Context(), userCtx)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// OptionalAuthenticate attempts authentication but allows unauthenticated requests.
// Use this for public endpoints that may have enhanced functionality for authenticated users.
func (m *Middleware) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Try API key first
		if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
			if m.validateAPIKey(apiKey) {
				ctx := WithUserContext(r.Context(), systemUserContext())
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			// Invalid API key, continue without auth rather than failing
			m.logger.Debug("optional auth: invalid API key, continuing unauthenticated",
				zap.String("path", r.URL.Path),
			)
		}

		// Try JWT Bearer token
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				userCtx, err := m.jwtValidator.ValidateToken(parts[1])
				if err == nil {
					ctx := WithUserContext(r.Context(), userCtx)
					next.ServeHTTP(w, r.WithContext(ctx))
					return
				}
				m.logger.Debug("optional auth: token validation failed, continuing unauthenticated",
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
			}
		}

		// No auth or invalid auth, continue without user context
		next.ServeHTTP(w, r)
	})
}

// RequireRole middleware ensures user has one of the given roles
func (m *Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userCtx, ok := FromContext(r.Context())
			if !ok {
				http.Error(w, "Forbidden: no user context", http.StatusForbidden)
				return
			}

			for _, role := range roles {
				if userCtx.HasRole(role) {
					next.ServeHTTP(w, r)
					return
				}
			}

			http.Error(w, "Forbidden: insufficient permissions", http.StatusForbidden)
		})
	}
}

func systemUserContext() *UserContext {
	return &UserContext{
		UserID:      uuid.MustParse("00000000-0000-0000-0000-000000000000"),
		DisplayName: "System",
		Email:       "system@buildflow.io",
		Roles:       []string{RoleAPIService},
	}
}

func (m *Middleware) validateAPIKey(key string) bool {
	if m.apiKey == "" {
		return false
	}
	// Constant-time comparison to prevent timing attacks
	return subtle.ConstantTimeCompare([]byte(key), []byte(m.apiKey)) == 1
}
