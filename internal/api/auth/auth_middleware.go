package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/go-secondhand-market/internal/api"
	"github.com/FACorreiaa/go-secondhand-market/internal/types"
)

// Typed context key for the authenticated user.
type contextKey string

const userContextKey contextKey = "authUser"

// Authenticate resolves the bearer token from the Authorization header to a
// stored user and attaches it to the request context. Tokens are opaque
// values matched against the user table; there is no expiry or refresh.
func Authenticate(service AuthService, logger *slog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.WarnContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Unauthorized")
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Authorization header format must be Bearer {token}")
				return
			}

			user, err := service.GetUserByToken(ctx, headerParts[1])
			if err != nil {
				if errors.Is(err, types.ErrNotFound) || errors.Is(err, types.ErrUnauthenticated) {
					l.WarnContext(ctx, "Token did not resolve to a user")
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Unauthorized")
					return
				}
				l.ErrorContext(ctx, "Token lookup failed", slog.Any("error", err))
				api.ErrorResponse(w, r, http.StatusBadRequest, err.Error())
				return
			}

			ctx = context.WithValue(ctx, userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext returns the authenticated user stored by Authenticate.
func GetUserFromContext(ctx context.Context) (*types.AuthenticatedUser, bool) {
	user, ok := ctx.Value(userContextKey).(*types.AuthenticatedUser)
	return user, ok
}

// GetUserIDFromContext returns just the authenticated user id.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	user, ok := GetUserFromContext(ctx)
	if !ok {
		return uuid.Nil, false
	}
	return user.ID, true
}

// ContextWithUser is a test helper mirroring what Authenticate stores.
func ContextWithUser(ctx context.Context, user *types.AuthenticatedUser) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}
