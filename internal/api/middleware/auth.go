package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/rohits-web03/docvault/internal/auth"
	"github.com/rohits-web03/docvault/internal/utils"
	"go.uber.org/zap"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	RequestIDKey contextKey = "requestID"
)

// UserID returns the authenticated user stored by Auth.
func UserID(ctx context.Context) (uint, bool) {
	id, ok := ctx.Value(UserIDKey).(uint)
	return id, ok
}

// WithUserID stores userID the same way Auth does.
func WithUserID(ctx context.Context, userID uint) context.Context {
	return context.WithValue(ctx, UserIDKey, userID)
}

// Auth rejects requests that carry no valid session cookie or bearer token.
func Auth(resolver auth.Resolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := resolver.Resolve(r)
			if err != nil {
				if !errors.Is(err, auth.ErrUnauthenticated) {
					logger.Debug("Credential rejected",
						zap.String("request_id", RequestID(r.Context())),
						zap.Error(err),
					)
				}
				utils.JSONError(w, http.StatusUnauthorized, "Unauthorized")
				return
			}

			if rec, ok := w.(*statusRecorder); ok {
				rec.userID = userID
			}
			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
