package auth

import (
	"context"
	"net/http"

	"tourbook/internal/models"
	"tourbook/internal/utils"
)

type contextKey string

const identityKey contextKey = "identity"

// Middleware attaches the resolved identity, if any, to the request context.
// It never rejects; use RequireUser on protected routes.
func Middleware(res *Resolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if id, ok := res.Resolve(w, r); ok {
				r = r.WithContext(context.WithValue(r.Context(), identityKey, id))
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser answers 401 when no identity was resolved.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserID(r.Context()) == "" {
			utils.WriteError(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Helper to extract user ID in handlers
func UserID(ctx context.Context) string {
	if id := IdentityFromContext(ctx); id != nil {
		return id.ID
	}
	return ""
}

func IdentityFromContext(ctx context.Context) *models.Identity {
	if id, ok := ctx.Value(identityKey).(*models.Identity); ok {
		return id
	}
	return nil
}

// WithIdentity returns ctx carrying id. Used by tests and internal callers.
func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}
