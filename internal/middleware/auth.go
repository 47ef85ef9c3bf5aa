// internal/middleware/auth.go

package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/jason-s-yu/mafiastats/internal/models"
)

// CookieName is the cookie carrying the session token.
const CookieName = "auth_token"

type actorKey struct{}

// Authenticator verifies a session token.
type Authenticator interface {
	AuthenticateJWT(token string) (models.Actor, error)
}

// WithActor stores actor in ctx.
func WithActor(ctx context.Context, actor models.Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFrom returns the authenticated actor of a request.
func ActorFrom(ctx context.Context) (models.Actor, bool) {
	a, ok := ctx.Value(actorKey{}).(models.Actor)
	return a, ok
}

// AuthMiddleware resolves the caller from the auth_token cookie or an
// Authorization bearer header. Requests without a valid token are rejected.
func AuthMiddleware(authn Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFrom(r)
			if token == "" {
				http.Error(w, "missing auth_token", http.StatusUnauthorized)
				return
			}
			actor, err := authn.AuthenticateJWT(token)
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			if rec, ok := w.(*statusRecorder); ok {
				rec.actor = &actor
			}
			next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
		})
	}
}

func tokenFrom(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if c, err := r.Cookie(CookieName); err == nil {
		return c.Value
	}
	return ""
}
