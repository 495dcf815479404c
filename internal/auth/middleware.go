package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/thegera4/cool-morning-tables-sub000/internal/domain"
	"github.com/thegera4/cool-morning-tables-sub000/internal/models"

	"github.com/rs/zerolog"
)

// SessionCookie is the cookie the identity provider's frontend SDK sets.
const SessionCookie = "__session"

type ctxKey struct{}

func WithIdentity(ctx context.Context, id *models.Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

func IdentityFrom(ctx context.Context) (*models.Identity, bool) {
	id, ok := ctx.Value(ctxKey{}).(*models.Identity)
	return id, ok && id != nil
}

// TokenFromRequest returns the bearer token, falling back to the session cookie.
func TokenFromRequest(r *http.Request) string {
	if h := strings.TrimSpace(r.Header.Get("Authorization")); h != "" {
		const prefix = "bearer "
		if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
			return strings.TrimSpace(h[len(prefix):])
		}
		return ""
	}
	if c, err := r.Cookie(SessionCookie); err == nil {
		return c.Value
	}
	return ""
}

// Middleware rejects requests without a valid session with 401.
func Middleware(verifier domain.TokenVerifier, logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, err := verifier.Verify(TokenFromRequest(r))
			if err != nil {
				if logger != nil {
					logger.Debug().Err(err).Str("path", r.URL.Path).Msg("session rejected")
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}
