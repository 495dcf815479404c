package api

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"strings"

	"github.com/thegera4/cool-morning-tables-sub000/internal/config"
)

const (
	PermRunReminders = "run:reminders"
	PermReadOrders   = "read:orders"
)

var (
	errMissingAPIKey    = errors.New("missing api key")
	errInvalidAPIKey    = errors.New("invalid api key")
	errPermissionDenied = errors.New("permission denied")
)

// APIKeyAuth guards machine endpoints with the static keys from config.
type APIKeyAuth struct {
	header  string
	clients []config.APIClientKey
}

func NewAPIKeyAuth(cfg config.APIAuthConfig) *APIKeyAuth {
	header := strings.TrimSpace(strings.ToLower(cfg.HeaderAPIKey))
	if header == "" {
		header = "x-api-key"
	}
	return &APIKeyAuth{header: header, clients: cfg.APIKeys}
}

// Require wraps next so it only runs for a key granted permission. A key with
// no permissions listed is granted all of them.
func (a *APIKeyAuth) Require(permission string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := a.check(r, permission); err != nil {
			statusCode := http.StatusUnauthorized
			if errors.Is(err, errPermissionDenied) {
				statusCode = http.StatusForbidden
			}
			writeError(w, statusCode, err.Error())
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *APIKeyAuth) check(r *http.Request, permission string) error {
	key := a.keyFromRequest(r)
	if key == "" {
		return errMissingAPIKey
	}

	client, ok := a.lookup(key)
	if !ok {
		return errInvalidAPIKey
	}
	if len(client.Permissions) == 0 {
		return nil
	}
	for _, p := range client.Permissions {
		if strings.TrimSpace(p) == permission {
			return nil
		}
	}
	return errPermissionDenied
}

// keyFromRequest reads the configured header, falling back to a bearer token
// as sent by hosted cron schedulers.
func (a *APIKeyAuth) keyFromRequest(r *http.Request) string {
	if k := strings.TrimSpace(r.Header.Get(a.header)); k != "" {
		return k
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return strings.TrimSpace(h[len(prefix):])
	}
	return ""
}

func (a *APIKeyAuth) lookup(key string) (config.APIClientKey, bool) {
	var (
		found config.APIClientKey
		ok    bool
	)
	for _, c := range a.clients {
		if subtle.ConstantTimeCompare([]byte(c.Key), []byte(key)) == 1 {
			found, ok = c, true
		}
	}
	return found, ok
}
