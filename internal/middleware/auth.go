package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/molo/molo-go/internal/crypto"
	"github.com/molo/molo-go/internal/model"
)

// TokenVerifier checks a bearer token. *service.AuthService satisfies it.
type TokenVerifier interface {
	Authenticate(token string) (*crypto.Claims, error)
}

// BearerAuth returns middleware that validates a Bearer token from the
// Authorization header before the request reaches any entry handler.
func BearerAuth(v TokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
				return
			}

			token, found := strings.CutPrefix(authHeader, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				writeJSONError(w, http.StatusUnauthorized, "invalid authorization format")
				return
			}

			if _, err := v.Authenticate(strings.TrimSpace(token)); err != nil {
				writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(model.Envelope{Success: false, Error: msg})
}
