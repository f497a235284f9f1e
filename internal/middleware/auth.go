package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/josh-kwaku/ledgersync/internal/handler"
	"github.com/josh-kwaku/ledgersync/internal/logging"
)

const basicAuthRealm = `Basic realm="ledgersync admin"`

// BasicAuth guards admin routes. An empty password locks the routes entirely.
func BasicAuth(username, password string) func(http.Handler) http.Handler {
	username = strings.TrimSpace(username)
	if username == "" {
		username = "admin"
	}
	password = strings.TrimSpace(password)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if password == "" {
				logging.FromContext(r.Context()).Warn("admin route requested but no admin password is configured", "path", r.URL.Path)
				unauthorized(w)
				return
			}

			user, pass, ok := r.BasicAuth()
			if !ok || !equal(user, username) || !equal(pass, password) {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("WWW-Authenticate", basicAuthRealm)
	handler.RespondAppError(w, handler.ErrUnauthorized, nil)
}
