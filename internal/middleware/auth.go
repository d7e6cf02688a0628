package middleware

import (
	"net/http"
	"strings"

	"github.com/balhadj47/fleet-console/internal/auth"
)

// NewAuthenticator returns a middleware that requires a "Bearer" token in
// the Authorization header, verifies it, and places the resulting session
// in the request context. Requests without a valid session are rejected
// with 401 before reaching any handler — the repository layer re-asserts
// the same precondition, so nothing downstream runs unauthenticated.
func NewAuthenticator(v *auth.Verifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				unauthorized(w)
				return
			}

			session, err := v.Verify(token)
			if err != nil {
				unauthorized(w)
				return
			}

			next.ServeHTTP(w, r.WithContext(auth.WithSession(r.Context(), session)))
		})
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":{"code":"auth_required","message":"authentication required"}}`))
}
