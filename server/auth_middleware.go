package server

import (
	"net/http"
	"strings"

	"github.com/alexchoi0/driftwatch/auth"
)

// RequireAuth resolves the bearer credential into an auth.Identity. Every
// failure gets the same 401 body so callers cannot tell which check failed.
func (s *Server) RequireAuth() middleware {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, err := s.validator.Validate(r.Context(), bearerToken(r))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="driftwatch"`)
				writeJSONError(w, auth.ErrUnauthenticated.Error(), http.StatusUnauthorized)
				return
			}
			next(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		}
	}
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	parts := strings.SplitN(r.Header.Get("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
