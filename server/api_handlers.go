package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/alexchoi0/driftwatch/apikeys"
	"github.com/alexchoi0/driftwatch/auth"
	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
	"github.com/alexchoi0/driftwatch/users"
)

// ProfileResponse is returned by /api/me and the RPC identity call.
type ProfileResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	AuthKind  string    `json:"auth_kind"`
}

func profileFor(identity *auth.Identity) ProfileResponse {
	return ProfileResponse{
		ID:        identity.User.ID,
		Email:     identity.User.Email,
		Name:      identity.User.Name,
		CreatedAt: identity.User.CreatedAt,
		AuthKind:  identity.Kind(),
	}
}

// MeHandler returns the caller's profile (GET /api/me)
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := mustIdentity(w, r)
		if identity == nil {
			return
		}
		writeJSON(w, http.StatusOK, profileFor(identity))
	}
}

type createAPIKeyRequest struct {
	Name string `json:"name"`
	// TTL is a Go duration string; empty uses the server default.
	TTL string `json:"ttl,omitempty"`
}

type createAPIKeyResponse struct {
	Key    string          `json:"key"`
	APIKey *apikeys.APIKey `json:"api_key"`
}

// ListAPIKeysHandler lists the caller's API keys (GET /api/keys)
func (s *Server) ListAPIKeysHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := mustIdentity(w, r)
		if identity == nil {
			return
		}
		keys, err := s.repos.APIKeys.List(r.Context(), identity.User.ID)
		if err != nil {
			log.Err(err).Msg("failed to list api keys")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"api_keys": keys})
	}
}

// CreateAPIKeyHandler issues a key; the raw value is only ever returned here (POST /api/keys)
func (s *Server) CreateAPIKeyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := mustIdentity(w, r)
		if identity == nil {
			return
		}

		var req createAPIKeyRequest
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
			writeJSONError(w, "invalid_request", http.StatusBadRequest)
			return
		}
		req.Name = strings.TrimSpace(req.Name)
		if req.Name == "" {
			writeJSONError(w, "name is required", http.StatusBadRequest)
			return
		}

		ttl := s.config.GetDefaultAPIKeyTTL()
		if req.TTL != "" {
			parsed, err := time.ParseDuration(req.TTL)
			if err != nil || parsed < 0 {
				writeJSONError(w, "invalid ttl", http.StatusBadRequest)
				return
			}
			ttl = parsed
		}

		raw, key, err := s.repos.APIKeys.Issue(r.Context(), identity.User.ID, req.Name, ttl)
		if err != nil {
			log.Err(err).Msg("failed to issue api key")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
			return
		}
		writeJSON(w, http.StatusCreated, createAPIKeyResponse{Key: raw, APIKey: key})
	}
}

// RevokeAPIKeyHandler deletes one of the caller's keys (DELETE /api/keys/{id})
func (s *Server) RevokeAPIKeyHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := mustIdentity(w, r)
		if identity == nil {
			return
		}
		err := s.repos.APIKeys.Revoke(r.Context(), identity.User.ID, r.PathValue("id"))
		switch {
		case err == nil:
			w.WriteHeader(http.StatusNoContent)
		case errors.Is(err, apikeys.ErrNotOwner), errors.Is(err, apperrors.ErrNotFound):
			writeJSONError(w, "not_found", http.StatusNotFound)
		default:
			log.Err(err).Msg("failed to revoke api key")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
		}
	}
}

// LogoutHandler revokes the session presenting the request (POST /api/logout)
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity := mustIdentity(w, r)
		if identity == nil {
			return
		}
		if identity.Session == nil {
			writeJSONError(w, "logout requires a session credential", http.StatusBadRequest)
			return
		}
		if err := s.repos.Sessions.Revoke(r.Context(), bearerToken(r)); err != nil {
			log.Err(err).Msg("failed to revoke session")
			writeJSONError(w, "internal_error", http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HealthHandler reports liveness (GET /healthz)
func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// mustIdentity returns the authenticated identity or writes a 401.
func mustIdentity(w http.ResponseWriter, r *http.Request) *auth.Identity {
	identity, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		writeJSONError(w, auth.ErrUnauthenticated.Error(), http.StatusUnauthorized)
		return nil
	}
	return identity
}

func canView(user *users.User, ownerID string, public bool) bool {
	return public || (user != nil && user.ID == ownerID)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
