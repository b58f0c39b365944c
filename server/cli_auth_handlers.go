package server

import (
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog/log"

	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
)

const (
	contentTypeHTML = "text/html; charset=utf-8"
	contentTypeJSON = "application/json; charset=utf-8"
)

// CLIAuthPageData contains data for rendering the CLI login page
type CLIAuthPageData struct {
	AppName  string
	Callback string
	Email    string
	Error    string
}

// CLIAuthPageHandler renders the login form for a CLI handshake (GET /cli-auth)
func (s *Server) CLIAuthPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		callback := r.URL.Query().Get("callback")
		if _, err := validateCallback(callback); err != nil {
			http.Error(w, "Invalid callback URL", http.StatusBadRequest)
			return
		}
		s.renderCLIAuth(w, http.StatusOK, CLIAuthPageData{Callback: callback})
	}
}

// CLIAuthSubmitHandler checks the credentials, opens a session and redirects
// the browser to the CLI's loopback callback with the session credential.
func (s *Server) CLIAuthSubmitHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "Invalid form data", http.StatusBadRequest)
			return
		}

		callback := r.PostFormValue("callback")
		callbackURL, err := validateCallback(callback)
		if err != nil {
			http.Error(w, "Invalid callback URL", http.StatusBadRequest)
			return
		}

		email := strings.TrimSpace(r.PostFormValue("email"))
		password := r.PostFormValue("password")

		user, err := s.repos.Users.GetByEmail(r.Context(), email)
		if err != nil || user.Blocked || !user.CheckPassword(password) {
			log.Info().Str("email", email).Msg("cli login rejected")
			s.renderCLIAuth(w, http.StatusUnauthorized, CLIAuthPageData{
				Callback: callback,
				Email:    email,
				Error:    "Invalid email or password",
			})
			return
		}

		token, _, err := s.repos.Sessions.Create(r.Context(), user.ID)
		if err != nil {
			log.Err(err).Str("user_id", user.ID).Msg("failed to create session")
			http.Error(w, "Failed to create session", http.StatusInternalServerError)
			return
		}

		q := callbackURL.Query()
		q.Set("token", token)
		callbackURL.RawQuery = q.Encode()

		log.Info().Str("user_id", user.ID).Msg("cli login accepted")
		http.Redirect(w, r, callbackURL.String(), http.StatusSeeOther)
	}
}

func (s *Server) renderCLIAuth(w http.ResponseWriter, status int, data CLIAuthPageData) {
	data.AppName = s.config.GetAppName()
	w.Header().Set("Content-Type", contentTypeHTML)
	w.WriteHeader(status)
	if err := s.pages.ExecuteTemplate(w, cliAuthTemplate, data); err != nil {
		log.Err(err).Msg("Failed to render cli auth template")
	}
}

// validateCallback accepts only plain-http loopback URLs with an explicit port.
func validateCallback(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("[server validateCallback] missing callback: %w", apperrors.ErrInvalidRedirectURI)
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("[server validateCallback] %w: %w", apperrors.ErrInvalidRedirectURI, err)
	}
	if u.Scheme != "http" || u.User != nil || u.Fragment != "" {
		return nil, fmt.Errorf("[server validateCallback] unsupported callback %q: %w", raw, apperrors.ErrInvalidRedirectURI)
	}
	host, port, err := net.SplitHostPort(u.Host)
	if err != nil || port == "" {
		return nil, fmt.Errorf("[server validateCallback] callback needs a port: %w", apperrors.ErrInvalidRedirectURI)
	}
	if host != "127.0.0.1" && host != "localhost" {
		return nil, fmt.Errorf("[server validateCallback] callback host %q is not loopback: %w", host, apperrors.ErrInvalidRedirectURI)
	}
	return u, nil
}
