package server

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/alexchoi0/driftwatch/apikeys"
	"github.com/alexchoi0/driftwatch/auth"
	"github.com/alexchoi0/driftwatch/benchmarks"
	"github.com/alexchoi0/driftwatch/internal/config"
	"github.com/alexchoi0/driftwatch/sessions"
	"github.com/alexchoi0/driftwatch/users"
)

// Repos groups the storage and credential services the handlers use.
type Repos struct {
	Users      users.UserRepo
	Sessions   *sessions.Manager
	APIKeys    *apikeys.Manager
	Benchmarks benchmarks.Repo
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	rpcMux    *http.ServeMux
	routes    []string
	config    config.Config
	repos     Repos
	validator *auth.Validator
	pages     *template.Template
}

func New(ctx context.Context, config config.Config, repos Repos) (*Server, error) {
	if repos.Users == nil || repos.Sessions == nil || repos.APIKeys == nil || repos.Benchmarks == nil {
		return nil, fmt.Errorf("[Server New] missing repository dependencies")
	}

	pages, err := parsePages()
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to parse page templates: %w", err)
	}

	s := &Server{
		env:       config.GetEnv(),
		mux:       http.NewServeMux(),
		rpcMux:    http.NewServeMux(),
		config:    config,
		repos:     repos,
		validator: auth.NewValidator(repos.Sessions, repos.APIKeys),
		pages:     pages,
	}

	// Bootstrap: ensure the admin user exists
	if err := s.InitialiseSystem(ctx); err != nil {
		return nil, fmt.Errorf("[Server New] failed to initialise the system: %w", err)
	}

	s.initRoutes()
	s.initRPCRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// RPCHandler serves the RPC endpoints on their own listener.
func (s *Server) RPCHandler() http.Handler {
	return s.rpcMux
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) RegisterRPCFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.rpcMux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Info().Msgf("[%-19s] %s", colourMethod(method), path)
}

func logError(method, path, message string) {
	log.Error().Msgf("[%-19s] %s %s", colourMethod(method), path, Red+message+ResetColor)
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
