package server

import (
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/alexchoi0/driftwatch/loaders"
)

func (s *Server) initRoutes() {
	// CLI login
	s.RegisterRouteFunc("GET "+RouteCLIAuth, ChainMiddleware(s.CLIAuthPageHandler(), s.HTMLMiddleWare()...))
	s.RegisterRouteFunc("POST "+RouteCLIAuth, ChainMiddleware(s.CLIAuthSubmitHandler(), s.HTMLMiddleWare()...))

	// API routes
	s.RegisterRouteFunc("GET "+RouteAPIMe, ChainMiddleware(s.MeHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAPIKeys, ChainMiddleware(s.ListAPIKeysHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("POST "+RouteAPIKeys, ChainMiddleware(s.CreateAPIKeyHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("DELETE "+RouteAPIKey, ChainMiddleware(s.RevokeAPIKeyHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("POST "+RouteAPILogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware(s.RequireAuth())...))
	s.RegisterRouteFunc("GET "+RouteAPIThresholds, ChainMiddleware(s.ThresholdsHandler(),
		s.APIMiddleware(s.RequireAuth(), loaders.Middleware(s.repos.Benchmarks))...))

	s.RegisterRouteFunc("GET "+RouteHealth, s.HealthHandler())
	s.RegisterRouteFunc("GET "+RouteMetrics, promhttp.Handler().ServeHTTP)
}

func (s *Server) initRPCRoutes() {
	s.RegisterRPCFunc("POST "+RouteRPCWhoAmI, ChainMiddleware(s.RPCWhoAmIHandler(), s.RPCMiddleware(s.RequireAuth())...))
}
