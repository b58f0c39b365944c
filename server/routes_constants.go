package server

// Route path constants
const (
	// CLI login page served to the browser during the handshake
	RouteCLIAuth = "/cli-auth"

	// API routes
	RouteAPIMe         = "/api/me"
	RouteAPIKeys       = "/api/keys"
	RouteAPIKey        = "/api/keys/{id}"
	RouteAPILogout     = "/api/logout"
	RouteAPIThresholds = "/api/projects/{slug}/thresholds"

	// Operational routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"

	// RPC routes (RPC listener)
	RouteRPCWhoAmI = "/rpc/v1/auth/me"
)
