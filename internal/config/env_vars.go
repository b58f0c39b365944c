package config

import (
	"fmt"
	"os"
	"strings"
)

const (
	portEnvVar     = "PORT"
	rpcPortEnvVar  = "RPC_PORT"
	appNameVar     = "APP_NAME"
	databaseEnvVar = "DATABASE_PATH"
	baseURLVar     = "BASE_URL"
	logLevelVar    = "LOG_LEVEL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	return listenAddr(GetEnv(portEnvVar, "4000"))
}

// GetRPCPort returns the listen address of the RPC endpoint used by the CLI
// for identity verification.
func (EnvVars) GetRPCPort() string {
	return listenAddr(GetEnv(rpcPortEnvVar, "50051"))
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Driftwatch")
}

func (EnvVars) GetDatabasePath() string {
	return GetEnv(databaseEnvVar, "./data/driftwatch.db")
}

// GetBaseURL returns the public base URL of the server (e.g., "https://driftwatch.dev")
func (EnvVars) GetBaseURL() string {
	return strings.TrimRight(GetEnv(baseURLVar, "http://localhost:4000"), "/")
}

func (EnvVars) GetLogLevel() string {
	return GetEnv(logLevelVar, "info")
}

func (EnvVars) GetAdminEmail() string {
	return GetEnv("ADMIN_EMAIL", "admin@localhost")
}

// GetAdminPassword returns the bootstrap admin password. Empty means one is generated.
func (EnvVars) GetAdminPassword() string {
	return GetEnv("ADMIN_PASSWORD", "")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "DEV"
	}
	return env
}

func listenAddr(port string) string {
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
