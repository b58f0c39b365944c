package config

import "time"

type SecurityConfig interface {
	GetSessionSigningKey() []byte
	GetSessionTTL() time.Duration
	GetDefaultAPIKeyTTL() time.Duration
}

type Security struct{}

var _ SecurityConfig = Security{}

// GetSessionSigningKey returns the HMAC key used to sign session credentials.
// Sessions do not survive a restart when SESSION_SIGNING_KEY is unset.
func (Security) GetSessionSigningKey() []byte {
	return []byte(GetEnv("SESSION_SIGNING_KEY", ephemeralSigningKey))
}

func (Security) GetSessionTTL() time.Duration {
	return durationEnv("SESSION_TTL", 7*24*time.Hour)
}

// GetDefaultAPIKeyTTL returns the expiry for newly issued API keys. Zero means no expiry.
func (Security) GetDefaultAPIKeyTTL() time.Duration {
	return durationEnv("API_KEY_TTL", 0)
}

func durationEnv(envVar string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(GetEnv(envVar, ""))
	if err != nil {
		return defaultValue
	}
	return d
}
