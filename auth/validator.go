package auth

import (
	"context"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/alexchoi0/driftwatch/internal/metrics"
)

// strategy is one credential kind the validator knows how to check.
// The set is closed: sessionStrategy and apiKeyStrategy.
type strategy interface {
	name() string
	validate(ctx context.Context, bearer string) (*Identity, bool)
}

type sessionStrategy struct {
	sessions SessionValidator
}

func (sessionStrategy) name() string { return KindSession }

func (s sessionStrategy) validate(ctx context.Context, bearer string) (*Identity, bool) {
	user, session, err := s.sessions.Validate(ctx, bearer)
	if err != nil || user == nil || session == nil {
		return nil, false
	}
	return &Identity{User: user, Session: session}, true
}

type apiKeyStrategy struct {
	keys APIKeyValidator
}

func (apiKeyStrategy) name() string { return KindAPIKey }

func (s apiKeyStrategy) validate(ctx context.Context, bearer string) (*Identity, bool) {
	key, user, err := s.keys.Validate(ctx, bearer)
	if err != nil || key == nil || user == nil {
		return nil, false
	}
	return &Identity{User: user, APIKey: key}, true
}

// Validator turns a bearer credential into an Identity. Session credentials
// are tried first, then API keys; the checks are never run concurrently.
type Validator struct {
	strategies []strategy
}

// NewValidator creates a validator trying sessions, then API keys.
func NewValidator(sessions SessionValidator, keys APIKeyValidator) *Validator {
	return &Validator{
		strategies: []strategy{
			sessionStrategy{sessions: sessions},
			apiKeyStrategy{keys: keys},
		},
	}
}

// Validate resolves the bearer credential or fails with ErrUnauthenticated.
// It performs no writes and caches nothing, so it is safe to call per request.
func (v *Validator) Validate(ctx context.Context, bearer string) (*Identity, error) {
	if strings.TrimSpace(bearer) != "" {
		for _, s := range v.strategies {
			if id, ok := s.validate(ctx, bearer); ok {
				metrics.AuthValidations.WithLabelValues(s.name()).Inc()
				log.Debug().Str("kind", s.name()).Str("user_id", id.User.ID).Msg("credential accepted")
				return id, nil
			}
		}
	}
	metrics.AuthValidations.WithLabelValues(metrics.ResultUnauthenticated).Inc()
	return nil, ErrUnauthenticated
}
