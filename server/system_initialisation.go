package server

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	apperrors "github.com/alexchoi0/driftwatch/internal/errors"
	"github.com/alexchoi0/driftwatch/users"
)

const DefaultAdminName = "Administrator"

// InitialiseSystem creates the admin user on first start. A generated
// password is logged once.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	email := s.config.GetAdminEmail()
	generatedPassword, err := s.createAdmin(ctx, email, s.config.GetAdminPassword())
	if err != nil {
		return fmt.Errorf("[Server InitialiseSystem] failed to bootstrap admin: %w", err)
	}

	if generatedPassword != "" {
		log.Info().Msg("📋 System Configuration:")
		log.Info().Msgf("   Base URL:    %s", s.config.GetBaseURL())
		log.Info().Msgf("   CLI login:   %s%s", s.config.GetBaseURL(), RouteCLIAuth)
		log.Info().Msg("👤 Admin Credentials:")
		log.Info().Msgf("   Email:       %s", email)
		log.Info().Msgf("   Password:    %s", generatedPassword)
	}
	return nil
}

// createAdmin returns the password it set, or "" if the admin already existed.
func (s *Server) createAdmin(ctx context.Context, email, defaultPassword string) (generatedPassword string, err error) {
	existing, err := s.repos.Users.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		log.Debug().Str("email", email).Msg("admin user already exists")
		return "", nil
	}
	if err != nil && !errors.Is(err, apperrors.ErrUserNotFound) {
		return "", fmt.Errorf("[server createAdmin] failed to look up admin: %w", err)
	}

	generatedPassword = defaultPassword
	if generatedPassword == "" {
		generatedPassword = randomPassword(16)
	}

	passwordHash, err := users.HashPassword(generatedPassword)
	if err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to hash password: %w", err)
	}

	admin := &users.User{
		Email:        email,
		Name:         DefaultAdminName,
		PasswordHash: passwordHash,
	}
	if err := s.repos.Users.Upsert(ctx, admin); err != nil {
		return "", fmt.Errorf("[server createAdmin] failed to create admin: %w", err)
	}
	return generatedPassword, nil
}
