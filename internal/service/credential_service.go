package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/prn-tf/folio/internal/domain"
	"github.com/prn-tf/folio/internal/lock"
	"github.com/prn-tf/folio/internal/pkg/crypto"
	"github.com/prn-tf/folio/internal/repository"
)

const (
	bootstrapLockTTL     = 30 * time.Second
	bootstrapLockRetries = 50
	bootstrapLockDelay   = 100 * time.Millisecond
)

// CredentialService owns the administrator identity: seeding it at startup
// and checking login attempts against it.
type CredentialService struct {
	userRepo   repository.UserRepository
	locker     lock.Locker
	bcryptCost int
	logger     zerolog.Logger
}

// NewCredentialService creates a new CredentialService.
func NewCredentialService(userRepo repository.UserRepository, locker lock.Locker, bcryptCost int, logger zerolog.Logger) *CredentialService {
	return &CredentialService{
		userRepo:   userRepo,
		locker:     locker,
		bcryptCost: bcryptCost,
		logger:     logger.With().Str("service", "credential").Logger(),
	}
}

// Bootstrap ensures an ADMIN identity exists for email.
// If one already exists it is returned unchanged and the password is not rehashed.
func (s *CredentialService) Bootstrap(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: administrator email and password are required", ErrValidation)
	}

	var admin *domain.User
	err := lock.WithLock(ctx, s.locker, lock.Keys.AdminBootstrap(), bootstrapLockTTL, bootstrapLockRetries, bootstrapLockDelay, func() error {
		existing, err := s.userRepo.GetByEmail(ctx, email)
		if err == nil {
			admin = existing
			s.logger.Info().Str("user_id", existing.ID.String()).Msg("administrator already exists")
			if cost, err := crypto.HashCost(existing.PasswordHash); err == nil && cost < s.bcryptCost {
				s.logger.Warn().Int("stored_cost", cost).Int("configured_cost", s.bcryptCost).
					Msg("administrator password hash is weaker than the configured cost")
			}
			return nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return err
		}

		hash, err := crypto.HashPassword(password, s.bcryptCost)
		if err != nil {
			return err
		}

		user := domain.NewUser(email, hash, domain.RoleAdmin)
		if err := s.userRepo.Create(ctx, user); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				// Another instance seeded it between our lookup and insert.
				admin, err = s.userRepo.GetByEmail(ctx, email)
				return err
			}
			return err
		}

		admin = user
		s.logger.Info().Str("user_id", user.ID.String()).Msg("administrator created")
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("failed to bootstrap administrator")
		return nil, fmt.Errorf("%w: bootstrap administrator: %v", ErrInternalError, err)
	}

	return admin, nil
}

// Authenticate verifies credentials and returns the identity.
// Unknown email and wrong password both yield ErrInvalidCredentials.
func (s *CredentialService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.logger.Debug().Msg("unknown email during authentication")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Msg("failed to look up user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	if err := crypto.CheckPassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, crypto.ErrPasswordMismatch) {
			s.logger.Debug().Str("user_id", user.ID.String()).Msg("invalid password during authentication")
			return nil, ErrInvalidCredentials
		}
		s.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("stored password hash is unusable")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}

	s.logger.Info().Str("user_id", user.ID.String()).Msg("user authenticated")
	return user, nil
}

// GetByID retrieves a user by ID.
func (s *CredentialService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		s.logger.Error().Err(err).Str("user_id", id.String()).Msg("failed to get user")
		return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
	}
	return user, nil
}
