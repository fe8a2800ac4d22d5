package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/creatorspace/community-api/internal/core/domain"
	"github.com/creatorspace/community-api/internal/core/ports"
	"github.com/creatorspace/community-api/internal/core/validation"
)

type UserService struct {
	users ports.UserRepository
	log   zerolog.Logger
}

func NewUserService(users ports.UserRepository, log zerolog.Logger) *UserService {
	return &UserService{users: users, log: log}
}

// Profile returns the caller's own profile.
func (s *UserService) Profile(ctx context.Context, caller domain.Identity) (*domain.User, error) {
	return WithStorage(func() (*domain.User, error) {
		u, err := s.users.FindByID(ctx, caller.ID)
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewNotFoundError("User profile not found")
		}
		return u, err
	})
}

// Update applies a partial profile update. Users may only edit themselves
// and only admins may change a role.
func (s *UserService) Update(ctx context.Context, caller domain.Identity, targetID string, payload map[string]any) error {
	if targetID != caller.ID && !caller.IsAdmin() {
		return domain.NewAuthorizationError("You can only modify your own profile")
	}
	if err := validation.Validate(payload, validation.UpdateUserSchema()); err != nil {
		return err
	}

	update := domain.UserUpdate{
		Username: optionalString(payload, "username"),
		Email:    optionalString(payload, "email"),
	}
	if r := optionalString(payload, "role"); r != nil {
		role := domain.Role(*r)
		if !caller.IsAdmin() {
			return domain.NewAuthorizationError("Only administrators can change roles")
		}
		update.Role = &role
	}
	if update.Empty() {
		return domain.NewValidationError("No fields to update", nil)
	}

	err := exec(func() error {
		err := s.users.Update(ctx, targetID, update)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewNotFoundError("User not found")
		}
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("user_id", targetID).Str("by", caller.ID).Time("at", time.Now().UTC()).Msg("user profile updated")
	return nil
}

// Delete removes a profile. Admin only; admins cannot delete themselves.
func (s *UserService) Delete(ctx context.Context, caller domain.Identity, targetID string) error {
	if !caller.IsAdmin() {
		return domain.NewAuthorizationError("Only administrators can delete user profiles")
	}
	if targetID == caller.ID {
		return domain.NewAuthorizationError("Cannot delete your own admin account")
	}

	err := exec(func() error {
		err := s.users.Delete(ctx, targetID)
		if errors.Is(err, domain.ErrNotFound) {
			return domain.NewNotFoundError("User not found")
		}
		return err
	})
	if err != nil {
		return err
	}

	s.log.Info().Str("user_id", targetID).Str("by", caller.ID).Msg("user profile deleted")
	return nil
}
