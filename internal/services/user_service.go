package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/newsportal/backend/internal/models"
)

type userService struct {
	repo UserRepository
}

// NewUserService creates a new user service
func NewUserService(repo UserRepository) *userService {
	return &userService{
		repo: repo,
	}
}

// UpdateProfile changes a user's username and email. Profiles are self-owned:
// only the user themselves may update, admins included are rejected.
func (s *userService) UpdateProfile(ctx context.Context, identity *models.Identity, userID int, req models.UpdateProfileRequest) (*models.User, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}
	if identity.UserID != userID {
		return nil, fmt.Errorf("%w: not authorized to update this profile", ErrForbidden)
	}

	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	taken, err := s.repo.ExistsByUsername(ctx, username, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: username already taken", ErrValidation)
	}

	taken, err = s.repo.ExistsByEmail(ctx, email, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: email already in use", ErrValidation)
	}

	user.Username = username
	user.Email = email

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}
