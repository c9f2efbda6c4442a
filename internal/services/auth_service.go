package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/newsportal/backend/internal/auth"
	"github.com/newsportal/backend/internal/models"
)

const (
	minUsernameLength = 3
	maxUsernameLength = 30
	minPasswordLength = 6
)

var emailRegex = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

// UserRepository is the interface that wraps user data access
type UserRepository interface {
	// Create inserts a user and sets its generated ID.
	Create(ctx context.Context, user *models.User) error
	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int) (*models.User, error)
	// GetByEmailOrUsername retrieves a user matching the login by email or username.
	GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error)
	// ExistsByEmail checks email uniqueness, ignoring the user with excludeID.
	ExistsByEmail(ctx context.Context, email string, excludeID int) (bool, error)
	// ExistsByUsername checks username uniqueness, ignoring the user with excludeID.
	ExistsByUsername(ctx context.Context, username string, excludeID int) (bool, error)
	// Update persists a user's username and email.
	Update(ctx context.Context, user *models.User) error
}

type authService struct {
	repo   UserRepository
	tokens *auth.TokenGenerator
}

// NewAuthService creates a new auth service
func NewAuthService(repo UserRepository, tokens *auth.TokenGenerator) *authService {
	return &authService{
		repo:   repo,
		tokens: tokens,
	}
}

// Register creates a new user account and returns fresh tokens
func (s *authService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResponse, error) {
	username := strings.TrimSpace(req.Username)
	email := strings.TrimSpace(req.Email)

	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		return nil, fmt.Errorf("%w: password must be at least %d characters", ErrValidation, minPasswordLength)
	}

	taken, err := s.repo.ExistsByUsername(ctx, username, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: username already taken", ErrValidation)
	}

	taken, err = s.repo.ExistsByEmail(ctx, email, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if taken {
		return nil, fmt.Errorf("%w: email already in use", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return s.respondWithTokens(user)
}

// Login authenticates by username or email plus password
func (s *authService) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResponse, error) {
	login := strings.TrimSpace(req.Login)
	if login == "" || req.Password == "" {
		return nil, fmt.Errorf("%w: login and password are required", ErrValidation)
	}

	user, err := s.repo.GetByEmailOrUsername(ctx, login)
	if err != nil {
		// An unknown login and a wrong password look identical to the caller
		if strings.Contains(err.Error(), "not found") {
			return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid credentials", ErrUnauthenticated)
	}

	return s.respondWithTokens(user)
}

// CurrentUser returns the caller's own account
func (s *authService) CurrentUser(ctx context.Context, identity *models.Identity) (*models.User, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	user, err := s.repo.GetByID(ctx, identity.UserID)
	if err != nil {
		if strings.Contains(err.Error(), "not found") {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	return user, nil
}

// respondWithTokens builds the auth response for a user
func (s *authService) respondWithTokens(user *models.User) (*models.AuthResponse, error) {
	accessToken, refreshToken, err := s.tokens.GenerateTokens(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to generate tokens: %w", err)
	}

	return &models.AuthResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         user,
	}, nil
}

// validateUsername checks length bounds
func validateUsername(username string) error {
	length := utf8.RuneCountInString(username)
	if length < minUsernameLength || length > maxUsernameLength {
		return fmt.Errorf("%w: username must be between %d and %d characters",
			ErrValidation, minUsernameLength, maxUsernameLength)
	}
	return nil
}

// validateEmail checks the address shape
func validateEmail(email string) error {
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email address", ErrValidation)
	}
	return nil
}
