package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/newsportal/backend/internal/auth"
	"github.com/newsportal/backend/internal/models"
)

// mockUserRepository is a mock implementation of UserRepository for service tests
type mockUserRepository struct {
	usersByID    map[int]*models.User
	userByLogin  *models.User
	loginErr     error
	takenEmails  map[string]int
	takenNames   map[string]int
	createErr    error
	created      *models.User
	updateErr    error
	updated      *models.User
	existsErr    error
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{
		usersByID:   make(map[int]*models.User),
		takenEmails: make(map[string]int),
		takenNames:  make(map[string]int),
	}
}

func (m *mockUserRepository) Create(ctx context.Context, user *models.User) error {
	if m.createErr != nil {
		return m.createErr
	}
	user.ID = 7
	m.created = user
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int) (*models.User, error) {
	if u, ok := m.usersByID[id]; ok {
		return u, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) GetByEmailOrUsername(ctx context.Context, login string) (*models.User, error) {
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	if m.userByLogin != nil {
		return m.userByLogin, nil
	}
	return nil, errors.New("user not found")
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string, excludeID int) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	owner, ok := m.takenEmails[email]
	return ok && owner != excludeID, nil
}

func (m *mockUserRepository) ExistsByUsername(ctx context.Context, username string, excludeID int) (bool, error) {
	if m.existsErr != nil {
		return false, m.existsErr
	}
	owner, ok := m.takenNames[username]
	return ok && owner != excludeID, nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *models.User) error {
	if m.updateErr != nil {
		return m.updateErr
	}
	m.updated = user
	return nil
}

func newTestTokenGenerator() *auth.TokenGenerator {
	return auth.NewTokenGenerator("test-secret", time.Hour, 24*time.Hour)
}

func TestAuthService_Register(t *testing.T) {
	validReq := models.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret123",
	}

	t.Run("success returns tokens and stored user", func(t *testing.T) {
		repo := newMockUserRepository()
		svc := NewAuthService(repo, newTestTokenGenerator())

		resp, err := svc.Register(context.Background(), validReq)
		require.NoError(t, err)
		require.NotNil(t, repo.created)

		assert.NotEmpty(t, resp.AccessToken)
		assert.NotEmpty(t, resp.RefreshToken)
		assert.Equal(t, "alice", resp.User.Username)
		assert.Equal(t, models.RoleUser, repo.created.Role)

		// The stored hash must verify against the original password
		err = bcrypt.CompareHashAndPassword([]byte(repo.created.PasswordHash), []byte("secret123"))
		assert.NoError(t, err)
	})

	t.Run("validation failures", func(t *testing.T) {
		tests := []struct {
			name   string
			modify func(r *models.RegisterRequest)
		}{
			{"short username", func(r *models.RegisterRequest) { r.Username = "ab" }},
			{"long username", func(r *models.RegisterRequest) { r.Username = "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa" }},
			{"invalid email", func(r *models.RegisterRequest) { r.Email = "not-an-email" }},
			{"short password", func(r *models.RegisterRequest) { r.Password = "12345" }},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				repo := newMockUserRepository()
				svc := NewAuthService(repo, newTestTokenGenerator())

				req := validReq
				tt.modify(&req)
				_, err := svc.Register(context.Background(), req)
				assert.ErrorIs(t, err, ErrValidation)
				assert.Nil(t, repo.created)
			})
		}
	})

	t.Run("duplicate username rejected", func(t *testing.T) {
		repo := newMockUserRepository()
		repo.takenNames["alice"] = 3
		svc := NewAuthService(repo, newTestTokenGenerator())

		_, err := svc.Register(context.Background(), validReq)
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate email rejected", func(t *testing.T) {
		repo := newMockUserRepository()
		repo.takenEmails["alice@example.com"] = 3
		svc := NewAuthService(repo, newTestTokenGenerator())

		_, err := svc.Register(context.Background(), validReq)
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAuthService_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("secret123"), bcrypt.DefaultCost)
	require.NoError(t, err)

	account := &models.User{
		ID:           7,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
	}

	t.Run("success with matching password", func(t *testing.T) {
		repo := newMockUserRepository()
		repo.userByLogin = account
		svc := NewAuthService(repo, newTestTokenGenerator())

		resp, err := svc.Login(context.Background(), models.LoginRequest{Login: "alice", Password: "secret123"})
		require.NoError(t, err)
		assert.NotEmpty(t, resp.AccessToken)
		assert.Equal(t, 7, resp.User.ID)
	})

	t.Run("issued access token carries identity", func(t *testing.T) {
		repo := newMockUserRepository()
		repo.userByLogin = account
		tokens := newTestTokenGenerator()
		svc := NewAuthService(repo, tokens)

		resp, err := svc.Login(context.Background(), models.LoginRequest{Login: "alice", Password: "secret123"})
		require.NoError(t, err)

		identity, err := tokens.ValidateAccessToken(resp.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, 7, identity.UserID)
		assert.Equal(t, models.RoleUser, identity.Role)
	})

	t.Run("wrong password is unauthenticated", func(t *testing.T) {
		repo := newMockUserRepository()
		repo.userByLogin = account
		svc := NewAuthService(repo, newTestTokenGenerator())

		_, err := svc.Login(context.Background(), models.LoginRequest{Login: "alice", Password: "wrong"})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("unknown login is unauthenticated", func(t *testing.T) {
		repo := newMockUserRepository()
		svc := NewAuthService(repo, newTestTokenGenerator())

		_, err := svc.Login(context.Background(), models.LoginRequest{Login: "nobody", Password: "secret123"})
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("missing fields rejected", func(t *testing.T) {
		repo := newMockUserRepository()
		svc := NewAuthService(repo, newTestTokenGenerator())

		_, err := svc.Login(context.Background(), models.LoginRequest{Login: "", Password: ""})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestAuthService_CurrentUser(t *testing.T) {
	t.Run("anonymous denied", func(t *testing.T) {
		svc := NewAuthService(newMockUserRepository(), newTestTokenGenerator())

		_, err := svc.CurrentUser(context.Background(), nil)
		assert.ErrorIs(t, err, ErrUnauthenticated)
	})

	t.Run("returns own account", func(t *testing.T) {
		repo := newMockUserRepository()
		repo.usersByID[7] = &models.User{ID: 7, Username: "alice"}
		svc := NewAuthService(repo, newTestTokenGenerator())

		user, err := svc.CurrentUser(context.Background(), &models.Identity{UserID: 7, Role: models.RoleUser})
		require.NoError(t, err)
		assert.Equal(t, "alice", user.Username)
	})

	t.Run("vanished account is not found", func(t *testing.T) {
		svc := NewAuthService(newMockUserRepository(), newTestTokenGenerator())

		_, err := svc.CurrentUser(context.Background(), &models.Identity{UserID: 99, Role: models.RoleUser})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
