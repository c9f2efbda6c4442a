package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsportal/backend/internal/models"
)

func setupUserTestRepository(t *testing.T) (*userRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewUserRepository(db)
	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

var userColumns = []string{"id", "username", "email", "password_hash", "role"}

func TestUserRepository_Create(t *testing.T) {
	tests := []struct {
		name          string
		user          *models.User
		setupMock     func(mock sqlmock.Sqlmock)
		expectedError bool
		expectedID    int
	}{
		{
			name: "successful creation",
			user: &models.User{
				Username:     "alice",
				Email:        "alice@example.com",
				PasswordHash: "hash",
				Role:         models.RoleUser,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO users").
					WithArgs("alice", "alice@example.com", "hash", "user").
					WillReturnResult(sqlmock.NewResult(7, 1))
			},
			expectedError: false,
			expectedID:    7,
		},
		{
			name: "database error",
			user: &models.User{
				Username:     "alice",
				Email:        "alice@example.com",
				PasswordHash: "hash",
				Role:         models.RoleUser,
			},
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec("INSERT INTO users").
					WithArgs("alice", "alice@example.com", "hash", "user").
					WillReturnError(sql.ErrConnDone)
			},
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			err := repo.Create(context.Background(), tt.user)
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.expectedID, tt.user.ID)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByID(t *testing.T) {
	tests := []struct {
		name          string
		id            int
		setupMock     func(mock sqlmock.Sqlmock)
		expectedError string
	}{
		{
			name: "user found",
			id:   7,
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows(userColumns).
					AddRow(7, "alice", "alice@example.com", "hash", "user")
				mock.ExpectQuery("SELECT id, username, email, password_hash, role").
					WithArgs(7).
					WillReturnRows(rows)
			},
		},
		{
			name: "user not found",
			id:   99,
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT id, username, email, password_hash, role").
					WithArgs(99).
					WillReturnError(sql.ErrNoRows)
			},
			expectedError: "user not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			tt.setupMock(mock)

			user, err := repo.GetByID(context.Background(), tt.id)
			if tt.expectedError != "" {
				assert.EqualError(t, err, tt.expectedError)
				assert.Nil(t, user)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.id, user.ID)
				assert.Equal(t, models.RoleUser, user.Role)
			}

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_GetByEmailOrUsername(t *testing.T) {
	t.Run("matches by either column with the same login", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		rows := sqlmock.NewRows(userColumns).
			AddRow(7, "alice", "alice@example.com", "hash", "admin")
		mock.ExpectQuery("SELECT id, username, email, password_hash, role").
			WithArgs("alice", "alice").
			WillReturnRows(rows)

		user, err := repo.GetByEmailOrUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, user.Role)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown login", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectQuery("SELECT id, username, email, password_hash, role").
			WithArgs("nobody", "nobody").
			WillReturnError(sql.ErrNoRows)

		user, err := repo.GetByEmailOrUsername(context.Background(), "nobody")
		assert.EqualError(t, err, "user not found")
		assert.Nil(t, user)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	tests := []struct {
		name      string
		email     string
		excludeID int
		exists    bool
	}{
		{"taken email", "alice@example.com", 0, true},
		{"free email", "new@example.com", 0, false},
		{"own email excluded", "alice@example.com", 7, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo, mock, cleanup := setupUserTestRepository(t)
			defer cleanup()

			rows := sqlmock.NewRows([]string{"exists"}).AddRow(tt.exists)
			mock.ExpectQuery("SELECT EXISTS").
				WithArgs(tt.email, tt.excludeID).
				WillReturnRows(rows)

			exists, err := repo.ExistsByEmail(context.Background(), tt.email, tt.excludeID)
			require.NoError(t, err)
			assert.Equal(t, tt.exists, exists)

			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserRepository_ExistsByUsername(t *testing.T) {
	repo, mock, cleanup := setupUserTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows([]string{"exists"}).AddRow(true)
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("alice", 0).
		WillReturnRows(rows)

	exists, err := repo.ExistsByUsername(context.Background(), "alice", 0)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Update(t *testing.T) {
	t.Run("successful update", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectExec("UPDATE users").
			WithArgs("alice2", "alice2@example.com", 7).
			WillReturnResult(sqlmock.NewResult(0, 1))

		user := &models.User{ID: 7, Username: "alice2", Email: "alice2@example.com"}
		err := repo.Update(context.Background(), user)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no-op update succeeds with zero affected rows", func(t *testing.T) {
		repo, mock, cleanup := setupUserTestRepository(t)
		defer cleanup()

		mock.ExpectExec("UPDATE users").
			WithArgs("alice", "alice@example.com", 7).
			WillReturnResult(sqlmock.NewResult(0, 0))

		user := &models.User{ID: 7, Username: "alice", Email: "alice@example.com"}
		err := repo.Update(context.Background(), user)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
