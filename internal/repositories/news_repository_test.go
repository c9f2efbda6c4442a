package repositories

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsportal/backend/internal/models"
)

func setupNewsTestRepository(t *testing.T) (*newsRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	repo := NewNewsRepository(db)
	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

var newsListColumns = []string{
	"id", "title", "content", "category", "image_path",
	"author_id", "username", "is_published", "views",
	"created_at", "updated_at",
}

func newsRow(rows *sqlmock.Rows, id int, title string, views int) *sqlmock.Rows {
	now := time.Now()
	return rows.AddRow(id, title, "content", "technology", nil, 1, "alice", true, views, now, now)
}

func TestNewsRepository_List(t *testing.T) {
	t.Run("published filter only", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs(true).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

		rows := sqlmock.NewRows(newsListColumns)
		newsRow(rows, 1, "first", 5)
		newsRow(rows, 2, "second", 3)
		mock.ExpectQuery("SELECT(.|\n)+FROM news n").
			WithArgs(true, 10, 0).
			WillReturnRows(rows)

		news, total, err := repo.List(context.Background(), models.NewsFilter{
			Published: true,
			Limit:     10,
			Offset:    0,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, news, 2)
		assert.Equal(t, "first", news[0].Title)
		require.NotNil(t, news[0].Author)
		assert.Equal(t, "alice", news[0].Author.Username)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("category and search filters add predicates", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs(true, "technology", "golang").
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

		mock.ExpectQuery("MATCH").
			WithArgs(true, "technology", "golang", 10, 0).
			WillReturnRows(sqlmock.NewRows(newsListColumns))

		news, total, err := repo.List(context.Background(), models.NewsFilter{
			Published: true,
			Category:  models.CategoryTechnology,
			Search:    "golang",
			Limit:     10,
			Offset:    0,
		})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, news)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("count error surfaces", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectQuery("SELECT COUNT").
			WithArgs(true).
			WillReturnError(sql.ErrConnDone)

		_, _, err := repo.List(context.Background(), models.NewsFilter{Published: true, Limit: 10})
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewsRepository_ListTop(t *testing.T) {
	repo, mock, cleanup := setupNewsTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows(newsListColumns)
	newsRow(rows, 3, "most viewed", 100)
	newsRow(rows, 1, "runner up", 50)
	mock.ExpectQuery("ORDER BY n.views DESC").
		WithArgs(6).
		WillReturnRows(rows)

	news, err := repo.ListTop(context.Background(), 6)
	require.NoError(t, err)
	require.Len(t, news, 2)
	assert.Equal(t, 3, news[0].ID)
	assert.Equal(t, 100, news[0].Views)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsRepository_ListByAuthor(t *testing.T) {
	repo, mock, cleanup := setupNewsTestRepository(t)
	defer cleanup()

	rows := sqlmock.NewRows(newsListColumns)
	newsRow(rows, 1, "mine", 5)
	mock.ExpectQuery("WHERE n.author_id").
		WithArgs(1).
		WillReturnRows(rows)

	news, err := repo.ListByAuthor(context.Background(), 1)
	require.NoError(t, err)
	require.Len(t, news, 1)
	assert.Equal(t, 1, news[0].AuthorID)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNewsRepository_GetByID(t *testing.T) {
	getColumns := []string{
		"id", "title", "content", "category", "image_path",
		"author_id", "username", "email", "is_published", "views",
		"created_at", "updated_at",
	}

	t.Run("found with populated author", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		now := time.Now()
		rows := sqlmock.NewRows(getColumns).
			AddRow(5, "title", "content", "sports", "/uploads/a.jpg", 1, "alice", "alice@example.com", false, 9, now, now)
		mock.ExpectQuery("WHERE n.id").
			WithArgs(5).
			WillReturnRows(rows)

		n, err := repo.GetByID(context.Background(), 5)
		require.NoError(t, err)
		assert.Equal(t, 5, n.ID)
		assert.Equal(t, models.CategorySports, n.Category)
		assert.Equal(t, "/uploads/a.jpg", n.ImagePath)
		assert.False(t, n.IsPublished)
		require.NotNil(t, n.Author)
		assert.Equal(t, "alice@example.com", n.Author.Email)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("null image path maps to empty string", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		now := time.Now()
		rows := sqlmock.NewRows(getColumns).
			AddRow(5, "title", "content", "sports", nil, 1, "alice", "alice@example.com", true, 0, now, now)
		mock.ExpectQuery("WHERE n.id").
			WithArgs(5).
			WillReturnRows(rows)

		n, err := repo.GetByID(context.Background(), 5)
		require.NoError(t, err)
		assert.Empty(t, n.ImagePath)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectQuery("WHERE n.id").
			WithArgs(99).
			WillReturnError(sql.ErrNoRows)

		n, err := repo.GetByID(context.Background(), 99)
		assert.EqualError(t, err, "news not found")
		assert.Nil(t, n)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewsRepository_Create(t *testing.T) {
	t.Run("with image", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectExec("INSERT INTO news").
			WithArgs("title", "content", "business", sql.NullString{String: "/uploads/a.jpg", Valid: true}, 1, true).
			WillReturnResult(sqlmock.NewResult(42, 1))

		n := &models.News{
			Title:       "title",
			Content:     "content",
			Category:    models.CategoryBusiness,
			ImagePath:   "/uploads/a.jpg",
			AuthorID:    1,
			IsPublished: true,
		}
		err := repo.Create(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, 42, n.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("without image stores NULL", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectExec("INSERT INTO news").
			WithArgs("title", "content", "business", sql.NullString{}, 1, false).
			WillReturnResult(sqlmock.NewResult(43, 1))

		n := &models.News{
			Title:    "title",
			Content:  "content",
			Category: models.CategoryBusiness,
			AuthorID: 1,
		}
		err := repo.Create(context.Background(), n)
		require.NoError(t, err)
		assert.Equal(t, 43, n.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewsRepository_Update(t *testing.T) {
	t.Run("no-op update succeeds with zero affected rows", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectExec("UPDATE news").
			WithArgs("title", "content", "sports", sql.NullString{}, true, 5).
			WillReturnResult(sqlmock.NewResult(0, 0))

		n := &models.News{
			ID:          5,
			Title:       "title",
			Content:     "content",
			Category:    models.CategorySports,
			IsPublished: true,
		}
		err := repo.Update(context.Background(), n)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewsRepository_Delete(t *testing.T) {
	t.Run("successful deletion", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectExec("DELETE FROM news").
			WithArgs(5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.Delete(context.Background(), 5)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectExec("DELETE FROM news").
			WithArgs(99).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.Delete(context.Background(), 99)
		assert.EqualError(t, err, "news not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestNewsRepository_IncrementViews(t *testing.T) {
	t.Run("single atomic statement", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE news SET views = views \+ 1`).
			WithArgs(5).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.IncrementViews(context.Background(), 5)
		assert.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unknown id", func(t *testing.T) {
		repo, mock, cleanup := setupNewsTestRepository(t)
		defer cleanup()

		mock.ExpectExec(`UPDATE news SET views = views \+ 1`).
			WithArgs(99).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.IncrementViews(context.Background(), 99)
		assert.EqualError(t, err, "news not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
