package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/newsportal/backend/internal/models"
)

type newsRepository struct {
	db *sql.DB
}

// NewNewsRepository creates a new news repository
func NewNewsRepository(db *sql.DB) *newsRepository {
	return &newsRepository{
		db: db,
	}
}

// newsColumns is the select list shared by every news query.
// The author username is resolved through the users join.
const newsColumns = `
	n.id, n.title, n.content, n.category, n.image_path,
	n.author_id, u.username, n.is_published, n.views,
	n.created_at, n.updated_at
`

// scanNews scans one joined news row
func scanNews(scanner interface{ Scan(...any) error }) (*models.News, error) {
	var n models.News
	var imagePath sql.NullString
	var username string

	err := scanner.Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&n.Category,
		&imagePath,
		&n.AuthorID,
		&username,
		&n.IsPublished,
		&n.Views,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if imagePath.Valid {
		n.ImagePath = imagePath.String
	}
	n.Author = &models.AuthorSummary{ID: n.AuthorID, Username: username}

	return &n, nil
}

// buildWhere assembles the WHERE clause for a resolved filter
func buildWhere(f models.NewsFilter) (string, []any) {
	conditions := []string{"n.is_published = ?"}
	args := []any{f.Published}

	if f.Category != "" {
		conditions = append(conditions, "n.category = ?")
		args = append(args, string(f.Category))
	}

	if f.Search != "" {
		conditions = append(conditions, "MATCH(n.title, n.content) AGAINST (? IN NATURAL LANGUAGE MODE)")
		args = append(args, f.Search)
	}

	return strings.Join(conditions, " AND "), args
}

// List retrieves one page of news matching the filter together with the total
// number of matching documents
func (r *newsRepository) List(ctx context.Context, f models.NewsFilter) ([]models.News, int64, error) {
	where, args := buildWhere(f)

	countQuery := fmt.Sprintf(`
		SELECT COUNT(*)
		FROM news n
		JOIN users u ON u.id = n.author_id
		WHERE %s
	`, where)

	var total int64
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count news: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT %s
		FROM news n
		JOIN users u ON u.id = n.author_id
		WHERE %s
		ORDER BY n.created_at DESC
		LIMIT ? OFFSET ?
	`, newsColumns, where)

	args = append(args, f.Limit, f.Offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query news: %w", err)
	}
	defer rows.Close()

	var news []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan news: %w", err)
		}
		news = append(news, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return news, total, nil
}

// ListTop retrieves the most viewed published news
func (r *newsRepository) ListTop(ctx context.Context, limit int) ([]models.News, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM news n
		JOIN users u ON u.id = n.author_id
		WHERE n.is_published = TRUE
		ORDER BY n.views DESC, n.created_at DESC
		LIMIT ?
	`, newsColumns)

	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query top news: %w", err)
	}
	defer rows.Close()

	var news []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news: %w", err)
		}
		news = append(news, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return news, nil
}

// ListByAuthor retrieves all news by one author, drafts included, newest first
func (r *newsRepository) ListByAuthor(ctx context.Context, authorID int) ([]models.News, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM news n
		JOIN users u ON u.id = n.author_id
		WHERE n.author_id = ?
		ORDER BY n.created_at DESC
	`, newsColumns)

	rows, err := r.db.QueryContext(ctx, query, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to query news by author: %w", err)
	}
	defer rows.Close()

	var news []models.News
	for rows.Next() {
		n, err := scanNews(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan news: %w", err)
		}
		news = append(news, *n)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return news, nil
}

// GetByID retrieves a single news document with the author's username and email
func (r *newsRepository) GetByID(ctx context.Context, id int) (*models.News, error) {
	query := `
		SELECT n.id, n.title, n.content, n.category, n.image_path,
			n.author_id, u.username, u.email, n.is_published, n.views,
			n.created_at, n.updated_at
		FROM news n
		JOIN users u ON u.id = n.author_id
		WHERE n.id = ?
	`

	var n models.News
	var imagePath sql.NullString
	var username, email string

	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&n.ID,
		&n.Title,
		&n.Content,
		&n.Category,
		&imagePath,
		&n.AuthorID,
		&username,
		&email,
		&n.IsPublished,
		&n.Views,
		&n.CreatedAt,
		&n.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("news not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query news: %w", err)
	}

	if imagePath.Valid {
		n.ImagePath = imagePath.String
	}
	n.Author = &models.AuthorSummary{ID: n.AuthorID, Username: username, Email: email}

	return &n, nil
}

// Create inserts a new news document and sets its generated ID
func (r *newsRepository) Create(ctx context.Context, n *models.News) error {
	query := `
		INSERT INTO news (title, content, category, image_path, author_id, is_published)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	imagePath := sql.NullString{String: n.ImagePath, Valid: n.ImagePath != ""}

	result, err := r.db.ExecContext(ctx, query,
		n.Title, n.Content, string(n.Category), imagePath, n.AuthorID, n.IsPublished)
	if err != nil {
		return fmt.Errorf("failed to create news: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}

	n.ID = int(id)
	return nil
}

// Update persists the mutable fields of a news document.
// author_id, created_at and id are never written after creation.
func (r *newsRepository) Update(ctx context.Context, n *models.News) error {
	query := `
		UPDATE news
		SET title = ?, content = ?, category = ?, image_path = ?, is_published = ?
		WHERE id = ?
	`

	imagePath := sql.NullString{String: n.ImagePath, Valid: n.ImagePath != ""}

	// No RowsAffected check: MySQL reports zero affected rows for a no-op
	// update, and callers verify existence before updating.
	_, err := r.db.ExecContext(ctx, query,
		n.Title, n.Content, string(n.Category), imagePath, n.IsPublished, n.ID)
	if err != nil {
		return fmt.Errorf("failed to update news: %w", err)
	}

	return nil
}

// Delete removes a news document
func (r *newsRepository) Delete(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM news WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete news: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("news not found")
	}

	return nil
}

// IncrementViews bumps the view counter by one in a single atomic statement
func (r *newsRepository) IncrementViews(ctx context.Context, id int) error {
	result, err := r.db.ExecContext(ctx, `UPDATE news SET views = views + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to increment views: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("news not found")
	}

	return nil
}
