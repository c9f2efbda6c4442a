package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/newsportal/backend/internal/models"
)

// Listing defaults. The top listing is a fixed-size board, the paged listing
// defaults to ten documents and is capped to keep result sets bounded.
const (
	defaultListLimit = 10
	maxListLimit     = 100
	topNewsLimit     = 6
	maxTitleLength   = 200
)

// NewsRepository is the interface that wraps news data access
type NewsRepository interface {
	// List retrieves one page of news matching the resolved filter together
	// with the total number of matching documents.
	List(ctx context.Context, f models.NewsFilter) ([]models.News, int64, error)
	// ListTop retrieves the most viewed published news, views descending then
	// newest first.
	ListTop(ctx context.Context, limit int) ([]models.News, error)
	// ListByAuthor retrieves all news by one author, drafts included, newest first.
	ListByAuthor(ctx context.Context, authorID int) ([]models.News, error)
	// GetByID retrieves a single news document with its author populated.
	GetByID(ctx context.Context, id int) (*models.News, error)
	// Create inserts a news document and sets its generated ID.
	Create(ctx context.Context, n *models.News) error
	// Update persists the mutable fields of a news document.
	Update(ctx context.Context, n *models.News) error
	// Delete removes a news document.
	Delete(ctx context.Context, id int) error
	// IncrementViews bumps the view counter by one atomically.
	IncrementViews(ctx context.Context, id int) error
}

// ImageRemover removes a stored image by its public path.
// Used to clean up replaced or orphaned article images, best effort.
type ImageRemover interface {
	Delete(publicPath string) error
}

type newsService struct {
	repo   NewsRepository
	images ImageRemover
	logger *zap.Logger
}

// NewNewsService creates a new news service
func NewNewsService(repo NewsRepository, images ImageRemover, logger *zap.Logger) *newsService {
	return &newsService{
		repo:   repo,
		images: images,
		logger: logger,
	}
}

// resolveVisibility turns the caller identity plus the requested isPublished
// value into the published predicate. Non-admins always see published news
// only; an admin sees drafts only on explicit request, never by default.
func resolveVisibility(identity *models.Identity, requested *bool) bool {
	if identity.IsAdmin() && requested != nil && !*requested {
		return false
	}
	return true
}

// clampPage normalizes the 1-indexed page number
func clampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// clampLimit normalizes the page size: zero means default, negatives are
// clamped to one, oversized requests are capped
func clampLimit(limit int) int {
	switch {
	case limit == 0:
		return defaultListLimit
	case limit < 1:
		return 1
	case limit > maxListLimit:
		return maxListLimit
	default:
		return limit
	}
}

// List returns one page of news visible to the given identity
func (s *newsService) List(ctx context.Context, identity *models.Identity, q models.ListNewsQuery) (*models.PaginatedNews, error) {
	var category models.Category
	if q.Category != "" {
		category = models.Category(q.Category)
		if !category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, q.Category)
		}
	}

	page := clampPage(q.Page)
	limit := clampLimit(q.Limit)

	filter := models.NewsFilter{
		Published: resolveVisibility(identity, q.IsPublished),
		Category:  category,
		Search:    strings.TrimSpace(q.Search),
		Limit:     limit,
		Offset:    (page - 1) * limit,
	}

	docs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list news: %w", err)
	}
	if docs == nil {
		docs = []models.News{}
	}

	totalPages := int((total + int64(limit) - 1) / int64(limit))

	return &models.PaginatedNews{
		Docs:        docs,
		TotalDocs:   total,
		Limit:       limit,
		Page:        page,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}, nil
}

// Top returns the six most viewed published news
func (s *newsService) Top(ctx context.Context) ([]models.News, error) {
	docs, err := s.repo.ListTop(ctx, topNewsLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to list top news: %w", err)
	}
	if docs == nil {
		docs = []models.News{}
	}
	return docs, nil
}

// ListOwn returns all of the caller's own news, drafts included
func (s *newsService) ListOwn(ctx context.Context, identity *models.Identity) ([]models.News, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	docs, err := s.repo.ListByAuthor(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list own news: %w", err)
	}
	if docs == nil {
		docs = []models.News{}
	}
	return docs, nil
}

// Get fetches one news document by id and counts the view.
// Unpublished news is only visible to its author or an admin; everyone else
// gets a not-found result so drafts are not discoverable by id probing.
func (s *newsService) Get(ctx context.Context, identity *models.Identity, id int) (*models.News, error) {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}

	if !n.IsPublished && !canMutate(identity, n) {
		return nil, ErrNotFound
	}

	if err := s.repo.IncrementViews(ctx, n.ID); err != nil {
		return nil, translateNotFound(err)
	}
	n.Views++

	return n, nil
}

// Create stores a new article owned by the caller. The author is always the
// authenticated identity; any client-supplied author value is ignored by
// construction, since the request carries no author field.
func (s *newsService) Create(ctx context.Context, identity *models.Identity, req models.CreateNewsRequest) (*models.News, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	if err := validateTitle(req.Title); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Content) == "" {
		return nil, fmt.Errorf("%w: content is required", ErrValidation)
	}
	category := models.Category(req.Category)
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, req.Category)
	}

	n := &models.News{
		Title:       strings.TrimSpace(req.Title),
		Content:     req.Content,
		Category:    category,
		ImagePath:   req.ImagePath,
		AuthorID:    identity.UserID,
		IsPublished: req.IsPublished,
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to create news: %w", err)
	}

	// Re-fetch so the response carries the populated author and timestamps
	created, err := s.repo.GetByID(ctx, n.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load created news: %w", err)
	}

	return created, nil
}

// Update applies a partial update to an article. Only the owner or an admin
// may update; only title, content, category, isPublished and the image are
// mutable. Nil request fields are left untouched; non-nil fields are applied
// even when they carry a zero value, so an explicit isPublished=false
// unpublishes.
func (s *newsService) Update(ctx context.Context, identity *models.Identity, id int, req models.UpdateNewsRequest) (*models.News, error) {
	if identity == nil {
		return nil, ErrUnauthenticated
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, translateNotFound(err)
	}

	if !canMutate(identity, n) {
		return nil, fmt.Errorf("%w: not authorized to edit this news", ErrForbidden)
	}

	if req.Title != nil {
		if err := validateTitle(*req.Title); err != nil {
			return nil, err
		}
		n.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil {
		if strings.TrimSpace(*req.Content) == "" {
			return nil, fmt.Errorf("%w: content is required", ErrValidation)
		}
		n.Content = *req.Content
	}
	if req.Category != nil {
		category := models.Category(*req.Category)
		if !category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", ErrValidation, *req.Category)
		}
		n.Category = category
	}
	if req.IsPublished != nil {
		n.IsPublished = *req.IsPublished
	}

	var replacedImage string
	if req.ImagePath != nil {
		replacedImage = n.ImagePath
		n.ImagePath = *req.ImagePath
	}

	if err := s.repo.Update(ctx, n); err != nil {
		return nil, fmt.Errorf("failed to update news: %w", err)
	}

	// The previous image is orphaned once the update is persisted; removal is
	// best effort and never fails the request.
	if replacedImage != "" && replacedImage != n.ImagePath {
		s.removeImage(replacedImage)
	}

	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load updated news: %w", err)
	}

	return updated, nil
}

// Delete removes an article. Only the owner or an admin may delete.
func (s *newsService) Delete(ctx context.Context, identity *models.Identity, id int) error {
	if identity == nil {
		return ErrUnauthenticated
	}

	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return translateNotFound(err)
	}

	if !canMutate(identity, n) {
		return fmt.Errorf("%w: not authorized to delete this news", ErrForbidden)
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return translateNotFound(err)
	}

	if n.ImagePath != "" {
		s.removeImage(n.ImagePath)
	}

	return nil
}

// canMutate reports whether the identity owns the document or is an admin
func canMutate(identity *models.Identity, n *models.News) bool {
	if identity == nil {
		return false
	}
	return identity.UserID == n.AuthorID || identity.Role == models.RoleAdmin
}

// validateTitle checks the title is present and at most 200 characters
func validateTitle(title string) error {
	trimmed := strings.TrimSpace(title)
	if trimmed == "" {
		return fmt.Errorf("%w: title is required", ErrValidation)
	}
	if utf8.RuneCountInString(trimmed) > maxTitleLength {
		return fmt.Errorf("%w: title must be at most %d characters", ErrValidation, maxTitleLength)
	}
	return nil
}

// removeImage deletes a stored image, logging failures instead of surfacing them
func (s *newsService) removeImage(publicPath string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(publicPath); err != nil {
		s.logger.Warn("failed to remove stored image",
			zap.String("path", publicPath),
			zap.Error(err),
		)
	}
}

// translateNotFound maps the repository's not-found error to the service
// taxonomy and wraps everything else
func translateNotFound(err error) error {
	if strings.Contains(err.Error(), "not found") {
		return ErrNotFound
	}
	return fmt.Errorf("news lookup failed: %w", err)
}
