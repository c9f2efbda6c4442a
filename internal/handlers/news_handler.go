package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/newsportal/backend/internal/middleware"
	"github.com/newsportal/backend/internal/models"
	"github.com/newsportal/backend/internal/services"
	"github.com/newsportal/backend/internal/storage"
)

// multipartMaxMemory bounds the in-memory part of multipart parsing;
// larger parts spill to temp files
const multipartMaxMemory = 8 * 1024 * 1024

// NewsService is the interface that wraps news business logic
type NewsService interface {
	// List returns one page of news visible to the identity. The identity may
	// be nil for anonymous callers.
	List(ctx context.Context, identity *models.Identity, q models.ListNewsQuery) (*models.PaginatedNews, error)
	// Top returns the most viewed published news.
	Top(ctx context.Context) ([]models.News, error)
	// ListOwn returns all of the caller's own news, drafts included.
	ListOwn(ctx context.Context, identity *models.Identity) ([]models.News, error)
	// Get fetches one news document, enforcing visibility and counting the view.
	Get(ctx context.Context, identity *models.Identity, id int) (*models.News, error)
	// Create stores a new article owned by the caller.
	Create(ctx context.Context, identity *models.Identity, req models.CreateNewsRequest) (*models.News, error)
	// Update applies a partial update; owner or admin only.
	Update(ctx context.Context, identity *models.Identity, id int, req models.UpdateNewsRequest) (*models.News, error)
	// Delete removes an article; owner or admin only.
	Delete(ctx context.Context, identity *models.Identity, id int) error
}

// ImageSaver stores an uploaded image and returns its public path
type ImageSaver interface {
	Save(r io.Reader, extension string) (string, error)
}

// NewsHandler handles HTTP requests for news
type NewsHandler struct {
	BaseHandler
	service       NewsService
	images        ImageSaver
	maxUploadSize int64
}

// NewNewsHandler creates a new news handler
func NewNewsHandler(svc NewsService, images ImageSaver, maxUploadSize int64, logger *zap.Logger) *NewsHandler {
	return &NewsHandler{
		BaseHandler:   BaseHandler{Logger: logger},
		service:       svc,
		images:        images,
		maxUploadSize: maxUploadSize,
	}
}

// RegisterRoutes registers all news handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *NewsHandler) RegisterRoutes(r chi.Router, authMiddleware, optionalAuthMiddleware func(http.Handler) http.Handler) {
	r.Route("/news", func(r chi.Router) {
		r.With(optionalAuthMiddleware).Get("/", h.List)
		r.Get("/top", h.Top)
		r.With(authMiddleware).Get("/user", h.ListOwn)
		r.With(optionalAuthMiddleware).Get("/{id}", h.GetByID)
		r.With(authMiddleware).Post("/", h.Create)
		r.With(authMiddleware).Put("/{id}", h.Update)
		r.With(authMiddleware).Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/v1/news
// @Summary List news
// @Description Get a paginated list of news. Drafts are only listed for admins requesting isPublished=false explicitly.
// @Tags news
// @Accept json
// @Produce json
// @Param category query string false "Category filter"
// @Param search query string false "Full-text search over title and content"
// @Param page query int false "Page number, 1-indexed, default 1"
// @Param limit query int false "Page size, default 10, max 100"
// @Param isPublished query bool false "Admins only: false lists drafts"
// @Success 200 {object} models.PaginatedNews "Paginated news"
// @Failure 400 {object} map[string]string "Unknown category"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/news [get]
func (h *NewsHandler) List(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	q := models.ListNewsQuery{
		Category: query.Get("category"),
		Search:   query.Get("search"),
	}

	if pageParam := query.Get("page"); pageParam != "" {
		page, err := strconv.Atoi(pageParam)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid page parameter")
			return
		}
		q.Page = page
	}

	if limitParam := query.Get("limit"); limitParam != "" {
		limit, err := strconv.Atoi(limitParam)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid limit parameter")
			return
		}
		q.Limit = limit
	}

	if publishedParam := query.Get("isPublished"); publishedParam != "" {
		published, err := strconv.ParseBool(publishedParam)
		if err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid isPublished parameter")
			return
		}
		q.IsPublished = &published
	}

	identity := middleware.GetIdentity(r.Context())

	news, err := h.service.List(r.Context(), identity, q)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, news)
}

// Top handles GET /api/v1/news/top
// @Summary Top news
// @Description Get the six most viewed published news
// @Tags news
// @Accept json
// @Produce json
// @Success 200 {array} models.News "Top news"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/news/top [get]
func (h *NewsHandler) Top(w http.ResponseWriter, r *http.Request) {
	news, err := h.service.Top(r.Context())
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, news)
}

// ListOwn handles GET /api/v1/news/user
// @Summary Own news
// @Description Get all of the caller's own news, drafts included, newest first
// @Tags news
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {array} models.News "Own news"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/news/user [get]
func (h *NewsHandler) ListOwn(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	news, err := h.service.ListOwn(r.Context(), identity)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, news)
}

// GetByID handles GET /api/v1/news/{id}
// @Summary Get news by ID
// @Description Get a single news document and count the view. Unpublished news is not found unless the caller owns it or is an admin.
// @Tags news
// @Accept json
// @Produce json
// @Param id path int true "News ID"
// @Success 200 {object} models.News "News details"
// @Failure 400 {object} map[string]string "Invalid id parameter"
// @Failure 404 {object} map[string]string "News not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/news/{id} [get]
func (h *NewsHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	identity := middleware.GetIdentity(r.Context())

	news, err := h.service.Get(r.Context(), identity, id)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, news)
}

// Create handles POST /api/v1/news
// @Summary Create news
// @Description Create a news article. Accepts JSON or multipart/form-data with an optional image part. The author is always the caller.
// @Tags news
// @Accept json
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param title formData string true "Title, at most 200 characters"
// @Param content formData string true "Content"
// @Param category formData string true "Category"
// @Param isPublished formData bool false "Publish immediately, default false"
// @Param image formData file false "Image, at most 5MB"
// @Success 201 {object} models.News "Created news"
// @Failure 400 {object} map[string]string "Validation error or rejected upload"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/news [post]
func (h *NewsHandler) Create(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	var req models.CreateNewsRequest

	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		req.Title = r.FormValue("title")
		req.Content = r.FormValue("content")
		req.Category = r.FormValue("category")
		if publishedParam := r.FormValue("isPublished"); publishedParam != "" {
			published, err := strconv.ParseBool(publishedParam)
			if err != nil {
				h.RespondError(w, http.StatusBadRequest, "invalid isPublished field")
				return
			}
			req.IsPublished = published
		}

		imagePath, err := h.saveImage(r)
		if err != nil {
			h.RespondServiceError(w, err)
			return
		}
		req.ImagePath = imagePath
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	news, err := h.service.Create(r.Context(), identity, req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusCreated, news)
}

// Update handles PUT /api/v1/news/{id}
// @Summary Update news
// @Description Partially update an article; owner or admin only. Omitted fields are untouched, an explicit isPublished=false unpublishes.
// @Tags news
// @Accept json
// @Accept mpfd
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "News ID"
// @Success 200 {object} models.News "Updated news"
// @Failure 400 {object} map[string]string "Validation error or rejected upload"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Not the owner and not an admin"
// @Failure 404 {object} map[string]string "News not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/news/{id} [put]
func (h *NewsHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	identity := middleware.GetIdentity(r.Context())

	var req models.UpdateNewsRequest

	if isMultipart(r) {
		if err := r.ParseMultipartForm(multipartMaxMemory); err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid multipart form")
			return
		}

		// Field presence decides what gets updated: a form key that is
		// present with an empty or false value is still an explicit value
		if v, ok := formValue(r, "title"); ok {
			req.Title = &v
		}
		if v, ok := formValue(r, "content"); ok {
			req.Content = &v
		}
		if v, ok := formValue(r, "category"); ok {
			req.Category = &v
		}
		if v, ok := formValue(r, "isPublished"); ok {
			published, err := strconv.ParseBool(v)
			if err != nil {
				h.RespondError(w, http.StatusBadRequest, "invalid isPublished field")
				return
			}
			req.IsPublished = &published
		}

		imagePath, err := h.saveImage(r)
		if err != nil {
			h.RespondServiceError(w, err)
			return
		}
		if imagePath != "" {
			req.ImagePath = &imagePath
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			h.RespondError(w, http.StatusBadRequest, "invalid request body")
			return
		}
	}

	news, err := h.service.Update(r.Context(), identity, id, req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, news)
}

// Delete handles DELETE /api/v1/news/{id}
// @Summary Delete news
// @Description Delete an article; owner or admin only
// @Tags news
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "News ID"
// @Success 200 {object} map[string]string "Confirmation"
// @Failure 400 {object} map[string]string "Invalid id parameter"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Not the owner and not an admin"
// @Failure 404 {object} map[string]string "News not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/news/{id} [delete]
func (h *NewsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	identity := middleware.GetIdentity(r.Context())

	if err := h.service.Delete(r.Context(), identity, id); err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, map[string]string{"message": "news removed successfully"})
}

// saveImage validates and stores the optional "image" part of a multipart
// request and returns the stored public path, or "" when no image was sent
func (h *NewsHandler) saveImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: invalid image upload", services.ErrUploadRejected)
	}
	defer file.Close()

	if err := h.validateImage(header); err != nil {
		return "", err
	}

	path, err := h.images.Save(file, filepath.Ext(header.Filename))
	if err != nil {
		return "", fmt.Errorf("failed to store image: %w", err)
	}

	return path, nil
}

// validateImage enforces the image mimetype and size ceiling
func (h *NewsHandler) validateImage(header *multipart.FileHeader) error {
	contentType := header.Header.Get("Content-Type")
	if !storage.IsImageContentType(contentType) {
		return fmt.Errorf("%w: only image files are allowed", services.ErrUploadRejected)
	}
	if header.Size > h.maxUploadSize {
		return fmt.Errorf("%w: image exceeds %d bytes", services.ErrUploadRejected, h.maxUploadSize)
	}
	return nil
}

// isMultipart reports whether the request carries a multipart form body
func isMultipart(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data")
}

// formValue returns a parsed multipart form value and whether the key was present
func formValue(r *http.Request, key string) (string, bool) {
	if r.MultipartForm == nil {
		return "", false
	}
	values, ok := r.MultipartForm.Value[key]
	if !ok || len(values) == 0 {
		return "", false
	}
	return values[0], true
}
