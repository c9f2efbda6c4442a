package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/newsportal/backend/internal/middleware"
	"github.com/newsportal/backend/internal/models"
)

// UserService is the interface that wraps user profile business logic
type UserService interface {
	// UpdateProfile changes a user's username and email; self only.
	UpdateProfile(ctx context.Context, identity *models.Identity, userID int, req models.UpdateProfileRequest) (*models.User, error)
}

// UserHandler handles user profile HTTP requests
type UserHandler struct {
	BaseHandler
	service UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(svc UserService, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		BaseHandler: BaseHandler{Logger: logger},
		service:     svc,
	}
}

// RegisterRoutes registers all user handler routes
// Note: This assumes the router is already scoped to /api/v1
func (h *UserHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/users", func(r chi.Router) {
		r.With(authMiddleware).Put("/{id}", h.UpdateProfile)
	})
}

// UpdateProfile handles PUT /api/v1/users/{id}
// @Summary Update profile
// @Description Update the caller's own username and email
// @Tags users
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "User ID"
// @Param request body models.UpdateProfileRequest true "Profile data"
// @Success 200 {object} models.User "Updated user"
// @Failure 400 {object} map[string]string "Validation error"
// @Failure 401 {object} map[string]string "Authentication required"
// @Failure 403 {object} map[string]string "Not the profile owner"
// @Failure 404 {object} map[string]string "User not found"
// @Failure 500 {object} map[string]string "Internal server error"
// @Router /api/v1/users/{id} [put]
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid id parameter")
		return
	}

	var req models.UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	identity := middleware.GetIdentity(r.Context())

	user, err := h.service.UpdateProfile(r.Context(), identity, id, req)
	if err != nil {
		h.RespondServiceError(w, err)
		return
	}

	h.RespondJSON(w, http.StatusOK, user)
}
