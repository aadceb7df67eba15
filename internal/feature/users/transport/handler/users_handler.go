// Package handler provides the HTTP handlers for the users feature.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"sns_backend/internal/feature/users/domain/entity"
	"sns_backend/internal/feature/users/transport/http/dto"
	jwtmw "sns_backend/internal/platform/jwt"
	"sns_backend/internal/platform/http/params"
	"sns_backend/internal/platform/pagination"
	"sns_backend/internal/shared/apperror"
)

// UsersUsecase defines the user operations the handler needs.
// Following Go convention, the consumer (handler) defines the interface.
type UsersUsecase interface {
	FindOne(ctx context.Context, id uint) (*entity.User, error)
	Update(ctx context.Context, actorID, id uint, name string) (*entity.User, error)
	Remove(ctx context.Context, actorID, id uint) error
	Paginate(ctx context.Context, req pagination.Request) (pagination.Page[entity.User], error)
}

// UsersHandler handles HTTP requests for accounts.
type UsersHandler struct {
	uc     UsersUsecase
	limits pagination.Limits
}

// NewUsersHandler creates a UsersHandler.
func NewUsersHandler(uc UsersUsecase, limits pagination.Limits) *UsersHandler {
	return &UsersHandler{uc: uc, limits: limits}
}

// List handles GET /users.
func (h *UsersHandler) List(c *gin.Context) {
	req, err := h.limits.Parse(c.Request.URL.RawQuery)
	if err != nil {
		_ = c.Error(err)
		return
	}
	page, err := h.uc.Paginate(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// Get handles GET /users/:id.
func (h *UsersHandler) Get(c *gin.Context) {
	id, err := params.ID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return
	}
	user, err := h.uc.FindOne(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update handles PATCH /users/:id. Only the account owner may rename it.
func (h *UsersHandler) Update(c *gin.Context) {
	actorID, id, ok := h.target(c)
	if !ok {
		return
	}

	var req dto.UpdateUserReq
	if err := c.ShouldBindJSON(&req); err != nil {
		slog.Warn("invalid update user request", "error", err, "remote_addr", c.ClientIP())
		_ = c.Error(apperror.Validation("invalid request body", err))
		return
	}

	user, err := h.uc.Update(c.Request.Context(), actorID, id, req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Delete handles DELETE /users/:id. Only the account owner may delete it.
func (h *UsersHandler) Delete(c *gin.Context) {
	actorID, id, ok := h.target(c)
	if !ok {
		return
	}
	if err := h.uc.Remove(c.Request.Context(), actorID, id); err != nil {
		_ = c.Error(err)
		return
	}
	c.Status(http.StatusNoContent)
}

// target returns the authenticated caller and the addressed account id.
func (h *UsersHandler) target(c *gin.Context) (actorID, id uint, ok bool) {
	actorID, ok = jwtmw.UserID(c)
	if !ok {
		_ = c.Error(apperror.Unauthorized("authentication required"))
		return 0, 0, false
	}
	id, err := params.ID(c, "id")
	if err != nil {
		_ = c.Error(err)
		return 0, 0, false
	}
	return actorID, id, true
}
